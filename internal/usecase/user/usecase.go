package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domain "user-table/internal/domain/user"
	apperrors "user-table/pkg/errors"
	"user-table/pkg/logger"
)

// Service implements the business logic of the users backend.
// It provides a clean separation between the transport layer and data layer.
type Service struct {
	repo     Repository          // Repository for data access
	log      *zap.Logger         // Logger for structured logging
	validate *validator.Validate // Validator for request validation
	now      func() time.Time
}

var _ Usecase = (*Service)(nil)

// New creates a new instance of Service with the provided repository and logger.
func New(r Repository, log *zap.Logger) *Service {
	return &Service{repo: r, log: log.Named("usecase"), validate: validator.New(), now: time.Now}
}

// formatValidationError converts validator.ValidationErrors into a ValidationError
// naming the JSON fields at fault.
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperrors.NewValidationError("", err.Error())
	}

	var fields, messages []string
	for _, e := range validationErrors {
		field := jsonName(e.Field())
		fields = append(fields, field)
		switch e.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", field))
		case "email":
			messages = append(messages, fmt.Sprintf("%s must be a valid email", field))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s characters", field, e.Param()))
		case "gt":
			messages = append(messages, fmt.Sprintf("%s must be greater than %s", field, e.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", field))
		}
	}
	return apperrors.NewValidationError(strings.Join(fields, ","), strings.Join(messages, ", "))
}

func jsonName(field string) string {
	if field == "ID" {
		return domain.FieldID
	}
	r, size := utf8.DecodeRuneInString(field)
	return string(unicode.ToLower(r)) + field[size:]
}

func invalidID(id int64) error {
	return apperrors.NewValidationError(domain.FieldID, fmt.Sprintf("invalid user id %d", id))
}

// checkEmailFree fails when email belongs to a user other than ownerID.
func (s *Service) checkEmailFree(ctx context.Context, log *zap.Logger, email string, ownerID int64) error {
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		log.Error("failed to check existing email", zap.String("email", email), zap.Error(err))
		return apperrors.NewInternalError("failed to validate email uniqueness", err)
	}
	if existing != nil && existing.ID != ownerID {
		log.Warn("email already exists", zap.String("email", email), zap.Int64("existing_id", existing.ID))
		return apperrors.NewAlreadyExistsError("user", fmt.Sprintf("User with email '%s' already exists", email))
	}
	return nil
}

// CreateUser creates a new user after validating the request and checking email uniqueness.
func (s *Service) CreateUser(ctx context.Context, in CreateUserRequest) (*domain.User, error) {
	log := logger.WithContext(ctx, s.log)
	log.Info("creating user", zap.String("first_name", in.FirstName), zap.String("email", in.Email))

	if err := s.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}
	if err := s.checkEmailFree(ctx, log, in.Email, 0); err != nil {
		return nil, err
	}

	u := &domain.User{FirstName: in.FirstName, Email: in.Email, Extra: in.Extra}
	id, err := s.repo.Create(ctx, u)
	if err != nil {
		log.Error("failed to create user", zap.Error(err))
		return nil, err
	}
	u.ID = id
	return u, nil
}

// UpdateUser merges the request into the stored user after validating it and
// checking email uniqueness.
func (s *Service) UpdateUser(ctx context.Context, in UpdateUserRequest) (*domain.User, error) {
	log := logger.WithContext(ctx, s.log)
	log.Info("updating user", zap.Int64("id", in.ID), zap.String("first_name", in.FirstName), zap.String("email", in.Email))

	if err := s.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	u, err := s.repo.GetByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	if in.Email != "" && in.Email != u.Email {
		if err := s.checkEmailFree(ctx, log, in.Email, in.ID); err != nil {
			return nil, err
		}
		u.Email = in.Email
	}
	if in.FirstName != "" {
		u.FirstName = in.FirstName
	}
	if len(in.Extra) > 0 {
		merged := make(map[string]json.RawMessage, len(u.Extra)+len(in.Extra))
		for k, v := range u.Extra {
			merged[k] = v
		}
		for k, v := range in.Extra {
			merged[k] = v
		}
		u.Extra = merged
	}

	if err := s.repo.Update(ctx, u); err != nil {
		log.Error("failed to update user", zap.Int64("id", in.ID), zap.Error(err))
		return nil, err
	}
	return u, nil
}

// DeleteUser removes a user and returns its last state.
func (s *Service) DeleteUser(ctx context.Context, id int64) (*DeletedUser, error) {
	log := logger.WithContext(ctx, s.log)
	log.Info("deleting user", zap.Int64("id", id))

	if id <= 0 {
		log.Warn("delete user validation failed", zap.Int64("id", id), zap.String("reason", "invalid id"))
		return nil, invalidID(id)
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		log.Error("failed to delete user", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}

	return &DeletedUser{User: *u, DeletedOn: s.now().UTC()}, nil
}

// GetUser retrieves a user by ID.
func (s *Service) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	if id <= 0 {
		logger.WithContext(ctx, s.log).Warn("get user validation failed", zap.Int64("id", id), zap.String("reason", "invalid id"))
		return nil, invalidID(id)
	}
	return s.repo.GetByID(ctx, id)
}

// ListUsers returns one window of users, optionally filtered by a search query.
func (s *Service) ListUsers(ctx context.Context, in ListUsersRequest) (*ListUsersResponse, error) {
	log := logger.WithContext(ctx, s.log)
	w := domain.NewWindow(0, in.Skip, in.Limit)

	log.Debug("listing users", zap.String("query", in.Query), zap.Int64("skip", w.Skip), zap.Int64("limit", w.Limit))

	users, total, err := s.repo.List(ctx, in.Query, w.Skip, w.Limit)
	if err != nil {
		var ve *apperrors.ValidationError
		if errors.As(err, &ve) {
			log.Warn("invalid search query", zap.String("query", in.Query), zap.Error(err))
		} else {
			log.Error("failed to list users", zap.String("query", in.Query), zap.Error(err))
		}
		return nil, err
	}

	w.Total = total
	return &ListUsersResponse{Users: users, Window: w}, nil
}
