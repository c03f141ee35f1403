package usertable

import (
	"context"

	"go.uber.org/zap"

	domain "user-table/internal/domain/user"
	"user-table/pkg/logger"
)

// Op identifies which API call produced an Outcome.
type Op int

const (
	OpFetch Op = iota + 1
	OpCreate
	OpUpdate
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpFetch:
		return "fetch"
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Outcome is the result of one finished API call.
type Outcome struct {
	Op       Op
	TargetID int64         // user id of an update or delete
	User     domain.User   // created or updated user
	Users    []domain.User // fetched list
	Err      error
}

// Client is the users API the table talks to.
type Client interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	CreateUser(ctx context.Context, p domain.Profile) (domain.User, error)
	UpdateUser(ctx context.Context, id int64, p domain.Profile) (domain.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// Service issues the table's API calls and turns their results into Outcomes.
// Failures are logged and carried in Outcome.Err; they are never retried.
type Service struct {
	client  Client
	log     *zap.Logger
	observe func(Outcome)
}

// NewService creates a Service using the given client.
func NewService(client Client, log *zap.Logger) *Service {
	return &Service{client: client, log: log.Named("usertable")}
}

// Observe registers fn to see every Outcome the service produces. Call it before
// the service is shared.
func (s *Service) Observe(fn func(Outcome)) {
	s.observe = fn
}

func (s *Service) finish(o Outcome) Outcome {
	if s.observe != nil {
		s.observe(o)
	}
	return o
}

// Fetch loads the full user list.
func (s *Service) Fetch(ctx context.Context) Outcome {
	users, err := s.client.ListUsers(ctx)
	if err != nil {
		logger.WithContext(ctx, s.log).Error("error fetching users", zap.Error(err))
		return s.finish(Outcome{Op: OpFetch, Err: err})
	}
	return s.finish(Outcome{Op: OpFetch, Users: users})
}

// Submit sends the form of st: a create in create mode, an update of the edit target otherwise.
func (s *Service) Submit(ctx context.Context, st State) Outcome {
	if st.Editing == nil {
		return s.create(ctx, st.Form)
	}
	return s.update(ctx, st.Editing.ID, st.Form)
}

func (s *Service) create(ctx context.Context, f FormState) Outcome {
	created, err := s.client.CreateUser(ctx, f.Profile())
	if err != nil {
		logger.WithContext(ctx, s.log).Error("error adding user", zap.Error(err))
		return s.finish(Outcome{Op: OpCreate, Err: err})
	}
	return s.finish(Outcome{Op: OpCreate, User: created})
}

func (s *Service) update(ctx context.Context, id int64, f FormState) Outcome {
	updated, err := s.client.UpdateUser(ctx, id, f.Profile())
	if err != nil {
		logger.WithContext(ctx, s.log).Error("error updating user", zap.Int64("id", id), zap.Error(err))
		return s.finish(Outcome{Op: OpUpdate, TargetID: id, Err: err})
	}
	return s.finish(Outcome{Op: OpUpdate, TargetID: id, User: updated})
}

// Delete removes the user with the given id.
func (s *Service) Delete(ctx context.Context, id int64) Outcome {
	if err := s.client.DeleteUser(ctx, id); err != nil {
		logger.WithContext(ctx, s.log).Error("error deleting user", zap.Int64("id", id), zap.Error(err))
		return s.finish(Outcome{Op: OpDelete, TargetID: id, Err: err})
	}
	return s.finish(Outcome{Op: OpDelete, TargetID: id})
}
