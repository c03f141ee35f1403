package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-table/internal/domain/user"
	apperrors "user-table/pkg/errors"
	"user-table/pkg/security"
)

// UserRepo implements the usecase Repository with GORM. It runs on PostgreSQL in
// production and on SQLite for local use and tests.
type UserRepo struct {
	db  *gorm.DB    // GORM database connection
	log *zap.Logger // Structured logger for database operations
}

// NewUserRepo creates a new instance of UserRepo.
func NewUserRepo(db *gorm.DB, log *zap.Logger) *UserRepo {
	return &UserRepo{db: db, log: log.Named("user_repo")}
}

// UserSchema represents the database schema for the users table.
type UserSchema struct {
	ID         int64                      `gorm:"primaryKey;autoIncrement"`
	FirstName  string                     `gorm:"not null"`
	Email      string                     `gorm:"not null;uniqueIndex"`
	Attributes map[string]json.RawMessage `gorm:"serializer:json;type:text"` // every other user field
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

func toSchema(u *user.User) UserSchema {
	return UserSchema{
		ID:         u.ID,
		FirstName:  u.FirstName,
		Email:      u.Email,
		Attributes: u.Extra,
	}
}

func (m UserSchema) toDomain() user.User {
	return user.User{
		ID:        m.ID,
		FirstName: m.FirstName,
		Email:     m.Email,
		Extra:     m.Attributes,
	}
}

func notFound(id int64) error {
	return apperrors.NewNotFoundError("user", fmt.Sprintf("User with id '%d' not found", id))
}

// Create inserts a new user into the database.
func (r *UserRepo) Create(ctx context.Context, u *user.User) (int64, error) {
	if u == nil {
		return 0, errors.New("user cannot be nil")
	}

	model := toSchema(u)
	model.ID = 0
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if IsUniqueViolation(err) {
			return 0, apperrors.NewAlreadyExistsError("user", fmt.Sprintf("User with email '%s' already exists", u.Email))
		}
		r.log.Error("failed to create user in db", zap.Error(err), zap.String("email", u.Email))
		return 0, fmt.Errorf("failed to create user: %w", err)
	}

	r.log.Info("user created in db", zap.Int64("id", model.ID))
	return model.ID, nil
}

// Update overwrites the stored fields of an existing user.
func (r *UserRepo) Update(ctx context.Context, u *user.User) error {
	if u == nil {
		return errors.New("user cannot be nil")
	}

	model := toSchema(u)
	res := r.db.WithContext(ctx).Model(&UserSchema{ID: u.ID}).
		Select("FirstName", "Email", "Attributes", "UpdatedAt").
		Updates(&model)
	if res.Error != nil {
		if IsUniqueViolation(res.Error) {
			return apperrors.NewAlreadyExistsError("user", fmt.Sprintf("User with email '%s' already exists", u.Email))
		}
		r.log.Error("failed to update user in db", zap.Error(res.Error), zap.Int64("id", u.ID))
		return fmt.Errorf("failed to update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(u.ID)
	}

	r.log.Info("user updated in db", zap.Int64("id", u.ID))
	return nil
}

// Delete removes a user from the database by ID.
func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return errors.New("invalid user id")
	}

	res := r.db.WithContext(ctx).Delete(&UserSchema{}, id)
	if res.Error != nil {
		r.log.Error("failed to delete user in db", zap.Error(res.Error), zap.Int64("id", id))
		return fmt.Errorf("failed to delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(id)
	}

	r.log.Info("user deleted in db", zap.Int64("id", id))
	return nil
}

// GetByID retrieves a user from the database by their unique ID.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("user not found", zap.Int64("id", id))
			return nil, notFound(id)
		}
		r.log.Error("failed to get user from db", zap.Error(err), zap.Int64("id", id))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u := model.toDomain()
	return &u, nil
}

// GetByEmail retrieves a user from the database by their email address.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("user not found by email", zap.String("email", email))
			return nil, nil
		}
		r.log.Error("failed to get user by email from db", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	u := model.toDomain()
	return &u, nil
}

// List returns users ordered by id together with the number of matches.
// query matches first name or email case-insensitively; limit 0 returns every match.
func (r *UserRepo) List(ctx context.Context, query string, skip, limit int64) ([]user.User, int64, error) {
	q, err := security.ValidateSearchQuery(query)
	if err != nil {
		r.log.Warn("invalid search query", zap.String("query", query), zap.Error(err))
		return nil, 0, apperrors.NewValidationError("q", fmt.Sprintf("invalid search query: %v", err))
	}
	query = q

	tx := r.db.WithContext(ctx).Model(&UserSchema{})
	if query != "" {
		pattern := security.LikePattern(query)
		tx = tx.Where(`LOWER(first_name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\'`, pattern, pattern)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		r.log.Error("failed to count users", zap.Error(err), zap.String("query", query))
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	tx = tx.Order("id ASC").Offset(int(skip))
	if limit > 0 {
		tx = tx.Limit(int(limit))
	}

	var models []UserSchema
	if err := tx.Find(&models).Error; err != nil {
		r.log.Error("failed to list users from db", zap.Error(err), zap.String("query", query),
			zap.Int64("skip", skip), zap.Int64("limit", limit))
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]user.User, len(models))
	for i, model := range models {
		users[i] = model.toDomain()
	}
	return users, total, nil
}

// AutoMigrate creates or updates the users table.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&UserSchema{}); err != nil {
		return fmt.Errorf("migrate users table: %w", err)
	}
	return nil
}

// IsUniqueViolation reports whether err comes from a duplicate email.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
