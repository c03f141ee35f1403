package postgres

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"user-table/internal/domain/user"
	apperrors "user-table/pkg/errors"
	"user-table/pkg/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.NewGormLogger(zaptest.NewLogger(t), 0.2, "warn"),
		TranslateError: true,
	})
	require.NoError(t, err)

	// One connection, so every query sees the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))
	return db
}

func setupTestRepo(t *testing.T, users ...user.User) *UserRepo {
	repo := NewUserRepo(setupTestDB(t), zaptest.NewLogger(t))
	for _, u := range users {
		_, err := repo.Create(context.Background(), &u)
		require.NoError(t, err)
	}
	return repo
}

func TestUserRepo_CreateAndGet(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, &user.User{
		ID:        999, // ignored, ids are assigned by the database
		FirstName: "Ada",
		Email:     "ada@x.com",
		Extra:     map[string]json.RawMessage{"lastName": json.RawMessage(`"Lovelace"`)},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.FirstName)
	assert.Equal(t, "ada@x.com", got.Email)
	assert.JSONEq(t, `"Lovelace"`, string(got.Extra["lastName"]))

	byEmail, err := repo.GetByEmail(ctx, "ada@x.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, id, byEmail.ID)

	missing, err := repo.GetByEmail(ctx, "nobody@x.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepo_Create_DuplicateEmail(t *testing.T) {
	repo := setupTestRepo(t, user.User{FirstName: "Ada", Email: "ada@x.com"})

	_, err := repo.Create(context.Background(), &user.User{FirstName: "Other", Email: "ada@x.com"})

	var ae *apperrors.AlreadyExistsError
	require.ErrorAs(t, err, &ae)
}

func TestUserRepo_GetByID_NotFound(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.GetByID(context.Background(), 42)

	var nf *apperrors.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "User with id '42' not found", err.Error())
}

func TestUserRepo_Update(t *testing.T) {
	repo := setupTestRepo(t, user.User{FirstName: "Eve", Email: "eve@x.com"})
	ctx := context.Background()

	err := repo.Update(ctx, &user.User{
		ID:        1,
		FirstName: "Evelyn",
		Email:     "evelyn@x.com",
		Extra:     map[string]json.RawMessage{"age": json.RawMessage(`31`)},
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Evelyn", got.FirstName)
	assert.Equal(t, "evelyn@x.com", got.Email)
	assert.JSONEq(t, `31`, string(got.Extra["age"]))

	err = repo.Update(ctx, &user.User{ID: 77, FirstName: "Ghost", Email: "ghost@x.com"})
	var nf *apperrors.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestUserRepo_Delete(t *testing.T) {
	repo := setupTestRepo(t, user.User{FirstName: "Grace", Email: "grace@x.com"})
	ctx := context.Background()

	require.NoError(t, repo.Delete(ctx, 1))

	_, err := repo.GetByID(ctx, 1)
	var nf *apperrors.NotFoundError
	assert.ErrorAs(t, err, &nf)

	err = repo.Delete(ctx, 1)
	assert.ErrorAs(t, err, &nf)
}

func TestUserRepo_List_Window(t *testing.T) {
	var users []user.User
	for i := 0; i < 5; i++ {
		users = append(users, user.User{FirstName: "User", Email: string(rune('a'+i)) + "@x.com"})
	}
	repo := setupTestRepo(t, users...)
	ctx := context.Background()

	page, total, err := repo.List(ctx, "", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page, 2)
	assert.Equal(t, int64(2), page[0].ID)
	assert.Equal(t, int64(3), page[1].ID)

	all, total, err := repo.List(ctx, "", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, all, 5)

	tail, _, err := repo.List(ctx, "", 3, 0)
	require.NoError(t, err)
	assert.Len(t, tail, 2)
}

func TestUserRepo_List_SQLInjectionProtection(t *testing.T) {
	repo := setupTestRepo(t,
		user.User{FirstName: "John", Email: "john@example.com"},
		user.User{FirstName: "Jane", Email: "jane@example.com"},
		user.User{FirstName: "Admin", Email: "admin@example.com"},
	)

	tests := []struct {
		name        string
		query       string
		expectError bool
		expectCount int
	}{
		{name: "valid search query", query: "john", expectCount: 1},
		{name: "empty search query", query: "", expectCount: 3},
		{name: "SQL injection attempt - UNION", query: "john UNION SELECT * FROM users", expectError: true},
		{name: "SQL injection attempt - OR condition", query: "john OR 1=1", expectError: true},
		{name: "SQL injection attempt - DROP", query: "john; DROP TABLE users", expectError: true},
		{name: "SQL injection attempt - comment", query: "john --", expectError: true},
		{name: "XSS attempt", query: "<script>alert('xss')</script>", expectError: true},
		{name: "query too long", query: strings.Repeat("a", 101), expectError: true},
		{name: "invalid characters", query: "john&doe", expectError: true},
		{name: "valid email search", query: "example.com", expectCount: 3},
		{name: "valid special characters", query: "john.doe+test@example.com", expectCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, total, err := repo.List(context.Background(), tt.query, 0, 10)

			if tt.expectError {
				var ve *apperrors.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Contains(t, err.Error(), "invalid search query")
				assert.Nil(t, users)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, users)
			assert.Len(t, users, tt.expectCount)
			assert.Equal(t, int64(tt.expectCount), total)
		})
	}
}

func TestUserRepo_List_WildcardEscaping(t *testing.T) {
	repo := setupTestRepo(t,
		user.User{FirstName: "John%Test", Email: "john%test@example.com"},
		user.User{FirstName: "Jane_Test", Email: "jane_test@example.com"},
		user.User{FirstName: "JaneXTest", Email: "janextest@example.com"},
	)

	tests := []struct {
		name        string
		query       string
		expectCount int
	}{
		{name: "percent literal", query: "John%Test", expectCount: 1},
		{name: "underscore literal", query: "Jane_Test", expectCount: 1},
		{name: "trailing percent", query: "john%", expectCount: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, _, err := repo.List(context.Background(), tt.query, 0, 10)
			require.NoError(t, err)
			assert.Len(t, users, tt.expectCount)
		})
	}
}

func TestUserRepo_List_CaseInsensitiveSearch(t *testing.T) {
	repo := setupTestRepo(t,
		user.User{FirstName: "John", Email: "JOHN@EXAMPLE.COM"},
		user.User{FirstName: "jane", Email: "jane@example.com"},
		user.User{FirstName: "ADMIN", Email: "root@example.com"},
	)

	for _, q := range []string{"john", "JOHN", "Admin"} {
		users, _, err := repo.List(context.Background(), q, 0, 10)
		require.NoError(t, err)
		assert.Len(t, users, 1, q)
	}
}

func TestSeed(t *testing.T) {
	db := setupTestDB(t)
	log := zaptest.NewLogger(t)
	ctx := context.Background()

	n, err := Seed(ctx, db, log)
	require.NoError(t, err)
	assert.Equal(t, len(demoUsers), n)

	n, err = Seed(ctx, db, log)
	require.NoError(t, err)
	assert.Zero(t, n)

	repo := NewUserRepo(db, log)
	users, total, err := repo.List(ctx, "emily", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.JSONEq(t, `"Johnson"`, string(users[0].Extra["lastName"]))
}
