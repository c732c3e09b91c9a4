package repository

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/storyloom/internal/db"
	"github.com/templui/storyloom/internal/model"
)

func newUser(username, email string) *model.User {
	return &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: "hash",
		CreatedAt:    time.Now(),
	}
}

func TestUserRepository_CreateDuplicates(t *testing.T) {
	conn, err := db.Init("sqlite", filepath.Join(t.TempDir(), "storyloom.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.RunMigrations(conn.DB, "sqlite"))

	users := NewUserRepository(conn)
	require.NoError(t, users.Create(newUser("amara", "amara@example.com")))

	err = users.Create(newUser("amara", "other@example.com"))
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	err = users.Create(newUser("zola", "amara@example.com"))
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestDuplicateUserError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "sqlite username",
			err:  errors.New("constraint failed: UNIQUE constraint failed: users.username (2067)"),
			want: ErrDuplicateUsername,
		},
		{
			name: "sqlite email",
			err:  errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)"),
			want: ErrDuplicateEmail,
		},
		{
			name: "postgres username",
			err: &pgconn.PgError{
				Severity:       "ERROR",
				Code:           "23505",
				Message:        `duplicate key value violates unique constraint "users_username_key"`,
				ConstraintName: "users_username_key",
			},
			want: ErrDuplicateUsername,
		},
		{
			name: "postgres email",
			err: &pgconn.PgError{
				Severity:       "ERROR",
				Code:           "23505",
				Message:        `duplicate key value violates unique constraint "users_email_key"`,
				ConstraintName: "users_email_key",
			},
			want: ErrDuplicateEmail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, duplicateUserError(tt.err), tt.want)
		})
	}
}

func TestDuplicateUserError_PassesOtherErrors(t *testing.T) {
	assert.NoError(t, duplicateUserError(nil))

	fk := &pgconn.PgError{Code: "23503", Message: `insert violates foreign key constraint "users_username_fkey"`}
	assert.Same(t, error(fk), duplicateUserError(fk))

	locked := errors.New("database is locked")
	assert.Same(t, locked, duplicateUserError(locked))
}
