package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/templui/storyloom/internal/model"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrDuplicateUsername = errors.New("username already exists")
)

type UserRepository interface {
	Create(user *model.User) error
	ByID(id string) (*model.User, error)
	ByEmail(email string) (*model.User, error)
	ByUsername(username string) (*model.User, error)
	UpdateBio(userID, bio string) error
}

type userRepository struct {
	db Querier
}

func NewUserRepository(db Querier) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *model.User) error {
	query := `INSERT INTO users (id, username, email, password_hash, bio, created_at) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(query, user.ID, user.Username, user.Email, user.PasswordHash, user.Bio, user.CreatedAt)
	return duplicateUserError(err)
}

// duplicateUserError maps a unique violation on users to the column it hit.
// SQLite reports "users.username", PostgreSQL the constraint "users_username_key".
func duplicateUserError(err error) error {
	if !isUniqueViolation(err) {
		return err
	}

	detail := err.Error()
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.ConstraintName != "" {
		detail = pgErr.ConstraintName
	}
	if strings.Contains(detail, "username") {
		return ErrDuplicateUsername
	}
	return ErrDuplicateEmail
}

func (r *userRepository) ByID(id string) (*model.User, error) {
	return r.getBy(`SELECT * FROM users WHERE id = $1`, id)
}

func (r *userRepository) ByEmail(email string) (*model.User, error) {
	return r.getBy(`SELECT * FROM users WHERE email = $1`, email)
}

func (r *userRepository) ByUsername(username string) (*model.User, error) {
	return r.getBy(`SELECT * FROM users WHERE username = $1`, username)
}

func (r *userRepository) getBy(query string, arg string) (*model.User, error) {
	user := &model.User{}

	err := r.db.Get(user, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (r *userRepository) UpdateBio(userID, bio string) error {
	query := `UPDATE users SET bio = $1 WHERE id = $2`

	result, err := r.db.Exec(query, bio, userID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrUserNotFound
	}

	return nil
}
