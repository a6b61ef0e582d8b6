package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/recipehub/internal/model"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrDuplicateUsername = errors.New("username already exists")
)

// UserRepository is the credential store. Emails are stored and matched lowercased.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	ByID(ctx context.Context, id string) (*model.User, error)
	ByEmail(ctx context.Context, email string) (*model.User, error)
	ByUsername(ctx context.Context, username string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error

	AddFavorite(ctx context.Context, userID, recipeID string) error
	RemoveFavorite(ctx context.Context, userID, recipeID string) error
	Favorites(ctx context.Context, userID string) ([]string, error)
}

const userColumns = `id, email, username, password_hash, is_verified, verification_code,
	verification_code_expires, google_id, created_at, updated_at`

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (` + userColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		strings.ToLower(user.Email),
		user.Username,
		user.PasswordHash,
		user.IsVerified,
		user.VerificationCode,
		user.VerificationCodeExpires,
		user.GoogleID,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return uniqueViolation(err)
}

func (r *userRepository) ByID(ctx context.Context, id string) (*model.User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *userRepository) ByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email))
}

func (r *userRepository) ByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *userRepository) getUser(ctx context.Context, query string, arg any) (*model.User, error) {
	user := &model.User{}

	err := r.db.GetContext(ctx, user, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	query := `UPDATE users SET email = $1, username = $2, password_hash = $3, is_verified = $4,
	          verification_code = $5, verification_code_expires = $6, google_id = $7, updated_at = $8
	          WHERE id = $9`

	result, err := r.db.ExecContext(ctx, query,
		strings.ToLower(user.Email),
		user.Username,
		user.PasswordHash,
		user.IsVerified,
		user.VerificationCode,
		user.VerificationCodeExpires,
		user.GoogleID,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return uniqueViolation(err)
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

func (r *userRepository) AddFavorite(ctx context.Context, userID, recipeID string) error {
	query := `INSERT INTO user_favorites (user_id, recipe_id, created_at) VALUES ($1, $2, $3)
	          ON CONFLICT (user_id, recipe_id) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query, userID, recipeID, time.Now().UTC())
	return err
}

func (r *userRepository) RemoveFavorite(ctx context.Context, userID, recipeID string) error {
	query := `DELETE FROM user_favorites WHERE user_id = $1 AND recipe_id = $2`

	_, err := r.db.ExecContext(ctx, query, userID, recipeID)
	return err
}

func (r *userRepository) Favorites(ctx context.Context, userID string) ([]string, error) {
	ids := []string{}
	query := `SELECT recipe_id FROM user_favorites WHERE user_id = $1 ORDER BY created_at DESC`

	err := r.db.SelectContext(ctx, &ids, query, userID)
	if err != nil {
		return nil, err
	}

	return ids, nil
}

// uniqueViolation maps unique constraint errors (SQLite and PostgreSQL wording) onto sentinels.
func uniqueViolation(err error) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()
	if !strings.Contains(errStr, "UNIQUE constraint failed") && !strings.Contains(errStr, "duplicate key value") {
		return err
	}

	switch {
	case strings.Contains(errStr, "email"):
		return ErrDuplicateEmail
	case strings.Contains(errStr, "username"):
		return ErrDuplicateUsername
	}
	return err
}
