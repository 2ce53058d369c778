package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sealbase/sealbase-api/internal/models"
)

// UserRepository reads and updates account users.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, account_id, email, first_name, last_name, role, password_digest, login_token, created_at, updated_at, archived_at`

// FindByID returns a user row by id.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	query := fmt.Sprintf("SELECT %s FROM users WHERE id = $1", userColumns)
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

// FindByEmail returns a user row by email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	query := fmt.Sprintf("SELECT %s FROM users WHERE email = $1 AND archived_at IS NULL", userColumns)
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByLoginToken returns the user holding the given one-time login token.
func (r *UserRepository) FindByLoginToken(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	query := fmt.Sprintf("SELECT %s FROM users WHERE login_token = $1 AND archived_at IS NULL", userColumns)
	if err := r.db.GetContext(ctx, &user, query, token); err != nil {
		return nil, fmt.Errorf("find user by login token: %w", err)
	}
	return &user, nil
}

// SetLoginToken stores or clears the one-time login token for a user.
func (r *UserRepository) SetLoginToken(ctx context.Context, userID string, token *string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET login_token = $1, updated_at = NOW() WHERE id = $2`, token, userID); err != nil {
		return fmt.Errorf("set login token: %w", err)
	}
	return nil
}
