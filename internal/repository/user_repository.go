package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mo0hamed-shoaib/naafe-backend/internal/models"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/repository/common"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user account.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, username, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING id, is_active, created_at, updated_at
	`
	row := r.db.QueryRowxContext(ctx, query, user.Email, user.Username, user.PasswordHash, user.Role)
	if err := row.Scan(&user.ID, &user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("user repository: create %w", err)
	}
	return nil
}

// GetByEmail returns the user with the given email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE email = $1`, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by email %w", err)
	}
	return &user, nil
}

// GetByID returns the user with the given id.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return common.GetByID[models.User](ctx, r.db, "users", id, ErrUserNotFound)
}

// UpdateLastLoginAt stamps a successful login.
func (r *UserRepository) UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("user repository: update last login %w", err)
	}
	return nil
}
