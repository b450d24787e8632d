package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"invoicedesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

type userRepo struct {
	db Database
}

func NewUserRepo(db Database) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, first_name, last_name, is_staff, date_joined)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query, user.ID, user.Username, user.Email, user.PasswordHash, user.FirstName, user.LastName, user.IsStaff, user.DateJoined)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			if strings.Contains(constraint, "email") {
				return ErrDuplicateEmail
			}
			return ErrDuplicateUsername
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.getOne(ctx, `id = $1`, id)
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, `username = $1`, username)
}

func (r *userRepo) getOne(ctx context.Context, condition string, arg any) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, email, password_hash, first_name, last_name, is_staff, date_joined
		FROM users
		WHERE ` + condition
	err := r.db.QueryRow(ctx, query, arg).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.FirstName, &user.LastName, &user.IsStaff, &user.DateJoined)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
