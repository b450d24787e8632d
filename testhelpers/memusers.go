package testhelpers

import (
	"context"
	"strings"
	"sync"

	"invoicedesk/internal/models"
	"invoicedesk/internal/repositories"

	"github.com/google/uuid"
)

// MemUsers is an in-memory repositories.UserRepository with the same
// uniqueness rules as the users table
type MemUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]models.User
}

func NewMemUsers() *MemUsers {
	return &MemUsers{users: make(map[uuid.UUID]models.User)}
}

func (r *MemUsers) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == user.Username {
			return repositories.ErrDuplicateUsername
		}
		if strings.EqualFold(existing.Email, user.Email) {
			return repositories.ErrDuplicateEmail
		}
	}
	r.users[user.ID] = *user
	return nil
}

func (r *MemUsers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

func (r *MemUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

// Promote marks an account as staff
func (r *MemUsers) Promote(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.IsStaff = true
		r.users[id] = u
	}
}
