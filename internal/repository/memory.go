package repository

import (
	"context"
	"sync"
	"time"

	"github.com/invmanager/invmanager-go/internal/model"
)

// MemoryUserRepository is an in-process user store used when no database is configured.
type MemoryUserRepository struct {
	mu      sync.Mutex
	nextID  int64
	byID    map[int64]*model.User
	byEmail map[string]int64
}

// NewMemoryUserRepository creates an empty MemoryUserRepository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[int64]*model.User),
		byEmail: make(map[string]int64),
	}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[user.Email]; exists {
		return ErrDuplicateEmail
	}

	r.nextID++
	now := time.Now().UTC()
	user.ID = r.nextID
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	r.byID[stored.ID] = &stored
	r.byEmail[stored.Email] = stored.ID
	return nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	u := *r.byID[id]
	return &u, nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id int64) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	u := *stored
	return &u, nil
}

func (r *MemoryUserRepository) UpdateProfile(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[user.ID]
	if !ok {
		return ErrUserNotFound
	}
	stored.Name = user.Name
	stored.Photo = user.Photo
	stored.Phone = user.Phone
	stored.Bio = user.Bio
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryUserRepository) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return ErrUserNotFound
	}
	stored.PasswordHash = passwordHash
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

// Delete removes a user. Only tests and tooling use it; the API never deletes users.
func (r *MemoryUserRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return ErrUserNotFound
	}
	delete(r.byEmail, stored.Email)
	delete(r.byID, id)
	return nil
}

// MemoryResetTokenRepository is an in-process reset-token store. It writes password
// hashes through to users when a token is consumed.
type MemoryResetTokenRepository struct {
	mu     sync.Mutex
	nextID int64
	tokens map[int64]*model.ResetToken
	users  *MemoryUserRepository
}

// NewMemoryResetTokenRepository creates an empty MemoryResetTokenRepository backed by users.
func NewMemoryResetTokenRepository(users *MemoryUserRepository) *MemoryResetTokenRepository {
	return &MemoryResetTokenRepository{tokens: make(map[int64]*model.ResetToken), users: users}
}

func (r *MemoryResetTokenRepository) Replace(_ context.Context, token *model.ResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, t := range r.tokens {
		if t.UserID == token.UserID {
			delete(r.tokens, id)
		}
	}

	r.nextID++
	token.ID = r.nextID
	stored := *token
	r.tokens[stored.ID] = &stored
	return nil
}

func (r *MemoryResetTokenRepository) FindValid(_ context.Context, tokenHash string, now time.Time) (*model.ResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.tokens {
		if t.TokenHash == tokenHash && !t.Expired(now) {
			found := *t
			return &found, nil
		}
	}
	return nil, ErrResetTokenNotFound
}

func (r *MemoryResetTokenRepository) Consume(_ context.Context, id, userID int64, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tokens[id]
	if !ok || t.UserID != userID {
		return ErrResetTokenNotFound
	}

	r.users.mu.Lock()
	defer r.users.mu.Unlock()

	stored, ok := r.users.byID[userID]
	if !ok {
		return ErrUserNotFound
	}
	delete(r.tokens, id)
	stored.PasswordHash = passwordHash
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

// CountForUser returns how many tokens a user currently holds.
func (r *MemoryResetTokenRepository) CountForUser(userID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, t := range r.tokens {
		if t.UserID == userID {
			n++
		}
	}
	return n
}
