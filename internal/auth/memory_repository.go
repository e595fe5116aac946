package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepository keeps auth state in process-local maps, ideal for local
// development or tests.
type InMemoryRepository struct {
	mu        sync.RWMutex
	users     map[uuid.UUID]User
	passwords map[uuid.UUID][]byte
	profiles  map[uuid.UUID]Profile
	sessions  map[string]Session
}

// NewInMemoryRepository constructs an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		users:     make(map[uuid.UUID]User),
		passwords: make(map[uuid.UUID][]byte),
		profiles:  make(map[uuid.UUID]Profile),
		sessions:  make(map[string]Session),
	}
}

// FindUserByEmail looks up a user by email address.
func (r *InMemoryRepository) FindUserByEmail(_ context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Email == email {
			copied := user
			return &copied, nil
		}
	}
	return nil, nil
}

// FindUserByOAuth looks up a user by OAuth provider and provider ID.
func (r *InMemoryRepository) FindUserByOAuth(_ context.Context, provider, providerID string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.OAuthProvider == provider && user.OAuthProviderID == providerID {
			copied := user
			return &copied, nil
		}
	}
	return nil, nil
}

// CreateUser stores a new user.
func (r *InMemoryRepository) CreateUser(_ context.Context, user User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users[user.ID] = user
	return user, nil
}

// UpdateUserSignIn stamps the user's last sign-in time.
func (r *InMemoryRepository) UpdateUserSignIn(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil
	}
	user.LastSignInAt = at
	r.users[id] = user
	return nil
}

// SetPasswordHash stores the credential hash for a user.
func (r *InMemoryRepository) SetPasswordHash(_ context.Context, userID uuid.UUID, hash []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := make([]byte, len(hash))
	copy(copied, hash)
	r.passwords[userID] = copied
	return nil
}

// PasswordHash returns the credential hash for a user, or nil when the
// account has no password (OAuth-only).
func (r *InMemoryRepository) PasswordHash(_ context.Context, userID uuid.UUID) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	hash, ok := r.passwords[userID]
	if !ok {
		return nil, nil
	}
	copied := make([]byte, len(hash))
	copy(copied, hash)
	return copied, nil
}

// CreateProfile stores a new profile.
func (r *InMemoryRepository) CreateProfile(_ context.Context, profile Profile) (Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.profiles[profile.ID] = profile
	return profile, nil
}

// GetProfile returns the profile for a user, or nil when none exists.
func (r *InMemoryRepository) GetProfile(_ context.Context, userID uuid.UUID) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profile, ok := r.profiles[userID]
	if !ok {
		return nil, nil
	}
	copied := profile
	return &copied, nil
}

// SaveProfile replaces a stored profile.
func (r *InMemoryRepository) SaveProfile(_ context.Context, profile Profile) (Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.profiles[profile.ID] = profile
	return profile, nil
}

// CreateSession stores a session keyed by its token hash.
func (r *InMemoryRepository) CreateSession(_ context.Context, session Session, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[tokenHash] = session
	return nil
}

// FindSessionByTokenHash returns a session and its user by token hash.
func (r *InMemoryRepository) FindSessionByTokenHash(_ context.Context, tokenHash string) (*Session, *User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[tokenHash]
	if !ok {
		return nil, nil, nil
	}
	user, ok := r.users[session.UserID]
	if !ok {
		return nil, nil, nil
	}

	sessionCopy := session
	userCopy := user
	return &sessionCopy, &userCopy, nil
}

// DeleteSession removes a session by ID.
func (r *InMemoryRepository) DeleteSession(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for hash, session := range r.sessions {
		if session.ID == id {
			delete(r.sessions, hash)
			return nil
		}
	}
	return nil
}

// DeleteExpiredSessions removes all expired sessions.
func (r *InMemoryRepository) DeleteExpiredSessions(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	var removed int64
	for hash, session := range r.sessions {
		if now.After(session.ExpiresAt) {
			delete(r.sessions, hash)
			removed++
		}
	}
	return removed, nil
}
