package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for user, credential, profile, and session
// persistence.
type Repository interface {
	// User operations
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	FindUserByOAuth(ctx context.Context, provider, providerID string) (*User, error)
	CreateUser(ctx context.Context, user User) (User, error)
	UpdateUserSignIn(ctx context.Context, id uuid.UUID, at time.Time) error

	// Credential operations
	SetPasswordHash(ctx context.Context, userID uuid.UUID, hash []byte) error
	PasswordHash(ctx context.Context, userID uuid.UUID) ([]byte, error)

	// Profile operations
	CreateProfile(ctx context.Context, profile Profile) (Profile, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error)
	SaveProfile(ctx context.Context, profile Profile) (Profile, error)

	// Session operations
	CreateSession(ctx context.Context, session Session, tokenHash string) error
	FindSessionByTokenHash(ctx context.Context, tokenHash string) (*Session, *User, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}
