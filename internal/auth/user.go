package auth

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidCredentials is returned when an email/password pair does not match.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrEmailTaken is returned when signing up with an email that already has an account.
var ErrEmailTaken = errors.New("an account with this email already exists")

// ErrProfileCreation is returned when the account was created but the profile
// write failed. Callers must surface this distinctly from a generic sign-up
// failure: the account exists and a retry must not create a second one.
var ErrProfileCreation = errors.New("account created but profile could not be saved")

// ErrNoSession is returned by operations that require an authenticated session.
var ErrNoSession = errors.New("no active session")

// User is an authentication identity. Profile data lives separately in Profile.
type User struct {
	ID              uuid.UUID
	Email           string
	OAuthProvider   string
	OAuthProviderID string
	CreatedAt       time.Time
	LastSignInAt    time.Time
}

// FirstSignIn reports whether this sign-in is the user's first ever. New
// accounts are stamped with identical creation and sign-in times, so the two
// diverge only on a later sign-in.
func (u *User) FirstSignIn() bool {
	return u.CreatedAt.Equal(u.LastSignInAt)
}

// Profile is the application-level user record: display identity plus
// gamification state.
type Profile struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	Points    int       `json:"points"`
	Level     int       `json:"level"`
	Badges    []string  `json:"badges"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProfileUpdate is a partial profile change. Nil fields are left untouched;
// updates are last-writer-wins.
type ProfileUpdate struct {
	FullName  *string
	AvatarURL *string
	Bio       *string
	Points    *int
	Level     *int
	Badges    *[]string
}

// Session represents an authenticated user session.
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ExpiresAt time.Time
	CreatedAt time.Time
	UserAgent string
	IPAddress string
}

// GoogleClaims contains the relevant claims from a Google ID token.
type GoogleClaims struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}
