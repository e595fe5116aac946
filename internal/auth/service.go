package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Service provides authentication business logic: credential accounts,
// OAuth accounts, profiles, and sessions. Auth state changes are announced
// on the event stream so callers observe OAuth completions the same way the
// browser client observed the hosted backend's notifications.
type Service struct {
	repo       Repository
	sessionTTL time.Duration
	events     *Broadcaster
}

// NewService creates a new auth Service.
func NewService(repo Repository, sessionTTL time.Duration) *Service {
	if sessionTTL == 0 {
		sessionTTL = 12 * time.Hour
	}
	return &Service{
		repo:       repo,
		sessionTTL: sessionTTL,
		events:     NewBroadcaster(),
	}
}

// Events exposes the auth-state-change stream.
func (s *Service) Events() *Broadcaster {
	return s.events
}

// SignUpWithPassword creates a credential-backed account. The new user is
// stamped with equal creation and sign-in times so first-sign-in detection
// works the same way for both credential and OAuth accounts.
func (s *Service) SignUpWithPassword(ctx context.Context, email, password string) (User, error) {
	email = normalizeEmail(email)

	existing, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		return User{}, fmt.Errorf("find user: %w", err)
	}
	if existing != nil {
		return User{}, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := User{
		ID:           uuid.New(),
		Email:        email,
		CreatedAt:    now,
		LastSignInAt: now,
	}

	created, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}

	if err := s.repo.SetPasswordHash(ctx, created.ID, hash); err != nil {
		return User{}, fmt.Errorf("store credentials: %w", err)
	}

	return created, nil
}

// SignInWithPassword validates credentials and issues a session token. On
// any mismatch it returns ErrInvalidCredentials without revealing whether
// the account exists.
func (s *Service) SignInWithPassword(ctx context.Context, email, password, userAgent, ipAddress string) (*User, string, error) {
	email = normalizeEmail(email)

	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, "", ErrInvalidCredentials
	}

	hash, err := s.repo.PasswordHash(ctx, user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("load credentials: %w", err)
	}
	if len(hash) == 0 {
		// OAuth-only account; no password to compare against.
		return nil, "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateUserSignIn(ctx, user.ID, now); err != nil {
		return nil, "", fmt.Errorf("update sign-in time: %w", err)
	}
	user.LastSignInAt = now

	token, err := s.CreateSession(ctx, user.ID, userAgent, ipAddress)
	if err != nil {
		return nil, "", err
	}

	s.events.Publish(Event{Kind: EventSignedIn, User: user})
	return user, token, nil
}

// CompleteOAuth finds or creates the user for a verified set of OAuth claims,
// issues a session, and announces the sign-in on the event stream. A
// brand-new account gets its default profile seeded from the claims, and its
// creation and sign-in timestamps are equal, which is how callers
// distinguish a first-time signer from a returning one.
func (s *Service) CompleteOAuth(ctx context.Context, claims *GoogleClaims, userAgent, ipAddress string) (*User, string, error) {
	existing, err := s.repo.FindUserByOAuth(ctx, "google", claims.Sub)
	if err != nil {
		return nil, "", fmt.Errorf("find user: %w", err)
	}

	now := time.Now().UTC()
	var user *User

	if existing != nil {
		if err := s.repo.UpdateUserSignIn(ctx, existing.ID, now); err != nil {
			return nil, "", fmt.Errorf("update sign-in time: %w", err)
		}
		existing.LastSignInAt = now
		user = existing
	} else {
		created, err := s.repo.CreateUser(ctx, User{
			ID:              uuid.New(),
			Email:           normalizeEmail(claims.Email),
			OAuthProvider:   "google",
			OAuthProviderID: claims.Sub,
			CreatedAt:       now,
			LastSignInAt:    now,
		})
		if err != nil {
			return nil, "", fmt.Errorf("create user: %w", err)
		}
		if _, err := s.CreateProfile(ctx, created.ID, created.Email, claims.Name); err != nil {
			return nil, "", fmt.Errorf("%w: %w", ErrProfileCreation, err)
		}
		user = &created
	}

	token, err := s.CreateSession(ctx, user.ID, userAgent, ipAddress)
	if err != nil {
		return nil, "", err
	}

	s.events.Publish(Event{Kind: EventSignedIn, User: user})
	return user, token, nil
}

// SignOut deletes the session for the given token and announces the
// sign-out, carrying the token so caches holding that same session can
// clear themselves. A missing session is not an error.
func (s *Service) SignOut(ctx context.Context, token string) error {
	err := s.DeleteSession(ctx, token)
	s.events.Publish(Event{Kind: EventSignedOut, Token: token})
	return err
}

// CreateSession creates a new session for the given user and returns the session token.
func (s *Service) CreateSession(ctx context.Context, userID uuid.UUID, userAgent, ipAddress string) (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	token := base64.URLEncoding.EncodeToString(tokenBytes)
	tokenHash := hashToken(token)

	now := time.Now()
	session := Session{
		ID:        uuid.New(),
		UserID:    userID,
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
		UserAgent: truncateString(userAgent, 512),
		IPAddress: truncateString(ipAddress, 45),
	}

	if err := s.repo.CreateSession(ctx, session, tokenHash); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	return token, nil
}

// ValidateSession checks if the token is valid and returns the associated user.
func (s *Service) ValidateSession(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, nil
	}

	tokenHash := hashToken(token)
	session, user, err := s.repo.FindSessionByTokenHash(ctx, tokenHash)
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}

	if session == nil || user == nil {
		return nil, nil
	}

	if time.Now().After(session.ExpiresAt) {
		_ = s.repo.DeleteSession(ctx, session.ID)
		return nil, nil
	}

	return user, nil
}

// DeleteSession removes the session associated with the given token.
func (s *Service) DeleteSession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	tokenHash := hashToken(token)
	session, _, err := s.repo.FindSessionByTokenHash(ctx, tokenHash)
	if err != nil {
		return fmt.Errorf("find session: %w", err)
	}

	if session == nil {
		return nil
	}

	return s.repo.DeleteSession(ctx, session.ID)
}

// CleanupExpiredSessions removes all expired sessions from the database.
func (s *Service) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpiredSessions(ctx)
}

// CreateProfile inserts the application profile for a user, seeded with
// default gamification values.
func (s *Service) CreateProfile(ctx context.Context, userID uuid.UUID, email, fullName string) (Profile, error) {
	now := time.Now().UTC()
	profile := Profile{
		ID:        userID,
		Email:     normalizeEmail(email),
		FullName:  strings.TrimSpace(fullName),
		Points:    0,
		Level:     1,
		Badges:    []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.repo.CreateProfile(ctx, profile)
	if err != nil {
		return Profile{}, fmt.Errorf("create profile: %w", err)
	}
	return created, nil
}

// GetProfile returns the profile for a user, or nil when none exists yet.
func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

// UpdateProfile merges a partial update into the stored profile and stamps it.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (Profile, error) {
	existing, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("get profile: %w", err)
	}
	if existing == nil {
		return Profile{}, ErrNoSession
	}

	profile := *existing
	if update.FullName != nil {
		profile.FullName = strings.TrimSpace(*update.FullName)
	}
	if update.AvatarURL != nil {
		profile.AvatarURL = *update.AvatarURL
	}
	if update.Bio != nil {
		profile.Bio = *update.Bio
	}
	if update.Points != nil {
		profile.Points = *update.Points
	}
	if update.Level != nil {
		profile.Level = *update.Level
	}
	if update.Badges != nil {
		profile.Badges = *update.Badges
	}
	profile.UpdatedAt = time.Now().UTC()

	saved, err := s.repo.SaveProfile(ctx, profile)
	if err != nil {
		return Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return saved, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// hashToken returns the SHA-256 hash of the token as a hex string.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// truncateString truncates a string to the given max length.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
