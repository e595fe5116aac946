package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// FindUserByEmail looks up a user by their email address.
func (r *PostgresRepository) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	const query = `
		SELECT id, email, oauth_provider, oauth_provider_id, created_at, last_sign_in_at
		FROM users
		WHERE email = $1
	`

	var row userRow
	if err := r.db.GetContext(ctx, &row, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return row.toUser(), nil
}

// FindUserByOAuth looks up a user by their OAuth provider and provider ID.
func (r *PostgresRepository) FindUserByOAuth(ctx context.Context, provider, providerID string) (*User, error) {
	const query = `
		SELECT id, email, oauth_provider, oauth_provider_id, created_at, last_sign_in_at
		FROM users
		WHERE oauth_provider = $1 AND oauth_provider_id = $2
	`

	var row userRow
	if err := r.db.GetContext(ctx, &row, query, provider, providerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return row.toUser(), nil
}

// CreateUser inserts a new user.
func (r *PostgresRepository) CreateUser(ctx context.Context, user User) (User, error) {
	const query = `
		INSERT INTO users (id, email, oauth_provider, oauth_provider_id, created_at, last_sign_in_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.OAuthProvider,
		user.OAuthProviderID,
		user.CreatedAt,
		user.LastSignInAt,
	)
	if err != nil {
		return User{}, err
	}

	return user, nil
}

// UpdateUserSignIn stamps the user's last sign-in time.
func (r *PostgresRepository) UpdateUserSignIn(ctx context.Context, id uuid.UUID, at time.Time) error {
	const query = `UPDATE users SET last_sign_in_at = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, at)
	return err
}

// SetPasswordHash upserts the credential hash for a user.
func (r *PostgresRepository) SetPasswordHash(ctx context.Context, userID uuid.UUID, hash []byte) error {
	const query = `
		INSERT INTO user_credentials (user_id, password_hash, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET password_hash = $2, updated_at = $3
	`
	_, err := r.db.ExecContext(ctx, query, userID, hash, time.Now())
	return err
}

// PasswordHash returns the credential hash for a user, or nil when the
// account has no password.
func (r *PostgresRepository) PasswordHash(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	const query = `SELECT password_hash FROM user_credentials WHERE user_id = $1`

	var hash []byte
	if err := r.db.GetContext(ctx, &hash, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return hash, nil
}

// CreateProfile inserts a new profile.
func (r *PostgresRepository) CreateProfile(ctx context.Context, profile Profile) (Profile, error) {
	const query = `
		INSERT INTO profiles (id, email, full_name, avatar_url, bio, points, level, badges, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		profile.ID,
		profile.Email,
		profile.FullName,
		profile.AvatarURL,
		profile.Bio,
		profile.Points,
		profile.Level,
		pq.Array(profile.Badges),
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		return Profile{}, err
	}

	return profile, nil
}

// GetProfile returns the profile for a user, or nil when none exists.
func (r *PostgresRepository) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	const query = `
		SELECT id, email, full_name, avatar_url, bio, points, level, badges, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`

	var row profileRow
	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return row.toProfile(), nil
}

// SaveProfile replaces a stored profile.
func (r *PostgresRepository) SaveProfile(ctx context.Context, profile Profile) (Profile, error) {
	const query = `
		UPDATE profiles
		SET full_name = $2, avatar_url = $3, bio = $4, points = $5, level = $6, badges = $7, updated_at = $8
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		profile.ID,
		profile.FullName,
		profile.AvatarURL,
		profile.Bio,
		profile.Points,
		profile.Level,
		pq.Array(profile.Badges),
		profile.UpdatedAt,
	)
	if err != nil {
		return Profile{}, err
	}

	return profile, nil
}

// CreateSession inserts a new session.
func (r *PostgresRepository) CreateSession(ctx context.Context, session Session, tokenHash string) error {
	const query = `
		INSERT INTO user_sessions (id, user_id, session_token_hash, expires_at, created_at, user_agent, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		tokenHash,
		session.ExpiresAt,
		session.CreatedAt,
		session.UserAgent,
		session.IPAddress,
	)
	return err
}

// FindSessionByTokenHash looks up a session and its associated user by token hash.
func (r *PostgresRepository) FindSessionByTokenHash(ctx context.Context, tokenHash string) (*Session, *User, error) {
	const query = `
		SELECT
			s.id, s.user_id, s.expires_at, s.created_at, s.user_agent, s.ip_address,
			u.email, u.oauth_provider, u.oauth_provider_id,
			u.created_at AS user_created_at, u.last_sign_in_at
		FROM user_sessions s
		JOIN users u ON s.user_id = u.id
		WHERE s.session_token_hash = $1
	`

	var row sessionUserRow
	if err := r.db.GetContext(ctx, &row, query, tokenHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	return row.toSession(), row.toUser(), nil
}

// DeleteSession removes a session.
func (r *PostgresRepository) DeleteSession(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM user_sessions WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// DeleteExpiredSessions removes all expired sessions.
func (r *PostgresRepository) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	const query = `DELETE FROM user_sessions WHERE expires_at < $1`
	result, err := r.db.ExecContext(ctx, query, time.Now())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// userRow is a database row representation of User.
type userRow struct {
	ID              uuid.UUID `db:"id"`
	Email           string    `db:"email"`
	OAuthProvider   string    `db:"oauth_provider"`
	OAuthProviderID string    `db:"oauth_provider_id"`
	CreatedAt       time.Time `db:"created_at"`
	LastSignInAt    time.Time `db:"last_sign_in_at"`
}

func (r *userRow) toUser() *User {
	return &User{
		ID:              r.ID,
		Email:           r.Email,
		OAuthProvider:   r.OAuthProvider,
		OAuthProviderID: r.OAuthProviderID,
		CreatedAt:       r.CreatedAt,
		LastSignInAt:    r.LastSignInAt,
	}
}

// profileRow is a database row representation of Profile.
type profileRow struct {
	ID        uuid.UUID      `db:"id"`
	Email     string         `db:"email"`
	FullName  string         `db:"full_name"`
	AvatarURL string         `db:"avatar_url"`
	Bio       string         `db:"bio"`
	Points    int            `db:"points"`
	Level     int            `db:"level"`
	Badges    pq.StringArray `db:"badges"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (r *profileRow) toProfile() *Profile {
	return &Profile{
		ID:        r.ID,
		Email:     r.Email,
		FullName:  r.FullName,
		AvatarURL: r.AvatarURL,
		Bio:       r.Bio,
		Points:    r.Points,
		Level:     r.Level,
		Badges:    []string(r.Badges),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// sessionUserRow is a database row for the session + user join query.
type sessionUserRow struct {
	// Session fields
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
	UserAgent string    `db:"user_agent"`
	IPAddress string    `db:"ip_address"`

	// User fields
	Email           string    `db:"email"`
	OAuthProvider   string    `db:"oauth_provider"`
	OAuthProviderID string    `db:"oauth_provider_id"`
	UserCreatedAt   time.Time `db:"user_created_at"`
	LastSignInAt    time.Time `db:"last_sign_in_at"`
}

func (r *sessionUserRow) toSession() *Session {
	return &Session{
		ID:        r.ID,
		UserID:    r.UserID,
		ExpiresAt: r.ExpiresAt,
		CreatedAt: r.CreatedAt,
		UserAgent: r.UserAgent,
		IPAddress: r.IPAddress,
	}
}

func (r *sessionUserRow) toUser() *User {
	return &User{
		ID:              r.UserID,
		Email:           r.Email,
		OAuthProvider:   r.OAuthProvider,
		OAuthProviderID: r.OAuthProviderID,
		CreatedAt:       r.UserCreatedAt,
		LastSignInAt:    r.LastSignInAt,
	}
}
