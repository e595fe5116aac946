package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Change notifies a Store listener that the cached auth state moved.
// FirstSignIn is true when the signed-in account has never signed in before,
// which is what decides whether profile completion is still required.
type Change struct {
	Kind        EventKind
	User        *User
	FirstSignIn bool
}

// OAuthProvider supplies the consent URL for federated sign-in.
type OAuthProvider interface {
	AuthURL(state string) string
}

// Store is a client-context auth cache over the Service: the explicit,
// injected replacement for the browser client's process-wide singleton.
// It holds the current session token and profile and serializes its
// operations so overlapping calls (a sign-out racing a sign-in) cannot
// interleave. A single event subscription, held for the Store's lifetime,
// lets it notice when its own session is ended elsewhere; events about
// other clients' sessions are ignored.
type Store struct {
	svc    *Service
	google OAuthProvider

	userAgent string
	ipAddress string

	mu       sync.Mutex
	token    string
	user     *User
	profile  *Profile
	ready    bool
	onChange func(Change)

	sub  *Subscription
	done chan struct{}
}

// StoreOption customizes a Store.
type StoreOption func(*Store)

// WithClientInfo records the user agent and IP sessions created through this
// store are attributed to.
func WithClientInfo(userAgent, ipAddress string) StoreOption {
	return func(s *Store) {
		s.userAgent = userAgent
		s.ipAddress = ipAddress
	}
}

// WithGoogle enables federated sign-in through the given provider.
func WithGoogle(google OAuthProvider) StoreOption {
	return func(s *Store) {
		s.google = google
	}
}

// NewStore creates a Store and subscribes it to the service's auth events.
// Callers must Close the store when the owning context is torn down.
func NewStore(svc *Service, opts ...StoreOption) *Store {
	s := &Store{
		svc:  svc,
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.sub = svc.Events().Subscribe()
	go s.listen()
	return s
}

// Close cancels the event subscription. Safe to call more than once.
func (s *Store) Close() {
	select {
	case <-s.done:
		return
	default:
	}
	close(s.done)
	s.sub.Cancel()
}

// OnChange registers the single listener notified when mirrored auth events
// move the cached state. Passing nil removes it.
func (s *Store) OnChange(fn func(Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Initialize loads the session behind the given token, if any, into the
// cache. A new client context calls it with whatever token it already holds;
// an empty or stale token leaves the cache signed out. It is idempotent:
// repeated calls refresh the cache, and the readiness flag is set exactly
// once so dependent callers can gate on it.
func (s *Store) Initialize(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.ready = true }()

	s.token = token
	if s.token == "" {
		s.user = nil
		s.profile = nil
		return nil
	}

	user, err := s.svc.ValidateSession(ctx, s.token)
	if err != nil {
		return fmt.Errorf("initialize auth store: %w", err)
	}
	if user == nil {
		s.token = ""
		s.user = nil
		s.profile = nil
		return nil
	}

	profile, err := s.svc.GetProfile(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("initialize auth store: %w", err)
	}

	s.user = user
	s.profile = profile
	return nil
}

// SignIn exchanges credentials for a session. On success the cached session
// and profile are replaced; on failure the prior state is left untouched and
// the specific failure is returned to the caller.
func (s *Store) SignIn(ctx context.Context, email, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, token, err := s.svc.SignInWithPassword(ctx, email, password, s.userAgent, s.ipAddress)
	if err != nil {
		return err
	}

	profile, err := s.svc.GetProfile(ctx, user.ID)
	if err != nil {
		return err
	}

	s.token = token
	s.user = user
	s.profile = profile
	return nil
}

// SignUp creates an account and its profile as a single logical unit, then
// signs the new user in. If the profile write fails after the account was
// created, the returned error wraps ErrProfileCreation so the caller can
// surface that distinct failure.
func (s *Store) SignUp(ctx context.Context, email, password, fullName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.svc.SignUpWithPassword(ctx, email, password)
	if err != nil {
		return err
	}

	profile, err := s.svc.CreateProfile(ctx, user.ID, user.Email, fullName)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProfileCreation, err)
	}

	token, err := s.svc.CreateSession(ctx, user.ID, s.userAgent, s.ipAddress)
	if err != nil {
		return err
	}

	s.token = token
	s.user = &user
	s.profile = &profile
	return nil
}

// SignInWithGoogle starts the redirect-based OAuth flow and returns the
// provider consent URL. The call ends once the redirect is issued; completion
// arrives later as a Change on the registered listener, not as a return value.
func (s *Store) SignInWithGoogle(state string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.google == nil {
		return "", errors.New("google sign-in is not configured")
	}
	return s.google.AuthURL(state), nil
}

// AdoptSession installs a session that was established out of band, such as
// an OAuth callback completing on another request. Only the client context
// that initiated the exchange should adopt the resulting session; delivery
// to the right store is the caller's responsibility. The registered listener
// is notified the same way as for an interactive sign-in.
func (s *Store) AdoptSession(ctx context.Context, user *User, token string) error {
	if user == nil || token == "" {
		return errors.New("adopt session: missing user or token")
	}

	profile, err := s.svc.GetProfile(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("adopt session: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.user = user
	s.profile = profile
	notify := s.onChange
	s.mu.Unlock()

	if notify != nil {
		notify(Change{Kind: EventSignedIn, User: user, FirstSignIn: user.FirstSignIn()})
	}
	return nil
}

// SignOut invalidates the remote session and clears the cached session and
// profile. The local clear happens even when the remote call fails; the
// error is still returned so callers can report it.
func (s *Store) SignOut(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.token != "" {
		err = s.svc.SignOut(ctx, s.token)
	}

	s.token = ""
	s.user = nil
	s.profile = nil
	return err
}

// UpdateProfile merges a partial update into the cached profile. Without an
// active session it is a no-op.
func (s *Store) UpdateProfile(ctx context.Context, update ProfileUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return nil
	}

	profile, err := s.svc.UpdateProfile(ctx, s.user.ID, update)
	if err != nil {
		return err
	}
	s.profile = &profile
	return nil
}

// Token returns the cached session token, or empty when signed out.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// User returns the cached auth identity, or nil when signed out.
func (s *Store) User() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Profile returns the cached profile, or nil when signed out.
func (s *Store) Profile() *Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// Ready reports whether Initialize has completed at least once.
func (s *Store) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

func (s *Store) listen() {
	for {
		select {
		case <-s.done:
			return
		case event, ok := <-s.sub.C:
			if !ok {
				return
			}
			s.apply(event)
		}
	}
}

// apply ingests a broadcast event. Only a sign-out of this store's own
// session changes anything; sign-ins and other clients' sign-outs belong to
// someone else and must not touch this cache.
func (s *Store) apply(event Event) {
	if event.Kind != EventSignedOut || event.Token == "" {
		return
	}

	s.mu.Lock()
	if s.token == "" || event.Token != s.token {
		s.mu.Unlock()
		return
	}
	s.token = ""
	s.user = nil
	s.profile = nil
	notify := s.onChange
	s.mu.Unlock()

	if notify != nil {
		notify(Change{Kind: EventSignedOut})
	}
}
