package signup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"xolvetech/internal/auth"
)

// Step identifies where a flow currently is.
type Step string

const (
	StepLanding  Step = "landing"
	StepSignIn   Step = "signin"
	StepEmail    Step = "email"
	StepPassword Step = "password"
	StepOTP      Step = "otp"
	StepProfile  Step = "profile"
	StepComplete Step = "complete"
)

// ErrInvalidStep is returned when an operation is submitted for a step the
// flow is not on.
var ErrInvalidStep = errors.New("operation not valid for current step")

// Flow is one client's trip through the sign-up wizard. All operations are
// serialized on the flow's mutex; a submission racing a back-navigation
// resolves to one order, never an interleaving.
type Flow struct {
	id     uuid.UUID
	store  *auth.Store
	sender CodeSender
	now    func() time.Time

	mu       sync.Mutex
	step     Step
	email    string
	password string
	oauth    bool
	awaiting bool
	otp      *otpState

	createdAt time.Time
	touchedAt time.Time
}

// FlowOption customizes a Flow.
type FlowOption func(*Flow)

// WithClock replaces the flow's time source.
func WithClock(now func() time.Time) FlowOption {
	return func(f *Flow) {
		f.now = now
	}
}

// NewFlow creates a flow at the landing step, bound to the given auth store.
// The flow listens for the store's auth changes so an OAuth completion is
// routed to the right step. Callers own the store's lifecycle via Close.
func NewFlow(store *auth.Store, sender CodeSender, opts ...FlowOption) *Flow {
	f := &Flow{
		id:     uuid.New(),
		store:  store,
		sender: sender,
		now:    time.Now,
		step:   StepLanding,
		otp:    newOTPState(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.createdAt = f.now()
	f.touchedAt = f.createdAt

	store.OnChange(f.handleChange)
	return f
}

// ID returns the flow identifier.
func (f *Flow) ID() uuid.UUID {
	return f.id
}

// Store returns the auth store backing this flow.
func (f *Flow) Store() *auth.Store {
	return f.store
}

// Close releases the flow's auth store subscription.
func (f *Flow) Close() {
	f.store.Close()
}

// Step returns the current step.
func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// Progress reports wizard completion as a percentage. Only the four sign-up
// steps carry progress; the landing and sign-in screens show none.
func (f *Flow) Progress() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return progressFor(f.step)
}

func progressFor(step Step) int {
	switch step {
	case StepEmail:
		return 25
	case StepPassword:
		return 50
	case StepOTP:
		return 75
	case StepProfile, StepComplete:
		return 100
	default:
		return 0
	}
}

// State is a point-in-time snapshot of a flow, shaped for transport.
type State struct {
	ID       uuid.UUID `json:"id"`
	Step     Step      `json:"step"`
	Progress int       `json:"progress"`
	Email    string    `json:"email,omitempty"`
	OAuth    bool      `json:"oauth"`
	ResendIn int       `json:"resendIn,omitempty"`
}

// State snapshots the flow.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	state := State{
		ID:       f.id,
		Step:     f.step,
		Progress: progressFor(f.step),
		Email:    f.email,
		OAuth:    f.oauth,
	}
	if f.step == StepOTP {
		state.ResendIn = int(f.otp.resendAvailableIn(f.now()).Round(time.Second).Seconds())
	}
	return state
}

// StartSignIn moves from the landing screen to the sign-in form.
func (f *Flow) StartSignIn() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()

	if f.step != StepLanding {
		return fmt.Errorf("%w: %s", ErrInvalidStep, f.step)
	}
	f.step = StepSignIn
	return nil
}

// StartSignUp moves from the landing screen to the email step.
func (f *Flow) StartSignUp() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()

	if f.step != StepLanding {
		return fmt.Errorf("%w: %s", ErrInvalidStep, f.step)
	}
	f.step = StepEmail
	return nil
}

// StartOAuth begins federated sign-in from the landing screen and returns the
// provider consent URL. The flow stays where it is; completion arrives later
// through the auth store's change stream and is routed by handleChange.
func (f *Flow) StartOAuth(state string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()

	if f.step != StepLanding && f.step != StepSignIn {
		return "", fmt.Errorf("%w: %s", ErrInvalidStep, f.step)
	}

	url, err := f.store.SignInWithGoogle(state)
	if err != nil {
		return "", err
	}
	f.awaiting = true
	return url, nil
}

// CompleteOAuth delivers the outcome of the provider exchange to this flow.
// Only a flow that armed itself through StartOAuth accepts the session; a
// completion addressed to a flow that never asked for one, or that was
// cancelled in the meantime, is rejected so it cannot hijack the wizard.
// Adoption lands on the store, whose change notification routes the step.
func (f *Flow) CompleteOAuth(ctx context.Context, user *auth.User, token string) error {
	f.mu.Lock()
	if !f.awaiting {
		err := fmt.Errorf("%w: %s", ErrInvalidStep, f.step)
		f.mu.Unlock()
		return err
	}
	f.mu.Unlock()

	return f.store.AdoptSession(ctx, user, token)
}

// SubmitSignIn exchanges existing credentials for a session. Success leaves
// the wizard; failure keeps the form up with the prior state untouched.
func (f *Flow) SubmitSignIn(ctx context.Context, email, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()

	if f.step != StepSignIn {
		return fmt.Errorf("%w: %s", ErrInvalidStep, f.step)
	}
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if password == "" {
		return fieldError("password", "Password is required")
	}

	if err := f.store.SignIn(ctx, email, password); err != nil {
		return err
	}
	f.step = StepComplete
	return nil
}

// SubmitEmail validates and records the address, then advances to the
// password step.
func (f *Flow) SubmitEmail(email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()

	if f.step != StepEmail {
		return fmt.Errorf("%w: %s", ErrInvalidStep, f.step)
	}
	if err := ValidateEmail(email); err != nil {
		return err
	}
	f.email = strings.TrimSpace(email)
	f.step = StepPassword
	return nil
}

// SubmitPassword validates the password pair, records the password, issues
// the first verification code, and advances to the OTP step.
func (f *Flow) SubmitPassword(ctx context.Context, password, confirm string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()

	if f.step != StepPassword {
		return fmt.Errorf("%w: %s", ErrInvalidStep, f.step)
	}
	if err := ValidatePassword(password, confirm); err != nil {
		return err
	}

	f.password = password
	if err := f.issueCode(ctx); err != nil {
		return err
	}
	f.step = StepOTP
	return nil
}

// SubmitOTP verifies the code. A mismatch is retryable until the attempt
// budget runs out; expiry and exhaustion both require a resend.
func (f *Flow) SubmitOTP(code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()

	if f.step != StepOTP {
		return fmt.Errorf("%w: %s", ErrInvalidStep, f.step)
	}
	if err := ValidateOTP(code); err != nil {
		return err
	}
	if err := f.otp.verify(code, f.now()); err != nil {
		return err
	}
	f.step = StepProfile
	return nil
}

// ResendOTP issues a fresh code once the countdown has elapsed, within the
// flow's resend budget.
func (f *Flow) ResendOTP(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()

	if f.step != StepOTP {
		return fmt.Errorf("%w: %s", ErrInvalidStep, f.step)
	}
	if f.otp.resendAvailableIn(f.now()) > 0 {
		return ErrResendNotReady
	}
	return f.issueCode(ctx)
}

// ResendAvailableIn reports how long until the next resend is allowed.
func (f *Flow) ResendAvailableIn() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.otp.resendAvailableIn(f.now())
}

// SubmitProfile validates the profile attributes and finishes the wizard.
// On the credential path this creates the account, its profile, and a
// session as one logical unit. On the OAuth path the account already exists,
// so the collected name is merged into the existing profile.
func (f *Flow) SubmitProfile(ctx context.Context, input ProfileInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()

	if f.step != StepProfile {
		return fmt.Errorf("%w: %s", ErrInvalidStep, f.step)
	}
	if err := ValidateProfile(input, f.now()); err != nil {
		return err
	}

	if f.oauth {
		fullName := strings.TrimSpace(input.FullName)
		if err := f.store.UpdateProfile(ctx, auth.ProfileUpdate{FullName: &fullName}); err != nil {
			return err
		}
	} else {
		if err := f.store.SignUp(ctx, f.email, f.password, input.FullName); err != nil {
			return err
		}
	}

	f.password = ""
	f.step = StepComplete
	return nil
}

// Back navigates one step backwards. From the profile step an OAuth-routed
// flow returns to the landing screen, since the email and password steps
// never happened for it; a credential flow returns to the OTP step.
func (f *Flow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()

	switch f.step {
	case StepSignIn, StepEmail:
		f.step = StepLanding
	case StepPassword:
		f.step = StepEmail
	case StepOTP:
		f.step = StepPassword
	case StepProfile:
		if f.oauth {
			f.step = StepLanding
			f.oauth = false
		} else {
			f.step = StepOTP
		}
	default:
		return fmt.Errorf("%w: %s", ErrInvalidStep, f.step)
	}
	return nil
}

// Cancel abandons the wizard and clears everything collected so far.
func (f *Flow) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()

	f.step = StepLanding
	f.email = ""
	f.password = ""
	f.oauth = false
	f.awaiting = false
	f.otp = newOTPState()
}

func (f *Flow) issueCode(ctx context.Context) error {
	now := f.now()
	if !f.otp.limiter.AllowN(now, 1) {
		return ErrResendLimited
	}
	code, err := f.otp.issue(now)
	if err != nil {
		return err
	}
	return f.sender.Send(ctx, f.email, code)
}

// handleChange routes an OAuth completion observed on the auth store. A
// first-time account still needs its profile, so it lands on the profile
// step; a returning account is done.
func (f *Flow) handleChange(change auth.Change) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if change.Kind != auth.EventSignedIn || !f.awaiting {
		return
	}
	f.awaiting = false
	if change.User != nil {
		f.email = change.User.Email
	}
	if change.FirstSignIn {
		f.oauth = true
		f.step = StepProfile
	} else {
		f.step = StepComplete
	}
	f.touch()
}

func (f *Flow) touch() {
	f.touchedAt = f.now()
}

// TouchedAt reports the last time the flow saw activity.
func (f *Flow) TouchedAt() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.touchedAt
}
