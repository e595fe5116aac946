package signup

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"golang.org/x/time/rate"
)

var (
	// ErrNoCode means no verification code is outstanding for the flow.
	ErrNoCode = errors.New("no verification code outstanding")
	// ErrCodeMismatch means the submitted code does not match; retryable.
	ErrCodeMismatch = errors.New("verification code does not match")
	// ErrCodeExpired means the outstanding code aged out and must be resent.
	ErrCodeExpired = errors.New("verification code expired")
	// ErrTooManyAttempts means the code was invalidated after repeated
	// mismatches and must be resent.
	ErrTooManyAttempts = errors.New("too many verification attempts")
	// ErrResendNotReady means the resend countdown has not elapsed.
	ErrResendNotReady = errors.New("resend not available yet")
	// ErrResendLimited means the resend budget for this flow is exhausted.
	ErrResendLimited = errors.New("resend limit reached")
)

const (
	otpLength      = 6
	otpTTL         = 10 * time.Minute
	otpMaxAttempts = 5
	resendInterval = 60 * time.Second
)

// CodeSender delivers a verification code to an email address.
type CodeSender interface {
	Send(ctx context.Context, email, code string) error
}

// LogSender logs codes instead of delivering them. Used in local development
// where no mail provider is wired up.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(_ context.Context, email, code string) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("verification code issued", "email", email, "code", code)
	return nil
}

// SenderFunc adapts a function to the CodeSender interface.
type SenderFunc func(ctx context.Context, email, code string) error

func (f SenderFunc) Send(ctx context.Context, email, code string) error {
	return f(ctx, email, code)
}

// otpState tracks the outstanding code for a flow. The resend countdown is
// held as a deadline compared against the flow clock, so there is no timer
// goroutine to leak when a flow is abandoned.
type otpState struct {
	code      string
	expiresAt time.Time
	resendAt  time.Time
	attempts  int
	limiter   *rate.Limiter
}

func newOTPState() *otpState {
	// Three sends per ten minutes, including the initial one.
	return &otpState{limiter: rate.NewLimiter(rate.Every(otpTTL/3), 3)}
}

// issue mints a new code, resets the attempt counter, and arms the resend
// countdown. The limiter token must already have been taken by the caller.
func (o *otpState) issue(now time.Time) (string, error) {
	code, err := generateCode(otpLength)
	if err != nil {
		return "", err
	}
	o.code = code
	o.expiresAt = now.Add(otpTTL)
	o.resendAt = now.Add(resendInterval)
	o.attempts = 0
	return code, nil
}

// verify checks a submitted code against the outstanding one.
func (o *otpState) verify(code string, now time.Time) error {
	if o.code == "" {
		return ErrNoCode
	}
	if now.After(o.expiresAt) {
		o.code = ""
		return ErrCodeExpired
	}
	if code != o.code {
		o.attempts++
		if o.attempts >= otpMaxAttempts {
			o.code = ""
			return ErrTooManyAttempts
		}
		return ErrCodeMismatch
	}
	o.code = ""
	return nil
}

// resendAvailableIn reports how long until a resend is allowed, zero when it
// already is.
func (o *otpState) resendAvailableIn(now time.Time) time.Duration {
	if remaining := o.resendAt.Sub(now); remaining > 0 {
		return remaining
	}
	return 0
}

func generateCode(length int) (string, error) {
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generate verification code: %w", err)
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
