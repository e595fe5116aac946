package signup

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode"
)

// ErrValidation is returned when step input fails validation.
var ErrValidation = errors.New("validation error")

// ValidationError collects every violated rule, keyed by field, so the UI
// can render all of them at once instead of one per attempt.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	var parts []string
	for field, messages := range e.Fields {
		for _, msg := range messages {
			parts = append(parts, field+": "+msg)
		}
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func fieldError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {message}}}
}

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	otpPattern   = regexp.MustCompile(`^\d{6}$`)
	phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
)

// ValidateEmail checks that the address is well-formed. Uniqueness is not
// checked here; a collision only surfaces at the remote sign-up call.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fieldError("email", "Email is required")
	}
	if !emailPattern.MatchString(email) {
		return fieldError("email", "Invalid email address")
	}
	return nil
}

// ValidatePassword enforces the four hard rules and the confirmation match.
// Every violated rule is reported, not just the first.
func ValidatePassword(password, confirm string) error {
	var messages []string
	if len(password) < 8 {
		messages = append(messages, "Password must be at least 8 characters")
	}
	if !containsFunc(password, unicode.IsUpper) {
		messages = append(messages, "Password must contain an uppercase letter")
	}
	if !containsFunc(password, unicode.IsLower) {
		messages = append(messages, "Password must contain a lowercase letter")
	}
	if !containsFunc(password, unicode.IsDigit) {
		messages = append(messages, "Password must contain a number")
	}

	fields := make(map[string][]string)
	if len(messages) > 0 {
		fields["password"] = messages
	}
	if confirm != password {
		fields["confirmPassword"] = []string{"Passwords must match"}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// PasswordStrength scores a password 0-5 from five independent predicates.
// The score is UI feedback only; it does not gate submission beyond the
// hard rules in ValidatePassword.
func PasswordStrength(password string) int {
	score := 0
	if len(password) >= 8 {
		score++
	}
	if containsFunc(password, unicode.IsUpper) {
		score++
	}
	if containsFunc(password, unicode.IsLower) {
		score++
	}
	if containsFunc(password, unicode.IsDigit) {
		score++
	}
	if containsFunc(password, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		score++
	}
	return score
}

// ValidateOTP checks the code shape: exactly six numeric digits.
func ValidateOTP(code string) error {
	if strings.TrimSpace(code) == "" {
		return fieldError("otp", "OTP is required")
	}
	if !otpPattern.MatchString(code) {
		return fieldError("otp", "OTP must be 6 digits")
	}
	return nil
}

// Grades lists the accepted grade/level selections.
var Grades = []string{
	"6th Grade", "7th Grade", "8th Grade", "9th Grade", "10th Grade",
	"11th Grade", "12th Grade", "Undergraduate", "Graduate", "Other",
}

// Interests lists the selectable interest tags.
var Interests = []string{
	"Electronics", "Robotics", "Programming", "Physics", "Chemistry",
	"Biology", "Mathematics", "Engineering", "AI/ML", "3D Printing",
}

// ProfileInput carries the attributes collected on the profile step.
type ProfileInput struct {
	FullName    string
	DateOfBirth time.Time
	PhoneNumber string
	Grade       string
	Interests   []string
}

// ValidateProfile checks every profile field and reports all violations.
func ValidateProfile(input ProfileInput, now time.Time) error {
	fields := make(map[string][]string)

	if len(strings.TrimSpace(input.FullName)) < 2 {
		fields["fullName"] = append(fields["fullName"], "Name must be at least 2 characters")
	}
	if input.DateOfBirth.IsZero() {
		fields["dateOfBirth"] = append(fields["dateOfBirth"], "Date of birth is required")
	} else if input.DateOfBirth.After(now) {
		fields["dateOfBirth"] = append(fields["dateOfBirth"], "Date of birth cannot be in the future")
	}
	if !phonePattern.MatchString(strings.TrimSpace(input.PhoneNumber)) {
		fields["phoneNumber"] = append(fields["phoneNumber"], "Invalid phone number")
	}
	if !validGrade(input.Grade) {
		fields["grade"] = append(fields["grade"], "Please select your grade")
	}
	if len(input.Interests) == 0 {
		fields["interests"] = append(fields["interests"], "Please select at least one interest")
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func validGrade(grade string) bool {
	for _, g := range Grades {
		if g == grade {
			return true
		}
	}
	return false
}

// ToggleInterest adds the interest to the set, or removes it when already
// present. Toggling twice restores the original set.
func ToggleInterest(interests []string, interest string) []string {
	for i, existing := range interests {
		if existing == interest {
			out := make([]string, 0, len(interests)-1)
			out = append(out, interests[:i]...)
			return append(out, interests[i+1:]...)
		}
	}
	out := make([]string, 0, len(interests)+1)
	out = append(out, interests...)
	return append(out, interest)
}

func containsFunc(s string, fn func(rune) bool) bool {
	for _, r := range s {
		if fn(r) {
			return true
		}
	}
	return false
}
