package validation

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
)

var (
	ErrUsernameRequired = errors.New("username is required")
	ErrUsernameLength   = errors.New("username must be between 3 and 30 characters")
	ErrUsernameChars    = errors.New("username may only contain letters, numbers, underscores and hyphens")
	ErrEmailRequired    = errors.New("email address is required")
	ErrEmailInvalid     = errors.New("invalid email address format")
	ErrPasswordShort    = errors.New("password must be at least 8 characters")
	ErrPasswordLong     = errors.New("password must not exceed 72 characters")
	ErrPasswordCommon   = errors.New("password is too common, please choose a stronger one")
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// ValidateUsername checks an already lowercased and trimmed username.
func ValidateUsername(username string) error {
	switch {
	case username == "":
		return ErrUsernameRequired
	case len(username) < 3 || len(username) > 30:
		return ErrUsernameLength
	case !usernamePattern.MatchString(username):
		return ErrUsernameChars
	}
	return nil
}

// ValidateEmail checks length (RFC 5321) and format (RFC 5322 via net/mail).
func ValidateEmail(email string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if len(email) > 254 {
		return errors.New("email address is too long (max 254 characters)")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrEmailInvalid
	}
	return nil
}

// ValidatePassword enforces length bounds and rejects common patterns.
// The upper bound is bcrypt's 72 byte input limit.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return ErrPasswordShort
	}
	if len(password) > 72 {
		return ErrPasswordLong
	}

	lower := strings.ToLower(password)
	for _, pattern := range []string{"password", "123456", "qwerty", "letmein", "welcome"} {
		if strings.Contains(lower, pattern) {
			return ErrPasswordCommon
		}
	}
	return nil
}
