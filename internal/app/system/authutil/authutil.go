// internal/app/system/authutil/authutil.go
package authutil

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Password length limits. bcrypt silently truncates past 72 bytes, so the
// upper bound keeps the whole password significant.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

var (
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrPasswordTooShort = errors.New("password is too short")
	ErrPasswordTooLong  = errors.New("password is too long")
	ErrPasswordCommon   = errors.New("password is too common")
)

// commonPasswords are rejected outright, case-insensitively.
var commonPasswords = map[string]struct{}{
	"12345678":  {},
	"password":  {},
	"password1": {},
	"qwerty123": {},
	"iloveyou":  {},
	"letmein1":  {},
	"welcome1":  {},
	"passord12": {},
}

// ValidateEmail checks the minimal shape of an email address: exactly one @,
// non-empty local part, and a domain with an interior dot.
func ValidateEmail(email string) error {
	if !isValidEmail(email) {
		return ErrInvalidEmail
	}
	return nil
}

func isValidEmail(email string) bool {
	at := strings.Count(email, "@")
	if at != 1 {
		return false
	}
	parts := strings.SplitN(email, "@", 2)
	local, domain := parts[0], parts[1]
	if local == "" || domain == "" {
		return false
	}
	if !strings.Contains(domain, ".") {
		return false
	}
	if strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return false
	}
	return true
}

// ValidatePassword enforces the password policy for new and changed passwords.
func ValidatePassword(pw string) error {
	if len(pw) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(pw) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	if _, bad := commonPasswords[strings.ToLower(pw)]; bad {
		return ErrPasswordCommon
	}
	return nil
}

// PasswordRules describes the policy for display next to password fields.
func PasswordRules() string {
	return "Passordet må være minst 8 tegn."
}

// HashPassword hashes a plain-text password with bcrypt.
func HashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), 12)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the plain-text password matches the hash.
func CheckPassword(pw, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// TempPassword generates a one-time password for reset emails. The value is
// random enough to be unguessable and short enough to retype from a phone.
func TempPassword() string {
	id := uuid.NewString()
	return strings.ReplaceAll(id, "-", "")[:16]
}
