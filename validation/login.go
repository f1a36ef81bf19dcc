// Package validation holds the explicit request validators that run before a
// request reaches the Engine.
//
// Validators return the first failure as a *FieldError; nil means the input
// passed.
package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MinFormHashLength is the shortest accepted password field. Clients send the
// first-stage hash, never the plaintext.
const MinFormHashLength = 32

// Field names reported in FieldError.
const (
	FieldMobile   = "mobile"
	FieldPassword = "password"
	FieldNickname = "nickname"
)

// MaxNicknameLength is the longest nickname in characters, matching the
// nickname column.
const MaxNicknameLength = 255

// ErrInvalid is matched by every FieldError.
var ErrInvalid = errors.New("validation failed")

var (
	mobilePattern   = regexp.MustCompile(`^1[3-9][0-9]{9}$`)
	formHashPattern = regexp.MustCompile(`^[0-9a-fA-F]+$`)
)

// FieldError describes the first field that failed validation.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Is makes errors.Is(err, ErrInvalid) hold for every FieldError.
func (e *FieldError) Is(target error) bool {
	return target == ErrInvalid
}

// IsMobile reports whether s is an 11-digit mainland mobile number.
func IsMobile(s string) bool {
	return mobilePattern.MatchString(s)
}

// ValidateLogin checks the login form fields in order and returns the first
// failure.
func ValidateLogin(mobile, password string) *FieldError {
	if strings.TrimSpace(mobile) == "" {
		return &FieldError{Field: FieldMobile, Message: "must not be empty"}
	}
	if !IsMobile(mobile) {
		return &FieldError{Field: FieldMobile, Message: "invalid mobile number format"}
	}
	if password == "" {
		return &FieldError{Field: FieldPassword, Message: "must not be empty"}
	}
	if len(password) < MinFormHashLength {
		return &FieldError{Field: FieldPassword, Message: "length must be at least 32"}
	}
	if !formHashPattern.MatchString(password) {
		return &FieldError{Field: FieldPassword, Message: "must be hexadecimal"}
	}
	return nil
}

// ValidateNickname checks a nickname against the stored column width.
func ValidateNickname(nickname string) *FieldError {
	if utf8.RuneCountInString(nickname) > MaxNicknameLength {
		return &FieldError{Field: FieldNickname, Message: "length must be at most 255 characters"}
	}
	return nil
}
