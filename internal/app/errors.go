package app

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors surfaced to the presentation layer. ErrInvalidCredentials
// deliberately covers both an unknown email and a wrong password so failed
// logins never reveal which accounts exist.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrDuplicateUser      = errors.New("user with this email already exists")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters long")
	ErrNotLoggedIn        = errors.New("not logged in")
	ErrGoalNotFound       = errors.New("goal not found")
)

// ValidationError reports which required fields were missing or unparseable.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing or invalid fields: %s", strings.Join(e.Fields, ", "))
}

// fieldErrors collects invalid field names during form parsing.
type fieldErrors []string

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}
