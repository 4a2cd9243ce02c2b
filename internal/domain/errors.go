package domain

import (
	"errors"
	"strings"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateUserName = errors.New("user name already exists")
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidInput      = errors.New("invalid input")
)

// ValidationErrors is the ordered list of user-facing validation
// messages produced by a create or update attempt. It is a normal,
// non-fatal outcome: handlers serialize it as error_messages rather
// than treating it as a server failure.
type ValidationErrors []string

func (v ValidationErrors) Error() string {
	return strings.Join(v, ", ")
}

// Is makes errors.Is(err, ErrInvalidInput) true for validation errors.
func (v ValidationErrors) Is(target error) bool {
	return target == ErrInvalidInput
}
