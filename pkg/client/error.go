package client

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Error is an error response returned by the server.
type Error struct {
	StatusCode int
	Code       string
	Reasons    []string
}

// Error implements error.
func (e *Error) Error() string {
	if len(e.Reasons) == 0 {
		return fmt.Sprintf("unexpected response code %d (%s)", e.StatusCode, e.Code)
	}

	return fmt.Sprintf("unexpected response code %d (%s): %s", e.StatusCode, e.Code, strings.Join(e.Reasons, ", "))
}

// IsErrorCode returns true if err is a server error with the given code.
func IsErrorCode(err error, code string) bool {
	var clientErr *Error
	if !errors.As(err, &clientErr) {
		return false
	}

	return clientErr.Code == code
}
