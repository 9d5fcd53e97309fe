package workflow

import (
	"fmt"
	"strings"
)

// CompensationError is returned when a failed workflow could not be fully
// rolled back.
type CompensationError struct {
	executionErr     error
	compensationErrs []error
}

func (e *CompensationError) ExecutionError() error {
	return e.executionErr
}

func (e *CompensationError) CompensationErrors() []error {
	return e.compensationErrs
}

// Unwrap returns the execution error so that errors.Is and errors.As match
// the original failure.
func (e *CompensationError) Unwrap() error {
	return e.executionErr
}

func (e *CompensationError) Error() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "execution error '%s' could not be compensated: ", e.executionErr)

	for idx, err := range e.compensationErrs {
		if idx > 0 {
			sb.WriteString(", ")
		}

		fmt.Fprintf(&sb, "[%d] %s", idx, err)
	}

	return sb.String()
}

func NewCompensationError(executionErr error, compensationErrs ...error) *CompensationError {
	return &CompensationError{
		executionErr:     executionErr,
		compensationErrs: compensationErrs,
	}
}

var _ error = &CompensationError{}
