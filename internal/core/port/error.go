package port

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrCanceled      = errors.New("canceled")
	ErrUnavailable   = errors.New("unavailable")
)
