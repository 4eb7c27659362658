package models

import (
	"errors"
	"fmt"
)

// Error taxonomy for the ledger write path. Controllers map these onto
// HTTP statuses; anchor failures never reach here, they stay inside
// the chain batcher.
var (
	ErrValidation = errors.New("validation failed")
	ErrPermission = errors.New("permission denied")
	ErrNotFound   = errors.New("not found")
	ErrStorage    = errors.New("storage failure")
	ErrCorrupt    = errors.New("corrupt record")
)

func ValidationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// PermissionError carries the resolver's human-readable reason.
func PermissionError(reason string) error {
	return fmt.Errorf("%w: %s", ErrPermission, reason)
}

func NotFoundError(what string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, what)
}
