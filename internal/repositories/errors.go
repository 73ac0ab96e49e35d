package repositories

import (
	"context"
	"errors"
	"fmt"
)

// StoreError implements RepositoryError for the non-Firestore backends.
type StoreError struct {
	Op          string
	Err         error
	notFound    bool
	unavailable bool
}

func (e *StoreError) Error() string {
	if e == nil {
		return ""
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *StoreError) IsNotFound() bool    { return e != nil && e.notFound }
func (e *StoreError) IsConflict() bool    { return false }
func (e *StoreError) IsUnavailable() bool { return e != nil && e.unavailable }

// Unavailable wraps a backend I/O failure. Context errors pass through untouched.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var repoErr RepositoryError
	if errors.As(err, &repoErr) {
		return err
	}
	return &StoreError{Op: op, Err: err, unavailable: true}
}

// NotFound builds a not-found error for op.
func NotFound(op string, err error) error {
	if err == nil {
		err = errors.New("not found")
	}
	return &StoreError{Op: op, Err: err, notFound: true}
}
