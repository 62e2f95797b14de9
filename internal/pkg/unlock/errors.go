package unlock

import (
	"context"
	"errors"
	"fmt"

	"github.com/ManuelReschke/Paywall/app/repository"
)

var (
	// ErrInvalidArgument is returned for an unknown content type or a zero id.
	ErrInvalidArgument = errors.New("unlock: invalid argument")
	// ErrNotFound is returned for unknown users, content items or works.
	ErrNotFound = errors.New("unlock: not found")
	// ErrInsufficientFunds mirrors the wallet outcome for callers that want an error.
	ErrInsufficientFunds = errors.New("unlock: insufficient funds")
	// ErrGrantConflict marks a whole-work purchase that raced a single unlock.
	ErrGrantConflict = errors.New("unlock: grant conflict")
	// ErrTransient wraps storage and timeout failures. The transaction was rolled
	// back and the request may be retried.
	ErrTransient = errors.New("unlock: transient failure")
)

// IsRetryable reports whether err is a transient failure worth retrying
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}

// classify maps store errors onto the package sentinels
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInvalidArgument), errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInsufficientFunds), errors.Is(err, ErrTransient):
		return err
	case errors.Is(err, repository.ErrUserNotFound), errors.Is(err, repository.ErrContentNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, repository.ErrUnsupportedContentType), errors.Is(err, repository.ErrInvalidAmount):
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	case errors.Is(err, repository.ErrInsufficientFunds):
		return ErrInsufficientFunds
	case errors.Is(err, repository.ErrGrantConflict):
		return fmt.Errorf("%w: %w: %v", ErrTransient, ErrGrantConflict, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %v", ErrTransient, err)
	default:
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
}
