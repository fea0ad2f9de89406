package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrInvalidAmount     = errors.New("amount must be at least 1")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrUnknownOrder      = errors.New("order has no local payment record")
	ErrNotOwner          = errors.New("resource belongs to another user")

	// ErrStorageFailure wraps any failure to commit a reconciliation
	// transaction. The triggering channel decides whether to retry.
	ErrStorageFailure = errors.New("storage failure")

	// ErrProviderUnavailable marks outbound provider calls that failed or
	// timed out. Transient; the scheduler retries on its next sweep.
	ErrProviderUnavailable = errors.New("payment provider unavailable")
)
