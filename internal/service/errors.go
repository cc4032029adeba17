package service

import "errors"

// Sentinel error kinds surfaced by the core. Handlers map these to HTTP
// status codes with errors.Is; services wrap them with %w and context.
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrNoOpAdjustment      = errors.New("zero-quantity adjustment")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrDuplicateAssignment = errors.New("store already has a variant of this product")
	ErrInvalidState        = errors.New("invalid state transition")
	// ErrMirrorSyncFailed is non-fatal: it is logged at the call site and
	// never propagated to a mutation's caller.
	ErrMirrorSyncFailed = errors.New("mirror sync failed")
)
