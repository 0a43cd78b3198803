package vmhost

import "errors"

// Sentinel errors matching the taxonomy in spec.md §7. internal/core wraps
// these with additional context rather than inventing parallel error types.
var (
	// ErrMissingExport is returned by Call when the named function is not
	// found on the guest module. No journal mutation occurs.
	ErrMissingExport = errors.New("vmhost: missing export")

	// ErrGuestTrap is returned by Call when the guest export traps.
	ErrGuestTrap = errors.New("vmhost: guest trap")

	// ErrGlobalTypeMismatch is returned by SetGlobal when an undo record's
	// declared type does not match the live global's VM-level type.
	ErrGlobalTypeMismatch = errors.New("vmhost: global type mismatch")
)
