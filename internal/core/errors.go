package core

import (
	"errors"

	"github.com/riftcore/engine/pkg/vmhost"
)

// Error taxonomy per spec.md §7. Each sentinel is wrapped with call-site
// detail by the function that returns it.
var (
	// ErrSetupFailed is returned by Bootstrap when the rewriter or the VM
	// fails to produce a usable instance, and by Setup when given a nil VM or
	// Journal or when the engine ID cannot be generated; the engine is not
	// constructed.
	ErrSetupFailed = errors.New("core: setup failed")

	// ErrPoisoned is returned once a rewind or reset has failed to restore VM
	// state (for example a failed MemoryGrow reinstantiation); the engine
	// must be discarded. CallAt, CallAndRevert, Reset and Snapshot return it;
	// AdvanceTime returns it unless the call is a no-op (delta <= 0 or no
	// interval); ForgetBefore does not check it.
	ErrPoisoned = errors.New("core: engine poisoned by a prior fatal rewind failure")

	// ErrOutOfOrderInsert is returned when RejectOutOfOrder is enabled and a
	// (time, player_id) pair is observed with a decreasing offset.
	ErrOutOfOrderInsert = errors.New("core: out-of-order per-peer insert rejected")

	// ErrGuestTrap and ErrMissingExport alias vmhost's sentinels so callers
	// can errors.Is against either package without caring which layer
	// detected the condition.
	ErrGuestTrap     = vmhost.ErrGuestTrap
	ErrMissingExport = vmhost.ErrMissingExport
)
