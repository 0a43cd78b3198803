// Package hostimports wires the instrumented guest's three mutation
// callbacks (spec.md §6) into Journal appends, and the two diagnostic
// imports into structured logging. It is the only package that touches
// pkg/journal from inside a host-function callback, keeping the
// undo-capture logic in one place regardless of which vmhost.Instance
// invokes it.
package hostimports

import (
	"context"

	"github.com/riftcore/engine/internal/logging"
	"github.com/riftcore/engine/pkg/journal"
	"github.com/riftcore/engine/pkg/vmhost"
)

// Recorder implements vmhost.HostCallbacks, appending an UndoRecord to J
// before each guest mutation executes. J must be the same Journal the
// owning CoreState performs rewinds against.
type Recorder struct {
	J *journal.Journal
}

var _ vmhost.HostCallbacks = (*Recorder)(nil)

// OnStore captures size bytes at location from the guest's current memory,
// before the pending store overwrites them (spec.md §6).
func (r *Recorder) OnStore(_ context.Context, inst vmhost.GuestView, location, size uint32) {
	old, err := inst.ReadMemory(location, size)
	if err != nil {
		// The location must be in range before a store can legally target
		// it; a read failure here means the rewriter emitted a callback for
		// an out-of-range store, which is an engine bug, not a guest fault.
		logging.Sugar().Errorw("hostimports: on_store read failed", "location", location, "size", size, "err", err)
		return
	}
	r.J.Append(journal.MemoryWrite(location, old))
}

// OnGrow captures the current page count before linear memory is grown.
func (r *Recorder) OnGrow(_ context.Context, inst vmhost.GuestView, _ uint32) {
	r.J.Append(journal.MemoryGrow(inst.MemoryPages()))
}

// OnGlobalSet captures the current value of the global indexed by
// globalIndex, tagged with its VM-level type, before it is overwritten.
func (r *Recorder) OnGlobalSet(_ context.Context, inst vmhost.GuestView, globalIndex uint32) {
	old, err := inst.GetGlobal(globalIndex)
	if err != nil {
		logging.Sugar().Errorw("hostimports: on_global_set read failed", "global_index", globalIndex, "err", err)
		return
	}
	r.J.Append(journal.GlobalWrite(globalIndex, old))
}

// ExternalLog forwards a guest-originated informational message to the
// structured logger.
func (r *Recorder) ExternalLog(_ context.Context, msg string) {
	logging.Sugar().Infow("guest", "message", msg)
}

// ExternalError forwards a guest-originated error message to the
// structured logger at error severity.
func (r *Recorder) ExternalError(_ context.Context, msg string) {
	logging.Sugar().Errorw("guest", "message", msg)
}
