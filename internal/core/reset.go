package core

import (
	"context"
	"fmt"

	"github.com/riftcore/engine/internal/metrics"
	"github.com/riftcore/engine/internal/telemetry"
	"github.com/riftcore/engine/pkg/vmhost"
)

// Reset implements spec.md §4.7: replace the VM's linear memory contents
// bitwise with newMemoryImage, clear the Journal and Call Log, and set the
// clock. This is the join point used when the engine synchronizes to a
// peer's snapshot.
func (cs *CoreState) Reset(ctx context.Context, newMemoryImage []byte, newCurrentTime, newNextFireTime int64) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.assertOwnership()

	if err := cs.checkPoisoned(); err != nil {
		return err
	}

	ctx, span := telemetry.StartSpan(ctx, "core.reset", cs.engineID, cs.j.Len())
	defer span.End()

	currentPages := cs.vm.MemoryPages()
	wantPages := uint32((len(newMemoryImage) + vmhost.PageSize - 1) / vmhost.PageSize)

	if wantPages > currentPages {
		if _, err := cs.vm.Grow(wantPages - currentPages); err != nil {
			cs.poisoned.Store(true)
			metrics.Poisoned.Set(1)
			return fmt.Errorf("%w: reset grow: %v", ErrPoisoned, err)
		}
		if err := cs.vm.WriteMemory(0, newMemoryImage); err != nil {
			cs.poisoned.Store(true)
			metrics.Poisoned.Set(1)
			return fmt.Errorf("%w: reset write: %v", ErrPoisoned, err)
		}
	} else {
		if err := cs.vm.ReinstantiateWithMemory(ctx, newMemoryImage); err != nil {
			cs.poisoned.Store(true)
			metrics.Poisoned.Set(1)
			return fmt.Errorf("%w: reset reinstantiate: %v", ErrPoisoned, err)
		}
	}

	// Reset in place rather than swapping in new Journal/CallLog values: the
	// VM's host callbacks (internal/hostimports.Recorder) hold the same
	// *journal.Journal pointer passed to Setup, and must keep appending to
	// it after a reset.
	cs.j.Reset()
	cs.log.Reset()
	cs.currentTime = newCurrentTime
	cs.nextFireTime = newNextFireTime
	cs.tickOffset = 0
	cs.lastOffsetByPeer = make(map[peerKey]int64)

	cs.updateMetrics()
	return nil
}
