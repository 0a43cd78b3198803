package core

import (
	"context"
	"fmt"

	"github.com/riftcore/engine/internal/logging"
	"github.com/riftcore/engine/internal/metrics"
	"github.com/riftcore/engine/pkg/journal"
	"github.com/riftcore/engine/pkg/vmhost"
)

// rewindTo applies undo records in reverse until the Journal length equals
// targetLen (spec.md §4.4). Callers must hold cs.mu.
func (cs *CoreState) rewindTo(ctx context.Context, targetLen int) error {
	if err := cs.checkPoisoned(); err != nil {
		return err
	}
	if targetLen < 0 || targetLen > cs.j.Len() {
		panic(fmt.Sprintf("core: rewindTo target %d out of range [0, %d]", targetLen, cs.j.Len()))
	}

	for cs.j.Len() > targetLen {
		i := cs.j.Len() - 1
		rec := cs.j.At(i)

		if err := cs.applyInverse(ctx, rec); err != nil {
			cs.poisoned.Store(true)
			metrics.Poisoned.Set(1)
			logging.Sugar().Errorw("core: rewind failure, engine poisoned", "err", err)
			return fmt.Errorf("%w: %v", ErrPoisoned, err)
		}
		cs.j.TruncateTail(i)
	}

	metrics.RewindsTotal.Inc()
	cs.updateMetrics()
	return nil
}

// applyInverse applies the inverse of a single UndoRecord to the VM
// (spec.md §4.4 step 2). A MemoryGrow undo tears down and reinstantiates
// the VM because the underlying runtime exposes no memory-shrink
// primitive; failure here is fatal to the engine (spec.md §7).
func (cs *CoreState) applyInverse(ctx context.Context, rec journal.UndoRecord) error {
	switch rec.Kind {
	case journal.KindMemoryWrite:
		return cs.vm.WriteMemory(rec.Location, rec.OldBytes)

	case journal.KindGlobalWrite:
		return cs.vm.SetGlobal(rec.GlobalIndex, rec.OldValue)

	case journal.KindMemoryGrow:
		targetBytes := int(rec.OldPageCount) * vmhost.PageSize
		current, err := cs.vm.ReadMemory(0, cs.vm.MemoryPages()*vmhost.PageSize)
		if err != nil {
			return fmt.Errorf("rewinder: read current memory before shrink: %w", err)
		}
		if targetBytes > len(current) {
			targetBytes = len(current)
		}
		image := append([]byte(nil), current[:targetBytes]...)
		if err := cs.vm.ReinstantiateWithMemory(ctx, image); err != nil {
			return fmt.Errorf("rewinder: reinstantiate with %d pages: %w", rec.OldPageCount, err)
		}
		return nil

	default:
		panic(fmt.Sprintf("core: unknown UndoRecord kind %v", rec.Kind))
	}
}
