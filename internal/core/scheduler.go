package core

import (
	"context"
	"fmt"

	"github.com/riftcore/engine/internal/metrics"
	"github.com/riftcore/engine/internal/telemetry"
	"github.com/riftcore/engine/pkg/calllog"
	"github.com/riftcore/engine/pkg/timestamp"
)

// CallAt implements the Timeline Scheduler's call_at operation (spec.md
// §4.5): locate ts's insertion point, rewind if a later entry already
// occupies the timeline, invoke the export, insert the new entry, and
// replay every entry after it.
func (cs *CoreState) CallAt(ctx context.Context, ts timestamp.Timestamp, name string, args []uint64) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.assertOwnership()

	if err := cs.checkPoisoned(); err != nil {
		return err
	}
	if !cs.vm.HasExport(name) {
		return fmt.Errorf("%w: %s", ErrMissingExport, name)
	}
	if err := cs.checkPeerOrder(ts); err != nil {
		return err
	}

	ctx, span := telemetry.StartSpan(ctx, "core.call_at", cs.engineID, cs.j.Len())
	defer span.End()

	i := cs.log.FindInsertionIndex(ts)
	oldSuffix := append([]calllog.Entry(nil), cs.log.All()[i:]...)

	target := cs.j.Len()
	if i < cs.log.Len() {
		target = cs.log.At(i).JournalLengthBefore
		if err := cs.rewindTo(ctx, target); err != nil {
			return err
		}
	}

	journalLengthBefore := cs.j.Len()
	if _, err := cs.vm.Call(ctx, name, args...); err != nil {
		// Open Question resolution (spec.md §9): a guest trap is recoverable
		// (§7), so the Call Log and Journal must stay mutually consistent.
		// The rewindTo above already undid oldSuffix's effects before this
		// call was even attempted, and the call never reached the log, so
		// replaying oldSuffix unchanged restores the engine to its pre-call
		// state before the trap is surfaced.
		trapErr := fmt.Errorf("%w: %v", ErrGuestTrap, err)
		if rerr := cs.rewindTo(ctx, journalLengthBefore); rerr != nil {
			return rerr
		}
		if rerr := cs.replayFrom(ctx, i); rerr != nil {
			return rerr
		}
		return trapErr
	}

	cs.log.InsertAt(i, calllog.Entry{
		Name:                name,
		Args:                args,
		JournalLengthBefore: journalLengthBefore,
		Timestamp:           ts,
	})

	if err := cs.replayFrom(ctx, i+1); err != nil {
		// An entry after the insertion point could not be replayed: the
		// whole insert is aborted, not just the failing entry, since the
		// Call Log must never retain an entry whose effects aren't in the
		// Journal. Undo back to the pre-call journal length, drop the
		// inserted entry, restore the untouched original suffix, and replay
		// it to resynchronize the Journal with the restored Call Log.
		cs.log.Truncate(i)
		if rerr := cs.rewindTo(ctx, target); rerr != nil {
			return rerr
		}
		for _, e := range oldSuffix {
			cs.log.InsertAt(cs.log.Len(), e)
		}
		if rerr := cs.replayFrom(ctx, i); rerr != nil {
			return rerr
		}
		return err
	}

	metrics.CallsTotal.Inc()
	cs.updateMetrics()
	cs.recordPeerOffset(ts)
	return nil
}

// replayFrom re-executes every Call Log entry at index >= from, rewriting
// each entry's JournalLengthBefore to the journal length observed just
// before it re-executes (spec.md §4.5 step 5).
func (cs *CoreState) replayFrom(ctx context.Context, from int) error {
	for j := from; j < cs.log.Len(); j++ {
		entry := cs.log.At(j)
		entry.JournalLengthBefore = cs.j.Len()
		cs.log.Set(j, entry)

		if _, err := cs.vm.Call(ctx, entry.Name, entry.Args...); err != nil {
			if rerr := cs.rewindTo(ctx, entry.JournalLengthBefore); rerr != nil {
				return rerr
			}
			return fmt.Errorf("%w: replaying %s: %v", ErrGuestTrap, entry.Name, err)
		}
		metrics.ReplaysTotal.Inc()
	}
	return nil
}

// CallAndRevert implements call_and_revert (spec.md §4.5): invokes name
// against current VM state and immediately rewinds to the pre-call journal
// length, so the Call Log is untouched and the Journal is left exactly as
// it was. Intended for pure queries.
func (cs *CoreState) CallAndRevert(ctx context.Context, name string, args []uint64) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.assertOwnership()

	if err := cs.checkPoisoned(); err != nil {
		return err
	}
	if !cs.vm.HasExport(name) {
		return fmt.Errorf("%w: %s", ErrMissingExport, name)
	}

	ctx, span := telemetry.StartSpan(ctx, "core.call_and_revert", cs.engineID, cs.j.Len())
	defer span.End()

	snapshot := cs.j.Len()
	_, callErr := cs.vm.Call(ctx, name, args...)

	// Open Question resolution (spec.md §9 "transient trap policy"): rewind
	// to the snapshot on trap as well as on success, so a failed transient
	// call never leaves mutations on the Journal. See DESIGN.md.
	if err := cs.rewindTo(ctx, snapshot); err != nil {
		return err
	}
	cs.updateMetrics()

	if callErr != nil {
		return fmt.Errorf("%w: %v", ErrGuestTrap, callErr)
	}
	return nil
}

// checkPeerOrder enforces the optional per-peer monotonicity validation
// (spec.md §4.5): if RejectOutOfOrder is set and this (time, player_id) pair
// has already seen an offset that is not less than ts.Offset, the insert is
// rejected before any VM interaction occurs. Offset only orders calls within
// a single time tick (spec.md §4.6) and resets across ticks, so time
// participates in the key alongside player_id.
func (cs *CoreState) checkPeerOrder(ts timestamp.Timestamp) error {
	if !cs.rejectOutOfOrder {
		return nil
	}
	last, seen := cs.lastOffsetByPeer[keyOf(ts)]
	if seen && ts.Offset <= last {
		return fmt.Errorf("%w: player %d offset %d <= last seen offset %d at time %d", ErrOutOfOrderInsert, ts.PlayerID, ts.Offset, last, ts.Time)
	}
	return nil
}

func (cs *CoreState) recordPeerOffset(ts timestamp.Timestamp) {
	k := keyOf(ts)
	if last, seen := cs.lastOffsetByPeer[k]; !seen || ts.Offset > last {
		cs.lastOffsetByPeer[k] = ts.Offset
	}
}
