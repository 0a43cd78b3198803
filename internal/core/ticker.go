package core

import (
	"context"

	"github.com/riftcore/engine/internal/metrics"
	"github.com/riftcore/engine/internal/telemetry"
	"github.com/riftcore/engine/pkg/timestamp"
)

// AdvanceTime implements the recurring-tick driver's advance_time operation
// (spec.md §4.6). A no-op if delta <= 0 or no interval is configured.
// Otherwise the logical clock advances by delta, the per-tick offset resets
// to zero, and every tick whose fire time has been crossed is submitted via
// CallAt with player_id=0, offset=0 owned by convention for ticks.
func (cs *CoreState) AdvanceTime(ctx context.Context, delta int64) error {
	cs.mu.Lock()
	if delta <= 0 || cs.interval == 0 {
		cs.mu.Unlock()
		return nil
	}
	cs.assertOwnership()
	if err := cs.checkPoisoned(); err != nil {
		cs.mu.Unlock()
		return err
	}

	ctx, span := telemetry.StartSpan(ctx, "core.advance_time", cs.engineID, cs.j.Len())
	defer span.End()

	cs.currentTime += delta
	cs.tickOffset = 0
	cs.mu.Unlock()

	for {
		cs.mu.Lock()
		fire := cs.currentTime-cs.nextFireTime > cs.interval
		if !fire {
			cs.mu.Unlock()
			break
		}
		cs.nextFireTime += cs.interval
		ts := timestamp.Timestamp{Time: cs.nextFireTime, Offset: 0, PlayerID: 0}
		cs.tickOffset++
		fn := cs.tickFn
		cs.mu.Unlock()

		if err := cs.CallAt(ctx, ts, fn, nil); err != nil {
			return err
		}
		metrics.TicksFiredTotal.Inc()
	}
	return nil
}
