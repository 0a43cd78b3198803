// Package core implements the deterministic time-travel engine: CoreState
// owns the instrumented VM, the Journal and the Call Log, and exposes the
// Timeline Scheduler, Rewinder, recurring-tick driver, reset and history
// compaction operations (spec.md §4).
//
// The package is the generalisation of justinclift-wagon's exec/vm.go
// instruction-stepping loop into an undo-aware scheduler: instead of a
// single forward execution, CoreState can roll the VM back to any journal
// length and replay forward, which is the mechanism spec.md §4.5 calls the
// Timeline Scheduler.
package core

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/atomic"

	"github.com/riftcore/engine/internal/logging"
	"github.com/riftcore/engine/internal/metrics"
	"github.com/riftcore/engine/internal/telemetry"
	"github.com/riftcore/engine/internal/util"
	"github.com/riftcore/engine/pkg/calllog"
	"github.com/riftcore/engine/pkg/journal"
	"github.com/riftcore/engine/pkg/timestamp"
	"github.com/riftcore/engine/pkg/vmhost"
)

// VM is the narrow surface CoreState needs from a guest instance. Both
// *vmhost.Instance and test-only fakes satisfy it, so the scheduling
// algorithm can be exercised without a real wazero runtime or hand-authored
// wasm bytecode.
type VM interface {
	Call(ctx context.Context, name string, args ...uint64) ([]uint64, error)
	HasExport(name string) bool

	GetGlobal(index uint32) (journal.GlobalValue, error)
	SetGlobal(index uint32, v journal.GlobalValue) error

	ReadMemory(offset, length uint32) ([]byte, error)
	WriteMemory(offset uint32, data []byte) error
	MemoryPages() uint32
	Grow(deltaPages uint32) (previousPages uint32, err error)

	ReinstantiateWithMemory(ctx context.Context, memoryImage []byte) error
	Close(ctx context.Context) error
}

// *vmhost.Instance is the production VM; outside this assertion,
// internal/core uses pkg/vmhost only for PageSize, its error sentinels and
// Bootstrap's compile/instantiate pipeline.
var _ VM = (*vmhost.Instance)(nil)

// TickConfig configures the recurring-tick driver (spec.md §4.6).
type TickConfig struct {
	Interval         int64
	NextFireTime     int64
	TickFunctionName string
}

// CoreState is the engine. It exclusively owns the VM, the Journal and the
// Call Log (spec.md §3); a single owning goroutine must drive every
// operation (spec.md §5).
type CoreState struct {
	mu sync.Mutex

	vm  VM
	j   *journal.Journal
	log *calllog.CallLog

	currentTime  int64
	tickOffset   int64
	nextFireTime int64
	interval     int64
	tickFn       string

	rejectOutOfOrder bool
	lastOffsetByPeer map[peerKey]int64

	poisoned atomic.Bool

	engineID       string
	ownerGoroutine uint64
}

// Setup constructs a CoreState around vm, an already-instantiated VM, and j,
// the same Journal that vm's host callbacks append to (e.g. the one backing
// an internal/hostimports.Recorder wired into vm at instantiation time).
// Setup failure (spec.md §7) is mostly the caller's responsibility: Setup
// itself does not instantiate the VM, so the only failures this function
// can itself report are a nil VM or Journal and a failure to generate the
// engine ID.
func Setup(vm VM, j *journal.Journal, tick TickConfig, rejectOutOfOrder bool) (*CoreState, error) {
	if vm == nil {
		return nil, fmt.Errorf("%w: nil VM instance", ErrSetupFailed)
	}
	if j == nil {
		return nil, fmt.Errorf("%w: nil Journal", ErrSetupFailed)
	}
	id, err := util.New()
	if err != nil {
		return nil, fmt.Errorf("%w: engine id generation: %v", ErrSetupFailed, err)
	}
	cs := &CoreState{
		vm:               vm,
		j:                j,
		log:              calllog.New(),
		nextFireTime:     tick.NextFireTime,
		interval:         tick.Interval,
		tickFn:           tick.TickFunctionName,
		rejectOutOfOrder: rejectOutOfOrder,
		lastOffsetByPeer: make(map[peerKey]int64),
		engineID:         id,
		ownerGoroutine:   telemetry.GoroutineID(),
	}
	metrics.Register()
	logging.Sugar().Infow("core: engine constructed", "engine_id", id)
	return cs, nil
}

// assertOwnership panics if called from a goroutine other than the one that
// constructed the CoreState (spec.md §5's single-owning-task invariant). A
// violation is an engine bug, not a recoverable condition, per spec.md §7's
// "assertion failures indicate an engine bug".
func (cs *CoreState) assertOwnership() {
	if got := telemetry.GoroutineID(); got != 0 && cs.ownerGoroutine != 0 && got != cs.ownerGoroutine {
		panic(fmt.Sprintf("core: CoreState accessed from goroutine %d, owned by goroutine %d", got, cs.ownerGoroutine))
	}
}

// checkPoisoned returns ErrPoisoned if a prior fatal rewind failure has
// disabled the engine.
func (cs *CoreState) checkPoisoned() error {
	if cs.poisoned.Load() {
		return ErrPoisoned
	}
	return nil
}

// EngineID returns the ULID identifying this engine instance, used to tag
// telemetry spans and log lines.
func (cs *CoreState) EngineID() string { return cs.engineID }

// JournalLen returns the current Journal length.
func (cs *CoreState) JournalLen() int { return cs.j.Len() }

// CallLogLen returns the current Call Log length.
func (cs *CoreState) CallLogLen() int { return cs.log.Len() }

// CallLogEntries returns a copy of the Call Log, for inspection (used by
// internal/core's tests).
func (cs *CoreState) CallLogEntries() []calllog.Entry {
	src := cs.log.All()
	out := make([]calllog.Entry, len(src))
	copy(out, src)
	return out
}

// CurrentTime returns the engine's logical clock.
func (cs *CoreState) CurrentTime() int64 { return cs.currentTime }

// NextFireTime returns the next scheduled recurring-tick time.
func (cs *CoreState) NextFireTime() int64 { return cs.nextFireTime }

// Poisoned reports whether the engine has been fatally disabled.
func (cs *CoreState) Poisoned() bool { return cs.poisoned.Load() }

// Close releases the underlying VM.
func (cs *CoreState) Close(ctx context.Context) error {
	return cs.vm.Close(ctx)
}

func (cs *CoreState) updateMetrics() {
	metrics.UpdateGauges(cs.j.Len(), cs.log.Len(), cs.poisoned.Load())
}

// peerKey identifies a single peer within a single time tick for the
// monotonicity check of spec.md §4.5/§4.6: offset is only meaningful within
// one (time, player_id) pair and resets across ticks, so both fields must
// participate in the map key, not player_id alone.
type peerKey struct {
	Time     int64
	PlayerID int64
}

func keyOf(ts timestamp.Timestamp) peerKey {
	return peerKey{Time: ts.Time, PlayerID: ts.PlayerID}
}
