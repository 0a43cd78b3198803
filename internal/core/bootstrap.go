package core

import (
	"context"
	"fmt"

	"github.com/riftcore/engine/internal/hostimports"
	"github.com/riftcore/engine/pkg/journal"
	"github.com/riftcore/engine/pkg/rewriter"
	"github.com/riftcore/engine/pkg/vmhost"
)

// BootstrapOptions configures the full guest-to-engine pipeline.
type BootstrapOptions struct {
	InitialPages     uint32
	GlobalCount      uint32
	Tick             TickConfig
	RejectOutOfOrder bool
}

// Bootstrap implements the supplemented Setup(ctx, guestWasm, imports)
// operation: it compiles rewriterWasm, drives its ABI to instrument
// guestWasm, compiles and instantiates the instrumented guest against a
// fresh internal/hostimports.Recorder, and constructs a zero-state
// CoreState (empty Journal, empty Call Log, current_time=0).
//
// Setup failure (spec.md §7) at any stage here is surfaced to the caller
// and the engine is not constructed.
func Bootstrap(ctx context.Context, rewriterWasm, guestWasm []byte, opts BootstrapOptions) (*CoreState, error) {
	rw, err := rewriter.New(ctx, rewriterWasm)
	if err != nil {
		return nil, fmt.Errorf("%w: rewriter service: %v", ErrSetupFailed, err)
	}
	defer rw.Close(ctx)

	instrumented, err := rw.Rewrite(ctx, guestWasm)
	if err != nil {
		return nil, fmt.Errorf("%w: instrument guest: %v", ErrSetupFailed, err)
	}

	module, err := vmhost.Compile(ctx, instrumented)
	if err != nil {
		return nil, fmt.Errorf("%w: compile instrumented guest: %v", ErrSetupFailed, err)
	}

	j := journal.New()
	rec := &hostimports.Recorder{J: j}

	inst, err := module.Instantiate(ctx, rec, opts.InitialPages, opts.GlobalCount)
	if err != nil {
		_ = module.Close(ctx)
		return nil, fmt.Errorf("%w: instantiate guest: %v", ErrSetupFailed, err)
	}

	return Setup(inst, j, opts.Tick, opts.RejectOutOfOrder)
}

// Snapshot returns a read-only view of the VM's current linear memory and
// typed globals, without mutating any engine state. Nothing in this
// repository calls it; it is exposed for embedders.
func (cs *CoreState) Snapshot(globalCount uint32) (memory []byte, globals []journal.GlobalValue, err error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.assertOwnership()

	if err := cs.checkPoisoned(); err != nil {
		return nil, nil, err
	}

	mem, err := cs.vm.ReadMemory(0, cs.vm.MemoryPages()*vmhost.PageSize)
	if err != nil {
		return nil, nil, fmt.Errorf("core: snapshot memory: %w", err)
	}

	globals = make([]journal.GlobalValue, globalCount)
	for i := uint32(0); i < globalCount; i++ {
		v, err := cs.vm.GetGlobal(i)
		if err != nil {
			return nil, nil, fmt.Errorf("core: snapshot global %d: %w", i, err)
		}
		globals[i] = v
	}
	return mem, globals, nil
}
