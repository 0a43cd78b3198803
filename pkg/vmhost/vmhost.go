// Package vmhost wraps the instrumented guest wasm module in a VM
// abstraction shaped like the one in justinclift-wagon's exec/vm.go: a
// struct owning linear memory, typed globals and the retained module image,
// able to be torn down and reinstantiated wholesale because the runtime
// (like wagon's, like wazero's) exposes no memory-shrink primitive.
//
// RiftCore treats the guest's linear memory as a HOST-PROVIDED import (the
// "imports bundle" of spec.md §4.4): the instrumented module imports
// "env.memory" rather than defining its own, exactly as the
// AssemblyScript/emscripten loader convention the source spec was distilled
// from. This is what makes memory swap-and-reinstantiate possible: the
// Rewinder builds a fresh host memory of the target page count, copies the
// surviving bytes into it, and reinstantiates both the host import module
// and the guest module against it (§4.4's "swaps it into imports bundle").
//
// Globals are modeled the same way the rewriter (§4.1) would plausibly
// expose them to a host with no ABI for "get global by index": the
// instrumented module re-exports every global under a synthetic name
// "__global<N>" so the host can address it by the spec's integer
// global_index without needing named exports per guest.
package vmhost

import (
	"context"
	"fmt"
	"math"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/riftcore/engine/pkg/journal"
)

// PageSize is the wasm linear memory page size in bytes, fixed at 65536
// (spec.md §4.4).
const PageSize = 65536

// globalExportName is the synthetic export name convention documented above.
func globalExportName(index uint32) string { return fmt.Sprintf("__global%d", index) }

// GuestView is the narrow read-only view of a guest instance that a
// HostCallbacks implementation needs to capture an UndoRecord before a
// mutation executes. *Instance satisfies it; tests may supply a fake
// instead of standing up a real wazero runtime.
type GuestView interface {
	ReadMemory(offset, length uint32) ([]byte, error)
	MemoryPages() uint32
	GetGlobal(index uint32) (journal.GlobalValue, error)
}

// HostCallbacks are invoked synchronously, before the guest's mutation
// executes, by the three instrumented-guest imports (spec.md §6). An
// implementation is expected to read the guest's current memory/globals to
// capture the pre-mutation value and append the resulting UndoRecord to a
// Journal; internal/hostimports provides the production implementation.
type HostCallbacks interface {
	OnStore(ctx context.Context, inst GuestView, location, size uint32)
	OnGrow(ctx context.Context, inst GuestView, deltaPages uint32)
	OnGlobalSet(ctx context.Context, inst GuestView, globalIndex uint32)
	ExternalLog(ctx context.Context, msg string)
	ExternalError(ctx context.Context, msg string)
}

// Module is a compiled instrumented guest, retained so the VM can be
// reinstantiated from scratch (spec.md §4.4's "the VM module image is
// retained for this purpose").
type Module struct {
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
	raw      []byte
}

// Compile parses and validates instrumentedWasm, retaining both the
// compiled form and the raw bytes for later reinstantiation.
func Compile(ctx context.Context, instrumentedWasm []byte) (*Module, error) {
	rt := wazero.NewRuntime(ctx)
	compiled, err := rt.CompileModule(ctx, instrumentedWasm)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("vmhost: compile instrumented guest: %w", err)
	}
	return &Module{runtime: rt, compiled: compiled, raw: instrumentedWasm}, nil
}

// Close releases the wazero runtime and every instance created from it.
func (m *Module) Close(ctx context.Context) error {
	return m.runtime.Close(ctx)
}

// Instance is a single instantiation of a Module: a host-provided memory,
// the guest module instance, and the host import module instance bound to
// it. Callers must not retain an *Instance across an operation that may
// rewind through a MemoryGrow undo (spec.md §3 Ownership), since
// ReinstantiateWithMemory replaces the underlying guest/host modules.
type Instance struct {
	module *Module
	cb     HostCallbacks

	hostMod  api.Module // the "env" host module instance (owns memory)
	guestMod api.Module // the instrumented guest instance

	initialPages uint32
	globalCount  uint32
}

// Instantiate creates a fresh Instance with a host-provided memory of
// initialPages pages and globalCount pre-exported typed globals.
func (m *Module) Instantiate(ctx context.Context, cb HostCallbacks, initialPages, globalCount uint32) (*Instance, error) {
	inst := &Instance{module: m, cb: cb, initialPages: initialPages, globalCount: globalCount}
	if err := inst.build(ctx, nil); err != nil {
		return nil, err
	}
	return inst, nil
}

// build instantiates the "env" host module (with seedMemory copied in, or a
// zeroed memory of initialPages if seedMemory is nil) followed by the guest
// module, wiring the five host imports (spec.md §6).
func (inst *Instance) build(ctx context.Context, seedMemory []byte) error {
	pages := inst.initialPages
	if seedMemory != nil {
		pages = uint32((len(seedMemory) + PageSize - 1) / PageSize)
		if pages < inst.initialPages {
			pages = inst.initialPages
		}
	}

	builder := inst.module.runtime.NewHostModuleBuilder("env").
		ExportMemory("memory", pages)

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, location, size uint32) {
			inst.cb.OnStore(ctx, inst, location, size)
		}).Export("on_store")

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, pages uint32) {
			inst.cb.OnGrow(ctx, inst, pages)
		}).Export("on_grow")

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, globalIndex uint32) {
			inst.cb.OnGlobalSet(ctx, inst, globalIndex)
		}).Export("on_global_set")

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, pointer, length uint32) {
			msg, _ := inst.readHostMemory(pointer, length)
			inst.cb.ExternalLog(ctx, string(msg))
		}).Export("external_log")

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, pointer, length uint32) {
			msg, _ := inst.readHostMemory(pointer, length)
			inst.cb.ExternalError(ctx, string(msg))
		}).Export("external_error")

	hostMod, err := builder.Instantiate(ctx)
	if err != nil {
		return fmt.Errorf("vmhost: instantiate host imports: %w", err)
	}

	if seedMemory != nil {
		if ok := hostMod.Memory().Write(0, seedMemory); !ok {
			_ = hostMod.Close(ctx)
			return fmt.Errorf("vmhost: seed memory write out of range (%d bytes)", len(seedMemory))
		}
	}

	guestMod, err := inst.module.runtime.InstantiateModule(ctx, inst.module.compiled, wazero.NewModuleConfig())
	if err != nil {
		_ = hostMod.Close(ctx)
		return fmt.Errorf("vmhost: instantiate guest: %w", err)
	}

	inst.hostMod = hostMod
	inst.guestMod = guestMod
	return nil
}

func (inst *Instance) readHostMemory(offset, length uint32) ([]byte, error) {
	b, ok := inst.hostMod.Memory().Read(offset, length)
	if !ok {
		return nil, fmt.Errorf("vmhost: memory read out of range [%d, %d)", offset, offset+length)
	}
	return b, nil
}

// ReadMemory returns a copy of length bytes starting at offset.
func (inst *Instance) ReadMemory(offset, length uint32) ([]byte, error) {
	b, err := inst.readHostMemory(offset, length)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

// WriteMemory overwrites length(data) bytes starting at offset.
func (inst *Instance) WriteMemory(offset uint32, data []byte) error {
	if ok := inst.hostMod.Memory().Write(offset, data); !ok {
		return fmt.Errorf("vmhost: memory write out of range [%d, %d)", offset, offset+uint32(len(data)))
	}
	return nil
}

// MemoryPages returns the current linear memory size in pages.
func (inst *Instance) MemoryPages() uint32 {
	return inst.hostMod.Memory().Size() / PageSize
}

// Grow grows linear memory by deltaPages, returning the previous page
// count. This is the forward-direction operation; undoing a grow requires
// ReinstantiateWithMemory because wasm (and wazero) exposes no shrink.
func (inst *Instance) Grow(deltaPages uint32) (previousPages uint32, err error) {
	prev, ok := inst.hostMod.Memory().Grow(deltaPages)
	if !ok {
		return 0, fmt.Errorf("vmhost: grow by %d pages failed", deltaPages)
	}
	return prev, nil
}

// ReinstantiateWithMemory tears down the current host+guest module
// instances and rebuilds them with a fresh memory seeded from memoryImage,
// implementing spec.md §4.4 step 2's MemoryGrow undo. Globals are restored
// by subsequent GlobalWrite undos applied by the caller in the same rewind
// sweep; this method does not touch globals.
func (inst *Instance) ReinstantiateWithMemory(ctx context.Context, memoryImage []byte) error {
	oldGuest, oldHost := inst.guestMod, inst.hostMod
	if err := inst.build(ctx, memoryImage); err != nil {
		return fmt.Errorf("vmhost: reinstantiate: %w", err)
	}
	if oldGuest != nil {
		_ = oldGuest.Close(ctx)
	}
	if oldHost != nil {
		_ = oldHost.Close(ctx)
	}
	return nil
}

// Call invokes the named guest export with args, returning its results.
// ErrMissingExport is returned (wrapped) if name is not exported, per
// spec.md §7 "Missing export".
func (inst *Instance) Call(ctx context.Context, name string, args ...uint64) ([]uint64, error) {
	fn := inst.guestMod.ExportedFunction(name)
	if fn == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingExport, name)
	}
	results, err := fn.Call(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrGuestTrap, name, err)
	}
	return results, nil
}

// HasExport reports whether name is an exported guest function.
func (inst *Instance) HasExport(name string) bool {
	return inst.guestMod.ExportedFunction(name) != nil
}

// GetGlobal reads the current value of the guest global indexed by index,
// tagged with its VM-level type.
func (inst *Instance) GetGlobal(index uint32) (journal.GlobalValue, error) {
	g := inst.guestMod.ExportedGlobal(globalExportName(index))
	if g == nil {
		return journal.GlobalValue{}, fmt.Errorf("vmhost: no such global index %d", index)
	}
	return journal.GlobalValue{Type: valueType(g.Type()), Bits: g.Get()}, nil
}

// SetGlobal restores the guest global indexed by index to v, validating
// that v's declared type matches the global's VM-level type before writing
// (spec.md §9's "implementations must carry the guest's declared type...
// and validate on restore").
func (inst *Instance) SetGlobal(index uint32, v journal.GlobalValue) error {
	g := inst.guestMod.ExportedGlobal(globalExportName(index))
	if g == nil {
		return fmt.Errorf("vmhost: no such global index %d", index)
	}
	mg, ok := g.(api.MutableGlobal)
	if !ok {
		return fmt.Errorf("vmhost: global index %d is not mutable", index)
	}
	if got := valueType(g.Type()); got != v.Type {
		return fmt.Errorf("%w: global %d is %v, undo record carries %v", ErrGlobalTypeMismatch, index, got, v.Type)
	}
	mg.Set(v.Bits)
	return nil
}

func valueType(t api.ValueType) journal.ValueType {
	switch t {
	case api.ValueTypeI32:
		return journal.TypeI32
	case api.ValueTypeI64:
		return journal.TypeI64
	case api.ValueTypeF32:
		return journal.TypeF32
	case api.ValueTypeF64:
		return journal.TypeF64
	default:
		return journal.TypeI64
	}
}

// Close releases both the guest and host module instances.
func (inst *Instance) Close(ctx context.Context) error {
	var err error
	if inst.guestMod != nil {
		err = inst.guestMod.Close(ctx)
	}
	if inst.hostMod != nil {
		if cerr := inst.hostMod.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// f32bits and f64bits help callers build GlobalValue literals from typed
// Go values in tests and host-import code without duplicating math.Float
// encoding everywhere.
func f32bits(v float32) uint64 { return uint64(math.Float32bits(v)) }
func f64bits(v float64) uint64 { return math.Float64bits(v) }

// NewI32 constructs a typed GlobalValue from an int32.
func NewI32(v int32) journal.GlobalValue { return journal.GlobalValue{Type: journal.TypeI32, Bits: uint64(uint32(v))} }

// NewI64 constructs a typed GlobalValue from an int64.
func NewI64(v int64) journal.GlobalValue { return journal.GlobalValue{Type: journal.TypeI64, Bits: uint64(v)} }

// NewF32 constructs a typed GlobalValue from a float32.
func NewF32(v float32) journal.GlobalValue { return journal.GlobalValue{Type: journal.TypeF32, Bits: f32bits(v)} }

// NewF64 constructs a typed GlobalValue from a float64.
func NewF64(v float64) journal.GlobalValue { return journal.GlobalValue{Type: journal.TypeF64, Bits: f64bits(v)} }
