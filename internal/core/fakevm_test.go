package core

import (
	"context"
	"fmt"

	"github.com/riftcore/engine/pkg/journal"
)

// fakeVM is a minimal, deterministic VM double used to exercise the
// Scheduler, Rewinder, ticker, reset and compaction algorithms without a
// real wazero runtime. It models a single i32 global g0, a byte-addressable
// memory, and four exports:
//   - "inc": g0 += 1
//   - "tick": g0 += 1
//   - "alloc": grows memory by one page and writes 0xAB at the old memory
//     boundary
//   - "noop": does nothing
//
// Every mutation is journaled by hand, the same way internal/hostimports
// would via the instrumented callbacks, so fakeVM doubles as a stand-in for
// "instrumented guest + host callbacks" together.
type fakeVM struct {
	j *journal.Journal

	mem     []byte
	globals map[uint32]journal.GlobalValue

	traps map[string]bool // export name -> trap once on next call, then cleared
}

func newFakeVM(j *journal.Journal, initialPages int) *fakeVM {
	return &fakeVM{
		j:       j,
		mem:     make([]byte, initialPages*65536),
		globals: map[uint32]journal.GlobalValue{0: {Type: journal.TypeI32, Bits: 0}},
		traps:   make(map[string]bool),
	}
}

func (f *fakeVM) HasExport(name string) bool {
	switch name {
	case "inc", "tick", "alloc", "noop":
		return true
	default:
		return false
	}
}

func (f *fakeVM) Call(ctx context.Context, name string, args ...uint64) ([]uint64, error) {
	if f.traps[name] {
		delete(f.traps, name) // a guest trap is a one-off event, not a permanently broken export
		return nil, fmt.Errorf("fakevm: forced trap in %s", name)
	}
	switch name {
	case "inc", "tick":
		old, _ := f.GetGlobal(0)
		f.j.Append(journal.GlobalWrite(0, old))
		f.globals[0] = journal.GlobalValue{Type: journal.TypeI32, Bits: old.Bits + 1}
		return nil, nil
	case "alloc":
		oldPages := f.MemoryPages()
		f.j.Append(journal.MemoryGrow(oldPages))
		f.mem = append(f.mem, make([]byte, 65536)...)
		loc := oldPages * 65536
		old, _ := f.ReadMemory(loc, 1)
		f.j.Append(journal.MemoryWrite(loc, old))
		f.mem[loc] = 0xAB
		return nil, nil
	case "noop":
		return nil, nil
	default:
		return nil, fmt.Errorf("fakevm: no such export %s", name)
	}
}

func (f *fakeVM) GetGlobal(index uint32) (journal.GlobalValue, error) {
	v, ok := f.globals[index]
	if !ok {
		return journal.GlobalValue{}, fmt.Errorf("fakevm: no such global %d", index)
	}
	return v, nil
}

func (f *fakeVM) SetGlobal(index uint32, v journal.GlobalValue) error {
	f.globals[index] = v
	return nil
}

func (f *fakeVM) ReadMemory(offset, length uint32) ([]byte, error) {
	if int(offset+length) > len(f.mem) {
		return nil, fmt.Errorf("fakevm: read out of range [%d,%d)", offset, offset+length)
	}
	return append([]byte(nil), f.mem[offset:offset+length]...), nil
}

func (f *fakeVM) WriteMemory(offset uint32, data []byte) error {
	if int(offset)+len(data) > len(f.mem) {
		return fmt.Errorf("fakevm: write out of range")
	}
	copy(f.mem[offset:], data)
	return nil
}

func (f *fakeVM) MemoryPages() uint32 { return uint32(len(f.mem) / 65536) }

func (f *fakeVM) Grow(deltaPages uint32) (uint32, error) {
	prev := f.MemoryPages()
	f.mem = append(f.mem, make([]byte, int(deltaPages)*65536)...)
	return prev, nil
}

func (f *fakeVM) ReinstantiateWithMemory(ctx context.Context, memoryImage []byte) error {
	if f.traps["__reinstantiate"] {
		return fmt.Errorf("fakevm: forced reinstantiate failure")
	}
	pages := (len(memoryImage) + 65535) / 65536
	if pages < 1 {
		pages = 1
	}
	f.mem = make([]byte, pages*65536)
	copy(f.mem, memoryImage)
	return nil
}

func (f *fakeVM) Close(ctx context.Context) error { return nil }
