package scenario

import (
	"context"
	"testing"

	"github.com/riftcore/engine/internal/core"
	"github.com/riftcore/engine/pkg/journal"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tr := Trace{Records: []Record{
		{Op: OpCallAt, Time: 1, Name: "inc"},
		{Op: OpAdvanceTime, Delta: 10},
	}}

	enc, err := Encode(tr)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(enc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got.Records) != 2 {
		t.Fatalf("decoded %d records, want 2", len(got.Records))
	}
	if got.Records[0].Op != OpCallAt || got.Records[0].Name != "inc" {
		t.Errorf("unexpected first record: %+v", got.Records[0])
	}
	if got.Records[1].Delta != 10 {
		t.Errorf("unexpected second record delta: %+v", got.Records[1])
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte("not gzip")); err == nil {
		t.Fatal("expected error decoding non-gzip data")
	}
}

// fakeVM mirrors internal/core's own test double, kept package-local so
// internal/scenario can exercise Run without importing internal/core's
// _test.go helpers (which are unexported and test-only).
type fakeVM struct {
	g0 uint64
}

func (f *fakeVM) HasExport(name string) bool { return name == "inc" }
func (f *fakeVM) Call(ctx context.Context, name string, args ...uint64) ([]uint64, error) {
	f.g0++
	return nil, nil
}
func (f *fakeVM) GetGlobal(index uint32) (journal.GlobalValue, error) {
	return journal.GlobalValue{Type: journal.TypeI32, Bits: f.g0}, nil
}
func (f *fakeVM) SetGlobal(index uint32, v journal.GlobalValue) error { f.g0 = v.Bits; return nil }
func (f *fakeVM) ReadMemory(offset, length uint32) ([]byte, error)   { return make([]byte, length), nil }
func (f *fakeVM) WriteMemory(offset uint32, data []byte) error       { return nil }
func (f *fakeVM) MemoryPages() uint32                                { return 1 }
func (f *fakeVM) Grow(delta uint32) (uint32, error)                  { return 1, nil }
func (f *fakeVM) ReinstantiateWithMemory(ctx context.Context, image []byte) error {
	return nil
}
func (f *fakeVM) Close(ctx context.Context) error { return nil }

func TestRunAppliesCallAtRecords(t *testing.T) {
	j := journal.New()
	vm := &fakeVM{}
	cs, err := core.Setup(vm, j, core.TickConfig{}, true)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	tr := Trace{Records: []Record{
		{Op: OpCallAt, Time: 1, Offset: 0, Name: "inc"},
		{Op: OpCallAt, Time: 2, Offset: 1, Name: "inc"},
	}}
	if err := Run(context.Background(), cs, tr); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if vm.g0 != 2 {
		t.Errorf("g0 = %d, want 2", vm.g0)
	}
	if cs.CallLogLen() != 2 {
		t.Errorf("call log length = %d, want 2", cs.CallLogLen())
	}
}
