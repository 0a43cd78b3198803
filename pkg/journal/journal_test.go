package journal

import "testing"

func TestAppendAndLen(t *testing.T) {
	j := New()
	if j.Len() != 0 {
		t.Fatalf("expected empty journal, got len %d", j.Len())
	}
	j.Append(MemoryWrite(10, []byte{1, 2, 3}))
	j.Append(GlobalWrite(0, GlobalValue{Type: TypeI32, Bits: 7}))
	if j.Len() != 2 {
		t.Fatalf("expected len 2, got %d", j.Len())
	}
	if j.At(0).Kind != KindMemoryWrite {
		t.Errorf("expected KindMemoryWrite at 0")
	}
	if j.At(1).Kind != KindGlobalWrite {
		t.Errorf("expected KindGlobalWrite at 1")
	}
}

func TestTruncateTail(t *testing.T) {
	j := New()
	for i := 0; i < 5; i++ {
		j.Append(MemoryGrow(uint32(i)))
	}
	j.TruncateTail(2)
	if j.Len() != 2 {
		t.Fatalf("expected len 2 after truncate, got %d", j.Len())
	}
	if j.At(0).OldPageCount != 0 || j.At(1).OldPageCount != 1 {
		t.Errorf("unexpected surviving records: %+v %+v", j.At(0), j.At(1))
	}
}

func TestTruncateHead(t *testing.T) {
	j := New()
	for i := 0; i < 5; i++ {
		j.Append(MemoryGrow(uint32(i)))
	}
	j.TruncateHead(3)
	if j.Len() != 2 {
		t.Fatalf("expected len 2 after head truncate, got %d", j.Len())
	}
	if j.At(0).OldPageCount != 3 || j.At(1).OldPageCount != 4 {
		t.Errorf("unexpected surviving records: %+v %+v", j.At(0), j.At(1))
	}
}

func TestTruncateTailOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-range TruncateTail")
		}
	}()
	j := New()
	j.TruncateTail(1)
}

func TestReset(t *testing.T) {
	j := New()
	j.Append(MemoryGrow(1))
	j.Reset()
	if j.Len() != 0 {
		t.Fatalf("expected empty journal after Reset, got %d", j.Len())
	}
}
