package calllog

import (
	"testing"

	"github.com/riftcore/engine/pkg/timestamp"
)

func ts(t, p, o int64) timestamp.Timestamp {
	return timestamp.Timestamp{Time: t, PlayerID: p, Offset: o}
}

func TestFindInsertionIndexEmptyLog(t *testing.T) {
	c := New()
	if i := c.FindInsertionIndex(ts(1, 0, 0)); i != 0 {
		t.Fatalf("expected 0, got %d", i)
	}
}

func TestInsertAtAndFindInsertionIndex(t *testing.T) {
	c := New()
	c.InsertAt(0, Entry{Name: "a", Timestamp: ts(1, 0, 0)})
	c.InsertAt(1, Entry{Name: "b", Timestamp: ts(3, 0, 0)})

	// Insertion point for ts=2 is between the two existing entries.
	if i := c.FindInsertionIndex(ts(2, 0, 0)); i != 1 {
		t.Fatalf("expected insertion index 1, got %d", i)
	}
	c.InsertAt(1, Entry{Name: "c", Timestamp: ts(2, 0, 0)})

	want := []string{"a", "c", "b"}
	for i, name := range want {
		if c.At(i).Name != name {
			t.Errorf("index %d: got %s, want %s", i, c.At(i).Name, name)
		}
	}
}

func TestFindInsertionIndexAboveBinarySearchThreshold(t *testing.T) {
	c := New()
	for i := 0; i < binarySearchThreshold+10; i++ {
		c.InsertAt(c.Len(), Entry{Timestamp: ts(int64(i*2), 0, 0)})
	}
	// Insertion point for an odd time falls strictly between two entries.
	idx := c.FindInsertionIndex(ts(5, 0, 0))
	if idx != 3 {
		t.Fatalf("expected insertion index 3, got %d", idx)
	}
}

func TestRemovePrefix(t *testing.T) {
	c := New()
	for i := 1; i <= 5; i++ {
		c.InsertAt(c.Len(), Entry{Timestamp: ts(int64(i), 0, 0), JournalLengthBefore: i})
	}
	c.RemovePrefix(2)
	if c.Len() != 3 {
		t.Fatalf("expected len 3, got %d", c.Len())
	}
	if c.At(0).Timestamp.Time != 3 {
		t.Errorf("expected first surviving entry at time 3, got %d", c.At(0).Timestamp.Time)
	}
}

func TestSetUpdatesInPlace(t *testing.T) {
	c := New()
	c.InsertAt(0, Entry{Name: "a"})
	c.Set(0, Entry{Name: "a", JournalLengthBefore: 42})
	if c.At(0).JournalLengthBefore != 42 {
		t.Fatalf("expected JournalLengthBefore 42, got %d", c.At(0).JournalLengthBefore)
	}
}
