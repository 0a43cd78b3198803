// Package calllog implements the ordered sequence of externally submitted
// guest invocations that the Timeline Scheduler inserts into, rewinds
// against, and replays from.
//
// Invariants (spec.md §4.3): the log is sorted strictly ascending by
// Timestamp; JournalLengthBefore values are non-decreasing along the log
// and equal the cumulative count of UndoRecords produced by all earlier
// entries.
package calllog

import (
	"sort"

	"github.com/riftcore/engine/pkg/timestamp"
)

// binarySearchThreshold is the log length above which FindInsertionIndex
// switches from a tail scan to sort.Search, per spec.md §4.3's guidance
// that typical inserts are near the tail but large logs should binary
// search.
const binarySearchThreshold = 64

// Entry is one externally submitted guest invocation.
type Entry struct {
	Name                string
	Args                []uint64
	JournalLengthBefore int
	Timestamp           timestamp.Timestamp
}

// CallLog is the ordered, strictly-ascending-by-timestamp sequence of
// Entries. Not safe for concurrent use; exclusively owned by a CoreState.
type CallLog struct {
	entries []Entry
}

// New returns an empty CallLog.
func New() *CallLog { return &CallLog{} }

// Len returns the number of entries.
func (c *CallLog) Len() int { return len(c.entries) }

// At returns the entry at index i.
func (c *CallLog) At(i int) Entry { return c.entries[i] }

// Set overwrites the entry at index i, used by the Scheduler's replay loop
// to update JournalLengthBefore in place (spec.md §4.5 step 5).
func (c *CallLog) Set(i int, e Entry) { c.entries[i] = e }

// All returns the entries in order. The returned slice aliases internal
// storage and must not be mutated by callers that do not own the CallLog.
func (c *CallLog) All() []Entry { return c.entries }

// FindInsertionIndex returns the smallest i such that entries[i].Timestamp
// is strictly greater than ts, or Len() if no such entry exists.
func (c *CallLog) FindInsertionIndex(ts timestamp.Timestamp) int {
	n := len(c.entries)
	if n <= binarySearchThreshold {
		for i := n - 1; i >= 0; i-- {
			if !timestamp.Less(ts, c.entries[i].Timestamp) {
				return i + 1
			}
		}
		return 0
	}
	return sort.Search(n, func(i int) bool {
		return timestamp.Less(ts, c.entries[i].Timestamp)
	})
}

// InsertAt shifts entries at [i, Len()) right by one and stores e at i.
func (c *CallLog) InsertAt(i int, e Entry) {
	if i < 0 || i > len(c.entries) {
		panic("calllog: InsertAt out of range")
	}
	c.entries = append(c.entries, Entry{})
	copy(c.entries[i+1:], c.entries[i:])
	c.entries[i] = e
}

// RemovePrefix drops the first k entries, used by history compaction
// (spec.md §4.8).
func (c *CallLog) RemovePrefix(k int) {
	if k < 0 || k > len(c.entries) {
		panic("calllog: RemovePrefix out of range")
	}
	if k == 0 {
		return
	}
	c.entries = append(c.entries[:0], c.entries[k:]...)
}

// Reset discards all entries, used by CoreState.Reset (spec.md §4.7).
func (c *CallLog) Reset() { c.entries = c.entries[:0] }

// Truncate drops every entry at index >= i, keeping entries[:i]. Used by the
// Scheduler to undo a partial insert when restoring the log to a known-good
// suffix after a guest trap.
func (c *CallLog) Truncate(i int) {
	if i < 0 || i > len(c.entries) {
		panic("calllog: Truncate out of range")
	}
	c.entries = c.entries[:i]
}
