// Package journal implements the append-only log of undo records that lets
// the engine roll the guest VM back to any previously observed state.
//
// The only mutations permitted on a Journal are (a) append on the tail
// during guest execution, (b) truncation of the tail by the Rewinder to a
// prior length, and (c) truncation of the head by history compaction.
// Applying the records from index k to Len() in reverse to the current VM
// state must yield a VM state bit-identical to the state that existed when
// the record at index k was about to be appended; callers, not the
// Journal, are responsible for actually applying the undo.
package journal

// Kind tags which variant an UndoRecord carries.
type Kind int

const (
	// KindMemoryWrite captures bytes overwritten by a linear-memory store.
	KindMemoryWrite Kind = iota
	// KindMemoryGrow captures the page count before a memory grow.
	KindMemoryGrow
	// KindGlobalWrite captures a typed global's value before it is overwritten.
	KindGlobalWrite
)

// ValueType tags the VM-level type a GlobalValue carries, so restoration is
// type-exact rather than trusting an untagged scalar (spec.md §9).
type ValueType int

const (
	TypeI32 ValueType = iota
	TypeI64
	TypeF32
	TypeF64
)

// GlobalValue is a typed scalar carrying a guest global's full VM-level
// type alongside its bits.
type GlobalValue struct {
	Type ValueType
	Bits uint64 // raw bit pattern; float values are math.Float{32,64}bits-encoded
}

// UndoRecord is a tagged variant with three cases, mirroring spec.md §3.
type UndoRecord struct {
	Kind Kind

	// MemoryWrite fields.
	Location uint32
	OldBytes []byte

	// MemoryGrow fields.
	OldPageCount uint32

	// GlobalWrite fields.
	GlobalIndex uint32
	OldValue    GlobalValue
}

// MemoryWrite constructs an UndoRecord for a store of len(oldBytes) bytes at
// location, captured just before the store executes.
func MemoryWrite(location uint32, oldBytes []byte) UndoRecord {
	return UndoRecord{Kind: KindMemoryWrite, Location: location, OldBytes: oldBytes}
}

// MemoryGrow constructs an UndoRecord captured just before linear memory is
// grown, recording the page count it is grown from.
func MemoryGrow(oldPageCount uint32) UndoRecord {
	return UndoRecord{Kind: KindMemoryGrow, OldPageCount: oldPageCount}
}

// GlobalWrite constructs an UndoRecord captured just before a typed global
// is overwritten.
func GlobalWrite(index uint32, old GlobalValue) UndoRecord {
	return UndoRecord{Kind: KindGlobalWrite, GlobalIndex: index, OldValue: old}
}

// Journal is an ordered, append-mostly sequence of UndoRecords.
//
// Journal is not safe for concurrent use; it is exclusively owned by a
// CoreState and borrowed mutably during scheduling operations (spec.md §3).
type Journal struct {
	records []UndoRecord
}

// New returns an empty Journal.
func New() *Journal { return &Journal{} }

// Append adds a record to the tail. O(1) amortized.
func (j *Journal) Append(r UndoRecord) { j.records = append(j.records, r) }

// Len returns the current number of records.
func (j *Journal) Len() int { return len(j.records) }

// At returns the record at index i. Panics if i is out of range, signalling
// an engine bug per spec.md §7.
func (j *Journal) At(i int) UndoRecord { return j.records[i] }

// TruncateTail discards records at indices [newLen, Len()). The caller is
// responsible for first applying those records in reverse to the VM; the
// Journal performs no VM interaction itself. O(removed).
func (j *Journal) TruncateTail(newLen int) {
	if newLen < 0 || newLen > len(j.records) {
		panic("journal: TruncateTail out of range")
	}
	// Drop references so undo byte slices can be collected.
	for i := newLen; i < len(j.records); i++ {
		j.records[i] = UndoRecord{}
	}
	j.records = j.records[:newLen]
}

// TruncateHead discards records [0, newHead) without touching the VM. It
// must be called only when the caller can prove those records will never
// be reapplied (history compaction, spec.md §4.8).
func (j *Journal) TruncateHead(newHead int) {
	if newHead < 0 || newHead > len(j.records) {
		panic("journal: TruncateHead out of range")
	}
	if newHead == 0 {
		return
	}
	j.records = append(j.records[:0], j.records[newHead:]...)
}

// Reset discards all records, used by CoreState.Reset (spec.md §4.7).
func (j *Journal) Reset() { j.records = j.records[:0] }
