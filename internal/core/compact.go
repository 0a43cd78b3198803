package core

// ForgetBefore implements history compaction (spec.md §4.8): find the
// smallest k such that log[k].Timestamp >= t, drop log[0..k), and truncate
// the Journal's head to log[k].JournalLengthBefore (if k > 0). All earlier
// UndoRecords become unreachable by any surviving log entry and are safe to
// drop. The embedder must choose t so that no later insert targets a time
// below it; ForgetBefore itself does not validate that. It does not check
// whether the engine is poisoned and runs the same way on a poisoned engine.
func (cs *CoreState) ForgetBefore(t int64) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.assertOwnership()

	entries := cs.log.All()
	k := len(entries)
	for i, e := range entries {
		if e.Timestamp.Time >= t {
			k = i
			break
		}
	}
	if k == 0 {
		return
	}

	var headLen int
	if k < len(entries) {
		headLen = entries[k].JournalLengthBefore
	} else {
		headLen = cs.j.Len()
	}

	cs.log.RemovePrefix(k)
	cs.j.TruncateHead(headLen)

	for i := 0; i < cs.log.Len(); i++ {
		e := cs.log.At(i)
		e.JournalLengthBefore -= headLen
		cs.log.Set(i, e)
	}

	cs.updateMetrics()
}
