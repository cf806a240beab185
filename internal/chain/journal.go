package chain

// journal is an undo log. Every state change appends the closure that reverses
// it, and reverting to a snapshot replays those closures newest first.
type journal struct {
	entries []func()
}

func (j *journal) append(undo func()) {
	j.entries = append(j.entries, undo)
}

func (j *journal) snapshot() int {
	return len(j.entries)
}

func (j *journal) revertTo(id int) {
	for i := len(j.entries) - 1; i >= id; i-- {
		j.entries[i]()
		j.entries[i] = nil
	}
	j.entries = j.entries[:id]
}

func (j *journal) reset() {
	j.entries = j.entries[:0]
}
