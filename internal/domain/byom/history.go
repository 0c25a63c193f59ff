package byom

// History is a linear undo stack of configuration snapshots.
// Redo is not supported: committing after an undo discards the undone entries.
type History struct {
	entries []Configuration
	index   int
}

// NewHistory starts a history holding the initial snapshot at index 0
func NewHistory(initial Configuration) *History {
	return &History{
		entries: []Configuration{initial.Clone()},
		index:   0,
	}
}

// Commit truncates entries after the current index and appends the snapshot
func (h *History) Commit(snapshot Configuration) {
	h.entries = append(h.entries[:h.index+1], snapshot.Clone())
	h.index = len(h.entries) - 1
}

// Undo steps back one entry and returns it. At index 0 it returns false.
func (h *History) Undo() (Configuration, bool) {
	if h.index == 0 {
		return Configuration{}, false
	}
	h.index--
	return h.entries[h.index].Clone(), true
}

// Current returns a copy of the snapshot at the current index
func (h *History) Current() Configuration {
	return h.entries[h.index].Clone()
}

// Index returns the current position
func (h *History) Index() int {
	return h.index
}

// Len returns the number of retained entries
func (h *History) Len() int {
	return len(h.entries)
}

// CanUndo reports whether Undo would move
func (h *History) CanUndo() bool {
	return h.index > 0
}
