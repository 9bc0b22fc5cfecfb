package mapeditor

import "time"

const DefaultHistorySize = 50

// Entry is one recorded snapshot.
type Entry struct {
	State     ViewState
	Action    string
	Timestamp time.Time
}

// EntrySummary describes an entry without its snapshot.
type EntrySummary struct {
	Index     int       `json:"index"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	Current   bool      `json:"current"`
}

// History is a linear undo log stored in a fixed-capacity ring.
//
// Logical index i (0 = oldest retained entry) lives at buf[(oldest+i)%cap].
// Invariant: 0 <= cursor < count <= cap. Undo and redo bounds are derived from
// the triple (oldest, cursor, count), never from len(buf).
//
// Every entry holds a full deep copy of the view state, so memory grows with
// capacity times city count. That is acceptable for maps of tens of cities.
type History struct {
	buf    []Entry
	oldest int
	count  int
	cursor int
	now    func() time.Time
}

// NewHistory starts a log whose first entry is initial. Capacity below one is raised to one.
func NewHistory(capacity int, initial ViewState, now func() time.Time) *History {
	if capacity < 1 {
		capacity = 1
	}
	if now == nil {
		now = time.Now
	}
	h := &History{
		buf: make([]Entry, capacity),
		now: now,
	}
	h.Reset(initial, "Initial state")
	return h
}

func (h *History) physical(logical int) int {
	return (h.oldest + logical) % len(h.buf)
}

// Reset drops every entry and starts over from state.
func (h *History) Reset(state ViewState, action string) {
	for i := range h.buf {
		h.buf[i] = Entry{}
	}
	h.oldest = 0
	h.buf[0] = Entry{State: state.Clone(), Action: action, Timestamp: h.now()}
	h.count = 1
	h.cursor = 0
}

// Record discards everything after the cursor, appends state and moves the
// cursor onto it. When the ring is full the oldest entry is evicted first.
func (h *History) Record(state ViewState, action string) {
	for i := h.cursor + 1; i < h.count; i++ {
		h.buf[h.physical(i)] = Entry{}
	}
	h.count = h.cursor + 1

	if h.count == len(h.buf) {
		h.buf[h.oldest] = Entry{}
		h.oldest = (h.oldest + 1) % len(h.buf)
		h.count--
	}

	h.buf[h.physical(h.count)] = Entry{State: state.Clone(), Action: action, Timestamp: h.now()}
	h.count++
	h.cursor = h.count - 1
}

// Undo steps back one entry. ok is false at the oldest retained entry.
func (h *History) Undo() (state ViewState, ok bool) {
	if !h.CanUndo() {
		return ViewState{}, false
	}
	h.cursor--
	return h.buf[h.physical(h.cursor)].State.Clone(), true
}

// Redo steps forward one entry. ok is false at the newest entry.
func (h *History) Redo() (state ViewState, ok bool) {
	if !h.CanRedo() {
		return ViewState{}, false
	}
	h.cursor++
	return h.buf[h.physical(h.cursor)].State.Clone(), true
}

func (h *History) CanUndo() bool { return h.cursor > 0 }

func (h *History) CanRedo() bool { return h.cursor < h.count-1 }

func (h *History) Len() int { return h.count }

func (h *History) Capacity() int { return len(h.buf) }

// Cursor is the logical index of the current entry.
func (h *History) Cursor() int { return h.cursor }

// Current returns a copy of the entry under the cursor.
func (h *History) Current() Entry {
	e := h.buf[h.physical(h.cursor)]
	e.State = e.State.Clone()
	return e
}

// Entries lists retained entries oldest first.
func (h *History) Entries() []EntrySummary {
	out := make([]EntrySummary, 0, h.count)
	for i := 0; i < h.count; i++ {
		e := h.buf[h.physical(i)]
		out = append(out, EntrySummary{
			Index:     i,
			Action:    e.Action,
			Timestamp: e.Timestamp,
			Current:   i == h.cursor,
		})
	}
	return out
}
