// Package tui provides a Bubble Tea terminal UI for the options picker.
package tui

// History is a fixed-size ring of submitted input lines, navigated with a
// cursor from newest to oldest.
type History struct {
	buf    []string
	start  int // index of the oldest entry in buf
	n      int
	cursor int // -1 = not navigating, else 0 (oldest) .. n-1 (newest)
}

// NewHistory creates a ring holding at most size lines.
func NewHistory(size int) *History {
	if size < 1 {
		size = 1
	}
	return &History{buf: make([]string, size), cursor: -1}
}

// Len returns the number of stored lines.
func (h *History) Len() int { return h.n }

func (h *History) at(i int) string {
	return h.buf[(h.start+i)%len(h.buf)]
}

// Push records a line, overwriting the oldest one when full. A line equal
// to the newest entry is skipped.
func (h *History) Push(line string) {
	if h.n > 0 && h.at(h.n-1) == line {
		return
	}
	if h.n < len(h.buf) {
		h.buf[(h.start+h.n)%len(h.buf)] = line
		h.n++
		return
	}
	h.buf[h.start] = line
	h.start = (h.start + 1) % len(h.buf)
}

// Prev moves toward older lines and stops at the oldest.
func (h *History) Prev() (string, bool) {
	if h.n == 0 {
		return "", false
	}
	switch {
	case h.cursor == -1:
		h.cursor = h.n - 1
	case h.cursor > 0:
		h.cursor--
	}
	return h.at(h.cursor), true
}

// Next moves toward newer lines. Stepping past the newest returns false
// and leaves navigation.
func (h *History) Next() (string, bool) {
	if h.cursor == -1 {
		return "", false
	}
	h.cursor++
	if h.cursor >= h.n {
		h.cursor = -1
		return "", false
	}
	return h.at(h.cursor), true
}

// ResetCursor leaves navigation.
func (h *History) ResetCursor() {
	h.cursor = -1
}
