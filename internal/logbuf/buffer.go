package logbuf

import (
	"errors"
	"strings"
	"sync"

	"github.com/tshepang/rustic/internal/ansi"
)

// Buffer errors.
var (
	// ErrInvalidRange is returned when a narrow range is out of bounds.
	ErrInvalidRange = errors.New("invalid narrow range")
)

// Change describes a mutation of the buffer. End < Start only happens when
// a carriage-return collapse removed more than the append added.
type Change struct {
	// Start is the buffer length before the mutation.
	Start int
	// End is the buffer length after the mutation.
	End int
}

// Buffer is the growing session log. Content is an ordered sequence of
// styled runs; insertion is always at the end, and adjacent runs with
// equal style are coalesced so the run sequence depends only on the byte
// stream, not on how it was chunked.
//
// Buffer is safe for concurrent use.
type Buffer struct {
	mu   sync.RWMutex
	runs []ansi.Run
	size int

	cursor int
	clip   *clipRegion
}

// clipRegion is an active narrow window, half-open byte range.
type clipRegion struct {
	start, end int
}

// New creates an empty buffer.
func New() *Buffer {
	return &Buffer{}
}

// Append inserts runs after the last previously written byte, preserving
// the cursor and any active narrow window across the insertion.
func (b *Buffer) Append(runs []ansi.Run) Change {
	b.mu.Lock()
	defer b.mu.Unlock()

	old := b.size
	for _, r := range runs {
		b.appendLocked(r)
	}

	// A narrow window ending at the old buffer end follows the insertion;
	// otherwise restoring it unchanged would clip the new content away.
	if b.clip != nil && b.clip.end >= old {
		b.clip.end = b.size
	}

	return Change{Start: old, End: b.size}
}

func (b *Buffer) appendLocked(r ansi.Run) {
	if r.Text == "" {
		return
	}
	if n := len(b.runs); n > 0 && b.runs[n-1].Style == r.Style {
		b.runs[n-1].Text += r.Text
	} else {
		b.runs = append(b.runs, r)
	}
	b.size += len(r.Text)
}

// truncate removes all content at and after the given offset. It exists
// for the sink's carriage-return collapse policy and is the only deviation
// from monotonic append.
func (b *Buffer) truncate(offset int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if offset < 0 {
		offset = 0
	}
	if offset >= b.size {
		return
	}

	remain := offset
	for i, r := range b.runs {
		if remain >= len(r.Text) {
			remain -= len(r.Text)
			continue
		}
		if remain == 0 {
			b.runs = b.runs[:i]
		} else {
			b.runs[i].Text = r.Text[:remain]
			b.runs = b.runs[:i+1]
		}
		break
	}
	b.size = offset

	if b.cursor > b.size {
		b.cursor = b.size
	}
	if b.clip != nil && b.clip.end > b.size {
		b.clip.end = b.size
		if b.clip.start > b.clip.end {
			b.clip.start = b.clip.end
		}
	}
}

// Len returns the total byte length.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Runs returns a copy of the styled runs.
func (b *Buffer) Runs() []ansi.Run {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]ansi.Run, len(b.runs))
	copy(out, b.runs)
	return out
}

// Text returns the full buffer content without styling.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.textLocked()
}

func (b *Buffer) textLocked() string {
	var sb strings.Builder
	sb.Grow(b.size)
	for _, r := range b.runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// Cursor returns the externally held read position.
func (b *Buffer) Cursor() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cursor
}

// SetCursor records the caller's read position. Offsets are clamped to the
// buffer bounds.
func (b *Buffer) SetCursor(offset int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if offset < 0 {
		offset = 0
	}
	if offset > b.size {
		offset = b.size
	}
	b.cursor = offset
}

// Narrow clips the visible region to the half-open byte range
// [start, end). Appends still land at the true buffer end; the clip is
// restored afterwards.
func (b *Buffer) Narrow(start, end int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if start < 0 || end < start || end > b.size {
		return ErrInvalidRange
	}
	b.clip = &clipRegion{start: start, end: end}
	return nil
}

// Widen removes any active narrow window.
func (b *Buffer) Widen() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clip = nil
}

// Clipped reports the active narrow window, if any.
func (b *Buffer) Clipped() (start, end int, ok bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.clip == nil {
		return 0, 0, false
	}
	return b.clip.start, b.clip.end, true
}

// View returns the text within the narrow window, or the full text when
// the buffer is widened.
func (b *Buffer) View() string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	text := b.textLocked()
	if b.clip == nil {
		return text
	}
	return text[b.clip.start:b.clip.end]
}

// Reset clears content and view state for the next session. Buffer content
// always corresponds to exactly one session's output.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.runs = nil
	b.size = 0
	b.cursor = 0
	b.clip = nil
}
