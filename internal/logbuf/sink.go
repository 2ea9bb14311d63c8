package logbuf

import (
	"sync"

	"github.com/tshepang/rustic/internal/ansi"
)

// Listener receives a notification after each append.
type Listener func(Change)

// SinkOption configures a Sink.
type SinkOption func(*Sink)

// WithCarriageReturnCollapse sets the carriage-return overwrite policy.
// When enabled (the default), a CR not followed by LF collapses the
// current line, so progress-bar repaints replace instead of accumulate.
func WithCarriageReturnCollapse(on bool) SinkOption {
	return func(s *Sink) {
		s.collapseCR = on
	}
}

// Sink feeds raw process bytes through an ansi.Decoder into a Buffer and
// fans out change notifications. Writes must be serialized per session;
// Sink locks internally so interleaved writers cannot corrupt parse state,
// but ordering between writers is the caller's concern.
type Sink struct {
	mu  sync.Mutex
	dec *ansi.Decoder
	buf *Buffer

	collapseCR bool
	pendingCR  bool
	lineStart  int // buffer offset of the current line start

	listenerMu sync.RWMutex
	listeners  []Listener
}

// NewSink creates a sink over a fresh buffer.
func NewSink(dec *ansi.Decoder, opts ...SinkOption) *Sink {
	s := &Sink{
		dec:        dec,
		buf:        New(),
		collapseCR: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Buffer returns the underlying log buffer.
func (s *Sink) Buffer() *Buffer {
	return s.buf
}

// Subscribe registers a listener invoked after every append.
func (s *Sink) Subscribe(fn Listener) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Write implements io.Writer over raw process output. Decode failures do
// not exist by construction; Write never returns an error.
func (s *Sink) Write(chunk []byte) (int, error) {
	runs := func() []ansi.Run {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.dec.Decode(chunk)
	}()
	s.Append(runs)
	return len(chunk), nil
}

// Append applies already-decoded runs to the buffer under the sink's
// carriage-return policy, then notifies listeners.
func (s *Sink) Append(runs []ansi.Run) {
	s.mu.Lock()
	start := s.buf.Len()
	for _, r := range runs {
		s.appendRun(r)
	}
	end := s.buf.Len()
	s.mu.Unlock()

	s.notify(Change{Start: start, End: end})
}

// appendRun walks a run byte-wise, slicing out plain segments and handling
// CR/LF under the collapse policy. Called with s.mu held.
func (s *Sink) appendRun(r ansi.Run) {
	if !s.collapseCR {
		s.buf.Append([]ansi.Run{r})
		s.trackLines(r.Text)
		return
	}

	text := r.Text
	seg := 0 // start of the current plain segment
	for i := 0; i < len(text); i++ {
		c := text[i]

		if s.pendingCR {
			s.pendingCR = false
			if c == '\n' {
				// CRLF: plain newline, the CR was presentation only.
			} else {
				// Overwrite: drop the current line before the next byte.
				s.buf.truncate(s.lineStart)
			}
		}

		switch c {
		case '\r':
			s.flushSegment(text[seg:i], r.Style)
			seg = i + 1
			// Held until the next byte shows whether this is CRLF or an
			// overwrite. A CR at a chunk boundary stays pending.
			s.pendingCR = true
		case '\n':
			s.flushSegment(text[seg:i+1], r.Style)
			seg = i + 1
			s.lineStart = s.buf.Len()
		}
	}
	s.flushSegment(text[seg:], r.Style)
}

func (s *Sink) flushSegment(text string, style ansi.Style) {
	if text == "" {
		return
	}
	s.buf.Append([]ansi.Run{{Text: text, Style: style}})
}

// trackLines keeps lineStart current when the collapse policy is off, so
// re-enabling it mid-session (config reload) stays coherent.
func (s *Sink) trackLines(text string) {
	for i := len(text) - 1; i >= 0; i-- {
		if text[i] == '\n' {
			s.lineStart = s.buf.Len() - (len(text) - 1 - i)
			return
		}
	}
}

// Flush notifies listeners without appending. The supervisor calls it
// after the final output chunk so location scans run at least once more
// before the session is considered fully processed.
func (s *Sink) Flush() {
	s.mu.Lock()
	n := s.buf.Len()
	s.mu.Unlock()
	s.notify(Change{Start: n, End: n})
}

// Reset clears buffer, decoder, and carriage-return state for the next
// session.
func (s *Sink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf.Reset()
	s.dec.Reset()
	s.pendingCR = false
	s.lineStart = 0
}

func (s *Sink) notify(ch Change) {
	s.listenerMu.RLock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.listenerMu.RUnlock()

	for _, fn := range listeners {
		fn(ch)
	}
}
