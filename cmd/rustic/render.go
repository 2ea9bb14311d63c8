package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/tshepang/rustic/internal/ansi"
	"github.com/tshepang/rustic/internal/logbuf"
)

// streamLog prints the session log to stdout as it grows, re-applying the
// decoded styles through lipgloss. A carriage-return collapse shrinks the
// buffer; the printed stream falls back to reprinting from the collapsed
// line on the next change.
func streamLog(sink *logbuf.Sink) {
	var mu sync.Mutex
	printed := 0

	sink.Subscribe(func(ch logbuf.Change) {
		mu.Lock()
		defer mu.Unlock()

		if ch.End < printed {
			printed = ch.End
		}
		if ch.End == printed {
			return
		}

		text := renderRange(sink.Buffer(), printed, ch.End)
		fmt.Fprint(os.Stdout, text)
		printed = ch.End
	})
}

// renderRange renders the byte range [from, to) of the buffer.
func renderRange(buf *logbuf.Buffer, from, to int) string {
	out := ""
	offset := 0
	for _, run := range buf.Runs() {
		end := offset + len(run.Text)
		if end > from && offset < to {
			lo, hi := from-offset, to-offset
			if lo < 0 {
				lo = 0
			}
			if hi > len(run.Text) {
				hi = len(run.Text)
			}
			out += renderRun(ansi.Run{Text: run.Text[lo:hi], Style: run.Style})
		}
		offset = end
	}
	return out
}

func renderRun(run ansi.Run) string {
	if run.Style.IsDefault() {
		return run.Text
	}
	return styleFor(run.Style).Render(run.Text)
}

func styleFor(s ansi.Style) lipgloss.Style {
	st := lipgloss.NewStyle()
	if !s.Foreground.Default {
		st = st.Foreground(lipgloss.Color(hexColor(s.Foreground)))
	}
	if !s.Background.Default {
		st = st.Background(lipgloss.Color(hexColor(s.Background)))
	}
	if s.Attrs.Has(ansi.AttrBold) {
		st = st.Bold(true)
	}
	if s.Attrs.Has(ansi.AttrItalic) {
		st = st.Italic(true)
	}
	if s.Attrs.Has(ansi.AttrUnderline) {
		st = st.Underline(true)
	}
	if s.Attrs.Has(ansi.AttrDim) {
		st = st.Faint(true)
	}
	if s.Attrs.Has(ansi.AttrReverse) {
		st = st.Reverse(true)
	}
	if s.Attrs.Has(ansi.AttrStrike) {
		st = st.Strikethrough(true)
	}
	return st
}

func hexColor(c ansi.Color) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
