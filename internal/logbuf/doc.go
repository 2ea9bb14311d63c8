// Package logbuf owns the session log: an append-only sequence of styled
// runs plus the view state a caller holds into it.
//
// Buffer implements region-preserving insertion. A caller may hold a read
// cursor and may narrow the buffer to a subrange for display; appends
// always land after the last previously written byte and restore both.
// When the narrowed region ends at the old buffer end, it is extended over
// the insertion so new output is never hidden.
//
// Sink wires an ansi.Decoder in front of a Buffer: raw process bytes go
// in, styled runs land in the buffer, and subscribers are notified after
// every append so dependent scans can run. Carriage-return overwrite
// sequences (progress bars) are collapsed by default, replacing the
// current line instead of accreting every repaint.
package logbuf
