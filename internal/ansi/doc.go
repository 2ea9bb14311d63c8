// Package ansi decodes terminal escape sequences embedded in build-tool
// output into styled text runs.
//
// Unlike a full terminal emulator, the decoder targets a growing log: it
// tracks only the active text style, not a cell grid. Cursor-movement and
// erase sequences are consumed without effect so their bytes never leak
// into the log as garbage.
//
// # Chunk boundaries
//
// Process output arrives in arbitrarily sized chunks, and an escape
// sequence may be split anywhere. The Decoder carries its parse state
// across calls, so decoding a stream in one chunk or in many yields the
// same text and style transitions:
//
//	dec := ansi.NewDecoder(ansi.DefaultPalette())
//	for chunk := range chunks {
//	    for _, run := range dec.Decode(chunk) {
//	        // run.Text styled with run.Style
//	    }
//	}
//
// # Error handling
//
// The decoder has no error conditions. Malformed or unknown sequences
// degrade to a zero-width style reset; surrounding text is never lost.
package ansi
