// Package locate extracts source-location references from build-tool
// output.
//
// A Family pairs a regular expression with a mapping from capture groups
// to location roles (file, line, column, kind). Families are held in an
// append-only Registry and evaluated independently over the full log text;
// every family sees every byte, and two families matching the same span
// both produce a record. Results are merged in document order, the order a
// reader encounters them in the log, not in family order.
//
// Build tools commonly emit a primary diagnostic location with one marker
// and secondary "see also" locations with another. Keeping those as
// separate families keeps each pattern simple:
//
//	reg := locate.NewRegistry()
//	locs := reg.Scan(logText)
//	for _, l := range locs {
//	    fmt.Printf("%s:%d:%d (%s)\n", l.File, l.Line, l.Column, l.Kind)
//	}
//
// The Scanner type layers incremental re-scanning over a Registry for use
// while a process is still producing output.
package locate
