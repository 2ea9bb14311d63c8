package ansi

// Decoder is a stateful escape-sequence decoder. It turns byte chunks into
// styled runs, carrying in-progress sequences and the active style across
// chunk boundaries. The zero value is not usable; use NewDecoder.
//
// Decoder is not safe for concurrent use; output delivery for a session is
// serialized by the caller.
type Decoder struct {
	palette Palette

	state  decodeState
	params []int
	inter  []byte
	osc    []byte

	cur  Style
	text []byte // pending text in the current style
	runs []Run  // runs produced by the current Decode call
}

type decodeState int

const (
	stateGround decodeState = iota
	stateEscape
	stateEscapeInter
	stateCSI
	stateCSIParam
	stateCSIInter
	stateOSC
	stateDCS
)

// NewDecoder creates a decoder mapping base colors through the given
// palette.
func NewDecoder(palette Palette) *Decoder {
	return &Decoder{
		palette: palette,
		state:   stateGround,
		params:  make([]int, 0, 16),
		inter:   make([]byte, 0, 4),
		osc:     make([]byte, 0, 256),
		cur:     DefaultStyle(),
	}
}

// Reset clears all parse state and returns the style to the default. It is
// called at the start of a new session.
func (d *Decoder) Reset() {
	d.state = stateGround
	d.params = d.params[:0]
	d.inter = d.inter[:0]
	d.osc = d.osc[:0]
	d.cur = DefaultStyle()
	d.text = d.text[:0]
	d.runs = nil
}

// Decode consumes a chunk and returns the styled runs it completes. A
// sequence split across chunks is held in decoder state and decoded when
// its remaining bytes arrive. Adjacent runs with equal style may be
// returned separately; the log buffer coalesces them.
func (d *Decoder) Decode(chunk []byte) []Run {
	d.runs = nil
	for _, b := range chunk {
		d.processByte(b)
	}
	d.flush()
	runs := d.runs
	d.runs = nil
	return runs
}

// flush closes the pending text into a run.
func (d *Decoder) flush() {
	if len(d.text) == 0 {
		return
	}
	d.runs = append(d.runs, Run{Text: string(d.text), Style: d.cur})
	d.text = d.text[:0]
}

// setStyle flushes pending text and installs a new active style.
func (d *Decoder) setStyle(s Style) {
	if s == d.cur {
		return
	}
	d.flush()
	d.cur = s
}

func (d *Decoder) processByte(b byte) {
	switch d.state {
	case stateGround:
		d.processGround(b)
	case stateEscape:
		d.processEscape(b)
	case stateEscapeInter:
		d.processEscapeInter(b)
	case stateCSI:
		d.processCSI(b)
	case stateCSIParam:
		d.processCSIParam(b)
	case stateCSIInter:
		d.processCSIInter(b)
	case stateOSC:
		d.processOSC(b)
	case stateDCS:
		d.processDCS(b)
	}
}

func (d *Decoder) processGround(b byte) {
	switch {
	case b == 0x1B: // ESC
		d.state = stateEscape
		d.params = d.params[:0]
		d.inter = d.inter[:0]
	case b == 0x07: // BEL - ignore
	case b == 0x08: // BS - no cell grid to move in; drop
	case b == '\t', b == '\n', b == '\r':
		d.text = append(d.text, b)
	case b < 0x20: // remaining C0 controls
		// no effect on a log
	default:
		// Printable ASCII and UTF-8 bytes pass through unchanged. Multibyte
		// runes are carried as raw bytes so a rune split across chunks
		// reassembles in the buffer.
		d.text = append(d.text, b)
	}
}

func (d *Decoder) processEscape(b byte) {
	switch {
	case b == '[': // CSI
		d.state = stateCSI
	case b == ']': // OSC
		d.state = stateOSC
		d.osc = d.osc[:0]
	case b == 'P': // DCS
		d.state = stateDCS
	case b == '\\': // ST
		d.state = stateGround
	case b >= 0x20 && b <= 0x2F: // intermediate
		d.inter = append(d.inter, b)
		d.state = stateEscapeInter
	case b >= 0x30 && b <= 0x7E: // final
		d.unknownSequence()
		d.state = stateGround
	default:
		d.state = stateGround
	}
}

func (d *Decoder) processEscapeInter(b byte) {
	switch {
	case b >= 0x20 && b <= 0x2F:
		d.inter = append(d.inter, b)
	case b >= 0x30 && b <= 0x7E:
		d.unknownSequence()
		d.state = stateGround
	default:
		d.state = stateGround
	}
}

func (d *Decoder) processCSI(b byte) {
	switch {
	case b >= '0' && b <= '9':
		d.params = append(d.params, int(b-'0'))
		d.state = stateCSIParam
	case b == ';':
		d.params = append(d.params, 0)
		d.state = stateCSIParam
	case b == '?', b == '>', b == '!': // private mode prefix
		d.inter = append(d.inter, b)
	case b >= 0x20 && b <= 0x2F:
		d.inter = append(d.inter, b)
		d.state = stateCSIInter
	case b >= 0x40 && b <= 0x7E:
		d.handleCSI(b)
		d.state = stateGround
	default:
		d.state = stateGround
	}
}

func (d *Decoder) processCSIParam(b byte) {
	switch {
	case b >= '0' && b <= '9':
		if len(d.params) == 0 {
			d.params = append(d.params, 0)
		}
		d.params[len(d.params)-1] = d.params[len(d.params)-1]*10 + int(b-'0')
	case b == ';':
		d.params = append(d.params, 0)
	case b >= 0x20 && b <= 0x2F:
		d.inter = append(d.inter, b)
		d.state = stateCSIInter
	case b >= 0x40 && b <= 0x7E:
		d.handleCSI(b)
		d.state = stateGround
	default:
		d.state = stateGround
	}
}

func (d *Decoder) processCSIInter(b byte) {
	switch {
	case b >= 0x20 && b <= 0x2F:
		d.inter = append(d.inter, b)
	case b >= 0x40 && b <= 0x7E:
		d.handleCSI(b)
		d.state = stateGround
	default:
		d.state = stateGround
	}
}

func (d *Decoder) processOSC(b byte) {
	switch {
	case b == 0x07: // BEL terminates OSC
		d.state = stateGround
	case b == 0x1B: // ESC begins ST
		d.state = stateEscape
	case b == 0x9C: // ST (single byte)
		d.state = stateGround
	default:
		d.osc = append(d.osc, b)
	}
}

func (d *Decoder) processDCS(b byte) {
	switch {
	case b == 0x1B:
		d.state = stateEscape
	case b == 0x9C:
		d.state = stateGround
	}
}

func (d *Decoder) handleCSI(final byte) {
	switch final {
	case 'm': // SGR
		d.handleSGR()
	case 'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H', 'f',
		'J', 'K', 'L', 'M', 'P', 'S', 'T', 'X', '@',
		'd', 'h', 'l', 'n', 'r', 's', 'u', 'c', 'q':
		// Cursor movement, erase, and mode sequences manipulate a screen
		// the log does not have. Consume without emitting text.
	default:
		d.unknownSequence()
	}
}

// unknownSequence degrades an unrecognized sequence to a zero-width style
// reset: nothing is emitted, surrounding text is untouched.
func (d *Decoder) unknownSequence() {
	d.setStyle(DefaultStyle())
}

func (d *Decoder) handleSGR() {
	if len(d.params) == 0 {
		d.setStyle(DefaultStyle())
		return
	}

	s := d.cur
	for i := 0; i < len(d.params); i++ {
		p := d.params[i]
		switch {
		case p == 0:
			s = DefaultStyle()
		case p == 1:
			s.Attrs |= AttrBold
		case p == 2:
			s.Attrs |= AttrDim
		case p == 3:
			s.Attrs |= AttrItalic
		case p == 4, p == 21:
			s.Attrs |= AttrUnderline
		case p == 5:
			s.Attrs |= AttrBlink
		case p == 7:
			s.Attrs |= AttrReverse
		case p == 8:
			s.Attrs |= AttrHidden
		case p == 9:
			s.Attrs |= AttrStrike
		case p == 22:
			s.Attrs &^= AttrBold | AttrDim
		case p == 23:
			s.Attrs &^= AttrItalic
		case p == 24:
			s.Attrs &^= AttrUnderline
		case p == 25:
			s.Attrs &^= AttrBlink
		case p == 27:
			s.Attrs &^= AttrReverse
		case p == 28:
			s.Attrs &^= AttrHidden
		case p == 29:
			s.Attrs &^= AttrStrike
		case p >= 30 && p <= 37:
			s.Foreground = d.palette.Color(p - 30)
		case p == 38:
			var c Color
			var ok bool
			c, i, ok = d.extendedColor(i)
			if ok {
				s.Foreground = c
			}
		case p == 39:
			s.Foreground = DefaultForeground
		case p >= 40 && p <= 47:
			s.Background = d.palette.Color(p - 40)
		case p == 48:
			var c Color
			var ok bool
			c, i, ok = d.extendedColor(i)
			if ok {
				s.Background = c
			}
		case p == 49:
			s.Background = DefaultBackground
		case p >= 90 && p <= 97:
			s.Foreground = d.palette.Color(p - 90 + 8)
		case p >= 100 && p <= 107:
			s.Background = d.palette.Color(p - 100 + 8)
		}
	}
	d.setStyle(s)
}

// extendedColor parses a 38/48 extended color introducer starting at
// params[i]. It returns the color, the index of the last consumed
// parameter, and whether a color was parsed. A truncated or unknown
// introducer consumes the remaining parameters so they are not
// reinterpreted as attributes.
func (d *Decoder) extendedColor(i int) (Color, int, bool) {
	if i+1 < len(d.params) {
		switch d.params[i+1] {
		case 5: // 256-color
			if i+2 < len(d.params) {
				return d.palette.Color(clampIndex(d.params[i+2])), i + 2, true
			}
		case 2: // direct RGB
			if i+4 < len(d.params) {
				c := ColorFromRGB(
					clampChannel(d.params[i+2]),
					clampChannel(d.params[i+3]),
					clampChannel(d.params[i+4]),
				)
				return c, i + 4, true
			}
		}
	}
	return Color{}, len(d.params) - 1, false
}

func clampIndex(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

func clampChannel(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
