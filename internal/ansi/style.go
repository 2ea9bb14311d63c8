package ansi

// Color represents a terminal color.
type Color struct {
	R, G, B uint8
	Index   int  // -1 for RGB, 0-255 for indexed
	Default bool // use the terminal default fg/bg
}

// DefaultForeground is the default foreground color.
var DefaultForeground = Color{Default: true}

// DefaultBackground is the default background color.
var DefaultBackground = Color{Default: true}

// Standard ANSI colors (indices 0-15).
var (
	ColorBlack         = Color{Index: 0, R: 0, G: 0, B: 0}
	ColorRed           = Color{Index: 1, R: 205, G: 0, B: 0}
	ColorGreen         = Color{Index: 2, R: 0, G: 205, B: 0}
	ColorYellow        = Color{Index: 3, R: 205, G: 205, B: 0}
	ColorBlue          = Color{Index: 4, R: 0, G: 0, B: 238}
	ColorMagenta       = Color{Index: 5, R: 205, G: 0, B: 205}
	ColorCyan          = Color{Index: 6, R: 0, G: 205, B: 205}
	ColorWhite         = Color{Index: 7, R: 229, G: 229, B: 229}
	ColorBrightBlack   = Color{Index: 8, R: 127, G: 127, B: 127}
	ColorBrightRed     = Color{Index: 9, R: 255, G: 0, B: 0}
	ColorBrightGreen   = Color{Index: 10, R: 0, G: 255, B: 0}
	ColorBrightYellow  = Color{Index: 11, R: 255, G: 255, B: 0}
	ColorBrightBlue    = Color{Index: 12, R: 92, G: 92, B: 255}
	ColorBrightMagenta = Color{Index: 13, R: 255, G: 0, B: 255}
	ColorBrightCyan    = Color{Index: 14, R: 0, G: 255, B: 255}
	ColorBrightWhite   = Color{Index: 15, R: 255, G: 255, B: 255}
)

// ansiColors is the built-in 16-color palette.
var ansiColors = [16]Color{
	ColorBlack, ColorRed, ColorGreen, ColorYellow,
	ColorBlue, ColorMagenta, ColorCyan, ColorWhite,
	ColorBrightBlack, ColorBrightRed, ColorBrightGreen, ColorBrightYellow,
	ColorBrightBlue, ColorBrightMagenta, ColorBrightCyan, ColorBrightWhite,
}

// ColorFromIndex returns a color from a 256-color index.
// Out-of-range indices fall back to the default foreground.
func ColorFromIndex(index int) Color {
	if index < 0 || index > 255 {
		return DefaultForeground
	}

	if index < 16 {
		return ansiColors[index]
	}

	// 216-color cube (indices 16-231)
	if index < 232 {
		i := index - 16
		r := uint8((i / 36) * 51)
		g := uint8(((i / 6) % 6) * 51)
		b := uint8((i % 6) * 51)
		return Color{R: r, G: g, B: b, Index: index}
	}

	// Grayscale (indices 232-255)
	gray := uint8((index-232)*10 + 8)
	return Color{R: gray, G: gray, B: gray, Index: index}
}

// ColorFromRGB creates a direct RGB color.
func ColorFromRGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, Index: -1}
}

// Attr is a bit set of text attributes.
type Attr uint16

const (
	AttrNone      Attr = 0
	AttrBold      Attr = 1 << 0
	AttrDim       Attr = 1 << 1
	AttrItalic    Attr = 1 << 2
	AttrUnderline Attr = 1 << 3
	AttrBlink     Attr = 1 << 4
	AttrReverse   Attr = 1 << 5
	AttrHidden    Attr = 1 << 6
	AttrStrike    Attr = 1 << 7
)

// Has returns true if the attribute is set.
func (a Attr) Has(attr Attr) bool {
	return a&attr != 0
}

// Style is the display style of a text run.
type Style struct {
	Foreground Color
	Background Color
	Attrs      Attr
}

// DefaultStyle returns the unstyled default.
func DefaultStyle() Style {
	return Style{
		Foreground: DefaultForeground,
		Background: DefaultBackground,
	}
}

// IsDefault returns true if the style carries no color or attributes.
func (s Style) IsDefault() bool {
	return s == DefaultStyle()
}

// Run is a span of text tagged with a display style. It is the decoder's
// output unit.
type Run struct {
	Text  string
	Style Style
}

// Palette maps the 16 base ANSI color indices to caller-supplied display
// colors. A zero-value entry falls back to the built-in color for that
// index.
type Palette [16]Color

// DefaultPalette returns a palette using the built-in colors.
func DefaultPalette() Palette {
	return Palette(ansiColors)
}

// Color resolves a base color index through the palette. Indices outside
// 0-15 resolve through the 256-color table unparameterized by the palette.
func (p Palette) Color(index int) Color {
	if index >= 0 && index < len(p) {
		if p[index] == (Color{}) {
			return ansiColors[index]
		}
		return p[index]
	}
	return ColorFromIndex(index)
}
