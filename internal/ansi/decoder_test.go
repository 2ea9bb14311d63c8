package ansi

import (
	"testing"
)

// collect coalesces runs the way the log buffer does, so decode results
// can be compared independently of chunking.
func collect(runs []Run) []Run {
	var out []Run
	for _, r := range runs {
		if r.Text == "" {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Style == r.Style {
			out[n-1].Text += r.Text
			continue
		}
		out = append(out, r)
	}
	return out
}

func equalRuns(a, b []Run) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestDecodePlainText(t *testing.T) {
	d := NewDecoder(DefaultPalette())
	runs := d.Decode([]byte("hello world\n"))

	want := []Run{{Text: "hello world\n", Style: DefaultStyle()}}
	if !equalRuns(collect(runs), want) {
		t.Errorf("Decode = %+v, want %+v", runs, want)
	}
}

func TestDecodeSGRColors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Run
	}{
		{
			name:  "red foreground",
			input: "\x1b[31mred\x1b[0mplain",
			want: []Run{
				{Text: "red", Style: Style{Foreground: ColorRed, Background: DefaultBackground}},
				{Text: "plain", Style: DefaultStyle()},
			},
		},
		{
			name:  "bold green",
			input: "\x1b[1;32mok\x1b[m",
			want: []Run{
				{Text: "ok", Style: Style{Foreground: ColorGreen, Background: DefaultBackground, Attrs: AttrBold}},
			},
		},
		{
			name:  "bright foreground",
			input: "\x1b[91mbright\x1b[39mafter",
			want: []Run{
				{Text: "bright", Style: Style{Foreground: ColorBrightRed, Background: DefaultBackground}},
				{Text: "after", Style: DefaultStyle()},
			},
		},
		{
			name:  "256 color",
			input: "\x1b[38;5;196mx",
			want: []Run{
				{Text: "x", Style: Style{Foreground: ColorFromIndex(196), Background: DefaultBackground}},
			},
		},
		{
			name:  "rgb color",
			input: "\x1b[38;2;1;2;3mx",
			want: []Run{
				{Text: "x", Style: Style{Foreground: ColorFromRGB(1, 2, 3), Background: DefaultBackground}},
			},
		},
		{
			name:  "background",
			input: "\x1b[44mx\x1b[49my",
			want: []Run{
				{Text: "x", Style: Style{Foreground: DefaultForeground, Background: ColorBlue}},
				{Text: "y", Style: DefaultStyle()},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder(DefaultPalette())
			got := collect(d.Decode([]byte(tt.input)))
			if !equalRuns(got, tt.want) {
				t.Errorf("Decode(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDecodeChunkBoundaryInvariance(t *testing.T) {
	// Escape sequences interleaved with text, including a multibyte rune.
	stream := []byte("pre \x1b[1;31mbold red\x1b[0m mid\x1b[38;5;42mé\x1b[0m post\n")

	whole := NewDecoder(DefaultPalette())
	want := collect(whole.Decode(stream))

	for split := 1; split < len(stream); split++ {
		d := NewDecoder(DefaultPalette())
		var runs []Run
		runs = append(runs, d.Decode(stream[:split])...)
		runs = append(runs, d.Decode(stream[split:])...)

		if got := collect(runs); !equalRuns(got, want) {
			t.Fatalf("split at %d: got %+v, want %+v", split, got, want)
		}
	}
}

func TestDecodeEverySplitOfThree(t *testing.T) {
	stream := []byte("\x1b[32ma\x1b[0mb\x1b[44mc")

	whole := NewDecoder(DefaultPalette())
	want := collect(whole.Decode(stream))

	for i := 1; i < len(stream); i++ {
		for j := i; j < len(stream); j++ {
			d := NewDecoder(DefaultPalette())
			var runs []Run
			runs = append(runs, d.Decode(stream[:i])...)
			runs = append(runs, d.Decode(stream[i:j])...)
			runs = append(runs, d.Decode(stream[j:])...)

			if got := collect(runs); !equalRuns(got, want) {
				t.Fatalf("splits %d,%d: got %+v, want %+v", i, j, got, want)
			}
		}
	}
}

func TestDecodeTruncatedExtendedColor(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"256 introducer without index", "\x1b[38;5mx"},
		{"rgb introducer short one channel", "\x1b[48;2;1;2mx"},
		{"bare introducer", "\x1b[38mx"},
	}

	// A truncated introducer must have no effect at all; its leftover
	// parameters must not be read back as attributes.
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder(DefaultPalette())
			got := collect(d.Decode([]byte(tt.input)))
			want := []Run{{Text: "x", Style: DefaultStyle()}}
			if !equalRuns(got, want) {
				t.Errorf("Decode(%q) = %+v, want %+v", tt.input, got, want)
			}
		})
	}
}

func TestDecodeConsumesCursorSequences(t *testing.T) {
	// Erase-line and cursor-up must not leak bytes into the text.
	d := NewDecoder(DefaultPalette())
	got := collect(d.Decode([]byte("a\x1b[2K\x1b[1Ab")))

	want := []Run{{Text: "ab", Style: DefaultStyle()}}
	if !equalRuns(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestDecodeConsumesOSC(t *testing.T) {
	d := NewDecoder(DefaultPalette())
	got := collect(d.Decode([]byte("a\x1b]0;window title\x07b")))

	want := []Run{{Text: "ab", Style: DefaultStyle()}}
	if !equalRuns(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}

	// ESC-backslash terminator form.
	d = NewDecoder(DefaultPalette())
	got = collect(d.Decode([]byte("a\x1b]2;t\x1b\\b")))
	if !equalRuns(got, want) {
		t.Errorf("ST form: got %+v, want %+v", got, want)
	}
}

func TestDecodeUnknownSequenceResetsStyle(t *testing.T) {
	d := NewDecoder(DefaultPalette())
	got := collect(d.Decode([]byte("\x1b[31mred\x1b[999zafter")))

	if len(got) != 2 {
		t.Fatalf("got %d runs, want 2: %+v", len(got), got)
	}
	if got[0].Text != "red" || got[0].Style.Foreground != ColorRed {
		t.Errorf("first run = %+v", got[0])
	}
	if got[1].Text != "after" || !got[1].Style.IsDefault() {
		t.Errorf("unknown sequence should reset style, got %+v", got[1])
	}
}

func TestDecodeMalformedDegradesToText(t *testing.T) {
	// A bare ESC followed by an invalid byte must not eat later output.
	d := NewDecoder(DefaultPalette())
	var runs []Run
	runs = append(runs, d.Decode([]byte{0x1B})...)
	runs = append(runs, d.Decode([]byte{0x01})...)
	runs = append(runs, d.Decode([]byte("ok"))...)

	got := collect(runs)
	want := []Run{{Text: "ok", Style: DefaultStyle()}}
	if !equalRuns(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestDecoderReset(t *testing.T) {
	d := NewDecoder(DefaultPalette())
	d.Decode([]byte("\x1b[31mred"))
	d.Decode([]byte{0x1B}) // leave a partial sequence pending

	d.Reset()

	got := collect(d.Decode([]byte("plain")))
	want := []Run{{Text: "plain", Style: DefaultStyle()}}
	if !equalRuns(got, want) {
		t.Errorf("after Reset: got %+v, want %+v", got, want)
	}
}

func TestDecodeCustomPalette(t *testing.T) {
	p := DefaultPalette()
	p[1] = Color{R: 250, G: 80, B: 80, Index: 1}

	d := NewDecoder(p)
	got := collect(d.Decode([]byte("\x1b[31mx")))

	if len(got) != 1 || got[0].Style.Foreground != p[1] {
		t.Errorf("palette override not applied: %+v", got)
	}
}
