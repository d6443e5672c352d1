package overlay

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func TestComposite(t *testing.T) {
	tests := []struct {
		name       string
		background string
		fg         string
		x, y       int
		want       string
	}{
		{"Middle", "abcdef\nghijkl", "XY", 2, 1, "abcdef\nghXYkl"},
		{"ShortLine", "ab", "XY", 4, 0, "ab  XY"},
		{"PadsLines", "", "X\nY", 1, 1, "\n X\n Y"},
		{"NegativeClamped", "abc", "Z", -3, -1, "Zbc"},
		{"RaggedForeground", "......\n......", "XYZ\nX", 1, 0, ".XYZ..\n.X  .."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Composite(tt.background, tt.fg, tt.x, tt.y); got != tt.want {
				t.Errorf("Composite() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestComposite_StyledBackground(t *testing.T) {
	bg := "\x1b[31mredredred\x1b[0m"
	got := ansi.Strip(Composite(bg, "XX", 3, 0))
	if got != "redXXdred" {
		t.Errorf("Composite() = %q, want %q", got, "redXXdred")
	}
}

func TestCentered(t *testing.T) {
	bg := strings.Repeat(strings.Repeat(".", 10)+"\n", 4) + strings.Repeat(".", 10)
	got := strings.Split(Centered(bg, "XX", 10, 5), "\n")
	if got[2] != "....XX...." {
		t.Errorf("center line = %q", got[2])
	}
}
