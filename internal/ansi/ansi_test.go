package ansi

import "testing"

func TestStrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello", "hello"},
		{"sgr", "\033[1;32mok\033[0m", "ok"},
		{"cursor", "a\033[2Kb", "ab"},
		{"pacman progress", "\033[?25l:: Synchronizing\033[?25h", ":: Synchronizing"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Strip(tt.in); got != tt.want {
				t.Errorf("Strip(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCursorUp(t *testing.T) {
	t.Parallel()
	if got := CursorUp(3); got != "\033[3A" {
		t.Errorf("CursorUp(3) = %q", got)
	}
}

func TestPaint(t *testing.T) {
	t.Parallel()
	if got := Paint(Red, "x"); got != Red+"x"+Reset {
		t.Errorf("Paint = %q", got)
	}
}
