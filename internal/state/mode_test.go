package state

import "testing"

func TestParseMode(t *testing.T) {
	cases := []struct {
		in   string
		want Mode
	}{
		{"chat", ModeChat},
		{"image", ModeImage},
		{"astro", ModeAstro},
		{"diary", ModeDiary},
		{"live", ModeLive},
		{"", ModeChat},
		{"CHAT", ModeChat},
		{"hologram", ModeChat},
	}
	for _, tc := range cases {
		if got := ParseMode(tc.in); got != tc.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestModesCoversEveryMode(t *testing.T) {
	modes := Modes()
	if len(modes) != 5 {
		t.Fatalf("expected 5 modes, got %d", len(modes))
	}
	seen := map[Mode]bool{}
	for _, m := range modes {
		if seen[m] {
			t.Fatalf("duplicate mode %q", m)
		}
		seen[m] = true
		if m.Title() == "" {
			t.Fatalf("mode %q has no title", m)
		}
	}
}
