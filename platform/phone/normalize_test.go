package phone

import "testing"

func TestStrip(t *testing.T) {
	cases := map[string]string{
		"98765-43210":       "9876543210",
		" +91 98765 43210 ": "+919876543210",
		"(022) 2345+6789":   "02223456789",
		"":                  "",
		"n/a":               "",
	}
	for in, want := range cases {
		if got := Strip(in); got != want {
			t.Fatalf("Strip(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeE164FallsBackToInput(t *testing.T) {
	if got := NormalizeE164("  not a number "); got != "not a number" {
		t.Fatalf("expected trimmed input back, got %q", got)
	}
}
