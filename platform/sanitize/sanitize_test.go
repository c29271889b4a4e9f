package sanitize

import "testing"

func TestText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain text kept", "  Call  back after 5pm ", "Call  back after 5pm"},
		{"tags stripped", "<b>Interested</b> in 2BHK", "Interested in 2BHK"},
		{"entities decoded", "Budget &lt; 80L &amp; ready", "Budget < 80L & ready"},
		{"script dropped", "ok<script>alert(1)</script>", "ok"},
		{"encoded tag stays text", "&lt;b&gt;", "<b>"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Text(tc.in); got != tc.want {
				t.Fatalf("Text(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestTextPtr(t *testing.T) {
	if TextPtr(nil) != nil {
		t.Fatal("expected nil")
	}
	in := "<i>hot</i>"
	if got := TextPtr(&in); got == nil || *got != "hot" {
		t.Fatalf("unexpected %v", got)
	}
}
