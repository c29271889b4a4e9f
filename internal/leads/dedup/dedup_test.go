package dedup

import (
	"testing"

	"leadops_backend/internal/leads/domain"
)

func TestFingerprintIgnoresCaseWhitespaceAndPhonePunctuation(t *testing.T) {
	a := Fingerprint("A. Sharma", "98765-43210", "a@x.com", "Riviera Uno")
	b := Fingerprint("  a. SHARMA ", "(98765) 43210", " A@X.COM", "riviera uno  ")
	if a != b {
		t.Fatalf("expected equal fingerprints, got %q and %q", a, b)
	}
	if a != "a. sharma|9876543210|a@x.com|riviera uno" {
		t.Fatalf("unexpected fingerprint %q", a)
	}
	if Fingerprint("A. Sharma", "98765-43210", "a@x.com", "Riviera Uno") != a {
		t.Fatalf("fingerprint not stable")
	}
}

func TestFingerprintKeepsLeadingPlus(t *testing.T) {
	if got := Fingerprint("", "+91 98765 43210", "", ""); got != "|+919876543210||" {
		t.Fatalf("unexpected fingerprint %q", got)
	}
}

func TestEmptyLeadsCollide(t *testing.T) {
	set := NewSet(nil)
	empty := domain.Lead{}
	if got := Of(empty); got != "|||" {
		t.Fatalf("expected |||, got %q", got)
	}
	if set.IsDuplicate(empty) {
		t.Fatalf("first empty lead must be novel")
	}
	set.Accept(empty)
	if !set.IsDuplicate(domain.Lead{}) {
		t.Fatalf("second empty lead must collide")
	}
}

func TestSetChecksPersistedAndBatch(t *testing.T) {
	existing := []domain.Lead{{Name: "Ravi", Phone: "99999 00000", Project: "Uno"}}
	set := NewSet(existing)

	if !set.IsDuplicate(domain.Lead{Name: "ravi", Phone: "9999900000", Project: "UNO"}) {
		t.Fatalf("expected match against persisted lead")
	}

	fresh := domain.Lead{Name: "Meera", Email: "m@x.com"}
	if set.IsDuplicate(fresh) {
		t.Fatalf("fresh lead flagged duplicate")
	}
	set.Accept(fresh)
	if !set.IsDuplicate(fresh) {
		t.Fatalf("expected batch match after accept")
	}
	if set.Len() != 2 {
		t.Fatalf("expected 2 fingerprints, got %d", set.Len())
	}
}
