package normalize

import (
	"os"
	"path/filepath"
	"testing"

	"leadops_backend/internal/leads/domain"
)

func TestBookAppointmentMessage(t *testing.T) {
	n := NewTextNormalizer(nil)
	body := "For Project Enquiry: Riviera Uno\nYour Name: A. Sharma\nYour Email Id: a@x.com\nMobile Number: 98765-43210\nCity(Residence): Pune\n"

	lead, rule, ok := n.Normalize("Book an appointment", body, "")
	if !ok || rule != "book-appointment" {
		t.Fatalf("expected book-appointment rule, got %q ok=%v", rule, ok)
	}
	want := domain.Lead{
		Project: "Riviera Uno",
		Name:    "A. Sharma",
		Email:   "a@x.com",
		Phone:   "98765-43210",
		City:    "Pune",
		Source:  domain.SourceWebsite,
	}
	if lead != want {
		t.Fatalf("unexpected lead:\n got %+v\nwant %+v", lead, want)
	}
}

func TestProjectEnquiryAndBrochureRules(t *testing.T) {
	n := NewTextNormalizer(nil)

	lead, rule, ok := n.Normalize("Write in to us - site", "For Project Enquiry: Uno\nName: Meera\nE-mail ID: m@x.com\nMobile Number: +91 99999 11111\n", "")
	if !ok || rule != "project-enquiry" {
		t.Fatalf("expected project-enquiry, got %q", rule)
	}
	if lead.Email != "m@x.com" || lead.City != "" || lead.Phone != "+91 99999 11111" {
		t.Fatalf("unexpected lead %+v", lead)
	}

	lead, rule, ok = n.Normalize("Download Brochure request", "Name: Joe\r\nMobile Number: 12345\r\n", "")
	if !ok || rule != "download-brochure" {
		t.Fatalf("expected download-brochure, got %q", rule)
	}
	if lead.Name != "Joe" || lead.Phone != "12345" || lead.Email != "" || lead.Project != "" {
		t.Fatalf("unexpected lead %+v", lead)
	}
}

func TestUnmatchedMessageIsDropped(t *testing.T) {
	n := NewTextNormalizer(nil)
	if _, _, ok := n.Normalize("Book an appointment", "no project marker here", ""); ok {
		t.Fatalf("body marker missing, expected no match")
	}
	if _, _, ok := n.Normalize("Newsletter", "For Project Enquiry: X", ""); ok {
		t.Fatalf("subject not recognised, expected no match")
	}
}

func TestHTMLFallbackWhenPlainEmpty(t *testing.T) {
	n := NewTextNormalizer(nil)
	htmlBody := `<html><body><table>
<tr><td>For Project Enquiry:</td><td>Riviera Uno</td></tr>
<tr><td>Your Name:</td><td>A. Sharma</td></tr>
<tr><td>Mobile Number:</td><td>98765-43210</td></tr>
</table><script>var x = "Your Email Id: nope";</script></body></html>`

	lead, _, ok := n.Normalize("Book an appointment", "  ", htmlBody)
	if !ok {
		t.Fatalf("expected html body to match")
	}
	if lead.Project != "Riviera Uno" || lead.Name != "A. Sharma" || lead.Phone != "98765-43210" {
		t.Fatalf("unexpected lead %+v", lead)
	}
	if lead.Email != "" {
		t.Fatalf("script content leaked into email: %q", lead.Email)
	}
}

func TestExtractTakesRestWhenNoNewline(t *testing.T) {
	if got := extract("Name:  Joe  ", "Name:"); got != "Joe" {
		t.Fatalf("got %q", got)
	}
	if got := extract("nothing", "Name:"); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestSearchSubjects(t *testing.T) {
	got := SearchSubjects(DefaultTextRules)
	if len(got) != 4 || got[0] != "Book an appointment" || got[3] != "Download Brochure" {
		t.Fatalf("unexpected subjects %v", got)
	}
}

func testResolver() *ProjectResolver {
	return NewProjectResolver(ProjectTables{
		Forms:     map[string]string{"1200": "riviera uno", "9988": "Skyline"},
		Canonical: map[string]string{"riviera uno": "Riviera UNO"},
	})
}

func TestProjectResolution(t *testing.T) {
	r := testResolver()
	if got := r.ResolveForm("1200", "FB Form"); got != "riviera uno" {
		t.Fatalf("exact match failed: %q", got)
	}
	if got := r.ResolveForm("form-9988-v2", "FB Form"); got != "Skyline" {
		t.Fatalf("containment match failed: %q", got)
	}
	if got := r.ResolveForm("777", "FB Form"); got != "FB Form" {
		t.Fatalf("fallback failed: %q", got)
	}
	if got := r.Canonicalize("Riviera Uno "); got != "Riviera UNO" {
		t.Fatalf("canonical failed: %q", got)
	}
	if got := r.Canonicalize("green meadows phase 2"); got != "Green Meadows Phase 2" {
		t.Fatalf("title case failed: %q", got)
	}
}

func TestFromDirectAliases(t *testing.T) {
	n := NewPayloadNormalizer(testResolver())
	lead := n.FromDirect(map[string]any{
		"full_name":     "Meera Rao",
		"email":         "",
		"email_address": "meera@x.com",
		"phone_number":  9876543210.0,
		"location":      "Pune",
		"formId":        "1200",
		"budget":        "1.2 Cr",
	}, func() string { return "LEAD-1" })

	if lead.LeadID != "LEAD-1" || lead.Source != domain.SourceWebhook {
		t.Fatalf("defaults not applied: %+v", lead)
	}
	if lead.Name != "Meera Rao" || lead.Email != "meera@x.com" || lead.Phone != "9876543210" || lead.City != "Pune" {
		t.Fatalf("aliases not resolved: %+v", lead)
	}
	if lead.Project != "Riviera UNO" || lead.Budget != "1.2 Cr" {
		t.Fatalf("project or extras wrong: %+v", lead)
	}

	bare := n.FromDirect(map[string]any{"id": "X-1"}, func() string { return "unused" })
	if bare.LeadID != "X-1" || bare.Project != "Direct Webhook" {
		t.Fatalf("unexpected bare lead %+v", bare)
	}
}

func TestFromLeadgenSubstringFallback(t *testing.T) {
	n := NewPayloadNormalizer(testResolver())
	lead := n.FromLeadgen("fb-1", "9988", []FieldData{
		{Name: "what_is_your_name?", Values: []string{"Ravi"}},
		{Name: "work_email", Values: []string{"ravi@x.com"}},
		{Name: "mobile_phone", Values: []string{"+91 90000 00000"}},
		{Name: "preferred_location", Values: []string{"Baner"}},
	})
	if lead.Name != "Ravi" || lead.Email != "ravi@x.com" || lead.Phone != "+91 90000 00000" || lead.City != "Baner" {
		t.Fatalf("unexpected lead %+v", lead)
	}
	if lead.Project != "Skyline" || lead.Source != domain.SourceFacebook || lead.LeadID != "fb-1" {
		t.Fatalf("unexpected identity %+v", lead)
	}

	noData := n.FromLeadgen("fb-2", "", nil)
	if noData.Project != FallbackLeadgenProject {
		t.Fatalf("unexpected fallback project %q", noData.Project)
	}
}

func TestLoadProjectTables(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "projects.yaml")
	content := "forms:\n  \"1200\": Riviera Uno\ncanonical:\n  RIVIERA UNO: Riviera Uno\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	tables, err := LoadProjectTables(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tables.Forms["1200"] != "Riviera Uno" || tables.Canonical["RIVIERA UNO"] != "Riviera Uno" {
		t.Fatalf("unexpected tables %+v", tables)
	}
	if empty, err := LoadProjectTables(""); err != nil || len(empty.Forms) != 0 {
		t.Fatalf("empty path should yield empty tables")
	}
}
