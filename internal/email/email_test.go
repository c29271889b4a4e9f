package email

import (
	"context"
	"strings"
	"testing"

	gomail "github.com/wneessen/go-mail"
)

var sample = LeadAssignment{
	AgentName:  "Asha",
	AgentEmail: "asha@example.com",
	LeadID:     "LEAD-1700000000000",
	Name:       "Ravi <Kumar>",
	Phone:      "98765 43210",
	Email:      "ravi@example.com",
	Project:    "Skyline Heights",
	Source:     "Website",
	City:       "Pune",
}

func TestLeadAssignedSubject(t *testing.T) {
	if got := leadAssignedSubject(sample); got != "🔔 New Lead Assigned: LEAD-1700000000000" {
		t.Fatalf("unexpected subject %q", got)
	}
}

func TestLeadAssignedText(t *testing.T) {
	body := leadAssignedText(sample)
	for _, want := range []string{
		"Hi Asha,",
		"🧾 Lead ID: LEAD-1700000000000",
		"📞 Phone: +919876543210",
		"🏠 Project: Skyline Heights",
		"📍 City: Pune",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
	if !strings.HasSuffix(body, "Please follow up within 10 minutes for best performance.\n\nRegards,\nTitans") {
		t.Fatalf("unexpected ending:\n%s", body)
	}
}

func TestLeadAssignedTextKeepsUnparseablePhone(t *testing.T) {
	a := sample
	a.Phone = "call me"
	if !strings.Contains(leadAssignedText(a), "📞 Phone: call me") {
		t.Fatal("raw phone not kept")
	}
}

func TestLeadAssignedHTMLEscapes(t *testing.T) {
	html, err := leadAssignedHTML(sample)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(html, "Ravi &lt;Kumar&gt;") || strings.Contains(html, "<Kumar>") {
		t.Fatalf("name not escaped:\n%s", html)
	}
	if !strings.Contains(html, "Regards,<br>Titans") {
		t.Fatalf("sign-off missing:\n%s", html)
	}
}

func TestBuildMessage(t *testing.T) {
	s := NewSMTPSender("smtp.example.com", 587, "", "", "leads@example.com", "Lead Desk")
	msg, err := s.buildMessage(sample.AgentEmail, leadAssignedSubject(sample), leadAssignedText(sample), "<p>x</p>")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := msg.GetToString(); len(got) != 1 || !strings.Contains(got[0], "asha@example.com") {
		t.Fatalf("unexpected recipients %v", got)
	}
	if subj := msg.GetGenHeader(gomail.HeaderSubject); len(subj) != 1 || !strings.Contains(subj[0], "LEAD-1700000000000") {
		t.Fatalf("unexpected subject header %v", subj)
	}

	if _, err := s.buildMessage("not an address", "s", "b", ""); err == nil {
		t.Fatal("expected invalid recipient error")
	}
}

func TestNoopSender(t *testing.T) {
	if err := (NoopSender{}).SendLeadAssigned(context.Background(), sample); err != nil {
		t.Fatal(err)
	}
}
