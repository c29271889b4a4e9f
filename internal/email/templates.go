package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"leadops_backend/platform/phone"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title   string
	Heading string
	SignOff string
}

type leadAssignedEmailData struct {
	baseEmailData
	LeadAssignment
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

// leadAssignedSubject is the subject line for an assignment email.
func leadAssignedSubject(a LeadAssignment) string {
	return fmt.Sprintf(subjectLeadAssignedFmt, a.LeadID)
}

// withDisplayPhone renders the lead phone in E.164 when it parses.
func withDisplayPhone(a LeadAssignment) LeadAssignment {
	a.Phone = phone.NormalizeE164(a.Phone)
	return a
}

// leadAssignedText renders the plain-text body.
func leadAssignedText(a LeadAssignment) string {
	a = withDisplayPhone(a)
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", a.AgentName)
	b.WriteString("A new lead has been assigned to you:\n\n")
	fmt.Fprintf(&b, "🧾 Lead ID: %s\n", a.LeadID)
	fmt.Fprintf(&b, "👤 Name: %s\n", a.Name)
	fmt.Fprintf(&b, "📞 Phone: %s\n", a.Phone)
	fmt.Fprintf(&b, "📧 Email: %s\n", a.Email)
	fmt.Fprintf(&b, "🏠 Project: %s\n", a.Project)
	fmt.Fprintf(&b, "🌐 Source: %s\n", a.Source)
	fmt.Fprintf(&b, "📍 City: %s\n\n", a.City)
	b.WriteString("Please follow up within 10 minutes for best performance.\n\n")
	b.WriteString("Regards,\n" + signOff)
	return b.String()
}

// leadAssignedHTML renders the HTML alternative.
func leadAssignedHTML(a LeadAssignment) (string, error) {
	return renderEmailTemplate("lead_assigned.html", leadAssignedEmailData{
		baseEmailData: baseEmailData{
			Title:   leadAssignedSubject(a),
			Heading: "New lead assigned",
			SignOff: signOff,
		},
		LeadAssignment: withDisplayPhone(a),
	})
}
