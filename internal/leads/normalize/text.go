// Package normalize turns raw channel inputs (notification emails, webhook
// payloads) into lead records. Rules are data: an ordered list evaluated
// until the first match, so each format can be tested without a transport.
package normalize

import (
	"strings"

	"leadops_backend/internal/leads/domain"
)

// Labels names the marker preceding each field in a text body. An empty
// label means the field is not present in that format and stays empty.
type Labels struct {
	Project string
	Name    string
	Email   string
	Phone   string
	City    string
}

// TextRule recognises one notification format.
type TextRule struct {
	Name       string
	Subjects   []string // any substring match
	BodyMarker string   // must appear in the body
	Labels     Labels
	Source     domain.Source
}

// Matches reports whether subject and body satisfy the rule.
func (r TextRule) Matches(subject, body string) bool {
	if !strings.Contains(body, r.BodyMarker) {
		return false
	}
	for _, s := range r.Subjects {
		if strings.Contains(subject, s) {
			return true
		}
	}
	return false
}

// Apply extracts the labelled fields from body.
func (r TextRule) Apply(body string) domain.Lead {
	return domain.Lead{
		Source:  r.Source,
		Project: extract(body, r.Labels.Project),
		Name:    extract(body, r.Labels.Name),
		Email:   extract(body, r.Labels.Email),
		Phone:   extract(body, r.Labels.Phone),
		City:    extract(body, r.Labels.City),
	}
}

const projectLabel = "For Project Enquiry:"

// DefaultTextRules are the website notification formats in priority order.
var DefaultTextRules = []TextRule{
	{
		Name:       "book-appointment",
		Subjects:   []string{"Book an appointment"},
		BodyMarker: projectLabel,
		Labels: Labels{
			Project: projectLabel,
			Name:    "Your Name:",
			Email:   "Your Email Id:",
			Phone:   "Mobile Number:",
			City:    "City(Residence):",
		},
		Source: domain.SourceWebsite,
	},
	{
		Name:       "project-enquiry",
		Subjects:   []string{"Project enquiry", "Write in to us"},
		BodyMarker: "E-mail ID:",
		Labels: Labels{
			Project: projectLabel,
			Name:    "Name:",
			Email:   "E-mail ID:",
			Phone:   "Mobile Number:",
		},
		Source: domain.SourceWebsite,
	},
	{
		Name:       "download-brochure",
		Subjects:   []string{"Download Brochure"},
		BodyMarker: "Mobile Number:",
		Labels: Labels{
			Project: projectLabel,
			Name:    "Name:",
			Phone:   "Mobile Number:",
		},
		Source: domain.SourceWebsite,
	},
}

// SearchSubjects lists every subject any default rule reacts to. The inbox
// adapter uses it to narrow the server-side search.
func SearchSubjects(rules []TextRule) []string {
	var out []string
	seen := map[string]bool{}
	for _, r := range rules {
		for _, s := range r.Subjects {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}

// TextNormalizer applies text rules to inbound messages.
type TextNormalizer struct {
	rules []TextRule
}

// NewTextNormalizer uses rules in the given order. Nil selects DefaultTextRules.
func NewTextNormalizer(rules []TextRule) *TextNormalizer {
	if rules == nil {
		rules = DefaultTextRules
	}
	return &TextNormalizer{rules: rules}
}

// Rules returns the configured rules.
func (n *TextNormalizer) Rules() []TextRule { return n.rules }

// Normalize classifies a message and extracts a lead. The plain body is
// used when present; otherwise the HTML rendering is flattened to text.
// ok is false when no rule matches, which is not an error.
func (n *TextNormalizer) Normalize(subject, plainBody, htmlBody string) (lead domain.Lead, rule string, ok bool) {
	body := plainBody
	if strings.TrimSpace(body) == "" && htmlBody != "" {
		body = FlattenHTML(htmlBody)
	}
	body = strings.ReplaceAll(body, "\r\n", "\n")

	for _, r := range n.rules {
		if r.Matches(subject, body) {
			return r.Apply(body), r.Name, true
		}
	}
	return domain.Lead{}, "", false
}

// extract returns the text after the first occurrence of label up to the
// next newline, trimmed. A missing label yields "".
func extract(body, label string) string {
	if label == "" {
		return ""
	}
	start := strings.Index(body, label)
	if start == -1 {
		return ""
	}
	rest := body[start+len(label):]
	if end := strings.Index(rest, "\n"); end != -1 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}
