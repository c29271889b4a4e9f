package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"leadops_backend/internal/leads/domain"
)

// Alias lists per logical field, first non-empty wins.
var (
	leadIDAliases       = []string{"leadId", "id"}
	projectAliases      = []string{"project"}
	formIDAliases       = []string{"formId", "form_id"}
	sourceAliases       = []string{"source"}
	nameAliases         = []string{"name", "full_name", "Full Name"}
	emailAliases        = []string{"email", "email_address", "Email Address"}
	phoneAliases        = []string{"phone", "phone_number", "Phone Number"}
	cityAliases         = []string{"city", "location"}
	sizeAliases         = []string{"size"}
	budgetAliases       = []string{"budget"}
	purposeAliases      = []string{"purpose"}
	priorityAliases     = []string{"priority"}
	workLocationAliases = []string{"workLocation", "work_location"}
)

// FieldData is one Facebook lead form answer.
type FieldData struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// PayloadNormalizer builds leads from webhook payloads.
type PayloadNormalizer struct {
	projects *ProjectResolver
}

// NewPayloadNormalizer uses projects for form id resolution and canonical
// project names.
func NewPayloadNormalizer(projects *ProjectResolver) *PayloadNormalizer {
	if projects == nil {
		projects = NewProjectResolver(ProjectTables{})
	}
	return &PayloadNormalizer{projects: projects}
}

// FromDirect normalizes an arbitrary JSON object posted to the webhook.
// newID supplies a lead id when the payload carries none.
func (n *PayloadNormalizer) FromDirect(body map[string]any, newID func() string) domain.Lead {
	lead := domain.Lead{
		LeadID:       firstNonEmpty(body, leadIDAliases),
		Source:       domain.Source(firstNonEmpty(body, sourceAliases)),
		Name:         firstNonEmpty(body, nameAliases),
		Email:        firstNonEmpty(body, emailAliases),
		Phone:        firstNonEmpty(body, phoneAliases),
		City:         firstNonEmpty(body, cityAliases),
		Size:         firstNonEmpty(body, sizeAliases),
		Budget:       firstNonEmpty(body, budgetAliases),
		Purpose:      firstNonEmpty(body, purposeAliases),
		Priority:     firstNonEmpty(body, priorityAliases),
		WorkLocation: firstNonEmpty(body, workLocationAliases),
	}
	if lead.LeadID == "" {
		lead.LeadID = newID()
	}
	if lead.Source == "" {
		lead.Source = domain.SourceWebhook
	}

	project := firstNonEmpty(body, projectAliases)
	if project == "" {
		project = n.projects.ResolveForm(firstNonEmpty(body, formIDAliases), "")
	}
	lead.Project = n.canonicalOr(project, FallbackDirectProject)
	return lead
}

// FromLeadgen normalizes a Facebook leadgen notification plus the answers
// fetched from the Graph API. fields may be nil when the fetch failed; the
// lead is still produced with what the notification carried.
func (n *PayloadNormalizer) FromLeadgen(leadgenID, formID string, fields []FieldData) domain.Lead {
	flat := make(map[string]any, len(fields))
	for _, f := range fields {
		if f.Name == "" || len(f.Values) == 0 {
			continue
		}
		flat[f.Name] = f.Values[0]
	}

	lead := domain.Lead{
		LeadID:       leadgenID,
		Source:       domain.SourceFacebook,
		Name:         firstNonEmpty(flat, nameAliases),
		Email:        firstNonEmpty(flat, emailAliases),
		Phone:        firstNonEmpty(flat, phoneAliases),
		City:         firstNonEmpty(flat, cityAliases),
		Size:         firstNonEmpty(flat, sizeAliases),
		Budget:       firstNonEmpty(flat, budgetAliases),
		Purpose:      firstNonEmpty(flat, purposeAliases),
		Priority:     firstNonEmpty(flat, priorityAliases),
		WorkLocation: firstNonEmpty(flat, workLocationAliases),
	}

	// Form questions are free-text; fall back to substring matches on the
	// question name in answer order.
	for _, f := range fields {
		if len(f.Values) == 0 {
			continue
		}
		key := strings.ToLower(f.Name)
		v := strings.TrimSpace(f.Values[0])
		switch {
		case lead.Name == "" && strings.Contains(key, "name"):
			lead.Name = v
		case lead.Email == "" && strings.Contains(key, "email"):
			lead.Email = v
		case lead.Phone == "" && strings.Contains(key, "phone"):
			lead.Phone = v
		case lead.City == "" && (strings.Contains(key, "city") || strings.Contains(key, "location")):
			lead.City = v
		}
	}

	lead.Project = n.canonicalOr(n.projects.ResolveForm(formID, ""), FallbackLeadgenProject)
	return lead
}

// canonicalOr canonicalises a resolved project. Generic fallback labels are
// stored verbatim.
func (n *PayloadNormalizer) canonicalOr(project, fallback string) string {
	if project == "" {
		return fallback
	}
	return n.projects.Canonicalize(project)
}

func firstNonEmpty(body map[string]any, aliases []string) string {
	for _, a := range aliases {
		if v, ok := body[a]; ok {
			if s := strings.TrimSpace(asString(v)); s != "" {
				return s
			}
		}
	}
	return ""
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		if len(t) > 0 {
			return asString(t[0])
		}
		return ""
	default:
		return fmt.Sprint(t)
	}
}
