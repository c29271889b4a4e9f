// Package schema describes the lead table as an ordered list of fields with
// stable header labels. Dashboard clients address columns by label, so every
// label lookup goes through here instead of scanning headers per call.
package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"leadops_backend/internal/leads/domain"
)

// Kind tells how a field is stored.
type Kind int

const (
	KindText Kind = iota
	KindTime
)

// Field is one lead column.
type Field struct {
	Key      string // semantic name used in JSON bodies
	Label    string // header label shown to dashboard users
	Column   string // database column
	Kind     Kind
	ReadOnly bool
}

// Well-known labels referenced by operations.
const (
	LabelLeadID        = "Lead ID"
	LabelProject       = "Project"
	LabelAssignedTo    = "Assigned To"
	LabelAssignedEmail = "Assigned Email"
	LabelAssignedTime  = "Assigned Time"
	LabelCalled        = "Called?"
	LabelCallTime      = "Call Time"
	LabelCallDelay     = "Call Delay?"
	LabelSiteVisit     = "Site Visit?"
	LabelBooked        = "Booked?"
	LabelLeadQuality   = "Lead Quality"
)

// FeedbackLabel returns "Feedback n" for slot n (1-based).
func FeedbackLabel(n int) string { return "Feedback " + strconv.Itoa(n) }

// TimeLabel returns "Time n" for slot n (1-based).
func TimeLabel(n int) string { return "Time " + strconv.Itoa(n) }

// Schema resolves labels and keys to fields.
type Schema struct {
	fields  []Field
	byLabel map[string]int
	byKey   map[string]int
}

// Leads is the resolved lead schema.
var Leads = New(leadFields())

func leadFields() []Field {
	fields := []Field{
		{Key: "leadId", Label: LabelLeadID, Column: "lead_id", ReadOnly: true},
		{Key: "project", Label: LabelProject, Column: "project"},
		{Key: "source", Label: "Source", Column: "source"},
		{Key: "name", Label: "Name", Column: "name"},
		{Key: "email", Label: "Email", Column: "email"},
		{Key: "phone", Label: "Phone", Column: "phone"},
		{Key: "city", Label: "City", Column: "city"},
		{Key: "assignedTo", Label: LabelAssignedTo, Column: "assigned_to"},
		{Key: "assignedEmail", Label: LabelAssignedEmail, Column: "assigned_email"},
		{Key: "assignedTime", Label: LabelAssignedTime, Column: "assigned_time", Kind: KindTime},
		{Key: "called", Label: LabelCalled, Column: "called"},
		{Key: "callTime", Label: LabelCallTime, Column: "call_time", Kind: KindTime},
		{Key: "callDelayStatus", Label: LabelCallDelay, Column: "call_delay_status"},
		{Key: "siteVisit", Label: LabelSiteVisit, Column: "site_visit"},
		{Key: "booked", Label: LabelBooked, Column: "booked"},
		{Key: "leadQuality", Label: LabelLeadQuality, Column: "lead_quality"},
	}
	for i := 1; i <= domain.FeedbackSlots; i++ {
		fields = append(fields,
			Field{Key: "feedback" + strconv.Itoa(i), Label: FeedbackLabel(i), Column: "feedback_" + strconv.Itoa(i)},
			Field{Key: "time" + strconv.Itoa(i), Label: TimeLabel(i), Column: "time_" + strconv.Itoa(i), Kind: KindTime},
		)
	}
	return append(fields,
		Field{Key: "size", Label: "Size", Column: "size"},
		Field{Key: "budget", Label: "Budget", Column: "budget"},
		Field{Key: "purpose", Label: "Purpose", Column: "purpose"},
		Field{Key: "priority", Label: "Priority", Column: "priority"},
		Field{Key: "workLocation", Label: "Work Location", Column: "work_location"},
	)
}

// New indexes fields by label and key.
func New(fields []Field) *Schema {
	s := &Schema{
		fields:  fields,
		byLabel: make(map[string]int, len(fields)),
		byKey:   make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		s.byLabel[f.Label] = i
		s.byKey[f.Key] = i
	}
	return s
}

// Fields returns the fields in header order.
func (s *Schema) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

// Labels returns the header row.
func (s *Schema) Labels() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Label
	}
	return out
}

// Lookup resolves a header label, falling back to the semantic key.
func (s *Schema) Lookup(name string) (Field, bool) {
	if i, ok := s.byLabel[name]; ok {
		return s.fields[i], true
	}
	if i, ok := s.byKey[name]; ok {
		return s.fields[i], true
	}
	return Field{}, false
}

// MustLookup panics on an unknown label. Only for labels defined in this package.
func (s *Schema) MustLookup(label string) Field {
	f, ok := s.Lookup(label)
	if !ok {
		panic("schema: unknown label " + label)
	}
	return f
}

// Assignment is one resolved column write.
type Assignment struct {
	Field Field
	Value any // string for text fields, *time.Time for time fields
}

// Patch is an ordered set of column writes.
type Patch []Assignment

// Has reports whether the patch writes the field with the given label.
func (p Patch) Has(label string) bool {
	for _, a := range p {
		if a.Field.Label == label {
			return true
		}
	}
	return false
}

// Text returns the string written to label, if any.
func (p Patch) Text(label string) (string, bool) {
	for _, a := range p {
		if a.Field.Label == label {
			s, ok := a.Value.(string)
			return s, ok
		}
	}
	return "", false
}

// BuildPatch converts a label-keyed update map into column writes. Unknown
// labels and read-only fields are skipped. Output follows schema order so
// writes are deterministic.
func (s *Schema) BuildPatch(updates map[string]any) (Patch, error) {
	picked := make(map[int]any, len(updates))
	for name, raw := range updates {
		f, ok := s.Lookup(name)
		if !ok || f.ReadOnly {
			continue
		}
		picked[s.byLabel[f.Label]] = raw
	}

	idxs := make([]int, 0, len(picked))
	for idx := range picked {
		idxs = append(idxs, idx)
	}
	sort.Ints(idxs)

	patch := make(Patch, 0, len(idxs))
	for _, idx := range idxs {
		f := s.fields[idx]
		value, err := convert(f, picked[idx])
		if err != nil {
			return nil, err
		}
		patch = append(patch, Assignment{Field: f, Value: value})
	}
	return patch, nil
}

func convert(f Field, raw any) (any, error) {
	text := stringify(raw)
	if f.Kind == KindText {
		return text, nil
	}
	if strings.TrimSpace(text) == "" {
		return (*time.Time)(nil), nil
	}
	t, err := ParseTime(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Label, err)
	}
	return &t, nil
}

func stringify(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "Yes"
		}
		return "No"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTime accepts RFC 3339 and the plain layouts dashboards send.
func ParseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", value)
}

// Row renders a lead as a label-keyed object, the shape dashboard clients consume.
func (s *Schema) Row(l domain.Lead) map[string]any {
	row := make(map[string]any, len(s.fields))
	for _, f := range s.fields {
		row[f.Label] = value(l, f.Key)
	}
	return row
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func value(l domain.Lead, key string) string {
	switch key {
	case "leadId":
		return l.LeadID
	case "project":
		return l.Project
	case "source":
		return string(l.Source)
	case "name":
		return l.Name
	case "email":
		return l.Email
	case "phone":
		return l.Phone
	case "city":
		return l.City
	case "assignedTo":
		return l.AssignedTo
	case "assignedEmail":
		return l.AssignedEmail
	case "assignedTime":
		return formatTime(l.AssignedTime)
	case "called":
		return l.Called
	case "callTime":
		return formatTime(l.CallTime)
	case "callDelayStatus":
		return l.CallDelayStatus
	case "siteVisit":
		return l.SiteVisit
	case "booked":
		return l.Booked
	case "leadQuality":
		return l.LeadQuality
	case "size":
		return l.Size
	case "budget":
		return l.Budget
	case "purpose":
		return l.Purpose
	case "priority":
		return l.Priority
	case "workLocation":
		return l.WorkLocation
	}
	if strings.HasPrefix(key, "feedback") || strings.HasPrefix(key, "time") {
		n, err := strconv.Atoi(strings.TrimLeft(key, "feedbacktim"))
		if err != nil || n < 1 || n > domain.FeedbackSlots {
			return ""
		}
		entry := l.Feedback[n-1]
		if strings.HasPrefix(key, "feedback") {
			return entry.Text
		}
		return formatTime(entry.At)
	}
	return ""
}
