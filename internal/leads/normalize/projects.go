package normalize

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Generic project labels used when a form id resolves to nothing.
const (
	FallbackLeadgenProject = "FB Form"
	FallbackDirectProject  = "Direct Webhook"
)

// ProjectTables is the on-disk shape of the project lookup file.
//
//	forms:
//	  "1234567890": Riviera Uno
//	canonical:
//	  RIVIERA UNO: Riviera Uno
type ProjectTables struct {
	Forms     map[string]string `yaml:"forms"`
	Canonical map[string]string `yaml:"canonical"`
}

// ProjectResolver maps external form ids to project names and canonicalises
// spelling before storage.
type ProjectResolver struct {
	forms     map[string]string
	formKeys  []string
	canonical map[string]string
}

// NewProjectResolver indexes the tables. Canonical keys are uppercased.
func NewProjectResolver(t ProjectTables) *ProjectResolver {
	r := &ProjectResolver{
		forms:     make(map[string]string, len(t.Forms)),
		canonical: make(map[string]string, len(t.Canonical)),
	}
	for k, v := range t.Forms {
		r.forms[k] = v
		r.formKeys = append(r.formKeys, k)
	}
	// Deterministic order for containment matching.
	sort.Strings(r.formKeys)
	for k, v := range t.Canonical {
		r.canonical[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	return r
}

// LoadProjectTables reads a YAML file. An empty path yields empty tables.
func LoadProjectTables(path string) (ProjectTables, error) {
	var t ProjectTables
	if strings.TrimSpace(path) == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read project tables: %w", err)
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("parse project tables: %w", err)
	}
	return t, nil
}

// ResolveForm looks formID up by exact key, then by substring containment in
// either direction, then returns fallback.
func (r *ProjectResolver) ResolveForm(formID, fallback string) string {
	id := strings.TrimSpace(formID)
	if id == "" {
		return fallback
	}
	if p, ok := r.forms[id]; ok {
		return p
	}
	for _, k := range r.formKeys {
		if strings.Contains(id, k) || strings.Contains(k, id) {
			return r.forms[k]
		}
	}
	return fallback
}

// Canonicalize returns the canonical spelling for name, matched on the
// uppercase form, or the title-cased name when no entry exists.
func (r *ProjectResolver) Canonicalize(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ""
	}
	if c, ok := r.canonical[strings.ToUpper(trimmed)]; ok {
		return c
	}
	// Casers keep state, so each call gets its own.
	return cases.Title(language.English).String(trimmed)
}
