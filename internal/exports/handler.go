package exports

import (
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"leadops_backend/internal/leads/domain"
	"leadops_backend/internal/leads/schema"
	"leadops_backend/platform/httpkit"
	"leadops_backend/platform/phone"

	"github.com/gin-gonic/gin"
)

const (
	dateLayout   = "2006-01-02"
	defaultLimit = 5000
	maxLimit     = 50000
)

// LeadLister lists leads in storage order.
type LeadLister interface {
	List(ctx context.Context) ([]domain.Lead, error)
}

// Filter narrows an export. From and To bound the assignment time and
// exclude unassigned leads when set.
type Filter struct {
	Project  string
	Assignee string
	From     *time.Time
	To       *time.Time
	Limit    int
}

// Handler streams lead exports.
type Handler struct {
	leads LeadLister
	loc   *time.Location
}

// NewHandler creates a new export handler. Dates are read in loc.
func NewHandler(leads LeadLister, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{leads: leads, loc: loc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/exports/leads.csv", h.ExportLeadsCSV)
}

// ExportLeadsCSV writes matching leads with the lead table header. With
// enhanced=true two columns of SHA-256 hashed email and E.164 phone are
// appended for ad platform uploads.
func (h *Handler) ExportLeadsCSV(c *gin.Context) {
	f, err := h.parseFilter(c)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid export filter", err.Error())
		return
	}
	enhanced := parseBool(c.Query("enhanced"))

	leads, err := h.leads.List(c.Request.Context())
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to load leads", nil)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=leads.csv")

	writer := csv.NewWriter(c.Writer)
	if err := writer.Write(csvHeaders(enhanced)); err != nil {
		return
	}
	for _, l := range Select(leads, f) {
		if err := writer.Write(csvRow(l, enhanced)); err != nil {
			return
		}
	}
	writer.Flush()
}

// Select applies f, keeping storage order.
func Select(leads []domain.Lead, f Filter) []domain.Lead {
	out := make([]domain.Lead, 0, len(leads))
	for _, l := range leads {
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
		if f.Project != "" && !strings.EqualFold(strings.TrimSpace(l.Project), f.Project) {
			continue
		}
		if f.Assignee != "" && !strings.Contains(strings.ToLower(l.AssignedEmail), f.Assignee) {
			continue
		}
		if f.From != nil || f.To != nil {
			if l.AssignedTime == nil {
				continue
			}
			if f.From != nil && l.AssignedTime.Before(*f.From) {
				continue
			}
			if f.To != nil && l.AssignedTime.After(*f.To) {
				continue
			}
		}
		out = append(out, l)
	}
	return out
}

func (h *Handler) parseFilter(c *gin.Context) (Filter, error) {
	f := Filter{
		Project:  strings.TrimSpace(c.Query("project")),
		Assignee: strings.ToLower(strings.TrimSpace(c.Query("assignee"))),
		Limit:    parseLimit(c.Query("limit")),
	}
	if raw := strings.TrimSpace(c.Query("fromDate")); raw != "" {
		from, err := time.ParseInLocation(dateLayout, raw, h.loc)
		if err != nil {
			return Filter{}, err
		}
		f.From = &from
	}
	if raw := strings.TrimSpace(c.Query("toDate")); raw != "" {
		to, err := time.ParseInLocation(dateLayout, raw, h.loc)
		if err != nil {
			return Filter{}, err
		}
		end := to.Add(24*time.Hour - time.Nanosecond)
		f.To = &end
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return Filter{}, fmt.Errorf("toDate before fromDate")
	}
	return f, nil
}

func csvHeaders(enhanced bool) []string {
	headers := schema.Leads.Labels()
	if enhanced {
		headers = append(headers, "Hashed Email", "Hashed Phone")
	}
	return headers
}

func csvRow(l domain.Lead, enhanced bool) []string {
	row := schema.Leads.Row(l)
	fields := schema.Leads.Fields()
	out := make([]string, 0, len(fields)+2)
	for _, f := range fields {
		out = append(out, fmt.Sprint(row[f.Label]))
	}
	if enhanced {
		out = append(out, hashEmail(l.Email), hashPhone(l.Phone))
	}
	return out
}

func parseLimit(raw string) int {
	limit := defaultLimit
	if parsed, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && parsed > 0 {
		limit = parsed
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "y":
		return true
	default:
		return false
	}
}

func hashEmail(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return ""
	}
	if user, host, ok := strings.Cut(value, "@"); ok && (host == "gmail.com" || host == "googlemail.com") {
		user = strings.ReplaceAll(user, ".", "")
		if plus := strings.Index(user, "+"); plus >= 0 {
			user = user[:plus]
		}
		value = user + "@" + host
	}
	return sha256Hex(value)
}

func hashPhone(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	return sha256Hex(phone.NormalizeE164(value))
}

func sha256Hex(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
