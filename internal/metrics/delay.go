package metrics

import (
	"strings"
	"time"

	"leadops_backend/internal/leads/domain"
)

// CallDelayThreshold is how long an agent has to call before a lead is
// marked Delayed.
const CallDelayThreshold = 10 * time.Minute

var onTimeOutcomes = map[string]bool{
	"yes":          true,
	"incorrect":    true,
	"not answered": true,
}

// ClassifyDelay decides a lead's call delay status at now. ok is false when
// the lead is not eligible or must be looked at again later.
func ClassifyDelay(l domain.Lead, now time.Time) (status string, ok bool) {
	if strings.TrimSpace(l.AssignedTo) == "" || l.AssignedTime == nil {
		return "", false
	}
	if domain.IsClassified(l.CallDelayStatus) {
		return "", false
	}
	if onTimeOutcomes[strings.ToLower(strings.TrimSpace(l.Called))] {
		return domain.DelayOnTime, true
	}
	if now.Sub(*l.AssignedTime) >= CallDelayThreshold {
		return domain.DelayDelayed, true
	}
	return "", false
}
