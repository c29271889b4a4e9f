// Package assignment hands unassigned leads to active agents in strict
// round-robin order.
package assignment

import (
	"strings"

	"leadops_backend/internal/leads/domain"
	"leadops_backend/internal/team"
	"leadops_backend/internal/timetracking"
)

// Pick is one planned lead to agent hand-off. Cursor is the value to
// persist once the pick has been written.
type Pick struct {
	Lead   domain.Lead
	Agent  team.Agent
	Cursor int64
}

// ActiveAgents keeps Active agents in roster order.
func ActiveAgents(agents []team.Agent) []team.Agent {
	active := make([]team.Agent, 0, len(agents))
	for _, a := range agents {
		if strings.EqualFold(strings.TrimSpace(a.Status), timetracking.StatusActive) {
			active = append(active, a)
		}
	}
	return active
}

// Assign plans the hand-off of leads to active agents starting at
// active[cursor mod n]. It returns the picks and the cursor after the last
// pick. With no active agent nothing is planned and the cursor is unchanged.
func Assign(unassigned []domain.Lead, agents []team.Agent, cursor int64) ([]Pick, int64) {
	active := ActiveAgents(agents)
	n := int64(len(active))
	if n == 0 {
		return nil, cursor
	}

	picks := make([]Pick, 0, len(unassigned))
	for _, lead := range unassigned {
		if !lead.IsUnassigned() {
			continue
		}
		idx := ((cursor % n) + n) % n
		cursor++
		picks = append(picks, Pick{Lead: lead, Agent: active[idx], Cursor: cursor})
	}
	return picks, cursor
}
