package scheduler

import (
	"encoding/json"
	"fmt"

	"leadops_backend/internal/maintenance"

	"github.com/hibiken/asynq"
)

const (
	TaskInboxPoll        = "leads.inbox.poll"
	TaskAssignLeads      = "leads.assign"
	TaskMarkCallDelays   = "leads.call_delays"
	TaskSweepBreaks      = "team.breaks.sweep"
	TaskRecomputeTracker = "metrics.tracker.recompute"
	TaskResetDailyBreaks = "team.breaks.reset"
	TriggerSchedule      = "schedule"
	TriggerLeadIngested  = "lead_ingested"
	TriggerManual        = "manual"
)

// taskJobs maps task types to the sweep they run.
var taskJobs = map[string]maintenance.Job{
	TaskInboxPoll:        maintenance.JobInboxPoll,
	TaskAssignLeads:      maintenance.JobAssign,
	TaskMarkCallDelays:   maintenance.JobCallDelays,
	TaskSweepBreaks:      maintenance.JobBreakSweep,
	TaskRecomputeTracker: maintenance.JobPerformance,
	TaskResetDailyBreaks: maintenance.JobBreakReset,
}

// SweepPayload records what caused a sweep task.
type SweepPayload struct {
	Trigger string `json:"trigger"`
}

func NewSweepTask(taskType, trigger string) (*asynq.Task, error) {
	if _, ok := taskJobs[taskType]; !ok {
		return nil, fmt.Errorf("unknown task type %q", taskType)
	}
	data, err := json.Marshal(SweepPayload{Trigger: trigger})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, data), nil
}

func ParseSweepPayload(task *asynq.Task) (SweepPayload, error) {
	var payload SweepPayload
	if len(task.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return SweepPayload{}, err
	}
	return payload, nil
}
