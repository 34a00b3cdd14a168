package models

import (
	"fmt"
	"sort"
	"time"
)

// Action is the outcome of reconciling or processing one record.
type Action string

const (
	ActionCreated     Action = "Created"
	ActionUpdated     Action = "Updated"
	ActionUnchanged   Action = "Unchanged"
	ActionSkipped     Action = "Skipped"
	ActionFailed      Action = "Failed"
	ActionUnsupported Action = "Unsupported"
	ActionDeleted     Action = "Deleted"
)

// Stage names, in execution order.
const (
	StageEntities      = "entities"
	StageChecks        = "checks"
	StageNotifications = "notifications"
	StagePlans         = "notification_plans"
	StageAlarms        = "alarms"
	StagePurge         = "purge"
)

// ItemResult describes a single record considered during a run.
type ItemResult struct {
	Stage    string `json:"stage" yaml:"stage"`
	SourceID string `json:"source_id,omitempty" yaml:"source_id,omitempty"`
	TargetID string `json:"target_id,omitempty" yaml:"target_id,omitempty"`
	Label    string `json:"label" yaml:"label"`
	Action   Action `json:"action" yaml:"action"`
	Detail   string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Report holds every item result of a run.
type Report struct {
	RunID      string       `json:"run_id" yaml:"run_id"`
	Command    string       `json:"command" yaml:"command"`
	DryRun     bool         `json:"dry_run" yaml:"dry_run"`
	StartedAt  time.Time    `json:"started_at" yaml:"started_at"`
	FinishedAt *time.Time   `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	Items      []ItemResult `json:"items" yaml:"items"`
}

// Add appends an item result.
func (r *Report) Add(item ItemResult) {
	r.Items = append(r.Items, item)
}

// Finish stamps the completion time.
func (r *Report) Finish() {
	now := time.Now()
	r.FinishedAt = &now
}

// Count returns how many items of a stage ended with the given action.
// An empty stage counts across all stages.
func (r *Report) Count(stage string, action Action) int {
	n := 0
	for _, it := range r.Items {
		if (stage == "" || it.Stage == stage) && it.Action == action {
			n++
		}
	}
	return n
}

// Stages returns the stages present in the report, in execution order.
func (r *Report) Stages() []string {
	order := map[string]int{
		StageEntities: 0, StageChecks: 1, StageNotifications: 2,
		StagePlans: 3, StageAlarms: 4, StagePurge: 5,
	}
	seen := make(map[string]bool)
	var stages []string
	for _, it := range r.Items {
		if !seen[it.Stage] {
			seen[it.Stage] = true
			stages = append(stages, it.Stage)
		}
	}
	sort.SliceStable(stages, func(i, j int) bool { return order[stages[i]] < order[stages[j]] })
	return stages
}

// Summary returns a one-line count of actions for a stage.
func (r *Report) Summary(stage string) string {
	return fmt.Sprintf("%d created, %d updated, %d unchanged, %d skipped, %d failed",
		r.Count(stage, ActionCreated), r.Count(stage, ActionUpdated), r.Count(stage, ActionUnchanged),
		r.Count(stage, ActionSkipped)+r.Count(stage, ActionUnsupported), r.Count(stage, ActionFailed))
}
