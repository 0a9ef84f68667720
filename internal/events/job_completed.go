package events

import "time"

const JobCompletedTopic = "ops.job.completed.v1"

// JobCompletedEvent is published by the operations side when a job's
// status flips to completed; the payroll consumer reacts by syncing the
// job into the ledger.
type JobCompletedEvent struct {
	EventType  string    `json:"event_type"`
	JobID      string    `json:"job_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
