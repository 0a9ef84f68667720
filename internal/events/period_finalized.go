package events

import "time"

const PeriodFinalizedTopic = "payroll.period.finalized.v1"

type PeriodFinalizedEvent struct {
	EventType   string    `json:"event_type"`
	PeriodKey   string    `json:"period_key"`
	NetCents    int64     `json:"net_cents"`
	PayDate     string    `json:"pay_date"`
	FinalizedBy string    `json:"finalized_by"`
	OccurredAt  time.Time `json:"occurred_at"`
}
