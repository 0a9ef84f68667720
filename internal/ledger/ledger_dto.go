package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateEntryRequest struct {
	EmployeeID  string   `json:"employee_id" binding:"required,uuid"`
	Date        string   `json:"date" binding:"required"`
	Type        string   `json:"type" binding:"required,oneof=earning deduction"`
	Category    string   `json:"category" binding:"required"`
	AmountCents int64    `json:"amount_cents" binding:"required,gt=0"`
	Hours       *float64 `json:"hours"`
	Units       *int     `json:"units"`
}

type OverrideEntryRequest struct {
	AmountCents int64  `json:"amount_cents" binding:"required,gt=0"`
	Reason      string `json:"reason"`
}

type PeriodResponse struct {
	ID              string `json:"id"`
	PeriodKey       string `json:"period_key"`
	WorkPeriodStart string `json:"work_period_start"`
	WorkPeriodEnd   string `json:"work_period_end"`
	PayDate         string `json:"pay_date"`
	Gross           string `json:"gross"`
	Deductions      string `json:"deductions"`
	Net             string `json:"net"`
	GrossCents      int64  `json:"gross_cents"`
	DeductionCents  int64  `json:"deduction_cents"`
	NetCents        int64  `json:"net_cents"`
	Status          string `json:"status"`
}

type OverrideResponse struct {
	OriginalAmountCents int64  `json:"original_amount_cents"`
	AdjustedBy          string `json:"adjusted_by"`
	AdjustedAt          string `json:"adjusted_at"`
	Reason              string `json:"reason,omitempty"`
}

type EntryResponse struct {
	ID          string            `json:"id"`
	PeriodID    string            `json:"period_id"`
	EmployeeID  string            `json:"employee_id"`
	JobID       *string           `json:"job_id,omitempty"`
	Type        string            `json:"type"`
	Category    string            `json:"category"`
	Amount      string            `json:"amount"`
	AmountCents int64             `json:"amount_cents"`
	Hours       *float64          `json:"hours,omitempty"`
	Units       *int              `json:"units,omitempty"`
	RateType    string            `json:"rate_type,omitempty"`
	RateCents   int64             `json:"rate_cents,omitempty"`
	Source      string            `json:"source"`
	Override    *OverrideResponse `json:"override,omitempty"`
	CreatedAt   string            `json:"created_at"`
}

type PeriodDetailResponse struct {
	Period  PeriodResponse  `json:"period"`
	Entries []EntryResponse `json:"entries"`
}

// dollars renders cents as a fixed two-decimal string.
func dollars(cents int64) string {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).StringFixed(2)
}

func mapPeriodToResponse(p PayrollPeriod) PeriodResponse {
	return PeriodResponse{
		ID:              p.ID.String(),
		PeriodKey:       p.PeriodKey,
		WorkPeriodStart: p.WorkPeriodStart.Format("2006-01-02"),
		WorkPeriodEnd:   p.WorkPeriodEnd.Format("2006-01-02"),
		PayDate:         p.PayDate.Format("2006-01-02"),
		Gross:           dollars(p.GrossCents),
		Deductions:      dollars(p.DeductionCents),
		Net:             dollars(p.NetCents),
		GrossCents:      p.GrossCents,
		DeductionCents:  p.DeductionCents,
		NetCents:        p.NetCents,
		Status:          p.Status,
	}
}

func mapEntryToResponse(e PayrollEntry) EntryResponse {
	resp := EntryResponse{
		ID:          e.ID.String(),
		PeriodID:    e.PeriodID.String(),
		EmployeeID:  e.EmployeeID.String(),
		Type:        e.Type,
		Category:    string(e.Category),
		Amount:      dollars(e.AmountCents),
		AmountCents: e.AmountCents,
		Hours:       e.Hours,
		Units:       e.Units,
		RateType:    e.RateType,
		RateCents:   e.RateAmountCents,
		Source:      string(e.Source),
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
	}

	if e.JobID != nil {
		v := e.JobID.String()
		resp.JobID = &v
	}

	if e.OriginalAmountCents != nil {
		override := &OverrideResponse{
			OriginalAmountCents: *e.OriginalAmountCents,
		}
		if e.AdjustedBy != nil {
			override.AdjustedBy = *e.AdjustedBy
		}
		if e.AdjustedAt != nil {
			override.AdjustedAt = e.AdjustedAt.Format(time.RFC3339)
		}
		if e.AdjustReason != nil {
			override.Reason = *e.AdjustReason
		}
		resp.Override = override
	}

	return resp
}
