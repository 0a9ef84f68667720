package ledger

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusDraft     = "draft"
	StatusFinalized = "finalized"

	TypeEarning   = "earning"
	TypeDeduction = "deduction"
)

// Category describes what an entry pays for or withholds.
type Category string

const (
	CategoryPerVisit Category = "per_visit"
	CategoryHourly   Category = "hourly"
	CategoryMonthly  Category = "monthly"

	CategoryMissedDay        Category = "missed_day"
	CategoryUniform          Category = "uniform"
	CategorySupplies         Category = "supplies"
	CategoryAdvance          Category = "advance"
	CategoryManualAdjustment Category = "manual_adjustment"
	CategoryOther            Category = "other"
)

var earningCategories = map[Category]bool{
	CategoryPerVisit: true,
	CategoryHourly:   true,
	CategoryMonthly:  true,
}

var deductionCategories = map[Category]bool{
	CategoryMissedDay:        true,
	CategoryUniform:          true,
	CategorySupplies:         true,
	CategoryAdvance:          true,
	CategoryManualAdjustment: true,
	CategoryOther:            true,
}

// ValidCategory reports whether the category belongs to the entry type's
// allowed set.
func ValidCategory(entryType string, c Category) bool {
	switch entryType {
	case TypeEarning:
		return earningCategories[c]
	case TypeDeduction:
		return deductionCategories[c]
	default:
		return false
	}
}

// Source tags who created an entry, so auto-managed entries can be found
// and replaced in bulk without touching manual ones.
type Source string

const (
	SourceManual          Source = "manual"
	SourceAutoJob         Source = "auto:job"
	SourceAutoMonthlyBase Source = "auto:monthly_base"
	SourceAutoMissedDay   Source = "auto:missed_day"
	SourceRateRefresh     Source = "system:rate_refresh"
)

// NormalizeAmount applies the signed-storage convention: earnings positive,
// deductions negative. Summing entry amounts then yields net directly.
func NormalizeAmount(entryType string, cents int64) int64 {
	if cents < 0 {
		cents = -cents
	}
	if entryType == TypeDeduction {
		return -cents
	}
	return cents
}

// PayrollPeriod is one semi-monthly pay cycle with its running totals. All
// money is int64 cents. Periods are created lazily on first reference and
// never deleted; after finalization they are read-only.
type PayrollPeriod struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PeriodKey       string    `gorm:"type:varchar(20);not null;uniqueIndex:uq_payroll_period_key"`
	WorkPeriodStart time.Time `gorm:"type:date;not null"`
	WorkPeriodEnd   time.Time `gorm:"type:date;not null"`
	PayDate         time.Time `gorm:"type:date;not null;index"`

	GrossCents     int64 `gorm:"type:bigint;not null;default:0"`
	DeductionCents int64 `gorm:"type:bigint;not null;default:0"`
	NetCents       int64 `gorm:"type:bigint;not null;default:0"`

	Status      string     `gorm:"type:varchar(20);not null;default:'draft';index"`
	FinalizedBy *string    `gorm:"type:varchar(120)"`
	FinalizedAt *time.Time `gorm:"index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (PayrollPeriod) TableName() string {
	return "payroll_periods"
}

// PayrollEntry is one signed ledger line. The rate snapshot captures the
// rate actually used at creation time, immune to later rate-table edits.
// The partial unique index on (job_id, employee_id, category) closes the
// dedupe window for job-derived earnings.
type PayrollEntry struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PeriodID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	EmployeeID uuid.UUID  `gorm:"type:uuid;not null;index;index:uq_payroll_entry_job,unique,where:job_id IS NOT NULL"`
	JobID      *uuid.UUID `gorm:"type:uuid;index:uq_payroll_entry_job,unique,where:job_id IS NOT NULL"`

	Type        string   `gorm:"type:varchar(12);not null"`
	Category    Category `gorm:"type:varchar(24);not null;index:uq_payroll_entry_job,unique,where:job_id IS NOT NULL"`
	AmountCents int64    `gorm:"type:bigint;not null"`

	Hours *float64 `gorm:"type:numeric(8,2)"`
	Units *int     `gorm:"type:int"`

	RateType        string `gorm:"type:varchar(12)"`
	RateAmountCents int64  `gorm:"type:bigint;not null;default:0"`

	Source Source `gorm:"type:varchar(32);not null;index"`

	// Override audit trail. OriginalAmountCents is fixed at the first
	// override and never overwritten by subsequent ones.
	OriginalAmountCents *int64     `gorm:"type:bigint"`
	AdjustedBy          *string    `gorm:"type:varchar(120)"`
	AdjustedAt          *time.Time ``
	AdjustReason        *string    `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (PayrollEntry) TableName() string {
	return "payroll_entries"
}
