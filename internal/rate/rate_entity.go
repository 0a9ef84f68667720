package rate

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypePerVisit = "per_visit"
	TypeHourly   = "hourly"
	TypeMonthly  = "monthly"
)

// EmployeeRate is one administrator-maintained pay rate. Rates are never
// mutated by the engine. EffectiveDate may be null on historical rows; the
// resolver has a legacy fallback for those. LegacyType/LegacyAmount carry
// values from old imports that predate the canonical columns.
type EmployeeRate struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	RateType      string     `gorm:"type:varchar(16)"`
	AmountCents   int64      `gorm:"type:bigint;not null;default:0"`
	EffectiveDate *time.Time `gorm:"type:date;index"`
	LocationID    *uuid.UUID `gorm:"type:uuid;index"`
	ClientID      *uuid.UUID `gorm:"type:uuid;index"`

	// Historical imports used free-form type names and dollar floats.
	LegacyType   *string  `gorm:"column:legacy_rate_type;type:varchar(32)"`
	LegacyAmount *float64 `gorm:"column:legacy_amount;type:numeric(12,2)"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (EmployeeRate) TableName() string {
	return "employee_rates"
}
