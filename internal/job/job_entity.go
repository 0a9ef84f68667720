// Package job reads completed-work facts from the operations side of the
// platform. Job records are never mutated by the payroll engine.
package job

import (
	"time"

	"github.com/google/uuid"
)

const StatusCompleted = "completed"

type Job struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ServiceDate     time.Time  `gorm:"type:date;not null;index"`
	LocationID      *uuid.UUID `gorm:"type:uuid"`
	ClientID        *uuid.UUID `gorm:"type:uuid"`
	Status          string     `gorm:"type:varchar(20);not null;index"`
	DurationMinutes *int       `gorm:"type:int"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (Job) TableName() string {
	return "jobs"
}

type jobEmployee struct {
	JobID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	EmployeeID uuid.UUID `gorm:"type:uuid;primaryKey"`
}

func (jobEmployee) TableName() string {
	return "job_employees"
}

// Assignment is one (job, assigned employee) pair, the unit the
// synchronizer pays out. Derived from job records; not persisted itself.
type Assignment struct {
	EmployeeID      uuid.UUID
	JobID           uuid.UUID
	ServiceDate     time.Time
	LocationID      *uuid.UUID
	ClientID        *uuid.UUID
	DurationMinutes *int
}
