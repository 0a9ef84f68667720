package rate

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// scopeKind selects which rate scope a lookup targets.
type scopeKind int

const (
	scopeLocation scopeKind = iota
	scopeClient
	scopeGlobal
)

//go:generate mockgen -source=rate_repo.go -destination=mock/rate_repo_mock.go -package=mock
type Repository interface {
	// FindEffective returns the most recently effective rate for the scope
	// with effective_date <= asOf, or nil when none exists.
	FindEffective(ctx context.Context, employeeID uuid.UUID, asOf time.Time, kind scopeKind, scopeID *uuid.UUID) (*EmployeeRate, error)
	// FindLegacy repeats the lookup for rows without an effective date,
	// ordered by record creation time instead.
	FindLegacy(ctx context.Context, employeeID uuid.UUID, kind scopeKind, scopeID *uuid.UUID) (*EmployeeRate, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func scopeCondition(q *gorm.DB, kind scopeKind, scopeID *uuid.UUID) *gorm.DB {
	switch kind {
	case scopeLocation:
		return q.Where("location_id = ?", scopeID)
	case scopeClient:
		return q.Where("client_id = ?", scopeID)
	default:
		return q.Where("location_id IS NULL AND client_id IS NULL")
	}
}

func (r *repository) FindEffective(ctx context.Context, employeeID uuid.UUID, asOf time.Time, kind scopeKind, scopeID *uuid.UUID) (*EmployeeRate, error) {
	q := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Where("effective_date IS NOT NULL AND effective_date <= ?", asOf)
	q = scopeCondition(q, kind, scopeID)

	var row EmployeeRate
	err := q.Order("effective_date DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) FindLegacy(ctx context.Context, employeeID uuid.UUID, kind scopeKind, scopeID *uuid.UUID) (*EmployeeRate, error) {
	q := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Where("effective_date IS NULL")
	q = scopeCondition(q, kind, scopeID)

	var row EmployeeRate
	err := q.Order("created_at DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
