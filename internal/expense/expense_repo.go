// Package expense is the engine's write-only view of the company's expense
// ledger. One record is created per finalized payroll period; nothing here
// is ever updated or deleted by payroll.
package expense

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Record struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PeriodID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_expense_period"`
	AmountCents int64     `gorm:"type:bigint;not null"`
	PaidAt      time.Time `gorm:"type:date;not null"`
	Memo        string    `gorm:"type:text;not null"`
	CreatedAt   time.Time
}

func (Record) TableName() string {
	return "expense_records"
}

//go:generate mockgen -source=expense_repo.go -destination=mock/expense_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	ExistsForPeriod(ctx context.Context, periodID uuid.UUID) (bool, error)
	Create(ctx context.Context, record *Record) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: tx}), &gorm.Config{})
	if err != nil {
		zap.L().Error("bind expense repository to transaction failed", zap.Error(err))
		return r
	}
	return &repository{db: gdb}
}

func (r *repository) ExistsForPeriod(ctx context.Context, periodID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Record{}).
		Where("period_id = ?", periodID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) Create(ctx context.Context, record *Record) error {
	return r.db.WithContext(ctx).Create(record).Error
}
