package ledger

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=ledger_repo.go -destination=mock/ledger_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository

	FindPeriodByKey(ctx context.Context, key string) (*PayrollPeriod, error)
	FindPeriodByID(ctx context.Context, id uuid.UUID) (*PayrollPeriod, error)
	LockPeriodByID(ctx context.Context, id uuid.UUID) (*PayrollPeriod, error)
	CreatePeriod(ctx context.Context, period *PayrollPeriod) error
	UpdatePeriodTotals(ctx context.Context, id uuid.UUID, grossCents, deductionCents, netCents int64) error
	SetPeriodFinalized(ctx context.Context, id uuid.UUID, finalizedBy string, at time.Time) (bool, error)
	ListPeriods(ctx context.Context, from, to time.Time) ([]PayrollPeriod, error)

	CreateEntry(ctx context.Context, entry *PayrollEntry) error
	FindEntryByID(ctx context.Context, id uuid.UUID) (*PayrollEntry, error)
	LockEntryByID(ctx context.Context, id uuid.UUID) (*PayrollEntry, error)
	UpdateEntry(ctx context.Context, entry *PayrollEntry) error
	ListEntriesByPeriod(ctx context.Context, periodID uuid.UUID) ([]PayrollEntry, bool, error)
	SumEntryAmounts(ctx context.Context, periodID uuid.UUID) (grossCents, deductionCents int64, err error)
	DeleteEntriesBySource(ctx context.Context, periodID uuid.UUID, sources []Source) (int64, error)
	JobEntryExists(ctx context.Context, jobID, employeeID uuid.UUID, category Category) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx rebinds the repository onto an open *sql.Tx so every gorm call
// participates in the caller's transaction.
func (r *repository) WithTx(tx *sql.Tx) Repository {
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: tx}), &gorm.Config{})
	if err != nil {
		zap.L().Error("bind repository to transaction failed", zap.Error(err))
		return r
	}
	return &repository{db: gdb}
}

func (r *repository) FindPeriodByKey(ctx context.Context, key string) (*PayrollPeriod, error) {
	var period PayrollPeriod
	err := r.db.WithContext(ctx).
		First(&period, "period_key = ?", key).Error
	if err != nil {
		return nil, err
	}
	return &period, nil
}

func (r *repository) FindPeriodByID(ctx context.Context, id uuid.UUID) (*PayrollPeriod, error) {
	var period PayrollPeriod
	err := r.db.WithContext(ctx).
		First(&period, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &period, nil
}

// LockPeriodByID re-reads the period with FOR UPDATE so concurrent totals
// mutations serialize on the row instead of clobbering each other.
func (r *repository) LockPeriodByID(ctx context.Context, id uuid.UUID) (*PayrollPeriod, error) {
	var period PayrollPeriod
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&period, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &period, nil
}

func (r *repository) CreatePeriod(ctx context.Context, period *PayrollPeriod) error {
	return r.db.WithContext(ctx).Create(period).Error
}

func (r *repository) UpdatePeriodTotals(ctx context.Context, id uuid.UUID, grossCents, deductionCents, netCents int64) error {
	return r.db.WithContext(ctx).
		Model(&PayrollPeriod{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"gross_cents":     grossCents,
			"deduction_cents": deductionCents,
			"net_cents":       netCents,
		}).Error
}

// SetPeriodFinalized flips draft to finalized as a compare-and-set; the
// returned bool is false when the period was already finalized.
func (r *repository) SetPeriodFinalized(ctx context.Context, id uuid.UUID, finalizedBy string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&PayrollPeriod{}).
		Where("id = ? AND status = ?", id, StatusDraft).
		Updates(map[string]any{
			"status":       StatusFinalized,
			"finalized_by": finalizedBy,
			"finalized_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListPeriods returns every period whose work range intersects [from, to].
// The upper bound is inclusive so a period starting exactly on to is kept;
// the lower bound stays strict because work ranges are half-open.
func (r *repository) ListPeriods(ctx context.Context, from, to time.Time) ([]PayrollPeriod, error) {
	var periods []PayrollPeriod
	err := r.db.WithContext(ctx).
		Where("work_period_start <= ? AND work_period_end > ?", to, from).
		Order("work_period_start ASC").
		Find(&periods).Error
	return periods, err
}

func (r *repository) CreateEntry(ctx context.Context, entry *PayrollEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) FindEntryByID(ctx context.Context, id uuid.UUID) (*PayrollEntry, error) {
	var entry PayrollEntry
	err := r.db.WithContext(ctx).
		First(&entry, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) LockEntryByID(ctx context.Context, id uuid.UUID) (*PayrollEntry, error) {
	var entry PayrollEntry
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&entry, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) UpdateEntry(ctx context.Context, entry *PayrollEntry) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

// ListEntriesByPeriod prefers insertion order. If the ordered query fails
// (a fresh store may lack the index), it degrades to an unordered read and
// reports ordered=false so callers can tolerate arbitrary order.
func (r *repository) ListEntriesByPeriod(ctx context.Context, periodID uuid.UUID) ([]PayrollEntry, bool, error) {
	var entries []PayrollEntry
	err := r.db.WithContext(ctx).
		Where("period_id = ?", periodID).
		Order("created_at ASC").
		Find(&entries).Error
	if err == nil {
		return entries, true, nil
	}

	entries = nil
	if fallbackErr := r.db.WithContext(ctx).
		Where("period_id = ?", periodID).
		Find(&entries).Error; fallbackErr != nil {
		return nil, false, err
	}
	return entries, false, nil
}

func (r *repository) SumEntryAmounts(ctx context.Context, periodID uuid.UUID) (int64, int64, error) {
	var row struct {
		GrossCents     int64
		DeductionCents int64
	}
	err := r.db.WithContext(ctx).Raw(`
SELECT
	COALESCE(SUM(amount_cents) FILTER (WHERE amount_cents > 0), 0) AS gross_cents,
	COALESCE(-SUM(amount_cents) FILTER (WHERE amount_cents < 0), 0) AS deduction_cents
FROM payroll_entries
WHERE period_id = ?
`, periodID).Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.GrossCents, row.DeductionCents, nil
}

func (r *repository) DeleteEntriesBySource(ctx context.Context, periodID uuid.UUID, sources []Source) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("period_id = ? AND source IN ?", periodID, sources).
		Delete(&PayrollEntry{})
	return res.RowsAffected, res.Error
}

func (r *repository) JobEntryExists(ctx context.Context, jobID, employeeID uuid.UUID, category Category) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&PayrollEntry{}).
		Where("job_id = ? AND employee_id = ? AND category = ?", jobID, employeeID, category).
		Count(&count).Error
	return count > 0, err
}
