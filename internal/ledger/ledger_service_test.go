package ledger_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/ledger"
	ledgererrors "github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/ledger/errors"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/payperiod"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeLedgerRepository struct {
	withTxFn                func(tx *sql.Tx) ledger.Repository
	findPeriodByKeyFn       func(ctx context.Context, key string) (*ledger.PayrollPeriod, error)
	findPeriodByIDFn        func(ctx context.Context, id uuid.UUID) (*ledger.PayrollPeriod, error)
	lockPeriodByIDFn        func(ctx context.Context, id uuid.UUID) (*ledger.PayrollPeriod, error)
	createPeriodFn          func(ctx context.Context, period *ledger.PayrollPeriod) error
	updatePeriodTotalsFn    func(ctx context.Context, id uuid.UUID, grossCents, deductionCents, netCents int64) error
	setPeriodFinalizedFn    func(ctx context.Context, id uuid.UUID, finalizedBy string, at time.Time) (bool, error)
	listPeriodsFn           func(ctx context.Context, from, to time.Time) ([]ledger.PayrollPeriod, error)
	createEntryFn           func(ctx context.Context, entry *ledger.PayrollEntry) error
	findEntryByIDFn         func(ctx context.Context, id uuid.UUID) (*ledger.PayrollEntry, error)
	lockEntryByIDFn         func(ctx context.Context, id uuid.UUID) (*ledger.PayrollEntry, error)
	updateEntryFn           func(ctx context.Context, entry *ledger.PayrollEntry) error
	listEntriesByPeriodFn   func(ctx context.Context, periodID uuid.UUID) ([]ledger.PayrollEntry, bool, error)
	sumEntryAmountsFn       func(ctx context.Context, periodID uuid.UUID) (int64, int64, error)
	deleteEntriesBySourceFn func(ctx context.Context, periodID uuid.UUID, sources []ledger.Source) (int64, error)
	jobEntryExistsFn        func(ctx context.Context, jobID, employeeID uuid.UUID, category ledger.Category) (bool, error)
}

func (f *fakeLedgerRepository) WithTx(tx *sql.Tx) ledger.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeLedgerRepository) FindPeriodByKey(ctx context.Context, key string) (*ledger.PayrollPeriod, error) {
	if f.findPeriodByKeyFn != nil {
		return f.findPeriodByKeyFn(ctx, key)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLedgerRepository) FindPeriodByID(ctx context.Context, id uuid.UUID) (*ledger.PayrollPeriod, error) {
	if f.findPeriodByIDFn != nil {
		return f.findPeriodByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLedgerRepository) LockPeriodByID(ctx context.Context, id uuid.UUID) (*ledger.PayrollPeriod, error) {
	if f.lockPeriodByIDFn != nil {
		return f.lockPeriodByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLedgerRepository) CreatePeriod(ctx context.Context, period *ledger.PayrollPeriod) error {
	if f.createPeriodFn != nil {
		return f.createPeriodFn(ctx, period)
	}
	return nil
}

func (f *fakeLedgerRepository) UpdatePeriodTotals(ctx context.Context, id uuid.UUID, grossCents, deductionCents, netCents int64) error {
	if f.updatePeriodTotalsFn != nil {
		return f.updatePeriodTotalsFn(ctx, id, grossCents, deductionCents, netCents)
	}
	return nil
}

func (f *fakeLedgerRepository) SetPeriodFinalized(ctx context.Context, id uuid.UUID, finalizedBy string, at time.Time) (bool, error) {
	if f.setPeriodFinalizedFn != nil {
		return f.setPeriodFinalizedFn(ctx, id, finalizedBy, at)
	}
	return true, nil
}

func (f *fakeLedgerRepository) ListPeriods(ctx context.Context, from, to time.Time) ([]ledger.PayrollPeriod, error) {
	if f.listPeriodsFn != nil {
		return f.listPeriodsFn(ctx, from, to)
	}
	return nil, nil
}

func (f *fakeLedgerRepository) CreateEntry(ctx context.Context, entry *ledger.PayrollEntry) error {
	if f.createEntryFn != nil {
		return f.createEntryFn(ctx, entry)
	}
	return nil
}

func (f *fakeLedgerRepository) FindEntryByID(ctx context.Context, id uuid.UUID) (*ledger.PayrollEntry, error) {
	if f.findEntryByIDFn != nil {
		return f.findEntryByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLedgerRepository) LockEntryByID(ctx context.Context, id uuid.UUID) (*ledger.PayrollEntry, error) {
	if f.lockEntryByIDFn != nil {
		return f.lockEntryByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLedgerRepository) UpdateEntry(ctx context.Context, entry *ledger.PayrollEntry) error {
	if f.updateEntryFn != nil {
		return f.updateEntryFn(ctx, entry)
	}
	return nil
}

func (f *fakeLedgerRepository) ListEntriesByPeriod(ctx context.Context, periodID uuid.UUID) ([]ledger.PayrollEntry, bool, error) {
	if f.listEntriesByPeriodFn != nil {
		return f.listEntriesByPeriodFn(ctx, periodID)
	}
	return nil, true, nil
}

func (f *fakeLedgerRepository) SumEntryAmounts(ctx context.Context, periodID uuid.UUID) (int64, int64, error) {
	if f.sumEntryAmountsFn != nil {
		return f.sumEntryAmountsFn(ctx, periodID)
	}
	return 0, 0, nil
}

func (f *fakeLedgerRepository) DeleteEntriesBySource(ctx context.Context, periodID uuid.UUID, sources []ledger.Source) (int64, error) {
	if f.deleteEntriesBySourceFn != nil {
		return f.deleteEntriesBySourceFn(ctx, periodID, sources)
	}
	return 0, nil
}

func (f *fakeLedgerRepository) JobEntryExists(ctx context.Context, jobID, employeeID uuid.UUID, category ledger.Category) (bool, error) {
	if f.jobEntryExistsFn != nil {
		return f.jobEntryExistsFn(ctx, jobID, employeeID, category)
	}
	return false, nil
}

type ledgerServiceDeps struct {
	db      *sql.DB
	sqlMock sqlmock.Sqlmock
	service ledger.Service
	repo    *fakeLedgerRepository
}

func setupLedgerServiceTest(t *testing.T) *ledgerServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := &fakeLedgerRepository{}
	svc := ledger.NewService(db, repo, nil)

	return &ledgerServiceDeps{db: db, sqlMock: sqlMock, service: svc, repo: repo}
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func draftPeriod(p payperiod.Period) *ledger.PayrollPeriod {
	return &ledger.PayrollPeriod{
		ID:              uuid.New(),
		PeriodKey:       p.Key,
		WorkPeriodStart: p.WorkStart,
		WorkPeriodEnd:   p.WorkEnd,
		PayDate:         p.PayDate,
		Status:          ledger.StatusDraft,
	}
}

func TestLedgerService_EnsurePeriod(t *testing.T) {
	ctx := context.Background()
	p := payperiod.For(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), payperiod.DefaultAnchor)

	t.Run("creates when absent", func(t *testing.T) {
		deps := setupLedgerServiceTest(t)
		defer deps.db.Close()

		var created *ledger.PayrollPeriod
		deps.repo.createPeriodFn = func(ctx context.Context, period *ledger.PayrollPeriod) error {
			created = period
			return nil
		}

		got, err := deps.service.EnsurePeriod(ctx, p)

		assert.NoError(t, err)
		assert.NotNil(t, created)
		assert.Equal(t, p.Key, got.PeriodKey)
		assert.Equal(t, ledger.StatusDraft, got.Status)
		assert.Equal(t, p.PayDate, got.PayDate)
	})

	t.Run("returns existing without creating", func(t *testing.T) {
		deps := setupLedgerServiceTest(t)
		defer deps.db.Close()

		existing := draftPeriod(p)
		deps.repo.findPeriodByKeyFn = func(ctx context.Context, key string) (*ledger.PayrollPeriod, error) {
			return existing, nil
		}
		deps.repo.createPeriodFn = func(ctx context.Context, period *ledger.PayrollPeriod) error {
			t.Fatal("create should not be called")
			return nil
		}

		got, err := deps.service.EnsurePeriod(ctx, p)

		assert.NoError(t, err)
		assert.Equal(t, existing.ID, got.ID)
	})

	t.Run("lost create race resolves by re-read", func(t *testing.T) {
		deps := setupLedgerServiceTest(t)
		defer deps.db.Close()

		winner := draftPeriod(p)
		reads := 0
		deps.repo.findPeriodByKeyFn = func(ctx context.Context, key string) (*ledger.PayrollPeriod, error) {
			reads++
			if reads == 1 {
				return nil, gorm.ErrRecordNotFound
			}
			return winner, nil
		}
		deps.repo.createPeriodFn = func(ctx context.Context, period *ledger.PayrollPeriod) error {
			return assert.AnError
		}

		got, err := deps.service.EnsurePeriod(ctx, p)

		assert.NoError(t, err)
		assert.Equal(t, winner.ID, got.ID)
	})

	t.Run("create denied with no row to fall back on", func(t *testing.T) {
		deps := setupLedgerServiceTest(t)
		defer deps.db.Close()

		deps.repo.createPeriodFn = func(ctx context.Context, period *ledger.PayrollPeriod) error {
			return &pgconn.PgError{Code: "42501", Message: "permission denied for table payroll_periods"}
		}

		got, err := deps.service.EnsurePeriod(ctx, p)

		assert.Nil(t, got)
		assert.ErrorIs(t, err, ledgererrors.ErrPeriodCreateDenied)
	})
}

func TestLedgerService_AddEntry(t *testing.T) {
	ctx := context.Background()
	p := payperiod.For(time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), payperiod.DefaultAnchor)
	employeeID := uuid.New()

	t.Run("rejects invalid category for type", func(t *testing.T) {
		deps := setupLedgerServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.AddEntry(ctx, ledger.AddEntryInput{
			Period:      p,
			EmployeeID:  employeeID,
			Type:        ledger.TypeEarning,
			Category:    ledger.CategoryUniform,
			AmountCents: 5000,
			Source:      ledger.SourceManual,
		})

		assert.ErrorIs(t, err, ledgererrors.ErrInvalidCategory)
	})

	t.Run("deduction stored negative, totals updated", func(t *testing.T) {
		deps := setupLedgerServiceTest(t)
		defer deps.db.Close()

		period := draftPeriod(p)
		period.GrossCents = 10000
		period.NetCents = 10000

		deps.repo.findPeriodByKeyFn = func(ctx context.Context, key string) (*ledger.PayrollPeriod, error) {
			return period, nil
		}
		deps.repo.lockPeriodByIDFn = func(ctx context.Context, id uuid.UUID) (*ledger.PayrollPeriod, error) {
			return period, nil
		}

		var createdEntry *ledger.PayrollEntry
		deps.repo.createEntryFn = func(ctx context.Context, entry *ledger.PayrollEntry) error {
			createdEntry = entry
			return nil
		}
		var gotGross, gotDeduction, gotNet int64
		deps.repo.updatePeriodTotalsFn = func(ctx context.Context, id uuid.UUID, grossCents, deductionCents, netCents int64) error {
			gotGross, gotDeduction, gotNet = grossCents, deductionCents, netCents
			return nil
		}

		expectTx(t, deps.sqlMock, true)
		entryID, err := deps.service.AddEntry(ctx, ledger.AddEntryInput{
			Period:      p,
			EmployeeID:  employeeID,
			Type:        ledger.TypeDeduction,
			Category:    ledger.CategoryUniform,
			AmountCents: 2500,
			Source:      ledger.SourceManual,
		})

		assert.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, entryID)
		assert.Equal(t, int64(-2500), createdEntry.AmountCents)
		assert.Equal(t, int64(10000), gotGross)
		assert.Equal(t, int64(2500), gotDeduction)
		assert.Equal(t, int64(7500), gotNet)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("earning magnitude kept positive even when passed negative", func(t *testing.T) {
		deps := setupLedgerServiceTest(t)
		defer deps.db.Close()

		period := draftPeriod(p)
		deps.repo.findPeriodByKeyFn = func(ctx context.Context, key string) (*ledger.PayrollPeriod, error) {
			return period, nil
		}
		deps.repo.lockPeriodByIDFn = func(ctx context.Context, id uuid.UUID) (*ledger.PayrollPeriod, error) {
			return period, nil
		}
		var createdEntry *ledger.PayrollEntry
		deps.repo.createEntryFn = func(ctx context.Context, entry *ledger.PayrollEntry) error {
			createdEntry = entry
			return nil
		}

		expectTx(t, deps.sqlMock, true)
		_, err := deps.service.AddEntry(ctx, ledger.AddEntryInput{
			Period:      p,
			EmployeeID:  employeeID,
			Type:        ledger.TypeEarning,
			Category:    ledger.CategoryPerVisit,
			AmountCents: -2500,
			Source:      ledger.SourceAutoJob,
		})

		assert.NoError(t, err)
		assert.Equal(t, int64(2500), createdEntry.AmountCents)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("finalized period rejects new entries", func(t *testing.T) {
		deps := setupLedgerServiceTest(t)
		defer deps.db.Close()

		period := draftPeriod(p)
		period.Status = ledger.StatusFinalized
		deps.repo.findPeriodByKeyFn = func(ctx context.Context, key string) (*ledger.PayrollPeriod, error) {
			return period, nil
		}
		deps.repo.lockPeriodByIDFn = func(ctx context.Context, id uuid.UUID) (*ledger.PayrollPeriod, error) {
			return period, nil
		}

		expectTx(t, deps.sqlMock, false)
		_, err := deps.service.AddEntry(ctx, ledger.AddEntryInput{
			Period:      p,
			EmployeeID:  employeeID,
			Type:        ledger.TypeEarning,
			Category:    ledger.CategoryPerVisit,
			AmountCents: 2500,
			Source:      ledger.SourceManual,
		})

		assert.ErrorIs(t, err, ledgererrors.ErrPeriodFinalized)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestLedgerService_RecalcTotals(t *testing.T) {
	ctx := context.Background()
	p := payperiod.For(time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC), payperiod.DefaultAnchor)

	t.Run("overwrites stored totals from entry sum", func(t *testing.T) {
		deps := setupLedgerServiceTest(t)
		defer deps.db.Close()

		period := draftPeriod(p)
		period.GrossCents = 999999 // stale
		deps.repo.lockPeriodByIDFn = func(ctx context.Context, id uuid.UUID) (*ledger.PayrollPeriod, error) {
			return period, nil
		}
		deps.repo.sumEntryAmountsFn = func(ctx context.Context, periodID uuid.UUID) (int64, int64, error) {
			return 120000, 12000, nil
		}
		var gotGross, gotDeduction, gotNet int64
		deps.repo.updatePeriodTotalsFn = func(ctx context.Context, id uuid.UUID, grossCents, deductionCents, netCents int64) error {
			gotGross, gotDeduction, gotNet = grossCents, deductionCents, netCents
			return nil
		}

		expectTx(t, deps.sqlMock, true)
		totals, err := deps.service.RecalcTotals(ctx, period.ID)

		assert.NoError(t, err)
		assert.Equal(t, ledger.Totals{GrossCents: 120000, DeductionCents: 12000, NetCents: 108000}, totals)
		assert.Equal(t, int64(120000), gotGross)
		assert.Equal(t, int64(12000), gotDeduction)
		assert.Equal(t, int64(108000), gotNet)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("recalc is a fixed point", func(t *testing.T) {
		deps := setupLedgerServiceTest(t)
		defer deps.db.Close()

		period := draftPeriod(p)
		deps.repo.lockPeriodByIDFn = func(ctx context.Context, id uuid.UUID) (*ledger.PayrollPeriod, error) {
			return period, nil
		}
		deps.repo.sumEntryAmountsFn = func(ctx context.Context, periodID uuid.UUID) (int64, int64, error) {
			return 50000, 5000, nil
		}
		deps.repo.updatePeriodTotalsFn = func(ctx context.Context, id uuid.UUID, grossCents, deductionCents, netCents int64) error {
			period.GrossCents, period.DeductionCents, period.NetCents = grossCents, deductionCents, netCents
			return nil
		}

		expectTx(t, deps.sqlMock, true)
		first, err := deps.service.RecalcTotals(ctx, period.ID)
		assert.NoError(t, err)

		expectTx(t, deps.sqlMock, true)
		second, err := deps.service.RecalcTotals(ctx, period.ID)
		assert.NoError(t, err)

		assert.Equal(t, first, second)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("finalized period returns stored totals untouched", func(t *testing.T) {
		deps := setupLedgerServiceTest(t)
		defer deps.db.Close()

		period := draftPeriod(p)
		period.Status = ledger.StatusFinalized
		period.GrossCents = 70000
		period.DeductionCents = 7000
		period.NetCents = 63000
		deps.repo.lockPeriodByIDFn = func(ctx context.Context, id uuid.UUID) (*ledger.PayrollPeriod, error) {
			return period, nil
		}
		deps.repo.updatePeriodTotalsFn = func(ctx context.Context, id uuid.UUID, grossCents, deductionCents, netCents int64) error {
			t.Fatal("finalized totals must not be rewritten")
			return nil
		}

		expectTx(t, deps.sqlMock, true)
		totals, err := deps.service.RecalcTotals(ctx, period.ID)

		assert.NoError(t, err)
		assert.Equal(t, ledger.Totals{GrossCents: 70000, DeductionCents: 7000, NetCents: 63000}, totals)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestLedgerService_OverrideAmount(t *testing.T) {
	ctx := context.Background()
	p := payperiod.For(time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC), payperiod.DefaultAnchor)

	t.Run("original amount survives repeated overrides", func(t *testing.T) {
		deps := setupLedgerServiceTest(t)
		defer deps.db.Close()

		period := draftPeriod(p)
		period.GrossCents = 5000
		period.NetCents = 5000
		entry := &ledger.PayrollEntry{
			ID:          uuid.New(),
			PeriodID:    period.ID,
			EmployeeID:  uuid.New(),
			Type:        ledger.TypeEarning,
			Category:    ledger.CategoryPerVisit,
			AmountCents: 5000,
		}

		deps.repo.lockEntryByIDFn = func(ctx context.Context, id uuid.UUID) (*ledger.PayrollEntry, error) {
			return entry, nil
		}
		deps.repo.lockPeriodByIDFn = func(ctx context.Context, id uuid.UUID) (*ledger.PayrollPeriod, error) {
			return period, nil
		}
		deps.repo.updateEntryFn = func(ctx context.Context, e *ledger.PayrollEntry) error {
			entry = e
			return nil
		}
		deps.repo.updatePeriodTotalsFn = func(ctx context.Context, id uuid.UUID, grossCents, deductionCents, netCents int64) error {
			period.GrossCents, period.DeductionCents, period.NetCents = grossCents, deductionCents, netCents
			return nil
		}

		// $50.00 -> $40.00
		expectTx(t, deps.sqlMock, true)
		err := deps.service.OverrideAmount(ctx, entry.ID, 4000, "supervisor-1", "shortened visit")
		assert.NoError(t, err)
		assert.Equal(t, int64(4000), entry.AmountCents)
		assert.NotNil(t, entry.OriginalAmountCents)
		assert.Equal(t, int64(5000), *entry.OriginalAmountCents)
		assert.Equal(t, int64(4000), period.GrossCents)
		assert.Equal(t, int64(4000), period.NetCents)

		// $40.00 -> $45.00; original still the pre-override $50.00
		expectTx(t, deps.sqlMock, true)
		err = deps.service.OverrideAmount(ctx, entry.ID, 4500, "supervisor-1", "")
		assert.NoError(t, err)
		assert.Equal(t, int64(4500), entry.AmountCents)
		assert.Equal(t, int64(5000), *entry.OriginalAmountCents)
		assert.Equal(t, int64(4500), period.GrossCents)
		assert.Equal(t, int64(4500), period.NetCents)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("override on finalized period is rejected", func(t *testing.T) {
		deps := setupLedgerServiceTest(t)
		defer deps.db.Close()

		period := draftPeriod(p)
		period.Status = ledger.StatusFinalized
		entry := &ledger.PayrollEntry{ID: uuid.New(), PeriodID: period.ID, Type: ledger.TypeEarning, AmountCents: 5000}

		deps.repo.lockEntryByIDFn = func(ctx context.Context, id uuid.UUID) (*ledger.PayrollEntry, error) {
			return entry, nil
		}
		deps.repo.lockPeriodByIDFn = func(ctx context.Context, id uuid.UUID) (*ledger.PayrollPeriod, error) {
			return period, nil
		}

		expectTx(t, deps.sqlMock, false)
		err := deps.service.OverrideAmount(ctx, entry.ID, 4000, "supervisor-1", "late change")

		assert.ErrorIs(t, err, ledgererrors.ErrPeriodFinalized)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("unknown entry", func(t *testing.T) {
		deps := setupLedgerServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		err := deps.service.OverrideAmount(ctx, uuid.New(), 4000, "supervisor-1", "")

		assert.ErrorIs(t, err, ledgererrors.ErrEntryNotFound)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestLedgerService_GetPeriodByKey_NotFound(t *testing.T) {
	deps := setupLedgerServiceTest(t)
	defer deps.db.Close()

	_, _, err := deps.service.GetPeriodByKey(context.Background(), "2026-07-20")

	assert.ErrorIs(t, err, ledgererrors.ErrPeriodNotFound)
}
