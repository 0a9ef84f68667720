package monthly_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/job"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/ledger"
	ledgererrors "github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/ledger/errors"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/monthly"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/payperiod"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/rate"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeJobRepository struct {
	jobs        []job.Job
	assignments map[uuid.UUID][]uuid.UUID // job id -> employee ids
}

func (f *fakeJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*job.Job, error) {
	for i := range f.jobs {
		if f.jobs[i].ID == id {
			return &f.jobs[i], nil
		}
	}
	return nil, nil
}

func (f *fakeJobRepository) ListByServiceDateRange(ctx context.Context, from, to time.Time) ([]job.Job, error) {
	var out []job.Job
	for _, j := range f.jobs {
		if !j.ServiceDate.Before(from) && j.ServiceDate.Before(to) {
			out = append(out, j)
		}
	}
	return out, nil
}

func (f *fakeJobRepository) Assignments(ctx context.Context, j *job.Job) ([]job.Assignment, error) {
	var out []job.Assignment
	for _, employeeID := range f.assignments[j.ID] {
		out = append(out, job.Assignment{
			EmployeeID:      employeeID,
			JobID:           j.ID,
			ServiceDate:     j.ServiceDate,
			LocationID:      j.LocationID,
			ClientID:        j.ClientID,
			DurationMinutes: j.DurationMinutes,
		})
	}
	return out, nil
}

type fakeResolver struct {
	monthlyCents map[uuid.UUID]int64
}

func (f *fakeResolver) Resolve(ctx context.Context, employeeID uuid.UUID, asOf time.Time, locationID, clientID *uuid.UUID) (*rate.Snapshot, error) {
	cents, ok := f.monthlyCents[employeeID]
	if !ok {
		return nil, nil
	}
	return &rate.Snapshot{Type: rate.TypeMonthly, AmountCents: cents}, nil
}

type fakeDirectory struct {
	owners map[uuid.UUID]bool
}

func (f *fakeDirectory) IsOwner(ctx context.Context, employeeID uuid.UUID) (bool, error) {
	return f.owners[employeeID], nil
}

type fakeLedgerService struct {
	period *ledger.PayrollPeriod
	added  []ledger.AddEntryInput
}

func (f *fakeLedgerService) EnsurePeriod(ctx context.Context, p payperiod.Period) (*ledger.PayrollPeriod, error) {
	return f.period, nil
}

func (f *fakeLedgerService) AddEntry(ctx context.Context, input ledger.AddEntryInput) (uuid.UUID, error) {
	f.added = append(f.added, input)
	return uuid.New(), nil
}

func (f *fakeLedgerService) RecalcTotals(ctx context.Context, periodID uuid.UUID) (ledger.Totals, error) {
	return ledger.Totals{}, nil
}

func (f *fakeLedgerService) OverrideAmount(ctx context.Context, entryID uuid.UUID, newAmountCents int64, adjustedBy, reason string) error {
	return nil
}

func (f *fakeLedgerService) GetPeriodByKey(ctx context.Context, key string) (*ledger.PayrollPeriod, []ledger.PayrollEntry, error) {
	return nil, nil, nil
}

func (f *fakeLedgerService) ListPeriods(ctx context.Context, from, to time.Time, anchor payperiod.Anchor) ([]ledger.PayrollPeriod, error) {
	return nil, nil
}

// fakeAutoEntryStore implements the delete-by-source slice of the ledger
// repository; the rest is unused by the reconciler.
type fakeAutoEntryStore struct {
	autoEntries int64
	deletedWith []ledger.Source
}

func (f *fakeAutoEntryStore) WithTx(tx *sql.Tx) ledger.Repository { return f }
func (f *fakeAutoEntryStore) FindPeriodByKey(ctx context.Context, key string) (*ledger.PayrollPeriod, error) {
	return nil, nil
}
func (f *fakeAutoEntryStore) FindPeriodByID(ctx context.Context, id uuid.UUID) (*ledger.PayrollPeriod, error) {
	return nil, nil
}
func (f *fakeAutoEntryStore) LockPeriodByID(ctx context.Context, id uuid.UUID) (*ledger.PayrollPeriod, error) {
	return nil, nil
}
func (f *fakeAutoEntryStore) CreatePeriod(ctx context.Context, period *ledger.PayrollPeriod) error {
	return nil
}
func (f *fakeAutoEntryStore) UpdatePeriodTotals(ctx context.Context, id uuid.UUID, grossCents, deductionCents, netCents int64) error {
	return nil
}
func (f *fakeAutoEntryStore) SetPeriodFinalized(ctx context.Context, id uuid.UUID, finalizedBy string, at time.Time) (bool, error) {
	return false, nil
}
func (f *fakeAutoEntryStore) ListPeriods(ctx context.Context, from, to time.Time) ([]ledger.PayrollPeriod, error) {
	return nil, nil
}
func (f *fakeAutoEntryStore) CreateEntry(ctx context.Context, entry *ledger.PayrollEntry) error {
	return nil
}
func (f *fakeAutoEntryStore) FindEntryByID(ctx context.Context, id uuid.UUID) (*ledger.PayrollEntry, error) {
	return nil, nil
}
func (f *fakeAutoEntryStore) LockEntryByID(ctx context.Context, id uuid.UUID) (*ledger.PayrollEntry, error) {
	return nil, nil
}
func (f *fakeAutoEntryStore) UpdateEntry(ctx context.Context, entry *ledger.PayrollEntry) error {
	return nil
}
func (f *fakeAutoEntryStore) ListEntriesByPeriod(ctx context.Context, periodID uuid.UUID) ([]ledger.PayrollEntry, bool, error) {
	return nil, true, nil
}
func (f *fakeAutoEntryStore) SumEntryAmounts(ctx context.Context, periodID uuid.UUID) (int64, int64, error) {
	return 0, 0, nil
}
func (f *fakeAutoEntryStore) DeleteEntriesBySource(ctx context.Context, periodID uuid.UUID, sources []ledger.Source) (int64, error) {
	f.deletedWith = sources
	n := f.autoEntries
	f.autoEntries = 0
	return n, nil
}
func (f *fakeAutoEntryStore) JobEntryExists(ctx context.Context, jobID, employeeID uuid.UUID, category ledger.Category) (bool, error) {
	return false, nil
}

type monthlyDeps struct {
	db        *sql.DB
	sqlMock   sqlmock.Sqlmock
	service   monthly.Service
	jobs      *fakeJobRepository
	ledgerSvc *fakeLedgerService
	store     *fakeAutoEntryStore
	resolver  *fakeResolver
	owners    *fakeDirectory
}

func setupMonthlyTest(t *testing.T, p payperiod.Period) *monthlyDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	deps := &monthlyDeps{
		db:      db,
		sqlMock: sqlMock,
		jobs:    &fakeJobRepository{assignments: map[uuid.UUID][]uuid.UUID{}},
		ledgerSvc: &fakeLedgerService{
			period: &ledger.PayrollPeriod{ID: uuid.New(), PeriodKey: p.Key, Status: ledger.StatusDraft},
		},
		store:    &fakeAutoEntryStore{},
		resolver: &fakeResolver{monthlyCents: map[uuid.UUID]int64{}},
		owners:   &fakeDirectory{owners: map[uuid.UUID]bool{}},
	}
	deps.service = monthly.NewService(db, deps.jobs, deps.ledgerSvc, deps.store, deps.resolver, deps.owners, nil)
	return deps
}

func (d *monthlyDeps) addJob(serviceDate time.Time, status string, employees ...uuid.UUID) {
	j := job.Job{ID: uuid.New(), ServiceDate: serviceDate, Status: status}
	d.jobs.jobs = append(d.jobs.jobs, j)
	d.jobs.assignments[j.ID] = employees
}

func day(d int) time.Time {
	return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
}

func TestMonthlyService_BaseAndMissedDay(t *testing.T) {
	ctx := context.Background()
	p := payperiod.For(day(3), payperiod.DefaultAnchor)
	salaried := uuid.New()

	deps := setupMonthlyTest(t, p)
	defer deps.db.Close()

	// $1200/month, 10 scheduled days, 8 completed.
	deps.resolver.monthlyCents[salaried] = 120000
	for d := 1; d <= 10; d++ {
		status := job.StatusCompleted
		if d > 8 {
			status = "missed"
		}
		deps.addJob(day(d), status, salaried)
	}

	deps.sqlMock.ExpectBegin()
	deps.sqlMock.ExpectCommit()
	result, err := deps.service.SyncMonthly(ctx, p)

	assert.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Len(t, deps.ledgerSvc.added, 2)

	base := deps.ledgerSvc.added[0]
	assert.Equal(t, ledger.CategoryMonthly, base.Category)
	assert.Equal(t, int64(60000), base.AmountCents) // half of $1200
	assert.Equal(t, ledger.SourceAutoMonthlyBase, base.Source)
	assert.Equal(t, int64(120000), base.RateCents)

	missed := deps.ledgerSvc.added[1]
	assert.Equal(t, ledger.TypeDeduction, missed.Type)
	assert.Equal(t, ledger.CategoryMissedDay, missed.Category)
	assert.Equal(t, int64(12000), missed.AmountCents) // $600/10 days x 2 missed
	assert.Equal(t, 2, *missed.Units)
	assert.Equal(t, ledger.SourceAutoMissedDay, missed.Source)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestMonthlyService_NoMissedDays(t *testing.T) {
	ctx := context.Background()
	p := payperiod.For(day(3), payperiod.DefaultAnchor)
	salaried := uuid.New()

	deps := setupMonthlyTest(t, p)
	defer deps.db.Close()

	deps.resolver.monthlyCents[salaried] = 120000
	for d := 1; d <= 5; d++ {
		deps.addJob(day(d), job.StatusCompleted, salaried)
	}

	deps.sqlMock.ExpectBegin()
	deps.sqlMock.ExpectCommit()
	result, err := deps.service.SyncMonthly(ctx, p)

	assert.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, ledger.CategoryMonthly, deps.ledgerSvc.added[0].Category)
}

func TestMonthlyService_ReplacesPriorAutoEntries(t *testing.T) {
	ctx := context.Background()
	p := payperiod.For(day(3), payperiod.DefaultAnchor)
	salaried := uuid.New()

	deps := setupMonthlyTest(t, p)
	defer deps.db.Close()

	deps.resolver.monthlyCents[salaried] = 120000
	deps.addJob(day(2), job.StatusCompleted, salaried)
	deps.store.autoEntries = 2 // a previous run's base + missed-day rows

	deps.sqlMock.ExpectBegin()
	deps.sqlMock.ExpectCommit()
	result, err := deps.service.SyncMonthly(ctx, p)

	assert.NoError(t, err)
	assert.Equal(t, 2, result.Removed)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, []ledger.Source{ledger.SourceAutoMonthlyBase, ledger.SourceAutoMissedDay}, deps.store.deletedWith)
}

func TestMonthlyService_SkipsOwnersAndNonMonthly(t *testing.T) {
	ctx := context.Background()
	p := payperiod.For(day(3), payperiod.DefaultAnchor)
	owner := uuid.New()
	hourly := uuid.New()

	deps := setupMonthlyTest(t, p)
	defer deps.db.Close()

	deps.resolver.monthlyCents[owner] = 500000
	deps.owners.owners[owner] = true
	// hourly employee resolves to no monthly rate
	deps.addJob(day(2), job.StatusCompleted, owner, hourly)

	deps.sqlMock.ExpectBegin()
	deps.sqlMock.ExpectCommit()
	result, err := deps.service.SyncMonthly(ctx, p)

	assert.NoError(t, err)
	assert.Zero(t, result.Created)
	assert.Empty(t, deps.ledgerSvc.added)
}

func TestMonthlyService_FinalizedPeriodRefused(t *testing.T) {
	ctx := context.Background()
	p := payperiod.For(day(3), payperiod.DefaultAnchor)

	deps := setupMonthlyTest(t, p)
	defer deps.db.Close()

	deps.ledgerSvc.period.Status = ledger.StatusFinalized

	_, err := deps.service.SyncMonthly(ctx, p)

	assert.ErrorIs(t, err, ledgererrors.ErrPeriodFinalized)
}
