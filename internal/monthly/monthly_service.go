// Package monthly reconciles salaried employees' pay for a period from
// scratch: the base-salary and missed-day entries are deleted and rebuilt
// on every run, because attendance facts can change after the fact.
package monthly

import (
	"context"
	"database/sql"

	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/directory"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/job"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/ledger"
	ledgererrors "github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/ledger/errors"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/payperiod"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/rate"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Result struct {
	Created int `json:"created"`
	Removed int `json:"removed"`
}

//go:generate mockgen -source=monthly_service.go -destination=mock/monthly_service_mock.go -package=mock
type Service interface {
	SyncMonthly(ctx context.Context, p payperiod.Period) (Result, error)
}

type service struct {
	db         *sql.DB
	jobs       job.Repository
	ledgerSvc  ledger.Service
	ledgerRepo ledger.Repository
	resolver   rate.Resolver
	owners     directory.Directory
	logger     *zap.Logger
}

func NewService(
	db *sql.DB,
	jobs job.Repository,
	ledgerSvc ledger.Service,
	ledgerRepo ledger.Repository,
	resolver rate.Resolver,
	owners directory.Directory,
	logger *zap.Logger,
) Service {
	if logger == nil {
		logger = zap.L()
	}
	return &service{
		db:         db,
		jobs:       jobs,
		ledgerSvc:  ledgerSvc,
		ledgerRepo: ledgerRepo,
		resolver:   resolver,
		owners:     owners,
		logger:     logger.Named("monthly"),
	}
}

// salaryFacts accumulates what a period's job records say about one
// salaried employee.
type salaryFacts struct {
	monthlyCents int64
	scheduled    map[string]bool
	completed    map[string]bool
}

// SyncMonthly is a full replace, invoked once per period-sync pass:
//  1. delete every auto monthly-base and missed-day entry in the period;
//  2. recompute each monthly-rate employee's highest monthly amount,
//     scheduled work-dates and completed work-dates from job records;
//  3. insert one base entry of amount/2 per employee, plus one missed-day
//     deduction pro-rated over scheduled days when days were missed;
//  4. recalculate the period totals once at the end.
func (s *service) SyncMonthly(ctx context.Context, p payperiod.Period) (Result, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	period, err := s.ledgerSvc.EnsurePeriod(ctx, p)
	if err != nil {
		return Result{}, err
	}
	if period.Status == ledger.StatusFinalized {
		return Result{}, ledgererrors.ErrPeriodFinalized
	}

	removed, err := s.removeAutoEntries(ctx, period.ID)
	if err != nil {
		return Result{}, err
	}

	facts, err := s.collectFacts(ctx, p)
	if err != nil {
		return Result{Removed: removed}, err
	}

	result := Result{Removed: removed}
	for employeeID, f := range facts {
		created, err := s.writeEntries(ctx, p, employeeID, f)
		if err != nil {
			return result, err
		}
		result.Created += created
	}

	if _, err := s.ledgerSvc.RecalcTotals(ctx, period.ID); err != nil {
		return result, err
	}

	log.Info("monthly reconciliation finished",
		zap.String("period_key", p.Key),
		zap.Int("created", result.Created),
		zap.Int("removed", result.Removed),
	)
	return result, nil
}

func (s *service) removeAutoEntries(ctx context.Context, periodID uuid.UUID) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	qtx := s.ledgerRepo.WithTx(tx)
	removed, err := qtx.DeleteEntriesBySource(ctx, periodID, []ledger.Source{
		ledger.SourceAutoMonthlyBase,
		ledger.SourceAutoMissedDay,
	})
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int(removed), nil
}

func (s *service) collectFacts(ctx context.Context, p payperiod.Period) (map[uuid.UUID]*salaryFacts, error) {
	jobs, err := s.jobs.ListByServiceDateRange(ctx, p.WorkStart, p.WorkEnd)
	if err != nil {
		return nil, err
	}

	facts := make(map[uuid.UUID]*salaryFacts)
	for i := range jobs {
		j := &jobs[i]
		assignments, err := s.jobs.Assignments(ctx, j)
		if err != nil {
			return nil, err
		}

		for _, a := range assignments {
			isOwner, err := s.owners.IsOwner(ctx, a.EmployeeID)
			if err != nil {
				return nil, err
			}
			if isOwner {
				continue
			}

			snapshot, err := s.resolver.Resolve(ctx, a.EmployeeID, a.ServiceDate, a.LocationID, a.ClientID)
			if err != nil {
				return nil, err
			}
			if snapshot == nil || snapshot.Type != rate.TypeMonthly {
				continue
			}

			f := facts[a.EmployeeID]
			if f == nil {
				f = &salaryFacts{
					scheduled: make(map[string]bool),
					completed: make(map[string]bool),
				}
				facts[a.EmployeeID] = f
			}
			if snapshot.AmountCents > f.monthlyCents {
				f.monthlyCents = snapshot.AmountCents
			}

			day := a.ServiceDate.Format("2006-01-02")
			f.scheduled[day] = true
			if j.Status == job.StatusCompleted {
				f.completed[day] = true
			}
		}
	}
	return facts, nil
}

func (s *service) writeEntries(ctx context.Context, p payperiod.Period, employeeID uuid.UUID, f *salaryFacts) (int, error) {
	if f.monthlyCents <= 0 {
		return 0, nil
	}

	// Semi-monthly split of the monthly rate.
	baseCents := decimal.NewFromInt(f.monthlyCents).
		Div(decimal.NewFromInt(2)).
		Round(0).
		IntPart()

	created := 0
	_, err := s.ledgerSvc.AddEntry(ctx, ledger.AddEntryInput{
		Period:      p,
		EmployeeID:  employeeID,
		Type:        ledger.TypeEarning,
		Category:    ledger.CategoryMonthly,
		AmountCents: baseCents,
		RateType:    rate.TypeMonthly,
		RateCents:   f.monthlyCents,
		Source:      ledger.SourceAutoMonthlyBase,
	})
	if err != nil {
		return created, err
	}
	created++

	scheduled := len(f.scheduled)
	missed := scheduled - len(f.completed)
	if scheduled >= 1 && missed > 0 {
		deductionCents := decimal.NewFromInt(baseCents).
			Div(decimal.NewFromInt(int64(scheduled))).
			Mul(decimal.NewFromInt(int64(missed))).
			Round(0).
			IntPart()

		units := missed
		_, err := s.ledgerSvc.AddEntry(ctx, ledger.AddEntryInput{
			Period:      p,
			EmployeeID:  employeeID,
			Type:        ledger.TypeDeduction,
			Category:    ledger.CategoryMissedDay,
			AmountCents: deductionCents,
			Units:       &units,
			RateType:    rate.TypeMonthly,
			RateCents:   f.monthlyCents,
			Source:      ledger.SourceAutoMissedDay,
		})
		if err != nil {
			return created, err
		}
		created++
	}

	return created, nil
}
