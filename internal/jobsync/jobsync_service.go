package jobsync

import (
	"context"
	"errors"
	"net/http"

	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/directory"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/job"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/ledger"
	ledgererrors "github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/ledger/errors"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/payperiod"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/rate"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/shared/apperror"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrJobNotFound = apperror.New(apperror.CodeNotFound, "Job not found", http.StatusNotFound)

// MissingRate identifies an assignment the engine could not pay because no
// rate resolves for it. This is a data-quality signal, not an error: the
// operator adds the rate and re-runs the sync.
type MissingRate struct {
	JobID      uuid.UUID `json:"job_id"`
	EmployeeID uuid.UUID `json:"employee_id"`
}

// MissingDuration identifies an hourly assignment whose job record has no
// usable duration, so no amount can be computed. Surfaced like a missing
// rate: the operator fixes the job record and re-runs the sync.
type MissingDuration struct {
	JobID      uuid.UUID `json:"job_id"`
	EmployeeID uuid.UUID `json:"employee_id"`
}

type Result struct {
	Created          int               `json:"created"`
	MissingRates     []MissingRate     `json:"missing_rates,omitempty"`
	MissingDurations []MissingDuration `json:"missing_durations,omitempty"`
}

// BatchResult aggregates a multi-job sync. A job that fails is isolated in
// FailedJobIDs; the rest of the batch still runs.
type BatchResult struct {
	Created          int               `json:"created"`
	MissingRates     []MissingRate     `json:"missing_rates,omitempty"`
	MissingDurations []MissingDuration `json:"missing_durations,omitempty"`
	FailedJobIDs     []uuid.UUID       `json:"failed_job_ids,omitempty"`
}

//go:generate mockgen -source=jobsync_service.go -destination=mock/jobsync_service_mock.go -package=mock
type Service interface {
	SyncJob(ctx context.Context, jobID uuid.UUID) (Result, error)
	SyncJobs(ctx context.Context, jobIDs []uuid.UUID) (BatchResult, error)
	SyncPeriod(ctx context.Context, p payperiod.Period) (BatchResult, error)
}

type service struct {
	jobs       job.Repository
	ledgerSvc  ledger.Service
	ledgerRepo ledger.Repository
	resolver   rate.Resolver
	owners     directory.Directory
	anchor     payperiod.Anchor
	logger     *zap.Logger
}

func NewService(
	jobs job.Repository,
	ledgerSvc ledger.Service,
	ledgerRepo ledger.Repository,
	resolver rate.Resolver,
	owners directory.Directory,
	anchor payperiod.Anchor,
	logger *zap.Logger,
) Service {
	if logger == nil {
		logger = zap.L()
	}
	return &service{
		jobs:       jobs,
		ledgerSvc:  ledgerSvc,
		ledgerRepo: ledgerRepo,
		resolver:   resolver,
		owners:     owners,
		anchor:     anchor,
		logger:     logger.Named("jobsync"),
	}
}

// SyncJob turns one completed job into earning entries, one per assigned
// employee with a resolvable non-monthly rate. Re-running it is safe: an
// entry that already exists for the (job, employee, category) triple is
// skipped.
func (s *service) SyncJob(ctx context.Context, jobID uuid.UUID) (Result, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	j, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return Result{}, err
	}
	if j == nil {
		return Result{}, ErrJobNotFound
	}
	if j.Status != job.StatusCompleted {
		// Only completed work yields earnings.
		return Result{}, nil
	}

	assignments, err := s.jobs.Assignments(ctx, j)
	if err != nil {
		return Result{}, err
	}
	if len(assignments) == 0 {
		return Result{}, nil
	}

	var result Result
	touched := map[string]payperiod.Period{}

	for _, a := range assignments {
		isOwner, err := s.owners.IsOwner(ctx, a.EmployeeID)
		if err != nil {
			return result, err
		}
		if isOwner {
			continue
		}

		snapshot, err := s.resolver.Resolve(ctx, a.EmployeeID, a.ServiceDate, a.LocationID, a.ClientID)
		if err != nil {
			return result, err
		}
		if snapshot == nil {
			result.MissingRates = append(result.MissingRates, MissingRate{
				JobID:      a.JobID,
				EmployeeID: a.EmployeeID,
			})
			continue
		}
		if snapshot.Type == rate.TypeMonthly {
			// Monthly pay is reconciled per period, never per job, so a
			// salaried employee is not paid twice for the same work.
			continue
		}

		input, ok := buildEntryInput(a, snapshot, s.anchor)
		if !ok {
			result.MissingDurations = append(result.MissingDurations, MissingDuration{
				JobID:      a.JobID,
				EmployeeID: a.EmployeeID,
			})
			log.Warn("assignment yields zero amount, skipped",
				zap.String("job_id", a.JobID.String()),
				zap.String("employee_id", a.EmployeeID.String()),
				zap.String("rate_type", snapshot.Type),
			)
			continue
		}

		exists, err := s.ledgerRepo.JobEntryExists(ctx, a.JobID, a.EmployeeID, input.Category)
		if err != nil {
			return result, err
		}
		if exists {
			continue
		}

		if _, err := s.ledgerSvc.AddEntry(ctx, input); err != nil {
			if errors.Is(err, ledgererrors.ErrDuplicateJobEntry) {
				// A concurrent sync won the insert; same outcome.
				continue
			}
			return result, err
		}

		result.Created++
		touched[input.Period.Key] = input.Period
	}

	// One recalc per touched period, never per entry, to bound
	// transaction cost.
	if result.Created > 0 {
		for _, p := range touched {
			period, err := s.ledgerSvc.EnsurePeriod(ctx, p)
			if err != nil {
				return result, err
			}
			if _, err := s.ledgerSvc.RecalcTotals(ctx, period.ID); err != nil {
				return result, err
			}
		}
	}

	if len(result.MissingRates) > 0 {
		log.Warn("job sync finished with unresolved rates",
			zap.String("job_id", jobID.String()),
			zap.Int("missing", len(result.MissingRates)),
		)
	}

	return result, nil
}

// SyncJobs processes each job independently; one bad job does not abort
// the batch.
func (s *service) SyncJobs(ctx context.Context, jobIDs []uuid.UUID) (BatchResult, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	var batch BatchResult
	for _, id := range jobIDs {
		res, err := s.SyncJob(ctx, id)
		if err != nil {
			log.Error("sync job failed", zap.String("job_id", id.String()), zap.Error(err))
			batch.FailedJobIDs = append(batch.FailedJobIDs, id)
			continue
		}
		batch.Created += res.Created
		batch.MissingRates = append(batch.MissingRates, res.MissingRates...)
		batch.MissingDurations = append(batch.MissingDurations, res.MissingDurations...)
	}
	return batch, nil
}

// SyncPeriod syncs every completed job whose service date falls in the
// period's work range.
func (s *service) SyncPeriod(ctx context.Context, p payperiod.Period) (BatchResult, error) {
	jobs, err := s.jobs.ListByServiceDateRange(ctx, p.WorkStart, p.WorkEnd)
	if err != nil {
		return BatchResult{}, err
	}

	var ids []uuid.UUID
	for _, j := range jobs {
		if j.Status == job.StatusCompleted {
			ids = append(ids, j.ID)
		}
	}
	return s.SyncJobs(ctx, ids)
}

// buildEntryInput computes the earning for one assignment. per_visit pays
// the flat rate for one unit; hourly pays rate x duration, rounded to the
// cent. ok is false when the computed amount is zero.
func buildEntryInput(a job.Assignment, snapshot *rate.Snapshot, anchor payperiod.Anchor) (ledger.AddEntryInput, bool) {
	input := ledger.AddEntryInput{
		Period:     payperiod.For(a.ServiceDate, anchor),
		EmployeeID: a.EmployeeID,
		JobID:      &a.JobID,
		Type:       ledger.TypeEarning,
		RateType:   snapshot.Type,
		RateCents:  snapshot.AmountCents,
		Source:     ledger.SourceAutoJob,
	}

	switch snapshot.Type {
	case rate.TypePerVisit:
		units := 1
		input.Category = ledger.CategoryPerVisit
		input.AmountCents = snapshot.AmountCents
		input.Units = &units
	case rate.TypeHourly:
		minutes := 0
		if a.DurationMinutes != nil {
			minutes = *a.DurationMinutes
		}
		amount := decimal.NewFromInt(snapshot.AmountCents).
			Mul(decimal.NewFromInt(int64(minutes))).
			Div(decimal.NewFromInt(60)).
			Round(0).
			IntPart()
		hours, _ := decimal.NewFromInt(int64(minutes)).
			Div(decimal.NewFromInt(60)).
			Round(2).
			Float64()
		input.Category = ledger.CategoryHourly
		input.AmountCents = amount
		input.Hours = &hours
	default:
		return input, false
	}

	return input, input.AmountCents > 0
}
