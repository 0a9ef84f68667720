package ledger

import (
	"context"
	"database/sql"
	"errors"
	"time"

	ledgererrors "github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/ledger/errors"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/payperiod"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Totals is a period's aggregate in cents. Net is always gross minus
// deductions; it may be negative.
type Totals struct {
	GrossCents     int64
	DeductionCents int64
	NetCents       int64
}

func (t Totals) withDelta(amountCents int64) Totals {
	if amountCents >= 0 {
		t.GrossCents += amountCents
	} else {
		t.DeductionCents += -amountCents
	}
	t.NetCents = t.GrossCents - t.DeductionCents
	return t
}

// AddEntryInput carries everything needed to append one ledger line.
// AmountCents is a magnitude; the service applies the signed convention
// from Type.
type AddEntryInput struct {
	Period      payperiod.Period
	EmployeeID  uuid.UUID
	JobID       *uuid.UUID
	Type        string
	Category    Category
	AmountCents int64
	Hours       *float64
	Units       *int
	RateType    string
	RateCents   int64
	Source      Source
}

//go:generate mockgen -source=ledger_service.go -destination=mock/ledger_service_mock.go -package=mock
type Service interface {
	EnsurePeriod(ctx context.Context, p payperiod.Period) (*PayrollPeriod, error)
	AddEntry(ctx context.Context, input AddEntryInput) (uuid.UUID, error)
	RecalcTotals(ctx context.Context, periodID uuid.UUID) (Totals, error)
	OverrideAmount(ctx context.Context, entryID uuid.UUID, newAmountCents int64, adjustedBy, reason string) error
	GetPeriodByKey(ctx context.Context, key string) (*PayrollPeriod, []PayrollEntry, error)
	ListPeriods(ctx context.Context, from, to time.Time, anchor payperiod.Anchor) ([]PayrollPeriod, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.L()
	}
	return &service{db: db, repo: repo, logger: logger.Named("ledger")}
}

// EnsurePeriod creates the period record if absent. Safe to race: a lost
// create is resolved by re-reading, and a permission failure on create is
// treated as success when a more privileged caller already created the row.
func (s *service) EnsurePeriod(ctx context.Context, p payperiod.Period) (*PayrollPeriod, error) {
	existing, err := s.repo.FindPeriodByKey(ctx, p.Key)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	period := &PayrollPeriod{
		ID:              uuid.New(),
		PeriodKey:       p.Key,
		WorkPeriodStart: p.WorkStart,
		WorkPeriodEnd:   p.WorkEnd,
		PayDate:         p.PayDate,
		Status:          StatusDraft,
	}

	createErr := s.repo.CreatePeriod(ctx, period)
	if createErr == nil {
		return period, nil
	}

	// Concurrent creator or insufficient privilege: the re-read decides.
	reread, rereadErr := s.repo.FindPeriodByKey(ctx, p.Key)
	if rereadErr == nil {
		return reread, nil
	}
	if isPermissionDenied(createErr) {
		return nil, ledgererrors.ErrPeriodCreateDenied
	}
	return nil, createErr
}

// AddEntry validates, normalizes the sign, then atomically applies the
// entry's delta to the period totals and inserts the row in one
// transaction, re-reading the period under lock first so concurrent
// additions observe each other.
func (s *service) AddEntry(ctx context.Context, input AddEntryInput) (uuid.UUID, error) {
	if !ValidCategory(input.Type, input.Category) {
		return uuid.Nil, ledgererrors.ErrInvalidCategory
	}

	period, err := s.EnsurePeriod(ctx, input.Period)
	if err != nil {
		return uuid.Nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	locked, err := qtx.LockPeriodByID(ctx, period.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, ledgererrors.ErrPeriodNotFound
		}
		return uuid.Nil, err
	}
	if locked.Status == StatusFinalized {
		return uuid.Nil, ledgererrors.ErrPeriodFinalized
	}

	entry := &PayrollEntry{
		ID:              uuid.New(),
		PeriodID:        locked.ID,
		EmployeeID:      input.EmployeeID,
		JobID:           input.JobID,
		Type:            input.Type,
		Category:        input.Category,
		AmountCents:     NormalizeAmount(input.Type, input.AmountCents),
		Hours:           input.Hours,
		Units:           input.Units,
		RateType:        input.RateType,
		RateAmountCents: input.RateCents,
		Source:          input.Source,
	}

	if err := qtx.CreateEntry(ctx, entry); err != nil {
		return uuid.Nil, mapRepositoryError(err)
	}

	totals := Totals{
		GrossCents:     locked.GrossCents,
		DeductionCents: locked.DeductionCents,
		NetCents:       locked.NetCents,
	}.withDelta(entry.AmountCents)

	if err := qtx.UpdatePeriodTotals(ctx, locked.ID, totals.GrossCents, totals.DeductionCents, totals.NetCents); err != nil {
		return uuid.Nil, err
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, err
	}

	return entry.ID, nil
}

// RecalcTotals recomputes the aggregate from every entry and overwrites
// the stored totals. Idempotent; calling it on a fixed point is a no-op
// write. Finalized periods are returned as stored, untouched.
func (s *service) RecalcTotals(ctx context.Context, periodID uuid.UUID) (Totals, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Totals{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	period, err := qtx.LockPeriodByID(ctx, periodID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Totals{}, ledgererrors.ErrPeriodNotFound
		}
		return Totals{}, err
	}

	if period.Status == StatusFinalized {
		if err := tx.Commit(); err != nil {
			return Totals{}, err
		}
		return Totals{
			GrossCents:     period.GrossCents,
			DeductionCents: period.DeductionCents,
			NetCents:       period.NetCents,
		}, nil
	}

	gross, deductions, err := qtx.SumEntryAmounts(ctx, periodID)
	if err != nil {
		return Totals{}, err
	}

	totals := Totals{
		GrossCents:     gross,
		DeductionCents: deductions,
		NetCents:       gross - deductions,
	}

	if err := qtx.UpdatePeriodTotals(ctx, periodID, totals.GrossCents, totals.DeductionCents, totals.NetCents); err != nil {
		return Totals{}, err
	}

	if err := tx.Commit(); err != nil {
		return Totals{}, err
	}

	return totals, nil
}

// OverrideAmount applies the delta between the old and new signed
// contribution to the period totals instead of a full recalc. The original
// pre-override amount is preserved across repeated overrides.
func (s *service) OverrideAmount(ctx context.Context, entryID uuid.UUID, newAmountCents int64, adjustedBy, reason string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	entry, err := qtx.LockEntryByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ledgererrors.ErrEntryNotFound
		}
		return err
	}

	period, err := qtx.LockPeriodByID(ctx, entry.PeriodID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ledgererrors.ErrPeriodNotFound
		}
		return err
	}
	if period.Status == StatusFinalized {
		return ledgererrors.ErrPeriodFinalized
	}

	newSigned := NormalizeAmount(entry.Type, newAmountCents)
	oldSigned := entry.AmountCents

	if entry.OriginalAmountCents == nil {
		original := oldSigned
		entry.OriginalAmountCents = &original
	}
	now := time.Now().UTC()
	entry.AmountCents = newSigned
	entry.AdjustedBy = &adjustedBy
	entry.AdjustedAt = &now
	if reason != "" {
		entry.AdjustReason = &reason
	}

	if err := qtx.UpdateEntry(ctx, entry); err != nil {
		return err
	}

	// Remove the old contribution from its bucket, then add the new one.
	totals := Totals{
		GrossCents:     period.GrossCents,
		DeductionCents: period.DeductionCents,
	}
	if oldSigned >= 0 {
		totals.GrossCents -= oldSigned
	} else {
		totals.DeductionCents -= -oldSigned
	}
	totals = totals.withDelta(newSigned)

	if err := qtx.UpdatePeriodTotals(ctx, period.ID, totals.GrossCents, totals.DeductionCents, totals.NetCents); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	contextutil.GetLogger(ctx, s.logger).Info("entry amount overridden",
		zap.String("entry_id", entryID.String()),
		zap.Int64("old_cents", oldSigned),
		zap.Int64("new_cents", newSigned),
		zap.String("adjusted_by", adjustedBy),
	)
	return nil
}

func (s *service) GetPeriodByKey(ctx context.Context, key string) (*PayrollPeriod, []PayrollEntry, error) {
	period, err := s.repo.FindPeriodByKey(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ledgererrors.ErrPeriodNotFound
		}
		return nil, nil, err
	}

	entries, ordered, err := s.repo.ListEntriesByPeriod(ctx, period.ID)
	if err != nil {
		return nil, nil, err
	}
	if !ordered {
		contextutil.GetLogger(ctx, s.logger).Warn("entry listing degraded to unordered read",
			zap.String("period_key", key))
	}

	return period, entries, nil
}

// ListPeriods lazily ensures every period whose work range intersects
// [from, to] exists, then returns them with stored totals.
func (s *service) ListPeriods(ctx context.Context, from, to time.Time, anchor payperiod.Anchor) ([]PayrollPeriod, error) {
	for _, p := range payperiod.Range(from, to, anchor) {
		if _, err := s.EnsurePeriod(ctx, p); err != nil {
			return nil, err
		}
	}
	return s.repo.ListPeriods(ctx, from, to)
}
