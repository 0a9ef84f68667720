// Package finalize implements the one-way draft to finalized transition:
// totals are recomputed, the status flips atomically, and exactly one
// expense record is produced for the period's net pay. There is no
// unfinalize; corrections afterwards are out-of-band adjustments.
package finalize

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/bootstrap"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/events"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/expense"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/ledger"
	ledgererrors "github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/ledger/errors"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/messaging/kafka"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Result struct {
	Totals           ledger.Totals
	ExpenseCreated   bool
	AlreadyFinalized bool
}

//go:generate mockgen -source=finalize_service.go -destination=mock/finalize_service_mock.go -package=mock
type Service interface {
	Finalize(ctx context.Context, periodKey, finalizedBy string) (Result, error)
}

type service struct {
	db         *sql.DB
	ledgerSvc  ledger.Service
	ledgerRepo ledger.Repository
	expenses   expense.Repository
	outbox     kafka.OutboxRepository
	audit      bootstrap.AuditLogger
	logger     *zap.Logger
}

func NewService(
	db *sql.DB,
	ledgerSvc ledger.Service,
	ledgerRepo ledger.Repository,
	expenses expense.Repository,
	outbox kafka.OutboxRepository,
	audit bootstrap.AuditLogger,
	logger *zap.Logger,
) Service {
	if logger == nil {
		logger = zap.L()
	}
	return &service{
		db:         db,
		ledgerSvc:  ledgerSvc,
		ledgerRepo: ledgerRepo,
		expenses:   expenses,
		outbox:     outbox,
		audit:      audit,
		logger:     logger.Named("finalize"),
	}
}

// Finalize is idempotent: a second call returns AlreadyFinalized without
// touching anything. The status flip, the expense record and the outbox
// event commit as one transaction, so either the period is finalized with
// at most one expense record or it stays in draft.
func (s *service) Finalize(ctx context.Context, periodKey, finalizedBy string) (Result, error) {
	period, err := s.ledgerRepo.FindPeriodByKey(ctx, periodKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Result{}, ledgererrors.ErrPeriodNotFound
		}
		return Result{}, err
	}

	// Full recompute first; the stored aggregate may trail bulk work.
	totals, err := s.ledgerSvc.RecalcTotals(ctx, period.ID)
	if err != nil {
		return Result{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, err
	}
	defer tx.Rollback()

	qledger := s.ledgerRepo.WithTx(tx)

	flipped, err := qledger.SetPeriodFinalized(ctx, period.ID, finalizedBy, time.Now().UTC())
	if err != nil {
		return Result{}, err
	}
	if !flipped {
		return Result{Totals: totals, AlreadyFinalized: true}, nil
	}

	expenseCreated := false
	if totals.NetCents != 0 {
		qexp := s.expenses.WithTx(tx)
		exists, err := qexp.ExistsForPeriod(ctx, period.ID)
		if err != nil {
			return Result{}, err
		}
		if !exists {
			record := &expense.Record{
				ID:          uuid.New(),
				PeriodID:    period.ID,
				AmountCents: totals.NetCents,
				PaidAt:      period.PayDate,
				Memo: fmt.Sprintf("Payroll %s to %s",
					period.WorkPeriodStart.Format("2006-01-02"),
					period.WorkPeriodEnd.AddDate(0, 0, -1).Format("2006-01-02")),
			}
			if err := qexp.Create(ctx, record); err != nil {
				return Result{}, err
			}
			expenseCreated = true
		}
	}

	payload, err := json.Marshal(events.PeriodFinalizedEvent{
		EventType:   "period_finalized",
		PeriodKey:   period.PeriodKey,
		NetCents:    totals.NetCents,
		PayDate:     period.PayDate.Format("2006-01-02"),
		FinalizedBy: finalizedBy,
		OccurredAt:  time.Now().UTC(),
	})
	if err != nil {
		return Result{}, err
	}

	if err := s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.New().String(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "payroll_period",
		AggregateID:   period.PeriodKey,
		EventType:     "period_finalized",
		Topic:         events.PeriodFinalizedTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}); err != nil {
		return Result{}, err
	}

	if err := tx.Commit(); err != nil {
		return Result{}, err
	}

	s.audit.Log(ctx, bootstrap.AuditLog{
		Action:  "PERIOD_FINALIZED",
		Message: "Payroll period finalized",
		Actor:   finalizedBy,
		Meta: map[string]any{
			"period_key":      period.PeriodKey,
			"net_cents":       totals.NetCents,
			"expense_created": expenseCreated,
		},
	})
	contextutil.GetLogger(ctx, s.logger).Info("period finalized",
		zap.String("period_key", period.PeriodKey),
		zap.Int64("net_cents", totals.NetCents),
		zap.Bool("expense_created", expenseCreated),
	)

	return Result{Totals: totals, ExpenseCreated: expenseCreated}, nil
}
