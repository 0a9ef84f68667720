package ledger

import (
	"errors"
	"strings"

	ledgererrors "github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/ledger/errors"

	"github.com/jackc/pgx/v5/pgconn"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" && pgErr.ConstraintName == "uq_payroll_entry_job" {
			return ledgererrors.ErrDuplicateJobEntry
		}
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "duplicate key value") && strings.Contains(errMsg, "uq_payroll_entry_job") {
		return ledgererrors.ErrDuplicateJobEntry
	}

	return err
}

// isPermissionDenied detects Postgres insufficient_privilege so a period
// create that lost to a more privileged concurrent caller can be treated
// as success after a re-read.
func isPermissionDenied(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "42501"
	}
	return strings.Contains(strings.ToLower(err.Error()), "permission denied")
}
