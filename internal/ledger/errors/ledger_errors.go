package ledgererrors

import (
	"net/http"

	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/shared/apperror"
)

var (
	ErrInvalidCategory = apperror.New(
		apperror.CodeInvalidInput,
		"Category is not valid for this entry type",
		http.StatusBadRequest,
	)

	ErrPeriodNotFound = apperror.New(
		apperror.CodeNotFound,
		"Payroll period not found",
		http.StatusNotFound,
	)

	ErrEntryNotFound = apperror.New(
		apperror.CodeNotFound,
		"Payroll entry not found",
		http.StatusNotFound,
	)

	ErrPeriodFinalized = apperror.New(
		apperror.CodeInvalidState,
		"Payroll period is finalized and can no longer be modified",
		http.StatusConflict,
	)

	ErrDuplicateJobEntry = apperror.New(
		apperror.CodeConflict,
		"An entry for this job, employee and category already exists",
		http.StatusConflict,
	)

	ErrPeriodCreateDenied = apperror.New(
		apperror.CodeForbidden,
		"Not permitted to create the payroll period and it does not exist yet",
		http.StatusForbidden,
	)
)
