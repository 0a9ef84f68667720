package jobsync

import (
	"errors"
	"net/http"

	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/monthly"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/payperiod"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/shared/apperror"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	service    Service
	monthlySvc monthly.Service
	anchor     payperiod.Anchor
}

func NewHandler(service Service, monthlySvc monthly.Service, anchor payperiod.Anchor) *Handler {
	return &Handler{service: service, monthlySvc: monthlySvc, anchor: anchor}
}

// SyncJobs pushes a batch of completed jobs into the ledger. It exists for
// backfills and for operators re-driving jobs the consumer missed.
func (h *Handler) SyncJobs(c *gin.Context) {
	var req SyncJobsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		mapped := apperror.MapValidationError(err)
		response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput, mapped.Error(), nil)
		return
	}

	jobIDs := make([]uuid.UUID, len(req.JobIDs))
	for i, raw := range req.JobIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput, "invalid job id: "+raw, nil)
			return
		}
		jobIDs[i] = id
	}

	result, err := h.service.SyncJobs(c.Request.Context(), jobIDs)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result, nil)
}

// SyncPeriod reconciles one full period: all completed jobs in its work
// window, then the monthly base and missed-day pass. Safe to re-run.
func (h *Handler) SyncPeriod(c *gin.Context) {
	period, ok := payperiod.ByKey(c.Param("key"), h.anchor)
	if !ok {
		response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput, "period key must be a YYYY-MM-DD pay date", nil)
		return
	}

	jobs, err := h.service.SyncPeriod(c.Request.Context(), period)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	monthlyResult, err := h.monthlySvc.SyncMonthly(c.Request.Context(), period)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	resp := SyncPeriodResponse{Jobs: jobs}
	resp.Monthly.Created = monthlyResult.Created
	resp.Monthly.Removed = monthlyResult.Removed
	response.Success(c, http.StatusOK, resp, nil)
}

func respondServiceError(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		response.Error(c, appErr.HTTPStatus, appErr.Code, appErr.Message, nil)
		return
	}
	response.Error(c, http.StatusInternalServerError, apperror.CodeInternalError, err.Error(), nil)
}
