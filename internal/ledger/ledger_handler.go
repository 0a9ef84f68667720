package ledger

import (
	"errors"
	"net/http"
	"time"

	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/payperiod"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/shared/apperror"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	service Service
	anchor  payperiod.Anchor
}

func NewHandler(service Service, anchor payperiod.Anchor) *Handler {
	return &Handler{service: service, anchor: anchor}
}

func (h *Handler) ListPeriods(c *gin.Context) {
	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput, "from must be YYYY-MM-DD", nil)
		return
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput, "to must be YYYY-MM-DD", nil)
		return
	}

	periods, err := h.service.ListPeriods(c.Request.Context(), from, to, h.anchor)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	resp := make([]PeriodResponse, len(periods))
	for i, p := range periods {
		resp[i] = mapPeriodToResponse(p)
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetPeriod(c *gin.Context) {
	period, entries, err := h.service.GetPeriodByKey(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	detail := PeriodDetailResponse{
		Period:  mapPeriodToResponse(*period),
		Entries: make([]EntryResponse, len(entries)),
	}
	for i, e := range entries {
		detail.Entries[i] = mapEntryToResponse(e)
	}
	response.Success(c, http.StatusOK, detail, nil)
}

func (h *Handler) CreateEntry(c *gin.Context) {
	var req CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		mapped := apperror.MapValidationError(err)
		response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput, mapped.Error(), nil)
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput, "date must be YYYY-MM-DD", nil)
		return
	}
	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput, "invalid employee id", nil)
		return
	}

	entryID, err := h.service.AddEntry(c.Request.Context(), AddEntryInput{
		Period:      payperiod.For(date, h.anchor),
		EmployeeID:  employeeID,
		Type:        req.Type,
		Category:    Category(req.Category),
		AmountCents: req.AmountCents,
		Hours:       req.Hours,
		Units:       req.Units,
		Source:      SourceManual,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"entry_id": entryID.String()}, nil)
}

func (h *Handler) OverrideEntry(c *gin.Context) {
	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput, "invalid entry id", nil)
		return
	}

	var req OverrideEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		mapped := apperror.MapValidationError(err)
		response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput, mapped.Error(), nil)
		return
	}

	actorID := c.GetString("actor_id")
	if err := h.service.OverrideAmount(c.Request.Context(), entryID, req.AmountCents, actorID, req.Reason); err != nil {
		respondServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"entry_id": entryID.String()}, nil)
}

func respondServiceError(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		response.Error(c, appErr.HTTPStatus, appErr.Code, appErr.Message, nil)
		return
	}
	response.Error(c, http.StatusInternalServerError, apperror.CodeInternalError, err.Error(), nil)
}
