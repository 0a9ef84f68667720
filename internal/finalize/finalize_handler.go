package finalize

import (
	"errors"
	"net/http"

	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/shared/apperror"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type FinalizeResponse struct {
	PeriodKey        string `json:"period_key"`
	Gross            string `json:"gross"`
	Deductions       string `json:"deductions"`
	Net              string `json:"net"`
	ExpenseCreated   bool   `json:"expense_created"`
	AlreadyFinalized bool   `json:"already_finalized"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Finalize(c *gin.Context) {
	key := c.Param("key")
	actorID := c.GetString("actor_id")

	result, err := h.service.Finalize(c.Request.Context(), key, actorID)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			response.Error(c, appErr.HTTPStatus, appErr.Code, appErr.Message, nil)
			return
		}
		response.Error(c, http.StatusInternalServerError, apperror.CodeInternalError, err.Error(), nil)
		return
	}

	response.Success(c, http.StatusOK, FinalizeResponse{
		PeriodKey:        key,
		Gross:            dollars(result.Totals.GrossCents),
		Deductions:       dollars(result.Totals.DeductionCents),
		Net:              dollars(result.Totals.NetCents),
		ExpenseCreated:   result.ExpenseCreated,
		AlreadyFinalized: result.AlreadyFinalized,
	}, nil)
}

func dollars(cents int64) string {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).StringFixed(2)
}
