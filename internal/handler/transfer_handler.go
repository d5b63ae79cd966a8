package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campusops/escolar-api/internal/models"
	"github.com/campusops/escolar-api/internal/service"
	appErrors "github.com/campusops/escolar-api/pkg/errors"
	"github.com/campusops/escolar-api/pkg/response"
)

// TransferHandler exposes the student transfer endpoints.
type TransferHandler struct {
	transfers *service.TransferService
}

// NewTransferHandler constructs TransferHandler.
func NewTransferHandler(transfers *service.TransferService) *TransferHandler {
	return &TransferHandler{transfers: transfers}
}

// Transfer godoc
// @Summary Transfer a student to another grade
// @Tags Transfers
// @Accept json
// @Produce json
// @Param payload body service.TransferRequest true "Transfer payload"
// @Success 200 {object} response.Envelope
// @Router /transfers [post]
func (h *TransferHandler) Transfer(c *gin.Context) {
	var req service.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	receipt, err := h.transfers.TransferSingle(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, receipt, nil)
}

// TransferBulk godoc
// @Summary Transfer a batch of students between grades
// @Tags Transfers
// @Accept json
// @Produce json
// @Param payload body service.BulkTransferRequest true "Bulk transfer payload"
// @Success 200 {object} response.Envelope
// @Router /transfers/bulk [post]
func (h *TransferHandler) TransferBulk(c *gin.Context) {
	var req service.BulkTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.transfers.TransferBulk(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ListLogs godoc
// @Summary List transfer history
// @Tags Transfers
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param schoolYearId query string false "Filter by school year"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /transfers [get]
func (h *TransferHandler) ListLogs(c *gin.Context) {
	filter := models.TransferLogFilter{
		StudentID:    c.Query("studentId"),
		SchoolYearID: c.Query("schoolYearId"),
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil {
		filter.Offset = offset
	}
	logs, err := h.transfers.ListLogs(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}
