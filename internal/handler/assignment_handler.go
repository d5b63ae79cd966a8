package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusops/escolar-api/internal/service"
	appErrors "github.com/campusops/escolar-api/pkg/errors"
	"github.com/campusops/escolar-api/pkg/response"
)

// AssignmentHandler exposes direct placement endpoints, the administrative
// fallback to the intake and transfer workflows.
type AssignmentHandler struct {
	assignments *service.AssignmentService
}

// NewAssignmentHandler constructs AssignmentHandler.
func NewAssignmentHandler(assignments *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments}
}

// Assign godoc
// @Summary Place a student into a grade and section
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body service.AssignRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Router /assignments [post]
func (h *AssignmentHandler) Assign(c *gin.Context) {
	var req service.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	placement, err := h.assignments.Assign(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, placement)
}

// Unassign godoc
// @Summary Remove a student's placement for a school year
// @Tags Assignments
// @Produce json
// @Param studentId query string true "Student ID"
// @Param schoolYearId query string true "School year"
// @Success 204 "No Content"
// @Router /assignments [delete]
func (h *AssignmentHandler) Unassign(c *gin.Context) {
	studentID := c.Query("studentId")
	schoolYearID := c.Query("schoolYearId")
	if studentID == "" || schoolYearID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "studentId and schoolYearId are required"))
		return
	}
	if err := h.assignments.Unassign(c.Request.Context(), studentID, schoolYearID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
