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

// StudentHandler exposes the student directory endpoints.
type StudentHandler struct {
	students    *service.StudentService
	assignments *service.AssignmentService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students *service.StudentService, assignments *service.AssignmentService) *StudentHandler {
	return &StudentHandler{students: students, assignments: assignments}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Param search query string false "Search by name or national ID"
// @Param gradeId query string false "Filter by grade"
// @Param schoolYearId query string false "Filter by school year"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	var filter models.StudentFilter
	filter.Search = c.Query("search")
	filter.GradeID = c.Query("gradeId")
	filter.SchoolYearID = c.Query("schoolYearId")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	students, pagination, err := h.students.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// Get godoc
// @Summary Get student
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.students.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Placement godoc
// @Summary Get a student's current placement
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Param schoolYearId query string true "School year"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/placement [get]
func (h *StudentHandler) Placement(c *gin.Context) {
	schoolYearID := c.Query("schoolYearId")
	if schoolYearID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "schoolYearId is required"))
		return
	}
	placement, err := h.assignments.Current(c.Request.Context(), c.Param("id"), schoolYearID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, placement, nil)
}

// FindGuardian godoc
// @Summary Look up a guardian by national ID
// @Tags Students
// @Produce json
// @Param nationalId query string true "National ID"
// @Success 200 {object} response.Envelope
// @Router /guardians/lookup [get]
func (h *StudentHandler) FindGuardian(c *gin.Context) {
	nationalID := c.Query("nationalId")
	if nationalID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "nationalId is required"))
		return
	}
	guardian, err := h.students.FindGuardian(c.Request.Context(), nationalID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, guardian, nil)
}
