package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusops/escolar-api/internal/service"
	appErrors "github.com/campusops/escolar-api/pkg/errors"
	"github.com/campusops/escolar-api/pkg/response"
)

// CatalogHandler exposes the grade/section/school-year catalog and the
// seat-availability dashboard.
type CatalogHandler struct {
	catalog *service.CatalogService
	seats   *service.SeatService
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(catalog *service.CatalogService, seats *service.SeatService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, seats: seats}
}

// ListGrades godoc
// @Summary List grades
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /grades [get]
func (h *CatalogHandler) ListGrades(c *gin.Context) {
	grades, err := h.catalog.ListGrades(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grades, nil)
}

// ListSections godoc
// @Summary List the sections of a grade
// @Tags Catalog
// @Produce json
// @Param id path string true "Grade ID"
// @Success 200 {object} response.Envelope
// @Router /grades/{id}/sections [get]
func (h *CatalogHandler) ListSections(c *gin.Context) {
	sections, err := h.catalog.ListSections(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sections, nil)
}

// Availability godoc
// @Summary Seat availability per section of a grade
// @Tags Catalog
// @Produce json
// @Param id path string true "Grade ID"
// @Param schoolYearId query string false "School year, defaults to the active one"
// @Success 200 {object} response.Envelope
// @Router /grades/{id}/availability [get]
func (h *CatalogHandler) Availability(c *gin.Context) {
	schoolYearID := c.Query("schoolYearId")
	if schoolYearID == "" {
		year, err := h.catalog.ActiveSchoolYear(c.Request.Context())
		if err != nil {
			response.Error(c, err)
			return
		}
		schoolYearID = year.ID
	}
	availability, err := h.seats.GradeAvailability(c.Request.Context(), c.Param("id"), schoolYearID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, availability, nil)
}

// ListSchoolYears godoc
// @Summary List school years
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /school-years [get]
func (h *CatalogHandler) ListSchoolYears(c *gin.Context) {
	years, err := h.catalog.ListSchoolYears(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, years, nil)
}

// ActiveSchoolYear godoc
// @Summary Get the active school year
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /school-years/active [get]
func (h *CatalogHandler) ActiveSchoolYear(c *gin.Context) {
	year, err := h.catalog.ActiveSchoolYear(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, year, nil)
}

type resizeSectionRequest struct {
	SchoolYearID string `json:"school_year_id" binding:"required"`
	Capacity     int    `json:"capacity" binding:"required"`
}

// ResizeSection godoc
// @Summary Update a section's capacity
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Section ID"
// @Param payload body resizeSectionRequest true "Capacity payload"
// @Success 204 "No Content"
// @Router /sections/{id}/capacity [put]
func (h *CatalogHandler) ResizeSection(c *gin.Context) {
	var req resizeSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.catalog.ResizeSection(c.Request.Context(), service.ResizeSectionRequest{
		SectionID:    c.Param("id"),
		SchoolYearID: req.SchoolYearID,
		Capacity:     req.Capacity,
	}); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
