package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestTransferHandlerRejectsInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTransferHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/transfers", bytes.NewReader([]byte(`invalid`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Transfer(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransferHandlerRejectsInvalidBulkBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTransferHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/transfers/bulk", bytes.NewReader([]byte(`{`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.TransferBulk(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEnrollmentHandlerRejectsInvalidIntakeBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewEnrollmentHandler(nil, nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/enrollments/intake", bytes.NewReader([]byte(`not-json`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Intake(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAssignmentHandlerUnassignRequiresQueryParams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAssignmentHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/assignments?studentId=stu-1", nil)
	c.Request = req

	handler.Unassign(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStudentHandlerPlacementRequiresSchoolYear(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewStudentHandler(nil, nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/students/stu-1/placement", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "stu-1"}}

	handler.Placement(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
