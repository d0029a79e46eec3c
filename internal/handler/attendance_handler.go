package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/classtrack/classtrack-api/internal/models"
	"github.com/classtrack/classtrack-api/internal/service"
	appErrors "github.com/classtrack/classtrack-api/pkg/errors"
	"github.com/classtrack/classtrack-api/pkg/export"
	"github.com/classtrack/classtrack-api/pkg/response"
)

// AttendanceHandler exposes attendance tracking endpoints.
type AttendanceHandler struct {
	attendance *service.AttendanceService
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
}

// NewAttendanceHandler constructs handler.
func NewAttendanceHandler(attendance *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{
		attendance: attendance,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
	}
}

// History godoc
// @Summary Full attendance history
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /attendance/history [get]
func (h *AttendanceHandler) History(c *gin.Context) {
	records, err := h.attendance.History(c.Request.Context(), userIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records)
}

// Due godoc
// @Summary Lectures due on a date
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Router /attendance/due [get]
func (h *AttendanceHandler) Due(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = models.DateKey(time.Now())
	}
	due, err := h.attendance.Due(c.Request.Context(), userIDFromContext(c), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, due)
}

// Mark godoc
// @Summary Mark attendance for one occurrence
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.MarkRequest true "Mark payload"
// @Success 200 {object} response.Envelope
// @Router /attendance/mark [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	var req service.MarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.attendance.Mark(c.Request.Context(), userIDFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record)
}

// Clear godoc
// @Summary Clear all attendance records
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /attendance [delete]
func (h *AttendanceHandler) Clear(c *gin.Context) {
	removed, err := h.attendance.ClearAll(c.Request.Context(), userIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"removed_entries": removed})
}

// OverallStats godoc
// @Summary Overall attendance statistics
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /attendance/stats/overall [get]
func (h *AttendanceHandler) OverallStats(c *gin.Context) {
	stats, err := h.attendance.OverallStats(c.Request.Context(), userIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats)
}

// SubjectStats godoc
// @Summary Per-subject attendance statistics
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /attendance/stats [get]
func (h *AttendanceHandler) SubjectStats(c *gin.Context) {
	stats, err := h.attendance.SubjectStats(c.Request.Context(), userIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats)
}

// Report godoc
// @Summary Export an attendance report
// @Tags Attendance
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /attendance/report [get]
func (h *AttendanceHandler) Report(c *gin.Context) {
	data, err := h.attendance.ReportDataset(c.Request.Context(), userIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("attendance-report-%s", models.DateKey(time.Now()))
	switch c.DefaultQuery("format", "csv") {
	case "csv":
		payload, err := h.csv.Render(data)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, filename))
		c.Data(http.StatusOK, "text/csv", payload)
	case "pdf":
		payload, err := h.pdf.Render(data, "Attendance Report")
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, filename))
		c.Data(http.StatusOK, "application/pdf", payload)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
	}
}
