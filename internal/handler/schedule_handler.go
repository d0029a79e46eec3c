package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classtrack/classtrack-api/internal/service"
	appErrors "github.com/classtrack/classtrack-api/pkg/errors"
	"github.com/classtrack/classtrack-api/pkg/response"
)

// ScheduleHandler exposes timetable endpoints, both the sparse weekly
// form and the dense matrix the editor works with.
type ScheduleHandler struct {
	schedules *service.ScheduleService
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(schedules *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules}
}

// Weekly godoc
// @Summary Weekly schedule
// @Tags Schedule
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /schedule [get]
func (h *ScheduleHandler) Weekly(c *gin.Context) {
	schedules, cached, err := h.schedules.Weekly(c.Request.Context(), userIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules, map[string]interface{}{"cached": cached})
}

// ReplaceWeekday godoc
// @Summary Replace one weekday's slots
// @Tags Schedule
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.ReplaceWeekdayRequest true "Weekday payload"
// @Success 200 {object} response.Envelope
// @Router /schedule [put]
func (h *ScheduleHandler) ReplaceWeekday(c *gin.Context) {
	var req service.ReplaceWeekdayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	schedule, err := h.schedules.ReplaceWeekday(c.Request.Context(), userIDFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule)
}

// Matrix godoc
// @Summary Schedule as an editing matrix
// @Tags Schedule
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /schedule/matrix [get]
func (h *ScheduleHandler) Matrix(c *gin.Context) {
	matrix, err := h.schedules.Matrix(c.Request.Context(), userIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, matrix)
}

// SaveMatrix godoc
// @Summary Persist a matrix edit
// @Tags Schedule
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.SaveMatrixRequest true "Matrix payload"
// @Success 200 {object} response.Envelope
// @Router /schedule/matrix [put]
func (h *ScheduleHandler) SaveMatrix(c *gin.Context) {
	var req service.SaveMatrixRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.schedules.SaveMatrix(c.Request.Context(), userIDFromContext(c), req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "saved"})
}

// InsertRow godoc
// @Summary Insert a time-slot row into a matrix
// @Tags Schedule
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.MatrixRowRequest true "Row payload"
// @Success 200 {object} response.Envelope
// @Router /schedule/matrix/rows [post]
func (h *ScheduleHandler) InsertRow(c *gin.Context) {
	var req service.MatrixRowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	matrix, err := h.schedules.InsertMatrixRow(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, matrix)
}

// DeleteRow godoc
// @Summary Delete a time-slot row from a matrix
// @Tags Schedule
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.MatrixRowRequest true "Row payload"
// @Success 200 {object} response.Envelope
// @Router /schedule/matrix/rows [delete]
func (h *ScheduleHandler) DeleteRow(c *gin.Context) {
	var req service.MatrixRowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	matrix, err := h.schedules.DeleteMatrixRow(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, matrix)
}

// CommonSlots godoc
// @Summary Common time slots for quick add
// @Tags Schedule
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /schedule/slots/common [get]
func (h *ScheduleHandler) CommonSlots(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.schedules.CommonTimeRanges())
}
