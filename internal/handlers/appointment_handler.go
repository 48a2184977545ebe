package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/clinic-service/internal/services"
	"github.com/SAP-F-2025/clinic-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AppointmentHandler struct {
	BaseHandler
	appointmentService services.AppointmentService
	exportService      services.ExportService
}

func NewAppointmentHandler(
	appointmentService services.AppointmentService,
	exportService services.ExportService,
	logger utils.Logger,
) *AppointmentHandler {
	return &AppointmentHandler{
		BaseHandler:        NewBaseHandler(logger),
		appointmentService: appointmentService,
		exportService:      exportService,
	}
}

// ListAppointments lists the appointments visible to the caller
// @Summary List appointments
// @Description Patients see their own, doctors see theirs, admins see all
// @Tags appointments
// @Produce json
// @Param status query string false "BOOKED, RESCHEDULED, COMPLETED or CANCELED"
// @Param doctorId query string false "Doctor ID"
// @Param date query string false "Day in YYYY-MM-DD (UTC)"
// @Success 200 {object} services.AppointmentListResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /appointments [get]
func (h *AppointmentHandler) ListAppointments(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}

	var query services.AppointmentListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid query parameters",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Listing appointments", "user_id", viewer.ID)

	list, err := h.appointmentService.List(c.Request.Context(), viewer, &query)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// ExportAppointments streams the filtered appointments as a spreadsheet
// @Summary Export appointments
// @Tags appointments
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Failure 403 {object} ErrorResponse
// @Router /appointments/export [get]
func (h *AppointmentHandler) ExportAppointments(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}

	var query services.AppointmentListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid query parameters",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Exporting appointments", "user_id", viewer.ID)

	data, err := h.exportService.ExportAppointments(c.Request.Context(), viewer, &query)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("appointments-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// GetAppointment
// @Summary Get appointment
// @Tags appointments
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} services.AppointmentResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /appointments/{id} [get]
func (h *AppointmentHandler) GetAppointment(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	id := c.Param("id")

	h.LogRequest(c, "Getting appointment", "appointment_id", id)

	appt, err := h.appointmentService.Get(c.Request.Context(), viewer, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, appt)
}

// BookAppointment books a slot for the calling patient
// @Summary Book appointment
// @Tags appointments
// @Accept json
// @Produce json
// @Param appointment body services.BookAppointmentRequest true "Booking"
// @Success 201 {object} services.AppointmentResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /appointments [post]
func (h *AppointmentHandler) BookAppointment(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}

	var req services.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Booking appointment", "doctor_id", req.DoctorID, "at", req.AppointmentDateTime)

	appt, err := h.appointmentService.Book(c.Request.Context(), viewer, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, appt)
}

// RescheduleAppointment moves an appointment and/or edits its details
// @Summary Reschedule appointment
// @Description Admins may also set notes and status
// @Tags appointments
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param appointment body services.RescheduleAppointmentRequest true "Changes"
// @Success 200 {object} services.AppointmentResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /appointments/{id} [put]
func (h *AppointmentHandler) RescheduleAppointment(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	id := c.Param("id")

	var req services.RescheduleAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Rescheduling appointment", "appointment_id", id)

	appt, err := h.appointmentService.Reschedule(c.Request.Context(), viewer, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, appt)
}

// ChangeAppointmentStatus
// @Summary Set appointment status (admin)
// @Tags appointments
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param status body services.ChangeStatusRequest true "New status"
// @Success 200 {object} services.AppointmentResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /appointments/{id}/status [patch]
func (h *AppointmentHandler) ChangeAppointmentStatus(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	id := c.Param("id")

	var req services.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Changing appointment status", "appointment_id", id, "status", req.Status)

	appt, err := h.appointmentService.ChangeStatus(c.Request.Context(), viewer, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, appt)
}

// CancelAppointment
// @Summary Cancel appointment
// @Tags appointments
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} services.AppointmentResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /appointments/{id} [delete]
func (h *AppointmentHandler) CancelAppointment(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	id := c.Param("id")

	h.LogRequest(c, "Canceling appointment", "appointment_id", id)

	appt, err := h.appointmentService.Cancel(c.Request.Context(), viewer, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, appt)
}
