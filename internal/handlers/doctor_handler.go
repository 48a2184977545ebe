package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/clinic-service/internal/services"
	"github.com/SAP-F-2025/clinic-service/internal/utils"
)

type DoctorHandler struct {
	BaseHandler
	doctorService services.DoctorService
}

func NewDoctorHandler(doctorService services.DoctorService, logger utils.Logger) *DoctorHandler {
	return &DoctorHandler{
		BaseHandler:   NewBaseHandler(logger),
		doctorService: doctorService,
	}
}

// ListDoctors is public
// @Summary List doctors
// @Tags doctors
// @Produce json
// @Param specialization query string false "Specialization contains"
// @Param search query string false "Name or specialization contains"
// @Success 200 {object} services.DoctorListResponse
// @Router /doctors [get]
func (h *DoctorHandler) ListDoctors(c *gin.Context) {
	h.LogRequest(c, "Listing doctors")

	var query services.DoctorListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid query parameters",
			Details: err.Error(),
		})
		return
	}

	list, err := h.doctorService.List(c.Request.Context(), &query)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// GetDoctor is public and includes upcoming booked slots
// @Summary Get doctor
// @Tags doctors
// @Produce json
// @Param id path string true "Doctor ID"
// @Success 200 {object} models.Doctor
// @Failure 404 {object} ErrorResponse
// @Router /doctors/{id} [get]
func (h *DoctorHandler) GetDoctor(c *gin.Context) {
	id := c.Param("id")
	h.LogRequest(c, "Getting doctor", "doctor_id", id)

	doctor, err := h.doctorService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, doctor)
}

// CreateDoctor
// @Summary Create doctor (admin)
// @Tags doctors
// @Accept json
// @Produce json
// @Param doctor body services.CreateDoctorRequest true "Doctor"
// @Success 201 {object} models.Doctor
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /doctors [post]
func (h *DoctorHandler) CreateDoctor(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}

	var req services.CreateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Creating doctor", "email", req.Email)

	doctor, err := h.doctorService.Create(c.Request.Context(), viewer, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, doctor)
}

// UpdateDoctor
// @Summary Update doctor (admin)
// @Tags doctors
// @Accept json
// @Produce json
// @Param id path string true "Doctor ID"
// @Param doctor body services.UpdateDoctorRequest true "Changes"
// @Success 200 {object} models.Doctor
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /doctors/{id} [put]
func (h *DoctorHandler) UpdateDoctor(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	id := c.Param("id")

	var req services.UpdateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Updating doctor", "doctor_id", id)

	doctor, err := h.doctorService.Update(c.Request.Context(), viewer, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, doctor)
}

// DeleteDoctor
// @Summary Delete doctor (admin)
// @Tags doctors
// @Param id path string true "Doctor ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /doctors/{id} [delete]
func (h *DoctorHandler) DeleteDoctor(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	id := c.Param("id")

	h.LogRequest(c, "Deleting doctor", "doctor_id", id)

	if err := h.doctorService.Delete(c.Request.Context(), viewer, id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Doctor deleted successfully"})
}
