package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/clinic-service/internal/services"
	"github.com/SAP-F-2025/clinic-service/internal/utils"
)

// PatientHandler serves the admin-only patient registry
type PatientHandler struct {
	BaseHandler
	patientService services.PatientService
}

func NewPatientHandler(patientService services.PatientService, logger utils.Logger) *PatientHandler {
	return &PatientHandler{
		BaseHandler:    NewBaseHandler(logger),
		patientService: patientService,
	}
}

// ListPatients
// @Summary List patients (admin)
// @Tags patients
// @Produce json
// @Param search query string false "First name, last name or email contains"
// @Param status query string false "Active or Inactive"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} services.PatientListResponse
// @Router /patients [get]
func (h *PatientHandler) ListPatients(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}

	var query services.PatientListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid query parameters",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Listing patients")

	list, err := h.patientService.List(c.Request.Context(), viewer, &query)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// GetPatient
// @Summary Get patient (admin)
// @Tags patients
// @Produce json
// @Param id path string true "Patient ID"
// @Success 200 {object} models.Patient
// @Failure 404 {object} ErrorResponse
// @Router /patients/{id} [get]
func (h *PatientHandler) GetPatient(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	id := c.Param("id")

	patient, err := h.patientService.Get(c.Request.Context(), viewer, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, patient)
}

// CreatePatient also provisions a patient login with the default password
// @Summary Create patient (admin)
// @Tags patients
// @Accept json
// @Produce json
// @Param patient body services.CreatePatientRequest true "Patient"
// @Success 201 {object} models.Patient
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /patients [post]
func (h *PatientHandler) CreatePatient(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}

	var req services.CreatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Creating patient", "email", req.Email)

	patient, err := h.patientService.Create(c.Request.Context(), viewer, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, patient)
}

// UpdatePatient
// @Summary Update patient (admin)
// @Tags patients
// @Accept json
// @Produce json
// @Param id path string true "Patient ID"
// @Param patient body services.UpdatePatientRequest true "Changes"
// @Success 200 {object} models.Patient
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /patients/{id} [put]
func (h *PatientHandler) UpdatePatient(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	id := c.Param("id")

	var req services.UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Updating patient", "patient_id", id)

	patient, err := h.patientService.Update(c.Request.Context(), viewer, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, patient)
}

// DeletePatient removes the patient and its login
// @Summary Delete patient (admin)
// @Tags patients
// @Param id path string true "Patient ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /patients/{id} [delete]
func (h *PatientHandler) DeletePatient(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	id := c.Param("id")

	h.LogRequest(c, "Deleting patient", "patient_id", id)

	if err := h.patientService.Delete(c.Request.Context(), viewer, id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Patient deleted successfully"})
}
