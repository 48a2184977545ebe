package services

import (
	"github.com/SAP-F-2025/clinic-service/internal/models"
	"github.com/SAP-F-2025/clinic-service/internal/repositories"
)

type Action string

const (
	ActionList         Action = "list"
	ActionRead         Action = "read"
	ActionBook         Action = "book"
	ActionReschedule   Action = "reschedule"
	ActionCancel       Action = "cancel"
	ActionChangeStatus Action = "change_status"
	ActionSetNotes     Action = "set_notes"
	ActionExport       Action = "export"

	ActionManageDoctors  Action = "manage_doctors"
	ActionManagePatients Action = "manage_patients"
)

// Authorize is the single role x action policy. appt is nil for actions that do not
// target one appointment.
//
//	PATIENT: list/read/reschedule/cancel own, book
//	DOCTOR:  list/read/reschedule assigned
//	ADMIN:   everything except book
func Authorize(viewer models.Viewer, action Action, appt *models.Appointment) error {
	if !viewer.Role.IsValid() || viewer.ID == "" {
		return denied(viewer, action, appt, "unknown role")
	}

	switch action {
	case ActionList:
		return nil

	case ActionBook:
		if viewer.IsPatient() {
			return nil
		}
		return denied(viewer, action, appt, "only patients book appointments")

	case ActionRead, ActionReschedule:
		if viewer.IsAdmin() || ownsAsPatient(viewer, appt) || assignedDoctor(viewer, appt) {
			return nil
		}
		return denied(viewer, action, appt, "not the owner or assigned doctor")

	case ActionCancel:
		if viewer.IsAdmin() || ownsAsPatient(viewer, appt) {
			return nil
		}
		return denied(viewer, action, appt, "not the owner")

	case ActionChangeStatus, ActionSetNotes, ActionExport, ActionManageDoctors, ActionManagePatients:
		if viewer.IsAdmin() {
			return nil
		}
		return denied(viewer, action, appt, "admin only")
	}

	return denied(viewer, action, appt, "unknown action")
}

// ScopeFilters narrows a listing to what the viewer may see
func ScopeFilters(viewer models.Viewer, filters repositories.AppointmentFilters) repositories.AppointmentFilters {
	switch viewer.Role {
	case models.RolePatient:
		id := viewer.ID
		filters.PatientID = &id
	case models.RoleDoctor:
		id := viewer.ID
		filters.DoctorID = &id
	}
	return filters
}

func ownsAsPatient(viewer models.Viewer, appt *models.Appointment) bool {
	return viewer.IsPatient() && appt != nil && appt.PatientID == viewer.ID
}

func assignedDoctor(viewer models.Viewer, appt *models.Appointment) bool {
	return viewer.IsDoctor() && appt != nil && appt.DoctorID == viewer.ID
}

func denied(viewer models.Viewer, action Action, appt *models.Appointment, reason string) *PermissionError {
	resourceID := ""
	if appt != nil {
		resourceID = appt.ID
	}
	resource := "appointment"
	switch action {
	case ActionManageDoctors:
		resource = "doctor"
	case ActionManagePatients:
		resource = "patient"
	}
	return NewPermissionError(viewer.ID, resourceID, resource, string(action), reason)
}
