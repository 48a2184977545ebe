package services

import (
	"context"
	"time"

	"github.com/SAP-F-2025/clinic-service/internal/auth"
	"github.com/SAP-F-2025/clinic-service/internal/models"
	"github.com/SAP-F-2025/clinic-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use validator request types
type BookAppointmentRequest = validator.BookAppointmentRequest
type RescheduleAppointmentRequest = validator.RescheduleAppointmentRequest
type ChangeStatusRequest = validator.ChangeStatusRequest
type AppointmentListQuery = validator.AppointmentListQuery

type RegisterRequest = validator.RegisterRequest
type LoginRequest = validator.LoginRequest
type ForgotPasswordRequest = validator.ForgotPasswordRequest
type ResetPasswordRequest = validator.ResetPasswordRequest

type CreateDoctorRequest = validator.DoctorCreateRequest
type UpdateDoctorRequest = validator.DoctorUpdateRequest
type DoctorListQuery = validator.DoctorListQuery

type CreatePatientRequest = validator.PatientCreateRequest
type UpdatePatientRequest = validator.PatientUpdateRequest
type PatientListQuery = validator.PatientListQuery

type AppointmentResponse struct {
	*models.Appointment
	Patient       *models.UserSummary   `json:"patient,omitempty"`
	Doctor        *models.DoctorSummary `json:"doctor,omitempty"`
	CanReschedule bool                  `json:"can_reschedule"`
	CanCancel     bool                  `json:"can_cancel"`
}

type AppointmentListResponse struct {
	Appointments []*AppointmentResponse `json:"appointments"`
	Count        int                    `json:"count"`
	Total        int64                  `json:"total"`
}

type DoctorListResponse struct {
	Doctors []*models.Doctor `json:"doctors"`
	Total   int64            `json:"total"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

type PatientListResponse struct {
	Patients []*models.Patient `json:"patients"`
	Total    int64             `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// ===== SERVICE INTERFACES =====

// AppointmentService is the slot-booking scheduler
type AppointmentService interface {
	List(ctx context.Context, viewer models.Viewer, query *AppointmentListQuery) (*AppointmentListResponse, error)
	Get(ctx context.Context, viewer models.Viewer, id string) (*AppointmentResponse, error)
	Book(ctx context.Context, viewer models.Viewer, req *BookAppointmentRequest) (*AppointmentResponse, error)
	Reschedule(ctx context.Context, viewer models.Viewer, id string, req *RescheduleAppointmentRequest) (*AppointmentResponse, error)
	Cancel(ctx context.Context, viewer models.Viewer, id string) (*AppointmentResponse, error)
	ChangeStatus(ctx context.Context, viewer models.Viewer, id string, req *ChangeStatusRequest) (*AppointmentResponse, error)
}

type DoctorService interface {
	List(ctx context.Context, query *DoctorListQuery) (*DoctorListResponse, error)
	// Get includes the doctor's upcoming BOOKED slots
	Get(ctx context.Context, id string) (*models.Doctor, error)
	Create(ctx context.Context, viewer models.Viewer, req *CreateDoctorRequest) (*models.Doctor, error)
	Update(ctx context.Context, viewer models.Viewer, id string, req *UpdateDoctorRequest) (*models.Doctor, error)
	Delete(ctx context.Context, viewer models.Viewer, id string) error
}

type PatientService interface {
	List(ctx context.Context, viewer models.Viewer, query *PatientListQuery) (*PatientListResponse, error)
	Get(ctx context.Context, viewer models.Viewer, id string) (*models.Patient, error)
	Create(ctx context.Context, viewer models.Viewer, req *CreatePatientRequest) (*models.Patient, error)
	Update(ctx context.Context, viewer models.Viewer, id string, req *UpdatePatientRequest) (*models.Patient, error)
	Delete(ctx context.Context, viewer models.Viewer, id string) error
}

type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	Me(ctx context.Context, userID string) (*models.User, error)
	ForgotPassword(ctx context.Context, req *ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req *ResetPasswordRequest) error

	// ResolveIdentity maps a verified token to a local user, provisioning external identities
	ResolveIdentity(ctx context.Context, identity *auth.Identity) (*models.User, error)
}

type ExportService interface {
	// ExportAppointments renders the filtered appointments as an .xlsx workbook
	ExportAppointments(ctx context.Context, viewer models.Viewer, query *AppointmentListQuery) ([]byte, error)
}

// ServiceManager interface for managing all services
type ServiceManager interface {
	Appointment() AppointmentService
	Doctor() DoctorService
	Patient() PatientService
	Auth() AuthService
	Export() ExportService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// ===== SHARED HELPERS =====

// dayRange returns the half-open UTC interval [date 00:00, date+1 00:00)
func dayRange(date string) (time.Time, time.Time, error) {
	start, err := validator.ParseDate(date)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.AddDate(0, 0, 1), nil
}
