package handlers

import (
	"context"
	"fmt"
	"sync"

	"github.com/SAP-F-2025/clinic-service/internal/auth"
	"github.com/SAP-F-2025/clinic-service/internal/models"
	"github.com/SAP-F-2025/clinic-service/internal/services"
)

type fakeAppointments struct {
	mu         sync.Mutex
	lastViewer models.Viewer
	lastQuery  *services.AppointmentListQuery

	bookFn func(req *services.BookAppointmentRequest) (*services.AppointmentResponse, error)
	err    error
}

func (f *fakeAppointments) record(viewer models.Viewer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastViewer = viewer
}

func (f *fakeAppointments) List(ctx context.Context, viewer models.Viewer, query *services.AppointmentListQuery) (*services.AppointmentListResponse, error) {
	f.record(viewer)
	f.lastQuery = query
	if f.err != nil {
		return nil, f.err
	}
	return &services.AppointmentListResponse{Appointments: []*services.AppointmentResponse{}}, nil
}

func (f *fakeAppointments) Get(ctx context.Context, viewer models.Viewer, id string) (*services.AppointmentResponse, error) {
	f.record(viewer)
	if f.err != nil {
		return nil, f.err
	}
	return &services.AppointmentResponse{Appointment: &models.Appointment{ID: id}}, nil
}

func (f *fakeAppointments) Book(ctx context.Context, viewer models.Viewer, req *services.BookAppointmentRequest) (*services.AppointmentResponse, error) {
	f.record(viewer)
	if f.bookFn != nil {
		return f.bookFn(req)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &services.AppointmentResponse{Appointment: &models.Appointment{
		ID:                  "appt-1",
		DoctorID:            req.DoctorID,
		PatientID:           viewer.ID,
		AppointmentDateTime: req.AppointmentDateTime,
		Status:              models.StatusBooked,
	}}, nil
}

func (f *fakeAppointments) Reschedule(ctx context.Context, viewer models.Viewer, id string, req *services.RescheduleAppointmentRequest) (*services.AppointmentResponse, error) {
	f.record(viewer)
	if f.err != nil {
		return nil, f.err
	}
	return &services.AppointmentResponse{Appointment: &models.Appointment{ID: id, Status: models.StatusRescheduled}}, nil
}

func (f *fakeAppointments) Cancel(ctx context.Context, viewer models.Viewer, id string) (*services.AppointmentResponse, error) {
	f.record(viewer)
	if f.err != nil {
		return nil, f.err
	}
	return &services.AppointmentResponse{Appointment: &models.Appointment{ID: id, Status: models.StatusCanceled}}, nil
}

func (f *fakeAppointments) ChangeStatus(ctx context.Context, viewer models.Viewer, id string, req *services.ChangeStatusRequest) (*services.AppointmentResponse, error) {
	f.record(viewer)
	if f.err != nil {
		return nil, f.err
	}
	return &services.AppointmentResponse{Appointment: &models.Appointment{ID: id, Status: req.Status}}, nil
}

type fakeDoctors struct {
	err error
}

func (f *fakeDoctors) List(ctx context.Context, query *services.DoctorListQuery) (*services.DoctorListResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &services.DoctorListResponse{Doctors: []*models.Doctor{{ID: "doc-1", Name: "Dr. Rivera"}}, Total: 1}, nil
}

func (f *fakeDoctors) Get(ctx context.Context, id string) (*models.Doctor, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Doctor{ID: id, Name: "Dr. Rivera"}, nil
}

func (f *fakeDoctors) Create(ctx context.Context, viewer models.Viewer, req *services.CreateDoctorRequest) (*models.Doctor, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Doctor{ID: "doc-2", Name: req.Name, Email: req.Email}, nil
}

func (f *fakeDoctors) Update(ctx context.Context, viewer models.Viewer, id string, req *services.UpdateDoctorRequest) (*models.Doctor, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Doctor{ID: id}, nil
}

func (f *fakeDoctors) Delete(ctx context.Context, viewer models.Viewer, id string) error {
	return f.err
}

type fakePatients struct {
	err error
}

func (f *fakePatients) List(ctx context.Context, viewer models.Viewer, query *services.PatientListQuery) (*services.PatientListResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &services.PatientListResponse{Patients: []*models.Patient{}}, nil
}

func (f *fakePatients) Get(ctx context.Context, viewer models.Viewer, id string) (*models.Patient, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Patient{ID: id}, nil
}

func (f *fakePatients) Create(ctx context.Context, viewer models.Viewer, req *services.CreatePatientRequest) (*models.Patient, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Patient{ID: "pat-1", FirstName: req.FirstName, LastName: req.LastName, Email: req.Email}, nil
}

func (f *fakePatients) Update(ctx context.Context, viewer models.Viewer, id string, req *services.UpdatePatientRequest) (*models.Patient, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Patient{ID: id}, nil
}

func (f *fakePatients) Delete(ctx context.Context, viewer models.Viewer, id string) error {
	return f.err
}

// fakeAuth resolves tokens against a fixed user table
type fakeAuth struct {
	users       map[string]*models.User
	forgotCalls int
	err         error
}

func (f *fakeAuth) Register(ctx context.Context, req *services.RegisterRequest) (*services.AuthResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &services.AuthResponse{Token: "t", User: &models.User{ID: "new-user", Name: req.Name, Email: req.Email, Role: models.RolePatient}}, nil
}

func (f *fakeAuth) Login(ctx context.Context, req *services.LoginRequest) (*services.AuthResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &services.AuthResponse{Token: "t", User: &models.User{ID: "u", Email: req.Email, Role: models.RolePatient}}, nil
}

func (f *fakeAuth) Me(ctx context.Context, userID string) (*models.User, error) {
	if u, ok := f.users[userID]; ok {
		return u, nil
	}
	return nil, services.ErrUserNotFound
}

func (f *fakeAuth) ForgotPassword(ctx context.Context, req *services.ForgotPasswordRequest) error {
	f.forgotCalls++
	return f.err
}

func (f *fakeAuth) ResetPassword(ctx context.Context, req *services.ResetPasswordRequest) error {
	return f.err
}

func (f *fakeAuth) ResolveIdentity(ctx context.Context, identity *auth.Identity) (*models.User, error) {
	if u, ok := f.users[identity.UserID]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("%w: unknown user", services.ErrUnauthorized)
}

type fakeExport struct {
	data []byte
}

func (f *fakeExport) ExportAppointments(ctx context.Context, viewer models.Viewer, query *services.AppointmentListQuery) ([]byte, error) {
	return f.data, nil
}

type fakeServiceManager struct {
	appointments *fakeAppointments
	doctors      *fakeDoctors
	patients     *fakePatients
	auth         *fakeAuth
	export       *fakeExport
	healthErr    error
}

func (m *fakeServiceManager) Appointment() services.AppointmentService { return m.appointments }
func (m *fakeServiceManager) Doctor() services.DoctorService           { return m.doctors }
func (m *fakeServiceManager) Patient() services.PatientService         { return m.patients }
func (m *fakeServiceManager) Auth() services.AuthService               { return m.auth }
func (m *fakeServiceManager) Export() services.ExportService           { return m.export }
func (m *fakeServiceManager) Initialize(ctx context.Context) error      { return nil }
func (m *fakeServiceManager) HealthCheck(ctx context.Context) error     { return m.healthErr }
func (m *fakeServiceManager) Shutdown(ctx context.Context) error        { return nil }
