package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/SAP-F-2025/clinic-service/internal/auth"
	"github.com/SAP-F-2025/clinic-service/internal/events"
	"github.com/SAP-F-2025/clinic-service/internal/models"
	"github.com/SAP-F-2025/clinic-service/internal/validator"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

var testNow = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

// clinicFixture seeds one doctor, two patients and an admin
type clinicFixture struct {
	repo      *memRepo
	publisher *events.MockEventPublisher
	hasher    auth.PasswordHasher
	svc       AppointmentService

	doctor   models.Doctor
	patient1 models.Viewer
	patient2 models.Viewer
	doctorV  models.Viewer
	admin    models.Viewer
}

func newClinicFixture(t *testing.T) *clinicFixture {
	t.Helper()

	repo := newMemRepo()
	publisher := events.NewMockEventPublisher(nil)

	f := &clinicFixture{
		repo:      repo,
		publisher: publisher,
		hasher:    auth.NewBcryptHasher(bcrypt.MinCost),
		doctor: models.Doctor{
			ID:             uuid.NewString(),
			Name:           "Dr. Rivera",
			Email:          "rivera@clinic.test",
			Specialization: "Cardiology",
		},
		patient1: models.Viewer{ID: uuid.NewString(), Role: models.RolePatient},
		patient2: models.Viewer{ID: uuid.NewString(), Role: models.RolePatient},
		admin:    models.Viewer{ID: uuid.NewString(), Role: models.RoleAdmin},
	}
	f.doctorV = models.Viewer{ID: f.doctor.ID, Role: models.RoleDoctor}

	repo.addDoctor(f.doctor)
	repo.addUser(models.User{ID: f.patient1.ID, Name: "Pat One", Email: "one@clinic.test", Role: models.RolePatient})
	repo.addUser(models.User{ID: f.patient2.ID, Name: "Pat Two", Email: "two@clinic.test", Role: models.RolePatient})
	repo.addUser(models.User{ID: f.admin.ID, Name: "Admin", Email: "admin@clinic.test", Role: models.RoleAdmin})
	repo.addUser(models.User{ID: f.doctor.ID, Name: f.doctor.Name, Email: f.doctor.Email, Role: models.RoleDoctor})

	f.svc = NewAppointmentService(repo, discardLogger(), validator.New(), publisher, fixedClock{testNow}, nil)
	return f
}

func (f *clinicFixture) book(t *testing.T, viewer models.Viewer, at time.Time) *AppointmentResponse {
	t.Helper()
	resp, err := f.svc.Book(context.Background(), viewer, &BookAppointmentRequest{
		DoctorID:            f.doctor.ID,
		AppointmentDateTime: at,
		Reason:              "checkup",
	})
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}
	return resp
}

func wantKind(t *testing.T, err error, want ErrorKind) {
	t.Helper()
	if got := KindOf(err); got != want {
		t.Fatalf("KindOf(%v) = %q, want %q", err, got, want)
	}
}
