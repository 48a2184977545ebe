package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/clinic-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type AppointmentFilters struct {
	Status    *models.AppointmentStatus `json:"status"`
	DoctorID  *string                   `json:"doctor_id"`
	PatientID *string                   `json:"patient_id"`
	DateFrom  *time.Time                `json:"date_from"` // inclusive
	DateTo    *time.Time                `json:"date_to"`   // exclusive
	Limit     int                       `json:"limit"`
	Offset    int                       `json:"offset"`
}

type DoctorFilters struct {
	Specialization *string `json:"specialization"`
	Search         *string `json:"search"`
	Limit          int     `json:"limit"`
	Offset         int     `json:"offset"`
}

type PatientFilters struct {
	Search    *string `json:"search"`
	Status    *string `json:"status"`
	Limit     int     `json:"limit"`
	Offset    int     `json:"offset"`
	SortBy    string  `json:"sort_by"`
	SortOrder string  `json:"sort_order"`
}

// ===== REPOSITORY INTERFACES =====

type AppointmentRepository interface {
	Create(ctx context.Context, appointment *models.Appointment) error
	GetByID(ctx context.Context, id string) (*models.Appointment, error)
	GetByIDWithDetails(ctx context.Context, id string) (*models.Appointment, error)
	Update(ctx context.Context, appointment *models.Appointment) error

	// List returns appointments with patient and doctor preloaded, newest slot first
	List(ctx context.Context, filters AppointmentFilters) ([]*models.Appointment, int64, error)

	// HasActiveAtSlot reports whether an active appointment holds doctorID at the instant,
	// ignoring excludeID when set
	HasActiveAtSlot(ctx context.Context, doctorID string, at time.Time, excludeID *string) (bool, error)

	// LockSlot serializes writers on the same (doctor, instant) until the transaction ends
	LockSlot(ctx context.Context, doctorID string, at time.Time) error

	ListBookedSlots(ctx context.Context, doctorID string, from time.Time) ([]time.Time, error)
	CountActiveByDoctor(ctx context.Context, doctorID string) (int64, error)
}

type DoctorRepository interface {
	Create(ctx context.Context, doctor *models.Doctor) error
	GetByID(ctx context.Context, id string) (*models.Doctor, error)
	GetByEmail(ctx context.Context, email string) (*models.Doctor, error)
	Update(ctx context.Context, doctor *models.Doctor) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filters DoctorFilters) ([]*models.Doctor, int64, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	ExistsByEmail(ctx context.Context, email string, excludeID *string) (bool, error)

	// InvalidateDoctor drops cached reads for one doctor
	InvalidateDoctor(ctx context.Context, id string)
}

type PatientRepository interface {
	Create(ctx context.Context, patient *models.Patient) error
	GetByID(ctx context.Context, id string) (*models.Patient, error)
	GetByUserID(ctx context.Context, userID string) (*models.Patient, error)
	Update(ctx context.Context, patient *models.Patient) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filters PatientFilters) ([]*models.Patient, int64, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	Delete(ctx context.Context, id string) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

type PasswordResetRepository interface {
	Create(ctx context.Context, reset *models.PasswordReset) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.PasswordReset, error)
	MarkUsed(ctx context.Context, id uint, usedAt time.Time) error
}
