package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/clinic-service/internal/models"
	"github.com/SAP-F-2025/clinic-service/internal/repositories"
)

type AppointmentPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewAppointmentPostgreSQL(db *gorm.DB) repositories.AppointmentRepository {
	return &AppointmentPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (a *AppointmentPostgreSQL) Create(ctx context.Context, appointment *models.Appointment) error {
	if err := a.db.WithContext(ctx).Create(appointment).Error; err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (a *AppointmentPostgreSQL) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	var appointment models.Appointment
	if err := a.db.WithContext(ctx).First(&appointment, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

// GetByIDWithDetails loads the patient and doctor summaries alongside the appointment
func (a *AppointmentPostgreSQL) GetByIDWithDetails(ctx context.Context, id string) (*models.Appointment, error) {
	var appointment models.Appointment
	err := a.db.WithContext(ctx).
		Preload("Patient").
		Preload("Doctor").
		First(&appointment, "id = ?", id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment details: %w", err)
	}
	return &appointment, nil
}

func (a *AppointmentPostgreSQL) Update(ctx context.Context, appointment *models.Appointment) error {
	result := a.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ?", appointment.ID).
		Updates(map[string]interface{}{
			"appointment_date_time": appointment.AppointmentDateTime,
			"status":                appointment.Status,
			"reason":                appointment.Reason,
			"symptoms":              appointment.Symptoms,
			"notes":                 appointment.Notes,
			"updated_at":            time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update appointment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to update appointment: %w", gorm.ErrRecordNotFound)
	}
	return nil
}

func (a *AppointmentPostgreSQL) List(ctx context.Context, filters repositories.AppointmentFilters) ([]*models.Appointment, int64, error) {
	query := a.helpers.ApplyAppointmentFilters(a.db.WithContext(ctx).Model(&models.Appointment{}), filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count appointments: %w", err)
	}

	var appointments []*models.Appointment
	err := a.helpers.ApplyPagination(query, filters.Limit, filters.Offset).
		Preload("Patient").
		Preload("Doctor").
		Order("appointments.appointment_date_time DESC").
		Find(&appointments).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list appointments: %w", err)
	}

	return appointments, total, nil
}

func (a *AppointmentPostgreSQL) HasActiveAtSlot(ctx context.Context, doctorID string, at time.Time, excludeID *string) (bool, error) {
	query := a.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("doctor_id = ? AND appointment_date_time = ? AND status IN ?", doctorID, at, activeStatuses())
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := query.Limit(1).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check slot: %w", err)
	}
	return count > 0, nil
}

// LockSlot takes a transaction-scoped advisory lock keyed on the slot.
// Outside a transaction the lock is released immediately, so callers run it inside WithTransaction.
func (a *AppointmentPostgreSQL) LockSlot(ctx context.Context, doctorID string, at time.Time) error {
	key := fmt.Sprintf("appointment-slot:%s:%d", doctorID, at.UTC().Unix())
	if err := a.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error; err != nil {
		return fmt.Errorf("failed to lock slot: %w", err)
	}
	return nil
}

func (a *AppointmentPostgreSQL) ListBookedSlots(ctx context.Context, doctorID string, from time.Time) ([]time.Time, error) {
	var slots []time.Time
	err := a.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("doctor_id = ? AND status = ? AND appointment_date_time >= ?", doctorID, models.StatusBooked, from).
		Order("appointment_date_time ASC").
		Pluck("appointment_date_time", &slots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list booked slots: %w", err)
	}
	return slots, nil
}

func (a *AppointmentPostgreSQL) CountActiveByDoctor(ctx context.Context, doctorID string) (int64, error) {
	var count int64
	err := a.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("doctor_id = ? AND status IN ?", doctorID, activeStatuses()).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count doctor appointments: %w", err)
	}
	return count, nil
}
