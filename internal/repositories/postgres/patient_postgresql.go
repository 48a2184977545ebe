package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/clinic-service/internal/models"
	"github.com/SAP-F-2025/clinic-service/internal/repositories"
)

type PatientPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewPatientPostgreSQL(db *gorm.DB) repositories.PatientRepository {
	return &PatientPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (p *PatientPostgreSQL) Create(ctx context.Context, patient *models.Patient) error {
	if err := p.db.WithContext(ctx).Create(patient).Error; err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (p *PatientPostgreSQL) GetByID(ctx context.Context, id string) (*models.Patient, error) {
	var patient models.Patient
	err := p.db.WithContext(ctx).
		Preload("PrimaryDoctor").
		First(&patient, "id = ?", id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &patient, nil
}

func (p *PatientPostgreSQL) GetByUserID(ctx context.Context, userID string) (*models.Patient, error) {
	var patient models.Patient
	if err := p.db.WithContext(ctx).First(&patient, "user_id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("failed to get patient by user: %w", err)
	}
	return &patient, nil
}

func (p *PatientPostgreSQL) Update(ctx context.Context, patient *models.Patient) error {
	result := p.db.WithContext(ctx).
		Model(&models.Patient{}).
		Where("id = ?", patient.ID).
		Updates(map[string]interface{}{
			"first_name":        patient.FirstName,
			"last_name":         patient.LastName,
			"email":             patient.Email,
			"phone":             patient.Phone,
			"dob":               patient.DOB,
			"gender":            patient.Gender,
			"blood_group":       patient.BloodGroup,
			"status":            patient.Status,
			"primary_doctor_id": patient.PrimaryDoctorID,
			"address1":          patient.Address1,
			"address2":          patient.Address2,
			"country":           patient.Country,
			"city":              patient.City,
			"state":             patient.State,
			"pincode":           patient.Pincode,
			"image_url":         patient.ImageURL,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update patient: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to update patient: %w", gorm.ErrRecordNotFound)
	}
	return nil
}

func (p *PatientPostgreSQL) Delete(ctx context.Context, id string) error {
	result := p.db.WithContext(ctx).Delete(&models.Patient{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete patient: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to delete patient: %w", gorm.ErrRecordNotFound)
	}
	return nil
}

func (p *PatientPostgreSQL) List(ctx context.Context, filters repositories.PatientFilters) ([]*models.Patient, int64, error) {
	query := p.helpers.ApplyPatientFilters(p.db.WithContext(ctx).Model(&models.Patient{}), filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count patients: %w", err)
	}

	var patients []*models.Patient
	err := p.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset).
		Preload("PrimaryDoctor").
		Find(&patients).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list patients: %w", err)
	}

	return patients, total, nil
}
