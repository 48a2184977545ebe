package postgres

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/clinic-service/internal/cache"
	"github.com/SAP-F-2025/clinic-service/internal/models"
	"github.com/SAP-F-2025/clinic-service/internal/repositories"
)

type DoctorPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewDoctorPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.DoctorRepository {
	return &DoctorPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cacheManager,
	}
}

type cachedDoctorList struct {
	Doctors []*models.Doctor `json:"doctors"`
	Total   int64            `json:"total"`
}

func (d *DoctorPostgreSQL) Create(ctx context.Context, doctor *models.Doctor) error {
	if err := d.db.WithContext(ctx).Create(doctor).Error; err != nil {
		return fmt.Errorf("failed to create doctor: %w", err)
	}
	cache.InvalidateDoctorCache(ctx, d.cacheManager, "")
	return nil
}

// GetByID retrieves a doctor profile with caching
func (d *DoctorPostgreSQL) GetByID(ctx context.Context, id string) (*models.Doctor, error) {
	var doctor models.Doctor

	err := d.cacheManager.Doctor.CacheOrExecute(ctx, "id:"+id, &doctor, cache.DoctorCacheConfig.TTL, func() (interface{}, error) {
		var dbDoctor models.Doctor
		if err := d.db.WithContext(ctx).First(&dbDoctor, "id = ?", id).Error; err != nil {
			return nil, fmt.Errorf("failed to get doctor: %w", err)
		}
		return &dbDoctor, nil
	})
	if err != nil {
		return nil, err
	}

	return &doctor, nil
}

// GetByEmail bypasses the cache; it only runs when an external login is first seen
func (d *DoctorPostgreSQL) GetByEmail(ctx context.Context, email string) (*models.Doctor, error) {
	var doctor models.Doctor
	if err := d.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&doctor).Error; err != nil {
		return nil, fmt.Errorf("failed to get doctor by email: %w", err)
	}
	return &doctor, nil
}

func (d *DoctorPostgreSQL) Update(ctx context.Context, doctor *models.Doctor) error {
	result := d.db.WithContext(ctx).
		Model(&models.Doctor{}).
		Where("id = ?", doctor.ID).
		Updates(map[string]interface{}{
			"name":           doctor.Name,
			"email":          doctor.Email,
			"specialization": doctor.Specialization,
			"description":    doctor.Description,
			"image_url":      doctor.ImageURL,
			"phone":          doctor.Phone,
			"availability":   doctor.Availability,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update doctor: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to update doctor: %w", gorm.ErrRecordNotFound)
	}

	cache.InvalidateDoctorCache(ctx, d.cacheManager, doctor.ID)
	return nil
}

func (d *DoctorPostgreSQL) Delete(ctx context.Context, id string) error {
	result := d.db.WithContext(ctx).Delete(&models.Doctor{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete doctor: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to delete doctor: %w", gorm.ErrRecordNotFound)
	}

	cache.InvalidateDoctorCache(ctx, d.cacheManager, id)
	return nil
}

// List returns doctors ordered by name; results are cached per filter set
func (d *DoctorPostgreSQL) List(ctx context.Context, filters repositories.DoctorFilters) ([]*models.Doctor, int64, error) {
	var result cachedDoctorList

	err := d.cacheManager.Doctor.CacheOrExecute(ctx, doctorListKey(filters), &result, cache.DoctorCacheConfig.TTL, func() (interface{}, error) {
		query := d.helpers.ApplyDoctorFilters(d.db.WithContext(ctx).Model(&models.Doctor{}), filters)

		var total int64
		if err := query.Count(&total).Error; err != nil {
			return nil, fmt.Errorf("failed to count doctors: %w", err)
		}

		var doctors []*models.Doctor
		err := d.helpers.ApplyPagination(query, filters.Limit, filters.Offset).
			Order("name ASC").
			Find(&doctors).Error
		if err != nil {
			return nil, fmt.Errorf("failed to list doctors: %w", err)
		}

		return &cachedDoctorList{Doctors: doctors, Total: total}, nil
	})
	if err != nil {
		return nil, 0, err
	}

	return result.Doctors, result.Total, nil
}

// ExistsByID always hits the database; it guards writes
func (d *DoctorPostgreSQL) ExistsByID(ctx context.Context, id string) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&models.Doctor{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check doctor existence: %w", err)
	}
	return count > 0, nil
}

func (d *DoctorPostgreSQL) ExistsByEmail(ctx context.Context, email string, excludeID *string) (bool, error) {
	query := d.db.WithContext(ctx).Model(&models.Doctor{}).Where("LOWER(email) = LOWER(?)", email)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check doctor email: %w", err)
	}
	return count > 0, nil
}

func (d *DoctorPostgreSQL) InvalidateDoctor(ctx context.Context, id string) {
	cache.InvalidateDoctorCache(ctx, d.cacheManager, id)
}

func doctorListKey(filters repositories.DoctorFilters) string {
	raw, _ := json.Marshal(filters)
	sum := sha1.Sum(raw)
	return "list:" + hex.EncodeToString(sum[:])
}
