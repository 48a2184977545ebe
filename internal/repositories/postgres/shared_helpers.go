package postgres

import (
	"strings"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/clinic-service/internal/models"
	"github.com/SAP-F-2025/clinic-service/internal/repositories"
)

// SharedHelpers contains common query building used by several repositories
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// ApplyAppointmentFilters applies status, doctor, patient and [from, to) date filters
func (h *SharedHelpers) ApplyAppointmentFilters(query *gorm.DB, filters repositories.AppointmentFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("appointments.status = ?", *filters.Status)
	}
	if filters.DoctorID != nil {
		query = query.Where("appointments.doctor_id = ?", *filters.DoctorID)
	}
	if filters.PatientID != nil {
		query = query.Where("appointments.patient_id = ?", *filters.PatientID)
	}
	if filters.DateFrom != nil {
		query = query.Where("appointments.appointment_date_time >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("appointments.appointment_date_time < ?", *filters.DateTo)
	}
	return query
}

// ApplyDoctorFilters applies case-insensitive specialization and name/specialization search
func (h *SharedHelpers) ApplyDoctorFilters(query *gorm.DB, filters repositories.DoctorFilters) *gorm.DB {
	if filters.Specialization != nil && *filters.Specialization != "" {
		query = query.Where("specialization ILIKE ?", likePattern(*filters.Specialization))
	}
	if filters.Search != nil && *filters.Search != "" {
		pattern := likePattern(*filters.Search)
		query = query.Where("(name ILIKE ? OR specialization ILIKE ?)", pattern, pattern)
	}
	return query
}

// ApplyPatientFilters applies name/email search and status filter
func (h *SharedHelpers) ApplyPatientFilters(query *gorm.DB, filters repositories.PatientFilters) *gorm.DB {
	if filters.Search != nil && *filters.Search != "" {
		pattern := likePattern(*filters.Search)
		query = query.Where("(first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ?)", pattern, pattern, pattern)
	}
	if filters.Status != nil && *filters.Status != "" {
		query = query.Where("status = ?", *filters.Status)
	}
	return query
}

// ApplyPaginationAndSort applies pagination and sorting with SQL injection protection
func (h *SharedHelpers) ApplyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	allowedSortColumns := map[string]bool{
		"created_at": true,
		"updated_at": true,
		"first_name": true,
		"last_name":  true,
		"email":      true,
		"name":       true,
	}

	if sortBy == "" || !allowedSortColumns[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "ASC" {
		sortOrder = "DESC"
	} else {
		sortOrder = "ASC"
	}

	query = query.Order(sortBy + " " + sortOrder)
	return h.ApplyPagination(query, limit, offset)
}

func (h *SharedHelpers) ApplyPagination(query *gorm.DB, limit, offset int) *gorm.DB {
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}

// activeStatuses as plain values for IN clauses
func activeStatuses() []models.AppointmentStatus {
	return models.ActiveStatuses
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(s)) + "%"
}
