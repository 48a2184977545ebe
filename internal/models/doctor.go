package models

import (
	"time"

	"gorm.io/datatypes"
)

type Doctor struct {
	ID             string         `json:"id" gorm:"primaryKey;size:36"`
	Name           string         `json:"name" gorm:"not null;size:100;index"`
	Email          string         `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Specialization string         `json:"specialization" gorm:"not null;size:100;index"`
	Description    *string        `json:"description,omitempty" gorm:"type:text"`
	ImageURL       *string        `json:"image_url,omitempty" gorm:"size:500"`
	Phone          *string        `json:"phone,omitempty" gorm:"size:32"`
	Availability   datatypes.JSON `json:"availability" gorm:"type:jsonb;not null;default:'{}'"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Computed
	BookedSlots []time.Time `json:"booked_slots,omitempty" gorm:"-"`
}

func (Doctor) TableName() string {
	return "doctors"
}

type DoctorSummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
}

func (d *Doctor) Summary() *DoctorSummary {
	if d == nil {
		return nil
	}
	return &DoctorSummary{ID: d.ID, Name: d.Name, Specialization: d.Specialization}
}
