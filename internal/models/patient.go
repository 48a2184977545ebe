package models

import (
	"time"
)

const (
	PatientStatusActive   = "Active"
	PatientStatusInactive = "Inactive"
)

type Patient struct {
	ID     string `json:"id" gorm:"primaryKey;size:36"`
	UserID string `json:"user_id" gorm:"uniqueIndex;not null;size:36"`
	User   *User  `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`

	FirstName  string     `json:"first_name" gorm:"not null;size:100"`
	LastName   string     `json:"last_name" gorm:"not null;size:100"`
	Email      string     `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Phone      *string    `json:"phone,omitempty" gorm:"size:32"`
	DOB        *time.Time `json:"dob,omitempty" gorm:"type:date"`
	Gender     *string    `json:"gender,omitempty" gorm:"size:16"`
	BloodGroup *string    `json:"blood_group,omitempty" gorm:"size:8"`
	Status     string     `json:"status" gorm:"not null;size:16;default:'Active';index"`

	PrimaryDoctorID *string `json:"primary_doctor_id,omitempty" gorm:"size:36;index"`
	PrimaryDoctor   *Doctor `json:"primary_doctor,omitempty" gorm:"foreignKey:PrimaryDoctorID;constraint:OnDelete:SET NULL"`

	Address1 *string `json:"address1,omitempty" gorm:"size:255"`
	Address2 *string `json:"address2,omitempty" gorm:"size:255"`
	Country  *string `json:"country,omitempty" gorm:"size:100"`
	City     *string `json:"city,omitempty" gorm:"size:100"`
	State    *string `json:"state,omitempty" gorm:"size:100"`
	Pincode  *string `json:"pincode,omitempty" gorm:"size:20"`
	ImageURL *string `json:"image_url,omitempty" gorm:"size:500"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Patient) TableName() string {
	return "patients"
}

func (p *Patient) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}
