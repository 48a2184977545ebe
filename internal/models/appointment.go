package models

import (
	"time"
)

type AppointmentStatus string

const (
	StatusBooked      AppointmentStatus = "BOOKED"
	StatusRescheduled AppointmentStatus = "RESCHEDULED"
	StatusCompleted   AppointmentStatus = "COMPLETED"
	StatusCanceled    AppointmentStatus = "CANCELED"
)

// ActiveStatuses occupy a doctor's slot
var ActiveStatuses = []AppointmentStatus{StatusBooked, StatusRescheduled}

var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	StatusBooked:      {StatusRescheduled, StatusCompleted, StatusCanceled},
	StatusRescheduled: {StatusRescheduled, StatusCompleted, StatusCanceled},
	StatusCompleted:   {},
	StatusCanceled:    {},
}

func (s AppointmentStatus) IsValid() bool {
	_, ok := appointmentTransitions[s]
	return ok
}

func (s AppointmentStatus) IsActive() bool {
	return s == StatusBooked || s == StatusRescheduled
}

func (s AppointmentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCanceled
}

// CanTransitionTo reports whether the regular lifecycle allows s -> next.
// Administrative overrides skip this table.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range appointmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Appointment struct {
	ID        string `json:"id" gorm:"primaryKey;size:36"`
	PatientID string `json:"patient_id" gorm:"not null;size:36;index"`
	DoctorID  string `json:"doctor_id" gorm:"not null;size:36;index"`

	AppointmentDateTime time.Time         `json:"appointment_date_time" gorm:"not null;index"`
	Status              AppointmentStatus `json:"status" gorm:"type:varchar(16);not null;default:'BOOKED';index"`

	Reason   string  `json:"reason" gorm:"type:text"`
	Symptoms *string `json:"symptoms,omitempty" gorm:"type:text"`
	Notes    *string `json:"notes,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Patient *User   `json:"-" gorm:"foreignKey:PatientID;constraint:OnDelete:CASCADE"`
	Doctor  *Doctor `json:"-" gorm:"foreignKey:DoctorID;constraint:OnDelete:RESTRICT"`
}

func (Appointment) TableName() string {
	return "appointments"
}
