package validator

import (
	"encoding/json"
	"time"

	"github.com/SAP-F-2025/clinic-service/internal/models"
)

// ===== APPOINTMENTS =====

type BookAppointmentRequest struct {
	DoctorID            string    `json:"doctor_id" validate:"required,uuid4"`
	AppointmentDateTime time.Time `json:"appointment_date_time" validate:"required"`
	Reason              string    `json:"reason" validate:"max=1000"`
	Symptoms            *string   `json:"symptoms" validate:"omitempty,max=2000"`
}

// RescheduleAppointmentRequest changes time and/or details; Notes and Status are admin-only
type RescheduleAppointmentRequest struct {
	AppointmentDateTime *time.Time                `json:"appointment_date_time"`
	Reason              *string                   `json:"reason" validate:"omitempty,max=1000"`
	Symptoms            *string                   `json:"symptoms" validate:"omitempty,max=2000"`
	Notes               *string                   `json:"notes" validate:"omitempty,max=4000"`
	Status              *models.AppointmentStatus `json:"status" validate:"omitempty,appointment_status"`
}

type ChangeStatusRequest struct {
	Status models.AppointmentStatus `json:"status" validate:"required,appointment_status"`
}

type AppointmentListQuery struct {
	Status   *string `form:"status" json:"status" validate:"omitempty,appointment_status"`
	DoctorID *string `form:"doctorId" json:"doctor_id" validate:"omitempty,uuid4"`
	Date     *string `form:"date" json:"date" validate:"omitempty,date_only"`
	Limit    int     `form:"limit" json:"limit" validate:"min=0,max=500"`
	Offset   int     `form:"offset" json:"offset" validate:"min=0"`
}

// ===== AUTH =====

type RegisterRequest struct {
	Name     string  `json:"name" validate:"required,min=1,max=100"`
	Email    string  `json:"email" validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required,min=6,max=72"`
	Phone    *string `json:"phone" validate:"omitempty,max=32"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required,len=64,hexadecimal"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=72"`
}

// ===== DOCTORS =====

type DoctorCreateRequest struct {
	Name           string          `json:"name" validate:"required,min=1,max=100"`
	Email          string          `json:"email" validate:"required,email,max=255"`
	Specialization string          `json:"specialization" validate:"required,min=1,max=100"`
	Description    *string         `json:"description" validate:"omitempty,max=2000"`
	ImageURL       *string         `json:"image_url" validate:"omitempty,max=500"`
	Phone          *string         `json:"phone" validate:"omitempty,max=32"`
	Availability   json.RawMessage `json:"availability"`
	// Password provisions a DOCTOR login sharing the doctor id
	Password *string `json:"password" validate:"omitempty,min=6,max=72"`
}

type DoctorUpdateRequest struct {
	Name           *string         `json:"name" validate:"omitempty,min=1,max=100"`
	Email          *string         `json:"email" validate:"omitempty,email,max=255"`
	Specialization *string         `json:"specialization" validate:"omitempty,min=1,max=100"`
	Description    *string         `json:"description" validate:"omitempty,max=2000"`
	ImageURL       *string         `json:"image_url" validate:"omitempty,max=500"`
	Phone          *string         `json:"phone" validate:"omitempty,max=32"`
	Availability   json.RawMessage `json:"availability"`
}

type DoctorListQuery struct {
	Specialization *string `form:"specialization" json:"specialization" validate:"omitempty,max=100"`
	Search         *string `form:"search" json:"search" validate:"omitempty,max=100"`
	Limit          int     `form:"limit" json:"limit" validate:"min=0,max=200"`
	Offset         int     `form:"offset" json:"offset" validate:"min=0"`
}

// ===== PATIENTS =====

type PatientCreateRequest struct {
	FirstName       string  `json:"first_name" validate:"required,min=1,max=100"`
	LastName        string  `json:"last_name" validate:"required,min=1,max=100"`
	Email           string  `json:"email" validate:"required,email,max=255"`
	Phone           *string `json:"phone" validate:"omitempty,max=32"`
	PrimaryDoctorID *string `json:"primary_doctor_id" validate:"omitempty,uuid4"`
	DOB             *string `json:"dob" validate:"omitempty,date_only"`
	Gender          *string `json:"gender" validate:"omitempty,gender"`
	BloodGroup      *string `json:"blood_group" validate:"omitempty,blood_group"`
	Status          *string `json:"status" validate:"omitempty,oneof=Active Inactive"`
	Address1        *string `json:"address1" validate:"omitempty,max=255"`
	Address2        *string `json:"address2" validate:"omitempty,max=255"`
	Country         *string `json:"country" validate:"omitempty,max=100"`
	City            *string `json:"city" validate:"omitempty,max=100"`
	State           *string `json:"state" validate:"omitempty,max=100"`
	Pincode         *string `json:"pincode" validate:"omitempty,max=20"`
	ImageURL        *string `json:"image_url" validate:"omitempty,max=500"`
}

type PatientUpdateRequest struct {
	FirstName       *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName        *string `json:"last_name" validate:"omitempty,min=1,max=100"`
	Email           *string `json:"email" validate:"omitempty,email,max=255"`
	Phone           *string `json:"phone" validate:"omitempty,max=32"`
	PrimaryDoctorID *string `json:"primary_doctor_id" validate:"omitempty,uuid4"`
	DOB             *string `json:"dob" validate:"omitempty,date_only"`
	Gender          *string `json:"gender" validate:"omitempty,gender"`
	BloodGroup      *string `json:"blood_group" validate:"omitempty,blood_group"`
	Status          *string `json:"status" validate:"omitempty,oneof=Active Inactive"`
	Address1        *string `json:"address1" validate:"omitempty,max=255"`
	Address2        *string `json:"address2" validate:"omitempty,max=255"`
	Country         *string `json:"country" validate:"omitempty,max=100"`
	City            *string `json:"city" validate:"omitempty,max=100"`
	State           *string `json:"state" validate:"omitempty,max=100"`
	Pincode         *string `json:"pincode" validate:"omitempty,max=20"`
	ImageURL        *string `json:"image_url" validate:"omitempty,max=500"`
}

type PatientListQuery struct {
	Search    *string `form:"search" json:"search" validate:"omitempty,max=100"`
	Status    *string `form:"status" json:"status" validate:"omitempty,oneof=Active Inactive"`
	Limit     int     `form:"limit" json:"limit" validate:"min=0,max=200"`
	Offset    int     `form:"offset" json:"offset" validate:"min=0"`
	SortBy    string  `form:"sort_by" json:"sort_by" validate:"omitempty,oneof=created_at first_name last_name email"`
	SortOrder string  `form:"sort_order" json:"sort_order" validate:"omitempty,oneof=asc desc ASC DESC"`
}
