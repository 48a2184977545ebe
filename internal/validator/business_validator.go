package validator

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/clinic-service/internal/models"
)

const DateLayout = "2006-01-02"

var bloodGroups = map[string]bool{
	"A+": true, "A-": true, "B+": true, "B-": true,
	"AB+": true, "AB-": true, "O+": true, "O-": true,
}

// BusinessValidator handles rules that span fields or need more than struct tags
type BusinessValidator struct {
	v *Validator
}

// ValidateBooking validates a booking request; the past/future check needs the
// scheduler's clock and happens there
func (bv *BusinessValidator) ValidateBooking(req *BookAppointmentRequest) ValidationErrors {
	return bv.v.Validate(req)
}

func (bv *BusinessValidator) ValidateReschedule(req *RescheduleAppointmentRequest) ValidationErrors {
	errors := bv.v.Validate(req)

	if req.AppointmentDateTime != nil && req.AppointmentDateTime.IsZero() {
		errors = append(errors, ValidationError{
			Field:   "appointment_date_time",
			Message: "must be a valid instant",
			Rule:    "business_logic",
		})
	}

	if req.AppointmentDateTime == nil && req.Reason == nil && req.Symptoms == nil && req.Notes == nil && req.Status == nil {
		errors = append(errors, ValidationError{
			Field:   "request",
			Message: "at least one field must be provided",
			Rule:    "business_logic",
		})
	}

	return errors
}

func (bv *BusinessValidator) ValidateDoctorCreate(req *DoctorCreateRequest) ValidationErrors {
	errors := bv.v.Validate(req)
	errors = append(errors, validateAvailability(req.Availability)...)
	return errors
}

func (bv *BusinessValidator) ValidateDoctorUpdate(req *DoctorUpdateRequest) ValidationErrors {
	errors := bv.v.Validate(req)
	errors = append(errors, validateAvailability(req.Availability)...)
	return errors
}

func (bv *BusinessValidator) ValidatePatientCreate(req *PatientCreateRequest, now time.Time) ValidationErrors {
	errors := bv.v.Validate(req)
	errors = append(errors, validateDOB(req.DOB, now)...)
	return errors
}

func (bv *BusinessValidator) ValidatePatientUpdate(req *PatientUpdateRequest, now time.Time) ValidationErrors {
	errors := bv.v.Validate(req)
	errors = append(errors, validateDOB(req.DOB, now)...)
	return errors
}

// ParseDate parses YYYY-MM-DD as a UTC midnight
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// Availability is opaque to the scheduler but must be a JSON object
func validateAvailability(raw json.RawMessage) ValidationErrors {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ValidationErrors{{
			Field:   "availability",
			Message: "must be a JSON object",
			Rule:    "business_logic",
		}}
	}
	return nil
}

func validateDOB(dob *string, now time.Time) ValidationErrors {
	if dob == nil {
		return nil
	}
	d, err := ParseDate(*dob)
	if err != nil {
		// date_only already reported it
		return nil
	}
	if d.After(now) {
		return ValidationErrors{{
			Field:   "dob",
			Message: "cannot be in the future",
			Value:   *dob,
			Rule:    "business_logic",
		}}
	}
	return nil
}

// registerRules registers custom validators
func registerRules(validate *validator.Validate) {
	validate.RegisterValidation("appointment_status", func(fl validator.FieldLevel) bool {
		return models.AppointmentStatus(fl.Field().String()).IsValid()
	})

	validate.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		return models.UserRole(fl.Field().String()).IsValid()
	})

	validate.RegisterValidation("date_only", func(fl validator.FieldLevel) bool {
		_, err := ParseDate(fl.Field().String())
		return err == nil
	})

	validate.RegisterValidation("gender", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "male", "female", "other":
			return true
		}
		return false
	})

	validate.RegisterValidation("blood_group", func(fl validator.FieldLevel) bool {
		return bloodGroups[strings.ToUpper(fl.Field().String())]
	})
}
