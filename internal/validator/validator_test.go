package validator

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/SAP-F-2025/clinic-service/internal/models"
)

const doctorUUID = "8f14e45f-ceea-4e7a-9b8e-3c6f1d2a4b5c"

func strPtr(s string) *string { return &s }

func hasField(errs ValidationErrors, field string) bool {
	for _, e := range errs {
		if e.Field == field {
			return true
		}
	}
	return false
}

func TestValidateBooking(t *testing.T) {
	v := New().GetBusinessValidator()
	future := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		req       BookAppointmentRequest
		wantField string
	}{
		{
			name: "valid",
			req:  BookAppointmentRequest{DoctorID: doctorUUID, AppointmentDateTime: future, Reason: "checkup"},
		},
		{
			name:      "missing doctor",
			req:       BookAppointmentRequest{AppointmentDateTime: future},
			wantField: "doctor_id",
		},
		{
			name:      "malformed doctor id",
			req:       BookAppointmentRequest{DoctorID: "42", AppointmentDateTime: future},
			wantField: "doctor_id",
		},
		{
			name:      "missing time",
			req:       BookAppointmentRequest{DoctorID: doctorUUID},
			wantField: "appointment_date_time",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.ValidateBooking(&tt.req)
			if tt.wantField == "" {
				if len(errs) > 0 {
					t.Fatalf("unexpected errors: %v", errs)
				}
				return
			}
			if !hasField(errs, tt.wantField) {
				t.Errorf("errors %v do not mention %s", errs, tt.wantField)
			}
		})
	}
}

func TestValidateReschedule(t *testing.T) {
	v := New().GetBusinessValidator()
	bad := models.AppointmentStatus("PENDING")
	ok := models.StatusCompleted

	if errs := v.ValidateReschedule(&RescheduleAppointmentRequest{}); !hasField(errs, "request") {
		t.Errorf("empty request accepted: %v", errs)
	}
	if errs := v.ValidateReschedule(&RescheduleAppointmentRequest{Reason: strPtr("follow-up")}); len(errs) > 0 {
		t.Errorf("reason-only request rejected: %v", errs)
	}
	if errs := v.ValidateReschedule(&RescheduleAppointmentRequest{Status: &bad}); !hasField(errs, "status") {
		t.Errorf("unknown status accepted: %v", errs)
	}
	if errs := v.ValidateReschedule(&RescheduleAppointmentRequest{Status: &ok}); len(errs) > 0 {
		t.Errorf("valid status rejected: %v", errs)
	}
}

func TestValidateDoctorCreate(t *testing.T) {
	v := New().GetBusinessValidator()

	valid := DoctorCreateRequest{
		Name:           "Meredith Grey",
		Email:          "grey@clinic.test",
		Specialization: "Surgery",
		Availability:   json.RawMessage(`{"mon":["09:00-12:00"]}`),
	}
	if errs := v.ValidateDoctorCreate(&valid); len(errs) > 0 {
		t.Fatalf("valid doctor rejected: %v", errs)
	}

	invalid := valid
	invalid.Email = "not-an-email"
	invalid.Availability = json.RawMessage(`["mon"]`)
	errs := v.ValidateDoctorCreate(&invalid)
	if !hasField(errs, "email") || !hasField(errs, "availability") {
		t.Errorf("errors = %v, want email and availability", errs)
	}
}

func TestValidatePatientCreate(t *testing.T) {
	v := New().GetBusinessValidator()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	req := PatientCreateRequest{
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Email:      "ada@clinic.test",
		DOB:        strPtr("1990-12-10"),
		Gender:     strPtr("Female"),
		BloodGroup: strPtr("AB+"),
	}
	if errs := v.ValidatePatientCreate(&req, now); len(errs) > 0 {
		t.Fatalf("valid patient rejected: %v", errs)
	}

	req.DOB = strPtr("2099-01-01")
	req.BloodGroup = strPtr("Z")
	errs := v.ValidatePatientCreate(&req, now)
	if !hasField(errs, "dob") || !hasField(errs, "blood_group") {
		t.Errorf("errors = %v, want dob and blood_group", errs)
	}

	req.DOB = strPtr("10/12/1990")
	if errs := v.ValidatePatientCreate(&req, now); !hasField(errs, "dob") {
		t.Errorf("malformed dob accepted: %v", errs)
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{{Field: "email", Message: "is required"}}
	if got := errs.Error(); got != "validation failed: email is required" {
		t.Errorf("Error() = %q", got)
	}
}
