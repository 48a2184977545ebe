package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/SAP-F-2025/clinic-service/internal/models"
	"github.com/SAP-F-2025/clinic-service/internal/validator"
)

type ValidationErrors = validator.ValidationErrors

// Generic errors
var (
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrConflict         = errors.New("resource conflict")
)

// Scheduling errors
var (
	ErrAppointmentNotFound     = fmt.Errorf("appointment %w", ErrNotFound)
	ErrDoctorNotFound          = fmt.Errorf("doctor %w", ErrNotFound)
	ErrPastDateTime            = errors.New("appointment time must be in the future")
	ErrSlotConflict            = errors.New("this time slot is already booked")
	ErrAlreadyCanceled         = errors.New("appointment is already canceled")
	ErrAlreadyCompleted        = errors.New("appointment is already completed")
	ErrInvalidStatusTransition = errors.New("invalid appointment status transition")
)

// Account errors
var (
	ErrPatientNotFound       = fmt.Errorf("patient %w", ErrNotFound)
	ErrUserNotFound          = fmt.Errorf("user %w", ErrNotFound)
	ErrInvalidCredentials    = fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	ErrInvalidResetToken     = errors.New("invalid or expired reset token")
	ErrEmailTaken            = fmt.Errorf("%w: email already in use", ErrConflict)
	ErrDoctorHasAppointments = fmt.Errorf("%w: doctor has appointments", ErrConflict)
)

// PermissionError describes a denied action; it unwraps to ErrForbidden
type PermissionError struct {
	UserID     string
	ResourceID string
	Resource   string
	Action     string
	Reason     string
}

func NewPermissionError(userID, resourceID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s cannot %s %s %s: %s", e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

func (e *PermissionError) Unwrap() error {
	return ErrForbidden
}

// BusinessRuleError carries the violated rule and context for one of the scheduling sentinels
type BusinessRuleError struct {
	Err     error
	Rule    string
	Message string
	Context map[string]interface{}
}

func (e *BusinessRuleError) Error() string {
	return e.Message
}

func (e *BusinessRuleError) Unwrap() error {
	return e.Err
}

func newSlotConflictError(doctorID string, at time.Time) *BusinessRuleError {
	return &BusinessRuleError{
		Err:     ErrSlotConflict,
		Rule:    "no_double_booking",
		Message: ErrSlotConflict.Error(),
		Context: map[string]interface{}{
			"doctor_id":             doctorID,
			"appointment_date_time": at.UTC(),
		},
	}
}

func newPastDateTimeError(at, now time.Time) *BusinessRuleError {
	return &BusinessRuleError{
		Err:     ErrPastDateTime,
		Rule:    "future_only",
		Message: ErrPastDateTime.Error(),
		Context: map[string]interface{}{
			"appointment_date_time": at.UTC(),
			"now":                   now.UTC(),
		},
	}
}

func terminalStatusError(status models.AppointmentStatus) error {
	switch status {
	case models.StatusCanceled:
		return ErrAlreadyCanceled
	case models.StatusCompleted:
		return ErrAlreadyCompleted
	}
	return ErrInvalidStatusTransition
}

// checkTransition consults the status table; override lets an admin leave a terminal status
// except that canceling a canceled appointment is always rejected
func checkTransition(from, to models.AppointmentStatus, override bool) error {
	if from == models.StatusCanceled && to == models.StatusCanceled {
		return ErrAlreadyCanceled
	}
	if from.CanTransitionTo(to) || override {
		return nil
	}
	if from.IsTerminal() {
		return terminalStatusError(from)
	}
	return fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, from, to)
}

// ErrorKind is the machine-readable failure category surfaced to callers
type ErrorKind string

const (
	KindNotFound         ErrorKind = "NOT_FOUND"
	KindPastDateTime     ErrorKind = "PAST_DATE_TIME"
	KindSlotConflict     ErrorKind = "SLOT_CONFLICT"
	KindAlreadyCanceled  ErrorKind = "ALREADY_CANCELED"
	KindAlreadyCompleted ErrorKind = "ALREADY_COMPLETED"
	KindForbidden        ErrorKind = "FORBIDDEN"
	KindValidation       ErrorKind = "VALIDATION"
	KindUnauthorized     ErrorKind = "UNAUTHORIZED"
	KindConflict         ErrorKind = "CONFLICT"
	KindInternal         ErrorKind = "INTERNAL"
)

func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var validationErrors ValidationErrors
	if errors.As(err, &validationErrors) {
		return KindValidation
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrPastDateTime):
		return KindPastDateTime
	case errors.Is(err, ErrSlotConflict):
		return KindSlotConflict
	case errors.Is(err, ErrAlreadyCanceled):
		return KindAlreadyCanceled
	case errors.Is(err, ErrAlreadyCompleted):
		return KindAlreadyCompleted
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrValidationFailed), errors.Is(err, ErrInvalidResetToken):
		return KindValidation
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrConflict), errors.Is(err, ErrInvalidStatusTransition):
		return KindConflict
	}
	return KindInternal
}
