package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/clinic-service/internal/events"
	"github.com/SAP-F-2025/clinic-service/internal/metrics"
	"github.com/SAP-F-2025/clinic-service/internal/models"
	"github.com/SAP-F-2025/clinic-service/internal/repositories"
	"github.com/SAP-F-2025/clinic-service/internal/validator"
)

type appointmentService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	clock     Clock
	metrics   *metrics.Metrics
}

func NewAppointmentService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher, clock Clock, m *metrics.Metrics) AppointmentService {
	return &appointmentService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		clock:     clock,
		metrics:   m,
	}
}

// ===== QUERIES =====

func (s *appointmentService) List(ctx context.Context, viewer models.Viewer, query *AppointmentListQuery) (*AppointmentListResponse, error) {
	if err := Authorize(viewer, ActionList, nil); err != nil {
		return nil, err
	}

	filters, err := s.buildFilters(query)
	if err != nil {
		return nil, err
	}
	filters = ScopeFilters(viewer, filters)

	appointments, total, err := s.repo.Appointment().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}

	items := make([]*AppointmentResponse, 0, len(appointments))
	for _, appt := range appointments {
		items = append(items, s.buildResponse(viewer, appt))
	}

	return &AppointmentListResponse{
		Appointments: items,
		Count:        len(items),
		Total:        total,
	}, nil
}

func (s *appointmentService) Get(ctx context.Context, viewer models.Viewer, id string) (*AppointmentResponse, error) {
	appt, err := s.repo.Appointment().GetByIDWithDetails(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}

	if err := Authorize(viewer, ActionRead, appt); err != nil {
		return nil, err
	}

	return s.buildResponse(viewer, appt), nil
}

// ===== COMMANDS =====

// Book creates a BOOKED appointment for the calling patient. The conflict check and insert
// run under a slot lock; the partial unique index catches anything that still races.
func (s *appointmentService) Book(ctx context.Context, viewer models.Viewer, req *BookAppointmentRequest) (*AppointmentResponse, error) {
	s.logger.Info("Booking appointment", "viewer_id", viewer.ID, "doctor_id", req.DoctorID)

	if errs := s.validator.GetBusinessValidator().ValidateBooking(req); len(errs) > 0 {
		return nil, errs
	}

	at := req.AppointmentDateTime.UTC()
	if now := s.clock.Now(); !at.After(now) {
		return nil, newPastDateTimeError(at, now)
	}

	if err := Authorize(viewer, ActionBook, nil); err != nil {
		return nil, err
	}

	exists, err := s.repo.Doctor().ExistsByID(ctx, req.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to check doctor: %w", err)
	}
	if !exists {
		return nil, ErrDoctorNotFound
	}

	appt := &models.Appointment{
		ID:                  uuid.NewString(),
		PatientID:           viewer.ID,
		DoctorID:            req.DoctorID,
		AppointmentDateTime: at,
		Status:              models.StatusBooked,
		Reason:              req.Reason,
		Symptoms:            req.Symptoms,
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := s.claimSlot(ctx, tx, appt.DoctorID, at, nil); err != nil {
			return err
		}
		return tx.Appointment().Create(ctx, appt)
	})
	if err != nil {
		return nil, s.writeError(err, appt.DoctorID, at, "failed to book appointment")
	}

	s.metrics.AppointmentOutcome(metrics.OutcomeBooked)
	s.publish(ctx, events.AppointmentBooked, appt, "", viewer.ID)
	s.logger.Info("Appointment booked", "appointment_id", appt.ID, "doctor_id", appt.DoctorID, "at", at)

	return s.reload(ctx, viewer, appt), nil
}

// Reschedule moves an appointment and/or edits its details. Notes and status are admin-only
// and the status override is applied last.
func (s *appointmentService) Reschedule(ctx context.Context, viewer models.Viewer, id string, req *RescheduleAppointmentRequest) (*AppointmentResponse, error) {
	s.logger.Info("Rescheduling appointment", "viewer_id", viewer.ID, "appointment_id", id)

	if errs := s.validator.GetBusinessValidator().ValidateReschedule(req); len(errs) > 0 {
		return nil, errs
	}

	var (
		appt     *models.Appointment
		previous models.AppointmentStatus
		moved    bool
	)

	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		var err error
		appt, err = s.load(ctx, tx, id)
		if err != nil {
			return err
		}

		if err := Authorize(viewer, ActionReschedule, appt); err != nil {
			return err
		}
		if req.Notes != nil || req.Status != nil {
			if err := Authorize(viewer, ActionSetNotes, appt); err != nil {
				return err
			}
		}

		if appt.Status.IsTerminal() {
			return terminalStatusError(appt.Status)
		}
		previous = appt.Status

		if req.AppointmentDateTime != nil {
			at := req.AppointmentDateTime.UTC()
			if now := s.clock.Now(); !at.After(now) {
				return newPastDateTimeError(at, now)
			}
			if err := checkTransition(appt.Status, models.StatusRescheduled, false); err != nil {
				return err
			}
			if err := s.claimSlot(ctx, tx, appt.DoctorID, at, &appt.ID); err != nil {
				return err
			}
			appt.AppointmentDateTime = at
			appt.Status = models.StatusRescheduled
			moved = true
		}

		if req.Reason != nil {
			appt.Reason = *req.Reason
		}
		if req.Symptoms != nil {
			appt.Symptoms = req.Symptoms
		}
		if req.Notes != nil {
			appt.Notes = req.Notes
		}
		if req.Status != nil {
			appt.Status = *req.Status
		}

		return tx.Appointment().Update(ctx, appt)
	})
	if err != nil {
		var at time.Time
		if req.AppointmentDateTime != nil {
			at = req.AppointmentDateTime.UTC()
		} else if appt != nil {
			at = appt.AppointmentDateTime
		}
		doctorID := ""
		if appt != nil {
			doctorID = appt.DoctorID
		}
		return nil, s.writeError(err, doctorID, at, "failed to reschedule appointment")
	}

	if moved {
		rescheduled := *appt
		rescheduled.Status = models.StatusRescheduled
		s.metrics.AppointmentOutcome(metrics.OutcomeRescheduled)
		s.publish(ctx, events.AppointmentRescheduled, &rescheduled, previous, viewer.ID)

		// an admin status override lands on top of the move
		if appt.Status != models.StatusRescheduled {
			s.metrics.AppointmentOutcome(metrics.OutcomeStatusChanged)
			s.publish(ctx, events.AppointmentStatusChanged, appt, models.StatusRescheduled, viewer.ID)
		}
	} else if appt.Status != previous {
		s.metrics.AppointmentOutcome(metrics.OutcomeStatusChanged)
		s.publish(ctx, events.AppointmentStatusChanged, appt, previous, viewer.ID)
	}

	return s.reload(ctx, viewer, appt), nil
}

// Cancel marks the appointment CANCELED; the row is kept and the slot freed
func (s *appointmentService) Cancel(ctx context.Context, viewer models.Viewer, id string) (*AppointmentResponse, error) {
	s.logger.Info("Canceling appointment", "viewer_id", viewer.ID, "appointment_id", id)

	var (
		appt     *models.Appointment
		previous models.AppointmentStatus
	)

	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		var err error
		appt, err = s.load(ctx, tx, id)
		if err != nil {
			return err
		}

		if err := Authorize(viewer, ActionCancel, appt); err != nil {
			return err
		}
		if err := checkTransition(appt.Status, models.StatusCanceled, viewer.IsAdmin()); err != nil {
			return err
		}

		previous = appt.Status
		appt.Status = models.StatusCanceled
		return tx.Appointment().Update(ctx, appt)
	})
	if err != nil {
		return nil, s.writeError(err, "", time.Time{}, "failed to cancel appointment")
	}

	s.metrics.AppointmentOutcome(metrics.OutcomeCanceled)
	s.publish(ctx, events.AppointmentCanceled, appt, previous, viewer.ID)

	return s.reload(ctx, viewer, appt), nil
}

// ChangeStatus is the administrative override: any valid status, no conflict query.
// The store's active-slot index still rejects reactivating onto a taken slot.
func (s *appointmentService) ChangeStatus(ctx context.Context, viewer models.Viewer, id string, req *ChangeStatusRequest) (*AppointmentResponse, error) {
	s.logger.Info("Changing appointment status", "viewer_id", viewer.ID, "appointment_id", id, "status", req.Status)

	if err := Authorize(viewer, ActionChangeStatus, nil); err != nil {
		return nil, err
	}
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	var (
		appt     *models.Appointment
		previous models.AppointmentStatus
	)

	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		var err error
		appt, err = s.load(ctx, tx, id)
		if err != nil {
			return err
		}

		previous = appt.Status
		appt.Status = req.Status
		return tx.Appointment().Update(ctx, appt)
	})
	if err != nil {
		doctorID, at := "", time.Time{}
		if appt != nil {
			doctorID, at = appt.DoctorID, appt.AppointmentDateTime
		}
		return nil, s.writeError(err, doctorID, at, "failed to change appointment status")
	}

	if previous != appt.Status {
		s.metrics.AppointmentOutcome(metrics.OutcomeStatusChanged)
		s.publish(ctx, events.AppointmentStatusChanged, appt, previous, viewer.ID)
	}

	return s.reload(ctx, viewer, appt), nil
}

// ===== HELPERS =====

func (s *appointmentService) load(ctx context.Context, repo repositories.Repository, id string) (*models.Appointment, error) {
	appt, err := repo.Appointment().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return appt, nil
}

// claimSlot locks (doctor, instant) for the rest of the transaction and rejects it if another
// active appointment holds it
func (s *appointmentService) claimSlot(ctx context.Context, tx repositories.Repository, doctorID string, at time.Time, excludeID *string) error {
	if err := tx.Appointment().LockSlot(ctx, doctorID, at); err != nil {
		return err
	}

	taken, err := tx.Appointment().HasActiveAtSlot(ctx, doctorID, at, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return newSlotConflictError(doctorID, at)
	}
	return nil
}

// writeError passes domain errors through and maps an active-slot unique violation to SlotConflict
func (s *appointmentService) writeError(err error, doctorID string, at time.Time, msg string) error {
	if errors.Is(err, ErrSlotConflict) {
		s.metrics.AppointmentOutcome(metrics.OutcomeConflict)
		return err
	}
	if repositories.IsDuplicateError(err) {
		s.metrics.AppointmentOutcome(metrics.OutcomeConflict)
		return newSlotConflictError(doctorID, at)
	}
	if KindOf(err) != KindInternal {
		return err
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// reload fetches patient and doctor summaries for the response; the write already succeeded
// so a failed read falls back to the bare record
func (s *appointmentService) reload(ctx context.Context, viewer models.Viewer, appt *models.Appointment) *AppointmentResponse {
	detailed, err := s.repo.Appointment().GetByIDWithDetails(ctx, appt.ID)
	if err != nil {
		s.logger.Warn("Failed to load appointment details", "appointment_id", appt.ID, "error", err)
		return s.buildResponse(viewer, appt)
	}
	return s.buildResponse(viewer, detailed)
}

func (s *appointmentService) buildResponse(viewer models.Viewer, appt *models.Appointment) *AppointmentResponse {
	resp := &AppointmentResponse{
		Appointment: appt,
		Patient:     appt.Patient.Summary(),
		Doctor:      appt.Doctor.Summary(),
	}
	if !appt.Status.IsTerminal() {
		resp.CanReschedule = Authorize(viewer, ActionReschedule, appt) == nil
		resp.CanCancel = Authorize(viewer, ActionCancel, appt) == nil
	}
	return resp
}

func (s *appointmentService) buildFilters(query *AppointmentListQuery) (repositories.AppointmentFilters, error) {
	var filters repositories.AppointmentFilters
	if query == nil {
		return filters, nil
	}

	if errs := s.validator.Validate(query); len(errs) > 0 {
		return filters, errs
	}

	filters.Limit = query.Limit
	filters.Offset = query.Offset

	if query.Status != nil && *query.Status != "" {
		status := models.AppointmentStatus(*query.Status)
		filters.Status = &status
	}
	if query.DoctorID != nil && *query.DoctorID != "" {
		filters.DoctorID = query.DoctorID
	}
	if query.Date != nil && *query.Date != "" {
		from, to, err := dayRange(*query.Date)
		if err != nil {
			return filters, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidationFailed)
		}
		filters.DateFrom = &from
		filters.DateTo = &to
	}

	return filters, nil
}

// publish runs after commit; a failed publish is logged and never fails the request
func (s *appointmentService) publish(ctx context.Context, eventType events.EventType, appt *models.Appointment, previous models.AppointmentStatus, actorID string) {
	event := events.NewEvent(eventType, events.AppointmentEventData{
		AppointmentID:       appt.ID,
		PatientID:           appt.PatientID,
		DoctorID:            appt.DoctorID,
		AppointmentDateTime: appt.AppointmentDateTime,
		Status:              string(appt.Status),
		PreviousStatus:      string(previous),
		ActorID:             actorID,
	})

	if err := s.publisher.Publish(ctx, events.TopicAppointments, event); err != nil {
		s.logger.Error("Failed to publish appointment event", "event_type", eventType, "appointment_id", appt.ID, "error", err)
	}
}
