package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	AppointmentBooked        EventType = "appointment.booked"
	AppointmentRescheduled   EventType = "appointment.rescheduled"
	AppointmentCanceled      EventType = "appointment.canceled"
	AppointmentStatusChanged EventType = "appointment.status_changed"
	PasswordResetRequested   EventType = "auth.password_reset_requested"
	UserRegistered           EventType = "user.registered"
)

// Topic suffixes; publishers prepend the configured prefix
const (
	TopicAppointments  = "appointments"
	TopicNotifications = "notifications"
)

const (
	eventSource  = "clinic-service"
	eventVersion = "1.0"
)

type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    eventSource,
		Version:   eventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

type AppointmentEventData struct {
	AppointmentID       string    `json:"appointment_id"`
	PatientID           string    `json:"patient_id"`
	DoctorID            string    `json:"doctor_id"`
	AppointmentDateTime time.Time `json:"appointment_date_time"`
	Status              string    `json:"status"`
	PreviousStatus      string    `json:"previous_status,omitempty"`
	ActorID             string    `json:"actor_id"`
}

// PasswordResetData is consumed by the mail sender
type PasswordResetData struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type UserRegisteredData struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// EventPublisher delivers domain events to downstream consumers
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event *Event) error
	Close() error
}
