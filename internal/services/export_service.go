package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/clinic-service/internal/models"
)

const appointmentSheet = "Appointments"

var appointmentColumns = []interface{}{
	"ID", "Date/Time (UTC)", "Status", "Patient", "Patient Email", "Patient Phone",
	"Doctor", "Specialization", "Reason", "Symptoms", "Notes", "Created At",
}

type exportService struct {
	appointments AppointmentService
	logger       *slog.Logger
}

func NewExportService(appointments AppointmentService, logger *slog.Logger) ExportService {
	return &exportService{
		appointments: appointments,
		logger:       logger,
	}
}

func (s *exportService) ExportAppointments(ctx context.Context, viewer models.Viewer, query *AppointmentListQuery) ([]byte, error) {
	if err := Authorize(viewer, ActionExport, nil); err != nil {
		return nil, err
	}

	list, err := s.appointments.List(ctx, viewer, query)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", appointmentSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := appointmentColumns
	if err := f.SetSheetRow(appointmentSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetRowStyle(appointmentSheet, 1, 1, bold); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}
	if err := f.SetColWidth(appointmentSheet, "A", "L", 20); err != nil {
		return nil, fmt.Errorf("failed to size columns: %w", err)
	}

	for i, item := range list.Appointments {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := appointmentRow(item)
		if err := f.SetSheetRow(appointmentSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}

	s.logger.Info("Appointments exported", "viewer_id", viewer.ID, "rows", len(list.Appointments))
	return buf.Bytes(), nil
}

func appointmentRow(item *AppointmentResponse) []interface{} {
	var patientName, patientEmail, patientPhone, doctorName, specialization string
	if item.Patient != nil {
		patientName, patientEmail = item.Patient.Name, item.Patient.Email
		patientPhone = deref(item.Patient.Phone)
	}
	if item.Doctor != nil {
		doctorName, specialization = item.Doctor.Name, item.Doctor.Specialization
	}

	return []interface{}{
		item.ID,
		item.AppointmentDateTime.UTC().Format(time.RFC3339),
		string(item.Status),
		patientName,
		patientEmail,
		patientPhone,
		doctorName,
		specialization,
		item.Reason,
		deref(item.Symptoms),
		deref(item.Notes),
		item.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
