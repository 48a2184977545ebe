package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/clinic-service/internal/models"
)

func TestExportService_ExportAppointments(t *testing.T) {
	f := newClinicFixture(t)
	ctx := context.Background()
	svc := NewExportService(f.svc, discardLogger())

	first := f.book(t, f.patient1, slot10)
	f.book(t, f.patient2, slot10.Add(time.Hour))

	data, err := svc.ExportAppointments(ctx, f.admin, nil)
	if err != nil {
		t.Fatalf("ExportAppointments() error = %v", err)
	}

	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer book.Close()

	rows, err := book.GetRows(appointmentSheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if rows[0][0] != "ID" || rows[0][2] != "Status" || len(rows[0]) != len(appointmentColumns) {
		t.Errorf("unexpected header %v", rows[0])
	}

	// newest slot first
	last := rows[2]
	if last[0] != first.ID || last[1] != "2025-06-01T10:00:00Z" || last[2] != "BOOKED" {
		t.Errorf("unexpected row %v", last)
	}
	if last[3] != "Pat One" || last[6] != "Dr. Rivera" || last[7] != "Cardiology" {
		t.Errorf("summaries missing from row %v", last)
	}

	t.Run("filtered", func(t *testing.T) {
		data, err := svc.ExportAppointments(ctx, f.admin, &AppointmentListQuery{DoctorID: &f.doctor.ID, Date: strPtr("2025-06-02")})
		if err != nil {
			t.Fatalf("ExportAppointments() error = %v", err)
		}
		book, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("OpenReader() error = %v", err)
		}
		defer book.Close()
		rows, _ := book.GetRows(appointmentSheet)
		if len(rows) != 1 {
			t.Errorf("rows = %d, want header only", len(rows))
		}
	})

	t.Run("admin only", func(t *testing.T) {
		for _, viewer := range []models.Viewer{f.patient1, f.doctorV} {
			_, err := svc.ExportAppointments(ctx, viewer, nil)
			wantKind(t, err, KindForbidden)
		}
	})
}
