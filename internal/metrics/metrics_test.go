package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("scrape status = %d", rec.Code)
	}
	return rec.Body.String()
}

func TestAppointmentOutcome(t *testing.T) {
	m := New()
	m.AppointmentOutcome(OutcomeBooked)
	m.AppointmentOutcome(OutcomeBooked)
	m.AppointmentOutcome(OutcomeConflict)

	body := scrape(t, m)
	for _, want := range []string{
		`clinic_appointment_outcomes_total{outcome="booked"} 2`,
		`clinic_appointment_outcomes_total{outcome="conflict"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestHandlerExposesRequests(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodGet, "/api/doctors", http.StatusOK, 15*time.Millisecond)

	body := scrape(t, m)
	if !strings.Contains(body, `clinic_http_requests_total{method="GET",route="/api/doctors",status="200"} 1`) {
		t.Errorf("request counter missing from exposition:\n%s", body)
	}
	if !strings.Contains(body, `clinic_http_request_duration_seconds_count{method="GET",route="/api/doctors"} 1`) {
		t.Errorf("latency histogram missing from exposition")
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.AppointmentOutcome(OutcomeBooked)
	m.ObserveRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
}
