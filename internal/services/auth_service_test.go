package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/clinic-service/internal/auth"
	"github.com/SAP-F-2025/clinic-service/internal/events"
	"github.com/SAP-F-2025/clinic-service/internal/models"
	"github.com/SAP-F-2025/clinic-service/internal/validator"
)

type authFixture struct {
	repo      *memRepo
	publisher *events.MockEventPublisher
	tokens    *auth.TokenService
	clock     *mutableClock
	svc       AuthService
}

type mutableClock struct{ now time.Time }

func (c *mutableClock) Now() time.Time { return c.now }

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		repo:      newMemRepo(),
		publisher: events.NewMockEventPublisher(nil),
		tokens:    auth.NewTokenService("test-secret", time.Hour),
		clock:     &mutableClock{now: testNow},
	}
	f.svc = NewAuthService(f.repo, discardLogger(), validator.New(), auth.NewBcryptHasher(4), f.tokens, f.publisher, f.clock, 30*time.Minute)
	return f
}

func (f *authFixture) register(t *testing.T, email, password string) *AuthResponse {
	t.Helper()
	resp, err := f.svc.Register(context.Background(), &RegisterRequest{Name: "Jamie", Email: email, Password: password})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return resp
}

// resetToken returns the raw token carried by the last reset event
func (f *authFixture) resetToken(t *testing.T) string {
	t.Helper()
	sent := f.publisher.EventsOfType(events.PasswordResetRequested)
	if len(sent) == 0 {
		t.Fatal("no password reset event published")
	}
	data, ok := sent[len(sent)-1].Data.(events.PasswordResetData)
	if !ok {
		t.Fatalf("event data has type %T", sent[len(sent)-1].Data)
	}
	return data.Token
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	resp := f.register(t, "Jamie@Example.com", "secret1")
	if resp.User.Role != models.RolePatient {
		t.Errorf("role = %s, want PATIENT", resp.User.Role)
	}
	if resp.User.Email != "jamie@example.com" {
		t.Errorf("email = %s, want normalized", resp.User.Email)
	}
	claims, err := f.tokens.Parse(resp.Token)
	if err != nil || claims.UserID != resp.User.ID || claims.Role != models.RolePatient {
		t.Fatalf("token claims = %+v, err = %v", claims, err)
	}
	if got := len(f.publisher.EventsOfType(events.UserRegistered)); got != 1 {
		t.Errorf("user registered events = %d, want 1", got)
	}

	tests := []struct {
		name string
		req  *LoginRequest
		want ErrorKind
	}{
		{name: "ok", req: &LoginRequest{Email: "jamie@example.com", Password: "secret1"}},
		{name: "email is case insensitive", req: &LoginRequest{Email: "JAMIE@example.com", Password: "secret1"}},
		{name: "wrong password", req: &LoginRequest{Email: "jamie@example.com", Password: "nope"}, want: KindUnauthorized},
		{name: "unknown email", req: &LoginRequest{Email: "ghost@example.com", Password: "secret1"}, want: KindUnauthorized},
		{name: "malformed", req: &LoginRequest{Email: "jamie"}, want: KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.svc.Login(ctx, tt.req)
			if tt.want != "" {
				wantKind(t, err, tt.want)
				return
			}
			if err != nil {
				t.Fatalf("Login() error = %v", err)
			}
			if got.User.ID != resp.User.ID || got.Token == "" {
				t.Errorf("unexpected login response %+v", got)
			}
		})
	}

	t.Run("duplicate email", func(t *testing.T) {
		_, err := f.svc.Register(ctx, &RegisterRequest{Name: "Other", Email: "jamie@example.com", Password: "secret2"})
		wantKind(t, err, KindConflict)
	})

	t.Run("me", func(t *testing.T) {
		me, err := f.svc.Me(ctx, resp.User.ID)
		if err != nil {
			t.Fatalf("Me() error = %v", err)
		}
		if me.Email != "jamie@example.com" {
			t.Errorf("email = %s", me.Email)
		}
		_, err = f.svc.Me(ctx, uuid.NewString())
		wantKind(t, err, KindNotFound)
	})
}

func TestAuthService_PasswordReset(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register(t, "jamie@example.com", "secret1")

	t.Run("unknown email is silent", func(t *testing.T) {
		if err := f.svc.ForgotPassword(ctx, &ForgotPasswordRequest{Email: "ghost@example.com"}); err != nil {
			t.Fatalf("ForgotPassword() error = %v", err)
		}
		if got := len(f.publisher.EventsOfType(events.PasswordResetRequested)); got != 0 {
			t.Errorf("reset events = %d, want 0", got)
		}
	})

	t.Run("token resets once", func(t *testing.T) {
		if err := f.svc.ForgotPassword(ctx, &ForgotPasswordRequest{Email: "jamie@example.com"}); err != nil {
			t.Fatalf("ForgotPassword() error = %v", err)
		}
		token := f.resetToken(t)

		if err := f.svc.ResetPassword(ctx, &ResetPasswordRequest{Token: token, NewPassword: "fresh-pass"}); err != nil {
			t.Fatalf("ResetPassword() error = %v", err)
		}
		if _, err := f.svc.Login(ctx, &LoginRequest{Email: "jamie@example.com", Password: "fresh-pass"}); err != nil {
			t.Errorf("login with new password: %v", err)
		}
		_, err := f.svc.Login(ctx, &LoginRequest{Email: "jamie@example.com", Password: "secret1"})
		wantKind(t, err, KindUnauthorized)

		err = f.svc.ResetPassword(ctx, &ResetPasswordRequest{Token: token, NewPassword: "another-pass"})
		wantKind(t, err, KindValidation)
	})

	t.Run("expired token", func(t *testing.T) {
		if err := f.svc.ForgotPassword(ctx, &ForgotPasswordRequest{Email: "jamie@example.com"}); err != nil {
			t.Fatalf("ForgotPassword() error = %v", err)
		}
		token := f.resetToken(t)

		f.clock.now = f.clock.now.Add(31 * time.Minute)
		defer func() { f.clock.now = testNow }()

		err := f.svc.ResetPassword(ctx, &ResetPasswordRequest{Token: token, NewPassword: "late-pass"})
		wantKind(t, err, KindValidation)
	})

	t.Run("unknown token", func(t *testing.T) {
		raw, _, err := auth.GenerateResetToken()
		if err != nil {
			t.Fatal(err)
		}
		err = f.svc.ResetPassword(ctx, &ResetPasswordRequest{Token: raw, NewPassword: "whatever"})
		wantKind(t, err, KindValidation)
	})
}

func TestAuthService_ResolveIdentity(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	local := f.register(t, "jamie@example.com", "secret1")

	t.Run("local token", func(t *testing.T) {
		identity, err := f.tokens.Verify(ctx, local.Token)
		if err != nil {
			t.Fatalf("Verify() error = %v", err)
		}
		user, err := f.svc.ResolveIdentity(ctx, identity)
		if err != nil {
			t.Fatalf("ResolveIdentity() error = %v", err)
		}
		if user.ID != local.User.ID {
			t.Errorf("user id = %s, want %s", user.ID, local.User.ID)
		}
	})

	t.Run("local token for deleted user", func(t *testing.T) {
		_, err := f.svc.ResolveIdentity(ctx, &auth.Identity{UserID: uuid.NewString(), Role: models.RolePatient})
		wantKind(t, err, KindUnauthorized)
	})

	t.Run("external identity provisioned once as patient", func(t *testing.T) {
		identity := &auth.Identity{Email: "sam@example.com", Name: "Sam", Role: models.RoleAdmin, External: true}

		first, err := f.svc.ResolveIdentity(ctx, identity)
		if err != nil {
			t.Fatalf("ResolveIdentity() error = %v", err)
		}
		if first.Role != models.RolePatient || first.Name != "Sam" {
			t.Errorf("provisioned user = %+v", first)
		}

		second, err := f.svc.ResolveIdentity(ctx, identity)
		if err != nil {
			t.Fatalf("ResolveIdentity() error = %v", err)
		}
		if second.ID != first.ID {
			t.Errorf("second resolve provisioned a new user")
		}
	})

	t.Run("external doctor takes the doctor profile id", func(t *testing.T) {
		doctor := models.Doctor{ID: uuid.NewString(), Name: "Dr. Lee", Email: "dr.lee@example.com", Specialization: "Neurology"}
		f.repo.addDoctor(doctor)

		user, err := f.svc.ResolveIdentity(ctx, &auth.Identity{Email: "Dr.Lee@example.com", Name: "Dr. Lee", Role: models.RoleDoctor, External: true})
		if err != nil {
			t.Fatalf("ResolveIdentity() error = %v", err)
		}
		if user.ID != doctor.ID || user.Role != models.RoleDoctor {
			t.Errorf("provisioned user = %+v, want id %s role DOCTOR", user, doctor.ID)
		}
	})

	t.Run("external doctor without profile becomes patient", func(t *testing.T) {
		user, err := f.svc.ResolveIdentity(ctx, &auth.Identity{Email: "locum@example.com", Role: models.RoleDoctor, External: true})
		if err != nil {
			t.Fatalf("ResolveIdentity() error = %v", err)
		}
		if user.Role != models.RolePatient {
			t.Errorf("role = %s, want PATIENT", user.Role)
		}
	})

	t.Run("external identity matches existing local user", func(t *testing.T) {
		user, err := f.svc.ResolveIdentity(ctx, &auth.Identity{Email: "jamie@example.com", External: true})
		if err != nil {
			t.Fatalf("ResolveIdentity() error = %v", err)
		}
		if user.ID != local.User.ID {
			t.Errorf("user id = %s, want %s", user.ID, local.User.ID)
		}
	})

	t.Run("external identity without role defaults to patient", func(t *testing.T) {
		user, err := f.svc.ResolveIdentity(ctx, &auth.Identity{Email: "new@example.com", External: true})
		if err != nil {
			t.Fatalf("ResolveIdentity() error = %v", err)
		}
		if user.Role != models.RolePatient || user.Name != "new@example.com" {
			t.Errorf("provisioned user = %+v", user)
		}
	})

	t.Run("nil identity", func(t *testing.T) {
		_, err := f.svc.ResolveIdentity(ctx, nil)
		wantKind(t, err, KindUnauthorized)
	})
}

func TestAuthService_ExternalDoctorSeesAssignedAppointments(t *testing.T) {
	clinic := newClinicFixture(t)
	ctx := context.Background()

	// a doctor profile created without a login
	doctor := models.Doctor{ID: uuid.NewString(), Name: "Dr. Lee", Email: "dr.lee@clinic.test", Specialization: "Neurology"}
	clinic.repo.addDoctor(doctor)

	booked, err := clinic.svc.Book(ctx, clinic.patient1, &BookAppointmentRequest{DoctorID: doctor.ID, AppointmentDateTime: slot10})
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}

	authSvc := NewAuthService(clinic.repo, discardLogger(), validator.New(), auth.NewBcryptHasher(4),
		auth.NewTokenService("test-secret", time.Hour), clinic.publisher, fixedClock{testNow}, 30*time.Minute)
	user, err := authSvc.ResolveIdentity(ctx, &auth.Identity{Email: doctor.Email, Role: auth.MapCasdoorRole("doctor"), External: true})
	if err != nil {
		t.Fatalf("ResolveIdentity() error = %v", err)
	}

	viewer := models.Viewer{ID: user.ID, Role: user.Role}
	list, err := clinic.svc.List(ctx, viewer, &AppointmentListQuery{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list.Appointments) != 1 || list.Appointments[0].ID != booked.ID {
		t.Fatalf("doctor sees %d appointments, want the one booked", len(list.Appointments))
	}

	if _, err := clinic.svc.Get(ctx, viewer, booked.ID); err != nil {
		t.Errorf("Get() as assigned doctor error = %v", err)
	}
}
