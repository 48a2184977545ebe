package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/clinic-service/internal/models"
	"github.com/SAP-F-2025/clinic-service/internal/repositories"
)

// memStore is an in-memory stand-in for Postgres. Transactions are serialized and roll back
// on error; appointment writes enforce the active-slot uniqueness the real index provides.
type memStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	appointments map[string]models.Appointment
	doctors      map[string]models.Doctor
	patients     map[string]models.Patient
	users        map[string]models.User
	resets       map[uint]models.PasswordReset
	nextResetID  uint

	lockCalls int
}

type memSnapshot struct {
	appointments map[string]models.Appointment
	doctors      map[string]models.Doctor
	patients     map[string]models.Patient
	users        map[string]models.User
	resets       map[uint]models.PasswordReset
	nextResetID  uint
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memSnapshot{
		appointments: cloneMap(s.appointments),
		doctors:      cloneMap(s.doctors),
		patients:     cloneMap(s.patients),
		users:        cloneMap(s.users),
		resets:       cloneMap(s.resets),
		nextResetID:  s.nextResetID,
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appointments = snap.appointments
	s.doctors = snap.doctors
	s.patients = snap.patients
	s.users = snap.users
	s.resets = snap.resets
	s.nextResetID = snap.nextResetID
}

type memRepo struct {
	s *memStore
}

func newMemRepo() *memRepo {
	return &memRepo{s: &memStore{
		appointments: map[string]models.Appointment{},
		doctors:      map[string]models.Doctor{},
		patients:     map[string]models.Patient{},
		users:        map[string]models.User{},
		resets:       map[uint]models.PasswordReset{},
	}}
}

func (r *memRepo) Appointment() repositories.AppointmentRepository { return &memAppointments{r.s} }
func (r *memRepo) Doctor() repositories.DoctorRepository           { return &memDoctors{r.s} }
func (r *memRepo) Patient() repositories.PatientRepository         { return &memPatients{r.s} }
func (r *memRepo) User() repositories.UserRepository               { return &memUsers{r.s} }
func (r *memRepo) PasswordReset() repositories.PasswordResetRepository {
	return &memResets{r.s}
}

func (r *memRepo) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	r.s.txMu.Lock()
	defer r.s.txMu.Unlock()

	snap := r.s.snapshot()
	if err := fn(r); err != nil {
		r.s.restore(snap)
		return err
	}
	return nil
}

func (r *memRepo) Ping(ctx context.Context) error { return nil }
func (r *memRepo) Close() error                   { return nil }

// test helpers, not part of the interfaces

func (r *memRepo) addDoctor(d models.Doctor) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if d.Availability == nil {
		d.Availability = []byte("{}")
	}
	r.s.doctors[d.ID] = d
}

func (r *memRepo) addUser(u models.User) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.users[u.ID] = u
}

func (r *memRepo) addAppointment(a models.Appointment) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.appointments[a.ID] = a
}

func (r *memRepo) appointment(id string) models.Appointment {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.appointments[id]
}

func (r *memRepo) activeAt(doctorID string, at time.Time) int {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, a := range r.s.appointments {
		if a.DoctorID == doctorID && a.AppointmentDateTime.Equal(at) && a.Status.IsActive() {
			n++
		}
	}
	return n
}

// ===== APPOINTMENTS =====

type memAppointments struct{ s *memStore }

// violatesSlot must be called with s.mu held
func (m *memAppointments) violatesSlot(a models.Appointment) bool {
	if !a.Status.IsActive() {
		return false
	}
	for id, other := range m.s.appointments {
		if id != a.ID && other.DoctorID == a.DoctorID && other.AppointmentDateTime.Equal(a.AppointmentDateTime) && other.Status.IsActive() {
			return true
		}
	}
	return false
}

func (m *memAppointments) Create(ctx context.Context, a *models.Appointment) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.appointments[a.ID]; ok || m.violatesSlot(*a) {
		return repositories.ErrDuplicate
	}
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	stored := *a
	stored.Patient, stored.Doctor = nil, nil
	m.s.appointments[a.ID] = stored
	return nil
}

func (m *memAppointments) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	a, ok := m.s.appointments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &a, nil
}

func (m *memAppointments) GetByIDWithDetails(ctx context.Context, id string) (*models.Appointment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	a, ok := m.s.appointments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	m.attach(&a)
	return &a, nil
}

// attach must be called with s.mu held
func (m *memAppointments) attach(a *models.Appointment) {
	if u, ok := m.s.users[a.PatientID]; ok {
		a.Patient = &u
	}
	if d, ok := m.s.doctors[a.DoctorID]; ok {
		a.Doctor = &d
	}
}

func (m *memAppointments) Update(ctx context.Context, a *models.Appointment) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.appointments[a.ID]; !ok {
		return repositories.ErrNotFound
	}
	if m.violatesSlot(*a) {
		return repositories.ErrDuplicate
	}
	stored := *a
	stored.Patient, stored.Doctor = nil, nil
	stored.UpdatedAt = time.Now().UTC()
	m.s.appointments[a.ID] = stored
	return nil
}

func (m *memAppointments) List(ctx context.Context, f repositories.AppointmentFilters) ([]*models.Appointment, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	var out []*models.Appointment
	for _, a := range m.s.appointments {
		switch {
		case f.Status != nil && a.Status != *f.Status,
			f.DoctorID != nil && a.DoctorID != *f.DoctorID,
			f.PatientID != nil && a.PatientID != *f.PatientID,
			f.DateFrom != nil && a.AppointmentDateTime.Before(*f.DateFrom),
			f.DateTo != nil && !a.AppointmentDateTime.Before(*f.DateTo):
			continue
		}
		a := a
		m.attach(&a)
		out = append(out, &a)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].AppointmentDateTime.After(out[j].AppointmentDateTime)
	})

	total := int64(len(out))
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			out = nil
		} else {
			out = out[f.Offset:]
		}
	}
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, total, nil
}

func (m *memAppointments) HasActiveAtSlot(ctx context.Context, doctorID string, at time.Time, excludeID *string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for id, a := range m.s.appointments {
		if excludeID != nil && id == *excludeID {
			continue
		}
		if a.DoctorID == doctorID && a.AppointmentDateTime.Equal(at) && a.Status.IsActive() {
			return true, nil
		}
	}
	return false, nil
}

// LockSlot only counts calls; memRepo transactions are already serialized
func (m *memAppointments) LockSlot(ctx context.Context, doctorID string, at time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.lockCalls++
	return nil
}

func (m *memAppointments) ListBookedSlots(ctx context.Context, doctorID string, from time.Time) ([]time.Time, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var slots []time.Time
	for _, a := range m.s.appointments {
		if a.DoctorID == doctorID && a.Status == models.StatusBooked && !a.AppointmentDateTime.Before(from) {
			slots = append(slots, a.AppointmentDateTime)
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Before(slots[j]) })
	return slots, nil
}

func (m *memAppointments) CountActiveByDoctor(ctx context.Context, doctorID string) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for _, a := range m.s.appointments {
		if a.DoctorID == doctorID && a.Status.IsActive() {
			n++
		}
	}
	return n, nil
}

// ===== DOCTORS =====

type memDoctors struct{ s *memStore }

func (m *memDoctors) Create(ctx context.Context, d *models.Doctor) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, other := range m.s.doctors {
		if strings.EqualFold(other.Email, d.Email) {
			return repositories.ErrDuplicate
		}
	}
	m.s.doctors[d.ID] = *d
	return nil
}

func (m *memDoctors) GetByID(ctx context.Context, id string) (*models.Doctor, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	d, ok := m.s.doctors[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &d, nil
}

func (m *memDoctors) GetByEmail(ctx context.Context, email string) (*models.Doctor, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, d := range m.s.doctors {
		if strings.EqualFold(d.Email, email) {
			return &d, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memDoctors) Update(ctx context.Context, d *models.Doctor) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.doctors[d.ID]; !ok {
		return repositories.ErrNotFound
	}
	stored := *d
	stored.BookedSlots = nil
	m.s.doctors[d.ID] = stored
	return nil
}

// Delete is restricted by any appointment referencing the doctor, like the real foreign key
func (m *memDoctors) Delete(ctx context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.doctors[id]; !ok {
		return repositories.ErrNotFound
	}
	for _, a := range m.s.appointments {
		if a.DoctorID == id {
			return gorm.ErrForeignKeyViolated
		}
	}
	delete(m.s.doctors, id)
	return nil
}

func (m *memDoctors) List(ctx context.Context, f repositories.DoctorFilters) ([]*models.Doctor, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*models.Doctor
	for _, d := range m.s.doctors {
		if f.Specialization != nil && !containsFold(d.Specialization, *f.Specialization) {
			continue
		}
		if f.Search != nil && !containsFold(d.Name, *f.Search) && !containsFold(d.Specialization, *f.Search) {
			continue
		}
		d := d
		out = append(out, &d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, int64(len(out)), nil
}

func (m *memDoctors) ExistsByID(ctx context.Context, id string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	_, ok := m.s.doctors[id]
	return ok, nil
}

func (m *memDoctors) ExistsByEmail(ctx context.Context, email string, excludeID *string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for id, d := range m.s.doctors {
		if excludeID != nil && id == *excludeID {
			continue
		}
		if strings.EqualFold(d.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memDoctors) InvalidateDoctor(ctx context.Context, id string) {}

// ===== PATIENTS =====

type memPatients struct{ s *memStore }

func (m *memPatients) Create(ctx context.Context, p *models.Patient) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, other := range m.s.patients {
		if other.Email == p.Email || other.UserID == p.UserID {
			return repositories.ErrDuplicate
		}
	}
	m.s.patients[p.ID] = *p
	return nil
}

func (m *memPatients) GetByID(ctx context.Context, id string) (*models.Patient, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.patients[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &p, nil
}

func (m *memPatients) GetByUserID(ctx context.Context, userID string) (*models.Patient, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, p := range m.s.patients {
		if p.UserID == userID {
			return &p, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memPatients) Update(ctx context.Context, p *models.Patient) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.patients[p.ID]; !ok {
		return repositories.ErrNotFound
	}
	m.s.patients[p.ID] = *p
	return nil
}

func (m *memPatients) Delete(ctx context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.patients[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.s.patients, id)
	return nil
}

func (m *memPatients) List(ctx context.Context, f repositories.PatientFilters) ([]*models.Patient, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*models.Patient
	for _, p := range m.s.patients {
		if f.Status != nil && p.Status != *f.Status {
			continue
		}
		if f.Search != nil && !containsFold(p.FirstName, *f.Search) && !containsFold(p.LastName, *f.Search) && !containsFold(p.Email, *f.Search) {
			continue
		}
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, int64(len(out)), nil
}

// ===== USERS =====

type memUsers struct{ s *memStore }

func (m *memUsers) Create(ctx context.Context, u *models.User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for id, other := range m.s.users {
		if id == u.ID || other.Email == u.Email {
			return repositories.ErrDuplicate
		}
	}
	m.s.users[u.ID] = *u
	return nil
}

func (m *memUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	u.PasswordHash = ""
	return &u, nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memUsers) Update(ctx context.Context, u *models.User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	stored, ok := m.s.users[u.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	email := strings.ToLower(strings.TrimSpace(u.Email))
	for id, other := range m.s.users {
		if id != u.ID && other.Email == email {
			return repositories.ErrDuplicate
		}
	}
	stored.Name, stored.Email, stored.Role, stored.Phone = u.Name, email, u.Role, u.Phone
	m.s.users[u.ID] = stored
	return nil
}

func (m *memUsers) UpdatePassword(ctx context.Context, id string, hash string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.PasswordHash = hash
	m.s.users[id] = u
	return nil
}

// Delete cascades to the user's appointments like the real foreign key
func (m *memUsers) Delete(ctx context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.users[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.s.users, id)
	for apptID, a := range m.s.appointments {
		if a.PatientID == id {
			delete(m.s.appointments, apptID)
		}
	}
	return nil
}

func (m *memUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.s.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// ===== PASSWORD RESETS =====

type memResets struct{ s *memStore }

func (m *memResets) Create(ctx context.Context, r *models.PasswordReset) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.nextResetID++
	r.ID = m.s.nextResetID
	m.s.resets[r.ID] = *r
	return nil
}

func (m *memResets) GetByTokenHash(ctx context.Context, hash string) (*models.PasswordReset, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, r := range m.s.resets {
		if r.TokenHash == hash {
			return &r, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memResets) MarkUsed(ctx context.Context, id uint, usedAt time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	r, ok := m.s.resets[id]
	if !ok || r.UsedAt != nil {
		return repositories.ErrNotFound
	}
	r.UsedAt = &usedAt
	m.s.resets[id] = r
	return nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
