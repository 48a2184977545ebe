package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/SAP-F-2025/clinic-service/internal/auth"
	"github.com/SAP-F-2025/clinic-service/internal/models"
	"github.com/SAP-F-2025/clinic-service/internal/repositories"
	"github.com/SAP-F-2025/clinic-service/internal/validator"
)

type doctorService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	hasher    auth.PasswordHasher
	clock     Clock
}

func NewDoctorService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, hasher auth.PasswordHasher, clock Clock) DoctorService {
	return &doctorService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		hasher:    hasher,
		clock:     clock,
	}
}

func (s *doctorService) List(ctx context.Context, query *DoctorListQuery) (*DoctorListResponse, error) {
	if query == nil {
		query = &DoctorListQuery{}
	}
	if errs := s.validator.Validate(query); len(errs) > 0 {
		return nil, errs
	}

	doctors, total, err := s.repo.Doctor().List(ctx, repositories.DoctorFilters{
		Specialization: query.Specialization,
		Search:         query.Search,
		Limit:          query.Limit,
		Offset:         query.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}

	return &DoctorListResponse{
		Doctors: doctors,
		Total:   total,
		Limit:   query.Limit,
		Offset:  query.Offset,
	}, nil
}

// Get serves the cached profile and reads booked slots live
func (s *doctorService) Get(ctx context.Context, id string) (*models.Doctor, error) {
	doctor, err := s.getDoctor(ctx, id)
	if err != nil {
		return nil, err
	}

	slots, err := s.repo.Appointment().ListBookedSlots(ctx, id, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to load booked slots: %w", err)
	}
	doctor.BookedSlots = slots

	return doctor, nil
}

// Create adds a doctor; with a password it also provisions a DOCTOR login sharing the id
func (s *doctorService) Create(ctx context.Context, viewer models.Viewer, req *CreateDoctorRequest) (*models.Doctor, error) {
	s.logger.Info("Creating doctor", "viewer_id", viewer.ID, "email", req.Email)

	if err := Authorize(viewer, ActionManageDoctors, nil); err != nil {
		return nil, err
	}
	if errs := s.validator.GetBusinessValidator().ValidateDoctorCreate(req); len(errs) > 0 {
		return nil, errs
	}

	taken, err := s.repo.Doctor().ExistsByEmail(ctx, req.Email, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check doctor email: %w", err)
	}
	if taken {
		return nil, ErrEmailTaken
	}

	doctor := &models.Doctor{
		ID:             uuid.NewString(),
		Name:           req.Name,
		Email:          req.Email,
		Specialization: req.Specialization,
		Description:    req.Description,
		ImageURL:       req.ImageURL,
		Phone:          req.Phone,
		Availability:   availabilityOrEmpty(req.Availability),
	}

	var user *models.User
	if req.Password != nil {
		userTaken, err := s.repo.User().ExistsByEmail(ctx, req.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to check user email: %w", err)
		}
		if userTaken {
			return nil, ErrEmailTaken
		}

		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user = &models.User{
			ID:           doctor.ID,
			Name:         doctor.Name,
			Email:        doctor.Email,
			PasswordHash: hash,
			Role:         models.RoleDoctor,
			Phone:        doctor.Phone,
		}
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Doctor().Create(ctx, doctor); err != nil {
			return err
		}
		if user != nil {
			return tx.User().Create(ctx, user)
		}
		return nil
	})
	if err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create doctor: %w", err)
	}

	s.logger.Info("Doctor created", "doctor_id", doctor.ID, "login_provisioned", user != nil)
	return doctor, nil
}

func (s *doctorService) Update(ctx context.Context, viewer models.Viewer, id string, req *UpdateDoctorRequest) (*models.Doctor, error) {
	s.logger.Info("Updating doctor", "viewer_id", viewer.ID, "doctor_id", id)

	if err := Authorize(viewer, ActionManageDoctors, nil); err != nil {
		return nil, err
	}
	if errs := s.validator.GetBusinessValidator().ValidateDoctorUpdate(req); len(errs) > 0 {
		return nil, errs
	}

	doctor, err := s.getDoctor(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil && *req.Email != doctor.Email {
		taken, err := s.repo.Doctor().ExistsByEmail(ctx, *req.Email, &id)
		if err != nil {
			return nil, fmt.Errorf("failed to check doctor email: %w", err)
		}
		if taken {
			return nil, ErrEmailTaken
		}
		doctor.Email = *req.Email
	}
	if req.Name != nil {
		doctor.Name = *req.Name
	}
	if req.Specialization != nil {
		doctor.Specialization = *req.Specialization
	}
	if req.Description != nil {
		doctor.Description = req.Description
	}
	if req.ImageURL != nil {
		doctor.ImageURL = req.ImageURL
	}
	if req.Phone != nil {
		doctor.Phone = req.Phone
	}
	if len(req.Availability) > 0 {
		doctor.Availability = availabilityOrEmpty(req.Availability)
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Doctor().Update(ctx, doctor); err != nil {
			return err
		}
		return s.syncLogin(ctx, tx, doctor)
	})
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrDoctorNotFound
		}
		if repositories.IsDuplicateError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update doctor: %w", err)
	}

	return doctor, nil
}

// Delete refuses while the doctor still has appointments; the linked login goes with the doctor
func (s *doctorService) Delete(ctx context.Context, viewer models.Viewer, id string) error {
	s.logger.Info("Deleting doctor", "viewer_id", viewer.ID, "doctor_id", id)

	if err := Authorize(viewer, ActionManageDoctors, nil); err != nil {
		return err
	}

	active, err := s.repo.Appointment().CountActiveByDoctor(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count doctor appointments: %w", err)
	}
	if active > 0 {
		return ErrDoctorHasAppointments
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Doctor().Delete(ctx, id); err != nil {
			return err
		}
		if err := tx.User().Delete(ctx, id); err != nil && !repositories.IsNotFoundError(err) {
			return err
		}
		return nil
	})
	if err != nil {
		switch {
		case repositories.IsNotFoundError(err):
			return ErrDoctorNotFound
		case repositories.IsForeignKeyError(err):
			return ErrDoctorHasAppointments
		}
		return fmt.Errorf("failed to delete doctor: %w", err)
	}

	return nil
}

func (s *doctorService) getDoctor(ctx context.Context, id string) (*models.Doctor, error) {
	doctor, err := s.repo.Doctor().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	return doctor, nil
}

// syncLogin keeps a provisioned DOCTOR user's name and email in step with the profile
func (s *doctorService) syncLogin(ctx context.Context, tx repositories.Repository, doctor *models.Doctor) error {
	user, err := tx.User().GetByID(ctx, doctor.ID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil
		}
		return err
	}
	if user.Role != models.RoleDoctor {
		return nil
	}

	user.Name = doctor.Name
	user.Email = doctor.Email
	user.Phone = doctor.Phone
	return tx.User().Update(ctx, user)
}

func availabilityOrEmpty(raw []byte) datatypes.JSON {
	if len(raw) == 0 || string(raw) == "null" {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(raw)
}
