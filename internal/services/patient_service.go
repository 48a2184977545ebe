package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/clinic-service/internal/auth"
	"github.com/SAP-F-2025/clinic-service/internal/models"
	"github.com/SAP-F-2025/clinic-service/internal/repositories"
	"github.com/SAP-F-2025/clinic-service/internal/validator"
)

type patientService struct {
	repo            repositories.Repository
	logger          *slog.Logger
	validator       *validator.Validator
	hasher          auth.PasswordHasher
	clock           Clock
	defaultPassword string
}

func NewPatientService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, hasher auth.PasswordHasher, clock Clock, defaultPassword string) PatientService {
	return &patientService{
		repo:            repo,
		logger:          logger,
		validator:       validator,
		hasher:          hasher,
		clock:           clock,
		defaultPassword: defaultPassword,
	}
}

func (s *patientService) List(ctx context.Context, viewer models.Viewer, query *PatientListQuery) (*PatientListResponse, error) {
	if err := Authorize(viewer, ActionManagePatients, nil); err != nil {
		return nil, err
	}
	if query == nil {
		query = &PatientListQuery{}
	}
	if errs := s.validator.Validate(query); len(errs) > 0 {
		return nil, errs
	}

	patients, total, err := s.repo.Patient().List(ctx, repositories.PatientFilters{
		Search:    query.Search,
		Status:    query.Status,
		Limit:     query.Limit,
		Offset:    query.Offset,
		SortBy:    query.SortBy,
		SortOrder: query.SortOrder,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}

	return &PatientListResponse{
		Patients: patients,
		Total:    total,
		Limit:    query.Limit,
		Offset:   query.Offset,
	}, nil
}

func (s *patientService) Get(ctx context.Context, viewer models.Viewer, id string) (*models.Patient, error) {
	if err := Authorize(viewer, ActionManagePatients, nil); err != nil {
		return nil, err
	}
	return s.getPatient(ctx, s.repo, id)
}

// Create registers the patient profile together with a PATIENT login using the default password
func (s *patientService) Create(ctx context.Context, viewer models.Viewer, req *CreatePatientRequest) (*models.Patient, error) {
	s.logger.Info("Creating patient", "viewer_id", viewer.ID, "email", req.Email)

	if err := Authorize(viewer, ActionManagePatients, nil); err != nil {
		return nil, err
	}
	if errs := s.validator.GetBusinessValidator().ValidatePatientCreate(req, s.clock.Now()); len(errs) > 0 {
		return nil, errs
	}

	taken, err := s.repo.User().ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check user email: %w", err)
	}
	if taken {
		return nil, ErrEmailTaken
	}

	if err := s.checkPrimaryDoctor(ctx, req.PrimaryDoctorID); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(s.defaultPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	patient := &models.Patient{
		ID:              uuid.NewString(),
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:           req.Phone,
		Gender:          req.Gender,
		BloodGroup:      req.BloodGroup,
		Status:          models.PatientStatusActive,
		PrimaryDoctorID: req.PrimaryDoctorID,
		Address1:        req.Address1,
		Address2:        req.Address2,
		Country:         req.Country,
		City:            req.City,
		State:           req.State,
		Pincode:         req.Pincode,
		ImageURL:        req.ImageURL,
	}
	if req.Status != nil {
		patient.Status = *req.Status
	}
	if req.DOB != nil {
		dob, _ := validator.ParseDate(*req.DOB)
		patient.DOB = &dob
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         patient.FullName(),
		Email:        patient.Email,
		PasswordHash: hash,
		Role:         models.RolePatient,
		Phone:        patient.Phone,
	}
	patient.UserID = user.ID

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.User().Create(ctx, user); err != nil {
			return err
		}
		return tx.Patient().Create(ctx, patient)
	})
	if err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}

	s.logger.Info("Patient created", "patient_id", patient.ID, "user_id", user.ID)
	return patient, nil
}

// Update edits the profile and keeps the linked user's name and email in sync
func (s *patientService) Update(ctx context.Context, viewer models.Viewer, id string, req *UpdatePatientRequest) (*models.Patient, error) {
	s.logger.Info("Updating patient", "viewer_id", viewer.ID, "patient_id", id)

	if err := Authorize(viewer, ActionManagePatients, nil); err != nil {
		return nil, err
	}
	if errs := s.validator.GetBusinessValidator().ValidatePatientUpdate(req, s.clock.Now()); len(errs) > 0 {
		return nil, errs
	}

	patient, err := s.getPatient(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email != patient.Email {
			taken, err := s.repo.User().ExistsByEmail(ctx, email)
			if err != nil {
				return nil, fmt.Errorf("failed to check user email: %w", err)
			}
			if taken {
				return nil, ErrEmailTaken
			}
			patient.Email = email
		}
	}
	if err := s.checkPrimaryDoctor(ctx, req.PrimaryDoctorID); err != nil {
		return nil, err
	}

	applyPatientUpdate(patient, req)

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Patient().Update(ctx, patient); err != nil {
			return err
		}

		user, err := tx.User().GetByID(ctx, patient.UserID)
		if err != nil {
			return err
		}
		user.Name = patient.FullName()
		user.Email = patient.Email
		user.Phone = patient.Phone
		return tx.User().Update(ctx, user)
	})
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPatientNotFound
		}
		if repositories.IsDuplicateError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}

	return patient, nil
}

// Delete removes the patient and its login; the login's appointments cascade with it
func (s *patientService) Delete(ctx context.Context, viewer models.Viewer, id string) error {
	s.logger.Info("Deleting patient", "viewer_id", viewer.ID, "patient_id", id)

	if err := Authorize(viewer, ActionManagePatients, nil); err != nil {
		return err
	}

	return s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		patient, err := s.getPatient(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := tx.Patient().Delete(ctx, patient.ID); err != nil {
			return fmt.Errorf("failed to delete patient: %w", err)
		}
		if err := tx.User().Delete(ctx, patient.UserID); err != nil && !repositories.IsNotFoundError(err) {
			return fmt.Errorf("failed to delete patient user: %w", err)
		}
		return nil
	})
}

func (s *patientService) getPatient(ctx context.Context, repo repositories.Repository, id string) (*models.Patient, error) {
	patient, err := repo.Patient().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return patient, nil
}

func (s *patientService) checkPrimaryDoctor(ctx context.Context, doctorID *string) error {
	if doctorID == nil || *doctorID == "" {
		return nil
	}
	exists, err := s.repo.Doctor().ExistsByID(ctx, *doctorID)
	if err != nil {
		return fmt.Errorf("failed to check primary doctor: %w", err)
	}
	if !exists {
		return ErrDoctorNotFound
	}
	return nil
}

func applyPatientUpdate(patient *models.Patient, req *UpdatePatientRequest) {
	if req.FirstName != nil {
		patient.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		patient.LastName = *req.LastName
	}
	if req.Phone != nil {
		patient.Phone = req.Phone
	}
	if req.PrimaryDoctorID != nil {
		patient.PrimaryDoctor = nil
		if *req.PrimaryDoctorID == "" {
			patient.PrimaryDoctorID = nil
		} else {
			patient.PrimaryDoctorID = req.PrimaryDoctorID
		}
	}
	if req.DOB != nil {
		dob, _ := validator.ParseDate(*req.DOB)
		patient.DOB = &dob
	}
	if req.Gender != nil {
		patient.Gender = req.Gender
	}
	if req.BloodGroup != nil {
		patient.BloodGroup = req.BloodGroup
	}
	if req.Status != nil {
		patient.Status = *req.Status
	}
	if req.Address1 != nil {
		patient.Address1 = req.Address1
	}
	if req.Address2 != nil {
		patient.Address2 = req.Address2
	}
	if req.Country != nil {
		patient.Country = req.Country
	}
	if req.City != nil {
		patient.City = req.City
	}
	if req.State != nil {
		patient.State = req.State
	}
	if req.Pincode != nil {
		patient.Pincode = req.Pincode
	}
	if req.ImageURL != nil {
		patient.ImageURL = req.ImageURL
	}
}
