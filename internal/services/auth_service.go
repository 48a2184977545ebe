package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/clinic-service/internal/auth"
	"github.com/SAP-F-2025/clinic-service/internal/events"
	"github.com/SAP-F-2025/clinic-service/internal/models"
	"github.com/SAP-F-2025/clinic-service/internal/repositories"
	"github.com/SAP-F-2025/clinic-service/internal/validator"
)

type authService struct {
	repo          repositories.Repository
	logger        *slog.Logger
	validator     *validator.Validator
	hasher        auth.PasswordHasher
	issuer        auth.TokenIssuer
	publisher     events.EventPublisher
	clock         Clock
	resetTokenTTL time.Duration
}

func NewAuthService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, hasher auth.PasswordHasher, issuer auth.TokenIssuer, publisher events.EventPublisher, clock Clock, resetTokenTTL time.Duration) AuthService {
	return &authService{
		repo:          repo,
		logger:        logger,
		validator:     validator,
		hasher:        hasher,
		issuer:        issuer,
		publisher:     publisher,
		clock:         clock,
		resetTokenTTL: resetTokenTTL,
	}
}

// Register creates a PATIENT account and signs the caller in
func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	s.logger.Info("Registering user", "email", req.Email)

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	taken, err := s.repo.User().ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check user email: %w", err)
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         models.RolePatient,
		Phone:        req.Phone,
	}
	if err := s.repo.User().Create(ctx, user); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.publishUserRegistered(ctx, user)

	return s.signIn(user)
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	user, err := s.repo.User().GetByEmail(ctx, req.Email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !s.hasher.Compare(user.PasswordHash, req.Password) {
		s.logger.Warn("Failed login attempt", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	return s.signIn(user)
}

func (s *authService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ForgotPassword stores a hashed one-time token and hands the raw token to the mail sender.
// Unknown emails succeed silently so the endpoint cannot be used to probe accounts.
func (s *authService) ForgotPassword(ctx context.Context, req *ForgotPasswordRequest) error {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return errs
	}

	user, err := s.repo.User().GetByEmail(ctx, req.Email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			s.logger.Info("Password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	raw, hash, err := auth.GenerateResetToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	reset := &models.PasswordReset{
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: s.clock.Now().Add(s.resetTokenTTL),
	}
	if err := s.repo.PasswordReset().Create(ctx, reset); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	event := events.NewEvent(events.PasswordResetRequested, events.PasswordResetData{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Token:     raw,
		ExpiresAt: reset.ExpiresAt,
	})
	if err := s.publisher.Publish(ctx, events.TopicNotifications, event); err != nil {
		s.logger.Error("Failed to publish password reset event", "user_id", user.ID, "error", err)
	}

	return nil
}

// ResetPassword consumes an unused, unexpired token and sets the new password atomically
func (s *authService) ResetPassword(ctx context.Context, req *ResetPasswordRequest) error {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return errs
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.clock.Now()
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		reset, err := tx.PasswordReset().GetByTokenHash(ctx, auth.HashResetToken(req.Token))
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrInvalidResetToken
			}
			return err
		}
		if !reset.IsUsable(now) {
			return ErrInvalidResetToken
		}

		if err := tx.PasswordReset().MarkUsed(ctx, reset.ID, now); err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrInvalidResetToken
			}
			return err
		}
		return tx.User().UpdatePassword(ctx, reset.UserID, hash)
	})
	if err != nil {
		if KindOf(err) != KindInternal {
			return err
		}
		return fmt.Errorf("failed to reset password: %w", err)
	}

	return nil
}

// ResolveIdentity loads the local user behind a token. External identities are matched by
// email and provisioned on first sight as PATIENT, except a provider DOCTOR whose email
// matches a doctor profile: that user takes the doctor's id so appointment scoping works.
func (s *authService) ResolveIdentity(ctx context.Context, identity *auth.Identity) (*models.User, error) {
	if identity == nil {
		return nil, ErrUnauthorized
	}

	if !identity.External {
		user, err := s.repo.User().GetByID(ctx, identity.UserID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrUnauthorized
			}
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
		return user, nil
	}

	user, err := s.repo.User().GetByEmail(ctx, identity.Email)
	if err == nil {
		return user, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	// Provisioned accounts only sign in through the provider
	hash, err := s.hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	name := identity.Name
	if name == "" {
		name = identity.Email
	}
	id, role, err := s.provisionedRole(ctx, identity)
	if err != nil {
		return nil, err
	}

	user = &models.User{
		ID:           id,
		Name:         name,
		Email:        identity.Email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.repo.User().Create(ctx, user); err != nil {
		if repositories.IsDuplicateError(err) {
			// Another request provisioned the same identity
			return s.repo.User().GetByEmail(ctx, identity.Email)
		}
		return nil, fmt.Errorf("failed to provision user: %w", err)
	}

	s.logger.Info("Provisioned external user", "user_id", user.ID, "role", role)
	s.publishUserRegistered(ctx, user)

	return user, nil
}

// provisionedRole picks the id and role for a first-time external user
func (s *authService) provisionedRole(ctx context.Context, identity *auth.Identity) (string, models.UserRole, error) {
	if identity.Role != models.RoleDoctor {
		return uuid.NewString(), models.RolePatient, nil
	}

	doctor, err := s.repo.Doctor().GetByEmail(ctx, identity.Email)
	switch {
	case err == nil:
		return doctor.ID, models.RoleDoctor, nil
	case repositories.IsNotFoundError(err):
		s.logger.Warn("External doctor has no doctor profile, provisioning as patient", "email", identity.Email)
		return uuid.NewString(), models.RolePatient, nil
	default:
		return "", "", fmt.Errorf("failed to get doctor: %w", err)
	}
}

func (s *authService) signIn(user *models.User) (*AuthResponse, error) {
	token, err := s.issuer.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &AuthResponse{Token: token, User: user}, nil
}

func (s *authService) publishUserRegistered(ctx context.Context, user *models.User) {
	event := events.NewEvent(events.UserRegistered, events.UserRegisteredData{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   string(user.Role),
	})
	if err := s.publisher.Publish(ctx, events.TopicNotifications, event); err != nil {
		s.logger.Error("Failed to publish user registered event", "user_id", user.ID, "error", err)
	}
}
