package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/clinic-service/internal/auth"
	"github.com/SAP-F-2025/clinic-service/internal/events"
	"github.com/SAP-F-2025/clinic-service/internal/metrics"
	"github.com/SAP-F-2025/clinic-service/internal/repositories"
	"github.com/SAP-F-2025/clinic-service/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	ResetTokenTTL          time.Duration
	DefaultPatientPassword string
	DefaultTimeout         time.Duration
}

// ServiceDependencies are the collaborators shared by every service
type ServiceDependencies struct {
	Publisher events.EventPublisher
	Hasher    auth.PasswordHasher
	Issuer    auth.TokenIssuer
	Clock     Clock
	Metrics   *metrics.Metrics
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	deps      ServiceDependencies
	config    ServiceManagerConfig

	// Service instances
	appointmentService AppointmentService
	doctorService      DoctorService
	patientService     PatientService
	authService        AuthService
	exportService      ExportService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, deps ServiceDependencies, config ServiceManagerConfig) ServiceManager {
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	if deps.Publisher == nil {
		deps.Publisher = events.NewLogPublisher(logger)
	}
	if deps.Hasher == nil {
		deps.Hasher = auth.NewBcryptHasher(0)
	}
	if config.ResetTokenTTL <= 0 {
		config.ResetTokenTTL = time.Hour
	}
	if config.DefaultTimeout <= 0 {
		config.DefaultTimeout = 30 * time.Second
	}

	return &serviceManager{
		repo:      repo,
		logger:    logger,
		validator: validator,
		deps:      deps,
		config:    config,
	}
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	if sm.deps.Issuer == nil {
		return fmt.Errorf("failed to initialize services: token issuer is required")
	}

	sm.appointmentService = NewAppointmentService(sm.repo, sm.logger, sm.validator, sm.deps.Publisher, sm.deps.Clock, sm.deps.Metrics)
	sm.logger.Info("Appointment service initialized")

	sm.doctorService = NewDoctorService(sm.repo, sm.logger, sm.validator, sm.deps.Hasher, sm.deps.Clock)
	sm.logger.Info("Doctor service initialized")

	sm.patientService = NewPatientService(sm.repo, sm.logger, sm.validator, sm.deps.Hasher, sm.deps.Clock, sm.config.DefaultPatientPassword)
	sm.logger.Info("Patient service initialized")

	sm.authService = NewAuthService(sm.repo, sm.logger, sm.validator, sm.deps.Hasher, sm.deps.Issuer, sm.deps.Publisher, sm.deps.Clock, sm.config.ResetTokenTTL)
	sm.logger.Info("Auth service initialized")

	sm.exportService = NewExportService(sm.appointmentService, sm.logger)
	sm.logger.Info("Export service initialized")

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")

	return nil
}

// Service getters
func (sm *serviceManager) Appointment() AppointmentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.appointmentService
}

func (sm *serviceManager) Doctor() DoctorService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.doctorService
}

func (sm *serviceManager) Patient() PatientService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.patientService
}

func (sm *serviceManager) Auth() AuthService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.authService
}

func (sm *serviceManager) Export() ExportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.exportService
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}

	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	ctx, cancel := context.WithTimeout(ctx, sm.config.DefaultTimeout)
	defer cancel()

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	return nil
}

// Shutdown closes the event publisher; the repository is owned and closed by the caller
func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if err := sm.deps.Publisher.Close(); err != nil {
		sm.logger.Error("Failed to close event publisher", "error", err)
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")

	return nil
}
