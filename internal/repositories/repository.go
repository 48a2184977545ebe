package repositories

import "context"

// Repository aggregates every store the clinic service reads or writes
type Repository interface {
	Appointment() AppointmentRepository
	Doctor() DoctorRepository
	Patient() PatientRepository
	User() UserRepository
	PasswordReset() PasswordResetRepository

	// WithTransaction runs fn against a repository bound to one database transaction
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
