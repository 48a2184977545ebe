package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/clinic-service/internal/auth"
	"github.com/SAP-F-2025/clinic-service/internal/config"
	"github.com/SAP-F-2025/clinic-service/internal/metrics"
	"github.com/SAP-F-2025/clinic-service/internal/models"
	"github.com/SAP-F-2025/clinic-service/internal/services"
	"github.com/SAP-F-2025/clinic-service/internal/utils"
)

// HandlerConfig carries the collaborators the HTTP layer needs besides services
type HandlerConfig struct {
	Verifier     auth.TokenVerifier
	AuthProvider string
	Metrics      *metrics.Metrics
	RateLimiter  *RateLimiter
	RedisClient  *redis.Client
}

type HandlerManager struct {
	authHandler        *AuthHandler
	appointmentHandler *AppointmentHandler
	doctorHandler      *DoctorHandler
	patientHandler     *PatientHandler
	healthHandler      *HealthHandler
	authMiddleware     *AuthMiddleware
	config             HandlerConfig
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	cfg HandlerConfig,
) *HandlerManager {
	if cfg.AuthProvider == "" {
		cfg.AuthProvider = config.AuthProviderLocal
	}

	return &HandlerManager{
		authHandler:        NewAuthHandler(serviceManager.Auth(), logger),
		appointmentHandler: NewAppointmentHandler(serviceManager.Appointment(), serviceManager.Export(), logger),
		doctorHandler:      NewDoctorHandler(serviceManager.Doctor(), logger),
		patientHandler:     NewPatientHandler(serviceManager.Patient(), logger),
		healthHandler:      NewHealthHandler(serviceManager, cfg.RedisClient, logger),
		authMiddleware:     NewAuthMiddleware(cfg.Verifier, serviceManager.Auth(), logger),
		config:             cfg,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	requireAuth := hm.authMiddleware.RequireAuth()
	adminOnly := RequireRoleMiddleware(models.RoleAdmin)

	api := router.Group("/api")
	{
		api.GET("/health", hm.healthHandler.Health)

		// Auth routes
		authGroup := api.Group("/auth")
		{
			// Credentials live in Casdoor when it is the provider
			if hm.config.AuthProvider == config.AuthProviderLocal {
				limited := authGroup.Group("")
				if hm.config.RateLimiter != nil {
					limited.Use(hm.config.RateLimiter.Middleware())
				}
				limited.POST("/register", hm.authHandler.Register)
				limited.POST("/login", hm.authHandler.Login)
				limited.POST("/forgot-password", hm.authHandler.ForgotPassword)
				limited.POST("/reset-password", hm.authHandler.ResetPassword)
			}
			authGroup.GET("/me", requireAuth, hm.authHandler.Me)
		}

		// Doctor routes - reads are public
		doctors := api.Group("/doctors")
		{
			doctors.GET("", hm.doctorHandler.ListDoctors)
			doctors.GET("/:id", hm.doctorHandler.GetDoctor)

			doctors.POST("", requireAuth, adminOnly, hm.doctorHandler.CreateDoctor)
			doctors.PUT("/:id", requireAuth, adminOnly, hm.doctorHandler.UpdateDoctor)
			doctors.DELETE("/:id", requireAuth, adminOnly, hm.doctorHandler.DeleteDoctor)
		}

		// Patient routes - Admins only
		patients := api.Group("/patients")
		patients.Use(requireAuth, adminOnly)
		{
			patients.GET("", hm.patientHandler.ListPatients)
			patients.GET("/:id", hm.patientHandler.GetPatient)
			patients.POST("", hm.patientHandler.CreatePatient)
			patients.PUT("/:id", hm.patientHandler.UpdatePatient)
			patients.DELETE("/:id", hm.patientHandler.DeletePatient)
		}

		// Appointment routes - per-appointment access is decided by the service
		appointments := api.Group("/appointments")
		appointments.Use(requireAuth)
		{
			appointments.GET("", hm.appointmentHandler.ListAppointments)
			appointments.GET("/export", adminOnly, hm.appointmentHandler.ExportAppointments)
			appointments.GET("/:id", hm.appointmentHandler.GetAppointment)
			appointments.POST("", hm.appointmentHandler.BookAppointment)
			appointments.PUT("/:id", hm.appointmentHandler.RescheduleAppointment)
			appointments.PATCH("/:id/status", adminOnly, hm.appointmentHandler.ChangeAppointmentStatus)
			appointments.DELETE("/:id", hm.appointmentHandler.CancelAppointment)
		}
	}

	if hm.config.Metrics != nil {
		router.GET("/metrics", gin.WrapH(hm.config.Metrics.Handler()))
	}
}
