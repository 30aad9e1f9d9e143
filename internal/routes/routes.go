package routes

import (
	"appointment-app-server/internal/config"
	"appointment-app-server/internal/handlers"
	"appointment-app-server/internal/middleware"
	"appointment-app-server/internal/models"
	"appointment-app-server/internal/recurrence"
	"appointment-app-server/internal/reminders"
	"appointment-app-server/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps bundles everything the route handlers need.
type Deps struct {
	DB           *gorm.DB
	Cfg          *config.Config
	Appointments store.AppointmentStore
	Clients      store.ClientStore
	Reminders    store.ReminderStore
	Planner      *reminders.Planner
	Expander     *recurrence.Expander
	Sweep        *reminders.Sweep
	Log          *zap.Logger
}

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, deps Deps) {
	// Initialize handlers
	authHandler := handlers.NewAuthHandler(deps.DB, deps.Cfg)
	appointmentHandler := handlers.NewAppointmentHandler(deps.Appointments, deps.Clients, deps.Planner, deps.Expander, deps.Log)
	clientHandler := handlers.NewClientHandler(deps.Clients)
	reminderHandler := handlers.NewReminderHandler(deps.Appointments, deps.Reminders, deps.Sweep)

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
		}
	}

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(deps.Cfg))
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.POST("/logout", authHandler.Logout)
			authRoutesPrivate.GET("/profile", authHandler.GetProfile)
			authRoutesPrivate.PUT("/profile", authHandler.UpdateProfile)
		}

		// Client routes (reminder recipients, owned per user)
		clientRoutes := private.Group("/clients")
		{
			clientRoutes.POST("", clientHandler.CreateClient)
			clientRoutes.GET("", clientHandler.GetClientsForUser)
			clientRoutes.GET("/:id", clientHandler.GetClientByID)
			clientRoutes.PUT("/:id", clientHandler.UpdateClient)
			clientRoutes.DELETE("/:id", clientHandler.DeleteClient)
		}

		// Appointment routes; ownership checks live inside the handlers
		appointmentRoutes := private.Group("/appointments")
		{
			appointmentRoutes.POST("", appointmentHandler.CreateAppointment)
			appointmentRoutes.GET("", appointmentHandler.GetAppointmentsForUser)
			appointmentRoutes.GET("/:id", appointmentHandler.GetAppointmentByID)
			appointmentRoutes.PUT("/:id", appointmentHandler.UpdateAppointment)
			appointmentRoutes.PATCH("/:id/status", appointmentHandler.UpdateAppointmentStatus)
			appointmentRoutes.PATCH("/:id/reschedule", appointmentHandler.RescheduleAppointment)
			appointmentRoutes.DELETE("/:id", appointmentHandler.DeleteAppointment)
			appointmentRoutes.GET("/:id/reminders", reminderHandler.GetRemindersForAppointment)
		}

		// Admin-only maintenance endpoints mirroring the scheduled jobs
		adminRoutes := private.Group("/admin")
		adminRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
		{
			adminRoutes.POST("/appointments/expand", appointmentHandler.ExpandRecurring)
			adminRoutes.POST("/reminders/process-due", reminderHandler.ProcessDueReminders)
		}
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
