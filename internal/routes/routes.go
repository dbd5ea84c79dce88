package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	"github.com/BruksfildServices01/barber-booking/internal/config"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/handlers"
	"github.com/BruksfildServices01/barber-booking/internal/metrics"
	"github.com/BruksfildServices01/barber-booking/internal/middleware"
	"github.com/BruksfildServices01/barber-booking/internal/models"
	ucAppointment "github.com/BruksfildServices01/barber-booking/internal/usecase/appointment"
	ucLock "github.com/BruksfildServices01/barber-booking/internal/usecase/lock"
)

// Deps is what main wires up before routes are registered. Cache, Metrics,
// Store and Linker are optional and stay nil when not configured.
type Deps struct {
	DB     *gorm.DB
	Config *config.Config
	Repo   domain.Repository
	Audit  *audit.Dispatcher

	Cache   domain.AvailabilityCache
	Metrics *metrics.Metrics
	Store   handlers.ObjectStore
	Linker  ucAppointment.CheckoutLinker
}

func RegisterRoutes(r *gin.Engine, d Deps) {

	// ======================================================
	// MIDDLEWARE GLOBAL
	// ======================================================
	r.Use(middleware.RequestID())
	r.Use(middleware.CORSMiddleware())
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
		r.GET("/metrics", d.Metrics.Handler())
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ======================================================
	// USE CASES — LOCKS
	// ======================================================
	acquireLockUC := ucLock.NewAcquireLock(d.Repo, d.Audit, d.Config.LockTTL).
		WithCache(d.Cache).
		WithMetrics(d.Metrics)

	releaseLockUC := ucLock.NewReleaseLock(d.Repo, d.Audit).
		WithCache(d.Cache).
		WithMetrics(d.Metrics)

	// ======================================================
	// USE CASES — APPOINTMENTS
	// ======================================================
	commitAppointmentUC := ucAppointment.NewCommitAppointment(d.Repo, d.Audit).
		WithCache(d.Cache).
		WithMetrics(d.Metrics)

	startAppointmentUC := ucAppointment.NewStartAppointment(d.Repo, d.Audit).
		WithMetrics(d.Metrics)

	completeAppointmentUC := ucAppointment.NewCompleteAppointment(d.Repo, d.Audit).
		WithMetrics(d.Metrics)

	cancelAppointmentUC := ucAppointment.NewCancelAppointment(d.Repo, d.Audit).
		WithCache(d.Cache).
		WithMetrics(d.Metrics)

	checkoutUC := ucAppointment.NewCreateCheckout(d.Repo, d.Audit, d.Linker)

	availabilityUC := ucAppointment.NewGetAvailability(d.Repo).
		WithCache(d.Cache).
		WithMetrics(d.Metrics)

	listAppointmentsByDateUC := ucAppointment.NewListAppointmentsByDate(d.Repo)
	listAppointmentsByMonthUC := ucAppointment.NewListAppointmentsByMonth(d.Repo)

	// ======================================================
	// HANDLERS
	// ======================================================
	authHandler := handlers.NewAuthHandler(d.DB, d.Config, d.Audit)
	meHandler := handlers.NewMeHandler(d.DB, d.Audit)
	avatarHandler := handlers.NewAvatarHandler(d.DB, d.Store)
	branchHandler := handlers.NewBranchHandler(d.Repo, d.Audit)
	serviceHandler := handlers.NewServiceHandler(d.Repo, d.Audit)
	customerHandler := handlers.NewCustomerHandler(d.Repo)
	workingHoursHandler := handlers.NewWorkingHoursHandler(d.Repo, d.Audit)
	auditLogsHandler := handlers.NewAuditLogsHandler(d.DB)

	appointmentHandler := handlers.NewAppointmentHandler(
		listAppointmentsByDateUC,
		listAppointmentsByMonthUC,
		commitAppointmentUC,
		startAppointmentUC,
		completeAppointmentUC,
		cancelAppointmentUC,
		checkoutUC,
	)

	publicHandler := handlers.NewPublicHandler(
		d.Repo,
		availabilityUC,
		acquireLockUC,
		releaseLockUC,
		commitAppointmentUC,
	)

	// ======================================================
	// API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		// ------------------------------
		// API PÚBLICA
		// ------------------------------
		api.GET("/public/tenants/:tenantId/services/:serviceId", publicHandler.Service)

		branch := api.Group("/public/tenants/:tenantId/branches/:branchId")
		{
			branch.GET("/working-hours", publicHandler.WorkingHours)
			branch.GET("/overrides", publicHandler.Overrides)
			branch.GET("/barbers/:barberId/availability", publicHandler.Availability)

			branch.POST("/locks", publicHandler.AcquireLock)
			branch.DELETE("/locks/:lockId", publicHandler.ReleaseLock)

			branch.POST("/appointments", publicHandler.Commit)
		}

		// ------------------------------
		// AUTH
		// ------------------------------
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)

		// ------------------------------
		// API PRIVADA
		// ------------------------------
		secured := api.Group("/me")
		secured.Use(middleware.AuthMiddleware(d.Config.JWTSecret))
		{
			secured.GET("", meHandler.GetMe)
			secured.PUT("/avatar", avatarHandler.Upload)

			secured.GET("/services", serviceHandler.List)
			secured.GET("/customers", customerHandler.List)

			// ------------------------------
			// APPOINTMENTS
			// ------------------------------
			secured.POST("/appointments", appointmentHandler.Create)
			secured.GET("/appointments", appointmentHandler.ListByDate)
			secured.GET("/appointments/month", appointmentHandler.ListByMonth)
			secured.PATCH("/appointments/:id/start", appointmentHandler.Start)
			secured.PATCH("/appointments/:id/complete", appointmentHandler.Complete)
			secured.PATCH("/appointments/:id/cancel", appointmentHandler.Cancel)
			secured.POST("/appointments/:id/checkout", appointmentHandler.Checkout)

			// ------------------------------
			// ADMIN (owner/admin)
			// ------------------------------
			admin := secured.Group("")
			admin.Use(middleware.RequireRole(models.RoleOwner, models.RoleAdmin))
			{
				admin.GET("/tenant", meHandler.GetTenant)
				admin.PATCH("/tenant", meHandler.UpdateTenant)

				admin.GET("/branches", branchHandler.List)
				admin.POST("/branches", branchHandler.Create)
				admin.PATCH("/branches/:branchId", branchHandler.Update)

				admin.GET("/branches/:branchId/barbers", branchHandler.ListStaff)
				admin.POST("/branches/:branchId/barbers", branchHandler.CreateStaff)

				admin.GET("/branches/:branchId/working-hours", workingHoursHandler.Get)
				admin.PUT("/branches/:branchId/working-hours", workingHoursHandler.Update)

				admin.GET("/branches/:branchId/overrides", workingHoursHandler.ListOverrides)
				admin.POST("/branches/:branchId/overrides", workingHoursHandler.PutOverride)
				admin.DELETE("/branches/:branchId/overrides/:overrideId", workingHoursHandler.DeleteOverride)

				admin.POST("/services", serviceHandler.Create)
				admin.PATCH("/services/:id", serviceHandler.Update)

				admin.GET("/audit-logs", auditLogsHandler.List)
			}
		}
	}
}
