package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-dashboard/internal/audit"
	"github.com/BruksfildServices01/barber-dashboard/internal/cache"
	"github.com/BruksfildServices01/barber-dashboard/internal/config"
	"github.com/BruksfildServices01/barber-dashboard/internal/dashboard"
	"github.com/BruksfildServices01/barber-dashboard/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-dashboard/internal/handlers"
	"github.com/BruksfildServices01/barber-dashboard/internal/infra/repository"
	"github.com/BruksfildServices01/barber-dashboard/internal/metrics"
	"github.com/BruksfildServices01/barber-dashboard/internal/middleware"
	"github.com/BruksfildServices01/barber-dashboard/internal/session"
	"github.com/BruksfildServices01/barber-dashboard/internal/timezone"
	"github.com/BruksfildServices01/barber-dashboard/internal/usecase/agenda"
	"github.com/BruksfildServices01/barber-dashboard/internal/workflow"
)

// formTTL is how long an untouched booking or blocking form is kept.
const formTTL = 30 * time.Minute

// Infra is what main builds before the routes: the external systems and the
// ambient services.
type Infra struct {
	Config   *config.Config
	DB       *gorm.DB // nil without DATABASE_URL
	Backend  schedule.Backend
	Cache    cache.Store
	Sessions cache.Store
	Clock    timezone.Clock
	Hours    schedule.BusinessHours
	Log      *zap.Logger
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer
}

// sessionScope closes everything a session owns on logout or expiry.
type sessionScope struct {
	pollers   *dashboard.Manager
	bookings  *workflow.Registry[*workflow.Booking]
	blockings *workflow.Registry[*workflow.Blocking]
}

func (s sessionScope) CloseSession(id string) {
	s.pollers.Stop(id)
	s.bookings.RemoveOwner(id)
	s.blockings.RemoveOwner(id)
}

// RegisterRoutes wires the dashboard API. The returned func stops the
// pollers and flushes the audit queue.
func RegisterRoutes(r *gin.Engine, in Infra) (shutdown func()) {
	cfg := in.Config

	// ======================================================
	// 🌍 MIDDLEWARE GLOBAL
	// ======================================================
	r.Use(middleware.RequestLogger(in.Log, in.Metrics))
	r.Use(middleware.CORSMiddleware(cfg.CORSOrigins))

	// ======================================================
	// 🔧 INFRA (SINGLETONS)
	// ======================================================
	var (
		auditSink audit.Sink = audit.NewLogSink(in.Log)
		auditLogs handlers.AuditLogLister
	)
	if in.DB != nil {
		repo := repository.NewAuditLogGormRepository(in.DB)
		auditSink, auditLogs = repo, repo
	}
	auditDispatcher := audit.NewDispatcher(auditSink, in.Log, in.Metrics)

	agendaCache := cache.NewAgenda(in.Cache, in.Backend, cfg.PollInterval, in.Log, in.Metrics)
	sessions := session.NewStore(in.Sessions, cfg.JWTTTL)

	deps := agenda.Deps{
		Backend:    in.Backend,
		Agenda:     agendaCache,
		Audit:      auditDispatcher,
		Clock:      in.Clock,
		Hours:      in.Hours,
		MinAdvance: schedule.DefaultMinAdvance,
		Metrics:    in.Metrics,
	}

	pollers := dashboard.NewManager(in.Backend, agendaCache, in.Clock, cfg.PollInterval, in.Log, in.Metrics)
	scope := sessionScope{
		pollers:   pollers,
		bookings:  workflow.NewRegistry[*workflow.Booking](formTTL),
		blockings: workflow.NewRegistry[*workflow.Blocking](formTTL),
	}
	onExpired := func(id string) {
		go scope.CloseSession(id)
	}
	pollers.Expired = func(id string) {
		_ = sessions.Delete(context.Background(), id)
		scope.bookings.RemoveOwner(id)
		scope.blockings.RemoveOwner(id)
	}

	// ======================================================
	// 🧠 USE CASES
	// ======================================================
	listServicesUC := agenda.NewListServices(deps, in.Log)

	bookingDeps := workflow.BookingDeps{
		Availability: agenda.NewGetAvailability(deps),
		Create:       agenda.NewCreateAppointment(deps),
		Services:     listServicesUC,
		Clock:        in.Clock,
	}
	blockingDeps := workflow.BlockingDeps{
		Load:   agenda.NewLoadBlockingContext(deps),
		Create: agenda.NewCreateBlock(deps),
		Delete: agenda.NewDeleteBlock(deps),
		Clock:  in.Clock,
	}

	// ======================================================
	// 🧩 HANDLERS
	// ======================================================
	authHandler := handlers.NewAuthHandler(in.Backend, sessions, cfg.JWTSecret, scope, in.Log)
	meHandler := handlers.NewMeHandler()
	dashboardHandler := handlers.NewDashboardHandler(pollers)
	appointmentHandler := handlers.NewAppointmentHandler(deps)
	blockHandler := handlers.NewBlockHandler(deps)
	serviceHandler := handlers.NewServiceHandler(listServicesUC, in.Hours)
	bookingHandler := handlers.NewBookingHandler(bookingDeps, scope.bookings)
	blockingHandler := handlers.NewBlockingHandler(blockingDeps, scope.blockings)
	auditLogsHandler := handlers.NewAuditLogsHandler(auditLogs)

	// ======================================================
	// 🩺 HEALTH + METRICS
	// ======================================================
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler(in.Gatherer)))

	// ======================================================
	// 🌐 API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		// ------------------------------
		// 🔐 AUTH
		// ------------------------------
		api.POST("/auth/login",
			middleware.RateLimitMiddleware(cfg.LoginRatePerMin, in.Log),
			authHandler.Login,
		)

		// ------------------------------
		// 🔐 API PRIVADA
		// ------------------------------
		secured := api.Group("/")
		secured.Use(middleware.AuthMiddleware(cfg.JWTSecret, sessions, onExpired))
		{
			secured.POST("/auth/logout", authHandler.Logout)
			secured.GET("/me", meHandler.GetMe)

			// ------------------------------
			// DASHBOARD
			// ------------------------------
			secured.GET("/dashboard", dashboardHandler.Get)
			secured.POST("/dashboard/refresh", dashboardHandler.Refresh)
			secured.POST("/notifications/read", dashboardHandler.MarkNotificationsRead)

			// ------------------------------
			// AGENDA
			// ------------------------------
			secured.GET("/appointments", appointmentHandler.ListByDate)
			secured.GET("/appointments/month", appointmentHandler.ListByMonth)
			secured.GET("/availability", appointmentHandler.Availability)
			secured.PATCH("/appointments/:id/cancel", appointmentHandler.Cancel)
			secured.PATCH("/appointments/:id/restore", appointmentHandler.Restore)
			secured.PATCH("/appointments/:id/complete", appointmentHandler.Complete)
			secured.PATCH("/appointments/:id/start", appointmentHandler.Start)

			secured.GET("/blocks", blockHandler.ListByDate)
			secured.DELETE("/blocks/:id", blockHandler.Delete)

			secured.GET("/services", serviceHandler.List)
			secured.GET("/business-hours", serviceHandler.BusinessHours)

			// ------------------------------
			// BOOKING FORM
			// ------------------------------
			secured.POST("/bookings", bookingHandler.Open)
			secured.GET("/bookings/:id", bookingHandler.Get)
			secured.GET("/bookings/:id/calendar", bookingHandler.Calendar)
			secured.POST("/bookings/:id/date", bookingHandler.SelectDate)
			secured.POST("/bookings/:id/time", bookingHandler.SelectTime)
			secured.POST("/bookings/:id/contact", bookingHandler.SetContact)
			secured.POST("/bookings/:id/next", bookingHandler.Next)
			secured.POST("/bookings/:id/back", bookingHandler.Back)
			secured.POST("/bookings/:id/submit", bookingHandler.Submit)
			secured.DELETE("/bookings/:id", bookingHandler.Close)

			// ------------------------------
			// BLOCKING FORM
			// ------------------------------
			secured.POST("/blockings", blockingHandler.Open)
			secured.GET("/blockings/:id", blockingHandler.Get)
			secured.PATCH("/blockings/:id", blockingHandler.Update)
			secured.POST("/blockings/:id/submit", blockingHandler.Submit)
			secured.POST("/blockings/:id/unblock/:blockId", blockingHandler.Unblock)
			secured.DELETE("/blockings/:id", blockingHandler.Close)

			secured.GET("/audit-logs", auditLogsHandler.List)
		}
	}

	return func() {
		pollers.StopAll()
		auditDispatcher.Close()
	}
}
