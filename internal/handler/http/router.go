package http

import (
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type RouterConfig struct {
	AppName        string
	Version        string
	Env            string
	AllowedOrigins []string
	LogLevel       slog.Level
	// LogOutput defaults to stdout
	LogOutput io.Writer
}

type Handlers struct {
	Attendance   AttendanceHandler
	Reconcile    ReconcileHandler
	Roster       RosterHandler
	Notification NotificationHandler
}

func NewRouter(cfg RouterConfig, JWTService jwt.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	out := cfg.LogOutput
	if out == nil {
		out = os.Stdout
	}
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", cfg.AppName),
		slog.String("version", cfg.Version),
		slog.String("env", cfg.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: !slices.Contains(cfg.AllowedOrigins, "*"),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(otelhttp.NewMiddleware(cfg.AppName))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		// SSE authenticates with a short-lived query token
		r.Get("/notifications/stream", h.Notification.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.With(middleware.RequirePermission(user.PermissionNotificationStream)).
				Post("/notifications/sse-token", h.Notification.GetSSEToken)

			r.With(middleware.RequireSelfOrPermission("staffID", user.PermissionAttendanceViewAll)).
				Get("/staff/{staffID}/attendances", h.Attendance.ListByStaff)

			r.Route("/attendances", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionAttendanceClock))
					r.Post("/clock-in", h.Attendance.ClockIn)
					r.Post("/clock-out", h.Attendance.ClockOut)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionAttendanceManage))
					r.Post("/", h.Attendance.Create)
					r.Put("/{id}", h.Attendance.Update)
					r.Delete("/{id}", h.Attendance.Delete)
				})

				r.With(middleware.RequirePermission(user.PermissionAttendanceViewOwn)).
					Get("/{id}", h.Attendance.Get)

				r.Route("/{id}/change-requests", func(r chi.Router) {
					r.With(middleware.RequirePermission(user.PermissionAttendanceRequest)).
						Post("/", h.Attendance.SubmitChangeRequest)
					r.With(middleware.RequirePermission(user.PermissionAttendanceApprove)).
						Post("/{crID}/approve", h.Attendance.ApproveChangeRequest)
				})
			})

			r.Route("/reconcile-sessions", func(r chi.Router) {
				r.Use(middleware.RequirePermission(user.PermissionAttendanceReconcile))
				r.Post("/", h.Reconcile.Open)
				r.Route("/{sessionID}", func(r chi.Router) {
					r.Get("/", h.Reconcile.Get)
					r.Put("/mode", h.Reconcile.SetMode)
					r.Put("/selection", h.Reconcile.SelectRecord)
					r.Put("/fields", h.Reconcile.SelectField)
					r.Post("/resolve", h.Reconcile.Resolve)
					r.Delete("/", h.Reconcile.Close)
				})
			})

			r.Route("/rosters", func(r chi.Router) {
				r.Use(middleware.RequirePermission(user.PermissionRosterView))
				r.Get("/", h.Roster.List)
				r.Post("/daily", h.Roster.LoadDaily)
				r.Get("/staff/{staffID}", h.Roster.GetStaff)
				r.With(middleware.AdminOnly).Delete("/staff/{staffID}", h.Roster.ClearStaff)
				r.With(middleware.AdminOnly).Delete("/", h.Roster.Clear)
			})
		})
	})
	return r
}
