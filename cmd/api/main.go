package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/config"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/roster"
	appHTTP "github.com/cmlabs-hris/attendance-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/jwt"
	redisClient "github.com/cmlabs-hris/attendance-backend-go/internal/pkg/redis"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/telemetry"
	"github.com/cmlabs-hris/attendance-backend-go/internal/repository/memory"
	"github.com/cmlabs-hris/attendance-backend-go/internal/repository/postgresql"
	redisRepo "github.com/cmlabs-hris/attendance-backend-go/internal/repository/redis"
	attendanceService "github.com/cmlabs-hris/attendance-backend-go/internal/service/attendance"
	notificationService "github.com/cmlabs-hris/attendance-backend-go/internal/service/notification"
	reconcileService "github.com/cmlabs-hris/attendance-backend-go/internal/service/reconcile"
	rosterService "github.com/cmlabs-hris/attendance-backend-go/internal/service/roster"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})).With(
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("env", cfg.App.Env),
	))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Env,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
	})

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolConfig{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if cfg.Database.RunMigrations {
		if err := database.RunMigrations(db); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	location, _ := time.LoadLocation(cfg.App.Timezone)

	// Repositories
	transactor := postgresql.NewTransactor(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	staffRepo := postgresql.NewStaffRepository(db)

	var stateStore roster.StateStore
	switch cfg.Roster.StateBackend {
	case "redis":
		rdb, err := redisClient.NewClient(ctx, redisClient.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()
		stateStore = redisRepo.NewStaffStateStore(rdb, cfg.Roster.StateTTL)
	default:
		stateStore = memory.NewStaffStateStore()
	}
	slog.Info("Staff state store ready", "backend", cfg.Roster.StateBackend)

	// Services
	JWTService, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	if err != nil {
		return err
	}

	hub := sse.NewHub(cfg.Notify.SSEBufferSize)
	notifService := notificationService.NewNotificationService(hub, notificationService.Config{
		WorkerCount:     cfg.Notify.WorkerCount,
		QueueSize:       cfg.Notify.QueueSize,
		DeliveryTimeout: cfg.Notify.DeliveryTimeout,
	})
	defer notifService.Stop()

	warningNotifier := attendanceService.NewWarningNotifier(notifService)
	attendanceSvc := attendanceService.NewAttendanceService(transactor, attendanceRepo, staffRepo, warningNotifier, attendanceService.Config{
		PageSize:      cfg.Attendance.PageSize,
		MaxWindowDays: cfg.Attendance.MaxWindowDays,
	})
	reconcileSvc := reconcileService.NewReconcileService(transactor, attendanceRepo, notifService, reconcileService.Config{
		Strategy:       cfg.Reconcile.Strategy,
		DeleteMaxTries: uint(cfg.Reconcile.DeleteMaxTries),
		InitialBackoff: cfg.Reconcile.InitialBackoff,
	})
	rosterSvc := rosterService.NewRosterService(attendanceSvc, staffRepo, stateStore, warningNotifier, rosterService.Config{
		Concurrency: cfg.Roster.Concurrency,
	})

	// Background jobs
	scheduler := cron.NewScheduler()
	if cfg.Jobs.Enabled {
		cron.NewAttendanceJobs(attendanceSvc, staffRepo, warningNotifier, reconcileSvc, cron.AttendanceJobsConfig{
			AuditInterval:   cfg.Jobs.DuplicateAuditInterval,
			AuditWindowDays: cfg.Jobs.DuplicateAuditWindow,
			SweepInterval:   cfg.Jobs.SessionSweepInterval,
			SessionTTL:      cfg.Reconcile.SessionTTL,
		}).RegisterJobs(scheduler)
	}
	scheduler.Start(ctx)

	router := appHTTP.NewRouter(appHTTP.RouterConfig{
		AppName:        cfg.App.Name,
		Version:        cfg.App.Version,
		Env:            cfg.App.Env,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		LogLevel:       cfg.SlogLevel(),
	}, JWTService, appHTTP.Handlers{
		Attendance:   appHTTP.NewAttendanceHandler(attendanceSvc, location),
		Reconcile:    appHTTP.NewReconcileHandler(reconcileSvc),
		Roster:       appHTTP.NewRosterHandler(rosterSvc),
		Notification: appHTTP.NewNotificationHandler(notifService, JWTService),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown failed", "error", err)
	}
	scheduler.Stop()
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		slog.Error("Telemetry shutdown failed", "error", err)
	}

	slog.Info("Server stopped")
	return nil
}
