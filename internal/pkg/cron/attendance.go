package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/reconcile"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/staff"
)

type AttendanceJobsConfig struct {
	AuditInterval   time.Duration // default: 1h
	AuditWindowDays int           // default: 31
	SweepInterval   time.Duration // default: 5m
	SessionTTL      time.Duration // default: 30m
}

type AttendanceJobs struct {
	attendanceService attendance.AttendanceService
	staffRepo         staff.StaffRepository
	notifier          attendance.WarningNotifier
	reconcileService  reconcile.Service
	config            AttendanceJobsConfig
	now               func() time.Time
}

func NewAttendanceJobs(
	attendanceService attendance.AttendanceService,
	staffRepo staff.StaffRepository,
	notifier attendance.WarningNotifier,
	reconcileService reconcile.Service,
	cfg AttendanceJobsConfig,
) *AttendanceJobs {
	if cfg.AuditInterval <= 0 {
		cfg.AuditInterval = time.Hour
	}
	if cfg.AuditWindowDays <= 0 {
		cfg.AuditWindowDays = 31
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 5 * time.Minute
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	return &AttendanceJobs{
		attendanceService: attendanceService,
		staffRepo:         staffRepo,
		notifier:          notifier,
		reconcileService:  reconcileService,
		config:            cfg,
		now:               time.Now,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob(Job{Name: "duplicate_audit", Interval: j.config.AuditInterval, Fn: j.AuditDuplicates})
	scheduler.AddJob(Job{Name: "reconcile_session_sweep", Interval: j.config.SweepInterval, Fn: j.SweepReconcileSessions})
}

// AuditDuplicates scans every enabled staff member over the trailing window
// and publishes a warning for each date that holds more than one record.
// A failing staff member is logged and skipped.
func (j *AttendanceJobs) AuditDuplicates(ctx context.Context) error {
	members, err := j.staffRepo.ListEnabled(ctx)
	if err != nil {
		return fmt.Errorf("failed to list staff: %w", err)
	}

	today := j.now().UTC()
	end := today.Format(attendance.DateLayout)
	start := today.AddDate(0, 0, -(j.config.AuditWindowDays - 1)).Format(attendance.DateLayout)

	var groups, failed int
	for _, m := range members {
		if err := ctx.Err(); err != nil {
			return err
		}

		records, err := j.attendanceService.FetchByStaff(ctx, attendance.StaffRangeQuery{
			StaffID:   m.ID,
			StartDate: &start,
			EndDate:   &end,
		})
		if err != nil {
			failed++
			slog.Warn("Cron: duplicate audit failed for staff", "staff_id", m.ID, "error", err)
			continue
		}

		scan := attendance.ScanDuplicates(records)
		if len(scan.Groups) == 0 {
			continue
		}
		groups += len(scan.Groups)
		j.notifier.NotifyDuplicates(ctx, m.ID, scan.Groups)
	}

	slog.Info("Cron: duplicate audit finished",
		"staff", len(members),
		"start_date", start,
		"end_date", end,
		"duplicate_groups", groups,
		"failed", failed,
	)
	return nil
}

func (j *AttendanceJobs) SweepReconcileSessions(ctx context.Context) error {
	closed := j.reconcileService.Sweep(ctx, j.config.SessionTTL)
	if closed > 0 {
		slog.Info("Cron: closed idle reconcile sessions", "count", closed)
	}
	return nil
}
