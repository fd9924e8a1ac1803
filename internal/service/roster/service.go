package roster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/roster"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/staff"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	Concurrency int // default: 8
}

type RosterServiceImpl struct {
	attendanceService attendance.AttendanceService
	staff.StaffRepository
	store    roster.StateStore
	notifier attendance.WarningNotifier
	config   Config
	now      func() time.Time
}

// LoadDaily implements roster.Service.
func (r *RosterServiceImpl) LoadDaily(ctx context.Context, req roster.LoadDailyRequest) (roster.DailyRosterResponse, error) {
	if err := req.Validate(); err != nil {
		return roster.DailyRosterResponse{}, err
	}

	members, err := r.StaffRepository.ListEnabled(ctx)
	if err != nil {
		return roster.DailyRosterResponse{}, fmt.Errorf("failed to list staff: %w", err)
	}

	for _, m := range members {
		loading := roster.StaffState{
			StaffID:    m.ID,
			StaffName:  m.Name,
			Date:       req.Date,
			Loading:    true,
			Duplicates: []attendance.DuplicateDetail{},
			UpdatedAt:  r.now(),
		}
		if err := r.store.Set(ctx, m.ID, loading); err != nil {
			return roster.DailyRosterResponse{}, fmt.Errorf("failed to mark staff loading: %w", err)
		}
	}

	states := make([]roster.StaffState, len(members))

	g := new(errgroup.Group)
	g.SetLimit(r.config.Concurrency)
	for i, m := range members {
		g.Go(func() error {
			state := r.scanStaff(ctx, m, req.Date)
			// a cancelled load keeps whatever state is stored
			if ctx.Err() != nil {
				return nil
			}
			if err := r.store.Set(ctx, m.ID, state); err != nil {
				slog.Error("failed to store roster state", "staff_id", m.ID, "error", err)
			}
			states[i] = state
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return roster.DailyRosterResponse{}, err
	}

	resp := roster.DailyRosterResponse{Date: req.Date, Staff: states}
	for _, st := range states {
		resp.DuplicateCount += len(st.Duplicates)
		if st.Error != "" {
			resp.ErrorCount++
		}
	}

	slog.Info("daily roster loaded",
		"date", req.Date,
		"staff", len(states),
		"duplicates", resp.DuplicateCount,
		"errors", resp.ErrorCount,
	)

	return resp, nil
}

// scanStaff fetches one staff member's records for the date. Failures are
// recorded on the state instead of failing the roster.
func (r *RosterServiceImpl) scanStaff(ctx context.Context, m staff.Staff, date string) roster.StaffState {
	state := roster.StaffState{
		StaffID:    m.ID,
		StaffName:  m.Name,
		Date:       date,
		Duplicates: []attendance.DuplicateDetail{},
	}

	records, err := r.attendanceService.FetchByStaff(ctx, attendance.StaffRangeQuery{StaffID: m.ID, WorkDate: &date})
	state.UpdatedAt = r.now()
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Warn("failed to load staff attendance", "staff_id", m.ID, "date", date, "error", err)
		}
		state.Error = err.Error()
		return state
	}

	scan := attendance.ScanDuplicates(records)
	if rec, ok := scan.FirstByDate[date]; ok {
		resp := attendance.ToResponse(rec)
		state.Attendance = &resp
	}
	if len(scan.Groups) > 0 {
		state.Duplicates = scan.Details(m.ID)
		r.notifier.NotifyDuplicates(ctx, m.ID, scan.Groups)
	}
	return state
}

// GetStaff implements roster.Service.
func (r *RosterServiceImpl) GetStaff(ctx context.Context, staffID string) (roster.StaffState, error) {
	state, err := r.store.Get(ctx, staffID)
	if err != nil {
		if errors.Is(err, roster.ErrStateNotFound) {
			return roster.StaffState{}, roster.ErrStateNotFound
		}
		return roster.StaffState{}, fmt.Errorf("failed to get roster state: %w", err)
	}
	return state, nil
}

// List implements roster.Service.
func (r *RosterServiceImpl) List(ctx context.Context) (roster.RosterListResponse, error) {
	states, err := r.store.List(ctx)
	if err != nil {
		return roster.RosterListResponse{}, fmt.Errorf("failed to list roster states: %w", err)
	}

	resp := roster.RosterListResponse{Staff: states}
	if resp.Staff == nil {
		resp.Staff = []roster.StaffState{}
	}
	for _, st := range resp.Staff {
		if st.Loading {
			resp.LoadingCount++
		}
	}
	return resp, nil
}

// ClearStaff implements roster.Service.
func (r *RosterServiceImpl) ClearStaff(ctx context.Context, staffID string) error {
	if err := r.store.Clear(ctx, staffID); err != nil {
		return fmt.Errorf("failed to clear roster state: %w", err)
	}
	return nil
}

// Clear implements roster.Service.
func (r *RosterServiceImpl) Clear(ctx context.Context) error {
	if err := r.store.ClearAll(ctx); err != nil {
		return fmt.Errorf("failed to clear roster: %w", err)
	}
	return nil
}

func NewRosterService(
	attendanceService attendance.AttendanceService,
	staffRepo staff.StaffRepository,
	store roster.StateStore,
	notifier attendance.WarningNotifier,
	cfg Config,
) roster.Service {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	return &RosterServiceImpl{
		attendanceService: attendanceService,
		StaffRepository:   staffRepo,
		store:             store,
		notifier:          notifier,
		config:            cfg,
		now:               time.Now,
	}
}
