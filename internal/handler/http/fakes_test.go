package http

import (
	"context"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/reconcile"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/roster"
)

// Each fake embeds its interface; calling a method without a func set panics.

type fakeAttendanceService struct {
	attendance.AttendanceService
	listByStaff func(ctx context.Context, req attendance.ListByStaffRequest) (attendance.CalendarListResponse, error)
	get         func(ctx context.Context, id string) (attendance.AttendanceResponse, error)
	create      func(ctx context.Context, req attendance.CreateAttendanceRequest) (attendance.AttendanceResponse, error)
	update      func(ctx context.Context, req attendance.UpdateAttendanceRequest) (attendance.AttendanceResponse, error)
	clockIn     func(ctx context.Context, req attendance.ClockRequest) (attendance.AttendanceResponse, error)
	submit      func(ctx context.Context, req attendance.SubmitChangeRequestRequest) (attendance.AttendanceResponse, error)
	approve     func(ctx context.Context, req attendance.ApproveChangeRequestRequest) (attendance.AttendanceResponse, error)
}

func (f *fakeAttendanceService) ListByStaff(ctx context.Context, req attendance.ListByStaffRequest) (attendance.CalendarListResponse, error) {
	return f.listByStaff(ctx, req)
}

func (f *fakeAttendanceService) GetAttendance(ctx context.Context, id string) (attendance.AttendanceResponse, error) {
	return f.get(ctx, id)
}

func (f *fakeAttendanceService) CreateAttendance(ctx context.Context, req attendance.CreateAttendanceRequest) (attendance.AttendanceResponse, error) {
	return f.create(ctx, req)
}

func (f *fakeAttendanceService) UpdateAttendance(ctx context.Context, req attendance.UpdateAttendanceRequest) (attendance.AttendanceResponse, error) {
	return f.update(ctx, req)
}

func (f *fakeAttendanceService) ClockIn(ctx context.Context, req attendance.ClockRequest) (attendance.AttendanceResponse, error) {
	return f.clockIn(ctx, req)
}

func (f *fakeAttendanceService) SubmitChangeRequest(ctx context.Context, req attendance.SubmitChangeRequestRequest) (attendance.AttendanceResponse, error) {
	return f.submit(ctx, req)
}

func (f *fakeAttendanceService) ApproveChangeRequest(ctx context.Context, req attendance.ApproveChangeRequestRequest) (attendance.AttendanceResponse, error) {
	return f.approve(ctx, req)
}

type fakeReconcileService struct {
	reconcile.Service
	open    func(ctx context.Context, req reconcile.OpenRequest) (reconcile.SessionResponse, error)
	get     func(ctx context.Context, id string) (reconcile.SessionResponse, error)
	resolve func(ctx context.Context, id string, req reconcile.ResolveRequest) (reconcile.ResolveResult, error)
}

func (f *fakeReconcileService) Open(ctx context.Context, req reconcile.OpenRequest) (reconcile.SessionResponse, error) {
	return f.open(ctx, req)
}

func (f *fakeReconcileService) Get(ctx context.Context, id string) (reconcile.SessionResponse, error) {
	return f.get(ctx, id)
}

func (f *fakeReconcileService) Resolve(ctx context.Context, id string, req reconcile.ResolveRequest) (reconcile.ResolveResult, error) {
	return f.resolve(ctx, id, req)
}

func (f *fakeReconcileService) Sweep(context.Context, time.Duration) int { return 0 }

type fakeRosterService struct {
	roster.Service
	cleared      bool
	clearedStaff []string
	states       []roster.StaffState
}

func (f *fakeRosterService) List(context.Context) (roster.RosterListResponse, error) {
	return roster.RosterListResponse{Staff: f.states}, nil
}

func (f *fakeRosterService) ClearStaff(_ context.Context, staffID string) error {
	f.clearedStaff = append(f.clearedStaff, staffID)
	return nil
}

func (f *fakeRosterService) Clear(context.Context) error {
	f.cleared = true
	return nil
}
