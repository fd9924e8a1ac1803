package attendance

import (
	"context"
)

// AttendanceService defines business logic for attendance operations
type AttendanceService interface {
	// ListByStaff builds the calendar-aligned list for one staff member and
	// reports duplicate work dates found along the way.
	ListByStaff(ctx context.Context, req ListByStaffRequest) (CalendarListResponse, error)

	// FetchByStaff returns every raw record for the staff/date window,
	// following pagination tokens until exhausted.
	FetchByStaff(ctx context.Context, query StaffRangeQuery) ([]Attendance, error)

	// GetAttendance retrieves a single attendance record by ID
	GetAttendance(ctx context.Context, id string) (AttendanceResponse, error)

	// CreateAttendance creates a record on behalf of a staff member (admin)
	CreateAttendance(ctx context.Context, req CreateAttendanceRequest) (AttendanceResponse, error)

	// UpdateAttendance updates a record after checking its revision
	UpdateAttendance(ctx context.Context, req UpdateAttendanceRequest) (AttendanceResponse, error)

	// DeleteAttendance hard deletes an attendance record
	DeleteAttendance(ctx context.Context, id string) error

	ClockIn(ctx context.Context, req ClockRequest) (AttendanceResponse, error)
	ClockOut(ctx context.Context, req ClockRequest) (AttendanceResponse, error)

	// SubmitChangeRequest attaches a staff-proposed edit to a record
	SubmitChangeRequest(ctx context.Context, req SubmitChangeRequestRequest) (AttendanceResponse, error)

	// ApproveChangeRequest applies a pending change request (admin)
	ApproveChangeRequest(ctx context.Context, req ApproveChangeRequestRequest) (AttendanceResponse, error)
}

// WarningNotifier surfaces duplicate groups to operators. It never fails the
// caller; delivery problems are logged.
type WarningNotifier interface {
	NotifyDuplicates(ctx context.Context, staffID string, groups []DuplicateGroup)
}
