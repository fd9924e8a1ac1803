package attendance

import (
	"context"
)

// StaffRangeQuery selects one staff member's records by work date.
// WorkDate is an equality filter; StartDate/EndDate are inclusive bounds.
type StaffRangeQuery struct {
	StaffID   string
	WorkDate  *string
	StartDate *string
	EndDate   *string
	Limit     int
}

// AttendanceRepository defines data access methods for attendance records.
type AttendanceRepository interface {
	// Create creates a new attendance record
	Create(ctx context.Context, attendance Attendance) (Attendance, error)

	// GetByID retrieves a single attendance record
	GetByID(ctx context.Context, id string) (Attendance, error)

	// ListByStaffPage returns one page of records ordered by work date and the
	// token for the next page, or a nil token on the last page.
	ListByStaffPage(ctx context.Context, query StaffRangeQuery, nextToken *string) ([]Attendance, *string, error)

	// Update overwrites the mutable fields only if the stored revision still
	// equals expectedRevision. Returns ErrRevisionConflict otherwise.
	Update(ctx context.Context, attendance Attendance, expectedRevision int) (Attendance, error)

	// Delete hard deletes an attendance record
	Delete(ctx context.Context, id string) error
}
