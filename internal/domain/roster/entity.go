package roster

import (
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
)

// StaffState is one staff member's slice of the daily roster. A state is
// always replaced as a whole, never mutated in place.
type StaffState struct {
	StaffID    string                         `json:"staff_id"`
	StaffName  string                         `json:"staff_name"`
	Date       string                         `json:"date"`
	Attendance *attendance.AttendanceResponse `json:"attendance,omitempty"`
	Loading    bool                           `json:"loading"`
	Error      string                         `json:"error,omitempty"`
	Duplicates []attendance.DuplicateDetail   `json:"duplicates"`
	UpdatedAt  time.Time                      `json:"updated_at"`
}
