package attendance

import "errors"

// Attendance domain errors
var (
	// Clock in/out errors
	ErrAlreadyClockedIn     = errors.New("you have already clocked in today")
	ErrNotClockedIn         = errors.New("you have not clocked in yet")
	ErrAlreadyClockedOut    = errors.New("you have already clocked out")
	ErrPendingChangeRequest = errors.New("attendance has a change request awaiting approval")

	// General errors
	ErrAttendanceNotFound    = errors.New("attendance record not found")
	ErrAttendanceExists      = errors.New("an attendance record already exists for this work date")
	ErrChangeRequestNotFound = errors.New("change request not found")
	ErrChangeRequestDone     = errors.New("change request has already been processed")
	ErrRevisionConflict      = errors.New("attendance was modified by someone else, reload and try again")
	ErrInvalidCursor         = errors.New("invalid pagination token")
)
