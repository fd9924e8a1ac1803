package roster

import (
	"context"
)

type Service interface {
	// LoadDaily scans every enabled staff member's attendance for the date
	// concurrently and records each result in the state store.
	LoadDaily(ctx context.Context, req LoadDailyRequest) (DailyRosterResponse, error)

	// GetStaff returns the last stored state for one staff member
	GetStaff(ctx context.Context, staffID string) (StaffState, error)

	// List returns every stored state ordered by staff name
	List(ctx context.Context) (RosterListResponse, error)

	// ClearStaff drops one staff member's state; unknown staff is not an error
	ClearStaff(ctx context.Context, staffID string) error

	// Clear drops every stored state
	Clear(ctx context.Context) error
}
