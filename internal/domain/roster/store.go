package roster

import (
	"context"
)

// StateStore keeps per-staff roster state keyed by staff ID.
// Get returns ErrStateNotFound for unknown staff.
type StateStore interface {
	Get(ctx context.Context, staffID string) (StaffState, error)
	Set(ctx context.Context, staffID string, state StaffState) error
	Clear(ctx context.Context, staffID string) error
	ClearAll(ctx context.Context) error
	List(ctx context.Context) ([]StaffState, error)
}
