package staff

import "context"

type StaffRepository interface {
	GetByID(ctx context.Context, id string) (Staff, error)
	// GetByIDForUpdate locks the staff row until the surrounding
	// transaction ends. Writers that check then insert take it first.
	GetByIDForUpdate(ctx context.Context, id string) (Staff, error)
	// ListEnabled returns every enabled staff member ordered by name.
	ListEnabled(ctx context.Context) ([]Staff, error)
}
