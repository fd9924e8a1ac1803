package user

import "errors"

var (
	ErrAdminAccessRequired     = errors.New("admin access required")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
	ErrStaffIDRequired         = errors.New("staff ID is required")
)
