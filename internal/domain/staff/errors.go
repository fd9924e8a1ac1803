package staff

import "errors"

var (
	ErrStaffNotFound = errors.New("staff not found")
	ErrStaffDisabled = errors.New("staff account is disabled")
)
