package roster

import "errors"

var (
	ErrStateNotFound = errors.New("no roster state for staff")
)
