package reconcile

import "errors"

var (
	ErrSessionNotFound    = errors.New("reconciliation session not found")
	ErrInvalidState       = errors.New("reconciliation session is not in a state that allows this action")
	ErrWrongSelectionMode = errors.New("action is not available in the current selection mode")
	ErrNoSelection        = errors.New("select the record to keep first")
	ErrNotConfirmed       = errors.New("deleting the other records must be confirmed")
	ErrCandidateNotFound  = errors.New("record is not one of the session's candidates")
	ErrUnknownField       = errors.New("unknown comparison field")
	ErrResolveRolledBack  = errors.New("deleting the duplicate records failed and nothing was deleted")
)
