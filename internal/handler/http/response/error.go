package response

import (
	"errors"
	"net/http"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/reconcile"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/roster"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/staff"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, err.Error())
	case errors.Is(err, auth.ErrTokenExpired):
		Unauthorized(w, "Token expired")
	case errors.Is(err, user.ErrStaffIDRequired):
		Unauthorized(w, err.Error())
	case errors.Is(err, user.ErrAdminAccessRequired),
		errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, err.Error())

	// Staff domain errors
	case errors.Is(err, staff.ErrStaffNotFound):
		NotFound(w, "Staff not found")
	case errors.Is(err, staff.ErrStaffDisabled):
		Forbidden(w, err.Error())

	// Attendance domain errors
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance not found")
	case errors.Is(err, attendance.ErrChangeRequestNotFound):
		NotFound(w, "Change request not found")
	case errors.Is(err, attendance.ErrRevisionConflict),
		errors.Is(err, attendance.ErrAttendanceExists),
		errors.Is(err, attendance.ErrChangeRequestDone),
		errors.Is(err, attendance.ErrAlreadyClockedIn),
		errors.Is(err, attendance.ErrAlreadyClockedOut),
		errors.Is(err, attendance.ErrPendingChangeRequest):
		Conflict(w, err.Error())
	case errors.Is(err, attendance.ErrNotClockedIn):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, attendance.ErrInvalidCursor):
		BadRequest(w, err.Error(), nil)

	// Reconciliation errors
	case errors.Is(err, reconcile.ErrSessionNotFound):
		NotFound(w, "Reconciliation session not found")
	case errors.Is(err, reconcile.ErrInvalidState),
		errors.Is(err, reconcile.ErrWrongSelectionMode):
		Conflict(w, err.Error())
	case errors.Is(err, reconcile.ErrNoSelection),
		errors.Is(err, reconcile.ErrNotConfirmed),
		errors.Is(err, reconcile.ErrCandidateNotFound),
		errors.Is(err, reconcile.ErrUnknownField):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, reconcile.ErrResolveRolledBack):
		writeJSON(w, http.StatusConflict, Response{
			Success: false,
			Error: &ErrorDetail{
				Code:    "RESOLVE_ROLLED_BACK",
				Message: err.Error(),
			},
		})

	// Roster errors
	case errors.Is(err, roster.ErrStateNotFound):
		NotFound(w, "No roster state for staff")

	// Notification errors
	case errors.Is(err, notification.ErrUnknownTopic):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, notification.ErrQueueFull),
		errors.Is(err, notification.ErrServiceStopped):
		ServiceUnavailable(w, err.Error())

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
