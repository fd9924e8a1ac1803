package middleware

import (
	"fmt"
	"net/http"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

// RequirePermission checks if user has specific permission
func RequirePermission(permission user.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				response.Forbidden(w, fmt.Sprintf("Insufficient permissions: required '%s'", permission))
				return
			}

			if !user.HasPermission(p.Role, permission) {
				response.Forbidden(w, fmt.Sprintf("Insufficient permissions: required '%s', but user role is '%s'", permission, p.Role))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireSelfOrPermission lets a caller through when the URL parameter names
// their own staff ID, or when their role carries permission.
func RequireSelfOrPermission(param string, permission user.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				response.HandleError(w, user.ErrStaffIDRequired)
				return
			}

			if p.StaffID == chi.URLParam(r, param) || user.HasPermission(p.Role, permission) {
				next.ServeHTTP(w, r)
				return
			}

			response.HandleError(w, user.ErrInsufficientPermissions)
		})
	}
}
