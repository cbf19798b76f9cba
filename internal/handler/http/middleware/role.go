package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/user"
	"github.com/cmlabs-hris/hris-reconciliation/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

// RequirePermission checks the role claim against user.RolePermissions.
func RequirePermission(permission user.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, claims, err := jwtauth.FromContext(r.Context())
			if err != nil {
				response.HandleError(w, user.ErrInvalidToken)
				return
			}

			role, ok := claims["role"].(string)
			if !ok {
				response.Forbidden(w, "Role not found in token")
				return
			}

			if !user.HasPermission(user.Role(role), permission) {
				response.Forbidden(w, "Insufficient permission: "+string(permission))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
