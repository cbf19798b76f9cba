package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/user"
	"github.com/cmlabs-hris/hris-reconciliation/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

// AuthRequired rejects requests without a verified access token. It must run
// after jwtauth.Verifier.
func AuthRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.Unauthorized(w, err.Error())
			return
		}

		if token == nil {
			response.HandleError(w, user.ErrInvalidToken)
			return
		}

		tokenType, ok := claims["type"].(string)
		if tokenType != "access" || !ok {
			response.HandleError(w, user.ErrInvalidToken)
			return
		}

		next.ServeHTTP(w, r)
	})
}
