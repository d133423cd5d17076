package middleware

import (
	"net/http"

	"freshmart-backend/internal/domain"
	"freshmart-backend/pkg/utils"
)

// AdminMiddleware requires an ADMIN user in the context. It must run after
// AuthMiddleware.
func AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := r.Context().Value(domain.UserContextKey).(*domain.User)
		if !ok || user == nil {
			utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if user.Role != domain.RoleAdmin {
			utils.WriteError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
