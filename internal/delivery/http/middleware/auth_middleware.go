package middleware

import (
	"context"
	"net/http"

	"freshmart-backend/internal/domain"
	"freshmart-backend/pkg/utils"
)

// AuthMiddleware validates the request's JWT and stores the authenticated
// user in the request context. The user is built from token claims; no
// database lookup happens per request.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := utils.ExtractClaims(r)
		if err != nil {
			utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		user := &domain.User{
			ID:    claims.UserID,
			Email: claims.Email,
			Role:  claims.Role,
		}

		ctx := context.WithValue(r.Context(), domain.UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
