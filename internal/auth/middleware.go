package auth

import (
	"context"
	"net/http"

	"BuildStore/pkg/kit"
)

type ctxKey string

const adminKey ctxKey = "admin"

type Admin struct {
	Username string
	Role     string
}

func AdminFromContext(ctx context.Context) (Admin, bool) {
	a, ok := ctx.Value(adminKey).(Admin)
	return a, ok
}

// RequireAdmin lets through requests carrying a valid admin bearer token.
func RequireAdmin(tm *TokenMaker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, ok := kit.BearerToken(r)
			if !ok {
				kit.WriteError(w, r, http.StatusUnauthorized, "missing token", nil)
				return
			}

			claims, err := tm.Parse(tok)
			if err != nil || claims.Username == "" {
				kit.WriteError(w, r, http.StatusUnauthorized, "invalid token", nil)
				return
			}
			if claims.Role != RoleAdmin {
				kit.WriteError(w, r, http.StatusUnauthorized, "admin role required", nil)
				return
			}

			ctx := context.WithValue(r.Context(), adminKey, Admin{Username: claims.Username, Role: claims.Role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
