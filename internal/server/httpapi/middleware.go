package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/skyready/logbook-sync/internal/common"
	"github.com/skyready/logbook-sync/internal/server/auth"
)

type ctxKey string

const userIDKey ctxKey = "userID"

// UserID returns the authenticated user id stored by the middleware, or ""
// when the request did not pass through it.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// accessTokenMiddleware resolves the caller from a bearer Authorization
// header or, failing that, the access_token header, and stores the user id
// on the request context.
func (s *Server) accessTokenMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			token = r.Header.Get(common.AccessTokenHeaderName)
		}
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}
