package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/cosmicwatch/cosmic-watch/internal/api/respond"
)

// UserIDHeader carries the caller identity set by the auth gateway.
const UserIDHeader = "X-User-ID"

// UserNameHeader optionally carries a display name.
const UserNameHeader = "X-User-Name"

type ctxKey int

const (
	userIDKey ctxKey = iota
	userNameKey
)

// RequireUser rejects requests without an identity header and stores the
// identity in the request context.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(UserIDHeader))
		if id == "" {
			respond.WriteError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "Missing user identity")
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, id)
		ctx = context.WithValue(ctx, userNameKey, strings.TrimSpace(r.Header.Get(UserNameHeader)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserID returns the identity stored by RequireUser.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

func userName(ctx context.Context) string {
	name, _ := ctx.Value(userNameKey).(string)
	return name
}
