package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/hotelops/hotelscore/internal/domain"
)

// UserHeader carries the authenticated user id, set by the upstream gateway.
const UserHeader = "X-User-ID"

type sessionKey struct{}

// requireSession builds a domain.Session from UserHeader or answers 401.
func requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(UserHeader))
		if userID == "" {
			writeError(w, http.StatusUnauthorized, domain.ErrNoSession.Error())
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, domain.Session{UserID: userID})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionFrom returns the session stored by requireSession.
func sessionFrom(ctx context.Context) domain.Session {
	sess, _ := ctx.Value(sessionKey{}).(domain.Session)
	return sess
}
