package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/utafrali/ghstore/pkg/httputil"
	"github.com/utafrali/ghstore/pkg/logger"
)

// UserIDHeader identifies the shopper. It is set by the upstream gateway
// after authentication.
const UserIDHeader = "X-User-ID"

const maxUserIDLength = 128

// Identity copies the caller's user ID from UserIDHeader into the request
// context. Requests without the header pass through anonymously.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := strings.TrimSpace(r.Header.Get(UserIDHeader)); id != "" {
			r = r.WithContext(logger.WithUserID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser rejects requests that carry no usable user ID.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := UserIDFromContext(r.Context())
		if id == "" || len(id) > maxUserIDLength {
			httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
				Error: &httputil.ErrorResponse{
					Code:      "UNAUTHORIZED",
					Message:   "missing or invalid " + UserIDHeader + " header",
					RequestID: logger.CorrelationIDFromContext(r.Context()),
				},
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UserIDFromContext returns the user ID stored by Identity, or "".
func UserIDFromContext(ctx context.Context) string {
	return logger.UserIDFromContext(ctx)
}
