package middleware

import (
	"net/http"

	"github.com/frahmantamala/crm/internal/core/session"
	"github.com/frahmantamala/crm/pkg/logger"
)

// SessionContext enriches the request logger with the authenticated
// manager's account and department. It must run after the auth middleware.
func SessionContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		detail, ok := session.FromContext(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		ctx := logger.With(r.Context(), "account", detail.Account, "depart_id", detail.DepartID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
