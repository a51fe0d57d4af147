package middleware

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/crm/internal"
	"github.com/frahmantamala/crm/internal/core/session"
	"github.com/frahmantamala/crm/internal/transport"
)

// RequireAnyPermission admits managers holding at least one of permissions.
// Admins always pass.
func RequireAnyPermission(logger *slog.Logger, permissions ...string) func(http.Handler) http.Handler {
	base := transport.NewBaseHandler(logger)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			detail, ok := session.FromContext(r.Context())
			if !ok {
				base.WriteError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			if !detail.HasAnyPermission(permissions) {
				base.Logger.Warn("access denied: manager lacks required permissions",
					"manager_id", detail.ManagerID,
					"required_permissions", permissions,
					"manager_permissions", detail.Permissions)
				base.HandleServiceError(w, internal.ErrUnauthorizedAccess)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
