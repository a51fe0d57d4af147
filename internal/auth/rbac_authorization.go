package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/crm/internal"
	"github.com/frahmantamala/crm/internal/core/session"
	"github.com/frahmantamala/crm/internal/transport"
)

type PermissionAuthorizer interface {
	HasPermission(ctx context.Context, managerPermissions []string, permission string) (bool, error)
}

type RBACAuthorization struct {
	*transport.BaseHandler
	authorizer PermissionAuthorizer
}

func NewRBACAuthorization(authorizer PermissionAuthorizer, logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{
		BaseHandler: transport.NewBaseHandler(logger),
		authorizer:  authorizer,
	}
}

func (ra *RBACAuthorization) Check(next http.HandlerFunc, permission string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		detail, ok := session.FromContext(r.Context())
		if !ok {
			ra.Logger.Warn("authorization check failed: manager not found in context")
			ra.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		hasAccess, err := ra.authorizer.HasPermission(r.Context(), detail.Permissions, permission)
		if err != nil {
			ra.Logger.ErrorContext(r.Context(), "authorization check failed", "error", err, "manager_id", detail.ManagerID, "permission", permission)
			ra.HandleServiceError(w, err)
			return
		}

		if !hasAccess {
			ra.Logger.WarnContext(r.Context(), "access denied: insufficient permissions",
				"manager_id", detail.ManagerID,
				"required_permission", permission,
				"manager_permissions", detail.Permissions)
			ra.HandleServiceError(w, internal.ErrUnauthorizedAccess)
			return
		}

		next.ServeHTTP(w, r)
	}
}

// RequirePermission is the chi middleware form of Check.
func (ra *RBACAuthorization) RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return ra.Check(next.ServeHTTP, permission)
	}
}

func (ra *RBACAuthorization) RequireApproveContracts() func(http.Handler) http.Handler {
	return ra.RequirePermission(session.PermissionApproveContracts)
}

func (ra *RBACAuthorization) RequireAdmin() func(http.Handler) http.Handler {
	return ra.RequirePermission(session.PermissionAdmin)
}
