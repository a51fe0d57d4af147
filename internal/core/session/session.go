package session

import (
	"context"
	"time"

	"github.com/frahmantamala/crm/internal"
)

const (
	PermissionAdmin             = "admin"
	PermissionApproveContracts  = "approve_contracts"
	PermissionManageProducts    = "manage_products"
	PermissionManageManagers    = "manage_managers"
	PermissionManageDepartments = "manage_departments"
)

// Detail is what a login stores in the token store and what the auth
// middleware puts on the request context.
type Detail struct {
	ManagerID   int64     `json:"manager_id"`
	Account     string    `json:"account"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	DepartID    int64     `json:"depart_id"`
	DepartName  string    `json:"depart_name"`
	ParentIDs   string    `json:"parent_ids"`
	Permissions []string  `json:"permissions"`
	LoginAt     time.Time `json:"login_at"`
}

func (d *Detail) HasPermission(permission string) bool {
	for _, p := range d.Permissions {
		if p == permission || p == PermissionAdmin {
			return true
		}
	}
	return false
}

func (d *Detail) HasAnyPermission(permissions []string) bool {
	for _, p := range permissions {
		if d.HasPermission(p) {
			return true
		}
	}
	return false
}

func (d *Detail) IsAdmin() bool {
	for _, p := range d.Permissions {
		if p == PermissionAdmin {
			return true
		}
	}
	return false
}

type ctxKey struct{}

// WithDetail attaches the session detail and the manager id to ctx.
func WithDetail(ctx context.Context, d *Detail) context.Context {
	ctx = context.WithValue(ctx, ctxKey{}, d)
	return internal.ContextWithManagerID(ctx, d.ManagerID)
}

func FromContext(ctx context.Context) (*Detail, bool) {
	d, ok := ctx.Value(ctxKey{}).(*Detail)
	return d, ok && d != nil
}
