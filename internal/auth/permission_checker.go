package auth

import (
	"context"

	"github.com/frahmantamala/crm/internal/core/session"
)

type PermissionChecker interface {
	HasPermission(ctx context.Context, managerPermissions []string, permission string) (bool, error)
	CanApproveContracts(managerPermissions []string) bool
	CanManageProducts(managerPermissions []string) bool
	CanManageManagers(managerPermissions []string) bool
	CanManageDepartments(managerPermissions []string) bool
	IsAdmin(managerPermissions []string) bool
}

// DefaultPermissionChecker grants a permission when the manager holds it
// by name or holds admin.
type DefaultPermissionChecker struct{}

func NewPermissionChecker() *DefaultPermissionChecker {
	return &DefaultPermissionChecker{}
}

func (c *DefaultPermissionChecker) HasPermission(_ context.Context, managerPermissions []string, permission string) (bool, error) {
	return c.HasAnyPermission(managerPermissions, []string{permission, session.PermissionAdmin}), nil
}

func (c *DefaultPermissionChecker) CanApproveContracts(managerPermissions []string) bool {
	return c.HasAnyPermission(managerPermissions, []string{session.PermissionApproveContracts, session.PermissionAdmin})
}

func (c *DefaultPermissionChecker) CanManageProducts(managerPermissions []string) bool {
	return c.HasAnyPermission(managerPermissions, []string{session.PermissionManageProducts, session.PermissionAdmin})
}

func (c *DefaultPermissionChecker) CanManageManagers(managerPermissions []string) bool {
	return c.HasAnyPermission(managerPermissions, []string{session.PermissionManageManagers, session.PermissionAdmin})
}

func (c *DefaultPermissionChecker) CanManageDepartments(managerPermissions []string) bool {
	return c.HasAnyPermission(managerPermissions, []string{session.PermissionManageDepartments, session.PermissionAdmin})
}

func (c *DefaultPermissionChecker) HasAnyPermission(managerPermissions []string, requiredPermissions []string) bool {
	for _, held := range managerPermissions {
		for _, required := range requiredPermissions {
			if held == required {
				return true
			}
		}
	}
	return false
}

func (c *DefaultPermissionChecker) IsAdmin(managerPermissions []string) bool {
	return c.HasAnyPermission(managerPermissions, []string{session.PermissionAdmin})
}
