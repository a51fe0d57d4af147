package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/crm/internal/auth"
	"github.com/frahmantamala/crm/internal/contract"
	"github.com/frahmantamala/crm/internal/core/session"
	"github.com/frahmantamala/crm/internal/customer"
	"github.com/frahmantamala/crm/internal/department"
	"github.com/frahmantamala/crm/internal/manager"
	"github.com/frahmantamala/crm/internal/product"
	"github.com/frahmantamala/crm/internal/transport/middleware"
	"github.com/frahmantamala/crm/internal/transport/swagger"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

// Handlers groups everything the API router mounts. A nil handler skips its
// routes, which keeps partial wiring usable in tests.
type Handlers struct {
	Auth       *auth.Handler
	RBAC       *auth.RBACAuthorization
	Department *department.Handler
	Manager    *manager.Handler
	Customer   *customer.Handler
	Product    *product.Handler
	Contract   *contract.Handler
	Health     *HealthHandler
}

type RouterConfig struct {
	AllowedOrigins string
	OpenAPIPath    string
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, cfg RouterConfig, logger *slog.Logger) {
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	if cfg.OpenAPIPath != "" {
		router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, cfg.OpenAPIPath)
		})
		router.Handle("/swagger/*", swagger.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		if h.Health != nil {
			r.Get("/health", h.Health.healthCheckHandler)
			r.Get("/ping", h.Health.pingHandler)
		}

		if h.Auth == nil {
			return
		}

		r.Route("/auth", func(ar chi.Router) {
			ar.Post("/login", h.Auth.Login)
			ar.Post("/logout", h.Auth.Logout)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)
			pr.Use(middleware.SessionContext)

			if h.Department != nil {
				registerDepartmentRoutes(pr, h)
			}
			if h.Manager != nil {
				registerManagerRoutes(pr, h, logger)
			}
			if h.Customer != nil {
				registerCustomerRoutes(pr, h)
			}
			if h.Product != nil {
				registerProductRoutes(pr, h)
			}
			if h.Contract != nil {
				registerContractRoutes(pr, h)
			}
		})
	})
}

func registerDepartmentRoutes(r chi.Router, h Handlers) {
	r.Route("/departments", func(dr chi.Router) {
		dr.Get("/", h.Department.GetTree)
		dr.Get("/info", h.Department.GetInfo)
		dr.Get("/{id}", h.Department.GetDepartment)

		dr.Group(func(mr chi.Router) {
			mr.Use(h.RBAC.RequirePermission(session.PermissionManageDepartments))
			mr.Post("/", h.Department.CreateDepartment)
			mr.Put("/{id}", h.Department.UpdateDepartment)
			mr.Delete("/{id}", h.Department.DeleteDepartment)
		})
	})
}

func registerManagerRoutes(r chi.Router, h Handlers, logger *slog.Logger) {
	r.Route("/managers", func(mr chi.Router) {
		mr.Get("/me", h.Manager.Me)

		// department admins need to see who sits where
		mr.Group(func(vr chi.Router) {
			vr.Use(middleware.RequireAnyPermission(logger, session.PermissionManageManagers, session.PermissionManageDepartments))
			vr.Get("/", h.Manager.ListManagers)
			vr.Get("/{id}", h.Manager.GetManager)
		})

		mr.Group(func(wr chi.Router) {
			wr.Use(h.RBAC.RequirePermission(session.PermissionManageManagers))
			wr.Post("/", h.Manager.CreateManager)
			wr.Put("/{id}", h.Manager.UpdateManager)
			wr.Put("/{id}/status", h.Manager.ChangeStatus)
		})

		mr.With(h.RBAC.RequireAdmin()).Put("/{id}/permissions", h.Manager.GrantPermissions)
	})
}

func registerCustomerRoutes(r chi.Router, h Handlers) {
	r.Route("/customers", func(cr chi.Router) {
		cr.Get("/", h.Customer.ListCustomers)
		cr.Post("/", h.Customer.SaveCustomer)
		cr.Get("/export", h.Customer.ExportCustomers)
		cr.Get("/{id}", h.Customer.GetCustomer)
		cr.Put("/{id}", h.Customer.SaveCustomer)
		cr.Delete("/{id}", h.Customer.DeleteCustomer)
	})
}

func registerProductRoutes(r chi.Router, h Handlers) {
	r.Route("/products", func(pr chi.Router) {
		pr.Get("/", h.Product.ListProducts)
		pr.Get("/{id}", h.Product.GetProduct)

		pr.Group(func(mr chi.Router) {
			mr.Use(h.RBAC.RequirePermission(session.PermissionManageProducts))
			mr.Post("/", h.Product.SaveProduct)
			mr.Put("/status", h.Product.BatchUpdateStatus)
			mr.Put("/{id}", h.Product.SaveProduct)
			mr.Delete("/{id}", h.Product.DeleteProduct)
		})
	})
}

func registerContractRoutes(r chi.Router, h Handlers) {
	r.Route("/contracts", func(cr chi.Router) {
		cr.Get("/", h.Contract.ListContracts)
		cr.Post("/", h.Contract.SaveContract)
		cr.Get("/stats/status", h.Contract.StatusStats)
		cr.Get("/stats/today-approvals", h.Contract.TodayApprovals)
		cr.Get("/{id}", h.Contract.GetContract)
		cr.Put("/{id}", h.Contract.SaveContract)
		cr.Delete("/{id}", h.Contract.DeleteContract)
		cr.Post("/{id}/start-approval", h.Contract.StartApproval)
		cr.Get("/{id}/approvals", h.Contract.ListApprovals)

		cr.With(h.RBAC.RequireApproveContracts()).Post("/{id}/approval", h.Contract.ApproveContract)
	})
}
