package manager_test

import (
	"context"
	"io"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/frahmantamala/crm/internal"
	"github.com/frahmantamala/crm/internal/core/database"
	managerDatamodel "github.com/frahmantamala/crm/internal/core/datamodel/manager"
	"github.com/frahmantamala/crm/internal/department"
	"github.com/frahmantamala/crm/internal/manager"
	managerPostgres "github.com/frahmantamala/crm/internal/manager/postgres"
	"github.com/frahmantamala/crm/pkg/pagination"
)

var _ = Describe("Manager Service", func() {
	var (
		ctx     context.Context
		db      *gorm.DB
		service *manager.Service
	)

	newManager := func(account string, departID int64) *manager.Manager {
		m, err := service.Create(ctx, manager.CreateManagerDTO{
			Account:  account,
			Password: "secret123",
			Name:     "Name " + account,
			Email:    account + "@example.com",
			DepartID: departID,
		})
		Expect(err).NotTo(HaveOccurred())
		return m
	}

	BeforeEach(func() {
		ctx = context.Background()
		db = openTestDB()
		service = manager.NewService(
			managerPostgres.NewManagerRepository(db),
			fakeHasher{},
			database.NewTransactionManager(db),
			slog.New(slog.NewTextHandler(io.Discard, nil)),
		)
	})

	AfterEach(func() {
		closeTestDB(db)
	})

	Describe("Create", func() {
		It("stores an enabled manager with a hashed password", func() {
			m := newManager("alice", 1)
			Expect(m.ID).To(BeNumerically(">", 0))
			Expect(m.Status).To(Equal(manager.StatusEnabled))

			var row managerDatamodel.Manager
			Expect(db.First(&row, m.ID).Error).To(Succeed())
			Expect(row.PasswordHash).To(Equal("hashed:secret123"))
		})

		It("rejects a duplicate account", func() {
			newManager("alice", 1)
			_, err := service.Create(ctx, manager.CreateManagerDTO{
				Account: "alice", Password: "secret123", Name: "Other", DepartID: 2,
			})
			Expect(err).To(MatchError(manager.ErrAccountExists))
		})

		It("rejects an unknown department", func() {
			_, err := service.Create(ctx, manager.CreateManagerDTO{
				Account: "bob", Password: "secret123", Name: "Bob", DepartID: 9,
			})
			Expect(err).To(MatchError(department.ErrDepartmentNotFound))
		})

		It("rejects a short password", func() {
			_, err := service.Create(ctx, manager.CreateManagerDTO{
				Account: "bob", Password: "abc", Name: "Bob", DepartID: 1,
			})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
		})
	})

	Describe("Update", func() {
		It("moves the manager to another department", func() {
			m := newManager("alice", 1)

			updated, err := service.Update(ctx, m.ID, manager.UpdateManagerDTO{Name: "Alice A", DepartID: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.DepartID).To(Equal(int64(2)))
			Expect(updated.DepartName).To(Equal("Finance"))
			Expect(updated.Name).To(Equal("Alice A"))
		})

		It("returns not found for a missing manager", func() {
			_, err := service.Update(ctx, 77, manager.UpdateManagerDTO{Name: "X", DepartID: 1})
			Expect(err).To(MatchError(manager.ErrManagerNotFound))
		})
	})

	Describe("ChangeStatus", func() {
		It("disables another manager", func() {
			admin := newManager("admin", 1)
			m := newManager("alice", 1)

			Expect(service.ChangeStatus(ctx, admin.ID, m.ID, manager.ChangeStatusDTO{Status: manager.StatusDisabled})).To(Succeed())

			reloaded, err := service.GetByID(ctx, m.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(reloaded.Enabled()).To(BeFalse())
		})

		It("refuses to let a manager disable themself", func() {
			m := newManager("alice", 1)
			err := service.ChangeStatus(ctx, m.ID, m.ID, manager.ChangeStatusDTO{Status: manager.StatusDisabled})
			Expect(err).To(MatchError(manager.ErrCannotDisableSelf))
		})

		It("rejects an unknown status", func() {
			m := newManager("alice", 1)
			err := service.ChangeStatus(ctx, 99, m.ID, manager.ChangeStatusDTO{Status: 5})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeValidationFailed))
		})
	})

	Describe("Page", func() {
		BeforeEach(func() {
			newManager("alice", 1)
			newManager("bob", 2)
			carol := newManager("carol", 2)
			Expect(service.ChangeStatus(ctx, 0, carol.ID, manager.ChangeStatusDTO{Status: manager.StatusDisabled})).To(Succeed())
		})

		It("filters by department and status", func() {
			enabled := manager.StatusEnabled
			page, err := service.Page(ctx, manager.PageQuery{DepartID: 2, Status: &enabled}, pagination.New(1, 10))
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Total).To(Equal(int64(1)))
			Expect(page.List[0].Account).To(Equal("bob"))
			Expect(page.List[0].DepartName).To(Equal("Finance"))
		})

		It("filters by name substring", func() {
			page, err := service.Page(ctx, manager.PageQuery{Name: "car"}, pagination.New(1, 10))
			Expect(err).NotTo(HaveOccurred())
			Expect(page.List).To(HaveLen(1))
		})

		It("rejects an invalid status filter", func() {
			bad := 7
			_, err := service.Page(ctx, manager.PageQuery{Status: &bad}, pagination.New(1, 10))
			Expect(err).To(MatchError(manager.ErrInvalidStatus))
		})
	})

	Describe("GrantPermissions", func() {
		It("replaces the permission set", func() {
			m := newManager("alice", 1)

			updated, err := service.GrantPermissions(ctx, m.ID, manager.GrantPermissionsDTO{Permissions: []string{"approve_contracts", "admin", "admin"}})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Permissions).To(Equal([]string{"admin", "approve_contracts"}))

			updated, err = service.GrantPermissions(ctx, m.ID, manager.GrantPermissionsDTO{Permissions: []string{}})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Permissions).To(BeEmpty())
		})

		It("rejects unknown permission names and keeps the old set", func() {
			m := newManager("alice", 1)
			_, err := service.GrantPermissions(ctx, m.ID, manager.GrantPermissionsDTO{Permissions: []string{"admin"}})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.GrantPermissions(ctx, m.ID, manager.GrantPermissionsDTO{Permissions: []string{"root"}})
			Expect(err).To(MatchError(manager.ErrUnknownPermission))

			me, err := service.Me(ctx, m.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(me.Permissions).To(Equal([]string{"admin"}))
		})
	})
})
