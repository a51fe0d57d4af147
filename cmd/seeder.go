package cmd

import (
	"errors"
	"fmt"
	"log"

	"github.com/frahmantamala/crm/internal/auth"
	departmentdm "github.com/frahmantamala/crm/internal/core/datamodel/department"
	managerdm "github.com/frahmantamala/crm/internal/core/datamodel/manager"
	"github.com/frahmantamala/crm/internal/core/session"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with permissions, a head office department and login accounts for development.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		gdb, err := initGorm(db, cfg.Env)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		hash, err := auth.NewBcryptHasher(cfg.Security.BCryptCost).HashPassword("password")
		if err != nil {
			log.Fatalf("failed to hash password: %v", err)
		}

		if err := gdb.Transaction(func(tx *gorm.DB) error {
			if clearData {
				if err := clearSeedData(tx); err != nil {
					return err
				}
			}
			return seed(tx, hash)
		}); err != nil {
			log.Fatalf("seeding failed: %v", err)
		}

		fmt.Println("Seeding completed")
	},
}

var seedPermissions = []managerdm.Permission{
	{Name: session.PermissionAdmin, Description: "full administrator"},
	{Name: session.PermissionApproveContracts, Description: "Can approve or reject contracts"},
	{Name: session.PermissionManageProducts, Description: "Can create, edit and shelve products"},
	{Name: session.PermissionManageManagers, Description: "Can create and disable manager accounts"},
	{Name: session.PermissionManageDepartments, Description: "Can edit the department tree"},
}

type seedAccount struct {
	Account     string
	Name        string
	Email       string
	Department  string
	Permissions []string
}

var seedAccounts = []seedAccount{
	{Account: "admin", Name: "Administrator", Email: "admin@crm.local", Department: "Head Office", Permissions: []string{session.PermissionAdmin}},
	{Account: "reviewer", Name: "Contract Reviewer", Email: "reviewer@crm.local", Department: "Head Office", Permissions: []string{session.PermissionApproveContracts}},
	{Account: "sales", Name: "Sales Rep", Email: "sales@crm.local", Department: "Sales"},
}

func clearSeedData(tx *gorm.DB) error {
	for _, table := range []string{"approvals", "contract_products", "contracts", "customers", "products", "manager_permissions", "managers", "permissions", "departments"} {
		if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	fmt.Println("Cleared existing data")
	return nil
}

func seed(tx *gorm.DB, hash string) error {
	permIDs := make(map[string]int64, len(seedPermissions))
	for _, p := range seedPermissions {
		perm := p
		if err := tx.Where(managerdm.Permission{Name: p.Name}).FirstOrCreate(&perm).Error; err != nil {
			return fmt.Errorf("seed permission %s: %w", p.Name, err)
		}
		permIDs[perm.Name] = perm.ID
	}

	head, err := ensureDepartment(tx, "Head Office", nil)
	if err != nil {
		return err
	}
	sales, err := ensureDepartment(tx, "Sales", head)
	if err != nil {
		return err
	}
	departs := map[string]int64{head.Name: head.ID, sales.Name: sales.ID}

	for _, a := range seedAccounts {
		var m managerdm.Manager
		err := tx.Where("account = ?", a.Account).First(&m).Error
		switch {
		case err == nil:
			fmt.Println("account already exists; will ensure permissions:", a.Account)
		case errors.Is(err, gorm.ErrRecordNotFound):
			m = managerdm.Manager{
				Account:      a.Account,
				PasswordHash: hash,
				Name:         a.Name,
				Email:        a.Email,
				Status:       1,
				DepartID:     departs[a.Department],
			}
			if err := tx.Create(&m).Error; err != nil {
				return fmt.Errorf("seed account %s: %w", a.Account, err)
			}
			fmt.Println("Seeded account:", a.Account)
		default:
			return err
		}

		for _, name := range a.Permissions {
			grant := managerdm.ManagerPermission{ManagerID: m.ID, PermissionID: permIDs[name]}
			if err := tx.Where(grant).FirstOrCreate(&grant).Error; err != nil {
				return fmt.Errorf("grant %s to %s: %w", name, a.Account, err)
			}
		}
	}
	return nil
}

func ensureDepartment(tx *gorm.DB, name string, parent *departmentdm.Department) (*departmentdm.Department, error) {
	var d departmentdm.Department
	err := tx.Where("name = ?", name).First(&d).Error
	if err == nil {
		return &d, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	d = departmentdm.Department{Name: name, ParentIDs: "0"}
	if parent != nil {
		d.ParentID = parent.ID
		d.ParentIDs = fmt.Sprintf("%s,%d", parent.ParentIDs, parent.ID)
	}
	if err := tx.Create(&d).Error; err != nil {
		return nil, fmt.Errorf("seed department %s: %w", name, err)
	}
	fmt.Println("Seeded department:", name)
	return &d, nil
}
