package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/crm/internal/auth"
	departmentDatamodel "github.com/frahmantamala/crm/internal/core/datamodel/department"
	managerDatamodel "github.com/frahmantamala/crm/internal/core/datamodel/manager"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetCredentials(ctx context.Context, account string) (*auth.Credentials, error) {
	var m managerDatamodel.Manager
	err := r.db.WithContext(ctx).Where("account = ?", account).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrAccountNotFound
		}
		return nil, err
	}

	creds := &auth.Credentials{
		ManagerID:    m.ID,
		Account:      m.Account,
		PasswordHash: m.PasswordHash,
		Name:         m.Name,
		Email:        m.Email,
		Status:       m.Status,
		DepartID:     m.DepartID,
	}
	if m.DepartID == 0 {
		return creds, nil
	}

	var d departmentDatamodel.Department
	err = r.db.WithContext(ctx).Where("id = ?", m.DepartID).First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return creds, nil
		}
		return nil, err
	}
	creds.HasDepartment = true
	creds.DepartName = d.Name
	creds.ParentIDs = d.ParentIDs
	return creds, nil
}

func (r *Repository) GetPermissions(ctx context.Context, managerID int64) ([]string, error) {
	var permissions []string
	err := r.db.WithContext(ctx).
		Table("permissions p").
		Joins("JOIN manager_permissions mp ON p.id = mp.permission_id").
		Where("mp.manager_id = ?", managerID).
		Order("p.name").
		Pluck("p.name", &permissions).Error
	if err != nil {
		return nil, err
	}
	return permissions, nil
}
