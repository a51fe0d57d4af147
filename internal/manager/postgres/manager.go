package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/crm/internal/core/database"
	departmentDatamodel "github.com/frahmantamala/crm/internal/core/datamodel/department"
	managerDatamodel "github.com/frahmantamala/crm/internal/core/datamodel/manager"
	"github.com/frahmantamala/crm/internal/manager"
	"github.com/frahmantamala/crm/pkg/pagination"
	"gorm.io/gorm"
)

type ManagerRepository struct {
	db *gorm.DB
}

func NewManagerRepository(db *gorm.DB) *ManagerRepository {
	return &ManagerRepository{db: db}
}

func (r *ManagerRepository) conn(ctx context.Context) *gorm.DB {
	return database.GetDB(ctx, r.db)
}

func (r *ManagerRepository) Page(ctx context.Context, q manager.PageQuery, p pagination.Params) ([]*manager.Manager, int64, error) {
	query := r.conn(ctx).Model(&managerDatamodel.Manager{})
	if q.Name != "" {
		query = query.Where("name LIKE ?", "%"+q.Name+"%")
	}
	if q.DepartID > 0 {
		query = query.Where("depart_id = ?", q.DepartID)
	}
	if q.Status != nil {
		query = query.Where("status = ?", *q.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []*managerDatamodel.Manager
	if err := query.Order("id DESC").Limit(p.Limit).Offset(p.Offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	result := make([]*manager.Manager, len(rows))
	departIDs := make([]int64, 0, len(rows))
	for i, row := range rows {
		result[i] = manager.FromDataModel(row)
		departIDs = append(departIDs, row.DepartID)
	}
	if err := r.attachDepartments(ctx, result, departIDs); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *ManagerRepository) attachDepartments(ctx context.Context, list []*manager.Manager, departIDs []int64) error {
	if len(list) == 0 {
		return nil
	}
	var departs []*departmentDatamodel.Department
	if err := r.conn(ctx).Unscoped().Select("id", "name").Where("id IN ?", departIDs).Find(&departs).Error; err != nil {
		return err
	}
	names := make(map[int64]string, len(departs))
	for _, d := range departs {
		names[d.ID] = d.Name
	}
	for _, m := range list {
		m.DepartName = names[m.DepartID]
	}
	return nil
}

func (r *ManagerRepository) GetByID(ctx context.Context, id int64) (*manager.Manager, error) {
	var row managerDatamodel.Manager
	err := r.conn(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, manager.ErrManagerNotFound
		}
		return nil, err
	}

	m := manager.FromDataModel(&row)
	if err := r.attachDepartments(ctx, []*manager.Manager{m}, []int64{m.DepartID}); err != nil {
		return nil, err
	}

	var permissions []string
	err = r.conn(ctx).
		Table("permissions p").
		Joins("JOIN manager_permissions mp ON p.id = mp.permission_id").
		Where("mp.manager_id = ?", id).
		Order("p.name").
		Pluck("p.name", &permissions).Error
	if err != nil {
		return nil, err
	}
	m.Permissions = permissions
	return m, nil
}

func (r *ManagerRepository) ExistsByAccount(ctx context.Context, account string) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&managerDatamodel.Manager{}).Where("account = ?", account).Count(&count).Error
	return count > 0, err
}

func (r *ManagerRepository) DepartmentExists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&departmentDatamodel.Department{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *ManagerRepository) Create(ctx context.Context, m *manager.Manager, passwordHash string) error {
	row := manager.ToDataModel(m, passwordHash)
	if err := r.conn(ctx).Create(row).Error; err != nil {
		return err
	}
	m.ID = row.ID
	m.CreatedAt = row.CreatedAt
	m.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *ManagerRepository) Update(ctx context.Context, m *manager.Manager) error {
	now := time.Now()
	err := r.conn(ctx).Model(&managerDatamodel.Manager{}).
		Where("id = ?", m.ID).
		Updates(map[string]interface{}{
			"name":       m.Name,
			"email":      m.Email,
			"phone":      m.Phone,
			"depart_id":  m.DepartID,
			"updated_at": now,
		}).Error
	if err != nil {
		return err
	}
	m.UpdatedAt = now
	return nil
}

func (r *ManagerRepository) UpdateStatus(ctx context.Context, id int64, status int) error {
	return r.conn(ctx).Model(&managerDatamodel.Manager{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

// ReplacePermissions swaps the grant set. Every name must already exist in
// the permissions table.
func (r *ManagerRepository) ReplacePermissions(ctx context.Context, id int64, names []string) error {
	db := r.conn(ctx)

	var perms []*managerDatamodel.Permission
	if len(names) > 0 {
		if err := db.Where("name IN ?", names).Find(&perms).Error; err != nil {
			return err
		}
		if len(perms) != len(names) {
			return manager.ErrUnknownPermission
		}
	}

	if err := db.Where("manager_id = ?", id).Delete(&managerDatamodel.ManagerPermission{}).Error; err != nil {
		return err
	}
	if len(perms) == 0 {
		return nil
	}

	grants := make([]*managerDatamodel.ManagerPermission, len(perms))
	for i, p := range perms {
		grants[i] = &managerDatamodel.ManagerPermission{ManagerID: id, PermissionID: p.ID}
	}
	return db.Create(&grants).Error
}
