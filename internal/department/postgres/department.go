package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/crm/internal/core/database"
	departmentDatamodel "github.com/frahmantamala/crm/internal/core/datamodel/department"
	managerDatamodel "github.com/frahmantamala/crm/internal/core/datamodel/manager"
	"github.com/frahmantamala/crm/internal/department"
	"gorm.io/gorm"
)

type DepartmentRepository struct {
	db *gorm.DB
}

func NewDepartmentRepository(db *gorm.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

func (r *DepartmentRepository) conn(ctx context.Context) *gorm.DB {
	return database.GetDB(ctx, r.db)
}

func (r *DepartmentRepository) GetByID(ctx context.Context, id int64) (*department.Department, error) {
	var row departmentDatamodel.Department
	err := r.conn(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, department.ErrDepartmentNotFound
		}
		return nil, err
	}
	return department.FromDataModel(&row), nil
}

func (r *DepartmentRepository) List(ctx context.Context) ([]*department.Department, error) {
	var rows []*departmentDatamodel.Department
	if err := r.conn(ctx).Order("sort ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return fromRows(rows), nil
}

// Descendants matches the chain prefix, so every level below d is returned.
func (r *DepartmentRepository) Descendants(ctx context.Context, d *department.Department) ([]*department.Department, error) {
	chain := d.ChildChain()
	var rows []*departmentDatamodel.Department
	err := r.conn(ctx).
		Where("parent_ids = ? OR parent_ids LIKE ?", chain, chain+",%").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return fromRows(rows), nil
}

func (r *DepartmentRepository) Create(ctx context.Context, d *department.Department) error {
	row := department.ToDataModel(d)
	if err := r.conn(ctx).Create(row).Error; err != nil {
		return err
	}
	d.ID = row.ID
	d.CreatedAt = row.CreatedAt
	d.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *DepartmentRepository) Update(ctx context.Context, d *department.Department) error {
	now := time.Now()
	err := r.conn(ctx).Model(&departmentDatamodel.Department{}).
		Where("id = ?", d.ID).
		Updates(map[string]interface{}{
			"name":       d.Name,
			"parent_id":  d.ParentID,
			"parent_ids": d.ParentIDs,
			"sort":       d.Sort,
			"updated_at": now,
		}).Error
	if err != nil {
		return err
	}
	d.UpdatedAt = now
	return nil
}

func (r *DepartmentRepository) UpdateChain(ctx context.Context, id int64, parentIDs string) error {
	return r.conn(ctx).Model(&departmentDatamodel.Department{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"parent_ids": parentIDs,
			"updated_at": time.Now(),
		}).Error
}

func (r *DepartmentRepository) Delete(ctx context.Context, id int64) error {
	return r.conn(ctx).Delete(&departmentDatamodel.Department{}, id).Error
}

func (r *DepartmentRepository) CountChildren(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&departmentDatamodel.Department{}).Where("parent_id = ?", id).Count(&count).Error
	return count, err
}

func (r *DepartmentRepository) CountManagers(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&managerDatamodel.Manager{}).Where("depart_id = ?", id).Count(&count).Error
	return count, err
}

func fromRows(rows []*departmentDatamodel.Department) []*department.Department {
	result := make([]*department.Department, len(rows))
	for i, row := range rows {
		result[i] = department.FromDataModel(row)
	}
	return result
}
