package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/crm/internal/core/database"
	contractDatamodel "github.com/frahmantamala/crm/internal/core/datamodel/contract"
	customerDatamodel "github.com/frahmantamala/crm/internal/core/datamodel/customer"
	"github.com/frahmantamala/crm/internal/customer"
	"github.com/frahmantamala/crm/pkg/pagination"
	"gorm.io/gorm"
)

type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) conn(ctx context.Context) *gorm.DB {
	return database.GetDB(ctx, r.db)
}

func (r *CustomerRepository) filtered(ctx context.Context, ownerID int64, q customer.PageQuery) *gorm.DB {
	query := r.conn(ctx).Model(&customerDatamodel.Customer{}).Where("owner_id = ?", ownerID)
	if q.Name != "" {
		query = query.Where("name LIKE ?", "%"+q.Name+"%")
	}
	if q.Phone != "" {
		query = query.Where("phone LIKE ?", "%"+q.Phone+"%")
	}
	if q.Level != nil {
		query = query.Where("level = ?", *q.Level)
	}
	return query
}

func (r *CustomerRepository) Page(ctx context.Context, ownerID int64, q customer.PageQuery, p pagination.Params) ([]*customer.Customer, int64, error) {
	query := r.filtered(ctx, ownerID, q)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []*customerDatamodel.Customer
	if err := query.Order("created_at DESC").Order("id DESC").Limit(p.Limit).Offset(p.Offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return fromRows(rows), total, nil
}

func (r *CustomerRepository) List(ctx context.Context, ownerID int64, q customer.PageQuery) ([]*customer.Customer, error) {
	var rows []*customerDatamodel.Customer
	if err := r.filtered(ctx, ownerID, q).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return fromRows(rows), nil
}

func (r *CustomerRepository) GetByID(ctx context.Context, id int64) (*customer.Customer, error) {
	var row customerDatamodel.Customer
	err := r.conn(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, customer.ErrCustomerNotFound
		}
		return nil, err
	}
	return customer.FromDataModel(&row), nil
}

func (r *CustomerRepository) ExistsByPhone(ctx context.Context, phone string, excludeID int64) (bool, error) {
	query := r.conn(ctx).Model(&customerDatamodel.Customer{}).Where("phone = ?", phone)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	row := customer.ToDataModel(c)
	if err := r.conn(ctx).Create(row).Error; err != nil {
		return err
	}
	c.ID = row.ID
	c.CreatedAt = row.CreatedAt
	c.UpdatedAt = row.UpdatedAt
	return nil
}

// Update writes the editable columns; owner and creator never change here.
func (r *CustomerRepository) Update(ctx context.Context, c *customer.Customer) error {
	now := time.Now()
	err := r.conn(ctx).Model(&customerDatamodel.Customer{}).
		Where("id = ?", c.ID).
		Updates(map[string]interface{}{
			"name":          c.Name,
			"phone":         c.Phone,
			"email":         c.Email,
			"level":         c.Level,
			"source":        c.Source,
			"address":       c.Address,
			"follow_status": c.FollowStatus,
			"updated_at":    now,
		}).Error
	if err != nil {
		return err
	}
	c.UpdatedAt = now
	return nil
}

func (r *CustomerRepository) Delete(ctx context.Context, id int64) error {
	return r.conn(ctx).Delete(&customerDatamodel.Customer{}, id).Error
}

func (r *CustomerRepository) HasContracts(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&contractDatamodel.Contract{}).Where("customer_id = ?", id).Count(&count).Error
	return count > 0, err
}

func fromRows(rows []*customerDatamodel.Customer) []*customer.Customer {
	result := make([]*customer.Customer, len(rows))
	for i, row := range rows {
		result[i] = customer.FromDataModel(row)
	}
	return result
}
