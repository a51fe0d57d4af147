package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/crm/internal/core/database"
	productDatamodel "github.com/frahmantamala/crm/internal/core/datamodel/product"
	"github.com/frahmantamala/crm/internal/product"
	"github.com/frahmantamala/crm/pkg/pagination"
	"gorm.io/gorm"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) conn(ctx context.Context) *gorm.DB {
	return database.GetDB(ctx, r.db)
}

func (r *ProductRepository) Page(ctx context.Context, q product.PageQuery, p pagination.Params) ([]*product.Product, int64, error) {
	query := r.conn(ctx).Model(&productDatamodel.Product{})
	if q.Name != "" {
		query = query.Where("name LIKE ?", "%"+q.Name+"%")
	}
	if q.Status != nil {
		query = query.Where("status = ?", *q.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []*productDatamodel.Product
	if err := query.Order("created_at DESC").Order("id DESC").Limit(p.Limit).Offset(p.Offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	result := make([]*product.Product, len(rows))
	for i, row := range rows {
		result[i] = product.FromDataModel(row)
	}
	return result, total, nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	var row productDatamodel.Product
	err := r.conn(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, product.ErrProductNotFound
		}
		return nil, err
	}
	return product.FromDataModel(&row), nil
}

func (r *ProductRepository) ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error) {
	query := r.conn(ctx).Model(&productDatamodel.Product{}).Where("name = ?", name)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	row := product.ToDataModel(p)
	if err := r.conn(ctx).Create(row).Error; err != nil {
		return err
	}
	p.ID = row.ID
	p.CreatedAt = row.CreatedAt
	p.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	now := time.Now()
	err := r.conn(ctx).Model(&productDatamodel.Product{}).
		Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"name":        p.Name,
			"price":       p.Price,
			"stock":       p.Stock,
			"status":      p.Status,
			"description": p.Description,
			"updated_at":  now,
		}).Error
	if err != nil {
		return err
	}
	p.UpdatedAt = now
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	return r.conn(ctx).Delete(&productDatamodel.Product{}, id).Error
}

func (r *ProductRepository) UpdateStatus(ctx context.Context, ids []int64, status int) (int64, error) {
	result := r.conn(ctx).Model(&productDatamodel.Product{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}
