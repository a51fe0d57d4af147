package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/frahmantamala/crm/internal/contract"
	"github.com/frahmantamala/crm/internal/core/database"
	contractDatamodel "github.com/frahmantamala/crm/internal/core/datamodel/contract"
	customerDatamodel "github.com/frahmantamala/crm/internal/core/datamodel/customer"
	productDatamodel "github.com/frahmantamala/crm/internal/core/datamodel/product"
	"github.com/frahmantamala/crm/pkg/pagination"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ContractRepository implements contract.Repository using GORM
type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

func (r *ContractRepository) conn(ctx context.Context) *gorm.DB {
	return database.GetDB(ctx, r.db)
}

func (r *ContractRepository) Page(ctx context.Context, ownerID int64, q contract.PageQuery, p pagination.Params) ([]*contract.Contract, int64, error) {
	query := r.conn(ctx).Model(&contractDatamodel.Contract{}).Where("owner_id = ?", ownerID)
	if q.Name != "" {
		query = query.Where("name LIKE ?", "%"+q.Name+"%")
	}
	if q.CustomerID > 0 {
		query = query.Where("customer_id = ?", q.CustomerID)
	}
	if q.Status != nil {
		query = query.Where("status = ?", *q.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []*contractDatamodel.Contract
	err := query.Order("created_at DESC").Order("id DESC").
		Limit(p.Limit).
		Offset(p.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	result := make([]*contract.Contract, len(rows))
	ids := make([]int64, len(rows))
	customerIDs := make([]int64, 0, len(rows))
	for i, row := range rows {
		result[i] = contract.FromDataModel(row)
		ids[i] = row.ID
		customerIDs = append(customerIDs, row.CustomerID)
	}

	if err := r.attachDetails(ctx, result, ids, customerIDs); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *ContractRepository) attachDetails(ctx context.Context, list []*contract.Contract, ids, customerIDs []int64) error {
	if len(list) == 0 {
		return nil
	}

	var items []*contractDatamodel.ContractProduct
	if err := r.conn(ctx).Where("contract_id IN ?", ids).Order("id ASC").Find(&items).Error; err != nil {
		return err
	}
	byContract := make(map[int64][]contract.LineItem, len(ids))
	for _, item := range items {
		byContract[item.ContractID] = append(byContract[item.ContractID], contract.LineItemFromDataModel(item))
	}

	var customers []*customerDatamodel.Customer
	if err := r.conn(ctx).Unscoped().Select("id", "name").Where("id IN ?", customerIDs).Find(&customers).Error; err != nil {
		return err
	}
	names := make(map[int64]string, len(customers))
	for _, c := range customers {
		names[c.ID] = c.Name
	}

	for _, c := range list {
		if lines, ok := byContract[c.ID]; ok {
			c.Products = lines
		}
		c.CustomerName = names[c.CustomerID]
	}
	return nil
}

func (r *ContractRepository) GetByID(ctx context.Context, id int64) (*contract.Contract, error) {
	var row contractDatamodel.Contract
	err := r.conn(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, contract.ErrContractNotFound
		}
		return nil, err
	}

	c := contract.FromDataModel(&row)
	if err := r.attachDetails(ctx, []*contract.Contract{c}, []int64{c.ID}, []int64{c.CustomerID}); err != nil {
		return nil, err
	}
	return c, nil
}

// ExistsByName reports whether a non-deleted contract other than excludeID
// already uses name.
func (r *ContractRepository) ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error) {
	query := r.conn(ctx).Model(&contractDatamodel.Contract{}).Where("name = ?", name)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts the contract inside a savepoint so a number collision leaves
// the surrounding transaction usable. A duplicate number is reported as
// contract.ErrContractNumberTaken.
func (r *ContractRepository) Create(ctx context.Context, c *contract.Contract) error {
	row := contract.ToDataModel(c)
	err := r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(row).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return contract.ErrContractNumberTaken
		}
		return err
	}
	c.ID = row.ID
	c.CreatedAt = row.CreatedAt
	c.UpdatedAt = row.UpdatedAt
	return nil
}

// Update writes the editable columns. Number, status and creator are left
// untouched.
func (r *ContractRepository) Update(ctx context.Context, c *contract.Contract) error {
	now := time.Now()
	err := r.conn(ctx).Model(&contractDatamodel.Contract{}).
		Where("id = ?", c.ID).
		Updates(map[string]interface{}{
			"name":            c.Name,
			"customer_id":     c.CustomerID,
			"amount":          c.Amount,
			"received_amount": c.ReceivedAmount,
			"sign_time":       c.SignTime,
			"start_time":      c.StartTime,
			"end_time":        c.EndTime,
			"remark":          c.Remark,
			"updated_at":      now,
		}).Error
	if err != nil {
		return err
	}
	c.UpdatedAt = now
	return nil
}

// UpdateStatus moves the contract from one status to another. It reports
// false when the row was not in the expected status.
func (r *ContractRepository) UpdateStatus(ctx context.Context, id int64, from, to contract.Status) (bool, error) {
	result := r.conn(ctx).Model(&contractDatamodel.Contract{}).
		Where("id = ? AND status = ?", id, int(from)).
		Updates(map[string]interface{}{
			"status":     int(to),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *ContractRepository) Delete(ctx context.Context, id int64) error {
	return r.conn(ctx).Delete(&contractDatamodel.Contract{}, id).Error
}

func (r *ContractRepository) ReplaceLineItems(ctx context.Context, contractID int64, items []contract.LineItem) error {
	db := r.conn(ctx)
	if err := db.Where("contract_id = ?", contractID).Delete(&contractDatamodel.ContractProduct{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	rows := make([]*contractDatamodel.ContractProduct, len(items))
	for i, item := range items {
		rows[i] = contract.LineItemToDataModel(contractID, item)
	}
	return db.Create(&rows).Error
}

func (r *ContractRepository) CreateApproval(ctx context.Context, a *contract.Approval) error {
	row := contract.ApprovalToDataModel(a)
	if err := r.conn(ctx).Create(row).Error; err != nil {
		return err
	}
	a.ID = row.ID
	a.CreatedAt = row.CreatedAt
	return nil
}

func (r *ContractRepository) ListApprovals(ctx context.Context, contractID int64) ([]*contract.Approval, error) {
	var rows []*contractDatamodel.Approval
	err := r.conn(ctx).Where("contract_id = ?", contractID).
		Order("created_at DESC").Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make([]*contract.Approval, len(rows))
	for i, row := range rows {
		result[i] = contract.ApprovalFromDataModel(row)
	}
	return result, nil
}

func (r *ContractRepository) FindProducts(ctx context.Context, ids []int64) (map[int64]contract.ProductRef, error) {
	var rows []*productDatamodel.Product
	if err := r.conn(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make(map[int64]contract.ProductRef, len(rows))
	for _, row := range rows {
		result[row.ID] = contract.ProductRef{ID: row.ID, Name: row.Name, Price: row.Price}
	}
	return result, nil
}

func (r *ContractRepository) CustomerExists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&customerDatamodel.Customer{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
