package contract

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Contract struct {
	ID             int64           `gorm:"primaryKey"`
	Number         string          `gorm:"column:number;not null;uniqueIndex"`
	Name           string          `gorm:"column:name;not null;index"`
	CustomerID     int64           `gorm:"column:customer_id;not null;index"`
	Amount         decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null;default:0"`
	ReceivedAmount decimal.Decimal `gorm:"column:received_amount;type:numeric(12,2);not null;default:0"`
	Status         int             `gorm:"column:status;not null;default:0;index"`
	SignTime       *time.Time      `gorm:"column:sign_time"`
	StartTime      *time.Time      `gorm:"column:start_time"`
	EndTime        *time.Time      `gorm:"column:end_time"`
	Remark         string          `gorm:"column:remark"`
	OwnerID        int64           `gorm:"column:owner_id;not null;index"`
	CreaterID      int64           `gorm:"column:creater_id;not null"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt      gorm.DeletedAt  `gorm:"column:deleted_at;index"`
}

func (Contract) TableName() string {
	return "contracts"
}

// ContractProduct is one line item of a contract.
type ContractProduct struct {
	ID          int64           `gorm:"primaryKey"`
	ContractID  int64           `gorm:"column:contract_id;not null;index"`
	ProductID   int64           `gorm:"column:product_id;not null"`
	ProductName string          `gorm:"column:product_name;not null"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Count       int             `gorm:"column:count;not null"`
	TotalPrice  decimal.Decimal `gorm:"column:total_price;type:numeric(12,2);not null"`
}

func (ContractProduct) TableName() string {
	return "contract_products"
}

// Approval is the audit record of one review decision.
type Approval struct {
	ID         int64     `gorm:"primaryKey"`
	ContractID int64     `gorm:"column:contract_id;not null;index"`
	Status     int       `gorm:"column:status;not null"`
	Comment    string    `gorm:"column:comment;not null"`
	CreaterID  int64     `gorm:"column:creater_id;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Approval) TableName() string {
	return "approvals"
}
