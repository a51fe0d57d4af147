package product

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID          int64           `gorm:"primaryKey"`
	Name        string          `gorm:"column:name;not null;index"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null;default:0"`
	Stock       int             `gorm:"column:stock;not null;default:0"`
	Status      int             `gorm:"column:status;not null;default:0"`
	Description string          `gorm:"column:description"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt   gorm.DeletedAt  `gorm:"column:deleted_at;index"`
}

func (Product) TableName() string {
	return "products"
}
