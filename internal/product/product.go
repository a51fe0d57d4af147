package product

import (
	"time"

	"github.com/frahmantamala/crm/internal"
	productDatamodel "github.com/frahmantamala/crm/internal/core/datamodel/product"
	"github.com/shopspring/decimal"
)

const (
	StatusOffShelf = 0
	StatusOnShelf  = 1
)

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Status      int             `json:"status"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func ValidStatus(status int) bool {
	return status == StatusOffShelf || status == StatusOnShelf
}

var (
	ErrProductNotFound = internal.NewNotFoundError("product not found", internal.ErrCodeProductNotFound)
	ErrNameExists      = internal.NewConflictError("product name already exists", internal.ErrCodeProductNameExists)
	ErrInvalidStatus   = internal.NewValidationError("invalid product status", internal.ErrCodeInvalidStatus)
)

func ToDataModel(p *Product) *productDatamodel.Product {
	return &productDatamodel.Product{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Stock:       p.Stock,
		Status:      p.Status,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func FromDataModel(m *productDatamodel.Product) *Product {
	return &Product{
		ID:          m.ID,
		Name:        m.Name,
		Price:       m.Price,
		Stock:       m.Stock,
		Status:      m.Status,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
