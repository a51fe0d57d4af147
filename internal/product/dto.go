package product

import (
	"strings"

	"github.com/frahmantamala/crm/internal"
	"github.com/frahmantamala/crm/internal/core/common/validation"
	"github.com/shopspring/decimal"
)

// SaveProductDTO creates a product when ID is zero and edits it otherwise.
type SaveProductDTO struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Status      int             `json:"status"`
	Description string          `json:"description"`
}

func (dto *SaveProductDTO) Normalize() {
	dto.Name = strings.TrimSpace(dto.Name)
	dto.Description = strings.TrimSpace(dto.Description)
}

func (dto SaveProductDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", dto.Name).Required().MaxLength(100)
	v.Field("price", dto.Price).NonNegative(internal.ErrCodeInvalidAmount)
	v.Field("stock", dto.Stock).MinInt(0, internal.ErrCodeValidationFailed)
	v.Field("status", dto.Status).OneOf(internal.ErrCodeInvalidStatus, StatusOffShelf, StatusOnShelf)
	v.Field("description", dto.Description).MaxLength(1024)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type BatchStatusDTO struct {
	IDs    []int64 `json:"ids"`
	Status int     `json:"status"`
}

func (dto BatchStatusDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("ids", dto.IDs).Required()
	v.Field("status", dto.Status).OneOf(internal.ErrCodeInvalidStatus, StatusOffShelf, StatusOnShelf)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type PageQuery struct {
	Name   string
	Status *int
}
