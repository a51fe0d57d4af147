package contract

import (
	"strings"
	"time"

	"github.com/frahmantamala/crm/internal"
	"github.com/frahmantamala/crm/internal/core/common/validation"
	"github.com/shopspring/decimal"
)

// SaveContractDTO creates a contract when ID is zero and updates it otherwise.
// A nil ReceivedAmount means zero on create and leaves the stored value on update.
type SaveContractDTO struct {
	ID             int64            `json:"id"`
	Name           string           `json:"name"`
	CustomerID     int64            `json:"customer_id"`
	Amount         decimal.Decimal  `json:"amount"`
	ReceivedAmount *decimal.Decimal `json:"received_amount,omitempty"`
	SignTime       *time.Time       `json:"sign_time,omitempty"`
	StartTime      *time.Time       `json:"start_time,omitempty"`
	EndTime        *time.Time       `json:"end_time,omitempty"`
	Remark         string           `json:"remark"`
	Products       []LineItemDTO    `json:"products"`
}

// LineItemDTO references a catalog product. A nil price takes the catalog price.
type LineItemDTO struct {
	ProductID int64            `json:"product_id"`
	Count     int              `json:"count"`
	Price     *decimal.Decimal `json:"price,omitempty"`
}

func (dto *SaveContractDTO) Normalize() {
	dto.Name = strings.TrimSpace(dto.Name)
	dto.Remark = strings.TrimSpace(dto.Remark)
}

func (dto SaveContractDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", dto.Name).Required().MaxLength(128)
	v.Field("customer_id", dto.CustomerID).Required()
	v.Field("amount", dto.Amount).NonNegative(internal.ErrCodeInvalidAmount)
	if dto.ReceivedAmount != nil {
		v.Field("received_amount", *dto.ReceivedAmount).NonNegative(internal.ErrCodeInvalidAmount)
	}
	v.Field("remark", dto.Remark).MaxLength(512)
	for _, item := range dto.Products {
		v.Field("products.product_id", item.ProductID).Required()
		v.Field("products.count", item.Count).MinInt(1, internal.ErrCodeValidationFailed)
		if item.Price != nil {
			v.Field("products.price", *item.Price).NonNegative(internal.ErrCodeInvalidAmount)
		}
	}
	if dto.StartTime != nil && dto.EndTime != nil && dto.EndTime.Before(*dto.StartTime) {
		v.Field("end_time", dto.EndTime).Custom(func(interface{}) *internal.AppError {
			return internal.NewValidationFieldError("end_time", "end_time must not be before start_time", internal.ErrCodeValidationFailed)
		})
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// ApprovalDTO carries a review decision: type 0 approves, type 1 rejects.
type ApprovalDTO struct {
	ID      int64  `json:"id"`
	Type    int    `json:"type"`
	Comment string `json:"comment"`
}

// PageQuery filters a contract listing. A nil Status means any status.
type PageQuery struct {
	Name       string
	CustomerID int64
	Status     *int
}
