package customer

import (
	"strings"

	"github.com/frahmantamala/crm/internal"
	"github.com/frahmantamala/crm/internal/core/common/validation"
)

// SaveCustomerDTO creates a customer when ID is zero and updates it otherwise.
type SaveCustomerDTO struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Level        int    `json:"level"`
	Source       string `json:"source"`
	Address      string `json:"address"`
	FollowStatus int    `json:"follow_status"`
}

func (dto *SaveCustomerDTO) Normalize() {
	dto.Name = strings.TrimSpace(dto.Name)
	dto.Phone = strings.TrimSpace(dto.Phone)
	dto.Email = strings.TrimSpace(strings.ToLower(dto.Email))
	dto.Source = strings.TrimSpace(dto.Source)
	dto.Address = strings.TrimSpace(dto.Address)
}

func (dto SaveCustomerDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", dto.Name).Required().MaxLength(64)
	v.Field("phone", dto.Phone).Required().MaxLength(32)
	v.Field("email", dto.Email).Email()
	v.Field("level", dto.Level).MinInt(0, internal.ErrCodeValidationFailed).MaxInt(MaxLevel, internal.ErrCodeValidationFailed)
	v.Field("follow_status", dto.FollowStatus).MinInt(0, internal.ErrCodeValidationFailed)
	v.Field("address", dto.Address).MaxLength(255)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type PageQuery struct {
	Name  string
	Phone string
	Level *int
}
