package manager

import (
	"strings"

	"github.com/frahmantamala/crm/internal"
	"github.com/frahmantamala/crm/internal/core/common/validation"
)

type CreateManagerDTO struct {
	Account  string `json:"account"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	DepartID int64  `json:"depart_id"`
}

func (dto *CreateManagerDTO) Normalize() {
	dto.Account = strings.TrimSpace(dto.Account)
	dto.Name = strings.TrimSpace(dto.Name)
	dto.Email = strings.TrimSpace(strings.ToLower(dto.Email))
	dto.Phone = strings.TrimSpace(dto.Phone)
}

func (dto CreateManagerDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("account", dto.Account).Required().MinLength(3).MaxLength(32)
	v.Field("password", dto.Password).Required().MinLength(6).MaxLength(72)
	v.Field("name", dto.Name).Required().MaxLength(64)
	v.Field("email", dto.Email).Email()
	v.Field("phone", dto.Phone).MaxLength(32)
	v.Field("depart_id", dto.DepartID).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type UpdateManagerDTO struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	DepartID int64  `json:"depart_id"`
}

func (dto *UpdateManagerDTO) Normalize() {
	dto.Name = strings.TrimSpace(dto.Name)
	dto.Email = strings.TrimSpace(strings.ToLower(dto.Email))
	dto.Phone = strings.TrimSpace(dto.Phone)
}

func (dto UpdateManagerDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", dto.Name).Required().MaxLength(64)
	v.Field("email", dto.Email).Email()
	v.Field("phone", dto.Phone).MaxLength(32)
	v.Field("depart_id", dto.DepartID).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ChangeStatusDTO struct {
	Status int `json:"status"`
}

func (dto ChangeStatusDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("status", dto.Status).OneOf(internal.ErrCodeInvalidStatus, StatusDisabled, StatusEnabled)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type GrantPermissionsDTO struct {
	Permissions []string `json:"permissions"`
}

type PageQuery struct {
	Name     string
	DepartID int64
	Status   *int
}
