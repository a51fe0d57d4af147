package department

import (
	"strings"

	"github.com/frahmantamala/crm/internal"
	"github.com/frahmantamala/crm/internal/core/common/validation"
)

type SaveDepartmentDTO struct {
	Name     string `json:"name"`
	ParentID int64  `json:"parent_id"`
	Sort     int    `json:"sort"`
}

func (dto *SaveDepartmentDTO) Normalize() {
	dto.Name = strings.TrimSpace(dto.Name)
}

func (dto SaveDepartmentDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", dto.Name).Required().MaxLength(64)
	v.Field("parent_id", dto.ParentID).MinInt(0, internal.ErrCodeInvalidParent)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
