package department

import (
	"time"

	"gorm.io/gorm"
)

// Department is a node of the organisation tree. ParentIDs holds the
// comma separated ancestor chain starting at the virtual root 0.
type Department struct {
	ID        int64          `gorm:"primaryKey"`
	Name      string         `gorm:"column:name;not null"`
	ParentID  int64          `gorm:"column:parent_id;not null;default:0;index"`
	ParentIDs string         `gorm:"column:parent_ids;not null;default:'0'"`
	Sort      int            `gorm:"column:sort;not null;default:0"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Department) TableName() string {
	return "departments"
}
