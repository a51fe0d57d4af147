package customer

import (
	"time"

	"gorm.io/gorm"
)

type Customer struct {
	ID           int64          `gorm:"primaryKey"`
	Name         string         `gorm:"column:name;not null"`
	Phone        string         `gorm:"column:phone;not null;index"`
	Email        string         `gorm:"column:email"`
	Level        int            `gorm:"column:level;not null;default:0"`
	Source       string         `gorm:"column:source"`
	Address      string         `gorm:"column:address"`
	FollowStatus int            `gorm:"column:follow_status;not null;default:0"`
	OwnerID      int64          `gorm:"column:owner_id;not null;index"`
	CreaterID    int64          `gorm:"column:creater_id;not null"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Customer) TableName() string {
	return "customers"
}
