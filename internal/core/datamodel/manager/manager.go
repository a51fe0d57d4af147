package manager

import (
	"time"

	"gorm.io/gorm"
)

type Manager struct {
	ID           int64          `gorm:"primaryKey"`
	Account      string         `gorm:"column:account;not null;index"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	Name         string         `gorm:"column:name;not null"`
	Email        string         `gorm:"column:email"`
	Phone        string         `gorm:"column:phone"`
	Status       int            `gorm:"column:status;not null"`
	DepartID     int64          `gorm:"column:depart_id;index"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Manager) TableName() string {
	return "managers"
}

type Permission struct {
	ID          int64     `gorm:"primaryKey"`
	Name        string    `gorm:"column:name;uniqueIndex;not null"`
	Description string    `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Permission) TableName() string {
	return "permissions"
}

type ManagerPermission struct {
	ID           int64     `gorm:"primaryKey"`
	ManagerID    int64     `gorm:"column:manager_id;not null;index"`
	PermissionID int64     `gorm:"column:permission_id;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ManagerPermission) TableName() string {
	return "manager_permissions"
}
