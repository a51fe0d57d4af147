package manager

import (
	"time"

	"github.com/frahmantamala/crm/internal"
	managerDatamodel "github.com/frahmantamala/crm/internal/core/datamodel/manager"
)

const (
	StatusDisabled = 0
	StatusEnabled  = 1
)

type Manager struct {
	ID          int64     `json:"id"`
	Account     string    `json:"account"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Status      int       `json:"status"`
	DepartID    int64     `json:"depart_id"`
	DepartName  string    `json:"depart_name,omitempty"`
	Permissions []string  `json:"permissions,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (m *Manager) Enabled() bool {
	return m.Status == StatusEnabled
}

var (
	ErrManagerNotFound   = internal.NewNotFoundError("manager not found", internal.ErrCodeManagerNotFound)
	ErrAccountExists     = internal.NewConflictError("account already exists", internal.ErrCodeAccountExists)
	ErrInvalidStatus     = internal.NewValidationError("invalid manager status", internal.ErrCodeInvalidStatus)
	ErrUnknownPermission = internal.NewValidationError("unknown permission", internal.ErrCodeUnknownPermission)
	ErrCannotDisableSelf = internal.NewValidationError("managers cannot disable their own account", internal.ErrCodeCannotDisableSelf)
)

func ToDataModel(m *Manager, passwordHash string) *managerDatamodel.Manager {
	return &managerDatamodel.Manager{
		ID:           m.ID,
		Account:      m.Account,
		PasswordHash: passwordHash,
		Name:         m.Name,
		Email:        m.Email,
		Phone:        m.Phone,
		Status:       m.Status,
		DepartID:     m.DepartID,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func FromDataModel(m *managerDatamodel.Manager) *Manager {
	return &Manager{
		ID:        m.ID,
		Account:   m.Account,
		Name:      m.Name,
		Email:     m.Email,
		Phone:     m.Phone,
		Status:    m.Status,
		DepartID:  m.DepartID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
