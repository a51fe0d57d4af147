package customer

import (
	"strconv"
	"time"

	"github.com/frahmantamala/crm/internal"
	customerDatamodel "github.com/frahmantamala/crm/internal/core/datamodel/customer"
)

// Customer levels run from 0 (unrated) to MaxLevel.
const MaxLevel = 5

type Customer struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email"`
	Level        int       `json:"level"`
	Source       string    `json:"source"`
	Address      string    `json:"address"`
	FollowStatus int       `json:"follow_status"`
	OwnerID      int64     `json:"owner_id"`
	CreaterID    int64     `json:"creater_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ExportHeader is the first row of a customer CSV export.
var ExportHeader = []string{"ID", "Name", "Phone", "Email", "Level", "Source", "Address", "Follow Status", "Created At"}

// Record renders the customer as a CSV row matching ExportHeader.
func (c *Customer) Record() []string {
	return []string{
		strconv.FormatInt(c.ID, 10),
		c.Name,
		c.Phone,
		c.Email,
		strconv.Itoa(c.Level),
		c.Source,
		c.Address,
		strconv.Itoa(c.FollowStatus),
		c.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

var (
	ErrCustomerNotFound = internal.NewNotFoundError("customer not found", internal.ErrCodeCustomerNotFound)
	ErrPhoneExists      = internal.NewConflictError("customer phone already exists", internal.ErrCodeCustomerPhoneExists)
	ErrCustomerInUse    = internal.NewConflictError("customer is referenced by a contract", internal.ErrCodeCustomerInUse)
)

func ToDataModel(c *Customer) *customerDatamodel.Customer {
	return &customerDatamodel.Customer{
		ID:           c.ID,
		Name:         c.Name,
		Phone:        c.Phone,
		Email:        c.Email,
		Level:        c.Level,
		Source:       c.Source,
		Address:      c.Address,
		FollowStatus: c.FollowStatus,
		OwnerID:      c.OwnerID,
		CreaterID:    c.CreaterID,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func FromDataModel(m *customerDatamodel.Customer) *Customer {
	return &Customer{
		ID:           m.ID,
		Name:         m.Name,
		Phone:        m.Phone,
		Email:        m.Email,
		Level:        m.Level,
		Source:       m.Source,
		Address:      m.Address,
		FollowStatus: m.FollowStatus,
		OwnerID:      m.OwnerID,
		CreaterID:    m.CreaterID,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
