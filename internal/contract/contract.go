package contract

import (
	"time"

	"github.com/frahmantamala/crm/internal"
	contractDatamodel "github.com/frahmantamala/crm/internal/core/datamodel/contract"
	"github.com/shopspring/decimal"
)

type Status int

const (
	StatusInit Status = iota
	StatusUnderReview
	StatusApproved
	StatusRejected
)

var statusNames = map[Status]string{
	StatusInit:        "INIT",
	StatusUnderReview: "UNDER_REVIEW",
	StatusApproved:    "APPROVED",
	StatusRejected:    "REJECTED",
}

// AllStatuses is the fixed display order used by statistics.
var AllStatuses = []Status{StatusInit, StatusUnderReview, StatusApproved, StatusRejected}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

func ParseStatus(v int) (Status, error) {
	s := Status(v)
	if !s.Valid() {
		return 0, ErrInvalidStatus
	}
	return s, nil
}

// Decision is the reviewer's verdict; its value is what the audit row stores.
type Decision int

const (
	DecisionApprove Decision = 0
	DecisionReject  Decision = 1
)

func ParseDecision(v int) (Decision, error) {
	switch Decision(v) {
	case DecisionApprove, DecisionReject:
		return Decision(v), nil
	}
	return 0, ErrInvalidDecision
}

// Outcome is the contract status a decision leads to.
func (d Decision) Outcome() Status {
	if d == DecisionApprove {
		return StatusApproved
	}
	return StatusRejected
}

type Contract struct {
	ID             int64           `json:"id"`
	Number         string          `json:"number"`
	Name           string          `json:"name"`
	CustomerID     int64           `json:"customer_id"`
	CustomerName   string          `json:"customer_name,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	ReceivedAmount decimal.Decimal `json:"received_amount"`
	Status         Status          `json:"status"`
	StatusName     string          `json:"status_name"`
	SignTime       *time.Time      `json:"sign_time,omitempty"`
	StartTime      *time.Time      `json:"start_time,omitempty"`
	EndTime        *time.Time      `json:"end_time,omitempty"`
	Remark         string          `json:"remark"`
	OwnerID        int64           `json:"owner_id"`
	CreaterID      int64           `json:"creater_id"`
	Products       []LineItem      `json:"products"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type LineItem struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Count       int             `json:"count"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

type Approval struct {
	ID         int64     `json:"id"`
	ContractID int64     `json:"contract_id"`
	Decision   Decision  `json:"status"`
	Comment    string    `json:"comment"`
	CreaterID  int64     `json:"creater_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// ProductRef is the catalog data a line item snapshots.
type ProductRef struct {
	ID    int64
	Name  string
	Price decimal.Decimal
}

type StatusCount struct {
	Status Status `json:"status"`
	Name   string `json:"name"`
	Count  int64  `json:"value"`
}

func (c *Contract) CanEdit() bool {
	return c.Status != StatusUnderReview
}

func (c *Contract) CanStartReview() bool {
	return c.Status == StatusInit
}

func (c *Contract) AwaitingDecision() bool {
	return c.Status == StatusUnderReview
}

// SumLineItems returns the total of all line items.
func SumLineItems(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.TotalPrice)
	}
	return total
}

var (
	ErrContractNotFound       = internal.NewNotFoundError("contract not found", internal.ErrCodeContractNotFound)
	ErrContractNameExists     = internal.NewConflictError("contract name already exists", internal.ErrCodeContractNameExists)
	ErrContractUnderReview    = internal.NewConflictError("contract under review cannot be modified", internal.ErrCodeContractUnderReview)
	ErrContractNotInit        = internal.NewConflictError("only INIT contracts may start review", internal.ErrCodeContractNotInit)
	ErrContractNotUnderReview = internal.NewConflictError("contract not under review", internal.ErrCodeContractNotUnderReview)
	ErrContractNumberTaken    = internal.NewConflictError("contract number already taken", internal.ErrCodeContractNumberTaken)
	ErrCommentRequired        = internal.NewValidationError("approval comment is required", internal.ErrCodeCommentRequired)
	ErrInvalidDecision        = internal.NewValidationError("approval type must be 0 (approve) or 1 (reject)", internal.ErrCodeInvalidDecision)
	ErrInvalidStatus          = internal.NewValidationError("invalid contract status", internal.ErrCodeInvalidStatus)
	ErrProductNotFound        = internal.NewNotFoundError("product not found", internal.ErrCodeProductNotFound)
	ErrCustomerNotFound       = internal.NewNotFoundError("customer not found", internal.ErrCodeCustomerNotFound)
)

func ToDataModel(c *Contract) *contractDatamodel.Contract {
	return &contractDatamodel.Contract{
		ID:             c.ID,
		Number:         c.Number,
		Name:           c.Name,
		CustomerID:     c.CustomerID,
		Amount:         c.Amount,
		ReceivedAmount: c.ReceivedAmount,
		Status:         int(c.Status),
		SignTime:       c.SignTime,
		StartTime:      c.StartTime,
		EndTime:        c.EndTime,
		Remark:         c.Remark,
		OwnerID:        c.OwnerID,
		CreaterID:      c.CreaterID,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func FromDataModel(m *contractDatamodel.Contract) *Contract {
	status := Status(m.Status)
	return &Contract{
		ID:             m.ID,
		Number:         m.Number,
		Name:           m.Name,
		CustomerID:     m.CustomerID,
		Amount:         m.Amount,
		ReceivedAmount: m.ReceivedAmount,
		Status:         status,
		StatusName:     status.String(),
		SignTime:       m.SignTime,
		StartTime:      m.StartTime,
		EndTime:        m.EndTime,
		Remark:         m.Remark,
		OwnerID:        m.OwnerID,
		CreaterID:      m.CreaterID,
		Products:       []LineItem{},
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func LineItemFromDataModel(m *contractDatamodel.ContractProduct) LineItem {
	return LineItem{
		ProductID:   m.ProductID,
		ProductName: m.ProductName,
		Price:       m.Price,
		Count:       m.Count,
		TotalPrice:  m.TotalPrice,
	}
}

func LineItemToDataModel(contractID int64, item LineItem) *contractDatamodel.ContractProduct {
	return &contractDatamodel.ContractProduct{
		ContractID:  contractID,
		ProductID:   item.ProductID,
		ProductName: item.ProductName,
		Price:       item.Price,
		Count:       item.Count,
		TotalPrice:  item.TotalPrice,
	}
}

func ApprovalFromDataModel(m *contractDatamodel.Approval) *Approval {
	return &Approval{
		ID:         m.ID,
		ContractID: m.ContractID,
		Decision:   Decision(m.Status),
		Comment:    m.Comment,
		CreaterID:  m.CreaterID,
		CreatedAt:  m.CreatedAt,
	}
}

func ApprovalToDataModel(a *Approval) *contractDatamodel.Approval {
	return &contractDatamodel.Approval{
		ID:         a.ID,
		ContractID: a.ContractID,
		Status:     int(a.Decision),
		Comment:    a.Comment,
		CreaterID:  a.CreaterID,
		CreatedAt:  a.CreatedAt,
	}
}
