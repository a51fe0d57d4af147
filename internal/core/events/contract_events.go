package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeContractReviewed = "contract.reviewed"
)

// ContractReviewedEvent is emitted once an approval decision is committed.
type ContractReviewedEvent struct {
	BaseEvent
	ContractID     int64     `json:"contract_id"`
	ContractName   string    `json:"contract_name"`
	ContractNumber string    `json:"contract_number"`
	CreaterID      int64     `json:"creater_id"`
	ReviewerID     int64     `json:"reviewer_id"`
	Approved       bool      `json:"approved"`
	Comment        string    `json:"comment"`
	ReviewedAt     time.Time `json:"reviewed_at"`
}

func NewContractReviewedEvent(contractID int64, name, number string, createrID, reviewerID int64, approved bool, comment string, reviewedAt time.Time) *ContractReviewedEvent {
	return &ContractReviewedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeContractReviewed,
			Timestamp: reviewedAt,
			Data: map[string]interface{}{
				"contract_id":     contractID,
				"contract_number": number,
				"creater_id":      createrID,
				"reviewer_id":     reviewerID,
				"approved":        approved,
			},
		},
		ContractID:     contractID,
		ContractName:   name,
		ContractNumber: number,
		CreaterID:      createrID,
		ReviewerID:     reviewerID,
		Approved:       approved,
		Comment:        comment,
		ReviewedAt:     reviewedAt,
	}
}
