package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/frahmantamala/crm/internal/core/events"
)

const reviewTimeLayout = "2006-01-02 15:04:05"

type Recipient struct {
	Name  string
	Email string
}

// ErrRecipientNotFound tells the handler to skip the notification.
var ErrRecipientNotFound = errors.New("recipient not found")

type RecipientLookup interface {
	LookupRecipient(ctx context.Context, managerID int64) (Recipient, error)
}

type RecipientLookupFunc func(ctx context.Context, managerID int64) (Recipient, error)

func (f RecipientLookupFunc) LookupRecipient(ctx context.Context, managerID int64) (Recipient, error) {
	return f(ctx, managerID)
}

type Enqueuer interface {
	Enqueue(job MailJob) error
}

// EventHandler turns contract review events into emails for the contract creator.
type EventHandler struct {
	recipients RecipientLookup
	queue      Enqueuer
	logger     *slog.Logger
}

func NewEventHandler(recipients RecipientLookup, queue Enqueuer, logger *slog.Logger) *EventHandler {
	return &EventHandler{recipients: recipients, queue: queue, logger: logger}
}

func (h *EventHandler) Register(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeContractReviewed, h.HandleContractReviewed)
}

func (h *EventHandler) HandleContractReviewed(ctx context.Context, event events.Event) error {
	reviewed, ok := event.(*events.ContractReviewedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload %T", event)
	}

	recipient, err := h.recipients.LookupRecipient(ctx, reviewed.CreaterID)
	if err != nil {
		if errors.Is(err, ErrRecipientNotFound) {
			h.logger.Warn("contract creator not found, skipping notification",
				"contract_id", reviewed.ContractID, "creater_id", reviewed.CreaterID)
			return nil
		}
		return fmt.Errorf("lookup contract creator: %w", err)
	}
	if strings.TrimSpace(recipient.Email) == "" {
		h.logger.Warn("contract creator has no email, skipping notification",
			"contract_id", reviewed.ContractID, "creater_id", reviewed.CreaterID)
		return nil
	}

	subject, body := ReviewMessage(reviewed)
	if err := h.queue.Enqueue(MailJob{To: recipient.Email, Subject: subject, Body: body}); err != nil {
		return fmt.Errorf("enqueue review notification: %w", err)
	}
	return nil
}

// ReviewMessage renders the subject and body sent to the contract creator.
func ReviewMessage(e *events.ContractReviewedEvent) (string, string) {
	subject := "Contract rejected"
	verdict := "was not approved"
	if e.Approved {
		subject = "Contract approved"
		verdict = "has been approved"
	}

	body := fmt.Sprintf(
		"Your contract \"%s\" %s.\nReview comment: %s\nContract number: %s\nReviewed at: %s",
		e.ContractName,
		verdict,
		e.Comment,
		e.ContractNumber,
		e.ReviewedAt.Format(reviewTimeLayout),
	)
	return subject, body
}
