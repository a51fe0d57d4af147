package contract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/frahmantamala/crm/internal"
	"github.com/frahmantamala/crm/internal/core/database"
	"github.com/frahmantamala/crm/internal/core/events"
	"github.com/frahmantamala/crm/pkg/pagination"
	"github.com/shopspring/decimal"
)

// Repository is the GORM-backed persistence used by the service. Lookups
// return ErrContractNotFound for missing or soft-deleted rows.
type Repository interface {
	Page(ctx context.Context, ownerID int64, q PageQuery, p pagination.Params) ([]*Contract, int64, error)
	GetByID(ctx context.Context, id int64) (*Contract, error)
	ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error)
	Create(ctx context.Context, c *Contract) error
	Update(ctx context.Context, c *Contract) error
	UpdateStatus(ctx context.Context, id int64, from, to Status) (bool, error)
	Delete(ctx context.Context, id int64) error
	ReplaceLineItems(ctx context.Context, contractID int64, items []LineItem) error
	CreateApproval(ctx context.Context, a *Approval) error
	ListApprovals(ctx context.Context, contractID int64) ([]*Approval, error)
	FindProducts(ctx context.Context, ids []int64) (map[int64]ProductRef, error)
	CustomerExists(ctx context.Context, id int64) (bool, error)
}

// StatsRepository serves the dashboard read queries.
type StatsRepository interface {
	CountByStatus(ctx context.Context, ownerID int64) (map[Status]int64, error)
	CountReviewedBetween(ctx context.Context, ownerID int64, from, to time.Time) (int64, error)
}

type ServiceAPI interface {
	GetPage(ctx context.Context, managerID int64, q PageQuery, p pagination.Params) (pagination.Page[*Contract], error)
	Get(ctx context.Context, id int64) (*Contract, error)
	SaveOrUpdate(ctx context.Context, managerID int64, dto SaveContractDTO) (*Contract, error)
	Delete(ctx context.Context, managerID, id int64) error
	StartApproval(ctx context.Context, managerID, id int64) error
	ApprovalContract(ctx context.Context, managerID int64, dto ApprovalDTO) error
	ListApprovals(ctx context.Context, contractID int64) ([]*Approval, error)
	StatusPieData(ctx context.Context, managerID int64) ([]StatusCount, error)
	CountTodayApprovalTotal(ctx context.Context, managerID int64) (int64, error)
}

type Service struct {
	repo      Repository
	stats     StatsRepository
	txManager database.TransactionManager
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, stats StatsRepository, txManager database.TransactionManager, publisher events.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		stats:     stats,
		txManager: txManager,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// numberAttempts bounds how often create draws a fresh number after a collision.
const numberAttempts = 5

// GenerateNumber builds a contract number: "HT", the timestamp to the second
// and four random digits.
func GenerateNumber(now time.Time) string {
	return fmt.Sprintf("HT%s%04d", now.Format("20060102150405"), rand.Intn(10000))
}

func (s *Service) GetPage(ctx context.Context, managerID int64, q PageQuery, p pagination.Params) (pagination.Page[*Contract], error) {
	if q.Status != nil {
		if _, err := ParseStatus(*q.Status); err != nil {
			return pagination.Page[*Contract]{}, err
		}
	}
	q.Name = strings.TrimSpace(q.Name)

	list, total, err := s.repo.Page(ctx, managerID, q, p)
	if err != nil {
		s.logger.Error("failed to page contracts", "error", err, "manager_id", managerID)
		return pagination.Page[*Contract]{}, internal.NewInternalError("failed to list contracts", err)
	}
	return pagination.NewPage(list, total, p), nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Contract, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(err, id)
	}
	return c, nil
}

func (s *Service) SaveOrUpdate(ctx context.Context, managerID int64, dto SaveContractDTO) (*Contract, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		s.logger.Warn("contract validation failed", "error", err, "manager_id", managerID)
		return nil, err
	}

	var saved *Contract
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		ok, err := s.repo.CustomerExists(txCtx, dto.CustomerID)
		if err != nil {
			return internal.NewInternalError("failed to check customer", err)
		}
		if !ok {
			return ErrCustomerNotFound
		}

		items, err := s.buildLineItems(txCtx, dto.Products)
		if err != nil {
			return err
		}

		amount := dto.Amount
		if amount.IsZero() {
			amount = SumLineItems(items)
		}

		if dto.ID == 0 {
			saved, err = s.create(txCtx, managerID, dto, amount)
		} else {
			saved, err = s.update(txCtx, managerID, dto, amount)
		}
		if err != nil {
			return err
		}

		if err := s.repo.ReplaceLineItems(txCtx, saved.ID, items); err != nil {
			return internal.NewInternalError("failed to save contract products", err)
		}
		saved.Products = items
		return nil
	})
	if err != nil {
		s.logger.Error("failed to save contract", "error", err, "contract_id", dto.ID, "manager_id", managerID)
		return nil, err
	}

	s.logger.Info("contract saved",
		"contract_id", saved.ID,
		"number", saved.Number,
		"manager_id", managerID,
		"amount", saved.Amount.String())
	return saved, nil
}

func (s *Service) create(ctx context.Context, managerID int64, dto SaveContractDTO, amount decimal.Decimal) (*Contract, error) {
	exists, err := s.repo.ExistsByName(ctx, dto.Name, 0)
	if err != nil {
		return nil, internal.NewInternalError("failed to check contract name", err)
	}
	if exists {
		return nil, ErrContractNameExists
	}

	received := decimal.Zero
	if dto.ReceivedAmount != nil {
		received = *dto.ReceivedAmount
	}

	now := s.now()
	c := &Contract{
		Number:         GenerateNumber(now),
		Name:           dto.Name,
		CustomerID:     dto.CustomerID,
		Amount:         amount,
		ReceivedAmount: received,
		Status:         StatusInit,
		SignTime:       dto.SignTime,
		StartTime:      dto.StartTime,
		EndTime:        dto.EndTime,
		Remark:         dto.Remark,
		OwnerID:        managerID,
		CreaterID:      managerID,
	}
	for attempt := 1; ; attempt++ {
		err = s.repo.Create(ctx, c)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrContractNumberTaken) {
			return nil, internal.NewInternalError("failed to create contract", err)
		}
		if attempt == numberAttempts {
			return nil, err
		}
		s.logger.Warn("contract number collision", "number", c.Number, "attempt", attempt)
		c.Number = GenerateNumber(s.now())
	}
	c.StatusName = c.Status.String()
	return c, nil
}

func (s *Service) update(ctx context.Context, managerID int64, dto SaveContractDTO, amount decimal.Decimal) (*Contract, error) {
	existing, err := s.repo.GetByID(ctx, dto.ID)
	if err != nil {
		return nil, s.lookupError(err, dto.ID)
	}
	if existing.OwnerID != managerID {
		return nil, internal.ErrUnauthorizedAccess
	}
	if !existing.CanEdit() {
		return nil, ErrContractUnderReview
	}
	if existing.Name != dto.Name {
		taken, err := s.repo.ExistsByName(ctx, dto.Name, existing.ID)
		if err != nil {
			return nil, internal.NewInternalError("failed to check contract name", err)
		}
		if taken {
			return nil, ErrContractNameExists
		}
	}

	existing.Name = dto.Name
	existing.CustomerID = dto.CustomerID
	existing.Amount = amount
	if dto.ReceivedAmount != nil {
		existing.ReceivedAmount = *dto.ReceivedAmount
	}
	existing.SignTime = dto.SignTime
	existing.StartTime = dto.StartTime
	existing.EndTime = dto.EndTime
	existing.Remark = dto.Remark
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, internal.NewInternalError("failed to update contract", err)
	}
	return existing, nil
}

func (s *Service) buildLineItems(ctx context.Context, dtos []LineItemDTO) ([]LineItem, error) {
	if len(dtos) == 0 {
		return []LineItem{}, nil
	}

	ids := make([]int64, 0, len(dtos))
	for _, d := range dtos {
		ids = append(ids, d.ProductID)
	}
	catalog, err := s.repo.FindProducts(ctx, ids)
	if err != nil {
		return nil, internal.NewInternalError("failed to load products", err)
	}

	items := make([]LineItem, 0, len(dtos))
	for _, d := range dtos {
		ref, ok := catalog[d.ProductID]
		if !ok {
			return nil, ErrProductNotFound
		}
		price := ref.Price
		if d.Price != nil {
			price = *d.Price
		}
		items = append(items, LineItem{
			ProductID:   ref.ID,
			ProductName: ref.Name,
			Price:       price,
			Count:       d.Count,
			TotalPrice:  price.Mul(decimal.NewFromInt(int64(d.Count))),
		})
	}
	return items, nil
}

func (s *Service) Delete(ctx context.Context, managerID, id int64) error {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return s.lookupError(err, id)
		}
		if c.OwnerID != managerID {
			return internal.ErrUnauthorizedAccess
		}
		if !c.CanEdit() {
			return ErrContractUnderReview
		}
		if err := s.repo.Delete(txCtx, id); err != nil {
			return internal.NewInternalError("failed to delete contract", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("contract delete refused", "error", err, "contract_id", id, "manager_id", managerID)
		return err
	}

	s.logger.Info("contract deleted", "contract_id", id, "manager_id", managerID)
	return nil
}

func (s *Service) StartApproval(ctx context.Context, managerID, id int64) error {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return s.lookupError(err, id)
		}
		if c.OwnerID != managerID {
			return internal.ErrUnauthorizedAccess
		}
		if !c.CanStartReview() {
			return ErrContractNotInit
		}
		moved, err := s.repo.UpdateStatus(txCtx, id, StatusInit, StatusUnderReview)
		if err != nil {
			return internal.NewInternalError("failed to start contract review", err)
		}
		if !moved {
			return ErrContractNotInit
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("start approval refused", "error", err, "contract_id", id, "manager_id", managerID)
		return err
	}

	s.logger.Info("contract submitted for review", "contract_id", id, "manager_id", managerID)
	return nil
}

// ApprovalContract records a review decision and moves the contract to its
// final status in one transaction. Notifying the creator happens after the
// commit and never affects the result.
func (s *Service) ApprovalContract(ctx context.Context, managerID int64, dto ApprovalDTO) error {
	comment := strings.TrimSpace(dto.Comment)
	if comment == "" {
		return ErrCommentRequired
	}
	decision, err := ParseDecision(dto.Type)
	if err != nil {
		return err
	}

	var reviewed *Contract
	reviewedAt := s.now()
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := s.repo.GetByID(txCtx, dto.ID)
		if err != nil {
			return s.lookupError(err, dto.ID)
		}
		if !c.AwaitingDecision() {
			return ErrContractNotUnderReview
		}

		// Claim the transition before writing the approval row.
		moved, err := s.repo.UpdateStatus(txCtx, c.ID, StatusUnderReview, decision.Outcome())
		if err != nil {
			return internal.NewInternalError("failed to update contract status", err)
		}
		if !moved {
			return ErrContractNotUnderReview
		}

		approval := &Approval{
			ContractID: c.ID,
			Decision:   decision,
			Comment:    comment,
			CreaterID:  managerID,
			CreatedAt:  reviewedAt,
		}
		if err := s.repo.CreateApproval(txCtx, approval); err != nil {
			return internal.NewInternalError("failed to record approval", err)
		}

		c.Status = decision.Outcome()
		c.StatusName = c.Status.String()
		reviewed = c
		return nil
	})
	if err != nil {
		s.logger.Warn("contract approval refused", "error", err, "contract_id", dto.ID, "manager_id", managerID)
		return err
	}

	s.logger.Info("contract reviewed",
		"contract_id", reviewed.ID,
		"manager_id", managerID,
		"status", reviewed.Status.String())

	s.notifyReviewed(ctx, reviewed, managerID, decision, comment, reviewedAt)
	return nil
}

func (s *Service) notifyReviewed(ctx context.Context, c *Contract, reviewerID int64, decision Decision, comment string, at time.Time) {
	if s.publisher == nil {
		return
	}
	event := events.NewContractReviewedEvent(c.ID, c.Name, c.Number, c.CreaterID, reviewerID,
		decision == DecisionApprove, comment, at)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish contract reviewed event", "error", err, "contract_id", c.ID)
	}
}

func (s *Service) ListApprovals(ctx context.Context, contractID int64) ([]*Approval, error) {
	if _, err := s.repo.GetByID(ctx, contractID); err != nil {
		return nil, s.lookupError(err, contractID)
	}
	list, err := s.repo.ListApprovals(ctx, contractID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list approvals", err)
	}
	return list, nil
}

func (s *Service) StatusPieData(ctx context.Context, managerID int64) ([]StatusCount, error) {
	counts, err := s.stats.CountByStatus(ctx, managerID)
	if err != nil {
		s.logger.Error("failed to count contracts by status", "error", err, "manager_id", managerID)
		return nil, internal.NewInternalError("failed to load contract statistics", err)
	}

	result := make([]StatusCount, 0, len(AllStatuses))
	for _, st := range AllStatuses {
		result = append(result, StatusCount{Status: st, Name: st.String(), Count: counts[st]})
	}
	return result, nil
}

// CountTodayApprovalTotal counts the manager's contracts that reached a final
// status since local midnight.
func (s *Service) CountTodayApprovalTotal(ctx context.Context, managerID int64) (int64, error) {
	now := s.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	total, err := s.stats.CountReviewedBetween(ctx, managerID, start, start.AddDate(0, 0, 1))
	if err != nil {
		s.logger.Error("failed to count today's approvals", "error", err, "manager_id", managerID)
		return 0, internal.NewInternalError("failed to load contract statistics", err)
	}
	return total, nil
}

func (s *Service) lookupError(err error, id int64) error {
	if _, ok := internal.IsAppError(err); ok {
		return err
	}
	s.logger.Error("failed to load contract", "error", err, "contract_id", id)
	return internal.NewInternalError("failed to load contract", err)
}
