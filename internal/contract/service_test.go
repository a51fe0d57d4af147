package contract_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/crm/internal"
	"github.com/frahmantamala/crm/internal/contract"
	"github.com/frahmantamala/crm/internal/core/events"
	"github.com/frahmantamala/crm/pkg/pagination"
)

// Mock repository for testing
type mockContractRepository struct {
	contracts      map[int64]*contract.Contract
	lineItems      map[int64][]contract.LineItem
	approvals      []*contract.Approval
	products       map[int64]contract.ProductRef
	customers      map[int64]bool
	nextID         int64
	creates        int
	updates        int
	statusUpdates  int
	approvalWrites int
	existsCalls    int
	getError       error
	statusError    error
	numberTaken    int
	beforeStatus   func(id int64)
}

func newMockContractRepository() *mockContractRepository {
	return &mockContractRepository{
		contracts: make(map[int64]*contract.Contract),
		lineItems: make(map[int64][]contract.LineItem),
		products: map[int64]contract.ProductRef{
			1: {ID: 1, Name: "CRM Seat", Price: decimal.NewFromInt(100)},
			2: {ID: 2, Name: "Support Plan", Price: decimal.RequireFromString("49.50")},
		},
		customers: map[int64]bool{10: true},
		nextID:    1,
	}
}

func (m *mockContractRepository) seed(c *contract.Contract) *contract.Contract {
	c.ID = m.nextID
	m.nextID++
	m.contracts[c.ID] = c
	return c
}

func (m *mockContractRepository) Page(_ context.Context, ownerID int64, _ contract.PageQuery, _ pagination.Params) ([]*contract.Contract, int64, error) {
	var list []*contract.Contract
	for _, c := range m.contracts {
		if c.OwnerID == ownerID {
			list = append(list, c)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list, int64(len(list)), nil
}

func (m *mockContractRepository) GetByID(_ context.Context, id int64) (*contract.Contract, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	c, ok := m.contracts[id]
	if !ok {
		return nil, contract.ErrContractNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockContractRepository) ExistsByName(_ context.Context, name string, excludeID int64) (bool, error) {
	m.existsCalls++
	for _, c := range m.contracts {
		if c.Name == name && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockContractRepository) Create(_ context.Context, c *contract.Contract) error {
	m.creates++
	if m.numberTaken > 0 {
		m.numberTaken--
		return contract.ErrContractNumberTaken
	}
	m.seed(c)
	return nil
}

func (m *mockContractRepository) Update(_ context.Context, c *contract.Contract) error {
	m.updates++
	cp := *c
	m.contracts[c.ID] = &cp
	return nil
}

func (m *mockContractRepository) UpdateStatus(_ context.Context, id int64, from, to contract.Status) (bool, error) {
	if m.statusError != nil {
		return false, m.statusError
	}
	if m.beforeStatus != nil {
		m.beforeStatus(id)
	}
	c, ok := m.contracts[id]
	if !ok || c.Status != from {
		return false, nil
	}
	m.statusUpdates++
	c.Status = to
	return true, nil
}

func (m *mockContractRepository) Delete(_ context.Context, id int64) error {
	delete(m.contracts, id)
	return nil
}

func (m *mockContractRepository) ReplaceLineItems(_ context.Context, contractID int64, items []contract.LineItem) error {
	m.lineItems[contractID] = items
	return nil
}

func (m *mockContractRepository) CreateApproval(_ context.Context, a *contract.Approval) error {
	m.approvalWrites++
	a.ID = int64(len(m.approvals) + 1)
	m.approvals = append(m.approvals, a)
	return nil
}

func (m *mockContractRepository) ListApprovals(_ context.Context, contractID int64) ([]*contract.Approval, error) {
	var list []*contract.Approval
	for i := len(m.approvals) - 1; i >= 0; i-- {
		if m.approvals[i].ContractID == contractID {
			list = append(list, m.approvals[i])
		}
	}
	return list, nil
}

func (m *mockContractRepository) FindProducts(_ context.Context, ids []int64) (map[int64]contract.ProductRef, error) {
	found := make(map[int64]contract.ProductRef)
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			found[id] = p
		}
	}
	return found, nil
}

func (m *mockContractRepository) CustomerExists(_ context.Context, id int64) (bool, error) {
	return m.customers[id], nil
}

type mockStatsRepository struct {
	counts   map[contract.Status]int64
	reviewed int64
	from, to time.Time
}

func (m *mockStatsRepository) CountByStatus(_ context.Context, _ int64) (map[contract.Status]int64, error) {
	return m.counts, nil
}

func (m *mockStatsRepository) CountReviewedBetween(_ context.Context, _ int64, from, to time.Time) (int64, error) {
	m.from, m.to = from, to
	return m.reviewed, nil
}

// passthroughTx runs the unit of work directly.
type passthroughTx struct {
	calls int
}

func (p *passthroughTx) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	p.calls++
	return fn(ctx)
}

type recordingPublisher struct {
	published []events.Event
	err       error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.published = append(p.published, e)
	return p.err
}

var _ = Describe("Contract Service", func() {
	const managerID int64 = 7

	var (
		repo      *mockContractRepository
		stats     *mockStatsRepository
		tx        *passthroughTx
		publisher *recordingPublisher
		service   *contract.Service
		ctx       context.Context
	)

	BeforeEach(func() {
		repo = newMockContractRepository()
		stats = &mockStatsRepository{counts: map[contract.Status]int64{}}
		tx = &passthroughTx{}
		publisher = &recordingPublisher{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = contract.NewService(repo, stats, tx, publisher, logger)
		ctx = context.Background()
	})

	underReview := func() *contract.Contract {
		return repo.seed(&contract.Contract{
			Number:    "HT202401010000000001",
			Name:      "Annual licence",
			Status:    contract.StatusUnderReview,
			OwnerID:   managerID,
			CreaterID: managerID,
		})
	}

	Describe("SaveOrUpdate", func() {
		It("creates an INIT contract owned by the acting manager", func() {
			c, err := service.SaveOrUpdate(ctx, managerID, contract.SaveContractDTO{
				Name:       "  Annual licence ",
				CustomerID: 10,
				Products: []contract.LineItemDTO{
					{ProductID: 1, Count: 2},
					{ProductID: 2, Count: 2},
				},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(c.ID).To(BeNumerically(">", 0))
			Expect(c.Name).To(Equal("Annual licence"))
			Expect(c.Status).To(Equal(contract.StatusInit))
			Expect(c.OwnerID).To(Equal(managerID))
			Expect(c.CreaterID).To(Equal(managerID))
			Expect(c.ReceivedAmount.IsZero()).To(BeTrue())
			Expect(c.Number).To(HavePrefix("HT"))
			Expect(c.Number).To(HaveLen(20))
			Expect(c.Amount.Equal(decimal.NewFromInt(299))).To(BeTrue())
			Expect(repo.lineItems[c.ID]).To(HaveLen(2))
			Expect(repo.lineItems[c.ID][1].TotalPrice.Equal(decimal.NewFromInt(99))).To(BeTrue())
			Expect(tx.calls).To(Equal(1))
		})

		It("keeps an explicit amount", func() {
			c, err := service.SaveOrUpdate(ctx, managerID, contract.SaveContractDTO{
				Name:       "Discounted",
				CustomerID: 10,
				Amount:     decimal.NewFromInt(150),
				Products:   []contract.LineItemDTO{{ProductID: 1, Count: 2}},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Amount.Equal(decimal.NewFromInt(150))).To(BeTrue())
		})

		It("rejects a duplicate name before inserting", func() {
			repo.seed(&contract.Contract{Name: "Annual licence", OwnerID: managerID})

			_, err := service.SaveOrUpdate(ctx, managerID, contract.SaveContractDTO{Name: "Annual licence", CustomerID: 10})
			Expect(err).To(MatchError(contract.ErrContractNameExists))
			Expect(repo.creates).To(Equal(0))
		})

		It("rejects unknown products", func() {
			_, err := service.SaveOrUpdate(ctx, managerID, contract.SaveContractDTO{
				Name:       "Ghost",
				CustomerID: 10,
				Products:   []contract.LineItemDTO{{ProductID: 99, Count: 1}},
			})
			Expect(err).To(MatchError(contract.ErrProductNotFound))
			Expect(repo.creates).To(Equal(0))
		})

		It("rejects unknown customers", func() {
			_, err := service.SaveOrUpdate(ctx, managerID, contract.SaveContractDTO{Name: "Orphan", CustomerID: 11})
			Expect(err).To(MatchError(contract.ErrCustomerNotFound))
		})

		It("fails validation without a name", func() {
			_, err := service.SaveOrUpdate(ctx, managerID, contract.SaveContractDTO{CustomerID: 10})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
			Expect(tx.calls).To(Equal(0))
		})

		It("refuses to edit a contract under review", func() {
			c := underReview()

			_, err := service.SaveOrUpdate(ctx, managerID, contract.SaveContractDTO{ID: c.ID, Name: "Renamed", CustomerID: 10})
			Expect(err).To(MatchError(contract.ErrContractUnderReview))
			Expect(repo.updates).To(Equal(0))
			Expect(repo.contracts[c.ID].Name).To(Equal("Annual licence"))
		})

		It("preserves status, number and creator on update", func() {
			c := repo.seed(&contract.Contract{
				Number:    "HT209901010000001234",
				Name:      "Old name",
				Status:    contract.StatusRejected,
				OwnerID:   managerID,
				CreaterID: 3,
			})

			updated, err := service.SaveOrUpdate(ctx, managerID, contract.SaveContractDTO{ID: c.ID, Name: "New name", CustomerID: 10})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Name).To(Equal("New name"))
			Expect(updated.Status).To(Equal(contract.StatusRejected))
			Expect(updated.Number).To(Equal("HT209901010000001234"))
			Expect(updated.CreaterID).To(Equal(int64(3)))
		})

		It("rejects renaming onto another contract", func() {
			repo.seed(&contract.Contract{Name: "Taken", OwnerID: managerID})
			c := repo.seed(&contract.Contract{Name: "Mine", OwnerID: managerID})

			_, err := service.SaveOrUpdate(ctx, managerID, contract.SaveContractDTO{ID: c.ID, Name: "Taken", CustomerID: 10})
			Expect(err).To(MatchError(contract.ErrContractNameExists))
		})

		It("reports missing contracts on update", func() {
			_, err := service.SaveOrUpdate(ctx, managerID, contract.SaveContractDTO{ID: 404, Name: "x", CustomerID: 10})
			Expect(err).To(MatchError(contract.ErrContractNotFound))
		})

		It("stores a supplied received amount on create", func() {
			var dto contract.SaveContractDTO
			Expect(json.Unmarshal([]byte(`{"name":"Prepaid","customer_id":10,"amount":"200","received_amount":"50.25"}`), &dto)).To(Succeed())

			c, err := service.SaveOrUpdate(ctx, managerID, dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.ReceivedAmount.Equal(decimal.RequireFromString("50.25"))).To(BeTrue())
			Expect(repo.contracts[c.ID].ReceivedAmount.Equal(decimal.RequireFromString("50.25"))).To(BeTrue())
		})

		It("updates the received amount and keeps it when omitted", func() {
			c := repo.seed(&contract.Contract{Name: "Prepaid", OwnerID: managerID, ReceivedAmount: decimal.NewFromInt(10)})
			paid := decimal.NewFromInt(80)

			updated, err := service.SaveOrUpdate(ctx, managerID, contract.SaveContractDTO{ID: c.ID, Name: "Prepaid", CustomerID: 10, ReceivedAmount: &paid})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.ReceivedAmount.Equal(paid)).To(BeTrue())
			Expect(repo.contracts[c.ID].ReceivedAmount.Equal(paid)).To(BeTrue())

			updated, err = service.SaveOrUpdate(ctx, managerID, contract.SaveContractDTO{ID: c.ID, Name: "Prepaid", CustomerID: 10})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.ReceivedAmount.Equal(paid)).To(BeTrue())
		})

		It("rejects a negative received amount", func() {
			owed := decimal.NewFromInt(-1)

			_, err := service.SaveOrUpdate(ctx, managerID, contract.SaveContractDTO{Name: "Refund", CustomerID: 10, ReceivedAmount: &owed})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
			Expect(repo.creates).To(Equal(0))
		})

		It("draws a new number when the generated one is taken", func() {
			repo.numberTaken = 1

			c, err := service.SaveOrUpdate(ctx, managerID, contract.SaveContractDTO{Name: "Lucky", CustomerID: 10})
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.creates).To(Equal(2))
			Expect(repo.contracts).To(HaveKey(c.ID))
			Expect(c.Number).To(HaveLen(20))
		})

		It("gives up after repeated number collisions", func() {
			repo.numberTaken = 100

			_, err := service.SaveOrUpdate(ctx, managerID, contract.SaveContractDTO{Name: "Unlucky", CustomerID: 10})
			Expect(err).To(MatchError(contract.ErrContractNumberTaken))
			Expect(repo.creates).To(Equal(5))
		})
	})

	Describe("Delete", func() {
		It("refuses to delete a contract under review", func() {
			c := underReview()
			Expect(service.Delete(ctx, managerID, c.ID)).To(MatchError(contract.ErrContractUnderReview))
			Expect(repo.contracts).To(HaveKey(c.ID))
		})

		It("deletes an INIT contract", func() {
			c := repo.seed(&contract.Contract{Name: "Draft", OwnerID: managerID})
			Expect(service.Delete(ctx, managerID, c.ID)).To(Succeed())
			Expect(repo.contracts).NotTo(HaveKey(c.ID))
		})

		It("refuses other managers' contracts", func() {
			c := repo.seed(&contract.Contract{Name: "Draft", OwnerID: 99})
			Expect(service.Delete(ctx, managerID, c.ID)).To(MatchError(internal.ErrUnauthorizedAccess))
		})
	})

	Describe("StartApproval", func() {
		It("moves INIT to UNDER_REVIEW", func() {
			c := repo.seed(&contract.Contract{Name: "Draft", OwnerID: managerID})
			Expect(service.StartApproval(ctx, managerID, c.ID)).To(Succeed())
			Expect(repo.contracts[c.ID].Status).To(Equal(contract.StatusUnderReview))
		})

		DescribeTable("rejects every other status",
			func(status contract.Status) {
				c := repo.seed(&contract.Contract{Name: "x", Status: status, OwnerID: managerID})
				Expect(service.StartApproval(ctx, managerID, c.ID)).To(MatchError(contract.ErrContractNotInit))
				Expect(repo.contracts[c.ID].Status).To(Equal(status))
				Expect(repo.statusUpdates).To(Equal(0))
			},
			Entry("under review", contract.StatusUnderReview),
			Entry("approved", contract.StatusApproved),
			Entry("rejected", contract.StatusRejected),
		)

		It("reports missing contracts", func() {
			Expect(service.StartApproval(ctx, managerID, 404)).To(MatchError(contract.ErrContractNotFound))
		})

		It("refuses when the contract left INIT after it was read", func() {
			c := repo.seed(&contract.Contract{Name: "Draft", OwnerID: managerID})
			repo.beforeStatus = func(id int64) { repo.contracts[id].Status = contract.StatusUnderReview }

			Expect(service.StartApproval(ctx, managerID, c.ID)).To(MatchError(contract.ErrContractNotInit))
			Expect(repo.statusUpdates).To(Equal(0))
		})
	})

	Describe("ApprovalContract", func() {
		It("approves and records exactly one approval", func() {
			c := underReview()

			err := service.ApprovalContract(ctx, 42, contract.ApprovalDTO{ID: c.ID, Type: 0, Comment: "looks good"})
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.contracts[c.ID].Status).To(Equal(contract.StatusApproved))
			Expect(repo.approvals).To(HaveLen(1))
			Expect(repo.approvals[0].Decision).To(Equal(contract.DecisionApprove))
			Expect(repo.approvals[0].Comment).To(Equal("looks good"))
			Expect(repo.approvals[0].CreaterID).To(Equal(int64(42)))
			Expect(tx.calls).To(Equal(1))

			Expect(publisher.published).To(HaveLen(1))
			event, ok := publisher.published[0].(*events.ContractReviewedEvent)
			Expect(ok).To(BeTrue())
			Expect(event.Approved).To(BeTrue())
			Expect(event.CreaterID).To(Equal(managerID))
			Expect(event.ReviewerID).To(Equal(int64(42)))
		})

		It("rejects with decision type 1", func() {
			c := underReview()

			Expect(service.ApprovalContract(ctx, 42, contract.ApprovalDTO{ID: c.ID, Type: 1, Comment: "price too high"})).To(Succeed())
			Expect(repo.contracts[c.ID].Status).To(Equal(contract.StatusRejected))
			Expect(repo.approvals).To(HaveLen(1))
			Expect(repo.approvals[0].Decision).To(Equal(contract.DecisionReject))
		})

		It("rejects a blank comment before touching the repository", func() {
			repo.getError = errors.New("must not be called")

			err := service.ApprovalContract(ctx, 42, contract.ApprovalDTO{ID: 1, Type: 0, Comment: "   "})
			Expect(err).To(MatchError(contract.ErrCommentRequired))
			Expect(tx.calls).To(Equal(0))
		})

		It("rejects unknown decision types", func() {
			c := underReview()
			err := service.ApprovalContract(ctx, 42, contract.ApprovalDTO{ID: c.ID, Type: 2, Comment: "?"})
			Expect(err).To(MatchError(contract.ErrInvalidDecision))
			Expect(repo.contracts[c.ID].Status).To(Equal(contract.StatusUnderReview))
		})

		DescribeTable("refuses contracts that are not under review",
			func(status contract.Status) {
				c := repo.seed(&contract.Contract{Name: "x", Status: status, OwnerID: managerID})

				err := service.ApprovalContract(ctx, 42, contract.ApprovalDTO{ID: c.ID, Type: 0, Comment: "ok"})
				Expect(err).To(MatchError(contract.ErrContractNotUnderReview))
				Expect(repo.contracts[c.ID].Status).To(Equal(status))
				Expect(repo.approvalWrites).To(Equal(0))
				Expect(publisher.published).To(BeEmpty())
			},
			Entry("init", contract.StatusInit),
			Entry("approved", contract.StatusApproved),
			Entry("rejected", contract.StatusRejected),
		)

		It("reports missing contracts", func() {
			err := service.ApprovalContract(ctx, 42, contract.ApprovalDTO{ID: 404, Type: 0, Comment: "ok"})
			Expect(err).To(MatchError(contract.ErrContractNotFound))
		})

		It("records a single decision when another reviewer decides first", func() {
			c := underReview()
			repo.beforeStatus = func(id int64) { repo.contracts[id].Status = contract.StatusRejected }

			err := service.ApprovalContract(ctx, 42, contract.ApprovalDTO{ID: c.ID, Type: 0, Comment: "late"})
			Expect(err).To(MatchError(contract.ErrContractNotUnderReview))
			Expect(repo.contracts[c.ID].Status).To(Equal(contract.StatusRejected))
			Expect(repo.approvalWrites).To(Equal(0))
			Expect(publisher.published).To(BeEmpty())
		})

		It("keeps the committed decision when publishing fails", func() {
			c := underReview()
			publisher.err = errors.New("bus down")

			Expect(service.ApprovalContract(ctx, 42, contract.ApprovalDTO{ID: c.ID, Type: 0, Comment: "fine"})).To(Succeed())
			Expect(repo.contracts[c.ID].Status).To(Equal(contract.StatusApproved))
			Expect(repo.approvals).To(HaveLen(1))
		})

		It("surfaces storage failures as internal errors", func() {
			c := underReview()
			repo.statusError = errors.New("connection reset")

			err := service.ApprovalContract(ctx, 42, contract.ApprovalDTO{ID: c.ID, Type: 0, Comment: "fine"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeInternal))
			Expect(publisher.published).To(BeEmpty())
		})
	})

	Describe("GetPage", func() {
		It("rejects invalid status filters", func() {
			bad := 9
			_, err := service.GetPage(ctx, managerID, contract.PageQuery{Status: &bad}, pagination.New(1, 20))
			Expect(err).To(MatchError(contract.ErrInvalidStatus))
		})

		It("returns the manager's contracts", func() {
			repo.seed(&contract.Contract{Name: "a", OwnerID: managerID})
			repo.seed(&contract.Contract{Name: "b", OwnerID: 99})

			page, err := service.GetPage(ctx, managerID, contract.PageQuery{}, pagination.New(1, 20))
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Total).To(Equal(int64(1)))
			Expect(page.List[0].Name).To(Equal("a"))
		})
	})

	Describe("statistics", func() {
		It("reports every status even when empty", func() {
			stats.counts[contract.StatusApproved] = 3

			data, err := service.StatusPieData(ctx, managerID)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(HaveLen(4))
			Expect(data[2].Name).To(Equal("APPROVED"))
			Expect(data[2].Count).To(Equal(int64(3)))
			Expect(data[0].Count).To(BeZero())
		})

		It("counts decisions within the current day", func() {
			stats.reviewed = 5

			total, err := service.CountTodayApprovalTotal(ctx, managerID)
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(5)))
			Expect(stats.from.Hour()).To(BeZero())
			Expect(stats.to).To(Equal(stats.from.AddDate(0, 0, 1)))
		})
	})

	Describe("GenerateNumber", func() {
		It("formats the timestamp with four trailing digits", func() {
			at := time.Date(2024, 3, 9, 8, 7, 6, 0, time.UTC)
			number := contract.GenerateNumber(at)
			Expect(strings.HasPrefix(number, "HT20240309080706")).To(BeTrue())
			Expect(number).To(HaveLen(20))
		})
	})
})
