package contract_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/crm/internal/contract"
	"github.com/frahmantamala/crm/internal/core/session"
	"github.com/frahmantamala/crm/pkg/pagination"
)

type stubContractService struct {
	lastApproval contract.ApprovalDTO
	lastSave     contract.SaveContractDTO
	lastManager  int64
	err          error
}

func (s *stubContractService) GetPage(_ context.Context, managerID int64, _ contract.PageQuery, p pagination.Params) (pagination.Page[*contract.Contract], error) {
	s.lastManager = managerID
	return pagination.NewPage([]*contract.Contract{{ID: 1, Name: "alpha"}}, 1, p), s.err
}

func (s *stubContractService) Get(_ context.Context, id int64) (*contract.Contract, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &contract.Contract{ID: id, Name: "alpha"}, nil
}

func (s *stubContractService) SaveOrUpdate(_ context.Context, managerID int64, dto contract.SaveContractDTO) (*contract.Contract, error) {
	s.lastManager = managerID
	s.lastSave = dto
	if s.err != nil {
		return nil, s.err
	}
	return &contract.Contract{ID: 5, Name: dto.Name}, nil
}

func (s *stubContractService) Delete(_ context.Context, _, _ int64) error { return s.err }

func (s *stubContractService) StartApproval(_ context.Context, _, _ int64) error { return s.err }

func (s *stubContractService) ApprovalContract(_ context.Context, managerID int64, dto contract.ApprovalDTO) error {
	s.lastManager = managerID
	s.lastApproval = dto
	return s.err
}

func (s *stubContractService) ListApprovals(_ context.Context, _ int64) ([]*contract.Approval, error) {
	return []*contract.Approval{}, s.err
}

func (s *stubContractService) StatusPieData(_ context.Context, _ int64) ([]contract.StatusCount, error) {
	return []contract.StatusCount{}, s.err
}

func (s *stubContractService) CountTodayApprovalTotal(_ context.Context, _ int64) (int64, error) {
	return 3, s.err
}

var _ = Describe("Contract Handler", func() {
	var (
		svc    *stubContractService
		router chi.Router
	)

	BeforeEach(func() {
		svc = &stubContractService{}
		h := contract.NewHandler(svc)

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("X-Test-Anonymous") == "" {
					r = r.WithContext(session.WithDetail(r.Context(), &session.Detail{ManagerID: 7}))
				}
				next.ServeHTTP(w, r)
			})
		})
		router.Get("/contracts", h.ListContracts)
		router.Post("/contracts", h.SaveContract)
		router.Put("/contracts/{id}", h.SaveContract)
		router.Get("/contracts/{id}", h.GetContract)
		router.Post("/contracts/{id}/approval", h.ApproveContract)
		router.Get("/contracts/stats/today-approvals", h.TodayApprovals)
	})

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	It("lists contracts for the current manager", func() {
		rec := serve(httptest.NewRequest(http.MethodGet, "/contracts?page=1&limit=10", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(svc.lastManager).To(Equal(int64(7)))

		var body map[string]interface{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body["total"]).To(BeEquivalentTo(1))
		Expect(body["limit"]).To(BeEquivalentTo(10))
	})

	It("rejects a non-numeric status filter", func() {
		rec := serve(httptest.NewRequest(http.MethodGet, "/contracts?status=abc", nil))
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("requires an authenticated manager", func() {
		req := httptest.NewRequest(http.MethodGet, "/contracts", nil)
		req.Header.Set("X-Test-Anonymous", "1")
		Expect(serve(req).Code).To(Equal(http.StatusUnauthorized))
	})

	It("creates contracts ignoring any id in the body", func() {
		body := bytes.NewBufferString(`{"id": 9, "name": "alpha", "customer_id": 1}`)
		rec := serve(httptest.NewRequest(http.MethodPost, "/contracts", body))
		Expect(rec.Code).To(Equal(http.StatusCreated))
		Expect(svc.lastSave.ID).To(BeZero())
	})

	It("updates the contract named by the path", func() {
		body := bytes.NewBufferString(`{"name": "alpha", "customer_id": 1}`)
		rec := serve(httptest.NewRequest(http.MethodPut, "/contracts/12", body))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(svc.lastSave.ID).To(Equal(int64(12)))
	})

	It("maps service errors onto their status codes", func() {
		svc.err = contract.ErrContractNotFound
		rec := serve(httptest.NewRequest(http.MethodGet, "/contracts/3", nil))
		Expect(rec.Code).To(Equal(http.StatusNotFound))

		var body map[string]map[string]interface{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body["error"]["message"]).To(Equal("contract not found"))
	})

	It("passes the decision to the service", func() {
		body := bytes.NewBufferString(`{"type": 1, "comment": "too expensive"}`)
		rec := serve(httptest.NewRequest(http.MethodPost, "/contracts/4/approval", body))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(svc.lastApproval.ID).To(Equal(int64(4)))
		Expect(svc.lastApproval.Type).To(Equal(1))
		Expect(rec.Body.String()).To(ContainSubstring("REJECTED"))
	})

	It("returns 400 for a blank approval comment", func() {
		svc.err = contract.ErrCommentRequired
		body := bytes.NewBufferString(`{"type": 0, "comment": ""}`)
		rec := serve(httptest.NewRequest(http.MethodPost, "/contracts/4/approval", body))
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("reports today's decisions", func() {
		rec := serve(httptest.NewRequest(http.MethodGet, "/contracts/stats/today-approvals", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"total":3`))
	})
})
