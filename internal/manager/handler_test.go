package manager_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/frahmantamala/crm/internal/core/database"
	"github.com/frahmantamala/crm/internal/core/session"
	"github.com/frahmantamala/crm/internal/manager"
	managerPostgres "github.com/frahmantamala/crm/internal/manager/postgres"
)

var _ = Describe("Manager Handler Integration", func() {
	var (
		db     *gorm.DB
		router chi.Router
		detail *session.Detail
	)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	BeforeEach(func() {
		db = openTestDB()
		service := manager.NewService(
			managerPostgres.NewManagerRepository(db),
			fakeHasher{},
			database.NewTransactionManager(db),
			slog.New(slog.NewTextHandler(io.Discard, nil)),
		)
		h := manager.NewHandler(service)
		detail = &session.Detail{ManagerID: 1, Account: "alice"}

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(session.WithDetail(r.Context(), detail)))
			})
		})
		router.Get("/managers", h.ListManagers)
		router.Post("/managers", h.CreateManager)
		router.Get("/managers/me", h.Me)
		router.Put("/managers/{id}/status", h.ChangeStatus)
		router.Put("/managers/{id}/permissions", h.GrantPermissions)
	})

	AfterEach(func() {
		closeTestDB(db)
	})

	It("creates a manager without exposing the password hash", func() {
		rec := do(http.MethodPost, "/managers", `{"account":"alice","password":"secret123","name":"Alice","depart_id":1}`)
		Expect(rec.Code).To(Equal(http.StatusCreated))
		Expect(rec.Body.String()).NotTo(ContainSubstring("hashed"))
		Expect(rec.Body.String()).NotTo(ContainSubstring("password"))
	})

	It("returns 409 for a duplicate account", func() {
		Expect(do(http.MethodPost, "/managers", `{"account":"alice","password":"secret123","name":"Alice","depart_id":1}`).Code).To(Equal(http.StatusCreated))
		rec := do(http.MethodPost, "/managers", `{"account":"alice","password":"secret123","name":"Alice","depart_id":1}`)
		Expect(rec.Code).To(Equal(http.StatusConflict))
	})

	It("returns the current manager profile", func() {
		Expect(do(http.MethodPost, "/managers", `{"account":"alice","password":"secret123","name":"Alice","depart_id":1}`).Code).To(Equal(http.StatusCreated))
		Expect(do(http.MethodPut, "/managers/1/permissions", `{"permissions":["admin"]}`).Code).To(Equal(http.StatusOK))

		rec := do(http.MethodGet, "/managers/me", "")
		Expect(rec.Code).To(Equal(http.StatusOK))

		var m manager.Manager
		Expect(json.Unmarshal(rec.Body.Bytes(), &m)).To(Succeed())
		Expect(m.Account).To(Equal("alice"))
		Expect(m.DepartName).To(Equal("Sales"))
		Expect(m.Permissions).To(ConsistOf("admin"))
	})

	It("returns 400 when a manager disables themself", func() {
		Expect(do(http.MethodPost, "/managers", `{"account":"alice","password":"secret123","name":"Alice","depart_id":1}`).Code).To(Equal(http.StatusCreated))
		rec := do(http.MethodPut, "/managers/1/status", `{"status":0}`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("rejects a non-numeric status filter", func() {
		rec := do(http.MethodGet, "/managers?status=x", "")
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})
})
