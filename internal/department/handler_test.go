package department_test

import (
	"bytes"
	"context"
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
	"github.com/frahmantamala/crm/internal/department"
	departmentPostgres "github.com/frahmantamala/crm/internal/department/postgres"
)

var _ = Describe("Department Handler Integration", func() {
	var (
		db     *gorm.DB
		router chi.Router
		detail *session.Detail
	)

	BeforeEach(func() {
		db = openTestDB()
		service := department.NewService(
			departmentPostgres.NewDepartmentRepository(db),
			database.NewTransactionManager(db),
			slog.New(slog.NewTextHandler(io.Discard, nil)),
		)
		h := department.NewHandler(service)
		detail = nil

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if detail != nil {
					r = r.WithContext(session.WithDetail(r.Context(), detail))
				}
				next.ServeHTTP(w, r)
			})
		})
		router.Get("/departments", h.GetTree)
		router.Get("/departments/info", h.GetInfo)
		router.Post("/departments", h.CreateDepartment)
		router.Get("/departments/{id}", h.GetDepartment)
		router.Put("/departments/{id}", h.UpdateDepartment)
		router.Delete("/departments/{id}", h.DeleteDepartment)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/departments", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	It("creates a department and returns 201", func() {
		rec := post(`{"name":"HQ","parent_id":0}`)
		Expect(rec.Code).To(Equal(http.StatusCreated))

		var body department.Department
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body.ParentIDs).To(Equal("0"))
	})

	It("returns 400 for malformed JSON", func() {
		rec := post(`{"name":`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 409 when deleting a department with children", func() {
		Expect(post(`{"name":"HQ"}`).Code).To(Equal(http.StatusCreated))
		Expect(post(`{"name":"Sales","parent_id":1}`).Code).To(Equal(http.StatusCreated))

		req := httptest.NewRequest(http.MethodDelete, "/departments/1", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		Expect(rec.Code).To(Equal(http.StatusConflict))
	})

	It("returns the caller's accessible departments", func() {
		Expect(post(`{"name":"HQ"}`).Code).To(Equal(http.StatusCreated))
		Expect(post(`{"name":"Sales","parent_id":1}`).Code).To(Equal(http.StatusCreated))
		detail = &session.Detail{ManagerID: 1, DepartID: 1}

		req := httptest.NewRequest(http.MethodGet, "/departments/info", nil).WithContext(context.Background())
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		Expect(rec.Code).To(Equal(http.StatusOK))

		var info department.Info
		Expect(json.Unmarshal(rec.Body.Bytes(), &info)).To(Succeed())
		Expect(info.AccessibleIDs).To(ConsistOf(int64(1), int64(2)))
	})

	It("returns 401 for info without a session", func() {
		req := httptest.NewRequest(http.MethodGet, "/departments/info", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
	})
})
