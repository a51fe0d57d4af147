package product_test

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
	"github.com/frahmantamala/crm/internal/product"
	productPostgres "github.com/frahmantamala/crm/internal/product/postgres"
)

var _ = Describe("Product Handler Integration", func() {
	var (
		db     *gorm.DB
		router chi.Router
	)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	BeforeEach(func() {
		db = openTestDB()
		h := product.NewHandler(product.NewService(
			productPostgres.NewProductRepository(db),
			database.NewTransactionManager(db),
			slog.New(slog.NewTextHandler(io.Discard, nil)),
		))

		router = chi.NewRouter()
		router.Get("/products", h.ListProducts)
		router.Post("/products", h.SaveProduct)
		router.Put("/products/status", h.BatchUpdateStatus)
		router.Get("/products/{id}", h.GetProduct)
		router.Put("/products/{id}", h.SaveProduct)
		router.Delete("/products/{id}", h.DeleteProduct)
	})

	AfterEach(func() {
		closeTestDB(db)
	})

	It("creates a product from a decimal string price", func() {
		rec := do(http.MethodPost, "/products", `{"name":"Widget","price":"12.50","stock":3,"status":1}`)
		Expect(rec.Code).To(Equal(http.StatusCreated))

		var p product.Product
		Expect(json.Unmarshal(rec.Body.Bytes(), &p)).To(Succeed())
		Expect(p.Price.String()).To(Equal("12.5"))
	})

	It("updates shelf status in bulk", func() {
		Expect(do(http.MethodPost, "/products", `{"name":"A"}`).Code).To(Equal(http.StatusCreated))
		Expect(do(http.MethodPost, "/products", `{"name":"B"}`).Code).To(Equal(http.StatusCreated))

		rec := do(http.MethodPut, "/products/status", `{"ids":[1,2],"status":1}`)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"updated":2`))
	})

	It("returns 404 for a missing product", func() {
		Expect(do(http.MethodGet, "/products/5", "").Code).To(Equal(http.StatusNotFound))
	})

	It("returns 400 for a bad id", func() {
		Expect(do(http.MethodDelete, "/products/abc", "").Code).To(Equal(http.StatusBadRequest))
	})
})
