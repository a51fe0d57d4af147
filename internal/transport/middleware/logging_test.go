package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("request logging", func() {
	It("masks sensitive JSON fields at any depth", func() {
		out := filterSensitiveBody([]byte(`{"account":"jane","password":"p","nested":{"access_token":"t"}}`))
		Expect(out).To(ContainSubstring(`"account":"jane"`))
		Expect(out).NotTo(ContainSubstring(`"p"`))
		Expect(out).NotTo(ContainSubstring(`"t"`))
	})

	It("masks the authorization header", func() {
		h := http.Header{}
		h.Set("Authorization", "Bearer abc")
		h.Set("Accept", "application/json")
		filtered := filterSensitiveHeaders(h)
		Expect(filtered["Authorization"]).To(Equal("[FILTERED]"))
		Expect(filtered["Accept"]).To(Equal("application/json"))
	})

	It("omits non JSON response bodies and keeps the full response intact", func() {
		var buf bytes.Buffer
		lg := slog.New(slog.NewJSONHandler(&buf, nil))
		csv := strings.Repeat("1,Jane,13800000000\n", 500)

		h := LoggingMiddleware(lg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/csv")
			w.Write([]byte(csv))
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/customers/export", nil))

		Expect(rec.Body.String()).To(Equal(csv))
		Expect(buf.String()).To(ContainSubstring("[omitted]"))
		Expect(buf.String()).NotTo(ContainSubstring("13800000000"))
	})
})
