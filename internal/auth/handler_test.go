package auth_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/crm/internal"
	"github.com/frahmantamala/crm/internal/auth"
	"github.com/frahmantamala/crm/internal/core/session"
)

type stubAuthService struct {
	loggedOut string
	authErr   error
}

func (s *stubAuthService) Login(_ context.Context, dto auth.LoginDTO) (*auth.LoginResponse, error) {
	if dto.Password != "secret" {
		return nil, internal.ErrInvalidCredentials
	}
	return &auth.LoginResponse{AccessToken: "tok", TokenType: "Bearer", DepartID: 4, DepartName: "Sales"}, nil
}

func (s *stubAuthService) Logout(_ context.Context, token string) error {
	s.loggedOut = token
	return nil
}

func (s *stubAuthService) Authenticate(_ context.Context, token string) (*session.Detail, error) {
	if s.authErr != nil {
		return nil, s.authErr
	}
	return &session.Detail{ManagerID: 5, Account: token}, nil
}

var _ = Describe("Auth Handler", func() {
	var (
		svc *stubAuthService
		h   *auth.Handler
	)

	BeforeEach(func() {
		svc = &stubAuthService{}
		h = auth.NewHandler(svc)
	})

	It("returns the token and department on login", func() {
		rec := httptest.NewRecorder()
		h.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"account":"a","password":"secret"}`)))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"dept_name":"Sales"`))
	})

	It("answers 401 for bad credentials", func() {
		rec := httptest.NewRecorder()
		h.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"account":"a","password":"nope"}`)))
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		Expect(rec.Body.String()).To(ContainSubstring("invalid account or password"))
	})

	It("logs out the bearer token", func() {
		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()
		h.Logout(rec, req)
		Expect(rec.Code).To(Equal(http.StatusNoContent))
		Expect(svc.loggedOut).To(Equal("tok"))
	})

	Describe("AuthMiddleware", func() {
		var seen *session.Detail

		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = session.FromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		})

		BeforeEach(func() { seen = nil })

		It("puts the session on the context", func() {
			req := httptest.NewRequest(http.MethodGet, "/contracts", nil)
			req.Header.Set("Authorization", "Bearer tok")
			rec := httptest.NewRecorder()
			h.AuthMiddleware(next).ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(seen).NotTo(BeNil())
			Expect(seen.ManagerID).To(Equal(int64(5)))
		})

		It("rejects requests without a token", func() {
			rec := httptest.NewRecorder()
			h.AuthMiddleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/contracts", nil))
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(seen).To(BeNil())
		})

		It("rejects expired sessions", func() {
			svc.authErr = internal.ErrSessionExpired
			req := httptest.NewRequest(http.MethodGet, "/contracts", nil)
			req.Header.Set("Authorization", "Bearer tok")
			rec := httptest.NewRecorder()
			h.AuthMiddleware(next).ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(rec.Body.String()).To(ContainSubstring("session expired"))
		})
	})
})
