package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/crm/internal/core/session"
	"github.com/frahmantamala/crm/internal/transport"
	"github.com/frahmantamala/crm/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.Service.Login(r.Context(), dto)
	if err != nil {
		h.Logger.Warn("authentication failed", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := h.ExtractTokenFromHeader(r)
	if token == "" {
		h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
		return
	}

	if err := h.Service.Logout(r.Context(), token); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AuthMiddleware admits requests whose bearer token is valid and still has a
// live session, and puts the session detail on the request context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.Logger.Warn("auth middleware: missing authorization token", "path", r.URL.Path)
			h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		detail, err := h.Service.Authenticate(r.Context(), token)
		if err != nil {
			h.Logger.Warn("auth middleware: rejected token", "error", err, "path", r.URL.Path)
			h.HandleServiceError(w, err)
			return
		}

		ctx := session.WithDetail(r.Context(), detail)
		ctx = logger.With(ctx, "manager_id", detail.ManagerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
