package department

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

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) departmentID(w http.ResponseWriter, r *http.Request, op string) (int64, bool) {
	id, ok := h.URLParamInt64(r, "id")
	if !ok {
		h.Logger.Error(op+": invalid department ID", "path", r.URL.Path)
		h.WriteError(w, http.StatusBadRequest, "invalid department ID")
		return 0, false
	}
	return id, true
}

func (h *Handler) GetTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.Service.Tree(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"list": tree})
}

func (h *Handler) GetDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.departmentID(w, r, "GetDepartment")
	if !ok {
		return
	}

	d, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, d)
}

// GetInfo returns the calling manager's department scope.
func (h *Handler) GetInfo(w http.ResponseWriter, r *http.Request) {
	detail, ok := session.FromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	info, err := h.Service.Info(r.Context(), detail.DepartID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, info)
}

func (h *Handler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	var dto SaveDepartmentDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.Logger.Error("CreateDepartment: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, d)
}

func (h *Handler) UpdateDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.departmentID(w, r, "UpdateDepartment")
	if !ok {
		return
	}

	var dto SaveDepartmentDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.Logger.Error("UpdateDepartment: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d, err := h.Service.Update(r.Context(), id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) DeleteDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.departmentID(w, r, "DeleteDepartment")
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
