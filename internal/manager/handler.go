package manager

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/crm/internal/core/session"
	"github.com/frahmantamala/crm/internal/transport"
	"github.com/frahmantamala/crm/pkg/logger"
	"github.com/frahmantamala/crm/pkg/pagination"
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

func (h *Handler) managerID(w http.ResponseWriter, r *http.Request, op string) (int64, bool) {
	id, ok := h.URLParamInt64(r, "id")
	if !ok {
		h.Logger.Error(op+": invalid manager ID", "path", r.URL.Path)
		h.WriteError(w, http.StatusBadRequest, "invalid manager ID")
		return 0, false
	}
	return id, true
}

func (h *Handler) ListManagers(w http.ResponseWriter, r *http.Request) {
	status, err := h.QueryOptionalInt(r, "status")
	if err != nil {
		h.HandleServiceError(w, ErrInvalidStatus)
		return
	}
	query := PageQuery{
		Name:     r.URL.Query().Get("name"),
		DepartID: h.QueryInt64(r, "depart_id"),
		Status:   status,
	}

	page, err := h.Service.Page(r.Context(), query, pagination.Parse(r.URL.Query()))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) GetManager(w http.ResponseWriter, r *http.Request) {
	id, ok := h.managerID(w, r, "GetManager")
	if !ok {
		return
	}

	m, err := h.Service.GetByID(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	detail, ok := session.FromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	m, err := h.Service.Me(r.Context(), detail.ManagerID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) CreateManager(w http.ResponseWriter, r *http.Request) {
	var dto CreateManagerDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.Logger.Error("CreateManager: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, m)
}

func (h *Handler) UpdateManager(w http.ResponseWriter, r *http.Request) {
	id, ok := h.managerID(w, r, "UpdateManager")
	if !ok {
		return
	}

	var dto UpdateManagerDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.Logger.Error("UpdateManager: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m, err := h.Service.Update(r.Context(), id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	detail, ok := session.FromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := h.managerID(w, r, "ChangeStatus")
	if !ok {
		return
	}

	var dto ChangeStatusDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.Logger.Error("ChangeStatus: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.ChangeStatus(r.Context(), detail.ManagerID, id, dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]int{"status": dto.Status})
}

func (h *Handler) GrantPermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.managerID(w, r, "GrantPermissions")
	if !ok {
		return
	}

	var dto GrantPermissionsDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.Logger.Error("GrantPermissions: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m, err := h.Service.GrantPermissions(r.Context(), id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, m)
}
