package contract

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

func (h *Handler) currentManager(w http.ResponseWriter, r *http.Request, op string) (*session.Detail, bool) {
	detail, ok := session.FromContext(r.Context())
	if !ok {
		h.Logger.Error(op + ": manager not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	return detail, true
}

func (h *Handler) contractID(w http.ResponseWriter, r *http.Request, op string) (int64, bool) {
	id, ok := h.URLParamInt64(r, "id")
	if !ok {
		h.Logger.Error(op+": invalid contract ID", "id", r.URL.Path)
		h.WriteError(w, http.StatusBadRequest, "invalid contract ID")
		return 0, false
	}
	return id, true
}

func (h *Handler) ListContracts(w http.ResponseWriter, r *http.Request) {
	manager, ok := h.currentManager(w, r, "ListContracts")
	if !ok {
		return
	}

	status, err := h.QueryOptionalInt(r, "status")
	if err != nil {
		h.HandleServiceError(w, ErrInvalidStatus)
		return
	}
	query := PageQuery{
		Name:       r.URL.Query().Get("name"),
		CustomerID: h.QueryInt64(r, "customer_id"),
		Status:     status,
	}

	page, err := h.Service.GetPage(r.Context(), manager.ManagerID, query, pagination.Parse(r.URL.Query()))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) GetContract(w http.ResponseWriter, r *http.Request) {
	id, ok := h.contractID(w, r, "GetContract")
	if !ok {
		return
	}

	c, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, c)
}

// SaveContract serves both POST (create) and PUT /{id} (update).
func (h *Handler) SaveContract(w http.ResponseWriter, r *http.Request) {
	manager, ok := h.currentManager(w, r, "SaveContract")
	if !ok {
		return
	}

	var dto SaveContractDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.Logger.Error("SaveContract: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status := http.StatusCreated
	if r.Method == http.MethodPut {
		id, ok := h.contractID(w, r, "SaveContract")
		if !ok {
			return
		}
		dto.ID = id
		status = http.StatusOK
	} else {
		dto.ID = 0
	}

	c, err := h.Service.SaveOrUpdate(r.Context(), manager.ManagerID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("SaveContract: contract saved", "contract_id", c.ID, "manager_id", manager.ManagerID)
	h.WriteJSON(w, status, c)
}

func (h *Handler) DeleteContract(w http.ResponseWriter, r *http.Request) {
	manager, ok := h.currentManager(w, r, "DeleteContract")
	if !ok {
		return
	}
	id, ok := h.contractID(w, r, "DeleteContract")
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), manager.ManagerID, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) StartApproval(w http.ResponseWriter, r *http.Request) {
	manager, ok := h.currentManager(w, r, "StartApproval")
	if !ok {
		return
	}
	id, ok := h.contractID(w, r, "StartApproval")
	if !ok {
		return
	}

	if err := h.Service.StartApproval(r.Context(), manager.ManagerID, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"status": StatusUnderReview.String()})
}

func (h *Handler) ApproveContract(w http.ResponseWriter, r *http.Request) {
	manager, ok := h.currentManager(w, r, "ApproveContract")
	if !ok {
		return
	}
	id, ok := h.contractID(w, r, "ApproveContract")
	if !ok {
		return
	}

	var dto ApprovalDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.Logger.Error("ApproveContract: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	dto.ID = id

	if err := h.Service.ApprovalContract(r.Context(), manager.ManagerID, dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("ApproveContract: decision recorded",
		"contract_id", id,
		"manager_id", manager.ManagerID,
		"type", dto.Type)
	h.WriteJSON(w, http.StatusOK, map[string]string{"status": Decision(dto.Type).Outcome().String()})
}

func (h *Handler) ListApprovals(w http.ResponseWriter, r *http.Request) {
	id, ok := h.contractID(w, r, "ListApprovals")
	if !ok {
		return
	}

	list, err := h.Service.ListApprovals(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"list": list})
}

func (h *Handler) StatusStats(w http.ResponseWriter, r *http.Request) {
	manager, ok := h.currentManager(w, r, "StatusStats")
	if !ok {
		return
	}

	data, err := h.Service.StatusPieData(r.Context(), manager.ManagerID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"list": data})
}

func (h *Handler) TodayApprovals(w http.ResponseWriter, r *http.Request) {
	manager, ok := h.currentManager(w, r, "TodayApprovals")
	if !ok {
		return
	}

	total, err := h.Service.CountTodayApprovalTotal(r.Context(), manager.ManagerID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]int64{"total": total})
}
