package product

import (
	"log/slog"
	"net/http"

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

func (h *Handler) productID(w http.ResponseWriter, r *http.Request, op string) (int64, bool) {
	id, ok := h.URLParamInt64(r, "id")
	if !ok {
		h.Logger.Error(op+": invalid product ID", "path", r.URL.Path)
		h.WriteError(w, http.StatusBadRequest, "invalid product ID")
		return 0, false
	}
	return id, true
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	status, err := h.QueryOptionalInt(r, "status")
	if err != nil {
		h.HandleServiceError(w, ErrInvalidStatus)
		return
	}
	query := PageQuery{Name: r.URL.Query().Get("name"), Status: status}

	page, err := h.Service.GetPage(r.Context(), query, pagination.Parse(r.URL.Query()))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r, "GetProduct")
	if !ok {
		return
	}

	p, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, p)
}

// SaveProduct serves both POST (create) and PUT /{id} (edit).
func (h *Handler) SaveProduct(w http.ResponseWriter, r *http.Request) {
	var dto SaveProductDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.Logger.Error("SaveProduct: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status := http.StatusCreated
	if r.Method == http.MethodPut {
		id, ok := h.productID(w, r, "SaveProduct")
		if !ok {
			return
		}
		dto.ID = id
		status = http.StatusOK
	} else {
		dto.ID = 0
	}

	p, err := h.Service.SaveOrEdit(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, status, p)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r, "DeleteProduct")
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) BatchUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var dto BatchStatusDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.Logger.Error("BatchUpdateStatus: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.Service.BatchUpdateStatus(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}
