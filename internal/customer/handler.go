package customer

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/frahmantamala/crm/internal"
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

func (h *Handler) customerID(w http.ResponseWriter, r *http.Request, op string) (int64, bool) {
	id, ok := h.URLParamInt64(r, "id")
	if !ok {
		h.Logger.Error(op+": invalid customer ID", "path", r.URL.Path)
		h.WriteError(w, http.StatusBadRequest, "invalid customer ID")
		return 0, false
	}
	return id, true
}

func (h *Handler) pageQuery(r *http.Request) (PageQuery, error) {
	level, err := h.QueryOptionalInt(r, "level")
	if err != nil {
		return PageQuery{}, internal.NewValidationFieldError("level", "level must be a number", internal.ErrCodeValidationFailed)
	}
	return PageQuery{
		Name:  r.URL.Query().Get("name"),
		Phone: r.URL.Query().Get("phone"),
		Level: level,
	}, nil
}

func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	manager, ok := h.currentManager(w, r, "ListCustomers")
	if !ok {
		return
	}
	query, err := h.pageQuery(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	page, err := h.Service.GetPage(r.Context(), manager.ManagerID, query, pagination.Parse(r.URL.Query()))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	manager, ok := h.currentManager(w, r, "GetCustomer")
	if !ok {
		return
	}
	id, ok := h.customerID(w, r, "GetCustomer")
	if !ok {
		return
	}

	c, err := h.Service.Get(r.Context(), manager.ManagerID, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, c)
}

// SaveCustomer serves both POST (create) and PUT /{id} (update).
func (h *Handler) SaveCustomer(w http.ResponseWriter, r *http.Request) {
	manager, ok := h.currentManager(w, r, "SaveCustomer")
	if !ok {
		return
	}

	var dto SaveCustomerDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.Logger.Error("SaveCustomer: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status := http.StatusCreated
	if r.Method == http.MethodPut {
		id, ok := h.customerID(w, r, "SaveCustomer")
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
	h.WriteJSON(w, status, c)
}

func (h *Handler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	manager, ok := h.currentManager(w, r, "DeleteCustomer")
	if !ok {
		return
	}
	id, ok := h.customerID(w, r, "DeleteCustomer")
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), manager.ManagerID, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportCustomers streams the filtered customer list as a CSV attachment.
// The body is buffered so a failure can still be reported as JSON.
func (h *Handler) ExportCustomers(w http.ResponseWriter, r *http.Request) {
	manager, ok := h.currentManager(w, r, "ExportCustomers")
	if !ok {
		return
	}
	query, err := h.pageQuery(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := h.Service.Export(r.Context(), manager.ManagerID, query, &buf); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	filename := fmt.Sprintf("customers_%s.csv", time.Now().Format("20060102150405"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.Logger.Error("ExportCustomers: failed to write response", "error", err)
	}
}
