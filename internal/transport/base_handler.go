package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/frahmantamala/crm/internal"
	"github.com/frahmantamala/crm/pkg/logger"
	"github.com/go-chi/chi"
)

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes an error response for failures detected in the handler itself.
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	appErr := &internal.AppError{
		Type:       errorTypeForStatus(status),
		Code:       internal.ErrorCode(strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))),
		Message:    message,
		StatusCode: status,
	}
	h.writeAppError(w, appErr)
}

// HandleServiceError maps a service error onto an HTTP response. Anything that
// is not an *AppError is reported as an internal error without leaking details.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, err error) {
	if appErr, ok := internal.IsAppError(err); ok {
		if appErr.StatusCode >= http.StatusInternalServerError {
			h.Logger.Error("service failure", "error", err)
		}
		h.writeAppError(w, appErr)
		return
	}

	h.Logger.Error("unexpected service error", "error", err)
	h.writeAppError(w, internal.NewInternalError("internal server error", err))
}

func (h *BaseHandler) writeAppError(w http.ResponseWriter, appErr *internal.AppError) {
	status, body := appErr.ToHTTPResponse()
	if status == 0 {
		status = http.StatusInternalServerError
	}
	h.WriteJSON(w, status, body)
}

// DecodeJSON decodes the request body into dst.
func (h *BaseHandler) DecodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return errors.New("empty request body")
	}
	return json.NewDecoder(r.Body).Decode(dst)
}

// URLParamInt64 parses a positive numeric chi route parameter.
func (h *BaseHandler) URLParamInt64(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// QueryInt64 parses an optional numeric query parameter; absent or invalid
// values return 0.
func (h *BaseHandler) QueryInt64(r *http.Request, name string) int64 {
	v, err := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// QueryOptionalInt parses an optional numeric query parameter, reporting nil
// when it is absent.
func (h *BaseHandler) QueryOptionalInt(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ExtractTokenFromHeader extracts Bearer token from Authorization header
func (h *BaseHandler) ExtractTokenFromHeader(r *http.Request) string {
	return ExtractBearerToken(r)
}

func ExtractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(authHeader[7:])
}

func errorTypeForStatus(status int) internal.ErrorType {
	switch status {
	case http.StatusBadRequest:
		return internal.ErrorTypeValidation
	case http.StatusUnauthorized:
		return internal.ErrorTypeUnauthorized
	case http.StatusForbidden:
		return internal.ErrorTypeForbidden
	case http.StatusNotFound:
		return internal.ErrorTypeNotFound
	case http.StatusConflict:
		return internal.ErrorTypeConflict
	}
	return internal.ErrorTypeInternal
}
