package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
	ErrorTypeExternal     ErrorType = "EXTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidAmount    ErrorCode = "INVALID_AMOUNT"
	ErrCodeInvalidStatus    ErrorCode = "INVALID_STATUS"

	ErrCodeContractNotFound       ErrorCode = "CONTRACT_NOT_FOUND"
	ErrCodeContractNameExists     ErrorCode = "CONTRACT_NAME_EXISTS"
	ErrCodeContractUnderReview    ErrorCode = "CONTRACT_UNDER_REVIEW"
	ErrCodeContractNotInit        ErrorCode = "CONTRACT_NOT_INIT"
	ErrCodeContractNotUnderReview ErrorCode = "CONTRACT_NOT_UNDER_REVIEW"
	ErrCodeContractNumberTaken    ErrorCode = "CONTRACT_NUMBER_TAKEN"
	ErrCodeCommentRequired        ErrorCode = "APPROVAL_COMMENT_REQUIRED"
	ErrCodeInvalidDecision        ErrorCode = "INVALID_APPROVAL_DECISION"

	ErrCodeCustomerNotFound    ErrorCode = "CUSTOMER_NOT_FOUND"
	ErrCodeCustomerPhoneExists ErrorCode = "CUSTOMER_PHONE_EXISTS"
	ErrCodeCustomerInUse       ErrorCode = "CUSTOMER_IN_USE"

	ErrCodeProductNotFound   ErrorCode = "PRODUCT_NOT_FOUND"
	ErrCodeProductNameExists ErrorCode = "PRODUCT_NAME_EXISTS"

	ErrCodeManagerNotFound      ErrorCode = "MANAGER_NOT_FOUND"
	ErrCodeAccountExists        ErrorCode = "ACCOUNT_EXISTS"
	ErrCodeUnknownPermission    ErrorCode = "UNKNOWN_PERMISSION"
	ErrCodeCannotDisableSelf    ErrorCode = "CANNOT_DISABLE_SELF"
	ErrCodeDepartmentNotFound   ErrorCode = "DEPARTMENT_NOT_FOUND"
	ErrCodeDepartmentNotEmpty   ErrorCode = "DEPARTMENT_NOT_EMPTY"
	ErrCodeInvalidParent        ErrorCode = "INVALID_PARENT_DEPARTMENT"
	ErrCodeUnauthorizedAccess   ErrorCode = "UNAUTHORIZED_ACCESS"
	ErrCodeInvalidCredentials   ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeAccountDisabled      ErrorCode = "ACCOUNT_DISABLED"
	ErrCodeDepartmentUnassigned ErrorCode = "DEPARTMENT_UNASSIGNED"
	ErrCodeInvalidToken         ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired         ErrorCode = "TOKEN_EXPIRED"
	ErrCodeSessionExpired       ErrorCode = "SESSION_EXPIRED"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok {
			if len(validationErrors.Errors) == 1 {
				return validationErrors.Errors[0].Message
			} else if len(validationErrors.Errors) > 1 {
				messages := make([]string, len(validationErrors.Errors))
				for i, err := range validationErrors.Errors {
					messages[i] = err.Message
				}
				return strings.Join(messages, "; ")
			}
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCause returns a copy carrying cause, leaving shared sentinels untouched.
func (e *AppError) WithCause(cause error) *AppError {
	cp := *e
	cp.Cause = cause
	return &cp
}

// WithDetails returns a copy carrying details.
func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

var (
	ErrUnauthorizedAccess = NewForbiddenError("unauthorized access", ErrCodeUnauthorizedAccess)
	ErrInvalidCredentials = NewUnauthorizedError("invalid account or password", ErrCodeInvalidCredentials)
	ErrAccountDisabled    = NewForbiddenError("account disabled", ErrCodeAccountDisabled)
	ErrInvalidToken       = NewUnauthorizedError("invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("token has expired", ErrCodeTokenExpired)
	ErrSessionExpired     = NewUnauthorizedError("session expired", ErrCodeSessionExpired)
)

// IsAppError reports whether err is, or wraps, an *AppError.
func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
