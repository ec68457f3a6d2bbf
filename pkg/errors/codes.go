package errors

import "net/http"

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeTimeout            ErrorCode = "COMMON_005"
	ErrCodeValidation         ErrorCode = "COMMON_006"
	ErrCodeSerialization      ErrorCode = "COMMON_007"
	ErrCodeDatabaseError      ErrorCode = "COMMON_008"
	ErrCodeCacheError         ErrorCode = "COMMON_009"
	ErrCodeExternalService    ErrorCode = "COMMON_010"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_011"
)

// Deal module error codes.
const (
	ErrCodeDealNotFound          ErrorCode = "DEAL_001"
	ErrCodeDealInvalidTransition ErrorCode = "DEAL_002"
	ErrCodeDealClosingValue      ErrorCode = "DEAL_003"
	ErrCodeDealLostReason        ErrorCode = "DEAL_004"
	ErrCodeDealFrozen            ErrorCode = "DEAL_005"
	ErrCodeFollowUpEmpty         ErrorCode = "DEAL_006"
)

// Reminder and client module error codes.
const (
	ErrCodeReminderNotFound ErrorCode = "REM_001"
	ErrCodeClientNotFound   ErrorCode = "CLI_001"
)

// Assistant (AI collaborator) error codes.
const (
	ErrCodeAssistantUnavailable ErrorCode = "AST_001"
	ErrCodeAssistantTimeout     ErrorCode = "AST_002"
	ErrCodeAssistantBadResponse ErrorCode = "AST_003"
)

// CodeOK is the sentinel for "no error".
const CodeOK = ErrorCode("OK")

// errorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var errorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,

	ErrCodeDealNotFound:          http.StatusNotFound,
	ErrCodeDealInvalidTransition: http.StatusUnprocessableEntity,
	ErrCodeDealClosingValue:      http.StatusUnprocessableEntity,
	ErrCodeDealLostReason:        http.StatusUnprocessableEntity,
	ErrCodeDealFrozen:            http.StatusUnprocessableEntity,
	ErrCodeFollowUpEmpty:         http.StatusUnprocessableEntity,

	ErrCodeReminderNotFound: http.StatusNotFound,
	ErrCodeClientNotFound:   http.StatusNotFound,

	ErrCodeAssistantUnavailable: http.StatusServiceUnavailable,
	ErrCodeAssistantTimeout:     http.StatusGatewayTimeout,
	ErrCodeAssistantBadResponse: http.StatusBadGateway,
}

// validationCodes is the set of codes callers may treat as locally
// recoverable input problems rather than system failures.
var validationCodes = map[ErrorCode]bool{
	ErrCodeBadRequest:            true,
	ErrCodeValidation:            true,
	ErrCodeDealInvalidTransition: true,
	ErrCodeDealClosingValue:      true,
	ErrCodeDealLostReason:        true,
	ErrCodeDealFrozen:            true,
	ErrCodeFollowUpEmpty:         true,
}

// notFoundCodes is the set of codes that answer true to IsNotFound.
var notFoundCodes = map[ErrorCode]bool{
	ErrCodeNotFound:         true,
	ErrCodeDealNotFound:     true,
	ErrCodeReminderNotFound: true,
	ErrCodeClientNotFound:   true,
}

// externalCodes is the set of codes raised by the AI collaborator and other
// out-of-process dependencies; call sites degrade to a fallback on these.
var externalCodes = map[ErrorCode]bool{
	ErrCodeExternalService:      true,
	ErrCodeTimeout:              true,
	ErrCodeAssistantUnavailable: true,
	ErrCodeAssistantTimeout:     true,
	ErrCodeAssistantBadResponse: true,
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// IsClientError reports whether the ErrorCode maps to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}
