// Package errors provides the error codes shared by the assistant, the ledger
// and the transports, plus their mapping onto workflow (BPMN) errors.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Reply-level codes. Every one of these ends up as user-facing text.
const (
	ErrCodeNone        ErrorCode = ""
	ErrCodeFormatError ErrorCode = "FORMAT_ERROR"
	ErrCodeNotFound    ErrorCode = "NOT_FOUND"
	ErrCodeEmptyInput  ErrorCode = "EMPTY_INPUT"
	ErrCodeNoMatch     ErrorCode = "NO_MATCH"
)

// Infrastructure codes.
const (
	ErrCodeLedgerFailure            ErrorCode = "LEDGER_FAILURE"
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeCatalogInvalid           ErrorCode = "CATALOG_INVALID"
	ErrCodeNotificationSendFailed   ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeInvalidJobVariables      ErrorCode = "INVALID_JOB_VARIABLES"
	ErrCodeInternal                 ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func NewFormatError(command, usage string) *StandardError {
	return &StandardError{
		Code:      ErrCodeFormatError,
		Message:   "Malformed command arguments",
		Details:   fmt.Sprintf("command: %s, usage: %s", command, usage),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewNotFoundError(item string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotFound,
		Message:   "Item not found in stock",
		Details:   fmt.Sprintf("item: %s", item),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewEmptyInputError(command string) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmptyInput,
		Message:   "Command requires text",
		Details:   fmt.Sprintf("command: %s", command),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewNoMatchError(text string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoMatch,
		Message:   "No command or catalog entry matched",
		Details:   fmt.Sprintf("text: %q", text),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewLedgerFailureError creates a retryable storage error.
func NewLedgerFailureError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLedgerFailure,
		Message:   "Ledger operation failed",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewCatalogInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogInvalid,
		Message:   "Intent catalog failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidJobVariablesError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidJobVariables,
		Message:   "Job variables could not be decoded",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. BPMN Mapping
// ==========================

// BPMNErrorMapping maps internal codes to the error codes modelled in the
// message-handling process.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidJobVariables:      "INVALID_MESSAGE",
	ErrCodeLedgerFailure:            "LEDGER_UNAVAILABLE",
	ErrCodeDatabaseConnectionFailed: "LEDGER_UNAVAILABLE",
	ErrCodeNotificationSendFailed:   "NOTIFICATION_FAILED",
	ErrCodeCatalogInvalid:           "CATALOG_INVALID",
}

// GetRetryCount returns how many times the engine should retry a job failing
// with code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeLedgerFailure,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeNotificationSendFailed:
		return 3
	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Classification Helpers
// ==========================

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// IsUserError reports whether code describes bad input rather than a fault.
func IsUserError(code ErrorCode) bool {
	switch code {
	case ErrCodeFormatError, ErrCodeNotFound, ErrCodeEmptyInput, ErrCodeNoMatch:
		return true
	}
	return false
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case code == ErrCodeNone:
		return "NONE"
	case IsUserError(code):
		return "INPUT"
	case strings.Contains(codeStr, "LEDGER") || strings.Contains(codeStr, "DATABASE"):
		return "DATABASE"
	case strings.Contains(codeStr, "CATALOG"):
		return "CATALOG"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

// AsStandardError normalizes any error to a StandardError.
func AsStandardError(err error) *StandardError {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
