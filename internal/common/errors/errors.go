// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeNoTableSelected          ErrorCode = "NO_TABLE_SELECTED"
	ErrCodeInvalidTranslationInput  ErrorCode = "INVALID_TRANSLATION_INPUT"
	ErrCodeSchemaUnavailable        ErrorCode = "SCHEMA_INTROSPECTION_UNAVAILABLE"
	ErrCodeQueryRejected            ErrorCode = "QUERY_REJECTED"
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodeLLMTimeout               ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMGenerationEmpty       ErrorCode = "LLM_GENERATION_EMPTY"
	ErrCodeJournalWriteFailed       ErrorCode = "JOURNAL_WRITE_FAILED"
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

// WithMetadata returns the error with key set in its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
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

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
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

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoTableSelectedError is raised when a request names no allowed table.
func NewNoTableSelectedError(text string) *StandardError {
	return newError(ErrCodeNoTableSelected, "No table selected", fmt.Sprintf("text: %q", text), false)
}

func NewInvalidTranslationInputError(details string) *StandardError {
	return newError(ErrCodeInvalidTranslationInput, "Invalid translation input", details, false)
}

// NewSchemaUnavailableError reports that a table could not be introspected.
func NewSchemaUnavailableError(table, reason string) *StandardError {
	return newError(ErrCodeSchemaUnavailable, "Table schema unavailable",
		fmt.Sprintf("table: %s, reason: %s", table, reason), true)
}

// NewQueryRejectedError reports a query refused by the guard. Never retried.
func NewQueryRejectedError(err error) *StandardError {
	return newError(ErrCodeQueryRejected, "Query rejected by guard", err.Error(), false)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

func NewQueryExecutionFailedError(table string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("table: %s, error: %s", table, err.Error()), true)
}

func NewQueryTimeoutError(table string) *StandardError {
	return newError(ErrCodeQueryTimeout, "Database query timeout", fmt.Sprintf("table: %s", table), true)
}

func NewLLMTimeoutError(err error) *StandardError {
	return newError(ErrCodeLLMTimeout, "Language model timeout", err.Error(), true)
}

// NewLLMGenerationEmptyError is raised when the completion service produced no text.
func NewLLMGenerationEmptyError(table string) *StandardError {
	return newError(ErrCodeLLMGenerationEmpty, "Language model returned no query",
		fmt.Sprintf("table: %s", table), false)
}

func NewJournalWriteFailedError(err error) *StandardError {
	return newError(ErrCodeJournalWriteFailed, "Translation journal write failed", err.Error(), true)
}

// ==========================
// 4. Mapping & Retry Policy
// ==========================

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeNoTableSelected:          "NO_TABLE_SELECTED",
	ErrCodeInvalidTranslationInput:  "INVALID_TRANSLATION_INPUT",
	ErrCodeSchemaUnavailable:        "SCHEMA_UNAVAILABLE",
	ErrCodeQueryRejected:            "QUERY_REJECTED",
	ErrCodeDatabaseConnectionFailed: "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryExecutionFailed:     "QUERY_EXECUTION_FAILED",
	ErrCodeQueryTimeout:             "QUERY_TIMEOUT",
	ErrCodeLLMTimeout:               "LLM_TIMEOUT",
	ErrCodeLLMGenerationEmpty:       "LLM_GENERATION_EMPTY",
	ErrCodeJournalWriteFailed:       "JOURNAL_WRITE_FAILED",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeSchemaUnavailable,
		ErrCodeJournalWriteFailed:
		return 3
	case ErrCodeQueryTimeout:
		return 2
	case ErrCodeLLMTimeout:
		return 1
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

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// AsStandardError unwraps err to a *StandardError, wrapping unknown errors as INTERNAL_ERROR.
func AsStandardError(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "TABLE") || strings.Contains(codeStr, "SCHEMA"):
		return "SCHEMA"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "LLM"):
		return "AI"
	case strings.Contains(codeStr, "JOURNAL"):
		return "JOURNAL"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
