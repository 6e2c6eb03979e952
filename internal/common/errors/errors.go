// internal/common/errors/errors.go

// Package errors provides standardized error handling for the screening engine.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Catalog / configuration errors (fatal at load time).
	ErrCodeCatalogNoStages             ErrorCode = "CATALOG_NO_STAGES"
	ErrCodeCatalogThresholdOrder       ErrorCode = "CATALOG_THRESHOLD_ORDER"
	ErrCodeCatalogThresholdExceedsMax  ErrorCode = "CATALOG_THRESHOLD_EXCEEDS_MAX"
	ErrCodeCatalogSchemaInvalid        ErrorCode = "CATALOG_SCHEMA_INVALID"
	ErrCodeCatalogSignalPatternInvalid ErrorCode = "CATALOG_SIGNAL_PATTERN_INVALID"

	// Lookup errors.
	ErrCodeStageNotFound    ErrorCode = "STAGE_NOT_FOUND"
	ErrCodeQuestionNotFound ErrorCode = "QUESTION_NOT_FOUND"

	// Submission errors.
	ErrCodeRequiredResponseMissing ErrorCode = "REQUIRED_RESPONSE_MISSING"
	ErrCodeResponseInvalid         ErrorCode = "RESPONSE_INVALID"

	// Sequence errors.
	ErrCodeWrongStageIndex   ErrorCode = "WRONG_STAGE_INDEX"
	ErrCodeApplicationClosed ErrorCode = "APPLICATION_CLOSED"
	ErrCodeNotReadyToSubmit  ErrorCode = "NOT_READY_TO_SUBMIT"

	// Persistence / infrastructure errors.
	ErrCodeApplicationNotFound  ErrorCode = "APPLICATION_NOT_FOUND"
	ErrCodeStoreOperationFailed ErrorCode = "STORE_OPERATION_FAILED"
	ErrCodeApplicantLocked      ErrorCode = "APPLICANT_LOCKED"
	ErrCodeNotificationFailed   ErrorCode = "NOTIFICATION_FAILED"
)

// Category groups error codes by the contract they violate.
type Category string

const (
	CategoryConfiguration Category = "CONFIGURATION"
	CategoryValidation    Category = "VALIDATION"
	CategorySequence      Category = "SEQUENCE"
	CategoryLookup        Category = "LOOKUP"
	CategoryInfra         Category = "INFRA"
)

// EngineError represents a structured engine error.
type EngineError struct {
	Code      ErrorCode              `json:"code"`
	Category  Category               `json:"category"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("EngineError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

func newError(code ErrorCode, category Category, message, details string, retryable bool) *EngineError {
	return &EngineError{
		Code:      code,
		Category:  category,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewConfigurationError creates a fatal catalog configuration error.
func NewConfigurationError(code ErrorCode, details string) *EngineError {
	return newError(code, CategoryConfiguration, "Invalid screening catalog configuration", details, false)
}

// NewValidationError creates a non-retryable submission validation error.
func NewValidationError(code ErrorCode, details string) *EngineError {
	return newError(code, CategoryValidation, "Submitted responses failed validation", details, false)
}

// NewSequenceError creates a non-retryable lifecycle sequence error.
func NewSequenceError(code ErrorCode, details string) *EngineError {
	return newError(code, CategorySequence, "Operation not permitted in current application state", details, false)
}

// NewLookupError creates a non-retryable catalog lookup error.
func NewLookupError(code ErrorCode, details string) *EngineError {
	return newError(code, CategoryLookup, "Requested catalog element does not exist", details, false)
}

// NewStoreError creates a retryable persistence error.
func NewStoreError(details string) *EngineError {
	return newError(ErrCodeStoreOperationFailed, CategoryInfra, "Application store operation failed", details, true)
}

// NewApplicationNotFoundError creates a non-retryable missing application error.
func NewApplicationNotFoundError(applicationID string) *EngineError {
	return newError(ErrCodeApplicationNotFound, CategoryInfra, "Application not found",
		fmt.Sprintf("applicationId: %s", applicationID), false)
}

// NewApplicantLockedError signals that another submission holds the applicant lock.
func NewApplicantLockedError(applicationID string) *EngineError {
	return newError(ErrCodeApplicantLocked, CategoryInfra, "Application is being processed by another request",
		fmt.Sprintf("applicationId: %s", applicationID), true)
}

// NewNotificationFailedError creates a retryable notification delivery error.
func NewNotificationFailedError(err error) *EngineError {
	return newError(ErrCodeNotificationFailed, CategoryInfra, "Decision notification delivery failed", err.Error(), true)
}

// ==========================
// 3. Utility Functions
// ==========================

// AsEngineError extracts an *EngineError from an error chain.
func AsEngineError(err error) (*EngineError, bool) {
	var engErr *EngineError
	if stderrors.As(err, &engErr) {
		return engErr, true
	}
	return nil, false
}

func isCategory(err error, category Category) bool {
	if engErr, ok := AsEngineError(err); ok {
		return engErr.Category == category
	}
	return false
}

// IsConfigurationError reports whether err is a fatal catalog configuration error.
func IsConfigurationError(err error) bool { return isCategory(err, CategoryConfiguration) }

// IsValidationError reports whether err is a submission validation error.
func IsValidationError(err error) bool { return isCategory(err, CategoryValidation) }

// IsSequenceError reports whether err is a lifecycle sequence error.
func IsSequenceError(err error) bool { return isCategory(err, CategorySequence) }

// IsLookupError reports whether err is a catalog lookup error.
func IsLookupError(err error) bool { return isCategory(err, CategoryLookup) }

// IsRetryable reports whether the operation may be retried without correction.
func IsRetryable(err error) bool {
	if engErr, ok := AsEngineError(err); ok {
		return engErr.Retryable
	}
	return false
}
