package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a machine-readable error code
type ErrorCode string

const (
	// Deal Errors (DEAL_*)
	ErrorCodeDealNotFound      ErrorCode = "DEAL_NOT_FOUND"
	ErrorCodeDealNotPayable    ErrorCode = "DEAL_NOT_PAYABLE"
	ErrorCodeDealStateConflict ErrorCode = "DEAL_STATE_CONFLICT"

	// Payment Intent Errors (INTENT_*)
	ErrorCodeIntentNotFound ErrorCode = "INTENT_NOT_FOUND"
	ErrorCodeIntentConflict ErrorCode = "INTENT_CONFLICT"

	// Validation Errors (VALIDATION_*)
	ErrorCodeValidationFailed          ErrorCode = "VALIDATION_FAILED"
	ErrorCodeValidationAmountInvalid   ErrorCode = "VALIDATION_AMOUNT_INVALID"
	ErrorCodeValidationCurrencyInvalid ErrorCode = "VALIDATION_CURRENCY_INVALID"
	ErrorCodeValidationDealRefInvalid  ErrorCode = "VALIDATION_DEAL_REF_INVALID"
	ErrorCodeValidationMissingField    ErrorCode = "VALIDATION_MISSING_FIELD"

	// Processor Gateway Errors (GATEWAY_*)
	ErrorCodeGatewayError       ErrorCode = "GATEWAY_ERROR"
	ErrorCodeGatewayTimeout     ErrorCode = "GATEWAY_TIMEOUT"
	ErrorCodeGatewayUnavailable ErrorCode = "GATEWAY_UNAVAILABLE"

	// Webhook Authentication Errors (WEBHOOK_*)
	ErrorCodeWebhookAuthFailed ErrorCode = "WEBHOOK_AUTH_FAILED"

	// Internal Errors (INTERNAL_*)
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrorCodeDatabaseError ErrorCode = "INTERNAL_DATABASE_ERROR"
)

// DomainError represents a structured domain error with error code and context
type DomainError struct {
	Err     error
	Details map[string]interface{}
	Code    ErrorCode
	Message string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// WithDetail adds a detail field to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with a domain error code
func WrapError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Err:     err,
	}
}

// GetErrorCode extracts the error code from an error, returns empty string if not a DomainError
func GetErrorCode(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// IsNotFoundError checks if an error represents a "not found" condition
func IsNotFoundError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeDealNotFound || code == ErrorCodeIntentNotFound
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeValidationFailed ||
		code == ErrorCodeValidationAmountInvalid ||
		code == ErrorCodeValidationCurrencyInvalid ||
		code == ErrorCodeValidationDealRefInvalid ||
		code == ErrorCodeValidationMissingField
}

// IsConflictError checks if an error indicates a state or uniqueness conflict
func IsConflictError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeIntentConflict ||
		code == ErrorCodeDealStateConflict ||
		code == ErrorCodeDealNotPayable
}

// IsGatewayError checks if an error originates from the payment processor
func IsGatewayError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeGatewayError ||
		code == ErrorCodeGatewayTimeout ||
		code == ErrorCodeGatewayUnavailable
}

// IsAuthError checks if an error is a webhook authentication failure
func IsAuthError(err error) bool {
	return GetErrorCode(err) == ErrorCodeWebhookAuthFailed
}

// Structured error instances
var (
	ErrDealNotFound      = NewDomainError(ErrorCodeDealNotFound, "deal not found")
	ErrDealNotPayable    = NewDomainError(ErrorCodeDealNotPayable, "deal is not in a payable state")
	ErrDealStateConflict = NewDomainError(ErrorCodeDealStateConflict, "deal is already in a terminal state")

	ErrIntentNotFound = NewDomainError(ErrorCodeIntentNotFound, "payment intent not found")
	ErrIntentConflict = NewDomainError(ErrorCodeIntentConflict, "an active payment intent already exists for this deal")

	ErrValidationFailed          = NewDomainError(ErrorCodeValidationFailed, "validation failed")
	ErrValidationAmountInvalid   = NewDomainError(ErrorCodeValidationAmountInvalid, "invalid amount")
	ErrValidationCurrencyInvalid = NewDomainError(ErrorCodeValidationCurrencyInvalid, "invalid currency")
	ErrValidationDealRefInvalid  = NewDomainError(ErrorCodeValidationDealRefInvalid, "invalid deal reference")
	ErrValidationMissingField    = NewDomainError(ErrorCodeValidationMissingField, "required field missing")

	ErrGatewayError       = NewDomainError(ErrorCodeGatewayError, "payment processor error")
	ErrGatewayTimedOut    = NewDomainError(ErrorCodeGatewayTimeout, "payment processor timeout")
	ErrGatewayUnavailable = NewDomainError(ErrorCodeGatewayUnavailable, "payment processor unavailable")

	ErrWebhookAuthFailed = NewDomainError(ErrorCodeWebhookAuthFailed, "webhook signature verification failed")

	ErrInternalError = NewDomainError(ErrorCodeInternalError, "internal server error")
	ErrDatabaseError = NewDomainError(ErrorCodeDatabaseError, "database error")
)
