package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code is the stable machine-readable identifier returned to API clients.
type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeIdempotency   Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit     Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"

	CodeInsufficientStock  Code = "INSUFFICIENT_STOCK"
	CodeVariantNotFound    Code = "VARIANT_NOT_FOUND"
	CodeSignatureMismatch  Code = "SIGNATURE_MISMATCH"
	CodeTransactionAborted Code = "TRANSACTION_ABORTED"
)

// Metadata controls how a code is rendered over HTTP. Details are only
// exposed to clients when DetailsAllowed is set.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

const (
	retryable   = true
	withDetails = true
)

var metadataByCode = map[Code]Metadata{
	CodeValidation:    {http.StatusBadRequest, false, "validation failed", withDetails},
	CodeUnauthorized:  {http.StatusUnauthorized, false, "authentication required", false},
	CodeForbidden:     {http.StatusForbidden, false, "access denied", false},
	CodeNotFound:      {http.StatusNotFound, false, "resource not found", false},
	CodeConflict:      {http.StatusConflict, false, "conflict detected", false},
	CodeStateConflict: {http.StatusUnprocessableEntity, false, "state transition disallowed", withDetails},
	CodeIdempotency:   {http.StatusConflict, false, "idempotency key reused", withDetails},
	CodeRateLimit:     {http.StatusTooManyRequests, false, "rate limit exceeded", false},
	CodeInternal:      {http.StatusInternalServerError, retryable, "internal server error", false},
	CodeDependency:    {http.StatusServiceUnavailable, retryable, "dependency unavailable", withDetails},

	CodeInsufficientStock:  {http.StatusConflict, false, "insufficient stock", withDetails},
	CodeVariantNotFound:    {http.StatusNotFound, false, "variant not found", withDetails},
	CodeSignatureMismatch:  {http.StatusBadRequest, false, "payment signature mismatch", false},
	CodeTransactionAborted: {http.StatusConflict, retryable, "transaction aborted", false},
}

// MetadataFor falls back to the internal error rendering for unknown codes.
func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// Error is the typed error every service layer returns.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap attaches a code to err. A nil err yields a plain New.
func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return ""
	case e.cause != nil:
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	default:
		return fmt.Sprintf("%s: %s", e.code, e.message)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost *Error in err's chain, or nil.
func As(err error) *Error {
	var typed *Error
	if err != nil && stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}

// StockShortfall describes how far a requested quantity exceeds what is on hand.
type StockShortfall struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name,omitempty"`
	VariantSize string `json:"variant_size,omitempty"`
	Requested   int    `json:"requested"`
	Available   int    `json:"available"`
}

// InsufficientStock builds the error returned whenever a quantity cannot be covered.
func InsufficientStock(message string, shortfall StockShortfall) *Error {
	return New(CodeInsufficientStock, message).WithDetails(shortfall)
}
