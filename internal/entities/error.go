package entities

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("entity not found")
	ErrUpstream        = errors.New("upstream request failed")
	ErrUpstreamTimeout = errors.New("upstream request timed out")
	ErrInvalidDate     = errors.New("invalid date")
)

// Validation error codes reported to clients.
const (
	CodeMissingCurrencies = "missing_currencies"
	CodeMissingPeriod     = "missing_period"
	CodeInvalidPeriod     = "invalid_period"
	CodeInvalidDate       = "invalid_date"
	CodeInvertedRange     = "inverted_range"
	CodeInvalidCurrency   = "invalid_currency"
)

// ValidationError describes a rejected query parameter.
// Message is the short error text, Detail an optional explanation.
type ValidationError struct {
	Code      string
	Parameter string
	Message   string
	Detail    string
	Examples  []string
	Err       error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// UpstreamError carries the message returned by the upstream API, if any.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream http %d", e.Status)
	}
	return fmt.Sprintf("upstream http %d: %s", e.Status, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return ErrUpstream
}
