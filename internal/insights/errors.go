package insights

import (
	"errors"
	"fmt"
)

// PipelineErrorKind classifies terminal pipeline failures.
type PipelineErrorKind string

// Pipeline failure kinds surfaced to callers.
const (
	ErrKindStoreUnreachable PipelineErrorKind = "store_unreachable"
	ErrKindNotShopify       PipelineErrorKind = "not_a_shopify_store"
	ErrKindTimeout          PipelineErrorKind = "timeout"
	ErrKindInternal         PipelineErrorKind = "internal"
)

// PipelineError is the only error type GetInsights returns. Raw transport
// errors never escape the pipeline.
type PipelineError struct {
	Kind  PipelineErrorKind
	URL   string
	Cause error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.URL, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.URL)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// NewPipelineError builds a classified pipeline failure.
func NewPipelineError(kind PipelineErrorKind, url string, cause error) *PipelineError {
	return &PipelineError{Kind: kind, URL: url, Cause: cause}
}

// ErrorKind extracts the pipeline failure kind, defaulting to internal for
// unclassified errors.
func ErrorKind(err error) PipelineErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ErrKindInternal
}
