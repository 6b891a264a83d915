package llmerr

import (
	"errors"
	"fmt"
)

// Sentinel errors for classification with errors.Is.
var (
	// ErrValidation marks malformed caller input (bad prompt shape, bad
	// options). Fatal, never retried.
	ErrValidation = errors.New("validation error")

	// ErrAuth marks an authentication failure from the provider. Triggers
	// the key-refresh path at most once, then becomes fatal.
	ErrAuth = errors.New("authentication error")

	// ErrTransport marks a network-level failure. Not retried by this
	// module; surfaced to the caller.
	ErrTransport = errors.New("transport error")

	// ErrMissingAPIKey marks a request issued without a credential.
	ErrMissingAPIKey = fmt.Errorf("%w: API key is not set", ErrValidation)

	// ErrBufferExceeded marks a streamed JSON value that outgrew the
	// assembler's maximum buffer without completing.
	ErrBufferExceeded = errors.New("partial JSON buffer exceeded maximum size")
)

// ProviderError carries the provider-side context of a failed HTTP exchange.
type ProviderError struct {
	Provider string
	Status   int
	Message  string
	Err      error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s (status=%d)", e.Provider, e.Message, e.Status)
}

// Unwrap returns the underlying error for chain inspection.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError classifies an HTTP failure by status code: 401/403 map to
// ErrAuth, everything else to ErrTransport.
func NewProviderError(provider string, status int, message string) *ProviderError {
	underlying := ErrTransport
	if status == 401 || status == 403 {
		underlying = ErrAuth
	}
	return &ProviderError{
		Provider: provider,
		Status:   status,
		Message:  message,
		Err:      underlying,
	}
}

// IsAuth reports whether err represents an authentication failure.
func IsAuth(err error) bool {
	return errors.Is(err, ErrAuth)
}

// PartialStreamError wraps a failure that interrupted a stream after some
// content had already been assembled. The partial content always rides on
// the error so the caller can decide whether to use it.
type PartialStreamError struct {
	Partial string
	Err     error
}

// Error implements the error interface.
func (e *PartialStreamError) Error() string {
	return fmt.Sprintf("stream interrupted after %d chars of partial content: %v", len(e.Partial), e.Err)
}

// Unwrap returns the interrupting error.
func (e *PartialStreamError) Unwrap() error {
	return e.Err
}

// WithPartial wraps err in a PartialStreamError carrying partial. A nil err
// or empty partial returns err unchanged; partial content is attached, never
// fabricated.
func WithPartial(err error, partial string) error {
	if err == nil || partial == "" {
		return err
	}
	var existing *PartialStreamError
	if errors.As(err, &existing) {
		return err
	}
	return &PartialStreamError{Partial: partial, Err: err}
}

// PartialContent extracts the partial content attached to err, if any.
func PartialContent(err error) (string, bool) {
	var partialErr *PartialStreamError
	if errors.As(err, &partialErr) {
		return partialErr.Partial, true
	}
	return "", false
}
