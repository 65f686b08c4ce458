package llm

import (
	"errors"
	"fmt"

	"github.com/antoniostano/abqarino/internal/reliability"
)

// ErrorKind classifies a failed completion.
type ErrorKind string

const (
	KindTimeout   ErrorKind = "timeout"
	KindNetwork   ErrorKind = "network"
	KindStatus    ErrorKind = "status"
	KindMalformed ErrorKind = "malformed"
	KindCanceled  ErrorKind = "canceled"
	KindOther     ErrorKind = "other"
)

var errMissingText = errors.New("response has no text")

// CompletionError wraps every failure returned by a Client.
type CompletionError struct {
	Provider   string
	Kind       ErrorKind
	StatusCode int
	Cause      error
}

func (e *CompletionError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s completion failed (%s %d): %v", e.Provider, e.Kind, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("%s completion failed (%s): %v", e.Provider, e.Kind, e.Cause)
}

func (e *CompletionError) Unwrap() error { return e.Cause }

// Retryable reports whether the upstream would likely succeed on a later attempt.
// Nothing retries automatically; the flag only feeds logs.
func (e *CompletionError) Retryable() bool {
	switch e.Kind {
	case KindTimeout, KindNetwork:
		return true
	case KindStatus:
		return reliability.IsRetryableHTTPStatus(e.StatusCode)
	default:
		return false
	}
}

func newCompletionError(provider string, statusCode int, cause error) *CompletionError {
	if statusCode > 0 {
		return &CompletionError{Provider: provider, Kind: KindStatus, StatusCode: statusCode, Cause: cause}
	}
	kind := KindOther
	switch reliability.Classify(cause) {
	case reliability.ClassTimeout:
		kind = KindTimeout
	case reliability.ClassCanceled:
		kind = KindCanceled
	case reliability.ClassNetwork:
		kind = KindNetwork
	case reliability.ClassMalformed:
		kind = KindMalformed
	}
	return &CompletionError{Provider: provider, Kind: kind, Cause: cause}
}

func malformed(provider string) *CompletionError {
	return &CompletionError{Provider: provider, Kind: KindMalformed, Cause: errMissingText}
}
