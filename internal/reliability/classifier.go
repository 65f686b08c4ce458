package reliability

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/url"
)

// Class is a coarse failure category for outbound calls.
type Class string

const (
	ClassTimeout   Class = "timeout"
	ClassCanceled  Class = "canceled"
	ClassNetwork   Class = "network"
	ClassMalformed Class = "malformed"
	ClassOther     Class = "other"
)

// IsRetryableHTTPStatus classifies retryable HTTP status codes.
func IsRetryableHTTPStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// Classify maps a transport-level error onto a Class.
func Classify(err error) Class {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ClassTimeout
	}
	if errors.Is(err, context.Canceled) {
		return ClassCanceled
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ClassTimeout
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return ClassMalformed
	}

	var urlErr *url.Error
	var opErr *net.OpError
	if errors.As(err, &urlErr) || errors.As(err, &opErr) || netErr != nil {
		return ClassNetwork
	}
	return ClassOther
}
