package reliability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryableHTTPStatus(t *testing.T) {
	cases := []struct {
		code int
		want bool
	}{
		{200, false},
		{400, false},
		{401, false},
		{429, true},
		{500, true},
		{503, true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IsRetryableHTTPStatus(tc.code), "IsRetryableHTTPStatus(%d)", tc.code)
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	var syntaxErr *json.SyntaxError
	malformed := json.Unmarshal([]byte("{nope"), &struct{}{})
	if !errors.As(malformed, &syntaxErr) {
		t.Fatalf("expected json syntax error, got %T", malformed)
	}

	cases := []struct {
		name string
		err  error
		want Class
	}{
		{"nil", nil, ""},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), ClassTimeout},
		{"canceled", context.Canceled, ClassCanceled},
		{"net timeout", &url.Error{Op: "Post", URL: "http://x", Err: timeoutErr{}}, ClassTimeout},
		{"url error", &url.Error{Op: "Post", URL: "http://x", Err: errors.New("connection refused")}, ClassNetwork},
		{"malformed", fmt.Errorf("decode: %w", malformed), ClassMalformed},
		{"other", errors.New("boom"), ClassOther},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.err))
		})
	}
}
