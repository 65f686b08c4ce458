package transcript

import (
	"context"
	"strings"
)

// NewSink creates a postgres-backed archive when configured, otherwise a no-op sink.
func NewSink(ctx context.Context, databaseURL string) (Sink, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NopSink{}, nil
	}
	return NewPostgresSink(ctx, databaseURL)
}
