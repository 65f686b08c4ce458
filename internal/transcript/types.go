package transcript

import (
	"context"
	"time"
)

// Exchange is one answered message: the user text and what the bot replied.
type Exchange struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Mode      string    `json:"mode"`
	Provider  string    `json:"provider"`
	Input     string    `json:"input"`
	Reply     string    `json:"reply"`
	Failed    bool      `json:"failed"`
	Redacted  bool      `json:"redacted"`
	LatencyMS int64     `json:"latency_ms"`
	CreatedAt time.Time `json:"created_at"`
}

// Sink archives exchanges. It is write-only: nothing reads the archive back
// into conversation memory.
type Sink interface {
	Record(ctx context.Context, ex Exchange) error
	Close() error
}

// NopSink discards every exchange.
type NopSink struct{}

func (NopSink) Record(context.Context, Exchange) error { return nil }
func (NopSink) Close() error                           { return nil }
