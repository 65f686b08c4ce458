package observability

import (
	"math"
	"sort"
	"sync"
	"time"
)

const defaultLatencySamples = 256

// LatencyStats summarizes recent completion latency for one provider and mode.
type LatencyStats struct {
	Provider string  `json:"provider"`
	Mode     string  `json:"mode"`
	Samples  int     `json:"samples"`
	LastMS   float64 `json:"last_ms"`
	AvgMS    float64 `json:"avg_ms"`
	P50MS    float64 `json:"p50_ms"`
	P95MS    float64 `json:"p95_ms"`
	P99MS    float64 `json:"p99_ms"`
}

type OutcomeCount struct {
	Provider string `json:"provider"`
	Outcome  string `json:"outcome"`
	Count    int    `json:"count"`
}

type LatencySnapshot struct {
	GeneratedAt time.Time      `json:"generated_at"`
	WindowSize  int            `json:"window_size"`
	Completions []LatencyStats `json:"completions"`
	Outcomes    []OutcomeCount `json:"outcomes"`
}

type latencyKey struct {
	provider string
	mode     string
}

type outcomeKey struct {
	provider string
	outcome  string
}

// latencyWindow keeps the last maxSamples latencies per key in a ring.
type latencyWindow struct {
	mu         sync.RWMutex
	maxSamples int
	rings      map[latencyKey]*latencyRing
	outcomes   map[outcomeKey]int
}

type latencyRing struct {
	values []float64
	next   int
	filled bool
	last   float64
}

func newLatencyWindow(maxSamples int) *latencyWindow {
	if maxSamples <= 0 {
		maxSamples = defaultLatencySamples
	}
	return &latencyWindow{
		maxSamples: maxSamples,
		rings:      make(map[latencyKey]*latencyRing),
		outcomes:   make(map[outcomeKey]int),
	}
}

func (w *latencyWindow) observe(provider, mode, outcome string, d time.Duration) {
	if d < 0 {
		return
	}
	ms := float64(d) / float64(time.Millisecond)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.outcomes[outcomeKey{provider: provider, outcome: outcome}]++

	key := latencyKey{provider: provider, mode: mode}
	ring, ok := w.rings[key]
	if !ok {
		ring = &latencyRing{values: make([]float64, w.maxSamples)}
		w.rings[key] = ring
	}
	ring.values[ring.next] = ms
	ring.last = ms
	ring.next++
	if ring.next >= len(ring.values) {
		ring.next = 0
		ring.filled = true
	}
}

func (w *latencyWindow) snapshot() LatencySnapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	keys := make([]latencyKey, 0, len(w.rings))
	for k := range w.rings {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].provider != keys[j].provider {
			return keys[i].provider < keys[j].provider
		}
		return keys[i].mode < keys[j].mode
	})

	completions := make([]LatencyStats, 0, len(keys))
	for _, k := range keys {
		ring := w.rings[k]
		n := ring.next
		if ring.filled {
			n = len(ring.values)
		}
		if n == 0 {
			continue
		}
		samples := make([]float64, n)
		copy(samples, ring.values[:n])
		sort.Float64s(samples)

		sum := 0.0
		for _, v := range samples {
			sum += v
		}
		completions = append(completions, LatencyStats{
			Provider: k.provider,
			Mode:     k.mode,
			Samples:  n,
			LastMS:   round2(ring.last),
			AvgMS:    round2(sum / float64(n)),
			P50MS:    round2(quantile(samples, 0.50)),
			P95MS:    round2(quantile(samples, 0.95)),
			P99MS:    round2(quantile(samples, 0.99)),
		})
	}

	outcomes := make([]OutcomeCount, 0, len(w.outcomes))
	for k, count := range w.outcomes {
		outcomes = append(outcomes, OutcomeCount{Provider: k.provider, Outcome: k.outcome, Count: count})
	}
	sort.Slice(outcomes, func(i, j int) bool {
		if outcomes[i].Provider != outcomes[j].Provider {
			return outcomes[i].Provider < outcomes[j].Provider
		}
		return outcomes[i].Outcome < outcomes[j].Outcome
	})

	return LatencySnapshot{
		GeneratedAt: time.Now().UTC(),
		WindowSize:  w.maxSamples,
		Completions: completions,
		Outcomes:    outcomes,
	}
}

// quantile interpolates linearly between closest ranks of a sorted slice.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := q * float64(len(sorted)-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
