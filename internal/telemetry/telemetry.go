// Package telemetry records search interaction events without ever blocking
// the caller.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope of the OTel recorder
const MeterName = "portfolio-search/telemetry"

// DefaultBuffer is the event queue size of the OTel recorder
const DefaultBuffer = 256

// Recorder receives interaction events. Implementations must return
// immediately.
type Recorder interface {
	ResultClicked(ctx context.Context, sessionID, id string)
	SuggestionClicked(ctx context.Context, sessionID, text string)
	SearchCompleted(ctx context.Context, query string, results int, d time.Duration)
}

// Nop discards every event
type Nop struct{}

func (Nop) ResultClicked(context.Context, string, string)               {}
func (Nop) SuggestionClicked(context.Context, string, string)           {}
func (Nop) SearchCompleted(context.Context, string, int, time.Duration) {}

type eventKind int

const (
	eventResultClick eventKind = iota
	eventSuggestionClick
	eventSearch
)

type event struct {
	kind     eventKind
	results  int
	duration time.Duration
}

// OTel counts events on OpenTelemetry instruments. Events are queued and
// drained by one goroutine; when the queue is full the event is dropped.
type OTel struct {
	mu     sync.RWMutex
	closed bool
	events chan event
	done   chan struct{}
	logger *slog.Logger

	dropped atomic.Uint64

	clicks      metric.Int64Counter
	suggestions metric.Int64Counter
	searches    metric.Int64Counter
	resultCount metric.Int64Histogram
	latency     metric.Float64Histogram
}

// NewOTel creates a recorder on meter and starts its drain goroutine. A nil
// meter uses the global provider. Call Close to stop it.
func NewOTel(meter metric.Meter, buffer int, logger *slog.Logger) (*OTel, error) {
	if meter == nil {
		meter = otel.Meter(MeterName)
	}
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &OTel{
		events: make(chan event, buffer),
		done:   make(chan struct{}),
		logger: logger,
	}

	var err error
	if r.clicks, err = meter.Int64Counter(
		"portfolio.search.result_clicks",
		metric.WithDescription("Search results clicked"),
	); err != nil {
		return nil, err
	}
	if r.suggestions, err = meter.Int64Counter(
		"portfolio.search.suggestion_clicks",
		metric.WithDescription("Suggestions clicked"),
	); err != nil {
		return nil, err
	}
	if r.searches, err = meter.Int64Counter(
		"portfolio.search.queries",
		metric.WithDescription("Searches completed by query pipelines"),
	); err != nil {
		return nil, err
	}
	if r.resultCount, err = meter.Int64Histogram(
		"portfolio.search.result_count",
		metric.WithDescription("Results returned per search"),
		metric.WithUnit("{results}"),
	); err != nil {
		return nil, err
	}
	if r.latency, err = meter.Float64Histogram(
		"portfolio.search.duration",
		metric.WithDescription("Search time as seen by the pipeline (ms)"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	go r.drain()
	return r, nil
}

// ResultClicked queues a result click. Session and record IDs are not used
// as attributes to keep cardinality bounded.
func (r *OTel) ResultClicked(_ context.Context, _, _ string) {
	r.enqueue(event{kind: eventResultClick})
}

// SuggestionClicked queues a suggestion click
func (r *OTel) SuggestionClicked(_ context.Context, _, _ string) {
	r.enqueue(event{kind: eventSuggestionClick})
}

// SearchCompleted queues a completed search
func (r *OTel) SearchCompleted(_ context.Context, _ string, results int, d time.Duration) {
	r.enqueue(event{kind: eventSearch, results: results, duration: d})
}

// Dropped returns how many events were discarded on a full queue
func (r *OTel) Dropped() uint64 { return r.dropped.Load() }

// Close stops accepting events and waits for the queue to drain
func (r *OTel) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.events)
	}
	r.mu.Unlock()
	<-r.done
}

func (r *OTel) enqueue(e event) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.dropped.Add(1)
		return
	}
	select {
	case r.events <- e:
	default:
		if r.dropped.Add(1)%100 == 1 {
			r.logger.Warn("telemetry queue full, dropping events", "dropped", r.dropped.Load())
		}
	}
}

func (r *OTel) drain() {
	defer close(r.done)
	ctx := context.Background()
	for e := range r.events {
		switch e.kind {
		case eventResultClick:
			r.clicks.Add(ctx, 1)
		case eventSuggestionClick:
			r.suggestions.Add(ctx, 1)
		case eventSearch:
			status := "results"
			if e.results == 0 {
				status = "empty"
			}
			attrs := metric.WithAttributes(attribute.String("status", status))
			r.searches.Add(ctx, 1, attrs)
			r.resultCount.Record(ctx, int64(e.results))
			r.latency.Record(ctx, float64(e.duration.Microseconds())/1000, attrs)
		}
	}
}
