package pipeline

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/portfolio-search/internal/clock"
	"github.com/dshills/portfolio-search/internal/searcher"
	"github.com/dshills/portfolio-search/internal/telemetry"
	"github.com/dshills/portfolio-search/pkg/types"
)

// Defaults for the debounce discipline
const (
	DefaultDebounce    = 300 * time.Millisecond
	DefaultMinInterval = 300 * time.Millisecond
	DefaultMinLength   = 2
)

// Phase is the state machine position of a session
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseDebouncing Phase = "debouncing"
	PhaseInFlight   Phase = "in_flight"
	PhaseSettled    Phase = "settled"
	PhaseError      Phase = "error"
)

// Backend runs searches for a pipeline. *searcher.Searcher implements it.
type Backend interface {
	Search(ctx context.Context, q string, opts searcher.Options) ([]types.SearchResult, error)
	Suggest(ctx context.Context, q string) ([]string, error)
}

// State is an immutable snapshot of a session
type State struct {
	SessionID         string               `json:"sessionId"`
	Phase             Phase                `json:"phase"`
	Query             string               `json:"query"`
	LastExecutedQuery string               `json:"lastExecutedQuery,omitempty"`
	LastExecutedAt    time.Time            `json:"lastExecutedAt,omitzero"`
	InFlight          bool                 `json:"isLoading"`
	Results           []types.SearchResult `json:"results"`
	Suggestions       []string             `json:"suggestions"`
	Err               error                `json:"-"`
	Error             string               `json:"error,omitempty"`
	HasSearched       bool                 `json:"hasSearched"`
	SearchTime        time.Duration        `json:"-"`
	SearchTimeMs      int64                `json:"searchTimeMs"`
	ResultCount       int                  `json:"resultCount"`
}

type options struct {
	clock       clock.Clock
	debounce    time.Duration
	minInterval time.Duration
	minLength   int
	recorder    telemetry.Recorder
	logger      *slog.Logger
	search      searcher.Options
	sessionID   string
}

func defaultOptions() options {
	return options{
		clock:       clock.System{},
		debounce:    DefaultDebounce,
		minInterval: DefaultMinInterval,
		minLength:   DefaultMinLength,
		recorder:    telemetry.Nop{},
		logger:      slog.Default(),
	}
}

// Option configures a Pipeline
type Option func(*options)

// WithClock sets the time source for debounce timers and timestamps
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithDebounce sets the quiet period before a query runs
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.debounce = d
		}
	}
}

// WithMinInterval sets the minimum gap between two executed queries
func WithMinInterval(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.minInterval = d
		}
	}
}

// WithMinLength sets the shortest query, in runes, that is executed
func WithMinLength(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.minLength = n
		}
	}
}

// WithTelemetry sets the click and search event recorder
func WithTelemetry(r telemetry.Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSearchOptions sets the limit and filter applied to every search
func WithSearchOptions(so searcher.Options) Option {
	return func(o *options) { o.search = so }
}

// WithSessionID sets the session identifier reported in State
func WithSessionID(id string) Option {
	return func(o *options) { o.sessionID = id }
}

// Pipeline owns the query state of one session. Input events may come from
// any goroutine; backend calls run in the background and their responses
// are applied only if they still answer the current query.
type Pipeline struct {
	backend Backend
	opts    options
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	closed  bool
	state   State
	gen     uint64 // bumped on every input event, invalidates pending timers
	timer   clock.Timer
	execSeq uint64 // last execution started
	applied uint64 // last execution whose response was applied
	running string // query of the latest execution while it is outstanding
	subs    []chan State
}

// New creates an idle pipeline over backend
func New(backend Backend, opts ...Option) *Pipeline {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pipeline{
		backend: backend,
		opts:    o,
		logger:  o.logger.With("session", o.sessionID),
		ctx:     ctx,
		cancel:  cancel,
	}
	p.state = p.initialState()
	return p
}

func (p *Pipeline) initialState() State {
	return State{
		SessionID:   p.opts.sessionID,
		Phase:       PhaseIdle,
		Results:     []types.SearchResult{},
		Suggestions: []string{},
	}
}

// OnQueryChange records new input and (re)starts the debounce timer
func (p *Pipeline) OnQueryChange(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	p.state.Query = text
	p.gen++
	p.stopTimerLocked()
	p.state.Phase = PhaseDebouncing
	p.scheduleLocked(p.opts.debounce)
	p.notifyLocked()
}

// Clear cancels any pending debounce and resets the session to its initial
// empty state. Responses still in flight are discarded when they arrive.
func (p *Pipeline) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	p.gen++
	p.stopTimerLocked()
	p.applied = p.execSeq
	p.running = ""
	p.state = p.initialState()
	p.notifyLocked()
}

// ResultClicked reports a click on a result. It never blocks.
func (p *Pipeline) ResultClicked(id string) {
	p.opts.recorder.ResultClicked(p.ctx, p.opts.sessionID, id)
}

// SuggestionClicked reports a click on a suggestion. It never blocks.
func (p *Pipeline) SuggestionClicked(text string) {
	p.opts.recorder.SuggestionClicked(p.ctx, p.opts.sessionID, text)
}

// State returns a snapshot of the session
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// Subscribe returns a channel receiving the latest state after every
// change. A slow reader only sees the most recent state. The channel is
// closed by Close.
func (p *Pipeline) Subscribe() <-chan State {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan State, 1)
	if p.closed {
		close(ch)
		return ch
	}
	ch <- p.snapshotLocked()
	p.subs = append(p.subs, ch)
	return ch
}

// Close stops the timer, cancels outstanding backend calls and waits for
// them to return
func (p *Pipeline) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.stopTimerLocked()
	p.cancel()
	for _, ch := range p.subs {
		close(ch)
	}
	p.subs = nil
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Pipeline) scheduleLocked(d time.Duration) {
	gen := p.gen
	p.timer = p.opts.clock.AfterFunc(d, func() { p.fire(gen) })
}

func (p *Pipeline) stopTimerLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

// fire runs when the debounce timer for input generation gen elapses
func (p *Pipeline) fire(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || gen != p.gen {
		return
	}
	p.timer = nil

	q := p.state.Query
	if utf8.RuneCountInString(strings.TrimSpace(q)) < p.opts.minLength {
		p.state.Phase = PhaseIdle
		p.notifyLocked()
		return
	}
	if q == p.state.LastExecutedQuery {
		// results already answer q
		p.state.Phase = PhaseSettled
		p.state.Err = nil
		p.notifyLocked()
		return
	}
	if !p.state.LastExecutedAt.IsZero() {
		if wait := p.opts.minInterval - p.opts.clock.Now().Sub(p.state.LastExecutedAt); wait > 0 {
			// too soon after the previous execution, try again once allowed
			p.scheduleLocked(wait)
			return
		}
	}

	p.executeLocked(q)
}

// executeLocked starts search and suggest for q in the background
func (p *Pipeline) executeLocked(q string) {
	p.execSeq++
	seq := p.execSeq
	p.running = q
	p.state.Phase = PhaseInFlight
	p.notifyLocked()

	started := p.opts.clock.Now()
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		results, suggestions, err := p.run(q)
		p.apply(seq, q, started, results, suggestions, err)
	}()
}

func (p *Pipeline) run(q string) ([]types.SearchResult, []string, error) {
	var results []types.SearchResult
	var suggestions []string

	g, ctx := errgroup.WithContext(p.ctx)
	g.Go(func() error {
		r, err := p.backend.Search(ctx, q, p.opts.search)
		if err != nil {
			return err
		}
		results = r
		return nil
	})
	g.Go(func() error {
		s, err := p.backend.Suggest(ctx, q)
		if err != nil {
			// suggestions are best-effort
			p.logger.Warn("suggest failed", "query", q, "error", err)
			return nil
		}
		suggestions = s
		return nil
	})
	err := g.Wait()
	return results, suggestions, err
}

// apply installs a response if it still answers the current query and no
// newer response has been applied
func (p *Pipeline) apply(seq uint64, q string, started time.Time, results []types.SearchResult, suggestions []string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if seq == p.execSeq {
		p.running = ""
	}
	if p.closed || q != p.state.Query || seq <= p.applied {
		p.logger.Debug("discarding stale response", "query", q, "current", p.state.Query)
		if !p.closed {
			p.notifyLocked()
		}
		return
	}
	p.applied = seq

	now := p.opts.clock.Now()
	if err != nil {
		p.logger.Warn("search failed", "query", q, "error", err)
		p.state.Phase = PhaseError
		p.state.Err = err
		p.notifyLocked()
		return
	}

	if results == nil {
		results = []types.SearchResult{}
	}
	if suggestions == nil {
		suggestions = p.state.Suggestions
	}
	elapsed := now.Sub(started)

	if p.timer == nil {
		p.state.Phase = PhaseSettled
	}
	p.state.Results = results
	p.state.Suggestions = suggestions
	p.state.Err = nil
	p.state.LastExecutedQuery = q
	p.state.LastExecutedAt = now
	p.state.HasSearched = true
	p.state.SearchTime = elapsed
	p.state.ResultCount = len(results)
	p.notifyLocked()

	p.opts.recorder.SearchCompleted(p.ctx, q, len(results), elapsed)
}

func (p *Pipeline) snapshotLocked() State {
	st := p.state
	st.InFlight = p.running != "" && p.running == p.state.Query
	st.Results = slices.Clone(p.state.Results)
	st.Suggestions = slices.Clone(p.state.Suggestions)
	if st.Err != nil {
		st.Error = st.Err.Error()
	}
	st.SearchTimeMs = st.SearchTime.Milliseconds()
	return st
}

// notifyLocked hands the current state to every subscriber, replacing any
// state the subscriber has not read yet
func (p *Pipeline) notifyLocked() {
	if len(p.subs) == 0 {
		return
	}
	st := p.snapshotLocked()
	for _, ch := range p.subs {
		select {
		case <-ch:
		default:
		}
		ch <- st
	}
}
