package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionIdleTTL is how long an untouched session survives a Sweep
const DefaultSessionIdleTTL = 30 * time.Minute

type session struct {
	pipeline *Pipeline
	lastSeen time.Time
}

// Registry owns the pipelines of concurrent sessions. Sessions never share
// state; the registry only maps IDs to pipelines and expires idle ones.
type Registry struct {
	backend Backend
	opts    []Option
	idleTTL time.Duration
	o       options

	mu       sync.Mutex
	sessions map[string]*session
}

// NewRegistry creates a registry whose sessions run on backend with opts
func NewRegistry(backend Backend, idleTTL time.Duration, opts ...Option) *Registry {
	if idleTTL <= 0 {
		idleTTL = DefaultSessionIdleTTL
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Registry{
		backend:  backend,
		opts:     opts,
		idleTTL:  idleTTL,
		o:        o,
		sessions: make(map[string]*session),
	}
}

// Create starts a new session and returns its pipeline
func (r *Registry) Create() (string, *Pipeline) {
	id := uuid.NewString()
	opts := append(append([]Option(nil), r.opts...), WithSessionID(id))
	p := New(r.backend, opts...)

	r.mu.Lock()
	r.sessions[id] = &session{pipeline: p, lastSeen: r.o.clock.Now()}
	r.mu.Unlock()

	r.o.logger.Debug("session created", "session", id)
	return id, p
}

// Get returns the pipeline for id and marks the session active
func (r *Registry) Get(id string) (*Pipeline, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	s.lastSeen = r.o.clock.Now()
	return s.pipeline, true
}

// Remove closes and forgets the session. It reports whether it existed.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		s.pipeline.Close()
	}
	return ok
}

// Sweep closes sessions idle for longer than the idle TTL and returns how
// many were removed
func (r *Registry) Sweep() int {
	now := r.o.clock.Now()

	r.mu.Lock()
	var expired []*Pipeline
	for id, s := range r.sessions {
		if now.Sub(s.lastSeen) > r.idleTTL {
			expired = append(expired, s.pipeline)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, p := range expired {
		p.Close()
	}
	if len(expired) > 0 {
		r.o.logger.Info("expired idle sessions", "count", len(expired))
	}
	return len(expired)
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close closes every session
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.pipeline.Close()
	}
}
