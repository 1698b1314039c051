package provider

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/Anand0295/storyforge/pkg/provider")

// State is the per-identifier load state.
type State int

const (
	StateUnloaded State = iota
	StateValidating
	StateLoading
	StateLoaded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return "unloaded"
	}
}

type loadEntry struct {
	state  State
	client Client
	err    error
	done   chan struct{}
}

// Registry maps validated identifiers to loaded client handles and drives
// the load state machine. At most one load runs per identifier; concurrent
// requesters for the same identifier wait for and observe the winner's
// outcome. A failed entry is re-enterable: there is no negative caching.
type Registry struct {
	mu       sync.Mutex
	adapters map[string]Adapter
	entries  map[string]*loadEntry
}

// NewRegistry builds a registry over the given compiled adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{
		adapters: make(map[string]Adapter, len(adapters)),
		entries:  make(map[string]*loadEntry),
	}
	for _, a := range adapters {
		if a == nil {
			continue
		}
		r.adapters[strings.ToLower(a.Name())] = a
	}
	return r
}

// Load resolves raw to a client handle, loading it on first use. Loading an
// already-loaded identifier is a no-op success.
func (r *Registry) Load(ctx context.Context, raw string) (Client, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	key := strings.TrimSpace(raw)

	r.mu.Lock()
	if e, ok := r.entries[key]; ok {
		switch e.state {
		case StateLoaded:
			r.mu.Unlock()
			return e.client, nil
		case StateValidating, StateLoading:
			done := e.done
			r.mu.Unlock()
			select {
			case <-done:
				return e.client, e.err
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		// StateFailed falls through: re-enter validation.
	}
	e := &loadEntry{state: StateValidating, done: make(chan struct{})}
	r.entries[key] = e
	r.mu.Unlock()

	client, err := r.load(ctx, key)

	r.mu.Lock()
	if err != nil {
		e.state = StateFailed
		e.err = err
	} else {
		e.state = StateLoaded
		e.client = client
	}
	close(e.done)
	r.mu.Unlock()
	return client, err
}

func (r *Registry) load(ctx context.Context, raw string) (Client, error) {
	ctx, span := tracer.Start(ctx, "provider.load")
	defer span.End()

	id, err := ParseIdentifier(raw)
	if err != nil {
		span.SetStatus(codes.Error, "validation failed")
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("provider.name", id.Provider),
		attribute.String("provider.model", id.Name),
	)

	adapter, ok := r.adapters[id.Provider]
	if !ok {
		perr := &UnsupportedProviderError{Provider: id.Provider}
		span.SetStatus(codes.Error, "unsupported provider")
		span.RecordError(perr)
		return nil, perr
	}

	r.setState(raw, StateLoading)
	client, err := adapter.Load(ctx, id)
	if err != nil {
		lerr := &LoadError{Identifier: raw, Err: err}
		span.SetStatus(codes.Error, "backend load failed")
		span.RecordError(lerr)
		return nil, lerr
	}
	return client, nil
}

func (r *Registry) setState(key string, s State) {
	r.mu.Lock()
	if e, ok := r.entries[key]; ok {
		e.state = s
	}
	r.mu.Unlock()
}

// StateOf reports the current state for an identifier.
func (r *Registry) StateOf(raw string) State {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[strings.TrimSpace(raw)]; ok {
		return e.state
	}
	return StateUnloaded
}

// Get returns the loaded client for an identifier, if any.
func (r *Registry) Get(raw string) (Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[strings.TrimSpace(raw)]
	if !ok || e.state != StateLoaded {
		return nil, false
	}
	return e.client, true
}

// Loaded lists identifiers currently in the loaded state, sorted.
func (r *Registry) Loaded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for key, e := range r.entries {
		if e.state == StateLoaded {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

// AdapterNames lists the registered adapters, sorted.
func (r *Registry) AdapterNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
