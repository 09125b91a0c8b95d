package match

import (
	"context"
	"sort"
	"sync"

	apperr "agladiator/internal/errors"
)

type Factory func(ctx context.Context) (*Session, error)

type entry struct {
	ready   chan struct{}
	session *Session
	err     error
}

// Registry maps match ids to live sessions. Construction of a session runs
// outside the registry lock, so loading agents for one match never blocks
// lookups of another.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// GetOrCreate returns the session for matchID, running factory if there is
// none. Concurrent callers for the same id share one factory run. created
// reports whether this call ran it. A failed factory leaves no entry behind.
func (r *Registry) GetOrCreate(ctx context.Context, matchID string, factory Factory) (s *Session, created bool, err error) {
	r.mu.Lock()
	if e, ok := r.entries[matchID]; ok {
		r.mu.Unlock()
		s, err = e.wait(ctx)
		return s, false, err
	}
	e := &entry{ready: make(chan struct{})}
	r.entries[matchID] = e
	r.mu.Unlock()

	defer func() {
		if rec := recover(); rec != nil {
			e.err = apperr.ErrInternal
			r.drop(matchID, e)
			close(e.ready)
			panic(rec)
		}
	}()

	e.session, e.err = factory(ctx)
	if e.err != nil {
		r.drop(matchID, e)
	}
	close(e.ready)
	return e.session, true, e.err
}

func (r *Registry) drop(matchID string, e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries[matchID] == e {
		delete(r.entries, matchID)
	}
}

func (e *entry) wait(ctx context.Context) (*Session, error) {
	select {
	case <-e.ready:
		return e.session, e.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Get waits for a session still under construction.
func (r *Registry) Get(ctx context.Context, matchID string) (*Session, error) {
	r.mu.Lock()
	e, ok := r.entries[matchID]
	r.mu.Unlock()
	if !ok {
		return nil, apperr.ErrSessionNotFound
	}

	s, err := e.wait(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperr.ErrSessionNotFound
	}
	return s, nil
}

// Remove takes the session out of the registry and hands it back so the
// caller can finalize it.
func (r *Registry) Remove(ctx context.Context, matchID string) (*Session, error) {
	s, err := r.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[matchID]
	if !ok || e.session != s {
		return nil, apperr.ErrSessionNotFound
	}
	delete(r.entries, matchID)
	return s, nil
}

// IDs lists the matches that finished construction.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.entries))
	for id, e := range r.entries {
		select {
		case <-e.ready:
			if e.err == nil {
				ids = append(ids, id)
			}
		default:
		}
	}
	sort.Strings(ids)
	return ids
}
