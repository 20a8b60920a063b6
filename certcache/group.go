package certcache

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/multierr"
)

// Group holds the engines of several issuers, for example one per country.
type Group struct {
	mu      sync.RWMutex
	engines map[string]*Engine
}

func NewGroup(engines ...*Engine) (*Group, error) {
	g := &Group{engines: make(map[string]*Engine, len(engines))}
	for _, e := range engines {
		if _, ok := g.engines[e.Issuer()]; ok {
			return nil, fmt.Errorf("duplicate issuer %q", e.Issuer())
		}
		g.engines[e.Issuer()] = e
	}
	return g, nil
}

// Get returns the engine for issuer, or ErrUnknownIssuer.
func (g *Group) Get(issuer string) (*Engine, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	e, ok := g.engines[issuer]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIssuer, issuer)
	}
	return e, nil
}

// Issuers returns the names of all issuers, sorted.
func (g *Group) Issuers() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	issuers := make([]string, 0, len(g.engines))
	for name := range g.engines {
		issuers = append(issuers, name)
	}
	sort.Strings(issuers)
	return issuers
}

// Initialize initializes every engine concurrently. Engines that fail to
// load still have their refresh scheduled; the errors are combined.
func (g *Group) Initialize(ctx context.Context) error {
	return g.each(func(e *Engine) error {
		return e.Initialize(ctx)
	})
}

// Refresh refreshes every engine concurrently.
func (g *Group) Refresh(ctx context.Context) error {
	return g.each(func(e *Engine) error {
		return e.Refresh(ctx)
	})
}

// Shutdown shuts down every engine.
func (g *Group) Shutdown() {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, e := range g.engines {
		e.Shutdown()
	}
}

// Statuses returns the status of every engine, sorted by issuer.
func (g *Group) Statuses() []Status {
	var result []Status
	for _, issuer := range g.Issuers() {
		e, err := g.Get(issuer)
		if err != nil {
			continue
		}
		result = append(result, e.Status())
	}
	return result
}

func (g *Group) each(fn func(e *Engine) error) error {
	g.mu.RLock()
	engines := make([]*Engine, 0, len(g.engines))
	for _, e := range g.engines {
		engines = append(engines, e)
	}
	g.mu.RUnlock()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs error
	)
	for _, e := range engines {
		wg.Add(1)
		go func(e *Engine) {
			defer wg.Done()
			if err := fn(e); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
		}(e)
	}
	wg.Wait()
	return errs
}
