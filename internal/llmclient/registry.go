package llmclient

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Factory builds a backend client. It runs at most once per registered id;
// the registry caches the result.
type Factory func(ctx context.Context) (Client, error)

// Registration describes one selectable backend. ID is "provider:model".
type Registration struct {
	ID       string
	Provider string
	Model    string

	// Check verifies preconditions (typically credentials) without making
	// a network call. Nil means always available.
	Check func() error

	Factory Factory
}

// Registry maps backend ids to registrations and lazily built clients.
type Registry struct {
	mu      sync.Mutex
	regs    map[string]Registration
	clients map[string]Client
}

func NewRegistry() *Registry {
	return &Registry{
		regs:    make(map[string]Registration),
		clients: make(map[string]Client),
	}
}

func (r *Registry) Register(reg Registration) error {
	if reg.ID == "" {
		return fmt.Errorf("llmclient: registration without id")
	}
	if reg.Factory == nil {
		return fmt.Errorf("llmclient: %s registered without factory", reg.ID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.regs[reg.ID]; exists {
		return fmt.Errorf("llmclient: %s registered twice", reg.ID)
	}
	r.regs[reg.ID] = reg
	return nil
}

// RegisterClient registers an already built client under id. Used by tests
// and local setups that construct clients by hand.
func (r *Registry) RegisterClient(id string, c Client) error {
	return r.Register(Registration{
		ID: id,
		Factory: func(context.Context) (Client, error) {
			return c, nil
		},
	})
}

func (r *Registry) Lookup(id string) (Registration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.regs[id]
	return reg, ok
}

// IDs lists every registered backend id in stable order.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.regs))
	for id := range r.regs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Preflight verifies that every id is registered and passes its credential
// check. Callers run it before the first attempt so a misconfigured chain
// fails without burning quota.
func (r *Registry) Preflight(ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		reg, ok := r.regs[id]
		if !ok {
			return fmt.Errorf("llmclient: unknown backend %q", id)
		}
		if reg.Check != nil {
			if err := reg.Check(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Client returns the cached client for id, building it on first use.
func (r *Registry) Client(ctx context.Context, id string) (Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.clients[id]; ok {
		return c, nil
	}
	reg, ok := r.regs[id]
	if !ok {
		return nil, fmt.Errorf("llmclient: unknown backend %q", id)
	}
	if reg.Check != nil {
		if err := reg.Check(); err != nil {
			return nil, err
		}
	}
	c, err := reg.Factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("llmclient: build %s: %w", id, err)
	}
	r.clients[id] = c
	return c, nil
}

// CloseAll closes every built client and forgets it. Registrations survive,
// so a later Client call rebuilds.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var firstErr error
	for id, c := range r.clients {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("llmclient: close %s: %w", id, err)
		}
		delete(r.clients, id)
	}
	return firstErr
}
