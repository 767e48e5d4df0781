package server

import (
	"sync"

	"github.com/mohammad-safakhou/ragchat/internal/retrieval"
	"github.com/mohammad-safakhou/ragchat/models"
	"github.com/mohammad-safakhou/ragchat/provider"
)

// BuildFunc constructs the strategy and provider for a runtime
// configuration. It runs outside the holder's lock.
type BuildFunc func(models.RuntimeConfig) (retrieval.Strategy, provider.Provider, error)

// Runtime holds the process-wide chat configuration together with the
// strategy and provider derived from it. Readers see either the old
// pair or the new pair, never a mix.
type Runtime struct {
	mu       sync.RWMutex
	cfg      models.RuntimeConfig
	strategy retrieval.Strategy
	prov     provider.Provider
	build    BuildFunc
}

func NewRuntime(initial models.RuntimeConfig, build BuildFunc) (*Runtime, error) {
	strategy, prov, err := build(initial)
	if err != nil {
		return nil, err
	}
	return &Runtime{cfg: initial, strategy: strategy, prov: prov, build: build}, nil
}

func (r *Runtime) Config() models.RuntimeConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cfg
}

func (r *Runtime) Strategy() retrieval.Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.strategy
}

func (r *Runtime) Provider() provider.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.prov
}

// Replace swaps in a new configuration wholesale. A failed build
// leaves the previous configuration untouched.
func (r *Runtime) Replace(next models.RuntimeConfig) error {
	strategy, prov, err := r.build(next)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.cfg = next
	r.strategy = strategy
	r.prov = prov
	r.mu.Unlock()
	return nil
}
