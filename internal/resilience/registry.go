package resilience

import (
	"sync"
	"time"
)

// Default breaker configurations for remote collaborators.
var defaultConfigs = map[string]Config{
	"google": {
		ConsecutiveThreshold: 5,
		Cooldown:             60 * time.Second,
	},
	"google_free": {
		ConsecutiveThreshold: 3,
		Cooldown:             120 * time.Second,
	},
	"openai": {
		ConsecutiveThreshold: 3,
		Cooldown:             30 * time.Second,
	},
	"anthropic": {
		ConsecutiveThreshold: 3,
		Cooldown:             30 * time.Second,
	},
	"detect": {
		ConsecutiveThreshold: 5,
		Cooldown:             45 * time.Second,
	},
}

var fallbackConfig = Config{
	ConsecutiveThreshold: 5,
	Cooldown:             60 * time.Second,
}

// DefaultConfig returns the built-in configuration for the named breaker.
func DefaultConfig(name string) Config {
	if cfg, ok := defaultConfigs[name]; ok {
		return cfg
	}
	return fallbackConfig
}

// Registry provides named circuit breakers. It is safe for concurrent use and
// lazily creates breakers on first access.
type Registry struct {
	mu            sync.Mutex
	breakers      map[string]*Breaker
	configs       map[string]Config
	onStateChange StateChangeFunc
}

// NewRegistry creates a Registry. Entries in configs override the defaults
// for the same name; onStateChange may be nil.
func NewRegistry(configs map[string]Config, onStateChange StateChangeFunc) *Registry {
	merged := make(map[string]Config, len(defaultConfigs)+len(configs))
	for k, v := range defaultConfigs {
		merged[k] = v
	}
	for k, v := range configs {
		merged[k] = v
	}
	return &Registry{
		breakers:      make(map[string]*Breaker),
		configs:       merged,
		onStateChange: onStateChange,
	}
}

// Get returns the breaker for name, creating it on first use.
func (r *Registry) Get(name string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[name]; ok {
		return cb
	}

	cfg, ok := r.configs[name]
	if !ok {
		cfg = fallbackConfig
	}

	cb := NewBreaker(name, cfg, r.onStateChange)
	r.breakers[name] = cb
	return cb
}

// State returns the state of the named breaker, or StateClosed if it has not
// been created yet.
func (r *Registry) State(name string) State {
	r.mu.Lock()
	cb, ok := r.breakers[name]
	r.mu.Unlock()

	if !ok {
		return StateClosed
	}
	return cb.State()
}

// Snapshot returns the state of every breaker created so far.
func (r *Registry) Snapshot() map[string]State {
	r.mu.Lock()
	breakers := make([]*Breaker, 0, len(r.breakers))
	for _, cb := range r.breakers {
		breakers = append(breakers, cb)
	}
	r.mu.Unlock()

	out := make(map[string]State, len(breakers))
	for _, cb := range breakers {
		out[cb.Name()] = cb.State()
	}
	return out
}
