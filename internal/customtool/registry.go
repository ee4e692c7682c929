package customtool

import (
	"sort"
	"sync"
)

// Registry holds the custom tools available for invocation: the set
// seeded from the config snapshot at startup, plus whatever is added
// later through the registration tool. Spec.md §4.5's "Registration"
// contract (skip invalid entries, skip name collisions with a
// built-in) is enforced on every insert, not just at startup.
type Registry struct {
	mu      sync.Mutex
	configs map[string]Config
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{configs: map[string]Config{}}
}

// Seed registers every config in cfgs, silently skipping any that
// fail ValidateRegistration — the config loader hands this a batch at
// startup and spec.md §4.5 treats a rejected entry as a skip, not a
// fatal error.
func (r *Registry) Seed(cfgs []Config, existingNames map[string]bool) {
	for _, cfg := range cfgs {
		_ = r.Register(cfg, existingNames)
	}
}

// Register validates cfg against existingNames (the set of built-in
// tool names) and the registry's own current names, then adds it.
func (r *Registry) Register(cfg Config, existingNames map[string]bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make(map[string]bool, len(existingNames)+len(r.configs))
	for n := range existingNames {
		names[n] = true
	}
	for n := range r.configs {
		names[n] = true
	}

	if err := ValidateRegistration(cfg, names); err != nil {
		return err
	}
	r.configs[cfg.Name] = cfg
	return nil
}

// Get looks up a registered tool config by name.
func (r *Registry) Get(name string) (Config, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg, ok := r.configs[name]
	return cfg, ok
}

// List returns every registered config, ordered by name.
func (r *Registry) List() []Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Config, 0, len(r.configs))
	for _, cfg := range r.configs {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the registry's current names, for use as the
// existingNames set the next registration attempt is checked against.
func (r *Registry) Names() map[string]bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]bool, len(r.configs))
	for n := range r.configs {
		out[n] = true
	}
	return out
}
