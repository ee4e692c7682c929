// Package subagents tracks live child agent runs for depth/fan-out
// accounting. It is process-scoped shared state (spec.md §5) and must
// serialize its own mutations.
package subagents

import "sync"

// Run records one live child spawn.
type Run struct {
	SessionKey string
	SpawnedBy  string
	Depth      int
}

// Registry is a process-scoped directory of live runs, keyed by the
// caller's internal session key so the workflow engine can look up
// its own current spawn depth and active-children count.
type Registry struct {
	mu   sync.Mutex
	runs map[string]map[string]Run // caller session key -> child session key -> Run
	depth map[string]int           // session key -> its own spawn depth
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		runs:  make(map[string]map[string]Run),
		depth: make(map[string]int),
	}
}

// DepthOf returns the caller's current spawn depth, defaulting to 0
// for a session the registry has never seen (the root agent).
func (r *Registry) DepthOf(sessionKey string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.depth[sessionKey]
}

// ActiveChildren returns the count of currently-registered children
// for the given caller session key.
func (r *Registry) ActiveChildren(callerSessionKey string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runs[callerSessionKey])
}

// Register adds a live child run under its caller and records the
// child's own depth so nested spawns can look it up later.
func (r *Registry) Register(callerSessionKey string, run Run) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.runs[callerSessionKey] == nil {
		r.runs[callerSessionKey] = make(map[string]Run)
	}
	r.runs[callerSessionKey][run.SessionKey] = run
	r.depth[run.SessionKey] = run.Depth
}

// Unregister removes a completed or failed child run.
func (r *Registry) Unregister(callerSessionKey, childSessionKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.runs[callerSessionKey], childSessionKey)
	delete(r.depth, childSessionKey)
}
