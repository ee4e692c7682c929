package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/anthropics/agentctl/internal/appconfig"
	"github.com/anthropics/agentctl/internal/gatewayclient"
	"github.com/anthropics/agentctl/internal/storage"
	"github.com/anthropics/agentctl/internal/subagents"
)

// patchTimeout and pollInterval match the fixed gateway timings
// spec.md §5 assigns to sessions.patch and the history poll loop.
const (
	patchTimeout       = 10 * time.Second
	spawnCallOverhead  = 30 * time.Second
	historyCallTimeout = 10 * time.Second
	pollInterval       = 3 * time.Second
)

// Engine runs workflow requests against the gateway, tracking depth
// and fan-out through registry and persisting progress to a
// checkpoint file under workspaceRoot (spec.md §4.7).
type Engine struct {
	config        appconfig.Snapshot
	gateway       gatewayclient.Client
	registry      *subagents.Registry
	workspaceRoot string
	now           func() int64
}

// New creates an Engine.
func New(config appconfig.Snapshot, gateway gatewayclient.Client, registry *subagents.Registry, workspaceRoot string, now func() int64) *Engine {
	return &Engine{config: config, gateway: gateway, registry: registry, workspaceRoot: workspaceRoot, now: now}
}

// forbiddenError marks an admission-control rejection so callers (the
// MCP tool layer) can distinguish it from an execution failure.
type forbiddenError struct{ msg string }

func (e *forbiddenError) Error() string { return e.msg }

// IsForbidden reports whether err was raised by an admission check.
func IsForbidden(err error) bool {
	_, ok := err.(*forbiddenError)
	return ok
}

// run holds the mutable state one Engine.Run execution shares across
// concurrent step goroutines: the checkpoint document, its in-memory
// value, and the mutex serializing updates to both.
type run struct {
	mu   sync.Mutex
	doc  *storage.Document
	ckpt Checkpoint
}

// recordSuccess stores a completed step's outcome and persists the
// checkpoint.
func (r *run) recordSuccess(name, result string, durationMs int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ckpt.Completed[name] = StepOutcome{Result: result, DurationMs: durationMs}
	r.persistLocked()
}

func (r *run) recordFailure(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ckpt.Failed[name] = StepFailure{Error: err.Error()}
	r.persistLocked()
}

func (r *run) persistLocked() {
	_ = r.doc.Save(&r.ckpt)
}

func (r *run) snapshot() Checkpoint {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.ckpt
	c.Completed = make(map[string]StepOutcome, len(r.ckpt.Completed))
	for k, v := range r.ckpt.Completed {
		c.Completed[k] = v
	}
	c.Failed = make(map[string]StepFailure, len(r.ckpt.Failed))
	for k, v := range r.ckpt.Failed {
		c.Failed[k] = v
	}
	return c
}

// Run validates and admits req, then dispatches to the pattern
// executor matching req.Pattern (spec.md §4.7.1, §4.7.4).
func (e *Engine) Run(ctx context.Context, callerSessionKey, agentID string, req Request) (Result, error) {
	if err := validate(req); err != nil {
		return Result{}, err
	}

	callerDepth := e.registry.DepthOf(callerSessionKey)
	if callerDepth+1 > e.config.MaxSpawnDepth {
		return Result{}, &forbiddenError{msg: fmt.Sprintf("workflow would exceed max spawn depth %d", e.config.MaxSpawnDepth)}
	}
	if req.Pattern == PatternParallel && len(req.Steps) > e.config.MaxChildrenPerAgent {
		return Result{}, &forbiddenError{msg: fmt.Sprintf("parallel workflow has %d steps, exceeding max children per agent %d", len(req.Steps), e.config.MaxChildrenPerAgent)}
	}

	doc := storage.NewDocument(checkpointPath(e.workspaceRoot, req.Label))
	ckpt := loadOrCreateCheckpoint(doc, req, e.now())
	r := &run{doc: doc, ckpt: ckpt}
	r.persistLocked()

	if req.Pattern != PatternSequential && req.Pattern != PatternParallel && req.Pattern != PatternDAG {
		return Result{}, fmt.Errorf("unknown workflow pattern %q", req.Pattern)
	}

	e.dispatch(ctx, r, req, callerSessionKey, agentID, callerDepth)

	return e.finish(r, req), nil
}

// dispatch runs the pattern executor matching req.Pattern, recovering
// any panic raised outside an individual step's own error handling
// and recording it under the sentinel checkpoint key so the run still
// persists a resumable checkpoint (spec.md §7 "Propagation policy":
// "an engine-level exception ... is recorded under a sentinel key
// `_workflow`").
func (e *Engine) dispatch(ctx context.Context, r *run, req Request, callerSessionKey, agentID string, callerDepth int) {
	defer func() {
		if rec := recover(); rec != nil {
			r.recordFailure(sentinelWorkflowKey, fmt.Errorf("workflow engine panic: %v", rec))
		}
	}()

	switch req.Pattern {
	case PatternSequential:
		e.runSequential(ctx, r, req, callerSessionKey, agentID, callerDepth)
	case PatternParallel:
		e.runParallel(ctx, r, req, callerSessionKey, agentID, callerDepth)
	case PatternDAG:
		e.runDAG(ctx, r, req, callerSessionKey, agentID, callerDepth)
	}
}

// finish assembles the spec.md §4.7.5 result shape from the final
// checkpoint state, deleting the checkpoint file on full success.
func (e *Engine) finish(r *run, req Request) Result {
	ckpt := r.snapshot()

	status := StatusDone
	if len(ckpt.Failed) > 0 || len(ckpt.Completed) < len(ckpt.Steps) {
		status = StatusFailed
	}

	var totalMs int64
	for _, o := range ckpt.Completed {
		totalMs += o.DurationMs
	}

	res := Result{
		Status:          status,
		Pattern:         req.Pattern,
		StepsCompleted:  len(ckpt.Completed),
		StepsFailed:     len(ckpt.Failed),
		TotalSteps:      len(ckpt.Steps),
		TotalDurationMs: totalMs,
		Results:         buildResults(ckpt, req.Merge),
	}

	if len(ckpt.Failed) > 0 {
		failures := make(map[string]string, len(ckpt.Failed))
		for name, f := range ckpt.Failed {
			failures[name] = f.Error
		}
		res.Failures = failures
	}

	if status == StatusDone {
		_ = r.doc.Delete()
	} else {
		ckpt.Status = status
		res.Checkpoint = &ckpt
	}

	return res
}

// buildResults merges completed step results either into a name-keyed
// map (merge == "merge") or a single "## <name>" concatenation in
// original step order, per spec.md §4.7.5.
func buildResults(ckpt Checkpoint, merge string) any {
	if merge == "merge" {
		out := make(map[string]string, len(ckpt.Completed))
		for name, o := range ckpt.Completed {
			out[name] = o.Result
		}
		return out
	}

	var sections []string
	for _, name := range ckpt.Steps {
		o, ok := ckpt.Completed[name]
		if !ok {
			continue
		}
		sections = append(sections, fmt.Sprintf("## %s\n\n%s", name, o.Result))
	}
	out := ""
	for i, s := range sections {
		if i > 0 {
			out += "\n\n---\n\n"
		}
		out += s
	}
	return out
}

type patchDepthParams struct {
	Key        string `json:"key"`
	SpawnDepth int    `json:"spawnDepth"`
}

type patchModelParams struct {
	Key   string `json:"key"`
	Model string `json:"model"`
}

// agentCallParams is the agent{} request this engine sends: message,
// sessionKey, idempotencyKey, deliver, lane, thinking, timeout, label
// and spawnedBy. No extraSystemPrompt, channel, to or accountId field
// is sent.
type agentCallParams struct {
	Task           string `json:"message"`
	Key            string `json:"sessionKey"`
	IdempotencyKey string `json:"idempotencyKey"`
	Deliver        bool   `json:"deliver"`
	Lane           string `json:"lane"`
	Thinking       string `json:"thinking,omitempty"`
	Timeout        int    `json:"timeout"`
	Label          string `json:"label"`
	SpawnedBy      string `json:"spawnedBy"`
}

type historyParams struct {
	Key string `json:"key"`
}

// buildTask prefixes step.Task with accumulated prior-step context,
// when the caller supplies any (spec.md §4.7.3). Callers gate context
// accumulation on req.PassContext before calling this.
func buildTask(step Step, contextText string) string {
	if contextText == "" {
		return step.Task
	}
	return fmt.Sprintf("## Context from prior workflow steps\n\n%s\n\n---\n\n## Your task\n\n%s", contextText, step.Task)
}

// executeStep spawns one child session for step, patches its depth and
// model, issues the agent call, then polls sessions.history until the
// child produces an assistant message or the step's deadline elapses.
func (e *Engine) executeStep(ctx context.Context, step Step, contextText string, callerSessionKey, agentID string, callerDepth int) (string, int64, error) {
	start := time.Now()
	childKey := fmt.Sprintf("agent:%s:workflow:%s", agentID, uuid.New().String())
	childDepth := callerDepth + 1

	model := step.Model
	if model == "" {
		model = e.config.ResolveModel(agentID)
	}

	if _, err := e.gateway.Call(ctx, gatewayclient.MethodSessionsPatch, patchDepthParams{Key: childKey, SpawnDepth: childDepth}, patchTimeout); err != nil {
		return "", 0, fmt.Errorf("step %q: patching spawn depth: %w", step.Name, err)
	}

	// Model patch is non-fatal: a rejected or unsupported model
	// leaves the child on whatever default the gateway assigns it.
	_, _ = e.gateway.Call(ctx, gatewayclient.MethodSessionsPatch, patchModelParams{Key: childKey, Model: model}, patchTimeout)

	task := buildTask(step, contextText)
	params := agentCallParams{
		Task:           task,
		Key:            childKey,
		IdempotencyKey: uuid.New().String(),
		Deliver:        false,
		Lane:           "subagent",
		Thinking:       step.Thinking,
		Timeout:        step.timeout(),
		Label:          step.Name,
		SpawnedBy:      callerSessionKey,
	}
	spawnTimeout := time.Duration(step.timeout())*time.Second + spawnCallOverhead
	if _, err := e.gateway.Call(ctx, gatewayclient.MethodAgent, params, spawnTimeout); err != nil {
		return "", 0, fmt.Errorf("step %q: spawning agent: %w", step.Name, err)
	}

	e.registry.Register(callerSessionKey, subagents.Run{SessionKey: childKey, SpawnedBy: callerSessionKey, Depth: childDepth})
	defer e.registry.Unregister(callerSessionKey, childKey)

	deadline := start.Add(time.Duration(step.timeout()) * time.Second)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		raw, err := e.gateway.Call(ctx, gatewayclient.MethodSessionsHistory, historyParams{Key: childKey}, historyCallTimeout)
		if err == nil {
			var hist gatewayclient.HistoryResult
			if jsonErr := json.Unmarshal(raw, &hist); jsonErr == nil {
				if content, ok := hist.LastAssistantContent(); ok {
					return content, time.Since(start).Milliseconds(), nil
				}
			}
		}

		if time.Now().After(deadline) {
			return "", time.Since(start).Milliseconds(), fmt.Errorf("step %q timed out after %ds with no result", step.Name, step.timeout())
		}

		select {
		case <-ctx.Done():
			return "", time.Since(start).Milliseconds(), ctx.Err()
		case <-ticker.C:
		}
	}
}
