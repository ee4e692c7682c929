package workflow

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/anthropics/agentctl/internal/appconfig"
	"github.com/anthropics/agentctl/internal/gatewayclient"
	"github.com/anthropics/agentctl/internal/subagents"
)

// fakeGateway resolves an agent call's task text against a set of
// substring->result rules and answers the following history poll with
// that result immediately, so tests never wait out the real 3s poll
// interval.
type fakeGateway struct {
	mu      sync.Mutex
	results map[string]string // childKey -> resolved result
	rules   map[string]string // task substring -> result
	fail    map[string]bool   // task substring -> always error the agent call
}

func newFakeGateway(rules map[string]string) *fakeGateway {
	return &fakeGateway{results: map[string]string{}, rules: rules, fail: map[string]bool{}}
}

func (f *fakeGateway) Call(ctx context.Context, method string, params any, timeout time.Duration) (json.RawMessage, error) {
	switch method {
	case gatewayclient.MethodSessionsPatch:
		return json.RawMessage(`{}`), nil
	case gatewayclient.MethodAgent:
		p := params.(agentCallParams)
		for substr := range f.fail {
			if strings.Contains(p.Task, substr) {
				return nil, errFakeAgent
			}
		}
		for substr, result := range f.rules {
			if strings.Contains(p.Task, substr) {
				f.mu.Lock()
				f.results[p.Key] = result
				f.mu.Unlock()
				return json.RawMessage(`{}`), nil
			}
		}
		return json.RawMessage(`{}`), nil
	case gatewayclient.MethodSessionsHistory:
		p := params.(historyParams)
		f.mu.Lock()
		result, ok := f.results[p.Key]
		f.mu.Unlock()
		if !ok {
			raw, _ := json.Marshal(gatewayclient.HistoryResult{})
			return raw, nil
		}
		raw, _ := json.Marshal(gatewayclient.HistoryResult{
			Messages: []gatewayclient.HistoryMessage{{Role: "assistant", Content: result}},
		})
		return raw, nil
	}
	return json.RawMessage(`{}`), nil
}

type fakeErr string

func (e fakeErr) Error() string { return string(e) }

const errFakeAgent = fakeErr("agent spawn refused")

func testEngine(t *testing.T, gw *fakeGateway) *Engine {
	t.Helper()
	cfg := appconfig.Defaults()
	cfg.MaxSpawnDepth = 3
	cfg.MaxChildrenPerAgent = 5
	return New(cfg, gw, subagents.New(), t.TempDir(), func() int64 { return 0 })
}

func TestSequentialPassesContextAndConcatenatesResults(t *testing.T) {
	gw := newFakeGateway(map[string]string{"run A": "A-ok", "run B": "B-ok"})
	e := testEngine(t, gw)

	req := Request{
		Pattern:     PatternSequential,
		PassContext: true,
		Label:       "seq-test",
		Steps: []Step{
			{Name: "A", Task: "run A"},
			{Name: "B", Task: "run B"},
		},
	}

	res, err := e.Run(context.Background(), "caller", "agent-1", req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Status != StatusDone {
		t.Fatalf("status = %s, want done", res.Status)
	}
	want := "## A\n\nA-ok\n\n---\n\n## B\n\nB-ok"
	if res.Results != want {
		t.Fatalf("results = %q, want %q", res.Results, want)
	}
	if res.Checkpoint != nil {
		t.Fatalf("checkpoint should be cleared on success")
	}
}

func TestSequentialStopsOnFirstFailure(t *testing.T) {
	gw := newFakeGateway(map[string]string{"run B": "B-ok"})
	gw.fail["run A"] = true
	e := testEngine(t, gw)

	req := Request{
		Pattern: PatternSequential,
		Label:   "seq-fail",
		Steps: []Step{
			{Name: "A", Task: "run A"},
			{Name: "B", Task: "run B"},
		},
	}

	res, err := e.Run(context.Background(), "caller", "agent-1", req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", res.Status)
	}
	if res.StepsCompleted != 0 || res.StepsFailed != 1 {
		t.Fatalf("completed=%d failed=%d, want 0/1", res.StepsCompleted, res.StepsFailed)
	}
	if _, ok := res.Failures["A"]; !ok {
		t.Fatalf("expected failure recorded for step A")
	}
	if res.Checkpoint == nil {
		t.Fatalf("expected checkpoint to be retained after failure")
	}
}

func TestDAGFailingRootLeavesDependentsUnreached(t *testing.T) {
	gw := newFakeGateway(map[string]string{"run child": "child-ok"})
	gw.fail["run root"] = true
	e := testEngine(t, gw)

	req := Request{
		Pattern: PatternDAG,
		Label:   "dag-fail",
		Steps: []Step{
			{Name: "root", Task: "run root"},
			{Name: "child", Task: "run child", DependsOn: []string{"root"}},
		},
	}

	res, err := e.Run(context.Background(), "caller", "agent-1", req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", res.Status)
	}
	if res.StepsCompleted != 0 {
		t.Fatalf("expected dependent step to never run, got %d completed", res.StepsCompleted)
	}
	if _, ok := res.Failures["root"]; !ok {
		t.Fatalf("expected root failure recorded")
	}
	if _, ok := res.Failures["child"]; ok {
		t.Fatalf("child should never have been attempted")
	}
}

func TestParallelRunsAllStepsDespiteOneFailure(t *testing.T) {
	gw := newFakeGateway(map[string]string{"run B": "B-ok", "run C": "C-ok"})
	gw.fail["run A"] = true
	e := testEngine(t, gw)

	req := Request{
		Pattern: PatternParallel,
		Label:   "par-test",
		Steps: []Step{
			{Name: "A", Task: "run A"},
			{Name: "B", Task: "run B"},
			{Name: "C", Task: "run C"},
		},
	}

	res, err := e.Run(context.Background(), "caller", "agent-1", req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.StepsCompleted != 2 || res.StepsFailed != 1 {
		t.Fatalf("completed=%d failed=%d, want 2/1", res.StepsCompleted, res.StepsFailed)
	}
}

func TestAdmissionRejectsExcessSpawnDepth(t *testing.T) {
	gw := newFakeGateway(nil)
	cfg := appconfig.Defaults()
	cfg.MaxSpawnDepth = 1
	registry := subagents.New()
	registry.Register("root", subagents.Run{SessionKey: "caller", SpawnedBy: "root", Depth: 1})
	e := New(cfg, gw, registry, t.TempDir(), func() int64 { return 0 })

	req := Request{Pattern: PatternSequential, Steps: []Step{{Name: "A", Task: "run A"}}}
	_, err := e.Run(context.Background(), "caller", "agent-1", req)
	if err == nil || !IsForbidden(err) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestValidateRejectsUnknownDAGDependency(t *testing.T) {
	req := Request{
		Pattern: PatternDAG,
		Steps: []Step{
			{Name: "A", Task: "x", DependsOn: []string{"missing"}},
		},
	}
	if err := validate(req); err == nil {
		t.Fatalf("expected validation error for unknown dependency")
	}
}
