// Package workflow implements the workflow engine: three pattern
// executors (sequential, parallel, DAG) over sub-agent spawns with
// checkpoint persistence and depth/fan-out guards (spec.md §4.7).
package workflow

import "fmt"

// Step is spec.md §3's workflow step.
type Step struct {
	Name           string   `json:"name"`
	Task           string   `json:"task"`
	Model          string   `json:"model,omitempty"`
	Thinking       string   `json:"thinking,omitempty"`
	DependsOn      []string `json:"dependsOn,omitempty"`
	TimeoutSeconds int      `json:"timeoutSeconds,omitempty"`
}

// Pattern is one of the three executor strategies.
type Pattern string

const (
	PatternSequential Pattern = "sequential"
	PatternParallel   Pattern = "parallel"
	PatternDAG        Pattern = "dag"
)

// Request is the input to Engine.Run.
type Request struct {
	Pattern     Pattern `json:"pattern"`
	Steps       []Step  `json:"steps"`
	PassContext bool    `json:"passContext,omitempty"`
	Merge       string  `json:"merge,omitempty"`
	Label       string  `json:"label,omitempty"`
	Resume      bool    `json:"resume,omitempty"`
}

// defaultStepTimeoutSeconds is applied when a step doesn't declare one
// (spec.md §4.7.3: "step.timeoutSeconds ?? 600").
const defaultStepTimeoutSeconds = 600

func (s Step) timeout() int {
	if s.TimeoutSeconds > 0 {
		return s.TimeoutSeconds
	}
	return defaultStepTimeoutSeconds
}

// validate enforces spec.md §4.7.1's admission checks that don't
// depend on runtime state: non-empty steps, unique names, and (for
// DAG) known dependency names.
func validate(req Request) error {
	if len(req.Steps) == 0 {
		return fmt.Errorf("validation: steps must be non-empty")
	}

	seen := make(map[string]bool, len(req.Steps))
	for _, s := range req.Steps {
		if s.Name == "" {
			return fmt.Errorf("validation: step name is required")
		}
		if seen[s.Name] {
			return fmt.Errorf("validation: duplicate step name %q", s.Name)
		}
		seen[s.Name] = true
	}

	if req.Pattern == PatternDAG {
		for _, s := range req.Steps {
			for _, dep := range s.DependsOn {
				if !seen[dep] {
					return fmt.Errorf("validation: step %q depends on unknown step %q", s.Name, dep)
				}
			}
		}
	}

	return nil
}

// StepOutcome is one entry of a checkpoint's completed map.
type StepOutcome struct {
	Result     string `json:"result"`
	DurationMs int64  `json:"durationMs"`
}

// StepFailure is one entry of a checkpoint's failed map.
type StepFailure struct {
	Error string `json:"error"`
}

// Status is the overall workflow/checkpoint status.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
)

// sentinelWorkflowKey records an engine-level exception (raised
// outside any single step's own error handling) so the checkpoint
// stays resumable (spec.md §7 "Propagation policy").
const sentinelWorkflowKey = "_workflow"

// Result is the aggregate spec.md §4.7.5 return shape.
type Result struct {
	Status          Status            `json:"status"`
	Pattern         Pattern           `json:"pattern"`
	StepsCompleted  int               `json:"stepsCompleted"`
	StepsFailed     int               `json:"stepsFailed"`
	TotalSteps      int               `json:"totalSteps"`
	TotalDurationMs int64             `json:"totalDurationMs"`
	Results         any               `json:"results"`
	Failures        map[string]string `json:"failures,omitempty"`
	Checkpoint      *Checkpoint       `json:"checkpoint,omitempty"`
}
