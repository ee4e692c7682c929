package workflow

import (
	"context"
	"sync"
)

// runDAG executes steps in dependency order: each round runs every
// step whose dependencies have all completed, concurrently, for up to
// len(steps) rounds. A step whose dependency failed (or never became
// ready) is left unreached rather than run (spec.md §4.7.4 "dag").
func (e *Engine) runDAG(ctx context.Context, r *run, req Request, callerSessionKey, agentID string, callerDepth int) {
	for round := 0; round < len(req.Steps); round++ {
		ckpt := r.snapshot()
		ready := readyStepsFor(ckpt, req.Steps)
		if len(ready) == 0 {
			break
		}

		var wg sync.WaitGroup
		for _, step := range ready {
			step := step
			var contextText string
			if req.PassContext {
				contextText = dagContext(ckpt, step)
			}

			wg.Add(1)
			go func() {
				defer wg.Done()
				result, durationMs, err := e.executeStep(ctx, step, contextText, callerSessionKey, agentID, callerDepth)
				if err != nil {
					r.recordFailure(step.Name, err)
					return
				}
				r.recordSuccess(step.Name, result, durationMs)
			}()
		}
		wg.Wait()
	}
}

// readyStepsFor returns every step that hasn't run yet and whose
// dependencies are all in ckpt.Completed.
func readyStepsFor(ckpt Checkpoint, steps []Step) []Step {
	var ready []Step
	for _, s := range steps {
		if _, done := ckpt.Completed[s.Name]; done {
			continue
		}
		if _, failed := ckpt.Failed[s.Name]; failed {
			continue
		}
		allDepsDone := true
		for _, dep := range s.DependsOn {
			if _, ok := ckpt.Completed[dep]; !ok {
				allDepsDone = false
				break
			}
		}
		if allDepsDone {
			ready = append(ready, s)
		}
	}
	return ready
}

// dagContext joins the results of step's direct dependencies.
func dagContext(ckpt Checkpoint, step Step) string {
	out := ""
	for _, dep := range step.DependsOn {
		o, ok := ckpt.Completed[dep]
		if !ok {
			continue
		}
		if out != "" {
			out += "\n\n"
		}
		out += "### " + dep + "\n" + o.Result
	}
	return out
}
