package workflow

import (
	"context"
	"sync"
)

// runParallel launches every not-yet-completed step concurrently and
// waits for all of them, regardless of individual failures — one
// step's error does not cancel its siblings (spec.md §4.7.4
// "parallel").
func (e *Engine) runParallel(ctx context.Context, r *run, req Request, callerSessionKey, agentID string, callerDepth int) {
	ckpt := r.snapshot()

	var wg sync.WaitGroup
	for _, step := range req.Steps {
		if _, done := ckpt.Completed[step.Name]; done {
			continue
		}
		if _, failed := ckpt.Failed[step.Name]; failed {
			continue
		}

		step := step
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, durationMs, err := e.executeStep(ctx, step, "", callerSessionKey, agentID, callerDepth)
			if err != nil {
				r.recordFailure(step.Name, err)
				return
			}
			r.recordSuccess(step.Name, result, durationMs)
		}()
	}
	wg.Wait()
}
