package workflow

import "context"

// runSequential executes steps in order, threading each completed
// step's result into the next as context when req.PassContext is set,
// and stopping at the first failure (spec.md §4.7.4 "sequential").
func (e *Engine) runSequential(ctx context.Context, r *run, req Request, callerSessionKey, agentID string, callerDepth int) {
	for _, step := range req.Steps {
		ckpt := r.snapshot()
		if _, done := ckpt.Completed[step.Name]; done {
			continue
		}
		if _, failed := ckpt.Failed[step.Name]; failed {
			return
		}

		contextText := ""
		if req.PassContext {
			contextText = sequentialContext(ckpt, req.Steps)
		}

		result, durationMs, err := e.executeStep(ctx, step, contextText, callerSessionKey, agentID, callerDepth)
		if err != nil {
			r.recordFailure(step.Name, err)
			return
		}
		r.recordSuccess(step.Name, result, durationMs)
	}
}

// sequentialContext joins every already-completed step's result, in
// declared order, into one context block.
func sequentialContext(ckpt Checkpoint, steps []Step) string {
	out := ""
	for _, s := range steps {
		o, ok := ckpt.Completed[s.Name]
		if !ok {
			continue
		}
		if out != "" {
			out += "\n\n"
		}
		out += "### " + s.Name + "\n" + o.Result
	}
	return out
}
