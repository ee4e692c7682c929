package workflow

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/anthropics/agentctl/internal/storage"
)

// Checkpoint is the on-disk record of one workflow run (spec.md
// §4.7.2). It is re-loaded on resume and deleted once the workflow
// reaches StatusDone.
type Checkpoint struct {
	WorkflowID string                 `json:"workflowId"`
	Pattern    Pattern                `json:"pattern"`
	Steps      []string               `json:"steps"`
	Completed  map[string]StepOutcome `json:"completed"`
	Failed     map[string]StepFailure `json:"failed"`
	Status     Status                 `json:"status"`
	StartedAt  int64                  `json:"startedAt"`
	UpdatedAt  int64                  `json:"updatedAt"`
}

var unsafeLabelChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// safeLabel sanitizes a caller-supplied label for use in a filename,
// the same way spec.md's other components derive filesystem-safe
// names from user text (spec.md §4.4 "Filenames").
func safeLabel(label string) string {
	if label == "" {
		return "unlabeled"
	}
	return unsafeLabelChars.ReplaceAllString(label, "_")
}

// checkpointPath returns the fixed path a workflow's checkpoint lives
// at, under workspaceRoot/checkpoints (spec.md §4.7.2).
func checkpointPath(workspaceRoot, label string) string {
	return filepath.Join(workspaceRoot, "checkpoints", "workflow-"+safeLabel(label)+".json")
}

// stepNamesMatch reports whether a loaded checkpoint's step sequence
// matches the requested one exactly, in order — a resume is only
// honored when the two agree (spec.md §4.7.2 "Resume").
func stepNamesMatch(existing []string, steps []Step) bool {
	if len(existing) != len(steps) {
		return false
	}
	for i, name := range existing {
		if steps[i].Name != name {
			return false
		}
	}
	return true
}

// ReadCheckpoint loads label's checkpoint, if one exists, without
// resuming or mutating it — backs the supplemented workflow.status
// tool (SPEC_FULL.md), which lets a caller poll progress from outside
// the Engine.Run call that owns the workflow.
func ReadCheckpoint(workspaceRoot, label string) (Checkpoint, bool) {
	doc := storage.NewDocument(checkpointPath(workspaceRoot, label))
	if !doc.Exists() {
		return Checkpoint{}, false
	}
	var ckpt Checkpoint
	doc.Load(&ckpt)
	return ckpt, true
}

// ListCheckpoints returns every in-flight checkpoint under
// workspaceRoot/checkpoints — backs the status resource's view of
// running workflows (SPEC_FULL.md). A missing or unreadable
// checkpoints directory yields an empty list rather than an error,
// matching this package's load-never-fails posture.
func ListCheckpoints(workspaceRoot string) []Checkpoint {
	entries, err := os.ReadDir(filepath.Join(workspaceRoot, "checkpoints"))
	if err != nil {
		return nil
	}

	var out []Checkpoint
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		doc := storage.NewDocument(filepath.Join(workspaceRoot, "checkpoints", entry.Name()))
		var ckpt Checkpoint
		doc.Load(&ckpt)
		if ckpt.WorkflowID != "" {
			out = append(out, ckpt)
		}
	}
	return out
}

// loadOrCreateCheckpoint resumes an existing checkpoint when req.Resume
// is set and its step sequence matches, otherwise starts a fresh one.
func loadOrCreateCheckpoint(doc *storage.Document, req Request, now int64) Checkpoint {
	if req.Resume {
		var existing Checkpoint
		doc.Load(&existing)
		if existing.WorkflowID != "" && stepNamesMatch(existing.Steps, req.Steps) {
			if existing.Completed == nil {
				existing.Completed = map[string]StepOutcome{}
			}
			if existing.Failed == nil {
				existing.Failed = map[string]StepFailure{}
			}
			existing.Status = StatusInProgress
			return existing
		}
	}

	names := make([]string, len(req.Steps))
	for i, s := range req.Steps {
		names[i] = s.Name
	}
	return Checkpoint{
		WorkflowID: uuid.New().String(),
		Pattern:    req.Pattern,
		Steps:      names,
		Completed:  map[string]StepOutcome{},
		Failed:     map[string]StepFailure{},
		Status:     StatusInProgress,
		StartedAt:  now,
		UpdatedAt:  now,
	}
}
