package queue

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/anthropics/agentctl/internal/storage"
)

// Store implements the task-queue operations of spec.md §4.3 over a
// single JSON document owned exclusively by this component.
type Store struct {
	doc *storage.Document
	now func() int64
}

// New creates a Store rooted at workspaceRoot/.task-queue.json.
func New(workspaceRoot string, now func() int64) *Store {
	return &Store{
		doc: storage.NewDocument(filepath.Join(workspaceRoot, DocumentFilename)),
		now: now,
	}
}

// newID mints a short opaque token, unique within a queue with high
// probability (spec.md §3 "id: short opaque token").
func newID() string {
	return "t_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}

// Add appends a new pending task. priority defaults to normal.
// maxRetries defaults to 3 when genuinely absent (a negative
// sentinel), but an explicit 0 is kept as-is: spec.md §4.3's "Note on
// fail semantics" requires maxRetries=0 to fail a task terminally on
// its first failure, so 0 must remain distinguishable from "unset".
func (s *Store) Add(task string, data any, priority Priority, maxRetries int, tags []string) (Task, error) {
	if strings.TrimSpace(task) == "" {
		return Task{}, fmt.Errorf("task description is required")
	}
	if priority == "" {
		priority = PriorityNormal
	}
	if maxRetries < 0 {
		maxRetries = 3
	}

	now := s.now()
	t := Task{
		ID:         newID(),
		Task:       task,
		Data:       data,
		Priority:   priority,
		Status:     StatusPending,
		Retries:    0,
		MaxRetries: maxRetries,
		CreatedAt:  now,
		UpdatedAt:  now,
		Tags:       tags,
	}

	err := s.mutate(func(doc *document) {
		doc.Tasks = append(doc.Tasks, t)
	})
	return t, err
}

// ClaimEmpty is returned by Claim when no pending task is available.
var ClaimEmpty = fmt.Errorf("empty")

// Claim pops the highest-priority, oldest pending task and marks it
// claimed. Claim ordering sorts by priority rank, breaking ties by
// ascending createdAt (spec.md §4.3).
func (s *Store) Claim() (Task, error) {
	var claimed Task
	found := false

	err := s.mutate(func(doc *document) {
		idx := claimIndex(doc.Tasks)
		if idx < 0 {
			return
		}
		applyClaim(&doc.Tasks[idx], s.now())
		claimed = doc.Tasks[idx]
		found = true
	})
	if err != nil {
		return Task{}, err
	}
	if !found {
		return Task{}, ClaimEmpty
	}
	return claimed, nil
}

func claimIndex(tasks []Task) int {
	best := -1
	for i, t := range tasks {
		if t.Status != StatusPending {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		if lessPending(t, tasks[best]) {
			best = i
		}
	}
	return best
}

func lessPending(a, b Task) bool {
	if a.Priority.rank() != b.Priority.rank() {
		return a.Priority.rank() < b.Priority.rank()
	}
	return a.CreatedAt < b.CreatedAt
}

// Pending returns every pending task in claim order, without
// mutating state — used by introspection tools and tests.
func (s *Store) Pending() []Task {
	doc := s.load()
	out := make([]Task, 0)
	for _, t := range doc.Tasks {
		if t.Status == StatusPending {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return lessPending(out[i], out[j]) })
	return out
}

// NotFound is returned by Complete/Fail/Retry for an unknown id.
var NotFound = fmt.Errorf("not_found")

// Complete transitions a claimed task to done with the given result.
func (s *Store) Complete(id string, result any) (Task, error) {
	var out Task
	found := false
	err := s.mutate(func(doc *document) {
		idx := indexOf(doc.Tasks, id)
		if idx < 0 {
			return
		}
		applyComplete(&doc.Tasks[idx], result, s.now())
		out = doc.Tasks[idx]
		found = true
	})
	if err != nil {
		return Task{}, err
	}
	if !found {
		return Task{}, NotFound
	}
	return out, nil
}

// FailResult is returned by Fail.
type FailResult struct {
	Status  FailOutcome
	Retries int
	Task    Task
}

// Fail transitions a claimed task toward retry or terminal failure.
func (s *Store) Fail(id, errMsg string) (FailResult, error) {
	var out FailResult
	found := false
	err := s.mutate(func(doc *document) {
		idx := indexOf(doc.Tasks, id)
		if idx < 0 {
			return
		}
		outcome := applyFail(&doc.Tasks[idx], errMsg, s.now())
		out = FailResult{Status: outcome, Retries: doc.Tasks[idx].Retries, Task: doc.Tasks[idx]}
		found = true
	})
	if err != nil {
		return FailResult{}, err
	}
	if !found {
		return FailResult{}, NotFound
	}
	return out, nil
}

// Retry moves a failed task back to pending without resetting its
// retry counter (spec.md §4.3).
func (s *Store) Retry(id string) (Task, error) {
	var out Task
	found := false
	err := s.mutate(func(doc *document) {
		idx := indexOf(doc.Tasks, id)
		if idx < 0 {
			return
		}
		applyRetry(&doc.Tasks[idx], s.now())
		out = doc.Tasks[idx]
		found = true
	})
	if err != nil {
		return Task{}, err
	}
	if !found {
		return Task{}, NotFound
	}
	return out, nil
}

// Clear deletes done/failed tasks whose updatedAt is older than the
// cutoff; pending and claimed tasks are always retained
// (spec.md §4.3 "clear").
func (s *Store) Clear(olderThanHours float64) (int, error) {
	if olderThanHours <= 0 {
		olderThanHours = 24
	}
	cutoff := s.now() - int64(olderThanHours*float64(time.Hour/time.Millisecond))

	removed := 0
	err := s.mutate(func(doc *document) {
		kept := make([]Task, 0, len(doc.Tasks))
		for _, t := range doc.Tasks {
			if (t.Status == StatusDone || t.Status == StatusFailed) && t.UpdatedAt < cutoff {
				removed++
				continue
			}
			kept = append(kept, t)
		}
		doc.Tasks = kept
	})
	return removed, err
}

// Stats returns the total and per-status counts (spec.md §4.3 "stats").
func (s *Store) Stats() Stats {
	doc := s.load()
	st := Stats{Total: len(doc.Tasks)}
	for _, t := range doc.Tasks {
		switch t.Status {
		case StatusPending:
			st.Pending++
		case StatusClaimed:
			st.Claimed++
		case StatusDone:
			st.Done++
		case StatusFailed:
			st.Failed++
		}
	}
	return st
}

func indexOf(tasks []Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) load() document {
	var doc document
	s.doc.Load(&doc)
	return doc
}

func (s *Store) mutate(fn func(doc *document)) error {
	var doc document
	return s.doc.Mutate(&doc, func(v any) error {
		fn(v.(*document))
		return nil
	})
}
