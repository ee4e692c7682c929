package queue

import "testing"

func testStore(t *testing.T) *Store {
	t.Helper()
	tick := int64(0)
	return New(t.TempDir(), func() int64 {
		tick++
		return tick
	})
}

func TestClaimOrdersByPriorityThenAge(t *testing.T) {
	s := testStore(t)

	low, err := s.Add("low prio", nil, PriorityLow, 0, nil)
	if err != nil {
		t.Fatalf("Add low: %v", err)
	}
	_, err = s.Add("normal prio", nil, PriorityNormal, 0, nil)
	if err != nil {
		t.Fatalf("Add normal: %v", err)
	}
	high, err := s.Add("high prio", nil, PriorityHigh, 0, nil)
	if err != nil {
		t.Fatalf("Add high: %v", err)
	}

	claimed, err := s.Claim()
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if claimed.ID != high.ID {
		t.Fatalf("claimed %q, want the high priority task %q", claimed.ID, high.ID)
	}

	claimed, err = s.Claim()
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if claimed.Priority != PriorityNormal {
		t.Fatalf("claimed priority = %s, want normal", claimed.Priority)
	}

	claimed, err = s.Claim()
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if claimed.ID != low.ID {
		t.Fatalf("claimed %q, want the low priority task %q", claimed.ID, low.ID)
	}

	if _, err := s.Claim(); err != ClaimEmpty {
		t.Fatalf("Claim on empty queue = %v, want ClaimEmpty", err)
	}
}

func TestFailReachesTerminalStateAfterMaxRetries(t *testing.T) {
	s := testStore(t)
	task, err := s.Add("flaky", nil, "", 2, nil)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	if _, err := s.Claim(); err != nil {
		t.Fatalf("Claim: %v", err)
	}

	res, err := s.Fail(task.ID, "boom 1")
	if err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if res.Status != FailRetrying || res.Retries != 1 {
		t.Fatalf("first fail = %+v, want retrying/1", res)
	}

	if _, err := s.Claim(); err != nil {
		t.Fatalf("re-claim: %v", err)
	}
	res, err = s.Fail(task.ID, "boom 2")
	if err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if res.Status != FailFailed || res.Retries != 2 {
		t.Fatalf("second fail = %+v, want failed/2", res)
	}

	stats := s.Stats()
	if stats.Pending != 0 || stats.Failed != 1 || stats.Total != 1 {
		t.Fatalf("stats = %+v, want pending=0 failed=1 total=1", stats)
	}
}

func TestCompleteRequiresKnownID(t *testing.T) {
	s := testStore(t)
	if _, err := s.Complete("does-not-exist", nil); err != NotFound {
		t.Fatalf("Complete on unknown id = %v, want NotFound", err)
	}
}

func TestClearRemovesOnlyOldDoneOrFailedTasks(t *testing.T) {
	var clock int64
	s := New(t.TempDir(), func() int64 { return clock })

	pending, err := s.Add("still open", nil, "", 0, nil)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	stale, err := s.Add("old and done", nil, "", 0, nil)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	clock = 1
	if _, err := s.Claim(); err != nil { // claims "pending" first (older createdAt tie broken by insertion order)
		t.Fatalf("Claim: %v", err)
	}
	if _, err := s.Complete(pending.ID, "n/a"); err != nil {
		t.Fatalf("Complete pending: %v", err)
	}

	if _, err := s.Claim(); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if _, err := s.Complete(stale.ID, "n/a"); err != nil {
		t.Fatalf("Complete stale: %v", err)
	}

	const hourMs = int64(60 * 60 * 1000)
	clock = 1 + 48*hourMs // 48h after the stale task finished

	removed, err := s.Clear(24)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
	if s.Stats().Total != 0 {
		t.Fatalf("stats.Total = %d, want 0 after clearing both done tasks", s.Stats().Total)
	}
}
