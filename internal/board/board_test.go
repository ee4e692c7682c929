package board

import (
	"testing"
	"time"
)

func TestPostAndReadRoundTrip(t *testing.T) {
	var clock int64
	b := New(t.TempDir(), func() int64 { return clock })

	clock = 1000
	if _, err := b.Post("status", "hello", "alice", nil); err != nil {
		t.Fatalf("Post: %v", err)
	}
	clock = 2000
	if _, err := b.Post("status", "world", "bob", []string{"greeting"}); err != nil {
		t.Fatalf("Post: %v", err)
	}

	msgs := b.Read("status", "", 0)
	if len(msgs) != 2 {
		t.Fatalf("len(msgs) = %d, want 2", len(msgs))
	}
	if msgs[0].Message != "hello" || msgs[1].Message != "world" {
		t.Fatalf("unexpected order: %+v", msgs)
	}
}

func TestReadSinceReturnsOnlyNewerMessages(t *testing.T) {
	var clock int64
	b := New(t.TempDir(), func() int64 { return clock })

	clock = 1_000
	if _, err := b.Post("status", "old news", "alice", nil); err != nil {
		t.Fatalf("Post: %v", err)
	}
	cursor := time.UnixMilli(clock).Format(time.RFC3339)

	clock = 2_000
	if _, err := b.Post("status", "fresh news", "bob", nil); err != nil {
		t.Fatalf("Post: %v", err)
	}

	msgs := b.Read("status", cursor, 0)
	if len(msgs) != 1 {
		t.Fatalf("len(msgs) = %d, want exactly the one new message", len(msgs))
	}
	if msgs[0].Message != "fresh news" {
		t.Fatalf("message = %q, want %q", msgs[0].Message, "fresh news")
	}
}

func TestReadRespectsLimitAsATail(t *testing.T) {
	var clock int64
	b := New(t.TempDir(), func() int64 { return clock })

	for i := 0; i < 5; i++ {
		clock++
		if _, err := b.Post("chatter", "msg", "alice", nil); err != nil {
			t.Fatalf("Post: %v", err)
		}
	}

	msgs := b.Read("chatter", "", 2)
	if len(msgs) != 2 {
		t.Fatalf("len(msgs) = %d, want 2", len(msgs))
	}
}

func TestListAndClear(t *testing.T) {
	b := New(t.TempDir(), func() int64 { return 0 })

	if boards := b.List(); len(boards) != 0 {
		t.Fatalf("List on empty root = %v, want empty", boards)
	}

	if _, err := b.Post("alpha", "hi", "", nil); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if _, err := b.Post("beta", "hi", "", nil); err != nil {
		t.Fatalf("Post: %v", err)
	}

	boards := b.List()
	if len(boards) != 2 || boards[0] != "alpha" || boards[1] != "beta" {
		t.Fatalf("List = %v, want [alpha beta]", boards)
	}

	if err := b.Clear("alpha"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := b.Clear("does-not-exist"); err != nil {
		t.Fatalf("Clear of missing board should not error: %v", err)
	}

	boards = b.List()
	if len(boards) != 1 || boards[0] != "beta" {
		t.Fatalf("List after Clear = %v, want [beta]", boards)
	}
}

func TestSanitizeReplacesUnsafeCharacters(t *testing.T) {
	b := New(t.TempDir(), func() int64 { return 0 })
	if _, err := b.Post("team/status v2", "hi", "", nil); err != nil {
		t.Fatalf("Post: %v", err)
	}
	boards := b.List()
	if len(boards) != 1 || boards[0] != "team_status_v2" {
		t.Fatalf("List = %v, want [team_status_v2]", boards)
	}
}
