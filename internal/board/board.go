package board

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/anthropics/agentctl/internal/storage"
)

// Board implements the message-board operations of spec.md §4.4. Each
// board name maps to its own owned append log — boards never share a
// file with another component or with each other.
type Board struct {
	root string
	now  func() int64
}

// New creates a Board rooted at workspaceRoot/.agent-boards/.
func New(workspaceRoot string, now func() int64) *Board {
	return &Board{root: filepath.Join(workspaceRoot, BoardsDir), now: now}
}

// sanitize restricts a board name to [A-Za-z0-9_-], replacing every
// other character with "_" before it is used as a filename
// (spec.md §4.4 "post").
func sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

func (b *Board) logPath(board string) string {
	return filepath.Join(b.root, sanitize(board)+LogSuffix)
}

// newMessageID mints "<ms>-<6 base36 chars>", unique with high
// probability per board (spec.md §3 "Board message").
func newMessageID(ms int64) string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	buf := make([]byte, 6)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			// crypto/rand failure is effectively unrecoverable; fall
			// back to a time-derived digit rather than panicking.
			buf[i] = alphabet[int(ms+int64(i))%len(alphabet)]
			continue
		}
		buf[i] = alphabet[n.Int64()]
	}
	return strconv.FormatInt(ms, 10) + "-" + string(buf)
}

// PostResult is the result of Post.
type PostResult struct {
	Posted bool   `json:"posted"`
	ID     string `json:"id"`
}

// Post appends a message to board, sanitizing the board name for use
// as a filename (spec.md §4.4 "post").
func (b *Board) Post(boardName, message, from string, tags []string) (PostResult, error) {
	if strings.TrimSpace(message) == "" {
		return PostResult{}, fmt.Errorf("message is required")
	}
	if from == "" {
		from = "anonymous"
	}

	now := b.now()
	msg := Message{
		ID:        newMessageID(now),
		Board:     boardName,
		From:      from,
		Message:   message,
		Timestamp: now,
		Tags:      tags,
	}

	log := storage.NewAppendLog(b.logPath(boardName))
	if err := log.Append(msg); err != nil {
		return PostResult{}, err
	}
	return PostResult{Posted: true, ID: msg.ID}, nil
}

// Read returns a tail of messages. Without since, it returns the last
// limit messages in chronological order. With since as an ISO
// timestamp, it returns messages after since, then takes the last
// limit. since="last_read" returns everything; an unparsable since is
// silently ignored (spec.md §4.4 "read").
func (b *Board) Read(boardName string, since string, limit int) []Message {
	if limit <= 0 {
		limit = defaultReadLimit
	}

	all := b.readAll(boardName)
	sort.SliceStable(all, func(i, j int) bool { return all[i].Timestamp < all[j].Timestamp })

	if since == "last_read" {
		return all
	}

	if since != "" {
		if cutoff, err := time.Parse(time.RFC3339, since); err == nil {
			cutoffMs := cutoff.UnixMilli()
			filtered := make([]Message, 0, len(all))
			for _, m := range all {
				if m.Timestamp > cutoffMs {
					filtered = append(filtered, m)
				}
			}
			return tail(filtered, limit)
		}
		// unparsable since is silently ignored
	}

	return tail(all, limit)
}

func tail(msgs []Message, limit int) []Message {
	if len(msgs) <= limit {
		return msgs
	}
	return msgs[len(msgs)-limit:]
}

func (b *Board) readAll(boardName string) []Message {
	log := storage.NewAppendLog(b.logPath(boardName))
	raw := log.ReadAll(func(line []byte) (any, bool) {
		var m Message
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, false
		}
		return m, true
	})
	out := make([]Message, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.(Message))
	}
	return out
}

// List returns board names derived from log file basenames. A missing
// directory yields an empty list, not an error (spec.md §4.4 "list").
func (b *Board) List() []string {
	entries, err := os.ReadDir(b.root)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), LogSuffix) {
			continue
		}
		out = append(out, strings.TrimSuffix(e.Name(), LogSuffix))
	}
	sort.Strings(out)
	return out
}

// Clear deletes a board's log file. Absence is not an error
// (spec.md §4.4 "clear").
func (b *Board) Clear(boardName string) error {
	return storage.NewAppendLog(b.logPath(boardName)).Delete()
}
