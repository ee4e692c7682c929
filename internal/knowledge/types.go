// Package knowledge implements the structured key-value knowledge
// store (spec.md §4.2): category/key CRUD over arbitrary JSON payloads
// with a partial-match query.
package knowledge

import (
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DocumentFilename is the file this store owns under the workspace
// root (spec.md §6).
const DocumentFilename = ".knowledge-store.json"

// Entry is one (category, key) record, spec.md §3 "Knowledge entry".
type Entry struct {
	Data      any      `json:"data"`
	CreatedAt int64    `json:"createdAt"`
	UpdatedAt int64    `json:"updatedAt"`
	Tags      []string `json:"tags,omitempty"`
}

// EntryView is Entry with ISO-8601 timestamps, the shape get/query
// return to callers (spec.md §4.2 "get").
type EntryView struct {
	Data      any      `json:"data"`
	CreatedAt string   `json:"createdAt"`
	UpdatedAt string   `json:"updatedAt"`
	Tags      []string `json:"tags,omitempty"`
}

func (e Entry) view() EntryView {
	return EntryView{
		Data:      e.Data,
		CreatedAt: isoMillis(e.CreatedAt),
		UpdatedAt: isoMillis(e.UpdatedAt),
		Tags:      e.Tags,
	}
}

func isoMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// category is an insertion-order-preserving key -> entry map.
type category = orderedmap.OrderedMap[string, Entry]

// document is the on-disk shape of .knowledge-store.json: a plain
// JSON object mapping category name directly to its key -> entry map
// (spec.md §3 "Knowledge entry", keyed by (category, key)).
type document map[string]*category

// ListItem is one row of a list() result.
type ListItem struct {
	Key       string `json:"key"`
	UpdatedAt string `json:"updatedAt"`
}

// CategorySummary is one row of a categories() result.
type CategorySummary struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
