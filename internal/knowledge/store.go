package knowledge

import (
	"fmt"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/spf13/cast"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/anthropics/agentctl/internal/storage"
)

// rawDoc is the concrete map type the JSON document primitive
// marshals/unmarshals directly; document (types.go) is a thin named
// view over the same underlying map so callers get typed helpers.
type rawDoc = map[string]*orderedmap.OrderedMap[string, Entry]

// Store implements the knowledge-store operations of spec.md §4.2 over
// a single JSON document owned exclusively by this component.
type Store struct {
	doc *storage.Document
	now func() int64
}

// New creates a Store rooted at workspaceRoot/.knowledge-store.json.
func New(workspaceRoot string, now func() int64) *Store {
	return &Store{
		doc: storage.NewDocument(filepath.Join(workspaceRoot, DocumentFilename)),
		now: now,
	}
}

const defaultLimit = 50

// SetResult is the outcome discriminant of Set.
type SetResult string

const (
	SetCreated SetResult = "created"
	SetUpdated SetResult = "updated"
)

// Set upserts (category, key) -> data, preserving createdAt on update
// and always advancing updatedAt (spec.md §3 invariant).
func (s *Store) Set(category, key string, data any, tags []string) (SetResult, error) {
	if data == nil {
		return "", fmt.Errorf("data is required")
	}

	result := SetCreated
	err := s.mutate(func(doc document) {
		cat, ok := doc[category]
		if !ok {
			cat = orderedmap.New[string, Entry]()
			doc[category] = cat
		}

		now := s.now()
		if existing, ok := cat.Get(key); ok {
			result = SetUpdated
			existing.Data = data
			existing.UpdatedAt = now
			existing.Tags = tags
			cat.Set(key, existing)
		} else {
			cat.Set(key, Entry{Data: data, CreatedAt: now, UpdatedAt: now, Tags: tags})
		}
	})
	if err != nil {
		return "", err
	}
	return result, nil
}

// Get returns the entry at (category, key), or ok=false if absent.
func (s *Store) Get(category, key string) (EntryView, bool) {
	doc := s.load()
	cat, ok := doc[category]
	if !ok {
		return EntryView{}, false
	}
	entry, ok := cat.Get(key)
	if !ok {
		return EntryView{}, false
	}
	return entry.view(), true
}

// DeleteResult is the outcome discriminant of Delete.
type DeleteResult string

const (
	DeleteDeleted  DeleteResult = "deleted"
	DeleteNotFound DeleteResult = "not_found"
)

// Delete removes (category, key), dropping the category entirely once
// it becomes empty (spec.md §4.2 "delete").
func (s *Store) Delete(category, key string) (DeleteResult, error) {
	result := DeleteNotFound
	err := s.mutate(func(doc document) {
		cat, ok := doc[category]
		if !ok {
			return
		}
		if _, ok := cat.Get(key); !ok {
			return
		}
		cat.Delete(key)
		result = DeleteDeleted
		if cat.Len() == 0 {
			delete(doc, category)
		}
	})
	if err != nil {
		return "", err
	}
	return result, nil
}

// List returns up to limit keys in insertion order with their
// updatedAt (spec.md §4.2 "list"). limit<=0 uses the default of 50.
func (s *Store) List(category string, limit int) []ListItem {
	if limit <= 0 {
		limit = defaultLimit
	}
	doc := s.load()
	cat, ok := doc[category]
	if !ok {
		return nil
	}

	var out []ListItem
	for pair := cat.Oldest(); pair != nil && len(out) < limit; pair = pair.Next() {
		out = append(out, ListItem{Key: pair.Key, UpdatedAt: isoMillis(pair.Value.UpdatedAt)})
	}
	return out
}

// QueryResultItem is one row of a query() result.
type QueryResultItem struct {
	Key   string    `json:"key"`
	Entry EntryView `json:"entry"`
}

// Query returns entries whose data is an object satisfying every
// (fk, fv) in filter — string filter values match as a case-insensitive
// substring of the field's string form; anything else is strict
// equality (spec.md §4.2 "query").
func (s *Store) Query(category string, filter map[string]any, limit int) []QueryResultItem {
	if limit <= 0 {
		limit = defaultLimit
	}
	doc := s.load()
	cat, ok := doc[category]
	if !ok {
		return nil
	}

	var out []QueryResultItem
	for pair := cat.Oldest(); pair != nil && len(out) < limit; pair = pair.Next() {
		obj, ok := pair.Value.Data.(map[string]any)
		if !ok {
			continue
		}
		if matches(obj, filter) {
			out = append(out, QueryResultItem{Key: pair.Key, Entry: pair.Value.view()})
		}
	}
	return out
}

func matches(obj map[string]any, filter map[string]any) bool {
	for fk, fv := range filter {
		actual, present := obj[fk]
		if !present {
			return false
		}
		if want, ok := fv.(string); ok {
			got, err := cast.ToStringE(actual)
			if err != nil {
				return false
			}
			if !strings.Contains(strings.ToLower(got), strings.ToLower(want)) {
				return false
			}
			continue
		}
		if !reflect.DeepEqual(actual, fv) {
			return false
		}
	}
	return true
}

// Categories returns every category name with its entry count
// (spec.md §4.2 "categories").
func (s *Store) Categories() []CategorySummary {
	doc := s.load()
	out := make([]CategorySummary, 0, len(doc))
	for name, cat := range doc {
		out = append(out, CategorySummary{Name: name, Count: cat.Len()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// load reads the document, translating a missing/malformed file into
// an empty document (spec.md §4.1: load never fails).
func (s *Store) load() document {
	raw := rawDoc{}
	s.doc.Load(&raw)
	return document(raw)
}

// mutate performs an atomic read-modify-write over the document. The
// map conversions here are representation-preserving (document and
// rawDoc share an underlying map), so mutations inside fn are visible
// to the primitive's save step without a second pass.
func (s *Store) mutate(fn func(doc document)) error {
	raw := rawDoc{}
	return s.doc.Mutate(&raw, func(v any) error {
		m := *v.(*rawDoc)
		if m == nil {
			m = rawDoc{}
			*v.(*rawDoc) = m
		}
		fn(document(m))
		return nil
	})
}
