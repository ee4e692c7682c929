package knowledge

import "testing"

func testStore(t *testing.T) *Store {
	t.Helper()
	var clock int64
	return New(t.TempDir(), func() int64 {
		clock++
		return clock
	})
}

func TestSetCreatesThenUpdatesPreservingCreatedAt(t *testing.T) {
	s := testStore(t)

	result, err := s.Set("plans", "rollout", map[string]any{"phase": "one"}, nil)
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	if result != SetCreated {
		t.Fatalf("result = %s, want created", result)
	}

	first, ok := s.Get("plans", "rollout")
	if !ok {
		t.Fatalf("Get after Set: not found")
	}

	result, err = s.Set("plans", "rollout", map[string]any{"phase": "two"}, []string{"active"})
	if err != nil {
		t.Fatalf("Set (update): %v", err)
	}
	if result != SetUpdated {
		t.Fatalf("result = %s, want updated", result)
	}

	second, ok := s.Get("plans", "rollout")
	if !ok {
		t.Fatalf("Get after update: not found")
	}
	if second.CreatedAt != first.CreatedAt {
		t.Fatalf("createdAt changed on update: %s -> %s", first.CreatedAt, second.CreatedAt)
	}
	if second.UpdatedAt == first.UpdatedAt {
		t.Fatalf("updatedAt did not advance on update")
	}
	data, ok := second.Data.(map[string]any)
	if !ok || data["phase"] != "two" {
		t.Fatalf("Data = %+v, want phase=two", second.Data)
	}
}

func TestSetRejectsNilData(t *testing.T) {
	s := testStore(t)
	if _, err := s.Set("plans", "rollout", nil, nil); err == nil {
		t.Fatalf("Set with nil data: want error, got nil")
	}
}

func TestGetOnMissingCategoryOrKey(t *testing.T) {
	s := testStore(t)
	if _, ok := s.Get("nope", "nope"); ok {
		t.Fatalf("Get on missing category: want ok=false")
	}

	if _, err := s.Set("plans", "rollout", "x", nil); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok := s.Get("plans", "other-key"); ok {
		t.Fatalf("Get on missing key: want ok=false")
	}
}

func TestDeleteDropsEmptyCategory(t *testing.T) {
	s := testStore(t)
	if _, err := s.Set("plans", "a", "x", nil); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := s.Set("plans", "b", "y", nil); err != nil {
		t.Fatalf("Set: %v", err)
	}

	result, err := s.Delete("plans", "a")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if result != DeleteDeleted {
		t.Fatalf("result = %s, want deleted", result)
	}
	if cats := s.Categories(); len(cats) != 1 || cats[0].Count != 1 {
		t.Fatalf("Categories after partial delete = %+v, want one category with count 1", cats)
	}

	result, err = s.Delete("plans", "b")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if result != DeleteDeleted {
		t.Fatalf("result = %s, want deleted", result)
	}
	if cats := s.Categories(); len(cats) != 0 {
		t.Fatalf("Categories after emptying category = %+v, want none", cats)
	}

	result, err = s.Delete("plans", "a")
	if err != nil {
		t.Fatalf("Delete on already-gone entry: %v", err)
	}
	if result != DeleteNotFound {
		t.Fatalf("result = %s, want not_found", result)
	}
}

func TestListReturnsInsertionOrder(t *testing.T) {
	s := testStore(t)
	for _, key := range []string{"c", "a", "b"} {
		if _, err := s.Set("notes", key, key, nil); err != nil {
			t.Fatalf("Set(%s): %v", key, err)
		}
	}

	items := s.List("notes", 0)
	if len(items) != 3 {
		t.Fatalf("len(items) = %d, want 3", len(items))
	}
	want := []string{"c", "a", "b"}
	for i, item := range items {
		if item.Key != want[i] {
			t.Fatalf("items[%d].Key = %s, want %s", i, item.Key, want[i])
		}
	}

	limited := s.List("notes", 2)
	if len(limited) != 2 {
		t.Fatalf("len(limited) = %d, want 2", len(limited))
	}
}

func TestQueryMatchesSubstringForStringsAndEqualityOtherwise(t *testing.T) {
	s := testStore(t)
	entries := map[string]map[string]any{
		"alice-task": {"owner": "Alice Smith", "priority": float64(1)},
		"bob-task":   {"owner": "Bob Jones", "priority": float64(1)},
		"other-task": {"owner": "Alice Smith", "priority": float64(2)},
	}
	for key, data := range entries {
		if _, err := s.Set("tasks", key, data, nil); err != nil {
			t.Fatalf("Set(%s): %v", key, err)
		}
	}

	byName := s.Query("tasks", map[string]any{"owner": "alice"}, 0)
	if len(byName) != 2 {
		t.Fatalf("query by owner substring = %d results, want 2", len(byName))
	}

	byBoth := s.Query("tasks", map[string]any{"owner": "alice", "priority": float64(1)}, 0)
	if len(byBoth) != 1 || byBoth[0].Key != "alice-task" {
		t.Fatalf("query by owner+priority = %+v, want just alice-task", byBoth)
	}

	none := s.Query("tasks", map[string]any{"owner": "nobody"}, 0)
	if len(none) != 0 {
		t.Fatalf("query with no matches = %+v, want empty", none)
	}
}

func TestQuerySkipsNonObjectData(t *testing.T) {
	s := testStore(t)
	if _, err := s.Set("tasks", "scalar", "just a string", nil); err != nil {
		t.Fatalf("Set: %v", err)
	}

	results := s.Query("tasks", map[string]any{"owner": "anyone"}, 0)
	if len(results) != 0 {
		t.Fatalf("Query over scalar data = %+v, want empty (not a match, not a crash)", results)
	}
}

func TestCategoriesSortedWithCounts(t *testing.T) {
	s := testStore(t)
	if _, err := s.Set("zeta", "a", "x", nil); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := s.Set("alpha", "a", "x", nil); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := s.Set("alpha", "b", "x", nil); err != nil {
		t.Fatalf("Set: %v", err)
	}

	cats := s.Categories()
	if len(cats) != 2 || cats[0].Name != "alpha" || cats[1].Name != "zeta" {
		t.Fatalf("Categories = %+v, want [alpha zeta]", cats)
	}
	if cats[0].Count != 2 || cats[1].Count != 1 {
		t.Fatalf("Categories counts = %+v, want alpha=2 zeta=1", cats)
	}
}
