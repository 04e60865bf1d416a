package memory

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/opencode-ai/mcp-gateway/internal/storage"
)

type testData struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func TestStore_PutAndGet(t *testing.T) {
	s := New()
	ctx := context.Background()

	data := testData{ID: "123", Name: "test", Value: 42}
	if err := s.Put(ctx, []string{"items", "item1"}, data); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	var retrieved testData
	if err := s.Get(ctx, []string{"items", "item1"}, &retrieved); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if retrieved != data {
		t.Errorf("Data mismatch: got %+v, want %+v", retrieved, data)
	}
}

func TestStore_GetNotFound(t *testing.T) {
	s := New()
	ctx := context.Background()

	var data testData
	if err := s.Get(ctx, []string{"nonexistent", "item"}, &data); err != storage.ErrNotFound {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestStore_Delete(t *testing.T) {
	s := New()
	ctx := context.Background()

	data := testData{ID: "123", Name: "test", Value: 42}
	if err := s.Put(ctx, []string{"items", "toDelete"}, data); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Delete(ctx, []string{"items", "toDelete"}); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	var retrieved testData
	if err := s.Get(ctx, []string{"items", "toDelete"}, &retrieved); err != storage.ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got: %v", err)
	}
}

func TestStore_DeleteNonexistent(t *testing.T) {
	s := New()
	if err := s.Delete(context.Background(), []string{"nonexistent", "item"}); err != nil {
		t.Errorf("delete of nonexistent item should not error: %v", err)
	}
}

func TestStore_List(t *testing.T) {
	s := New()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		id := string(rune('a' + i))
		if err := s.Put(ctx, []string{"items", id}, testData{ID: id, Value: i}); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	items, err := s.List(ctx, []string{"items"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(items) != 3 {
		t.Errorf("expected 3 items, got %d: %v", len(items), items)
	}
}

func TestStore_ListEmpty(t *testing.T) {
	s := New()
	items, err := s.List(context.Background(), []string{"nonexistent"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected empty list, got: %v", items)
	}
}

func TestStore_ListNestedReturnsOneLevel(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Put(ctx, []string{"sessions", "batch1", "member-a"}, testData{ID: "a"}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Put(ctx, []string{"sessions", "solo"}, testData{ID: "solo"}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	items, err := s.List(ctx, []string{"sessions"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := map[string]bool{"batch1": true, "solo": true}
	if len(items) != len(want) {
		t.Fatalf("expected %d entries, got %v", len(want), items)
	}
	for _, item := range items {
		if !want[item] {
			t.Errorf("unexpected entry %q", item)
		}
	}
}

func TestStore_Scan(t *testing.T) {
	s := New()
	ctx := context.Background()

	expected := map[string]testData{
		"a": {ID: "a", Name: "first", Value: 1},
		"b": {ID: "b", Name: "second", Value: 2},
		"c": {ID: "c", Name: "third", Value: 3},
	}
	for id, data := range expected {
		if err := s.Put(ctx, []string{"items", id}, data); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	scanned := make(map[string]testData)
	err := s.Scan(ctx, []string{"items"}, func(key string, data json.RawMessage) error {
		var item testData
		if err := json.Unmarshal(data, &item); err != nil {
			return err
		}
		scanned[key] = item
		return nil
	})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(scanned) != len(expected) {
		t.Errorf("expected %d items, got %d", len(expected), len(scanned))
	}
	for id, exp := range expected {
		if got, ok := scanned[id]; !ok || got != exp {
			t.Errorf("mismatch for %s: got %+v, want %+v", id, got, exp)
		}
	}
}

func TestStore_Exists(t *testing.T) {
	s := New()
	ctx := context.Background()

	if s.Exists(ctx, []string{"items", "test"}) {
		t.Error("item should not exist")
	}
	if err := s.Put(ctx, []string{"items", "test"}, testData{ID: "test"}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if !s.Exists(ctx, []string{"items", "test"}) {
		t.Error("item should exist")
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(val int) {
			defer wg.Done()
			if err := s.Put(ctx, []string{"items", "concurrent"}, testData{ID: "concurrent", Value: val}); err != nil {
				t.Errorf("concurrent Put failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	var retrieved testData
	if err := s.Get(ctx, []string{"items", "concurrent"}, &retrieved); err != nil {
		t.Fatalf("Get after concurrent writes failed: %v", err)
	}
}
