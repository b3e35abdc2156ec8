package cmap

import (
	"fmt"
	"sync"
	"testing"
)

func TestNew(t *testing.T) {
	m := New[int]()
	if m == nil {
		t.Fatal("New() returned nil")
	}
	if len(m.shards) != DefaultShardCount {
		t.Errorf("shard count = %d, want %d", len(m.shards), DefaultShardCount)
	}
}

func TestNewWithShards(t *testing.T) {
	tests := []struct {
		input    int
		expected int
	}{
		{0, DefaultShardCount},
		{-1, DefaultShardCount},
		{3, DefaultShardCount},
		{1, 1},
		{2, 2},
		{8, 8},
		{32, 32},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("shards=%d", tt.input), func(t *testing.T) {
			m := NewWithShards[int](tt.input)
			if len(m.shards) != tt.expected {
				t.Errorf("NewWithShards(%d) shard count = %d, want %d",
					tt.input, len(m.shards), tt.expected)
			}
		})
	}
}

func TestSetGetDelete(t *testing.T) {
	m := New[int]()

	m.Set("a", 1)
	m.Set("b", 2)

	if v, ok := m.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = (%d, %v), want (1, true)", v, ok)
	}
	if !m.Has("b") {
		t.Error("Has(b) = false, want true")
	}
	if m.Count() != 2 {
		t.Errorf("Count() = %d, want 2", m.Count())
	}

	m.Delete("a")
	if m.Has("a") {
		t.Error("Has(a) after Delete = true")
	}

	// Deleting a missing key is a no-op.
	m.Delete("missing")
	if m.Count() != 1 {
		t.Errorf("Count() = %d, want 1", m.Count())
	}
}

func TestPop(t *testing.T) {
	m := New[string]()
	m.Set("k", "v")

	v, ok := m.Pop("k")
	if !ok || v != "v" {
		t.Errorf("Pop(k) = (%q, %v), want (v, true)", v, ok)
	}
	if _, ok := m.Pop("k"); ok {
		t.Error("second Pop(k) should report false")
	}
}

func TestDeleteIf(t *testing.T) {
	m := New[int]()
	m.Set("k", 5)

	if _, ok := m.DeleteIf("k", func(v int) bool { return v == 4 }); ok {
		t.Error("DeleteIf removed value with failing predicate")
	}
	if !m.Has("k") {
		t.Fatal("value should still be present")
	}

	v, ok := m.DeleteIf("k", func(v int) bool { return v == 5 })
	if !ok || v != 5 {
		t.Errorf("DeleteIf = (%d, %v), want (5, true)", v, ok)
	}
	if m.Has("k") {
		t.Error("value should be removed")
	}

	if _, ok := m.DeleteIf("missing", func(int) bool { return true }); ok {
		t.Error("DeleteIf on missing key should report false")
	}
}

func TestUpsert(t *testing.T) {
	m := New[int]()

	old, existed := m.Upsert("k", func(old int, exists bool) int {
		if exists {
			t.Error("exists should be false on first Upsert")
		}
		return 1
	})
	if existed || old != 0 {
		t.Errorf("first Upsert returned (%d, %v)", old, existed)
	}

	old, existed = m.Upsert("k", func(old int, exists bool) int { return old + 1 })
	if !existed || old != 1 {
		t.Errorf("second Upsert returned (%d, %v), want (1, true)", old, existed)
	}
	if v, _ := m.Get("k"); v != 2 {
		t.Errorf("Get(k) = %d, want 2", v)
	}
}

func TestRangeAndClear(t *testing.T) {
	m := New[int]()
	for i := 0; i < 100; i++ {
		m.Set(fmt.Sprintf("key-%d", i), i)
	}

	sum := 0
	m.Range(func(_ string, v int) bool {
		sum += v
		return true
	})
	if sum != 4950 {
		t.Errorf("Range sum = %d, want 4950", sum)
	}

	visited := 0
	m.Range(func(string, int) bool {
		visited++
		return visited < 10
	})
	if visited != 10 {
		t.Errorf("Range visited %d items after stop, want 10", visited)
	}

	cleared := m.Clear()
	if len(cleared) != 100 {
		t.Errorf("Clear() returned %d items, want 100", len(cleared))
	}
	if m.Count() != 0 {
		t.Errorf("Count() after Clear = %d", m.Count())
	}
}

func TestConcurrentAccess(t *testing.T) {
	m := New[int]()
	var wg sync.WaitGroup

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				key := fmt.Sprintf("k-%d", i%50)
				m.Set(key, g)
				m.Get(key)
				if i%7 == 0 {
					m.Delete(key)
				}
			}
		}(g)
	}
	wg.Wait()

	if m.Count() > 50 {
		t.Errorf("Count() = %d, want <= 50", m.Count())
	}
}

func BenchmarkSet(b *testing.B) {
	m := New[int]()
	for i := 0; i < b.N; i++ {
		m.Set(fmt.Sprintf("key-%d", i%1024), i)
	}
}

func BenchmarkGet(b *testing.B) {
	m := New[int]()
	for i := 0; i < 1024; i++ {
		m.Set(fmt.Sprintf("key-%d", i), i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Get(fmt.Sprintf("key-%d", i%1024))
	}
}
