package dedup

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type memLookup struct {
	mu     sync.Mutex
	titles map[string]bool
	err    error
}

func (m *memLookup) ExistsByTitle(_ context.Context, title string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	return m.titles[title], nil
}

func (m *memLookup) add(title string) {
	m.mu.Lock()
	m.titles[title] = true
	m.mu.Unlock()
}

func TestIsDuplicateExactMatch(t *testing.T) {
	store := &memLookup{titles: map[string]bool{"Earth is flat": true}}
	g := NewGate(store)
	ctx := context.Background()

	dup, err := g.IsDuplicate(ctx, "Earth is flat")
	if err != nil || !dup {
		t.Fatalf("exact title should be duplicate, got %v %v", dup, err)
	}

	for _, near := range []string{"Earth is flat!", "earth is flat", "Earth is  flat"} {
		dup, err := g.IsDuplicate(ctx, near)
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if dup {
			t.Fatalf("%q must not be treated as duplicate", near)
		}
	}
}

func TestIsDuplicatePropagatesError(t *testing.T) {
	boom := errors.New("db down")
	g := NewGate(&memLookup{titles: map[string]bool{}, err: boom})
	if _, err := g.IsDuplicate(context.Background(), "x"); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestGuardSerializesSameTitle(t *testing.T) {
	store := &memLookup{titles: map[string]bool{}}
	g := NewGate(store)
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		inserted int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = g.Guard("same title", func() error {
				dup, err := g.IsDuplicate(ctx, "same title")
				if err != nil || dup {
					return err
				}
				store.add("same title")
				mu.Lock()
				inserted++
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	if inserted != 1 {
		t.Fatalf("inserted %d times, want 1", inserted)
	}
	if n := g.pending(); n != 0 {
		t.Fatalf("locks leaked: %d", n)
	}
}

func TestGuardReturnsFnError(t *testing.T) {
	g := NewGate(&memLookup{titles: map[string]bool{}})
	want := errors.New("insert failed")
	if err := g.Guard("t", func() error { return want }); !errors.Is(err, want) {
		t.Fatalf("Guard err = %v", err)
	}
}
