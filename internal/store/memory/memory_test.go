package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/snoozzd/internal/store"
)

func TestNew(t *testing.T) {
	b := New()
	if b == nil {
		t.Fatal("New() returned nil")
	}
	if b.Keys() != 0 {
		t.Errorf("New() should start empty, got %d keys", b.Keys())
	}
	if !b.LastSet().IsZero() {
		t.Error("LastSet() should be zero before any write")
	}
}

func TestGetMissing(t *testing.T) {
	b := New()
	_, err := b.Get(context.Background(), "snoozed")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestSetThenGet(t *testing.T) {
	b := New()
	ctx := context.Background()

	if err := b.Set(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := b.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != "v1" {
		t.Errorf("Get() = %q, want v1", got)
	}

	// The returned slice must not alias internal state.
	got[0] = 'x'
	again, _ := b.Get(ctx, "k")
	if string(again) != "v1" {
		t.Errorf("Get() returned aliased storage, now %q", again)
	}
}

func TestWatchReceivesOldAndNew(t *testing.T) {
	b := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := b.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	_ = b.Set(ctx, "k", []byte("a"))
	_ = b.Set(ctx, "k", []byte("b"))

	first := receive(t, changes)
	if first.Key != "k" || first.Old != nil || string(first.New) != "a" {
		t.Errorf("first change = %+v", first)
	}
	second := receive(t, changes)
	if string(second.Old) != "a" || string(second.New) != "b" {
		t.Errorf("second change = %+v", second)
	}
}

func TestWatchClosesOnCancel(t *testing.T) {
	b := New()
	ctx, cancel := context.WithCancel(context.Background())
	changes, _ := b.Watch(ctx)
	cancel()

	select {
	case _, ok := <-changes:
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("watch channel not closed after cancel")
	}
}

func TestConcurrentAccess(t *testing.T) {
	b := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = b.Set(ctx, "k", []byte("v"))
		}()
		go func() {
			defer wg.Done()
			_, _ = b.Get(ctx, "k")
		}()
	}
	wg.Wait()

	if b.Keys() != 1 {
		t.Errorf("Keys() = %d, want 1", b.Keys())
	}
}

func receive(t *testing.T, ch <-chan store.Change) store.Change {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(time.Second):
		t.Fatal("no change received")
	}
	return store.Change{}
}
