package triplestore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestKeyedLocks_ReleaseDropsSlots(t *testing.T) {
	k := newKeyedLocks()
	unlock, err := k.lock(context.Background(), "b", "a", "b")
	if err != nil {
		t.Fatal(err)
	}
	if got := k.size(); got != 2 {
		t.Errorf("size while held = %d, want 2", got)
	}
	unlock()
	if got := k.size(); got != 0 {
		t.Errorf("size after release = %d, want 0", got)
	}
}

func TestKeyedLocks_WaitersGiveUpOnCancel(t *testing.T) {
	k := newKeyedLocks()
	unlock, err := k.lock(context.Background(), "a")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := k.lock(ctx, "z", "a"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if got := k.size(); got != 1 {
		t.Errorf("size after cancelled wait = %d, want 1", got)
	}

	unlock()
	again, err := k.lock(context.Background(), "a", "z")
	if err != nil {
		t.Fatal(err)
	}
	again()
	if got := k.size(); got != 0 {
		t.Errorf("size = %d, want 0", got)
	}
}

func TestKeyedLocks_DisjointKeysDoNotBlock(t *testing.T) {
	k := newKeyedLocks()
	unlockA, err := k.lock(context.Background(), "a")
	if err != nil {
		t.Fatal(err)
	}
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockB, err := k.lock(ctx, "b")
	if err != nil {
		t.Fatalf("lock(b) blocked behind a: %v", err)
	}
	unlockB()
}

func TestUniqueSorted(t *testing.T) {
	in := []string{"c", "a", "c", "b", "a"}
	if diff := cmp.Diff([]string{"a", "b", "c"}, uniqueSorted(in)); diff != "" {
		t.Errorf("uniqueSorted mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"c", "a", "c", "b", "a"}, in); diff != "" {
		t.Errorf("input was modified (-want +got):\n%s", diff)
	}
	if got := uniqueSorted(nil); len(got) != 0 {
		t.Errorf("uniqueSorted(nil) = %v", got)
	}
}
