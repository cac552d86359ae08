package triplestore

import (
	"context"
	"sort"
	"sync"
)

// keyedLocks serializes writers per subject URI inside one process. Writers
// from other processes are not covered.
type keyedLocks struct {
	mu    sync.Mutex
	slots map[string]*lockSlot
}

type lockSlot struct {
	ch   chan struct{}
	refs int
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{slots: make(map[string]*lockSlot)}
}

// lock acquires every key in sorted order, so two writers locking
// overlapping sets cannot deadlock. It gives up when ctx is done. The
// returned function releases all keys.
func (k *keyedLocks) lock(ctx context.Context, keys ...string) (func(), error) {
	keys = uniqueSorted(keys)
	held := make([]string, 0, len(keys))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			k.release(held[i])
		}
	}

	for _, key := range keys {
		slot := k.acquireSlot(key)
		select {
		case slot.ch <- struct{}{}:
			held = append(held, key)
		case <-ctx.Done():
			k.dropSlot(key)
			release()
			return nil, ctx.Err()
		}
	}
	return release, nil
}

func (k *keyedLocks) acquireSlot(key string) *lockSlot {
	k.mu.Lock()
	defer k.mu.Unlock()
	slot, ok := k.slots[key]
	if !ok {
		slot = &lockSlot{ch: make(chan struct{}, 1)}
		k.slots[key] = slot
	}
	slot.refs++
	return slot
}

func (k *keyedLocks) release(key string) {
	k.mu.Lock()
	slot := k.slots[key]
	k.mu.Unlock()
	<-slot.ch
	k.dropSlot(key)
}

func (k *keyedLocks) dropSlot(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	slot := k.slots[key]
	slot.refs--
	if slot.refs == 0 {
		delete(k.slots, key)
	}
}

// size returns the number of keys currently held or awaited.
func (k *keyedLocks) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.slots)
}

func uniqueSorted(keys []string) []string {
	out := append([]string(nil), keys...)
	sort.Strings(out)
	n := 0
	for i, key := range out {
		if i > 0 && key == out[n-1] {
			continue
		}
		out[n] = key
		n++
	}
	return out[:n]
}
