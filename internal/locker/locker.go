// Package locker provides per-key mutual exclusion for read-modify-write
// sequences that span storage and catalog calls.
package locker

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"

	"golang.org/x/sync/semaphore"
)

const shardCount = 32

type entry struct {
	sem  *semaphore.Weighted
	refs int
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// Keyed hands out one exclusive lock per key. Waiters on the same key are
// served in arrival order; different keys never contend beyond a short shard
// map access. Entries are dropped once nobody holds or waits for them.
type Keyed struct {
	shards [shardCount]shard
}

func New() *Keyed {
	k := &Keyed{}
	for i := range k.shards {
		k.shards[i].entries = make(map[string]*entry)
	}
	return k
}

// Lock blocks until key is free or ctx is done. The returned func releases the
// lock and must be called exactly once.
func (k *Keyed) Lock(ctx context.Context, key string) (func(), error) {
	s := k.shardFor(key)

	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		e = &entry{sem: semaphore.NewWeighted(1)}
		s.entries[key] = e
	}
	e.refs++
	s.mu.Unlock()

	if err := e.sem.Acquire(ctx, 1); err != nil {
		k.release(s, key, e, false)
		return nil, fmt.Errorf("locker: acquire %q: %w", key, err)
	}

	var once sync.Once
	return func() {
		once.Do(func() { k.release(s, key, e, true) })
	}, nil
}

// Len returns the number of live entries. Used by tests to check cleanup.
func (k *Keyed) Len() int {
	n := 0
	for i := range k.shards {
		s := &k.shards[i]
		s.mu.Lock()
		n += len(s.entries)
		s.mu.Unlock()
	}
	return n
}

func (k *Keyed) release(s *shard, key string, e *entry, held bool) {
	if held {
		e.sem.Release(1)
	}
	s.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(s.entries, key)
	}
	s.mu.Unlock()
}

func (k *Keyed) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &k.shards[h.Sum32()%shardCount]
}

func UserKey(userID int64) string { return fmt.Sprintf("user:%d", userID) }
func EventKey(userID int64) string { return fmt.Sprintf("event:%d", userID) }
func OrderKey(orderID string) string { return "order:" + orderID }
