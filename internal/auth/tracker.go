package auth

import (
	"container/list"
	"sync"
	"time"
)

const (
	defaultMaxAttempts     = 3
	defaultAttemptTTL      = 15 * time.Minute
	defaultAttemptCapacity = 100
)

type attemptEntry struct {
	username  string
	count     int
	writtenAt time.Time
}

// AttemptTracker counts failed logins per username in a bounded cache.
// Entries expire after the TTL and read as count 0; when the cache is full
// the least-recently-written entry is evicted to make room.
type AttemptTracker struct {
	mu          sync.Mutex
	maxAttempts int
	ttl         time.Duration
	capacity    int
	entries     map[string]*list.Element
	order       *list.List // front = least recently written
	now         func() time.Time
}

func NewAttemptTracker(maxAttempts int, ttl time.Duration, capacity int) *AttemptTracker {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if ttl <= 0 {
		ttl = defaultAttemptTTL
	}
	if capacity <= 0 {
		capacity = defaultAttemptCapacity
	}

	return &AttemptTracker{
		maxAttempts: maxAttempts,
		ttl:         ttl,
		capacity:    capacity,
		entries:     make(map[string]*list.Element),
		order:       list.New(),
		now:         time.Now,
	}
}

// WithClock replaces the tracker's time source. Intended for tests.
func (t *AttemptTracker) WithClock(now func() time.Time) *AttemptTracker {
	t.now = now
	return t
}

// RecordFailure increments the counter for username, creating it at 1 if
// absent or expired, and refreshes its TTL window. Returns the new count.
func (t *AttemptTracker) RecordFailure(username string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()

	if el, ok := t.entries[username]; ok {
		entry := el.Value.(*attemptEntry)
		if t.expired(entry, now) {
			entry.count = 0
		}
		entry.count++
		entry.writtenAt = now
		t.order.MoveToBack(el)
		return entry.count
	}

	if len(t.entries) >= t.capacity {
		t.evictOldest()
	}

	entry := &attemptEntry{username: username, count: 1, writtenAt: now}
	t.entries[username] = t.order.PushBack(entry)
	return 1
}

// Reset removes the counter for username. No-op when absent.
func (t *AttemptTracker) Reset(username string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if el, ok := t.entries[username]; ok {
		t.order.Remove(el)
		delete(t.entries, username)
	}
}

// ExceededThreshold reports whether the live count for username has reached
// the configured maximum. Expired entries read as count 0.
func (t *AttemptTracker) ExceededThreshold(username string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	el, ok := t.entries[username]
	if !ok {
		return false
	}
	entry := el.Value.(*attemptEntry)
	if t.expired(entry, t.now()) {
		return false
	}

	return entry.count >= t.maxAttempts
}

// MaxAttempts exposes the configured threshold for lock-policy evaluation.
func (t *AttemptTracker) MaxAttempts() int {
	return t.maxAttempts
}

// PruneExpired drops every entry whose TTL window has elapsed and returns
// how many were removed.
func (t *AttemptTracker) PruneExpired() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	pruned := 0
	for el := t.order.Front(); el != nil; {
		next := el.Next()
		entry := el.Value.(*attemptEntry)
		if t.expired(entry, now) {
			t.order.Remove(el)
			delete(t.entries, entry.username)
			pruned++
		}
		el = next
	}

	return pruned
}

func (t *AttemptTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

func (t *AttemptTracker) expired(entry *attemptEntry, now time.Time) bool {
	return now.Sub(entry.writtenAt) >= t.ttl
}

func (t *AttemptTracker) evictOldest() {
	front := t.order.Front()
	if front == nil {
		return
	}
	entry := front.Value.(*attemptEntry)
	t.order.Remove(front)
	delete(t.entries, entry.username)
}
