// Package cooldown suppresses repeat emissions for the same symbol, timeframe and side.
package cooldown

import (
	"hash/fnv"
	"sort"
	"sync"
	"time"
)

const numShards = 16 // power of 2

// Key identifies one emission stream.
type Key struct {
	Symbol    string
	Timeframe string
	Side      string
}

func (k Key) String() string { return k.Symbol + "|" + k.Timeframe + "|" + k.Side }

// Entry is one recorded emission.
type Entry struct {
	Key  Key
	Last time.Time
}

// Tracker maps each Key to its last emission time. A key is Hot while now-last < window.
// Check-and-set is serialized per shard so two workers never both see Cold for one key.
type Tracker struct {
	enabled bool
	window  time.Duration
	shards  [numShards]shard
}

type shard struct {
	mu   sync.Mutex
	last map[Key]time.Time
}

// New returns a tracker. A disabled tracker reports Cold for every query.
func New(enabled bool, window time.Duration) *Tracker {
	t := &Tracker{enabled: enabled && window > 0, window: window}
	for i := range t.shards {
		t.shards[i].last = make(map[Key]time.Time)
	}
	return t
}

// Enabled reports whether suppression is active.
func (t *Tracker) Enabled() bool { return t.enabled }

// Window returns the configured cooldown window.
func (t *Tracker) Window() time.Duration { return t.window }

func (t *Tracker) shardFor(k Key) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(k.String()))
	return &t.shards[h.Sum32()&(numShards-1)]
}

// TryAcquire atomically checks the key and, if Cold, marks it Hot at now.
// It returns false when the key is still inside its window.
func (t *Tracker) TryAcquire(k Key, now time.Time) bool {
	if !t.enabled {
		return true
	}
	s := t.shardFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	if last, ok := s.last[k]; ok && now.Sub(last) < t.window {
		return false
	}
	s.last[k] = now
	return true
}

// IsHot reports whether an emission for k at now would be suppressed.
func (t *Tracker) IsHot(k Key, now time.Time) bool {
	if !t.enabled {
		return false
	}
	s := t.shardFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.last[k]
	return ok && now.Sub(last) < t.window
}

// Remaining returns how long k stays Hot, or zero when Cold.
func (t *Tracker) Remaining(k Key, now time.Time) time.Duration {
	if !t.enabled {
		return 0
	}
	s := t.shardFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.last[k]
	if !ok {
		return 0
	}
	if left := t.window - now.Sub(last); left > 0 {
		return left
	}
	return 0
}

// Prune drops entries that have been Cold for at least maxAge past their window.
// It returns the number of entries removed.
func (t *Tracker) Prune(now time.Time, maxAge time.Duration) int {
	removed := 0
	for i := range t.shards {
		s := &t.shards[i]
		s.mu.Lock()
		for k, last := range s.last {
			if now.Sub(last) >= t.window+maxAge {
				delete(s.last, k)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

// Snapshot returns every recorded emission sorted by key.
func (t *Tracker) Snapshot() []Entry {
	var out []Entry
	for i := range t.shards {
		s := &t.shards[i]
		s.mu.Lock()
		for k, last := range s.last {
			out = append(out, Entry{Key: k, Last: last})
		}
		s.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.String() < out[j].Key.String() })
	return out
}
