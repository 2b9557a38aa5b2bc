package kafka

import (
	"sync"
	"time"
)

// seenEvents remembers recently handled event ids so that redelivered
// messages are not applied twice. Entries older than ttl are swept when the
// set grows past maxEntries.
type seenEvents struct {
	mu         sync.Mutex
	entries    map[string]time.Time
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

func newSeenEvents(ttl time.Duration, maxEntries int) *seenEvents {
	return &seenEvents{
		entries:    make(map[string]time.Time),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (s *seenEvents) contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts, ok := s.entries[id]
	if !ok {
		return false
	}
	if s.now().Sub(ts) > s.ttl {
		delete(s.entries, id)
		return false
	}
	return true
}

func (s *seenEvents) add(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if len(s.entries) >= s.maxEntries {
		for k, ts := range s.entries {
			if now.Sub(ts) > s.ttl {
				delete(s.entries, k)
			}
		}
	}
	// Still full: drop an arbitrary entry.
	if len(s.entries) >= s.maxEntries {
		for k := range s.entries {
			delete(s.entries, k)
			break
		}
	}
	s.entries[id] = now
}

func (s *seenEvents) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
