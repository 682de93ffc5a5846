package dedup

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// DefaultCapacity matches the news feeder's default dedup_max_urls.
const DefaultCapacity = 10000

// Key is a fixed-length fingerprint of an item's identifying field.
type Key uint64

// KeyOf fingerprints a URL.
func KeyOf(url string) Key {
	return Key(xxhash.Sum64String(url))
}

// Set is a bounded, insertion-ordered membership set safe for concurrent use.
type Set struct {
	mu    sync.Mutex
	keys  map[Key]struct{}
	ring  []Key // insertion order, ring[head] is the oldest once full
	head  int
	count int
}

// New creates an empty set holding at most capacity keys.
func New(capacity int) *Set {
	if capacity < 1 {
		capacity = 1
	}
	return &Set{
		keys: make(map[Key]struct{}, capacity),
		ring: make([]Key, capacity),
	}
}

// Contains reports whether k is present.
func (s *Set) Contains(k Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.keys[k]
	return ok
}

// Add inserts k. No-op if already present.
func (s *Set) Add(k Key) {
	s.InsertIfAbsent(k)
}

// InsertIfAbsent inserts k and reports whether it was new. The check and the
// insert happen under one lock, so two runners racing on the same key see
// exactly one true.
func (s *Set) InsertIfAbsent(k Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.keys[k]; ok {
		return false
	}

	capacity := len(s.ring)
	if s.count == capacity {
		oldest := s.ring[s.head]
		delete(s.keys, oldest)
		s.ring[s.head] = k
		s.head = (s.head + 1) % capacity
	} else {
		s.ring[(s.head+s.count)%capacity] = k
		s.count++
	}
	s.keys[k] = struct{}{}
	return true
}

// Len returns the number of keys held.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Cap returns the configured capacity.
func (s *Set) Cap() int {
	return len(s.ring)
}
