// Package store implements the in-memory keyspace: GET/SET with optional
// millisecond expiry.
//
// Grounded in the teacher's internal/storage.Store and string_ops.go
// (Get/Set, lazy expiry check on read), collapsed to a single
// sync.Mutex-guarded map. The teacher keeps data and dataWithExpiry as
// two parallel maps plus a snapshotCount/COW path to let AOF/RDB
// background writers read a consistent view while mutations continue;
// none of that exists here since persistence is out of scope, so one
// map of one entry type is enough.
package store

import (
	"sync"
	"time"
)

type entry struct {
	value   []byte
	expires time.Time // zero value means no expiry
}

// Store is a mutex-guarded byte-string keyspace. Keys and values are
// opaque []byte: the server never assumes UTF-8 or any other encoding.
type Store struct {
	mu   sync.Mutex
	data map[string]entry
}

// New returns an empty Store.
func New() *Store {
	return &Store{data: make(map[string]entry)}
}

// Set stores value under key. expiresAt is the absolute instant the key
// should stop being visible to Get; the zero Time means no expiry. A
// non-zero expiresAt in the past (including one equal to "now", as SET
// ... PX 0 produces) makes the key immediately absent to Get, rather
// than being treated the same as "no expiry" — ttl>0 was the wrong test
// for that, since PX 0 is a present-but-zero deadline, not an absent one.
func (s *Store) Set(key, value []byte, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[string(key)] = entry{value: value, expires: expiresAt}
}

// Get returns the value stored under key and true, or nil and false if
// the key is absent or has expired. An expired key is deleted lazily on
// the read that discovers it, same as the teacher's Get.
func (s *Store) Get(key []byte) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[string(key)]
	if !ok {
		return nil, false
	}
	if !e.expires.IsZero() && time.Now().After(e.expires) {
		delete(s.data, string(key))
		return nil, false
	}
	return e.value, true
}
