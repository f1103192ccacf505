package usage

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/peterbourgon/diskv/v3"
)

// Store counts how often entries were activated. Counts survive restarts.
type Store struct {
	mu sync.Mutex
	d  *diskv.Diskv
}

// Open creates a store rooted at basePath
func Open(basePath string) *Store {
	return &Store{d: diskv.New(diskv.Options{
		BasePath:     basePath,
		Transform:    shard,
		CacheSizeMax: 64 * 1024,
	})}
}

// Count returns the number of recorded activations for id
func (s *Store) Count(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count(keyFor(id))
}

// Increment records one activation of id and returns the new count
func (s *Store) Increment(id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := keyFor(id)
	n := s.count(key) + 1
	if err := s.d.Write(key, []byte(strconv.Itoa(n))); err != nil {
		return 0, fmt.Errorf("record usage of %q: %w", id, err)
	}
	return n, nil
}

// Reset forgets every recorded activation
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.EraseAll()
}

func (s *Store) count(key string) int {
	if !s.d.Has(key) {
		return 0
	}
	raw, err := s.d.Read(key)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0
	}
	return n
}

// ids are file paths, so they are hashed into flat file names
func keyFor(id string) string {
	sum := sha1.Sum([]byte(id))
	return hex.EncodeToString(sum[:])
}

func shard(key string) []string {
	if len(key) < 2 {
		return []string{}
	}
	return []string{key[:2]}
}
