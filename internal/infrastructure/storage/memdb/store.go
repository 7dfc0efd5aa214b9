// Package memdb provides an in-memory connection pool whose connections
// buffer writes inside a physical transaction and publish them on commit.
//
// It is the storage backend used when no DATABASE_URL is configured and by
// the test suites: it makes "what was durably committed" observable without
// a running database.
package memdb

import (
	"errors"
	"sync"

	"txprop/internal/core/apperror"
)

// ErrDuplicateKey is the cause of a commit rejected because an inserted key
// was committed by another connection first.
var ErrDuplicateKey = errors.New("memdb: duplicate key")

// Store holds committed rows, table -> key -> row.
type Store struct {
	mu     sync.RWMutex
	tables map[string]map[string]any
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{tables: make(map[string]map[string]any)}
}

type opKind uint8

const (
	opPut opKind = iota
	// opInsert fails the whole batch when the key is already committed.
	opInsert
)

type op struct {
	kind  opKind
	table string
	key   string
	value any
}

func (s *Store) get(table, key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.tables[table][key]
	return v, ok
}

// apply publishes ops atomically. Nothing is written when an insert hits a
// committed key.
func (s *Store) apply(ops []op) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range ops {
		if o.kind != opInsert {
			continue
		}
		if _, exists := s.tables[o.table][o.key]; exists {
			return apperror.NewDuplicate(o.table, "key", o.key).WithCause(ErrDuplicateKey)
		}
	}
	for _, o := range ops {
		rows, ok := s.tables[o.table]
		if !ok {
			rows = make(map[string]any)
			s.tables[o.table] = rows
		}
		rows[o.key] = o.value
	}
	return nil
}

// Committed returns the committed row, bypassing any connection. Tests use
// it to assert durability.
func (s *Store) Committed(table, key string) (any, bool) {
	return s.get(table, key)
}

// Count returns the number of committed rows in table.
func (s *Store) Count(table string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables[table])
}
