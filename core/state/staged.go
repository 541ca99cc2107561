package state

import (
	"sync"

	"staychain/storage"
)

type stagedValue struct {
	data    []byte
	deleted bool
}

// Staged is a copy-on-write overlay over a Database. Writes are buffered in
// memory and only reach the underlying store on Commit, so a failed operation
// leaves persisted state untouched.
type Staged struct {
	mu      sync.Mutex
	base    storage.Database
	pending map[string]stagedValue
}

// NewStaged wraps a database in a write buffer.
func NewStaged(base storage.Database) *Staged {
	return &Staged{base: base, pending: make(map[string]stagedValue)}
}

func (s *Staged) Put(key []byte, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	s.pending[string(key)] = stagedValue{data: stored}
	return nil
}

func (s *Staged) Get(key []byte) ([]byte, error) {
	s.mu.Lock()
	if entry, ok := s.pending[string(key)]; ok {
		s.mu.Unlock()
		if entry.deleted {
			return nil, storage.ErrKeyNotFound
		}
		out := make([]byte, len(entry.data))
		copy(out, entry.data)
		return out, nil
	}
	s.mu.Unlock()
	return s.base.Get(key)
}

func (s *Staged) Has(key []byte) (bool, error) {
	s.mu.Lock()
	if entry, ok := s.pending[string(key)]; ok {
		s.mu.Unlock()
		return !entry.deleted, nil
	}
	s.mu.Unlock()
	return s.base.Has(key)
}

func (s *Staged) Delete(key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[string(key)] = stagedValue{deleted: true}
	return nil
}

// Close discards pending writes without committing them.
func (s *Staged) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = make(map[string]stagedValue)
}

// Commit flushes buffered writes to the underlying store and resets the
// buffer. Writes are applied in an arbitrary order; each operation stages a
// consistent snapshot so ordering within one commit does not matter.
func (s *Staged) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for key, entry := range s.pending {
		var err error
		if entry.deleted {
			err = s.base.Delete([]byte(key))
		} else {
			err = s.base.Put([]byte(key), entry.data)
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return firstErr
	}
	s.pending = make(map[string]stagedValue)
	return nil
}

// Discard drops all buffered writes.
func (s *Staged) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = make(map[string]stagedValue)
}

var _ storage.Database = (*Staged)(nil)
