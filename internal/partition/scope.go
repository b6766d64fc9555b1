package partition

import (
	"errors"

	"gorm.io/gorm"
)

// Scope is the per-request execution context bound to one tenant partition.
// It is not a lock: isolation comes from every storage call during the request
// going through DB() instead of a global unscoped handle.
type Scope struct {
	key     string
	tx      *gorm.DB
	release func(commit bool) error
	closed  bool
}

// NewScope wraps an already-scoped transaction handle. Exported so tests can
// fake the store.
func NewScope(key string, tx *gorm.DB, release func(commit bool) error) *Scope {
	return &Scope{key: key, tx: tx, release: release}
}

// Key returns the partition key this scope is bound to.
func (s *Scope) Key() string { return s.key }

// DB returns the scoped storage handle. Valid until Close.
func (s *Scope) DB() *gorm.DB {
	return s.tx
}

// Close releases the underlying connection state, committing when commit is
// true and rolling back otherwise. Safe to call more than once; only the
// first call takes effect.
func (s *Scope) Close(commit bool) error {
	if s == nil {
		return errors.New("close of nil scope")
	}
	if s.closed {
		return nil
	}
	s.closed = true
	if s.release == nil {
		return nil
	}
	return s.release(commit)
}
