package storage

import "sync"

// OperationType tells the LockManager whether an operation only reads the
// partitions or mutates them.
type OperationType int

const (
	// ReadOperation takes a shared lock; readers proceed concurrently.
	ReadOperation OperationType = iota

	// WriteOperation takes the exclusive lock.
	WriteOperation
)

// LockManager guards the State maps with a single RWMutex so every State
// method takes the right kind of lock exactly once. It only protects the
// store's own bookkeeping: callers that chain normalization, pivot synthesis
// and loads still have to serialize those sequences themselves.
type LockManager struct {
	mu sync.RWMutex
}

// NewLockManager creates a ready-to-use lock manager
func NewLockManager() *LockManager {
	return &LockManager{}
}

// Execute runs fn under the lock matching opType
func (lm *LockManager) Execute(opType OperationType, fn func() error) error {
	_, err := WithResult(lm, opType, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// WithResult runs fn under the lock matching opType and returns its result.
//
// Example:
//
//	records, err := storage.WithResult(lm, storage.ReadOperation, func() ([]types.Record, error) {
//	    return p.copyRecords(), nil
//	})
func WithResult[T any](lm *LockManager, opType OperationType, fn func() (T, error)) (T, error) {
	switch opType {
	case ReadOperation:
		lm.mu.RLock()
		defer lm.mu.RUnlock()
	case WriteOperation:
		lm.mu.Lock()
		defer lm.mu.Unlock()
	}
	return fn()
}
