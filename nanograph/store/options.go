package store

import (
	"log/slog"

	"github.com/arthur-debert/nanograph/nanograph/storage"
)

// Option is a function that modifies Store configuration
type Option func(*Store)

// WithLogger sets the logger used for debug output
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIDFunc sets the generator used for records that arrive without an
// identity value. Useful for deterministic tests.
func WithIDFunc(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.idFunc = fn
		}
	}
}

// WithState uses an existing state instead of creating one. Partitions for
// every registered model are added to it.
func WithState(state *storage.State) Option {
	return func(s *Store) {
		if state != nil {
			s.state = state
		}
	}
}
