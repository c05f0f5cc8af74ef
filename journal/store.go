package journal

import (
	"context"
	"errors"
)

var (
	// ErrConcurrencyConflict is returned when Append's expectedVersion
	// does not match the stream's current version.
	ErrConcurrencyConflict = errors.New("journal: concurrency conflict")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("journal: store closed")
)

// Store is an append-only event store with optimistic concurrency.
type Store interface {
	// Append atomically adds events to a stream. expectedVersion must
	// equal the stream's current version (-1 for a new stream) or the
	// append fails with ErrConcurrencyConflict and writes nothing.
	// Returns the stream's new version.
	Append(ctx context.Context, streamID string, expectedVersion int, events []*Event) (int, error)

	// Read returns a stream's events with Version >= fromVersion, in
	// version order.
	Read(ctx context.Context, streamID string, fromVersion int) ([]*Event, error)

	// ReadAll returns events across all streams matching the filter,
	// in append order.
	ReadAll(ctx context.Context, filter EventFilter) ([]*Event, error)

	// StreamVersion returns the stream's current version, or -1 when
	// the stream does not exist.
	StreamVersion(ctx context.Context, streamID string) (int, error)

	// DeleteStream removes a stream and all its events.
	DeleteStream(ctx context.Context, streamID string) error

	// Close releases the store's resources.
	Close() error
}
