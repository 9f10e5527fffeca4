package dataset

import (
	"context"
	"fmt"

	"github.com/nvandessel/photolab/internal/constants"
)

// Store is the session data set: append-only except for a full Clear.
// Readers always receive point-in-time copies and may keep them while the
// single writer continues appending.
type Store interface {
	// Append records p after every existing point.
	Append(ctx context.Context, p DataPoint) error

	// Snapshot returns every point in insertion order.
	Snapshot(ctx context.Context) ([]DataPoint, error)

	// Len returns the number of recorded points.
	Len(ctx context.Context) (int, error)

	// GroupBy returns the points sharing key, in insertion order.
	GroupBy(ctx context.Context, key GroupKey) ([]DataPoint, error)

	// Groups returns every group in order of first appearance.
	Groups(ctx context.Context) ([]Group, error)

	// Clear discards every point. It cannot be undone.
	Clear(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}

// Open creates an empty store for the given backend.
func Open(backend constants.Backend) (Store, error) {
	switch backend {
	case constants.BackendMemory, "":
		return NewMemory(), nil
	case constants.BackendSQLite:
		return NewSQLite()
	default:
		return nil, fmt.Errorf("unknown dataset backend %q", backend)
	}
}
