package dataset

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Memory implements Store with a slice guarded by a RWMutex.
type Memory struct {
	mu     sync.RWMutex
	points []DataPoint
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{points: make([]DataPoint, 0)}
}

// Append records p. The raw measurements are copied and a point without an
// ID is given a random one.
func (m *Memory) Append(ctx context.Context, p DataPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	m.points = append(m.points, p.Clone())
	return nil
}

// Snapshot returns a deep copy of every point.
func (m *Memory) Snapshot(ctx context.Context) ([]DataPoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]DataPoint, len(m.points))
	for i, p := range m.points {
		out[i] = p.Clone()
	}
	return out, nil
}

// Len returns the number of points.
func (m *Memory) Len(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.points), nil
}

// GroupBy returns copies of the points sharing key.
func (m *Memory) GroupBy(ctx context.Context, key GroupKey) ([]DataPoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]DataPoint, 0)
	for _, p := range m.points {
		if p.Key() == key {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

// Groups partitions a snapshot by key.
func (m *Memory) Groups(ctx context.Context) ([]Group, error) {
	snap, err := m.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return GroupPoints(snap), nil
}

// Clear discards every point.
func (m *Memory) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.points = make([]DataPoint, 0)
	return nil
}

// Close is a no-op for the in-memory store.
func (m *Memory) Close() error {
	return nil
}
