package dataset

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

// SQLite implements Store on an in-memory SQLite database private to the
// session. The data set never outlives the process.
type SQLite struct {
	mu sync.RWMutex
	db *sql.DB
}

// NewSQLite opens a fresh in-memory database and initializes the schema.
func NewSQLite() (*SQLite, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Append inserts p. A point without an ID is given a random one.
func (s *SQLite) Append(ctx context.Context, p DataPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	raw := p.RawMeasurements
	if raw == nil {
		raw = []float64{}
	}
	rawJSON, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to encode raw measurements: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO points (id, voltage, current, error, wavelength, intensity, material, timestamp, raw)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.VoltageV, p.CurrentNa, p.ErrorNa, p.WavelengthNm, p.IntensityUwCm2,
		p.Material, p.Timestamp.UTC().Format(time.RFC3339Nano), string(rawJSON))
	if err != nil {
		return fmt.Errorf("failed to insert point: %w", err)
	}
	return nil
}

const selectPoints = `
	SELECT id, voltage, current, error, wavelength, intensity, material, timestamp, raw
	FROM points`

// Snapshot returns every point ordered by insertion.
func (s *SQLite) Snapshot(ctx context.Context) ([]DataPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query(ctx, selectPoints+` ORDER BY seq`)
}

// Len returns the number of stored points.
func (s *SQLite) Len(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM points`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return n, nil
}

// GroupBy returns the points sharing key, ordered by insertion.
func (s *SQLite) GroupBy(ctx context.Context, key GroupKey) ([]DataPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query(ctx, selectPoints+` WHERE material = ? AND wavelength = ? ORDER BY seq`,
		key.Material, key.WavelengthNm)
}

// Groups partitions a snapshot by key.
func (s *SQLite) Groups(ctx context.Context) ([]Group, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return GroupPoints(snap), nil
}

// Clear deletes every point.
func (s *SQLite) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM points`); err != nil {
		return fmt.Errorf("failed to clear points: %w", err)
	}
	return nil
}

// Close closes the database, discarding its contents.
func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func (s *SQLite) query(ctx context.Context, q string, args ...any) ([]DataPoint, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query points: %w", err)
	}
	defer rows.Close()

	out := make([]DataPoint, 0)
	for rows.Next() {
		var (
			p       DataPoint
			ts, raw string
		)
		if err := rows.Scan(&p.ID, &p.VoltageV, &p.CurrentNa, &p.ErrorNa, &p.WavelengthNm,
			&p.IntensityUwCm2, &p.Material, &ts, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan point: %w", err)
		}
		if p.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("failed to parse timestamp %q: %w", ts, err)
		}
		if err := json.Unmarshal([]byte(raw), &p.RawMeasurements); err != nil {
			return nil, fmt.Errorf("failed to decode raw measurements: %w", err)
		}
		if p.RawMeasurements == nil {
			p.RawMeasurements = []float64{}
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate points: %w", err)
	}
	return out, nil
}
