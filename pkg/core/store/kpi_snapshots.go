package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SnapshotStore persists extracted KPI sets per ticker so the latest
// extraction survives restarts and can be served without re-reading filings.
// Same hybrid layout as FactsCache: Postgres when a pool is provided, file
// system otherwise. Only the most recent snapshot per ticker is retained in
// file mode; the database keeps history.
type SnapshotStore struct {
	pool    *pgxpool.Pool
	fileDir string
}

// NewSnapshotStore creates a snapshot store. With a nil pool and empty dir
// snapshots go under .cache/sec/kpi_snapshots.
func NewSnapshotStore(pool *pgxpool.Pool, dir string) *SnapshotStore {
	if pool == nil && dir == "" {
		dir = filepath.Join(".cache", "sec", "kpi_snapshots")
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Printf("[WARNING] snapshot dir unusable: %v\n", err)
			dir = ""
		}
	}
	return &SnapshotStore{pool: pool, fileDir: dir}
}

// Snapshot is one persisted extraction result.
type Snapshot struct {
	Ticker      string          `json:"ticker"`
	DocID       string          `json:"doc_id"`
	KPIs        json.RawMessage `json:"kpis"`
	ExtractedAt time.Time       `json:"extracted_at"`
}

// Put stores an extracted KPI set for a ticker.
func (s *SnapshotStore) Put(ctx context.Context, ticker, docID string, kpis []byte) error {
	if s.pool != nil {
		query := `
			INSERT INTO kpi_snapshots (ticker, doc_id, kpis, extracted_at)
			VALUES ($1, $2, $3, now())
		`
		if _, err := s.pool.Exec(ctx, query, ticker, docID, kpis); err != nil {
			return fmt.Errorf("failed to store KPI snapshot for %s: %w", ticker, err)
		}
		return nil
	}

	if s.fileDir == "" {
		return nil
	}
	snap := Snapshot{
		Ticker:      ticker,
		DocID:       docID,
		KPIs:        json.RawMessage(kpis),
		ExtractedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode KPI snapshot for %s: %w", ticker, err)
	}
	return os.WriteFile(s.path(ticker), data, 0o644)
}

// Latest returns the most recent snapshot for a ticker, or nil on a miss.
func (s *SnapshotStore) Latest(ctx context.Context, ticker string) (*Snapshot, error) {
	if s.pool != nil {
		query := `
			SELECT doc_id, kpis, extracted_at
			FROM kpi_snapshots
			WHERE ticker = $1
			ORDER BY extracted_at DESC
			LIMIT 1
		`
		snap := Snapshot{Ticker: ticker}
		var kpis []byte
		err := s.pool.QueryRow(ctx, query, ticker).Scan(&snap.DocID, &kpis, &snap.ExtractedAt)
		if err != nil {
			return nil, nil // miss
		}
		snap.KPIs = kpis
		return &snap, nil
	}

	if s.fileDir == "" {
		return nil, nil
	}
	data, err := os.ReadFile(s.path(ticker))
	if err != nil {
		return nil, nil
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("corrupt snapshot for %s: %w", ticker, err)
	}
	return &snap, nil
}

func (s *SnapshotStore) path(ticker string) string {
	return filepath.Join(s.fileDir, strings.ToLower(ticker)+"_latest.json")
}
