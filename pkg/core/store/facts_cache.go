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

// FactsCache caches raw SEC companyfacts payloads so repeated parses don't
// hammer the SEC API. DB is primary when a pool is provided; otherwise a
// file-based cache under fileDir is used.
type FactsCache struct {
	pool    *pgxpool.Pool
	fileDir string
	ttl     time.Duration
}

// DefaultFactsTTL is how long a cached companyfacts payload stays fresh.
const DefaultFactsTTL = 24 * time.Hour

// NewFactsCache creates a facts cache. With a nil pool and empty dir the
// cache defaults to .cache/sec/companyfacts. ttl <= 0 gets DefaultFactsTTL.
func NewFactsCache(pool *pgxpool.Pool, dir string, ttl time.Duration) *FactsCache {
	if pool == nil && dir == "" {
		dir = filepath.Join(".cache", "sec", "companyfacts")
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Printf("[WARNING] facts cache dir unusable: %v\n", err)
			dir = ""
		}
	}
	if ttl <= 0 {
		ttl = DefaultFactsTTL
	}
	return &FactsCache{pool: pool, fileDir: dir, ttl: ttl}
}

type fileEntry struct {
	CIK       string          `json:"cik"`
	Ticker    string          `json:"ticker"`
	Payload   json.RawMessage `json:"payload"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// Get returns the cached payload for a CIK, or nil on a miss or stale entry.
func (c *FactsCache) Get(ctx context.Context, cik string) ([]byte, error) {
	if c.pool != nil {
		query := `
			SELECT payload, fetched_at
			FROM companyfacts_cache
			WHERE cik = $1
		`
		var payload []byte
		var fetchedAt time.Time
		if err := c.pool.QueryRow(ctx, query, cik).Scan(&payload, &fetchedAt); err != nil {
			return nil, nil // cache miss
		}
		if time.Since(fetchedAt) > c.ttl {
			return nil, nil
		}
		return payload, nil
	}

	if c.fileDir == "" {
		return nil, nil
	}
	data, err := os.ReadFile(c.path(cik))
	if err != nil {
		return nil, nil
	}
	var entry fileEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("corrupt cache entry for CIK %s: %w", cik, err)
	}
	if time.Since(entry.FetchedAt) > c.ttl {
		return nil, nil
	}
	return entry.Payload, nil
}

// Put stores a payload for a CIK, overwriting any previous entry.
func (c *FactsCache) Put(ctx context.Context, cik, ticker string, payload []byte) error {
	if c.pool != nil {
		query := `
			INSERT INTO companyfacts_cache (cik, ticker, payload, fetched_at)
			VALUES ($1, $2, $3, now())
			ON CONFLICT (cik) DO UPDATE
			SET ticker = EXCLUDED.ticker,
			    payload = EXCLUDED.payload,
			    fetched_at = now()
		`
		if _, err := c.pool.Exec(ctx, query, cik, ticker, payload); err != nil {
			return fmt.Errorf("failed to cache companyfacts for %s: %w", ticker, err)
		}
		return nil
	}

	if c.fileDir == "" {
		return nil
	}
	entry := fileEntry{
		CIK:       cik,
		Ticker:    ticker,
		Payload:   json.RawMessage(payload),
		FetchedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry for %s: %w", ticker, err)
	}
	return os.WriteFile(c.path(cik), data, 0o644)
}

func (c *FactsCache) path(cik string) string {
	name := strings.TrimLeft(cik, "0")
	if name == "" {
		name = "0"
	}
	return filepath.Join(c.fileDir, "cik_"+name+".json")
}
