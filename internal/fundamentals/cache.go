package fundamentals

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/parquet-go/parquet-go"
)

// ErrCacheMiss is returned when no snapshot exists for the requested day.
var ErrCacheMiss = errors.New("fundamentals cache miss")

const cacheDateLayout = "20060102"

// cacheRow is the on-disk parquet schema; one row per symbol.
type cacheRow struct {
	Symbol    string   `parquet:"symbol"`
	PE        *float64 `parquet:"pe,optional"`
	PB        *float64 `parquet:"pb,optional"`
	MarketCap *float64 `parquet:"market_cap,optional"`
	Turnover  *float64 `parquet:"turnover_20d_avg,optional"`
	Volume    *float64 `parquet:"volume,optional"`
	FetchedAt int64    `parquet:"fetched_at"`
}

// Cache stores daily snapshots as cache/fundamentals_YYYYMMDD.parquet.
type Cache struct {
	dir string
}

// NewCache returns a cache rooted at dir, creating it if needed.
func NewCache(dir string) (*Cache, error) {
	if dir == "" {
		dir = "cache"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("fundamentals cache: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Path returns the snapshot file for day.
func (c *Cache) Path(day time.Time) string {
	return filepath.Join(c.dir, "fundamentals_"+day.Format(cacheDateLayout)+".parquet")
}

// Fresh reports whether a snapshot for day exists under the daily refresh policy.
// Any other policy always refreshes.
func (c *Cache) Fresh(policy string, day time.Time) bool {
	if policy != "daily" {
		return false
	}
	_, err := os.Stat(c.Path(day))
	return err == nil
}

// Save writes the snapshot for day, replacing any existing file.
func (c *Cache) Save(day time.Time, data map[string]Metrics) (string, error) {
	symbols := make([]string, 0, len(data))
	for sym := range data {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	now := time.Now().UnixMilli()
	rows := make([]cacheRow, 0, len(symbols))
	for _, sym := range symbols {
		m := data[sym]
		rows = append(rows, cacheRow{
			Symbol:    sym,
			PE:        m.PE,
			PB:        m.PB,
			MarketCap: m.MarketCap,
			Turnover:  m.Turnover,
			Volume:    m.Volume,
			FetchedAt: now,
		})
	}
	path := c.Path(day)
	tmp := path + ".tmp"
	if err := parquet.WriteFile(tmp, rows); err != nil {
		return "", fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("rename %s: %w", tmp, err)
	}
	return path, nil
}

// Load reads the snapshot for day.
func (c *Cache) Load(day time.Time) (map[string]Metrics, error) {
	path := c.Path(day)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrCacheMiss, path)
	}
	rows, err := parquet.ReadFile[cacheRow](path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	out := make(map[string]Metrics, len(rows))
	for _, r := range rows {
		out[r.Symbol] = Metrics{PE: r.PE, PB: r.PB, MarketCap: r.MarketCap, Turnover: r.Turnover, Volume: r.Volume}
	}
	return out, nil
}

// ClearOld removes snapshots last modified more than keepDays before now.
func (c *Cache) ClearOld(keepDays int, now time.Time) (int, error) {
	matches, err := filepath.Glob(filepath.Join(c.dir, "fundamentals_*.parquet"))
	if err != nil {
		return 0, err
	}
	cutoff := now.Add(-time.Duration(keepDays) * 24 * time.Hour)
	removed := 0
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err == nil {
			removed++
		}
	}
	return removed, nil
}
