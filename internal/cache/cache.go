// Package cache stores provider responses in SQLite so repeated lookups of
// the same ISBN, title or author do not hit the network again.
package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const (
	// DefaultCacheTTL is the default time-to-live for cached entries (30 days)
	DefaultCacheTTL = 720 * time.Hour
	// NegativeCacheTTL is the TTL for "not found" responses (7 days)
	NegativeCacheTTL = 168 * time.Hour
)

// FetchFunc represents a function that fetches data from an external source
type FetchFunc[T any] func() (T, error)

// CacheDB manages the SQLite database connection for caching.
// A nil *CacheDB is valid and caches nothing.
type CacheDB struct {
	db          *sql.DB
	mu          sync.RWMutex
	path        string
	ttl         time.Duration
	negativeTTL time.Duration
	now         func() time.Time
}

// Option configures a CacheDB.
type Option func(*CacheDB)

// WithTTL sets the lifetime of positive and negative entries.
func WithTTL(ttl, negativeTTL time.Duration) Option {
	return func(c *CacheDB) {
		if ttl > 0 {
			c.ttl = ttl
		}
		if negativeTTL > 0 {
			c.negativeTTL = negativeTTL
		}
	}
}

// Open opens (creating if needed) the cache database and its tables.
func Open(dbPath string, opts ...Option) (*CacheDB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		closeErr := db.Close()
		return nil, errors.Join(fmt.Errorf("failed to connect to cache database: %w", err), closeErr)
	}

	c := &CacheDB{
		db:          db,
		path:        dbPath,
		ttl:         DefaultCacheTTL,
		negativeTTL: NegativeCacheTTL,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	for table := range ValidCacheTableNames {
		if _, err := db.Exec(schemaFor(table)); err != nil {
			closeErr := db.Close()
			return nil, errors.Join(fmt.Errorf("failed to create cache table %s: %w", table, err), closeErr)
		}
	}

	return c, nil
}

// Path returns the database file path.
func (c *CacheDB) Path() string {
	if c == nil {
		return ""
	}
	return c.path
}

// Close closes the database connection
func (c *CacheDB) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// validateTableName checks if the table name is in the whitelist
// to prevent SQL injection attacks
func validateTableName(tableName string) error {
	if !ValidCacheTableNames[tableName] {
		return fmt.Errorf("invalid cache table name: %s", tableName)
	}
	return nil
}

// GetOrFetch returns the cached value for key or calls fetch and stores its
// result. isNotFound decides whether a fetched value is a negative answer,
// which is kept for the shorter negative TTL; it may be nil. Fetch errors are
// never cached. With a nil cache, fetch is simply called.
func GetOrFetch[T any](c *CacheDB, tableName, cacheKey string, fetch FetchFunc[T], isNotFound func(T) bool) (T, bool, error) {
	var zero T

	if c == nil {
		data, err := fetch()
		return data, false, err
	}

	cached, fromCache, err := c.Get(tableName, cacheKey)
	if err != nil {
		slog.Warn("Cache lookup failed, fetching directly", "table", tableName, "key", cacheKey, "error", err)
	} else if fromCache {
		var result T
		if err := json.Unmarshal([]byte(cached), &result); err == nil {
			slog.Debug("Cache hit", "table", tableName, "key", cacheKey)
			return result, true, nil
		}
		slog.Warn("Failed to unmarshal cached data, will refetch", "table", tableName, "key", cacheKey, "error", err)
	}

	slog.Debug("Cache miss, fetching data", "table", tableName, "key", cacheKey)
	data, err := fetch()
	if err != nil {
		return zero, false, err
	}

	ttl := c.ttl
	if isNotFound != nil && isNotFound(data) {
		ttl = c.negativeTTL
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		slog.Warn("Failed to marshal data for caching", "table", tableName, "key", cacheKey, "error", err)
		return data, false, nil
	}
	if err := c.Set(tableName, cacheKey, string(jsonData), ttl); err != nil {
		// caching failure shouldn't stop the import
		slog.Warn("Failed to cache data", "table", tableName, "key", cacheKey, "error", err)
	} else {
		slog.Debug("Data cached successfully", "table", tableName, "key", cacheKey, "ttl", ttl)
	}

	return data, false, nil
}

// Get retrieves an unexpired cached value from the specified table.
// Returns the cached data, whether it was found, and any error.
func (c *CacheDB) Get(tableName, key string) (string, bool, error) {
	if err := validateTableName(tableName); err != nil {
		return "", false, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	query := fmt.Sprintf(`
		SELECT data, expires_at
		FROM %s
		WHERE cache_key = ?
	`, tableName)

	var data string
	var expiresAt time.Time
	err := c.db.QueryRow(query, key).Scan(&data, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query cache: %w", err)
	}

	if c.now().UTC().After(expiresAt) {
		slog.Debug("Cache expired", "table", tableName, "key", key, "expired_at", expiresAt)
		return "", false, nil
	}

	return data, true, nil
}

// Set stores a value in the cache for ttl.
func (c *CacheDB) Set(tableName, key, data string, ttl time.Duration) error {
	if err := validateTableName(tableName); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	query := fmt.Sprintf(`
		INSERT OR REPLACE INTO %s (cache_key, data, cached_at, expires_at)
		VALUES (?, ?, ?, ?)
	`, tableName)

	now := c.now().UTC()
	if _, err := c.db.Exec(query, key, data, now, now.Add(ttl)); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}

	return nil
}

// ClearExpired removes expired entries from the specified table.
func (c *CacheDB) ClearExpired(tableName string) (int64, error) {
	if err := validateTableName(tableName); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	query := fmt.Sprintf("DELETE FROM %s WHERE expires_at < ?", tableName)
	result, err := c.db.Exec(query, c.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired cache: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows > 0 {
		slog.Info("Cleared expired cache entries", "table", tableName, "count", rows)
	}
	return rows, nil
}

// InvalidateSource deletes all entries from the specified cache table and
// returns the number of rows deleted.
func (c *CacheDB) InvalidateSource(tableName string) (int64, error) {
	if err := validateTableName(tableName); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	result, err := c.db.Exec(fmt.Sprintf("DELETE FROM %s", tableName))
	if err != nil {
		return 0, fmt.Errorf("failed to delete cache entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	slog.Debug("Cache table cleared", "table", tableName, "rows_deleted", rowsAffected)
	return rowsAffected, nil
}
