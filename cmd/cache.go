package cmd

import (
	"fmt"
	"log/slog"

	"github.com/lepinkainen/libris/internal/cache"
	"github.com/lepinkainen/libris/internal/config"
)

// CacheCmd groups cache maintenance commands.
type CacheCmd struct {
	Clear CacheClearCmd `cmd:"" help:"Delete cached provider responses"`
}

// CacheClearCmd empties cache tables.
type CacheClearCmd struct {
	Source      string `help:"Only clear this source (googlebooks, openlibrary, wikipedia)"`
	ExpiredOnly bool   `help:"Only delete expired entries"`
}

func (c *CacheClearCmd) Run(cfg config.Config) error {
	tables, err := cache.TablesForSource(c.Source)
	if err != nil {
		return err
	}

	db, err := cache.Open(cfg.Cache.DBFile)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer func() { _ = db.Close() }()

	var total int64
	for _, table := range tables {
		var n int64
		if c.ExpiredOnly {
			n, err = db.ClearExpired(table)
		} else {
			n, err = db.InvalidateSource(table)
		}
		if err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
		slog.Debug("Cleared cache table", "table", table, "deleted", n)
		total += n
	}

	_, err = fmt.Fprintf(stdout, "Deleted %d cached entries from %d table(s)\n", total, len(tables))
	return err
}
