package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/lepinkainen/libris/internal/cache"
	"github.com/lepinkainen/libris/internal/config"
	"github.com/lepinkainen/libris/internal/covers"
	"github.com/lepinkainen/libris/internal/enrichment/author"
	"github.com/lepinkainen/libris/internal/imagestore"
	"github.com/lepinkainen/libris/internal/images"
	"github.com/lepinkainen/libris/internal/importer"
	"github.com/lepinkainen/libris/internal/ratelimit"
	"github.com/lepinkainen/libris/internal/sources"
	"github.com/lepinkainen/libris/internal/store"
)

// app holds the wired pipeline for one process.
type app struct {
	cfg      config.Config
	store    *store.SQLiteStore
	cache    *cache.CacheDB
	authors  *author.Engine
	importer *importer.Importer
}

// newApp opens the databases and wires every component from cfg.
func newApp(cfg config.Config) (*app, error) {
	db, err := store.Open(cfg.DatabaseFile)
	if err != nil {
		return nil, fmt.Errorf("open catalogue: %w", err)
	}

	var cacheDB *cache.CacheDB
	if cfg.Cache.Enabled {
		cacheDB, err = cache.Open(cfg.Cache.DBFile, cache.WithTTL(cfg.Cache.TTL, cfg.Cache.NegativeTTL))
		if err != nil {
			return nil, errors.Join(fmt.Errorf("open cache: %w", err), db.Close())
		}
	}

	common := []sources.Option{sources.WithCache(cacheDB), sources.WithUserAgent(cfg.UserAgent)}

	google := sources.NewGoogleBooks(cfg.GoogleBooks.APIKey, append([]sources.Option{
		sources.WithBaseURL(cfg.GoogleBooks.BaseURL),
		sources.WithTimeout(cfg.GoogleBooks.Timeout),
		sources.WithRateLimiter(ratelimit.New("googlebooks", cfg.GoogleBooks.Rate)),
	}, common...)...)

	openLibrary := sources.NewOpenLibrary(cfg.OpenLibrary.CoversURL, cfg.OpenLibrary.ProbeTimeout, append([]sources.Option{
		sources.WithBaseURL(cfg.OpenLibrary.BaseURL),
		sources.WithTimeout(cfg.OpenLibrary.Timeout),
		sources.WithRateLimiter(ratelimit.New("openlibrary", cfg.OpenLibrary.Rate)),
	}, common...)...)

	wikipedia := sources.NewWikipedia(append([]sources.Option{
		sources.WithBaseURL(cfg.Wikipedia.BaseURL),
		sources.WithTimeout(cfg.Wikipedia.Timeout),
		sources.WithRateLimiter(ratelimit.New("wikipedia", cfg.Wikipedia.Rate)),
	}, common...)...)

	fetcher := images.NewFetcher(
		imagestore.New(cfg.MediaDir, cfg.MaxWidth),
		cfg.ImageTimeout,
		images.WithUserAgent(cfg.UserAgent),
	)

	engine := author.NewEngine(db, fetcher,
		author.NewOpenLibrarySource(openLibrary),
		author.NewWikipediaSource(wikipedia, cfg.Wikipedia.Languages...),
	)

	imp := importer.New(importer.Deps{
		Store:       db,
		GoogleBooks: google,
		OpenLibrary: openLibrary,
		Authors:     engine,
		Covers:      covers.NewResolver(openLibrary),
		Images:      fetcher,
	})

	slog.Debug("Pipeline ready", "database", cfg.DatabaseFile, "cache", cacheDB.Path(), "media", cfg.MediaDir)
	return &app{cfg: cfg, store: db, cache: cacheDB, authors: engine, importer: imp}, nil
}

// Close releases the databases.
func (a *app) Close() error {
	return errors.Join(a.store.Close(), a.cache.Close())
}
