// Package server exposes the import pipeline and catalogue reads over HTTP.
package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lepinkainen/libris/internal/model"
	"github.com/lepinkainen/libris/internal/result"
)

// Importer runs book imports.
type Importer interface {
	ImportByISBN(ctx context.Context, isbn string) (*model.Book, error)
	ImportByTitle(ctx context.Context, title string, offset int) ([]*model.Book, error)
}

// Catalog is the read side of the store.
type Catalog interface {
	GetBook(ctx context.Context, id int64) (*model.Book, error)
	ListBooks(ctx context.Context, limit, offset int) ([]*model.Book, error)
	GetAuthor(ctx context.Context, id int64) (*model.Author, error)
	Ping(ctx context.Context) error
}

// AuthorEnricher fills missing author fields.
type AuthorEnricher interface {
	Enrich(ctx context.Context, a *model.Author) result.Result[*model.Author]
}

// Options configures the router.
type Options struct {
	Importer Importer
	Catalog  Catalog
	Authors  AuthorEnricher
	MediaDir string
	Version  string
}

// New builds the gin engine with all routes registered.
func New(opts Options) *gin.Engine {
	e := gin.New()
	e.Use(gin.Recovery(), requestLogger())

	NewHealthHandler(opts.Catalog, time.Now(), opts.Version).RegisterRoutes(e)

	api := e.Group("/api")
	NewImportHandler(opts.Importer).RegisterRoutes(api)
	NewBookHandler(opts.Catalog).RegisterRoutes(api)
	NewAuthorHandler(opts.Catalog, opts.Authors).RegisterRoutes(api)

	if opts.MediaDir != "" {
		e.Static("/media", opts.MediaDir)
	}
	return e
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start),
		}
		switch {
		case status >= 500:
			slog.Error("Request failed", attrs...)
		case status >= 400:
			slog.Info("Request rejected", attrs...)
		default:
			slog.Debug("Request served", attrs...)
		}
	}
}
