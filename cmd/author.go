package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lepinkainen/libris/internal/config"
	"github.com/lepinkainen/libris/internal/result"
	"github.com/lepinkainen/libris/internal/store"
)

// AuthorCmd enriches a stored author.
type AuthorCmd struct {
	ID     int64  `help:"Author id" required:""`
	Format string `help:"Output format" enum:"yaml,json" default:"yaml"`
}

func (c *AuthorCmd) Run(cfg config.Config) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx := context.Background()
	au, err := a.store.GetAuthor(ctx, c.ID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("author %d not found", c.ID)
	}
	if err != nil {
		return err
	}

	res := a.authors.Enrich(ctx, au)
	switch res.Status {
	case result.StatusFailed:
		return fmt.Errorf("enrich author %d: %w", c.ID, res.Err)
	case result.StatusEmpty:
		slog.Info("Nothing new found for author", "id", au.ID, "name", au.Name)
	default:
		slog.Info("Author updated", "id", au.ID, "name", au.Name)
	}

	data, err := encode(au, c.Format)
	if err != nil {
		return err
	}
	_, err = stdout.Write(data)
	return err
}
