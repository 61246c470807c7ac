package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/lepinkainen/libris/internal/config"
	"github.com/lepinkainen/libris/internal/fileutil"
	"github.com/lepinkainen/libris/internal/importer"
)

// ImportCmd imports books from the command line.
type ImportCmd struct {
	ISBN      string `help:"ISBN to import" xor:"query" required:""`
	Title     string `help:"Title to search for" xor:"query" required:""`
	Offset    int    `help:"Result offset for title searches" default:"0"`
	Format    string `help:"Output format" enum:"yaml,json" default:"yaml"`
	Output    string `short:"o" help:"Write the result to this file instead of stdout" type:"path"`
	Overwrite bool   `help:"Overwrite the output file if it exists"`
}

// runImport is swapped in tests.
var runImport = func(ctx context.Context, cfg config.Config, isbn, title string, offset int) (any, error) {
	a, err := newApp(cfg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = a.Close() }()

	if isbn != "" {
		return a.importer.ImportByISBN(ctx, isbn)
	}
	return a.importer.ImportByTitle(ctx, title, offset)
}

func (i *ImportCmd) Run(cfg config.Config) error {
	if i.Offset < 0 {
		return fmt.Errorf("offset must not be negative")
	}

	res, err := runImport(context.Background(), cfg, i.ISBN, i.Title, i.Offset)
	if err != nil {
		if importerNotFound(err) {
			return fmt.Errorf("no results: %w", err)
		}
		return err
	}
	return i.write(res)
}

func (i *ImportCmd) write(v any) error {
	data, err := encode(v, i.Format)
	if err != nil {
		return err
	}

	if i.Output == "" {
		_, err := stdout.Write(data)
		return err
	}

	written, err := fileutil.WriteFileWithOverwrite(i.Output, data, 0o644, i.Overwrite)
	if err != nil {
		return fmt.Errorf("write %s: %w", i.Output, err)
	}
	if !written {
		slog.Info("Output file exists, not overwriting", "path", i.Output)
		return nil
	}
	slog.Info("Wrote import result", "path", i.Output, "format", i.Format)
	return nil
}

func encode(v any, format string) ([]byte, error) {
	switch format {
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return append(data, '\n'), nil
	default:
		data, err := yaml.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return data, nil
	}
}

func importerNotFound(err error) bool {
	return err != nil && errors.Is(err, importer.ErrNotFound)
}
