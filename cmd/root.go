package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"

	"github.com/lepinkainen/libris/internal/config"
)

// Version is reported by the health endpoint.
var Version = "dev"

var (
	// Command output goes to stdout, logs to logOutput.
	stdout    io.Writer = os.Stdout
	logOutput io.Writer = os.Stderr
	exit                = os.Exit
)

// CLI represents the complete command structure for the libris application
type CLI struct {
	Config      string `help:"Path to config file (defaults to ./config.yaml when present)" type:"path"`
	LogLevel    string `help:"Log level (debug, info, warn, error)"`
	Database    string `help:"Path to SQLite catalogue database"`
	CacheDBFile string `help:"Path to cache SQLite database file"`
	NoCache     bool   `help:"Disable the provider response cache"`

	Serve  ServeCmd  `cmd:"" help:"Run the HTTP API"`
	Import ImportCmd `cmd:"" help:"Import a book by ISBN or title"`
	Author AuthorCmd `cmd:"" help:"Enrich an author's biography and photo"`
	Cache  CacheCmd  `cmd:"" help:"Manage the provider response cache"`
}

func newParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	base := []kong.Option{
		kong.Name("libris"),
		kong.Description("Book catalogue backend with metadata import from Google Books, Open Library and Wikipedia."),
		kong.UsageOnError(),
	}
	return kong.New(cli, append(base, options...)...)
}

// Execute runs the Kong-based CLI
func Execute() {
	initLogging(slog.LevelInfo)
	loadDotEnv(".env")

	var cli CLI
	parser, err := newParser(&cli)
	if err != nil {
		slog.Error("Failed to build command line parser", "error", err)
		exit(1)
		return
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	cfg, err := loadConfig(viper.GetViper(), &cli)
	if err != nil {
		slog.Error("Configuration error", "error", err)
		exit(1)
		return
	}
	initLogging(parseLevel(cfg.LogLevel))

	if err := ctx.Run(cfg); err != nil {
		slog.Error("Command failed", "error", err)
		exit(1)
	}
}

// loadDotEnv reads KEY=value pairs from path into the environment without
// overriding variables that are already set. A missing file is fine.
func loadDotEnv(path string) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load env file", "path", path, "error", err)
	}
}

// loadConfig reads the optional config file into v, applies CLI overrides
// and resolves the immutable Config.
func loadConfig(v *viper.Viper, cli *CLI) (config.Config, error) {
	config.SetDefaults(v)

	if cli.Config != "" {
		v.SetConfigFile(cli.Config)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config.Config{}, fmt.Errorf("read config file: %w", err)
		}
		slog.Debug("Config file not found, using defaults and environment")
	}

	applyFlags(v, cli)
	return config.Load(v)
}

func applyFlags(v *viper.Viper, cli *CLI) {
	if cli.LogLevel != "" {
		v.Set("log.level", cli.LogLevel)
	}
	if cli.Database != "" {
		v.Set("database.file", cli.Database)
	}
	if cli.CacheDBFile != "" {
		v.Set("cache.dbfile", cli.CacheDBFile)
	}
	if cli.NoCache {
		v.Set("cache.enabled", false)
	}
	if cli.Serve.Addr != "" {
		v.Set("server.addr", cli.Serve.Addr)
	}
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func initLogging(level slog.Level) {
	handler := humanlog.NewHandler(logOutput, &humanlog.Options{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
