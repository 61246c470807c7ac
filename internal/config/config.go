// Package config turns the viper key space into an immutable Config value
// that is passed explicitly to every component.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// LIBRIS_SERVER_ADDR for server.addr.
const EnvPrefix = "LIBRIS"

// GoogleBooks holds the Google Books provider settings.
type GoogleBooks struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Rate    float64
}

// OpenLibrary holds the Open Library provider settings.
type OpenLibrary struct {
	BaseURL      string
	CoversURL    string
	Timeout      time.Duration
	ProbeTimeout time.Duration
	Rate         float64
}

// Wikipedia holds the Wikipedia provider settings. BaseURL contains a
// {lang} placeholder that is replaced per request.
type Wikipedia struct {
	BaseURL   string
	Languages []string
	Timeout   time.Duration
	Rate      float64
}

// Cache holds the provider response cache settings.
type Cache struct {
	Enabled     bool
	DBFile      string
	TTL         time.Duration
	NegativeTTL time.Duration
}

// Config is the resolved application configuration.
type Config struct {
	ServerAddr   string
	DatabaseFile string
	MediaDir     string
	MaxWidth     int
	ImageTimeout time.Duration
	UserAgent    string
	LogLevel     string

	Cache       Cache
	GoogleBooks GoogleBooks
	OpenLibrary OpenLibrary
	Wikipedia   Wikipedia
}

// SetDefaults registers default values and environment bindings on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("database.file", "./libris.db")
	v.SetDefault("media.dir", "./media")
	v.SetDefault("media.max_width", 1200)
	v.SetDefault("images.timeout", "10s")
	v.SetDefault("user_agent", "libris/1.0 (+https://github.com/lepinkainen/libris)")
	v.SetDefault("log.level", "info")

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.dbfile", "./cache.db")
	v.SetDefault("cache.ttl", "720h")
	v.SetDefault("cache.negative_ttl", "168h")

	v.SetDefault("providers.googlebooks.base_url", "https://www.googleapis.com/books/v1")
	v.SetDefault("providers.googlebooks.timeout", "10s")
	v.SetDefault("providers.googlebooks.rate", 0)

	v.SetDefault("providers.openlibrary.base_url", "https://openlibrary.org")
	v.SetDefault("providers.openlibrary.covers_url", "https://covers.openlibrary.org")
	v.SetDefault("providers.openlibrary.timeout", "10s")
	v.SetDefault("providers.openlibrary.probe_timeout", "5s")
	v.SetDefault("providers.openlibrary.rate", 0)

	v.SetDefault("providers.wikipedia.base_url", "https://{lang}.wikipedia.org")
	v.SetDefault("providers.wikipedia.languages", []string{"es", "en"})
	v.SetDefault("providers.wikipedia.timeout", "8s")
	v.SetDefault("providers.wikipedia.rate", 0)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The conventional variable name works without the prefix too.
	_ = v.BindEnv("providers.googlebooks.api_key", EnvPrefix+"_PROVIDERS_GOOGLEBOOKS_API_KEY", "GOOGLE_BOOKS_API_KEY")
}

// Load resolves a Config from v. SetDefaults should have been called first.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		ServerAddr:   v.GetString("server.addr"),
		DatabaseFile: v.GetString("database.file"),
		MediaDir:     v.GetString("media.dir"),
		MaxWidth:     v.GetInt("media.max_width"),
		UserAgent:    v.GetString("user_agent"),
		LogLevel:     v.GetString("log.level"),
		Cache: Cache{
			Enabled: v.GetBool("cache.enabled"),
			DBFile:  v.GetString("cache.dbfile"),
		},
		GoogleBooks: GoogleBooks{
			BaseURL: strings.TrimRight(v.GetString("providers.googlebooks.base_url"), "/"),
			APIKey:  v.GetString("providers.googlebooks.api_key"),
			Rate:    v.GetFloat64("providers.googlebooks.rate"),
		},
		OpenLibrary: OpenLibrary{
			BaseURL:   strings.TrimRight(v.GetString("providers.openlibrary.base_url"), "/"),
			CoversURL: strings.TrimRight(v.GetString("providers.openlibrary.covers_url"), "/"),
			Rate:      v.GetFloat64("providers.openlibrary.rate"),
		},
		Wikipedia: Wikipedia{
			BaseURL:   strings.TrimRight(v.GetString("providers.wikipedia.base_url"), "/"),
			Languages: v.GetStringSlice("providers.wikipedia.languages"),
			Rate:      v.GetFloat64("providers.wikipedia.rate"),
		},
	}

	var errs []error
	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"images.timeout", &cfg.ImageTimeout},
		{"cache.ttl", &cfg.Cache.TTL},
		{"cache.negative_ttl", &cfg.Cache.NegativeTTL},
		{"providers.googlebooks.timeout", &cfg.GoogleBooks.Timeout},
		{"providers.openlibrary.timeout", &cfg.OpenLibrary.Timeout},
		{"providers.openlibrary.probe_timeout", &cfg.OpenLibrary.ProbeTimeout},
		{"providers.wikipedia.timeout", &cfg.Wikipedia.Timeout},
	}
	for _, d := range durations {
		parsed, err := parseDuration(v, d.key)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		*d.dst = parsed
	}

	if cfg.MaxWidth <= 0 {
		errs = append(errs, fmt.Errorf("media.max_width must be positive, got %d", cfg.MaxWidth))
	}
	if len(cfg.Wikipedia.Languages) == 0 {
		errs = append(errs, errors.New("providers.wikipedia.languages must not be empty"))
	}
	if !strings.Contains(cfg.Wikipedia.BaseURL, "{lang}") {
		errs = append(errs, fmt.Errorf("providers.wikipedia.base_url must contain {lang}: %q", cfg.Wikipedia.BaseURL))
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// parseDuration accepts either a duration string ("10s") or a plain number
// of seconds.
func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return 0, fmt.Errorf("%s is empty", key)
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		secs := v.GetFloat64(key)
		if secs <= 0 {
			return 0, fmt.Errorf("%s: invalid duration %q", key, raw)
		}
		d = time.Duration(secs * float64(time.Second))
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, raw)
	}
	return d, nil
}
