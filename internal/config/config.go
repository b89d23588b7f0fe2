package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dshills/mirrorindex/internal/scanner"
	"github.com/dshills/mirrorindex/pkg/types"
)

const (
	FormatIndex      = "index"
	FormatCategories = "categories"

	DefaultOut            = "web/public"
	DefaultIndexFile      = "index.json"
	DefaultCategoriesFile = "categories.json"
	DefaultLocale         = "zh-Hans"
	DefaultCacheMaxAge    = 30 * time.Second

	// EnvCacheMaxAge overrides loader.cache_max_age, in milliseconds
	EnvCacheMaxAge = "MIRRORINDEX_CACHE_MAX_AGE_MS"
	// EnvDBPath overrides database
	EnvDBPath = "MIRRORINDEX_DB_PATH"
)

// Config is the mirrorindex configuration file. Every field is optional.
type Config struct {
	Root           string         `yaml:"root"`
	Out            string         `yaml:"out"`
	IndexFile      string         `yaml:"index_file"`
	CategoriesFile string         `yaml:"categories_file"`
	Formats        []string       `yaml:"formats"`
	Pretty         *bool          `yaml:"pretty"`
	Concurrency    int            `yaml:"concurrency"`
	IncludeEmpty   bool           `yaml:"include_empty"`
	Ignore         []string       `yaml:"ignore"`
	Locale         string         `yaml:"locale"`
	Metadata       MetadataConfig `yaml:"metadata"`
	Database       string         `yaml:"database"`
	Loader         LoaderConfig   `yaml:"loader"`
	Log            LogConfig      `yaml:"log"`
}

// MetadataConfig controls metadata extraction
type MetadataConfig struct {
	DefaultMime   string            `yaml:"default_mime"`
	TitleMax      int               `yaml:"title_max"`
	DigestMax     int               `yaml:"digest_max"`
	PreviewBytes  int               `yaml:"preview_bytes"`
	MimeOverrides map[string]string `yaml:"mime_overrides,omitempty"`
}

// LoaderConfig controls how served snapshots are located and cached
type LoaderConfig struct {
	Candidates  []string      `yaml:"candidates,omitempty"`
	CacheMaxAge time.Duration `yaml:"cache_max_age"`
}

// LogConfig describes log output
type LogConfig struct {
	Verbose    bool   `yaml:"verbose"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Default returns a config with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// Load reads a YAML config. An empty path returns defaults; a named file
// that does not exist is an error.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// Save writes the config as YAML
func (c *Config) Save(path string) error {
	if c == nil {
		return errors.New("config missing")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ApplyDefaults replaces zero values with defaults
func (c *Config) ApplyDefaults() {
	if c.Root == "" {
		c.Root = "."
	}
	if c.Out == "" {
		c.Out = DefaultOut
	}
	if c.IndexFile == "" {
		c.IndexFile = DefaultIndexFile
	}
	if c.CategoriesFile == "" {
		c.CategoriesFile = DefaultCategoriesFile
	}
	if len(c.Formats) == 0 {
		c.Formats = []string{FormatIndex, FormatCategories}
	}
	if c.Pretty == nil {
		pretty := true
		c.Pretty = &pretty
	}
	if c.Concurrency <= 0 {
		c.Concurrency = scanner.DefaultConcurrency
	}
	if c.Ignore == nil {
		c.Ignore = append([]string(nil), scanner.DefaultIgnore...)
	}
	if c.Locale == "" {
		c.Locale = DefaultLocale
	}
	if c.Loader.CacheMaxAge <= 0 {
		c.Loader.CacheMaxAge = DefaultCacheMaxAge
	}
	if c.Log.MaxSizeMB <= 0 {
		c.Log.MaxSizeMB = 64
	}
	if c.Log.MaxBackups <= 0 {
		c.Log.MaxBackups = 3
	}
	if c.Log.MaxAgeDays <= 0 {
		c.Log.MaxAgeDays = 14
	}
}

// ApplyEnv applies environment overrides using getenv (os.Getenv in production)
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvCacheMaxAge); v != "" {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil || ms <= 0 {
			return fmt.Errorf("invalid %s %q: must be a positive integer", EnvCacheMaxAge, v)
		}
		c.Loader.CacheMaxAge = time.Duration(ms) * time.Millisecond
	}
	if v := getenv(EnvDBPath); v != "" {
		c.Database = v
	}
	return nil
}

// Validate checks the config for values no build can use
func (c *Config) Validate() error {
	if c.IndexFile == "" || c.CategoriesFile == "" {
		return errors.New("output file names cannot be empty")
	}
	if c.IndexFile == c.CategoriesFile {
		return fmt.Errorf("index and categories files must differ: %s", c.IndexFile)
	}
	for _, name := range []string{c.IndexFile, c.CategoriesFile} {
		if strings.ContainsAny(name, `/\`) {
			return fmt.Errorf("output file name %q must not contain a path separator", name)
		}
	}
	for _, f := range c.Formats {
		if f != FormatIndex && f != FormatCategories {
			return fmt.Errorf("%w: %s", types.ErrUnknownFormat, f)
		}
	}
	if c.Metadata.TitleMax < 0 || c.Metadata.DigestMax < 0 || c.Metadata.PreviewBytes < 0 {
		return errors.New("metadata limits cannot be negative")
	}
	return nil
}

// PrettyOutput reports whether JSON is indented
func (c *Config) PrettyOutput() bool {
	return c.Pretty == nil || *c.Pretty
}

// SetPretty overrides the pretty flag
func (c *Config) SetPretty(v bool) {
	c.Pretty = &v
}

// WantsFormat reports whether an artifact is kept after the build
func (c *Config) WantsFormat(format string) bool {
	for _, f := range c.Formats {
		if f == format {
			return true
		}
	}
	return false
}

// OutDir resolves the output directory against the root
func (c *Config) OutDir() string {
	if filepath.IsAbs(c.Out) {
		return filepath.Clean(c.Out)
	}
	return filepath.Join(c.Root, c.Out)
}

// ParseFormats splits a comma-separated format list, trimming blanks
func ParseFormats(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
