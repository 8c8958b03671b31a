// Package config loads the kgeval command configuration from TOML files and
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/pelletier/go-toml/v2"

	"github.com/YuminosukeSato/kgeval/evaluation"
	"github.com/YuminosukeSato/kgeval/pkg/errors"
	"github.com/YuminosukeSato/kgeval/pkg/log"
	"github.com/YuminosukeSato/kgeval/sklearn/model_selection"
)

const (
	BaseConfigFile       = "kgeval.toml"
	OverlayConfigPattern = "kgeval.%s.toml"

	EnvKgevalEnv    = "KGEVAL_ENV"
	EnvDataset      = "KGEVAL_DATASET"
	EnvSeed         = "KGEVAL_SEED"
	EnvTestFraction = "KGEVAL_TEST_FRACTION"
	EnvWorkers      = "KGEVAL_WORKERS"
	EnvLogLevel     = "KGEVAL_LOG_LEVEL"

	DefaultSeed int64 = 42
)

// Config is the root configuration of the kgeval command.
//
// Zero values mean "unset": Merge skips them and Finalize replaces them with
// defaults. Seed is a pointer so that an explicit seed of 0 stays 0.
type Config struct {
	Dataset      string       `toml:"dataset"`
	Seed         *int64       `toml:"seed"`
	TestFraction float64      `toml:"test_fraction"`
	LogLevel     string       `toml:"log_level"`
	Search       SearchConfig `toml:"search"`
}

// SearchConfig holds the nested grid-search settings.
type SearchConfig struct {
	OuterFolds int     `toml:"outer_folds"`
	InnerFolds int     `toml:"inner_folds"`
	Workers    int     `toml:"workers"`
	MaxIter    int     `toml:"max_iter"`
	Tol        float64 `toml:"tol"`
	// Cs overrides the logspace(-5, 5, 11) C values.
	Cs []float64 `toml:"cs"`
}

// Env returns the KGEVAL_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvKgevalEnv); env != "" {
		return env
	}
	return "local"
}

// Load reads path (if present), applies the kgeval.<KGEVAL_ENV>.toml overlay
// found next to it (if present) and finalizes all values. An empty path means
// BaseConfigFile in the working directory. A missing base file is not an
// error: defaults and environment variables then provide everything.
func Load(path string) (*Config, error) {
	if path == "" {
		path = BaseConfigFile
	}
	cfg := &Config{}

	if _, err := os.Stat(path); err == nil {
		loaded, err := load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if overlay := overlayPath(filepath.Dir(path)); overlay != "" {
		o, err := load(overlay)
		if err != nil {
			return nil, errors.Wrapf(err, "load overlay %s", overlay)
		}
		cfg.Merge(o)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, errors.Wrap(err, "finalize config")
	}
	return cfg, nil
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Dataset != "" {
		c.Dataset = overlay.Dataset
	}
	if overlay.Seed != nil {
		c.SetSeed(*overlay.Seed)
	}
	if overlay.TestFraction != 0 {
		c.TestFraction = overlay.TestFraction
	}
	if overlay.LogLevel != "" {
		c.LogLevel = overlay.LogLevel
	}
	c.Search.Merge(&overlay.Search)
}

// Merge overwrites non-zero fields from overlay.
func (c *SearchConfig) Merge(overlay *SearchConfig) {
	if overlay.OuterFolds != 0 {
		c.OuterFolds = overlay.OuterFolds
	}
	if overlay.InnerFolds != 0 {
		c.InnerFolds = overlay.InnerFolds
	}
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.MaxIter != 0 {
		c.MaxIter = overlay.MaxIter
	}
	if overlay.Tol != 0 {
		c.Tol = overlay.Tol
	}
	if len(overlay.Cs) > 0 {
		c.Cs = append([]float64(nil), overlay.Cs...)
	}
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize() error {
	c.loadDefaults()
	if err := c.loadEnv(); err != nil {
		return err
	}
	return c.Validate()
}

// SetSeed sets the random seed.
func (c *Config) SetSeed(seed int64) {
	c.Seed = &seed
}

// RandomSeed returns the configured seed, or DefaultSeed when none is set.
func (c *Config) RandomSeed() int64 {
	if c.Seed == nil {
		return DefaultSeed
	}
	return *c.Seed
}

// BaselineConfig returns the baseline trainer settings.
func (c *Config) BaselineConfig() evaluation.BaselineConfig {
	return evaluation.BaselineConfig{MaxIter: c.Search.MaxIter, Tol: c.Search.Tol}
}

// SearchConfig returns the grid-search trainer settings.
func (c *Config) SearchConfig() evaluation.SearchConfig {
	return evaluation.SearchConfig{
		OuterFolds: c.Search.OuterFolds,
		InnerFolds: c.Search.InnerFolds,
		Grid:       model_selection.ParameterGrid(c.Search.Cs),
		Workers:    c.Search.Workers,
		MaxIter:    c.Search.MaxIter,
		Tol:        c.Search.Tol,
	}
}

func (c *Config) loadDefaults() {
	if c.Dataset == "" {
		c.Dataset = "data/dataset.csv"
	}
	if c.Seed == nil {
		c.SetSeed(DefaultSeed)
	}
	if c.TestFraction == 0 {
		c.TestFraction = 0.3
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Search.OuterFolds == 0 {
		c.Search.OuterFolds = 5
	}
	if c.Search.InnerFolds == 0 {
		c.Search.InnerFolds = 3
	}
	if c.Search.Workers == 0 {
		c.Search.Workers = runtime.NumCPU()
	}
	if c.Search.MaxIter == 0 {
		c.Search.MaxIter = 1000
	}
	if c.Search.Tol == 0 {
		c.Search.Tol = 1e-4
	}
	if len(c.Search.Cs) == 0 {
		c.Search.Cs = model_selection.DefaultCs()
	}
}

func (c *Config) loadEnv() error {
	if v := os.Getenv(EnvDataset); v != "" {
		c.Dataset = v
	}
	if v := os.Getenv(EnvSeed); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.NewValidationError(EnvSeed, "not an integer", v)
		}
		c.SetSeed(seed)
	}
	if v := os.Getenv(EnvTestFraction); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.NewValidationError(EnvTestFraction, "not a number", v)
		}
		c.TestFraction = f
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		workers, err := strconv.Atoi(v)
		if err != nil {
			return errors.NewValidationError(EnvWorkers, "not an integer", v)
		}
		c.Search.Workers = workers
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	return nil
}

// Validate checks ranges and the derived search settings.
func (c *Config) Validate() error {
	if !(c.TestFraction > 0 && c.TestFraction < 1) {
		return errors.NewValidationError("test_fraction", "must be in the open interval (0, 1)", c.TestFraction)
	}
	if _, err := log.ToLogLevel(c.LogLevel); err != nil {
		return errors.NewValidationError("log_level", err.Error(), c.LogLevel)
	}
	for _, cv := range c.Search.Cs {
		if !(cv > 0) {
			return errors.NewValidationError("search.cs", "every C must be positive", cv)
		}
	}
	return c.SearchConfig().Validate()
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	return &cfg, nil
}

func overlayPath(dir string) string {
	if env := os.Getenv(EnvKgevalEnv); env != "" {
		path := filepath.Join(dir, fmt.Sprintf(OverlayConfigPattern, env))
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
