// Package config loads the waternet configuration: a YAML file, then
// WATERNET_* environment overrides, then validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-waternet/pkg/hydraulic"
	"github.com/dd0wney/cluso-waternet/pkg/logging"
	"github.com/dd0wney/cluso-waternet/pkg/pools"
	"github.com/dd0wney/cluso-waternet/pkg/quantity"
	"github.com/dd0wney/cluso-waternet/pkg/validation"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "WATERNET_"

// Config is the root configuration
type Config struct {
	// Units names a unit preset: metric or us-customary
	Units           string      `yaml:"units"`
	HeadlossFormula string      `yaml:"headlossFormula" validate:"oneof=H-W D-W C-M"`
	Query           QueryConfig `yaml:"query"`
	Log             LogConfig   `yaml:"log"`
}

// QueryConfig selects how area queries run
type QueryConfig struct {
	BufferKind string `yaml:"bufferKind" validate:"oneof=growable fixed"`
	Background bool   `yaml:"background"`
	// Executor is the background executor: inline, pool or socket
	Executor string        `yaml:"executor" validate:"oneof=inline pool socket"`
	Workers  int           `yaml:"workers" validate:"gte=1,lte=1024"`
	Compress bool          `yaml:"compress"`
	Timeout  time.Duration `yaml:"timeout"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

// Default configuration values
const (
	DefaultWorkers = 2
	DefaultTimeout = 30 * time.Second
)

func Default() Config {
	return Config{
		Units:           "metric",
		HeadlossFormula: string(hydraulic.HazenWilliams),
		Query: QueryConfig{
			BufferKind: string(pools.Growable),
			Executor:   "pool",
			Workers:    DefaultWorkers,
			Timeout:    DefaultTimeout,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults, applies the environment and validates.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from WATERNET_* variables found by lookup
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(EnvPrefix + key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}

	str("UNITS", &c.Units)
	str("HEADLOSS_FORMULA", &c.HeadlossFormula)
	str("QUERY_BUFFER_KIND", &c.Query.BufferKind)
	boolean("QUERY_BACKGROUND", &c.Query.Background)
	str("QUERY_EXECUTOR", &c.Query.Executor)
	if v, ok := lookup(EnvPrefix + "QUERY_WORKERS"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%sQUERY_WORKERS: %w", EnvPrefix, err))
		} else {
			c.Query.Workers = n
		}
	}
	boolean("QUERY_COMPRESS", &c.Query.Compress)
	if v, ok := lookup(EnvPrefix + "QUERY_TIMEOUT"); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%sQUERY_TIMEOUT: %w", EnvPrefix, err))
		} else {
			c.Query.Timeout = d
		}
	}
	str("LOG_LEVEL", &c.Log.Level)
	return errors.Join(errs...)
}

// Validate checks field tags first, then the rules tags cannot express
func (c Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return validation.NewConfigValidator("Config").
		UnitPreset("units", c.Units).
		When(c.Query.Timeout != 0, func(cv *validation.ConfigValidator) {
			cv.RangeDuration("query.timeout", c.Query.Timeout, 10*time.Millisecond, time.Hour)
		}).
		Validate()
}

// Preset resolves Units. Validate guarantees it exists.
func (c Config) Preset() quantity.Preset {
	p, _ := quantity.PresetByID(c.Units)
	return p
}

func (c Config) ModelConfig() hydraulic.ModelConfig {
	p := c.Preset()
	return hydraulic.ModelConfig{
		Units:           p.Units,
		Defaults:        p.Defaults.Copy(),
		HeadlossFormula: hydraulic.HeadlossFormula(c.HeadlossFormula),
	}
}

func (c QueryConfig) CarrierKind() pools.CarrierKind {
	k, err := pools.ParseCarrierKind(c.BufferKind)
	if err != nil {
		return pools.Growable
	}
	return k
}

func (c LogConfig) ParsedLevel() logging.Level { return logging.ParseLevel(c.Level) }
