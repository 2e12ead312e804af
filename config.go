package ecs

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned, wrapped, for configurations that cannot be
// used to build a world.
var ErrInvalidConfig = eris.New("ecs: invalid config")

// Config holds the tunables of a World in a form that can be loaded from
// YAML:
//
//	initial_capacity: 4096
//	chunk_reserve: 2
//	log_level: debug
type Config struct {
	InitialCapacity int    `yaml:"initial_capacity"`
	ChunkReserve    int    `yaml:"chunk_reserve"`
	LogLevel        string `yaml:"log_level"`
}

// DefaultConfig returns the configuration NewWorld uses without options.
func DefaultConfig() Config {
	return Config{
		InitialCapacity: defaultInitialCapacity,
		ChunkReserve:    defaultChunkReserve,
		LogLevel:        "info",
	}
}

// ParseConfig decodes YAML on top of DefaultConfig and validates the
// result. Unknown keys are rejected.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, eris.Wrap(err, "ecs: unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses the YAML file at path.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, eris.Wrapf(err, "ecs: load config %s", path)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, eris.Wrapf(err, "ecs: config %s", path)
	}
	return cfg, nil
}

// Validate reports the first unusable field, wrapping ErrInvalidConfig.
func (c Config) Validate() error {
	if c.InitialCapacity < 0 {
		return eris.Wrapf(ErrInvalidConfig, "initial_capacity %d is negative", c.InitialCapacity)
	}
	if c.ChunkReserve < 0 {
		return eris.Wrapf(ErrInvalidConfig, "chunk_reserve %d is negative", c.ChunkReserve)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel. An empty level means info.
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, eris.Wrapf(ErrInvalidConfig, "log_level %q", c.LogLevel)
	}
	return lvl, nil
}

// Options converts the configuration into world options. The log level is
// not included; it applies to whichever logger the caller builds.
func (c Config) Options() []Option {
	return []Option{
		WithInitialCapacity(c.InitialCapacity),
		WithChunkReserve(c.ChunkReserve),
	}
}

// NewWorldFromConfig validates cfg and creates a world from it. opts are
// applied after the configuration and win over it.
func NewWorldFromConfig(cfg Config, opts ...Option) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewWorld(append(cfg.Options(), opts...)...), nil
}
