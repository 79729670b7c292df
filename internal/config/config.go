package config

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/signalscope/internal/errors"
)

const (
	// JSONFileName is the JSON configuration file name.
	JSONFileName = "signalscope.json"

	// YAMLFileName is the YAML configuration file name.
	YAMLFileName = "signalscope.yaml"

	// DefaultDevtoolsAddr is the default devtools listen address.
	DefaultDevtoolsAddr = "localhost:6061"

	// DefaultFeedBuffer is the default per-client event buffer of the devtools feed.
	DefaultFeedBuffer = 64

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "signalscope"

	// DefaultSubsystem is the default Prometheus subsystem.
	DefaultSubsystem = "scope"
)

// Config is the complete signalscope configuration.
type Config struct {
	// Reaper controls the deferred reaper of dangling scopes.
	Reaper ReaperConfig `json:"reaper" yaml:"reaper"`

	// Devtools configures the inspection server.
	Devtools DevtoolsConfig `json:"devtools" yaml:"devtools"`

	// Metrics configures the Prometheus collector.
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`

	// Log configures logging.
	Log LogConfig `json:"log" yaml:"log"`

	// path stores where the config was loaded from.
	path string
}

// ReaperConfig controls the deferred reaper.
type ReaperConfig struct {
	// Enabled schedules the reaper on the render loop. When false, dangling
	// scopes are only closed by an explicit sweep.
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// DevtoolsConfig configures the devtools server.
type DevtoolsConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`

	// FeedBuffer is the number of events buffered per websocket client.
	FeedBuffer int `json:"feedBuffer,omitempty" yaml:"feedBuffer,omitempty"`
}

// MetricsConfig configures metric names.
type MetricsConfig struct {
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Subsystem string `json:"subsystem,omitempty" yaml:"subsystem,omitempty"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Reaper: ReaperConfig{Enabled: true},
		Devtools: DevtoolsConfig{
			Addr:       DefaultDevtoolsAddr,
			FeedBuffer: DefaultFeedBuffer,
		},
		Metrics: MetricsConfig{
			Namespace: DefaultNamespace,
			Subsystem: DefaultSubsystem,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadOptional reads signalscope.json or signalscope.yaml from dir. When
// neither exists the defaults are returned.
func LoadOptional(dir string) (*Config, error) {
	for _, name := range []string{JSONFileName, YAMLFileName} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return Default(), nil
}

// LoadFile reads configuration from path. The format is chosen by extension;
// anything other than .yaml or .yml is parsed as JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("S001").
			WithDetail(path).
			Wrap(err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("S002").
			WithDetail("Failed to parse " + filepath.Base(path)).
			Wrap(err)
	}

	cfg.path = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the path the config was loaded from, or "" for defaults.
func (c *Config) Path() string {
	return c.path
}

// applyDefaults fills in values left empty by the file.
func (c *Config) applyDefaults() {
	if c.Devtools.Addr == "" {
		c.Devtools.Addr = DefaultDevtoolsAddr
	}
	if c.Devtools.FeedBuffer == 0 {
		c.Devtools.FeedBuffer = DefaultFeedBuffer
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if _, ok := parseLevel(c.Log.Level); !ok {
		return errors.New("S003").
			WithDetailf("log.level %q must be one of debug, info, warn, error", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New("S003").
			WithDetailf("log.format %q must be text or json", c.Log.Format)
	}
	if c.Devtools.FeedBuffer < 0 {
		return errors.New("S003").
			WithDetailf("devtools.feedBuffer must not be negative, got %d", c.Devtools.FeedBuffer)
	}
	return nil
}

// SlogLevel returns the configured slog level.
func (l LogConfig) SlogLevel() slog.Level {
	lvl, _ := parseLevel(l.Level)
	return lvl
}

// Logger builds a slog.Logger writing to w.
func (l LogConfig) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: l.SlogLevel()}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}
