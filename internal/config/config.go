// Package config loads permlab settings from a YAML file and the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/0xcro3dile/permlab/internal/adapters/analysis"
)

// EnvPrefix prefixes every environment override, e.g. PERMLAB_ANALYSIS_BASE_URL.
const EnvPrefix = "PERMLAB_"

// Config holds all permlab settings.
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis"`
	Session  SessionConfig  `yaml:"session"`
	Server   ServerConfig   `yaml:"server"`
	Watch    WatchConfig    `yaml:"watch"`
	Log      LogConfig      `yaml:"log"`
}

// AnalysisConfig points at the regression service.
type AnalysisConfig struct {
	// BaseURL of the service exposing POST /plot.
	BaseURL string `yaml:"base_url"`

	// Timeout bounds a single analysis call (default 60s).
	Timeout time.Duration `yaml:"timeout"`

	// MaxBodyBytes caps the response body, plots included.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// SessionConfig tunes input handling.
type SessionConfig struct {
	// StrictParsing rejects malformed list tokens instead of sending NaN.
	StrictParsing bool `yaml:"strict_parsing"`
}

// MetricsDisabled as server.metrics_addr turns the metrics listener off.
const MetricsDisabled = "off"

// ServerConfig configures `permlab serve`.
type ServerConfig struct {
	Addr string `yaml:"addr"`

	// MetricsAddr is the Prometheus listen address; "off" disables it.
	MetricsAddr string `yaml:"metrics_addr"`
}

// MetricsListenAddr returns the metrics address, or "" when disabled.
func (s ServerConfig) MetricsListenAddr() string {
	if strings.EqualFold(strings.TrimSpace(s.MetricsAddr), MetricsDisabled) {
		return ""
	}
	return s.MetricsAddr
}

// WatchConfig configures `permlab watch`.
type WatchConfig struct {
	Dir        string   `yaml:"dir"`
	Extensions []string `yaml:"extensions"`

	// ReportDir receives one report per draft. Empty means next to the draft.
	ReportDir string `yaml:"report_dir"`
}

// LogConfig sets the log level name (debug, info, warn, error).
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns a Config with every default applied.
func Default() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Analysis.BaseURL == "" {
		c.Analysis.BaseURL = analysis.DefaultBaseURL
	}
	if c.Analysis.Timeout == 0 {
		c.Analysis.Timeout = analysis.DefaultTimeout
	}
	if c.Analysis.MaxBodyBytes == 0 {
		c.Analysis.MaxBodyBytes = analysis.DefaultMaxBodyBytes
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.MetricsAddr == "" {
		c.Server.MetricsAddr = "127.0.0.1:9090"
	}
	if c.Watch.Dir == "" {
		c.Watch.Dir = "./drafts"
	}
	if len(c.Watch.Extensions) == 0 {
		c.Watch.Extensions = []string{".yaml", ".yml", ".json"}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// LoadConfig reads the YAML file at path, applies environment overrides
// and then defaults. An empty path skips the file.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrap(err, "reading config file")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrap(err, "parsing config file")
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(EnvPrefix + key)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	if v, ok := get("ANALYSIS_BASE_URL"); ok {
		c.Analysis.BaseURL = v
	}
	if v, ok := get("ANALYSIS_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrapf(err, "%sANALYSIS_TIMEOUT", EnvPrefix)
		}
		c.Analysis.Timeout = d
	}
	if v, ok := get("ANALYSIS_MAX_BODY_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "%sANALYSIS_MAX_BODY_BYTES", EnvPrefix)
		}
		c.Analysis.MaxBodyBytes = n
	}
	if v, ok := get("SESSION_STRICT_PARSING"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "%sSESSION_STRICT_PARSING", EnvPrefix)
		}
		c.Session.StrictParsing = b
	}
	if v, ok := get("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := get("SERVER_METRICS_ADDR"); ok {
		c.Server.MetricsAddr = v
	}
	if v, ok := get("WATCH_DIR"); ok {
		c.Watch.Dir = v
	}
	if v, ok := get("WATCH_EXTENSIONS"); ok {
		var exts []string
		for _, e := range strings.Split(v, ",") {
			if e = strings.TrimSpace(e); e != "" {
				exts = append(exts, e)
			}
		}
		c.Watch.Extensions = exts
	}
	if v, ok := get("WATCH_REPORT_DIR"); ok {
		c.Watch.ReportDir = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	return nil
}
