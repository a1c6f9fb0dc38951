// Package config loads docsite.yaml: content location, HTTP server, layout,
// build and watch settings.
package config

import (
	"net"
	"strconv"
	"time"

	"git.home.luguber.info/inful/docsite/internal/layout"
)

// CurrentVersion is the only supported configuration version.
const CurrentVersion = "1.0"

// DefaultPath is the configuration file used when none is given.
const DefaultPath = "docsite.yaml"

// Config is the complete docsite configuration.
type Config struct {
	Version    string           `yaml:"version"`
	Content    ContentConfig    `yaml:"content"`
	Server     ServerConfig     `yaml:"server"`
	Layout     layout.Layout    `yaml:"layout"`
	Icons      IconsConfig      `yaml:"icons"`
	Build      BuildConfig      `yaml:"build"`
	Export     ExportConfig     `yaml:"export"`
	Watch      WatchConfig      `yaml:"watch"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ContentConfig locates the documentation tree.
type ContentConfig struct {
	Dir        string            `yaml:"dir"`
	BaseURL    string            `yaml:"base_url"`
	Repository *RepositoryConfig `yaml:"repository,omitempty"`
}

// RepositoryConfig is an optional git repository the content is cloned from.
// When set, Dir is the checkout location and Path the docs directory inside it.
type RepositoryConfig struct {
	URL          string        `yaml:"url"`
	Branch       string        `yaml:"branch,omitempty"`
	Token        string        `yaml:"token,omitempty"`
	Path         string        `yaml:"path,omitempty"`
	PullInterval time.Duration `yaml:"pull_interval,omitempty"`
	Retry        RetryConfig   `yaml:"retry,omitempty"`
}

// RetryConfig tunes retries of transient clone and fetch failures. Unset
// fields keep the defaults: exponential backoff from 1s, capped at 30s, two
// retries.
type RetryConfig struct {
	Backoff    string        `yaml:"backoff,omitempty"`
	Initial    time.Duration `yaml:"initial,omitempty"`
	Max        time.Duration `yaml:"max,omitempty"`
	MaxRetries *int          `yaml:"max_retries,omitempty"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// IconsConfig points at an optional catalog overlaying the embedded icons.
type IconsConfig struct {
	Catalog string `yaml:"catalog,omitempty"`
}

// BuildConfig configures static prerendering.
type BuildConfig struct {
	Prerender  []string `yaml:"prerender"`
	CrawlLinks bool     `yaml:"crawl_links"`
	OutputDir  string   `yaml:"output_dir"`
	// Externals is accepted for compatibility with bundler configs and ignored.
	Externals []string `yaml:"externals,omitempty"`
}

// ExportConfig configures llms.txt rendering.
type ExportConfig struct {
	// Concurrency bounds parallel page renders; 0 selects GOMAXPROCS.
	Concurrency int `yaml:"concurrency"`
}

// WatchConfig configures content reloading while serving.
type WatchConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Debounce       time.Duration `yaml:"debounce"`
	RescanInterval time.Duration `yaml:"rescan_interval"`
}

// MonitoringConfig configures the operational endpoints.
type MonitoringConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Health  HealthConfig  `yaml:"health"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Path    string `yaml:"path"`
}

// HealthConfig configures the health endpoint.
type HealthConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// MetricsEnabled reports whether /metrics is served. It defaults to true.
func (c *Config) MetricsEnabled() bool {
	return c.Monitoring.Metrics.Enabled == nil || *c.Monitoring.Metrics.Enabled
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
