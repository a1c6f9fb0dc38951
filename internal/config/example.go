package config

import (
	"time"

	"git.home.luguber.info/inful/docsite/internal/layout"
)

// Example returns the configuration written by `docsite init`.
func Example() *Config {
	cfg := &Config{
		Version: CurrentVersion,
		Content: ContentConfig{Dir: "./content/docs", BaseURL: "/docs"},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         3000,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Layout: layout.Layout{
			Nav:       layout.Nav{Title: "My Docs", TransparentMode: layout.TransparentNone},
			GitHubURL: "https://github.com/your-org/your-docs",
			Links: []layout.Link{
				{URL: "/docs", Text: "Documentation", Icon: "BookOpen", Active: layout.ActiveNestedURL},
			},
		},
		Build: BuildConfig{
			Prerender: []string{"/llms.txt", "/llms.mdx/*"},
			OutputDir: "./out",
		},
		Watch:      WatchConfig{Enabled: true, Debounce: 500 * time.Millisecond},
		Monitoring: MonitoringConfig{Metrics: MetricsConfig{Path: "/metrics"}, Health: HealthConfig{Path: "/health"}},
		Logging:    LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
	}
	return cfg
}
