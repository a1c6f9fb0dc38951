package config

import (
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

var (
	absolutePath = regexp.MustCompile(`^/`)
	routePattern = regexp.MustCompile(`^/llms\.(txt|mdx(/\*|(/[^/\s]+)*))$`)
)

// Validate implements validation.Validatable.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Version, validation.Required, validation.In(CurrentVersion).Error("unsupported configuration version (expected 1.0)")),
		validation.Field(&c.Content),
		validation.Field(&c.Server),
		validation.Field(&c.Layout),
		validation.Field(&c.Build),
		validation.Field(&c.Export),
		validation.Field(&c.Watch),
		validation.Field(&c.Monitoring),
		validation.Field(&c.Logging),
	)
}

func (c ContentConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.BaseURL, validation.Required, validation.Match(absolutePath).Error("must start with /")),
		validation.Field(&c.Repository),
	)
}

func (r RepositoryConfig) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.URL, validation.Required, validation.By(gitURL)),
		validation.Field(&r.Path, validation.By(relativePath)),
		validation.Field(&r.PullInterval, validation.Min(time.Duration(0))),
		validation.Field(&r.Retry),
	)
}

func (r RetryConfig) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Backoff, validation.In("fixed", "linear", "exponential")),
		validation.Field(&r.Initial, validation.Min(time.Duration(0))),
		validation.Field(&r.Max, validation.Min(time.Duration(0))),
		validation.Field(&r.MaxRetries, validation.Min(0)),
	)
}

func (s ServerConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Host, validation.Required, is.Host),
		validation.Field(&s.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&s.ReadTimeout, validation.Min(time.Duration(0))),
		validation.Field(&s.WriteTimeout, validation.Min(time.Duration(0))),
	)
}

func (b BuildConfig) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.Prerender, validation.Each(validation.Match(routePattern).Error("must be /llms.txt, /llms.mdx/* or a /llms.mdx route"))),
		validation.Field(&b.OutputDir, validation.Required),
	)
}

func (e ExportConfig) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Concurrency, validation.Min(0)),
	)
}

func (w WatchConfig) Validate() error {
	return validation.ValidateStruct(&w,
		validation.Field(&w.Debounce, validation.Min(time.Duration(0))),
		validation.Field(&w.RescanInterval, validation.Min(time.Duration(0))),
	)
}

func (m MonitoringConfig) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Metrics),
		validation.Field(&m.Health),
	)
}

func (m MetricsConfig) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Path, validation.Required, validation.Match(absolutePath).Error("must start with /")),
	)
}

func (h HealthConfig) Validate() error {
	return validation.ValidateStruct(&h,
		validation.Field(&h.Path, validation.Required, validation.Match(absolutePath).Error("must start with /")),
	)
}

func (l LoggingConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError)),
		validation.Field(&l.Format, validation.In(LogFormatJSON, LogFormatText)),
	)
}

func gitURL(value any) error {
	s, _ := value.(string)
	switch {
	case strings.HasPrefix(s, "git@"), strings.HasPrefix(s, "file://"):
		return nil
	case strings.HasPrefix(s, "http://"), strings.HasPrefix(s, "https://"), strings.HasPrefix(s, "ssh://"):
		return is.URL.Validate(s)
	}
	return validation.NewError("validation_git_url", "must be an http(s), ssh or scp-style git URL")
}

func relativePath(value any) error {
	s, _ := value.(string)
	if strings.HasPrefix(s, "/") || strings.Contains(s, "..") {
		return validation.NewError("validation_relative_path", "must be a relative path inside the repository")
	}
	return nil
}
