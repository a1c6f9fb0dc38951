package errors

import (
	"log/slog"
	"net/http"
)

// ErrorCategory groups errors by what went wrong. The adapters derive HTTP
// statuses and process exit codes from it.
type ErrorCategory string

const (
	CategoryConfig        ErrorCategory = "config"
	CategoryValidation    ErrorCategory = "validation"
	CategoryNotFound      ErrorCategory = "not_found"
	CategoryAlreadyExists ErrorCategory = "already_exists"

	// CategoryContent covers failures to enumerate or parse the page catalog.
	CategoryContent ErrorCategory = "content"
	// CategoryRender covers failures while rendering a single page to text.
	CategoryRender     ErrorCategory = "render"
	CategoryFileSystem ErrorCategory = "filesystem"

	// CategoryGit covers the optional content repository.
	CategoryGit     ErrorCategory = "git"
	CategoryNetwork ErrorCategory = "network"

	CategoryRuntime  ErrorCategory = "runtime"
	CategoryDaemon   ErrorCategory = "daemon"
	CategoryInternal ErrorCategory = "internal"
)

type categoryTraits struct {
	status   int
	exitCode int
}

var traits = map[ErrorCategory]categoryTraits{
	CategoryConfig:        {http.StatusBadRequest, 7},
	CategoryValidation:    {http.StatusBadRequest, 2},
	CategoryNotFound:      {http.StatusNotFound, 3},
	CategoryAlreadyExists: {http.StatusConflict, 4},
	CategoryContent:       {http.StatusServiceUnavailable, 9},
	CategoryRender:        {http.StatusUnprocessableEntity, 11},
	CategoryFileSystem:    {http.StatusInternalServerError, 11},
	CategoryGit:           {http.StatusBadGateway, 8},
	CategoryNetwork:       {http.StatusBadGateway, 8},
	CategoryRuntime:       {http.StatusServiceUnavailable, 12},
	CategoryDaemon:        {http.StatusServiceUnavailable, 12},
	CategoryInternal:      {http.StatusInternalServerError, 10},
}

// HTTPStatus is the response status for errors of this category.
func (c ErrorCategory) HTTPStatus() int {
	if t, ok := traits[c]; ok {
		return t.status
	}
	return http.StatusInternalServerError
}

// ExitCode is the process exit code for errors of this category.
func (c ErrorCategory) ExitCode() int {
	if t, ok := traits[c]; ok {
		return t.exitCode
	}
	return 1
}

// ErrorSeverity indicates the impact level of an error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // stops the process or the request
	SeverityError   ErrorSeverity = "error"   // fails the current operation
	SeverityWarning ErrorSeverity = "warning" // continues degraded
)

// Level maps the severity to a log level.
func (s ErrorSeverity) Level() slog.Level {
	if s == SeverityWarning {
		return slog.LevelWarn
	}
	return slog.LevelError
}

// RetryStrategy tells callers whether repeating the operation can succeed.
type RetryStrategy string

const (
	RetryNever      RetryStrategy = "never"
	RetryBackoff    RetryStrategy = "backoff"
	RetryUserAction RetryStrategy = "user" // content or config must change first
)

// ErrorContext holds structured details such as the page URL or file path.
type ErrorContext map[string]any

// Set stores value under key, allocating the map when needed.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext, 1)
	}
	c[key] = value
	return c
}

// Get returns the value stored under key.
func (c ErrorContext) Get(key string) (any, bool) {
	v, ok := c[key]
	return v, ok
}

// GetString returns the value stored under key if it is a string.
func (c ErrorContext) GetString(key string) (string, bool) {
	s, ok := c[key].(string)
	return s, ok
}

// with returns a copy of c with key set.
func (c ErrorContext) with(key string, value any) ErrorContext {
	out := make(ErrorContext, len(c)+1)
	for k, v := range c {
		out[k] = v
	}
	out[key] = value
	return out
}
