package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// CLIErrorAdapter turns errors into a stderr message and an exit code.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{verbose: verbose, logger: logger}
}

// ExitCodeFor returns 0 for nil, the category exit code for classified
// errors and 1 otherwise.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if c, ok := AsClassified(err); ok {
		return c.Category().ExitCode()
	}
	return 1
}

// FormatError renders err for a terminal. Verbose mode prints the full
// chain; otherwise the message is followed by the url, file and path context
// and, for non-fatal errors, the cause.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	c, ok := AsClassified(err)
	if !ok {
		return "Error: " + err.Error()
	}
	if a.verbose {
		return c.Error()
	}
	msg := "Error: " + c.Message()
	for _, key := range []string{"url", "file", "path"} {
		if v, ok := c.Context().GetString(key); ok && v != "" {
			msg += fmt.Sprintf(" (%s: %s)", key, v)
		}
	}
	if !c.IsFatal() && c.Cause() != nil {
		msg += ": " + c.Cause().Error()
	}
	return msg
}

// Report logs err when warranted, prints it to w and returns the exit code.
// Fatal and unclassified errors are always logged; verbose mode logs all.
func (a *CLIErrorAdapter) Report(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	c, classified := AsClassified(err)
	switch {
	case !classified:
		a.logger.Error("Unclassified error", slog.String("error", err.Error()))
	case a.verbose || c.IsFatal():
		a.logger.LogAttrs(context.Background(), c.Severity().Level(), c.Message(), c.LogAttrs()...)
	}
	fmt.Fprintln(w, a.FormatError(err))
	return a.ExitCodeFor(err)
}

// HandleError reports err on stderr and exits. A nil error returns.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}
	os.Exit(a.Report(os.Stderr, err))
}
