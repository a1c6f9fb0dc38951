package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/docsite/internal/daemon"
	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/server/responses"
	"git.home.luguber.info/inful/docsite/internal/version"
)

// StatusProvider reports the content daemon state.
type StatusProvider interface {
	Status() daemon.Status
}

// MonitoringHandlers contains monitoring-related HTTP handlers.
type MonitoringHandlers struct {
	status       StatusProvider
	startTime    time.Time
	errorAdapter *ferrors.HTTPErrorAdapter
}

// NewMonitoringHandlers creates a new monitoring handlers instance.
func NewMonitoringHandlers(status StatusProvider, logger *slog.Logger) *MonitoringHandlers {
	return &MonitoringHandlers{
		status:       status,
		startTime:    time.Now(),
		errorAdapter: ferrors.NewHTTPErrorAdapter(logger),
	}
}

// HandleHealthCheck reports 200 once content is loaded and 503 before.
func (h *MonitoringHandlers) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	st := h.status.Status()
	health := &responses.HealthResponse{
		Status:        "healthy",
		Timestamp:     time.Now().UTC(),
		Version:       version.Version,
		Uptime:        time.Since(h.startTime).Seconds(),
		Pages:         st.Pages,
		Fingerprint:   st.Fingerprint,
		LastScanError: st.LastScanError,
	}
	code := http.StatusOK
	switch {
	case st.Fingerprint == "":
		health.Status = "starting"
		code = http.StatusServiceUnavailable
	case st.LastScanError != "":
		health.Status = "degraded"
	}

	if err := writeJSONPretty(w, r, code, health); err != nil {
		internalErr := ferrors.WrapError(err, ferrors.CategoryInternal, "failed to write health response").Build()
		h.errorAdapter.WriteErrorResponse(w, r, internalErr)
	}
}
