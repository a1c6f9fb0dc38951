package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/export"
	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/render"
)

const (
	contentTypeText     = "text/plain; charset=utf-8"
	contentTypeMarkdown = "text/markdown; charset=utf-8"
)

// Exporter renders the export and single pages.
type Exporter interface {
	Export(ctx context.Context) (export.Result, error)
	Page(ctx context.Context, slugs []string) (render.Unit, string, error)
}

// ExportHandlers serves /llms.txt and /llms.mdx.
type ExportHandlers struct {
	exporter     Exporter
	errorAdapter *ferrors.HTTPErrorAdapter
}

// NewExportHandlers creates export handlers.
func NewExportHandlers(exporter Exporter, logger *slog.Logger) *ExportHandlers {
	return &ExportHandlers{exporter: exporter, errorAdapter: ferrors.NewHTTPErrorAdapter(logger)}
}

// HandleExport serves the concatenated export of every page.
func (h *ExportHandlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	res, err := h.exporter.Export(r.Context())
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	writeText(w, r, contentTypeText, res.ETag, res.Body)
}

// HandlePage serves the unit of the page addressed by the {path...} wildcard.
func (h *ExportHandlers) HandlePage(w http.ResponseWriter, r *http.Request) {
	var slugs []string
	if p := strings.Trim(r.PathValue("path"), "/"); p != "" {
		slugs = strings.Split(p, "/")
	}
	unit, etag, err := h.exporter.Page(r.Context(), slugs)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	writeText(w, r, contentTypeMarkdown, etag, unit.String())
}
