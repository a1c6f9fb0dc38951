package handlers

import (
	"log/slog"
	"net/http"

	"git.home.luguber.info/inful/docsite/internal/export"
	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/icons"
	"git.home.luguber.info/inful/docsite/internal/layout"
	"git.home.luguber.info/inful/docsite/internal/server/responses"
)

// APIHandlers serves the JSON documents the page shell is built from.
type APIHandlers struct {
	layout       layout.Layout
	icons        *icons.Resolver
	snapshots    export.Snapshots
	errorAdapter *ferrors.HTTPErrorAdapter
}

// NewAPIHandlers creates API handlers.
func NewAPIHandlers(l layout.Layout, resolver *icons.Resolver, snapshots export.Snapshots, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		layout:       l,
		icons:        resolver,
		snapshots:    snapshots,
		errorAdapter: ferrors.NewHTTPErrorAdapter(logger),
	}
}

// HandleLayout serves the navigation descriptor with resolved icons.
func (h *APIHandlers) HandleLayout(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.layout.View(h.icons))
}

// HandleTree serves the page tree of the current snapshot.
func (h *APIHandlers) HandleTree(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshots.Current()
	if snap == nil {
		h.errorAdapter.WriteErrorResponse(w, r, ferrors.ContentScanError("content not loaded").Build())
		return
	}
	h.respond(w, r, layout.Tree(snap.Tree(), h.icons))
}

// HandlePages lists the pages of the current snapshot in catalog order.
func (h *APIHandlers) HandlePages(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshots.Current()
	if snap == nil {
		h.errorAdapter.WriteErrorResponse(w, r, ferrors.ContentScanError("content not loaded").Build())
		return
	}
	pages := snap.Pages()
	out := make([]responses.PageSummary, 0, len(pages))
	for _, p := range pages {
		out = append(out, responses.PageSummary{URL: p.URL, Title: p.Title, Description: p.Description, File: p.File})
	}
	h.respond(w, r, out)
}

func (h *APIHandlers) respond(w http.ResponseWriter, r *http.Request, v any) {
	if err := writeJSONPretty(w, r, http.StatusOK, v); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, ferrors.WrapError(err, ferrors.CategoryInternal, "failed to write response").Build())
	}
}
