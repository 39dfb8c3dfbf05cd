package expirations

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/JaimeStill/warden/pkg/handlers"
	"github.com/JaimeStill/warden/pkg/routes"
	"github.com/JaimeStill/warden/pkg/storage"
)

// Handler provides HTTP endpoints for triggering runs and reading reports.
type Handler struct {
	sys         System
	logger      *slog.Logger
	maxListSize int32
	protect     []func(http.Handler) http.Handler
}

// NewHandler creates a Handler. protect wraps the run endpoint.
func NewHandler(
	sys System,
	logger *slog.Logger,
	maxListSize int32,
	protect ...func(http.Handler) http.Handler,
) *Handler {
	return &Handler{
		sys:         sys,
		logger:      logger.With("handler", "expirations"),
		maxListSize: maxListSize,
		protect:     protect,
	}
}

// Routes returns the route group definition for expiration endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/expirations",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/run", Handler: h.Run, Middleware: h.protect},
			{Method: "GET", Pattern: "/reports", Handler: h.ListReports},
			{Method: "GET", Pattern: "/reports/{key...}", Handler: h.DownloadReport},
		},
	}
}

// Run executes a reconciliation pass and responds with the envelope body
// and status. The optional dry_run query parameter overrides configuration.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	var opts RunOptions
	if v := r.URL.Query().Get("dry_run"); v != "" {
		dry, err := strconv.ParseBool(v)
		if err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("invalid dry_run: %q", v))
			return
		}
		opts.DryRun = &dry
	}

	// A run outlives the server write timeout; its own deadline bounds it.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("write deadline not cleared", "error", err)
	}

	env := NewEnvelope(h.sys.Run(r.Context(), opts))
	handlers.RespondJSON(w, env.StatusCode, env.Body)
}

// ListReports returns one page of archived run reports in key order, which
// is chronological.
// The optional prefix narrows the listing within the report prefix,
// for example prefix=2026/10.
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	archive := h.sys.Archive()
	if archive == nil {
		handlers.RespondError(w, h.logger, http.StatusServiceUnavailable, storage.ErrDisabled)
		return
	}

	maxResults, err := storage.ParseMaxResults(r.URL.Query().Get("max_results"), h.maxListSize)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	prefix := h.sys.ReportPrefix() + "/"
	if p := strings.Trim(r.URL.Query().Get("prefix"), "/"); p != "" {
		prefix += p
	}

	result, err := archive.List(r.Context(), prefix, r.URL.Query().Get("marker"), maxResults)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// DownloadReport streams one archived report by its full key.
func (h *Handler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	archive := h.sys.Archive()
	if archive == nil {
		handlers.RespondError(w, h.logger, http.StatusServiceUnavailable, storage.ErrDisabled)
		return
	}

	key := r.PathValue("key")
	if !strings.HasPrefix(key, h.sys.ReportPrefix()+"/") {
		handlers.RespondError(w, h.logger, http.StatusNotFound, storage.ErrNotFound)
		return
	}

	result, err := archive.Download(r.Context(), key)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	defer result.Body.Close()

	w.Header().Set("Content-Type", result.ContentType)
	if result.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(result.ContentLength, 10))
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", path.Base(key)))
	w.WriteHeader(http.StatusOK)
	io.Copy(w, result.Body)
}
