package coupons

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/warden/pkg/handlers"
	"github.com/JaimeStill/warden/pkg/pagination"
	"github.com/JaimeStill/warden/pkg/routes"
)

// Handler provides HTTP endpoints for coupon operations.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "coupons"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for coupon endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/coupons",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "PUT", Pattern: "/{id}/vote", Handler: h.Vote},
		},
	}
}

// List returns a paginated list of coupons, newest first, with optional
// status and code filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns a single coupon by its id path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	c, err := h.sys.Find(r.Context(), r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, c)
}

// Vote records, withdraws, or switches a vote. The coupon id comes from the
// path; the body carries voteType, previousVote, and userHash.
func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	var cmd VoteCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidVote)
		return
	}
	cmd.CouponID = r.PathValue("id")

	c, err := h.sys.Vote(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, c)
}
