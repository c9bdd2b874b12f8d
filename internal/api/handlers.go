package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/narrate/internal/narrator"
)

// Handler holds API route handlers.
type Handler struct {
	svc *narrator.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *narrator.Service) *Handler {
	return &Handler{svc: svc}
}

// postPath extracts the site-relative post path from the wildcard segment.
// Supports encoded slashes (e.g. _posts%2F2024-01-01-a.md).
func postPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListNarrations handles GET /api/narrations.
//
//	@Summary		List generated narrations, newest first
//	@Tags			narrations
//	@Produce		json
//	@Param			limit	query		int	false	"Page size"
//	@Param			offset	query		int	false	"Page offset"
//	@Success		200		{object}	NarrationListResponse
//	@Security		BearerAuth
//	@Router			/narrations [get]
func (h *Handler) ListNarrations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.List(r.Context(), limit, offset)
	if err != nil {
		slog.Error("list narrations failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, NarrationListResponse{Narrations: items, Total: total})
}

// PreviewPost handles GET /api/preview/*.
//
//	@Summary		Show the narration text of a post
//	@Tags			posts
//	@Produce		json
//	@Param			path	path		string	true	"Post path relative to the site root"
//	@Success		200		{object}	PreviewResponse
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/preview/{path} [get]
func (h *Handler) PreviewPost(w http.ResponseWriter, r *http.Request) {
	path := postPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	p, err := h.svc.Preview(r.Context(), path)
	if err != nil {
		writeError(w, "preview", path, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// NarratePost handles POST /api/narrate/*. The body is optional.
//
//	@Summary		Generate the narration of a post
//	@Tags			posts
//	@Accept			json
//	@Produce		json
//	@Param			path	path		string			true	"Post path relative to the site root"
//	@Param			body	body		NarrateRequest	false	"Overrides"
//	@Success		200		{object}	NarrateResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/narrate/{path} [post]
func (h *Handler) NarratePost(w http.ResponseWriter, r *http.Request) {
	path := postPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req NarrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON"))
		return
	}
	opts := req.apply(h.svc.Defaults())
	if err := opts.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	res, err := h.svc.Narrate(r.Context(), path, opts)
	if err != nil {
		writeError(w, "narrate", path, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
