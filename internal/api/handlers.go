package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/mannaz/internal/apperr"
	"github.com/starford/mannaz/internal/contactservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *contactservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *contactservice.Service) *Handler {
	return &Handler{svc: svc}
}

// contactPath extracts the note path from the URL (everything after
// /api/contacts/). Supports encoded slashes from OpenAPI clients
// (e.g. contacts%2FJane%20Doe.md).
func contactPath(r *http.Request) string {
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

// ListContacts handles GET /api/contacts.
//
//	@Summary		List contacts with optional pagination
//	@Tags			contacts
//	@Produce		json
//	@Param			limit	query		int	false	"Page size"
//	@Param			offset	query		int	false	"Page offset"
//	@Success		200		{object}	ContactListResponse
//	@Security		BearerAuth
//	@Router			/contacts [get]
func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.ListContacts(r.Context(), limit, offset)
	if err != nil {
		slog.Error("list contacts failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"contacts": items,
		"total":    total,
	})
}

// GetContact handles GET /api/contacts/*.
//
//	@Summary		Get a single contact by note path
//	@Tags			contacts
//	@Produce		json
//	@Param			path	path		string	true	"Contact note path"
//	@Success		200		{object}	ContactDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/contacts/{path} [get]
func (h *Handler) GetContact(w http.ResponseWriter, r *http.Request) {
	path := contactPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	contact, err := h.svc.GetContact(r.Context(), path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get contact failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

// DeleteContact handles DELETE /api/contacts/*.
//
//	@Summary		Delete a contact, its note, and its card image
//	@Tags			contacts
//	@Param			path	path	string	true	"Contact note path"
//	@Success		204		"Contact deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/contacts/{path} [delete]
func (h *Handler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	path := contactPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.svc.DeleteContact(r.Context(), path); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		slog.Error("delete contact failed", slog.String("path", path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across contacts
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
	})
}

// UploadCard handles POST /api/inbox (multipart/form-data, field "file").
// The image lands in the inbox; ingestion happens asynchronously, which is
// why the response is 202 rather than 201.
//
//	@Summary		Drop a card image into the inbox
//	@Tags			inbox
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Card image (jpg, png, webp)"
//	@Success		202		{object}	InboxUploadResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/inbox [post]
func (h *Handler) UploadCard(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	target, err := h.svc.UploadImage(r.Context(), header.Filename, file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"path": target,
		"size": header.Size,
	})
}
