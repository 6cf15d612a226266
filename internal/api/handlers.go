package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/eduhub/internal/contentservice"
	"github.com/starford/eduhub/internal/filter"
	"github.com/starford/eduhub/internal/links"
)

// Handler holds API route handlers.
type Handler struct {
	svc *contentservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *contentservice.Service) *Handler {
	return &Handler{svc: svc}
}

// ListItems handles GET /api/items.
//
//	@Summary		List content items, newest first
//	@Tags			items
//	@Produce		json
//	@Param			category	query		string	false	"Category"	Enums(tools, videos, lessons)
//	@Param			q			query		string	false	"Search term (title or description)"
//	@Param			tag			query		[]string	false	"Selected tags (any match)"
//	@Success		200			{object}	ItemListResponse
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/items [get]
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	cat, err := contentservice.ParseCategory(r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, "list items", err)
		return
	}
	state := filter.StateFromQuery(r.URL.Query())
	items, err := h.svc.List(r.Context(), contentservice.Query{
		Category: cat,
		Search:   state.SearchTerm,
		Tags:     state.SelectedTags,
	})
	if err != nil {
		writeError(w, "list items", err)
		return
	}
	writeJSON(w, http.StatusOK, ItemListResponse{Items: items, Total: len(items)})
}

// GetItem handles GET /api/items/{id}.
//
//	@Summary		Get one content item with rendered HTML
//	@Tags			items
//	@Produce		json
//	@Param			id	path		string	true	"Item id"
//	@Success		200	{object}	ItemDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/items/{id} [get]
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	it, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get item", err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// ListTags handles GET /api/tags.
//
//	@Summary		List distinct tags, sorted
//	@Tags			tags
//	@Produce		json
//	@Param			category	query		string	false	"Category"	Enums(tools, videos, lessons)
//	@Success		200			{object}	TagListResponse
//	@Security		BearerAuth
//	@Router			/tags [get]
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	cat, err := contentservice.ParseCategory(r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, "list tags", err)
		return
	}
	tags, err := h.svc.Tags(r.Context(), cat)
	if err != nil {
		writeError(w, "list tags", err)
		return
	}
	writeJSON(w, http.StatusOK, TagListResponse{Tags: tags})
}

// TagCounts handles GET /api/tags/counts.
//
//	@Summary		Count items per tag, most used first
//	@Tags			tags
//	@Produce		json
//	@Param			category	query		string	false	"Category"	Enums(tools, videos, lessons)
//	@Success		200			{object}	TagCountResponse
//	@Security		BearerAuth
//	@Router			/tags/counts [get]
func (h *Handler) TagCounts(w http.ResponseWriter, r *http.Request) {
	cat, err := contentservice.ParseCategory(r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, "tag counts", err)
		return
	}
	counts, err := h.svc.TagCounts(r.Context(), cat)
	if err != nil {
		writeError(w, "tag counts", err)
		return
	}
	writeJSON(w, http.StatusOK, TagCountResponse{Tags: counts})
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search
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
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// YouTubeID handles GET /api/youtube.
//
//	@Summary		Resolve the video id of a YouTube URL
//	@Tags			media
//	@Produce		json
//	@Param			url	query		string	true	"YouTube URL"
//	@Success		200	{object}	YouTubeResponse
//	@Security		BearerAuth
//	@Router			/youtube [get]
func (h *Handler) YouTubeID(w http.ResponseWriter, r *http.Request) {
	u := r.URL.Query().Get("url")
	id := links.YouTubeID(u)
	writeJSON(w, http.StatusOK, YouTubeResponse{URL: u, ID: id, EmbedURL: links.EmbedURL(id)})
}
