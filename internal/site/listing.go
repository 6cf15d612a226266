package site

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/starford/eduhub/internal/contentservice"
	"github.com/starford/eduhub/internal/filter"
	"github.com/starford/eduhub/internal/models"
	"github.com/starford/eduhub/internal/render"
)

// ListingHandler serves a category listing filtered by the q and tag query
// parameters.
func ListingHandler(r *render.Renderer, svc *contentservice.Service, cat models.Category) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		state := filter.StateFromQuery(req.URL.Query())
		ctx := req.Context()

		items, err := svc.List(ctx, contentservice.Query{
			Category: cat,
			Search:   state.SearchTerm,
			Tags:     state.SelectedTags,
		})
		if err != nil {
			listingError(w, cat, err)
			return
		}
		allTags, err := svc.Tags(ctx, cat)
		if err != nil {
			listingError(w, cat, err)
			return
		}

		var buf bytes.Buffer
		if err := r.RenderListing(&buf, cat, items, allTags, state); err != nil {
			listingError(w, cat, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	})
}

func listingError(w http.ResponseWriter, cat models.Category, err error) {
	slog.Error("listing failed", slog.String("category", string(cat)), slog.String("error", err.Error()))
	http.Error(w, "internal error", http.StatusInternalServerError)
}
