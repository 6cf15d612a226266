package api

import (
	"github.com/starford/eduhub/internal/contentservice"
	"github.com/starford/eduhub/internal/index"
	"github.com/starford/eduhub/internal/models"
)

// ItemDetail is the full item response type (aliased from the domain layer).
type ItemDetail = contentservice.ItemDetail

// ItemListResponse wraps item listings.
type ItemListResponse struct {
	Items []models.ContentItem `json:"items" validate:"required"`
	Total int                  `json:"total" example:"42" validate:"required"`
}

// TagListResponse wraps the sorted distinct tags.
type TagListResponse struct {
	Tags []string `json:"tags" example:"ai,python" validate:"required"`
}

// TagCountResponse wraps per-tag counts, most used first.
type TagCountResponse struct {
	Tags []models.TagCount `json:"tags" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult = index.SearchResult

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// YouTubeResponse is the resolved video for a URL. ID is empty when the URL
// is not a recognisable YouTube link.
type YouTubeResponse struct {
	URL      string `json:"url" example:"https://youtu.be/dQw4w9WgXcQ"`
	ID       string `json:"id" example:"dQw4w9WgXcQ"`
	EmbedURL string `json:"embed_url,omitempty" example:"https://www.youtube.com/embed/dQw4w9WgXcQ"`
}
