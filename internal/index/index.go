package index

import "github.com/starford/eduhub/internal/models"

// ContentIndex defines the indexing operations the services depend on.
type ContentIndex interface {
	UpsertItem(it models.ContentItem, body string) error
	DeleteItem(path string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	GetItem(id string) (*models.ContentItem, error)
	ListItems(q ListQuery) ([]models.ContentItem, int, error)
	TagGroups(category models.Category) ([]models.TagCount, error)
	Search(query string, limit int) ([]SearchResult, error)
	Close() error
}

// Verify *DB satisfies ContentIndex at compile time.
var _ ContentIndex = (*DB)(nil)
