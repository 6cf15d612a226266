package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/eduhub/internal/apperr"
	"github.com/starford/eduhub/internal/models"
)

// dateLayout keeps stored dates lexically sortable. Dates are stored in UTC
// with the original offset kept in date_offset.
const dateLayout = "2006-01-02T15:04:05Z"

// ListQuery selects a page of items. Zero values mean "any".
type ListQuery struct {
	Category models.Category
	Tag      string
	Limit    int
	Offset   int
}

// SearchResult represents one search hit.
type SearchResult struct {
	ID       string          `json:"id"`
	Path     string          `json:"path"`
	Slug     string          `json:"slug"`
	Category models.Category `json:"category"`
	Title    string          `json:"title"`
	Snippet  string          `json:"snippet"`
}

// formatDate returns the sort key and the zone offset in seconds east of UTC.
func formatDate(t time.Time) (string, int) {
	if t.IsZero() {
		return "", 0
	}
	_, offset := t.Zone()
	return t.UTC().Format(dateLayout), offset
}

// parseDate restores a stored date in its original offset, so the calendar
// day matches the source frontmatter.
func parseDate(s string, offset int) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}
	}
	if offset == 0 {
		return t
	}
	return t.In(time.FixedZone("", offset))
}

// UpsertItem inserts or replaces an item with its tags and FTS entry in one
// transaction. body is the Markdown source used for search.
func (db *DB) UpsertItem(it models.ContentItem, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tags := it.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, _ := json.Marshal(tags)
	date, offset := formatDate(it.Date)

	// A path keeps its id, but clear any row that held the path under an
	// older id first.
	if _, err := tx.Exec(`DELETE FROM item_tags WHERE item_id IN (SELECT id FROM items WHERE path = ? AND id <> ?)`, it.SourcePath, it.ID); err != nil {
		return fmt.Errorf("index: clear old tags: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM items WHERE path = ? AND id <> ?`, it.SourcePath, it.ID); err != nil {
		return fmt.Errorf("index: clear old item: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO items (id, path, slug, category, title, description, tags, date, date_offset,
		                   github, youtube_link, slide_link, video_id, checksum, body, html, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			path         = excluded.path,
			slug         = excluded.slug,
			category     = excluded.category,
			title        = excluded.title,
			description  = excluded.description,
			tags         = excluded.tags,
			date         = excluded.date,
			date_offset  = excluded.date_offset,
			github       = excluded.github,
			youtube_link = excluded.youtube_link,
			slide_link   = excluded.slide_link,
			video_id     = excluded.video_id,
			checksum     = excluded.checksum,
			body         = excluded.body,
			html         = excluded.html,
			updated_at   = excluded.updated_at
	`, it.ID, it.SourcePath, it.Slug, string(it.Category), it.Title, it.Description, string(tagsJSON),
		date, offset, it.GitHub, it.YouTubeLink, it.SlideLink, it.VideoID, it.Checksum, body, it.HTML,
		time.Now().UTC())
	if err != nil {
		return fmt.Errorf("index: upsert item: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM item_tags WHERE item_id = ?`, it.ID); err != nil {
		return fmt.Errorf("index: clear tags: %w", err)
	}
	if len(it.Tags) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO item_tags (item_id, tag) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare tag insert: %w", err)
		}
		defer stmt.Close()
		for _, tag := range it.Tags {
			if _, err := stmt.Exec(it.ID, tag); err != nil {
				return fmt.Errorf("index: insert tag: %w", err)
			}
		}
	}

	if err := ftsUpsert(tx, it, body); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteItem removes the item stored for a source path, its tags and its
// FTS entry.
func (db *DB) DeleteItem(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM item_tags WHERE item_id IN (SELECT id FROM items WHERE path = ?)`, path)
	if _, err := tx.Exec(`DELETE FROM items WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete item: %w", err)
	}
	return tx.Commit()
}

// GetChecksum returns the stored checksum for a path, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM items WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns path → checksum for every indexed item.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM items`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

const itemColumns = `id, path, slug, category, title, description, tags, date, date_offset,
	github, youtube_link, slide_link, video_id, checksum, html`

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (models.ContentItem, error) {
	var (
		it       models.ContentItem
		cat      string
		tagsJSON string
		date     string
		offset   int
	)
	err := s.Scan(&it.ID, &it.SourcePath, &it.Slug, &cat, &it.Title, &it.Description, &tagsJSON, &date, &offset,
		&it.GitHub, &it.YouTubeLink, &it.SlideLink, &it.VideoID, &it.Checksum, &it.HTML)
	if err != nil {
		return it, err
	}
	it.Category = models.Category(cat)
	it.Date = parseDate(date, offset)
	if err := json.Unmarshal([]byte(tagsJSON), &it.Tags); err != nil || it.Tags == nil {
		it.Tags = []string{}
	}
	return it, nil
}

// GetItem returns one item by id, or apperr.ErrNotFound.
func (db *DB) GetItem(id string) (*models.ContentItem, error) {
	row := db.conn.QueryRow(`SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get item: %w", err)
	}
	return &it, nil
}

// ListItems returns a page of items, newest first, and the total count of
// matching items. Undated items sort last; slug breaks ties.
func (db *DB) ListItems(q ListQuery) ([]models.ContentItem, int, error) {
	var (
		where []string
		args  []any
	)
	if q.Category != "" {
		where = append(where, "category = ?")
		args = append(args, string(q.Category))
	}
	if q.Tag != "" {
		where = append(where, "EXISTS (SELECT 1 FROM item_tags t WHERE t.item_id = items.id AND t.tag = ?)")
		args = append(args, q.Tag)
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM items`+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count items: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = -1
	}
	query := `SELECT ` + itemColumns + ` FROM items` + cond +
		` ORDER BY (date = '') ASC, date DESC, slug ASC LIMIT ? OFFSET ?`
	rows, err := db.conn.Query(query, append(args, limit, max(q.Offset, 0))...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list items: %w", err)
	}
	defer rows.Close()

	out := []models.ContentItem{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("index: scan item: %w", err)
		}
		out = append(out, it)
	}
	return out, total, rows.Err()
}

// TagGroups counts distinct items per tag, optionally within one category,
// ordered by tag.
func (db *DB) TagGroups(category models.Category) ([]models.TagCount, error) {
	rows, err := db.conn.Query(`
		SELECT t.tag, COUNT(DISTINCT t.item_id)
		FROM item_tags t
		JOIN items i ON i.id = t.item_id
		WHERE ? = '' OR i.category = ?
		GROUP BY t.tag
		ORDER BY t.tag
	`, string(category), string(category))
	if err != nil {
		return nil, fmt.Errorf("index: tag groups: %w", err)
	}
	defer rows.Close()

	out := []models.TagCount{}
	for rows.Next() {
		var tc models.TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}
