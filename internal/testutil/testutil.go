// Package testutil provides shared test helpers for setting up content
// trees and databases.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/eduhub/internal/index"
	"github.com/starford/eduhub/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "eduhub-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestContent creates a temporary ".../src/content" directory with the three
// category folders and a storage.Provider rooted at it.
func TestContent(t *testing.T) (string, storage.Provider) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "src", "content")
	for _, dir := range []string{"tools", "videos", "lessons"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	return store.Root(), store
}

// TestOutput creates a temporary output directory provider.
func TestOutput(t *testing.T) storage.Provider {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return store
}

// WriteContent writes a content file below root, creating directories.
func WriteContent(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// Item returns frontmatter-only Markdown for a content file.
func Item(title, description string, tags ...string) string {
	s := "---\ntitle: " + title + "\ndescription: " + description + "\n"
	if len(tags) > 0 {
		s += "tags:\n"
		for _, tag := range tags {
			s += "  - " + tag + "\n"
		}
	}
	return s + "---\n# " + title + "\n"
}
