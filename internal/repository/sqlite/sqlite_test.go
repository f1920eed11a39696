package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sakif/ideahub/internal/model"
	"github.com/sakif/ideahub/internal/repository"
)

// newTestDB creates a throwaway file-backed database under t.TempDir().
// File-backed rather than ":memory:" because each pool connection gets its
// own in-memory database, which breaks any test that exercises more than
// one connection (the concurrency tests do).
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser inserts a profile row; the ID doubles as the username.
func createTestUser(t *testing.T, db *DB, id string) *model.User {
	t.Helper()
	user := &model.User{
		ID:       id,
		Username: id,
		Email:    id + "@example.com",
		FullName: "Test User",
	}
	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user %s: %v", id, err)
	}
	return user
}

func createTestIdea(t *testing.T, db *DB, authorID, title string) *model.Idea {
	t.Helper()
	idea, err := db.Ideas().Create(context.Background(), repository.NewIdea{
		Title:      title,
		AuthorID:   authorID,
		Tags:       []string{},
		License:    "MIT",
		Visibility: model.VisibilityPublic,
		Status:     model.StatusPublished,
	})
	if err != nil {
		t.Fatalf("failed to create test idea %q: %v", title, err)
	}
	return idea
}
