// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"llmaware/internal/database"
	"llmaware/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "llmaware")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "llmaware")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", testDSN())
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	if err := database.Migrate(context.Background(), db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// uniqueName returns a name unlikely to clash with other test runs.
func uniqueName(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

// fixture holds a category, author and tag created for a test. Everything
// is removed again in t.Cleanup.
type fixture struct {
	category *models.Category
	author   *models.Author
	tags     []models.Tag
}

func newFixture(t *testing.T, db *sql.DB, tagCount int) *fixture {
	t.Helper()
	ctx := context.Background()

	cat, err := NewCategoryStore(db).Create(ctx, uniqueName("cat"))
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	author, err := NewAuthorStore(db).Create(ctx, &models.Author{
		Name: "Fixture Author",
		Slug: "fixture-" + letters(8),
	})
	if err != nil {
		t.Fatalf("create author: %v", err)
	}
	f := &fixture{category: cat, author: author}
	for i := 0; i < tagCount; i++ {
		tag, err := NewTagStore(db).Create(ctx, uniqueName("tag"))
		if err != nil {
			t.Fatalf("create tag: %v", err)
		}
		f.tags = append(f.tags, *tag)
	}

	t.Cleanup(func() {
		db.Exec("DELETE FROM posts WHERE category_id = $1 OR author_id = $2", cat.ID, author.ID)
		db.Exec("DELETE FROM categories WHERE id = $1", cat.ID)
		db.Exec("DELETE FROM authors WHERE id = $1", author.ID)
		for _, tag := range f.tags {
			db.Exec("DELETE FROM tags WHERE id = $1", tag.ID)
		}
	})
	return f
}

// letters returns n random lowercase letters, usable in author slugs.
func letters(n int) string {
	id := uuid.New()
	out := make([]byte, n)
	for i := range out {
		out[i] = 'a' + id[i%len(id)]%26
	}
	return string(out)
}

// cleanUsers removes test users by email. Call in t.Cleanup().
func cleanUsers(t *testing.T, db *sql.DB, emails ...string) {
	t.Helper()
	for _, email := range emails {
		db.Exec("DELETE FROM users WHERE email = $1", email)
	}
}
