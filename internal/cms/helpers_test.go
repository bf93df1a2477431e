package cms_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"llmaware/internal/cms"
	"llmaware/internal/cms/cmstest"
	"llmaware/internal/models"
)

// fakeClock is a settable clock for deterministic timestamps.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type env struct {
	db      *cmstest.DB
	storage *cmstest.Storage
	cache   *cmstest.Cache
	clock   *fakeClock

	posts    *cms.Posts
	taxonomy *cms.Taxonomy
	authors  *cms.Authors
	featured *cms.Featured
	views    *cms.Views
	listing  *cms.Listing
}

// newEnv wires every service against fresh in-memory fakes.
func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		db:      cmstest.NewDB(),
		storage: cmstest.NewStorage(),
		cache:   cmstest.NewCache(),
		clock:   &fakeClock{now: time.Date(2026, 3, 4, 15, 5, 9, 0, time.UTC)},
	}
	e.build(cms.Options{Storage: e.storage, Cache: e.cache, Clock: e.clock.Now, Fanout: 2})
	return e
}

func (e *env) build(opts cms.Options) {
	repos := e.db.Repositories()
	e.posts = cms.NewPosts(repos, opts)
	e.taxonomy = cms.NewTaxonomy(repos, opts)
	e.authors = cms.NewAuthors(repos, opts)
	e.listing = cms.NewListing(repos, opts)
	e.featured = cms.NewFeatured(repos, opts, e.listing)
	e.views = cms.NewViews(repos, opts)
}

func (e *env) category(t *testing.T, name string) *models.Category {
	t.Helper()
	c, err := e.taxonomy.CreateCategory(context.Background(), name)
	if err != nil {
		t.Fatalf("CreateCategory(%q): %v", name, err)
	}
	return c
}

func (e *env) tag(t *testing.T, name string) *models.Tag {
	t.Helper()
	tag, err := e.taxonomy.CreateTag(context.Background(), name)
	if err != nil {
		t.Fatalf("CreateTag(%q): %v", name, err)
	}
	return tag
}

func (e *env) author(t *testing.T, slug string) *models.Author {
	t.Helper()
	a, err := e.authors.Create(context.Background(), models.AuthorInput{Name: "Author " + slug, Slug: slug}, nil)
	if err != nil {
		t.Fatalf("Create author %q: %v", slug, err)
	}
	return a
}

// post creates a published post in a fresh category and author unless
// the input already names them.
func (e *env) post(t *testing.T, in models.PostInput) *models.PostDetail {
	t.Helper()
	if in.CategoryID == uuid.Nil {
		in.CategoryID = e.category(t, "cat-"+uuid.NewString()[:8]).ID
	}
	if in.AuthorID == uuid.Nil {
		in.AuthorID = e.author(t, "author-"+lettersOnly(uuid.NewString()[:8])).ID
	}
	p, err := e.posts.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create post %q: %v", in.Title, err)
	}
	return p
}

func lettersOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		} else {
			b.WriteRune('x')
		}
	}
	return b.String()
}

func picture(contentType string, size int) *cms.Picture {
	return &cms.Picture{
		Body:        strings.NewReader(strings.Repeat("x", size)),
		Size:        int64(size),
		ContentType: contentType,
	}
}
