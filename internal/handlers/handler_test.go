// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure. Handlers run against
// the in-memory cms fakes, so no database or Valkey is needed.
package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"llmaware/internal/cms"
	"llmaware/internal/cms/cmstest"
)

// testEnv holds the fakes and a router with the admin and public groups.
type testEnv struct {
	db      *cmstest.DB
	storage *cmstest.Storage
	svc     Services
	router  chi.Router
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := cmstest.NewDB()
	storage := cmstest.NewStorage()
	return buildEnv(db, cms.Options{Storage: storage, Cache: cmstest.NewCache()}, storage)
}

func buildEnv(db *cmstest.DB, opts cms.Options, storage *cmstest.Storage) *testEnv {
	repos := db.Repositories()
	listing := cms.NewListing(repos, opts)
	svc := Services{
		Posts:    cms.NewPosts(repos, opts),
		Taxonomy: cms.NewTaxonomy(repos, opts),
		Authors:  cms.NewAuthors(repos, opts),
		Featured: cms.NewFeatured(repos, opts, listing),
		Listing:  listing,
		Views:    cms.NewViews(repos, opts),
	}

	r := chi.NewRouter()
	r.Route("/api/admin", NewAdmin(svc, zap.NewNop()).Routes)
	r.Route("/api", NewPublic(svc, zap.NewNop()).Routes)

	return &testEnv{db: db, storage: storage, svc: svc, router: r}
}

// do sends a request with an optional JSON body.
func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// decode unmarshals the response body into v.
func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
}

// expect fails the test when the status differs.
func expect(t *testing.T, rr *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("status = %d, want %d; body: %s", rr.Code, status, rr.Body.String())
	}
}

func errorOf(t *testing.T, rr *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var e errorResponse
	decode(t, rr, &e)
	return e
}

// seedPost creates a category, an author and a post through the API.
func (e *testEnv) seedPost(t *testing.T, title string, published bool) map[string]any {
	t.Helper()
	cat := e.do(t, http.MethodPost, "/api/admin/categories", map[string]string{"name": "cat " + title})
	expect(t, cat, http.StatusCreated)
	var c struct{ ID string }
	decode(t, cat, &c)

	author := e.do(t, http.MethodPost, "/api/admin/authors", map[string]string{
		"name": "Author", "slug": "author-" + lettersOf(title),
	})
	expect(t, author, http.StatusCreated)
	var a struct{ ID string }
	decode(t, author, &a)

	rr := e.do(t, http.MethodPost, "/api/admin/posts", map[string]any{
		"title": title, "category_id": c.ID, "author_id": a.ID, "published": published,
		"html": "<p>" + title + "</p>",
	})
	expect(t, rr, http.StatusCreated)
	var post map[string]any
	decode(t, rr, &post)
	return post
}

func lettersOf(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i] | 0x20
		if c >= 'a' && c <= 'z' {
			out = append(out, c)
		}
	}
	return string(out)
}
