package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"llmaware/internal/cms"
)

// Public serves the read-only blog API. Only published posts are visible.
type Public struct {
	listing  *cms.Listing
	featured *cms.Featured
	authors  *cms.Authors
	views    *cms.Views
	log      *zap.Logger
}

// NewPublic creates the public handler group.
func NewPublic(svc Services, log *zap.Logger) *Public {
	return &Public{
		listing:  svc.Listing,
		featured: svc.Featured,
		authors:  svc.Authors,
		views:    svc.Views,
		log:      log,
	}
}

// Routes mounts the public endpoints on r.
func (p *Public) Routes(r chi.Router) {
	r.Get("/posts", p.ListPosts)
	r.Get("/posts/{slug}", p.GetPost)
	r.Post("/posts/{slug}/views", p.RecordView)
	r.Get("/featured", p.Featured)
	r.Get("/authors/{slug}", p.GetAuthor)
}

// ListPosts returns published posts. ?sort=recent|views selects the order.
func (p *Public) ListPosts(w http.ResponseWriter, r *http.Request) {
	order, err := parseSort(r)
	if err != nil {
		writeError(w, p.log, err)
		return
	}
	items, err := p.listing.List(r.Context(), cms.ListOptions{Order: order, PublishedOnly: true})
	if err != nil {
		writeError(w, p.log, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// GetPost returns a published post with its category and tag names.
func (p *Public) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := p.listing.Get(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, p.log, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// RecordView appends one view of a published post.
func (p *Public) RecordView(w http.ResponseWriter, r *http.Request) {
	if err := p.views.RecordBySlug(r.Context(), chi.URLParam(r, "slug")); err != nil {
		writeError(w, p.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Featured returns the three homepage slots; empty slots carry a null post.
func (p *Public) Featured(w http.ResponseWriter, r *http.Request) {
	items, err := p.featured.Posts(r.Context())
	if err != nil {
		writeError(w, p.log, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// GetAuthor returns an author page by slug.
func (p *Public) GetAuthor(w http.ResponseWriter, r *http.Request) {
	author, err := p.authors.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, p.log, err)
		return
	}
	writeJSON(w, http.StatusOK, author)
}
