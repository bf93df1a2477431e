// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"llmaware/internal/cms"
	"llmaware/internal/errs"
	"llmaware/internal/models"
)

// maxMultipartMemory is the in-memory budget for multipart author forms.
// Larger parts spill to temporary files.
const maxMultipartMemory = 8 << 20

// Admin groups the back-office handlers. Every route behind it requires an
// authenticated admin session.
type Admin struct {
	posts    *cms.Posts
	taxonomy *cms.Taxonomy
	authors  *cms.Authors
	featured *cms.Featured
	listing  *cms.Listing
	log      *zap.Logger
}

// Services bundles the cms services the handlers depend on.
type Services struct {
	Posts    *cms.Posts
	Taxonomy *cms.Taxonomy
	Authors  *cms.Authors
	Featured *cms.Featured
	Listing  *cms.Listing
	Views    *cms.Views
}

// NewAdmin creates the admin handler group.
func NewAdmin(svc Services, log *zap.Logger) *Admin {
	return &Admin{
		posts:    svc.Posts,
		taxonomy: svc.Taxonomy,
		authors:  svc.Authors,
		featured: svc.Featured,
		listing:  svc.Listing,
		log:      log,
	}
}

// Routes mounts the admin endpoints on r.
func (a *Admin) Routes(r chi.Router) {
	r.Get("/posts", a.ListPosts)
	r.Post("/posts", a.CreatePost)
	r.Get("/posts/slug/{slug}", a.GetPostBySlug)
	r.Get("/posts/{id}", a.GetPost)
	r.Put("/posts/{id}", a.UpdatePost)
	r.Delete("/posts/{id}", a.DeletePost)

	r.Get("/categories", a.ListCategories)
	r.Post("/categories", a.CreateCategory)
	r.Delete("/categories/{id}", a.DeleteCategory)

	r.Get("/tags", a.ListTags)
	r.Post("/tags", a.CreateTag)
	r.Delete("/tags/{id}", a.DeleteTag)

	r.Get("/authors", a.ListAuthors)
	r.Post("/authors", a.CreateAuthor)
	r.Get("/authors/{id}", a.GetAuthor)
	r.Put("/authors/{id}", a.UpdateAuthor)
	r.Delete("/authors/{id}", a.DeleteAuthor)

	r.Get("/featured", a.ListFeatured)
	r.Put("/featured/{position}", a.AssignFeatured)
	r.Delete("/featured/{position}", a.UnassignFeatured)
}

// --- Posts ---

// ListPosts returns every post, drafts included, aggregated for the posts
// table. ?sort=recent|views selects the order.
func (a *Admin) ListPosts(w http.ResponseWriter, r *http.Request) {
	order, err := parseSort(r)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	items, err := a.listing.List(r.Context(), cms.ListOptions{Order: order})
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (a *Admin) CreatePost(w http.ResponseWriter, r *http.Request) {
	var in models.PostInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, a.log, err)
		return
	}
	post, err := a.posts.Create(r.Context(), in)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (a *Admin) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	post, err := a.posts.Get(r.Context(), id)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// GetPostBySlug loads a post for the edit screen, drafts included.
func (a *Admin) GetPostBySlug(w http.ResponseWriter, r *http.Request) {
	post, err := a.posts.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (a *Admin) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	var in models.PostInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, a.log, err)
		return
	}
	post, err := a.posts.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (a *Admin) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	if err := a.posts.Delete(r.Context(), id); err != nil {
		writeError(w, a.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Categories and tags ---

type nameRequest struct {
	Name string `json:"name"`
}

func (a *Admin) ListCategories(w http.ResponseWriter, r *http.Request) {
	items, err := a.taxonomy.ListCategories(r.Context())
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (a *Admin) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, a.log, err)
		return
	}
	c, err := a.taxonomy.CreateCategory(r.Context(), req.Name)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (a *Admin) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	if err := a.taxonomy.DeleteCategory(r.Context(), id); err != nil {
		writeError(w, a.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *Admin) ListTags(w http.ResponseWriter, r *http.Request) {
	items, err := a.taxonomy.ListTags(r.Context())
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (a *Admin) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, a.log, err)
		return
	}
	t, err := a.taxonomy.CreateTag(r.Context(), req.Name)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (a *Admin) DeleteTag(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	if err := a.taxonomy.DeleteTag(r.Context(), id); err != nil {
		writeError(w, a.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Authors ---

func (a *Admin) ListAuthors(w http.ResponseWriter, r *http.Request) {
	items, err := a.authors.List(r.Context())
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (a *Admin) GetAuthor(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	author, err := a.authors.Get(r.Context(), id)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, author)
}

// CreateAuthor accepts JSON, or multipart/form-data with an optional
// "profile_picture" file part.
func (a *Admin) CreateAuthor(w http.ResponseWriter, r *http.Request) {
	in, pic, cleanup, err := readAuthorRequest(w, r)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	defer cleanup()

	author, err := a.authors.Create(r.Context(), in, pic)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, author)
}

func (a *Admin) UpdateAuthor(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	in, pic, cleanup, err := readAuthorRequest(w, r)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	defer cleanup()

	author, err := a.authors.Update(r.Context(), id, in, pic)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, author)
}

func (a *Admin) DeleteAuthor(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	if err := a.authors.Delete(r.Context(), id); err != nil {
		writeError(w, a.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// readAuthorRequest decodes an author form. The returned cleanup releases
// any temporary files held by a multipart form.
func readAuthorRequest(w http.ResponseWriter, r *http.Request) (models.AuthorInput, *cms.Picture, func(), error) {
	noop := func() {}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var in models.AuthorInput
		if err := decodeJSON(w, r, &in); err != nil {
			return in, nil, noop, err
		}
		return in, nil, noop, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, cms.MaxPictureSize+maxMultipartMemory)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return models.AuthorInput{}, nil, noop, errs.Invalid("profile_picture", "file too large")
		}
		return models.AuthorInput{}, nil, noop, errs.Invalid("", "malformed multipart form")
	}
	cleanup := func() { r.MultipartForm.RemoveAll() }

	in := models.AuthorInput{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Slug:        r.FormValue("slug"),
	}

	file, header, err := r.FormFile("profile_picture")
	if errors.Is(err, http.ErrMissingFile) {
		return in, nil, cleanup, nil
	}
	if err != nil {
		cleanup()
		return in, nil, noop, errs.Invalid("profile_picture", "unreadable file")
	}

	contentType := header.Header.Get("Content-Type")
	if ct, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = ct
	}
	pic := &cms.Picture{
		Body:        file,
		Size:        header.Size,
		ContentType: strings.ToLower(contentType),
	}
	return in, pic, func() {
		file.Close()
		cleanup()
	}, nil
}

// --- Featured ---

func (a *Admin) ListFeatured(w http.ResponseWriter, r *http.Request) {
	slots, err := a.featured.List(r.Context())
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

type assignRequest struct {
	PostID uuid.UUID `json:"post_id"`
}

func (a *Admin) AssignFeatured(w http.ResponseWriter, r *http.Request) {
	position, err := parsePosition(r)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	var req assignRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, a.log, err)
		return
	}
	if err := a.featured.Assign(r.Context(), position, req.PostID); err != nil {
		writeError(w, a.log, err)
		return
	}
	a.ListFeatured(w, r)
}

func (a *Admin) UnassignFeatured(w http.ResponseWriter, r *http.Request) {
	position, err := parsePosition(r)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	if err := a.featured.Unassign(r.Context(), position); err != nil {
		writeError(w, a.log, err)
		return
	}
	a.ListFeatured(w, r)
}
