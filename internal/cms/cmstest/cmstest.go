// Package cmstest provides in-memory implementations of the cms repository,
// storage and cache interfaces. They enforce the same constraints as the
// PostgreSQL schema (unique slugs and names, restricted deletes, cascading
// tag links) so service behaviour can be tested without a database.
package cmstest

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"llmaware/internal/cms"
	"llmaware/internal/errs"
	"llmaware/internal/models"
)

var (
	_ cms.PostRepository     = (*PostRepo)(nil)
	_ cms.CategoryRepository = (*CategoryRepo)(nil)
	_ cms.TagRepository      = (*TagRepo)(nil)
	_ cms.AuthorRepository   = (*AuthorRepo)(nil)
	_ cms.FeaturedRepository = (*FeaturedRepo)(nil)
	_ cms.ViewRepository     = (*ViewRepo)(nil)
	_ cms.ObjectStorage      = (*Storage)(nil)
	_ cms.ListingCache       = (*Cache)(nil)
)

// DB is the shared in-memory state behind the fake repositories.
type DB struct {
	mu         sync.Mutex
	posts      map[uuid.UUID]models.Post
	postTags   map[uuid.UUID][]uuid.UUID
	categories map[uuid.UUID]models.Category
	tags       map[uuid.UUID]models.Tag
	authors    map[uuid.UUID]models.Author
	featured   map[int]uuid.UUID
	views      []models.PostView

	// Injected failures. A non-nil value is returned by the named call.
	CategoryLookupErr error
	TagNamesErr       error
	ViewCountErr      error
	AuthorCreateErr   error
	AuthorUpdateErr   error
}

// NewDB returns an empty in-memory database.
func NewDB() *DB {
	return &DB{
		posts:      make(map[uuid.UUID]models.Post),
		postTags:   make(map[uuid.UUID][]uuid.UUID),
		categories: make(map[uuid.UUID]models.Category),
		tags:       make(map[uuid.UUID]models.Tag),
		authors:    make(map[uuid.UUID]models.Author),
		featured:   make(map[int]uuid.UUID),
	}
}

// Repositories returns every fake repository bundled for cms constructors.
func (db *DB) Repositories() cms.Repositories {
	return cms.Repositories{
		Posts:      db.Posts(),
		Categories: db.Categories(),
		Tags:       db.Tags(),
		Authors:    db.Authors(),
		Featured:   db.Featured(),
		Views:      db.Views(),
	}
}

// Posts returns the post repository.
func (db *DB) Posts() *PostRepo { return &PostRepo{db} }

// Categories returns the category repository.
func (db *DB) Categories() *CategoryRepo { return &CategoryRepo{db} }

// Tags returns the tag repository.
func (db *DB) Tags() *TagRepo { return &TagRepo{db} }

// Authors returns the author repository.
func (db *DB) Authors() *AuthorRepo { return &AuthorRepo{db} }

// Featured returns the featured slot repository.
func (db *DB) Featured() *FeaturedRepo { return &FeaturedRepo{db} }

// Views returns the view repository.
func (db *DB) Views() *ViewRepo { return &ViewRepo{db} }

// PostTagRows returns the tag ids linked to postID, sorted.
func (db *DB) PostTagRows(postID uuid.UUID) []uuid.UUID {
	db.mu.Lock()
	defer db.mu.Unlock()
	return sortedCopy(db.postTags[postID])
}

// ViewRows returns the number of recorded views for postID.
func (db *DB) ViewRows(postID uuid.UUID) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	n := 0
	for _, v := range db.views {
		if v.PostID == postID {
			n++
		}
	}
	return n
}

// AuthorCount returns the number of stored authors.
func (db *DB) AuthorCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.authors)
}

// PutPost inserts p directly, bypassing validation. Used to seed
// situations the services would refuse to create.
func (db *DB) PutPost(p models.Post, tagIDs ...uuid.UUID) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	db.posts[p.ID] = p
	db.postTags[p.ID] = append([]uuid.UUID(nil), tagIDs...)
}

func sortedCopy(ids []uuid.UUID) []uuid.UUID {
	out := append([]uuid.UUID{}, ids...)
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// PostRepo implements cms.PostRepository.
type PostRepo struct{ db *DB }

func (r *PostRepo) checkRefs(p *models.Post, tagIDs []uuid.UUID) error {
	if _, ok := r.db.categories[p.CategoryID]; !ok {
		return errs.ErrInvalidReference
	}
	if _, ok := r.db.authors[p.AuthorID]; !ok {
		return errs.ErrInvalidReference
	}
	for _, id := range tagIDs {
		if _, ok := r.db.tags[id]; !ok {
			return errs.ErrInvalidReference
		}
	}
	for id, other := range r.db.posts {
		if other.Slug == p.Slug && id != p.ID {
			return errs.Conflict("post slug")
		}
	}
	return nil
}

func (r *PostRepo) Create(_ context.Context, p *models.Post, tagIDs []uuid.UUID) (*models.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	created := *p
	created.ID = uuid.New()
	if err := r.checkRefs(&created, tagIDs); err != nil {
		return nil, err
	}
	r.db.posts[created.ID] = created
	r.db.postTags[created.ID] = append([]uuid.UUID(nil), tagIDs...)
	return &created, nil
}

func (r *PostRepo) Update(_ context.Context, p *models.Post, tagIDs []uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.posts[p.ID]; !ok {
		return errs.NotFound("post")
	}
	if err := r.checkRefs(p, tagIDs); err != nil {
		return err
	}
	r.db.posts[p.ID] = *p
	r.db.postTags[p.ID] = append([]uuid.UUID(nil), tagIDs...)
	return nil
}

func (r *PostRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.posts[id]; !ok {
		return errs.NotFound("post")
	}
	delete(r.db.posts, id)
	delete(r.db.postTags, id)
	for pos, pid := range r.db.featured {
		if pid == id {
			delete(r.db.featured, pos)
		}
	}
	return nil
}

func (r *PostRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.posts[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *PostRepo) FindBySlug(_ context.Context, slug string) (*models.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, p := range r.db.posts {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, nil
}

// List returns posts newest first, ties broken by id like the SQL store.
func (r *PostRepo) List(_ context.Context, publishedOnly bool) ([]models.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Post
	for _, p := range r.db.posts {
		if publishedOnly && !p.Published {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r *PostRepo) TagIDs(_ context.Context, postID uuid.UUID) ([]uuid.UUID, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return sortedCopy(r.db.postTags[postID]), nil
}

func (r *PostRepo) TagNamesByPosts(_ context.Context, postIDs []uuid.UUID) (map[uuid.UUID][]string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.TagNamesErr != nil {
		return nil, r.db.TagNamesErr
	}
	out := make(map[uuid.UUID][]string)
	for _, pid := range postIDs {
		for _, tid := range r.db.postTags[pid] {
			if t, ok := r.db.tags[tid]; ok {
				out[pid] = append(out[pid], t.Name)
			}
		}
	}
	return out, nil
}

// CategoryRepo implements cms.CategoryRepository.
type CategoryRepo struct{ db *DB }

func (r *CategoryRepo) List(_ context.Context) ([]models.Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Category
	for _, c := range r.db.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out, nil
}

func (r *CategoryRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.categories[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *CategoryRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.CategoryLookupErr != nil {
		return nil, r.db.CategoryLookupErr
	}
	var out []models.Category
	for _, id := range ids {
		if c, ok := r.db.categories[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *CategoryRepo) Create(_ context.Context, name string) (*models.Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, c := range r.db.categories {
		if strings.EqualFold(c.Name, name) {
			return nil, errs.Conflict("category")
		}
	}
	c := models.Category{ID: uuid.New(), Name: name, CreatedAt: time.Now().UTC()}
	r.db.categories[c.ID] = c
	return &c, nil
}

func (r *CategoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.categories[id]; !ok {
		return errs.NotFound("category")
	}
	for _, p := range r.db.posts {
		if p.CategoryID == id {
			return errs.InUse("category")
		}
	}
	delete(r.db.categories, id)
	return nil
}

// TagRepo implements cms.TagRepository.
type TagRepo struct{ db *DB }

func (r *TagRepo) List(_ context.Context) ([]models.Tag, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Tag
	for _, t := range r.db.tags {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out, nil
}

func (r *TagRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.Tag, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Tag
	for _, id := range ids {
		if t, ok := r.db.tags[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *TagRepo) Create(_ context.Context, name string) (*models.Tag, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, t := range r.db.tags {
		if strings.EqualFold(t.Name, name) {
			return nil, errs.Conflict("tag")
		}
	}
	t := models.Tag{ID: uuid.New(), Name: name, CreatedAt: time.Now().UTC()}
	r.db.tags[t.ID] = t
	return &t, nil
}

func (r *TagRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.tags[id]; !ok {
		return errs.NotFound("tag")
	}
	delete(r.db.tags, id)
	for pid, tagIDs := range r.db.postTags {
		kept := tagIDs[:0]
		for _, tid := range tagIDs {
			if tid != id {
				kept = append(kept, tid)
			}
		}
		r.db.postTags[pid] = kept
	}
	return nil
}

// AuthorRepo implements cms.AuthorRepository.
type AuthorRepo struct{ db *DB }

func (r *AuthorRepo) List(_ context.Context) ([]models.Author, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Author
	for _, a := range r.db.authors {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out, nil
}

func (r *AuthorRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Author, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.authors[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r *AuthorRepo) FindBySlug(_ context.Context, slug string) (*models.Author, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, a := range r.db.authors {
		if a.Slug == slug {
			return &a, nil
		}
	}
	return nil, nil
}

func (r *AuthorRepo) Create(_ context.Context, a *models.Author) (*models.Author, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.AuthorCreateErr != nil {
		return nil, r.db.AuthorCreateErr
	}
	for _, other := range r.db.authors {
		if other.Slug == a.Slug {
			return nil, errs.Conflict("author slug")
		}
	}
	created := *a
	created.ID = uuid.New()
	created.CreatedAt = time.Now().UTC()
	created.UpdatedAt = created.CreatedAt
	r.db.authors[created.ID] = created
	return &created, nil
}

func (r *AuthorRepo) Update(_ context.Context, a *models.Author) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.AuthorUpdateErr != nil {
		return r.db.AuthorUpdateErr
	}
	if _, ok := r.db.authors[a.ID]; !ok {
		return errs.NotFound("author")
	}
	for id, other := range r.db.authors {
		if other.Slug == a.Slug && id != a.ID {
			return errs.Conflict("author slug")
		}
	}
	updated := *a
	updated.UpdatedAt = time.Now().UTC()
	r.db.authors[a.ID] = updated
	return nil
}

func (r *AuthorRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.authors[id]; !ok {
		return errs.NotFound("author")
	}
	for _, p := range r.db.posts {
		if p.AuthorID == id {
			return errs.InUse("author")
		}
	}
	delete(r.db.authors, id)
	return nil
}

func (r *AuthorRepo) HasPosts(_ context.Context, id uuid.UUID) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, p := range r.db.posts {
		if p.AuthorID == id {
			return true, nil
		}
	}
	return false, nil
}

// FeaturedRepo implements cms.FeaturedRepository.
type FeaturedRepo struct{ db *DB }

func (r *FeaturedRepo) List(_ context.Context) ([]models.FeaturedSlot, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.FeaturedSlot
	for pos, pid := range r.db.featured {
		id := pid
		out = append(out, models.FeaturedSlot{Position: pos, PostID: &id})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *FeaturedRepo) Assign(_ context.Context, position int, postID uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.posts[postID]; !ok {
		return errs.ErrInvalidReference
	}
	r.db.featured[position] = postID
	return nil
}

func (r *FeaturedRepo) Unassign(_ context.Context, position int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.featured, position)
	return nil
}

// ViewRepo implements cms.ViewRepository.
type ViewRepo struct{ db *DB }

func (r *ViewRepo) Record(_ context.Context, postID uuid.UUID, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.views = append(r.db.views, models.PostView{ID: int64(len(r.db.views) + 1), PostID: postID, ViewedAt: at})
	return nil
}

func (r *ViewRepo) CountByPosts(_ context.Context, postIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.ViewCountErr != nil {
		return nil, r.db.ViewCountErr
	}
	want := make(map[uuid.UUID]bool, len(postIDs))
	for _, id := range postIDs {
		want[id] = true
	}
	out := make(map[uuid.UUID]int)
	for _, v := range r.db.views {
		if want[v.PostID] {
			out[v.PostID]++
		}
	}
	return out, nil
}

// Storage is an in-memory object store.
type Storage struct {
	mu      sync.Mutex
	BaseURL string
	Objects map[string][]byte

	UploadErr error
	DeleteErr error

	Uploads []string
	Deletes []string
}

// NewStorage returns an empty store serving files under https://cdn.test/llmaware/.
func NewStorage() *Storage {
	return &Storage{BaseURL: "https://cdn.test/llmaware", Objects: make(map[string][]byte)}
}

func (s *Storage) Upload(_ context.Context, key, _ string, body io.Reader, _ int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UploadErr != nil {
		return s.UploadErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return err
	}
	s.Objects[key] = buf.Bytes()
	s.Uploads = append(s.Uploads, key)
	return nil
}

func (s *Storage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	delete(s.Objects, key)
	s.Deletes = append(s.Deletes, key)
	return nil
}

func (s *Storage) FileURL(key string) string {
	return s.BaseURL + "/" + key
}

func (s *Storage) ExtractKey(rawURL string) (string, bool) {
	prefix := s.BaseURL + "/"
	if !strings.HasPrefix(rawURL, prefix) {
		return "", false
	}
	return rawURL[len(prefix):], true
}

// Has reports whether key is stored.
func (s *Storage) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.Objects[key]
	return ok
}

// Len returns the number of stored objects.
func (s *Storage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Objects)
}

// Cache is an in-memory listing cache.
type Cache struct {
	mu            sync.Mutex
	items         map[string][]models.PostListing
	generation    int64
	Invalidations int

	// BeforeSet, when set, runs once at the start of the next Set.
	BeforeSet func()
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{items: make(map[string][]models.PostListing)}
}

func (c *Cache) Generation(_ context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation, nil
}

func (c *Cache) Get(_ context.Context, key string) ([]models.PostListing, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	items, ok := c.items[key]
	if !ok {
		return nil, false, nil
	}
	return cloneListings(items), true, nil
}

func (c *Cache) Set(_ context.Context, key string, generation int64, items []models.PostListing) (bool, error) {
	c.mu.Lock()
	hook := c.BeforeSet
	c.BeforeSet = nil
	c.mu.Unlock()
	if hook != nil {
		hook()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return false, nil
	}
	c.items[key] = cloneListings(items)
	return true, nil
}

func (c *Cache) InvalidateAll(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string][]models.PostListing)
	c.generation++
	c.Invalidations++
	return nil
}

// cloneListings copies items the way a round trip through Valkey would.
func cloneListings(items []models.PostListing) []models.PostListing {
	out := make([]models.PostListing, len(items))
	for i, it := range items {
		it.TagNames = append([]string{}, it.TagNames...)
		out[i] = it
	}
	return out
}

// Keys returns the number of cached listings.
func (c *Cache) Keys() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
