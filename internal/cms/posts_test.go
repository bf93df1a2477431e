package cms_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"llmaware/internal/errs"
	"llmaware/internal/models"
)

func TestPostsCreate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	cat := e.category(t, "AI")
	author := e.author(t, "jane-doe")
	llm := e.tag(t, "LLM")

	p, err := e.posts.Create(ctx, models.PostInput{
		Title:      "Scaling Laws, Revisited!",
		CategoryID: cat.ID,
		Body:       `<p>hello</p><script>alert(1)</script>`,
		TimeToRead: " 5 min ",
		AuthorID:   author.ID,
		Published:  true,
		TagIDs:     []uuid.UUID{llm.ID, llm.ID},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if p.Slug != "scaling-laws-revisited" {
		t.Errorf("generated slug = %q", p.Slug)
	}
	if strings.Contains(p.HTML, "<script") || !strings.Contains(p.HTML, "<p>hello</p>") {
		t.Errorf("body not sanitized: %q", p.HTML)
	}
	if p.TimeToRead != "5 min" {
		t.Errorf("time_to_read = %q", p.TimeToRead)
	}
	want := e.clock.Now()
	if !p.CreatedAt.Equal(want) || !p.UpdatedAt.Equal(want) {
		t.Errorf("timestamps = %v / %v, want %v", p.CreatedAt, p.UpdatedAt, want)
	}
	if rows := e.db.PostTagRows(p.ID); len(rows) != 1 || rows[0] != llm.ID {
		t.Errorf("post tag rows = %v, want [%s] (deduplicated)", rows, llm.ID)
	}
}

func TestPostsCreateMarkdown(t *testing.T) {
	e := newEnv(t)
	p := e.post(t, models.PostInput{
		Title:  "Markdown body",
		Body:   "# Heading\n\nSome *emphasis* <img src=x onerror=alert(1)>",
		Format: models.BodyFormatMarkdown,
	})
	if !strings.Contains(p.HTML, "<em>emphasis</em>") {
		t.Errorf("markdown not rendered: %q", p.HTML)
	}
	if strings.Contains(p.HTML, "onerror") {
		t.Errorf("rendered markdown not sanitized: %q", p.HTML)
	}
}

func TestPostsMarkdownKeepsHighlightingAndFigures(t *testing.T) {
	e := newEnv(t)
	p := e.post(t, models.PostInput{
		Title:  "Code sample",
		Body:   "<figure><figcaption>Diagram</figcaption></figure>\n\n```go\nfunc main() {}\n```\n\n<script>alert(1)</script>",
		Format: models.BodyFormatMarkdown,
	})
	for _, want := range []string{"<figcaption>Diagram</figcaption>", "background-color:#272822", "<span"} {
		if !strings.Contains(p.HTML, want) {
			t.Errorf("body missing %q: %q", want, p.HTML)
		}
	}
	if strings.Contains(p.HTML, "<script") {
		t.Errorf("raw script survived sanitizing: %q", p.HTML)
	}
}

func TestPostsCreateValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	cat := e.category(t, "AI")
	author := e.author(t, "jane-doe")

	valid := func() models.PostInput {
		return models.PostInput{Title: "Valid", CategoryID: cat.ID, AuthorID: author.ID}
	}

	tests := []struct {
		name   string
		mutate func(*models.PostInput)
		field  string
	}{
		{"empty title", func(in *models.PostInput) { in.Title = "  " }, "title"},
		{"long title", func(in *models.PostInput) { in.Title = strings.Repeat("a", 301) }, "title"},
		{"bad slug", func(in *models.PostInput) { in.Slug = "Not A Slug" }, "slug"},
		{"slug with double hyphen", func(in *models.PostInput) { in.Slug = "a--b" }, "slug"},
		{"mixed-case slug", func(in *models.PostInput) { in.Slug = "My-Post" }, "slug"},
		{"title without slug characters", func(in *models.PostInput) { in.Title = "!!!" }, "slug"},
		{"missing category", func(in *models.PostInput) { in.CategoryID = uuid.Nil }, "category_id"},
		{"unknown category", func(in *models.PostInput) { in.CategoryID = uuid.New() }, "category_id"},
		{"missing author", func(in *models.PostInput) { in.AuthorID = uuid.Nil }, "author_id"},
		{"unknown author", func(in *models.PostInput) { in.AuthorID = uuid.New() }, "author_id"},
		{"unknown tag", func(in *models.PostInput) { in.TagIDs = []uuid.UUID{uuid.New()} }, "tags"},
		{"nil tag", func(in *models.PostInput) { in.TagIDs = []uuid.UUID{uuid.Nil} }, "tags"},
		{"long read time", func(in *models.PostInput) { in.TimeToRead = strings.Repeat("9", 51) }, "time_to_read"},
		{"bad format", func(in *models.PostInput) { in.Format = "rst" }, "format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)
			_, err := e.posts.Create(ctx, in)
			var ve *errs.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("field = %q, want %q", ve.Field, tt.field)
			}
		})
	}

	posts, _ := e.listing.List(ctx, cmsAll())
	if len(posts) != 0 {
		t.Errorf("rejected creates left %d posts behind", len(posts))
	}
}

func TestPostsDuplicateSlug(t *testing.T) {
	e := newEnv(t)
	first := e.post(t, models.PostInput{Title: "Same Title"})
	_, err := e.posts.Create(context.Background(), models.PostInput{
		Title: "Same Title", CategoryID: first.CategoryID, AuthorID: first.AuthorID,
	})
	if !errors.Is(err, errs.ErrConflict) {
		t.Errorf("duplicate slug err = %v, want ErrConflict", err)
	}
}

func TestPostsUpdateReplacesTagSet(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	a, b, c := e.tag(t, "a"), e.tag(t, "b"), e.tag(t, "c")
	p := e.post(t, models.PostInput{Title: "Tagged", TagIDs: []uuid.UUID{a.ID, b.ID}})

	tests := []struct {
		name string
		tags []uuid.UUID
		want []uuid.UUID
	}{
		{"swap one", []uuid.UUID{b.ID, c.ID}, []uuid.UUID{b.ID, c.ID}},
		{"duplicates collapse", []uuid.UUID{a.ID, a.ID, c.ID}, []uuid.UUID{a.ID, c.ID}},
		{"clear", nil, nil},
		{"all", []uuid.UUID{c.ID, b.ID, a.ID}, []uuid.UUID{a.ID, b.ID, c.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.posts.Update(ctx, p.ID, models.PostInput{
				Title: p.Title, Slug: p.Slug, CategoryID: p.CategoryID, AuthorID: p.AuthorID, TagIDs: tt.tags,
			})
			if err != nil {
				t.Fatalf("Update: %v", err)
			}
			got := e.db.PostTagRows(p.ID)
			if !sameIDs(got, tt.want) {
				t.Errorf("post tag rows = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPostsUpdateTimestamps(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	p := e.post(t, models.PostInput{Title: "Original"})
	created := p.CreatedAt

	e.clock.Advance(90 * time.Minute)
	updated, err := e.posts.Update(ctx, p.ID, models.PostInput{
		Title: "Renamed", Slug: p.Slug, CategoryID: p.CategoryID, AuthorID: p.AuthorID,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !updated.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt changed to %v, want %v", updated.CreatedAt, created)
	}
	if !updated.UpdatedAt.Equal(e.clock.Now()) {
		t.Errorf("UpdatedAt = %v, want %v", updated.UpdatedAt, e.clock.Now())
	}

	reloaded, err := e.posts.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if reloaded.Title != "Renamed" {
		t.Errorf("title = %q", reloaded.Title)
	}
}

func TestPostsUpdateMissing(t *testing.T) {
	e := newEnv(t)
	_, err := e.posts.Update(context.Background(), uuid.New(), models.PostInput{Title: "x"})
	if !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestPostsDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	tag := e.tag(t, "gone")
	p := e.post(t, models.PostInput{Title: "Doomed", Published: true, TagIDs: []uuid.UUID{tag.ID}})
	if err := e.views.Record(ctx, p.ID); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := e.featured.Assign(ctx, 1, p.ID); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	if err := e.posts.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := e.posts.Get(ctx, p.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("Get after delete err = %v, want ErrNotFound", err)
	}
	if rows := e.db.PostTagRows(p.ID); len(rows) != 0 {
		t.Errorf("post tag rows after delete = %v", rows)
	}
	slots, _ := e.featured.List(ctx)
	if !slots[0].IsEmpty() {
		t.Errorf("slot 1 still holds deleted post")
	}
	if n := e.db.ViewRows(p.ID); n != 1 {
		t.Errorf("view rows after delete = %d, want 1 (retained)", n)
	}

	if err := e.posts.Delete(ctx, p.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("second Delete err = %v, want ErrNotFound", err)
	}
}

func TestPostsGetBySlug(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tag := e.tag(t, "edit")
	p := e.post(t, models.PostInput{Title: "Edit Me", TagIDs: []uuid.UUID{tag.ID}})

	got, err := e.posts.GetBySlug(ctx, "edit-me")
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	if got.ID != p.ID || len(got.TagIDs) != 1 || got.TagIDs[0] != tag.ID {
		t.Errorf("GetBySlug = %+v", got)
	}

	untagged := e.post(t, models.PostInput{Title: "Bare"})
	bare, err := e.posts.Get(ctx, untagged.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if bare.TagIDs == nil {
		t.Error("TagIDs should be an empty slice, not nil")
	}

	if _, err := e.posts.GetBySlug(ctx, "nope"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("missing slug err = %v, want ErrNotFound", err)
	}
}

func TestPostsWritesInvalidateCache(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	p := e.post(t, models.PostInput{Title: "Cached", Published: true})
	before := e.cache.Invalidations

	if _, err := e.posts.Update(ctx, p.ID, models.PostInput{
		Title: "Cached 2", Slug: p.Slug, CategoryID: p.CategoryID, AuthorID: p.AuthorID, Published: true,
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := e.posts.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := e.cache.Invalidations - before; got != 2 {
		t.Errorf("invalidations = %d, want 2", got)
	}
}

func sameIDs(a, b []uuid.UUID) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[uuid.UUID]int, len(a))
	for _, id := range a {
		set[id]++
	}
	for _, id := range b {
		set[id]--
	}
	for _, n := range set {
		if n != 0 {
			return false
		}
	}
	return true
}
