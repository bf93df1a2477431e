package store

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

func TestCategoryStoreCreateAndFind(t *testing.T) {
	db := testDB(t)
	s := NewCategoryStore(db)
	ctx := context.Background()

	name := uniqueName("AI")
	c, err := s.Create(ctx, name)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { db.Exec("DELETE FROM categories WHERE id = $1", c.ID) })

	if c.ID == uuid.Nil || c.Name != name {
		t.Errorf("Create returned %+v", c)
	}

	found, err := s.FindByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if found == nil || found.Name != name {
		t.Errorf("FindByID = %+v, want name %q", found, name)
	}

	missing, err := s.FindByID(ctx, uuid.New())
	if err != nil {
		t.Fatalf("FindByID (missing): %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing category")
	}

	byIDs, err := s.FindByIDs(ctx, []uuid.UUID{c.ID, uuid.New()})
	if err != nil {
		t.Fatalf("FindByIDs: %v", err)
	}
	if len(byIDs) != 1 || byIDs[0].ID != c.ID {
		t.Errorf("FindByIDs = %+v, want only %s", byIDs, c.ID)
	}
}

func TestCategoryStoreDuplicateName(t *testing.T) {
	db := testDB(t)
	s := NewCategoryStore(db)
	ctx := context.Background()

	name := uniqueName("Dup")
	c, err := s.Create(ctx, name)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { db.Exec("DELETE FROM categories WHERE id = $1", c.ID) })

	_, err = s.Create(ctx, strings.ToUpper(name))
	if !errors.Is(err, errs.ErrConflict) {
		t.Errorf("duplicate Create err = %v, want ErrConflict", err)
	}
}

func TestCategoryStoreDeleteInUse(t *testing.T) {
	db := testDB(t)
	f := newFixture(t, db, 0)
	ctx := context.Background()

	now := time.Now().UTC()
	_, err := NewPostStore(db).Create(ctx, &models.Post{
		Title: "Pinned", CategoryID: f.category.ID, Slug: "pinned-" + letters(6),
		AuthorID: f.author.ID, CreatedAt: now, UpdatedAt: now,
	}, nil)
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	err = NewCategoryStore(db).Delete(ctx, f.category.ID)
	if !errors.Is(err, errs.ErrInUse) {
		t.Errorf("Delete referenced category err = %v, want ErrInUse", err)
	}

	err = NewCategoryStore(db).Delete(ctx, uuid.New())
	if !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("Delete missing category err = %v, want ErrNotFound", err)
	}
}

func TestTagStoreDeleteCascadesAssociations(t *testing.T) {
	db := testDB(t)
	f := newFixture(t, db, 2)
	ctx := context.Background()
	posts := NewPostStore(db)

	now := time.Now().UTC()
	p, err := posts.Create(ctx, &models.Post{
		Title: "Tagged", CategoryID: f.category.ID, Slug: "tagged-" + letters(6),
		AuthorID: f.author.ID, CreatedAt: now, UpdatedAt: now,
	}, []uuid.UUID{f.tags[0].ID, f.tags[1].ID})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	if err := NewTagStore(db).Delete(ctx, f.tags[0].ID); err != nil {
		t.Fatalf("Delete tag: %v", err)
	}

	ids, err := posts.TagIDs(ctx, p.ID)
	if err != nil {
		t.Fatalf("TagIDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != f.tags[1].ID {
		t.Errorf("TagIDs after tag delete = %v, want [%s]", ids, f.tags[1].ID)
	}
}

func TestTagStoreListOrderedByName(t *testing.T) {
	db := testDB(t)
	s := NewTagStore(db)
	ctx := context.Background()

	suffix := letters(6)
	var ids []uuid.UUID
	for _, name := range []string{"zeta-" + suffix, "Alpha-" + suffix, "mid-" + suffix} {
		tag, err := s.Create(ctx, name)
		if err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
		ids = append(ids, tag.ID)
	}
	t.Cleanup(func() {
		for _, id := range ids {
			db.Exec("DELETE FROM tags WHERE id = $1", id)
		}
	})

	all, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var mine []string
	for _, tag := range all {
		if strings.HasSuffix(tag.Name, suffix) {
			mine = append(mine, tag.Name)
		}
	}
	want := []string{"Alpha-" + suffix, "mid-" + suffix, "zeta-" + suffix}
	if strings.Join(mine, ",") != strings.Join(want, ",") {
		t.Errorf("List order = %v, want %v", mine, want)
	}
}
