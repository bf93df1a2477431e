package cms_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"llmaware/internal/errs"
	"llmaware/internal/models"
)

func TestFeaturedAssignReplaces(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	p := e.post(t, models.PostInput{Title: "P", Published: true})
	q := e.post(t, models.PostInput{Title: "Q", Published: true})

	if err := e.featured.Assign(ctx, 2, p.ID); err != nil {
		t.Fatalf("Assign P: %v", err)
	}
	if err := e.featured.Assign(ctx, 2, q.ID); err != nil {
		t.Fatalf("Assign Q: %v", err)
	}

	slots, err := e.featured.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(slots) != models.FeaturedSlotCount {
		t.Fatalf("slots = %d, want %d", len(slots), models.FeaturedSlotCount)
	}
	for i, s := range slots {
		if s.Position != i+1 {
			t.Errorf("slot %d position = %d", i, s.Position)
		}
	}
	if slots[1].PostID == nil || *slots[1].PostID != q.ID {
		t.Errorf("slot 2 = %v, want %s", slots[1].PostID, q.ID)
	}
	if !slots[0].IsEmpty() || !slots[2].IsEmpty() {
		t.Error("slots 1 and 3 should be empty")
	}
}

func TestFeaturedSamePostInSeveralSlots(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.post(t, models.PostInput{Title: "Everywhere", Published: true})

	for pos := 1; pos <= 3; pos++ {
		if err := e.featured.Assign(ctx, pos, p.ID); err != nil {
			t.Fatalf("Assign %d: %v", pos, err)
		}
	}
	slots, _ := e.featured.List(ctx)
	for _, s := range slots {
		if s.PostID == nil || *s.PostID != p.ID {
			t.Errorf("slot %d = %v", s.Position, s.PostID)
		}
	}
}

func TestFeaturedValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	published := e.post(t, models.PostInput{Title: "Live", Published: true})
	draft := e.post(t, models.PostInput{Title: "Draft"})

	tests := []struct {
		name     string
		position int
		postID   uuid.UUID
		field    string
	}{
		{"position zero", 0, published.ID, "position"},
		{"position four", 4, published.ID, "position"},
		{"negative position", -1, published.ID, "position"},
		{"unknown post", 1, uuid.New(), "post_id"},
		{"draft post", 1, draft.ID, "post_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.featured.Assign(ctx, tt.position, tt.postID)
			ve, ok := err.(*errs.ValidationError)
			if !ok {
				t.Fatalf("err = %v, want *errs.ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("field = %q, want %q", ve.Field, tt.field)
			}
		})
	}

	if err := e.featured.Unassign(ctx, 5); !errs.IsValidation(err) {
		t.Errorf("Unassign(5) err = %v, want validation error", err)
	}
}

func TestFeaturedUnassign(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.post(t, models.PostInput{Title: "P", Published: true})

	if err := e.featured.Assign(ctx, 3, p.ID); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if err := e.featured.Unassign(ctx, 3); err != nil {
		t.Fatalf("Unassign: %v", err)
	}
	if err := e.featured.Unassign(ctx, 3); err != nil {
		t.Fatalf("Unassign empty slot: %v", err)
	}
	slots, _ := e.featured.List(ctx)
	if !slots[2].IsEmpty() {
		t.Error("slot 3 should be empty")
	}
}

func TestFeaturedPosts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	p := e.post(t, models.PostInput{Title: "Star", Published: true})
	if err := e.featured.Assign(ctx, 1, p.ID); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	got, err := e.featured.Posts(ctx)
	if err != nil {
		t.Fatalf("Posts: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("featured posts = %d, want 3", len(got))
	}
	if got[0].Post == nil || got[0].Post.Title != "Star" || got[0].Post.CategoryName == "" {
		t.Errorf("slot 1 = %+v", got[0].Post)
	}
	if got[1].Post != nil || got[2].Post != nil {
		t.Error("empty slots should have nil posts")
	}

	// Unpublishing a featured post hides it from the public slots.
	if _, err := e.posts.Update(ctx, p.ID, models.PostInput{
		Title: p.Title, Slug: p.Slug, CategoryID: p.CategoryID, AuthorID: p.AuthorID, Published: false,
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ = e.featured.Posts(ctx)
	if got[0].Post != nil {
		t.Error("unpublished post still shown in public featured slot")
	}
}
