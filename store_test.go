package spacetraveling

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/eringen/spacetraveling/pages"
	"github.com/eringen/spacetraveling/posts"
	"github.com/eringen/spacetraveling/richtext"
)

func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "test_pages.db")

	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	cleanup := func() {
		s.Close()
	}

	return s, cleanup
}

func TestNewStore(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	if s == nil {
		t.Fatal("store should not be nil")
	}
	if s.db == nil {
		t.Fatal("db should not be nil")
	}
}

func TestSaveAndLoadSnapshot(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	published := time.Date(2021, 3, 25, 19, 25, 28, 0, time.UTC)
	built := time.Date(2024, 1, 15, 10, 0, 0, 123, time.UTC)
	snap := pages.Snapshot{
		UID: "como-utilizar-hooks",
		Post: posts.Detail{
			UID:                  "como-utilizar-hooks",
			Title:                "Como utilizar Hooks",
			Author:               "Joseph Oliveira",
			BannerURL:            "https://images.example.com/banner.png",
			FirstPublicationDate: &published,
			Content: []posts.Section{{
				Heading: "Proin et varius",
				Body: richtext.Document{{
					Type:  "paragraph",
					Text:  "Nullam dolor sapien",
					Spans: []richtext.Span{{Start: 0, End: 6, Type: "strong"}},
				}},
			}},
		},
		GeneratedAt: built,
	}

	if err := s.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	got, err := s.LoadSnapshot(ctx, snap.UID)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if got.Post.Title != snap.Post.Title {
		t.Errorf("expected title %q, got %q", snap.Post.Title, got.Post.Title)
	}
	if !got.GeneratedAt.Equal(built) {
		t.Errorf("expected generated_at %v, got %v", built, got.GeneratedAt)
	}
	if got.Post.FirstPublicationDate == nil || !got.Post.FirstPublicationDate.Equal(published) {
		t.Errorf("expected publication date %v, got %v", published, got.Post.FirstPublicationDate)
	}
	if got.Post.LastPublicationDate != nil {
		t.Errorf("expected nil last publication date, got %v", got.Post.LastPublicationDate)
	}
	if len(got.Post.Content) != 1 || len(got.Post.Content[0].Body[0].Spans) != 1 {
		t.Fatalf("content not preserved: %+v", got.Post.Content)
	}
	if got.Post.ReadingTime() != snap.Post.ReadingTime() {
		t.Errorf("reading time changed across save: %d vs %d", got.Post.ReadingTime(), snap.Post.ReadingTime())
	}
}

func TestSaveSnapshotReplaces(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	for _, title := range []string{"First", "Second"} {
		snap := pages.Snapshot{UID: "post", Post: posts.Detail{UID: "post", Title: title}, GeneratedAt: time.Now()}
		if err := s.SaveSnapshot(ctx, snap); err != nil {
			t.Fatalf("SaveSnapshot failed: %v", err)
		}
	}

	got, err := s.LoadSnapshot(ctx, "post")
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if got.Post.Title != "Second" {
		t.Errorf("expected replaced title, got %q", got.Post.Title)
	}
}

func TestLoadSnapshotMissing(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := s.LoadSnapshot(context.Background(), "nope")
	if !errors.Is(err, pages.ErrNotFound) {
		t.Errorf("expected pages.ErrNotFound, got %v", err)
	}
}

func TestDeleteSnapshot(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	if err := s.SaveSnapshot(ctx, pages.Snapshot{UID: "gone", GeneratedAt: time.Now()}); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if err := s.DeleteSnapshot(ctx, "gone"); err != nil {
		t.Fatalf("DeleteSnapshot failed: %v", err)
	}
	if _, err := s.LoadSnapshot(ctx, "gone"); !errors.Is(err, pages.ErrNotFound) {
		t.Errorf("expected snapshot deleted, got %v", err)
	}
	if err := s.DeleteSnapshot(ctx, "never-existed"); err != nil {
		t.Errorf("deleting a missing snapshot should not fail: %v", err)
	}
}

func TestSnapshotUIDs(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, uid := range []string{"old", "new"} {
		snap := pages.Snapshot{UID: uid, GeneratedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := s.SaveSnapshot(ctx, snap); err != nil {
			t.Fatalf("SaveSnapshot failed: %v", err)
		}
	}

	uids, err := s.SnapshotUIDs(ctx)
	if err != nil {
		t.Fatalf("SnapshotUIDs failed: %v", err)
	}
	if len(uids) != 2 || uids[0] != "new" || uids[1] != "old" {
		t.Errorf("expected [new old], got %v", uids)
	}
}
