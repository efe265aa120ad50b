package gallery

import (
	"context"
	"testing"

	"github.com/wonderkid/storytime/internal/db"
)

func setupStore(t *testing.T, maxImages int) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database, maxImages)
}

func TestAddAndList(t *testing.T) {
	store := setupStore(t, 0)
	ctx := context.Background()

	urls := []string{
		"https://storage.googleapis.com/wonderkid/a.png",
		"/api/images/wonderkid_1.png",
		"/api/images/wonderkid_2.png",
	}
	for _, u := range urls {
		inserted, err := store.Add(ctx, u, "story_1")
		if err != nil {
			t.Fatalf("Add(%q): %v", u, err)
		}
		if !inserted {
			t.Errorf("Add(%q) = false, want true for new URL", u)
		}
	}

	images, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(images) != len(urls) {
		t.Fatalf("List returned %d images, want %d", len(images), len(urls))
	}
	for i, u := range urls {
		if images[i].URL != u {
			t.Errorf("images[%d].URL = %q, want %q (insertion order)", i, images[i].URL, u)
		}
	}
}

func TestAddDeduplicates(t *testing.T) {
	store := setupStore(t, 0)
	ctx := context.Background()

	const url = "/api/images/wonderkid_1.png"
	for i := 0; i < 5; i++ {
		inserted, err := store.Add(ctx, url, "story_1")
		if err != nil {
			t.Fatalf("Add #%d: %v", i, err)
		}
		if i == 0 && !inserted {
			t.Error("first Add should insert")
		}
		if i > 0 && inserted {
			t.Errorf("Add #%d inserted a duplicate", i)
		}
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1 after repeated insertion of the same URL", n)
	}
}

func TestAddRejectsEmptyURL(t *testing.T) {
	store := setupStore(t, 0)
	if _, err := store.Add(context.Background(), "", "story_1"); err == nil {
		t.Error("Add(\"\") should fail")
	}
}

func TestCapEvictsOldest(t *testing.T) {
	store := setupStore(t, 3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		url := "/api/images/img_" + string(rune('a'+i)) + ".png"
		if _, err := store.Add(ctx, url, "story_1"); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	images, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(images) != 3 {
		t.Fatalf("len = %d, want cap of 3", len(images))
	}
	// The three newest survive.
	want := []string{"/api/images/img_c.png", "/api/images/img_d.png", "/api/images/img_e.png"}
	for i := range want {
		if images[i].URL != want[i] {
			t.Errorf("images[%d].URL = %q, want %q", i, images[i].URL, want[i])
		}
	}
}

func TestListByStory(t *testing.T) {
	store := setupStore(t, 0)
	ctx := context.Background()

	store.Add(ctx, "/api/images/a.png", "story_1")
	store.Add(ctx, "/api/images/b.png", "story_2")
	store.Add(ctx, "/api/images/c.png", "story_1")

	images, err := store.ListByStory(ctx, "story_1")
	if err != nil {
		t.Fatalf("ListByStory: %v", err)
	}
	if len(images) != 2 {
		t.Fatalf("len = %d, want 2", len(images))
	}
}

func TestClear(t *testing.T) {
	store := setupStore(t, 0)
	ctx := context.Background()

	store.Add(ctx, "/api/images/a.png", "story_1")
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Errorf("Count after Clear = %d, want 0", n)
	}
}
