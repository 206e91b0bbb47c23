package biolink

import (
	"context"
	"testing"
	"time"
)

func TestCacheServesWithoutRefetch(t *testing.T) {
	ms := &memoryStore{}
	ms.seed(Content{ID: ContentID, Texts: map[string]string{"title": "cached"}})
	cache := newContentCache(ms, time.Minute)

	for i := 0; i < 5; i++ {
		doc, err := cache.Content(context.Background())
		if err != nil {
			t.Fatalf("Content: %v", err)
		}
		if doc.Texts["title"] != "cached" {
			t.Fatalf("texts = %v", doc.Texts)
		}
	}
	if ms.gets != 1 {
		t.Errorf("store reads = %d, want 1", ms.gets)
	}
}

func TestCacheInvalidateForcesReload(t *testing.T) {
	ms := &memoryStore{}
	ms.seed(Content{ID: ContentID, Texts: map[string]string{"title": "v1"}})
	cache := newContentCache(ms, time.Minute)

	if _, err := cache.Content(context.Background()); err != nil {
		t.Fatal(err)
	}
	ms.seed(Content{ID: ContentID, Texts: map[string]string{"title": "v2"}})

	// Still within TTL: the stale copy is served.
	doc, _ := cache.Content(context.Background())
	if doc.Texts["title"] != "v1" {
		t.Fatalf("title = %q before invalidation", doc.Texts["title"])
	}

	cache.Invalidate()
	doc, _ = cache.Content(context.Background())
	if doc.Texts["title"] != "v2" {
		t.Errorf("title = %q after invalidation, want v2", doc.Texts["title"])
	}
	if ms.gets != 2 {
		t.Errorf("store reads = %d, want 2", ms.gets)
	}
}

func TestCacheExpiresAfterTTL(t *testing.T) {
	ms := &memoryStore{}
	ms.seed(Content{ID: ContentID})
	cache := newContentCache(ms, 10*time.Millisecond)

	if _, err := cache.Content(context.Background()); err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, err := cache.Content(context.Background()); err != nil {
		t.Fatal(err)
	}
	if ms.gets != 2 {
		t.Errorf("store reads = %d, want reload after expiry", ms.gets)
	}
}

func TestCacheDoesNotRetainFailures(t *testing.T) {
	ms := &memoryStore{fail: true}
	cache := newContentCache(ms, time.Minute)

	if _, err := cache.Content(context.Background()); err == nil {
		t.Fatal("expected error from failing store")
	}

	ms.fail = false
	ms.seed(Content{ID: ContentID, Texts: map[string]string{"title": "recovered"}})
	doc, err := cache.Content(context.Background())
	if err != nil {
		t.Fatalf("Content after recovery: %v", err)
	}
	if doc.Texts["title"] != "recovered" {
		t.Errorf("title = %q, want recovered", doc.Texts["title"])
	}
}
