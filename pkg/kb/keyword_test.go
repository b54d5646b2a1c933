package kb_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/xccelera/voicegate/pkg/kb"
)

func testDocs() []kb.Document {
	return []kb.Document{
		{ID: "benefits.md", Text: "Health insurance and dental coverage for all employees.", Source: "benefits.md"},
		{ID: "pto.md", Text: "Vacation policy: employees accrue vacation days monthly.", Source: "pto.md"},
		{ID: "remote.md", Text: "Remote work policy and equipment stipend details.", Source: "remote.md"},
	}
}

func TestKeywordSearch(t *testing.T) {
	store := kb.NewKeyword(testDocs())
	ctx := context.Background()

	t.Run("ranks by token overlap", func(t *testing.T) {
		results, err := store.Search(ctx, "vacation policy", 5)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(results) != 2 {
			t.Fatalf("expected 2 hits, got %d", len(results))
		}
		if results[0].Document.ID != "pto.md" {
			t.Errorf("expected pto.md first, got %s", results[0].Document.ID)
		}
		if results[0].Score != 2 {
			t.Errorf("expected score 2, got %v", results[0].Score)
		}
		if results[1].Document.ID != "remote.md" {
			t.Errorf("expected remote.md second, got %s", results[1].Document.ID)
		}
	})

	t.Run("ties keep document order", func(t *testing.T) {
		results, err := store.Search(ctx, "employees", 5)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(results) != 2 {
			t.Fatalf("expected 2 hits, got %d", len(results))
		}
		if results[0].Document.ID != "benefits.md" || results[1].Document.ID != "pto.md" {
			t.Errorf("tie order broken: %s, %s", results[0].Document.ID, results[1].Document.ID)
		}
	})

	t.Run("caps at topK", func(t *testing.T) {
		results, err := store.Search(ctx, "policy employees vacation", 1)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(results) != 1 {
			t.Errorf("expected 1 result, got %d", len(results))
		}
	})

	t.Run("no match", func(t *testing.T) {
		results, err := store.Search(ctx, "quantum chromodynamics", 5)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(results) != 0 {
			t.Errorf("expected no results, got %d", len(results))
		}
	})

	t.Run("empty query", func(t *testing.T) {
		results, err := store.Search(ctx, "   ", 5)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if results != nil {
			t.Errorf("expected nil results, got %v", results)
		}
	})

	t.Run("case insensitive", func(t *testing.T) {
		results, err := store.Search(ctx, "VACATION", 5)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(results) != 1 || results[0].Document.ID != "pto.md" {
			t.Errorf("expected pto.md hit, got %v", results)
		}
	})
}

func TestLoadDir(t *testing.T) {
	t.Run("loads markdown files", func(t *testing.T) {
		dir := t.TempDir()
		os.WriteFile(filepath.Join(dir, "a.md"), []byte("alpha content"), 0o644)
		os.MkdirAll(filepath.Join(dir, "sub"), 0o755)
		os.WriteFile(filepath.Join(dir, "sub", "b.md"), []byte("beta content"), 0o644)
		os.WriteFile(filepath.Join(dir, "ignore.txt"), []byte("not markdown"), 0o644)

		store, err := kb.LoadDir(dir)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if store.Len() != 2 {
			t.Fatalf("expected 2 docs, got %d", store.Len())
		}

		results, err := store.Search(context.Background(), "beta", 5)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(results) != 1 || results[0].Document.Source != "sub/b.md" {
			t.Errorf("expected sub/b.md citation, got %v", results)
		}
	})

	t.Run("missing directory yields empty store", func(t *testing.T) {
		store, err := kb.LoadDir(filepath.Join(t.TempDir(), "nope"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if store.Len() != 0 {
			t.Errorf("expected empty store, got %d docs", store.Len())
		}
	})
}
