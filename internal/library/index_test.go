package library

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mixdown/internal/testsupport"
)

func TestRescanIndexesAudioFilesOnly(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "a.flac"), 4)
	testsupport.WriteFile(t, filepath.Join(root, "sub", "b.mp3"), 8)
	testsupport.WriteFile(t, filepath.Join(root, "notes.txt"), 16)

	idx := NewIndex(filepath.Join(t.TempDir(), "index.json"), nil)
	indexed, reused, err := idx.Rescan(context.Background(), root)
	if err != nil {
		t.Fatalf("Rescan: %v", err)
	}
	if indexed != 2 || reused != 0 {
		t.Fatalf("indexed=%d reused=%d", indexed, reused)
	}

	entries := idx.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Title != "a" || entries[1].Title != "b" {
		t.Fatalf("titles %q, %q", entries[0].Title, entries[1].Title)
	}
}

func TestRescanReusesUnchangedEntries(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.flac")
	testsupport.WriteFile(t, path, 4)

	idx := NewIndex(filepath.Join(t.TempDir(), "index.json"), nil)
	if _, _, err := idx.Rescan(context.Background(), root); err != nil {
		t.Fatalf("first Rescan: %v", err)
	}

	_, reused, err := idx.Rescan(context.Background(), root)
	if err != nil {
		t.Fatalf("second Rescan: %v", err)
	}
	if reused != 1 {
		t.Fatalf("expected 1 reused entry, got %d", reused)
	}

	// Touch the file; the cached entry must be dropped.
	testsupport.WriteFile(t, path, 12)
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	_, reused, err = idx.Rescan(context.Background(), root)
	if err != nil {
		t.Fatalf("third Rescan: %v", err)
	}
	if reused != 0 {
		t.Fatalf("changed file must not be reused, got reused=%d", reused)
	}
}

func TestIndexPersistsAcrossInstances(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "a.flac"), 4)
	indexPath := filepath.Join(t.TempDir(), "index.json")

	first := NewIndex(indexPath, nil)
	if _, _, err := first.Rescan(context.Background(), root); err != nil {
		t.Fatalf("Rescan: %v", err)
	}

	second := NewIndex(indexPath, nil)
	if second.Count() != 1 {
		t.Fatalf("expected persisted entry, got %d", second.Count())
	}
}

func TestInvalidate(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.flac")
	testsupport.WriteFile(t, path, 4)

	idx := NewIndex(filepath.Join(t.TempDir(), "index.json"), nil)
	if _, _, err := idx.Rescan(context.Background(), root); err != nil {
		t.Fatalf("Rescan: %v", err)
	}
	if err := idx.Invalidate(path); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if idx.Count() != 0 {
		t.Fatalf("entry still present after invalidate")
	}
	if err := idx.Invalidate(path); err == nil {
		t.Fatal("expected error for unknown path")
	}
}

func TestFindDuplicates(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "Night Drive.flac"), 10)
	testsupport.WriteFile(t, filepath.Join(root, "night drive (copy).flac"), 10)
	testsupport.WriteFile(t, filepath.Join(root, "unrelated song.flac"), 24)

	idx := NewIndex(filepath.Join(t.TempDir(), "index.json"), nil)
	if _, _, err := idx.Rescan(context.Background(), root); err != nil {
		t.Fatalf("Rescan: %v", err)
	}

	pairs := idx.FindDuplicates(0)
	if len(pairs) != 1 {
		t.Fatalf("expected 1 duplicate pair, got %d: %+v", len(pairs), pairs)
	}
	if !pairs[0].SameSize {
		t.Fatal("expected same-size flag")
	}
	if pairs[0].Similarity < 50 {
		t.Fatalf("expected high title similarity, got %d", pairs[0].Similarity)
	}
}

func TestEmptyPathIsNoop(t *testing.T) {
	idx := NewIndex("", nil)
	if indexed, _, err := idx.Rescan(context.Background(), t.TempDir()); err != nil || indexed != 0 {
		t.Fatalf("noop rescan: indexed=%d err=%v", indexed, err)
	}
	if idx.Count() != 0 || idx.Entries() != nil {
		t.Fatal("empty-path index must stay empty")
	}
}
