package meta

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anthanhphan/go-dedup-file-store/internal/server/domain"
	"github.com/anthanhphan/go-dedup-file-store/internal/server/port"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	dir, err := os.MkdirTemp("", "meta_test")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	path := filepath.Join(dir, "metadata.gob")
	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return store, path
}

func TestStore_RegisterPersistsOnce(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	var persists int
	persist := func(ctx context.Context) (string, error) {
		persists++
		return "content/ab/abc", nil
	}

	entry, created, err := store.Register(ctx, "abc", 100, persist)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if !created {
		t.Fatal("first registration must create the canonical entry")
	}
	if entry.Locator != "content/ab/abc" || entry.Size != 100 {
		t.Errorf("unexpected entry: %+v", entry)
	}

	entry2, created2, err := store.Register(ctx, "abc", 100, persist)
	if err != nil {
		t.Fatalf("second Register failed: %v", err)
	}
	if created2 {
		t.Fatal("second registration of the same fingerprint must not create")
	}
	if entry2.Locator != entry.Locator {
		t.Errorf("expected canonical locator, got %s", entry2.Locator)
	}
	if persists != 1 {
		t.Fatalf("expected exactly one persist, got %d", persists)
	}
}

func TestStore_RegisterPersistFailureLeavesNoEntry(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, _, err := store.Register(ctx, "bad", 10, func(ctx context.Context) (string, error) {
		return "", errors.New("disk on fire")
	})
	if err == nil {
		t.Fatal("expected persist failure to surface")
	}

	if _, err := store.GetContent(ctx, "bad"); !errors.Is(err, port.ErrContentNotFound) {
		t.Fatalf("failed registration must leave no entry, got %v", err)
	}

	// A later retry can still become canonical.
	_, created, err := store.Register(ctx, "bad", 10, func(ctx context.Context) (string, error) {
		return "content/ba/bad", nil
	})
	if err != nil || !created {
		t.Fatalf("retry after failure must create: created=%v err=%v", created, err)
	}
}

func TestStore_ConcurrentRegisterSingleCanonical(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	var persists int64
	var createdCount int64
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, created, err := store.Register(ctx, "racy", 42, func(ctx context.Context) (string, error) {
				atomic.AddInt64(&persists, 1)
				return "content/ra/racy", nil
			})
			if err != nil {
				t.Errorf("Register failed: %v", err)
				return
			}
			if created {
				atomic.AddInt64(&createdCount, 1)
			}
		}()
	}
	wg.Wait()

	if persists != 1 {
		t.Errorf("expected exactly one persist across racers, got %d", persists)
	}
	if createdCount != 1 {
		t.Errorf("expected exactly one creator, got %d", createdCount)
	}
}

func TestStore_ReferenceLifecycle(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, _, err := store.Register(ctx, "shared", 50, func(ctx context.Context) (string, error) {
		return "content/sh/shared", nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if n, err := store.AddReference(ctx, "shared"); err != nil || n != 1 {
		t.Fatalf("first reference: n=%d err=%v", n, err)
	}
	if n, err := store.AddReference(ctx, "shared"); err != nil || n != 2 {
		t.Fatalf("second reference: n=%d err=%v", n, err)
	}

	remaining, err := store.ReleaseReference(ctx, "shared")
	if err != nil || remaining != 1 {
		t.Fatalf("first release: remaining=%d err=%v", remaining, err)
	}
	if _, err := store.GetContent(ctx, "shared"); err != nil {
		t.Fatal("entry must survive while references remain")
	}

	remaining, err = store.ReleaseReference(ctx, "shared")
	if err != nil || remaining != 0 {
		t.Fatalf("last release: remaining=%d err=%v", remaining, err)
	}
	if _, err := store.GetContent(ctx, "shared"); err != nil {
		t.Fatal("entry must survive at zero references until physically removed")
	}

	var destroyed []string
	removed, err := store.RemoveIfUnreferenced(ctx, "shared", func(ctx context.Context, locator string) error {
		destroyed = append(destroyed, locator)
		return nil
	})
	if err != nil || !removed {
		t.Fatalf("removal at zero references: removed=%v err=%v", removed, err)
	}
	if len(destroyed) != 1 || destroyed[0] != "content/sh/shared" {
		t.Errorf("expected destroy on the canonical locator, got %v", destroyed)
	}
	if _, err := store.GetContent(ctx, "shared"); !errors.Is(err, port.ErrContentNotFound) {
		t.Fatal("entry must be gone after removal")
	}
}

func TestStore_RemoveIfUnreferencedSkipsLateReference(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, _, err := store.Register(ctx, "claimed", 30, func(ctx context.Context) (string, error) {
		return "content/cl/claimed", nil
	})
	if err != nil {
		t.Fatal(err)
	}

	orphans, err := store.ListOrphans(ctx)
	if err != nil || len(orphans) != 1 {
		t.Fatalf("expected the fresh entry listed as orphan: %v err=%v", orphans, err)
	}

	// A finalize lands between the scan and the removal.
	if _, err := store.AddReference(ctx, "claimed"); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveFile(ctx, &domain.FileRecord{ID: "f1", ContentFingerprint: "claimed", UploadedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}

	removed, err := store.RemoveIfUnreferenced(ctx, "claimed", func(ctx context.Context, locator string) error {
		t.Errorf("destroy must not run for referenced content, got locator %s", locator)
		return nil
	})
	if err != nil {
		t.Fatalf("RemoveIfUnreferenced failed: %v", err)
	}
	if removed {
		t.Fatal("content referenced after the scan must not be removed")
	}
	if _, err := store.GetContent(ctx, "claimed"); err != nil {
		t.Fatalf("canonical entry lost for a live file record: %v", err)
	}
}

func TestStore_RemoveIfUnreferencedKeepsEntryOnDestroyFailure(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, _, err := store.Register(ctx, "stuck", 30, func(ctx context.Context) (string, error) {
		return "content/st/stuck", nil
	})
	if err != nil {
		t.Fatal(err)
	}

	removed, err := store.RemoveIfUnreferenced(ctx, "stuck", func(ctx context.Context, locator string) error {
		return errors.New("device busy")
	})
	if err == nil || removed {
		t.Fatalf("expected destroy failure to surface: removed=%v err=%v", removed, err)
	}

	orphans, err := store.ListOrphans(ctx)
	if err != nil || len(orphans) != 1 || orphans[0].Fingerprint != "stuck" {
		t.Fatalf("entry must stay visible to later sweeps: %v err=%v", orphans, err)
	}

	removed, err = store.RemoveIfUnreferenced(ctx, "stuck", func(ctx context.Context, locator string) error {
		return nil
	})
	if err != nil || !removed {
		t.Fatalf("retry must succeed: removed=%v err=%v", removed, err)
	}
}

func TestStore_ListOrphans(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for _, fp := range []string{"orphan-b", "orphan-a", "referenced"} {
		fingerprint := fp
		_, _, err := store.Register(ctx, fingerprint, 10, func(ctx context.Context) (string, error) {
			return "content/xx/" + fingerprint, nil
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	if _, err := store.AddReference(ctx, "referenced"); err != nil {
		t.Fatal(err)
	}

	orphans, err := store.ListOrphans(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(orphans) != 2 {
		t.Fatalf("expected 2 orphans, got %d", len(orphans))
	}
	if orphans[0].Fingerprint != "orphan-a" || orphans[1].Fingerprint != "orphan-b" {
		t.Errorf("expected sorted orphans, got %s, %s", orphans[0].Fingerprint, orphans[1].Fingerprint)
	}
}

func TestStore_ListFilesNewestFirst(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 3; i++ {
		err := store.SaveFile(ctx, &domain.FileRecord{
			ID:         fmt.Sprintf("file-%d", i),
			UploadedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	files, err := store.ListFiles(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 {
		t.Fatalf("expected 3 files, got %d", len(files))
	}
	if files[0].ID != "file-2" || files[2].ID != "file-0" {
		t.Errorf("expected newest first, got %s .. %s", files[0].ID, files[2].ID)
	}
}

func TestStore_EventsBetweenHalfOpenWindow(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	start := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)

	stamps := map[string]time.Time{
		"before":   start.Add(-time.Second),
		"at-start": start,
		"inside":   start.Add(72 * time.Hour),
		"at-end":   end,
	}
	for id, ts := range stamps {
		err := store.AppendEvent(ctx, domain.DedupEvent{ID: id, BytesSaved: 1, DetectedAt: ts})
		if err != nil {
			t.Fatal(err)
		}
	}

	events, err := store.EventsBetween(ctx, start, end)
	if err != nil {
		t.Fatal(err)
	}
	got := make(map[string]bool, len(events))
	for _, ev := range events {
		got[ev.ID] = true
	}
	if len(events) != 2 || !got["at-start"] || !got["inside"] {
		t.Errorf("expected [at-start inside], got %v", got)
	}
}

func TestStore_CheckpointReload(t *testing.T) {
	store, path := newTestStore(t)
	ctx := context.Background()

	_, _, err := store.Register(ctx, "persisted", 77, func(ctx context.Context) (string, error) {
		return "content/pe/persisted", nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.AddReference(ctx, "persisted"); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveFile(ctx, &domain.FileRecord{ID: "f1", ContentFingerprint: "persisted", UploadedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
	if err := store.AppendEvent(ctx, domain.DedupEvent{ID: "e1", BytesSaved: 77, DetectedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}

	rootBefore := store.MerkleRoot()
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reloaded, err := NewStore(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	defer func() { _ = reloaded.Close() }()

	entry, err := reloaded.GetContent(ctx, "persisted")
	if err != nil {
		t.Fatalf("content lost across restart: %v", err)
	}
	if entry.ReferenceCount != 1 || entry.Size != 77 {
		t.Errorf("unexpected reloaded entry: %+v", entry)
	}
	if _, err := reloaded.GetFile(ctx, "f1"); err != nil {
		t.Errorf("file record lost across restart: %v", err)
	}

	contents, files, events := reloaded.Counts()
	if contents != 1 || files != 1 || events != 1 {
		t.Errorf("unexpected counts after reload: %d/%d/%d", contents, files, events)
	}
	if reloaded.MerkleRoot() != rootBefore {
		t.Error("merkle root must be rebuilt identically from the snapshot")
	}
}

func TestStore_MerkleRootTracksContents(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	empty := store.MerkleRoot()

	_, _, err := store.Register(ctx, "tracked", 5, func(ctx context.Context) (string, error) {
		return "content/tr/tracked", nil
	})
	if err != nil {
		t.Fatal(err)
	}
	withEntry := store.MerkleRoot()
	if withEntry == empty {
		t.Fatal("adding content must change the merkle root")
	}

	if removed, err := store.RemoveIfUnreferenced(ctx, "tracked", nil); err != nil || !removed {
		t.Fatalf("removal failed: removed=%v err=%v", removed, err)
	}
	if store.MerkleRoot() != empty {
		t.Error("removing the only content must restore the empty root")
	}
}
