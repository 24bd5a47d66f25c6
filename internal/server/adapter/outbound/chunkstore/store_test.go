package chunkstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/anthanhphan/go-dedup-file-store/internal/server/domain"
	"github.com/anthanhphan/go-dedup-file-store/internal/server/port"
)

func newTestStore(t *testing.T, maxChunkSize int64) *Store {
	t.Helper()

	dir, err := os.MkdirTemp("", "chunkstore_test")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	store, err := NewStore(dir, maxChunkSize)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return store
}

func readOrdered(t *testing.T, store *Store, uploadID string, total int) ([]byte, error) {
	t.Helper()

	reader, err := store.OpenOrdered(context.Background(), uploadID, total)
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()
	return io.ReadAll(reader)
}

func TestStore_OrderedByIndexNotArrival(t *testing.T) {
	store := newTestStore(t, 1024)
	ctx := context.Background()

	// Deliver in reverse order; assembly must follow index order.
	_ = store.Put(ctx, "upload-1", 2, []byte("!!"))
	_ = store.Put(ctx, "upload-1", 1, []byte("world"))
	if err := store.Put(ctx, "upload-1", 0, []byte("hello ")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	data, err := readOrdered(t, store, "upload-1", 3)
	if err != nil {
		t.Fatalf("OpenOrdered failed: %v", err)
	}
	if string(data) != "hello world!!" {
		t.Errorf("expected 'hello world!!', got '%s'", string(data))
	}
}

func TestStore_RedeliveryOverwrites(t *testing.T) {
	store := newTestStore(t, 1024)
	ctx := context.Background()

	_ = store.Put(ctx, "upload-2", 0, []byte("first"))
	if err := store.Put(ctx, "upload-2", 0, []byte("retry")); err != nil {
		t.Fatalf("re-delivery must not error: %v", err)
	}

	data, err := readOrdered(t, store, "upload-2", 1)
	if err != nil {
		t.Fatalf("OpenOrdered failed: %v", err)
	}
	if string(data) != "retry" {
		t.Errorf("expected last write to win, got '%s'", string(data))
	}
}

func TestStore_RejectsOversizedChunk(t *testing.T) {
	store := newTestStore(t, 8)

	err := store.Put(context.Background(), "upload-3", 0, make([]byte, 9))
	if !errors.Is(err, domain.ErrChunkTooLarge) {
		t.Fatalf("expected ErrChunkTooLarge, got %v", err)
	}
}

func TestStore_IncompleteSession(t *testing.T) {
	store := newTestStore(t, 1024)
	ctx := context.Background()

	_ = store.Put(ctx, "upload-4", 0, []byte("a"))
	_ = store.Put(ctx, "upload-4", 2, []byte("c"))

	_, err := store.OpenOrdered(ctx, "upload-4", 3)
	if !errors.Is(err, port.ErrSessionIncomplete) {
		t.Fatalf("expected ErrSessionIncomplete, got %v", err)
	}
}

func TestStore_EmptyChunk(t *testing.T) {
	store := newTestStore(t, 1024)
	ctx := context.Background()

	if err := store.Put(ctx, "upload-5", 0, []byte{}); err != nil {
		t.Fatalf("empty chunk must stage: %v", err)
	}

	data, err := readOrdered(t, store, "upload-5", 1)
	if err != nil {
		t.Fatalf("OpenOrdered failed: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("expected empty stream, got %d bytes", len(data))
	}
}

func TestStore_EvictReleasesEverything(t *testing.T) {
	store := newTestStore(t, 1024)
	ctx := context.Background()

	_ = store.Put(ctx, "upload-6", 0, []byte("a"))
	_ = store.Put(ctx, "upload-6", 1, []byte("b"))

	if err := store.Evict("upload-6"); err != nil {
		t.Fatalf("Evict failed: %v", err)
	}
	if _, err := os.Stat(store.sessionDir("upload-6")); !os.IsNotExist(err) {
		t.Fatal("expected session directory removed")
	}

	// Evicting an unknown session is a no-op.
	if err := store.Evict("never-seen"); err != nil {
		t.Fatalf("evicting unknown session must not error: %v", err)
	}
}

func TestStore_DetectsCorruptedChunk(t *testing.T) {
	store := newTestStore(t, 1024)
	ctx := context.Background()

	if err := store.Put(ctx, "upload-7", 0, []byte("pristine-bytes")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Flip one data byte on disk; the framed checksum must catch it.
	path := store.chunkPath("upload-7", 0)
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	raw[5] ^= 0xFF
	if err := os.WriteFile(path, raw, 0600); err != nil {
		t.Fatal(err)
	}

	_, err = readOrdered(t, store, "upload-7", 1)
	if !errors.Is(err, domain.ErrInvalidChecksum) {
		t.Fatalf("expected ErrInvalidChecksum, got %v", err)
	}
}

func TestStore_SessionsIsolated(t *testing.T) {
	store := newTestStore(t, 1024)
	ctx := context.Background()

	_ = store.Put(ctx, "upload-a", 0, []byte("aaa"))
	_ = store.Put(ctx, "upload-b", 0, []byte("bbb"))
	_ = store.Evict("upload-a")

	data, err := readOrdered(t, store, "upload-b", 1)
	if err != nil {
		t.Fatalf("eviction of one session must not touch another: %v", err)
	}
	if string(data) != "bbb" {
		t.Errorf("expected 'bbb', got '%s'", string(data))
	}

	entries, err := os.ReadDir(filepath.Clean(store.rootDir))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected one remaining session directory, got %d", len(entries))
	}
}
