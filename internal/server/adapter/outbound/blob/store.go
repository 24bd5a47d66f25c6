package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/anthanhphan/go-dedup-file-store/internal/server/port"
	"github.com/google/uuid"
)

// Store persists canonical content bytes on the local filesystem. Blobs are
// laid out as content/<first 2 hash chars>/<hash> so directories stay shallow.
type Store struct {
	rootDir string
	fsync   bool
}

var _ port.BlobStore = (*Store)(nil)

// NewStore initializes the blob root directory.
func NewStore(rootDir string, fsync bool) (*Store, error) {
	if err := os.MkdirAll(rootDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &Store{rootDir: filepath.Clean(rootDir), fsync: fsync}, nil
}

// Locator maps a content fingerprint to its relative storage path.
func Locator(fingerprint string) string {
	prefix := fingerprint
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	return filepath.Join("content", prefix, fingerprint)
}

// Write streams the full content to a temp file and publishes it with an
// atomic rename, so a crash mid-write never leaves a partial blob visible.
func (s *Store) Write(ctx context.Context, fingerprint string, reader io.Reader) (string, error) {
	locator := Locator(fingerprint)
	finalPath := filepath.Join(s.rootDir, locator)
	if err := os.MkdirAll(filepath.Dir(finalPath), 0750); err != nil {
		return "", classify("mkdir", err)
	}

	tmpPath := finalPath + ".tmp-" + uuid.NewString()
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600) // #nosec G304 -- path built from internal blob root
	if err != nil {
		return "", classify("create", err)
	}

	if _, err := io.Copy(f, reader); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return "", classify("write", err)
	}

	if s.fsync {
		if err := f.Sync(); err != nil {
			_ = f.Close()
			_ = os.Remove(tmpPath)
			return "", classify("sync", err)
		}
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", classify("close", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", classify("publish", err)
	}

	return locator, nil
}

// Open returns a reader over the stored bytes for a locator.
func (s *Store) Open(ctx context.Context, locator string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.rootDir, filepath.Clean(locator))) // #nosec G304
	if err != nil {
		if os.IsNotExist(err) {
			return nil, port.ErrContentNotFound
		}
		return nil, classify("open", err)
	}
	return f, nil
}

// Remove deletes the stored bytes for a locator.
func (s *Store) Remove(ctx context.Context, locator string) error {
	err := os.Remove(filepath.Join(s.rootDir, filepath.Clean(locator)))
	if err != nil && !os.IsNotExist(err) {
		return classify("remove", err)
	}
	return nil
}

// classify wraps an I/O failure with its retriability. Disk-full and
// read-only filesystems cannot be retried away; everything else gets the
// benefit of the doubt.
func classify(op string, err error) error {
	retriable := true
	if errors.Is(err, syscall.ENOSPC) || errors.Is(err, syscall.EROFS) || errors.Is(err, syscall.EDQUOT) {
		retriable = false
	}
	return &port.StorageError{Op: op, Retriable: retriable, Err: err}
}
