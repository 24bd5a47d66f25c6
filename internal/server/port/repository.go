package port

import (
	"context"
	"io"
	"time"

	"github.com/anthanhphan/go-dedup-file-store/internal/server/domain"
)

//go:generate mockgen -destination=../service/mocks/repository_mock.go -package=mocks -source=repository.go

// ChunkStaging is the transient holding area for in-flight sessions' chunks.
// Chunks are owned by their session and released on finalize or expiry.
type ChunkStaging interface {
	// Put stores the bytes for (uploadID, index). Re-delivery at the same
	// index overwrites (last-write-wins). Returns domain.ErrChunkTooLarge
	// when the payload exceeds the configured chunk size bound.
	Put(ctx context.Context, uploadID string, index int, data []byte) error

	// OpenOrdered returns a reader over the byte concatenation of chunks
	// 0..total-1 in index order. Fails with ErrSessionIncomplete unless every
	// index is present.
	OpenOrdered(ctx context.Context, uploadID string, total int) (io.ReadCloser, error)

	// Evict releases all chunks staged for the session.
	Evict(uploadID string) error
}

// BlobStore persists canonical content bytes under content-addressed locators.
type BlobStore interface {
	// Write persists the full stream for the given fingerprint and returns
	// its storage locator. Failures are reported as *StorageError.
	Write(ctx context.Context, fingerprint string, reader io.Reader) (string, error)

	// Open returns a reader over the stored bytes for a locator.
	Open(ctx context.Context, locator string) (io.ReadCloser, error)

	// Remove deletes the stored bytes for a locator.
	Remove(ctx context.Context, locator string) error
}

// MetadataStore is the dedup index plus file-record and event bookkeeping.
type MetadataStore interface {
	// Register resolves a fingerprint to its canonical content entry. When
	// the fingerprint is unseen, persist is invoked to write the bytes and
	// the returned entry is canonical (created=true). Concurrent
	// registrations of the same fingerprint serialize: at most one caller
	// persists, all others observe the canonical entry (created=false).
	Register(ctx context.Context, fingerprint string, size int64, persist func(ctx context.Context) (string, error)) (*domain.ContentEntry, bool, error)

	// AddReference increments the canonical entry's reference count.
	AddReference(ctx context.Context, fingerprint string) (int, error)

	// ReleaseReference decrements the reference count. The entry stays in the
	// index at zero so RemoveIfUnreferenced can reclaim its bytes; deleting
	// the entry first would hide the blob from later sweeps if the physical
	// removal fails.
	ReleaseReference(ctx context.Context, fingerprint string) (remaining int, err error)

	GetContent(ctx context.Context, fingerprint string) (*domain.ContentEntry, error)
	ListOrphans(ctx context.Context) ([]*domain.ContentEntry, error)

	// RemoveIfUnreferenced deletes the entry and invokes destroy on its
	// locator, but only when the reference count is still zero at the moment
	// of removal. An entry that gained a reference since the caller last
	// looked is left alone (removed=false). When destroy fails the entry is
	// kept so a later sweep retries.
	RemoveIfUnreferenced(ctx context.Context, fingerprint string, destroy func(ctx context.Context, locator string) error) (removed bool, err error)

	SaveFile(ctx context.Context, record *domain.FileRecord) error
	GetFile(ctx context.Context, fileID string) (*domain.FileRecord, error)
	ListFiles(ctx context.Context) ([]*domain.FileRecord, error)
	DeleteFile(ctx context.Context, fileID string) error

	AppendEvent(ctx context.Context, event domain.DedupEvent) error
	EventsBetween(ctx context.Context, start, end time.Time) ([]domain.DedupEvent, error)

	MerkleRoot() string
	Counts() (contents, files, events int)

	// Checkpoint writes a best-effort snapshot to disk.
	Checkpoint() error
	Close() error
}

// IDGenerator defines ID generation capability for file records.
type IDGenerator interface {
	Next() (int64, error)
}
