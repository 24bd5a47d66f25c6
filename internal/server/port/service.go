package port

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/anthanhphan/go-dedup-file-store/internal/server/domain"
)

var (
	ErrFileNotFound    = errors.New("file not found")
	ErrContentNotFound = errors.New("content not found")

	// ErrSessionExpired is returned when chunks arrive for an upload ID that
	// has already expired or failed. The client must restart with a fresh ID.
	ErrSessionExpired = errors.New("upload session expired")

	ErrSessionIncomplete   = errors.New("upload session incomplete")
	ErrChunkOutOfRange     = errors.New("chunk index out of declared range")
	ErrTotalChunksMismatch = errors.New("total_chunks differs from session declaration")
	ErrMissingChunkPayload = errors.New("missing chunk payload")
	ErrMissingUploadID     = errors.New("missing upload_id")
	ErrInvalidTotalChunks  = errors.New("total_chunks must be at least 1")
)

// StorageError classifies an I/O failure as retriable or fatal so the
// finalizer can decide between bounded backoff and immediate failure.
type StorageError struct {
	Op        string
	Retriable bool
	Err       error
}

func (e *StorageError) Error() string {
	kind := "fatal"
	if e.Retriable {
		kind = "transient"
	}
	return fmt.Sprintf("%s storage error during %s: %v", kind, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsRetriableStorage reports whether err is a retriable storage error.
func IsRetriableStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Retriable
}

// ChunkUpload is one chunk arrival at the boundary.
type ChunkUpload struct {
	UploadID    string
	ChunkIndex  int
	TotalChunks int
	FileName    string
	FileType    string
	Data        []byte
}

// ChunkUploadResult is the boundary response for a chunk arrival. Complete is
// false while more chunks are expected; once the session completes, File is
// populated and IsDuplicate reports whether the content deduplicated.
type ChunkUploadResult struct {
	Complete       bool
	ReceivedChunks int
	TotalChunks    int
	IsDuplicate    bool
	File           *domain.FileRecord
}

// FileStoreService defines the business logic of the dedup file store.
type FileStoreService interface {
	// UploadChunk records one chunk arrival and finalizes the session when
	// the declared set becomes complete.
	UploadChunk(ctx context.Context, req ChunkUpload) (*ChunkUploadResult, error)

	// UploadFile is the single-request upload path. It routes through the
	// same dedup pipeline as a one-shot chunked session.
	UploadFile(ctx context.Context, fileName, fileType string, reader io.Reader) (*domain.FileRecord, bool, error)

	// ListFiles returns all file records, newest first.
	ListFiles(ctx context.Context) ([]*domain.FileRecord, error)

	// DeleteFile removes a file record. Canonical bytes are removed only when
	// the last referencing record is deleted.
	DeleteFile(ctx context.Context, fileID string) error

	// DownloadFile streams the file's bytes to writer and returns its record.
	DownloadFile(ctx context.Context, fileID string, writer io.Writer) (*domain.FileRecord, error)

	// WeeklySummary aggregates dedup events over the current Monday..Sunday week.
	WeeklySummary(ctx context.Context) (*domain.StorageSavingsSummary, error)

	// YearlySummary aggregates dedup events over the current calendar year.
	YearlySummary(ctx context.Context) (*domain.StorageSavingsSummary, error)

	// CollectGarbage deletes zero-reference content entries and their blobs.
	CollectGarbage(ctx context.Context, dryRun bool) (*domain.GCReport, error)

	// IntegrityReport returns the metadata store merkle root and counts.
	IntegrityReport(ctx context.Context) (*domain.IntegrityReport, error)
}
