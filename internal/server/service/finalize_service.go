package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/anthanhphan/go-dedup-file-store/internal/server/domain"
	"github.com/anthanhphan/go-dedup-file-store/internal/server/port"
	"github.com/anthanhphan/go-dedup-file-store/pkg/resilience"
	"github.com/anthanhphan/gosdk/logger"
)

// finalizeService assembles a complete session into a file record, consulting
// the dedup index so identical content is never stored twice.
type finalizeService struct {
	core    *FileStoreImpl
	breaker *resilience.CircuitBreaker
}

// newFinalizeService creates the finalize use-case service. The circuit
// breaker guards blob writes so a misbehaving disk fails fast instead of
// stalling every completing session.
func newFinalizeService(core *FileStoreImpl) *finalizeService {
	return &finalizeService{
		core: core,
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:             "blob-write",
			FailureThreshold: 5,
			OpenTimeout:      15 * time.Second,
		}),
	}
}

// finalize runs the full pipeline: fingerprint the assembled stream, register
// it, persist bytes only when this content is unseen, record the file record
// and dedup event, and release the staged chunks. The returned bool reports
// whether the upload deduplicated against existing content.
func (s *finalizeService) finalize(ctx context.Context, sess *domain.UploadSession) (*domain.FileRecord, bool, error) {
	fingerprint, size, err := s.fingerprintSession(ctx, sess)
	if err != nil {
		return nil, false, err
	}

	entry, created, err := s.core.meta.Register(ctx, fingerprint, size, func(persistCtx context.Context) (string, error) {
		return s.persistWithRetry(persistCtx, sess, fingerprint)
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to register content: %w", err)
	}

	record, err := s.buildFileRecord(ctx, sess, entry)
	if err != nil {
		return nil, false, err
	}

	if !created {
		s.recordDedupEvent(ctx, sess, record, size)
	}

	if err := s.core.staging.Evict(sess.UploadID); err != nil {
		logger.Warnw("Failed to release staged chunks after finalize",
			"upload_id", sess.UploadID, "error", err.Error())
	}

	logger.Infow("Upload finalized",
		"upload_id", sess.UploadID,
		"file_id", record.ID,
		"size_bytes", size,
		"deduplicated", !created)
	return record, !created, nil
}

// fingerprintSession streams chunks 0..total-1 in index order through SHA-256.
// The fingerprint covers the complete ordered concatenation, never partial data.
func (s *finalizeService) fingerprintSession(ctx context.Context, sess *domain.UploadSession) (string, int64, error) {
	reader, err := s.core.staging.OpenOrdered(ctx, sess.UploadID, sess.TotalChunks)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open assembled stream: %w", err)
	}
	defer func() { _ = reader.Close() }()

	h := sha256.New()
	size, err := io.Copy(h, reader)
	if err != nil {
		return "", 0, fmt.Errorf("failed to fingerprint assembled stream: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), size, nil
}

// persistWithRetry writes the assembled stream to durable storage. Transient
// failures retry with bounded exponential backoff; fatal failures (disk full)
// and an open circuit surface immediately.
func (s *finalizeService) persistWithRetry(ctx context.Context, sess *domain.UploadSession, fingerprint string) (string, error) {
	maxAttempts := s.core.maxRetries()
	backoff := s.core.retryBackoff()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		locator, err := s.persistOnce(ctx, sess, fingerprint)
		if err == nil {
			return locator, nil
		}
		lastErr = err

		if errors.Is(err, resilience.ErrCircuitOpen) {
			return "", err
		}
		if !port.IsRetriableStorage(err) {
			return "", err
		}

		logger.Warnw("Blob write failed, retrying",
			"upload_id", sess.UploadID, "attempt", attempt, "error", err.Error())

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff << (attempt - 1)):
		}
	}

	return "", fmt.Errorf("blob write exhausted %d attempts: %w", maxAttempts, lastErr)
}

// persistOnce re-opens the ordered stream and writes it under breaker control.
func (s *finalizeService) persistOnce(ctx context.Context, sess *domain.UploadSession, fingerprint string) (string, error) {
	reader, err := s.core.staging.OpenOrdered(ctx, sess.UploadID, sess.TotalChunks)
	if err != nil {
		return "", fmt.Errorf("failed to reopen assembled stream: %w", err)
	}
	defer func() { _ = reader.Close() }()

	var locator string
	execErr := s.breaker.Execute(ctx, func(execCtx context.Context) error {
		var writeErr error
		locator, writeErr = s.core.blobs.Write(execCtx, fingerprint, reader)
		return writeErr
	})
	if execErr != nil {
		return "", execErr
	}
	return locator, nil
}

// buildFileRecord registers a reference and persists the file record.
func (s *finalizeService) buildFileRecord(ctx context.Context, sess *domain.UploadSession, entry *domain.ContentEntry) (*domain.FileRecord, error) {
	fileID, err := nextFileID(s.core.idGen)
	if err != nil {
		return nil, err
	}

	if _, err := s.core.meta.AddReference(ctx, entry.Fingerprint); err != nil {
		return nil, fmt.Errorf("failed to add content reference: %w", err)
	}

	record := &domain.FileRecord{
		ID:                 fileID,
		OriginalFilename:   sess.FileName,
		FileType:           sess.FileType,
		Size:               entry.Size,
		ContentFingerprint: entry.Fingerprint,
		UploadedAt:         time.Now(),
	}

	if err := s.core.meta.SaveFile(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save file record: %w", err)
	}
	return record, nil
}

// recordDedupEvent appends the immutable duplicate-detected record consumed
// by the savings aggregator.
func (s *finalizeService) recordDedupEvent(ctx context.Context, sess *domain.UploadSession, record *domain.FileRecord, bytesSaved int64) {
	event := domain.DedupEvent{
		ID:               newEventID(),
		Fingerprint:      record.ContentFingerprint,
		FileID:           record.ID,
		OriginalFilename: record.OriginalFilename,
		FileType:         record.FileType,
		BytesSaved:       bytesSaved,
		DetectedAt:       time.Now(),
	}
	if err := s.core.meta.AppendEvent(ctx, event); err != nil {
		logger.Warnw("Failed to append dedup event",
			"file_id", record.ID, "error", err.Error())
	}
}
