package service

import (
	"context"
	"fmt"
	"io"

	"github.com/anthanhphan/go-dedup-file-store/internal/server/domain"
	"github.com/anthanhphan/gosdk/logger"
)

// recordService handles file record reads, downloads, and refcounted deletes.
type recordService struct {
	core *FileStoreImpl
}

// newRecordService creates the record use-case service.
func newRecordService(core *FileStoreImpl) *recordService {
	return &recordService{core: core}
}

// listFiles returns all file records, newest first.
func (s *recordService) listFiles(ctx context.Context) ([]*domain.FileRecord, error) {
	return s.core.meta.ListFiles(ctx)
}

// deleteFile removes the record and releases its content reference. Canonical
// bytes survive as long as any other record still points at them; the last
// release removes them physically.
func (s *recordService) deleteFile(ctx context.Context, fileID string) error {
	record, err := s.core.meta.GetFile(ctx, fileID)
	if err != nil {
		return err
	}

	if err := s.core.meta.DeleteFile(ctx, fileID); err != nil {
		return err
	}

	remaining, err := s.core.meta.ReleaseReference(ctx, record.ContentFingerprint)
	if err != nil {
		logger.Warnw("Failed to release content reference",
			"file_id", fileID, "fingerprint", record.ContentFingerprint, "error", err.Error())
		return nil
	}

	if remaining == 0 {
		removed, err := s.core.meta.RemoveIfUnreferenced(ctx, record.ContentFingerprint, s.core.blobs.Remove)
		if err != nil {
			// The zero-reference entry stays in the index, so the orphan GC
			// sweep retries this later.
			logger.Warnw("Failed to remove unreferenced content",
				"fingerprint", record.ContentFingerprint, "error", err.Error())
			return nil
		}
		if removed {
			logger.Infow("Last reference deleted, content removed",
				"file_id", fileID, "fingerprint", record.ContentFingerprint)
		}
	}
	return nil
}

// downloadFile streams the record's canonical bytes to writer.
func (s *recordService) downloadFile(ctx context.Context, fileID string, writer io.Writer) (*domain.FileRecord, error) {
	record, err := s.core.meta.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}

	entry, err := s.core.meta.GetContent(ctx, record.ContentFingerprint)
	if err != nil {
		return nil, err
	}

	reader, err := s.core.blobs.Open(ctx, entry.Locator)
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	if _, err := io.Copy(writer, reader); err != nil {
		return nil, fmt.Errorf("failed to stream file %s: %w", fileID, err)
	}
	return record, nil
}
