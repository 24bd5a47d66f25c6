package service

import (
	"context"
	"fmt"
	"io"

	"github.com/anthanhphan/go-dedup-file-store/internal/server/domain"
	"github.com/anthanhphan/gosdk/logger"
)

// uploadService handles the single-request upload path. It chunks the stream
// server-side into the same staging area the chunked protocol uses, so both
// paths share one finalize pipeline and one dedup index.
type uploadService struct {
	core      *FileStoreImpl
	finalizer *finalizeService
}

// newUploadService creates the direct upload use-case service.
func newUploadService(core *FileStoreImpl, finalizer *finalizeService) *uploadService {
	return &uploadService{core: core, finalizer: finalizer}
}

// uploadFile stages the stream as sequential chunks and finalizes in place.
func (s *uploadService) uploadFile(ctx context.Context, fileName, fileType string, reader io.Reader) (*domain.FileRecord, bool, error) {
	uploadID := newDirectUploadID()
	logger.Infow("Direct upload started", "upload_id", uploadID, "file_name", fileName)

	totalChunks, size, err := s.stageStream(ctx, uploadID, reader)
	if err != nil {
		_ = s.core.staging.Evict(uploadID)
		logger.Errorw("Direct upload failed", "upload_id", uploadID, "error", err.Error())
		return nil, false, err
	}

	sess := domain.NewUploadSession(uploadID, fileName, fileType, totalChunks)
	for i := 0; i < totalChunks; i++ {
		sess.MarkReceived(i)
	}
	sess.State = domain.SessionAssembling

	record, isDuplicate, err := s.finalizer.finalize(ctx, sess)
	if err != nil {
		_ = s.core.staging.Evict(uploadID)
		logger.Errorw("Direct upload finalize failed", "upload_id", uploadID, "error", err.Error())
		return nil, false, err
	}

	logger.Infow("Direct upload completed",
		"upload_id", uploadID, "file_id", record.ID, "size_bytes", size, "deduplicated", isDuplicate)
	return record, isDuplicate, nil
}

// stageStream splits the reader into chunk-bound pieces. A zero-byte stream
// still produces one empty chunk so the session invariant total >= 1 holds.
func (s *uploadService) stageStream(ctx context.Context, uploadID string, reader io.Reader) (int, int64, error) {
	chunkSize := s.core.cfg.App.ChunkSize
	maxFileSize := s.core.cfg.App.MaxFileSize
	buffer := make([]byte, chunkSize)

	index := 0
	var total int64
	for {
		readN, readErr := io.ReadFull(reader, buffer)
		if readN > 0 {
			total += int64(readN)
			if maxFileSize > 0 && total > maxFileSize {
				return 0, 0, fmt.Errorf("%w of %d bytes", domain.ErrFileTooLarge, maxFileSize)
			}
			if err := s.core.staging.Put(ctx, uploadID, index, buffer[:readN]); err != nil {
				return 0, 0, fmt.Errorf("failed to stage chunk %d: %w", index, err)
			}
			index++
		}

		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			break
		}
		if readErr != nil {
			return 0, 0, fmt.Errorf("read error: %w", readErr)
		}
	}

	if index == 0 {
		if err := s.core.staging.Put(ctx, uploadID, 0, []byte{}); err != nil {
			return 0, 0, fmt.Errorf("failed to stage empty chunk: %w", err)
		}
		index = 1
	}

	return index, total, nil
}
