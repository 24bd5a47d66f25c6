package service

import (
	"context"
	"io"
	"time"

	"github.com/anthanhphan/go-dedup-file-store/internal/server/config"
	"github.com/anthanhphan/go-dedup-file-store/internal/server/domain"
	"github.com/anthanhphan/go-dedup-file-store/internal/server/port"
)

// FileStoreImpl is the facade that wires use-case services for the dedup
// file store.
type FileStoreImpl struct {
	cfg     *config.Config
	staging port.ChunkStaging
	blobs   port.BlobStore
	meta    port.MetadataStore
	idGen   port.IDGenerator

	sessionUseCase  *sessionService
	uploadUseCase   *uploadService
	finalizeUseCase *finalizeService
	recordUseCase   *recordService
	savingsUseCase  *savingsService
	gcUseCase       *gcService
}

// Ensure FileStoreImpl implements port.FileStoreService.
var _ port.FileStoreService = (*FileStoreImpl)(nil)

// NewFileStore builds the file store facade and all use-case services.
func NewFileStore(cfg *config.Config, staging port.ChunkStaging, blobs port.BlobStore, meta port.MetadataStore, idGen port.IDGenerator) *FileStoreImpl {
	svc := &FileStoreImpl{
		cfg:     cfg,
		staging: staging,
		blobs:   blobs,
		meta:    meta,
		idGen:   idGen,
	}

	svc.finalizeUseCase = newFinalizeService(svc)
	svc.sessionUseCase = newSessionService(svc, svc.finalizeUseCase)
	svc.uploadUseCase = newUploadService(svc, svc.finalizeUseCase)
	svc.recordUseCase = newRecordService(svc)
	svc.savingsUseCase = newSavingsService(svc)
	svc.gcUseCase = newGCService(svc)

	return svc
}

// UploadChunk delegates one chunk arrival to the session use-case service.
func (s *FileStoreImpl) UploadChunk(ctx context.Context, req port.ChunkUpload) (*port.ChunkUploadResult, error) {
	return s.sessionUseCase.uploadChunk(ctx, req)
}

// UploadFile delegates the single-request upload path.
func (s *FileStoreImpl) UploadFile(ctx context.Context, fileName, fileType string, reader io.Reader) (*domain.FileRecord, bool, error) {
	return s.uploadUseCase.uploadFile(ctx, fileName, fileType, reader)
}

// ListFiles delegates to the record use-case service.
func (s *FileStoreImpl) ListFiles(ctx context.Context) ([]*domain.FileRecord, error) {
	return s.recordUseCase.listFiles(ctx)
}

// DeleteFile delegates refcounted deletion to the record use-case service.
func (s *FileStoreImpl) DeleteFile(ctx context.Context, fileID string) error {
	return s.recordUseCase.deleteFile(ctx, fileID)
}

// DownloadFile delegates byte streaming to the record use-case service.
func (s *FileStoreImpl) DownloadFile(ctx context.Context, fileID string, writer io.Writer) (*domain.FileRecord, error) {
	return s.recordUseCase.downloadFile(ctx, fileID, writer)
}

// WeeklySummary aggregates over the current Monday..Sunday week.
func (s *FileStoreImpl) WeeklySummary(ctx context.Context) (*domain.StorageSavingsSummary, error) {
	start, end := currentWeekWindow(time.Now())
	return s.savingsUseCase.summarize(ctx, start, end)
}

// YearlySummary aggregates over the current calendar year.
func (s *FileStoreImpl) YearlySummary(ctx context.Context) (*domain.StorageSavingsSummary, error) {
	start, end := currentYearWindow(time.Now())
	return s.savingsUseCase.summarize(ctx, start, end)
}

// CollectGarbage delegates the orphan sweep to the GC use-case service.
func (s *FileStoreImpl) CollectGarbage(ctx context.Context, dryRun bool) (*domain.GCReport, error) {
	return s.gcUseCase.collectGarbage(ctx, dryRun)
}

// IntegrityReport reads merkle root and entry counts from the metadata store.
func (s *FileStoreImpl) IntegrityReport(ctx context.Context) (*domain.IntegrityReport, error) {
	contents, files, events := s.meta.Counts()
	return &domain.IntegrityReport{
		MerkleRoot:   s.meta.MerkleRoot(),
		ContentCount: contents,
		FileCount:    files,
		EventCount:   events,
	}, nil
}

// SweepSessions expires idle sessions and drops terminal ones past retention.
// Called by the background sweeper, exposed for the app wiring.
func (s *FileStoreImpl) SweepSessions(now time.Time) {
	s.sessionUseCase.sweep(now)
}

// maxRetries returns finalizer retry count with safe default.
func (s *FileStoreImpl) maxRetries() int {
	if s.cfg.App.MaxRetries > 0 {
		return s.cfg.App.MaxRetries
	}
	return 3
}

// retryBackoff returns the base backoff between finalizer attempts.
func (s *FileStoreImpl) retryBackoff() time.Duration {
	if s.cfg.App.RetryBackoffMS > 0 {
		return time.Duration(s.cfg.App.RetryBackoffMS) * time.Millisecond
	}
	return 200 * time.Millisecond
}

// sessionTTL returns the inactivity window before a session expires.
func (s *FileStoreImpl) sessionTTL() time.Duration {
	if s.cfg.App.SessionTTLSec > 0 {
		return time.Duration(s.cfg.App.SessionTTLSec) * time.Second
	}
	return 30 * time.Minute
}

// retention returns how long terminal sessions stay visible for diagnosis.
func (s *FileStoreImpl) retention() time.Duration {
	if s.cfg.App.RetentionSec > 0 {
		return time.Duration(s.cfg.App.RetentionSec) * time.Second
	}
	return 5 * time.Minute
}
