package service

import (
	"context"

	"github.com/anthanhphan/go-dedup-file-store/internal/server/domain"
	"github.com/anthanhphan/gosdk/logger"
)

// gcService removes content entries no file record references, together with
// their stored bytes. Orphans appear when the last record's delete could not
// remove the blob, leaving the zero-reference entry behind.
type gcService struct {
	core *FileStoreImpl
}

// newGCService creates the garbage collection use-case service.
func newGCService(core *FileStoreImpl) *gcService {
	return &gcService{core: core}
}

// collectGarbage scans for zero-reference content and deletes it. With dryRun
// set it only reports what would be deleted.
func (s *gcService) collectGarbage(ctx context.Context, dryRun bool) (*domain.GCReport, error) {
	orphans, err := s.core.meta.ListOrphans(ctx)
	if err != nil {
		return nil, err
	}
	logger.Infow("Garbage collection started", "orphans", len(orphans), "dry_run", dryRun)

	report := &domain.GCReport{DryRun: dryRun}
	for _, entry := range orphans {
		if !dryRun {
			removed, err := s.core.meta.RemoveIfUnreferenced(ctx, entry.Fingerprint, s.core.blobs.Remove)
			if err != nil {
				logger.Warnw("GC removal failed",
					"fingerprint", entry.Fingerprint, "locator", entry.Locator, "error", err.Error())
				continue
			}
			if !removed {
				// Gained a reference after the scan.
				continue
			}
		}

		report.OrphansFound++
		report.BytesReclaimed += entry.Size
		report.Fingerprints = append(report.Fingerprints, entry.Fingerprint)
	}

	logger.Infow("Garbage collection finished",
		"orphans", report.OrphansFound, "bytes_reclaimed", report.BytesReclaimed, "dry_run", dryRun)
	return report, nil
}
