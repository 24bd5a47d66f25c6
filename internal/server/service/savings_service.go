package service

import (
	"context"
	"fmt"
	"time"

	"github.com/anthanhphan/go-dedup-file-store/internal/server/domain"
)

// savingsService computes storage-saved statistics from the dedup event
// history. Results are dashboard statistics recomputed on read, not billing
// records; concurrent appends land in later reads.
type savingsService struct {
	core *FileStoreImpl
}

// newSavingsService creates the savings aggregation use-case service.
func newSavingsService(core *FileStoreImpl) *savingsService {
	return &savingsService{core: core}
}

// summarize aggregates dedup events with detected_at in [start, end).
func (s *savingsService) summarize(ctx context.Context, start, end time.Time) (*domain.StorageSavingsSummary, error) {
	events, err := s.core.meta.EventsBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to scan dedup events: %w", err)
	}

	var savedBytes int64
	uniqueContents := make(map[string]struct{})
	typeCounts := make(map[string]int)
	typeFirstSeen := make(map[string]int)

	for i, ev := range events {
		savedBytes += ev.BytesSaved
		uniqueContents[ev.Fingerprint] = struct{}{}
		if _, seen := typeFirstSeen[ev.FileType]; !seen {
			typeFirstSeen[ev.FileType] = i
		}
		typeCounts[ev.FileType]++
	}

	summary := &domain.StorageSavingsSummary{
		PeriodStart:             start,
		PeriodEnd:               end,
		TotalDuplicatesDetected: len(events),
		StorageSavedBytes:       savedBytes,
		StorageSavedMB:          float64(savedBytes) / (1024 * 1024),
		StorageSavedGB:          float64(savedBytes) / (1024 * 1024 * 1024),
		UniqueFilesShared:       len(uniqueContents),
		MostDuplicatedType:      mostDuplicatedType(typeCounts, typeFirstSeen),
	}
	summary.StorageSavedMBDisplay = fmt.Sprintf("%.2f MB", summary.StorageSavedMB)
	summary.StorageSavedGBDisplay = fmt.Sprintf("%.2f GB", summary.StorageSavedGB)
	return summary, nil
}

// mostDuplicatedType picks the file type with the highest event count.
// Ties break toward the type seen earliest in the window; nil when there are
// no events.
func mostDuplicatedType(counts map[string]int, firstSeen map[string]int) *string {
	var best string
	bestCount := 0
	bestFirst := 0

	for fileType, count := range counts {
		first := firstSeen[fileType]
		if count > bestCount || (count == bestCount && (bestCount == 0 || first < bestFirst)) {
			best = fileType
			bestCount = count
			bestFirst = first
		}
	}

	if bestCount == 0 {
		return nil
	}
	return &best
}

// currentWeekWindow returns the Monday 00:00 start and exclusive end of the
// week containing now.
func currentWeekWindow(now time.Time) (time.Time, time.Time) {
	daysSinceMonday := (int(now.Weekday()) + 6) % 7
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	start := day.AddDate(0, 0, -daysSinceMonday)
	return start, start.AddDate(0, 0, 7)
}

// currentYearWindow returns the calendar-year window containing now.
func currentYearWindow(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(1, 0, 0)
}
