package domain

import "time"

// FileRecord is the user-visible metadata for one uploaded file. Multiple
// records may share the same content entry when their bytes are identical.
type FileRecord struct {
	ID                 string    `json:"id"`
	OriginalFilename   string    `json:"original_filename"`
	FileType           string    `json:"file_type"`
	Size               int64     `json:"size"`
	ContentFingerprint string    `json:"content_fingerprint"`
	UploadedAt         time.Time `json:"uploaded_at"`
}

// ContentEntry is the canonical stored copy for one content fingerprint.
// Exactly one entry exists per distinct fingerprint; ReferenceCount counts
// the FileRecords sharing its bytes.
type ContentEntry struct {
	Fingerprint    string    `json:"fingerprint"`
	Locator        string    `json:"locator"`
	Size           int64     `json:"size"`
	ReferenceCount int       `json:"reference_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// DedupEvent is an immutable record of one detected duplicate upload.
// BytesSaved is the size of the duplicate that was not re-stored.
type DedupEvent struct {
	ID               string    `json:"id"`
	Fingerprint      string    `json:"fingerprint"`
	FileID           string    `json:"file_id"`
	OriginalFilename string    `json:"original_filename"`
	FileType         string    `json:"file_type"`
	BytesSaved       int64     `json:"bytes_saved"`
	DetectedAt       time.Time `json:"detected_at"`
}

// StorageSavingsSummary is a windowed aggregate over the dedup event history.
// Derived on read, never the source of truth.
type StorageSavingsSummary struct {
	PeriodStart             time.Time `json:"period_start"`
	PeriodEnd               time.Time `json:"period_end"`
	TotalDuplicatesDetected int       `json:"total_duplicates_detected"`
	StorageSavedBytes       int64     `json:"storage_saved_bytes"`
	StorageSavedMB          float64   `json:"storage_saved_mb"`
	StorageSavedGB          float64   `json:"storage_saved_gb"`
	StorageSavedMBDisplay   string    `json:"storage_saved_mb_display"`
	StorageSavedGBDisplay   string    `json:"storage_saved_gb_display"`
	UniqueFilesShared       int       `json:"unique_files_shared"`
	MostDuplicatedType      *string   `json:"most_duplicated_type"`
}

// GCReport summarizes one orphaned-content sweep.
type GCReport struct {
	DryRun         bool     `json:"dry_run"`
	OrphansFound   int      `json:"orphans_found"`
	BytesReclaimed int64    `json:"bytes_reclaimed"`
	Fingerprints   []string `json:"fingerprints,omitempty"`
}

// IntegrityReport exposes the metadata store's merkle root and entry counts.
type IntegrityReport struct {
	MerkleRoot   string `json:"merkle_root"`
	ContentCount int    `json:"content_count"`
	FileCount    int    `json:"file_count"`
	EventCount   int    `json:"event_count"`
}
