package meta

import (
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/anthanhphan/go-dedup-file-store/internal/server/domain"
	"github.com/anthanhphan/go-dedup-file-store/internal/server/port"
	"github.com/anthanhphan/go-dedup-file-store/pkg/merkle"
	"github.com/anthanhphan/gosdk/logger"
	"github.com/spaolacci/murmur3"
)

const registerStripes = 64

// Store is the in-process dedup index: canonical content entries keyed by
// fingerprint, file records, and the append-only dedup event log. State lives
// in memory; the on-disk gob snapshot is a best-effort checkpoint loaded at
// startup and written on close or on a timer.
type Store struct {
	mu   sync.RWMutex
	path string

	contents map[string]*domain.ContentEntry
	files    map[string]*domain.FileRecord
	events   []domain.DedupEvent

	// stripes serialize Register calls racing on the same fingerprint so at
	// most one caller persists canonical bytes.
	stripes [registerStripes]sync.Mutex

	merkleTree *merkle.Tree
}

var _ port.MetadataStore = (*Store)(nil)

// snapshot is the gob checkpoint layout.
type snapshot struct {
	Contents map[string]*domain.ContentEntry
	Files    map[string]*domain.FileRecord
	Events   []domain.DedupEvent
}

// NewStore loads the checkpoint at path if one exists.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create metadata directory: %w", err)
	}

	tree, err := merkle.New(1024)
	if err != nil {
		return nil, fmt.Errorf("failed to init merkle tree: %w", err)
	}

	s := &Store{
		path:       filepath.Clean(path),
		contents:   make(map[string]*domain.ContentEntry),
		files:      make(map[string]*domain.FileRecord),
		merkleTree: tree,
	}

	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	f, err := os.Open(s.path) // #nosec G304 -- path comes from app config
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open metadata snapshot: %w", err)
	}
	defer func() { _ = f.Close() }()

	var snap snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return fmt.Errorf("failed to decode metadata snapshot: %w", err)
	}

	if snap.Contents != nil {
		s.contents = snap.Contents
	}
	if snap.Files != nil {
		s.files = snap.Files
	}
	s.events = snap.Events

	for fp := range s.contents {
		s.updateMerkleBucket(fp)
	}

	logger.Infow("Metadata snapshot loaded",
		"contents", len(s.contents), "files", len(s.files), "events", len(s.events))
	return nil
}

// stripeFor maps a fingerprint to its registration stripe.
func (s *Store) stripeFor(fingerprint string) *sync.Mutex {
	return &s.stripes[murmur3.Sum64([]byte(fingerprint))%registerStripes]
}

// Register implements the at-most-one-canonical guarantee. The fingerprint's
// stripe is held across the persist callback, so a concurrent registration of
// identical content blocks briefly and then observes the canonical entry
// instead of writing a second copy.
func (s *Store) Register(ctx context.Context, fingerprint string, size int64, persist func(ctx context.Context) (string, error)) (*domain.ContentEntry, bool, error) {
	stripe := s.stripeFor(fingerprint)
	stripe.Lock()
	defer stripe.Unlock()

	s.mu.RLock()
	entry, exists := s.contents[fingerprint]
	s.mu.RUnlock()
	if exists {
		return copyEntry(entry), false, nil
	}

	locator, err := persist(ctx)
	if err != nil {
		return nil, false, err
	}

	entry = &domain.ContentEntry{
		Fingerprint:    fingerprint,
		Locator:        locator,
		Size:           size,
		ReferenceCount: 0,
		CreatedAt:      time.Now(),
	}

	s.mu.Lock()
	s.contents[fingerprint] = entry
	s.mu.Unlock()
	s.updateMerkleBucket(fingerprint)

	return copyEntry(entry), true, nil
}

// AddReference increments the canonical entry's reference count.
func (s *Store) AddReference(ctx context.Context, fingerprint string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.contents[fingerprint]
	if !exists {
		return 0, port.ErrContentNotFound
	}
	entry.ReferenceCount++
	return entry.ReferenceCount, nil
}

// ReleaseReference decrements the count. The entry survives at zero so its
// bytes stay reachable for RemoveIfUnreferenced; a failed physical removal
// then leaves an orphan the next sweep can still see.
func (s *Store) ReleaseReference(ctx context.Context, fingerprint string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.contents[fingerprint]
	if !exists {
		return 0, port.ErrContentNotFound
	}
	if entry.ReferenceCount > 0 {
		entry.ReferenceCount--
	}
	return entry.ReferenceCount, nil
}

func (s *Store) GetContent(ctx context.Context, fingerprint string) (*domain.ContentEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.contents[fingerprint]
	if !exists {
		return nil, port.ErrContentNotFound
	}
	return copyEntry(entry), nil
}

// ListOrphans returns content entries no file record references.
func (s *Store) ListOrphans(ctx context.Context) ([]*domain.ContentEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var orphans []*domain.ContentEntry
	for _, entry := range s.contents {
		if entry.ReferenceCount <= 0 {
			orphans = append(orphans, copyEntry(entry))
		}
	}
	sort.Slice(orphans, func(i, j int) bool { return orphans[i].Fingerprint < orphans[j].Fingerprint })
	return orphans, nil
}

// RemoveIfUnreferenced reclaims a zero-reference entry together with its
// stored bytes. The reference count is re-checked under s.mu at the moment
// the entry is claimed, so content that gained a reference after the caller's
// orphan scan is left untouched. The fingerprint's registration stripe is
// held across destroy so a racing Register cannot re-persist the same locator
// while its bytes are being deleted. On destroy failure the claimed entry is
// restored and stays visible to later sweeps.
func (s *Store) RemoveIfUnreferenced(ctx context.Context, fingerprint string, destroy func(ctx context.Context, locator string) error) (bool, error) {
	stripe := s.stripeFor(fingerprint)
	stripe.Lock()
	defer stripe.Unlock()

	s.mu.Lock()
	entry, exists := s.contents[fingerprint]
	if !exists || entry.ReferenceCount > 0 {
		s.mu.Unlock()
		return false, nil
	}
	claimed := copyEntry(entry)
	delete(s.contents, fingerprint)
	s.mu.Unlock()

	if destroy != nil {
		if err := destroy(ctx, claimed.Locator); err != nil {
			s.mu.Lock()
			s.contents[fingerprint] = claimed
			s.mu.Unlock()
			return false, err
		}
	}

	s.updateMerkleBucket(fingerprint)
	return true, nil
}

func (s *Store) SaveFile(ctx context.Context, record *domain.FileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *record
	s.files[record.ID] = &cp
	return nil
}

func (s *Store) GetFile(ctx context.Context, fileID string) (*domain.FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.files[fileID]
	if !exists {
		return nil, port.ErrFileNotFound
	}
	cp := *record
	return &cp, nil
}

// ListFiles returns all records, newest upload first.
func (s *Store) ListFiles(ctx context.Context) ([]*domain.FileRecord, error) {
	s.mu.RLock()
	records := make([]*domain.FileRecord, 0, len(s.files))
	for _, record := range s.files {
		cp := *record
		records = append(records, &cp)
	}
	s.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		if records[i].UploadedAt.Equal(records[j].UploadedAt) {
			return records[i].ID > records[j].ID
		}
		return records[i].UploadedAt.After(records[j].UploadedAt)
	})
	return records, nil
}

func (s *Store) DeleteFile(ctx context.Context, fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.files[fileID]; !exists {
		return port.ErrFileNotFound
	}
	delete(s.files, fileID)
	return nil
}

func (s *Store) AppendEvent(ctx context.Context, event domain.DedupEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, event)
	return nil
}

// EventsBetween returns a copy of events with detected_at in [start, end).
// Readers get a consistent snapshot; appends racing the scan land in later
// reads, which is acceptable staleness for a dashboard statistic.
func (s *Store) EventsBetween(ctx context.Context, start, end time.Time) ([]domain.DedupEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.DedupEvent
	for _, ev := range s.events {
		if ev.DetectedAt.Before(start) || !ev.DetectedAt.Before(end) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

// updateMerkleBucket recomputes the merkle leaf covering a fingerprint.
func (s *Store) updateMerkleBucket(fingerprint string) {
	numLeaves := uint64(s.merkleTree.Buckets()) // #nosec G115 -- leaf count
	if numLeaves == 0 {
		return
	}
	bucketID := int(murmur3.Sum64([]byte(fingerprint)) % numLeaves) // #nosec G115

	s.mu.RLock()
	var members []string
	for fp := range s.contents {
		if int(murmur3.Sum64([]byte(fp))%numLeaves) == bucketID {
			members = append(members, fp)
		}
	}
	s.mu.RUnlock()

	sort.Strings(members)
	h := sha256.New()
	for _, fp := range members {
		h.Write([]byte(fp))
	}

	leaf := ""
	if len(members) > 0 {
		leaf = hex.EncodeToString(h.Sum(nil))
	}
	if err := s.merkleTree.SetBucket(bucketID, leaf); err != nil {
		logger.Warnw("Merkle bucket update failed", "bucket_id", bucketID, "error", err.Error())
	}
}

func (s *Store) MerkleRoot() string {
	return s.merkleTree.Root()
}

func (s *Store) Counts() (int, int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.contents), len(s.files), len(s.events)
}

// Checkpoint writes the snapshot via temp file and atomic rename.
func (s *Store) Checkpoint() error {
	s.mu.RLock()
	snap := snapshot{
		Contents: make(map[string]*domain.ContentEntry, len(s.contents)),
		Files:    make(map[string]*domain.FileRecord, len(s.files)),
		Events:   make([]domain.DedupEvent, len(s.events)),
	}
	for fp, entry := range s.contents {
		snap.Contents[fp] = copyEntry(entry)
	}
	for id, record := range s.files {
		cp := *record
		snap.Files[id] = &cp
	}
	copy(snap.Events, s.events)
	s.mu.RUnlock()

	tmpPath := s.path + ".tmp"
	f, err := os.Create(tmpPath) // #nosec G304
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(&snap); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, s.path)
}

// Close checkpoints before shutdown.
func (s *Store) Close() error {
	if err := s.Checkpoint(); err != nil {
		logger.Warnw("Failed to save metadata snapshot on close", "error", err.Error())
		return err
	}
	return nil
}

func copyEntry(entry *domain.ContentEntry) *domain.ContentEntry {
	cp := *entry
	return &cp
}
