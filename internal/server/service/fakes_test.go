package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/anthanhphan/go-dedup-file-store/internal/server/config"
	"github.com/anthanhphan/go-dedup-file-store/internal/server/domain"
	"github.com/anthanhphan/go-dedup-file-store/internal/server/port"
)

// memStaging is an in-memory ChunkStaging for service tests.
type memStaging struct {
	mu     sync.Mutex
	chunks map[string]map[int][]byte
	evicts int
}

func newMemStaging() *memStaging {
	return &memStaging{chunks: make(map[string]map[int][]byte)}
}

func (m *memStaging) Put(ctx context.Context, uploadID string, index int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.chunks[uploadID]
	if !ok {
		session = make(map[int][]byte)
		m.chunks[uploadID] = session
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	session[index] = cp
	return nil
}

func (m *memStaging) OpenOrdered(ctx context.Context, uploadID string, total int) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session := m.chunks[uploadID]
	var buf bytes.Buffer
	for i := 0; i < total; i++ {
		data, ok := session[i]
		if !ok {
			return nil, fmt.Errorf("chunk %d missing: %w", i, port.ErrSessionIncomplete)
		}
		buf.Write(data)
	}
	return io.NopCloser(bytes.NewReader(buf.Bytes())), nil
}

func (m *memStaging) Evict(uploadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.chunks, uploadID)
	m.evicts++
	return nil
}

func (m *memStaging) sessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.chunks)
}

func (m *memStaging) chunkCount(uploadID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.chunks[uploadID])
}

// memBlobs is an in-memory BlobStore. Errors queued via failNext are returned
// by Write before any bytes are stored; errors queued via failNextRemove are
// returned by Remove before anything is deleted.
type memBlobs struct {
	mu         sync.Mutex
	data       map[string][]byte
	writes     int
	failures   []error
	removeErrs []error
}

func newMemBlobs() *memBlobs {
	return &memBlobs{data: make(map[string][]byte)}
}

func (m *memBlobs) failNext(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, errs...)
}

func (m *memBlobs) Write(ctx context.Context, fingerprint string, reader io.Reader) (string, error) {
	m.mu.Lock()
	m.writes++
	if len(m.failures) > 0 {
		err := m.failures[0]
		m.failures = m.failures[1:]
		m.mu.Unlock()
		return "", err
	}
	m.mu.Unlock()

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}

	locator := "content/" + fingerprint
	m.mu.Lock()
	m.data[locator] = data
	m.mu.Unlock()
	return locator, nil
}

func (m *memBlobs) Open(ctx context.Context, locator string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[locator]
	if !ok {
		return nil, port.ErrContentNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memBlobs) failNextRemove(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeErrs = append(m.removeErrs, errs...)
}

func (m *memBlobs) Remove(ctx context.Context, locator string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.removeErrs) > 0 {
		err := m.removeErrs[0]
		m.removeErrs = m.removeErrs[1:]
		return err
	}
	delete(m.data, locator)
	return nil
}

func (m *memBlobs) blobCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

func (m *memBlobs) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// memMeta is an in-memory MetadataStore with the same at-most-one-canonical
// Register contract as the production adapter.
type memMeta struct {
	mu       sync.Mutex
	contents map[string]*domain.ContentEntry
	files    map[string]*domain.FileRecord
	events   []domain.DedupEvent
}

func newMemMeta() *memMeta {
	return &memMeta{
		contents: make(map[string]*domain.ContentEntry),
		files:    make(map[string]*domain.FileRecord),
	}
}

func (m *memMeta) Register(ctx context.Context, fingerprint string, size int64, persist func(ctx context.Context) (string, error)) (*domain.ContentEntry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, ok := m.contents[fingerprint]; ok {
		cp := *entry
		return &cp, false, nil
	}

	locator, err := persist(ctx)
	if err != nil {
		return nil, false, err
	}

	entry := &domain.ContentEntry{
		Fingerprint: fingerprint,
		Locator:     locator,
		Size:        size,
		CreatedAt:   time.Now(),
	}
	m.contents[fingerprint] = entry
	cp := *entry
	return &cp, true, nil
}

func (m *memMeta) AddReference(ctx context.Context, fingerprint string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.contents[fingerprint]
	if !ok {
		return 0, port.ErrContentNotFound
	}
	entry.ReferenceCount++
	return entry.ReferenceCount, nil
}

func (m *memMeta) ReleaseReference(ctx context.Context, fingerprint string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.contents[fingerprint]
	if !ok {
		return 0, port.ErrContentNotFound
	}
	if entry.ReferenceCount > 0 {
		entry.ReferenceCount--
	}
	return entry.ReferenceCount, nil
}

func (m *memMeta) GetContent(ctx context.Context, fingerprint string) (*domain.ContentEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.contents[fingerprint]
	if !ok {
		return nil, port.ErrContentNotFound
	}
	cp := *entry
	return &cp, nil
}

func (m *memMeta) ListOrphans(ctx context.Context) ([]*domain.ContentEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var orphans []*domain.ContentEntry
	for _, entry := range m.contents {
		if entry.ReferenceCount <= 0 {
			cp := *entry
			orphans = append(orphans, &cp)
		}
	}
	return orphans, nil
}

func (m *memMeta) RemoveIfUnreferenced(ctx context.Context, fingerprint string, destroy func(ctx context.Context, locator string) error) (bool, error) {
	m.mu.Lock()
	entry, ok := m.contents[fingerprint]
	if !ok || entry.ReferenceCount > 0 {
		m.mu.Unlock()
		return false, nil
	}
	locator := entry.Locator
	delete(m.contents, fingerprint)
	m.mu.Unlock()

	if destroy != nil {
		if err := destroy(ctx, locator); err != nil {
			m.mu.Lock()
			m.contents[fingerprint] = entry
			m.mu.Unlock()
			return false, err
		}
	}
	return true, nil
}

func (m *memMeta) SaveFile(ctx context.Context, record *domain.FileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *record
	m.files[record.ID] = &cp
	return nil
}

func (m *memMeta) GetFile(ctx context.Context, fileID string) (*domain.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.files[fileID]
	if !ok {
		return nil, port.ErrFileNotFound
	}
	cp := *record
	return &cp, nil
}

func (m *memMeta) ListFiles(ctx context.Context) ([]*domain.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	records := make([]*domain.FileRecord, 0, len(m.files))
	for _, record := range m.files {
		cp := *record
		records = append(records, &cp)
	}
	return records, nil
}

func (m *memMeta) DeleteFile(ctx context.Context, fileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[fileID]; !ok {
		return port.ErrFileNotFound
	}
	delete(m.files, fileID)
	return nil
}

func (m *memMeta) AppendEvent(ctx context.Context, event domain.DedupEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *memMeta) EventsBetween(ctx context.Context, start, end time.Time) ([]domain.DedupEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.DedupEvent
	for _, ev := range m.events {
		if ev.DetectedAt.Before(start) || !ev.DetectedAt.Before(end) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func (m *memMeta) MerkleRoot() string { return "test-root" }

func (m *memMeta) Counts() (int, int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.contents), len(m.files), len(m.events)
}

func (m *memMeta) Checkpoint() error { return nil }
func (m *memMeta) Close() error      { return nil }

func (m *memMeta) eventCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func (m *memMeta) fileCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

// nopReader returns a reader over size zero bytes.
func nopReader(size int64) io.Reader {
	return bytes.NewReader(make([]byte, size))
}

// fakeIDGen hands out sequential IDs.
type fakeIDGen struct {
	mu   sync.Mutex
	next int64
}

func (f *fakeIDGen) Next() (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	return f.next, nil
}

// testEnv bundles the facade with its fakes.
type testEnv struct {
	svc     *FileStoreImpl
	staging *memStaging
	blobs   *memBlobs
	meta    *memMeta
}

func newTestEnv(mutate func(cfg *config.Config)) *testEnv {
	cfg := config.DefaultConfig()
	cfg.App.RetryBackoffMS = 1
	if mutate != nil {
		mutate(cfg)
	}

	staging := newMemStaging()
	blobs := newMemBlobs()
	meta := newMemMeta()
	return &testEnv{
		svc:     NewFileStore(cfg, staging, blobs, meta, &fakeIDGen{}),
		staging: staging,
		blobs:   blobs,
		meta:    meta,
	}
}
