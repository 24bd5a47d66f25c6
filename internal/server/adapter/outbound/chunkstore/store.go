package chunkstore

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"

	"github.com/anthanhphan/go-dedup-file-store/internal/server/domain"
	"github.com/anthanhphan/go-dedup-file-store/internal/server/port"
)

const chunkFileSuffix = ".chunk"

// Store is a disk-backed staging area for in-flight upload sessions. Each
// session gets its own directory; each chunk is one framed file:
// Data_Len (4) | Data (N) | Checksum (4).
type Store struct {
	rootDir      string
	maxChunkSize int64
}

var _ port.ChunkStaging = (*Store)(nil)

// NewStore initializes the staging root directory.
func NewStore(rootDir string, maxChunkSize int64) (*Store, error) {
	if err := os.MkdirAll(rootDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	return &Store{
		rootDir:      filepath.Clean(rootDir),
		maxChunkSize: maxChunkSize,
	}, nil
}

// sessionDir maps an opaque client-generated upload ID to a directory name.
// Hashing keeps arbitrary IDs out of filesystem paths.
func (s *Store) sessionDir(uploadID string) string {
	h := sha256.Sum256([]byte(uploadID))
	return filepath.Join(s.rootDir, hex.EncodeToString(h[:]))
}

func (s *Store) chunkPath(uploadID string, index int) string {
	return filepath.Join(s.sessionDir(uploadID), fmt.Sprintf("%06d%s", index, chunkFileSuffix))
}

// Put stages one chunk. Re-delivery at the same index overwrites atomically
// via rename, so a retry after an ambiguous network failure never errors.
func (s *Store) Put(ctx context.Context, uploadID string, index int, data []byte) error {
	chunk, err := domain.NewChunk(uploadID, index, data, s.maxChunkSize)
	if err != nil {
		return err
	}

	dir := s.sessionDir(uploadID)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	frame := make([]byte, 4+len(data)+4)
	binary.BigEndian.PutUint32(frame[0:4], uint32(len(data))) // #nosec G115 -- bounded by maxChunkSize
	copy(frame[4:4+len(data)], data)
	binary.BigEndian.PutUint32(frame[4+len(data):], chunk.Checksum)

	finalPath := s.chunkPath(uploadID, index)
	tmpPath := finalPath + ".tmp"
	if err := os.WriteFile(tmpPath, frame, 0600); err != nil {
		return fmt.Errorf("failed to write chunk %d: %w", index, err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to publish chunk %d: %w", index, err)
	}

	return nil
}

// OpenOrdered returns a reader over chunks 0..total-1 concatenated in index
// order. Ordering is by chunk index, never arrival order.
func (s *Store) OpenOrdered(ctx context.Context, uploadID string, total int) (io.ReadCloser, error) {
	paths := make([]string, 0, total)
	for i := 0; i < total; i++ {
		path := s.chunkPath(uploadID, i)
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("chunk %d missing: %w", i, port.ErrSessionIncomplete)
			}
			return nil, fmt.Errorf("failed to stat chunk %d: %w", i, err)
		}
		paths = append(paths, path)
	}

	return &orderedReader{paths: paths}, nil
}

// Evict releases every chunk staged for the session.
func (s *Store) Evict(uploadID string) error {
	return os.RemoveAll(s.sessionDir(uploadID))
}

// orderedReader streams framed chunk files sequentially, validating each
// chunk's checksum as its last byte is consumed. Files are opened lazily so
// large sessions never hold more than one descriptor.
type orderedReader struct {
	paths     []string
	next      int
	cur       *os.File
	remaining int64
	expected  uint32
	crc       uint32
	closed    bool
}

func (r *orderedReader) Read(p []byte) (int, error) {
	if r.closed {
		return 0, os.ErrClosed
	}

	for {
		if r.cur == nil {
			if r.next >= len(r.paths) {
				return 0, io.EOF
			}
			if err := r.openNext(); err != nil {
				return 0, err
			}
		}

		if r.remaining == 0 {
			if err := r.finishCurrent(); err != nil {
				return 0, err
			}
			continue
		}

		limit := int64(len(p))
		if limit > r.remaining {
			limit = r.remaining
		}
		n, err := r.cur.Read(p[:limit])
		if n > 0 {
			r.crc = crc32.Update(r.crc, crc32.IEEETable, p[:n])
			r.remaining -= int64(n)
		}
		if err == io.EOF && r.remaining > 0 {
			return n, fmt.Errorf("chunk file truncated: %w", io.ErrUnexpectedEOF)
		}
		if err != nil && err != io.EOF {
			return n, err
		}
		if n == 0 && r.remaining > 0 {
			continue
		}
		return n, nil
	}
}

func (r *orderedReader) openNext() error {
	f, err := os.Open(r.paths[r.next]) // #nosec G304 -- paths built from internal staging dir
	if err != nil {
		return err
	}

	header := make([]byte, 4)
	if _, err := io.ReadFull(f, header); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to read chunk header: %w", err)
	}

	r.cur = f
	r.remaining = int64(binary.BigEndian.Uint32(header))
	r.expected = 0
	r.crc = 0
	r.next++
	return nil
}

func (r *orderedReader) finishCurrent() error {
	trailer := make([]byte, 4)
	if _, err := io.ReadFull(r.cur, trailer); err != nil {
		_ = r.cur.Close()
		r.cur = nil
		return fmt.Errorf("failed to read chunk checksum: %w", err)
	}
	r.expected = binary.BigEndian.Uint32(trailer)

	err := r.cur.Close()
	r.cur = nil
	if err != nil {
		return err
	}
	if r.crc != r.expected {
		return domain.ErrInvalidChecksum
	}
	return nil
}

func (r *orderedReader) Close() error {
	r.closed = true
	if r.cur != nil {
		err := r.cur.Close()
		r.cur = nil
		return err
	}
	return nil
}
