package domain

import (
	"errors"
	"hash/crc32"
)

var (
	ErrChunkTooLarge   = errors.New("chunk exceeds maximum size")
	ErrFileTooLarge    = errors.New("file exceeds maximum size")
	ErrInvalidChecksum = errors.New("invalid chunk checksum")
)

// Chunk is one bounded-size piece of a larger file, identified by its index
// within the session's declared total.
type Chunk struct {
	UploadID string
	Index    int
	Data     []byte
	// Checksum is the CRC32 checksum of Data.
	Checksum uint32
}

// NewChunk creates a chunk and validates it against the configured size bound.
func NewChunk(uploadID string, index int, data []byte, maxSize int64) (*Chunk, error) {
	if int64(len(data)) > maxSize {
		return nil, ErrChunkTooLarge
	}

	return &Chunk{
		UploadID: uploadID,
		Index:    index,
		Data:     data,
		Checksum: crc32.ChecksumIEEE(data),
	}, nil
}

// Validate checks that the chunk data still matches its checksum.
func (c *Chunk) Validate() error {
	if crc32.ChecksumIEEE(c.Data) != c.Checksum {
		return ErrInvalidChecksum
	}
	return nil
}
