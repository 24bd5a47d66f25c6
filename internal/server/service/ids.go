package service

import (
	"fmt"

	"github.com/anthanhphan/go-dedup-file-store/internal/server/port"
	"github.com/google/uuid"
)

// nextFileID allocates a unique file record ID from the configured generator.
func nextFileID(idGen port.IDGenerator) (string, error) {
	id, err := idGen.Next()
	if err != nil {
		return "", fmt.Errorf("failed to generate snowflake id: %w", err)
	}
	return fmt.Sprintf("%d", id), nil
}

// newEventID returns the identifier for a dedup event.
func newEventID() string {
	return uuid.NewString()
}

// newDirectUploadID builds a server-side session ID for single-request uploads.
func newDirectUploadID() string {
	return "direct-" + uuid.NewString()
}
