package domain

import "time"

// SessionState is the lifecycle state of an upload session.
type SessionState string

const (
	// SessionReceiving accepts chunk arrivals until the declared set is complete.
	SessionReceiving SessionState = "receiving"
	// SessionAssembling means the last chunk arrived and finalization is running.
	SessionAssembling SessionState = "assembling"
	// SessionCompleted means a FileRecord exists for this upload.
	SessionCompleted SessionState = "completed"
	// SessionFailed means finalization gave up; the client must restart fresh.
	SessionFailed SessionState = "failed"
	// SessionExpired means the session idled past the inactivity window.
	SessionExpired SessionState = "expired"
)

// Terminal reports whether the state accepts no further chunk activity.
func (s SessionState) Terminal() bool {
	return s == SessionCompleted || s == SessionFailed || s == SessionExpired
}

// UploadSession tracks all chunks belonging to one logical file upload.
// The upload ID is client-generated and scoped to a single file.
type UploadSession struct {
	UploadID       string       `json:"upload_id"`
	FileName       string       `json:"file_name"`
	FileType       string       `json:"file_type"`
	TotalChunks    int          `json:"total_chunks"`
	Received       map[int]bool `json:"received"`
	State          SessionState `json:"state"`
	FileID         string       `json:"file_id,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	LastActivityAt time.Time    `json:"last_activity_at"`
}

// NewUploadSession creates a session in the Receiving state.
func NewUploadSession(uploadID, fileName, fileType string, totalChunks int) *UploadSession {
	now := time.Now()
	return &UploadSession{
		UploadID:       uploadID,
		FileName:       fileName,
		FileType:       fileType,
		TotalChunks:    totalChunks,
		Received:       make(map[int]bool, totalChunks),
		State:          SessionReceiving,
		CreatedAt:      now,
		LastActivityAt: now,
	}
}

// MarkReceived records the arrival of a chunk index and resets the expiry clock.
// Re-delivery of an already-received index is allowed (last-write-wins upstream).
func (s *UploadSession) MarkReceived(index int) {
	s.Received[index] = true
	s.LastActivityAt = time.Now()
}

// Complete reports whether every index in [0, TotalChunks) has been received.
func (s *UploadSession) Complete() bool {
	return len(s.Received) == s.TotalChunks
}

// IdleSince reports whether the session has seen no activity since the cutoff.
func (s *UploadSession) IdleSince(cutoff time.Time) bool {
	return s.LastActivityAt.Before(cutoff)
}
