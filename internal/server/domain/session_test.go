package domain

import (
	"testing"
	"time"
)

func TestUploadSession_CompleteRequiresEveryIndex(t *testing.T) {
	sess := NewUploadSession("upload-1", "report.pdf", "application/pdf", 3)

	if sess.State != SessionReceiving {
		t.Fatalf("expected new session in receiving state, got %s", sess.State)
	}
	if sess.Complete() {
		t.Fatal("empty session must not be complete")
	}

	sess.MarkReceived(2)
	sess.MarkReceived(0)
	if sess.Complete() {
		t.Fatal("session with a missing index must not be complete")
	}

	sess.MarkReceived(1)
	if !sess.Complete() {
		t.Fatal("session with every index received must be complete")
	}
}

func TestUploadSession_RedeliveryDoesNotInflateCount(t *testing.T) {
	sess := NewUploadSession("upload-2", "a.bin", "application/octet-stream", 2)

	sess.MarkReceived(0)
	sess.MarkReceived(0)
	sess.MarkReceived(0)
	if sess.Complete() {
		t.Fatal("re-delivered index must count once")
	}

	sess.MarkReceived(1)
	if !sess.Complete() {
		t.Fatal("expected complete after both indexes arrived")
	}
}

func TestSessionState_Terminal(t *testing.T) {
	terminal := []SessionState{SessionCompleted, SessionFailed, SessionExpired}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}
	active := []SessionState{SessionReceiving, SessionAssembling}
	for _, s := range active {
		if s.Terminal() {
			t.Errorf("expected %s to be non-terminal", s)
		}
	}
}

func TestUploadSession_IdleSince(t *testing.T) {
	sess := NewUploadSession("upload-3", "a.bin", "application/octet-stream", 1)
	sess.LastActivityAt = time.Now().Add(-time.Hour)

	if !sess.IdleSince(time.Now().Add(-30 * time.Minute)) {
		t.Fatal("expected session idle for an hour to be past a 30m cutoff")
	}
	if sess.IdleSince(time.Now().Add(-2 * time.Hour)) {
		t.Fatal("session active within the window must not report idle")
	}
}

func TestNewChunk_EnforcesSizeBound(t *testing.T) {
	if _, err := NewChunk("upload-4", 0, make([]byte, 100), 64); err != ErrChunkTooLarge {
		t.Fatalf("expected ErrChunkTooLarge, got %v", err)
	}

	chunk, err := NewChunk("upload-4", 0, []byte("payload"), 64)
	if err != nil {
		t.Fatalf("NewChunk failed: %v", err)
	}
	if err := chunk.Validate(); err != nil {
		t.Fatalf("fresh chunk must validate: %v", err)
	}

	chunk.Data[0] ^= 0xFF
	if err := chunk.Validate(); err != ErrInvalidChecksum {
		t.Fatalf("expected ErrInvalidChecksum after corruption, got %v", err)
	}
}
