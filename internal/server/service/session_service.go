package service

import (
	"context"
	"sync"
	"time"

	"github.com/anthanhphan/go-dedup-file-store/internal/server/domain"
	"github.com/anthanhphan/go-dedup-file-store/internal/server/port"
	"github.com/anthanhphan/go-dedup-file-store/pkg/resilience"
	"github.com/anthanhphan/gosdk/logger"
	"github.com/spaolacci/murmur3"
)

const sessionStripeCount = 32

// trackedSession pairs the session with its serialization point. The mutex
// guards state transitions and the did-this-arrival-complete-the-set check;
// chunk I/O happens outside it.
type trackedSession struct {
	mu          sync.Mutex
	sess        *domain.UploadSession
	fileRecord  *domain.FileRecord
	isDuplicate bool
}

type sessionStripe struct {
	mu       sync.RWMutex
	sessions map[string]*trackedSession
}

// sessionService drives the upload session state machine. Sessions for
// different uploads are fully independent; the table is striped so arrivals
// never contend on a global lock.
type sessionService struct {
	core      *FileStoreImpl
	finalizer *finalizeService
	stripes   [sessionStripeCount]sessionStripe
}

// newSessionService creates the session use-case service.
func newSessionService(core *FileStoreImpl, finalizer *finalizeService) *sessionService {
	s := &sessionService{core: core, finalizer: finalizer}
	for i := range s.stripes {
		s.stripes[i].sessions = make(map[string]*trackedSession)
	}
	return s
}

func (s *sessionService) stripeFor(uploadID string) *sessionStripe {
	return &s.stripes[murmur3.Sum64([]byte(uploadID))%sessionStripeCount]
}

// getOrCreate returns the tracked session for an upload ID, creating it in
// the Receiving state on the first chunk.
func (s *sessionService) getOrCreate(req port.ChunkUpload) (*trackedSession, bool) {
	stripe := s.stripeFor(req.UploadID)

	stripe.mu.RLock()
	ts, exists := stripe.sessions[req.UploadID]
	stripe.mu.RUnlock()
	if exists {
		return ts, false
	}

	stripe.mu.Lock()
	defer stripe.mu.Unlock()
	if ts, exists = stripe.sessions[req.UploadID]; exists {
		return ts, false
	}

	ts = &trackedSession{
		sess: domain.NewUploadSession(req.UploadID, req.FileName, req.FileType, req.TotalChunks),
	}
	stripe.sessions[req.UploadID] = ts
	return ts, true
}

// uploadChunk records one chunk arrival and finalizes the session when the
// declared set becomes complete. Chunk index is authoritative; arrival order
// is irrelevant.
func (s *sessionService) uploadChunk(ctx context.Context, req port.ChunkUpload) (*port.ChunkUploadResult, error) {
	if err := validateChunkUpload(req, s.core.cfg.App.ChunkSize); err != nil {
		return nil, err
	}

	ts, created := s.getOrCreate(req)

	// Admission check before touching the staging area.
	ts.mu.Lock()
	switch ts.sess.State {
	case domain.SessionCompleted:
		// Duplicate network retry racing the completion response: accepted
		// and ignored.
		result := s.completedResult(ts)
		ts.mu.Unlock()
		return result, nil
	case domain.SessionExpired, domain.SessionFailed:
		ts.mu.Unlock()
		return nil, port.ErrSessionExpired
	case domain.SessionAssembling:
		// Retried chunk racing an in-flight finalization. The set is already
		// complete; drop the payload.
		result := s.progressResult(ts)
		ts.mu.Unlock()
		return result, nil
	}
	if !created && ts.sess.TotalChunks != req.TotalChunks {
		ts.mu.Unlock()
		return nil, port.ErrTotalChunksMismatch
	}
	ts.mu.Unlock()

	if err := s.core.staging.Put(ctx, req.UploadID, req.ChunkIndex, req.Data); err != nil {
		return nil, err
	}

	// Serialize the completion check: two racing last-chunk arrivals must
	// not both trigger the finalizer.
	ts.mu.Lock()
	switch ts.sess.State {
	case domain.SessionCompleted:
		result := s.completedResult(ts)
		ts.mu.Unlock()
		return result, nil
	case domain.SessionExpired, domain.SessionFailed:
		ts.mu.Unlock()
		// The sweeper already released this session's chunks; drop the one
		// we just staged.
		_ = s.core.staging.Evict(req.UploadID)
		return nil, port.ErrSessionExpired
	case domain.SessionAssembling:
		result := s.progressResult(ts)
		ts.mu.Unlock()
		return result, nil
	}

	ts.sess.MarkReceived(req.ChunkIndex)
	triggered := false
	if ts.sess.Complete() {
		ts.sess.State = domain.SessionAssembling
		triggered = true
	}
	result := s.progressResult(ts)
	ts.mu.Unlock()

	if !triggered {
		return result, nil
	}
	return s.runFinalize(ctx, ts)
}

// runFinalize drives Assembling to a terminal state. It runs outside the
// session mutex; the Assembling state already blocks re-triggering.
func (s *sessionService) runFinalize(ctx context.Context, ts *trackedSession) (*port.ChunkUploadResult, error) {
	record, isDuplicate, err := s.finalizer.finalize(ctx, ts.sess)

	ts.mu.Lock()
	defer ts.mu.Unlock()
	if err != nil {
		ts.sess.State = domain.SessionFailed
		ts.sess.LastActivityAt = time.Now()
		logger.Errorw("Upload session failed",
			"upload_id", ts.sess.UploadID, "error", err.Error())
		return nil, err
	}

	ts.sess.State = domain.SessionCompleted
	ts.sess.FileID = record.ID
	ts.sess.LastActivityAt = time.Now()
	ts.fileRecord = record
	ts.isDuplicate = isDuplicate
	return s.completedResult(ts), nil
}

// completedResult builds the terminal response. Caller holds ts.mu.
func (s *sessionService) completedResult(ts *trackedSession) *port.ChunkUploadResult {
	return &port.ChunkUploadResult{
		Complete:       true,
		ReceivedChunks: len(ts.sess.Received),
		TotalChunks:    ts.sess.TotalChunks,
		IsDuplicate:    ts.isDuplicate,
		File:           ts.fileRecord,
	}
}

// progressResult builds the more-chunks-expected response. Caller holds ts.mu.
func (s *sessionService) progressResult(ts *trackedSession) *port.ChunkUploadResult {
	return &port.ChunkUploadResult{
		Complete:       false,
		ReceivedChunks: len(ts.sess.Received),
		TotalChunks:    ts.sess.TotalChunks,
	}
}

// sweep expires idle Receiving sessions and drops terminal sessions past the
// retention window. Eviction of staged chunks runs through a worker pool so a
// large backlog does not stall the ticker.
func (s *sessionService) sweep(now time.Time) {
	idleCutoff := now.Add(-s.core.sessionTTL())
	retireCutoff := now.Add(-s.core.retention())

	var evict []string
	var expired, retired int

	for i := range s.stripes {
		stripe := &s.stripes[i]

		stripe.mu.Lock()
		for uploadID, ts := range stripe.sessions {
			ts.mu.Lock()
			switch {
			case ts.sess.State == domain.SessionReceiving && ts.sess.IdleSince(idleCutoff):
				ts.sess.State = domain.SessionExpired
				evict = append(evict, uploadID)
				expired++
			case ts.sess.State.Terminal() && ts.sess.IdleSince(retireCutoff):
				// Evict even for completed sessions: a late retry can re-stage
				// a chunk after finalize already released the directory.
				delete(stripe.sessions, uploadID)
				evict = append(evict, uploadID)
				retired++
			}
			ts.mu.Unlock()
		}
		stripe.mu.Unlock()
	}

	if len(evict) > 0 {
		workers := s.core.cfg.App.SweepWorkers
		pool := resilience.NewWorkerPool(workers, len(evict))
		for _, uploadID := range evict {
			id := uploadID
			_ = pool.Submit(context.Background(), func() {
				if err := s.core.staging.Evict(id); err != nil {
					logger.Warnw("Failed to evict staged chunks", "upload_id", id, "error", err.Error())
				}
			})
		}
		pool.Close()
		pool.Wait()
	}

	if expired > 0 || retired > 0 {
		logger.Infow("Session sweep finished", "expired", expired, "retired", retired)
	}
}

// validateChunkUpload rejects malformed chunk metadata synchronously, before
// any session state is touched.
func validateChunkUpload(req port.ChunkUpload, maxChunkSize int64) error {
	if req.UploadID == "" {
		return port.ErrMissingUploadID
	}
	if req.TotalChunks < 1 {
		return port.ErrInvalidTotalChunks
	}
	if req.ChunkIndex < 0 || req.ChunkIndex >= req.TotalChunks {
		return port.ErrChunkOutOfRange
	}
	if len(req.Data) == 0 {
		return port.ErrMissingChunkPayload
	}
	if int64(len(req.Data)) > maxChunkSize {
		return domain.ErrChunkTooLarge
	}
	return nil
}
