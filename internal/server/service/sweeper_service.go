package service

import (
	"context"
	"time"

	"github.com/anthanhphan/gosdk/logger"
)

// Sweeper periodically expires idle upload sessions. It is the only resource
// reclamation path for abandoned uploads; there is no explicit cancel message
// in the protocol.
type Sweeper struct {
	core     *FileStoreImpl
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// NewSweeper creates the background session sweeper.
func NewSweeper(core *FileStoreImpl) *Sweeper {
	interval := time.Duration(core.cfg.App.SweepIntervalSec) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		core:     core,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run loops until Stop is called.
func (s *Sweeper) Run(ctx context.Context) {
	defer close(s.done)
	logger.Infow("Session sweeper started", "interval", s.interval.String())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			s.core.SweepSessions(time.Now())
		}
	}
}

// Stop signals the loop and waits for it to exit.
func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}
