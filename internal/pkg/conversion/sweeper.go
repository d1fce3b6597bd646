package conversion

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

const (
	sweepInterval  = time.Minute
	sweepBatchSize = 100
)

// Sweeper fails jobs stuck in processing past their deadline. The Redis
// deadline index is the fast path; a periodic database scan catches jobs
// whose index entry was lost.
type Sweeper struct {
	manager *Manager
	stopCh  chan struct{}
	wg      sync.WaitGroup
	started bool
	mu      sync.Mutex
}

func NewSweeper(manager *Manager) *Sweeper {
	return &Sweeper{
		manager: manager,
		stopCh:  make(chan struct{}),
	}
}

// Start launches the background sweep loop
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	s.wg.Add(1)
	go s.run()
	log.Infof("[Sweeper] Started (timeout=%s, interval=%s)", s.manager.processingTimeout, sweepInterval)
}

// Stop shuts the sweep loop down and waits for the current pass to finish
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	close(s.stopCh)
	s.wg.Wait()
	s.started = false
	log.Infof("[Sweeper] Stopped")
}

func (s *Sweeper) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

// sweep fails every job whose processing deadline has passed. Finalization
// goes through the guarded transition, so a callback racing the sweeper
// resolves cleanly in whichever order it lands.
func (s *Sweeper) sweep() {
	ctx := context.Background()
	now := time.Now()
	seen := make(map[string]bool)

	if s.manager.mirror != nil {
		uuids, err := s.manager.mirror.DueProcessingJobs(ctx, now, sweepBatchSize)
		if err != nil {
			log.Warnf("[Sweeper] Failed to read deadline index: %v", err)
		}
		for _, jobUUID := range uuids {
			seen[jobUUID] = true
			s.timeout(ctx, jobUUID)
		}
	}

	// Database fallback for jobs missing from the index
	stuck, err := s.manager.jobs.ListStuckProcessing(now.Add(-s.manager.processingTimeout), sweepBatchSize)
	if err != nil {
		log.Errorf("[Sweeper] Failed to scan for stuck jobs: %v", err)
		return
	}
	for _, job := range stuck {
		if seen[job.UUID] {
			continue
		}
		s.timeout(ctx, job.UUID)
	}
}

func (s *Sweeper) timeout(ctx context.Context, jobUUID string) {
	log.Warnf("[Sweeper] Job %s exceeded processing timeout, marking failed", jobUUID)
	if err := s.manager.FinalizeFailure(ctx, jobUUID, "processing timed out"); err != nil {
		log.Errorf("[Sweeper] Failed to time out job %s: %v", jobUUID, err)
	}
}
