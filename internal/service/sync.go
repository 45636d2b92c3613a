package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chirino/docsync/internal/ingest"
)

// DefaultRunTimeout bounds a single build sync.
const DefaultRunTimeout = 10 * time.Minute

// ErrSyncInProgress is returned by RunOnce while another run holds the lock.
var ErrSyncInProgress = errors.New("a sync is already running")

// Runner performs one build sync.
type Runner interface {
	Run(ctx context.Context) (*ingest.SyncReport, error)
}

// Invalidator drops a cache after the store changed.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// SyncService runs build syncs on a ticker and on demand, never two at once.
type SyncService struct {
	runner      Runner
	interval    time.Duration
	invalidator Invalidator
	timeout     time.Duration
	mu          sync.Mutex

	lastMu     sync.Mutex
	lastReport *ingest.SyncReport
	lastErr    error
}

// SyncOption customizes a SyncService.
type SyncOption func(*SyncService)

// WithRunTimeout replaces DefaultRunTimeout.
func WithRunTimeout(d time.Duration) SyncOption {
	return func(s *SyncService) { s.timeout = d }
}

// NewSyncService creates a sync service. A zero interval disables the ticker;
// RunOnce still works. invalidator may be nil.
func NewSyncService(runner Runner, interval time.Duration, invalidator Invalidator, opts ...SyncOption) *SyncService {
	s := &SyncService{
		runner:      runner,
		interval:    interval,
		invalidator: invalidator,
		timeout:     DefaultRunTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the periodic sync loop. Returns when ctx is cancelled.
func (s *SyncService) Start(ctx context.Context) {
	if s == nil || s.runner == nil || s.interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Info("Periodic sync enabled", "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, ErrSyncInProgress) {
				log.Error("Periodic sync failed", "err", err)
			}
		}
	}
}

// RunOnce runs a build sync unless one is already running. The run clears
// the store before refilling it, so it is not cancelled with ctx; it only
// stops when the run timeout elapses.
func (s *SyncService) RunOnce(ctx context.Context) (*ingest.SyncReport, error) {
	if !s.mu.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer s.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	report, err := s.runner.Run(ctx)
	s.lastMu.Lock()
	s.lastReport, s.lastErr = report, err
	s.lastMu.Unlock()
	if err != nil {
		return nil, err
	}
	if s.invalidator != nil && report != nil && !report.Skipped {
		if err := s.invalidator.Invalidate(ctx); err != nil {
			log.Warn("Failed to invalidate runtime cache after sync", "err", err)
		}
	}
	return report, nil
}

// Last returns the outcome of the most recent run.
func (s *SyncService) Last() (*ingest.SyncReport, error) {
	s.lastMu.Lock()
	defer s.lastMu.Unlock()
	return s.lastReport, s.lastErr
}
