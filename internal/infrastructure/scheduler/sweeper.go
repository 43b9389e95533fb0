package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Cleaner removes stored documents older than a given age and reports how
// many it deleted
type Cleaner interface {
	CleanupOlderThan(ctx context.Context, age time.Duration) (int, error)
}

// SweeperConfig holds configuration for the export retention sweeper
type SweeperConfig struct {
	// Retention is the age after which a stored export is removed
	Retention time.Duration

	// Interval is how often the sweep runs
	Interval time.Duration

	// Timeout bounds a single sweep; zero means the interval
	Timeout time.Duration

	// RunOnStart sweeps once immediately when started
	RunOnStart bool
}

// DefaultSweeperConfig returns default sweeper configuration
func DefaultSweeperConfig() SweeperConfig {
	return SweeperConfig{
		Retention:  7 * 24 * time.Hour,
		Interval:   time.Hour,
		RunOnStart: true,
	}
}

// Validate checks the configuration
func (c SweeperConfig) Validate() error {
	if c.Retention <= 0 {
		return fmt.Errorf("%w: retention must be positive", ErrInvalidConfig)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: timeout cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// SweepStats reports what the sweeper has done so far
type SweepStats struct {
	Runs         int
	Failures     int
	TotalDeleted int
	LastDeleted  int
	LastRun      time.Time
	LastError    string
}

// Sweeper periodically removes exported documents past their retention
type Sweeper struct {
	config  SweeperConfig
	cleaner Cleaner
	logger  *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	stats     SweepStats
}

// NewSweeper creates a new sweeper
func NewSweeper(config SweeperConfig, cleaner Cleaner, logger *zap.Logger) (*Sweeper, error) {
	if cleaner == nil {
		return nil, ErrNoCleaner
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		config:  config,
		cleaner: cleaner,
		logger:  logger.Named("export_sweeper"),
	}, nil
}

// Start starts the sweep loop. Starting a running sweeper is a no-op.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Export sweeper started",
		zap.Duration("retention", s.config.Retention),
		zap.Duration("interval", s.config.Interval),
	)
	return nil
}

// Stop stops the sweep loop and waits for a running sweep to finish
func (s *Sweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Export sweeper stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning reports whether the sweep loop is active
func (s *Sweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// Stats returns a snapshot of the sweep counters
func (s *Sweeper) Stats() SweepStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Sweeper) runLoop(ctx context.Context) {
	defer s.wg.Done()

	if s.config.RunOnStart {
		_, _ = s.RunOnce(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.RunOnce(ctx)
		}
	}
}

// RunOnce sweeps immediately and returns the number of removed documents
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	timeout := s.config.Timeout
	if timeout == 0 {
		timeout = s.config.Interval
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	deleted, err := s.cleaner.CleanupOlderThan(runCtx, s.config.Retention)

	s.mu.Lock()
	s.stats.Runs++
	s.stats.LastRun = time.Now()
	s.stats.LastDeleted = deleted
	s.stats.TotalDeleted += deleted
	if err != nil {
		s.stats.Failures++
		s.stats.LastError = err.Error()
	} else {
		s.stats.LastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Export sweep failed", zap.Int("deleted", deleted), zap.Error(err))
		return deleted, err
	}
	if deleted > 0 {
		s.logger.Info("Expired exports removed", zap.Int("deleted", deleted))
	}
	return deleted, nil
}
