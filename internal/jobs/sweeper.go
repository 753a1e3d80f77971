package jobs

import (
	"log/slog"
	"sync"
	"time"
)

// TempSweeper removes stale files from a scratch directory
type TempSweeper interface {
	SweepTemp(maxAge time.Duration) (int, error)
}

// SweeperJob periodically clears abandoned upload files from the file
// store's temp directory.
type SweeperJob struct {
	store    TempSweeper
	interval time.Duration
	maxAge   time.Duration
	logger   *slog.Logger

	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

// SweeperConfig holds configuration for the sweeper job
type SweeperConfig struct {
	Store    TempSweeper
	Interval time.Duration // default 15 minutes
	MaxAge   time.Duration // default 1 hour
	Logger   *slog.Logger
}

// NewSweeperJob creates a new temp file sweeper
func NewSweeperJob(cfg SweeperConfig) *SweeperJob {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Minute
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = time.Hour
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SweeperJob{
		store:    cfg.Store,
		interval: cfg.Interval,
		maxAge:   cfg.MaxAge,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the sweeper loop
func (j *SweeperJob) Start() {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return
	}
	j.running = true
	j.mu.Unlock()

	j.wg.Add(1)
	go j.run()
	j.logger.Info("temp sweeper started",
		slog.Duration("interval", j.interval),
		slog.Duration("max_age", j.maxAge))
}

// Stop gracefully stops the job
func (j *SweeperJob) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	j.running = false
	j.mu.Unlock()

	close(j.stopCh)
	j.wg.Wait()
	j.logger.Info("temp sweeper stopped")
}

func (j *SweeperJob) run() {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.sweep()
		case <-j.stopCh:
			return
		}
	}
}

func (j *SweeperJob) sweep() {
	removed, err := j.store.SweepTemp(j.maxAge)
	if err != nil {
		j.logger.Error("temp sweep failed", slog.Any("error", err))
		return
	}
	if removed > 0 {
		j.logger.Info("temp files removed", slog.Int("count", removed))
	}
}
