package tracking

import (
	"context"
	"sync"
	"time"

	"github.com/naebak/naebak-auth-service/pkg/logger"
)

type windowClaimer interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	SweepWindowKey(job string, windowStart time.Time) string
}

// SweeperParams configures the request-triggered retention sweep.
type SweeperParams struct {
	Logger  *logger.Logger
	Claimer windowClaimer
	Targets []RetentionTarget
	Window  time.Duration
	Timeout time.Duration
}

// Sweeper runs the retention purges at most once per window across every
// replica. The first caller to claim the window's key does the work.
type Sweeper struct {
	logg    *logger.Logger
	claimer windowClaimer
	targets []RetentionTarget
	window  time.Duration
	timeout time.Duration
	now     func() time.Time

	mu      sync.Mutex
	claimed time.Time
	wg      sync.WaitGroup
}

// NewSweeper builds a sweeper. A nil claimer disables it.
func NewSweeper(params SweeperParams) *Sweeper {
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	window := params.Window
	if window <= 0 {
		window = time.Hour
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Sweeper{
		logg:    logg,
		claimer: params.Claimer,
		targets: params.Targets,
		window:  window,
		timeout: timeout,
		now:     time.Now,
	}
}

// MaybeSweep starts an asynchronous purge when this process wins the current
// window. It never blocks on the purge itself.
func (s *Sweeper) MaybeSweep(ctx context.Context) bool {
	if s == nil || s.claimer == nil || len(s.targets) == 0 {
		return false
	}
	windowStart := s.now().UTC().Truncate(s.window)

	s.mu.Lock()
	if !s.claimed.Before(windowStart) {
		s.mu.Unlock()
		return false
	}
	s.claimed = windowStart
	s.mu.Unlock()

	won, err := s.claimer.SetNX(ctx, s.claimer.SweepWindowKey("tracking", windowStart), "1", s.window)
	if err != nil {
		s.logg.Error(ctx, "tracking.sweep.claim_failed", err)
		return false
	}
	if !won {
		return false
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		sweepCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		s.run(sweepCtx, windowStart)
	}()
	return true
}

// Wait blocks until in-flight sweeps finish.
func (s *Sweeper) Wait() {
	if s == nil {
		return
	}
	s.wg.Wait()
}

func (s *Sweeper) run(ctx context.Context, now time.Time) {
	for _, target := range s.targets {
		cutoff := target.Cutoff(now)
		deleted, err := target.Purge(ctx, nil, cutoff)
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"target": target.Name,
			"cutoff": cutoff,
		})
		if err != nil {
			s.logg.Error(logCtx, "tracking.sweep.failed", err)
			continue
		}
		logCtx = s.logg.WithField(logCtx, "rows_deleted", deleted)
		s.logg.Info(logCtx, "tracking.sweep.completed")
	}
}
