package marketplace

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type TickerConfig struct {
	Interval     time.Duration
	Probability  float64
	MaxIncrement float64
}

// Ticker owns the periodic live-update job. It must be stopped when the
// marketplace is no longer served.
type Ticker struct {
	store *Store
	cfg   TickerConfig
	log   *zap.Logger
	cron  *cron.Cron

	mu  sync.Mutex // guards rng; cron may overlap slow runs
	rng Rand
}

// NewTicker schedules the tick. rng may be nil for a time-seeded source.
func NewTicker(store *Store, cfg TickerConfig, rng Rand, log *zap.Logger) (*Ticker, error) {
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("live tick interval must be positive, got %s", cfg.Interval)
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eedf10))
	}
	if log == nil {
		log = zap.NewNop()
	}
	t := &Ticker{store: store, cfg: cfg, log: log, rng: rng, cron: cron.New()}
	if _, err := t.cron.AddFunc("@every "+cfg.Interval.String(), func() { t.RunOnce() }); err != nil {
		return nil, fmt.Errorf("schedule live tick: %w", err)
	}
	return t, nil
}

// Every runs fn on the ticker's schedule loop every d. Stop halts it too.
func (t *Ticker) Every(d time.Duration, name string, fn func()) error {
	if d <= 0 {
		return fmt.Errorf("%s interval must be positive, got %s", name, d)
	}
	if _, err := t.cron.AddFunc("@every "+d.String(), fn); err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	t.log.Debug("job scheduled", zap.String("job", name), zap.Duration("every", d))
	return nil
}

func (t *Ticker) Start() {
	t.log.Info("live ticker started", zap.Duration("interval", t.cfg.Interval))
	t.cron.Start()
}

// Stop halts scheduling and waits for a running tick, or for ctx.
func (t *Ticker) Stop(ctx context.Context) error {
	done := t.cron.Stop()
	select {
	case <-done.Done():
		t.log.Info("live ticker stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce applies one live tick and returns the changed listing ids.
func (t *Ticker) RunOnce() []string {
	t.mu.Lock()
	changed := t.store.ApplyLiveTick(t.rng, t.cfg.Probability, t.cfg.MaxIncrement)
	t.mu.Unlock()
	if len(changed) > 0 {
		t.log.Debug("live tick", zap.Strings("changed", changed))
	}
	return changed
}
