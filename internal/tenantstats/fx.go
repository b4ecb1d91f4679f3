package tenantstats

import (
	"context"
	"time"

	"github.com/fanflet/fanflet/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultInterval = time.Minute

var Module = fx.Module("tenantstats",
	fx.Provide(func(cfg config.Config) *Stats {
		if !cfg.Stats.Enabled {
			return nil
		}
		return NewStats(cfg.Environment, prometheus.DefaultRegisterer)
	}),
	fx.Provide(NewPusher),
	fx.Provide(NewWorker),
	fx.Invoke(func(lc fx.Lifecycle, w *Worker) {
		if w == nil {
			return
		}
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				w.Start()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return w.Stop(ctx)
			},
		})
	}),
)

type WorkerParams struct {
	fx.In

	Cfg    config.Config
	DB     *gorm.DB
	Log    *zap.Logger
	Stats  *Stats `optional:"true"`
	Pusher Pusher `optional:"true"`
}

// Worker refreshes the tenant gauges on an interval and pushes them when an
// exporter is configured.
type Worker struct {
	db       *gorm.DB
	log      *zap.Logger
	stats    *Stats
	pusher   Pusher
	interval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

func NewWorker(p WorkerParams) *Worker {
	if p.Stats == nil {
		return nil
	}
	interval := time.Duration(p.Cfg.Stats.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Worker{
		db:       p.DB,
		log:      p.Log.Named("tenantstats"),
		stats:    p.Stats,
		pusher:   p.Pusher,
		interval: interval,
	}
}

// Tick refreshes the gauges once and pushes them.
func (w *Worker) Tick(ctx context.Context) error {
	if err := w.stats.Refresh(ctx, w.db); err != nil {
		return err
	}
	if w.pusher == nil {
		return nil
	}
	return w.pusher.Push(ctx, w.stats.Registry())
}

func (w *Worker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})

	w.log.Info("starting tenant stats worker", zap.Duration("interval", w.interval))
	go func() {
		defer close(w.done)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		w.runOnce(ctx)
		for {
			select {
			case <-ticker.C:
				w.runOnce(ctx)
			case <-ctx.Done():
				w.log.Info("stopping tenant stats worker")
				return
			}
		}
	}()
}

func (w *Worker) Stop(ctx context.Context) error {
	if w.cancel == nil {
		return nil
	}
	w.cancel()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) runOnce(ctx context.Context) {
	tickCtx, cancel := context.WithTimeout(ctx, w.interval)
	defer cancel()
	if err := w.Tick(tickCtx); err != nil && ctx.Err() == nil {
		w.log.Warn("tenant stats tick failed", zap.Error(err))
	}
}
