package processor

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// Observer sees every Result of a run, in input order, from the goroutine
// that owns the Stats.
type Observer interface {
	Observe(res Result)
}

type Runner struct {
	pipeline  *Pipeline
	observers []Observer
	log       *zap.Logger
}

func NewRunner(p *Pipeline, log *zap.Logger, observers ...Observer) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{pipeline: p, observers: observers, log: log.Named("runner")}
}

// Start runs the batch on a background goroutine and returns the queue the
// caller polls for events.
func (r *Runner) Start(ctx context.Context, files []SourceFile, cfg Config) *EventQueue {
	q := NewEventQueue()
	go r.Run(ctx, files, cfg, q)
	return q
}

// Run processes files in order and reports each outcome to sink, followed by
// exactly one OnComplete. An invalid cfg processes nothing but still
// completes. Cancellation is checked between files; a cancelled run still
// completes with the partial stats.
func (r *Runner) Run(ctx context.Context, files []SourceFile, cfg Config, sink ProgressSink) Stats {
	var stats Stats
	total := len(files)

	if err := cfg.Validate(); err != nil {
		r.log.Error("run rejected", zap.Error(err))
		sink.OnLog(fmt.Sprintf("✗ %v", err))
		sink.OnComplete(stats.Snapshot())
		return stats.Snapshot()
	}

	r.log.Info("run started",
		zap.Int("files", total),
		zap.Int("quality", cfg.Quality),
		zap.Bool("webp", cfg.ConvertPNGToWebP),
		zap.String("dest", cfg.DestDir),
		zap.Int("workers", cfg.Workers),
	)

	completed := 0
	report := func(res Result) {
		completed++
		stats.Record(res)
		for _, o := range r.observers {
			o.Observe(res)
		}
		if res.Outcome != OutcomeSuccess {
			r.log.Warn("file not optimized",
				zap.String("path", res.Source),
				zap.Stringer("outcome", res.Outcome),
				zap.String("reason", res.Reason),
			)
		}
		sink.OnLog(FormatResult(res))
		sink.OnProgress(completed, total)
	}

	if cfg.Workers > 1 && total > 1 {
		stats.Cancelled = r.runPool(ctx, files, cfg, report)
	} else {
		stats.Cancelled = r.runSequential(ctx, files, cfg, report)
	}

	if stats.Cancelled {
		sink.OnLog(fmt.Sprintf("Cancelled after %d of %d files", completed, total))
	}

	snapshot := stats.Snapshot()
	r.log.Info("run finished",
		zap.Int("optimized", snapshot.OptimizedFiles),
		zap.Int("failed", len(snapshot.Failures)),
		zap.Int64("saved_bytes", snapshot.SpaceSaved()),
		zap.Bool("cancelled", snapshot.Cancelled),
	)
	sink.OnComplete(snapshot)
	return snapshot
}

func (r *Runner) runSequential(ctx context.Context, files []SourceFile, cfg Config, report func(Result)) bool {
	for _, f := range files {
		if ctx.Err() != nil {
			return true
		}
		report(r.pipeline.Optimize(ctx, f, cfg))
	}
	return false
}

type slot struct {
	res Result
	ran bool
}

// runPool fans files out to an ants pool and reports results in input order.
// Only the calling goroutine touches report, so Stats stays single-owner.
func (r *Runner) runPool(ctx context.Context, files []SourceFile, cfg Config, report func(Result)) bool {
	pool, err := ants.NewPool(cfg.Workers, ants.WithPanicHandler(func(p any) {
		r.log.Error("worker panic", zap.Any("panic", p))
	}))
	if err != nil {
		r.log.Warn("worker pool unavailable, running sequentially", zap.Error(err))
		return r.runSequential(ctx, files, cfg, report)
	}
	defer pool.Release()

	slots := make([]chan slot, len(files))
	for i := range slots {
		slots[i] = make(chan slot, 1)
	}

	var inflight sync.WaitGroup
	go func() {
		for i, f := range files {
			if ctx.Err() != nil {
				for j := i; j < len(files); j++ {
					slots[j] <- slot{}
				}
				return
			}

			inflight.Add(1)
			err := pool.Submit(func() {
				defer inflight.Done()
				res := Result{Source: f.Path, Outcome: OutcomeFailed, Reason: "worker aborted"}
				defer func() { slots[i] <- slot{res: res, ran: true} }()
				res = r.pipeline.Optimize(ctx, f, cfg)
			})
			if err != nil {
				inflight.Done()
				r.log.Error("submit failed", zap.String("path", f.Path), zap.Error(err))
				slots[i] <- slot{res: failed(Result{Source: f.Path, OriginalSize: f.Size}, err), ran: true}
			}
		}
	}()

	cancelled := false
	for i := range slots {
		s := <-slots[i]
		if !s.ran {
			cancelled = true
			break
		}
		report(s.res)
	}

	inflight.Wait()
	return cancelled
}
