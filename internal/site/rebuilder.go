package site

import (
	"context"
	"log/slog"
	"time"
)

// BuildRunner runs one build.
type BuildRunner interface {
	Build(ctx context.Context) (*Report, error)
}

// Rebuilder coalesces content change notifications and runs one build per
// quiet period.
type Rebuilder struct {
	builder BuildRunner
	delay   time.Duration
	logger  *slog.Logger
	onBuild func(*Report)
	trigger chan struct{}
}

// NewRebuilder creates a rebuilder that waits delay after the last change
// before building. onBuild, if set, is called after every successful build.
func NewRebuilder(b BuildRunner, delay time.Duration, logger *slog.Logger, onBuild func(*Report)) *Rebuilder {
	if delay <= 0 {
		delay = 300 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Rebuilder{
		builder: b,
		delay:   delay,
		logger:  logger,
		onBuild: onBuild,
		trigger: make(chan struct{}, 1),
	}
}

// Notify records a content change. It never blocks. The signature matches
// index.EventCallback.
func (r *Rebuilder) Notify(kind, path string) {
	r.logger.Debug("rebuild: change", slog.String("kind", kind), slog.String("path", path))
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Run processes notifications until ctx is done.
func (r *Rebuilder) Run(ctx context.Context) error {
	timer := time.NewTimer(r.delay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.trigger:
			timer.Reset(r.delay)
		case <-timer.C:
			rep, err := r.builder.Build(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				r.logger.Error("rebuild: failed", slog.String("error", err.Error()))
				continue
			}
			if r.onBuild != nil {
				r.onBuild(rep)
			}
		}
	}
}
