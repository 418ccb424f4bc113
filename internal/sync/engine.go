package sync

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/willowtrack/healthrelay/internal/model"
)

const (
	otelScope       = "healthrelay/sync"
	spanFullSync    = "sync.full"
	metricSynced    = "healthrelay.sync.records.synced"
	metricSkipped   = "healthrelay.sync.records.skipped"
	metricConflicts = "healthrelay.sync.conflicts"
	metricErrors    = "healthrelay.sync.errors"
)

// Engine orchestrates the sync lifecycle: it wraps the reconciler's full
// sync with telemetry and runs the periodic polling loop. Create one with
// [NewEngine] and start it with [Engine.Run], or call [Engine.RunOnce] for
// a single pass.
type Engine struct {
	reconciler   *Reconciler
	window       time.Duration
	pollInterval time.Duration
	log          *slog.Logger

	// OTel instruments are always non-nil (no-op when telemetry is disabled).
	tracer       trace.Tracer
	cntSynced    metric.Int64Counter
	cntSkipped   metric.Int64Counter
	cntConflicts metric.Int64Counter
	cntErrors    metric.Int64Counter
}

// NewEngine creates an Engine. window bounds how far back each import
// reaches; pollInterval is the period of [Engine.Run].
func NewEngine(reconciler *Reconciler, window, pollInterval time.Duration, logger *slog.Logger) *Engine {
	tracer := otel.Tracer(otelScope)
	meter := otel.Meter(otelScope)

	mustCounter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		if err != nil {
			logger.Error("creating OTel counter", "name", name, "error", err)
			return noop.Int64Counter{}
		}
		return c
	}

	return &Engine{
		reconciler:   reconciler,
		window:       window,
		pollInterval: pollInterval,
		log:          logger,

		tracer:       tracer,
		cntSynced:    mustCounter(metricSynced, "Number of records synced with the provider"),
		cntSkipped:   mustCounter(metricSkipped, "Number of duplicate records skipped during sync"),
		cntConflicts: mustCounter(metricConflicts, "Number of conflicts filed during sync"),
		cntErrors:    mustCounter(metricErrors, "Number of failed sync operations"),
	}
}

// RunOnce performs a full bidirectional sync of both record kinds, recording
// a trace span and metrics per kind. The combined outcome carries the first
// failure, or the summed counts when both kinds succeed.
func (e *Engine) RunOnce(ctx context.Context) Outcome {
	end := time.Now().UTC()
	start := end.Add(-e.window)

	sleep := e.syncKind(ctx, model.KindSleep, start, end)
	if sleep.Failed() {
		return sleep
	}
	return sleep.Merge(e.syncKind(ctx, model.KindExercise, start, end))
}

// syncKind runs one full sync for a single record kind under a span.
func (e *Engine) syncKind(ctx context.Context, kind model.RecordKind, start, end time.Time) Outcome {
	ctx, span := e.tracer.Start(ctx, spanFullSync,
		trace.WithAttributes(attribute.String("sync.kind", string(kind))))
	defer span.End()

	out := e.reconciler.FullSync(ctx, kind, start, end)

	attrs := metric.WithAttributes(attribute.String("kind", string(kind)))
	if out.Synced > 0 {
		e.cntSynced.Add(ctx, int64(out.Synced), attrs)
	}
	if out.Skipped > 0 {
		e.cntSkipped.Add(ctx, int64(out.Skipped), attrs)
	}
	if out.Conflicts > 0 {
		e.cntConflicts.Add(ctx, int64(out.Conflicts), attrs)
	}
	if out.Failed() {
		e.cntErrors.Add(ctx, 1, attrs)
	}

	span.SetAttributes(
		attribute.Int("sync.synced", out.Synced),
		attribute.Int("sync.skipped", out.Skipped),
		attribute.Int("sync.conflicts", out.Conflicts),
		attribute.Bool("sync.failed", out.Failed()),
	)
	return out
}

// Run starts the polling loop. It performs an immediate pass, then one per
// poll interval, and blocks until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	if out := e.RunOnce(ctx); out.Failed() {
		e.log.Error("initial sync failed", "reason", out.Reason)
	}

	for {
		select {
		case <-ctx.Done():
			e.log.Info("sync engine shutting down")
			return ctx.Err()
		case <-ticker.C:
			if out := e.RunOnce(ctx); out.Failed() {
				e.log.Error("sync failed", "reason", out.Reason)
			}
		}
	}
}
