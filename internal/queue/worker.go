package queue

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"landingsvc/internal/domain"
	"landingsvc/internal/observability"
)

// Handler processes one claimed job.
type Handler func(ctx context.Context, job *domain.Job) error

// WorkerOptions configures a Worker.
type WorkerOptions struct {
	Queue       domain.Queue
	Handler     Handler
	Concurrency int
	// RateMax jobs may start per RateWindow across all loops.
	RateMax    int
	RateWindow time.Duration
	Logger     zerolog.Logger
	Metrics    *observability.Metrics
}

// Worker drains a queue with a fixed number of loops sharing one limiter.
type Worker struct {
	queue       domain.Queue
	handler     Handler
	concurrency int
	limiter     *rate.Limiter
	logger      zerolog.Logger
	metrics     *observability.Metrics
	errorDelay  time.Duration
}

func NewWorker(opts WorkerOptions) (*Worker, error) {
	if opts.Queue == nil {
		return nil, errors.New("worker: queue is required")
	}
	if opts.Handler == nil {
		return nil, errors.New("worker: handler is required")
	}
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateMax > 0 && opts.RateWindow > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.RateWindow/time.Duration(opts.RateMax)), opts.RateMax)
	}
	return &Worker{
		queue:       opts.Queue,
		handler:     opts.Handler,
		concurrency: concurrency,
		limiter:     limiter,
		logger:      opts.Logger.With().Str("component", "worker").Logger(),
		metrics:     opts.Metrics,
		errorDelay:  time.Second,
	}, nil
}

// Run blocks until ctx is cancelled or a loop fails irrecoverably. A
// cancelled context is a clean stop.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().Int("concurrency", w.concurrency).Msg("worker: started")
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < w.concurrency; i++ {
		slot := i
		g.Go(func() error {
			return w.loop(gctx, slot)
		})
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	w.logger.Info().Msg("worker: stopped")
	return err
}

func (w *Worker) loop(ctx context.Context, slot int) error {
	log := w.logger.With().Int("slot", slot).Logger()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		job, err := w.queue.Claim(ctx)
		if err != nil {
			switch {
			case errors.Is(err, ErrNoJob):
				continue
			case ctx.Err() != nil:
				return ctx.Err()
			}
			log.Error().Err(err).Msg("worker: claim failed")
			if err := sleepCtx(ctx, w.errorDelay); err != nil {
				return err
			}
			continue
		}
		if err := w.limiter.Wait(ctx); err != nil {
			// Shutting down with a claimed job: give it back to the retry path.
			w.finish(context.WithoutCancel(ctx), log, job, fmt.Errorf("worker stopped before processing: %w", err))
			return ctx.Err()
		}
		w.process(ctx, log, job)
	}
}

// process runs the handler to completion even if ctx is cancelled meanwhile,
// so a graceful shutdown lets in-flight jobs finish.
func (w *Worker) process(ctx context.Context, log zerolog.Logger, job *domain.Job) {
	runCtx := context.WithoutCancel(ctx)
	log = log.With().Str("job_id", job.ID).Int("attempt", job.Attempts).Logger()
	log.Info().Msg("worker: picked job")
	start := time.Now()
	err := w.safeHandle(runCtx, job)
	log.Info().Dur("elapsed", time.Since(start)).Bool("ok", err == nil).Msg("worker: job finished")
	w.finish(runCtx, log, job, err)
}

func (w *Worker) safeHandle(ctx context.Context, job *domain.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error().Str("job_id", job.ID).Bytes("stack", debug.Stack()).Msg("worker: handler panic")
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return w.handler(ctx, job)
}

func (w *Worker) finish(ctx context.Context, log zerolog.Logger, job *domain.Job, err error) {
	if err == nil {
		if cerr := w.queue.Complete(ctx, job); cerr != nil {
			log.Error().Err(cerr).Msg("worker: complete job failed")
			return
		}
		w.metrics.CountQueueEvent("completed")
		return
	}
	status, ferr := w.queue.Fail(ctx, job, err)
	if ferr != nil {
		log.Error().Err(ferr).AnErr("cause", err).Msg("worker: fail job failed")
		return
	}
	if status.State == domain.JobFailed {
		w.metrics.CountQueueEvent("failed")
		log.Error().Err(err).Msg("worker: job failed permanently")
		return
	}
	w.metrics.CountQueueEvent("retried")
	log.Warn().Err(err).Time("run_at", status.RunAt).Msg("worker: job scheduled for retry")
}
