package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ahlanjobb/api/pkg/metrics"
	"go.uber.org/zap"
)

// Handler delivers one job. A returned error schedules a retry.
type Handler func(ctx context.Context, job EmailJob) error

// Worker consumes a RedisQueue until its context is cancelled.
type Worker struct {
	queue       *RedisQueue
	handle      Handler
	maxRetry    int
	pollTimeout time.Duration
	logger      *zap.Logger
}

func NewWorker(q *RedisQueue, handle Handler, maxRetry int, pollTimeout time.Duration, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetry <= 0 {
		maxRetry = 1
	}
	if pollTimeout <= 0 {
		pollTimeout = 5 * time.Second
	}
	return &Worker{
		queue:       q,
		handle:      handle,
		maxRetry:    maxRetry,
		pollTimeout: pollTimeout,
		logger:      logger,
	}
}

// Run blocks until ctx is done.
func (w *Worker) Run(ctx context.Context) {
	if n, err := w.queue.Recover(ctx); err != nil {
		w.logger.Error("Failed to recover in-flight email jobs", zap.Error(err))
	} else if n > 0 {
		w.logger.Info("Recovered in-flight email jobs", zap.Int("count", n))
	}

	w.logger.Info("Email worker started", zap.String("queue", w.queue.key))
	for {
		if ctx.Err() != nil {
			w.logger.Info("Email worker stopped")
			return
		}
		if err := w.ProcessOne(ctx); err != nil && !errors.Is(err, ErrNoJob) && ctx.Err() == nil {
			w.logger.Error("Email worker poll failed", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
}

// ProcessOne pops and handles at most one job.
func (w *Worker) ProcessOne(ctx context.Context) error {
	d, err := w.queue.Pop(ctx, w.pollTimeout)
	if err != nil {
		return err
	}

	handleErr := w.handle(ctx, d.Job)
	if handleErr == nil {
		metrics.EmailJobs.WithLabelValues("sent").Inc()
		w.logger.Info("Email sent",
			zap.String("job_id", d.Job.ID),
			zap.String("to", d.Job.EmailOptions.To),
			zap.String("subject", d.Job.EmailOptions.Subject),
		)
		return w.queue.Ack(ctx, d)
	}

	dead, err := w.queue.Retry(ctx, d, handleErr, w.maxRetry)
	if err != nil {
		return err
	}
	if dead {
		metrics.EmailJobs.WithLabelValues("dead").Inc()
		w.logger.Error("Email job moved to dead letter list",
			zap.String("job_id", d.Job.ID),
			zap.String("to", d.Job.EmailOptions.To),
			zap.Int("attempts", d.Job.Attempts+1),
			zap.Error(handleErr),
		)
	} else {
		metrics.EmailJobs.WithLabelValues("retried").Inc()
		w.logger.Warn("Email job failed, will retry",
			zap.String("job_id", d.Job.ID),
			zap.Int("attempts", d.Job.Attempts+1),
			zap.Error(handleErr),
		)
	}
	return nil
}

// InlineDispatcher handles jobs in background goroutines without Redis.
// Jobs are lost if the process exits before they finish.
type InlineDispatcher struct {
	handle Handler
	logger *zap.Logger
	wg     sync.WaitGroup
}

func NewInlineDispatcher(handle Handler, logger *zap.Logger) *InlineDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InlineDispatcher{handle: handle, logger: logger}
}

func (d *InlineDispatcher) Enqueue(ctx context.Context, job EmailJob) error {
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		if err := d.handle(sendCtx, job); err != nil {
			metrics.EmailJobs.WithLabelValues("failed").Inc()
			d.logger.Error("Inline email delivery failed",
				zap.String("to", job.EmailOptions.To),
				zap.Error(err),
			)
			return
		}
		metrics.EmailJobs.WithLabelValues("sent").Inc()
	}()
	return nil
}

// Wait blocks until every in-flight job finished.
func (d *InlineDispatcher) Wait() {
	d.wg.Wait()
}
