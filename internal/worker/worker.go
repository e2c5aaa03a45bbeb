package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/brightpath-tutoring/backend/pkg/queue"
)

// JobQueue is the queue the worker drains. *queue.Queue implements it.
type JobQueue interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// Processor handles one job.
type Processor interface {
	Process(ctx context.Context, job *queue.Job) error
}

// Runner drains a queue through a processor, retrying failed jobs.
type Runner struct {
	queue     JobQueue
	processor Processor
	logger    *zap.Logger
	poll      time.Duration
	backoff   time.Duration
}

// NewRunner creates a worker loop.
func NewRunner(q JobQueue, p Processor, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{queue: q, processor: p, logger: logger, poll: 5 * time.Second, backoff: queue.RetryBackoff}
}

// Run starts the worker loop: dequeue, process, retry on error. It returns when ctx is done.
func (r *Runner) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("notification worker stopping")
			return
		default:
		}

		job, err := r.queue.Dequeue(ctx, r.poll)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			r.logger.Warn("dequeue error", zap.Error(err))
			r.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		r.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := r.processor.Process(ctx, job); err != nil {
			r.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if reErr := r.queue.Retry(ctx, job); reErr != nil {
				r.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			r.sleep(ctx)
		}
	}
}

func (r *Runner) sleep(ctx context.Context) {
	t := time.NewTimer(r.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
