package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/remindhub/reminder-pipeline/internal/domain"
	"github.com/remindhub/reminder-pipeline/internal/queue"
)

// MetricHooks carries the metric callback functions injected by main.
// Using a struct keeps the consumer constructor signature clean.
type MetricHooks struct {
	OnOutcome func(outcome domain.DeliveryOutcome, latency time.Duration)
	OnDepths  func(pending, due int)
}

// Consumer pulls due jobs from the delayed job store and fans them out to a
// fixed pool of worker goroutines. Each job gets exactly one delivery attempt
// per claim; the store's lease plus Complete/Fail acknowledgements give
// at-least-once semantics across consumer crashes.
//
// Jobs for different events may be processed concurrently; there is no shared
// mutable state across attempts beyond the registry and the provider.
type Consumer struct {
	store     queue.Store
	proc      *Processor
	interval  time.Duration
	batchSize int
	workers   int
	logger    *zap.Logger
	hooks     MetricHooks

	wg sync.WaitGroup
}

func NewConsumer(
	store queue.Store,
	proc *Processor,
	interval time.Duration,
	batchSize int,
	workers int,
	logger *zap.Logger,
	hooks MetricHooks,
) *Consumer {
	if hooks.OnOutcome == nil {
		hooks.OnOutcome = func(domain.DeliveryOutcome, time.Duration) {}
	}
	if hooks.OnDepths == nil {
		hooks.OnDepths = func(int, int) {}
	}
	return &Consumer{
		store: store, proc: proc,
		interval: interval, batchSize: batchSize, workers: workers,
		logger: logger, hooks: hooks,
	}
}

// Run blocks until ctx is cancelled. It polls the store every interval,
// claims up to batchSize due jobs, and dispatches them to the worker pool.
func (c *Consumer) Run(ctx context.Context) {
	jobs := make(chan queue.Job)

	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go func(id int) {
			defer c.wg.Done()
			log := c.logger.With(zap.Int("worker_id", id))
			log.Info("worker started")
			for job := range jobs {
				c.handle(ctx, job)
			}
			log.Info("worker stopping")
		}(i)
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.logger.Info("consumer started", zap.Duration("interval", c.interval))

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("consumer stopping")
			close(jobs)
			c.wg.Wait()
			return
		case <-ticker.C:
			c.poll(ctx, jobs)
		}
	}
}

func (c *Consumer) poll(ctx context.Context, jobs chan<- queue.Job) {
	claimed, err := c.store.ClaimDue(ctx, c.batchSize)
	if err != nil {
		c.logger.Error("claim poll error", zap.Error(err))
		return
	}

	for _, job := range claimed {
		select {
		case jobs <- job:
		case <-ctx.Done():
			// Unhanded jobs keep their lease and will be reclaimed after
			// the visibility timeout.
			return
		}
	}

	if pending, due, err := c.store.Depths(ctx); err == nil {
		c.hooks.OnDepths(pending, due)
	}
}

// handle runs one delivery attempt and acknowledges the result to the store.
// A failure on a single job never blocks the consumption loop.
func (c *Consumer) handle(ctx context.Context, job queue.Job) {
	start := time.Now()
	log := c.logger.With(
		zap.String("job_id", job.ID),
		zap.String("event_id", job.Key),
		zap.Int("attempt", job.Attempt),
	)

	outcome, err := c.proc.ProcessReminder(ctx, job.Payload)

	// Acks must survive shutdown: ctx is cancelled while claimed jobs are
	// still draining, and a delivered job whose Complete is lost would be
	// redelivered after its lease expires.
	ackCtx := context.WithoutCancel(ctx)

	if err != nil {
		log.Warn("delivery attempt failed, handing back for retry", zap.Error(err))
		if failErr := c.store.Fail(ackCtx, job.ID, err.Error()); failErr != nil {
			log.Error("failed to record job failure", zap.Error(failErr))
		}
		c.hooks.OnOutcome(outcome, time.Since(start))
		return
	}

	if ackErr := c.store.Complete(ackCtx, job.ID); ackErr != nil {
		// The attempt succeeded but the ack did not; the job may be
		// redelivered after its lease expires. Acceptable under
		// at-least-once semantics.
		log.Error("failed to acknowledge completed job", zap.Error(ackErr))
	}

	c.hooks.OnOutcome(outcome, time.Since(start))
	log.Info("job completed", zap.String("outcome", string(outcome)))
}
