package worker_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/remindhub/reminder-pipeline/internal/domain"
	"github.com/remindhub/reminder-pipeline/internal/provider"
	"github.com/remindhub/reminder-pipeline/internal/queue"
	"github.com/remindhub/reminder-pipeline/internal/repository"
	"github.com/remindhub/reminder-pipeline/internal/worker"
)

// slowProvider blocks each send until released and ignores ctx, so a test
// can cancel the consumer while a delivery is mid-flight.
type slowProvider struct {
	started chan struct{}
	release chan struct{}
}

func (p *slowProvider) Send(_ context.Context, _ *provider.PushMessage) (*provider.SendResponse, error) {
	close(p.started)
	<-p.release
	return &provider.SendResponse{ID: "ticket-1", Status: "ok"}, nil
}

func (p *slowProvider) ValidTarget(token string) bool {
	return strings.HasPrefix(token, "ExponentPushToken[")
}

// outcomeRecorder collects outcomes reported through the metric hooks.
type outcomeRecorder struct {
	mu       sync.Mutex
	outcomes []domain.DeliveryOutcome
}

func (r *outcomeRecorder) record(o domain.DeliveryOutcome, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func (r *outcomeRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.outcomes)
}

func runConsumerUntil(t *testing.T, c *worker.Consumer, cond func() bool) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	deadline := time.After(10 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			cancel()
			<-done
			t.Fatal("condition not reached before timeout")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
}

func TestConsumer_DeliversDueJobOnce(t *testing.T) {
	store := queue.NewMemoryStore(queue.DefaultOptions("reminders"))
	devices := repository.NewMockDeviceRepository()
	_, _ = devices.Upsert(context.Background(), "user-1", "ExponentPushToken[abc]")
	prov := &mockProvider{}
	rec := &outcomeRecorder{}

	proc := worker.NewProcessor(devices, prov, nil, zap.NewNop())
	c := worker.NewConsumer(store, proc, 10*time.Millisecond, 10, 1, zap.NewNop(),
		worker.MetricHooks{OnOutcome: rec.record})

	_ = store.Enqueue(context.Background(), "evt-1", reminderJob(), 0)

	runConsumerUntil(t, c, func() bool { return rec.count() >= 1 })

	if len(prov.sent) != 1 {
		t.Fatalf("expected exactly one send, got %d", len(prov.sent))
	}
	// Completed jobs leave no trace: not pending, not redeliverable.
	pending, due, _ := store.Depths(context.Background())
	if pending != 0 || due != 0 {
		t.Fatalf("expected empty store after completion, pending=%d due=%d", pending, due)
	}
}

func TestConsumer_TransientFailureIsHandedBackForRetry(t *testing.T) {
	store := queue.NewMemoryStore(queue.DefaultOptions("reminders"))
	devices := repository.NewMockDeviceRepository()
	_, _ = devices.Upsert(context.Background(), "user-1", "ExponentPushToken[abc]")
	prov := &mockProvider{sendErr: errors.New("exp.host unreachable")}
	rec := &outcomeRecorder{}

	proc := worker.NewProcessor(devices, prov, nil, zap.NewNop())
	c := worker.NewConsumer(store, proc, 10*time.Millisecond, 10, 1, zap.NewNop(),
		worker.MetricHooks{OnOutcome: rec.record})

	_ = store.Enqueue(context.Background(), "evt-1", reminderJob(), 0)

	// With max attempts 3 and failing provider, the job ends terminally failed.
	runConsumerUntil(t, c, func() bool { return store.FailedCount() == 1 })

	if len(prov.sent) != 3 {
		t.Fatalf("expected 3 attempts before exhaustion, got %d", len(prov.sent))
	}
}

func TestConsumer_ShutdownStillAcknowledgesInFlightJob(t *testing.T) {
	opts := queue.DefaultOptions("reminders")
	store := queue.NewMemoryStore(opts)
	devices := repository.NewMockDeviceRepository()
	_, _ = devices.Upsert(context.Background(), "user-1", "ExponentPushToken[abc]")
	prov := &slowProvider{started: make(chan struct{}), release: make(chan struct{})}

	proc := worker.NewProcessor(devices, prov, nil, zap.NewNop())
	c := worker.NewConsumer(store, proc, 10*time.Millisecond, 10, 1, zap.NewNop(),
		worker.MetricHooks{})

	_ = store.Enqueue(context.Background(), "evt-1", reminderJob(), 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	<-prov.started
	cancel() // shutdown arrives while the send is in flight
	close(prov.release)
	<-done

	if store.FailedCount() != 0 {
		t.Fatalf("expected no failed jobs, got %d", store.FailedCount())
	}

	// The delivered job must have been acknowledged despite the cancelled
	// run context: even after its lease expires there is nothing to reclaim,
	// so no duplicate push can follow.
	store.SetClock(func() time.Time { return time.Now().Add(2 * opts.VisibilityTimeout) })
	if jobs, _ := store.ClaimDue(context.Background(), 10); len(jobs) != 0 {
		t.Fatalf("expected no redeliverable jobs after shutdown, got %d", len(jobs))
	}
}

func TestConsumer_NoDeviceCompletesWithoutProviderCall(t *testing.T) {
	store := queue.NewMemoryStore(queue.DefaultOptions("reminders"))
	devices := repository.NewMockDeviceRepository() // nothing registered
	prov := &mockProvider{}
	rec := &outcomeRecorder{}

	proc := worker.NewProcessor(devices, prov, nil, zap.NewNop())
	c := worker.NewConsumer(store, proc, 10*time.Millisecond, 10, 2, zap.NewNop(),
		worker.MetricHooks{OnOutcome: rec.record})

	_ = store.Enqueue(context.Background(), "evt-1", reminderJob(), 0)

	runConsumerUntil(t, c, func() bool { return rec.count() >= 1 })

	if len(prov.sent) != 0 {
		t.Fatal("provider must not be called for a user without a device")
	}
	if rec.outcomes[0] != domain.OutcomeNoTarget {
		t.Fatalf("expected no_target outcome, got %s", rec.outcomes[0])
	}
}
