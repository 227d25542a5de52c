package tasks

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	slogcontext "github.com/veqryn/slog-context"

	"github.com/JaimeStill/weles/internal/config"
	"github.com/JaimeStill/weles/internal/workspace"
	"github.com/JaimeStill/weles/pkg/lifecycle"
	"github.com/JaimeStill/weles/pkg/metrics"
)

// Tracker queues tasks for a fixed pool of workers and answers status
// polls until each finished task is evicted.
type Tracker struct {
	cfg    *config.TasksConfig
	logger *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	tasks map[uuid.UUID]*Task
	queue chan *Task
	wg    sync.WaitGroup

	depth     *prometheus.GaugeVec
	completed *prometheus.CounterVec
}

// New creates a Tracker. Workers do not run until Start.
func New(cfg *config.TasksConfig, reg prometheus.Registerer, logger *slog.Logger) *Tracker {
	return &Tracker{
		cfg:    cfg,
		logger: logger.With("system", "tasks"),
		now:    time.Now,
		tasks:  make(map[uuid.UUID]*Task),
		queue:  make(chan *Task, cfg.QueueSize),
		depth: metrics.MustRegisterGaugeVec(
			reg, "tasks", "queue_depth",
			"Provisioning tasks waiting for a worker.",
		),
		completed: metrics.MustRegisterCounterVec(
			reg, "tasks", "completed_total",
			"Provisioning tasks by final state.",
			"state",
		),
	}
}

// Start registers the worker pool and the retention janitor with the
// lifecycle coordinator. Both stop when its context is cancelled.
func (tr *Tracker) Start(lc *lifecycle.Coordinator) error {
	tr.logger.Info("starting task workers", "workers", tr.cfg.Workers, "queue_size", tr.cfg.QueueSize)

	lc.OnStartup(func() {
		tr.Run(lc.Context())
	})

	lc.AddCheck("tasks", func(context.Context) error {
		return tr.Saturated()
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		tr.Wait()
		tr.logger.Info("task workers stopped")
	})

	return nil
}

// Run starts the workers and the janitor. It returns immediately; Wait
// blocks until they have exited after ctx is cancelled.
func (tr *Tracker) Run(ctx context.Context) {
	for range tr.cfg.Workers {
		tr.wg.Go(func() {
			tr.work(ctx)
		})
	}
	tr.wg.Go(func() {
		tr.janitor(ctx)
	})
}

// Wait blocks until every worker and the janitor have exited.
func (tr *Tracker) Wait() {
	tr.wg.Wait()
}

// Saturated returns ErrQueueFull while no further task can be queued.
func (tr *Tracker) Saturated() error {
	if len(tr.queue) >= cap(tr.queue) {
		return ErrQueueFull
	}
	return nil
}

// Submit enqueues fn without blocking. total is the number of progress
// steps the task reports once it starts.
func (tr *Tracker) Submit(language string, total int, fn Func) (uuid.UUID, error) {
	t := newTask(language, total, fn)

	tr.mu.Lock()
	tr.tasks[t.id] = t
	tr.mu.Unlock()

	select {
	case tr.queue <- t:
		tr.depth.WithLabelValues().Inc()
		tr.logger.Info("task submitted", "task", t.id, "language", language, "total", total)
		return t.id, nil
	default:
		tr.mu.Lock()
		delete(tr.tasks, t.id)
		tr.mu.Unlock()
		return uuid.Nil, ErrQueueFull
	}
}

// Status returns the current snapshot of a task. Polls of a finished task
// are counted, and the task is evicted after the configured number.
func (tr *Tracker) Status(id uuid.UUID) (Snapshot, error) {
	t, err := tr.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}

	snap, polls := t.poll(tr.now())
	if polls >= tr.cfg.RetainPolls {
		tr.evict(id)
	}
	return snap, nil
}

// Peek returns the current snapshot without counting a poll.
func (tr *Tracker) Peek(id uuid.UUID) (Snapshot, error) {
	t, err := tr.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	return t.Snapshot(), nil
}

// Cancel stops a queued or running task. The task ends FAILED with status
// CANCELLED and any subprocess it runs is killed.
func (tr *Tracker) Cancel(id uuid.UUID) error {
	t, err := tr.lookup(id)
	if err != nil {
		return err
	}
	if err := t.requestCancel(tr.now()); err != nil {
		return err
	}
	tr.logger.Info("task cancel requested", "task", id)
	return nil
}

func (tr *Tracker) lookup(id uuid.UUID) (*Task, error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	t, ok := tr.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	return t, nil
}

func (tr *Tracker) evict(id uuid.UUID) {
	tr.mu.Lock()
	delete(tr.tasks, id)
	tr.mu.Unlock()
}

func (tr *Tracker) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-tr.queue:
			tr.depth.WithLabelValues().Dec()
			tr.execute(ctx, t)
		}
	}
}

func (tr *Tracker) execute(ctx context.Context, t *Task) {
	logger := tr.logger.With("task", t.id, "language", t.language)

	tctx, ok := t.start(slogcontext.NewCtx(ctx, logger), workspace.Stamp(tr.now()))
	if !ok {
		logger.Info("skipping task finished before start")
		return
	}

	logger.Info("task started", "total", t.total)
	info, err := t.fn(tctx, t)

	state := t.finish(info, err, tr.now())
	tr.completed.WithLabelValues(string(state)).Inc()

	if err != nil {
		logger.Error("task failed", "error", err)
		return
	}
	logger.Info("task succeeded")
}

func (tr *Tracker) janitor(ctx context.Context) {
	ticker := time.NewTicker(tr.cfg.JanitorIntervalDuration())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tr.sweep()
		}
	}
}

func (tr *Tracker) sweep() {
	now := tr.now()
	ttl := tr.cfg.RetainTTLDuration()
	abandon := tr.cfg.AbandonAfterDuration()

	tr.mu.Lock()
	defer tr.mu.Unlock()

	for id, t := range tr.tasks {
		if t.expired(now, ttl, abandon) {
			delete(tr.tasks, id)
			tr.logger.Debug("task evicted", "task", id)
		}
	}
}
