package taskqueue

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jonwraymond/gptshell/observe"
)

// Metric names emitted by Queue.
const (
	MetricEnqueued  = "task_queue.enqueued"
	MetricRejected  = "task_queue.rejected"
	MetricCompleted = "task_queue.completed"
	MetricFailed    = "task_queue.failed"
	MetricSize      = "task_queue.size"
	MetricDuration  = "task_queue.duration_ms"
)

// TaskFunc is a unit of background work. ctx is cancelled when the queue
// stops.
type TaskFunc func(ctx context.Context) error

// Config configures a Queue.
type Config struct {
	// Workers is the number of concurrent workers.
	// Default: 4
	Workers int

	// MaxSize bounds the number of tasks waiting to run.
	// Default: 100
	MaxSize int

	// EnqueueTimeout bounds how long Enqueue waits for room.
	// Default: 1s
	EnqueueTimeout time.Duration

	// PollInterval is how long an idle worker waits before re-checking
	// for shutdown.
	// Default: 1s
	PollInterval time.Duration

	// Metrics receives task_queue.* metrics.
	// Default: observe.NoopMetrics()
	Metrics observe.Metrics

	// Logger receives task failures.
	// Default: observe.NopLogger()
	Logger observe.Logger
}

// Stats is a point-in-time view of queue activity.
type Stats struct {
	Queued    int   `json:"queued"`
	Running   int64 `json:"running"`
	Workers   int   `json:"workers"`
	MaxSize   int   `json:"max_size"`
	Enqueued  int64 `json:"enqueued"`
	Rejected  int64 `json:"rejected"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

type task struct {
	id       string
	name     string
	priority int
	seq      uint64
	created  time.Time
	fn       TaskFunc
}

// taskHeap orders by priority, then arrival.
type taskHeap []*task

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}
func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *taskHeap) Push(x any)   { *h = append(*h, x.(*task)) }
func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}

// Queue is a bounded priority queue drained by a worker pool.
type Queue struct {
	config Config

	// slots holds one token per queued task; its capacity is MaxSize.
	slots chan struct{}
	// ready carries one signal per queued task to wake a worker.
	ready chan struct{}

	mu      sync.Mutex
	pending taskHeap
	seq     uint64
	started bool
	closed  bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	running   atomic.Int64
	enqueued  atomic.Int64
	rejected  atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
}

// New creates a Queue. Workers do not run until Start.
func New(config Config) *Queue {
	if config.Workers <= 0 {
		config.Workers = 4
	}
	if config.MaxSize <= 0 {
		config.MaxSize = 100
	}
	if config.EnqueueTimeout <= 0 {
		config.EnqueueTimeout = time.Second
	}
	if config.PollInterval <= 0 {
		config.PollInterval = time.Second
	}
	if config.Metrics == nil {
		config.Metrics = observe.NoopMetrics()
	}
	if config.Logger == nil {
		config.Logger = observe.NopLogger()
	}

	return &Queue{
		config: config,
		slots:  make(chan struct{}, config.MaxSize),
		ready:  make(chan struct{}, config.MaxSize),
	}
}

// Enqueue adds fn with the given priority (lower runs first) and returns
// the task ID. It waits up to Config.EnqueueTimeout for room, then returns
// ErrQueueFull.
func (q *Queue) Enqueue(ctx context.Context, name string, priority int, fn TaskFunc) (string, error) {
	if fn == nil {
		return "", ErrNilTask
	}
	if q.isClosed() {
		return "", ErrQueueClosed
	}

	timer := time.NewTimer(q.config.EnqueueTimeout)
	defer timer.Stop()

	select {
	case q.slots <- struct{}{}:
	case <-timer.C:
		q.rejected.Add(1)
		q.config.Metrics.Increment(ctx, MetricRejected, 1)
		q.config.Logger.Warn(ctx, "task queue full",
			observe.F("task", name),
			observe.F("max_size", q.config.MaxSize),
		)
		return "", ErrQueueFull
	case <-ctx.Done():
		return "", ctx.Err()
	}

	t := &task{
		id:       uuid.NewString(),
		name:     name,
		priority: priority,
		created:  time.Now(),
		fn:       fn,
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.slots
		return "", ErrQueueClosed
	}
	q.seq++
	t.seq = q.seq
	heap.Push(&q.pending, t)
	size := q.pending.Len()
	// Never blocks: ready holds at most one signal per queued task.
	q.ready <- struct{}{}
	q.mu.Unlock()

	q.enqueued.Add(1)
	q.config.Metrics.Increment(ctx, MetricEnqueued, 1)
	q.config.Metrics.SetGauge(ctx, MetricSize, float64(size))
	return t.id, nil
}

// Start launches the workers. They run until Stop or until ctx is done.
func (q *Queue) Start(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	if q.started {
		return ErrAlreadyStarted
	}
	q.started = true

	ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.config.Workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, i)
	}
	return nil
}

// Stop closes admission, cancels the workers and waits for them to exit or
// for ctx to end. Tasks still queued are dropped.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	if q.cancel != nil {
		q.cancel()
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("taskqueue: stop: %w", ctx.Err())
	}

	q.mu.Lock()
	dropped := q.pending.Len()
	q.pending = nil
	q.mu.Unlock()

	if dropped > 0 {
		q.config.Logger.Warn(ctx, "task queue stopped with pending tasks",
			observe.F("dropped", dropped),
		)
	}
	q.config.Metrics.SetGauge(ctx, MetricSize, 0)
	return nil
}

// Len returns the number of tasks waiting to run.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending.Len()
}

// Stats returns a snapshot of queue counters.
func (q *Queue) Stats() Stats {
	return Stats{
		Queued:    q.Len(),
		Running:   q.running.Load(),
		Workers:   q.config.Workers,
		MaxSize:   q.config.MaxSize,
		Enqueued:  q.enqueued.Load(),
		Rejected:  q.rejected.Load(),
		Completed: q.completed.Load(),
		Failed:    q.failed.Load(),
	}
}

func (q *Queue) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

func (q *Queue) worker(ctx context.Context, id int) {
	defer q.wg.Done()

	poll := time.NewTimer(q.config.PollInterval)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.ready:
			if t := q.pop(ctx); t != nil {
				q.run(ctx, id, t)
			}
		case <-poll.C:
		}
		poll.Reset(q.config.PollInterval)
	}
}

func (q *Queue) pop(ctx context.Context) *task {
	q.mu.Lock()
	if q.pending.Len() == 0 {
		q.mu.Unlock()
		return nil
	}
	t := heap.Pop(&q.pending).(*task)
	size := q.pending.Len()
	q.mu.Unlock()

	<-q.slots
	q.config.Metrics.SetGauge(ctx, MetricSize, float64(size))
	return t
}

func (q *Queue) run(ctx context.Context, worker int, t *task) {
	q.running.Add(1)
	defer q.running.Add(-1)

	start := time.Now()
	err := safeCall(ctx, t.fn)
	elapsed := time.Since(start)

	q.config.Metrics.Observe(ctx, MetricDuration, float64(elapsed.Microseconds())/1000)
	if err != nil {
		q.failed.Add(1)
		q.config.Metrics.Increment(ctx, MetricFailed, 1)
		fields := []observe.Field{
			observe.F("task", t.name),
			observe.F("task_id", t.id),
			observe.F("worker", worker),
			observe.Err(err),
		}
		if pe, ok := err.(*PanicError); ok {
			fields = append(fields, observe.F("panic", fmt.Sprint(pe.Value)))
		}
		q.config.Logger.Error(ctx, "task failed", fields...)
		return
	}

	q.completed.Add(1)
	q.config.Metrics.Increment(ctx, MetricCompleted, 1)
	q.config.Logger.Debug(ctx, "task completed",
		observe.F("task", t.name),
		observe.F("task_id", t.id),
		observe.F("duration_ms", elapsed.Milliseconds()),
	)
}

func safeCall(ctx context.Context, fn TaskFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return fn(ctx)
}
