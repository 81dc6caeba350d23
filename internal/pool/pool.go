package pool

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Pool errors.
var (
	// ErrInvalidSize is returned by New when fewer than one executor is requested.
	ErrInvalidSize = errors.New("pool size must be at least 1")

	// ErrClosed is delivered to tasks submitted after Close.
	ErrClosed = errors.New("pool is closed")
)

// State is the lifecycle state of one executor.
type State int32

const (
	// StateIdle means the executor is waiting for a task.
	StateIdle State = iota

	// StateBusy means the executor is running a task.
	StateBusy
)

// String returns the state name.
func (s State) String() string {
	if s == StateBusy {
		return "busy"
	}
	return "idle"
}

// Handler processes one task.
type Handler[T, R any] func(ctx context.Context, task T) (R, error)

// Stats is a point-in-time view of a pool.
type Stats struct {
	Workers   int
	Busy      int
	Queued    int
	Completed int64
	Failed    int64
}

// job pairs a task with the Future that receives its Result.
type job[T, R any] struct {
	ctx    context.Context
	task   T
	future *Future[R]
}

// Pool is a fixed-size set of executors sharing one task queue.
type Pool[T, R any] struct {
	handler Handler[T, R]
	queue   *taskQueue[job[T, R]]

	// states holds one State per executor.
	states []atomic.Int32
	busy   atomic.Int64

	completed atomic.Int64
	failed    atomic.Int64

	group     *errgroup.Group
	closeOnce sync.Once

	// onBusyChange observes the number of busy executors.
	onBusyChange func(busy int)

	logger *slog.Logger
}

// Option configures a Pool.
type Option func(*options)

type options struct {
	onBusyChange func(busy int)
	logger       *slog.Logger
}

// WithBusyObserver registers fn to be called whenever the busy count changes.
// fn runs on executor goroutines and must be safe for concurrent use.
func WithBusyObserver(fn func(busy int)) Option {
	return func(o *options) {
		o.onBusyChange = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// New starts size executors running handler.
func New[T, R any](size int, handler Handler[T, R], opts ...Option) (*Pool[T, R], error) {
	if size < 1 {
		return nil, ErrInvalidSize
	}
	if handler == nil {
		return nil, errors.New("pool handler must not be nil")
	}

	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	p := &Pool[T, R]{
		handler:      handler,
		queue:        newTaskQueue[job[T, R]](),
		states:       make([]atomic.Int32, size),
		group:        &errgroup.Group{},
		onBusyChange: o.onBusyChange,
		logger:       o.logger,
	}

	for id := range size {
		p.group.Go(func() error {
			p.execute(id)
			return nil
		})
	}

	p.logger.Debug("worker pool started", "workers", size)
	return p, nil
}

// Size returns the number of executors.
func (p *Pool[T, R]) Size() int {
	return len(p.states)
}

// Submit queues task and returns its Future without waiting for an executor.
// If ctx is done before an executor picks the task up, the task is skipped
// and the Future resolves with ctx.Err().
func (p *Pool[T, R]) Submit(ctx context.Context, task T) *Future[R] {
	f := newFuture[R]()
	if !p.queue.push(job[T, R]{ctx: ctx, task: task, future: f}) {
		p.failed.Add(1)
		f.resolve(Result[R]{Err: ErrClosed})
	}
	return f
}

// Close stops accepting tasks, lets the executors finish what is queued and
// waits for all of them to exit. It is safe to call more than once.
func (p *Pool[T, R]) Close() {
	p.closeOnce.Do(func() {
		p.queue.close()
		_ = p.group.Wait() //nolint:errcheck // Executors never return errors
		p.logger.Debug("worker pool stopped",
			"completed", p.completed.Load(),
			"failed", p.failed.Load(),
		)
	})
}

// Stats returns current counters.
func (p *Pool[T, R]) Stats() Stats {
	return Stats{
		Workers:   len(p.states),
		Busy:      int(p.busy.Load()),
		Queued:    p.queue.size(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
	}
}

// WorkerStates returns the state of every executor.
func (p *Pool[T, R]) WorkerStates() []State {
	out := make([]State, len(p.states))
	for i := range p.states {
		out[i] = State(p.states[i].Load())
	}
	return out
}

// execute is the loop of executor id: Idle -> Busy(task) -> Idle.
func (p *Pool[T, R]) execute(id int) {
	for {
		j, ok := p.queue.pop()
		if !ok {
			return
		}

		p.setState(id, StateBusy)
		res := p.run(j)
		p.setState(id, StateIdle)

		if res.OK() {
			p.completed.Add(1)
		} else {
			p.failed.Add(1)
			p.logger.Debug("pool task failed", "worker", id, "error", res.Err)
		}
		j.future.resolve(res)
	}
}

// run invokes the handler, converting a panic into a failed Result.
func (p *Pool[T, R]) run(j job[T, R]) (res Result[R]) {
	if err := j.ctx.Err(); err != nil {
		return Result[R]{Err: err}
	}

	defer func() {
		if v := recover(); v != nil {
			res = Result[R]{Err: &PanicError{Value: v}}
		}
	}()

	value, err := p.handler(j.ctx, j.task)
	return Result[R]{Value: value, Err: err}
}

// setState records executor id's state and notifies the observer.
func (p *Pool[T, R]) setState(id int, s State) {
	p.states[id].Store(int32(s))

	var busy int64
	if s == StateBusy {
		busy = p.busy.Add(1)
	} else {
		busy = p.busy.Add(-1)
	}
	if p.onBusyChange != nil {
		p.onBusyChange(int(busy))
	}
}
