package player

import (
	"context"
	"sync"
	"time"
)

// taskQueue carries work from other goroutines onto the control loop.
type taskQueue struct {
	mu     sync.Mutex
	tasks  []func()
	ready  chan struct{}
	closed bool
}

func newTaskQueue() *taskQueue {
	return &taskQueue{ready: make(chan struct{}, 1)}
}

func (q *taskQueue) push(fn func()) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.tasks = append(q.tasks, fn)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
	return true
}

// run executes everything queued so far and returns how many ran.
func (q *taskQueue) run() int {
	q.mu.Lock()
	tasks := q.tasks
	q.tasks = nil
	q.mu.Unlock()

	for _, fn := range tasks {
		fn()
	}
	return len(tasks)
}

func (q *taskQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}

// Post queues fn to run on the control goroutine. Safe from any
// goroutine.
func (o *Orchestrator) Post(fn func()) error {
	if !o.tasks.push(fn) {
		return ErrSessionClosed
	}
	return nil
}

// Do runs fn on the control goroutine and waits for its result. Must not
// be called from the control goroutine itself.
func (o *Orchestrator) Do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	if err := o.Post(func() { result <- fn() }); err != nil {
		return err
	}
	select {
	case err := <-result:
		return err
	case <-o.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Step runs queued tasks and delivers queued backend events until both
// are empty. Hosts with their own loop call it instead of Run.
func (o *Orchestrator) Step() int {
	total := 0
	for {
		n := o.tasks.run()
		n += o.router.Drain(o.handleEvent)
		if n == 0 {
			return total
		}
		total += n
	}
}

// Run is the control loop. It returns after ctx is cancelled, with the
// orchestrator closed.
func (o *Orchestrator) Run(ctx context.Context) error {
	clock := time.NewTicker(o.clockInterval)
	defer clock.Stop()

	o.log.Info("control loop started")
	o.refreshClock()
	o.Step()

	for {
		select {
		case <-ctx.Done():
			o.Step()
			o.Close()
			o.log.Info("control loop stopped")
			return nil
		case <-o.router.Ready():
			o.Step()
		case <-o.tasks.ready:
			o.Step()
		case <-clock.C:
			o.refreshClock()
		}
	}
}
