package schedule

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/glorpus-work/upkeep/pkg/errors"
)

// Loop is a single-goroutine scheduler. Callbacks are queued by Schedule and
// executed one at a time, in due order, by Run.
type Loop struct {
	now func() time.Time

	mu     sync.Mutex
	queue  loopQueue
	seq    uint64
	closed bool
	wake   chan struct{}
}

// NewLoop creates a Loop driven by the wall clock.
func NewLoop() *Loop {
	return &Loop{now: time.Now, wake: make(chan struct{}, 1)}
}

type loopTask struct {
	loop      *Loop
	fn        func()
	due       time.Time
	seq       uint64
	index     int
	cancelled bool
}

func (t *loopTask) Cancel() bool {
	t.loop.mu.Lock()
	defer t.loop.mu.Unlock()
	if t.cancelled || t.index < 0 {
		return false
	}
	t.cancelled = true
	heap.Remove(&t.loop.queue, t.index)
	return true
}

// Schedule queues fn to run delay from now.
func (l *Loop) Schedule(fn func(), delay time.Duration) (Task, error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, errors.ErrSchedulerClosed
	}
	l.seq++
	task := &loopTask{loop: l, fn: fn, due: l.now().Add(delay), seq: l.seq}
	heap.Push(&l.queue, task)
	l.mu.Unlock()

	l.signal()
	return task, nil
}

// Run executes due callbacks until ctx is done. Callbacks run on the
// calling goroutine. Pending tasks are dropped when Run returns.
func (l *Loop) Run(ctx context.Context) error {
	defer l.close()

	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		next, wait := l.pop()
		if next != nil {
			next.fn()
			continue
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		case <-timer.C:
		}
	}
}

// pop returns the first due task, or the time to wait for the next one.
func (l *Loop) pop() (*loopTask, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.queue.Len() == 0 {
		return nil, time.Hour
	}
	head := l.queue[0]
	if wait := head.due.Sub(l.now()); wait > 0 {
		return nil, wait
	}
	heap.Pop(&l.queue)
	return head, 0
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	for l.queue.Len() > 0 {
		heap.Pop(&l.queue)
	}
}

type loopQueue []*loopTask

func (q loopQueue) Len() int { return len(q) }

func (q loopQueue) Less(i, j int) bool {
	if q[i].due.Equal(q[j].due) {
		return q[i].seq < q[j].seq
	}
	return q[i].due.Before(q[j].due)
}

func (q loopQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *loopQueue) Push(x any) {
	task := x.(*loopTask)
	task.index = len(*q)
	*q = append(*q, task)
}

func (q *loopQueue) Pop() any {
	old := *q
	n := len(old)
	task := old[n-1]
	old[n-1] = nil
	task.index = -1
	*q = old[:n-1]
	return task
}
