// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package raster

import (
	"container/heap"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/compositor/internal/logging"
	"github.com/gogpu/compositor/internal/parallel"
)

// Scheduler accepts raster tasks for asynchronous execution.
//
// If Submit returns nil, done is called exactly once with the task's
// result, from a goroutine other than the caller's. If Submit returns an
// error, done is never called and the caller still owns the task resource.
type Scheduler interface {
	Submit(task *Task, done func(Result)) error
}

// SchedulerOption configures a WorkerScheduler.
type SchedulerOption func(*schedulerOptions)

type schedulerOptions struct {
	workers int
	logger  *slog.Logger
}

// WithWorkers sets the number of raster goroutines. Zero or negative means
// GOMAXPROCS.
func WithWorkers(n int) SchedulerOption {
	return func(o *schedulerOptions) {
		o.workers = n
	}
}

// WithLogger sets the scheduler logger.
func WithLogger(l *slog.Logger) SchedulerOption {
	return func(o *schedulerOptions) {
		o.logger = l
	}
}

// WorkerScheduler runs tasks on a goroutine pool in priority order.
//
// At most one task per worker is handed to the pool at a time; the rest wait
// in a priority queue, so a task submitted later with a more urgent priority
// overtakes queued ones.
//
// Thread safety: WorkerScheduler is safe for concurrent use.
type WorkerScheduler struct {
	pool   *parallel.WorkerPool
	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	idle        *sync.Cond
	queue       taskQueue
	seq         uint64
	inFlight    int
	maxInFlight int
	closed      bool
	log         *slog.Logger
}

// NewWorkerScheduler starts a scheduler and its workers.
func NewWorkerScheduler(opts ...SchedulerOption) *WorkerScheduler {
	o := schedulerOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	s := &WorkerScheduler{log: logging.OrNop(o.logger)}
	s.idle = sync.NewCond(&s.mu)
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.pool = parallel.NewWorkerPool(o.workers, func(v any) {
		s.logger().Error("raster: worker panic", "err", v)
	})
	s.maxInFlight = s.pool.Workers()
	return s
}

// SetLogger replaces the scheduler logger. Nil restores silence.
func (s *WorkerScheduler) SetLogger(l *slog.Logger) {
	s.mu.Lock()
	s.log = logging.OrNop(l)
	s.mu.Unlock()
}

func (s *WorkerScheduler) logger() *slog.Logger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log
}

// Workers returns the number of raster goroutines.
func (s *WorkerScheduler) Workers() int {
	return s.pool.Workers()
}

// Submit queues task. See Scheduler.
func (s *WorkerScheduler) Submit(task *Task, done func(Result)) error {
	if task == nil || done == nil {
		return fmt.Errorf("raster: Submit requires a task and a callback")
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSchedulerClosed
	}
	s.seq++
	heap.Push(&s.queue, &queuedTask{task: task, done: done, seq: s.seq})
	ready := s.takeReadyLocked()
	s.mu.Unlock()

	s.dispatch(ready)
	return nil
}

// Pending returns the number of tasks queued or running.
func (s *WorkerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len() + s.inFlight
}

// WaitIdle blocks until no task is queued or running. It exists for tests
// and offline tools; the frame goroutine must never call it.
func (s *WorkerScheduler) WaitIdle() {
	s.mu.Lock()
	for s.queue.Len() > 0 || s.inFlight > 0 {
		s.idle.Wait()
	}
	s.mu.Unlock()
}

// Close stops accepting tasks. Queued tasks complete with
// ErrSchedulerClosed without running; running tasks see a cancelled context
// and finish before Close returns. Close is safe to call multiple times.
func (s *WorkerScheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	var dropped []*queuedTask
	for s.queue.Len() > 0 {
		dropped = append(dropped, heap.Pop(&s.queue).(*queuedTask))
	}
	s.mu.Unlock()

	s.cancel()
	for _, q := range dropped {
		q.done(Result{
			Task:     q.task,
			TileKey:  q.task.TileKey(),
			Resource: q.task.Resource(),
			Err:      ErrSchedulerClosed,
		})
	}
	s.pool.Close()

	s.mu.Lock()
	s.idle.Broadcast()
	s.mu.Unlock()
}

// takeReadyLocked pops as many tasks as there are free worker slots.
func (s *WorkerScheduler) takeReadyLocked() []*queuedTask {
	var ready []*queuedTask
	for s.inFlight < s.maxInFlight && s.queue.Len() > 0 {
		ready = append(ready, heap.Pop(&s.queue).(*queuedTask))
		s.inFlight++
	}
	return ready
}

func (s *WorkerScheduler) dispatch(ready []*queuedTask) {
	for _, q := range ready {
		if !s.pool.Submit(s.job(q)) {
			// The pool only refuses work once closed.
			q.done(Result{Task: q.task, TileKey: q.task.TileKey(), Resource: q.task.Resource(), Err: ErrSchedulerClosed})
			s.finish()
		}
	}
}

func (s *WorkerScheduler) job(q *queuedTask) func() {
	return func() {
		var res Result
		defer func() {
			if r := recover(); r != nil {
				res = Result{
					Task:     q.task,
					TileKey:  q.task.TileKey(),
					Resource: q.task.Resource(),
					Err:      fmt.Errorf("%w: %v", ErrTaskPanicked, r),
				}
			}
			q.done(res)
			s.finish()
		}()
		res = q.task.Run(s.ctx)
	}
}

// finish releases a worker slot and starts the next queued task.
func (s *WorkerScheduler) finish() {
	s.mu.Lock()
	s.inFlight--
	ready := s.takeReadyLocked()
	if s.queue.Len() == 0 && s.inFlight == 0 {
		s.idle.Broadcast()
	}
	s.mu.Unlock()

	s.dispatch(ready)
}

// queuedTask is a heap entry.
type queuedTask struct {
	task *Task
	done func(Result)
	seq  uint64
}

// taskQueue orders tasks by priority, then submission order.
type taskQueue []*queuedTask

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	if q[i].task.Priority() != q[j].task.Priority() {
		return q[i].task.Priority() < q[j].task.Priority()
	}
	return q[i].seq < q[j].seq
}

func (q taskQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *taskQueue) Push(x any) { *q = append(*q, x.(*queuedTask)) }

func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

var _ Scheduler = (*WorkerScheduler)(nil)
