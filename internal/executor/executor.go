// Package executor implements the Control Executors (component F): each
// region gets a single-worker FIFO queue so that its tasks execute in
// dispatch order and never overlap, while different regions' executors run
// in parallel. Grounded on hupe1980-vecgo/engine/worker_pool.go's
// WorkerPool, narrowed from a fixed-size pool to exactly one worker per
// queue and adapted from arbitrary closures to task.Task.
package executor

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/zhangjie0303/zj-dingo-store/internal/regioncmd"
	"github.com/zhangjie0303/zj-dingo-store/internal/task"
)

// job bundles everything the worker needs to run and finalize one command.
type job struct {
	ctx context.Context
	t   task.Task
	cmd *regioncmd.Command
}

// Executor is a FIFO queue with a single worker goroutine. RegionID is 0 for
// the distinguished shared executor.
type Executor struct {
	RegionID uint64
	env      *task.Env

	inbox  chan job
	stopCh chan struct{}
	wg     sync.WaitGroup
	closed atomic.Bool

	submitMu sync.RWMutex
}

// New allocates an executor; Init must be called before Execute.
func New(regionID uint64, env *task.Env) *Executor {
	return &Executor{
		RegionID: regionID,
		env:      env,
		inbox:    make(chan job, 64),
		stopCh:   make(chan struct{}),
	}
}

// Init starts the executor's single worker goroutine.
func (e *Executor) Init() {
	e.wg.Add(1)
	go e.run()
}

func (e *Executor) run() {
	defer e.wg.Done()
	for {
		select {
		case <-e.stopCh:
			// Drain whatever is already queued, then exit.
			for {
				select {
				case j, ok := <-e.inbox:
					if !ok {
						return
					}
					e.runJob(j)
				default:
					return
				}
			}
		case j, ok := <-e.inbox:
			if !ok {
				return
			}
			e.runJob(j)
		}
	}
}

func (e *Executor) runJob(j job) {
	err := j.t.Run(j.ctx, e.env, j.cmd)
	_ = task.Finalize(e.env, j.cmd, err)
}

// Execute enqueues a task for this executor's worker. Returns false if the
// executor is shutting down; the caller (the controller) surfaces that as a
// dispatch failure rather than blocking forever on a dead queue.
func (e *Executor) Execute(ctx context.Context, t task.Task, cmd *regioncmd.Command) bool {
	e.submitMu.RLock()
	defer e.submitMu.RUnlock()
	if e.closed.Load() {
		return false
	}
	select {
	case e.inbox <- job{ctx: ctx, t: t, cmd: cmd}:
		return true
	case <-e.stopCh:
		return false
	}
}

// Stop marks the executor shutting down, drains whatever is already queued,
// and joins the worker. Idempotent.
func (e *Executor) Stop() {
	if !e.closed.CompareAndSwap(false, true) {
		return
	}
	e.submitMu.Lock()
	close(e.stopCh)
	e.submitMu.Unlock()
	e.wg.Wait()
}
