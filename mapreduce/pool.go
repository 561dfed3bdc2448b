package mapreduce

import (
	"context"
	"sync"
)

// task is one unit of per-step work submitted to a workerPool.
type task struct {
	index int
	fn    func(ctx context.Context) (any, error)
}

// taskSlot is the single-writer (the worker running the task),
// single-reader (the in-order reducer goroutine) result cell for one
// local step, grounded on the teacher's gpu_batch_pipeline.go
// buffer/stream bookkeeping style.
type taskSlot struct {
	ready chan struct{}
	value any
	err   error
}

func newTaskSlots(n int) []taskSlot {
	slots := make([]taskSlot, n)
	for i := range slots {
		slots[i].ready = make(chan struct{})
	}
	return slots
}

func (s *taskSlot) fill(v any, err error) {
	s.value, s.err = v, err
	close(s.ready)
}

func (s *taskSlot) wait(ctx context.Context) (any, error) {
	select {
	case <-s.ready:
		return s.value, s.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// workerPool is a fixed-size goroutine pool reading from a buffered
// task channel. Tasks always run to completion once started — the
// kernel has no cancellation, per the concurrency model's "no
// cancellation" rule. Every task is run with context.Background(), so
// the caller's ctx deadline or cancellation does not reach the task's
// upstream Execute calls.
type workerPool struct {
	tasks chan task
	wg    sync.WaitGroup
}

func newWorkerPool(size int, slots []taskSlot) *workerPool {
	if size < 1 {
		size = 1
	}
	p := &workerPool{tasks: make(chan task, len(slots))}
	p.wg.Add(size)
	for w := 0; w < size; w++ {
		go func() {
			defer p.wg.Done()
			for t := range p.tasks {
				v, err := t.fn(context.Background())
				slots[t.index].fill(v, err)
			}
		}()
	}
	return p
}

// submit enqueues t. Must not be called after close.
func (p *workerPool) submit(t task) { p.tasks <- t }

// closeAndWait closes the task channel and blocks until every worker
// has drained it.
func (p *workerPool) closeAndWait() {
	close(p.tasks)
	p.wg.Wait()
}
