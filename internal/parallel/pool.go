// Package parallel provides the goroutine pools used by the editing engine.
//
// Two kinds of work run on pools: background filter tasks, which must never
// block the interactive caller, and row bands of a single pixel kernel, which
// are fanned out and joined. They should use separate pools so that a task
// never waits on bands queued behind itself.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool is a fixed set of goroutines pulling work from per-worker queues.
// Idle workers steal from other queues before blocking.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers    int
	workQueues []chan func()
	shared     chan func() // Submit queue, served by any idle worker
	done       chan struct{}
	wg         sync.WaitGroup
	running    atomic.Bool

	// mu is held shared while work is sent and exclusively by Close, so no
	// send lands in a queue after the workers have drained it.
	mu sync.RWMutex
}

// NewWorkerPool starts a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	queueSize := workers * 4
	if queueSize < 8 {
		queueSize = 8
	}

	p := &WorkerPool{
		workers:    workers,
		workQueues: make([]chan func(), workers),
		shared:     make(chan func(), queueSize),
		done:       make(chan struct{}),
	}
	for i := range workers {
		p.workQueues[i] = make(chan func(), queueSize)
	}

	p.running.Store(true)
	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	mine := p.workQueues[id]
	for {
		select {
		case <-p.done:
			p.drain(mine)
			p.drain(p.shared)
			return
		case work := <-mine:
			run(work)
		default:
			if stolen := p.steal(id); stolen != nil {
				run(stolen)
				continue
			}
			select {
			case <-p.done:
				p.drain(mine)
				p.drain(p.shared)
				return
			case work := <-mine:
				run(work)
			case work := <-p.shared:
				run(work)
			}
		}
	}
}

func run(work func()) {
	if work != nil {
		work()
	}
}

func (p *WorkerPool) drain(queue chan func()) {
	for {
		select {
		case work := <-queue:
			run(work)
		default:
			return
		}
	}
}

func (p *WorkerPool) steal(myID int) func() {
	for i := range p.workers {
		if i == myID {
			continue
		}
		select {
		case work := <-p.workQueues[i]:
			return work
		default:
		}
	}
	return nil
}

// Submit queues fn for the first idle worker without blocking.
// If the queue is full, fn runs on a fresh goroutine instead.
// Submit reports false only when the pool is closed and fn was not scheduled.
func (p *WorkerPool) Submit(fn func()) bool {
	if fn == nil {
		return false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.running.Load() {
		return false
	}
	select {
	case p.shared <- fn:
	default:
		go fn()
	}
	return true
}

// ExecuteAll distributes work across workers and waits for all of it.
// On a closed pool the work runs on the calling goroutine.
func (p *WorkerPool) ExecuteAll(work []func()) {
	if len(work) == 0 {
		return
	}
	p.mu.RLock()
	if !p.running.Load() {
		p.mu.RUnlock()
		for _, fn := range work {
			run(fn)
		}
		return
	}

	// Workers keep serving their queues until Close, which waits for the
	// read lock, so these sends always complete.
	var wg sync.WaitGroup
	wg.Add(len(work))
	for i, fn := range work {
		p.workQueues[i%p.workers] <- func() {
			defer wg.Done()
			run(fn)
		}
	}
	p.mu.RUnlock()
	wg.Wait()
}

// Rows splits [0, height) into contiguous bands, one per worker at most,
// and runs fn on each band in parallel. It returns once every band is done.
func (p *WorkerPool) Rows(height int, fn func(y0, y1 int)) {
	if height <= 0 {
		return
	}
	bands := p.workers
	if bands > height {
		bands = height
	}
	if bands <= 1 {
		fn(0, height)
		return
	}

	step := (height + bands - 1) / bands
	work := make([]func(), 0, bands)
	for y0 := 0; y0 < height; y0 += step {
		y1 := min(y0+step, height)
		work = append(work, func() { fn(y0, y1) })
	}
	p.ExecuteAll(work)
}

// Close stops accepting work, runs what is queued and stops the workers.
// Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	if !p.running.CompareAndSwap(true, false) {
		p.mu.Unlock()
		return
	}
	close(p.done)
	p.mu.Unlock()
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning reports whether the pool still accepts work.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}
