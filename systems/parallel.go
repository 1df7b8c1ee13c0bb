package systems

import (
	"runtime"
	"sync"
)

// DefaultParallelThreshold is the minimum range length to fan out.
// Below this, single-threaded is faster due to goroutine overhead.
const DefaultParallelThreshold = 64

// workChunk is a half-open index range for one worker.
type workChunk struct {
	start, end int
}

// WorkerPool runs a range kernel over disjoint chunks on persistent
// goroutines. Workers start lazily on the first parallel Run.
type WorkerPool struct {
	numWorkers int
	threshold  int

	kernel func(start, end int)

	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool
}

// NewWorkerPool creates a pool. workers <= 0 uses GOMAXPROCS; threshold
// <= 0 uses DefaultParallelThreshold.
func NewWorkerPool(workers, threshold int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if threshold <= 0 {
		threshold = DefaultParallelThreshold
	}
	return &WorkerPool{
		numWorkers: workers,
		threshold:  threshold,
	}
}

// Workers returns the number of worker goroutines.
func (p *WorkerPool) Workers() int {
	return p.numWorkers
}

// Run calls kernel over [0, n) split into disjoint chunks and returns
// once every chunk has completed. Run must not be called concurrently.
func (p *WorkerPool) Run(n int, kernel func(start, end int)) {
	if n <= 0 {
		return
	}
	if n < p.threshold || p.numWorkers == 1 {
		kernel(0, n)
		return
	}

	if !p.running {
		p.start()
	}
	p.kernel = kernel

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers

	dispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}
		p.workChan <- workChunk{start: start, end: end}
		dispatched++
	}

	// Join before publishing
	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}
	p.kernel = nil
}

func (p *WorkerPool) start() {
	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			p.kernel(chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

// Stop signals all workers to exit and waits for them. The pool restarts
// on the next parallel Run.
func (p *WorkerPool) Stop() {
	if !p.running {
		return
	}
	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}
