package pipeline

import (
	"context"
	"sync"
)

// frameJob is one instant to render.
type frameJob struct {
	Frame
}

type frameResult struct {
	Frame
	Err error
}

// workerPool renders frames in parallel. Results arrive in completion
// order.
type workerPool struct {
	workers int
	jobs    chan frameJob
	results chan frameResult
	wg      sync.WaitGroup
}

func newWorkerPool(workers int) *workerPool {
	if workers < 1 {
		workers = 1
	}
	return &workerPool{
		workers: workers,
		jobs:    make(chan frameJob, workers*2),
		results: make(chan frameResult, workers*2),
	}
}

// start launches the workers. Jobs received after ctx is done are
// reported with ctx's error without being processed.
func (wp *workerPool) start(ctx context.Context, process func(context.Context, Frame) error) {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go func() {
			defer wp.wg.Done()
			for job := range wp.jobs {
				err := ctx.Err()
				if err == nil {
					err = process(ctx, job.Frame)
				}
				wp.results <- frameResult{Frame: job.Frame, Err: err}
			}
		}()
	}
}

// wait closes results once every worker has drained the job queue.
func (wp *workerPool) wait() {
	wp.wg.Wait()
	close(wp.results)
}
