package fetchpool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stickscraper/pkg/droidz"
	"stickscraper/pkg/logger"
)

// DetailScraper fetches and parses one stick's detail page
type DetailScraper interface {
	ScrapeDetail(id string) (*droidz.Stick, error)
}

// Job represents a single detail-fetch task
type Job struct {
	ID string
}

// Result represents the outcome of a detail-fetch job
type Result struct {
	Job      Job
	Stick    *droidz.Stick
	Err      error
	Duration time.Duration
}

// WorkerPool runs detail fetches concurrently. It only fetches and parses;
// the caller drains Results and performs all store writes itself, keeping
// the store single-writer.
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	scraper     DetailScraper
	logger      logger.Logger
}

// New creates a detail-fetch worker pool
func New(numWorkers int, scraper DetailScraper, log logger.Logger) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	if log == nil {
		log = logger.GetLogger()
	}

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job, numWorkers*2),
		resultQueue: make(chan Result, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		scraper:     scraper,
		logger:      log,
	}
}

// Start launches all workers
func (wp *WorkerPool) Start() {
	wp.logger.DebugWithFields("Starting fetch pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the job queue, waits for in-flight jobs, then closes the
// result queue.
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()

	wp.logger.Debug("Fetch pool stopped")
}

// Submit adds a detail-fetch job to the queue
func (wp *WorkerPool) Submit(job Job) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("fetch pool is shutting down")
	}
}

// Results returns the result channel for consuming fetch results
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}

// worker is the main worker routine
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		select {
		case <-wp.ctx.Done():
			return
		default:
		}

		result := wp.processJob(job, id)

		select {
		case wp.resultQueue <- result:
		case <-wp.ctx.Done():
			return
		}
	}
}

// processJob fetches and parses one detail page
func (wp *WorkerPool) processJob(job Job, workerID int) Result {
	start := time.Now()

	wp.logger.DebugWithFields("Worker fetching detail", map[string]interface{}{
		"worker_id": workerID,
		"id":        job.ID,
	})

	stick, err := wp.scraper.ScrapeDetail(job.ID)
	result := Result{
		Job:      job,
		Stick:    stick,
		Err:      err,
		Duration: time.Since(start),
	}

	if err != nil {
		wp.logger.ErrorWithFields("Worker failed to scrape detail", map[string]interface{}{
			"worker_id": workerID,
			"id":        job.ID,
			"error":     err.Error(),
			"duration":  result.Duration,
		})
	}

	return result
}
