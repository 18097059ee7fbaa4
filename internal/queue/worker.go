package queue

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
)

// Worker runs a pool of goroutines that claim and process jobs
type Worker struct {
	queue      *Queue
	numWorkers int
	wg         sync.WaitGroup
	quit       chan struct{}
	scheduler  *gocron.Scheduler
}

// NewWorker creates a worker pool over the queue
func NewWorker(queue *Queue, numWorkers int) *Worker {
	if numWorkers <= 0 {
		numWorkers = 2
	}
	return &Worker{
		queue:      queue,
		numWorkers: numWorkers,
		quit:       make(chan struct{}),
		scheduler:  gocron.NewScheduler(time.UTC),
	}
}

// Start starts the worker goroutines and the retry sweeper
func (w *Worker) Start() {
	log.Printf("Starting %d queue workers", w.numWorkers)

	for i := 0; i < w.numWorkers; i++ {
		w.wg.Add(1)
		go w.process(i)
	}

	// Sweep retrying jobs back to pending once their backoff elapses.
	w.scheduler.Every(1).Minute().Do(func() {
		w.queue.requeueDueRetries()
	})
	w.scheduler.StartAsync()
}

// Stop stops the workers and waits for in-flight jobs to finish
func (w *Worker) Stop() {
	log.Println("Stopping queue workers")
	close(w.quit)
	w.wg.Wait()
	w.scheduler.Stop()
}

func (w *Worker) process(workerID int) {
	defer w.wg.Done()

	for {
		select {
		case <-w.quit:
			log.Printf("Queue worker %d stopped", workerID)
			return
		default:
			job, err := w.queue.claimNext()
			if err != nil {
				log.Printf("Worker %d failed to claim job: %v", workerID, err)
				time.Sleep(1 * time.Second)
				continue
			}
			if job == nil {
				w.idle()
				continue
			}

			w.queue.processJob(context.Background(), *job)
		}
	}
}

// idle waits for work. With redis available it blocks on the wake-up list so
// new jobs are picked up immediately; otherwise it falls back to polling.
func (w *Worker) idle() {
	if w.queue.redis != nil {
		if _, err := w.queue.redis.Pop(1 * time.Second); err != nil {
			time.Sleep(500 * time.Millisecond)
		}
		return
	}
	time.Sleep(1 * time.Second)
}
