package queue

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"marketsync/conf"
	"marketsync/database"
	"marketsync/log"
	"marketsync/model"
)

// Executor runs one parked write. The flag reports whether the target
// row existed; false reschedules the job with backoff.
type Executor interface {
	Execute(kind, payload string) (bool, error)
}

// Worker drains the durable retry queue. Due jobs are fanned out over
// a bounded goroutine pool; a job whose target row is still missing is
// pushed out by delay*factor^attempts until the attempt cap parks it
// as dead.
type Worker struct {
	db       *database.DB
	executor Executor

	delay       time.Duration
	factor      float64
	maxAttempts int
	poll        time.Duration
	pool        *ants.Pool
}

func NewWorker(db *database.DB, executor Executor) (*Worker, error) {
	pool, err := ants.NewPool(conf.QueueWorkers)
	if err != nil {
		return nil, err
	}
	return &Worker{
		db:          db,
		executor:    executor,
		delay:       conf.QueueDelay,
		factor:      conf.QueueFactor,
		maxAttempts: conf.QueueMaxAttempts,
		poll:        conf.QueuePollInterval,
		pool:        pool,
	}, nil
}

// Run polls for due jobs until the context ends.
func (w *Worker) Run(ctx context.Context) {
	defer w.pool.Release()
	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drain()
		}
	}
}

// drain runs every currently due job and waits for the batch, so one
// poll cycle never overlaps the next.
func (w *Worker) drain() {
	jobs, err := w.db.DueJobs(w.pool.Cap() * 8)
	if err != nil {
		log.Errorf("list due jobs: %v", err)
		return
	}
	var wg sync.WaitGroup
	for _, job := range jobs {
		job := job
		wg.Add(1)
		if err := w.pool.Submit(func() {
			defer wg.Done()
			w.runJob(job)
		}); err != nil {
			wg.Done()
			log.Errorf("submit job %v: %v", job.Id, err)
		}
	}
	wg.Wait()
}

func (w *Worker) runJob(job *model.RetryJob) {
	done, err := w.executor.Execute(job.Kind, job.Payload)
	if err != nil {
		log.Warnf("job %v (%v): %v", job.Id, job.Kind, err)
	}
	if done {
		if err := w.db.FinishJob(job.Id); err != nil {
			log.Errorf("finish job %v: %v", job.Id, err)
		}
		return
	}
	attempts := job.Attempts + 1
	if attempts >= w.maxAttempts {
		log.Warnf("job %v (%v) dead after %v attempts", job.Id, job.Kind, attempts)
		if err := w.db.DeadLetterJob(job.Id); err != nil {
			log.Errorf("dead letter job %v: %v", job.Id, err)
		}
		return
	}
	if err := w.db.RescheduleJob(job.Id, attempts, w.backoff(attempts)); err != nil {
		log.Errorf("reschedule job %v: %v", job.Id, err)
	}
}

// backoff grows the base delay exponentially with the attempt count.
func (w *Worker) backoff(attempts int) time.Duration {
	return time.Duration(float64(w.delay) * math.Pow(w.factor, float64(attempts-1)))
}
