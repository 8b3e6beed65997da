// internal/app/system/workers/runner.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/leirefolket/leirefolket/internal/app/system/tasks"
	"go.uber.org/zap"
)

// Runner executes a set of periodic jobs in the background, each on its
// own ticker. One Runner instance owns the whole set so shutdown can
// stop everything with a single Stop call.
type Runner struct {
	jobs   []tasks.Job
	log    *zap.Logger
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewRunner creates a runner for the given jobs. Start must be called
// before the jobs begin.
func NewRunner(logger *zap.Logger, jobs ...tasks.Job) *Runner {
	return &Runner{
		jobs:   jobs,
		log:    logger,
		stopCh: make(chan struct{}),
	}
}

// Start launches every job loop. Each job runs once immediately so a
// restart never pushes a daily task a full interval into the future.
func (r *Runner) Start() {
	for _, job := range r.jobs {
		r.wg.Add(1)
		go r.run(job)
		r.log.Info("background job started",
			zap.String("job", job.Name),
			zap.Duration("interval", job.Interval))
	}
}

// Stop signals every job loop to stop and waits for them to finish.
func (r *Runner) Stop() {
	close(r.stopCh)
	r.wg.Wait()
	r.log.Info("background jobs stopped")
}

func (r *Runner) run(job tasks.Job) {
	defer r.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	r.execute(job)
	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.execute(job)
		}
	}
}

func (r *Runner) execute(job tasks.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := job.Run(ctx); err != nil {
		r.log.Error("background job failed",
			zap.String("job", job.Name),
			zap.Error(err))
	}
}
