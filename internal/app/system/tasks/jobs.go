// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/leirefolket/leirefolket/internal/app/accounts"
	"go.uber.org/zap"
)

// Job is a named periodic task run by the workers package.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// DeletionCleanupJob creates the daily sweep that archives and removes
// accounts whose deletion grace period has run out. Errors inside the
// sweep are contained per account; the job itself only fails when the
// candidate list cannot be read.
func DeletionCleanupJob(svc *accounts.Service, logger *zap.Logger) Job {
	return Job{
		Name:     "deletion-cleanup",
		Interval: 24 * time.Hour,
		Run: func(ctx context.Context) error {
			res, err := svc.CleanupPendingDeletions(ctx)
			if err != nil {
				return err
			}
			if res.Examined > 0 {
				logger.Info("deletion cleanup ran",
					zap.Int("examined", res.Examined),
					zap.Int("removed", res.Removed),
					zap.Int("failed", res.Failed))
			}
			return nil
		},
	}
}
