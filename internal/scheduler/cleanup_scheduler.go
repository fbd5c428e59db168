package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/fuboru/panel-backend/internal/app/service"
	"github.com/fuboru/panel-backend/pkg/logger"
	"github.com/fuboru/panel-backend/pkg/metrics"
	"github.com/robfig/cron/v3"
)

const cleanupJob = "storage-cleanup"

// CleanupScheduler retries queued object removals on a cron schedule.
type CleanupScheduler struct {
	cron           *cron.Cron
	spec           string
	cleanupService service.CleanupService
	metrics        *metrics.JobMetrics
	timeout        time.Duration

	mu      sync.Mutex
	running bool
}

func NewCleanupScheduler(spec string, cleanupService service.CleanupService, jobMetrics *metrics.JobMetrics) *CleanupScheduler {
	return &CleanupScheduler{
		cron:           cron.New(),
		spec:           spec,
		cleanupService: cleanupService,
		metrics:        jobMetrics,
		timeout:        5 * time.Minute,
	}
}

func (s *CleanupScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.RunOnce); err != nil {
		logger.Error("Failed to add cron job for storage cleanup", err, map[string]interface{}{
			"spec": s.spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Storage cleanup scheduler started", map[string]interface{}{
		"spec": s.spec,
	})
	return nil
}

// RunOnce processes the cleanup queue once. Overlapping runs are skipped.
func (s *CleanupScheduler) RunOnce() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		logger.Warn("Storage cleanup still running, skipping tick")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	report, err := s.cleanupService.ProcessPending(ctx)
	s.metrics.Observe(cleanupJob, time.Since(start), err)
	if err != nil {
		logger.Error("Scheduled storage cleanup failed", err, map[string]interface{}{
			"processed": report.Processed,
		})
		return
	}

	logger.Debug("Scheduled storage cleanup finished", map[string]interface{}{
		"processed": report.Processed,
		"removed":   report.Removed,
		"failed":    report.Failed,
	})
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *CleanupScheduler) Stop() {
	logger.Info("Stopping storage cleanup scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Storage cleanup scheduler stopped")
}
