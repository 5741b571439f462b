package payments

import (
	"context"
	"sync"
	"time"

	"fvivu/pkg/logger"
)

// RetryJob replays payment events that failed or were never settled
type RetryJob struct {
	service *WebhookService
	events  EventRepository
	config  *RetryJobConfig
	logger  *logger.Logger
	done    chan struct{}
	stop    sync.Once
}

// RetryJobConfig contains configuration for the retry job
type RetryJobConfig struct {
	Interval  time.Duration
	BatchSize int
}

// DefaultRetryJobConfig returns default job configuration
func DefaultRetryJobConfig() *RetryJobConfig {
	return &RetryJobConfig{
		Interval:  30 * time.Second,
		BatchSize: 50,
	}
}

// NewRetryJob creates the background job that reprocesses failed payment events
func NewRetryJob(service *WebhookService, events EventRepository, config *RetryJobConfig) *RetryJob {
	if config == nil {
		config = DefaultRetryJobConfig()
	}
	return &RetryJob{
		service: service,
		events:  events,
		config:  config,
		logger:  logger.GetDefault(),
		done:    make(chan struct{}),
	}
}

// Start runs the job in the background until Stop or ctx is done
func (j *RetryJob) Start(ctx context.Context) {
	j.logger.Info("Starting payment event retry job", "interval", j.config.Interval.String())
	go j.loop(ctx)
}

// Stop signals the loop to exit and waits for it
func (j *RetryJob) Stop() {
	j.stop.Do(func() {
		close(j.done)
		j.logger.Info("Payment event retry job stopped")
	})
}

func (j *RetryJob) loop(ctx context.Context) {
	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.RunOnce(ctx)
		case <-j.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// RunOnce processes one batch of due events and returns how many it picked up
func (j *RetryJob) RunOnce(ctx context.Context) int {
	due, err := j.events.DueForRetry(ctx, j.service.now(), j.config.BatchSize)
	if err != nil {
		j.logger.ErrorWithContext(ctx, "Error loading due payment events", err, nil)
		return 0
	}

	processed := 0
	for _, evt := range due {
		if ctx.Err() != nil {
			break
		}
		j.service.Process(ctx, evt.ProviderEventID)
		processed++
	}

	if processed > 0 {
		j.logger.InfoWithContext(ctx, "Replayed payment events", map[string]interface{}{"count": processed})
	}
	return processed
}
