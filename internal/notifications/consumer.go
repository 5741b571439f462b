package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"fvivu/internal/shared/config"
	"fvivu/pkg/logger"

	"github.com/IBM/sarama"
	"github.com/cenkalti/backoff/v4"
)

type NotificationConsumer interface {
	StartConsumers(ctx context.Context, numWorkers int) error
	Stop() error
	HealthCheck(ctx context.Context) error
}

type ConsumerConfig struct {
	Brokers           []string
	GroupID           string
	Topics            []string
	SessionTimeout    time.Duration
	Heartbeat         time.Duration
	MaxProcessingTime time.Duration
	OffsetOldest      bool
	MaxRetries        uint64
	RetryBackoff      time.Duration
}

func DefaultConsumerConfig(cfg config.KafkaConfig) *ConsumerConfig {
	return &ConsumerConfig{
		Brokers:           cfg.Brokers,
		GroupID:           cfg.ConsumerGroupID,
		Topics:            []string{cfg.NotificationTopic},
		SessionTimeout:    30 * time.Second,
		Heartbeat:         3 * time.Second,
		MaxProcessingTime: 5 * time.Minute,
		OffsetOldest:      true,
		MaxRetries:        3,
		RetryBackoff:      time.Second,
	}
}

type KafkaNotificationConsumer struct {
	consumerGroup sarama.ConsumerGroup
	config        *ConsumerConfig
	handler       *ConsumerGroupHandler
	logger        *logger.Logger
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

func NewKafkaNotificationConsumer(cfg *ConsumerConfig, emailService EmailService) (*KafkaNotificationConsumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Consumer.Group.Session.Timeout = cfg.SessionTimeout
	saramaConfig.Consumer.Group.Heartbeat.Interval = cfg.Heartbeat
	saramaConfig.Consumer.MaxProcessingTime = cfg.MaxProcessingTime
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.Consumer.Offsets.AutoCommit.Enable = true
	saramaConfig.Consumer.Offsets.AutoCommit.Interval = time.Second
	if cfg.OffsetOldest {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	}

	consumerGroup, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return &KafkaNotificationConsumer{
		consumerGroup: consumerGroup,
		config:        cfg,
		handler:       NewConsumerGroupHandler(emailService, cfg),
		logger:        logger.GetDefault(),
	}, nil
}

// StartConsumers joins the consumer group with a single Consume loop. Each
// claimed partition fans its messages out to numWorkers senders.
func (knc *KafkaNotificationConsumer) StartConsumers(ctx context.Context, numWorkers int) error {
	if numWorkers < 1 {
		numWorkers = 1
	}
	ctx, knc.cancel = context.WithCancel(ctx)
	knc.handler.workers = numWorkers

	go knc.handleErrors()

	knc.wg.Add(1)
	go func() {
		defer knc.wg.Done()
		knc.consume(ctx)
	}()

	knc.logger.Info("Notification consumer started", "workers_per_partition", numWorkers, "topics", knc.config.Topics)
	return nil
}

func (knc *KafkaNotificationConsumer) consume(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		// Consume returns on every rebalance and must be called again
		if err := knc.consumerGroup.Consume(ctx, knc.config.Topics, knc.handler); err != nil {
			knc.logger.Warn("Error consuming notifications", "error", err)
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}
		}
	}
}

func (knc *KafkaNotificationConsumer) handleErrors() {
	for err := range knc.consumerGroup.Errors() {
		knc.logger.Warn("Consumer group error", "error", err)
	}
}

func (knc *KafkaNotificationConsumer) Stop() error {
	if knc.cancel != nil {
		knc.cancel()
	}
	knc.wg.Wait()
	if err := knc.consumerGroup.Close(); err != nil {
		return fmt.Errorf("failed to close consumer group: %w", err)
	}
	return nil
}

func (knc *KafkaNotificationConsumer) HealthCheck(ctx context.Context) error {
	if knc.handler.emailService == nil {
		return fmt.Errorf("email service not configured")
	}
	return nil
}

// ConsumerGroupHandler sends each consumed notification by email
type ConsumerGroupHandler struct {
	emailService EmailService
	newBackOff   func() backoff.BackOff
	workers      int
	logger       *logger.Logger
}

func NewConsumerGroupHandler(emailService EmailService, cfg *ConsumerConfig) *ConsumerGroupHandler {
	return &ConsumerGroupHandler{
		emailService: emailService,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = cfg.RetryBackoff
			return backoff.WithMaxRetries(b, cfg.MaxRetries)
		},
		workers: 1,
		logger:  logger.GetDefault(),
	}
}

func (h *ConsumerGroupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *ConsumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim hands messages to a pool of senders and marks offsets in
// partition order, so a commit never passes a message still being sent.
func (h *ConsumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := session.Context()
	workers := h.workers
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan *sarama.ConsumerMessage)
	done := make(chan *sarama.ConsumerMessage, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for message := range jobs {
				h.handle(ctx, message)
				done <- message
			}
		}()
	}

	tracker := newOffsetTracker(session)
	messages := claim.Messages()
	var pending *sarama.ConsumerMessage

loop:
	for {
		in, out := messages, chan<- *sarama.ConsumerMessage(nil)
		if pending != nil {
			in, out = nil, jobs
		}
		if in == nil && out == nil {
			break
		}

		select {
		case message, ok := <-in:
			if !ok {
				messages = nil
				continue
			}
			tracker.dispatched(message)
			pending = message
		case out <- pending:
			pending = nil
		case message := <-done:
			tracker.finished(message)
		case <-ctx.Done():
			break loop
		}
	}

	close(jobs)
	go func() {
		wg.Wait()
		close(done)
	}()
	for message := range done {
		tracker.finished(message)
	}
	return nil
}

func (h *ConsumerGroupHandler) handle(ctx context.Context, message *sarama.ConsumerMessage) {
	if err := h.processMessage(ctx, message.Value); err != nil {
		// failed mail is not redelivered; the error log is the record
		h.logger.ErrorWithContext(ctx, "Notification dropped", err, map[string]interface{}{
			"partition": message.Partition,
			"offset":    message.Offset,
		})
	}
}

// offsetTracker marks messages only once every earlier message of the claim
// has finished.
type offsetTracker struct {
	session  sarama.ConsumerGroupSession
	inFlight []*sarama.ConsumerMessage
	done     map[int64]bool
}

func newOffsetTracker(session sarama.ConsumerGroupSession) *offsetTracker {
	return &offsetTracker{session: session, done: make(map[int64]bool)}
}

func (t *offsetTracker) dispatched(message *sarama.ConsumerMessage) {
	t.inFlight = append(t.inFlight, message)
}

func (t *offsetTracker) finished(message *sarama.ConsumerMessage) {
	t.done[message.Offset] = true
	for len(t.inFlight) > 0 && t.done[t.inFlight[0].Offset] {
		head := t.inFlight[0]
		delete(t.done, head.Offset)
		t.inFlight = t.inFlight[1:]
		t.session.MarkMessage(head, "")
	}
}

func (h *ConsumerGroupHandler) processMessage(ctx context.Context, value []byte) error {
	var notification EmailNotification
	if err := json.Unmarshal(value, &notification); err != nil {
		return fmt.Errorf("failed to unmarshal notification: %w", err)
	}
	notification.Status = NotificationStatusSending

	send := func() error {
		err := h.emailService.SendNotification(ctx, &notification)
		if err != nil {
			notification.RetryCount++
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		h.logger.WarnContext(ctx, "Email send failed, retrying", "notification_id", notification.ID, "error", err, "retry_in", wait)
	}

	if err := backoff.RetryNotify(send, backoff.WithContext(h.newBackOff(), ctx), notify); err != nil {
		notification.MarkFailed(err)
		return err
	}

	notification.MarkSent()
	return nil
}
