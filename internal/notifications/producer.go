package notifications

import (
	"context"
	"fmt"
	"time"

	"fvivu/internal/shared/config"
	"fvivu/pkg/logger"

	"github.com/IBM/sarama"
)

// NotificationProducer puts notifications on the notification topic
type NotificationProducer interface {
	PublishNotification(ctx context.Context, notification *EmailNotification) error
	Close() error
	HealthCheck(ctx context.Context) error
}

// KafkaProducerConfig contains configuration for the Kafka notification producer
type KafkaProducerConfig struct {
	Brokers           []string
	NotificationTopic string
	RetryMax          int
	Timeout           time.Duration
	RequiredAcks      sarama.RequiredAcks
	CompressionType   sarama.CompressionCodec
	IdempotentWrites  bool
	MaxMessageBytes   int
}

// DefaultKafkaProducerConfig returns a default producer configuration
func DefaultKafkaProducerConfig(cfg config.KafkaConfig) *KafkaProducerConfig {
	return &KafkaProducerConfig{
		Brokers:           cfg.Brokers,
		NotificationTopic: cfg.NotificationTopic,
		RetryMax:          3,
		Timeout:           10 * time.Second,
		RequiredAcks:      sarama.WaitForAll,
		CompressionType:   sarama.CompressionSnappy,
		IdempotentWrites:  true,
		MaxMessageBytes:   1000000,
	}
}

// SaramaConfig builds the sarama producer settings
func (c *KafkaProducerConfig) SaramaConfig() *sarama.Config {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = c.RequiredAcks
	saramaConfig.Producer.Compression = c.CompressionType
	saramaConfig.Producer.Retry.Max = c.RetryMax
	saramaConfig.Producer.Timeout = c.Timeout
	saramaConfig.Producer.Idempotent = c.IdempotentWrites
	saramaConfig.Producer.MaxMessageBytes = c.MaxMessageBytes
	if c.IdempotentWrites {
		// idempotent writes need a single in-flight request per broker
		saramaConfig.Net.MaxOpenRequests = 1
	}
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner
	return saramaConfig
}

type KafkaNotificationProducer struct {
	producer sarama.SyncProducer
	topic    string
	logger   *logger.Logger
}

func NewKafkaNotificationProducer(cfg *KafkaProducerConfig) (*KafkaNotificationProducer, error) {
	producer, err := sarama.NewSyncProducer(cfg.Brokers, cfg.SaramaConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return newKafkaNotificationProducer(producer, cfg.NotificationTopic), nil
}

func newKafkaNotificationProducer(producer sarama.SyncProducer, topic string) *KafkaNotificationProducer {
	return &KafkaNotificationProducer{
		producer: producer,
		topic:    topic,
		logger:   logger.GetDefault(),
	}
}

func (knp *KafkaNotificationProducer) PublishNotification(ctx context.Context, notification *EmailNotification) error {
	notification.Status = NotificationStatusQueued
	notification.UpdatedAt = time.Now()

	messageBytes, err := notification.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic:     knp.topic,
		Key:       sarama.StringEncoder(notification.GetPartitionKey()),
		Value:     sarama.ByteEncoder(messageBytes),
		Headers:   createHeaders(notification),
		Timestamp: notification.CreatedAt,
	}

	partition, offset, err := knp.producer.SendMessage(message)
	if err != nil {
		notification.MarkFailed(err)
		return fmt.Errorf("failed to send notification to Kafka: %w", err)
	}

	knp.logger.InfoWithContext(ctx, "Notification published", map[string]interface{}{
		"topic":     knp.topic,
		"partition": partition,
		"offset":    offset,
		"type":      string(notification.Type),
		"recipient": notification.RecipientEmail,
	})
	return nil
}

func createHeaders(notification *EmailNotification) []sarama.RecordHeader {
	headers := []sarama.RecordHeader{
		{Key: []byte("notification_id"), Value: []byte(notification.ID.String())},
		{Key: []byte("notification_type"), Value: []byte(notification.Type)},
		{Key: []byte("priority"), Value: []byte(notification.Priority)},
		{Key: []byte("recipient_id"), Value: []byte(notification.RecipientID.String())},
		{Key: []byte("producer"), Value: []byte("fvivu-notifications")},
		{Key: []byte("created_at"), Value: []byte(notification.CreatedAt.Format(time.RFC3339))},
	}
	if notification.TourID != nil {
		headers = append(headers, sarama.RecordHeader{Key: []byte("tour_id"), Value: []byte(notification.TourID.String())})
	}
	if notification.BookingID != nil {
		headers = append(headers, sarama.RecordHeader{Key: []byte("booking_id"), Value: []byte(notification.BookingID.String())})
	}
	return headers
}

func (knp *KafkaNotificationProducer) Close() error {
	if err := knp.producer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka producer: %w", err)
	}
	return nil
}

func (knp *KafkaNotificationProducer) HealthCheck(ctx context.Context) error {
	if knp.producer == nil {
		return fmt.Errorf("health check failed - producer is nil")
	}
	if knp.topic == "" {
		return fmt.Errorf("health check failed - notification topic not configured")
	}
	return nil
}

// LogProducer drops notifications after logging them. Used when Kafka is off.
type LogProducer struct {
	logger *logger.Logger
}

func NewLogProducer() *LogProducer {
	return &LogProducer{logger: logger.GetDefault()}
}

func (p *LogProducer) PublishNotification(ctx context.Context, notification *EmailNotification) error {
	p.logger.InfoWithContext(ctx, "Kafka disabled, notification dropped", map[string]interface{}{
		"type":      string(notification.Type),
		"recipient": notification.RecipientEmail,
		"subject":   notification.Subject,
	})
	return nil
}

func (p *LogProducer) Close() error { return nil }

func (p *LogProducer) HealthCheck(context.Context) error { return nil }
