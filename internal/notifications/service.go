package notifications

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"fvivu/internal/bookings"
	"fvivu/internal/shared/config"
	"fvivu/internal/tours"
	"fvivu/internal/users"
	"fvivu/pkg/logger"
)

// Publisher turns domain events into email notifications
type Publisher struct {
	producer    NotificationProducer
	frontendURL string
	currency    string
}

func NewPublisher(producer NotificationProducer, frontendURL, currency string) *Publisher {
	return &Publisher{
		producer:    producer,
		frontendURL: frontendURL,
		currency:    currency,
	}
}

func (p *Publisher) BookingConfirmed(ctx context.Context, booking *bookings.Booking, customer *users.User) error {
	tourName := "your tour"
	if booking.Tour != nil {
		tourName = booking.Tour.Name
	}

	notification := NewNotificationBuilder().
		WithType(NotificationTypeBookingConfirmed).
		WithRecipient(customer.ID, customer.Email, customer.Name).
		WithSubject(fmt.Sprintf("Booking confirmed: %s", tourName)).
		WithBookingContext(booking.ID).
		WithTourContext(booking.TourID).
		WithTemplateData(map[string]interface{}{
			"tourName":       tourName,
			"startDate":      tours.FormatDay(booking.StartDate),
			"numberOfPeople": strconv.Itoa(booking.NumberOfPeople),
			"price":          strconv.FormatInt(booking.Price, 10),
			"currency":       p.currency,
			"bookingsUrl":    p.frontendURL + "/my-bookings",
		}).
		Build()

	return p.producer.PublishNotification(ctx, notification)
}

func (p *Publisher) TourReviewed(ctx context.Context, tour *tours.Tour, partner *users.User) error {
	subject := fmt.Sprintf("Your tour %s was approved", tour.Name)
	if tour.Status != tours.StatusActive {
		subject = fmt.Sprintf("Your tour %s was not approved", tour.Name)
	}

	notification := NewNotificationBuilder().
		WithType(NotificationTypeTourApprovalDecision).
		WithRecipient(partner.ID, partner.Email, partner.Name).
		WithSubject(subject).
		WithTourContext(tour.ID).
		WithTemplateData(map[string]interface{}{
			"tourName": tour.Name,
			"decision": string(tour.Status),
		}).
		Build()

	return p.producer.PublishNotification(ctx, notification)
}

func (p *Publisher) PartnerWelcome(ctx context.Context, partner *users.User, temporaryPassword string) error {
	notification := NewNotificationBuilder().
		WithType(NotificationTypePartnerWelcome).
		WithRecipient(partner.ID, partner.Email, partner.Name).
		WithSubject("Welcome to Fvivu, your partner account is ready").
		WithTemplateData(map[string]interface{}{
			"temporaryPassword": temporaryPassword,
			"loginUrl":          p.frontendURL + "/login",
		}).
		Build()

	return p.producer.PublishNotification(ctx, notification)
}

// EmailConfirmation mails the PIN that confirms a new account's address
func (p *Publisher) EmailConfirmation(ctx context.Context, user *users.User, pin string, ttl time.Duration) error {
	notification := NewNotificationBuilder().
		WithType(NotificationTypeEmailConfirmation).
		WithRecipient(user.ID, user.Email, user.Name).
		WithSubject("Your Fvivu confirmation PIN").
		WithTemplateData(map[string]interface{}{
			"pin":              pin,
			"expiresInMinutes": strconv.Itoa(int(ttl.Minutes())),
		}).
		Build()

	return p.producer.PublishNotification(ctx, notification)
}

// PasswordReset mails a link to the frontend reset page carrying the token
func (p *Publisher) PasswordReset(ctx context.Context, user *users.User, token string, ttl time.Duration) error {
	params := url.Values{}
	params.Set("token", token)
	params.Set("email", user.Email)

	notification := NewNotificationBuilder().
		WithType(NotificationTypePasswordReset).
		WithRecipient(user.ID, user.Email, user.Name).
		WithSubject("Reset your Fvivu password").
		WithTemplateData(map[string]interface{}{
			"resetUrl":         p.frontendURL + "/reset-password?" + params.Encode(),
			"expiresInMinutes": strconv.Itoa(int(ttl.Minutes())),
		}).
		Build()

	return p.producer.PublishNotification(ctx, notification)
}

func (p *Publisher) Welcome(ctx context.Context, user *users.User) error {
	notification := NewNotificationBuilder().
		WithType(NotificationTypeWelcome).
		WithRecipient(user.ID, user.Email, user.Name).
		WithSubject("Welcome to Fvivu").
		WithTemplateData(map[string]interface{}{
			"toursUrl": p.frontendURL + "/tours",
		}).
		Build()

	return p.producer.PublishNotification(ctx, notification)
}

// Service owns the notification pipeline: the producer behind the Publisher
// and, when Kafka is enabled, the consumer workers that send the mail.
type Service struct {
	producer  NotificationProducer
	consumer  NotificationConsumer
	publisher *Publisher
	workers   int
	logger    *logger.Logger

	mu        sync.Mutex
	isRunning bool
}

func NewService(cfg *config.Config) (*Service, error) {
	log := logger.GetDefault()

	if !cfg.Kafka.Enabled {
		log.Info("Kafka disabled, notifications will be logged only")
		producer := NewLogProducer()
		return newService(producer, nil, NewPublisher(producer, cfg.FrontendURL, cfg.Stripe.Currency), 0), nil
	}

	var emailService EmailService
	if cfg.SMTPConfigured() {
		smtpService, err := NewSMTPEmailService(cfg.Email)
		if err != nil {
			return nil, fmt.Errorf("invalid SMTP configuration: %w", err)
		}
		emailService = smtpService
	} else {
		log.Warn("SMTP not configured, emails will be logged instead of sent")
		emailService = NewLogEmailService()
	}

	producer, err := NewKafkaNotificationProducer(DefaultKafkaProducerConfig(cfg.Kafka))
	if err != nil {
		return nil, fmt.Errorf("failed to create notification producer: %w", err)
	}

	consumer, err := NewKafkaNotificationConsumer(DefaultConsumerConfig(cfg.Kafka), emailService)
	if err != nil {
		_ = producer.Close()
		return nil, fmt.Errorf("failed to create notification consumer: %w", err)
	}

	return newService(producer, consumer, NewPublisher(producer, cfg.FrontendURL, cfg.Stripe.Currency), cfg.Kafka.ConsumerWorkers), nil
}

func newService(producer NotificationProducer, consumer NotificationConsumer, publisher *Publisher, workers int) *Service {
	return &Service{
		producer:  producer,
		consumer:  consumer,
		publisher: publisher,
		workers:   workers,
		logger:    logger.GetDefault(),
	}
}

func (s *Service) Publisher() *Publisher {
	return s.publisher
}

func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("notification service is already running")
	}
	if s.consumer != nil {
		if err := s.consumer.StartConsumers(ctx, s.workers); err != nil {
			return fmt.Errorf("failed to start consumers: %w", err)
		}
	}
	s.isRunning = true
	return nil
}

func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}
	if s.consumer != nil {
		if err := s.consumer.Stop(); err != nil {
			s.logger.Warn("Error stopping notification consumer", "error", err)
		}
	}
	if err := s.producer.Close(); err != nil {
		s.logger.Warn("Error closing notification producer", "error", err)
	}
	s.isRunning = false
	s.logger.Info("Notification service stopped")
	return nil
}

func (s *Service) HealthCheck(ctx context.Context) error {
	if err := s.producer.HealthCheck(ctx); err != nil {
		return fmt.Errorf("producer health check failed: %w", err)
	}
	if s.consumer != nil {
		if err := s.consumer.HealthCheck(ctx); err != nil {
			return fmt.Errorf("consumer health check failed: %w", err)
		}
	}
	return nil
}
