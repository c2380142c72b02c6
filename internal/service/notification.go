package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/SeifHesham2/SwiftRide/internal/domain"
	"github.com/SeifHesham2/SwiftRide/internal/repository"
)

// ErrPublishTimeout is returned when the broker does not acknowledge a message in time.
var ErrPublishTimeout = errors.New("notification publish timed out")

// NotificationSender delivers a message to an email address.
type NotificationSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogSender writes notifications to the log instead of delivering them.
type LogSender struct {
	logger logrus.FieldLogger
}

// NewLogSender creates a new LogSender.
func NewLogSender(logger logrus.FieldLogger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the notification.
func (s *LogSender) Send(ctx context.Context, to, subject, body string) error {
	s.logger.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
	}).Info("[NOTIFICATION] " + body)
	return nil
}

// EmailMessage is the envelope published to the mail broker topic.
type EmailMessage struct {
	ID      string    `json:"id"`
	To      string    `json:"to"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	SentAt  time.Time `json:"sent_at"`
}

// MQTTSender publishes notifications to an MQTT topic consumed by the mailer.
type MQTTSender struct {
	client  mqtt.Client
	topic   string
	qos     byte
	timeout time.Duration
}

// NewMQTTSender creates a new MQTTSender.
func NewMQTTSender(client mqtt.Client, topic string, qos byte, timeout time.Duration) *MQTTSender {
	return &MQTTSender{client: client, topic: topic, qos: qos, timeout: timeout}
}

// Send publishes the notification and waits for the broker acknowledgement.
func (s *MQTTSender) Send(ctx context.Context, to, subject, body string) error {
	payload, err := json.Marshal(EmailMessage{
		ID:      uuid.New().String(),
		To:      to,
		Subject: subject,
		Body:    body,
		SentAt:  time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	token := s.client.Publish(s.topic, s.qos, false, payload)
	if !token.WaitTimeout(s.timeout) {
		return ErrPublishTimeout
	}
	return token.Error()
}

// NotificationService composes and delivers customer and driver notifications.
// Trip lifecycle notifications never fail the operation that triggered them;
// delivery errors are logged.
type NotificationService struct {
	sender    NotificationSender
	customers repository.CustomerRepository
	drivers   repository.DriverRepository
	receipts  *ReceiptService
	logger    logrus.FieldLogger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(
	sender NotificationSender,
	customers repository.CustomerRepository,
	drivers repository.DriverRepository,
	receipts *ReceiptService,
	logger logrus.FieldLogger,
) *NotificationService {
	return &NotificationService{
		sender:    sender,
		customers: customers,
		drivers:   drivers,
		receipts:  receipts,
		logger:    logger,
	}
}

// NotifyTripBooked confirms a new booking to the customer.
func (s *NotificationService) NotifyTripBooked(ctx context.Context, trip *domain.Trip) {
	s.toCustomer(ctx, trip, "Trip Booked", func(c *domain.Customer) string {
		return fmt.Sprintf("Hello %s,\n\nYour trip from %s to %s on %s is booked.\nFare: %.2f\nEstimated duration: %d min\n",
			c.FirstName, trip.PickupLocation, trip.Destination, formatTripDate(trip.TripDate), trip.FareAmount(), trip.EstimatedMinutes)
	})
}

// NotifyTripAccepted tells the customer which driver and car will pick them up.
func (s *NotificationService) NotifyTripAccepted(ctx context.Context, trip *domain.Trip, driver *domain.Driver, car *domain.Car) {
	s.toCustomer(ctx, trip, "Driver Assigned", func(c *domain.Customer) string {
		return fmt.Sprintf("Hello %s,\n\n%s accepted your trip on %s.\nCar: %s %s (%s)\nPhone: %s\n",
			c.FirstName, driver.FullName(), formatTripDate(trip.TripDate), car.Color, car.Model, car.LicensePlate, driver.Phone)
	})
}

// NotifyTripStarted tells the customer the trip is under way.
func (s *NotificationService) NotifyTripStarted(ctx context.Context, trip *domain.Trip) {
	s.toCustomer(ctx, trip, "Trip Started", func(c *domain.Customer) string {
		return fmt.Sprintf("Hello %s,\n\nYour trip to %s has started. Enjoy your ride!\n", c.FirstName, trip.Destination)
	})
}

// NotifyTripCompleted emails the receipt to the customer.
func (s *NotificationService) NotifyTripCompleted(ctx context.Context, trip *domain.Trip, receipt *domain.Receipt) {
	s.toCustomer(ctx, trip, "Your Trip Receipt", func(c *domain.Customer) string {
		return fmt.Sprintf("Hello %s,\n\n%s", c.FirstName, s.receipts.FormatReceipt(receipt))
	})
}

// NotifyTripRequeued tells the customer their driver cancelled and the trip
// is waiting for another driver.
func (s *NotificationService) NotifyTripRequeued(ctx context.Context, trip *domain.Trip) {
	s.toCustomer(ctx, trip, "Driver Cancelled", func(c *domain.Customer) string {
		return fmt.Sprintf("Hello %s,\n\nYour driver cancelled the trip on %s. We are looking for another driver.\n",
			c.FirstName, formatTripDate(trip.TripDate))
	})
}

// NotifyTripCancelledByCustomer tells the assigned driver the customer cancelled.
func (s *NotificationService) NotifyTripCancelledByCustomer(ctx context.Context, trip *domain.Trip, driverID int64) {
	driver, err := s.drivers.GetByID(ctx, driverID)
	if err != nil {
		s.logger.WithError(err).WithField("driver_id", driverID).Warn("notification recipient lookup failed")
		return
	}

	body := fmt.Sprintf("Hello %s,\n\nThe customer cancelled the trip from %s on %s.\n",
		driver.FirstName, trip.PickupLocation, formatTripDate(trip.TripDate))
	s.deliver(ctx, driver.Email, "Trip Cancelled", body, trip.ID)
}

// SendToken emails a one-time token. Unlike lifecycle notifications, the
// delivery error is returned.
func (s *NotificationService) SendToken(ctx context.Context, to, firstName, subject, token string) error {
	body := fmt.Sprintf("Hello %s,\n\nYour code is %s. It expires shortly and can be used once.\n", firstName, token)
	if err := s.sender.Send(ctx, to, subject, body); err != nil {
		s.logger.WithError(err).WithField("to", to).Error("failed to send token")
		return err
	}
	return nil
}

func (s *NotificationService) toCustomer(ctx context.Context, trip *domain.Trip, subject string, body func(*domain.Customer) string) {
	customer, err := s.customers.GetByID(ctx, trip.CustomerID)
	if err != nil {
		s.logger.WithError(err).WithField("customer_id", trip.CustomerID).Warn("notification recipient lookup failed")
		return
	}
	s.deliver(ctx, customer.Email, subject, body(customer), trip.ID)
}

func (s *NotificationService) deliver(ctx context.Context, to, subject, body string, tripID int64) {
	if err := s.sender.Send(ctx, to, subject, body); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"trip_id": tripID,
			"subject": subject,
		}).Error("failed to send notification")
	}
}

func formatTripDate(t time.Time) string {
	return t.Format("Jan 02, 2006 3:04 PM")
}
