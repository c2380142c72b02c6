package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeifHesham2/SwiftRide/internal/domain"
)

// fakeToken is an mqtt.Token that completes immediately unless stalled.
type fakeToken struct {
	err     error
	stalled bool
}

func (t *fakeToken) Wait() bool                     { return !t.stalled }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return !t.stalled }
func (t *fakeToken) Error() error                   { return t.err }

func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	if !t.stalled {
		close(ch)
	}
	return ch
}

// fakeClient records publishes. Methods other than Publish are not used.
type fakeClient struct {
	mqtt.Client

	token     *fakeToken
	topic     string
	qos       byte
	published []byte
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.topic = topic
	c.qos = qos
	c.published = payload.([]byte)
	return c.token
}

func TestMQTTSender_Send(t *testing.T) {
	client := &fakeClient{token: &fakeToken{}}
	sender := NewMQTTSender(client, "swiftride/email", 1, time.Second)

	require.NoError(t, sender.Send(context.Background(), "rider@example.com", "Trip Booked", "see you soon"))

	assert.Equal(t, "swiftride/email", client.topic)
	assert.Equal(t, byte(1), client.qos)

	var msg EmailMessage
	require.NoError(t, json.Unmarshal(client.published, &msg))
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "rider@example.com", msg.To)
	assert.Equal(t, "Trip Booked", msg.Subject)
	assert.Equal(t, "see you soon", msg.Body)
	assert.False(t, msg.SentAt.IsZero())
}

func TestMQTTSender_Failures(t *testing.T) {
	stalled := NewMQTTSender(&fakeClient{token: &fakeToken{stalled: true}}, "t", 0, time.Millisecond)
	err := stalled.Send(context.Background(), "a@example.com", "s", "b")
	assert.ErrorIs(t, err, ErrPublishTimeout)

	brokerErr := errors.New("not connected")
	failing := NewMQTTSender(&fakeClient{token: &fakeToken{err: brokerErr}}, "t", 0, time.Second)
	err = failing.Send(context.Background(), "a@example.com", "s", "b")
	assert.ErrorIs(t, err, brokerErr)
}

func TestLogSender_Send(t *testing.T) {
	logger, hook := test.NewNullLogger()

	require.NoError(t, NewLogSender(logger).Send(context.Background(), "rider@example.com", "Hello", "body text"))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "rider@example.com", entry.Data["to"])
	assert.Equal(t, "Hello", entry.Data["subject"])
	assert.True(t, strings.HasSuffix(entry.Message, "body text"))
}

type failingSender struct{ err error }

func (s failingSender) Send(context.Context, string, string, string) error { return s.err }

func TestNotificationService_SendTokenReturnsError(t *testing.T) {
	logger, hook := test.NewNullLogger()
	sendErr := errors.New("broker down")
	svc := NewNotificationService(failingSender{err: sendErr}, nil, nil, nil, logger)

	err := svc.SendToken(context.Background(), "rider@example.com", "Rider", "Verify your email", "123456")
	assert.ErrorIs(t, err, sendErr)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "failed to send token", entry.Message)
}

func TestReceiptService_FormatReceipt(t *testing.T) {
	receipts := NewReceiptService(NewFareCalculator(nil, testFareConfig()))
	driverID := int64(3)
	fare := 94.80
	trip := &domain.Trip{
		ID:               11,
		PickupLocation:   "Heliopolis",
		Destination:      "Giza",
		TripDate:         time.Date(2030, time.May, 1, 9, 30, 0, 0, time.UTC),
		EstimatedMinutes: 45,
		Premium:          true,
		HasChildSeat:     true,
		Fare:             &fare,
		CustomerID:       5,
		DriverID:         &driverID,
	}
	payment := &domain.Payment{Amount: fare, Method: domain.PaymentMethodCreditCard, Status: domain.PaymentStatusPaid}

	receipt := receipts.GenerateReceipt(trip, payment)
	assert.Equal(t, int64(3), receipt.DriverID)
	assert.Equal(t, domain.PaymentStatusPaid, receipt.PaymentStatus)

	text := receipts.FormatReceipt(receipt)
	for _, want := range []string{
		"Trip ID:     11",
		"Pickup:      Heliopolis",
		"Premium:          25.00",
		"Child seat:       15.00",
		"TOTAL:            94.80",
		"Method: CREDIT_CARD",
	} {
		assert.Contains(t, text, want)
	}
}
