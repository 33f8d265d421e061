package paygate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tutorhub/tutorhub-api/config"
	"github.com/tutorhub/tutorhub-api/internal/models"
	"github.com/tutorhub/tutorhub-api/pkg/httpclient"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c := NewClient(config.PaymentsConfig{
		SecretKey:               "sk_test_123",
		WebhookSecret:           "whsec_test_secret",
		APIBaseURL:              "https://api.paygate.example.com/v1",
		DemoEnabled:             true,
		WebhookToleranceSeconds: 300,
	}, httpclient.NewStandardClient())
	c.now = func() time.Time { return time.Unix(1700000000, 0) }
	return c
}

func TestVerifyAndParseWebhook_ValidSignature(t *testing.T) {
	client := newTestClient(t)
	body := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","created":1700000000,"data":{"object":{"id":"pi_123"}}}`)
	header := SignPayload("whsec_test_secret", time.Unix(1700000000, 0), body)

	event, err := client.VerifyAndParseWebhook(body, header)

	assert.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, models.WebhookPaymentSucceeded, event.Kind)
	assert.Equal(t, "pi_123", event.PaymentIntentID)
}

func TestVerifyAndParseWebhook_BadSignature(t *testing.T) {
	client := newTestClient(t)
	body := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","created":1700000000,"data":{"object":{"id":"pi_123"}}}`)
	header := SignPayload("wrong_secret", time.Unix(1700000000, 0), body)

	event, err := client.VerifyAndParseWebhook(body, header)

	assert.Nil(t, event)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestVerifyAndParseWebhook_TamperedBody(t *testing.T) {
	client := newTestClient(t)
	body := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","created":1700000000,"data":{"object":{"id":"pi_123"}}}`)
	header := SignPayload("whsec_test_secret", time.Unix(1700000000, 0), body)
	tampered := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","created":1700000000,"data":{"object":{"id":"pi_999"}}}`)

	event, err := client.VerifyAndParseWebhook(tampered, header)

	assert.Nil(t, event)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestVerifyAndParseWebhook_MissingHeader(t *testing.T) {
	client := newTestClient(t)

	event, err := client.VerifyAndParseWebhook([]byte(`{}`), "")

	assert.Nil(t, event)
	assert.ErrorIs(t, err, ErrMissingSignature)
}

func TestVerifyAndParseWebhook_MalformedHeader(t *testing.T) {
	client := newTestClient(t)

	for _, header := range []string{"v1=abc", "t=notanumber,v1=abc", "t=1700000000", "garbage"} {
		event, err := client.VerifyAndParseWebhook([]byte(`{}`), header)
		assert.Nil(t, event, "header %q", header)
		assert.ErrorIs(t, err, ErrMalformedSignature, "header %q", header)
	}
}

func TestVerifyAndParseWebhook_StaleTimestamp(t *testing.T) {
	client := newTestClient(t)
	body := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","created":1699990000,"data":{"object":{"id":"pi_123"}}}`)
	// Signed 10000 seconds before the client's current time, past the 300s tolerance
	header := SignPayload("whsec_test_secret", time.Unix(1699990000, 0), body)

	event, err := client.VerifyAndParseWebhook(body, header)

	assert.Nil(t, event)
	assert.ErrorIs(t, err, ErrStaleTimestamp)
}

func TestVerifyAndParseWebhook_UnknownKindStillParses(t *testing.T) {
	// Unknown event kinds are verified and returned; the webhook service
	// decides to acknowledge and skip them.
	client := newTestClient(t)
	body := []byte(`{"id":"evt_2","type":"charge.refunded","created":1700000000,"data":{"object":{"id":"ch_1"}}}`)
	header := SignPayload("whsec_test_secret", time.Unix(1700000000, 0), body)

	event, err := client.VerifyAndParseWebhook(body, header)

	assert.NoError(t, err)
	assert.Equal(t, "charge.refunded", event.Kind)
}

func TestCreateDemoPayment(t *testing.T) {
	client := newTestClient(t)

	intent, err := client.CreateDemoPayment(context.Background(), 5000, "usd")

	assert.NoError(t, err)
	assert.True(t, len(intent.ID) > len("demo_"))
	assert.Contains(t, intent.ID, "demo_")
	assert.Equal(t, "succeeded", intent.Status)
	assert.Equal(t, int64(5000), intent.AmountCents)
}

func TestCreateDemoPayment_Disabled(t *testing.T) {
	client := newTestClient(t)
	client.demoEnabled = false

	intent, err := client.CreateDemoPayment(context.Background(), 5000, "usd")

	assert.Nil(t, intent)
	assert.ErrorIs(t, err, ErrDemoDisabled)
}

func TestCreateIntent_MissingSecretKey(t *testing.T) {
	client := newTestClient(t)
	client.secretKey = ""

	intent, err := client.CreateIntent(context.Background(), 5000, "usd", 1)

	assert.Nil(t, intent)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCreateIntent_RejectsNonPositiveAmount(t *testing.T) {
	client := newTestClient(t)

	intent, err := client.CreateIntent(context.Background(), 0, "usd", 1)

	assert.Nil(t, intent)
	assert.Error(t, err)
}
