package paygate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/tutorhub/tutorhub-api/config"
	"github.com/tutorhub/tutorhub-api/internal/models"
	"github.com/tutorhub/tutorhub-api/pkg/circuitbreaker"
	"github.com/tutorhub/tutorhub-api/pkg/httpclient"
	"github.com/tutorhub/tutorhub-api/pkg/logger"
	"github.com/tutorhub/tutorhub-api/pkg/metrics"
	"github.com/tutorhub/tutorhub-api/pkg/retry"
)

// ErrDemoDisabled is returned when the demo payment path is requested but turned off
var ErrDemoDisabled = errors.New("demo payments are disabled")

// ErrNotConfigured is returned when card payments are requested without a provider key
var ErrNotConfigured = errors.New("payment provider is not configured")

// Gateway is the payment provider integration used by the booking flow
type Gateway interface {
	CreateIntent(ctx context.Context, amountCents int64, currency string, bookingID int64) (*models.PaymentIntent, error)
	CreateDemoPayment(ctx context.Context, amountCents int64, currency string) (*models.PaymentIntent, error)
	VerifyAndParseWebhook(payload []byte, signatureHeader string) (*models.WebhookEvent, error)
}

// Client talks to the payment provider's HTTP API with circuit breaker protection
type Client struct {
	secretKey      string
	webhookSecret  string
	baseURL        string
	demoEnabled    bool
	tolerance      time.Duration
	httpClient     httpclient.Client
	circuitBreaker *gobreaker.CircuitBreaker
	now            func() time.Time
}

// NewClient creates a payment provider client from configuration
func NewClient(cfg config.PaymentsConfig, httpClient httpclient.Client) *Client {
	cb := circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig("paygate"))

	logger.Info("payment gateway client initialized",
		zap.String("base_url", cfg.APIBaseURL),
		zap.Bool("demo_enabled", cfg.DemoEnabled))

	return &Client{
		secretKey:      cfg.SecretKey,
		webhookSecret:  cfg.WebhookSecret,
		baseURL:        strings.TrimRight(cfg.APIBaseURL, "/"),
		demoEnabled:    cfg.DemoEnabled,
		tolerance:      time.Duration(cfg.WebhookToleranceSeconds) * time.Second,
		httpClient:     httpClient,
		circuitBreaker: cb,
		now:            time.Now,
	}
}

type intentResponse struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
}

type providerError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateIntent creates a payment intent at the provider for the given amount.
// The booking id travels in the intent metadata so webhook events can be
// reconciled back to the booking.
func (c *Client) CreateIntent(ctx context.Context, amountCents int64, currency string, bookingID int64) (*models.PaymentIntent, error) {
	if c.secretKey == "" {
		return nil, ErrNotConfigured
	}
	if amountCents <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %d", amountCents)
	}
	if currency == "" {
		currency = "usd"
	}

	return circuitbreaker.Execute(c.circuitBreaker, func() (*models.PaymentIntent, error) {
		return c.createIntent(ctx, amountCents, currency, bookingID)
	})
}

func (c *Client) createIntent(ctx context.Context, amountCents int64, currency string, bookingID int64) (*models.PaymentIntent, error) {
	start := time.Now()
	operation := "createIntent"

	retryCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	data := url.Values{}
	data.Set("amount", fmt.Sprintf("%d", amountCents))
	data.Set("currency", currency)
	data.Set("metadata[booking_id]", fmt.Sprintf("%d", bookingID))

	result, err := retry.DoWithResult(retryCtx, retry.PaygateConfig(), operation, func() (*intentResponse, error) {
		req, reqErr := http.NewRequestWithContext(retryCtx, http.MethodPost,
			c.baseURL+"/payment_intents", strings.NewReader(data.Encode()))
		if reqErr != nil {
			return nil, reqErr
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Authorization", "Bearer "+c.secretKey)

		resp, reqErr := c.httpClient.Do(req)
		if reqErr != nil {
			return nil, reqErr
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			var provErr providerError
			_ = json.NewDecoder(resp.Body).Decode(&provErr)
			return nil, fmt.Errorf("provider returned %d: %s", resp.StatusCode, provErr.Error.Message)
		}

		var intent intentResponse
		if reqErr := json.NewDecoder(resp.Body).Decode(&intent); reqErr != nil {
			return nil, fmt.Errorf("failed to decode intent response: %w", reqErr)
		}
		return &intent, nil
	})

	duration := metrics.MeasureDuration(start)
	if err != nil {
		metrics.PaygateRequestDuration.WithLabelValues(operation, "error").Observe(duration)
		logger.LogAPICall("paygate", operation, "error", duration, zap.Error(err))
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	metrics.PaygateRequestDuration.WithLabelValues(operation, "success").Observe(duration)
	metrics.PaymentIntents.WithLabelValues("card").Inc()
	logger.LogAPICall("paygate", operation, "success", duration,
		zap.String("intent_id", result.ID))

	return &models.PaymentIntent{
		ID:           result.ID,
		ClientSecret: result.ClientSecret,
		AmountCents:  result.Amount,
		Currency:     result.Currency,
		Status:       result.Status,
	}, nil
}

// CreateDemoPayment produces a synthetic, already-succeeded intent without
// calling the provider. Only available when the demo flag is enabled.
func (c *Client) CreateDemoPayment(_ context.Context, amountCents int64, currency string) (*models.PaymentIntent, error) {
	if !c.demoEnabled {
		return nil, ErrDemoDisabled
	}
	if amountCents <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %d", amountCents)
	}
	if currency == "" {
		currency = "usd"
	}

	intentID := "demo_" + uuid.NewString()
	metrics.PaymentIntents.WithLabelValues("demo").Inc()
	logger.Info("demo payment created", zap.String("intent_id", intentID))

	return &models.PaymentIntent{
		ID:           intentID,
		ClientSecret: intentID + "_secret",
		AmountCents:  amountCents,
		Currency:     currency,
		Status:       "succeeded",
	}, nil
}
