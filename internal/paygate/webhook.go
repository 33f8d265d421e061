package paygate

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tutorhub/tutorhub-api/internal/models"
)

// Webhook signature verification errors
var (
	ErrMissingSignature   = errors.New("missing webhook signature header")
	ErrMalformedSignature = errors.New("malformed webhook signature header")
	ErrBadSignature       = errors.New("webhook signature verification failed")
	ErrStaleTimestamp     = errors.New("webhook timestamp outside tolerance")
)

type webhookPayload struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object struct {
			ID string `json:"id"`
		} `json:"object"`
	} `json:"data"`
}

// VerifyAndParseWebhook checks the provider signature over the raw body and
// returns the parsed event. The signature header has the form
// "t=<unix>,v1=<hex hmac-sha256(t + "." + body)>". Verification must happen
// on the raw bytes before any JSON decoding.
func (c *Client) VerifyAndParseWebhook(payload []byte, signatureHeader string) (*models.WebhookEvent, error) {
	timestamp, signature, err := parseSignatureHeader(signatureHeader)
	if err != nil {
		return nil, err
	}

	if c.tolerance > 0 {
		age := c.now().Sub(time.Unix(timestamp, 0))
		if age > c.tolerance || age < -c.tolerance {
			return nil, ErrStaleTimestamp
		}
	}

	expected := computeSignature(c.webhookSecret, timestamp, payload)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) != 1 {
		return nil, ErrBadSignature
	}

	var parsed webhookPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode webhook payload: %w", err)
	}
	if parsed.ID == "" || parsed.Type == "" {
		return nil, fmt.Errorf("webhook payload missing id or type")
	}

	return &models.WebhookEvent{
		ID:              parsed.ID,
		Kind:            parsed.Type,
		PaymentIntentID: parsed.Data.Object.ID,
		CreatedAt:       time.Unix(parsed.Created, 0),
	}, nil
}

func parseSignatureHeader(header string) (timestamp int64, signature string, err error) {
	if header == "" {
		return 0, "", ErrMissingSignature
	}

	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			timestamp, err = strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, "", ErrMalformedSignature
			}
		case "v1":
			signature = value
		}
	}

	if timestamp == 0 || signature == "" {
		return 0, "", ErrMalformedSignature
	}
	return timestamp, signature, nil
}

func computeSignature(secret string, timestamp int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// SignPayload produces a signature header for the given body. Used by the demo
// payment path to feed its own webhook endpoint, and by tests.
func SignPayload(secret string, timestamp time.Time, payload []byte) string {
	ts := timestamp.Unix()
	return fmt.Sprintf("t=%d,v1=%s", ts, computeSignature(secret, ts, payload))
}
