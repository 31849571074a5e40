// Package payment is a thin client for the Paystack transaction API:
// initialize a checkout, verify a completed one. The core never trusts
// these results on its own; handlers decide what to do with them.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Client struct {
	secretKey string
	baseURL   string
	http      *http.Client
}

func NewClient(secretKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://api.paystack.co"
	}
	return &Client{
		secretKey: secretKey,
		baseURL:   baseURL,
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

// Metadata rides along with the transaction and comes back on verify and
// webhook calls, carrying the order and device the payment belongs to.
type Metadata struct {
	OrderID  int64  `json:"order_id"`
	DeviceID string `json:"device_id,omitempty"`
}

type InitRequest struct {
	Email       string   `json:"email"`
	Amount      int64    `json:"amount"` // kobo
	Reference   string   `json:"reference"`
	CallbackURL string   `json:"callback_url,omitempty"`
	Metadata    Metadata `json:"metadata"`
}

type InitResult struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type VerifyResult struct {
	Status    string   `json:"status"` // "success" when the charge went through
	Amount    int64    `json:"amount"` // kobo
	Reference string   `json:"reference"`
	Metadata  Metadata `json:"metadata"`
}

type apiEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) Initialize(ctx context.Context, req InitRequest) (*InitResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal initialize request: %w", err)
	}
	data, err := c.call(ctx, http.MethodPost, "/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	var res InitResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decode initialize response: %w", err)
	}
	return &res, nil
}

func (c *Client) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	data, err := c.call(ctx, http.MethodGet, "/transaction/verify/"+reference, nil)
	if err != nil {
		return nil, err
	}
	var res VerifyResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decode verify response: %w", err)
	}
	return &res, nil
}

func (c *Client) call(ctx context.Context, method, path string, body *bytes.Reader) (json.RawMessage, error) {
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("build paystack request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("paystack %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode paystack response: %w", err)
	}
	if resp.StatusCode >= 400 || !env.Status {
		return nil, fmt.Errorf("paystack %s %s: %s (http %d)", method, path, env.Message, resp.StatusCode)
	}
	return env.Data, nil
}
