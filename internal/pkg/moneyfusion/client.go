package moneyfusion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotConfigured = errors.New("moneyfusion api url not configured")
	ErrRejected      = errors.New("moneyfusion rejected the payment session")
)

// PersonalInfo is echoed back verbatim in every webhook for the session.
type PersonalInfo struct {
	PaymentID string `json:"paymentId"`
	UserID    int64  `json:"userId"`
	Plan      string `json:"plan"`
}

// CheckoutRequest is the body of a payment session creation call.
type CheckoutRequest struct {
	TotalPrice   json.Number              `json:"totalPrice"`
	Article      []map[string]json.Number `json:"article"`
	PersonalInfo []PersonalInfo           `json:"personal_Info"`
	NumeroSend   string                   `json:"numeroSend"`
	NomClient    string                   `json:"nomclient"`
	ReturnURL    string                   `json:"return_url"`
	WebhookURL   string                   `json:"webhook_url"`
}

type CheckoutResponse struct {
	Statut  bool   `json:"statut"`
	URL     string `json:"url"`
	Token   string `json:"token"`
	Message string `json:"message"`
}

// Session is the hosted checkout created for one payment.
type Session struct {
	URL     string
	Token   string
	Message string
}

type Client struct {
	apiURL     string
	statusURL  string
	httpClient *http.Client
}

func NewClient(apiURL, statusURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		apiURL:     apiURL,
		statusURL:  statusURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NewCheckoutRequest builds a single-article checkout for amount.
func NewCheckoutRequest(article string, amount decimal.Decimal, info PersonalInfo, phone, name, returnURL, webhookURL string) *CheckoutRequest {
	price := json.Number(amount.String())
	return &CheckoutRequest{
		TotalPrice:   price,
		Article:      []map[string]json.Number{{article: price}},
		PersonalInfo: []PersonalInfo{info},
		NumeroSend:   phone,
		NomClient:    name,
		ReturnURL:    returnURL,
		WebhookURL:   webhookURL,
	}
}

// CreateSession opens a hosted mobile-money checkout. Any answer without
// statut=true, a url and a token is an error.
func (c *Client) CreateSession(ctx context.Context, req *CheckoutRequest) (*Session, error) {
	if c.apiURL == "" {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal checkout request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build checkout request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("moneyfusion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("moneyfusion api error: status %d: %s", resp.StatusCode, string(raw))
	}

	var out CheckoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode checkout response: %w", err)
	}

	if !out.Statut || out.URL == "" || out.Token == "" {
		return nil, fmt.Errorf("%w: %s", ErrRejected, out.Message)
	}

	return &Session{URL: out.URL, Token: out.Token, Message: out.Message}, nil
}

// PaymentStatus fetches the provider's raw view of a session. The payload is
// informational only and never drives state changes.
func (c *Client) PaymentStatus(ctx context.Context, token string) (json.RawMessage, error) {
	if token == "" {
		return nil, errors.New("empty payment token")
	}

	url := strings.TrimRight(c.statusURL, "/") + "/" + token
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build status request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("moneyfusion status request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read status response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("moneyfusion status error: status %d", resp.StatusCode)
	}
	if !json.Valid(raw) {
		return nil, errors.New("moneyfusion status response is not json")
	}

	return raw, nil
}
