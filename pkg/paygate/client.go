package paygate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Client talks to the payment gateway that holds the pooled funds. It moves
// value into the pool on entry and out of the pool on refunds and payouts,
// and reports the pooled balance. Transfers are attempted once and never
// retried here.
//
// With Mock enabled the client keeps the pool in memory, which is how local
// runs and the simulation script operate.
type Client struct {
	BaseURL   string
	APIKey    string
	APISecret string
	Mock      bool

	client *http.Client

	mu   sync.Mutex
	pool int64
}

// NewClient creates a new payment gateway client.
func NewClient(baseURL, apiKey, apiSecret string, mock bool, openingBalance int64) *Client {
	return &Client{
		BaseURL:   baseURL,
		APIKey:    apiKey,
		APISecret: apiSecret,
		Mock:      mock,
		client:    &http.Client{Timeout: 10 * time.Second},
		pool:      openingBalance,
	}
}

type transferRequest struct {
	Account string `json:"account"`
	Amount  int64  `json:"amount"`
}

type transferResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type balanceResponse struct {
	Balance int64 `json:"balance"`
}

// Deposit collects an entry contribution from the account into the pool.
func (c *Client) Deposit(ctx context.Context, from string, amount int64) error {
	if amount <= 0 {
		return errors.New("non-positive amount")
	}
	if c.Mock {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.pool += amount
		return nil
	}
	return c.post(ctx, "/v1/collections", transferRequest{Account: from, Amount: amount})
}

// Transfer pays out from the pool to the account. Failure is reported to the
// caller; the pool is only debited on success.
func (c *Client) Transfer(ctx context.Context, to string, amount int64) error {
	if amount <= 0 {
		return errors.New("non-positive amount")
	}
	if c.Mock {
		c.mu.Lock()
		defer c.mu.Unlock()
		if amount > c.pool {
			return fmt.Errorf("insufficient pool balance: have %d, need %d", c.pool, amount)
		}
		c.pool -= amount
		return nil
	}
	return c.post(ctx, "/v1/payouts", transferRequest{Account: to, Amount: amount})
}

// Balance returns the pooled balance held by the gateway.
func (c *Client) Balance(ctx context.Context) (int64, error) {
	if c.Mock {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.pool, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v1/pool", nil)
	if err != nil {
		return 0, err
	}
	c.sign(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}
	var body balanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, err
	}
	return body.Balance, nil
}

func (c *Client) post(ctx context.Context, path string, payload transferRequest) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.sign(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}
	var body transferResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return err
	}
	if body.Status != "SUCCESS" {
		return fmt.Errorf("gateway rejected transfer: %s", body.Message)
	}
	return nil
}

func (c *Client) sign(req *http.Request) {
	req.Header.Set("X-Api-Key", c.APIKey)
	req.Header.Set("X-Api-Secret", c.APISecret)
}
