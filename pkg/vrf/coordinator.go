package vrf

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/lottohq/raffle-backend/internal/raffle"
	"golang.org/x/exp/slog"
)

// Client talks to the randomness coordinator. RequestRandomWords returns the
// coordinator's request handle immediately; the random words arrive later at
// the fulfillment handler, either through the coordinator's webhook (real
// mode) or from the built-in generator after a short delay (mock mode).
type Client struct {
	BaseURL string
	APIKey  string
	Mock    bool

	// MockDelay is how long the mock coordinator waits before fulfilling.
	MockDelay time.Duration

	client *http.Client

	mu      sync.Mutex
	fulfill FulfillFunc
}

// FulfillFunc consumes a fulfillment: the request handle it correlates to and
// the random words produced for it.
type FulfillFunc func(ctx context.Context, requestID string, words []uint64) error

// NewClient creates a new coordinator client.
func NewClient(baseURL, apiKey string, mock bool, mockDelay time.Duration) *Client {
	return &Client{
		BaseURL:   baseURL,
		APIKey:    apiKey,
		Mock:      mock,
		MockDelay: mockDelay,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// SetFulfillmentHandler wires the consumer of fulfillments. In mock mode this
// must be set before the first request.
func (c *Client) SetFulfillmentHandler(fn FulfillFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fulfill = fn
}

type requestPayload struct {
	Confirmations    uint16 `json:"confirmations"`
	CallbackGasLimit uint32 `json:"callbackGasLimit"`
	NumWords         uint32 `json:"numWords"`
}

type requestResponse struct {
	RequestID string `json:"requestId"`
}

// RequestRandomWords issues a randomness request and returns its handle.
func (c *Client) RequestRandomWords(ctx context.Context, params raffle.RequestParams) (string, error) {
	if params.NumWords == 0 {
		return "", errors.New("at least one random word must be requested")
	}
	if c.Mock {
		return c.mockRequest(params)
	}

	raw, err := json.Marshal(requestPayload{
		Confirmations:    params.Confirmations,
		CallbackGasLimit: params.CallbackGasLimit,
		NumWords:         params.NumWords,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/requests", bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("coordinator returned status %d", resp.StatusCode)
	}
	var body requestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.RequestID == "" {
		return "", errors.New("coordinator returned an empty request id")
	}
	return body.RequestID, nil
}

// mockRequest generates a handle and schedules an asynchronous fulfillment,
// mirroring the two-phase protocol of the real coordinator.
func (c *Client) mockRequest(params raffle.RequestParams) (string, error) {
	c.mu.Lock()
	fulfill := c.fulfill
	c.mu.Unlock()
	if fulfill == nil {
		return "", errors.New("no fulfillment handler wired")
	}

	id := make([]byte, 8)
	if _, err := rand.Read(id); err != nil {
		return "", err
	}
	requestID := "mock-" + hex.EncodeToString(id)

	go func() {
		time.Sleep(c.MockDelay)
		words, err := randomWords(int(params.NumWords))
		if err != nil {
			slog.Error("Mock coordinator failed to generate random words", "requestId", requestID, "error", err)
			return
		}
		if err := fulfill(context.Background(), requestID, words); err != nil {
			slog.Error("Fulfillment rejected", "requestId", requestID, "error", err)
		}
	}()

	return requestID, nil
}

func randomWords(n int) ([]uint64, error) {
	buf := make([]byte, 8*n)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	words := make([]uint64, n)
	for i := range words {
		words[i] = binary.BigEndian.Uint64(buf[8*i : 8*i+8])
	}
	return words, nil
}
