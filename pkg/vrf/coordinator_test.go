package vrf

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lottohq/raffle-backend/internal/raffle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockRequestDeliversFulfillment(t *testing.T) {
	c := NewClient("", "", true, time.Millisecond)

	type fulfillment struct {
		requestID string
		words     []uint64
	}
	got := make(chan fulfillment, 1)
	c.SetFulfillmentHandler(func(_ context.Context, requestID string, words []uint64) error {
		got <- fulfillment{requestID: requestID, words: words}
		return nil
	})

	requestID, err := c.RequestRandomWords(context.Background(), raffle.RequestParams{NumWords: 2})
	require.NoError(t, err)
	require.NotEmpty(t, requestID)

	select {
	case f := <-got:
		assert.Equal(t, requestID, f.requestID)
		assert.Len(t, f.words, 2)
	case <-time.After(time.Second):
		t.Fatal("fulfillment never arrived")
	}
}

func TestMockRequestWithoutHandlerFails(t *testing.T) {
	c := NewClient("", "", true, time.Millisecond)

	_, err := c.RequestRandomWords(context.Background(), raffle.RequestParams{NumWords: 1})

	require.Error(t, err)
}

func TestRequestRejectsZeroWords(t *testing.T) {
	c := NewClient("", "", true, time.Millisecond)

	_, err := c.RequestRandomWords(context.Background(), raffle.RequestParams{})

	require.Error(t, err)
}

func TestRequestAgainstCoordinator(t *testing.T) {
	var got requestPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/requests", r.URL.Path)
		require.Equal(t, "key", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(requestResponse{RequestID: "req-42"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", false, 0)
	requestID, err := c.RequestRandomWords(context.Background(), raffle.RequestParams{
		Confirmations:    3,
		CallbackGasLimit: 500000,
		NumWords:         1,
	})

	require.NoError(t, err)
	assert.Equal(t, "req-42", requestID)
	assert.Equal(t, uint16(3), got.Confirmations)
	assert.Equal(t, uint32(1), got.NumWords)
}

func TestCoordinatorErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", false, 0)
	_, err := c.RequestRandomWords(context.Background(), raffle.RequestParams{NumWords: 1})

	require.Error(t, err)
}
