package jupiter

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(quoteURL, swapURL string) *Client {
	return &Client{
		http:      &http.Client{},
		quoteURL:  quoteURL,
		swapURL:   swapURL,
		logger:    zerolog.Nop(),
		retries:   3,
		retryBase: time.Millisecond,
		perTry:    time.Second,
	}
}

const quoteBody = `{
	"inputMint": "So11111111111111111111111111111111111111112",
	"inAmount": "10000000",
	"outputMint": "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
	"outAmount": "1523000",
	"otherAmountThreshold": "1513862",
	"swapMode": "ExactIn",
	"slippageBps": 60,
	"priceImpactPct": "0.02"
}`

func TestQuoteSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "10000000", r.URL.Query().Get("amount"))
		assert.Equal(t, "60", r.URL.Query().Get("slippageBps"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(quoteBody))
	}))
	t.Cleanup(srv.Close)

	c := testClient(srv.URL, "")
	q, err := c.Quote(context.Background(), "So11111111111111111111111111111111111111112",
		"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", big.NewInt(10_000_000), 60)
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, "1523000", q.OutAmount)
	assert.InDelta(t, 0.02, q.PriceImpact(), 1e-9)
	assert.NotEmpty(t, q.Raw)
}

func TestQuoteNonSuccessIsSoftNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"no route"}`, http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	c := testClient(srv.URL, "")
	q, err := c.Quote(context.Background(), "a", "b", big.NewInt(1), 50)
	require.NoError(t, err)
	assert.Nil(t, q)
}

func TestQuoteMissingAmountsIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"inputMint":"a"}`))
	}))
	t.Cleanup(srv.Close)

	c := testClient(srv.URL, "")
	q, err := c.Quote(context.Background(), "a", "b", big.NewInt(1), 50)
	require.Error(t, err)
	assert.Nil(t, q)
}

// failingTransport simulates connection resets for a fixed number of attempts.
type failingTransport struct {
	failures int
	calls    int
	next     http.RoundTripper
}

func (f *failingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("read tcp: connection reset by peer")
	}
	return f.next.RoundTrip(req)
}

func TestQuoteRetriesExhausted(t *testing.T) {
	ft := &failingTransport{failures: 100}
	c := testClient("http://jupiter.invalid/quote", "")
	c.http = &http.Client{Transport: ft}

	_, err := c.Quote(context.Background(), "a", "b", big.NewInt(1), 50)
	require.Error(t, err)
	assert.Equal(t, 3, ft.calls, "should attempt exactly maxRetries times")
}

func TestQuoteRecoversAfterTransientFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(quoteBody))
	}))
	t.Cleanup(srv.Close)

	ft := &failingTransport{failures: 1, next: http.DefaultTransport}
	c := testClient(srv.URL, "")
	c.http = &http.Client{Transport: ft}

	q, err := c.Quote(context.Background(), "a", "b", big.NewInt(1), 50)
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, 2, ft.calls)
}

func TestBuildSwap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		_, _ = w.Write([]byte(`{"swapTransaction":"AQID","lastValidBlockHeight":123}`))
	}))
	t.Cleanup(srv.Close)

	c := testClient("", srv.URL)
	q := &Quote{Raw: []byte(`{}`)}
	swap, err := c.BuildSwap(context.Background(), q, "wallet")
	require.NoError(t, err)
	assert.Equal(t, "AQID", swap.SwapTransaction)
	assert.Equal(t, int64(123), swap.LastValidBlockHeight)
}

func TestBuildSwapFailureIsHardError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"stale quote"}`, http.StatusUnprocessableEntity)
	}))
	t.Cleanup(srv.Close)

	c := testClient("", srv.URL)
	_, err := c.BuildSwap(context.Background(), &Quote{Raw: []byte(`{}`)}, "wallet")
	require.Error(t, err)
}
