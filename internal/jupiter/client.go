package jupiter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"vertex/internal/config"
	"vertex/internal/infra/log"
	"vertex/internal/infra/metrics"
	"vertex/internal/infra/network"
)

const (
	// Jupiter can be slow from EU; cap each attempt so the scan loop never hangs.
	attemptTimeout = 25 * time.Second
	maxRetries     = 3
	retryBaseDelay = 2 * time.Second
)

// Client talks to the Jupiter-style swap API: GET quote, POST swap build.
type Client struct {
	http     *http.Client
	quoteURL string
	swapURL  string
	apiKey   string
	limiter  *network.TokenBucket
	logger   log.Logger

	// overridable in tests
	retries   int
	retryBase time.Duration
	perTry    time.Duration
}

func New(cfg config.Config, logger log.Logger) *Client {
	var limiter *network.TokenBucket
	if cfg.Jupiter.QuoteRatePerSec > 0 && cfg.Jupiter.QuoteBurst > 0 {
		limiter = network.NewTokenBucket(cfg.Jupiter.QuoteBurst, cfg.Jupiter.QuoteRatePerSec)
	}
	return &Client{
		http:      network.NewHTTPClient(attemptTimeout + 5*time.Second),
		quoteURL:  cfg.Jupiter.QuoteURL,
		swapURL:   cfg.Jupiter.SwapURL,
		apiKey:    cfg.Jupiter.APIKey,
		limiter:   limiter,
		logger:    logger,
		retries:   maxRetries,
		retryBase: retryBaseDelay,
		perTry:    attemptTimeout,
	}
}

// Quote asks for a swap quote. A non-success API status is not an error: it
// means "no route / no opportunity via this leg" and yields (nil, nil).
// Network-level failures are retried with backoff; exhausting the retries
// returns the last error.
func (c *Client) Quote(ctx context.Context, inputMint, outputMint string, amount *big.Int, slippageBps int) (*Quote, error) {
	q := url.Values{}
	q.Set("inputMint", inputMint)
	q.Set("outputMint", outputMint)
	q.Set("amount", amount.String())
	q.Set("slippageBps", strconv.Itoa(slippageBps))
	requestURL := c.quoteURL + "?" + q.Encode()

	metrics.QuoteRequestsTotal.Inc()
	status, body, err := c.doWithRetry(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		c.auth(req)
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("quote %s->%s: %w", inputMint, outputMint, err)
	}
	if status != http.StatusOK {
		c.logger.Warn().Int("status", status).Str("input", inputMint).Str("output", outputMint).
			RawJSON("body", sanitizeJSON(body)).Msg("quote rejected by API")
		return nil, nil
	}

	var quote Quote
	if err := json.Unmarshal(body, &quote); err != nil {
		return nil, fmt.Errorf("malformed quote response: %w", err)
	}
	if quote.InAmount == "" || quote.OutAmount == "" {
		return nil, fmt.Errorf("quote response missing amounts for %s->%s", inputMint, outputMint)
	}
	quote.Raw = body
	return &quote, nil
}

// BuildSwap turns a quote into a signable transaction. Unlike Quote, any
// failure here is hard: the caller is committed to executing this leg.
func (c *Client) BuildSwap(ctx context.Context, quote *Quote, userPublicKey string) (*SwapTransaction, error) {
	payload, err := json.Marshal(swapRequest{
		QuoteResponse:    quote.Raw,
		UserPublicKey:    userPublicKey,
		WrapAndUnwrapSol: true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal swap request: %w", err)
	}

	metrics.QuoteRequestsTotal.Inc()
	status, body, err := c.doWithRetry(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.swapURL, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		c.auth(req)
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("swap build: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("swap build failed (status %d): %s", status, string(body))
	}

	var swap SwapTransaction
	if err := json.Unmarshal(body, &swap); err != nil {
		return nil, fmt.Errorf("malformed swap response: %w", err)
	}
	if swap.SwapTransaction == "" {
		return nil, fmt.Errorf("swap response missing transaction")
	}
	return &swap, nil
}

func (c *Client) auth(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}
}

// doWithRetry runs one request up to c.retries times. Each attempt gets its
// own deadline. Timeout-flavored errors back off twice as long as other
// transient failures, since a slow upstream is usually rate-limiting us.
func (c *Client) doWithRetry(ctx context.Context, build func(ctx context.Context) (*http.Request, error)) (int, []byte, error) {
	var lastErr error
	for attempt := 0; attempt < c.retries; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return 0, nil, err
			}
		}
		attemptCtx, cancel := context.WithTimeout(ctx, c.perTry)
		req, err := build(attemptCtx)
		if err != nil {
			cancel()
			return 0, nil, err
		}
		start := time.Now()
		resp, err := c.http.Do(req)
		if err == nil {
			body, readErr := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			cancel()
			if readErr == nil {
				metrics.QuoteLatencyMs.Observe(float64(time.Since(start).Milliseconds()))
				return resp.StatusCode, body, nil
			}
			err = readErr
		} else {
			cancel()
		}
		lastErr = err
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			break
		}
		if attempt == c.retries-1 {
			break
		}
		delay := c.retryBase * time.Duration(attempt+1)
		if isTimeout(err) {
			delay *= 2
		}
		metrics.QuoteRetriesTotal.Inc()
		c.logger.Warn().Err(err).Dur("backoff", delay).Int("attempt", attempt+1).Msg("API request failed, retrying")
		select {
		case <-ctx.Done():
			return 0, nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	metrics.QuoteFailuresTotal.Inc()
	return 0, nil, lastErr
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// sanitizeJSON keeps error bodies loggable even when the API returns non-JSON.
func sanitizeJSON(b []byte) []byte {
	if json.Valid(b) {
		return b
	}
	quoted, _ := json.Marshal(string(b))
	return quoted
}
