package aptos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aptedu/scholarx/pkg/utils"
)

// Client is the ledger gateway: a thin HTTP transport to one or more fullnode
// endpoints with a token-bucket rate limit and a per-endpoint circuit-breaker.
// It submits signed operations, polls them to finality, and executes view
// calls; it never interprets scholarship semantics.
type Client struct {
	endpoints []string
	client    *http.Client

	// token-bucket
	tokens      int64
	maxTokens   int64
	refillEvery time.Duration
	lastRefill  atomic.Value // time.Time

	// circuit-breaker
	mu       sync.Mutex
	failures map[string]int
	opened   map[string]time.Time

	breakerThreshold int
	breakerCooldown  time.Duration

	pollInterval    time.Duration
	finalityTimeout time.Duration
}

// Opts is the set of options for a new Client.
type Opts struct {
	Endpoints       []string
	Timeout         time.Duration
	RPS             int
	Burst           int
	BreakerFailures int
	BreakerCooldown time.Duration
	PollInterval    time.Duration
	FinalityTimeout time.Duration
	HTTPClient      *http.Client
}

// NewWithOpts creates a new Client with the given options.
func NewWithOpts(o Opts) *Client {
	if o.RPS <= 0 {
		o.RPS = 20
	}
	if o.Burst <= 0 {
		o.Burst = 40
	}
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	if o.BreakerFailures <= 0 {
		o.BreakerFailures = 3
	}
	if o.BreakerCooldown <= 0 {
		o.BreakerCooldown = 5 * time.Second
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 500 * time.Millisecond
	}
	if o.FinalityTimeout <= 0 {
		o.FinalityTimeout = 30 * time.Second
	}

	client := o.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: o.Timeout}
	} else if client.Timeout == 0 {
		client.Timeout = o.Timeout
	}

	c := &Client{
		endpoints:        utils.Dedup(o.Endpoints),
		client:           client,
		maxTokens:        int64(o.Burst),
		refillEvery:      time.Second / time.Duration(o.RPS),
		failures:         map[string]int{},
		opened:           map[string]time.Time{},
		breakerThreshold: o.BreakerFailures,
		breakerCooldown:  o.BreakerCooldown,
		pollInterval:     o.PollInterval,
		finalityTimeout:  o.FinalityTimeout,
	}
	c.tokens = c.maxTokens
	c.lastRefill.Store(time.Now())
	return c
}

// refill refills the token-bucket with new tokens if necessary.
func (c *Client) refill() {
	last := c.lastRefill.Load().(time.Time)
	now := time.Now()
	if now.Sub(last) >= c.refillEvery {
		if atomic.LoadInt64(&c.tokens) < c.maxTokens {
			atomic.AddInt64(&c.tokens, 1)
		}
		c.lastRefill.Store(now)
	}
}

// acquire acquires a token from the token-bucket, blocking if necessary.
func (c *Client) acquire() {
	for {
		c.refill()
		if atomic.LoadInt64(&c.tokens) > 0 {
			atomic.AddInt64(&c.tokens, -1)
			return
		}
		time.Sleep(c.refillEvery / 2)
	}
}

// isOpen returns true if the endpoint's breaker is in the OPEN state.
func (c *Client) isOpen(ep string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	until, ok := c.opened[ep]
	if !ok {
		return false
	}
	if time.Now().After(until) {
		delete(c.opened, ep)
		c.failures[ep] = 0
		return false
	}
	return true
}

// noteFailure marks an endpoint as failed and opens the circuit-breaker if the
// failure count exceeds the threshold.
func (c *Client) noteFailure(ep string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[ep]++
	if c.failures[ep] >= c.breakerThreshold {
		c.opened[ep] = time.Now().Add(c.breakerCooldown)
	}
}

// doJSON sends a request to a configured endpoint and decodes the JSON
// response into out. Connectivity failures and 5xx responses rotate to the
// next endpoint; a 4xx is an authoritative answer from the ledger and returns
// immediately as ErrNotFound (404) or *RejectedError, never as failover.
func (c *Client) doJSON(ctx context.Context, method, path string, payload any, out any) error {
	if len(c.endpoints) == 0 {
		return ErrNoEndpoints
	}

	var lastErr error
	for i := 0; i < len(c.endpoints); i++ {
		ep := c.endpoints[i%len(c.endpoints)]
		// Skip endpoints whose breaker is OPEN.
		if c.isOpen(ep) {
			continue
		}

		c.acquire()

		var body *bytes.Reader
		if payload != nil {
			b, mErr := json.Marshal(payload)
			if mErr != nil {
				// Fatal for this attempt; don't mark the endpoint as failed.
				return mErr
			}
			body = bytes.NewReader(b)
		} else {
			body = bytes.NewReader(nil)
		}

		req, reqErr := http.NewRequestWithContext(ctx, method, ep+path, body)
		if reqErr != nil {
			return reqErr
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			c.noteFailure(ep)
			continue
		}

		// From here on, always drain+close the body before continuing/returning.
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server %d", resp.StatusCode)
			c.noteFailure(ep)
			_ = utils.DrainAndClose(resp.Body)
			continue
		}
		if resp.StatusCode >= 400 {
			return c.decode4xx(resp)
		}

		if out != nil {
			// Buffer the whole value before touching out: a mid-stream read
			// failure rotates endpoints without leaving out half-populated by
			// the failed attempt.
			var raw json.RawMessage
			if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
				_ = utils.DrainAndClose(resp.Body)
				lastErr = err
				continue
			}
			if cerr := utils.DrainAndClose(resp.Body); cerr != nil {
				return cerr
			}
			if err := json.Unmarshal(raw, out); err != nil {
				lastErr = err
				continue
			}
			return nil
		}

		if cerr := utils.DrainAndClose(resp.Body); cerr != nil {
			return cerr
		}
		return nil
	}

	return &TransportError{Op: method + " " + path, Err: lastErr}
}

// decode4xx turns an authoritative fullnode error response into a typed error.
func (c *Client) decode4xx(resp *http.Response) error {
	var ne nodeError
	_ = json.NewDecoder(resp.Body).Decode(&ne)
	_ = utils.DrainAndClose(resp.Body)
	if resp.StatusCode == http.StatusNotFound {
		if ne.Message != "" {
			return fmt.Errorf("%w: %s", ErrNotFound, ne.Message)
		}
		return ErrNotFound
	}
	return &RejectedError{
		StatusCode:  resp.StatusCode,
		Message:     ne.Message,
		ErrorCode:   ne.ErrorCode,
		VMErrorCode: ne.VMErrorCode,
	}
}
