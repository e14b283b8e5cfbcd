package tunnels

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	habmodels "gitlab.com/maplesense1/homeant.bot/src/production/HAB.Models"
)

// Reports are only fetched on a button press, so an open breaker retries after
// a short pause rather than hiding a recovered endpoint from the next press.
const (
	maxFailures  = 5
	resetTimeout = 5 * time.Second
)

// ErrCircuitOpen is returned while an endpoint is being skipped after repeated failures
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Client queries one tunnel status endpoint
type Client struct {
	endpoint       string
	httpClient     *http.Client
	circuitBreaker *CircuitBreaker
}

// NewClient creates a client for endpoint with a per-request timeout
func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		circuitBreaker: NewCircuitBreaker(maxFailures, resetTimeout),
	}
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

// FetchTunnels lists the tunnels the endpoint reports. Unreachable endpoints,
// non-200 statuses and undecodable bodies are all errors.
func (c *Client) FetchTunnels(ctx context.Context) ([]habmodels.Tunnel, error) {
	if !c.circuitBreaker.canExecute() {
		return nil, fmt.Errorf("%s: %w", c.endpoint, ErrCircuitOpen)
	}

	tunnels, err := c.fetch(ctx)
	if err != nil {
		c.circuitBreaker.onFailure()
		return nil, err
	}
	c.circuitBreaker.onSuccess()
	return tunnels, nil
}

func (c *Client) fetch(ctx context.Context) ([]habmodels.Tunnel, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "home-ant-bot")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", c.endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%s returned status %d: %s", c.endpoint, resp.StatusCode, string(body))
	}

	var response habmodels.TunnelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", c.endpoint, err)
	}
	return response.Tunnels, nil
}

// GetCircuitBreakerStatus returns the current circuit breaker status for monitoring
func (c *Client) GetCircuitBreakerStatus() BreakerStatus {
	state, failures, lastFail := c.circuitBreaker.status()
	return BreakerStatus{
		Endpoint:     c.endpoint,
		State:        state.String(),
		FailureCount: failures,
		LastFailTime: lastFail,
	}
}
