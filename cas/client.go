// Package cas talks to the computer algebra service that evaluates definite
// integrals.
package cas

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

	"go.uber.org/zap"
)

// DefaultTimeout bounds one integration request.
const DefaultTimeout = 60 * time.Second

// ErrCAS wraps every failure reported by the service itself.
var ErrCAS = errors.New("cas request failed")

// Result is one evaluated definite integral. Decimal is nil when the service
// could not evaluate the exact value numerically.
type Result struct {
	Exact   string
	Decimal *float64
}

// Integrator evaluates the definite integral of expr over variable.
type Integrator interface {
	Integrate(ctx context.Context, expr, variable, lower, upper string) (Result, error)
}

// Client is an Integrator backed by the HTTP service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client for the service at baseURL. A zero timeout means DefaultTimeout.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("cas"),
	}
}

type integrateRequest struct {
	Expression string `json:"expression"`
	Variable   string `json:"variable"`
	Lower      string `json:"lower"`
	Upper      string `json:"upper"`
}

type integrateResponse struct {
	Exact   string   `json:"exact"`
	Decimal *float64 `json:"decimal"`
	Error   string   `json:"error,omitempty"`
}

// Integrate posts one integral to {base}/integrate.
func (c *Client) Integrate(ctx context.Context, expr, variable, lower, upper string) (Result, error) {
	reqJSON, err := json.Marshal(integrateRequest{
		Expression: expr,
		Variable:   variable,
		Lower:      lower,
		Upper:      upper,
	})
	if err != nil {
		return Result{}, err
	}
	c.logger.Debug("integrate request", zap.String("payload", truncate(string(reqJSON), 200)))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/integrate", bytes.NewReader(reqJSON))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	sent := time.Now()
	resp, err := c.httpClient.Do(req)
	took := time.Since(sent)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			c.logger.Warn("integrate request timed out", zap.Duration("after", took))
		}
		return Result{}, fmt.Errorf("integrate %s d%s: %w", expr, variable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read cas response: %w", err)
	}
	c.logger.Debug("integrate response",
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", took),
		zap.String("body", truncate(string(body), 300)))

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("%w: status %d: %s", ErrCAS, resp.StatusCode, truncate(strings.TrimSpace(string(body)), 300))
	}
	var out integrateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return Result{}, fmt.Errorf("%w: malformed response: %v", ErrCAS, err)
	}
	if out.Error != "" {
		return Result{}, fmt.Errorf("%w: %s", ErrCAS, out.Error)
	}
	if out.Exact == "" {
		return Result{}, fmt.Errorf("%w: empty exact value", ErrCAS)
	}
	return Result{Exact: out.Exact, Decimal: out.Decimal}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
