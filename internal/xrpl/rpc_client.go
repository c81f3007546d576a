package xrpl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// HTTPClient talks to an XRP Ledger server over HTTP JSON-RPC.
type HTTPClient struct {
	endpoint    string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a new XRPL JSON-RPC HTTP client.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:    endpoint,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ Client = (*HTTPClient)(nil)

// rpcRequest is the XRPL JSON-RPC request envelope: a method name and a
// single parameter object.
type rpcRequest struct {
	Method string        `json:"method"`
	Params []interface{} `json:"params,omitempty"`
}

// rpcEnvelope wraps every XRPL JSON-RPC response. Unlike strict JSON-RPC
// 2.0, errors arrive inside the result object with status "error".
type rpcEnvelope struct {
	Result json.RawMessage `json:"result"`
}

type rpcStatus struct {
	Status       string `json:"status"`
	Error        string `json:"error"`
	ErrorMessage string `json:"error_message"`
	ErrorCode    int    `json:"error_code"`
}

// APIError is a server-reported request failure, e.g. actNotFound or
// invalidParams. These reflect the request itself and are never retried.
type APIError struct {
	Code    int
	Name    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("xrpl error %s: %s", e.Name, e.Message)
	}
	return fmt.Sprintf("xrpl error %s", e.Name)
}

// call performs a JSON-RPC call with retries and exponential backoff.
func (c *HTTPClient) call(ctx context.Context, method string, params interface{}, result interface{}) error {
	reqBody := rpcRequest{Method: method}
	if params != nil {
		reqBody.Params = []interface{}{params}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		// Handle rate limiting
		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
			continue
		}

		var env rpcEnvelope
		if err := json.Unmarshal(respBody, &env); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}
		if env.Result == nil {
			lastErr = fmt.Errorf("response without result")
			continue
		}

		var status rpcStatus
		if err := json.Unmarshal(env.Result, &status); err != nil {
			lastErr = fmt.Errorf("unmarshal status: %w", err)
			continue
		}
		if status.Error != "" {
			// Server-reported errors are not retried
			return &APIError{
				Code:    status.ErrorCode,
				Name:    status.Error,
				Message: status.ErrorMessage,
			}
		}

		if result != nil {
			if err := json.Unmarshal(env.Result, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}

		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// AccountLines retrieves one page of trustlines for an account.
func (c *HTTPClient) AccountLines(ctx context.Context, req *AccountLinesRequest) (*AccountLinesResult, error) {
	params := map[string]interface{}{
		"account":      req.Account,
		"ledger_index": req.LedgerIndex,
	}
	if req.LedgerIndex == "" {
		params["ledger_index"] = Validated
	}
	if req.Limit > 0 {
		params["limit"] = req.Limit
	}
	if len(req.Marker) > 0 {
		params["marker"] = req.Marker
	}

	var result AccountLinesResult
	if err := c.call(ctx, "account_lines", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AccountInfo retrieves account root data from the validated ledger.
func (c *HTTPClient) AccountInfo(ctx context.Context, account string) (*AccountInfoResult, error) {
	params := map[string]interface{}{
		"account":      account,
		"ledger_index": Validated,
	}

	var result AccountInfoResult
	if err := c.call(ctx, "account_info", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Submit signs and submits a payment in a single request. The secret never
// leaves the request body; use this mode only against a trusted server.
func (c *HTTPClient) Submit(ctx context.Context, secret string, account string, p *Payment) (*SubmitResult, error) {
	amount, err := amountJSON(p.Amount, p.Token)
	if err != nil {
		return nil, err
	}

	params := map[string]interface{}{
		"secret": secret,
		"tx_json": map[string]interface{}{
			"TransactionType": "Payment",
			"Account":         account,
			"Destination":     p.Destination,
			"Amount":          amount,
		},
	}

	var result SubmitResult
	if err := c.call(ctx, "submit", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Close implements Client. HTTP connections are pooled by net/http.
func (c *HTTPClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
