package xrpl

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WSConfig configures WebSocket client behavior.
type WSConfig struct {
	// HandshakeTimeout bounds the initial dial.
	HandshakeTimeout time.Duration
	// ReadTimeout is timeout for reading a response.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing a command.
	WriteTimeout time.Duration
	// RedialDelay is the pause before re-dialing a broken connection.
	RedialDelay time.Duration
	// MaxAttempts is how many times a command is tried across redials.
	MaxAttempts int
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		HandshakeTimeout: 10 * time.Second,
		ReadTimeout:      60 * time.Second,
		WriteTimeout:     10 * time.Second,
		RedialDelay:      1 * time.Second,
		MaxAttempts:      3,
	}
}

// WSClientImpl implements Client over a WebSocket connection to an XRPL
// server. Commands are issued synchronously: one in flight at a time,
// correlated by request id. A broken connection is re-dialed transparently.
type WSClientImpl struct {
	endpoint string
	config   WSConfig

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	// reqMu serializes commands so responses cannot interleave.
	reqMu sync.Mutex
}

var _ Client = (*WSClientImpl)(nil)

// NewWSClient creates a new WebSocket client and connects to the endpoint.
func NewWSClient(ctx context.Context, endpoint string, config *WSConfig) (*WSClientImpl, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}

	c := &WSClientImpl{
		endpoint: endpoint,
		config:   cfg,
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// connect establishes the WebSocket connection.
func (c *WSClientImpl) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: c.config.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.conn = conn
	return nil
}

// wsCommand is the XRPL WebSocket request envelope. Command-specific
// fields are flattened next to id and command.
type wsCommand map[string]interface{}

// wsResponse is the XRPL WebSocket response envelope.
type wsResponse struct {
	ID           uint64          `json:"id"`
	Type         string          `json:"type"`
	Status       string          `json:"status"`
	Error        string          `json:"error"`
	ErrorMessage string          `json:"error_message"`
	ErrorCode    int             `json:"error_code"`
	Result       json.RawMessage `json:"result"`
}

// do sends one command and waits for its response, redialing on broken
// connections up to MaxAttempts.
func (c *WSClientImpl) do(ctx context.Context, cmd wsCommand, result interface{}) error {
	if c.closed.Load() {
		return fmt.Errorf("client closed")
	}

	c.reqMu.Lock()
	defer c.reqMu.Unlock()

	reqID := c.requestID.Add(1)
	cmd["id"] = reqID

	var lastErr error
	for attempt := 0; attempt < c.config.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.config.RedialDelay):
			}
			if err := c.connect(ctx); err != nil {
				lastErr = err
				continue
			}
		}

		resp, err := c.roundTrip(reqID, cmd)
		if err != nil {
			lastErr = err
			c.dropConn()
			continue
		}

		if resp.Status == "error" || resp.Error != "" {
			// Server-reported errors are not retried
			return &APIError{
				Code:    resp.ErrorCode,
				Name:    resp.Error,
				Message: resp.ErrorMessage,
			}
		}

		if result != nil && resp.Result != nil {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}
		return nil
	}

	return fmt.Errorf("max attempts exceeded: %w", lastErr)
}

// roundTrip writes the command and reads frames until the matching id
// arrives. Unsolicited stream messages are skipped.
func (c *WSClientImpl) roundTrip(reqID uint64, cmd wsCommand) (*wsResponse, error) {
	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()

	if conn == nil {
		return nil, fmt.Errorf("not connected")
	}

	conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := conn.WriteJSON(cmd); err != nil {
		return nil, fmt.Errorf("write command: %w", err)
	}

	deadline := time.Now().Add(c.config.ReadTimeout)
	for {
		conn.SetReadDeadline(deadline)
		_, message, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}

		var resp wsResponse
		if err := json.Unmarshal(message, &resp); err != nil {
			continue
		}
		if resp.Type != "" && resp.Type != "response" {
			continue
		}
		if resp.ID != reqID {
			continue
		}
		return &resp, nil
	}
}

// dropConn closes the current connection so the next attempt re-dials.
func (c *WSClientImpl) dropConn() {
	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()
}

// AccountLines retrieves one page of trustlines for an account.
func (c *WSClientImpl) AccountLines(ctx context.Context, req *AccountLinesRequest) (*AccountLinesResult, error) {
	cmd := wsCommand{
		"command":      "account_lines",
		"account":      req.Account,
		"ledger_index": req.LedgerIndex,
	}
	if req.LedgerIndex == "" {
		cmd["ledger_index"] = Validated
	}
	if req.Limit > 0 {
		cmd["limit"] = req.Limit
	}
	if len(req.Marker) > 0 {
		cmd["marker"] = req.Marker
	}

	var result AccountLinesResult
	if err := c.do(ctx, cmd, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AccountInfo retrieves account root data from the validated ledger.
func (c *WSClientImpl) AccountInfo(ctx context.Context, account string) (*AccountInfoResult, error) {
	cmd := wsCommand{
		"command":      "account_info",
		"account":      account,
		"ledger_index": Validated,
	}

	var result AccountInfoResult
	if err := c.do(ctx, cmd, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Close closes the WebSocket connection.
func (c *WSClientImpl) Close() error {
	if c.closed.Swap(true) {
		return nil // Already closed
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}
