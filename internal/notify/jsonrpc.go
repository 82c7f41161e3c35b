package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

// Request is a JSON-RPC 2.0 notification. It carries no id, so receivers
// must not reply with a result.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// Response is what a non-conforming receiver may still send back.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// errPermanent marks a delivery failure that retrying will not fix.
var errPermanent = errors.New("permanent delivery failure")

// RPCClient posts JSON-RPC 2.0 notifications over HTTP with retries.
type RPCClient struct {
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
}

// NewRPCClient creates a client with the given retry settings and timeout.
func NewRPCClient(maxRetries int, baseDelay time.Duration, timeout time.Duration) *RPCClient {
	return &RPCClient{
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: max(maxRetries, 0),
		baseDelay:  baseDelay,
	}
}

// Notify sends method with params to endpoint. Network errors and 5xx answers
// are retried with exponential backoff; 4xx answers and RPC errors are not.
func (c *RPCClient) Notify(ctx context.Context, endpoint, method string, params any) error {
	data, err := json.Marshal(Request{JSONRPC: "2.0", Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("marshal rpc notification: %w", err)
	}

	var lastErr error
	for attempt := range c.maxRetries + 1 {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := c.post(ctx, endpoint, data)
		if err == nil {
			return nil
		}
		var rpcErr *RPCError
		if errors.Is(err, errPermanent) || errors.As(err, &rpcErr) {
			return err
		}
		lastErr = err

		if attempt < c.maxRetries {
			delay := c.baseDelay * time.Duration(math.Pow(2, float64(attempt)))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return fmt.Errorf("rpc notify failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

func (c *RPCClient) post(ctx context.Context, endpoint string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w: %w", errPermanent, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("server error: %d", resp.StatusCode)
	case resp.StatusCode == http.StatusAccepted || resp.StatusCode == http.StatusNoContent:
		return nil
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: unexpected status %d: %s", errPermanent, resp.StatusCode, string(body))
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	var rpcResp Response
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return nil
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	return nil
}
