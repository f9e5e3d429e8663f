package rpc

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

	"github.com/google/uuid"
)

// CallPath is the route that serves call_kw envelopes.
const CallPath = "/rpc/call_kw"

const maxResponseBytes = 8 << 20

// TokenSource yields the bearer token attached to outgoing calls.
type TokenSource func(ctx context.Context) string

// Client is an HTTP Querier.
type Client struct {
	endpoint string
	http     *http.Client
	token    TokenSource
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithTokenSource attaches a bearer token to every call.
func WithTokenSource(src TokenSource) ClientOption {
	return func(cl *Client) {
		cl.token = src
	}
}

// NewClient constructs a client for the service rooted at endpoint.
func NewClient(endpoint string, timeout time.Duration, opts ...ClientOption) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		http:     &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call implements Querier.
func (c *Client) Call(ctx context.Context, model, method string, args []any, dest any) error {
	rawArgs, err := encodeArgs(args)
	if err != nil {
		return fmt.Errorf("rpc: encode args: %w", err)
	}
	req := Request{
		JSONRPC: Version,
		Method:  "call",
		ID:      uuid.NewString(),
		Params:  CallParams{Model: model, Method: method, Args: rawArgs, Kwargs: json.RawMessage(`{}`)},
	}
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("rpc: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+CallPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.token != nil {
		if token := c.token(ctx); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %s/%s: %v", ErrTransport, model, method, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s/%s: status %d", ErrTransport, model, method, resp.StatusCode)
	}

	var envelope Response
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrTransport, err)
	}
	if envelope.ID != req.ID {
		return fmt.Errorf("%w: response id mismatch", ErrTransport)
	}
	if envelope.Error != nil {
		return envelope.Error
	}
	return decodeResult(envelope.Result, dest)
}

func decodeResult(raw json.RawMessage, dest any) error {
	if dest == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("rpc: decode result: %w", err)
	}
	return nil
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}
