// Package rpc carries aggregate queries between the dashboard and the HR
// data service using JSON-RPC 2.0 "call_kw" envelopes.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Version is the JSON-RPC protocol version carried by every envelope.
const Version = "2.0"

// JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	// Application codes are raised by procedures themselves.
	CodeApplication  = -32000
	CodeUnauthorized = -32001
	CodeForbidden    = -32003
)

// ErrTransport wraps failures reaching the remote service: network errors,
// non-2xx statuses and undecodable responses.
var ErrTransport = errors.New("rpc: transport failure")

// ErrUnknownProcedure is returned when no procedure is registered for a model/method pair.
var ErrUnknownProcedure = errors.New("rpc: unknown procedure")

// Querier calls a named aggregate method on a remote entity and decodes the
// result into dest.
type Querier interface {
	Call(ctx context.Context, model, method string, args []any, dest any) error
}

// CallParams is the params member of a call_kw request.
type CallParams struct {
	Model  string          `json:"model" validate:"required"`
	Method string          `json:"method" validate:"required"`
	Args   json.RawMessage `json:"args"`
	Kwargs json.RawMessage `json:"kwargs,omitempty"`
}

// Request is a JSON-RPC 2.0 request envelope.
type Request struct {
	JSONRPC string     `json:"jsonrpc" validate:"required,eq=2.0"`
	Method  string     `json:"method" validate:"required,eq=call"`
	ID      string     `json:"id" validate:"required"`
	Params  CallParams `json:"params"`
}

// Response is a JSON-RPC 2.0 response envelope.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RemoteError    `json:"error,omitempty"`
}

// RemoteError is the error member of a response.
type RemoteError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("rpc: remote error %d: %s", e.Code, e.Message)
}

// Call describes one decoded procedure invocation.
type Call struct {
	Model  string
	Method string
	Args   json.RawMessage
	Kwargs json.RawMessage
}

// BindArgs decodes the positional arguments into dest.
func (c Call) BindArgs(dest any) error {
	if len(c.Args) == 0 {
		return nil
	}
	if err := json.Unmarshal(c.Args, dest); err != nil {
		return &RemoteError{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid args for %s/%s: %v", c.Model, c.Method, err)}
	}
	return nil
}

func key(model, method string) string {
	return model + "/" + method
}

func encodeArgs(args []any) (json.RawMessage, error) {
	if args == nil {
		args = []any{}
	}
	return json.Marshal(args)
}
