package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Local is an in-process Querier backed by a Server registry. Results pass
// through JSON so callers observe the same shapes as over HTTP.
type Local struct {
	server *Server
}

// NewLocal wraps server as a Querier.
func NewLocal(server *Server) *Local {
	return &Local{server: server}
}

// Call implements Querier.
func (l *Local) Call(ctx context.Context, model, method string, args []any, dest any) error {
	rawArgs, err := encodeArgs(args)
	if err != nil {
		return fmt.Errorf("rpc: encode args: %w", err)
	}
	result, err := l.server.Invoke(ctx, Call{Model: model, Method: method, Args: rawArgs})
	if err != nil {
		var remote *RemoteError
		if errors.As(err, &remote) {
			return remote
		}
		if errors.Is(err, ErrUnknownProcedure) {
			return &RemoteError{Code: CodeMethodNotFound, Message: err.Error()}
		}
		return err
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("rpc: encode result: %w", err)
	}
	return decodeResult(raw, dest)
}

// QuerierFunc adapts a function to Querier.
type QuerierFunc func(ctx context.Context, model, method string, args []any, dest any) error

// Call implements Querier.
func (f QuerierFunc) Call(ctx context.Context, model, method string, args []any, dest any) error {
	return f(ctx, model, method, args, dest)
}
