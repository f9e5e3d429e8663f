package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
)

const maxRequestBytes = 1 << 20

// Procedure serves one model/method pair.
type Procedure func(ctx context.Context, call Call) (any, error)

// Server is a registry of procedures exposed over call_kw.
type Server struct {
	mu        sync.RWMutex
	procs     map[string]Procedure
	validator *validator.Validate
	logger    *slog.Logger
}

// NewServer constructs an empty registry.
func NewServer(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		procs:     make(map[string]Procedure),
		validator: validator.New(),
		logger:    logger,
	}
}

// Register binds proc to model/method, replacing any previous binding.
func (s *Server) Register(model, method string, proc Procedure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.procs[key(model, method)] = proc
}

// Procedures lists registered model/method keys in sorted order.
func (s *Server) Procedures() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.procs))
	for k := range s.procs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Invoke runs the procedure bound to call.
func (s *Server) Invoke(ctx context.Context, call Call) (any, error) {
	s.mu.RLock()
	proc, ok := s.procs[key(call.Model, call.Method)]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProcedure, key(call.Model, call.Method))
	}
	return proc(ctx, call)
}

// ServeHTTP decodes a call_kw envelope, dispatches it and writes the response.
// Protocol level errors are reported in the envelope with HTTP 200.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		s.write(w, Response{JSONRPC: Version, Error: &RemoteError{Code: CodeParseError, Message: "parse error"}})
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.write(w, Response{JSONRPC: Version, ID: req.ID, Error: &RemoteError{Code: CodeInvalidRequest, Message: err.Error()}})
		return
	}

	call := Call{Model: req.Params.Model, Method: req.Params.Method, Args: req.Params.Args, Kwargs: req.Params.Kwargs}
	result, err := s.Invoke(r.Context(), call)
	if err != nil {
		s.write(w, Response{JSONRPC: Version, ID: req.ID, Error: s.toRemote(call, err)})
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		s.write(w, Response{JSONRPC: Version, ID: req.ID, Error: s.toRemote(call, err)})
		return
	}
	s.write(w, Response{JSONRPC: Version, ID: req.ID, Result: raw})
}

func (s *Server) toRemote(call Call, err error) *RemoteError {
	var remote *RemoteError
	switch {
	case errors.As(err, &remote):
		return remote
	case errors.Is(err, ErrUnknownProcedure):
		return &RemoteError{Code: CodeMethodNotFound, Message: err.Error()}
	default:
		s.logger.Error("rpc procedure failed", slog.String("model", call.Model), slog.String("method", call.Method), slog.Any("error", err))
		return &RemoteError{Code: CodeApplication, Message: "procedure failed"}
	}
}

func (s *Server) write(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn("rpc response write failed", slog.Any("error", err))
	}
}
