// Package grpc is a lightweight JSON-over-TCP RPC layer for
// service-to-service calls, used by index-scan planners to fetch parsed
// queries without going through HTTP.
//
// Protocol: newline-delimited JSON over a persistent TCP connection. Each
// Request is answered by exactly one Response carrying the same ID. Errors
// carry a machine-readable code from pkg/errors so callers can still match
// sentinels with errors.Is.
//
// Example server:
//
//	s := grpc.NewServer()
//	s.Register("QueryService.Parse", func(ctx context.Context, req json.RawMessage) (any, error) {
//	    var parseReq proto.ParseRequest
//	    if err := json.Unmarshal(req, &parseReq); err != nil {
//	        return nil, err
//	    }
//	    // ... parse ...
//	    return &proto.ParseResponse{...}, nil
//	})
//	s.Serve(":9000")
//
// Example client:
//
//	c, _ := grpc.Dial(ctx, "localhost:9000")
//	var resp proto.ParseResponse
//	err := c.Call(ctx, "QueryService.Parse", &proto.ParseRequest{Query: "cats"}, &resp)
package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/errors"
)

// HandlerFunc processes an RPC request and returns a response or error.
type HandlerFunc func(ctx context.Context, req json.RawMessage) (any, error)

// Observer is told about every completed call.
type Observer func(method string, duration time.Duration, err error)

// Request is the wire format for an RPC request.
type Request struct {
	Method string          `json:"method"`
	ID     string          `json:"id"`
	Params json.RawMessage `json:"params"`
}

// Response is the wire format for an RPC response.
type Response struct {
	ID    string          `json:"id"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
	Code  string          `json:"code,omitempty"`
}

// ErrUnknownMethod is returned for calls to unregistered methods.
var ErrUnknownMethod = errors.New("unknown method")

// Server is a lightweight JSON-over-TCP RPC server.
type Server struct {
	handlers map[string]HandlerFunc
	observer Observer
	listener net.Listener
	logger   *slog.Logger
	mu       sync.RWMutex
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	conns    map[net.Conn]struct{}
}

// NewServer creates a new RPC server.
func NewServer() *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		handlers: make(map[string]HandlerFunc),
		logger:   slog.Default().With("component", "rpc-server"),
		ctx:      ctx,
		cancel:   cancel,
		conns:    make(map[net.Conn]struct{}),
	}
}

// Register adds a handler for the given RPC method name.
// Method names follow the "Service.Method" convention.
func (s *Server) Register(method string, handler HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method] = handler
	s.logger.Debug("method registered", "method", method)
}

// SetObserver installs fn to be called after every call. It must be set
// before Serve.
func (s *Server) SetObserver(fn Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = fn
}

// Serve listens on addr and blocks until Stop is called.
func (s *Server) Serve(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.ServeListener(ln)
}

// ServeListener accepts connections on ln and blocks until Stop is called.
func (s *Server) ServeListener(ln net.Listener) error {
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	s.logger.Info("rpc server listening", "addr", ln.Addr().String())

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.ctx.Err() != nil {
				return nil
			}
			s.logger.Error("accept error", "error", err)
			continue
		}
		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)

	for {
		var req Request
		if err := decoder.Decode(&req); err != nil {
			return
		}
		resp := s.dispatch(req)
		if err := encoder.Encode(resp); err != nil {
			s.logger.Error("write error", "method", req.Method, "error", err)
			return
		}
	}
}

func (s *Server) dispatch(req Request) (resp Response) {
	resp.ID = req.ID
	start := time.Now()

	s.mu.RLock()
	handler, exists := s.handlers[req.Method]
	observer := s.observer
	s.mu.RUnlock()

	var err error
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("handler panic", "method", req.Method, "panic", rec)
			err = apperrors.ErrInternal
			resp.Data = nil
		}
		if err != nil {
			resp.Error = err.Error()
			resp.Code = apperrors.Code(err)
		}
		if observer != nil {
			observer(req.Method, time.Since(start), err)
		}
	}()

	if !exists {
		err = fmt.Errorf("%w: %s", ErrUnknownMethod, req.Method)
		return resp
	}
	var data any
	data, err = handler(s.ctx, req.Params)
	if err != nil {
		return resp
	}
	resp.Data, err = json.Marshal(data)
	return resp
}

// MethodCount returns the number of registered methods.
func (s *Server) MethodCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.handlers)
}

// Stop closes the listener and all open connections, then waits for
// in-flight handlers to return.
func (s *Server) Stop() {
	s.cancel()
	s.mu.Lock()
	if s.listener != nil {
		s.listener.Close()
	}
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
	s.logger.Info("rpc server stopped")
}
