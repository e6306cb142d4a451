// Package server exposes the registry and dispatcher over a JSON-lines
// protocol: one request object per input line, one response object per output
// line. Every request receives a response; faults are serialized as
// structured failures, never propagated as crashes.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/mark3labs/openapi-actions/internal/dispatch"
	"github.com/mark3labs/openapi-actions/internal/fault"
	"github.com/mark3labs/openapi-actions/internal/registry"
)

// maxLineBytes bounds a single request line (large argument payloads fit,
// unbounded input does not).
const maxLineBytes = 8 << 20

// Request is one line of the inbound protocol.
type Request struct {
	ID     any    `json:"id"`
	Method string `json:"method"`
	Params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"params"`
}

// Response is one line of the outbound protocol. Exactly one of Result and
// Error is set.
type Response struct {
	ID     any               `json:"id"`
	Result any               `json:"result,omitempty"`
	Error  *dispatch.Failure `json:"error,omitempty"`
}

// Server answers list_actions and call_action requests.
type Server struct {
	registry   *registry.Registry
	dispatcher *dispatch.Dispatcher
	logger     *zap.Logger
}

// New builds a Server over a constructed registry and dispatcher.
func New(reg *registry.Registry, d *dispatch.Dispatcher, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{registry: reg, dispatcher: d, logger: logger}
}

// Serve reads request lines from in and writes response lines to out until
// EOF or context cancellation.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64<<10), maxLineBytes)
	encoder := json.NewEncoder(out)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Warn("malformed request line", zap.Error(err))
			resp := Response{Error: &dispatch.Failure{
				Type:    string(fault.Validation),
				Message: fmt.Sprintf("malformed request: %v", err),
			}}
			if err := encoder.Encode(resp); err != nil {
				return err
			}
			continue
		}

		resp := s.handle(ctx, &req)
		if err := encoder.Encode(resp); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func (s *Server) handle(ctx context.Context, req *Request) (resp Response) {
	resp.ID = req.ID
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic while handling request", zap.Any("panic", r))
			resp.Result = nil
			resp.Error = &dispatch.Failure{
				Type:    string(fault.Transport),
				Message: fmt.Sprintf("internal error: %v", r),
			}
		}
	}()

	switch req.Method {
	case "list_actions":
		resp.Result = s.registry.Actions()
	case "call_action":
		result, err := s.dispatcher.Dispatch(ctx, req.Params.Name, req.Params.Arguments)
		if err != nil {
			s.logger.Warn("dispatch failed",
				zap.String("action", req.Params.Name),
				zap.Error(err))
			failure := dispatch.FailureFrom(err)
			resp.Error = &failure
			return resp
		}
		resp.Result = result
	default:
		resp.Error = &dispatch.Failure{
			Type:    string(fault.Validation),
			Message: fmt.Sprintf("unknown method %q (supported: list_actions, call_action)", req.Method),
		}
	}
	return resp
}
