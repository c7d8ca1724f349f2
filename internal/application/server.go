package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"redmine-mcp-server/internal/domain"
)

// ServerName is announced to clients during initialize.
const ServerName = "redmine-mcp-server"

// Server is the MCP server. It reads JSON-RPC requests from a transport,
// answers the protocol methods itself and hands tool calls to the Dispatcher.
type Server struct {
	transport  domain.Transport
	registry   *ToolRegistry
	dispatcher *Dispatcher
	mapper     domain.ResponseMapper
	config     *domain.Config
	logger     zerolog.Logger
	version    string

	sem      *semaphore.Weighted
	inflight sync.WaitGroup
	loopDone chan struct{}
}

// NewServer creates a new MCP server. Concurrency is bounded by
// config.Server.MaxConcurrency.
func NewServer(
	transport domain.Transport,
	registry *ToolRegistry,
	dispatcher *Dispatcher,
	config *domain.Config,
	logger zerolog.Logger,
	version string,
) *Server {
	limit := int64(config.Server.MaxConcurrency)
	if limit < 1 {
		limit = 1
	}
	return &Server{
		transport:  transport,
		registry:   registry,
		dispatcher: dispatcher,
		mapper:     domain.NewResponseMapper(),
		config:     config,
		logger:     logger,
		version:    version,
		sem:        semaphore.NewWeighted(limit),
	}
}

// Start begins the server operation.
// It starts the transport layer and begins processing incoming requests.
func (s *Server) Start(ctx context.Context) error {
	if err := s.transport.Start(ctx); err != nil {
		s.logger.Error().Err(err).Str("transport_type", s.config.Transport.Type).Msg("failed to start transport")
		return fmt.Errorf("failed to start transport: %w", err)
	}

	s.logger.Info().
		Str("transport_type", s.config.Transport.Type).
		Int("tools", s.registry.Len()).
		Object("redmine", s.config.Credentials()).
		Msg("server started")

	s.loopDone = make(chan struct{})
	go s.processRequests(ctx)

	return nil
}

// processRequests reads requests until the transport closes or ctx is done.
// Each request runs in its own goroutine once a semaphore slot is free.
func (s *Server) processRequests(ctx context.Context) {
	defer close(s.loopDone)
	reqChan := s.transport.Receive()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("server shutting down")
			return
		case req, ok := <-reqChan:
			if !ok {
				s.logger.Info().Msg("request stream closed")
				return
			}

			if err := s.sem.Acquire(ctx, 1); err != nil {
				return
			}
			s.inflight.Add(1)
			go func(req *domain.Request) {
				defer s.inflight.Done()
				defer s.sem.Release(1)
				s.handleRequest(ctx, req)
			}(req)
		}
	}
}

// handleRequest processes a single JSON-RPC request.
func (s *Server) handleRequest(ctx context.Context, req *domain.Request) {
	logger := s.logger.With().Str("method", req.Method).Interface("request_id", req.ID).Logger()
	logger.Debug().Msg("received request")

	if err := s.validateRequest(req); err != nil {
		s.send(req, domain.NewErrorResponse(req.ID, domain.InvalidRequest, "Invalid Request", err.Error()))
		return
	}

	// Notifications carry no id and never get a response.
	if req.ID == nil && strings.HasPrefix(req.Method, "notifications/") {
		logger.Debug().Msg("notification received")
		return
	}

	var response *domain.Response

	switch req.Method {
	case "initialize":
		response = s.handleInitialize(req)
	case "ping":
		response = s.result(req, map[string]interface{}{})
	case "tools/list":
		response = s.handleToolsList(req)
	case "tools/call":
		response = s.handleToolsCall(ctx, req)
	default:
		response = domain.NewErrorResponse(req.ID, domain.MethodNotFound, "Method not found", fmt.Sprintf("unknown method: %s", req.Method))
	}

	s.send(req, response)
}

// validateRequest validates the basic structure of a JSON-RPC request.
func (s *Server) validateRequest(req *domain.Request) error {
	if req.JSONRPC != "2.0" {
		return fmt.Errorf("invalid jsonrpc version: %s", req.JSONRPC)
	}

	if req.Method == "" {
		return fmt.Errorf("method is required")
	}

	return nil
}

// handleInitialize answers the MCP handshake.
func (s *Server) handleInitialize(req *domain.Request) *domain.Response {
	return s.result(req, map[string]interface{}{
		"protocolVersion": domain.ProtocolVersion,
		"capabilities": map[string]interface{}{
			"tools": map[string]interface{}{},
		},
		"serverInfo": map[string]interface{}{
			"name":    ServerName,
			"version": s.version,
		},
	})
}

// handleToolsList returns every registered tool in registration order.
func (s *Server) handleToolsList(req *domain.Request) *domain.Response {
	descriptors := s.registry.List()
	tools := make([]domain.ToolDefinition, 0, len(descriptors))
	for _, descriptor := range descriptors {
		tools = append(tools, descriptor.Definition())
	}

	return s.result(req, map[string]interface{}{
		"tools": tools,
	})
}

// handleToolsCall dispatches a tool call. Tool failures are part of the result
// (isError=true); only malformed calls become JSON-RPC errors.
func (s *Server) handleToolsCall(ctx context.Context, req *domain.Request) *domain.Response {
	toolReq, err := s.parseToolRequest(req.Params)
	if err != nil {
		return domain.NewErrorResponse(req.ID, domain.InvalidParams, "Invalid params", err.Error())
	}

	result := s.dispatcher.Invoke(ctx, toolReq.Name, toolReq.Arguments)

	toolResp, err := s.mapper.MapResult(result)
	if err != nil {
		s.logger.Error().Err(err).Str("tool", toolReq.Name).Msg("failed to render tool result")
		return domain.NewErrorResponse(req.ID, domain.InternalError, "Internal error", "failed to render tool result")
	}

	return s.result(req, toolResp)
}

// parseToolRequest parses the params field into a ToolRequest.
func (s *Server) parseToolRequest(params interface{}) (*domain.ToolRequest, error) {
	if params == nil {
		return nil, fmt.Errorf("params is required for tools/call")
	}

	// Round-trip through JSON so both decoded maps and typed structs are accepted.
	jsonData, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}

	var toolReq domain.ToolRequest
	if err := json.Unmarshal(jsonData, &toolReq); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tool request: %w", err)
	}

	if toolReq.Name == "" {
		return nil, fmt.Errorf("tool name is required")
	}

	if toolReq.Arguments == nil {
		toolReq.Arguments = make(map[string]interface{})
	}

	return &toolReq, nil
}

func (s *Server) result(req *domain.Request, result interface{}) *domain.Response {
	return &domain.Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  result,
	}
}

// send writes response back on the session the request came from.
func (s *Server) send(req *domain.Request, response *domain.Response) {
	response.Session = req.Session
	if err := s.transport.Send(response); err != nil {
		s.logger.Error().Err(err).Interface("request_id", req.ID).Msg("failed to send response")
	}
}

// Done is closed once the request loop stops, either because the transport closed
// its request stream (stdin reached EOF) or because the start context ended.
// It is nil before Start.
func (s *Server) Done() <-chan struct{} {
	return s.loopDone
}

// Close shuts down the transport and waits for in-flight requests.
func (s *Server) Close() error {
	s.logger.Info().Msg("closing server")
	err := s.transport.Close()
	if s.loopDone != nil {
		<-s.loopDone
	}
	s.inflight.Wait()
	return err
}
