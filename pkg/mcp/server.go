package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"log/slog"

	"github.com/sameehj/untappd-mcp/pkg/catalog"
	"github.com/sameehj/untappd-mcp/pkg/untappd"
	"github.com/sameehj/untappd-mcp/pkg/version"
)

const protocolVersion = "2024-11-05"

// Server translates MCP tool invocations into Untappd API calls. It holds no
// per-request state; the only shared resource is the credential-bound client,
// which is immutable after construction.
type Server struct {
	client *untappd.Client
	logger *slog.Logger
}

func NewServer(client *untappd.Client) *Server {
	return &Server{client: client}
}

func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Serve reads framed JSON-RPC requests from reader and answers them on
// writer until EOF or ctx is cancelled. One request is handled at a time;
// each tool call's upstream GET is awaited before the next read.
func (s *Server) Serve(ctx context.Context, reader io.Reader, writer io.Writer) error {
	bufReader := bufio.NewReader(reader)
	bufWriter := bufio.NewWriter(writer)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		payload, err := readMessage(bufReader)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			s.logError("mcp_read_failed", "error", err)
			return err
		}

		var req rpcRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			s.logWarn("mcp_parse_error", "error", err)
			_ = writeResponse(bufWriter, parseErrorResponse(err.Error()))
			continue
		}

		if resp := s.Handle(ctx, req); resp != nil {
			if err := writeResponse(bufWriter, resp); err != nil {
				return err
			}
		}
	}
}

// ServeStdio serves the process's standard streams.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Handle answers a single request. A nil return means the request was a
// notification and no response is owed.
func (s *Server) Handle(ctx context.Context, req rpcRequest) *rpcResponse {
	if req.Method == "" {
		return errorResponse(req.ID, -32600, "invalid request", "missing method")
	}

	switch req.Method {
	case "initialize":
		return resultResponse(req.ID, map[string]any{
			"protocolVersion": protocolVersion,
			"capabilities": map[string]any{
				"tools": map[string]any{},
			},
			"serverInfo": map[string]any{
				"name":    "untappd-mcp",
				"version": version.Version,
			},
		})
	case "ping":
		return resultResponse(req.ID, map[string]any{})
	case "tools/list":
		return resultResponse(req.ID, map[string]any{
			"tools": catalog.Descriptors(),
		})
	case "tools/call":
		return s.callTool(ctx, req.ID, req.Params)
	default:
		return errorResponse(req.ID, -32601, "method not found", req.Method)
	}
}

type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

func (s *Server) callTool(ctx context.Context, id interface{}, params json.RawMessage) *rpcResponse {
	var call toolCallParams
	if err := json.Unmarshal(params, &call); err != nil {
		return errorResponse(id, -32602, "invalid params", err.Error())
	}

	var (
		req catalog.Request
		err error
	)
	switch call.Name {
	case catalog.ToolBeerInfo:
		var args catalog.BeerInfoArgs
		if args, err = catalog.DecodeBeerInfo(call.Arguments); err == nil {
			req = args.Request()
		}
	case catalog.ToolBeerSearch:
		var args catalog.BeerSearchArgs
		if args, err = catalog.DecodeBeerSearch(call.Arguments); err == nil {
			req = args.Request()
		}
	case catalog.ToolUserCheckins:
		var args catalog.UserCheckinsArgs
		if args, err = catalog.DecodeUserCheckins(call.Arguments); err == nil {
			req = args.Request()
		}
	default:
		s.logWarn("unknown_tool", "name", call.Name)
		return errorResponse(id, -32601, "unknown tool", call.Name)
	}
	if err != nil {
		var invalid *catalog.InvalidArgsError
		if errors.As(err, &invalid) {
			return errorResponse(id, -32602, "invalid params", invalid.Error())
		}
		return errorResponse(id, -32603, "internal error", err.Error())
	}

	body, err := s.client.Get(ctx, req.Path, req.Query)
	if err != nil {
		var apiErr *untappd.APIError
		if errors.As(err, &apiErr) {
			s.logInfo("untappd_api_error", "tool", call.Name, "status", apiErr.StatusCode)
			return resultResponse(id, textResult("Untappd API error: "+apiErr.Error(), true))
		}
		s.logError("untappd_request_failed", "tool", call.Name, "error", err)
		return errorResponse(id, -32603, "internal error", err.Error())
	}

	return resultResponse(id, textResult(prettyJSON(body), false))
}

// prettyJSON re-indents the raw upstream body. The body is re-emitted
// byte-for-byte apart from indentation, so repeated identical calls against
// a stable upstream produce identical output.
func prettyJSON(body []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		return string(body)
	}
	return buf.String()
}

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id,omitempty"`
	Result  interface{} `json:"result,omitempty"`
	Error   *rpcError   `json:"error,omitempty"`
}

type rpcError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func resultResponse(id interface{}, result interface{}) *rpcResponse {
	if id == nil {
		return nil
	}
	return &rpcResponse{JSONRPC: "2.0", ID: id, Result: result}
}

func errorResponse(id interface{}, code int, message string, data interface{}) *rpcResponse {
	if id == nil {
		return nil
	}
	return &rpcResponse{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: message, Data: data}}
}

// parseErrorResponse answers a payload that never parsed into a request.
// There is no usable request id, so per JSON-RPC 2.0 the response carries an
// explicit null id instead of being suppressed as a notification.
func parseErrorResponse(data interface{}) *rpcResponse {
	return &rpcResponse{
		JSONRPC: "2.0",
		ID:      json.RawMessage("null"),
		Error:   &rpcError{Code: -32700, Message: "parse error", Data: data},
	}
}

func writeResponse(w *bufio.Writer, resp *rpcResponse) error {
	if resp == nil {
		return nil
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return writeMessage(w, payload)
}

func writeMessage(w *bufio.Writer, payload []byte) error {
	if _, err := fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(payload)); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	return w.Flush()
}

// readMessage accepts either Content-Length framed payloads or a bare JSON
// object on its own line, so hand-driven sessions work without framing.
func readMessage(r *bufio.Reader) ([]byte, error) {
	for {
		line, err := r.ReadString('\n')
		if err != nil && len(line) == 0 {
			return nil, err
		}
		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "{") {
			return []byte(trimmed), nil
		}

		contentLength := 0
		if strings.HasPrefix(strings.ToLower(trimmed), "content-length:") {
			value := strings.TrimSpace(strings.SplitN(trimmed, ":", 2)[1])
			length, parseErr := strconv.Atoi(value)
			if parseErr != nil {
				return nil, parseErr
			}
			contentLength = length
		}

		for {
			headerLine, readErr := r.ReadString('\n')
			if readErr != nil && len(headerLine) == 0 {
				return nil, readErr
			}
			header := strings.TrimRight(headerLine, "\r\n")
			if header == "" {
				break
			}
			if strings.HasPrefix(strings.ToLower(header), "content-length:") {
				value := strings.TrimSpace(strings.SplitN(header, ":", 2)[1])
				length, parseErr := strconv.Atoi(value)
				if parseErr != nil {
					return nil, parseErr
				}
				contentLength = length
			}
		}

		if contentLength <= 0 {
			return nil, fmt.Errorf("missing Content-Length")
		}

		payload := make([]byte, contentLength)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, err
		}
		return payload, nil
	}
}

func (s *Server) logInfo(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Server) logWarn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func (s *Server) logError(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Error(msg, args...)
	}
}
