package mcp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTTPTransportJSONRPC(t *testing.T) {
	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"meta":{"code":200},"response":{"beer":{"bid":1}}}`))
	})
	transport := &httpTransport{server: s, subs: make(map[chan []byte]struct{})}

	body := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_beer_info","arguments":{"beer_id":"1"}}}`
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	rr := httptest.NewRecorder()

	transport.handleMCP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp struct {
		Result struct {
			Content []ToolContent `json:"content"`
			IsError bool          `json:"isError"`
		} `json:"result"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Result.IsError {
		t.Fatal("expected isError=false")
	}
	if len(resp.Result.Content) != 1 || !strings.Contains(resp.Result.Content[0].Text, `"bid": 1`) {
		t.Fatalf("unexpected content %+v", resp.Result.Content)
	}
}

func TestHTTPTransportUnknownMethod(t *testing.T) {
	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	transport := &httpTransport{server: s, subs: make(map[chan []byte]struct{})}

	body := `{"jsonrpc":"2.0","id":1,"method":"resources/list"}`
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	rr := httptest.NewRecorder()

	transport.handleMCP(rr, req)

	var resp struct {
		Error *rpcError `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != -32601 {
		t.Fatalf("expected method not found, got %+v", resp.Error)
	}
}

func TestHTTPTransportUnparseableBody(t *testing.T) {
	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	transport := &httpTransport{server: s, subs: make(map[chan []byte]struct{})}

	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{"jsonrpc":`))
	rr := httptest.NewRecorder()

	transport.handleMCP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("malformed requests must be answered in-band, got %d", rr.Code)
	}
	var resp struct {
		ID    json.RawMessage `json:"id"`
		Error *rpcError       `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != -32700 {
		t.Fatalf("expected parse error, got %s", rr.Body.Bytes())
	}
	if string(resp.ID) != "null" {
		t.Fatalf("expected explicit null id, got %q", resp.ID)
	}
}

func TestHTTPTransportMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	transport := &httpTransport{server: s, subs: make(map[chan []byte]struct{})}

	req := httptest.NewRequest(http.MethodDelete, "/mcp", nil)
	rr := httptest.NewRecorder()

	transport.handleMCP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}
