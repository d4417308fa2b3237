package gateway

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/sameehj/untappd-mcp/pkg/mcp"
	"github.com/sameehj/untappd-mcp/pkg/untappd"
)

func TestAllowlistAuthorizer(t *testing.T) {
	t.Parallel()

	auth := AllowlistAuthorizer{Allowed: []string{"127.0.0.1"}}
	if err := auth.Allow(context.Background(), "127.0.0.1:54321"); err != nil {
		t.Fatalf("expected allow, got %v", err)
	}
	if err := auth.Allow(context.Background(), "10.0.0.9:54321"); err == nil {
		t.Fatal("expected deny for unlisted host")
	}

	open := AllowlistAuthorizer{}
	if err := open.Allow(context.Background(), "10.0.0.9:54321"); err != nil {
		t.Fatalf("empty allowlist must admit everyone, got %v", err)
	}
}

func TestGatewayServesToolsList(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer upstream.Close()

	client := untappd.NewClient(untappd.Credentials{ClientID: "id", ClientSecret: "secret"})
	client.SetBaseURL(upstream.URL)
	mcpServer := mcp.NewServer(client)

	gw := NewServer("127.0.0.1:0", mcpServer, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- gw.Start(ctx) }()

	addr := waitForAddr(t, gw)
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial gateway: %v", err)
	}
	defer conn.Close()

	request := `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`
	if _, err := fmt.Fprintf(conn, "Content-Length: %d\r\n\r\n%s", len(request), request); err != nil {
		t.Fatalf("write request: %v", err)
	}

	payload := readFrame(t, bufio.NewReader(conn))
	var resp struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	if err := json.Unmarshal(payload, &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Result.Tools) != 3 {
		t.Fatalf("expected 3 tools over the gateway, got %d", len(resp.Result.Tools))
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("gateway did not stop after cancel")
	}
}

func waitForAddr(t *testing.T, gw *Server) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		addr := gw.Addr()
		if !strings.HasSuffix(addr, ":0") {
			return addr
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("gateway never bound a port")
	return ""
}

func readFrame(t *testing.T, r *bufio.Reader) []byte {
	t.Helper()
	contentLength := 0
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read header: %v", err)
		}
		header := strings.TrimRight(line, "\r\n")
		if header == "" {
			break
		}
		if strings.HasPrefix(strings.ToLower(header), "content-length:") {
			value := strings.TrimSpace(strings.SplitN(header, ":", 2)[1])
			length, err := strconv.Atoi(value)
			if err != nil {
				t.Fatalf("parse content length: %v", err)
			}
			contentLength = length
		}
	}
	payload := make([]byte, contentLength)
	if _, err := io.ReadFull(r, payload); err != nil {
		t.Fatalf("read payload: %v", err)
	}
	return payload
}
