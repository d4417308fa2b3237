package gateway

import (
	"context"
	"net"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/sameehj/untappd-mcp/pkg/mcp"
)

// Server exposes the MCP server over TCP. Each accepted connection gets its
// own session and is served with the same framing as stdio.
type Server struct {
	addr        string
	mcpServer   *mcp.Server
	authorizer  Authorizer
	maxSessions int
	logger      *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	listener net.Listener
}

func NewServer(addr string, mcpServer *mcp.Server, authorizer Authorizer) *Server {
	if authorizer == nil {
		authorizer = NoopAuthorizer{}
	}
	return &Server{addr: addr, mcpServer: mcpServer, authorizer: authorizer, sessions: make(map[string]*Session)}
}

func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

func (s *Server) SetMaxSessions(max int) {
	s.maxSessions = max
}

// Addr returns the bound listen address once Start has been called.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()
	defer listener.Close()
	s.logInfo("gateway_listening", "addr", listener.Addr().String())

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			s.logError("accept_failed", "error", err)
			return err
		}

		if s.maxSessions > 0 && s.sessionCount() >= s.maxSessions {
			s.logWarn("session_limit_reached", "remote", conn.RemoteAddr().String(), "limit", s.maxSessions)
			_ = conn.Close()
			continue
		}

		if err := s.authorizer.Allow(ctx, conn.RemoteAddr().String()); err != nil {
			s.logWarn("session_denied", "remote", conn.RemoteAddr().String(), "error", err)
			_ = conn.Close()
			continue
		}

		session := &Session{
			ID:         uuid.NewString(),
			RemoteAddr: conn.RemoteAddr().String(),
			StartedAt:  time.Now(),
		}
		s.register(session)

		go func() {
			defer s.unregister(session.ID)
			s.logInfo("session_start", "id", session.ID, "remote", session.RemoteAddr)
			_ = s.mcpServer.Serve(ctx, conn, conn)
			s.logInfo("session_end", "id", session.ID, "remote", session.RemoteAddr)
			_ = conn.Close()
		}()
	}
}

func (s *Server) register(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
}

func (s *Server) unregister(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *Server) sessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
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
