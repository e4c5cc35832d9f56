// Package api serves read-mostly JSON views of the event log, the app
// directory and the current selection, plus Prometheus metrics.
// Package api 提供事件日志、应用目录和当前选择的 JSON 视图以及 Prometheus 指标。
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/livp123/axtext/internal/utils/logger"
	"github.com/livp123/axtext/pkg/record"
)

// Log is the part of the event log the server reads and clears.
// *eventlog.Log satisfies it.
type Log interface {
	Snapshot() []record.Record
	SnapshotFiltered(sourceApp string) []record.Record
	Len() int
	Cap() int
	Clear()
}

// Options configures the listener and authentication.
// Options 配置监听地址与认证。
type Options struct {
	Host string
	Port int
	// Token, when set, is required on every /api/ request as a Bearer token
	// or in the X-Axtext-Token header.
	Token  string
	Logger logger.Logger
}

// Server is the HTTP front end.
// Server 是 HTTP 前端。
type Server struct {
	log       Log
	selection *Selection
	opts      Options
	logger    logger.Logger

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// NewServer creates a Server. sel may be nil, in which case selection
// endpoints report 404.
func NewServer(log Log, sel *Selection, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	return &Server{
		log:       log,
		selection: sel,
		opts:      opts,
		logger:    opts.Logger,
	}
}

// Handler returns the routed handler.
// Handler 返回路由后的处理器。
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", s.handleHealth)

	mux.Handle("/api/records", s.withAuth(http.HandlerFunc(s.handleRecords)))
	mux.Handle("/api/apps", s.withAuth(http.HandlerFunc(s.handleApps)))
	mux.Handle("/api/selection", s.withAuth(http.HandlerFunc(s.handleSelection)))
	return mux
}

// Start binds the listener and serves in the background. Bind errors are
// returned directly.
// Start 绑定监听器并在后台提供服务；绑定错误直接返回。
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.opts.Host, fmt.Sprintf("%d", s.opts.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("api listen %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	s.mu.Lock()
	s.server = srv
	s.listener = ln
	s.mu.Unlock()

	go func() {
		s.logger.Infof("[START] API server listening on http://%s", ln.Addr())
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Errorf("[ERROR] API server error: %v", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down, waiting up to five seconds for requests.
// Stop 关闭服务器，最多等待五秒处理中的请求。
func (s *Server) Stop() error {
	s.mu.Lock()
	srv := s.server
	s.server = nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
