// Package debug 本地调试 HTTP 接口：状态、运行时设置、手动上报与指标
package debug

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"werss-client/internal/client/app"
	"werss-client/internal/client/router"
	"werss-client/internal/client/runtime"
	coreerrors "werss-client/internal/core/errors"
	corelog "werss-client/internal/core/log"
	"werss-client/internal/core/safe"
	"werss-client/internal/health"
)

// Client 调试接口依赖的客户端能力
type Client interface {
	Status(ctx context.Context) app.Status
	RuntimeSettings(ctx context.Context, force bool) runtime.Settings
	Flush(ctx context.Context) error
	Navigate(ctx context.Context, path string) (router.Location, error)
	SetHidden(hidden bool)
}

// Server 客户端调试 API 服务器
type Server struct {
	client   Client
	gatherer prometheus.Gatherer
	addr     string
	logger   corelog.Logger
	health   *health.CompositeHealthChecker

	server   *http.Server
	listener net.Listener
}

// NewServer 创建调试服务器，addr 为空时监听 127.0.0.1 的随机端口
func NewServer(client Client, addr string, gatherer prometheus.Gatherer, logger corelog.Logger) *Server {
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Server{
		client:   client,
		gatherer: gatherer,
		addr:     addr,
		logger:   corelog.OrDefault(logger),
	}
}

// WithHealth 启用 /debug/health
func (s *Server) WithHealth(h *health.CompositeHealthChecker) *Server {
	s.health = h
	return s
}

// Handler 路由
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/debug/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/debug/runtime", s.handleRuntime).Methods(http.MethodGet)
	r.HandleFunc("/debug/flush", s.handleFlush).Methods(http.MethodPost)
	r.HandleFunc("/debug/navigate", s.handleNavigate).Methods(http.MethodPost)
	r.HandleFunc("/debug/visibility", s.handleVisibility).Methods(http.MethodPost)
	if s.health != nil {
		r.HandleFunc("/debug/health", s.handleHealth).Methods(http.MethodGet)
	}
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return r
}

// Start 启动服务器
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return coreerrors.Wrapf(err, coreerrors.CodeNetworkError, "debug server listen on %s", s.addr)
	}
	s.listener = ln
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.logger.Infof("Client Debug API: starting on http://%s", ln.Addr())
	safe.Go("debug-server", func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Errorf("Client Debug API: serve failed: %v", err)
		}
	})
	return nil
}

// Addr 实际监听地址，未启动时为配置地址
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Stop 停止服务器
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.client.Status(r.Context()))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Report(r.Context())
	status := http.StatusOK
	if report.Status == health.ComponentStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, report)
}

func (s *Server) handleRuntime(w http.ResponseWriter, r *http.Request) {
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	s.writeJSON(w, http.StatusOK, s.client.RuntimeSettings(r.Context(), force))
}

func (s *Server) handleFlush(w http.ResponseWriter, r *http.Request) {
	if err := s.client.Flush(r.Context()); err != nil {
		s.writeError(w, http.StatusBadGateway, fmt.Sprintf("flush failed: %s", coreerrors.Message(err)))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "flushed",
		"queue_length": s.client.Status(r.Context()).QueueLength,
	})
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if req.Path == "" {
		s.writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	loc, err := s.client.Navigate(r.Context(), req.Path)
	if err != nil {
		s.writeError(w, http.StatusConflict, coreerrors.Message(err))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"location": loc.FullPath(),
		"route":    loc.Name(),
	})
}

func (s *Server) handleVisibility(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Hidden bool `json:"hidden"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	s.client.SetHidden(req.Hidden)
	s.writeJSON(w, http.StatusOK, map[string]bool{"hidden": req.Hidden})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warnf("Client Debug API: encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
