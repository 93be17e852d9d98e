package api

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"cosmossdk.io/log"
	"github.com/gorilla/mux"

	"github.com/openalpha/share-vault/api/handlers"
	"github.com/openalpha/share-vault/api/middleware"
	"github.com/openalpha/share-vault/api/types"
	"github.com/openalpha/share-vault/api/websocket"
	"github.com/openalpha/share-vault/metrics"
)

// Backend modes
const (
	ModeSandbox = "sandbox"
	ModeChain   = "chain"
)

// Server represents the API server
type Server struct {
	httpServer *http.Server
	config     *Config
	logger     log.Logger

	router      *mux.Router
	hub         *websocket.Hub
	rateLimiter *middleware.RateLimiter
	handler     *handlers.StrategyHandler

	cancelHub context.CancelFunc
}

// Config contains server configuration
type Config struct {
	Host             string
	Port             int
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	DisableRateLimit bool
	RateLimit        *middleware.RateLimitConfig

	// Mode selects the ledger backend: ModeSandbox or ModeChain
	Mode string
	// ChainGRPC is the vaultd gRPC endpoint used in ModeChain
	ChainGRPC string
	// Sandbox configures the in-memory ledger used in ModeSandbox
	Sandbox SandboxConfig
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		RateLimit:    middleware.DefaultRateLimitConfig(),
		Mode:         ModeSandbox,
		ChainGRPC:    "localhost:9090",
		Sandbox:      DefaultSandboxConfig(),
	}
}

// NewServer creates an API server over a ledger backend. writer may be nil,
// in which case only the read routes are served.
func NewServer(config *Config, reader types.StrategyReader, writer types.StrategyWriter, logger log.Logger) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	logger = logger.With("module", "api")

	s := &Server{
		config:      config,
		logger:      logger,
		router:      mux.NewRouter(),
		hub:         websocket.NewHub(websocket.DefaultHubConfig(), logger),
		rateLimiter: middleware.NewRateLimiter(config.RateLimit),
		handler:     handlers.NewStrategyHandler(reader, writer),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(s.metricsMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	s.router.HandleFunc("/ws", s.hub.ServeWS)
	s.handler.RegisterRoutes(s.router)
}

// Hub returns the websocket hub; it receives the backend's ledger events
func (s *Server) Hub() *websocket.Hub {
	return s.hub
}

// Handler returns the full middleware chain: CORS -> RateLimit -> router
func (s *Server) Handler() http.Handler {
	if s.config.DisableRateLimit {
		return corsMiddleware(s.router)
	}
	return corsMiddleware(middleware.RateLimitMiddleware(s.rateLimiter)(s.router))
}

// Start starts the websocket hub and blocks serving HTTP
func (s *Server) Start() error {
	hubCtx, cancel := context.WithCancel(context.Background())
	s.cancelHub = cancel
	go s.hub.Run(hubCtx)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("API server starting",
		"addr", addr,
		"mode", s.config.Mode,
		"rate_limit", !s.config.DisableRateLimit,
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	if s.cancelHub != nil {
		s.cancelHub()
	}
	s.rateLimiter.Stop()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	handlers.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"mode":      s.config.Mode,
		"clients":   s.hub.GetClientCount(),
	})
}

// metricsMiddleware records request count and latency by route template
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				path = tmpl
			}
		}
		elapsed := time.Since(start)
		metrics.GetCollector().RecordAPIRequest(r.Method, path, strconv.Itoa(rec.status), float64(elapsed.Milliseconds()))
		s.logger.Debug("request", "method", r.Method, "path", path, "status", rec.status, "duration_ms", elapsed.Milliseconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets the websocket upgrader take over the connection
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
