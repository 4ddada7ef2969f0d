package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/labmat/internal/api/http"
	"github.com/GriffinCanCode/labmat/internal/api/middleware"
	"github.com/GriffinCanCode/labmat/internal/api/ws"
	"github.com/GriffinCanCode/labmat/internal/domain/content"
	"github.com/GriffinCanCode/labmat/internal/domain/session"
	"github.com/GriffinCanCode/labmat/internal/infrastructure/config"
	"github.com/GriffinCanCode/labmat/internal/infrastructure/logging"
	"github.com/GriffinCanCode/labmat/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/labmat/internal/providers/executor"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	handler  http.Handler
	session  *session.Coordinator
	executor *executor.Client
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
}

// NewServer wires the catalog, executor client, session and routes.
func NewServer(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	logger.Info("Initializing labmat server",
		zap.String("port", cfg.Server.Port),
		zap.String("executor_url", cfg.Executor.URL),
		zap.String("content_dir", cfg.Content.Dir),
	)

	metrics := monitoring.NewMetrics()

	store, err := content.Open(cfg.Content.Dir, logger.Component("content"))
	if err != nil {
		return nil, fmt.Errorf("failed to load content: %w", err)
	}
	metrics.SetCatalog(len(store.Practicals()), store.TopicCount())

	client := executor.New(cfg.Executor, logger.Component("executor"),
		executor.WithBreakerObserver(metrics.ObserveBreaker))

	coordinator := session.New(store, client,
		session.WithLogger(logger.Logger),
		session.WithObserver(metrics),
		session.WithSidebarOpen(cfg.UI.SidebarOpen),
		session.WithServiceHint(client.URL()),
	)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID(logger.Component("http")))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig().WithOrigins(cfg.Server.CORSOrigins...)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	handlers := apihttp.NewHandlers(coordinator,
		apihttp.WithExecutorStatus(client),
		apihttp.WithMetrics(metrics))
	handlers.Register(router)

	wsHandler := ws.NewHandler(coordinator,
		ws.WithObserver(metrics),
		ws.WithLogger(logger.Component("ws")))
	router.GET("/stream", wsHandler.HandleConnection)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/debug/log-level", gin.WrapH(logger.LevelHandler()))
	router.PUT("/debug/log-level", gin.WrapH(logger.LevelHandler()))

	gz, err := gzhttp.NewWrapper(gzhttp.MinSize(1024))
	if err != nil {
		return nil, fmt.Errorf("gzip wrapper: %w", err)
	}
	compressed := gz(router)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Upgrades need the raw, hijackable writer.
		if websocket.IsWebSocketUpgrade(r) {
			router.ServeHTTP(w, r)
			return
		}
		compressed.ServeHTTP(w, r)
	})

	logger.Info("Server initialized successfully")

	return &Server{
		router:   router,
		handler:  handler,
		session:  coordinator,
		executor: client,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
	}, nil
}

// Handler is the full HTTP handler including compression.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Session exposes the coordinator the server drives.
func (s *Server) Session() *session.Coordinator {
	return s.session
}

// Addr is the configured listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Server.Host, s.config.Server.Port)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close flushes the logger.
func (s *Server) Close() error {
	_ = s.logger.Sync()
	return nil
}
