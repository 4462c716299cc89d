package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"

	apihttp "github.com/GriffinCanCode/termhub/internal/api/http"
	"github.com/GriffinCanCode/termhub/internal/api/middleware"
	"github.com/GriffinCanCode/termhub/internal/infrastructure/config"
	"github.com/GriffinCanCode/termhub/internal/infrastructure/logging"
	"github.com/GriffinCanCode/termhub/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/termhub/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/termhub/internal/providers/system"
	"github.com/GriffinCanCode/termhub/internal/providers/terminal"
	"github.com/GriffinCanCode/termhub/internal/service"
	"github.com/GriffinCanCode/termhub/internal/ws"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	manager     *terminal.Manager
	coordinator *terminal.Coordinator
	registry    *service.Registry
	tracer      *tracing.Tracer
	logger      *logging.Logger
	config      *config.Config
	metrics     *monitoring.Metrics

	mu       sync.Mutex
	listener net.Listener
	closed   bool
}

// NewServer creates a new server instance. A nil logger is built from the
// logging section of cfg.
func NewServer(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = logging.NewFromLevel(cfg.Logging.Level, cfg.Logging.Development)
	}

	policy := terminal.DefaultShellPolicy(cfg.Terminal.Shell)
	logger.Info("Initializing termhub",
		zap.String("addr", address(cfg)),
		zap.String("shell", policy.Program),
	)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("termhub", logger)

	manager := terminal.NewManager(policy, terminal.Options{
		Term:             cfg.Terminal.Term,
		Cols:             cfg.Terminal.Cols,
		Rows:             cfg.Terminal.Rows,
		KillTimeout:      cfg.Terminal.KillTimeout.Std(),
		DrainTimeout:     cfg.Terminal.DrainTimeout.Std(),
		SubscriberBuffer: cfg.Terminal.SubscriberBuffer,
		AllowedDirs:      cfg.Terminal.AllowedDirs,
	}, logger).WithMetrics(metrics)
	coordinator := terminal.NewCoordinator(manager, cfg.Terminal.ShutdownTimeout.Std(), logger)

	registry := service.NewRegistry()
	if err := registerProviders(registry, manager, policy); err != nil {
		tracer.Close()
		return nil, err
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestLogger(logger))
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.CORSForOrigins(cfg.CORS.Origins)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(manager, registry, metrics)
	handlers.Register(router)

	wsHandler := ws.NewHandler(manager, logger, metrics, cfg.CORS.Origins)
	router.GET("/terminal/stream", wsHandler.HandleConnection)

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	logger.Info("Server initialized successfully")

	return &Server{
		router:      router,
		httpServer:  &http.Server{Handler: router},
		manager:     manager,
		coordinator: coordinator,
		registry:    registry,
		tracer:      tracer,
		logger:      logger,
		config:      cfg,
		metrics:     metrics,
	}, nil
}

func registerProviders(registry *service.Registry, manager *terminal.Manager, policy terminal.ShellPolicy) error {
	if err := registry.Register(terminal.NewProvider(manager)); err != nil {
		return fmt.Errorf("failed to register terminal provider: %w", err)
	}
	if err := registry.Register(system.NewProvider(policy.Program, manager)); err != nil {
		return fmt.Errorf("failed to register system provider: %w", err)
	}
	return nil
}

func address(cfg *config.Config) string {
	return net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Manager returns the session manager behind the server.
func (s *Server) Manager() *terminal.Manager {
	return s.manager
}

// Listen binds the configured address. The listener admits at most
// Server.MaxConnections concurrent connections when that is positive.
func (s *Server) Listen() (net.Addr, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, http.ErrServerClosed
	}
	if s.listener != nil {
		return s.listener.Addr(), nil
	}

	ln, err := net.Listen("tcp", address(s.config))
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address(s.config), err)
	}
	if n := s.config.Server.MaxConnections; n > 0 {
		ln = netutil.LimitListener(ln, n)
	}
	s.listener = ln
	return ln.Addr(), nil
}

// Serve accepts connections on the bound listener until Shutdown.
func (s *Server) Serve() error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return errors.New("server: Serve called before Listen")
	}

	s.logger.Info("Starting HTTP server", zap.String("addr", ln.Addr().String()))
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Run binds and serves until Shutdown.
func (s *Server) Run() error {
	if _, err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Shutdown terminates every terminal session, then stops accepting HTTP
// requests and waits for in-flight ones within ctx. Sessions are torn down
// even when ctx is already done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	ln := s.listener
	s.mu.Unlock()

	s.logger.Info("Shutting down server...")

	var errs []error
	if err := s.coordinator.Shutdown(context.WithoutCancel(ctx)); err != nil {
		s.logger.Warn("Session shutdown incomplete", zap.Error(err))
		errs = append(errs, err)
	}

	grace := s.config.Server.ShutdownGrace.Std()
	httpCtx, cancel := context.WithTimeout(ctx, grace)
	defer cancel()
	if err := s.httpServer.Shutdown(httpCtx); err != nil {
		s.logger.Warn("HTTP shutdown incomplete", zap.Error(err))
		errs = append(errs, err)
	}
	if ln != nil {
		// Serve may never have run; closing twice is harmless.
		_ = ln.Close()
	}

	s.tracer.Close()
	s.logger.Info("Server stopped")
	_ = s.logger.Sync()

	return errors.Join(errs...)
}
