package server

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/gungunsaluja/FileView/internal/ai"
	"github.com/gungunsaluja/FileView/internal/api/http"
	"github.com/gungunsaluja/FileView/internal/api/middleware"
	"github.com/gungunsaluja/FileView/internal/api/ws"
	"github.com/gungunsaluja/FileView/internal/domain/fallback"
	"github.com/gungunsaluja/FileView/internal/domain/files"
	"github.com/gungunsaluja/FileView/internal/infrastructure/config"
	"github.com/gungunsaluja/FileView/internal/infrastructure/logging"
	"github.com/gungunsaluja/FileView/internal/infrastructure/monitoring"
	"github.com/gungunsaluja/FileView/internal/infrastructure/resilience"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	files    *files.Service
	upstream ai.Generator
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	// Initialize logger
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}

	logger.Info("Initializing FileView server",
		zap.String("port", cfg.Server.Port),
		zap.String("workspace", cfg.Files.Root),
		zap.Bool("ai_enabled", cfg.AI.Enabled()),
	)

	// Initialize metrics first (needed by other components)
	metrics := monitoring.NewMetrics()

	// One breaker guards the upstream for both the WebSocket relay and the
	// REST surface, so they observe the same health state.
	failures := cfg.Breaker.Failures
	breaker := resilience.New("upstream", resilience.Settings{
		Timeout: cfg.Breaker.Timeout,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to resilience.State) {
			metrics.SetBreakerState(int(to))
			logger.Warn("Breaker state changed",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
	})

	// Upstream availability is decided here, once. Handlers receive either
	// a live client or nil and never re-read the environment.
	var upstream ai.Generator
	var model string
	if cfg.AI.Enabled() {
		gemini, err := ai.NewGemini(context.Background(), ai.Config{
			APIKey:    cfg.AI.APIKey,
			Model:     cfg.AI.Model,
			MaxTokens: int32(cfg.AI.MaxTokens),
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create upstream client: %w", err)
		}
		upstream = gemini
		model = gemini.Model()
		logger.Info("Connected to upstream model", zap.String("model", model))
	} else {
		logger.Info("No API key configured, replies served by fallback generator")
	}

	fb := fallback.New(fallback.Config{
		DelayMin: cfg.Stream.DelayMin,
		DelayMax: cfg.Stream.DelayMax,
	})

	filesSvc, err := files.NewService(cfg.Files.Root, cfg.Files.Ignore, cfg.Files.MaxBytes, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open workspace: %w", err)
	}
	logger.Info("Workspace opened", zap.String("root", filesSvc.Root()))

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.RequestLogger(logger.Logger))

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.CORS.Origins) > 0 {
		corsCfg.AllowOrigins = cfg.CORS.Origins
	}
	router.Use(middleware.CORS(corsCfg))

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

	// Create handlers. The breaker and metrics are shared with the relay.
	handlers := http.NewHandlers(http.Config{
		Files:    filesSvc,
		Upstream: upstream,
		Fallback: fb,
		Breaker:  breaker,
		Metrics:  metrics,
		Logger:   logger,
		Model:    model,
		Timeout:  cfg.AI.Timeout,
	})
	wsHandler := ws.NewHandler(ws.Config{
		Upstream: upstream,
		Fallback: fb,
		Breaker:  breaker,
		Metrics:  metrics,
		Logger:   logger.Logger,
		Timeout:  cfg.AI.Timeout,
	})

	// Register routes
	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	// Workspace viewer
	router.GET("/api/files", handlers.ListFiles)
	router.GET("/api/files/stat", handlers.StatFile)
	router.GET("/api/files/content", handlers.ReadFile)
	router.GET("/api/files/preview", handlers.PreviewFile)

	// Chat
	router.POST("/api/generate", handlers.Generate)
	router.GET("/stream", wsHandler.HandleConnection)

	// Metrics endpoints
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/metrics/json", handlers.MetricsJSON)

	logger.Info("Server initialized successfully")

	return &Server{
		router:   router,
		files:    filesSvc,
		upstream: upstream,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
	}, nil
}

// Run starts the HTTP server
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Close gracefully shuts down the server
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	// Sync logger before exit
	s.logger.Sync()

	return nil
}
