package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"truthgate-api/config"
	"truthgate-api/internal/handler"
	"truthgate-api/internal/metrics"
	"truthgate-api/internal/middleware"
	"truthgate-api/internal/transport/httpdto"
	"truthgate-api/internal/websocket"
	"truthgate-api/pkg/database"
	"truthgate-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Server struct {
	httpServer  *http.Server
	engine      *gin.Engine
	config      *config.Config
	logger      *logger.Logger
	healthCheck func() error
}

type Handlers struct {
	Auth     *handler.AuthHandler
	Donation *handler.DonationHandler
	Webhook  *handler.WebhookHandler
	Settings *handler.SettingsHandler
	Counsel  *handler.CounselHandler
	Socket   *websocket.Handler
}

// Dependencies are the cross-cutting pieces the routes need besides handlers.
type Dependencies struct {
	Auth    middleware.Authenticator
	Limiter middleware.MessageLimiter
	Metrics *metrics.Metrics
}

func New(cfg *config.Config, l *logger.Logger) *Server {
	switch cfg.AppMode {
	case config.ReleaseMode:
		gin.SetMode(gin.ReleaseMode)
	case config.TestMode:
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%s", cfg.AppPort),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		engine:      engine,
		config:      cfg,
		logger:      l,
		healthCheck: database.HealthCheck,
	}
}

// WithHealthCheck replaces the database probe behind /health.
func (s *Server) WithHealthCheck(fn func() error) *Server {
	s.healthCheck = fn
	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) SetupRoutes(handlers *Handlers, deps Dependencies) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.CORSMiddleware(s.config.AllowedOrigins()))
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	s.engine.GET("/health", func(c *gin.Context) {
		if err := s.healthCheck(); err != nil {
			c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse("unhealthy", "UNHEALTHY"))
			return
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy"}))
	})

	if deps.Metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	s.engine.POST("/webhooks/payment-gateway/", handlers.Webhook.PaymentGateway)

	authenticated := middleware.AuthMiddleware(deps.Auth)

	v1 := s.engine.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)

		v1.POST("/donations", handlers.Donation.Initiate)
		v1.GET("/donations/:reference", handlers.Donation.Status)
		v1.GET("/site-settings", handlers.Settings.Get)

		counsel := v1.Group("/counsel", authenticated)
		send := []gin.HandlerFunc{handlers.Counsel.Send}
		if deps.Limiter != nil {
			send = append([]gin.HandlerFunc{middleware.MessageRateLimitMiddleware(deps.Limiter)}, send...)
		}
		counsel.POST("/conversations", handlers.Counsel.Start)
		counsel.GET("/conversations", handlers.Counsel.List)
		counsel.GET("/conversations/:id", handlers.Counsel.Get)
		counsel.GET("/conversations/:id/messages", handlers.Counsel.Messages)
		counsel.POST("/conversations/:id/messages", send...)
		counsel.POST("/conversations/:id/close", handlers.Counsel.Close)
		counsel.DELETE("/conversations/:id", handlers.Counsel.Remove)
		counsel.PATCH("/messages/:id", handlers.Counsel.Edit)
		counsel.DELETE("/messages/:id", handlers.Counsel.Delete)
		counsel.GET("/status", handlers.Counsel.Status)
		counsel.GET("/badge", handlers.Counsel.Badge)

		staff := v1.Group("/staff",
			middleware.TrustedDeviceMiddleware(s.config.TrustedCookieName, s.config.IsDebug()),
			authenticated,
			middleware.RequireStaff(),
		)
		staff.GET("/donations", handlers.Donation.List)
		staff.PUT("/site-settings", handlers.Settings.Update)
	}

	// The socket handler authenticates from the query string itself.
	s.engine.GET("/ws/counsel/:id", handlers.Socket.Connect)
}

// Start serves until SIGINT or SIGTERM, then drains for up to 5 seconds.
func (s *Server) Start() error {
	go func() {
		if s.logger != nil {
			s.logger.Infof("Starting the server on port %s...", s.config.AppPort)
		}
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Errorf("Error in starting the server: %s", err)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	<-quit

	if s.logger != nil {
		s.logger.Infof("Quitting signal received.. Shutting down after 5 seconds")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		if s.logger != nil {
			s.logger.Infof("Error in the graceful shutdown of the server: %s", err)
		}
		return err
	}

	if s.logger != nil {
		s.logger.Infof("Server stopped gracefully")
	}

	return nil
}
