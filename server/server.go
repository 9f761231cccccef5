// Package server assembles the HTTP pipeline and the background workers.
package server

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"natours/config"
	"natours/db"
	"natours/handlers"
	"natours/jobs"
	"natours/mail"
	"natours/metrics"
	"natours/middleware"
	"natours/payments"
	"natours/web"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	gormsessions "github.com/gin-contrib/sessions/gorm"
	"github.com/gin-gonic/autotls"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// MultipartBodyLimit applies to image uploads instead of body_limit_bytes
	MultipartBodyLimit = 25 << 20

	shutdownTimeout = 10 * time.Second
)

type Server struct {
	cfg    *config.Config
	logger *zap.Logger
	Engine *gin.Engine

	mailer     mail.Mailer
	dispatcher *jobs.Dispatcher
	limiter    middleware.Limiter
	redis      *redis.Client
}

// New builds the router. db.Instance and the default storage must be ready.
func New(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{
		cfg:    cfg,
		logger: logger,
		mailer: mail.New(cfg),
	}
	s.dispatcher = jobs.NewDispatcher(cfg, s.mailer)

	var gateway payments.Gateway
	if cfg.StripeSecretKey != "" {
		gateway = payments.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	} else {
		logger.Warn("stripe is not configured, checkout is disabled")
	}
	handlers.Init(handlers.Options{
		Mailer:   s.mailer,
		Welcome:  s.dispatcher,
		Payments: gateway,
	})

	if cfg.RedisAddr != "" {
		s.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		s.limiter = middleware.NewRedisLimiter(s.redis, cfg.RateLimitMax, cfg.RateLimitWindow)
	} else {
		s.limiter = middleware.NewMemoryLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)
	}

	engine, err := s.router()
	if err != nil {
		return nil, err
	}
	s.Engine = engine
	return s, nil
}

func (s *Server) router() (*gin.Engine, error) {
	cfg := s.cfg
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	tmpl, err := web.Templates()
	if err != nil {
		return nil, err
	}
	r.SetHTMLTemplate(tmpl)

	store := gormsessions.NewStore(db.Instance, true, []byte(cfg.SessionKey))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionExpirationSeconds,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})

	r.Use(
		middleware.Recovery(s.logger),
		middleware.RequestID(),
		middleware.Logger(s.logger),
		metrics.Middleware(),
		middleware.SecurityHeaders(),
		cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
			AllowCredentials: !allOrigins(cfg.CORSOrigins),
			MaxAge:           12 * time.Hour,
		}),
		gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics", "/img"})),
		sessions.Sessions(cfg.SessionCookieName, store),
		middleware.ErrorHandler(),
	)

	r.GET("/health", handlers.Health)
	r.GET("/metrics", metrics.Handler())
	r.GET("/robots.txt", web.DisallowRobots)
	for _, dir := range []string{"img", "css", "js"} {
		r.Static("/"+dir, filepath.Join(cfg.PublicDir, dir))
	}

	// the signature is computed over the raw body
	handlers.RegisterWebhook(r)

	api := r.Group("/api",
		middleware.RateLimit(s.limiter, cfg.RateLimitMax),
		middleware.BodyLimit(cfg.BodyLimitBytes, MultipartBodyLimit),
		middleware.Sanitize(),
		middleware.ParameterPollution(handlers.TourPollutionWhitelist...),
		middleware.CacheControl(middleware.CacheNoCache),
	)
	handlers.Register(api.Group("/v1"))

	web.Register(r.Group(""))
	r.NoRoute(middleware.NotFound)
	return r, nil
}

func allOrigins(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// Run serves HTTP and runs the background workers until ctx is done
func (s *Server) Run(ctx context.Context) error {
	scheduler, err := jobs.NewScheduler(s.pruner())
	if err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	if s.cfg.RedisAddr != "" {
		worker := jobs.NewWorker(s.cfg, s.mailer)
		if err = worker.Start(); err != nil {
			return err
		}
		defer worker.Stop()
	}
	defer s.close()

	if s.cfg.TLSDomains != "" {
		domains := strings.Split(s.cfg.TLSDomains, ",")
		s.logger.Info("serving with autotls", zap.Strings("domains", domains))
		return autotls.RunWithContext(ctx, s.Engine, domains...)
	}

	srv := &http.Server{
		Addr:              s.cfg.BindAddress,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("address", s.cfg.BindAddress))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err = <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err = srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// pruner is only needed while rate limits live in memory
func (s *Server) pruner() jobs.Pruner {
	if m, ok := s.limiter.(*middleware.MemoryLimiter); ok {
		return m
	}
	return nil
}

func (s *Server) close() {
	if err := s.dispatcher.Close(); err != nil {
		s.logger.Warn("closing job client", zap.Error(err))
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Warn("closing redis", zap.Error(err))
		}
	}
}
