package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/bayt-al-hikmah/taskgate/internal/circuitbreaker"
	"github.com/bayt-al-hikmah/taskgate/internal/config"
	"github.com/bayt-al-hikmah/taskgate/internal/handler"
	"github.com/bayt-al-hikmah/taskgate/internal/middleware"
	"github.com/bayt-al-hikmah/taskgate/internal/ratelimit"
	"github.com/bayt-al-hikmah/taskgate/internal/repository"
	"github.com/bayt-al-hikmah/taskgate/internal/service"
	"github.com/bayt-al-hikmah/taskgate/internal/storage"
	"github.com/bayt-al-hikmah/taskgate/internal/token"
	"github.com/bayt-al-hikmah/taskgate/internal/upload"
	"github.com/gin-gonic/gin"
)

type Server struct {
	router      *gin.Engine
	config      *config.Config
	redis       *storage.RedisClient
	postgres    *storage.Postgres
	codec       *token.Codec
	throttle    *ratelimit.Throttle
	memoryStore *ratelimit.MemoryStore
	audit       *middleware.AuditLogger
	httpServer  *http.Server
}

func New(cfg *config.Config, redis *storage.RedisClient, postgres *storage.Postgres) (*Server, error) {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	codec, err := token.NewCodec(cfg.Auth.Secret, cfg.AccessTTL(), cfg.RefreshTTL())
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:   gin.New(),
		config:   cfg,
		redis:    redis,
		postgres: postgres,
		codec:    codec,
	}

	if err := s.initThrottle(); err != nil {
		return nil, err
	}

	media, err := handler.NewMediaStore(cfg.Media.Dir)
	if err != nil {
		return nil, err
	}

	uploadOpts := upload.Options{
		MaxFieldBytes: cfg.Media.MaxFieldBytes,
		MaxFileBytes:  cfg.Media.MaxFileBytes,
	}

	userRepo := repository.NewUserRepository(postgres)
	taskRepo := repository.NewTaskRepository(postgres)
	photoRepo := repository.NewPhotoRepository(postgres)
	logRepo := repository.NewRequestLogRepository(postgres)

	authService := service.NewAuthService(userRepo, codec)
	taskService := service.NewTaskService(taskRepo)
	photoService := service.NewPhotoService(photoRepo)

	authHandler := handler.NewAuthHandler(authService, media, uploadOpts)
	taskHandler := handler.NewTaskHandler(taskService)
	profileHandler := handler.NewProfileHandler(authService)
	photoHandler := handler.NewPhotoHandler(photoService, media, uploadOpts)

	s.audit = middleware.NewAuditLogger(logRepo, 1000)

	s.setupMiddleware()
	s.setupRoutes(authHandler, taskHandler, profileHandler, photoHandler)

	return s, nil
}

// initThrottle wires the counter store: Redis (breaker-guarded) when
// configured so limits hold across instances, otherwise the in-process
// store for single-instance deployments.
func (s *Server) initThrottle() error {
	var store ratelimit.CounterStore
	if s.redis != nil {
		store = ratelimit.NewGuardedStore(
			ratelimit.NewRedisStore(s.redis, s.config.StoreTimeout()),
			circuitbreaker.New(5, 15*time.Second),
		)
	} else {
		s.memoryStore = ratelimit.NewMemoryStore()
		store = s.memoryStore
		log.Println("No Redis configured; rate limits are per-instance only")
	}

	rules := make(map[string]ratelimit.Rule, len(s.config.Throttle.Scopes))
	for name, sc := range s.config.Throttle.Scopes {
		rules[name] = ratelimit.Rule{
			Window:   time.Duration(sc.WindowSeconds) * time.Second,
			MaxCount: sc.MaxCount,
		}
	}

	throttle, err := ratelimit.NewThrottle(store, rules, s.config.FailOpen())
	if err != nil {
		return err
	}

	s.throttle = throttle
	return nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recovery())
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.Logger())
	s.router.Use(s.audit.Middleware())
}

func (s *Server) setupRoutes(
	authHandler *handler.AuthHandler,
	taskHandler *handler.TaskHandler,
	profileHandler *handler.ProfileHandler,
	photoHandler *handler.PhotoHandler,
) {
	s.router.GET("/health", s.healthCheck)

	// Guest-only gate first, then the named auth scope; an
	// authenticated session cannot register or log in again
	auth := s.router.Group("/auth",
		middleware.GuestOnly(s.codec),
		middleware.ThrottleScope(s.throttle, "auth"),
	)
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	// Ungated so expired access tokens can still be refreshed
	s.router.POST("/auth/refresh", middleware.Throttle(s.throttle), authHandler.Refresh)

	// Gate before throttle: the throttle keys authenticated callers by
	// the subject id the gate resolved
	api := s.router.Group("/api", middleware.RequireAuth(s.codec))

	std := api.Group("", middleware.Throttle(s.throttle))
	{
		std.GET("/tasks", taskHandler.List)
		std.POST("/tasks", taskHandler.Create)
		std.PATCH("/tasks/:id", taskHandler.UpdateState)
		std.DELETE("/tasks/:id", taskHandler.Delete)

		std.GET("/profile", profileHandler.Get)
		std.PATCH("/profile", profileHandler.Update)
		std.PATCH("/profile/password", profileHandler.UpdatePassword)

		std.GET("/photos", photoHandler.List)
	}

	// Named scope overrides the default user scope on this route only
	api.POST("/photos", middleware.ThrottleScope(s.throttle, "uploads"), photoHandler.Upload)
}

func (s *Server) healthCheck(c *gin.Context) {
	redisHealthy := true
	if s.redis != nil {
		if err := s.redis.Ping(c.Request.Context()); err != nil {
			redisHealthy = false
			log.Printf("Redis health check failed: %v", err)
		}
	}

	dbHealthy := true
	if err := s.postgres.Ping(c.Request.Context()); err != nil {
		dbHealthy = false
		log.Printf("Database health check failed: %v", err)
	}

	status := "healthy"
	statusCode := http.StatusOK
	if !redisHealthy || !dbHealthy {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"status":    status,
		"service":   "taskgate",
		"timestamp": time.Now().Unix(),
		"checks": gin.H{
			"redis":    redisHealthy,
			"database": dbHealthy,
		},
	})
}

func (s *Server) Run(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	log.Printf("Starting taskgate on %s", addr)
	log.Printf("Environment: %s", s.config.Server.Environment)

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}

	s.audit.Stop()
	if s.memoryStore != nil {
		s.memoryStore.Stop()
	}

	if err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func (s *Server) GetRouter() *gin.Engine {
	return s.router
}
