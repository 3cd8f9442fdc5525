// Package bootstrap assembles the application from configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/domain"
	httpHandler "github.com/Shaanshimpi/codehub-live-coding-sub002/internal/handler/http"
	gormpersistence "github.com/Shaanshimpi/codehub-live-coding-sub002/internal/infra/persistence/gorm"
	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/infra/setup"
	redisstate "github.com/Shaanshimpi/codehub-live-coding-sub002/internal/infra/state/redis"
	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/middleware"
	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/service"
	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/tasks"
	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/worker"
)

// Config holds everything loaded from the environment.
type Config struct {
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret      string
	JWTExpiryHours int

	ServerPort string
	LogLevel   string
	AppEnv     string
	KeyPrefix  string

	RateLimitMax    int
	RateLimitWindow time.Duration

	LiveCacheTTL   time.Duration
	SessionIdleTTL time.Duration
}

// LoadConfig reads configuration from the environment, with an optional
// .env file for development.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // env vars alone are fine

	cfg := &Config{
		DBUser:        os.Getenv("DB_USER"),
		DBPassword:    os.Getenv("DB_PASSWORD"),
		DBHost:        os.Getenv("DB_HOST"),
		DBPort:        os.Getenv("DB_PORT"),
		DBName:        os.Getenv("DB_NAME"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		ServerPort:    os.Getenv("SERVER_PORT"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		AppEnv:        os.Getenv("APP_ENV"),
		KeyPrefix:     os.Getenv("REDIS_KEY_PREFIX"),

		JWTExpiryHours:  24,
		RateLimitMax:    100,
		RateLimitWindow: 1 * time.Second,
		LiveCacheTTL:    2 * time.Second,
		SessionIdleTTL:  2 * time.Hour,
	}

	cfg.RedisDB, _ = strconv.Atoi(os.Getenv("REDIS_DB"))

	if ttl := os.Getenv("LIVE_CACHE_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil && d > 0 {
			cfg.LiveCacheTTL = d
		}
	}
	if ttl := os.Getenv("SESSION_IDLE_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil && d > 0 {
			cfg.SessionIdleTTL = d
		}
	}

	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "cc:"
	}
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("environment variable REDIS_ADDR must be set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("environment variable JWT_SECRET must be set")
	}

	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		logrus.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", cfg.LogLevel)
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

// App holds the assembled application components.
type App struct {
	Config      *Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	AsynqClient *asynq.Client
	AsynqServer *worker.WorkerServer
	HttpServer  *http.Server

	redisClientOpt asynq.RedisClientOpt
}

// NewApp creates and wires all application components.
func NewApp() (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, err
	}

	log := logrus.New()
	if cfg.AppEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, ForceColors: true})
	}
	logLevel, _ := logrus.ParseLevel(cfg.LogLevel)
	log.SetLevel(logLevel)
	log.SetOutput(os.Stdout)
	log.Info("Configuration loaded")

	// Infrastructure.
	db, err := setup.InitDB(cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to init DB: %w", err)
	}
	if err := setup.MigrateDB(db); err != nil {
		return nil, fmt.Errorf("failed to migrate DB: %w", err)
	}
	log.Info("Database initialized and migrated")

	redisClient, err := setup.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}
	log.Info("Redis client initialized")

	redisClientOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	asynqClient := asynq.NewClient(redisClientOpt)
	log.Info("Asynq client initialized")

	// Repositories.
	userRepo := gormpersistence.NewGormUserRepository(db)
	sessionRepo := gormpersistence.NewGormSessionRepository(db)
	fileRepo := gormpersistence.NewGormWorkspaceFileRepository(db)
	liveCache := redisstate.NewRedisLiveViewCache(redisClient, cfg.KeyPrefix)
	log.Info("Repositories initialized")

	// Services.
	authService, err := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpiryHours)
	if err != nil {
		return nil, fmt.Errorf("failed to create AuthService: %w", err)
	}
	sessionService := service.NewSessionService(sessionRepo, liveCache)
	broadcastService := service.NewBroadcastService(sessionRepo, liveCache)
	scratchpadService := service.NewScratchpadService(sessionRepo, fileRepo)
	readerService := service.NewReaderService(sessionRepo, userRepo, liveCache, cfg.LiveCacheTTL)
	log.Info("Services initialized")

	// Handlers.
	authHandler := httpHandler.NewAuthHandler(authService)
	sessionHandler := httpHandler.NewSessionHandler(sessionService, broadcastService, scratchpadService, readerService)
	monitorHandler := httpHandler.NewMonitorHandler(readerService)

	// Background worker.
	reapHandler := worker.NewSessionReapHandler(sessionRepo, liveCache, cfg.SessionIdleTTL, log)
	workerServer := worker.NewWorkerServer(redisClientOpt, reapHandler, log)
	log.Info("Worker server initialized")

	// Router.
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(LoggerMiddleware(log))
	router.Use(corsMiddleware())
	router.Use(middleware.RateLimit(redisClient, cfg.RateLimitMax, cfg.RateLimitWindow))

	api := router.Group("/api")

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}

	sessionRoutes := api.Group("/sessions").Use(middleware.Auth(cfg.JWTSecret))
	{
		sessionRoutes.POST("", middleware.RequireRoles(domain.RoleTrainer, domain.RoleManager, domain.RoleAdmin), sessionHandler.CreateSession)
		sessionRoutes.POST("/join", sessionHandler.JoinSession)
		sessionRoutes.GET("/validate/:code", sessionHandler.ValidateSession)
		sessionRoutes.GET("/live/:code", sessionHandler.LiveView)
		sessionRoutes.POST("/:id/end", middleware.RequireRoles(domain.RoleTrainer, domain.RoleManager, domain.RoleAdmin), sessionHandler.EndSession)
		sessionRoutes.POST("/:id/broadcast", middleware.RequireRoles(domain.RoleTrainer, domain.RoleManager, domain.RoleAdmin), sessionHandler.PublishBroadcast)
		sessionRoutes.POST("/:id/scratchpad", sessionHandler.UpdateScratchpad)
	}

	monitorRoutes := api.Group("/monitor").Use(middleware.Auth(cfg.JWTSecret), middleware.RequireRoles(domain.RoleAdmin, domain.RoleManager))
	{
		monitorRoutes.GET("/sessions", monitorHandler.ListActiveSessions)
		monitorRoutes.GET("/sessions/:code/students", monitorHandler.SessionStudents)
	}

	router.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })
	log.Info("Router setup complete")

	httpServer := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	return &App{
		Config:         cfg,
		Log:            log,
		DB:             db,
		RedisClient:    redisClient,
		AsynqClient:    asynqClient,
		AsynqServer:    workerServer,
		HttpServer:     httpServer,
		redisClientOpt: redisClientOpt,
	}, nil
}

// Start launches the background worker, the periodic scheduler and the HTTP
// server.
func (a *App) Start() {
	go a.AsynqServer.Start()
	a.Log.Info("Worker server routine started")

	a.registerPeriodicTasks()

	go func() {
		a.Log.Infof("HTTP server listening on %s", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to start HTTP server: %v", err)
		}
		a.Log.Info("HTTP server stopped listening.")
	}()
}

func (a *App) registerPeriodicTasks() {
	scheduler := asynq.NewScheduler(a.redisClientOpt, &asynq.SchedulerOpts{})

	payload, err := tasks.NewSessionReapTask()
	if err != nil {
		a.Log.Errorf("Failed to create session reap task payload: %v", err)
		return
	}
	task := asynq.NewTask(tasks.TypeSessionReap, payload)

	schedule := "@every 5m"
	entryID, err := scheduler.Register(schedule, task, asynq.Queue("low"))
	if err != nil {
		a.Log.Errorf("Could not register periodic session reap task: %v", err)
	} else {
		a.Log.Infof("Periodic session reap registered with schedule '%s' (EntryID: %s)", schedule, entryID)
	}

	go func() {
		a.Log.Info("Asynq scheduler starting...")
		if err := scheduler.Run(); err != nil {
			if !errors.Is(err, asynq.ErrServerClosed) {
				a.Log.Errorf("Asynq scheduler Run() failed: %v", err)
			} else {
				a.Log.Info("Asynq scheduler stopped.")
			}
		}
	}()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() {
	a.Log.Info("Shutting down application...")

	if a.AsynqServer != nil {
		a.AsynqServer.Shutdown()
	}

	a.Log.Info("Shutting down HTTP server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.HttpServer.Shutdown(ctx); err != nil {
		a.Log.Errorf("Error shutting down HTTP server: %v", err)
	} else {
		a.Log.Info("HTTP server shut down gracefully.")
	}

	if a.AsynqClient != nil {
		if err := a.AsynqClient.Close(); err != nil {
			a.Log.Errorf("Error closing Asynq client: %v", err)
		}
	}

	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Log.Errorf("Error closing Redis connection: %v", err)
		}
	}

	a.Log.Info("Application shutdown complete.")
}

// LoggerMiddleware logs one line per request with the request id attached.
func LoggerMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		latency := time.Since(startTime)
		statusCode := c.Writer.Status()
		path := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			path = path + "?" + c.Request.URL.RawQuery
		}
		errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String()

		entry := log.WithFields(logrus.Fields{
			"status_code": statusCode,
			"latency_ms":  latency.Milliseconds(),
			"client_ip":   c.ClientIP(),
			"method":      c.Request.Method,
			"path":        path,
			"request_id":  c.GetString(middleware.CtxRequestID),
		})

		if errorMessage != "" {
			entry.Error(errorMessage)
		} else if statusCode >= 500 {
			entry.Error("Server error")
		} else if statusCode >= 400 {
			entry.Warn("Client error")
		} else {
			entry.Info("Request handled")
		}
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		allowedOrigin := os.Getenv("CORS_ALLOWED_ORIGIN")
		if allowedOrigin == "" {
			allowedOrigin = "http://localhost:3000"
		}
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, X-Request-ID")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
