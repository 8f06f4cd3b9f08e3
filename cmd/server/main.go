package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"workzone-monitor/internal/catalog"
	"workzone-monitor/internal/config"
	"workzone-monitor/internal/gemini"
	"workzone-monitor/internal/guard"
	"workzone-monitor/internal/handler"
	"workzone-monitor/internal/imagesource"
	"workzone-monitor/internal/natsserver"
	"workzone-monitor/internal/progress"
	"workzone-monitor/internal/repository"
	"workzone-monitor/internal/scheduler"
	"workzone-monitor/internal/v2x"
	"workzone-monitor/internal/vrsu"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Environment first so config expansion sees .env values
	godotenv.Load()

	// Initialize logger
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Starting Work Zone Monitor...")

	// Load configuration
	cfg, err := config.LoadConfig("configs/config.yml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Load the camera catalog
	cameras, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		logger.Fatal("Failed to load camera catalog", zap.Error(err))
	}
	logger.Info("Camera catalog loaded",
		zap.Int("cameras", len(cameras)),
		zap.Int("views", catalog.CountViews(cameras)))

	// Initialize repository
	os.MkdirAll("./data", 0755)

	repo, err := repository.NewDetectionRepository(cfg.Database.Path, logger)
	if err != nil {
		logger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	// Usage guard backed by the repository's persisted counters
	usageGuard := guard.New(guard.Limits{
		DailyMaxRequests:   cfg.Limits.DailyMaxRequests,
		MonthlyMaxRequests: cfg.Limits.MonthlyMaxRequests,
		CostPerRequest:     cfg.Limits.CostPerRequest,
		MonthlyBudget:      cfg.Limits.MonthlyBudget,
		EmergencyShutoff:   cfg.Limits.EmergencyShutoff,
	}, repo, logger)

	// Optional embedded NATS for V2X alert distribution
	var subscribers []v2x.Subscriber
	if cfg.NATS.Enabled {
		embedded, err := natsserver.New(natsserver.Config{Port: cfg.NATS.Port}, logger)
		if err != nil {
			logger.Fatal("Failed to start embedded NATS", zap.Error(err))
		}
		defer embedded.Shutdown()
		subscribers = append(subscribers, v2x.NewNATSPublisher(embedded.Conn(), logger))
		logger.Info("Embedded NATS started", zap.String("address", embedded.Address()))
	}

	// Optional external vRSU relay
	if cfg.VRSU.Enabled {
		vrsuClient := vrsu.NewClient(cfg.VRSU.URL, logger)
		subscribers = append(subscribers, vrsuClient)
		logger.Info("vRSU relay enabled", zap.String("url", cfg.VRSU.URL))
	}

	// Broadcast registrar
	registrar := v2x.NewRegistrar(v2x.Config{
		BroadcastMinRisk: cfg.Thresholds.BroadcastMinRisk,
		RadiusMeters:     cfg.Broadcast.RadiusMeters,
		TTL:              time.Duration(cfg.Broadcast.TTLSeconds) * time.Second,
	}, logger, subscribers...)

	// Initialize Gemini client
	if cfg.Gemini.APIKey == "" || cfg.Gemini.APIKey == "YOUR_API_KEY_HERE" {
		logger.Fatal("Gemini API key not configured. Please set it in configs/config.yml or environment variable")
	}

	geminiClient, err := gemini.NewClient(gemini.Config{
		APIKey:      cfg.Gemini.APIKey,
		ModelName:   cfg.Gemini.ModelName,
		CallTimeout: time.Duration(cfg.Gemini.TimeoutSeconds) * time.Second,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize Gemini client", zap.Error(err))
	}
	defer geminiClient.Close()

	// Frame source
	var source scheduler.ImageSource
	switch cfg.Images.Source {
	case "dir":
		source, err = imagesource.NewDirSource(cfg.Images.Dir, logger)
		if err != nil {
			logger.Fatal("Failed to open frame directory", zap.Error(err))
		}
	case "http":
		source = imagesource.NewHTTPSource(logger)
	default:
		logger.Fatal("Unknown image source", zap.String("source", cfg.Images.Source))
	}

	// Progress hub and scheduler
	hub := progress.NewHub(logger)

	sched := scheduler.New(cameras, source, geminiClient, repo, usageGuard, registrar, hub,
		scheduler.Config{
			HistoryMinRisk: cfg.Thresholds.HistoryMinRisk,
			Pacing:         time.Duration(cfg.Collection.PacingMs) * time.Millisecond,
		}, logger)

	// Initialize HTTP handler
	apiHandler := handler.NewHandler(sched, repo, usageGuard, registrar, hub, cfg.Collection.IntervalMinutes, logger)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Register routes
	apiHandler.RegisterRoutes(router)

	// Start server
	serverAddr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Info("Server starting", zap.String("address", serverAddr))

	srv := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	if cfg.Collection.AutoStart {
		interval := time.Duration(cfg.Collection.IntervalMinutes) * time.Minute
		if err := sched.Start(interval); err != nil {
			logger.Fatal("Failed to start collection", zap.Error(err))
		}
	}

	logger.Info("Work Zone Monitor is running",
		zap.String("port", cfg.Server.Port),
		zap.String("model", cfg.Gemini.ModelName),
		zap.Bool("auto_start", cfg.Collection.AutoStart))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
