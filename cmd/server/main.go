package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/citytwin/backend/internal/delivery/http"
	"github.com/citytwin/backend/internal/repository/postgres"
	"github.com/citytwin/backend/internal/service"
)

var logLevels = map[string]logrus.Level{
	"debug": logrus.DebugLevel,
	"info":  logrus.InfoLevel,
	"warn":  logrus.WarnLevel,
	"error": logrus.ErrorLevel,
	"fatal": logrus.FatalLevel,
	"panic": logrus.PanicLevel,
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using system environment")
	}

	// Configuration
	cfg := loadConfig()

	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.0000",
	})
	if level, ok := logLevels[cfg.LogLevel]; ok {
		logrus.SetLevel(level)
	} else {
		logrus.Fatalf("invalid log level: %s", cfg.LogLevel)
	}

	// Database connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		var err error
		pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logrus.Warnf("Could not connect to database: %v", err)
			pool = nil
		}
	}
	if pool != nil {
		defer pool.Close()
		logrus.Info("Connected to PostgreSQL")
	} else {
		logrus.Info("Running with in-memory run store only")
	}

	// Dependency Injection: Repositories
	var runRepo service.RunRepository
	if pool != nil {
		runRepo = postgres.NewPostgresRepository(pool)
	} else {
		runRepo = postgres.NewMockRepository()
	}

	// Dependency Injection: Services
	graphSvc := service.NewGraphService(cfg.NetworkFile, cfg.City)
	metricsSvc := service.NewMetricsService()
	policySvc := service.NewPolicyService()
	impactSvc := service.NewImpactService()
	bridge := service.NewLLMBridge(cfg.PolicyAIURL)
	pipeline := service.NewPipelineService(graphSvc, metricsSvc, policySvc, impactSvc, bridge)
	simSvc := service.NewSimulationService(pipeline, runRepo)
	presetSvc := service.NewPresetService(cfg.PresetsFile)

	// Fiber App
	app := fiber.New(fiber.Config{
		AppName:      "CityTwin API v1.0",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Routes
	http.SetupRoutes(app, graphSvc, metricsSvc, simSvc, presetSvc, runRepo)

	// Graceful shutdown
	go func() {
		port := cfg.Port
		if port == "" {
			port = "8080"
		}
		logrus.Infof("Server starting on :%s", port)
		if err := app.Listen(":" + port); err != nil {
			logrus.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		logrus.Warnf("Server forced to shutdown: %v", err)
	}
	simSvc.WaitBackground()
	logrus.Info("Server exited gracefully")
}

type Config struct {
	DatabaseURL string
	PolicyAIURL string
	NetworkFile string
	PresetsFile string
	City        string
	Port        string
	LogLevel    string
	Env         string
}

func loadConfig() *Config {
	return &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		PolicyAIURL: getEnv("POLICY_AI_URL", ""),
		NetworkFile: getEnv("NETWORK_FILE", ""),
		PresetsFile: getEnv("PRESETS_FILE", ""),
		City:        getEnv("CITY_NAME", "Kochi"),
		Port:        getEnv("PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Env:         getEnv("GO_ENV", "development"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
