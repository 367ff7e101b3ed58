package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"bidderpro-backend-go/internal/api"
	"bidderpro-backend-go/internal/auth"
	"bidderpro-backend-go/internal/config"
	"bidderpro-backend-go/internal/core"
	"bidderpro-backend-go/internal/db"
	"bidderpro-backend-go/internal/middleware"
	"bidderpro-backend-go/internal/pricing"
	"bidderpro-backend-go/pkg/messagequeue"
)

func main() {
	// --- 1. Load .env outside release mode. In production, environment variables are set directly. ---
	if os.Getenv("GIN_MODE") != "release" {
		if err := godotenv.Load(); err != nil {
			log.Println("Warning: Error loading .env file:", err)
		}
	}

	// --- 2. Initialize Logger (Zap) ---
	zapLogger, err := newLogger(os.Getenv("GIN_MODE"))
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()

	// --- 3. Load Application Configuration ---
	appConfig, err := config.LoadConfig()
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to load application configuration", zap.Error(err))
	}
	zapLogger.Info("Application configuration loaded successfully.",
		zap.String("userStore", appConfig.UserStore),
		zap.Duration("trialWindow", appConfig.TrialWindow))

	// --- 4. Initialize the user store ---
	initCtx, cancelInitCtx := context.WithTimeout(context.Background(), 2*time.Minute)
	userRepo, closeStore, err := openUserStore(initCtx, appConfig, zapLogger)
	cancelInitCtx()
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize user store", zap.String("store", appConfig.UserStore), zap.Error(err))
	}
	defer func() {
		if err := closeStore(); err != nil {
			zapLogger.Warn("Error closing user store", zap.Error(err))
		}
	}()

	// --- 5. Initialize the audit event publisher ---
	var publisher messagequeue.Publisher
	if appConfig.RabbitMQURL != "" {
		rabbit, err := messagequeue.NewRabbitMQPublisher(appConfig.RabbitMQURL, zapLogger)
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to connect to RabbitMQ", zap.Error(err))
		}
		publisher = rabbit
	} else {
		zapLogger.Warn("RABBITMQ_URL is not configured; audit events are only logged.")
		publisher = messagequeue.NewLogPublisher(zapLogger)
	}
	defer publisher.Close()

	// --- 6. Load the price table ---
	priceTable := pricing.DefaultPriceTable()
	if appConfig.PriceTableFile != "" {
		priceTable, err = pricing.LoadPriceTable(appConfig.PriceTableFile)
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to load price table", zap.Error(err))
		}
		zapLogger.Info("Price table loaded", zap.String("file", appConfig.PriceTableFile), zap.Int("materials", len(priceTable)))
	}

	// --- 7. Initialize Services ---
	auditService := core.NewAuditService(publisher, appConfig.AuditQueue)
	trialGate := core.NewTrialGate(userRepo, appConfig.TrialWindow, auditService, zapLogger)
	estimateService, err := core.NewEstimateService(priceTable, appConfig.DefaultLaborRate, auditService, zapLogger)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize EstimateService", zap.Error(err))
	}
	billingService := core.NewBillingService(appConfig.SubscribeURL)
	tokens, err := auth.NewTokenIssuer(appConfig.SessionSecret, appConfig.SessionTTL)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize session tokens", zap.Error(err))
	}
	zapLogger.Info("Core services initialized successfully.")

	// --- 8. Setup Gin HTTP Engine ---
	if appConfig.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	if cors := middleware.CORSMiddleware(appConfig); cors != nil {
		router.Use(cors)
		zapLogger.Info("CORS Middleware enabled", zap.String("clientURL", appConfig.ClientURL))
	} else {
		zapLogger.Warn("CORS Middleware SKIPPED: CLIENT_URL is not configured.")
	}

	api.SetupRoutes(router, zapLogger, tokens, trialGate, estimateService, billingService, priceTable, appConfig.DefaultLaborRate)

	// --- 9. Configure and Start HTTP Server ---
	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	zapLogger.Info("Starting HTTP server...", zap.String("address", serverAddr), zap.String("ginMode", gin.Mode()))
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// --- 10. Graceful Shutdown Handling ---
	quitChannel := make(chan os.Signal, 1)
	signal.Notify(quitChannel, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quitChannel
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown due to error during graceful shutdown", zap.Error(err))
		return
	}
	zapLogger.Info("Server exiting gracefully.")
}

func newLogger(ginMode string) (*zap.Logger, error) {
	if ginMode == "release" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// openUserStore builds the UserRepository selected by USER_STORE and the
// function releasing its connections.
func openUserStore(ctx context.Context, appConfig *config.Config, logger *zap.Logger) (db.UserRepository, func() error, error) {
	noop := func() error { return nil }

	switch appConfig.UserStore {
	case config.StoreMemory:
		logger.Warn("Using the in-memory user store; trials reset on restart.")
		return db.NewMemoryUserRepository(), noop, nil
	case config.StoreFile:
		repo, err := db.NewFileUserRepository(appConfig.UsersFile, logger)
		return repo, noop, err
	case config.StoreRedis:
		return db.NewRedisUserRepository(ctx, db.RedisOptions{
			Addr:     appConfig.RedisAddr,
			Password: appConfig.RedisPassword,
			DB:       appConfig.RedisDB,
		}, logger)
	case config.StoreFirestore:
		client, err := db.NewFirestoreClient(ctx, appConfig, logger)
		if err != nil {
			return nil, nil, err
		}
		repo, err := db.NewFirestoreUserRepository(client)
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		return repo, client.Close, nil
	case config.StorePostgres:
		return db.NewPostgresUserRepository(ctx, appConfig.DatabaseURL, logger)
	default:
		return nil, nil, fmt.Errorf("unknown user store %q", appConfig.UserStore)
	}
}
