package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/niwatnet1979-coder/168vsc-inventory-service/config"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/pkg/broker"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/pkg/cache"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/pkg/lock"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/pkg/logger"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/pkg/postgres"

	catalogH "github.com/niwatnet1979-coder/168vsc-inventory-service/internal/catalog/handler"
	catalogRepoPkg "github.com/niwatnet1979-coder/168vsc-inventory-service/internal/catalog/repository"
	catalogUCPkg "github.com/niwatnet1979-coder/168vsc-inventory-service/internal/catalog/usecase"

	ledgerH "github.com/niwatnet1979-coder/168vsc-inventory-service/internal/ledger/handler"
	ledgerPubPkg "github.com/niwatnet1979-coder/168vsc-inventory-service/internal/ledger/publisher"
	ledgerRepoPkg "github.com/niwatnet1979-coder/168vsc-inventory-service/internal/ledger/repository"
	ledgerUCPkg "github.com/niwatnet1979-coder/168vsc-inventory-service/internal/ledger/usecase"

	purchaseH "github.com/niwatnet1979-coder/168vsc-inventory-service/internal/purchase/handler"
	purchaseRepoPkg "github.com/niwatnet1979-coder/168vsc-inventory-service/internal/purchase/repository"
	purchaseUCPkg "github.com/niwatnet1979-coder/168vsc-inventory-service/internal/purchase/usecase"

	salesH "github.com/niwatnet1979-coder/168vsc-inventory-service/internal/sales/handler"
	salesListenerPkg "github.com/niwatnet1979-coder/168vsc-inventory-service/internal/sales/listener"
	salesRepoPkg "github.com/niwatnet1979-coder/168vsc-inventory-service/internal/sales/repository"
	salesUCPkg "github.com/niwatnet1979-coder/168vsc-inventory-service/internal/sales/usecase"

	reportH "github.com/niwatnet1979-coder/168vsc-inventory-service/internal/report/handler"
	reportUCPkg "github.com/niwatnet1979-coder/168vsc-inventory-service/internal/report/usecase"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "dev" || cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	// 4. Initialize Redis
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// 5. Initialize Kafka
	kafkaConsumer := broker.NewConsumer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.OrdersTopic,
		GroupID: cfg.Kafka.OrdersGroupID,
	})
	defer kafkaConsumer.Close()

	kafkaProducer := broker.NewProducer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.MovementsTopic,
	})
	defer kafkaProducer.Close()
	appLogger.Info("Connected to Kafka",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("orders_topic", cfg.Kafka.OrdersTopic),
		zap.String("movements_topic", cfg.Kafka.MovementsTopic),
	)

	// 6. Initialize Repositories
	catalogRepo := catalogRepoPkg.NewPGRepository(db)
	ledgerRepo := ledgerRepoPkg.NewPGRepository(db)
	purchaseRepo := purchaseRepoPkg.NewPGRepository(db)
	salesRepo := salesRepoPkg.NewPGRepository(db)

	// 7. Initialize UseCases
	locker := lock.NewRedisLocker(redisClient)
	movementPublisher := ledgerPubPkg.NewMovementPublisher(kafkaProducer, appLogger)

	catalogUC := catalogUCPkg.NewCatalogUseCase(catalogRepo, appLogger)
	ledgerUC := ledgerUCPkg.NewLedgerUseCase(ledgerRepo, catalogRepo, locker, redisClient, movementPublisher, appLogger)
	purchaseUC := purchaseUCPkg.NewPurchaseUseCase(purchaseRepo, catalogRepo, ledgerUC, locker, appLogger)
	salesUC := salesUCPkg.NewSalesUseCase(salesRepo, catalogRepo, ledgerUC, locker, appLogger)
	reportUC := reportUCPkg.NewReportUseCase(catalogRepo, ledgerRepo, purchaseRepo, appLogger)

	// 8. Start Order Events Listener
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	orderListener := salesListenerPkg.NewOrderListener(kafkaConsumer, salesUC, catalogUC, appLogger)
	go orderListener.Start(ctx)

	// 9. HTTP Server
	if cfg.Server.AppEnv != "dev" && cfg.Server.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/api/v1")
	catalogH.NewCatalogHandler(catalogUC, appLogger).RegisterRoutes(v1)
	ledgerH.NewLedgerHandler(ledgerUC, appLogger).RegisterRoutes(v1)
	purchaseH.NewPurchaseHandler(purchaseUC, appLogger).RegisterRoutes(v1)
	salesH.NewSalesHandler(salesUC, appLogger).RegisterRoutes(v1)
	reportH.NewReportHandler(reportUC, appLogger).RegisterRoutes(v1)

	port := cfg.Server.HTTPPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	srv := &http.Server{
		Addr:    port,
		Handler: engine,
	}

	go func() {
		appLogger.Info("Starting HTTP server", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Forced shutdown", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
