// Package main 订货管理服务启动入口
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	dealerapp "github.com/wyfcoding/ordermanagement/internal/dealer/application"
	dealdomain "github.com/wyfcoding/ordermanagement/internal/dealer/domain"
	dealermysql "github.com/wyfcoding/ordermanagement/internal/dealer/infrastructure/persistence/mysql"
	dealerhttp "github.com/wyfcoding/ordermanagement/internal/dealer/interfaces/http"
	invapp "github.com/wyfcoding/ordermanagement/internal/inventory/application"
	invdomain "github.com/wyfcoding/ordermanagement/internal/inventory/domain"
	invmysql "github.com/wyfcoding/ordermanagement/internal/inventory/infrastructure/persistence/mysql"
	invredis "github.com/wyfcoding/ordermanagement/internal/inventory/infrastructure/persistence/redis"
	invhttp "github.com/wyfcoding/ordermanagement/internal/inventory/interfaces/http"
	orderapp "github.com/wyfcoding/ordermanagement/internal/order/application"
	orderdomain "github.com/wyfcoding/ordermanagement/internal/order/domain"
	"github.com/wyfcoding/ordermanagement/internal/order/infrastructure/messaging"
	ordermysql "github.com/wyfcoding/ordermanagement/internal/order/infrastructure/persistence/mysql"
	orderhttp "github.com/wyfcoding/ordermanagement/internal/order/interfaces/http"
	payapp "github.com/wyfcoding/ordermanagement/internal/payment/application"
	paydomain "github.com/wyfcoding/ordermanagement/internal/payment/domain"
	paymysql "github.com/wyfcoding/ordermanagement/internal/payment/infrastructure/persistence/mysql"
	payhttp "github.com/wyfcoding/ordermanagement/internal/payment/interfaces/http"
	"github.com/wyfcoding/ordermanagement/pkg/cache"
	"github.com/wyfcoding/ordermanagement/pkg/config"
	"github.com/wyfcoding/ordermanagement/pkg/db"
	"github.com/wyfcoding/ordermanagement/pkg/logger"
	"github.com/wyfcoding/ordermanagement/pkg/metrics"
	"github.com/wyfcoding/ordermanagement/pkg/middleware"
	"github.com/wyfcoding/ordermanagement/pkg/mq"
)

func main() {
	configPath := flag.String("config", "configs/config.toml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 数据库
	database, err := db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init database", "error", err)
	}
	defer database.Close()

	if err := database.AutoMigrate(
		&invdomain.Product{},
		&dealdomain.Dealer{},
		&orderdomain.Order{},
		&orderdomain.OrderItem{},
		&paydomain.Payment{},
		&messaging.OutboxMessage{},
	); err != nil {
		logger.Fatal(ctx, "failed to migrate schema", "error", err)
	}

	// 指标
	m := metrics.New(cfg.ServiceName)
	if err := m.Register(); err != nil {
		logger.Fatal(ctx, "failed to register metrics", "error", err)
	}

	// 仓储
	productRepo := invmysql.NewProductRepository(database.DB)
	if cfg.Redis.Enabled {
		redisCache, err := cache.New(cache.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			MaxPoolSize:  cfg.Redis.MaxPoolSize,
			ConnTimeout:  cfg.Redis.ConnTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			logger.Fatal(ctx, "failed to connect redis", "error", err)
		}
		defer redisCache.Close()
		productRepo = invredis.NewCachedProductRepository(productRepo, redisCache)
		logger.Info(ctx, "product read cache enabled")
	}
	orderRepo := ordermysql.NewOrderRepository(database.DB)
	dealerRepo := dealermysql.NewDealerRepository(database.DB)
	paymentRepo := paymysql.NewPaymentRepository(database.DB)
	ledgerSource := dealermysql.NewLedgerSource(database.DB)

	// 事件发布走事务性 outbox，与业务写入共享事务
	eventPublisher := messaging.NewOutboxEventPublisher(database.DB)

	// 应用服务
	inventoryService := invapp.NewInventoryService(productRepo, m, eventPublisher, cfg.Inventory.DefaultMinStock)
	dealerService := dealerapp.NewDealerService(dealerRepo)
	ledgerService := dealerapp.NewLedgerQueryService(dealerRepo, ledgerSource, ledgerSource)
	orderCommands := orderapp.NewOrderCommandService(
		orderRepo,
		inventoryService,
		dealerService,
		eventPublisher,
		m,
		cfg.Inventory.ReleaseOnCancel,
	)
	orderQueries := orderapp.NewOrderQueryService(orderRepo)
	paymentService := payapp.NewPaymentService(paymentRepo, dealerService)

	// Gin
	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		middleware.GinRecoveryMiddleware(),
		middleware.GinLoggingMiddleware(),
		middleware.GinCORSMiddleware(),
		middleware.GinMetricsMiddleware(m),
	)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": cfg.ServiceName, "version": cfg.Version})
	})

	api := router.Group("/api/v1")
	invhttp.NewProductHandler(inventoryService).RegisterRoutes(api)
	orderhttp.NewOrderHandler(orderCommands, orderQueries).RegisterRoutes(api)
	dealerhttp.NewDealerHandler(dealerService, ledgerService).RegisterRoutes(api)
	payhttp.NewPaymentHandler(paymentService).RegisterRoutes(api)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	grpcServer := grpc.NewServer()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info(ctx, "starting HTTP server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		addr := fmt.Sprintf("%s:%d", cfg.GRPC.Host, cfg.GRPC.Port)
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("failed to listen gRPC: %w", err)
		}
		logger.Info(ctx, "starting gRPC server", "addr", addr)
		if err := grpcServer.Serve(lis); err != nil {
			return fmt.Errorf("gRPC server error: %w", err)
		}
		return nil
	})

	if cfg.Metrics.Enabled {
		if err := metrics.StartHTTPServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Fatal(ctx, "failed to start metrics server", "error", err)
		}
	}

	// Kafka 中继：将 outbox 中待投递的事件推送到消息队列
	if cfg.Kafka.Enabled {
		producer, err := mq.NewProducer(mq.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			MaxRetries:   cfg.Kafka.MaxRetries,
			RetryBackoff: cfg.Kafka.RetryBackoff,
		})
		if err != nil {
			logger.Fatal(ctx, "failed to create kafka producer", "error", err)
		}
		defer producer.Close()

		relay := messaging.NewOutboxRelay(database.DB, producer, cfg.Kafka.Topic)
		g.Go(func() error {
			logger.Info(ctx, "starting outbox relay", "topic", cfg.Kafka.Topic)
			return relay.Run(ctx)
		})
	}

	g.Go(func() error {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigCh:
			logger.Info(ctx, "received shutdown signal", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error(shutdownCtx, "HTTP server shutdown error", "error", err)
		}
		grpcServer.GracefulStop()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Fatal(ctx, "server error", "error", err)
	}
	logger.Info(context.Background(), "server stopped")
}
