// TradeLifecycle 主程序
// 功能：场外利率互换交易的新建、修订、终止、取消与现金流计划生成
// 架构：DDD + gin HTTP + gRPC 健康检查 + outbox/Kafka 事件投递
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	authapp "github.com/wyfcoding/tradelifecycle/internal/auth/application"
	authdomain "github.com/wyfcoding/tradelifecycle/internal/auth/domain"
	"github.com/wyfcoding/tradelifecycle/internal/auth/infrastructure/directory"
	authmysql "github.com/wyfcoding/tradelifecycle/internal/auth/infrastructure/persistence/mysql"
	authredis "github.com/wyfcoding/tradelifecycle/internal/auth/infrastructure/persistence/redis"
	"github.com/wyfcoding/tradelifecycle/internal/bootstrap"
	refapp "github.com/wyfcoding/tradelifecycle/internal/referencedata/application"
	refdomain "github.com/wyfcoding/tradelifecycle/internal/referencedata/domain"
	refmysql "github.com/wyfcoding/tradelifecycle/internal/referencedata/infrastructure/persistence/mysql"
	refredis "github.com/wyfcoding/tradelifecycle/internal/referencedata/infrastructure/persistence/redis"
	refhttp "github.com/wyfcoding/tradelifecycle/internal/referencedata/interfaces/http"
	"github.com/wyfcoding/tradelifecycle/internal/trade/application"
	tradedomain "github.com/wyfcoding/tradelifecycle/internal/trade/domain"
	"github.com/wyfcoding/tradelifecycle/internal/trade/infrastructure/messaging"
	trademysql "github.com/wyfcoding/tradelifecycle/internal/trade/infrastructure/persistence/mysql"
	traderedis "github.com/wyfcoding/tradelifecycle/internal/trade/infrastructure/persistence/redis"
	tradegrpc "github.com/wyfcoding/tradelifecycle/internal/trade/interfaces/grpc"
	tradehttp "github.com/wyfcoding/tradelifecycle/internal/trade/interfaces/http"
	"github.com/wyfcoding/tradelifecycle/pkg/cache"
	"github.com/wyfcoding/tradelifecycle/pkg/config"
	"github.com/wyfcoding/tradelifecycle/pkg/db"
	"github.com/wyfcoding/tradelifecycle/pkg/logger"
	"github.com/wyfcoding/tradelifecycle/pkg/metrics"
	"github.com/wyfcoding/tradelifecycle/pkg/middleware"
	"github.com/wyfcoding/tradelifecycle/pkg/mq"
	"github.com/wyfcoding/tradelifecycle/pkg/ratelimit"
	"github.com/wyfcoding/tradelifecycle/pkg/scheduler"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "configs/tradelifecycle/config.toml", "path to config file")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
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
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Fatal(ctx, "tradelifecycle exited with error", "error", err)
	}
	logger.Info(context.Background(), "tradelifecycle stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()
	log.InfoContext(ctx, "starting tradelifecycle",
		"service", cfg.ServiceName,
		"version", cfg.Version,
		"environment", cfg.Environment,
	)

	// 3. 初始化数据库
	database, err := db.Init(ctx, db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	if cfg.Database.AutoMigrate {
		if err := bootstrap.Migrate(database.DB); err != nil {
			return err
		}
	}

	// 4. 初始化 Redis（可选）
	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		redisCache, err = cache.New(ctx, cache.Config{
			Addr:         cfg.Redis.Addr(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			MaxPoolSize:  cfg.Redis.MaxPoolSize,
			ConnTimeout:  cfg.Redis.ConnTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize redis: %w", err)
		}
		defer redisCache.Close()
	}

	// 5. 指标
	m := metrics.New(cfg.ServiceName)

	// 6. 应用服务
	svcs := buildServices(cfg, database, redisCache, m, log)

	// 7. outbox 投递与清理
	runner := scheduler.New(log, ctx)
	var producer *mq.KafkaProducer
	if cfg.Kafka.Enabled {
		producer = mq.NewProducer(mq.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			WriteTimeout: time.Duration(cfg.Kafka.WriteTimeout) * time.Second,
		})
		defer producer.Close()
		relay := messaging.NewRelay(database.DB, producer, cfg.Kafka.Topic, m, time.Now)
		if _, err := runner.Add("outbox-relay", cfg.Lifecycle.OutboxRelaySpec, relay.RelayJob(cfg.Lifecycle.OutboxBatchSize)); err != nil {
			return fmt.Errorf("failed to schedule outbox relay: %w", err)
		}
		retention := time.Duration(cfg.Lifecycle.OutboxRetentionHours) * time.Hour
		if _, err := runner.Add("outbox-cleanup", cfg.Lifecycle.OutboxCleanupSpec, relay.CleanupJob(retention)); err != nil {
			return fmt.Errorf("failed to schedule outbox cleanup: %w", err)
		}
	} else {
		log.WarnContext(ctx, "kafka disabled, lifecycle events stay in the outbox table")
	}
	if !cfg.Auth.Enabled {
		log.WarnContext(ctx, "auth disabled, caller identity is taken from the X-User-ID header", "environment", cfg.Environment)
	}

	// 8. HTTP 与 gRPC 服务器
	httpServer := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      newRouter(cfg, database, redisCache, m, svcs),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}
	pingers := map[string]tradegrpc.Pinger{"database": database}
	if redisCache != nil {
		pingers["redis"] = redisCache
	}
	checker := tradegrpc.NewHealthChecker(log, pingers)
	grpcServer := tradegrpc.NewServer(checker, uint32(cfg.GRPC.MaxConcurrentStreams))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.InfoContext(gctx, "starting HTTP server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		lis, err := net.Listen("tcp", cfg.GRPC.Addr())
		if err != nil {
			return fmt.Errorf("failed to listen on grpc address: %w", err)
		}
		log.InfoContext(gctx, "starting gRPC server", "addr", cfg.GRPC.Addr())
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		checker.Run(gctx, 10*time.Second)
		return nil
	})
	g.Go(func() error {
		runner.Start()
		<-gctx.Done()
		runner.Stop()
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down tradelifecycle")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", "error", err)
		}
		grpcServer.GracefulStop()
		return nil
	})
	return g.Wait()
}

// services 进程内的应用服务
type services struct {
	trade *application.TradeService
	ref   *refapp.ReferenceService
	authz *authapp.AuthorizationService
}

func buildServices(cfg *config.Config, database *db.DB, redisCache *cache.RedisCache, m *metrics.Metrics, log *slog.Logger) services {
	var (
		refCache   refdomain.ReferenceReadRepository
		privCache  authdomain.PrivilegeCache
		tradeCache tradedomain.TradeReadRepository
	)
	if redisCache != nil {
		refCache = refredis.NewReferenceRedisRepository(redisCache.Client())
		privCache = authredis.NewPrivilegeRedisCache(redisCache.Client(), 0)
		tradeCache = traderedis.NewTradeRedisRepository(redisCache.Client(), 0)
	}

	refService := refapp.NewReferenceService(refmysql.NewReferenceRepository(database.DB), refCache, m, log)
	authService := authapp.NewAuthorizationService(
		directory.NewReferenceUserDirectory(refService),
		authmysql.NewPrivilegeRepository(database.DB),
		privCache, m, log,
	)

	tradeService := application.NewTradeService(application.Dependencies{
		Repo:       trademysql.NewTradeRepository(database.DB),
		Resolver:   refService,
		Authorizer: authService,
		Publisher:  messaging.NewOutboxEventPublisher(database.DB, time.Now),
		Cache:      tradeCache,
		Metrics:    m,
		Logger:     log,
	}, application.Settings{
		TradeDateWindowDays: cfg.Lifecycle.TradeDateWindowDays,
		TradeIDBase:         cfg.Lifecycle.TradeIDBase,
	})
	return services{trade: tradeService, ref: refService, authz: authService}
}

func newRouter(cfg *config.Config, database *db.DB, redisCache *cache.RedisCache, m *metrics.Metrics, svcs services) *gin.Engine {
	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.GinRecoveryMiddleware())
	router.Use(middleware.GinLoggingMiddleware(m))
	router.Use(middleware.GinCORSMiddleware())

	// 健康检查与指标不经过鉴权与限流
	router.GET("/health", func(c *gin.Context) {
		if err := database.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"service":   cfg.ServiceName,
			"version":   cfg.Version,
			"timestamp": time.Now().Unix(),
		})
	})
	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(m.Handler()))
	}

	api := router.Group("")
	if cfg.RateLimit.Enabled && redisCache != nil {
		limiter := ratelimit.NewRedisRateLimiter(redisCache.Client())
		api.Use(middleware.RateLimitMiddleware(limiter, ratelimit.PerSecond(cfg.RateLimit.Rate, cfg.RateLimit.Burst)))
	}
	api.Use(middleware.AuthMiddleware(middleware.AuthConfig{
		Enabled: cfg.Auth.Enabled,
		Secret:  cfg.Auth.JWTSecret,
		Issuer:  cfg.Auth.Issuer,
	}))
	tradehttp.NewTradeHandler(svcs.trade).RegisterRoutes(api)
	refhttp.NewReferenceHandler(svcs.ref, svcs.authz).RegisterRoutes(api)
	return router
}
