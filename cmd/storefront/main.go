// Storefront 主程序
// 功能：乐器商城后端，提供目录、购物车、结算、订单、用户资料与后台管理接口
// 架构：基于 DDD + Gin + GORM + Redis + Kafka
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	adminapp "github.com/wyfcoding/musicstore/internal/admin/application"
	adminhttp "github.com/wyfcoding/musicstore/internal/admin/interfaces/http"
	authapp "github.com/wyfcoding/musicstore/internal/auth/application"
	authmysql "github.com/wyfcoding/musicstore/internal/auth/infrastructure/persistence/mysql"
	authredis "github.com/wyfcoding/musicstore/internal/auth/infrastructure/persistence/redis"
	authhttp "github.com/wyfcoding/musicstore/internal/auth/interfaces/http"
	cartdomain "github.com/wyfcoding/musicstore/internal/cart/domain"
	carthttp "github.com/wyfcoding/musicstore/internal/cart/interfaces/http"
	catalogapp "github.com/wyfcoding/musicstore/internal/catalog/application"
	catalogdomain "github.com/wyfcoding/musicstore/internal/catalog/domain"
	catalogmysql "github.com/wyfcoding/musicstore/internal/catalog/infrastructure/persistence/mysql"
	catalogredis "github.com/wyfcoding/musicstore/internal/catalog/infrastructure/persistence/redis"
	cataloghttp "github.com/wyfcoding/musicstore/internal/catalog/interfaces/http"
	checkoutapp "github.com/wyfcoding/musicstore/internal/checkout/application"
	checkoutredis "github.com/wyfcoding/musicstore/internal/checkout/infrastructure/redis"
	checkouthttp "github.com/wyfcoding/musicstore/internal/checkout/interfaces/http"
	orderapp "github.com/wyfcoding/musicstore/internal/order/application"
	orderdomain "github.com/wyfcoding/musicstore/internal/order/domain"
	ordermongo "github.com/wyfcoding/musicstore/internal/order/infrastructure/persistence/mongo"
	ordermysql "github.com/wyfcoding/musicstore/internal/order/infrastructure/persistence/mysql"
	orderredis "github.com/wyfcoding/musicstore/internal/order/infrastructure/persistence/redis"
	orderhttp "github.com/wyfcoding/musicstore/internal/order/interfaces/http"
	paymentapp "github.com/wyfcoding/musicstore/internal/payment/application"
	paymentdomain "github.com/wyfcoding/musicstore/internal/payment/domain"
	"github.com/wyfcoding/musicstore/internal/payment/infrastructure/remote"
	"github.com/wyfcoding/musicstore/internal/payment/infrastructure/stripe"
	paymenthttp "github.com/wyfcoding/musicstore/internal/payment/interfaces/http"
	userapp "github.com/wyfcoding/musicstore/internal/user/application"
	usermysql "github.com/wyfcoding/musicstore/internal/user/infrastructure/persistence/mysql"
	userhttp "github.com/wyfcoding/musicstore/internal/user/interfaces/http"
	"github.com/wyfcoding/musicstore/pkg/cache"
	"github.com/wyfcoding/musicstore/pkg/config"
	"github.com/wyfcoding/musicstore/pkg/db"
	"github.com/wyfcoding/musicstore/pkg/logger"
	"github.com/wyfcoding/musicstore/pkg/metrics"
	"github.com/wyfcoding/musicstore/pkg/middleware"
	"github.com/wyfcoding/musicstore/pkg/mq"
	"github.com/wyfcoding/musicstore/pkg/ratelimit"
	"github.com/wyfcoding/musicstore/pkg/trace"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/sync/errgroup"
)

func main() {
	// 1. 加载配置
	configPath := flag.String("config", "configs/storefront/config.toml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	loggerCfg := logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}
	if err := logger.Init(loggerCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	logger.Info(ctx, "Starting Storefront",
		"service", cfg.ServiceName,
		"version", cfg.Version,
		"environment", cfg.Environment,
	)

	// 3. 初始化追踪
	if cfg.Tracing.Enabled {
		shutdown, err := trace.InitTracer(cfg.ServiceName, cfg.Tracing.CollectorEndpoint, cfg.Tracing.SamplingRate)
		if err != nil {
			logger.Error(ctx, "Failed to initialize tracer", "error", err)
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error(ctx, "Failed to shutdown tracer", "error", err)
				}
			}()
			logger.Info(ctx, "Tracer initialized", "endpoint", cfg.Tracing.CollectorEndpoint)
		}
	}

	// 4. 初始化数据库
	database, err := db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
		Tracing:            cfg.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize database", "error", err)
	}
	defer database.Close()

	if err := database.Migrate(
		&catalogmysql.ProductModel{},
		&catalogmysql.CategoryModel{},
		&authmysql.AccountModel{},
		&usermysql.ProfileModel{},
		&ordermysql.OrderModel{},
	); err != nil {
		logger.Fatal(ctx, "Failed to migrate database", "error", err)
	}

	// 5. 初始化 Redis
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
		logger.Fatal(ctx, "Failed to initialize Redis", "error", err)
	}
	defer redisCache.Close()
	redisClient := redisCache.GetClient()

	// 6. 初始化事件发布
	publisher := mq.NewPublisher(mq.KafkaConfig{
		Brokers:      cfg.Kafka.Brokers,
		MaxRetries:   cfg.Kafka.MaxRetries,
		RetryBackoff: cfg.Kafka.RetryBackoff,
	})
	defer publisher.Close()

	// 7. 初始化指标
	metricsInstance := metrics.New(cfg.ServiceName)

	// 8. 初始化仓储
	productRepo := catalogmysql.NewProductRepository(database.DB)
	categoryRepo := catalogmysql.NewCategoryRepository(database.DB)
	categoryCache := catalogredis.NewCategoryCache(redisCache, 10*time.Minute)
	stockLedger := catalogmysql.NewStockLedger(database.DB)
	accountRepo := authmysql.NewAccountRepository(database.DB)
	sessionRepo := authredis.NewSessionRedisRepository(redisClient)
	profileRepo := usermysql.NewProfileRepository(database.DB)
	orderCache := orderredis.NewOrderCache(redisClient, 5*time.Minute)

	orderRepo, closeOrders := newOrderRepository(ctx, cfg, database)
	defer closeOrders()

	// 9. 初始化应用服务
	catalogCmd := catalogapp.NewCatalogCommandService(productRepo, categoryRepo, categoryCache, publisher)
	catalogQuery := catalogapp.NewCatalogQueryService(productRepo, categoryRepo, categoryCache)

	tokens := authapp.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.ServiceName)
	authCmd := authapp.NewAuthCommandService(accountRepo, sessionRepo, tokens, publisher, cfg.Auth.BcryptCost, cfg.Auth.SessionTTL())
	authQuery := authapp.NewAuthQueryService(sessionRepo, tokens)

	userCmd := userapp.NewUserCommandService(profileRepo, publisher)
	userQuery := userapp.NewUserQueryService(profileRepo)
	gate := adminapp.NewGate(userQuery)

	orderCmd := orderapp.NewOrderCommandService(orderRepo, orderCache, publisher)
	orderQuery := orderapp.NewOrderQueryService(orderRepo, orderCache)

	gateway := newPaymentGateway(cfg)
	paymentSvc := paymentapp.NewPaymentService(gateway, cfg.Payment.Currency, metricsInstance)

	orchestrator := checkoutapp.NewOrchestrator(checkoutapp.Deps{
		Products:  productRepo,
		Stock:     stockLedger,
		Profiles:  userQuery,
		Orders:    orderCmd,
		Gateway:   gateway,
		Locker:    checkoutredis.NewLocker(redisCache),
		Publisher: publisher,
		Recorder:  metricsInstance,
	}, checkoutapp.Config{
		Currency:        cfg.Payment.Currency,
		StepTimeout:     time.Duration(cfg.Checkout.StepTimeout) * time.Second,
		PersistAttempts: uint(cfg.Checkout.PersistAttempts),
		PersistBackoff:  time.Duration(cfg.Checkout.PersistBackoff) * time.Millisecond,
		LockTTL:         time.Duration(cfg.Checkout.LockTTL) * time.Second,
	})

	// 10. 创建 HTTP 服务器
	router := gin.New()
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(middleware.GinLoggingMiddleware())
	router.Use(middleware.GinRecoveryMiddleware())
	router.Use(middleware.GinCORSMiddleware(""))
	router.Use(middleware.GinMetricsMiddleware(metricsInstance))
	router.Use(middleware.RateLimitMiddleware(ratelimit.NewRedisRateLimiter(redisClient), cfg.RateLimit))
	router.Use(authhttp.Authenticate(authQuery))

	api := router.Group("/api/v1")
	admin := api.Group("/admin", adminhttp.RequireAdmin(gate))

	catalogHandler := cataloghttp.NewCatalogHandler(catalogCmd, catalogQuery)
	catalogHandler.RegisterRoutes(api)
	catalogHandler.RegisterAdminRoutes(admin)

	sessions := newCartSessions(cfg, redisClient)
	carthttp.NewCartHandler(sessions, productLookup(catalogQuery)).RegisterRoutes(api)

	authhttp.NewHandler(authCmd, userCmd, cfg.Cart.CookieSecure).RegisterRoutes(api)

	userHandler := userhttp.NewUserHandler(userCmd, userQuery)
	userHandler.RegisterRoutes(api)
	userHandler.RegisterAdminRoutes(admin)

	orderHandler := orderhttp.NewOrderHandler(orderCmd, orderQuery, gate)
	orderHandler.RegisterRoutes(api)
	orderHandler.RegisterAdminRoutes(admin)

	checkouthttp.NewCheckoutHandler(orchestrator, sessions).RegisterRoutes(api)

	// 与前端约定的支付端点，退款仅在支付服务内部开放
	paymenthttp.NewPaymentHandler(paymentSvc, "").RegisterRoutes(router)

	// 后台入口，用于前端判断是否展示管理页面
	router.GET("/api/v1/admin/gate", func(c *gin.Context) {
		identity, _ := authhttp.FromContext(c)
		decision := gate.Authorize(c.Request.Context(), identity)
		c.JSON(http.StatusOK, decision)
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"service":   cfg.ServiceName,
			"timestamp": time.Now().Unix(),
		})
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	// 11. 启动服务并等待退出
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info(gctx, "Starting HTTP server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if cfg.Metrics.Enabled {
		g.Go(func() error {
			return metricsInstance.StartHTTPServer(gctx, cfg.Metrics.Port, cfg.Metrics.Path)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info(context.Background(), "Shutting down Storefront")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error(context.Background(), "Storefront stopped with error", "error", err)
		return
	}
	logger.Info(context.Background(), "Storefront stopped")
}

// newOrderRepository 根据配置选择订单存储
func newOrderRepository(ctx context.Context, cfg *config.Config, database *db.DB) (orderdomain.OrderRepository, func()) {
	if cfg.Order.Store != "mongo" {
		return ordermysql.NewOrderRepository(database.DB), func() {}
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		logger.Fatal(ctx, "Failed to connect to MongoDB", "error", err)
	}
	mdb := client.Database(cfg.Mongo.Database)
	if err := ordermongo.EnsureIndexes(ctx, mdb); err != nil {
		logger.Fatal(ctx, "Failed to create MongoDB indexes", "error", err)
	}
	logger.Info(ctx, "MongoDB connected successfully", "database", cfg.Mongo.Database)

	return ordermongo.NewOrderRepository(mdb), func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			logger.Error(disconnectCtx, "Failed to disconnect MongoDB", "error", err)
		}
	}
}

// newPaymentGateway stripe 直连或调用独立支付服务
func newPaymentGateway(cfg *config.Config) paymentdomain.Gateway {
	if cfg.Payment.Mode == "remote" {
		return remote.NewClient(cfg.Payment.Endpoint, cfg.Payment.InternalToken, time.Duration(cfg.Payment.Timeout)*time.Second)
	}
	return stripe.NewGateway(cfg.Payment.StripeSecretKey, cfg.Payment.ReturnURL)
}

func newCartSessions(cfg *config.Config, client redis.UniversalClient) *carthttp.Sessions {
	if cfg.Cart.Mirror == "redis" {
		return carthttp.NewRedisSessions(client, cfg.Cart.TTL(), cfg.Cart.CookieSecure, authhttp.UserID)
	}
	return carthttp.NewCookieSessions(cfg.Cart.CookieName, cfg.Cart.TTL(), cfg.Cart.CookieSecure)
}

// productLookup 购物车加购时读取商品的名称、单价与图片
func productLookup(query *catalogapp.CatalogQueryService) carthttp.ProductLookup {
	return func(ctx context.Context, id string) (cartdomain.CartItem, error) {
		p, err := query.GetProduct(ctx, id)
		if errors.Is(err, catalogdomain.ErrProductNotFound) {
			return cartdomain.CartItem{}, carthttp.ErrProductUnavailable
		}
		if err != nil {
			return cartdomain.CartItem{}, err
		}
		if p.Stock <= 0 {
			return cartdomain.CartItem{}, carthttp.ErrProductUnavailable
		}
		return cartdomain.CartItem{ID: p.ID, Name: p.Name, Price: p.Price, ImageURL: p.ImageURL}, nil
	}
}
