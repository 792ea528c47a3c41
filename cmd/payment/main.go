// PaymentService 主程序
// 功能：前端调用的支付端点，向 Stripe 创建并确认 PaymentIntent
// 架构：基于 Gin + stripe-go，熔断与幂等由网关实现
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
	"github.com/wyfcoding/musicstore/internal/payment/application"
	"github.com/wyfcoding/musicstore/internal/payment/infrastructure/stripe"
	paymenthttp "github.com/wyfcoding/musicstore/internal/payment/interfaces/http"
	"github.com/wyfcoding/musicstore/pkg/config"
	"github.com/wyfcoding/musicstore/pkg/logger"
	"github.com/wyfcoding/musicstore/pkg/metrics"
	"github.com/wyfcoding/musicstore/pkg/middleware"
	"github.com/wyfcoding/musicstore/pkg/trace"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/sync/errgroup"
)

func main() {
	// 1. 加载配置
	configPath := flag.String("config", "configs/payment/config.toml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Payment.Mode != "stripe" {
		fmt.Fprintf(os.Stderr, "PaymentService requires payment.mode = \"stripe\", got %q\n", cfg.Payment.Mode)
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
	logger.Info(ctx, "Starting PaymentService", "service", cfg.ServiceName, "version", cfg.Version)

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
		}
	}

	// 4. 初始化指标与应用服务
	metricsInstance := metrics.New(cfg.ServiceName)
	gateway := stripe.NewGateway(cfg.Payment.StripeSecretKey, cfg.Payment.ReturnURL)
	svc := application.NewPaymentService(gateway, cfg.Payment.Currency, metricsInstance)

	// 5. 创建 HTTP 服务器
	router := gin.New()
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(middleware.GinLoggingMiddleware())
	router.Use(middleware.GinRecoveryMiddleware())
	router.Use(middleware.GinCORSMiddleware(""))
	router.Use(middleware.GinMetricsMiddleware(metricsInstance))
	if cfg.Payment.InternalToken == "" {
		logger.Warn(ctx, "payment.internal_token not set, refund endpoint disabled")
	}
	paymenthttp.NewPaymentHandler(svc, cfg.Payment.InternalToken).RegisterRoutes(router)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": cfg.ServiceName, "timestamp": time.Now().Unix()})
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	// 6. 启动服务并优雅关停
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
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error(context.Background(), "PaymentService stopped with error", "error", err)
		return
	}
	logger.Info(context.Background(), "PaymentService stopped")
}
