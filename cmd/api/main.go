package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/Lakriii/eshop-platform-main/internal/config"
	"github.com/Lakriii/eshop-platform-main/internal/handler"
	"github.com/Lakriii/eshop-platform-main/internal/middleware"
	"github.com/Lakriii/eshop-platform-main/internal/repository"
	"github.com/Lakriii/eshop-platform-main/internal/service"
	"github.com/Lakriii/eshop-platform-main/internal/worker"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL
	poolCfg, err := pgxpool.ParseConfig(cfg.DB.DSN())
	if err != nil {
		log.Error("parse db config", "error", err)
		os.Exit(1)
	}
	poolCfg.MaxConns = cfg.DB.MaxConns

	dbPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		log.Error("ping database", "error", err)
		os.Exit(1)
	}
	log.Info("connected to PostgreSQL")

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to Redis")

	// RabbitMQ
	amqpConn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		log.Error("connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer amqpConn.Close()

	amqpCh, err := amqpConn.Channel()
	if err != nil {
		log.Error("open RabbitMQ channel", "error", err)
		os.Exit(1)
	}
	defer amqpCh.Close()

	if err := worker.SetupRabbitMQ(amqpCh); err != nil {
		log.Error("setup RabbitMQ", "error", err)
		os.Exit(1)
	}
	log.Info("connected to RabbitMQ")

	// Repositories
	userRepo := repository.NewUserRepository(dbPool)
	catalogRepo := repository.NewCatalogRepository(dbPool)
	cartRepo := repository.NewCartRepository(dbPool)
	couponRepo := repository.NewCouponRepository(dbPool)
	loyaltyRepo := repository.NewLoyaltyRepository(dbPool)
	orderRepo := repository.NewOrderRepository(dbPool)

	// Services
	authSvc := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	productSvc := service.NewProductService(catalogRepo, redisClient)
	couponSvc := service.NewCouponService(couponRepo)
	loyaltySvc := service.NewLoyaltyService(loyaltyRepo, cfg.Loyalty)
	cartSvc := service.NewCartService(cartRepo, catalogRepo, couponSvc)
	checkoutSvc := service.NewCheckoutService(orderRepo, cartRepo, catalogRepo, couponSvc, loyaltySvc, amqpCh)
	orderSvc := service.NewOrderService(orderRepo)
	paymentSvc := service.NewPaymentService(orderRepo)

	// Handlers
	authH := handler.NewAuthHandler(authSvc)
	productH := handler.NewProductHandler(productSvc)
	cartH := handler.NewCartHandler(cartSvc)
	checkoutH := handler.NewCheckoutHandler(checkoutSvc)
	orderH := handler.NewOrderHandler(orderSvc, paymentSvc)
	couponH := handler.NewCouponHandler(couponRepo)
	loyaltyH := handler.NewLoyaltyHandler(loyaltySvc)
	healthH := handler.NewHealthHandler(dbPool, redisClient, amqpConn)

	// Worker
	notifyWorker := worker.NewNotificationWorker(amqpCh, orderRepo, redisClient, log)

	// Router
	router := gin.Default()
	router.GET("/healthz", healthH.Healthz)
	router.GET("/readyz", healthH.Readyz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", authH.Register)
		auth.POST("/login", authH.Login)

		products := v1.Group("/products")
		products.GET("", productH.List)
		products.GET("/:id", productH.GetByID)

		staff := products.Group("", middleware.AuthMiddleware(cfg.JWT.Secret), middleware.StaffOnly())
		staff.POST("", productH.Create)
		staff.PUT("/:id", productH.Update)
		staff.DELETE("/:id", productH.Delete)

		cart := v1.Group("/cart", middleware.OptionalAuth(cfg.JWT.Secret))
		cart.GET("", cartH.GetCart)
		cart.POST("/items", cartH.AddItem)
		cart.PUT("/items/:id", cartH.UpdateItem)
		cart.DELETE("/items/:id", cartH.DeleteItem)
		cart.POST("/coupon", cartH.PreviewCoupon)

		v1.POST("/checkout", middleware.OptionalAuth(cfg.JWT.Secret), checkoutH.Checkout)

		orders := v1.Group("/orders", middleware.AuthMiddleware(cfg.JWT.Secret))
		orders.GET("", orderH.ListOrders)
		orders.GET("/:id", orderH.GetOrder)
		orders.GET("/:id/payments", orderH.ListPayments)
		orders.POST("/:id/pay", orderH.Pay)
		orders.POST("/:id/cancel", orderH.Cancel)
		orders.POST("/:id/fulfill", middleware.StaffOnly(), orderH.Fulfill)

		v1.GET("/loyalty", middleware.AuthMiddleware(cfg.JWT.Secret), loyaltyH.Balance)

		coupons := v1.Group("/coupons", middleware.AuthMiddleware(cfg.JWT.Secret), middleware.StaffOnly())
		coupons.GET("", couponH.List)
		coupons.POST("", couponH.Create)
		coupons.PUT("/:id", couponH.Update)
	}

	if err := notifyWorker.Start(ctx); err != nil {
		log.Error("start notification worker", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}

	notifyWorker.Stop()
	time.Sleep(500 * time.Millisecond)
	cancel()
	log.Info("server stopped")
}
