package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-service/config"
	"storefront-service/internal/api"
	"storefront-service/internal/auth"
	"storefront-service/internal/broker"
	"storefront-service/internal/cart"
	"storefront-service/internal/catalog"
	"storefront-service/internal/kvstore"
	"storefront-service/internal/order"
	"storefront-service/internal/util"
	"storefront-service/internal/wishlist"
	"storefront-service/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting storefront service")

	tp, err := util.InitTracer("storefront-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	kv, err := kvstore.NewStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer kv.Close()
	log.Println("Redis connected")

	ctx := context.Background()

	catalogTimeout := time.Duration(cfg.Catalog.TimeoutSeconds) * time.Second
	catalogClient := catalog.NewClient(cfg.Catalog.BaseURL, catalogTimeout)
	authClient := auth.NewClient(cfg.Catalog.BaseURL, catalogTimeout)

	cartService, err := cart.NewService(ctx, kv)
	if err != nil {
		log.Fatalf("Failed to restore cart state: %v", err)
	}

	wishlistService, err := wishlist.NewService(ctx, kv)
	if err != nil {
		log.Fatalf("Failed to restore wishlist state: %v", err)
	}

	catalogService, err := catalog.NewService(ctx, catalogClient, kv, cfg.Catalog.ItemsPerPage)
	if err != nil {
		log.Fatalf("Failed to restore catalog state: %v", err)
	}

	authService, err := auth.NewService(ctx, authClient, kv)
	if err != nil {
		log.Fatalf("Failed to restore session state: %v", err)
	}

	var publisher order.EventPublisher
	var producer *broker.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer = broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrders)
		defer producer.Close()
		publisher = broker.NewEventPublisher(producer)
		log.Println("Kafka producer initialized")
	}

	orderService, err := order.NewService(ctx, kv, cartService, publisher)
	if err != nil {
		log.Fatalf("Failed to restore order state: %v", err)
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var fulfillmentWorker *worker.FulfillmentWorker
	if len(cfg.Kafka.Brokers) > 0 {
		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrders, cfg.Kafka.ConsumerGroup)
		fulfillmentWorker = worker.NewFulfillmentWorker(consumer, orderService)
		go func() {
			if err := fulfillmentWorker.Start(workerCtx); err != nil && workerCtx.Err() == nil {
				log.Printf("Fulfillment worker error: %v", err)
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(catalogService, cartService, wishlistService, orderService, authService)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	if fulfillmentWorker != nil {
		fulfillmentWorker.Stop()
	}

	log.Println("Server exited")
}
