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

	"voice-order-service/config"
	"voice-order-service/internal/api"
	"voice-order-service/internal/broker"
	"voice-order-service/internal/hub"
	"voice-order-service/internal/orders"
	"voice-order-service/internal/redisclient"
	"voice-order-service/internal/store"
	"voice-order-service/internal/token"
	"voice-order-service/internal/util"
	"voice-order-service/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting voice order service")

	tp, err := util.InitTracer("voice-order-service", cfg.Observ.JaegerEndpoint)
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

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	cancelWindow := time.Duration(cfg.Business.CancelWindowMinutes) * time.Minute
	previewTTL := time.Duration(cfg.Business.PreviewSeconds) * time.Second

	orderService := orders.NewService(redisClient, db, eventPublisher, cancelWindow)
	roomHub := hub.NewHub(orderService, redisClient, previewTTL)
	defer roomHub.Close()

	tokenManager := token.NewManager(cfg.LiveKit.APIKey, cfg.LiveKit.APISecret)
	if !tokenManager.Configured() {
		log.Println("WARNING: LiveKit credentials missing; token requests will fail")
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	kitchenConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder, cfg.Kafka.ConsumerGroup)
	kitchenWorker := worker.NewKitchenWorker(kitchenConsumer, orderService, roomHub)
	go func() {
		if err := kitchenWorker.Start(workerCtx); err != nil {
			log.Printf("Kitchen worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	sessionTTL := time.Duration(cfg.Business.SessionTTLHours) * time.Hour
	handler := api.NewHandler(tokenManager, roomHub, redisClient, db, cfg.LiveKit, sessionTTL)
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
	kitchenWorker.Stop()

	log.Println("Server exited")
}
