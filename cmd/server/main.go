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

	"github.com/joho/godotenv"

	"github.com/fixedpronos/prono_server/config"
	"github.com/fixedpronos/prono_server/internal/api"
	"github.com/fixedpronos/prono_server/internal/api/handler"
	"github.com/fixedpronos/prono_server/internal/database"
	"github.com/fixedpronos/prono_server/internal/pkg/cron"
	"github.com/fixedpronos/prono_server/internal/pkg/moneyfusion"
	"github.com/fixedpronos/prono_server/internal/pkg/pubsub"
	"github.com/fixedpronos/prono_server/internal/pkg/queue"
	"github.com/fixedpronos/prono_server/internal/pkg/ws"
	"github.com/fixedpronos/prono_server/internal/repository"
	"github.com/fixedpronos/prono_server/internal/service"
)

func main() {
	// .env is optional; real environments set the variables directly
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: failed to read .env: %v", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.MoneyFusion.APIURL == "" {
		log.Println("Warning: moneyfusion.api_url is empty, checkouts will fail")
	}
	if cfg.Server.BaseURL == "" {
		log.Println("Warning: server.base_url is empty, checkouts are refused (webhook URL unknown)")
	}
	if len(cfg.Admin.UserIDs) == 0 {
		log.Println("Warning: admin.user_ids is empty, admin API is locked")
	}

	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	log.Println("Database connected")

	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}
	log.Println("Redis connected")

	repairQueue := queue.NewQueue(rdb, cfg.Queue.RepairQueue)
	publisher := pubsub.NewPublisher(rdb)
	gateway := moneyfusion.NewClient(cfg.MoneyFusion.APIURL, cfg.MoneyFusion.StatusURL, cfg.MoneyFusion.Timeout)

	paymentRepo := repository.NewPaymentRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	txnRepo := repository.NewTransactionRepository(db)
	pronoRepo := repository.NewPronoRepository(db)

	paymentService := service.NewPaymentService(paymentRepo, txnRepo, gateway, cfg)
	reconcileService := service.NewReconcileService(db, paymentRepo, subRepo, txnRepo, publisher, repairQueue, cfg)
	subService := service.NewSubscriptionService(subRepo, cfg)
	pronoService := service.NewPronoService(pronoRepo, subService)
	adminService := service.NewAdminService(paymentRepo, subRepo, pronoRepo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// payment status events reach the browser through the hub, whichever instance received the webhook
	wsHub := ws.NewHub()
	subscriber := pubsub.NewSubscriber(rdb)
	go func() {
		if err := subscriber.Subscribe(ctx, wsHub.HandlePaymentEvent); err != nil && ctx.Err() == nil {
			log.Printf("Payment status subscription stopped: %v", err)
		}
	}()

	cronService := cron.NewService(subService, adminService, cfg.Jobs.ExpiryInterval, cfg.Jobs.StaleAfter)
	cronService.Start()

	router := api.NewRouter(
		handler.NewPaymentHandler(paymentService, cfg),
		handler.NewWebhookHandler(reconcileService),
		handler.NewSubscriptionHandler(subService),
		handler.NewPronoHandler(pronoService),
		handler.NewAdminHandler(adminService, paymentService, reconcileService, subService, pronoService),
		handler.NewWebSocketHandler(wsHub, cfg.JWT.Secret, cfg.CORS.AllowedOrigins),
		cfg,
	)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router.Setup(),
	}

	go func() {
		log.Printf("Server starting on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Println("Received shutdown signal")

	cronService.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
