package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/fixedpronos/prono_server/config"
	"github.com/fixedpronos/prono_server/internal/database"
	"github.com/fixedpronos/prono_server/internal/pkg/pubsub"
	"github.com/fixedpronos/prono_server/internal/pkg/queue"
	"github.com/fixedpronos/prono_server/internal/repository"
	"github.com/fixedpronos/prono_server/internal/service"
	"github.com/fixedpronos/prono_server/internal/worker"
)

func main() {
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

	paymentRepo := repository.NewPaymentRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	txnRepo := repository.NewTransactionRepository(db)

	// failed repairs are requeued by the processor, not by the engine
	reconcileService := service.NewReconcileService(db, paymentRepo, subRepo, txnRepo, publisher, nil, cfg)
	processor := worker.NewProcessor(worker.ReconcileGranter(reconcileService), repairQueue, cfg.Queue.MaxAttempts, cfg.Queue.RetryDelay)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Received shutdown signal")
		cancel()
	}()

	if n, err := repairQueue.Length(ctx); err == nil {
		log.Printf("Worker started, max workers: %d, queued repairs: %d", cfg.Queue.MaxWorkers, n)
	}

	processor.Run(ctx, cfg.Queue.MaxWorkers)
	log.Println("Worker shutdown complete")
}
