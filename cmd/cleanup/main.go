package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/fixedpronos/prono_server/config"
	"github.com/fixedpronos/prono_server/internal/database"
	"github.com/fixedpronos/prono_server/internal/repository"
	"github.com/fixedpronos/prono_server/internal/service"
)

var (
	dryRun      = flag.Bool("dry-run", true, "Dry run mode, only count subscriptions that would expire")
	staleAfter  = flag.Duration("stale-after", 0, "Report processing payments older than this (default: jobs.stale_after)")
	expireSubs  = flag.Bool("expire-subscriptions", true, "Expire active subscriptions whose period has ended")
	reportStale = flag.Bool("report-stale", true, "List payments stuck in processing")
)

func main() {
	flag.Parse()

	log.Println("🧹 Starting cleanup task...")
	log.Printf("Mode: dry-run=%v", *dryRun)

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
		log.Fatalf("Failed to connect to database: %v", err)
	}

	paymentRepo := repository.NewPaymentRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	subService := service.NewSubscriptionService(subRepo, cfg)
	adminService := service.NewAdminService(paymentRepo, subRepo, repository.NewPronoRepository(db))

	ctx := context.Background()
	var expired int64
	var stale int

	// 1. subscriptions past their period end
	if *expireSubs {
		log.Println("\n📅 Expiring ended subscriptions...")
		expired, err = subService.ExpireEnded(ctx, *dryRun)
		if err != nil {
			log.Fatalf("Failed to expire subscriptions: %v", err)
		}
		log.Printf("Found %d ended subscriptions", expired)
	}

	// 2. checkouts the provider never reported on; these are never changed here
	if *reportStale {
		window := *staleAfter
		if window <= 0 {
			window = cfg.Jobs.StaleAfter
		}
		if window <= 0 {
			window = 24 * time.Hour
		}

		log.Printf("\n💳 Payments processing for more than %s...", window)
		payments, err := adminService.StalePayments(ctx, time.Now().UTC().Add(-window))
		if err != nil {
			log.Fatalf("Failed to list stale payments: %v", err)
		}
		for _, p := range payments {
			log.Printf("  - %s user=%d plan=%s amount=%s %s (%s old)",
				p.ID, p.UserID, p.Plan, p.Amount.String(), p.Currency,
				time.Since(p.CreatedAt).Round(time.Hour))
		}
		stale = len(payments)
	}

	log.Println("\n" + strings.Repeat("=", 60))
	log.Println("📊 Cleanup Summary")
	log.Println(strings.Repeat("=", 60))
	log.Printf("Ended subscriptions: %d", expired)
	log.Printf("Stale payments: %d", stale)
	if *dryRun {
		log.Println("\n⚠️  DRY RUN MODE - No subscriptions were changed")
		log.Println("   Run with -dry-run=false to expire them")
	} else {
		log.Println("\n✅ Cleanup completed!")
	}
	log.Println(strings.Repeat("=", 60))
}
