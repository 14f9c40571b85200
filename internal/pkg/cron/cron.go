package cron

import (
	"context"
	"log"
	"time"

	"github.com/fixedpronos/prono_server/internal/service"
)

type Service struct {
	subService     *service.SubscriptionService
	adminService   *service.AdminService
	expiryInterval time.Duration
	staleAfter     time.Duration
	stopChan       chan struct{}
}

func NewService(
	subService *service.SubscriptionService,
	adminService *service.AdminService,
	expiryInterval time.Duration,
	staleAfter time.Duration,
) *Service {
	if expiryInterval <= 0 {
		expiryInterval = time.Hour
	}
	if staleAfter <= 0 {
		staleAfter = 24 * time.Hour
	}
	return &Service{
		subService:     subService,
		adminService:   adminService,
		expiryInterval: expiryInterval,
		staleAfter:     staleAfter,
		stopChan:       make(chan struct{}),
	}
}

// Start runs the expiry sweep on its interval and the stale payment report at UTC midnight.
func (s *Service) Start() {
	go s.runExpirySweep()
	go s.runDailyStaleReport()
	log.Printf("[Cron] started (expiry every %s, stale report daily)", s.expiryInterval)
}

func (s *Service) Stop() {
	close(s.stopChan)
	log.Println("[Cron] stopped")
}

func (s *Service) runExpirySweep() {
	ticker := time.NewTicker(s.expiryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			if _, err := s.RunNow(context.Background()); err != nil {
				log.Printf("[Cron] expiry sweep failed: %v", err)
			}
		}
	}
}

func (s *Service) runDailyStaleReport() {
	now := time.Now().UTC()
	nextMidnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	timer := time.NewTimer(nextMidnight.Sub(now))

	for {
		select {
		case <-s.stopChan:
			timer.Stop()
			return
		case <-timer.C:
			s.reportStalePayments(context.Background())
			timer.Reset(24 * time.Hour)
		}
	}
}

// RunNow expires every subscription whose period has ended and returns how many changed.
func (s *Service) RunNow(ctx context.Context) (int64, error) {
	n, err := s.subService.ExpireEnded(ctx, false)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Printf("[Cron] expired %d subscriptions", n)
	}
	return n, nil
}

// reportStalePayments only logs; stale checkouts are never changed automatically.
func (s *Service) reportStalePayments(ctx context.Context) int {
	if s.adminService == nil {
		return 0
	}

	payments, err := s.adminService.StalePayments(ctx, time.Now().UTC().Add(-s.staleAfter))
	if err != nil {
		log.Printf("[Cron] stale payment report failed: %v", err)
		return 0
	}
	for _, p := range payments {
		log.Printf("[Cron] payment %s for user %d still processing since %s", p.ID, p.UserID, p.CreatedAt.Format(time.RFC3339))
	}
	return len(payments)
}
