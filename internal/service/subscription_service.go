package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/fixedpronos/prono_server/config"
	"github.com/fixedpronos/prono_server/internal/model"
	"github.com/fixedpronos/prono_server/internal/model/dto"
	"github.com/fixedpronos/prono_server/internal/repository"
)

type SubscriptionService struct {
	subRepo *repository.SubscriptionRepository
	cfg     *config.Config
	now     func() time.Time
}

func NewSubscriptionService(subRepo *repository.SubscriptionRepository, cfg *config.Config) *SubscriptionService {
	return &SubscriptionService{
		subRepo: subRepo,
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Status describes the caller's access. Users without a subscription are on the free tier.
func (s *SubscriptionService) Status(ctx context.Context, userID int64) (*dto.SubscriptionStatusResponse, error) {
	sub, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &dto.SubscriptionStatusResponse{Tier: model.TierFree, Subscription: sub}
	if sub != nil && sub.IsActiveAt(s.now()) {
		resp.HasActiveSubscription = true
		resp.Tier = sub.Plan
	}
	resp.CanAccessVIP = model.TierAllows(resp.Tier, model.PlanVIP)
	return resp, nil
}

// Tier returns the access tier of userID. Anonymous callers (userID 0) are free.
func (s *SubscriptionService) Tier(ctx context.Context, userID int64) (string, error) {
	if userID == 0 {
		return model.TierFree, nil
	}
	status, err := s.Status(ctx, userID)
	if err != nil {
		return "", err
	}
	return status.Tier, nil
}

func (s *SubscriptionService) find(ctx context.Context, userID int64) (*model.Subscription, error) {
	sctx, cancel := storeContext(ctx, s.cfg.Store.Timeout)
	defer cancel()

	sub, err := s.subRepo.GetByUserID(sctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, persistenceError(err)
	}
	return sub, nil
}

func (s *SubscriptionService) AdminList(ctx context.Context, status string, page, pageSize int) ([]*model.Subscription, int64, error) {
	if status != "" && !model.IsValidSubscriptionStatus(status) {
		return nil, 0, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	page, pageSize = normalizePage(page, pageSize)
	subs, total, err := s.subRepo.List(ctx, status, page, pageSize)
	if err != nil {
		return nil, 0, persistenceError(err)
	}
	return subs, total, nil
}

// AdminUpsert creates or overwrites a user's subscription. A missing start
// defaults to now and a missing end to one plan duration after the start.
func (s *SubscriptionService) AdminUpsert(ctx context.Context, userID int64, req *dto.UpsertSubscriptionRequest) (*model.Subscription, error) {
	if userID <= 0 {
		return nil, validationError("user id is required")
	}
	if !model.IsValidPlan(req.Plan) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPlan, req.Plan)
	}
	if !model.IsValidSubscriptionStatus(req.Status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, req.Status)
	}

	start := s.now()
	if req.PeriodStart != nil {
		start = req.PeriodStart.UTC()
	}
	end := AddMonths(start, s.cfg.Subscription.PlanDurationMonths(req.Plan))
	if req.PeriodEnd != nil {
		end = req.PeriodEnd.UTC()
	}
	if !end.After(start) {
		return nil, ErrInvalidPeriod
	}

	sctx, cancel := storeContext(ctx, s.cfg.Store.Timeout)
	defer cancel()

	err := s.subRepo.Upsert(sctx, &model.Subscription{
		UserID:            userID,
		Plan:              req.Plan,
		Status:            req.Status,
		PeriodStart:       start,
		PeriodEnd:         end,
		CancelAtPeriodEnd: req.CancelAtPeriodEnd,
	})
	if err != nil {
		return nil, persistenceError(err)
	}

	log.Printf("[Subscription] user %d set to %s/%s until %s", userID, req.Plan, req.Status, end.Format(time.RFC3339))
	return s.find(ctx, userID)
}

// ExpireEnded marks every active subscription whose period is over as expired.
// With dryRun it only counts them.
func (s *SubscriptionService) ExpireEnded(ctx context.Context, dryRun bool) (int64, error) {
	now := s.now()
	if dryRun {
		n, err := s.subRepo.CountEnded(ctx, now)
		return n, persistenceError(err)
	}

	n, err := s.subRepo.ExpireEnded(ctx, now)
	if err != nil {
		return 0, persistenceError(err)
	}
	if n > 0 {
		log.Printf("[Subscription] expired %d subscriptions", n)
	}
	return n, nil
}
