package service

import (
	"context"
	"time"

	"github.com/fixedpronos/prono_server/internal/model"
	"github.com/fixedpronos/prono_server/internal/model/dto"
	"github.com/fixedpronos/prono_server/internal/repository"
)

type AdminService struct {
	paymentRepo *repository.PaymentRepository
	subRepo     *repository.SubscriptionRepository
	pronoRepo   *repository.PronoRepository
}

func NewAdminService(
	paymentRepo *repository.PaymentRepository,
	subRepo *repository.SubscriptionRepository,
	pronoRepo *repository.PronoRepository,
) *AdminService {
	return &AdminService{
		paymentRepo: paymentRepo,
		subRepo:     subRepo,
		pronoRepo:   pronoRepo,
	}
}

// Dashboard returns the headline counts for the admin panel.
func (s *AdminService) Dashboard(ctx context.Context) (*dto.DashboardStats, error) {
	now := time.Now().UTC()
	stats := &dto.DashboardStats{GeneratedAt: now}

	counts := []struct {
		status string
		dst    *int64
	}{
		{model.PaymentStatusPending, &stats.PendingPayments},
		{model.PaymentStatusProcessing, &stats.ProcessingPayments},
		{model.PaymentStatusApproved, &stats.ApprovedPayments},
		{model.PaymentStatusRejected, &stats.RejectedPayments},
	}
	for _, c := range counts {
		n, err := s.paymentRepo.CountByStatus(ctx, c.status)
		if err != nil {
			return nil, persistenceError(err)
		}
		*c.dst = n
	}

	var err error
	if stats.ActiveSubscriptions, err = s.subRepo.CountActive(ctx, now); err != nil {
		return nil, persistenceError(err)
	}
	if stats.PublishedPronos, err = s.pronoRepo.CountPublished(ctx); err != nil {
		return nil, persistenceError(err)
	}
	return stats, nil
}

// StalePayments lists payments stuck in processing since before cutoff.
func (s *AdminService) StalePayments(ctx context.Context, cutoff time.Time) ([]*model.Payment, error) {
	payments, err := s.paymentRepo.ListStale(ctx, model.PaymentStatusProcessing, cutoff)
	return payments, persistenceError(err)
}
