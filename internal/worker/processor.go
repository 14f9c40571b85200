package worker

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/fixedpronos/prono_server/internal/pkg/queue"
	"github.com/fixedpronos/prono_server/internal/service"
)

// Granter re-runs the entitlement grant of an approved payment.
type Granter interface {
	RetryGrant(ctx context.Context, paymentID string) error
}

// GranterFunc adapts a function to Granter.
type GranterFunc func(ctx context.Context, paymentID string) error

func (f GranterFunc) RetryGrant(ctx context.Context, paymentID string) error {
	return f(ctx, paymentID)
}

// ReconcileGranter adapts the reconcile service to Granter.
func ReconcileGranter(s *service.ReconcileService) Granter {
	return GranterFunc(func(ctx context.Context, paymentID string) error {
		_, err := s.RetryGrant(ctx, paymentID)
		return err
	})
}

// Processor drains the entitlement repair queue.
type Processor struct {
	granter     Granter
	queue       *queue.Queue
	maxAttempts int
	retryDelay  time.Duration
	popTimeout  time.Duration
}

func NewProcessor(granter Granter, q *queue.Queue, maxAttempts int, retryDelay time.Duration) *Processor {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Processor{
		granter:     granter,
		queue:       q,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		popTimeout:  5 * time.Second,
	}
}

// Process retries one grant. Failures that a retry could fix are pushed back
// until maxAttempts is reached.
func (p *Processor) Process(ctx context.Context, msg *queue.RepairMessage) error {
	err := p.granter.RetryGrant(ctx, msg.PaymentID)
	if err == nil {
		log.Printf("[Worker] payment %s: entitlement repaired (attempt %d)", msg.PaymentID, msg.Attempt)
		return nil
	}

	if permanent(err) {
		log.Printf("[Worker] payment %s: dropped: %v", msg.PaymentID, err)
		return err
	}
	if msg.Attempt >= p.maxAttempts {
		log.Printf("[Worker] payment %s: giving up after %d attempts: %v", msg.PaymentID, msg.Attempt, err)
		return err
	}

	select {
	case <-ctx.Done():
	case <-time.After(p.retryDelay):
	}

	next := &queue.RepairMessage{
		PaymentID: msg.PaymentID,
		UserID:    msg.UserID,
		Reason:    err.Error(),
		Attempt:   msg.Attempt + 1,
	}
	if qerr := p.queue.Push(context.WithoutCancel(ctx), next); qerr != nil {
		log.Printf("[Worker] payment %s: requeue failed: %v", msg.PaymentID, qerr)
	}
	return err
}

func permanent(err error) bool {
	return errors.Is(err, service.ErrPaymentNotFound) ||
		errors.Is(err, service.ErrInvalidStatus) ||
		errors.Is(err, service.ErrInvalidPlan)
}

// Run starts workers goroutines popping from the queue and blocks until ctx is done.
func (p *Processor) Run(ctx context.Context, workers int) {
	if workers <= 0 {
		workers = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					log.Printf("[Worker] %d shutting down", workerID)
					return
				default:
				}

				msg, err := p.queue.Pop(ctx, p.popTimeout)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					log.Printf("[Worker] %d: pop failed: %v", workerID, err)
					time.Sleep(time.Second)
					continue
				}
				if msg == nil {
					continue
				}

				log.Printf("[Worker] %d: repairing payment %s", workerID, msg.PaymentID)
				p.Process(ctx, msg)
			}
		}(i)
	}
	wg.Wait()
}
