package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fixedpronos/prono_server/config"
	"github.com/fixedpronos/prono_server/internal/model"
	"github.com/fixedpronos/prono_server/internal/pkg/pubsub"
	"github.com/fixedpronos/prono_server/internal/pkg/queue"
	"github.com/fixedpronos/prono_server/internal/repository"
)

// Provider event names.
const (
	EventSessionPending   = "payin.session.pending"
	EventSessionCompleted = "payin.session.completed"
	EventSessionCancelled = "payin.session.cancelled"
	EventSessionFailed    = "payin.session.failed"

	EventManualReview = "admin.manual_review"
)

type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
)

// Notification is a provider callback reduced to what reconciliation needs.
// PaymentID wins over CorrelationToken when both are set.
type Notification struct {
	Event                 string
	PaymentID             string
	CorrelationToken      string
	ProviderTransactionID string
	AmountReceived        *decimal.Decimal
	Fees                  *decimal.Decimal
}

type ReconcileResult struct {
	Outcome      Outcome
	Payment      *model.Payment
	Subscription *model.Subscription
}

type StatusPublisher interface {
	PublishPaymentStatus(ctx context.Context, evt *pubsub.PaymentEvent) error
}

type RepairQueue interface {
	Push(ctx context.Context, msg *queue.RepairMessage) error
}

var errAlreadyEntitled = errors.New("payment already entitled")

// MapEvent returns the payment status a provider event moves to.
func MapEvent(event string) (string, bool) {
	switch event {
	case EventSessionPending:
		return model.PaymentStatusProcessing, true
	case EventSessionCompleted:
		return model.PaymentStatusApproved, true
	case EventSessionCancelled, EventSessionFailed:
		return model.PaymentStatusRejected, true
	}
	return "", false
}

type ReconcileService struct {
	db          *gorm.DB
	paymentRepo *repository.PaymentRepository
	subRepo     *repository.SubscriptionRepository
	txnRepo     *repository.TransactionRepository
	publisher   StatusPublisher
	repairQueue RepairQueue
	cfg         *config.Config
	now         func() time.Time
}

// NewReconcileService wires the engine. publisher and repairQueue may be nil.
func NewReconcileService(
	db *gorm.DB,
	paymentRepo *repository.PaymentRepository,
	subRepo *repository.SubscriptionRepository,
	txnRepo *repository.TransactionRepository,
	publisher StatusPublisher,
	repairQueue RepairQueue,
	cfg *config.Config,
) *ReconcileService {
	return &ReconcileService{
		db:          db,
		paymentRepo: paymentRepo,
		subRepo:     subRepo,
		txnRepo:     txnRepo,
		publisher:   publisher,
		repairQueue: repairQueue,
		cfg:         cfg,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Reconcile applies a provider notification to its payment.
func (s *ReconcileService) Reconcile(ctx context.Context, n *Notification) (*ReconcileResult, error) {
	payment, err := s.resolve(ctx, n)
	if err != nil {
		return nil, err
	}

	target, ok := MapEvent(n.Event)
	if !ok {
		log.Printf("[Reconcile] payment %s: unmapped event %q ignored", payment.ID, n.Event)
		return &ReconcileResult{Outcome: OutcomeIgnored, Payment: payment}, nil
	}

	received := s.now()
	meta := model.PaymentMetadata{
		EventName:             n.Event,
		ProviderTransactionID: n.ProviderTransactionID,
		ProviderToken:         n.CorrelationToken,
		AmountReceived:        n.AmountReceived,
		Fees:                  n.Fees,
		ReceivedAt:            &received,
	}

	if target == model.PaymentStatusApproved && !payment.IsTerminal() && underpaid(payment, n.AmountReceived) {
		return s.hold(ctx, payment, meta)
	}

	return s.apply(ctx, payment, StatusChange{To: target, Metadata: meta})
}

func underpaid(payment *model.Payment, received *decimal.Decimal) bool {
	return received != nil && received.LessThan(payment.Amount)
}

// hold records a completion that paid less than the payment amount and leaves
// the payment in its current status for an admin to settle.
func (s *ReconcileService) hold(ctx context.Context, payment *model.Payment, meta model.PaymentMetadata) (*ReconcileResult, error) {
	merged := payment.Metadata.Data().Merge(meta)

	sctx, cancel := storeContext(ctx, s.cfg.Store.Timeout)
	updated, err := s.paymentRepo.UpdateMetadata(sctx, payment.ID, payment.Status, merged)
	cancel()
	if err != nil {
		return nil, persistenceError(err)
	}
	if updated {
		payment.Metadata = datatypes.NewJSONType(merged)
	}

	log.Printf("[Reconcile] payment %s: received %s of %s %s, held for review",
		payment.ID, meta.AmountReceived, payment.Amount, payment.Currency)
	return &ReconcileResult{Outcome: OutcomeIgnored, Payment: payment}, nil
}

// ApplyManual approves or rejects a payment on behalf of an admin.
func (s *ReconcileService) ApplyManual(ctx context.Context, paymentID, status, notes string, adminID int64) (*ReconcileResult, error) {
	if status != model.PaymentStatusApproved && status != model.PaymentStatusRejected {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	payment, err := s.getPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	received := s.now()
	return s.apply(ctx, payment, StatusChange{
		To:          status,
		Metadata:    model.PaymentMetadata{EventName: EventManualReview, ReceivedAt: &received},
		ProcessedBy: &adminID,
		Notes:       &notes,
	})
}

// RetryGrant re-runs the subscription grant for an approved payment. It is a
// no-op for payments already entitled.
func (s *ReconcileService) RetryGrant(ctx context.Context, paymentID string) (*model.Subscription, error) {
	payment, err := s.getPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != model.PaymentStatusApproved {
		return nil, fmt.Errorf("%w: payment %s is %s", ErrInvalidStatus, payment.ID, payment.Status)
	}
	if payment.EntitledAt != nil {
		return nil, nil
	}

	sub, err := s.grant(ctx, payment)
	if err != nil {
		return nil, err
	}
	if sub != nil {
		s.publish(ctx, payment, sub, nil)
	}
	return sub, nil
}

// StatusChange is one requested transition of a payment.
type StatusChange struct {
	To          string
	Metadata    model.PaymentMetadata
	ProcessedBy *int64
	Notes       *string
}

func (s *ReconcileService) apply(ctx context.Context, payment *model.Payment, change StatusChange) (*ReconcileResult, error) {
	if payment.Status == change.To {
		result := &ReconcileResult{Outcome: OutcomeDuplicate, Payment: payment}
		if payment.Status == model.PaymentStatusApproved && payment.EntitledAt == nil {
			// an earlier delivery approved the payment but the grant did not land
			sub, err := s.grantOrRepair(ctx, payment)
			if err != nil {
				return result, err
			}
			if sub != nil {
				result.Subscription = sub
				s.publish(ctx, payment, sub, nil)
			}
		}
		log.Printf("[Reconcile] payment %s: duplicate %s", payment.ID, change.To)
		return result, nil
	}

	if payment.IsTerminal() {
		log.Printf("[Reconcile] payment %s: already %s, %s ignored", payment.ID, payment.Status, change.To)
		return &ReconcileResult{Outcome: OutcomeIgnored, Payment: payment}, nil
	}

	processedAt := s.now()
	merged := payment.Metadata.Data().Merge(change.Metadata)

	sctx, cancel := storeContext(ctx, s.cfg.Store.Timeout)
	won, err := s.paymentRepo.TransitionStatus(sctx, payment.ID, repository.StatusTransition{
		From:        payment.Status,
		To:          change.To,
		Metadata:    merged,
		ProcessedAt: processedAt,
		ProcessedBy: change.ProcessedBy,
		Notes:       change.Notes,
	})
	cancel()
	if err != nil {
		return nil, persistenceError(err)
	}
	if !won {
		// a concurrent delivery moved the payment first
		current, err := s.getPayment(ctx, payment.ID)
		if err != nil {
			return nil, err
		}
		log.Printf("[Reconcile] payment %s: lost status race, now %s", payment.ID, current.Status)
		return &ReconcileResult{Outcome: OutcomeDuplicate, Payment: current}, nil
	}

	payment.Status = change.To
	payment.Metadata = datatypes.NewJSONType(merged)
	payment.ProcessedAt = &processedAt
	if change.ProcessedBy != nil {
		payment.ProcessedBy = change.ProcessedBy
	}
	if change.Notes != nil {
		payment.Notes = *change.Notes
	}
	log.Printf("[Reconcile] payment %s: -> %s", payment.ID, change.To)

	result := &ReconcileResult{Outcome: OutcomeApplied, Payment: payment}
	if change.To == model.PaymentStatusApproved {
		sub, err := s.grantOrRepair(ctx, payment)
		if err != nil {
			s.publish(ctx, payment, nil, err)
			return result, err
		}
		result.Subscription = sub
	}

	s.publish(ctx, payment, result.Subscription, nil)
	return result, nil
}

// grantOrRepair grants the subscription and queues a repair when that fails.
func (s *ReconcileService) grantOrRepair(ctx context.Context, payment *model.Payment) (*model.Subscription, error) {
	sub, err := s.grant(ctx, payment)
	if err == nil {
		return sub, nil
	}

	log.Printf("[Reconcile] payment %s: grant failed: %v", payment.ID, err)
	s.enqueueRepair(ctx, payment, err)
	return nil, &PartialFailureError{PaymentID: payment.ID, Cause: err}
}

// grant extends or creates the user's subscription and appends one history
// record. It returns nil, nil when another caller already granted the payment.
func (s *ReconcileService) grant(ctx context.Context, payment *model.Payment) (*model.Subscription, error) {
	if !model.IsValidPlan(payment.Plan) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPlan, payment.Plan)
	}

	now := s.now()
	months := s.cfg.Subscription.PlanDurationMonths(payment.Plan)

	sctx, cancel := storeContext(ctx, s.cfg.Store.Timeout)
	defer cancel()

	var sub *model.Subscription
	err := s.db.WithContext(sctx).Transaction(func(tx *gorm.DB) error {
		claimed, err := s.paymentRepo.WithTx(tx).MarkEntitled(sctx, payment.ID, now)
		if err != nil {
			return err
		}
		if !claimed {
			return errAlreadyEntitled
		}

		subRepo := s.subRepo.WithTx(tx)
		existing, err := subRepo.GetByUserID(sctx, payment.UserID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		start := now
		if existing != nil && existing.IsActiveAt(now) {
			start = existing.PeriodEnd
		}

		if err := subRepo.Upsert(sctx, &model.Subscription{
			UserID:            payment.UserID,
			Plan:              payment.Plan,
			Status:            model.SubscriptionStatusActive,
			PeriodStart:       start,
			PeriodEnd:         AddMonths(start, months),
			CancelAtPeriodEnd: false,
		}); err != nil {
			return err
		}

		if err := s.txnRepo.WithTx(tx).Create(sctx, &model.Transaction{
			UserID:      payment.UserID,
			PaymentID:   payment.ID,
			Type:        model.TransactionTypePayment,
			Amount:      payment.Amount,
			Currency:    payment.Currency,
			Description: transactionDescription(payment),
			Status:      model.TransactionStatusCompleted,
		}); err != nil {
			return err
		}

		sub, err = subRepo.GetByUserID(sctx, payment.UserID)
		return err
	})
	if errors.Is(err, errAlreadyEntitled) {
		return nil, nil
	}
	if err != nil {
		return nil, persistenceError(err)
	}

	payment.EntitledAt = &now
	log.Printf("[Reconcile] user %d: %s active until %s", payment.UserID, sub.Plan, sub.PeriodEnd.Format(time.RFC3339))
	return sub, nil
}

func transactionDescription(p *model.Payment) string {
	channel := "Mobile Money"
	switch p.Method {
	case model.PaymentMethodMobileMoney:
		channel = "MoneyFusion Mobile Money"
	case model.PaymentMethodBankTransfer:
		channel = "Bank Transfer"
	case model.PaymentMethodCrypto:
		channel = "Crypto"
	}
	return fmt.Sprintf("Paiement %s - %s", strings.ToUpper(p.Plan), channel)
}

func (s *ReconcileService) enqueueRepair(ctx context.Context, payment *model.Payment, cause error) {
	if s.repairQueue == nil {
		return
	}

	qctx, cancel := storeContext(context.WithoutCancel(ctx), s.cfg.Store.Timeout)
	defer cancel()

	err := s.repairQueue.Push(qctx, &queue.RepairMessage{
		PaymentID: payment.ID,
		UserID:    payment.UserID,
		Reason:    cause.Error(),
		Attempt:   1,
	})
	if err != nil {
		log.Printf("[Reconcile] payment %s: failed to queue repair: %v", payment.ID, err)
	}
}

func (s *ReconcileService) publish(ctx context.Context, payment *model.Payment, sub *model.Subscription, grantErr error) {
	if s.publisher == nil {
		return
	}

	evt := &pubsub.PaymentEvent{
		UserID:    payment.UserID,
		PaymentID: payment.ID,
		Status:    payment.Status,
		Plan:      payment.Plan,
	}
	if sub != nil {
		end := sub.PeriodEnd
		evt.PeriodEnd = &end
	}
	if grantErr != nil {
		evt.Error = "subscription activation delayed"
	}

	if err := s.publisher.PublishPaymentStatus(context.WithoutCancel(ctx), evt); err != nil {
		log.Printf("[Reconcile] payment %s: publish failed: %v", payment.ID, err)
	}
}

func (s *ReconcileService) resolve(ctx context.Context, n *Notification) (*model.Payment, error) {
	if n.PaymentID != "" {
		payment, err := s.getPayment(ctx, n.PaymentID)
		if err != nil {
			return nil, err
		}
		// a payment whose token was never stored cannot be cross-checked
		if n.CorrelationToken != "" && payment.CorrelationToken != nil && *payment.CorrelationToken != n.CorrelationToken {
			log.Printf("[Reconcile] payment %s: token %s does not match stored %s", payment.ID, n.CorrelationToken, *payment.CorrelationToken)
			return nil, fmt.Errorf("%w: payment %s", ErrTokenMismatch, payment.ID)
		}
		return payment, nil
	}
	if n.CorrelationToken == "" {
		return nil, ErrMissingReference
	}

	sctx, cancel := storeContext(ctx, s.cfg.Store.Timeout)
	defer cancel()

	payment, err := s.paymentRepo.GetByCorrelationToken(sctx, n.CorrelationToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, persistenceError(err)
	}
	return payment, nil
}

func (s *ReconcileService) getPayment(ctx context.Context, id string) (*model.Payment, error) {
	sctx, cancel := storeContext(ctx, s.cfg.Store.Timeout)
	defer cancel()

	payment, err := s.paymentRepo.GetByID(sctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, persistenceError(err)
	}
	return payment, nil
}
