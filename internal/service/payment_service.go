package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fixedpronos/prono_server/config"
	"github.com/fixedpronos/prono_server/internal/model"
	"github.com/fixedpronos/prono_server/internal/model/dto"
	"github.com/fixedpronos/prono_server/internal/pkg/moneyfusion"
	"github.com/fixedpronos/prono_server/internal/repository"
)

// Gateway is the hosted checkout provider.
type Gateway interface {
	CreateSession(ctx context.Context, req *moneyfusion.CheckoutRequest) (*moneyfusion.Session, error)
	PaymentStatus(ctx context.Context, token string) (json.RawMessage, error)
}

type InitiateInput struct {
	UserID          int64
	Amount          decimal.Decimal
	Plan            string
	PhoneNumber     string
	CustomerName    string
	CallbackBaseURL string // origin the user returns to after checkout
}

type InitiateResult struct {
	PaymentID        string
	RedirectURL      string
	CorrelationToken string
}

type PaymentService struct {
	paymentRepo *repository.PaymentRepository
	txnRepo     *repository.TransactionRepository
	gateway     Gateway
	cfg         *config.Config
}

func NewPaymentService(
	paymentRepo *repository.PaymentRepository,
	txnRepo *repository.TransactionRepository,
	gateway Gateway,
	cfg *config.Config,
) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		txnRepo:     txnRepo,
		gateway:     gateway,
		cfg:         cfg,
	}
}

// Initiate records a processing payment and opens a provider checkout for it.
// The record is written before the provider is called and is left processing
// when the provider fails.
func (s *PaymentService) Initiate(ctx context.Context, in *InitiateInput) (*InitiateResult, error) {
	if err := s.validateInitiate(in); err != nil {
		return nil, err
	}
	// the provider must reach us on our own public URL, never one taken from the request
	if s.cfg.Server.BaseURL == "" {
		return nil, ErrWebhookURL
	}

	payment := &model.Payment{
		UserID:       in.UserID,
		Amount:       in.Amount,
		Currency:     s.cfg.Subscription.Currency,
		Method:       model.PaymentMethodMobileMoney,
		Plan:         in.Plan,
		MobileNumber: in.PhoneNumber,
		Status:       model.PaymentStatusProcessing,
	}

	sctx, cancel := storeContext(ctx, s.cfg.Store.Timeout)
	err := s.paymentRepo.Create(sctx, payment)
	cancel()
	if err != nil {
		return nil, persistenceError(err)
	}

	returnURL := callbackURL(in.CallbackBaseURL, s.cfg.MoneyFusion.ReturnPath, payment.ID)
	webhookURL := callbackURL(s.cfg.Server.BaseURL, s.cfg.MoneyFusion.WebhookPath, payment.ID)

	checkout := moneyfusion.NewCheckoutRequest(
		fmt.Sprintf("Abonnement %s - %s", strings.ToUpper(in.Plan), s.cfg.MoneyFusion.ArticleName),
		in.Amount,
		moneyfusion.PersonalInfo{PaymentID: payment.ID, UserID: in.UserID, Plan: in.Plan},
		in.PhoneNumber,
		in.CustomerName,
		returnURL,
		webhookURL,
	)

	session, err := s.gateway.CreateSession(ctx, checkout)
	if err != nil {
		log.Printf("[Payment] payment %s: checkout failed: %v", payment.ID, err)
		return nil, fmt.Errorf("%w: %w", ErrGateway, err)
	}

	sctx, cancel = storeContext(ctx, s.cfg.Store.Timeout)
	defer cancel()
	if err := s.paymentRepo.SetCorrelationToken(sctx, payment.ID, session.Token, model.PaymentMetadata{ProviderToken: session.Token}); err != nil {
		log.Printf("[Payment] payment %s: failed to store token %s: %v", payment.ID, session.Token, err)
		return nil, persistenceError(err)
	}

	log.Printf("[Payment] payment %s: checkout opened for user %d plan %s", payment.ID, in.UserID, in.Plan)
	return &InitiateResult{
		PaymentID:        payment.ID,
		RedirectURL:      session.URL,
		CorrelationToken: session.Token,
	}, nil
}

func (s *PaymentService) validateInitiate(in *InitiateInput) error {
	switch {
	case in.UserID == 0:
		return validationError("user is required")
	case in.Amount.Sign() <= 0:
		return validationError("amount must be positive")
	case in.Plan == "":
		return validationError("plan is required")
	case strings.TrimSpace(in.PhoneNumber) == "":
		return validationError("phone number is required")
	case strings.TrimSpace(in.CustomerName) == "":
		return validationError("customer name is required")
	case in.CallbackBaseURL == "":
		return validationError("callback base url is required")
	}
	return s.checkPlanAmount(in.Plan, in.Amount)
}

// checkPlanAmount rejects unknown plans and amounts that differ from the plan price.
func (s *PaymentService) checkPlanAmount(plan string, amount decimal.Decimal) error {
	if !model.IsValidPlan(plan) {
		return fmt.Errorf("%w: %q", ErrInvalidPlan, plan)
	}
	if price, ok := s.cfg.Subscription.PlanPrice(plan); ok && !amount.Equal(price) {
		return validationError("amount %s does not match the %s plan price %s", amount, plan, price)
	}
	return nil
}

type SubmitInput struct {
	UserID            int64
	Amount            decimal.Decimal
	Plan              string
	Method            string
	CryptoAddress     string
	CryptoTxHash      string
	MobileNumber      string
	MobileProvider    string
	TransferReference string
	Notes             string
}

// Submit records a manually paid subscription as pending until an admin
// approves or rejects it.
func (s *PaymentService) Submit(ctx context.Context, in *SubmitInput) (*model.Payment, error) {
	if err := s.validateSubmit(in); err != nil {
		return nil, err
	}

	payment := &model.Payment{
		UserID:       in.UserID,
		Amount:       in.Amount,
		Currency:     s.cfg.Subscription.Currency,
		Method:       in.Method,
		Plan:         in.Plan,
		MobileNumber: strings.TrimSpace(in.MobileNumber),
		Status:       model.PaymentStatusPending,
		Notes:        strings.TrimSpace(in.Notes),
		Metadata: datatypes.NewJSONType(model.PaymentMetadata{
			CryptoAddress:     strings.TrimSpace(in.CryptoAddress),
			CryptoTxHash:      strings.TrimSpace(in.CryptoTxHash),
			MobileProvider:    strings.TrimSpace(in.MobileProvider),
			TransferReference: strings.TrimSpace(in.TransferReference),
		}),
	}

	sctx, cancel := storeContext(ctx, s.cfg.Store.Timeout)
	defer cancel()
	if err := s.paymentRepo.Create(sctx, payment); err != nil {
		return nil, persistenceError(err)
	}

	log.Printf("[Payment] payment %s: %s submitted by user %d for plan %s, awaiting review",
		payment.ID, payment.Method, in.UserID, in.Plan)
	return payment, nil
}

func (s *PaymentService) validateSubmit(in *SubmitInput) error {
	switch {
	case in.UserID == 0:
		return validationError("user is required")
	case in.Amount.Sign() <= 0:
		return validationError("amount must be positive")
	case in.Plan == "":
		return validationError("plan is required")
	case !model.IsValidPaymentMethod(in.Method):
		return validationError("unsupported payment method %q", in.Method)
	}

	switch in.Method {
	case model.PaymentMethodCrypto:
		if strings.TrimSpace(in.CryptoAddress) == "" || strings.TrimSpace(in.CryptoTxHash) == "" {
			return validationError("crypto address and transaction hash are required")
		}
	case model.PaymentMethodMobileMoney:
		if strings.TrimSpace(in.MobileNumber) == "" || strings.TrimSpace(in.MobileProvider) == "" {
			return validationError("mobile number and provider are required")
		}
	case model.PaymentMethodBankTransfer:
		if strings.TrimSpace(in.TransferReference) == "" {
			return validationError("transfer reference is required")
		}
	}
	return s.checkPlanAmount(in.Plan, in.Amount)
}

// callbackURL joins base and path and tags the result with the payment id.
func callbackURL(base, path, paymentID string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/") + "?paymentId=" + url.QueryEscape(paymentID)
}

// Get returns one of the caller's payments.
func (s *PaymentService) Get(ctx context.Context, userID int64, paymentID string) (*model.Payment, error) {
	sctx, cancel := storeContext(ctx, s.cfg.Store.Timeout)
	defer cancel()

	payment, err := s.paymentRepo.GetByID(sctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, persistenceError(err)
	}
	if payment.UserID != userID {
		return nil, ErrPaymentPermission
	}
	return payment, nil
}

// CheckStatus asks the provider about the caller's checkout session.
func (s *PaymentService) CheckStatus(ctx context.Context, userID int64, token string) (*dto.PaymentStatusResponse, error) {
	sctx, cancel := storeContext(ctx, s.cfg.Store.Timeout)
	payment, err := s.paymentRepo.GetByCorrelationToken(sctx, token)
	cancel()
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, persistenceError(err)
	}
	if payment.UserID != userID {
		return nil, ErrPaymentPermission
	}

	raw, err := s.gateway.PaymentStatus(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGateway, err)
	}

	return &dto.PaymentStatusResponse{
		PaymentID: payment.ID,
		Status:    payment.Status,
		Provider:  raw,
	}, nil
}

func (s *PaymentService) History(ctx context.Context, userID int64, page, pageSize int) ([]*model.Payment, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	payments, total, err := s.paymentRepo.ListByUser(ctx, userID, page, pageSize)
	if err != nil {
		return nil, 0, persistenceError(err)
	}
	return payments, total, nil
}

func (s *PaymentService) Transactions(ctx context.Context, userID int64, page, pageSize int) ([]*model.Transaction, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	txns, total, err := s.txnRepo.ListByUser(ctx, userID, page, pageSize)
	if err != nil {
		return nil, 0, persistenceError(err)
	}
	return txns, total, nil
}

// AdminList lists every payment, optionally filtered by status.
func (s *PaymentService) AdminList(ctx context.Context, status string, page, pageSize int) ([]*model.Payment, int64, error) {
	if status != "" && !isPaymentStatus(status) {
		return nil, 0, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	page, pageSize = normalizePage(page, pageSize)
	payments, total, err := s.paymentRepo.List(ctx, status, page, pageSize)
	if err != nil {
		return nil, 0, persistenceError(err)
	}
	return payments, total, nil
}

func isPaymentStatus(status string) bool {
	switch status {
	case model.PaymentStatusPending, model.PaymentStatusProcessing, model.PaymentStatusApproved, model.PaymentStatusRejected:
		return true
	}
	return false
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
