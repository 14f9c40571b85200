package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fixedpronos/prono_server/config"
	"github.com/fixedpronos/prono_server/internal/api/middleware"
	"github.com/fixedpronos/prono_server/internal/pkg/moneyfusion"
	"github.com/fixedpronos/prono_server/internal/pkg/response"
	"github.com/fixedpronos/prono_server/internal/repository"
	"github.com/fixedpronos/prono_server/internal/service"
	"github.com/fixedpronos/prono_server/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testContext struct {
	DB      *gorm.DB
	Gateway *fakeGateway
}

// fakeGateway stands in for MoneyFusion.
type fakeGateway struct {
	session  *moneyfusion.Session
	err      error
	status   json.RawMessage
	requests []*moneyfusion.CheckoutRequest
}

func (g *fakeGateway) CreateSession(ctx context.Context, req *moneyfusion.CheckoutRequest) (*moneyfusion.Session, error) {
	g.requests = append(g.requests, req)
	if g.err != nil {
		return nil, g.err
	}
	return g.session, nil
}

func (g *fakeGateway) PaymentStatus(ctx context.Context, token string) (json.RawMessage, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.status, nil
}

type testHandlers struct {
	Payment      *PaymentHandler
	Webhook      *WebhookHandler
	Subscription *SubscriptionHandler
	Prono        *PronoHandler
	Admin        *AdminHandler
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{BaseURL: "https://api.fixedpronos.test"},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"https://fixedpronos.com"}},
		Admin:  config.AdminConfig{UserIDs: []int64{1}},
		MoneyFusion: config.MoneyFusionConfig{
			ReturnPath:  "/payment/callback",
			WebhookPath: "/api/v1/webhooks/moneyfusion",
			ArticleName: "FixedPronos",
		},
		Subscription: config.SubscriptionConfig{
			Currency: "XOF",
			Plans: map[string]config.PlanConfig{
				"basic": {Price: 39, DurationMonths: 1},
				"pro":   {Price: 79, DurationMonths: 1},
				"vip":   {Price: 149, DurationMonths: 3},
			},
		},
	}
}

func setupHandlers(t *testing.T) (*testHandlers, *testContext, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	cfg := testConfig()

	paymentRepo := repository.NewPaymentRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	txnRepo := repository.NewTransactionRepository(db)
	pronoRepo := repository.NewPronoRepository(db)

	gateway := &fakeGateway{
		session: &moneyfusion.Session{URL: "https://pay.test/checkout/tok_1", Token: "tok_1", Message: "ok"},
		status:  json.RawMessage(`{"statut":true,"data":{"statut":"pending"}}`),
	}

	paymentService := service.NewPaymentService(paymentRepo, txnRepo, gateway, cfg)
	reconcileService := service.NewReconcileService(db, paymentRepo, subRepo, txnRepo, nil, nil, cfg)
	subService := service.NewSubscriptionService(subRepo, cfg)
	pronoService := service.NewPronoService(pronoRepo, subService)
	adminService := service.NewAdminService(paymentRepo, subRepo, pronoRepo)

	handlers := &testHandlers{
		Payment:      NewPaymentHandler(paymentService, cfg),
		Webhook:      NewWebhookHandler(reconcileService),
		Subscription: NewSubscriptionHandler(subService),
		Prono:        NewPronoHandler(pronoService),
		Admin:        NewAdminHandler(adminService, paymentService, reconcileService, subService, pronoService),
	}

	ctx := &testContext{
		DB:      db,
		Gateway: gateway,
	}

	cleanup := func() {
		testutil.CleanupTestDB(t, db)
	}

	return handlers, ctx, cleanup
}

func mockAuth(userID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Next()
	}
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp
}

// decodeData re-decodes resp.Data into dst.
func decodeData(t *testing.T, resp response.Response, dst interface{}) {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, dst))
}
