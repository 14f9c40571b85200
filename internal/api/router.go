package api

import (
	"github.com/gin-gonic/gin"

	"github.com/fixedpronos/prono_server/config"
	"github.com/fixedpronos/prono_server/internal/api/handler"
	"github.com/fixedpronos/prono_server/internal/api/middleware"
)

type Router struct {
	paymentHandler      *handler.PaymentHandler
	webhookHandler      *handler.WebhookHandler
	subscriptionHandler *handler.SubscriptionHandler
	pronoHandler        *handler.PronoHandler
	adminHandler        *handler.AdminHandler
	websocketHandler    *handler.WebSocketHandler
	cfg                 *config.Config
}

func NewRouter(
	paymentHandler *handler.PaymentHandler,
	webhookHandler *handler.WebhookHandler,
	subscriptionHandler *handler.SubscriptionHandler,
	pronoHandler *handler.PronoHandler,
	adminHandler *handler.AdminHandler,
	websocketHandler *handler.WebSocketHandler,
	cfg *config.Config,
) *Router {
	return &Router{
		paymentHandler:      paymentHandler,
		webhookHandler:      webhookHandler,
		subscriptionHandler: subscriptionHandler,
		pronoHandler:        pronoHandler,
		adminHandler:        adminHandler,
		websocketHandler:    websocketHandler,
		cfg:                 cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Logger())
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(r.cfg.CORS))

	api := engine.Group("/api/v1")
	{
		// live payment status
		api.GET("/ws", r.websocketHandler.Handle)

		// provider callbacks carry no user token
		webhooks := api.Group("/webhooks")
		{
			webhooks.POST("/moneyfusion", r.webhookHandler.MoneyFusion)
		}

		// pronos, redacted for anonymous and lower tiers
		pronos := api.Group("/pronos")
		pronos.Use(middleware.OptionalAuth(r.cfg.JWT.Secret))
		{
			pronos.GET("", r.pronoHandler.List)
			pronos.GET("/today", r.pronoHandler.Today)
			pronos.GET("/yesterday", r.pronoHandler.Yesterday)
			pronos.GET("/before-yesterday", r.pronoHandler.BeforeYesterday)
			pronos.GET("/:id", r.pronoHandler.Get)
		}

		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(r.cfg.JWT.Secret))
		{
			payments := authenticated.Group("/payments")
			{
				payments.POST("/moneyfusion", r.paymentHandler.Initiate)
				payments.POST("/submit", r.paymentHandler.Submit)
				payments.GET("/status/:token", r.paymentHandler.CheckStatus)
				payments.GET("/:id", r.paymentHandler.Get)
			}

			user := authenticated.Group("/user")
			{
				user.GET("/subscription", r.subscriptionHandler.Status)
				user.GET("/payments", r.paymentHandler.History)
				user.GET("/transactions", r.paymentHandler.Transactions)
			}
		}

		admin := api.Group("/admin")
		admin.Use(middleware.Auth(r.cfg.JWT.Secret), middleware.RequireAdmin(r.cfg.Admin))
		{
			admin.GET("/dashboard", r.adminHandler.Dashboard)

			admin.GET("/payments", r.adminHandler.ListPayments)
			admin.GET("/payments/stale", r.adminHandler.StalePayments)
			admin.POST("/payments/:id/process", r.adminHandler.ProcessPayment)

			admin.GET("/subscriptions", r.adminHandler.ListSubscriptions)
			admin.PUT("/users/:id/subscription", r.adminHandler.UpsertSubscription)

			admin.GET("/pronos", r.adminHandler.ListPronos)
			admin.POST("/pronos", r.adminHandler.CreateProno)
			admin.PUT("/pronos/:id", r.adminHandler.UpdateProno)
			admin.DELETE("/pronos/:id", r.adminHandler.DeleteProno)
		}
	}

	return engine
}
