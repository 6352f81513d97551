package api

import (
	"github.com/dojoflow/dojoflow/internal/api/cron"
	v1 "github.com/dojoflow/dojoflow/internal/api/v1"
	"github.com/dojoflow/dojoflow/internal/rest/middleware"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Handlers struct {
	Health        *v1.HealthHandler
	Tenant        *v1.TenantHandler
	Contact       *v1.ContactHandler
	Plan          *v1.PlanHandler
	Subscription  *v1.SubscriptionHandler
	Freeze        *v1.FreezeHandler
	PaymentMethod *v1.PaymentMethodHandler
	Payment       *v1.PaymentHandler
	Webhook       *v1.WebhookHandler
	CronDunning   *cron.DunningHandler
}

func NewRouter(handlers Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(middleware.CORSMiddleware)
	router.Use(middleware.RequestIDMiddleware)
	router.Use(middleware.TenantMiddleware)
	router.Use(middleware.ErrorHandler())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", handlers.Health.Health)

	// Provider webhooks are signature-verified, not tenant-scoped; the
	// reconciler derives the tenant from the event itself.
	router.POST("/webhooks/payments", handlers.Webhook.HandleProviderWebhook)

	// v1 routes
	v1Group := router.Group("/v1")
	registerV1Routes(v1Group, handlers)

	// Cron triggers, for running scheduled jobs on demand
	cronGroup := router.Group("/cron")
	{
		cronGroup.POST("/dunning", handlers.CronDunning.RunDunning)
		cronGroup.POST("/dunning/tenant", handlers.CronDunning.RunDunningForTenant)
	}

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	// Tenant routes
	tenants := router.Group("/tenants")
	{
		tenants.POST("", handlers.Tenant.CreateTenant)
		tenants.GET("", handlers.Tenant.ListTenants)
		tenants.GET("/:id", handlers.Tenant.GetTenant)
		tenants.PUT("/:id", handlers.Tenant.UpdateTenant)
		tenants.POST("/:id/payment-account", handlers.Tenant.LinkPaymentAccount)
	}

	// Contact routes
	contacts := router.Group("/contacts")
	{
		contacts.POST("", handlers.Contact.CreateContact)
		contacts.GET("", handlers.Contact.ListContacts)
		contacts.GET("/:id", handlers.Contact.GetContact)
		contacts.PUT("/:id", handlers.Contact.UpdateContact)
		contacts.DELETE("/:id", handlers.Contact.DeleteContact)
	}

	// Plan routes
	plans := router.Group("/plans")
	{
		plans.POST("", handlers.Plan.CreatePlan)
		plans.GET("", handlers.Plan.ListPlans)
		plans.GET("/:id", handlers.Plan.GetPlan)
		plans.PUT("/:id", handlers.Plan.UpdatePlan)
		plans.DELETE("/:id", handlers.Plan.DeletePlan)
	}

	// Subscription routes
	subscriptions := router.Group("/subscriptions")
	{
		subscriptions.POST("", handlers.Subscription.CreateSubscription)
		subscriptions.GET("", handlers.Subscription.ListSubscriptions)
		subscriptions.GET("/:id", handlers.Subscription.GetSubscription)
		subscriptions.POST("/:id/cancel", handlers.Subscription.CancelSubscription)
	}

	// Freeze routes
	freezes := router.Group("/freezes")
	{
		freezes.POST("", handlers.Freeze.CreateFreeze)
		freezes.GET("", handlers.Freeze.ListFreezes)
		freezes.GET("/:id", handlers.Freeze.GetFreeze)
		freezes.POST("/:id/close", handlers.Freeze.CloseFreeze)
	}

	// Payment method routes
	methods := router.Group("/payment-methods")
	{
		methods.POST("", handlers.PaymentMethod.CreatePaymentMethod)
		methods.GET("", handlers.PaymentMethod.ListPaymentMethods)
		methods.POST("/setup-intent", handlers.PaymentMethod.CreateSetupIntent)
		methods.GET("/:id", handlers.PaymentMethod.GetPaymentMethod)
		methods.POST("/:id/default", handlers.PaymentMethod.SetDefault)
		methods.DELETE("/:id", handlers.PaymentMethod.DeletePaymentMethod)
	}

	// Payment routes
	router.POST("/charges", handlers.Payment.Charge)
	payments := router.Group("/payments")
	{
		payments.GET("", handlers.Payment.ListPayments)
		payments.GET("/:id", handlers.Payment.GetPayment)
	}
}
