package main

import (
	"context"
	"time"

	"github.com/dojoflow/dojoflow/internal/api"
	apicron "github.com/dojoflow/dojoflow/internal/api/cron"
	v1 "github.com/dojoflow/dojoflow/internal/api/v1"
	"github.com/dojoflow/dojoflow/internal/cache"
	"github.com/dojoflow/dojoflow/internal/config"
	"github.com/dojoflow/dojoflow/internal/cron"
	"github.com/dojoflow/dojoflow/internal/httpclient"
	"github.com/dojoflow/dojoflow/internal/integration/stripe"
	providerwebhook "github.com/dojoflow/dojoflow/internal/integration/stripe/webhook"
	"github.com/dojoflow/dojoflow/internal/logger"
	"github.com/dojoflow/dojoflow/internal/notification"
	"github.com/dojoflow/dojoflow/internal/postgres"
	pubsubRouter "github.com/dojoflow/dojoflow/internal/pubsub/router"
	"github.com/dojoflow/dojoflow/internal/repository"
	"github.com/dojoflow/dojoflow/internal/sentry"
	"github.com/dojoflow/dojoflow/internal/service"
	"github.com/dojoflow/dojoflow/internal/svix"
	"github.com/dojoflow/dojoflow/internal/types"
	"github.com/dojoflow/dojoflow/internal/validator"
	"github.com/dojoflow/dojoflow/internal/webhook"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

// @title DojoFlow API
// @version 1.0
// @description Recurring billing and payment scheduling for academies
// @BasePath /v1
// @schemes http https

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Validator
			validator.NewValidator,

			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Monitoring
			sentry.NewSentryService,

			// Cache
			cache.NewInMemoryCache,

			// Postgres
			postgres.NewDB,
			postgres.NewClient,

			// HTTP Client
			httpclient.NewDefaultClient,

			// Repositories
			repository.NewTenantRepository,
			repository.NewContactRepository,
			repository.NewPlanRepository,
			repository.NewSubscriptionRepository,
			repository.NewBillingCycleRepository,
			repository.NewFreezeRepository,
			repository.NewPaymentMethodRepository,
			repository.NewPaymentRepository,

			// Payment provider
			stripe.NewClient,
			stripe.NewCustomerService,
			stripe.NewPaymentService,
			stripe.NewSubscriptionService,
			providerwebhook.NewDecoder,

			// Notifications
			notification.NewEmailSender,
			svix.NewClient,

			// PubSub
			pubsubRouter.NewRouter,
		),
	)

	// Webhook module (must be initialised before services)
	opts = append(opts, webhook.Module)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,

			// Core services
			service.NewTenantService,
			service.NewContactService,
			service.NewPlanService,

			// Business services
			service.NewScheduleService,
			service.NewSubscriptionService,
			service.NewFreezeService,
			service.NewPaymentMethodService,
			service.NewChargeService,
			service.NewPaymentService,
			service.NewReconcilerService,
			service.NewDunningService,
		),
	)

	// API and scheduler
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
			cron.NewScheduler,
		),
		fx.Invoke(
			sentry.RegisterHooks,
			startServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideHandlers(
	logger *logger.Logger,
	tenantService service.TenantService,
	contactService service.ContactService,
	planService service.PlanService,
	subscriptionService service.SubscriptionService,
	freezeService service.FreezeService,
	paymentMethodService service.PaymentMethodService,
	chargeService service.ChargeService,
	paymentService service.PaymentService,
	reconcilerService service.ReconcilerService,
	dunningService service.DunningService,
	decoder *providerwebhook.Decoder,
) api.Handlers {
	return api.Handlers{
		Health:        v1.NewHealthHandler(),
		Tenant:        v1.NewTenantHandler(tenantService, logger),
		Contact:       v1.NewContactHandler(contactService, logger),
		Plan:          v1.NewPlanHandler(planService, logger),
		Subscription:  v1.NewSubscriptionHandler(subscriptionService, logger),
		Freeze:        v1.NewFreezeHandler(freezeService, logger),
		PaymentMethod: v1.NewPaymentMethodHandler(paymentMethodService, logger),
		Payment:       v1.NewPaymentHandler(chargeService, paymentService, logger),
		Webhook:       v1.NewWebhookHandler(decoder, reconcilerService, logger),
		CronDunning:   apicron.NewDunningHandler(dunningService, logger),
	}
}

func provideRouter(handlers api.Handlers) *gin.Engine {
	return api.NewRouter(handlers)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	webhookService *webhook.WebhookService,
	router *pubsubRouter.Router,
	scheduler *cron.Scheduler,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal:
		startAPIServer(lc, r, cfg, log)
		startMessageRouter(lc, router, webhookService, log)
		startScheduler(lc, scheduler, log)
	case types.ModeAPI:
		startAPIServer(lc, r, cfg, log)
		startMessageRouter(lc, router, webhookService, log)
	case types.ModeCron:
		startScheduler(lc, scheduler, log)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	log.Info("Registering API server start hook")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting API server...")
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return nil
		},
	})
}

func startMessageRouter(
	lc fx.Lifecycle,
	router *pubsubRouter.Router,
	webhookService *webhook.WebhookService,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := webhookService.Start(ctx, router); err != nil {
				return err
			}
			go func() {
				log.Info("Starting message router...")
				if err := router.Run(); err != nil {
					log.Errorf("Message router stopped: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Stopping message router...")
			if err := webhookService.Stop(); err != nil {
				log.Errorf("Failed to stop webhook service: %v", err)
			}
			return router.Close()
		},
	})
}

func startScheduler(
	lc fx.Lifecycle,
	scheduler *cron.Scheduler,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting cron scheduler...")
			return scheduler.Start()
		},
		OnStop: func(ctx context.Context) error {
			scheduler.Stop()
			return nil
		},
	})
}
