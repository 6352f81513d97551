package repository

import (
	"github.com/dojoflow/dojoflow/internal/domain/contact"
	"github.com/dojoflow/dojoflow/internal/domain/payment"
	"github.com/dojoflow/dojoflow/internal/domain/paymentmethod"
	"github.com/dojoflow/dojoflow/internal/domain/plan"
	"github.com/dojoflow/dojoflow/internal/domain/subscription"
	"github.com/dojoflow/dojoflow/internal/domain/tenant"
	"github.com/dojoflow/dojoflow/internal/logger"
	"github.com/dojoflow/dojoflow/internal/postgres"
	postgresRepo "github.com/dojoflow/dojoflow/internal/repository/postgres"
)

func NewTenantRepository(client postgres.IClient, logger *logger.Logger) tenant.Repository {
	return postgresRepo.NewTenantRepository(client, logger)
}

func NewContactRepository(client postgres.IClient, logger *logger.Logger) contact.Repository {
	return postgresRepo.NewContactRepository(client, logger)
}

func NewPlanRepository(client postgres.IClient, logger *logger.Logger) plan.Repository {
	return postgresRepo.NewPlanRepository(client, logger)
}

func NewSubscriptionRepository(client postgres.IClient, logger *logger.Logger) subscription.Repository {
	return postgresRepo.NewSubscriptionRepository(client, logger)
}

func NewBillingCycleRepository(client postgres.IClient, logger *logger.Logger) subscription.BillingCycleRepository {
	return postgresRepo.NewBillingCycleRepository(client, logger)
}

func NewFreezeRepository(client postgres.IClient, logger *logger.Logger) subscription.FreezeRepository {
	return postgresRepo.NewFreezeRepository(client, logger)
}

func NewPaymentMethodRepository(client postgres.IClient, logger *logger.Logger) paymentmethod.Repository {
	return postgresRepo.NewPaymentMethodRepository(client, logger)
}

func NewPaymentRepository(client postgres.IClient, logger *logger.Logger) payment.Repository {
	return postgresRepo.NewPaymentRepository(client, logger)
}
