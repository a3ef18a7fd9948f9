package services

import (
	portsrepo "github.com/SscSPs/dairy_billing_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/dairy_billing_app/internal/core/ports/services"
	"github.com/SscSPs/dairy_billing_app/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, dispatcher portssvc.StatementDispatcher, exporter portssvc.StatementExporter) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// Reconciler first: every balance-moving service depends on it
	container.Reconciler = NewReconcilerService(repos)

	container.Customer = NewCustomerService(repos.CustomerRepo)
	container.Sale = NewSaleService(repos, container.Reconciler)
	container.Billing = NewBillingService(
		repos,
		container.Reconciler,
		WithBillingWorkers(cfg.BillingWorkers),
		WithConflictRetries(cfg.BillingConflictRetries, defaultConflictBackoff),
		WithStatementExporter(exporter),
	)
	container.Notification = NewNotificationService(repos, dispatcher, cfg.NotificationTimeout)

	return container
}
