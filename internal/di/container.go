// Package di provides dependency injection configuration for the labeler station.
package di

import (
	"github.com/samber/do/v2"

	"github.com/canlabel/labeler-station/internal/config"
	"github.com/canlabel/labeler-station/internal/di/providers"
	"github.com/canlabel/labeler-station/internal/logger"
	"github.com/canlabel/labeler-station/internal/metrics"
	"github.com/canlabel/labeler-station/internal/printer"
	"github.com/canlabel/labeler-station/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideMetrics)
	do.Provide(injector, providers.ProvideSSEManager)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Devices
	do.Provide(injector, providers.ProvidePrinter)
	do.Provide(injector, providers.ProvideScaleService)

	// Business services
	do.Provide(injector, providers.ProvidePrintWorkflow)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)
	do.Provide(injector, providers.ProvideMDNSService)

	return injector
}

// Bootstrap initializes all services in dependency order.
// This triggers lazy initialization of every provider.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*metrics.Metrics](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)

	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[printer.Printer](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*providers.ScaleServiceHandle](injector)
	_ = do.MustInvoke[*service.PrintWorkflow](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)
	_ = do.MustInvoke[*providers.MDNSServiceHandle](injector)

	return nil
}
