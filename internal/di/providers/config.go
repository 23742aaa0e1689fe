// Package providers contains dependency injection providers for the labeler station.
package providers

import (
	"time"

	"github.com/samber/do/v2"

	"github.com/canlabel/labeler-station/internal/config"
	"github.com/canlabel/labeler-station/internal/logger"
)

// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
// The initial workflow load shares it.
const shutdownTimeout = 30 * time.Second

// ProvideConfig provides the station configuration.
func ProvideConfig(_ do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
		Station:     cfg.Server.StationName,
	})

	log.Info("Starting labeler station",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.Storage.DataPath,
		"store_driver", cfg.Storage.Driver,
		"printer", cfg.PrinterMode(),
	)

	return log, nil
}
