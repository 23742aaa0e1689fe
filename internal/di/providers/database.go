package providers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/canlabel/labeler-station/internal/config"
	"github.com/canlabel/labeler-station/internal/logger"
	"github.com/canlabel/labeler-station/internal/metrics"
	"github.com/canlabel/labeler-station/internal/sse"
	"github.com/canlabel/labeler-station/internal/store"
	"github.com/canlabel/labeler-station/internal/store/kv"
	"github.com/canlabel/labeler-station/internal/store/sqlite"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Component("sse"))

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// ProvideMetrics provides the Prometheus collectors.
func ProvideMetrics(_ do.Injector) (*metrics.Metrics, error) {
	return metrics.New(), nil
}

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the record store selected by the storage driver.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	st, path, err := OpenStore(cfg.Storage, log.Component("store"))
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "driver", cfg.Storage.Driver, "path", path)

	return &StoreHandle{Store: st}, nil
}

// OpenStore opens the backend named by cfg.Driver under cfg.DataPath.
// It returns the database path it opened.
func OpenStore(cfg config.StorageConfig, logger *slog.Logger) (store.Store, string, error) {
	if err := os.MkdirAll(cfg.DataPath, 0o750); err != nil {
		return nil, "", fmt.Errorf("create data path: %w", err)
	}

	switch cfg.Driver {
	case config.DriverBadger:
		path := filepath.Join(cfg.DataPath, "badger")
		st, err := kv.Open(path, logger)
		return st, path, err
	case config.DriverSQLite, "":
		path := filepath.Join(cfg.DataPath, "labeler.db")
		st, err := sqlite.Open(path, logger)
		return st, path, err
	default:
		return nil, "", fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
