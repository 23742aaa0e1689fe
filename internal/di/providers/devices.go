package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/canlabel/labeler-station/internal/config"
	"github.com/canlabel/labeler-station/internal/logger"
	"github.com/canlabel/labeler-station/internal/metrics"
	"github.com/canlabel/labeler-station/internal/printer"
	"github.com/canlabel/labeler-station/internal/service"
)

// ProvidePrinter provides the label printer selected by the printer settings.
func ProvidePrinter(i do.Injector) (printer.Printer, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	p, err := printer.New(printer.Config{
		Addr:     cfg.Printer.Addr,
		SpoolDir: cfg.Printer.SpoolDir,
		Timeout:  cfg.Printer.Timeout,
	})
	if err != nil {
		return nil, err
	}

	if _, disabled := p.(printer.Disabled); disabled {
		log.Warn("No label printer configured, print jobs will fail")
	} else {
		log.Info("Label printer configured", "printer", p.Describe())
	}
	return p, nil
}

// ScaleServiceHandle wraps the scale service with Shutdownable.
type ScaleServiceHandle struct {
	*service.ScaleService
}

// Shutdown implements do.Shutdownable.
func (h *ScaleServiceHandle) Shutdown() error {
	return h.ScaleService.Shutdown()
}

// ProvideScaleService provides the scale reader service and connects the
// configured port. A missing scale is logged, not fatal; operators can type weights.
func ProvideScaleService(i do.Injector) (*ScaleServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	svc := service.NewScaleService(service.ScaleConfig{
		Port:      cfg.Scale.Port,
		Baud:      cfg.Scale.Baud,
		EventRate: float64(cfg.Scale.EventRate),
	}, nil, sseHandle.Manager, m, log.Component("scale"))

	if cfg.Scale.Port != "" {
		if _, err := svc.Connect(context.Background(), ""); err != nil {
			log.Warn("Scale not connected at startup", "port", cfg.Scale.Port, "error", err)
		}
	}

	return &ScaleServiceHandle{ScaleService: svc}, nil
}
