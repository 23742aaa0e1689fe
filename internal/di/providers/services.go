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

// ProvidePrintWorkflow provides the print workflow and performs the initial load.
// A failed load leaves the workflow faulted so the operator sees why; it does not stop the station.
func ProvidePrintWorkflow(i do.Injector) (*service.PrintWorkflow, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	scaleHandle := do.MustInvoke[*ScaleServiceHandle](i)
	p := do.MustInvoke[printer.Printer](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	wf := service.NewPrintWorkflow(storeHandle.Store, p, scaleHandle.ScaleService, sseHandle.Manager, m,
		service.WorkflowConfig{
			ShelfLifeYears: cfg.Label.ShelfLifeYears,
			LoadRetries:    cfg.Workflow.LoadRetries,
		}, log.Component("workflow"))

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := wf.Start(ctx); err != nil {
		log.Error("Initial load failed, station needs attention", "error", err, "state", wf.State())
	} else {
		log.Info("Print workflow ready")
	}

	return wf, nil
}
