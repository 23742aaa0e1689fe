package api

import (
	"github.com/canlabel/labeler-station/internal/metrics"
	"github.com/canlabel/labeler-station/internal/printer"
	"github.com/canlabel/labeler-station/internal/service"
	"github.com/canlabel/labeler-station/internal/sse"
	"github.com/canlabel/labeler-station/internal/store"
)

// Services groups what the API server talks to.
// Scale, SSEManager and Metrics may be nil.
type Services struct {
	Store      store.Store
	Workflow   *service.PrintWorkflow
	Scale      *service.ScaleService
	Printer    printer.Printer
	SSEManager *sse.Manager
	Metrics    *metrics.Metrics
}
