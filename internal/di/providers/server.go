package providers

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/samber/do/v2"

	"github.com/canlabel/labeler-station/internal/api"
	"github.com/canlabel/labeler-station/internal/config"
	"github.com/canlabel/labeler-station/internal/logger"
	"github.com/canlabel/labeler-station/internal/mdns"
	"github.com/canlabel/labeler-station/internal/metrics"
	"github.com/canlabel/labeler-station/internal/printer"
	"github.com/canlabel/labeler-station/internal/service"
)

// Version is the station build version, set with -ldflags.
var Version = "dev"

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	api *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.api.Shutdown()
	return err
}

// ProvideHTTPServer provides the HTTP server and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	scaleHandle := do.MustInvoke[*ScaleServiceHandle](i)
	workflow := do.MustInvoke[*service.PrintWorkflow](i)
	p := do.MustInvoke[printer.Printer](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	handler := api.NewServer(&api.Services{
		Store:      storeHandle.Store,
		Workflow:   workflow,
		Scale:      scaleHandle.ScaleService,
		Printer:    p,
		SSEManager: sseHandle.Manager,
		Metrics:    m,
	}, api.ServerConfig{
		StationName: cfg.Server.StationName,
		Version:     Version,
		CORSOrigins: cfg.Server.CORSOrigins,
	}, log.Component("api"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv, api: handler}, nil
}

// MDNSServiceHandle wraps mdns.Service with Shutdownable.
type MDNSServiceHandle struct {
	*mdns.Service
	started bool
}

// Shutdown implements do.Shutdownable.
func (h *MDNSServiceHandle) Shutdown() error {
	if h.started && h.Service != nil {
		h.Stop()
	}
	return nil
}

// ProvideMDNSService provides the mDNS advertisement service.
// Advertisement failures are logged; tablets can still be pointed at the station by address.
func ProvideMDNSService(i do.Injector) (*MDNSServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Server.AdvertiseMDNS {
		log.Info("mDNS advertisement disabled")
		return &MDNSServiceHandle{}, nil
	}

	port, err := strconv.Atoi(cfg.Server.Port)
	if err != nil {
		log.Warn("mDNS disabled, port is not numeric", "port", cfg.Server.Port)
		return &MDNSServiceHandle{}, nil
	}

	host, err := os.Hostname()
	if err != nil {
		host = "labeler-station"
	}

	svc := mdns.NewService(log.Component("mdns"))
	station := mdns.Station{
		ID:      host,
		Name:    cfg.Server.StationName,
		Version: Version,
		Port:    port,
	}
	if err := svc.Start(station); err != nil {
		log.Warn("mDNS advertisement unavailable", "error", err)
		return &MDNSServiceHandle{Service: svc}, nil
	}

	return &MDNSServiceHandle{Service: svc, started: true}, nil
}
