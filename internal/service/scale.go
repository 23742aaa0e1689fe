package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	domainerrors "github.com/canlabel/labeler-station/internal/errors"
	"github.com/canlabel/labeler-station/internal/metrics"
	"github.com/canlabel/labeler-station/internal/ratelimit"
	"github.com/canlabel/labeler-station/internal/scale"
	"github.com/canlabel/labeler-station/internal/sse"
)

// ScaleOpener opens a scale device. scale.Open in production.
type ScaleOpener func(path string, baud int) (*scale.Reader, error)

// ScaleConfig configures the scale service.
type ScaleConfig struct {
	Port string
	Baud int
	// EventRate caps scale.weight events per second.
	EventRate float64
}

// ScaleStatus describes the scale connection.
type ScaleStatus struct {
	ConnectedAt time.Time `json:"connected_at,omitzero"`
	UpdatedAt   time.Time `json:"updated_at,omitzero"`
	Port        string    `json:"port"`
	LastError   string    `json:"last_error,omitempty"`
	Grams       int64     `json:"grams"`
	Connected   bool      `json:"connected"`
	HasReading  bool      `json:"has_reading"`
}

// ScaleService owns the scale read loop and the current weight.
// The last observation wins; readings are never averaged.
type ScaleService struct {
	cfg     ScaleConfig
	open    ScaleOpener
	events  EventEmitter
	metrics *metrics.Metrics
	limiter *ratelimit.KeyedRateLimiter
	logger  *slog.Logger

	grams      atomic.Int64
	hasReading atomic.Bool
	updatedAt  atomic.Int64 // unix nanos

	// connMu serializes Connect and Disconnect so at most one reader is open.
	connMu sync.Mutex

	mu          sync.Mutex
	reader      *scale.Reader
	done        chan struct{}
	connectedAt time.Time
	lastErr     string
}

// NewScaleService creates a disconnected scale service. open defaults to scale.Open.
func NewScaleService(cfg ScaleConfig, open ScaleOpener, events EventEmitter, m *metrics.Metrics, logger *slog.Logger) *ScaleService {
	if open == nil {
		open = scale.Open
	}
	if events == nil {
		events = NoopEmitter{}
	}
	if cfg.Baud <= 0 {
		cfg.Baud = scale.DefaultBaud
	}
	if cfg.EventRate <= 0 {
		cfg.EventRate = 5
	}
	return &ScaleService{
		cfg:     cfg,
		open:    open,
		events:  events,
		metrics: m,
		limiter: ratelimit.New(cfg.EventRate, 1),
		logger:  logger,
	}
}

// Connect opens port (the configured port when empty) and starts reading.
// An already connected scale is closed first.
func (s *ScaleService) Connect(ctx context.Context, port string) (ScaleStatus, error) {
	if port == "" {
		port = s.cfg.Port
	}
	if port == "" {
		return s.Status(), domainerrors.DeviceUnavailable("no scale port configured")
	}
	if err := ctx.Err(); err != nil {
		return s.Status(), err
	}

	s.connMu.Lock()
	defer s.connMu.Unlock()

	s.disconnect()

	reader, err := s.open(port, s.cfg.Baud)
	if err != nil {
		s.mu.Lock()
		s.lastErr = err.Error()
		s.mu.Unlock()
		s.logger.Warn("scale unavailable", slog.String("port", port), slog.String("error", err.Error()))
		return s.Status(), err
	}

	done := make(chan struct{})
	s.mu.Lock()
	s.reader = reader
	s.done = done
	s.connectedAt = time.Now()
	s.lastErr = ""
	s.mu.Unlock()
	s.hasReading.Store(false)

	s.logger.Info("scale connected", slog.String("port", port), slog.Int("baud", s.cfg.Baud))
	s.events.Emit(sse.NewScaleConnectedEvent(port))

	go s.readLoop(reader, done)
	return s.Status(), nil
}

func (s *ScaleService) readLoop(r *scale.Reader, done chan struct{}) {
	defer close(done)

	var loopErr error
	for grams, err := range r.Weights() {
		if err != nil {
			loopErr = err
			break
		}
		s.grams.Store(grams)
		s.hasReading.Store(true)
		s.updatedAt.Store(time.Now().UnixNano())
		s.metrics.SetWeight(grams)

		if s.limiter.Allow(r.Name()) {
			s.events.Emit(sse.NewScaleWeightEvent(r.Name(), grams))
		}
	}

	_ = r.Close() //nolint:errcheck // Stream already ended

	s.mu.Lock()
	if s.reader == r {
		s.reader = nil
	}
	if loopErr != nil {
		s.lastErr = loopErr.Error()
	}
	s.mu.Unlock()

	if loopErr != nil {
		s.logger.Error("scale read failed", slog.String("port", r.Name()), slog.String("error", loopErr.Error()))
	} else {
		s.logger.Info("scale stream ended", slog.String("port", r.Name()))
	}
	s.events.Emit(sse.NewScaleDisconnectedEvent(r.Name(), loopErr))
}

// Disconnect closes the scale and waits for the read loop to finish.
// The last weight stays available.
func (s *ScaleService) Disconnect() {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	s.disconnect()
}

// disconnect requires connMu.
func (s *ScaleService) disconnect() {
	s.mu.Lock()
	reader, done := s.reader, s.done
	s.reader = nil
	s.mu.Unlock()

	if reader == nil {
		return
	}
	if err := reader.Close(); err != nil {
		s.logger.Warn("closing scale", slog.String("port", reader.Name()), slog.String("error", err.Error()))
	}
	<-done
}

// Current returns the last weight read. ok is false until a reading arrived.
func (s *ScaleService) Current() (int64, bool) {
	if !s.hasReading.Load() {
		return 0, false
	}
	return s.grams.Load(), true
}

// Status returns the connection state and last reading.
func (s *ScaleService) Status() ScaleStatus {
	s.mu.Lock()
	status := ScaleStatus{
		Port:      s.cfg.Port,
		Connected: s.reader != nil,
		LastError: s.lastErr,
	}
	if s.reader != nil {
		status.Port = s.reader.Name()
		status.ConnectedAt = s.connectedAt
	}
	s.mu.Unlock()

	status.Grams, status.HasReading = s.Current()
	if ns := s.updatedAt.Load(); ns > 0 {
		status.UpdatedAt = time.Unix(0, ns)
	}
	return status
}

// Shutdown disconnects the scale and stops the event limiter.
func (s *ScaleService) Shutdown() error {
	s.Disconnect()
	s.limiter.Stop()
	return nil
}
