// Package mdns advertises the station on the local network so tablets on the line can find it.
package mdns

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/holoplot/go-avahi"
)

const (
	// ServiceType is the DNS-SD service type for labeler stations.
	ServiceType = "_canlabeler._tcp"

	// APIVersion is the API version advertised in TXT records.
	APIVersion = "v1"
)

// Station describes what gets advertised.
type Station struct {
	ID      string
	Name    string
	Version string
	Port    int
}

// txtRecords builds the TXT payload. Empty values are left out.
func (s Station) txtRecords() [][]byte {
	pairs := [][2]string{
		{"id", s.ID},
		{"name", s.Name},
		{"version", s.Version},
		{"api", APIVersion},
	}
	txt := make([][]byte, 0, len(pairs))
	for _, kv := range pairs {
		if kv[1] == "" {
			continue
		}
		txt = append(txt, []byte(kv[0]+"="+kv[1]))
	}
	return txt
}

// publisher registers one service with the local responder.
type publisher interface {
	Publish(name, serviceType string, port uint16, txt [][]byte) error
	Close()
}

// Dialer connects to the local mDNS responder.
type Dialer func() (publisher, error)

// Service manages mDNS advertisement for the station.
type Service struct {
	dial   Dialer
	pub    publisher
	logger *slog.Logger
	mu     sync.Mutex
}

// NewService creates a new mDNS service backed by avahi on the system bus.
func NewService(logger *slog.Logger) *Service {
	return newService(dialAvahi, logger)
}

func newService(dial Dialer, logger *slog.Logger) *Service {
	return &Service{dial: dial, logger: logger}
}

// Start begins advertising the station. A running advertisement is replaced.
// Errors are usually non-fatal: containers rarely reach the system bus.
func (s *Service) Start(station Station) error {
	if station.Port <= 0 || station.Port > 65535 {
		return fmt.Errorf("invalid port %d", station.Port)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pub != nil {
		s.pub.Close()
		s.pub = nil
	}

	name := station.Name
	if name == "" {
		host, err := os.Hostname()
		if err != nil {
			host = "labeler-station"
		}
		name = host
	}

	pub, err := s.dial()
	if err != nil {
		return fmt.Errorf("connect to mDNS responder: %w", err)
	}
	if err := pub.Publish(name, ServiceType, uint16(station.Port), station.txtRecords()); err != nil { //nolint:gosec // Range checked above
		pub.Close()
		return fmt.Errorf("publish %s: %w", ServiceType, err)
	}
	s.pub = pub

	s.logger.Info("mDNS advertisement started",
		"service", ServiceType,
		"port", station.Port,
		"name", name,
		"id", station.ID,
	)
	return nil
}

// Stop withdraws the advertisement. Safe to call multiple times.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pub != nil {
		s.pub.Close()
		s.pub = nil
		s.logger.Info("mDNS advertisement stopped")
	}
}

// Running reports whether the station is being advertised.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pub != nil
}

type avahiPublisher struct {
	conn   *dbus.Conn
	server *avahi.Server
	group  *avahi.EntryGroup
}

func dialAvahi() (publisher, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("system bus: %w", err)
	}
	server, err := avahi.ServerNew(conn)
	if err != nil {
		return nil, fmt.Errorf("avahi server: %w", err)
	}
	return &avahiPublisher{conn: conn, server: server}, nil
}

func (p *avahiPublisher) Publish(name, serviceType string, port uint16, txt [][]byte) error {
	group, err := p.server.EntryGroupNew()
	if err != nil {
		return fmt.Errorf("entry group: %w", err)
	}
	host, err := p.server.GetHostNameFqdn()
	if err != nil {
		p.server.EntryGroupFree(group)
		return fmt.Errorf("host name: %w", err)
	}
	if err := group.AddService(avahi.InterfaceUnspec, avahi.ProtoUnspec, 0, name, serviceType, "local", host, port, txt); err != nil {
		p.server.EntryGroupFree(group)
		return fmt.Errorf("add service: %w", err)
	}
	if err := group.Commit(); err != nil {
		p.server.EntryGroupFree(group)
		return fmt.Errorf("commit: %w", err)
	}
	p.group = group
	return nil
}

func (p *avahiPublisher) Close() {
	if p.group != nil {
		p.server.EntryGroupFree(p.group)
		p.group = nil
	}
	p.server.Close()
}
