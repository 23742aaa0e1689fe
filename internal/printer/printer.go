// Package printer delivers rendered label programs to a label printer.
package printer

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	domainerrors "github.com/canlabel/labeler-station/internal/errors"
)

// DefaultTimeout bounds one job when the caller does not configure one.
const DefaultTimeout = 5 * time.Second

// Job is one label program.
type Job struct {
	// Name identifies the job in spool files and logs, e.g. "can-4821".
	Name    string
	Payload []byte
}

// Printer accepts label jobs. Send returns once the device acknowledged the
// bytes; it does not wait for the label to come out.
type Printer interface {
	Send(ctx context.Context, job Job) error
	// Check reports whether the device looks reachable.
	Check(ctx context.Context) error
	// Describe names the sink for logs and health output.
	Describe() string
}

// Config selects and tunes a printer.
type Config struct {
	Addr     string
	SpoolDir string
	Timeout  time.Duration
}

// New returns the printer selected by cfg: raw TCP when Addr is set,
// a spool directory when SpoolDir is set, otherwise a disabled printer.
func New(cfg Config) (Printer, error) {
	switch {
	case cfg.Addr != "":
		return NewTCP(cfg.Addr, cfg.Timeout), nil
	case cfg.SpoolDir != "":
		return NewSpool(cfg.SpoolDir)
	default:
		return Disabled{}, nil
	}
}

// TCPPrinter streams ZPL to a network printer's raw port (usually 9100).
type TCPPrinter struct {
	addr    string
	timeout time.Duration
	dialer  net.Dialer
}

// NewTCP creates a printer for addr. A zero timeout uses DefaultTimeout.
func NewTCP(addr string, timeout time.Duration) *TCPPrinter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &TCPPrinter{addr: addr, timeout: timeout}
}

// Send opens a connection per job, writes the payload and closes.
func (p *TCPPrinter) Send(ctx context.Context, job Job) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	conn, err := p.dialer.DialContext(ctx, "tcp", p.addr)
	if err != nil {
		return domainerrors.Wrapf(err, domainerrors.CodeDeviceUnavailable, "printer %s unreachable", p.addr)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	}
	if _, err := conn.Write(job.Payload); err != nil {
		return domainerrors.Wrapf(err, domainerrors.CodeDeviceUnavailable, "send %s to printer %s", job.Name, p.addr)
	}
	return nil
}

// Check dials the printer without sending anything.
func (p *TCPPrinter) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	conn, err := p.dialer.DialContext(ctx, "tcp", p.addr)
	if err != nil {
		return domainerrors.Wrapf(err, domainerrors.CodeDeviceUnavailable, "printer %s unreachable", p.addr)
	}
	return conn.Close()
}

// Describe implements Printer.
func (p *TCPPrinter) Describe() string { return "tcp://" + p.addr }

// SpoolPrinter writes each job as a .zpl file for a print driver to pick up.
type SpoolPrinter struct {
	dir string
}

// NewSpool creates the spool directory if needed.
func NewSpool(dir string) (*SpoolPrinter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create spool dir: %w", err)
	}
	return &SpoolPrinter{dir: dir}, nil
}

// Send writes the job through a temp file and a rename so a watcher never sees partial output.
func (p *SpoolPrinter) Send(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	name := job.Name
	if name == "" {
		name = fmt.Sprintf("job-%d", time.Now().UnixNano())
	}
	final := filepath.Join(p.dir, filepath.Base(name)+".zpl")

	tmp, err := os.CreateTemp(p.dir, ".spool-*")
	if err != nil {
		return domainerrors.Wrapf(err, domainerrors.CodeDeviceUnavailable, "spool %s", name)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after rename

	if _, err := tmp.Write(job.Payload); err != nil {
		tmp.Close()
		return domainerrors.Wrapf(err, domainerrors.CodeDeviceUnavailable, "spool %s", name)
	}
	if err := tmp.Close(); err != nil {
		return domainerrors.Wrapf(err, domainerrors.CodeDeviceUnavailable, "spool %s", name)
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		return domainerrors.Wrapf(err, domainerrors.CodeDeviceUnavailable, "spool %s", name)
	}
	return nil
}

// Check verifies the spool directory still exists.
func (p *SpoolPrinter) Check(_ context.Context) error {
	info, err := os.Stat(p.dir)
	if err != nil {
		return domainerrors.Wrapf(err, domainerrors.CodeDeviceUnavailable, "spool dir %s", p.dir)
	}
	if !info.IsDir() {
		return domainerrors.DeviceUnavailable(p.dir + " is not a directory")
	}
	return nil
}

// Describe implements Printer.
func (p *SpoolPrinter) Describe() string { return "spool://" + p.dir }

// Disabled is used when no printer is configured. Every job fails.
type Disabled struct{}

// Send implements Printer.
func (Disabled) Send(context.Context, Job) error {
	return domainerrors.DeviceUnavailable("no label printer configured")
}

// Check implements Printer.
func (Disabled) Check(context.Context) error {
	return domainerrors.DeviceUnavailable("no label printer configured")
}

// Describe implements Printer.
func (Disabled) Describe() string { return "disabled" }
