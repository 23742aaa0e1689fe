package mdns

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	name        string
	serviceType string
	port        uint16
	txt         []string
}

type fakeResponder struct {
	mu         sync.Mutex
	dialErr    error
	publishErr error
	entries    []published
	closed     int
}

func (f *fakeResponder) dial() (publisher, error) {
	if f.dialErr != nil {
		return nil, f.dialErr
	}
	return &fakePublisher{r: f}, nil
}

type fakePublisher struct{ r *fakeResponder }

func (p *fakePublisher) Publish(name, serviceType string, port uint16, txt [][]byte) error {
	p.r.mu.Lock()
	defer p.r.mu.Unlock()
	if p.r.publishErr != nil {
		return p.r.publishErr
	}
	entry := published{name: name, serviceType: serviceType, port: port}
	for _, t := range txt {
		entry.txt = append(entry.txt, string(t))
	}
	p.r.entries = append(p.r.entries, entry)
	return nil
}

func (p *fakePublisher) Close() {
	p.r.mu.Lock()
	defer p.r.mu.Unlock()
	p.r.closed++
}

func newTestService(r *fakeResponder) (*Service, *bytes.Buffer) {
	var buf bytes.Buffer
	return newService(r.dial, slog.New(slog.NewTextHandler(&buf, nil))), &buf
}

func TestConstants(t *testing.T) {
	assert.Equal(t, "_canlabeler._tcp", ServiceType)
	assert.Equal(t, "v1", APIVersion)
}

func TestServiceStart(t *testing.T) {
	r := &fakeResponder{}
	svc, buf := newTestService(r)

	err := svc.Start(Station{ID: "stn-01", Name: "Line 2", Version: "1.4.0", Port: 8080})
	require.NoError(t, err)
	assert.True(t, svc.Running())

	require.Len(t, r.entries, 1)
	got := r.entries[0]
	assert.Equal(t, "Line 2", got.name)
	assert.Equal(t, ServiceType, got.serviceType)
	assert.Equal(t, uint16(8080), got.port)
	assert.Equal(t, []string{"id=stn-01", "name=Line 2", "version=1.4.0", "api=v1"}, got.txt)
	assert.Contains(t, buf.String(), "mDNS advertisement started")
}

func TestServiceStart_OmitsEmptyTXT(t *testing.T) {
	r := &fakeResponder{}
	svc, _ := newTestService(r)

	require.NoError(t, svc.Start(Station{Name: "Line 2", Port: 8080}))
	assert.Equal(t, []string{"name=Line 2", "api=v1"}, r.entries[0].txt)
}

func TestServiceStart_Restart(t *testing.T) {
	r := &fakeResponder{}
	svc, _ := newTestService(r)

	require.NoError(t, svc.Start(Station{Name: "Line 2", Port: 8080}))
	require.NoError(t, svc.Start(Station{Name: "Line 2", Port: 8081}))

	assert.Equal(t, 1, r.closed, "previous advertisement withdrawn")
	require.Len(t, r.entries, 2)
	assert.Equal(t, uint16(8081), r.entries[1].port)
}

func TestServiceStart_Failures(t *testing.T) {
	t.Run("no system bus", func(t *testing.T) {
		r := &fakeResponder{dialErr: errors.New("no such file or directory")}
		svc, _ := newTestService(r)

		err := svc.Start(Station{Name: "Line 2", Port: 8080})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connect to mDNS responder")
		assert.False(t, svc.Running())
	})

	t.Run("publish rejected", func(t *testing.T) {
		r := &fakeResponder{publishErr: errors.New("collision")}
		svc, _ := newTestService(r)

		err := svc.Start(Station{Name: "Line 2", Port: 8080})
		require.Error(t, err)
		assert.Equal(t, 1, r.closed, "connection released")
		assert.False(t, svc.Running())
	})

	t.Run("invalid port", func(t *testing.T) {
		svc, _ := newTestService(&fakeResponder{})
		assert.Error(t, svc.Start(Station{Name: "Line 2", Port: 70000}))
	})
}

func TestServiceStop(t *testing.T) {
	r := &fakeResponder{}
	svc, buf := newTestService(r)

	svc.Stop()
	assert.Empty(t, buf.String(), "stop before start is a no-op")

	require.NoError(t, svc.Start(Station{Name: "Line 2", Port: 8080}))

	var wg sync.WaitGroup
	for range 10 {
		wg.Go(svc.Stop)
	}
	wg.Wait()

	assert.Equal(t, 1, r.closed)
	assert.False(t, svc.Running())
	assert.Contains(t, buf.String(), "mDNS advertisement stopped")
}
