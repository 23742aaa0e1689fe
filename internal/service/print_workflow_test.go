package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canlabel/labeler-station/internal/domain"
	domainerrors "github.com/canlabel/labeler-station/internal/errors"
	"github.com/canlabel/labeler-station/internal/printer"
	"github.com/canlabel/labeler-station/internal/sse"
	"github.com/canlabel/labeler-station/internal/store"
	"github.com/canlabel/labeler-station/internal/store/kv"
)

// hookedStore wraps a real in-memory store and lets tests fail or observe calls.
type hookedStore struct {
	*kv.Store

	mu          sync.Mutex
	calls       map[string]int
	readCounter func(call int) error
	append      func(ctx context.Context) error
	advance     func(ctx context.Context) error
}

func (h *hookedStore) count(name string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls[name]++
	return h.calls[name]
}

func (h *hookedStore) Calls(name string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls[name]
}

func (h *hookedStore) ReadCounter(ctx context.Context) (*domain.SequenceCounter, error) {
	n := h.count("ReadCounter")
	if h.readCounter != nil {
		if err := h.readCounter(n); err != nil {
			return nil, err
		}
	}
	return h.Store.ReadCounter(ctx)
}

func (h *hookedStore) AppendRecord(ctx context.Context, rec *domain.PrintRecord) (string, error) {
	h.count("AppendRecord")
	if h.append != nil {
		if err := h.append(ctx); err != nil {
			return "", err
		}
	}
	return h.Store.AppendRecord(ctx, rec)
}

func (h *hookedStore) AdvanceCounter(ctx context.Context, counterID string, nextID int64) error {
	h.count("AdvanceCounter")
	if h.advance != nil {
		if err := h.advance(ctx); err != nil {
			return err
		}
	}
	return h.Store.AdvanceCounter(ctx, counterID, nextID)
}

type fakePrinter struct {
	mu      sync.Mutex
	jobs    []printer.Job
	err     error
	started chan struct{}
	release chan struct{}
}

func (p *fakePrinter) Send(_ context.Context, job printer.Job) error {
	if p.started != nil {
		p.started <- struct{}{}
	}
	if p.release != nil {
		<-p.release
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, job)
	return nil
}

func (p *fakePrinter) Check(context.Context) error { return nil }
func (p *fakePrinter) Describe() string            { return "fake" }

func (p *fakePrinter) Jobs() []printer.Job {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]printer.Job(nil), p.jobs...)
}

func (p *fakePrinter) SetErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []sse.Event
}

func (e *recordingEmitter) Emit(ev sse.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
}

func (e *recordingEmitter) Has(t sse.EventType) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, ev := range e.events {
		if ev.Type == t {
			return true
		}
	}
	return false
}

type fixedWeight struct {
	grams int64
	ok    bool
}

func (f fixedWeight) Current() (int64, bool) { return f.grams, f.ok }

type workflowFixture struct {
	wf      *PrintWorkflow
	store   *hookedStore
	printer *fakePrinter
	events  *recordingEmitter
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newWorkflowFixture seeds brand indicator 7, product code 014 and a counter at 4821.
func newWorkflowFixture(t *testing.T, weights WeightSource) *workflowFixture {
	t.Helper()
	ctx := context.Background()

	kvStore, err := kv.OpenInMemory(discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = kvStore.Close() }) //nolint:errcheck // Test cleanup

	require.NoError(t, kvStore.UpsertProduct(ctx, &domain.Product{
		ID: "prod-dulce", Name: "Dulce de leche", ProductCode: "014", RNE: "02-033527", RNPA: "02-123456",
	}))
	require.NoError(t, kvStore.UpsertBrand(ctx, &domain.Brand{ID: "brand-serena", Name: "La Serena", Indicator: 7}))
	require.NoError(t, kvStore.SeedCounter(ctx, &domain.SequenceCounter{ID: "ctr-main", NextID: 4821}))

	hs := &hookedStore{Store: kvStore, calls: make(map[string]int)}
	p := &fakePrinter{}
	events := &recordingEmitter{}
	wf := NewPrintWorkflow(hs, p, weights, events, nil, WorkflowConfig{LoadBackoff: time.Millisecond}, discardLogger())
	wf.now = func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) }

	return &workflowFixture{wf: wf, store: hs, printer: p, events: events}
}

func grams(g int64) *int64 { return &g }

func validInput() PrintInput {
	return PrintInput{ProductID: "prod-dulce", BrandID: "brand-serena", Lot: "00235", WeightGrams: grams(500)}
}

func readNextID(t *testing.T, f *workflowFixture) int64 {
	t.Helper()
	c, err := f.store.Store.ReadCounter(context.Background())
	require.NoError(t, err)
	return c.NextID
}

func TestPrintWorkflow_PrintConsumesExactlyOneID(t *testing.T) {
	f := newWorkflowFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.wf.Start(ctx))
	assert.Equal(t, domain.StateReady, f.wf.State())

	result, err := f.wf.Print(ctx, validInput())
	require.NoError(t, err)

	assert.Equal(t, int64(4821), result.Record.CanID)
	assert.Equal(t, "701400482100235005006", result.Record.Code21)
	assert.Equal(t, int64(4822), readNextID(t, f))
	assert.Equal(t, domain.StateCompleted, f.wf.State())

	stored, err := f.store.GetRecordByCanID(ctx, 4821)
	require.NoError(t, err)
	assert.Equal(t, "00235", stored.Lot)
	assert.Equal(t, time.Date(2028, 3, 14, 0, 0, 0, 0, time.UTC), stored.ExpiryDate)

	jobs := f.printer.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "can-004821", jobs[0].Name)
	assert.Contains(t, string(jobs[0].Payload), "^FD701400482100235005006^FS")
	assert.True(t, f.events.Has(sse.EventPrintCompleted))

	snap := f.wf.Snapshot()
	require.NotNil(t, snap.Counter)
	assert.Equal(t, int64(4822), snap.Counter.NextID)
	assert.Equal(t, result, snap.Last)
}

func TestPrintWorkflow_SideEffectsAreOrdered(t *testing.T) {
	f := newWorkflowFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.wf.Start(ctx))

	var order []string
	f.store.append = func(context.Context) error { order = append(order, "persist"); return nil }
	f.store.advance = func(context.Context) error { order = append(order, "advance"); return nil }

	_, err := f.wf.Print(ctx, validInput())
	require.NoError(t, err)
	order = append(order, "dispatch:"+f.printer.Jobs()[0].Name)

	assert.Equal(t, []string{"persist", "advance", "dispatch:can-004821"}, order)
}

func TestPrintWorkflow_AdvanceFailureKeepsRecordAndCounter(t *testing.T) {
	f := newWorkflowFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.wf.Start(ctx))

	f.store.advance = func(context.Context) error { return errors.New("disk full") }

	_, err := f.wf.Print(ctx, validInput())
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrLedgerUpdateFailed))

	_, err = f.store.GetRecordByCanID(ctx, 4821)
	require.NoError(t, err, "record must remain")
	assert.Equal(t, int64(4821), readNextID(t, f))
	assert.Equal(t, int64(4821), f.wf.Snapshot().Counter.NextID)
	assert.Equal(t, domain.StateFaulted, f.wf.State())
	assert.Empty(t, f.printer.Jobs(), "nothing is printed for an unadvanced id")
	assert.True(t, f.events.Has(sse.EventReconcileRequired))
	assert.Equal(t, 1, f.store.Calls("AdvanceCounter"), "no automatic retry")

	// A reload refuses to hand out the same id again.
	f.store.advance = nil
	err = f.wf.Reload(ctx)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrLedgerUpdateFailed))
	assert.Equal(t, domain.StateFaulted, f.wf.State())

	result, err := f.wf.Reconcile(ctx)
	require.NoError(t, err)
	assert.True(t, result.Advanced)
	assert.Equal(t, int64(4821), result.PreviousNextID)
	assert.Equal(t, int64(4822), result.NextID)
	assert.Equal(t, domain.StateReady, f.wf.State())
	assert.True(t, f.events.Has(sse.EventReconciled))

	next, err := f.wf.Print(ctx, validInput())
	require.NoError(t, err)
	assert.Equal(t, int64(4822), next.Record.CanID)
}

func TestPrintWorkflow_ReconcileWithoutLagIsNoop(t *testing.T) {
	f := newWorkflowFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.wf.Start(ctx))

	result, err := f.wf.Reconcile(ctx)
	require.NoError(t, err)
	assert.False(t, result.Advanced)
	assert.Equal(t, int64(4821), result.NextID)
	assert.Zero(t, f.store.Calls("AdvanceCounter"))
}

func TestPrintWorkflow_ConcurrentPrintRejected(t *testing.T) {
	f := newWorkflowFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.wf.Start(ctx))

	f.printer.started = make(chan struct{})
	f.printer.release = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := f.wf.Print(ctx, validInput())
		done <- err
	}()

	<-f.printer.started
	_, err := f.wf.Print(ctx, validInput())
	assert.ErrorIs(t, err, domainerrors.ErrConcurrentPrint)
	assert.ErrorIs(t, f.wf.Reload(ctx), domainerrors.ErrConcurrentPrint)

	close(f.printer.release)
	require.NoError(t, <-done)

	recent, err := f.store.ListRecentRecords(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
	assert.Equal(t, int64(4822), readNextID(t, f))
}

func TestPrintWorkflow_InvalidLotAbortsWithoutIO(t *testing.T) {
	f := newWorkflowFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.wf.Start(ctx))

	in := validInput()
	in.Lot = "12a45"
	_, err := f.wf.Print(ctx, in)
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
	assert.Equal(t, "lot must be exactly 5 digits", err.Error())

	assert.Equal(t, domain.StateAborted, f.wf.State())
	assert.Zero(t, f.store.Calls("AppendRecord"))
	assert.Zero(t, f.store.Calls("AdvanceCounter"))
	assert.Empty(t, f.printer.Jobs())
	assert.Equal(t, domainerrors.CodeValidation, f.wf.Snapshot().Error.Code)

	// Aborted accepts the corrected input without a reload.
	result, err := f.wf.Print(ctx, validInput())
	require.NoError(t, err)
	assert.Equal(t, int64(4821), result.Record.CanID)
}

func TestPrintWorkflow_ValidationFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PrintInput)
		want   string
	}{
		{"missing product", func(in *PrintInput) { in.ProductID = "" }, "product_id is required"},
		{"unknown product", func(in *PrintInput) { in.ProductID = "prod-missing" }, "product_id is not in the catalog"},
		{"unknown brand", func(in *PrintInput) { in.BrandID = "brand-missing" }, "brand_id is not in the catalog"},
		{"negative weight", func(in *PrintInput) { in.WeightGrams = grams(-1) }, "weight_grams"},
		{"weight too large", func(in *PrintInput) { in.WeightGrams = grams(100000) }, "weight_grams must be at most 99999"},
		{"expiry before manufacture", func(in *PrintInput) {
			in.ManufactureDate = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
			in.ExpiryDate = time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC)
		}, "expiry_date must not be before manufacture_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newWorkflowFixture(t, nil)
			ctx := context.Background()
			require.NoError(t, f.wf.Start(ctx))

			in := validInput()
			tt.mutate(&in)
			_, err := f.wf.Print(ctx, in)
			require.Error(t, err)
			assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
			assert.Contains(t, err.Error(), tt.want)
			assert.Zero(t, f.store.Calls("AppendRecord"))
		})
	}
}

func TestPrintWorkflow_PersistFailureConsumesNothing(t *testing.T) {
	f := newWorkflowFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.wf.Start(ctx))

	f.store.append = func(context.Context) error { return errors.New("database is locked") }

	_, err := f.wf.Print(ctx, validInput())
	assert.True(t, domainerrors.Is(err, domainerrors.ErrPersist))
	assert.Equal(t, domain.StateFaulted, f.wf.State())
	assert.Zero(t, f.store.Calls("AdvanceCounter"))
	assert.Equal(t, int64(4821), readNextID(t, f))
	assert.Empty(t, f.printer.Jobs())
}

func TestPrintWorkflow_DuplicateCanID(t *testing.T) {
	f := newWorkflowFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.wf.Start(ctx))

	f.store.append = func(context.Context) error { return store.ErrDuplicateCanID }

	_, err := f.wf.Print(ctx, validInput())
	assert.True(t, domainerrors.Is(err, domainerrors.ErrDuplicateCanID))
	assert.Zero(t, f.store.Calls("AdvanceCounter"))
	assert.True(t, f.events.Has(sse.EventReconcileRequired))
}

func TestPrintWorkflow_DispatchFailureThenReprint(t *testing.T) {
	f := newWorkflowFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.wf.Start(ctx))

	f.printer.SetErr(domainerrors.DeviceUnavailable("printer offline"))
	_, err := f.wf.Print(ctx, validInput())
	assert.True(t, domainerrors.Is(err, domainerrors.ErrDeviceUnavailable))
	assert.Equal(t, domain.StateFaulted, f.wf.State())
	assert.Equal(t, int64(4822), readNextID(t, f), "record and counter stay committed")

	f.printer.SetErr(nil)
	rec, err := f.wf.Reprint(ctx, 4821)
	require.NoError(t, err)
	assert.Equal(t, "701400482100235005006", rec.Code21)
	require.Len(t, f.printer.Jobs(), 1)
	assert.Contains(t, string(f.printer.Jobs()[0].Payload), "Dulce de leche")
	assert.Equal(t, int64(4822), readNextID(t, f), "reprint consumes no id")

	_, err = f.wf.Reprint(ctx, 9999)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}

func TestPrintWorkflow_FinishesAfterCallerCancels(t *testing.T) {
	f := newWorkflowFixture(t, nil)
	require.NoError(t, f.wf.Start(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	var advanceCtxErr error
	f.store.append = func(context.Context) error { cancel(); return nil }
	f.store.advance = func(ctx context.Context) error { advanceCtxErr = ctx.Err(); return nil }

	result, err := f.wf.Print(ctx, validInput())
	require.NoError(t, err)
	assert.NoError(t, advanceCtxErr)
	assert.Equal(t, int64(4821), result.Record.CanID)
	assert.Equal(t, int64(4822), readNextID(t, f))
}

func TestPrintWorkflow_ContinueSameArticle(t *testing.T) {
	f := newWorkflowFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.wf.Start(ctx))

	assert.Error(t, f.wf.Continue(ctx, true), "nothing to continue before a print")

	_, err := f.wf.Print(ctx, validInput())
	require.NoError(t, err)
	require.NoError(t, f.wf.Continue(ctx, true))

	snap := f.wf.Snapshot()
	assert.Equal(t, domain.StateReady, snap.State)
	assert.Equal(t, "prod-dulce", snap.Draft.ProductID)
	assert.Equal(t, "00235", snap.Draft.Lot)
	assert.Zero(t, snap.Draft.WeightGrams)
	assert.Equal(t, 1, f.store.Calls("ReadCounter"), "same article does not reload")

	_, err = f.wf.Print(ctx, validInput())
	require.NoError(t, err)
	require.NoError(t, f.wf.Continue(ctx, false))
	assert.Equal(t, domain.StateReady, f.wf.State())
	assert.Equal(t, 2, f.store.Calls("ReadCounter"))
	assert.Empty(t, f.wf.Snapshot().Draft.Lot)
}

func TestPrintWorkflow_SameArticleNeedsOnlyWeight(t *testing.T) {
	f := newWorkflowFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.wf.Start(ctx))

	_, err := f.wf.Print(ctx, validInput())
	require.NoError(t, err)
	require.NoError(t, f.wf.Continue(ctx, true))

	result, err := f.wf.Print(ctx, PrintInput{WeightGrams: grams(480)})
	require.NoError(t, err)
	assert.Equal(t, int64(4822), result.Record.CanID)
	assert.Equal(t, "prod-dulce", result.Record.ProductID)
	assert.Equal(t, "brand-serena", result.Record.BrandID)
	assert.Equal(t, "00235", result.Record.Lot)
	assert.Equal(t, int64(480), result.Record.WeightGrams)

	// A new article starts from an empty draft again.
	result, err = f.wf.Print(ctx, PrintInput{WeightGrams: grams(480)})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "not ready to print")
	require.NoError(t, f.wf.Continue(ctx, false))
	_, err = f.wf.Print(ctx, PrintInput{WeightGrams: grams(480)})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
	assert.Contains(t, err.Error(), "product_id is required")
}

func TestPrintWorkflow_SequenceOverflowFaultsWithoutIO(t *testing.T) {
	f := newWorkflowFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.wf.Start(ctx))
	require.NoError(t, f.store.Store.AdvanceCounter(ctx, "ctr-main", 1000000))
	require.NoError(t, f.wf.Reload(ctx))

	_, err := f.wf.Print(ctx, validInput())
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrEncoding))
	assert.Contains(t, err.Error(), "can id 1000000 does not fit in 6 digits")

	assert.Equal(t, domain.StateFaulted, f.wf.State())
	assert.Equal(t, domainerrors.CodeEncoding, f.wf.Snapshot().Error.Code)
	assert.Zero(t, f.store.Calls("AppendRecord"))
	assert.Zero(t, f.store.Calls("AdvanceCounter"))
	assert.Empty(t, f.printer.Jobs())
	assert.Equal(t, int64(1000000), readNextID(t, f))
	assert.True(t, f.events.Has(sse.EventPrintFailed))
}

func TestPrintWorkflow_WideProductCodeFaultsWithoutIO(t *testing.T) {
	f := newWorkflowFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.store.UpsertProduct(ctx, &domain.Product{
		ID: "prod-wide", Name: "Mermelada", ProductCode: "1234", RNE: "02-033527", RNPA: "02-654321",
	}))
	require.NoError(t, f.wf.Start(ctx))

	in := validInput()
	in.ProductID = "prod-wide"
	_, err := f.wf.Print(ctx, in)
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrEncoding))
	assert.Contains(t, err.Error(), `product code "1234" must be 1 to 3 digits`)

	assert.Equal(t, domain.StateFaulted, f.wf.State())
	assert.Zero(t, f.store.Calls("AppendRecord"))
	assert.Zero(t, f.store.Calls("AdvanceCounter"))
	assert.Empty(t, f.printer.Jobs())
	assert.Equal(t, int64(4821), readNextID(t, f))
}

func TestPrintWorkflow_WeightFromScale(t *testing.T) {
	f := newWorkflowFixture(t, fixedWeight{grams: 1250, ok: true})
	ctx := context.Background()
	require.NoError(t, f.wf.Start(ctx))

	in := validInput()
	in.WeightGrams = nil
	result, err := f.wf.Print(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, int64(1250), result.Record.WeightGrams)
	assert.True(t, strings.HasSuffix(result.Record.Code21[:20], "01250"))
}

func TestPrintWorkflow_NoScaleReading(t *testing.T) {
	f := newWorkflowFixture(t, fixedWeight{})
	ctx := context.Background()
	require.NoError(t, f.wf.Start(ctx))

	in := validInput()
	in.WeightGrams = nil
	_, err := f.wf.Print(ctx, in)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
	assert.Equal(t, domain.StateAborted, f.wf.State())
}

func TestPrintWorkflow_PrintRequiresLoad(t *testing.T) {
	f := newWorkflowFixture(t, nil)

	_, err := f.wf.Print(context.Background(), validInput())
	assert.True(t, domainerrors.Is(err, domainerrors.ErrConflict))
	assert.Zero(t, f.store.Calls("AppendRecord"))
}

func TestPrintWorkflow_LoadRetriesTransientFailures(t *testing.T) {
	f := newWorkflowFixture(t, nil)
	f.store.readCounter = func(call int) error {
		if call < 3 {
			return errors.New("database is locked")
		}
		return nil
	}

	require.NoError(t, f.wf.Start(context.Background()))
	assert.Equal(t, 3, f.store.Calls("ReadCounter"))
	assert.Equal(t, domain.StateReady, f.wf.State())
}

func TestPrintWorkflow_LoadFailureFaults(t *testing.T) {
	f := newWorkflowFixture(t, nil)
	f.store.readCounter = func(int) error { return errors.New("database is locked") }

	err := f.wf.Start(context.Background())
	assert.True(t, domainerrors.Is(err, domainerrors.ErrLoad))
	assert.Equal(t, domain.StateFaulted, f.wf.State())
	assert.Equal(t, 4, f.store.Calls("ReadCounter"), "one attempt plus three retries")
}

func TestPrintWorkflow_UnseededCounterIsNotRetried(t *testing.T) {
	f := newWorkflowFixture(t, nil)
	f.store.readCounter = func(int) error { return store.ErrCounterNotFound }

	err := f.wf.Start(context.Background())
	assert.True(t, domainerrors.Is(err, domainerrors.ErrLoad))
	assert.Equal(t, 1, f.store.Calls("ReadCounter"))
}

func TestPrintWorkflow_LaggingLedgerBlocksLoad(t *testing.T) {
	f := newWorkflowFixture(t, nil)
	ctx := context.Background()

	rec := &domain.PrintRecord{
		CanID: 4821, Lot: "00235", ProductID: "prod-dulce", BrandID: "brand-serena",
		Code21: "701400482100235005006", PrintedAt: time.Now(),
	}
	_, err := f.store.Store.AppendRecord(ctx, rec)
	require.NoError(t, err)

	err = f.wf.Start(ctx)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrLedgerUpdateFailed))
	assert.Equal(t, domain.StateFaulted, f.wf.State())
	assert.True(t, f.events.Has(sse.EventReconcileRequired))
}
