package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/canlabel/labeler-station/internal/code21"
	"github.com/canlabel/labeler-station/internal/domain"
	domainerrors "github.com/canlabel/labeler-station/internal/errors"
	"github.com/canlabel/labeler-station/internal/id"
	"github.com/canlabel/labeler-station/internal/label"
	"github.com/canlabel/labeler-station/internal/metrics"
	"github.com/canlabel/labeler-station/internal/printer"
	"github.com/canlabel/labeler-station/internal/sse"
	"github.com/canlabel/labeler-station/internal/store"
	"github.com/canlabel/labeler-station/internal/validation"
)

// Failure stages reported to metrics.
const (
	stageLoad     = "load"
	stageValidate = "validate"
	stageEncode   = "encode"
	stagePersist  = "persist"
	stageAdvance  = "advance"
	stageDispatch = "dispatch"
	stageReprint  = "reprint"
)

// WorkflowStore is the persistence the print workflow reads and writes.
type WorkflowStore interface {
	store.Catalog
	store.Ledger
	store.RecordStore
}

// WeightSource provides the most recent scale reading.
type WeightSource interface {
	Current() (grams int64, ok bool)
}

// EventEmitter broadcasts workflow events to connected operators.
type EventEmitter interface {
	Emit(event sse.Event)
}

// NoopEmitter discards events.
type NoopEmitter struct{}

// Emit implements EventEmitter.
func (NoopEmitter) Emit(sse.Event) {}

// WorkflowConfig tunes the print workflow.
type WorkflowConfig struct {
	ShelfLifeYears int
	// LoadRetries bounds the retries of each loading fetch.
	LoadRetries int
	// LoadBackoff is the first retry delay; later delays grow exponentially.
	LoadBackoff time.Duration
}

// PrintInput is the operator's request for one label.
// Zero dates fall back to the current draft; a nil weight uses the scale.
type PrintInput struct {
	ManufactureDate time.Time
	ExpiryDate      time.Time
	WeightGrams     *int64
	ProductID       string
	BrandID         string
	Lot             string
}

// PrintResult describes a completed print.
type PrintResult struct {
	Record    *domain.PrintRecord `json:"record"`
	AttemptID string              `json:"attempt_id"`
	Printer   string              `json:"printer"`
}

// WorkflowSnapshot is a copy of the workflow state for display.
type WorkflowSnapshot struct {
	LoadedAt  time.Time               `json:"loaded_at"`
	Counter   *domain.SequenceCounter `json:"counter,omitempty"`
	Last      *PrintResult            `json:"last,omitempty"`
	Error     *domainerrors.Error     `json:"error,omitempty"`
	State     domain.WorkflowState    `json:"state"`
	AttemptID string                  `json:"attempt_id,omitempty"`
	Draft     domain.LabelOrder       `json:"draft"`
	Products  int                     `json:"products"`
	Brands    int                     `json:"brands"`
}

// ReconcileResult reports what Reconcile changed.
type ReconcileResult struct {
	CounterID      string `json:"counter_id"`
	PreviousNextID int64  `json:"previous_next_id"`
	NextID         int64  `json:"next_id"`
	MaxCanID       int64  `json:"max_can_id"`
	Advanced       bool   `json:"advanced"`
}

// loaded is the data fetched by one loading pass.
type loaded struct {
	at       time.Time
	counter  domain.SequenceCounter
	products map[string]*domain.Product
	brands   map[string]*domain.Brand
	// Sorted lists as returned by the catalog, kept for display.
	productList []*domain.Product
	brandList   []*domain.Brand
}

// PrintWorkflow issues can ids and prints their labels.
//
// Every print runs validate, encode, persist, advance and dispatch in that
// order. A can id is consumed only once its record is durable, and the
// counter is advanced only after that. Once persisting starts the attempt
// finishes even if the caller goes away.
type PrintWorkflow struct {
	store     WorkflowStore
	printer   printer.Printer
	weights   WeightSource
	validator *validation.Validator
	events    EventEmitter
	metrics   *metrics.Metrics
	logger    *slog.Logger
	cfg       WorkflowConfig
	now       func() time.Time

	// inFlight is set for the whole duration of any operation that may
	// touch the ledger or the printer.
	inFlight atomic.Bool

	mu        sync.Mutex
	state     domain.WorkflowState
	attemptID string
	data      *loaded
	draft     domain.LabelOrder
	last      *PrintResult
	lastErr   *domainerrors.Error
}

// NewPrintWorkflow creates a workflow in the idle state. weights, events and m may be nil.
func NewPrintWorkflow(
	st WorkflowStore,
	p printer.Printer,
	weights WeightSource,
	events EventEmitter,
	m *metrics.Metrics,
	cfg WorkflowConfig,
	logger *slog.Logger,
) *PrintWorkflow {
	if events == nil {
		events = NoopEmitter{}
	}
	if cfg.ShelfLifeYears <= 0 {
		cfg.ShelfLifeYears = domain.DefaultShelfLifeYears
	}
	if cfg.LoadRetries <= 0 {
		cfg.LoadRetries = 3
	}
	if cfg.LoadBackoff <= 0 {
		cfg.LoadBackoff = 200 * time.Millisecond
	}
	return &PrintWorkflow{
		store:     st,
		printer:   p,
		weights:   weights,
		validator: validation.New(),
		events:    events,
		metrics:   m,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
		state:     domain.StateIdle,
	}
}

// Start loads the counter and catalog and leaves the workflow ready.
func (w *PrintWorkflow) Start(ctx context.Context) error {
	return w.Reload(ctx)
}

// Reload discards the current snapshot and loads it again.
func (w *PrintWorkflow) Reload(ctx context.Context) error {
	if !w.inFlight.CompareAndSwap(false, true) {
		return domainerrors.ErrConcurrentPrint
	}
	defer w.inFlight.Store(false)

	w.mu.Lock()
	w.data = nil
	w.mu.Unlock()
	w.transition(domain.StateIdle, "")
	return w.load(ctx)
}

// load runs idle -> loading -> ready. The caller holds inFlight.
func (w *PrintWorkflow) load(ctx context.Context) error {
	w.transition(domain.StateLoading, "")

	var (
		counter  *domain.SequenceCounter
		products []*domain.Product
		brands   []*domain.Brand
		maxCanID int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		counter, err = retryRead(gctx, w, "counter", w.store.ReadCounter)
		return err
	})
	g.Go(func() (err error) {
		products, err = retryRead(gctx, w, "products", w.store.ListProducts)
		return err
	})
	g.Go(func() (err error) {
		brands, err = retryRead(gctx, w, "brands", w.store.ListBrands)
		return err
	})
	g.Go(func() (err error) {
		maxCanID, err = retryRead(gctx, w, "max can id", w.store.MaxCanID)
		return err
	})

	if err := g.Wait(); err != nil {
		derr := domainerrors.Wrap(err, domainerrors.CodeLoad, "failed to load station data")
		w.fail(domain.StateFaulted, "", stageLoad, derr)
		return derr
	}

	if counter.Lags(maxCanID) {
		derr := domainerrors.ErrLedgerUpdateFailed.WithDetails(ReconcileResult{
			CounterID:      counter.ID,
			PreviousNextID: counter.NextID,
			NextID:         counter.NextID,
			MaxCanID:       maxCanID,
		})
		w.fail(domain.StateFaulted, "", stageLoad, derr)
		w.events.Emit(sse.NewReconcileRequiredEvent(counter.ID, counter.NextID, maxCanID))
		return derr
	}

	data := &loaded{
		at:          w.now(),
		counter:     *counter,
		products:    make(map[string]*domain.Product, len(products)),
		brands:      make(map[string]*domain.Brand, len(brands)),
		productList: products,
		brandList:   brands,
	}
	for _, p := range products {
		data.products[p.ID] = p
	}
	for _, b := range brands {
		data.brands[b.ID] = b
	}

	manufacture, expiry := domain.DefaultDates(data.at, w.cfg.ShelfLifeYears)

	w.mu.Lock()
	w.data = data
	w.draft = domain.LabelOrder{ManufactureDate: manufacture, ExpiryDate: expiry}
	w.lastErr = nil
	w.mu.Unlock()

	w.metrics.SetNextID(counter.NextID)
	w.logger.Info("station data loaded",
		slog.Int64("next_id", counter.NextID),
		slog.Int("products", len(products)),
		slog.Int("brands", len(brands)))

	w.transition(domain.StateReady, "")
	return nil
}

// retryRead runs an idempotent read with bounded exponential backoff.
// Not-found results are permanent and are not retried.
func retryRead[T any](ctx context.Context, w *PrintWorkflow, what string, read func(context.Context) (T, error)) (T, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = w.cfg.LoadBackoff
	policy.MaxElapsedTime = 0

	var result T
	op := func() error {
		v, err := read(ctx)
		if err != nil {
			if errors.Is(err, store.ErrCounterNotFound) || errors.Is(err, store.ErrNotFound) {
				return backoff.Permanent(err)
			}
			return err
		}
		result = v
		return nil
	}
	notify := func(err error, next time.Duration) {
		w.logger.Warn("load fetch failed, retrying",
			slog.String("fetch", what),
			slog.String("error", err.Error()),
			slog.Duration("retry_in", next))
	}

	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(w.cfg.LoadRetries)), ctx)
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return result, fmt.Errorf("read %s: %w", what, err)
	}
	return result, nil
}

// Print runs one print attempt.
func (w *PrintWorkflow) Print(ctx context.Context, in PrintInput) (*PrintResult, error) {
	if !w.inFlight.CompareAndSwap(false, true) {
		w.logger.Warn("print rejected, another attempt is in flight")
		return nil, domainerrors.ErrConcurrentPrint
	}
	defer w.inFlight.Store(false)

	w.mu.Lock()
	state, data, draft := w.state, w.data, w.draft
	w.mu.Unlock()
	if !state.AcceptsPrint() || data == nil {
		return nil, domainerrors.Conflictf("workflow is %s, not ready to print", state)
	}

	started := w.now()
	attemptID := id.Attempt()
	log := w.logger.With(slog.String("attempt_id", attemptID))

	// validating
	w.transition(domain.StateValidating, attemptID)
	order, product, brand, err := w.validate(in, draft, data)
	if err != nil {
		w.fail(domain.StateAborted, attemptID, stageValidate, err)
		return nil, err
	}
	w.mu.Lock()
	w.draft = order
	w.mu.Unlock()

	// encoding
	w.transition(domain.StateEncoding, attemptID)
	canID := data.counter.NextID
	code, err := code21.Encode(code21.Fields{
		Indicator:   brand.Indicator,
		ProductCode: code21.PadProductCode(product.ProductCode),
		SequenceID:  canID,
		Lot:         order.Lot,
		WeightGrams: order.WeightGrams,
	})
	if err != nil {
		w.fail(domain.StateFaulted, attemptID, stageEncode, err)
		return nil, err
	}

	// From here on the attempt completes regardless of the caller.
	ctx = context.WithoutCancel(ctx)

	// persisting
	w.transition(domain.StatePersisting, attemptID)
	rec := &domain.PrintRecord{
		CanID:           canID,
		Lot:             order.Lot,
		ProductID:       product.ID,
		BrandID:         brand.ID,
		WeightGrams:     order.WeightGrams,
		RNE:             product.RNE,
		RNPA:            product.RNPA,
		Code21:          code,
		ManufactureDate: order.ManufactureDate,
		ExpiryDate:      order.ExpiryDate,
		PrintedAt:       w.now(),
	}
	recordID, err := w.store.AppendRecord(ctx, rec)
	if err != nil {
		var derr *domainerrors.Error
		if errors.Is(err, store.ErrDuplicateCanID) {
			derr = domainerrors.Wrapf(err, domainerrors.CodeDuplicateCanID, "can id %d already has a print record", canID)
			w.events.Emit(sse.NewReconcileRequiredEvent(data.counter.ID, canID, canID))
		} else {
			derr = domainerrors.Wrapf(err, domainerrors.CodePersist, "print record for can id %d could not be stored", canID)
		}
		w.fail(domain.StateFaulted, attemptID, stagePersist, derr)
		return nil, derr
	}
	rec.ID = recordID
	log.Info("print record stored", slog.Int64("can_id", canID), slog.String("code21", code))

	// advancing
	w.transition(domain.StateAdvancing, attemptID)
	if err := w.store.AdvanceCounter(ctx, data.counter.ID, canID+1); err != nil {
		derr := domainerrors.Wrapf(err, domainerrors.CodeLedgerUpdateFailed,
			"can id %d was recorded but the counter was not advanced, reconcile the ledger", canID)
		w.fail(domain.StateFaulted, attemptID, stageAdvance, derr)
		w.events.Emit(sse.NewReconcileRequiredEvent(data.counter.ID, canID, canID))
		return nil, derr
	}
	w.mu.Lock()
	data.counter.NextID = canID + 1
	w.mu.Unlock()
	w.metrics.SetNextID(canID + 1)

	// dispatching
	w.transition(domain.StateDispatching, attemptID)
	if err := w.dispatch(ctx, rec, product.Name); err != nil {
		derr := domainerrors.Wrapf(err, domainerrors.CodeDeviceUnavailable,
			"label for can id %d was recorded but not printed, reprint it", canID)
		w.fail(domain.StateFaulted, attemptID, stageDispatch, derr)
		return nil, derr
	}

	result := &PrintResult{Record: rec, AttemptID: attemptID, Printer: w.printer.Describe()}
	w.mu.Lock()
	w.last = result
	w.lastErr = nil
	w.mu.Unlock()

	w.metrics.LabelPrinted(w.now().Sub(started))
	w.transition(domain.StateCompleted, attemptID)
	w.events.Emit(sse.NewPrintCompletedEvent(attemptID, rec))
	log.Info("label printed", slog.Int64("can_id", canID), slog.String("lot", rec.Lot))
	return result, nil
}

// validate resolves the input against the draft and the loaded catalog. Empty fields
// keep the draft's value. It does no I/O.
func (w *PrintWorkflow) validate(in PrintInput, draft domain.LabelOrder, data *loaded) (domain.LabelOrder, *domain.Product, *domain.Brand, error) {
	order := domain.LabelOrder{
		ProductID:       in.ProductID,
		BrandID:         in.BrandID,
		Lot:             in.Lot,
		ManufactureDate: in.ManufactureDate,
		ExpiryDate:      in.ExpiryDate,
	}
	if order.ProductID == "" {
		order.ProductID = draft.ProductID
	}
	if order.BrandID == "" {
		order.BrandID = draft.BrandID
	}
	if order.Lot == "" {
		order.Lot = draft.Lot
	}
	if order.ManufactureDate.IsZero() {
		order.ManufactureDate = draft.ManufactureDate
	}
	if order.ExpiryDate.IsZero() {
		if in.ManufactureDate.IsZero() {
			order.ExpiryDate = draft.ExpiryDate
		} else {
			_, order.ExpiryDate = domain.DefaultDates(order.ManufactureDate, w.cfg.ShelfLifeYears)
		}
	}

	switch {
	case in.WeightGrams != nil:
		order.WeightGrams = *in.WeightGrams
	case w.weights != nil:
		grams, ok := w.weights.Current()
		if !ok {
			return order, nil, nil, domainerrors.ValidationWithDetails("weight_grams is required, no scale reading",
				map[string]string{"weight_grams": "is required"})
		}
		order.WeightGrams = grams
	default:
		return order, nil, nil, domainerrors.ValidationWithDetails("weight_grams is required",
			map[string]string{"weight_grams": "is required"})
	}

	if err := w.validator.Validate(order); err != nil {
		return order, nil, nil, err
	}

	product, ok := data.products[order.ProductID]
	if !ok {
		return order, nil, nil, domainerrors.ValidationWithDetails("product_id is not in the catalog",
			map[string]string{"product_id": "is not in the catalog"})
	}
	brand, ok := data.brands[order.BrandID]
	if !ok {
		return order, nil, nil, domainerrors.ValidationWithDetails("brand_id is not in the catalog",
			map[string]string{"brand_id": "is not in the catalog"})
	}
	if order.WeightGrams > code21.MaxWeight {
		return order, nil, nil, domainerrors.ValidationWithDetails(
			fmt.Sprintf("weight_grams must be at most %d", code21.MaxWeight),
			map[string]string{"weight_grams": fmt.Sprintf("must be at most %d", code21.MaxWeight)})
	}
	if order.ExpiryDate.Before(order.ManufactureDate) {
		return order, nil, nil, domainerrors.ValidationWithDetails("expiry_date must not be before manufacture_date",
			map[string]string{"expiry_date": "must not be before manufacture_date"})
	}
	return order, product, brand, nil
}

func (w *PrintWorkflow) dispatch(ctx context.Context, rec *domain.PrintRecord, productName string) error {
	return w.printer.Send(ctx, printer.Job{
		Name:    fmt.Sprintf("can-%06d", rec.CanID),
		Payload: label.Render(label.FromRecord(rec, productName)),
	})
}

// Continue leaves the completed state. With sameArticle the draft keeps
// product, brand, lot and dates and the workflow is ready at once; otherwise
// everything is reloaded.
func (w *PrintWorkflow) Continue(ctx context.Context, sameArticle bool) error {
	if !w.inFlight.CompareAndSwap(false, true) {
		return domainerrors.ErrConcurrentPrint
	}
	defer w.inFlight.Store(false)

	w.mu.Lock()
	state := w.state
	if state != domain.StateCompleted {
		w.mu.Unlock()
		return domainerrors.Conflictf("workflow is %s, nothing to continue", state)
	}
	if sameArticle {
		w.draft.WeightGrams = 0
		w.mu.Unlock()
		w.transition(domain.StateReady, "")
		return nil
	}
	w.data = nil
	w.mu.Unlock()

	w.transition(domain.StateIdle, "")
	return w.load(ctx)
}

// Reprint sends the label of a stored record again. No can id is consumed
// and the workflow state does not change.
func (w *PrintWorkflow) Reprint(ctx context.Context, canID int64) (*domain.PrintRecord, error) {
	if !w.inFlight.CompareAndSwap(false, true) {
		return nil, domainerrors.ErrConcurrentPrint
	}
	defer w.inFlight.Store(false)

	rec, err := w.store.GetRecordByCanID(ctx, canID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("no print record for can id %d", canID).WithCause(err)
		}
		return nil, fmt.Errorf("get record %d: %w", canID, err)
	}

	name, err := w.productName(ctx, rec.ProductID)
	if err != nil {
		return nil, err
	}

	if err := w.dispatch(ctx, rec, name); err != nil {
		w.metrics.PrintFailed(stageReprint)
		return nil, domainerrors.Wrapf(err, domainerrors.CodeDeviceUnavailable, "reprint of can id %d failed", canID)
	}

	w.metrics.LabelReprinted()
	w.events.Emit(sse.NewLabelReprintedEvent(rec))
	w.logger.Info("label reprinted", slog.Int64("can_id", canID))
	return rec, nil
}

// productName prefers the loaded catalog and falls back to the store.
// A product removed from the catalog still reprints under its id.
func (w *PrintWorkflow) productName(ctx context.Context, productID string) (string, error) {
	w.mu.Lock()
	data := w.data
	w.mu.Unlock()
	if data != nil {
		if p, ok := data.products[productID]; ok {
			return p.Name, nil
		}
	}

	products, err := w.store.ListProducts(ctx)
	if err != nil {
		return "", fmt.Errorf("list products: %w", err)
	}
	for _, p := range products {
		if p.ID == productID {
			return p.Name, nil
		}
	}
	return productID, nil
}

// Reconcile moves a lagging counter past the highest recorded can id and
// reloads. It never moves the counter backwards.
func (w *PrintWorkflow) Reconcile(ctx context.Context) (*ReconcileResult, error) {
	if !w.inFlight.CompareAndSwap(false, true) {
		return nil, domainerrors.ErrConcurrentPrint
	}
	defer w.inFlight.Store(false)

	counter, err := w.store.ReadCounter(ctx)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeLoad, "failed to read counter")
	}
	maxCanID, err := w.store.MaxCanID(ctx)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeLoad, "failed to read print log")
	}

	result := &ReconcileResult{
		CounterID:      counter.ID,
		PreviousNextID: counter.NextID,
		NextID:         counter.NextID,
		MaxCanID:       maxCanID,
	}

	if counter.Lags(maxCanID) {
		if err := w.store.AdvanceCounter(ctx, counter.ID, maxCanID+1); err != nil {
			return nil, domainerrors.Wrapf(err, domainerrors.CodeLedgerUpdateFailed,
				"could not advance counter to %d", maxCanID+1)
		}
		result.NextID = maxCanID + 1
		result.Advanced = true
		w.events.Emit(sse.NewReconciledEvent(counter.ID, result.NextID, maxCanID))
		w.logger.Warn("ledger reconciled",
			slog.String("counter_id", counter.ID),
			slog.Int64("from", result.PreviousNextID),
			slog.Int64("to", result.NextID))
	}

	w.mu.Lock()
	w.data = nil
	w.mu.Unlock()
	if err := w.load(ctx); err != nil {
		return result, err
	}
	return result, nil
}

// Snapshot returns a copy of the current workflow state.
func (w *PrintWorkflow) Snapshot() WorkflowSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := WorkflowSnapshot{
		State:     w.state,
		AttemptID: w.attemptID,
		Draft:     w.draft,
		Last:      w.last,
		Error:     w.lastErr,
	}
	if w.data != nil {
		counter := w.data.counter
		snap.Counter = &counter
		snap.LoadedAt = w.data.at
		snap.Products = len(w.data.productList)
		snap.Brands = len(w.data.brandList)
	}
	return snap
}

// Catalog returns the loaded products and brands. ok is false before the first load.
func (w *PrintWorkflow) Catalog() (products []*domain.Product, brands []*domain.Brand, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.data == nil {
		return nil, nil, false
	}
	return w.data.productList, w.data.brandList, true
}

// State returns the current state.
func (w *PrintWorkflow) State() domain.WorkflowState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *PrintWorkflow) transition(to domain.WorkflowState, attemptID string) {
	w.mu.Lock()
	from := w.state
	w.state = to
	w.attemptID = attemptID
	var nextID int64
	if w.data != nil {
		nextID = w.data.counter.NextID
	}
	w.mu.Unlock()

	w.logger.Debug("workflow transition",
		slog.String("from", string(from)),
		slog.String("to", string(to)),
		slog.String("attempt_id", attemptID))
	w.events.Emit(sse.NewWorkflowStateEvent(to, attemptID, nextID))
}

// fail records err as the outcome of the attempt and moves to state.
func (w *PrintWorkflow) fail(state domain.WorkflowState, attemptID, stage string, err error) {
	derr := asDomainError(err)

	w.mu.Lock()
	w.lastErr = derr
	w.mu.Unlock()

	w.metrics.PrintFailed(stage)
	w.logger.Error("print workflow failed",
		slog.String("stage", stage),
		slog.String("attempt_id", attemptID),
		slog.String("code", string(derr.Code)),
		slog.String("error", err.Error()))

	w.transition(state, attemptID)
	w.events.Emit(sse.NewPrintFailedEvent(attemptID, state, string(derr.Code), derr.Error()))
}

func asDomainError(err error) *domainerrors.Error {
	var derr *domainerrors.Error
	if errors.As(err, &derr) {
		return derr
	}
	return domainerrors.ErrInternal.WithCause(err)
}
