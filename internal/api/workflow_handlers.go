package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/canlabel/labeler-station/internal/domain"
	"github.com/canlabel/labeler-station/internal/service"
)

func (s *Server) registerWorkflowRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getWorkflow",
		Method:      http.MethodGet,
		Path:        "/api/v1/workflow",
		Summary:     "Get workflow state",
		Description: "Returns the print workflow state, counter, draft and last outcome",
		Tags:        []string{"Workflow"},
	}, s.handleGetWorkflow)

	huma.Register(s.api, huma.Operation{
		OperationID: "reloadWorkflow",
		Method:      http.MethodPost,
		Path:        "/api/v1/workflow/reload",
		Summary:     "Reload station data",
		Description: "Reloads the counter and catalog. Fails with LEDGER_UPDATE_FAILED when the ledger needs reconciliation.",
		Tags:        []string{"Workflow"},
	}, s.handleReloadWorkflow)

	huma.Register(s.api, huma.Operation{
		OperationID: "printLabel",
		Method:      http.MethodPost,
		Path:        "/api/v1/workflow/print",
		Summary:     "Print a label",
		Description: "Validates the order, consumes the next can id, stores the record, advances the counter and sends the label to the printer.",
		Tags:        []string{"Workflow"},
	}, s.handlePrint)

	huma.Register(s.api, huma.Operation{
		OperationID: "continueWorkflow",
		Method:      http.MethodPost,
		Path:        "/api/v1/workflow/continue",
		Summary:     "Continue after a print",
		Description: "Keeps the article for the next can, or reloads everything",
		Tags:        []string{"Workflow"},
	}, s.handleContinue)

	huma.Register(s.api, huma.Operation{
		OperationID: "reconcileLedger",
		Method:      http.MethodPost,
		Path:        "/api/v1/workflow/reconcile",
		Summary:     "Reconcile ledger",
		Description: "Moves a lagging counter past the highest recorded can id, then reloads",
		Tags:        []string{"Workflow"},
	}, s.handleReconcile)

	huma.Register(s.api, huma.Operation{
		OperationID: "getLedgerAudit",
		Method:      http.MethodGet,
		Path:        "/api/v1/ledger",
		Summary:     "Audit ledger",
		Description: "Compares the counter with the print log and lists can id gaps",
		Tags:        []string{"Workflow"},
	}, s.handleLedgerAudit)
}

// WorkflowOutput wraps the workflow snapshot for Huma.
type WorkflowOutput struct {
	Body service.WorkflowSnapshot
}

func (s *Server) handleGetWorkflow(_ context.Context, _ *struct{}) (*WorkflowOutput, error) {
	return &WorkflowOutput{Body: s.services.Workflow.Snapshot()}, nil
}

func (s *Server) handleReloadWorkflow(ctx context.Context, _ *struct{}) (*WorkflowOutput, error) {
	if err := s.services.Workflow.Reload(ctx); err != nil {
		return nil, toStatusError(err)
	}
	return &WorkflowOutput{Body: s.services.Workflow.Snapshot()}, nil
}

// PrintRequest is the operator's label order.
// Empty fields keep the current draft's value. Fields still missing are reported by
// workflow validation so the attempt is recorded as aborted.
type PrintRequest struct {
	ProductID       string     `json:"product_id,omitempty" doc:"Catalog product id"`
	BrandID         string     `json:"brand_id,omitempty" doc:"Catalog brand id"`
	Lot             string     `json:"lot,omitempty" doc:"Exactly 5 digits" example:"00235"`
	ManufactureDate *LabelDate `json:"manufacture_date,omitempty" doc:"Defaults to today"`
	ExpiryDate      *LabelDate `json:"expiry_date,omitempty" doc:"Defaults to manufacture date plus the shelf life"`
	WeightGrams     *int64     `json:"weight_grams,omitempty" doc:"Net weight in grams; the current scale reading when omitted"`
}

// PrintInput contains parameters for printing a label.
type PrintInput struct {
	Body PrintRequest
}

// PrintOutput wraps the print result for Huma.
type PrintOutput struct {
	Body PrintResponse
}

// PrintResponse describes a printed label.
type PrintResponse struct {
	AttemptID string         `json:"attempt_id" doc:"Correlation id of the print attempt"`
	Printer   string         `json:"printer" doc:"Where the label was sent"`
	Record    RecordResponse `json:"record" doc:"The stored print record"`
}

func (s *Server) handlePrint(ctx context.Context, input *PrintInput) (*PrintOutput, error) {
	body := input.Body
	result, err := s.services.Workflow.Print(ctx, service.PrintInput{
		ProductID:       body.ProductID,
		BrandID:         body.BrandID,
		Lot:             body.Lot,
		ManufactureDate: timeOrZero(body.ManufactureDate),
		ExpiryDate:      timeOrZero(body.ExpiryDate),
		WeightGrams:     body.WeightGrams,
	})
	if err != nil {
		return nil, toStatusError(err)
	}

	return &PrintOutput{
		Body: PrintResponse{
			AttemptID: result.AttemptID,
			Printer:   result.Printer,
			Record:    toRecordResponse(result.Record),
		},
	}, nil
}

// ContinueRequest chooses how to leave the completed state.
type ContinueRequest struct {
	SameArticle bool `json:"same_article" doc:"Keep product, brand, lot and dates for the next can"`
}

// ContinueInput contains parameters for continuing the workflow.
type ContinueInput struct {
	Body ContinueRequest
}

func (s *Server) handleContinue(ctx context.Context, input *ContinueInput) (*WorkflowOutput, error) {
	if err := s.services.Workflow.Continue(ctx, input.Body.SameArticle); err != nil {
		return nil, toStatusError(err)
	}
	return &WorkflowOutput{Body: s.services.Workflow.Snapshot()}, nil
}

// ReconcileResponse reports the reconciliation and the resulting state.
type ReconcileResponse struct {
	service.ReconcileResult
	State domain.WorkflowState `json:"state" doc:"Workflow state after the reload"`
}

// ReconcileOutput wraps the reconcile response for Huma.
type ReconcileOutput struct {
	Body ReconcileResponse
}

func (s *Server) handleReconcile(ctx context.Context, _ *struct{}) (*ReconcileOutput, error) {
	result, err := s.services.Workflow.Reconcile(ctx)
	if err != nil {
		return nil, toStatusError(err)
	}
	return &ReconcileOutput{
		Body: ReconcileResponse{ReconcileResult: *result, State: s.services.Workflow.State()},
	}, nil
}

// GapResponse is a range of can ids without a record.
type GapResponse struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

// LedgerAuditResponse summarizes the ledger.
type LedgerAuditResponse struct {
	CheckedAt time.Time     `json:"checked_at"`
	CounterID string        `json:"counter_id,omitempty"`
	NextID    int64         `json:"next_id"`
	Records   int64         `json:"records"`
	MinCanID  int64         `json:"min_can_id"`
	MaxCanID  int64         `json:"max_can_id"`
	Lagging   bool          `json:"lagging" doc:"A record holds a can id at or past the counter"`
	Gaps      []GapResponse `json:"gaps" doc:"Can ids consumed without a record, usually an aborted write"`
}

// LedgerAuditOutput wraps the audit for Huma.
type LedgerAuditOutput struct {
	Body LedgerAuditResponse
}

func (s *Server) handleLedgerAudit(ctx context.Context, _ *struct{}) (*LedgerAuditOutput, error) {
	audit, err := s.services.Store.Audit(ctx)
	if err != nil {
		return nil, toStatusError(err)
	}

	resp := LedgerAuditResponse{
		CheckedAt: time.Now().UTC(),
		Records:   audit.Records,
		MinCanID:  audit.MinCanID,
		MaxCanID:  audit.MaxCanID,
		Lagging:   audit.Lagging,
		Gaps:      make([]GapResponse, 0, len(audit.Gaps)),
	}
	if audit.Counter != nil {
		resp.CounterID = audit.Counter.ID
		resp.NextID = audit.Counter.NextID
	}
	for _, g := range audit.Gaps {
		resp.Gaps = append(resp.Gaps, GapResponse{From: g.From, To: g.To})
	}
	return &LedgerAuditOutput{Body: resp}, nil
}
