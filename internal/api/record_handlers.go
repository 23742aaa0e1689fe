package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/canlabel/labeler-station/internal/code21"
	"github.com/canlabel/labeler-station/internal/domain"
	domainerrors "github.com/canlabel/labeler-station/internal/errors"
	"github.com/canlabel/labeler-station/internal/store"
)

func (s *Server) registerRecordRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listRecentRecords",
		Method:      http.MethodGet,
		Path:        "/api/v1/records",
		Summary:     "List recent records",
		Description: "Returns the most recent print records, newest first",
		Tags:        []string{"Records"},
	}, s.handleListRecords)

	huma.Register(s.api, huma.Operation{
		OperationID: "getRecord",
		Method:      http.MethodGet,
		Path:        "/api/v1/records/{can_id}",
		Summary:     "Get record",
		Description: "Returns the print record of a can id",
		Tags:        []string{"Records"},
	}, s.handleGetRecord)

	huma.Register(s.api, huma.Operation{
		OperationID: "reprintRecord",
		Method:      http.MethodPost,
		Path:        "/api/v1/records/{can_id}/reprint",
		Summary:     "Reprint label",
		Description: "Sends the stored label again without consuming a can id",
		Tags:        []string{"Records"},
	}, s.handleReprint)

	huma.Register(s.api, huma.Operation{
		OperationID: "getLot",
		Method:      http.MethodGet,
		Path:        "/api/v1/lots/{lot}",
		Summary:     "Look up a lot",
		Description: "Reports whether labels were already printed for a lot. Informational; it never blocks printing.",
		Tags:        []string{"Records"},
	}, s.handleGetLot)
}

// RecordResponse is a print record in API responses.
type RecordResponse struct {
	ID              string    `json:"id" doc:"Record ID"`
	CanID           int64     `json:"can_id" doc:"Consumed can id"`
	Code21          string    `json:"code21" doc:"21-digit printed code"`
	Lot             string    `json:"lot" doc:"Lot number"`
	ProductID       string    `json:"product_id" doc:"Product ID"`
	BrandID         string    `json:"brand_id" doc:"Brand ID"`
	WeightGrams     int64     `json:"weight_grams" doc:"Net weight in grams"`
	RNE             string    `json:"rne" doc:"Establishment registration"`
	RNPA            string    `json:"rnpa" doc:"Product registration"`
	ManufactureDate string    `json:"manufacture_date" doc:"YYYY-MM-DD"`
	ExpiryDate      string    `json:"expiry_date" doc:"YYYY-MM-DD"`
	PrintedAt       time.Time `json:"printed_at" doc:"When the record was stored"`
}

func toRecordResponse(rec *domain.PrintRecord) RecordResponse {
	return RecordResponse{
		ID:              rec.ID,
		CanID:           rec.CanID,
		Code21:          rec.Code21,
		Lot:             rec.Lot,
		ProductID:       rec.ProductID,
		BrandID:         rec.BrandID,
		WeightGrams:     rec.WeightGrams,
		RNE:             rec.RNE,
		RNPA:            rec.RNPA,
		ManufactureDate: rec.ManufactureDate.Format(domain.DateLayout),
		ExpiryDate:      rec.ExpiryDate.Format(domain.DateLayout),
		PrintedAt:       rec.PrintedAt,
	}
}

func toRecordResponses(recs []*domain.PrintRecord) []RecordResponse {
	out := make([]RecordResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toRecordResponse(rec))
	}
	return out
}

// ListRecordsInput contains parameters for listing recent records.
type ListRecordsInput struct {
	Limit int `query:"limit" default:"50" minimum:"1" maximum:"500" doc:"Maximum records to return"`
}

// RecordListResponse lists records.
type RecordListResponse struct {
	Records []RecordResponse `json:"records"`
}

// RecordListOutput wraps a record list for Huma.
type RecordListOutput struct {
	Body RecordListResponse
}

func (s *Server) handleListRecords(ctx context.Context, input *ListRecordsInput) (*RecordListOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = store.DefaultRecentLimit
	}
	limit = min(limit, MaxRecentRecords)

	recs, err := s.services.Store.ListRecentRecords(ctx, limit)
	if err != nil {
		return nil, toStatusError(err)
	}
	return &RecordListOutput{Body: RecordListResponse{Records: toRecordResponses(recs)}}, nil
}

// CanIDInput identifies a record by can id.
type CanIDInput struct {
	CanID int64 `path:"can_id" minimum:"0" maximum:"999999" doc:"Can id"`
}

// RecordOutput wraps a single record for Huma.
type RecordOutput struct {
	Body RecordResponse
}

func (s *Server) handleGetRecord(ctx context.Context, input *CanIDInput) (*RecordOutput, error) {
	rec, err := s.services.Store.GetRecordByCanID(ctx, input.CanID)
	if err != nil {
		return nil, toStatusError(err)
	}
	return &RecordOutput{Body: toRecordResponse(rec)}, nil
}

func (s *Server) handleReprint(ctx context.Context, input *CanIDInput) (*RecordOutput, error) {
	rec, err := s.services.Workflow.Reprint(ctx, input.CanID)
	if err != nil {
		return nil, toStatusError(err)
	}
	return &RecordOutput{Body: toRecordResponse(rec)}, nil
}

// LotInput identifies a lot.
type LotInput struct {
	Lot string `path:"lot" doc:"Exactly 5 digits" example:"00235"`
}

// LotResponse summarizes the labels of a lot.
type LotResponse struct {
	Lot     string           `json:"lot"`
	Exists  bool             `json:"exists" doc:"Labels were already printed for this lot"`
	Records []RecordResponse `json:"records" doc:"Records in can id order"`
}

// LotOutput wraps the lot response for Huma.
type LotOutput struct {
	Body LotResponse
}

func (s *Server) handleGetLot(ctx context.Context, input *LotInput) (*LotOutput, error) {
	if !code21.IsLot(input.Lot) {
		return nil, toStatusError(domainerrors.ValidationWithDetails("lot must be exactly 5 digits",
			map[string]string{"lot": "must be exactly 5 digits"}))
	}

	exists, err := s.services.Store.LotExists(ctx, input.Lot)
	if err != nil {
		return nil, toStatusError(err)
	}
	resp := LotResponse{Lot: input.Lot, Exists: exists, Records: []RecordResponse{}}
	if exists {
		recs, err := s.services.Store.ListRecordsByLot(ctx, input.Lot)
		if err != nil {
			return nil, toStatusError(err)
		}
		resp.Records = toRecordResponses(recs)
	}
	return &LotOutput{Body: resp}, nil
}
