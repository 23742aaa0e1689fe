package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canlabel/labeler-station/internal/domain"
	domainerrors "github.com/canlabel/labeler-station/internal/errors"
	"github.com/canlabel/labeler-station/internal/service"
)

func validPrintBody() map[string]any {
	return map[string]any{
		"product_id":       "prod-dulce",
		"brand_id":         "brand-serena",
		"lot":              "00235",
		"manufacture_date": "2026-03-14",
		"weight_grams":     500,
	}
}

func TestPrint_Success(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()
	ts.start(t)

	resp := ts.api.Post("/api/v1/workflow/print", validPrintBody())
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decodeEnvelope[PrintResponse](t, resp.Body.Bytes())
	assert.True(t, env.Success)
	assert.Equal(t, int64(4821), env.Data.Record.CanID)
	assert.Equal(t, "701400482100235005006", env.Data.Record.Code21)
	assert.Equal(t, "2026-03-14", env.Data.Record.ManufactureDate)
	assert.Equal(t, "2028-03-14", env.Data.Record.ExpiryDate)
	assert.Equal(t, "memory", env.Data.Printer)
	assert.NotEmpty(t, env.Data.AttemptID)
	assert.Equal(t, 1, ts.printer.count())

	state := decodeEnvelope[service.WorkflowSnapshot](t, ts.api.Get("/api/v1/workflow").Body.Bytes())
	assert.Equal(t, domain.StateCompleted, state.Data.State)
	assert.Equal(t, int64(4822), state.Data.Counter.NextID)
}

func TestPrint_InvalidLot(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()
	ts.start(t)

	body := validPrintBody()
	body["lot"] = "1234"
	resp := ts.api.Post("/api/v1/workflow/print", body)
	require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())

	env := decodeEnvelope[any](t, resp.Body.Bytes())
	assert.False(t, env.Success)
	assert.Equal(t, string(domainerrors.CodeValidation), env.Code)
	assert.Equal(t, "lot must be exactly 5 digits", env.Error)
	assert.Equal(t, map[string]any{"lot": "must be exactly 5 digits"}, env.Details)
	assert.Zero(t, ts.printer.count())

	state := decodeEnvelope[service.WorkflowSnapshot](t, ts.api.Get("/api/v1/workflow").Body.Bytes())
	assert.Equal(t, domain.StateAborted, state.Data.State)
}

func TestPrint_BeforeLoadConflicts(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Post("/api/v1/workflow/print", validPrintBody())
	assert.Equal(t, http.StatusConflict, resp.Code)
	env := decodeEnvelope[any](t, resp.Body.Bytes())
	assert.Equal(t, string(domainerrors.CodeConflict), env.Code)
}

func TestPrint_MalformedDate(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()
	ts.start(t)

	body := validPrintBody()
	body["manufacture_date"] = "14/03/2026"
	resp := ts.api.Post("/api/v1/workflow/print", body)
	assert.GreaterOrEqual(t, resp.Code, 400)
	assert.Less(t, resp.Code, 500)
	assert.Zero(t, ts.printer.count())
}

func TestPrint_PrinterOffline(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()
	ts.start(t)

	ts.printer.fail(domainerrors.DeviceUnavailable("printer offline"))
	resp := ts.api.Post("/api/v1/workflow/print", validPrintBody())
	require.Equal(t, http.StatusServiceUnavailable, resp.Code, resp.Body.String())

	env := decodeEnvelope[any](t, resp.Body.Bytes())
	assert.Equal(t, string(domainerrors.CodeDeviceUnavailable), env.Code)

	// The id was committed, so the label can be recovered.
	ts.printer.fail(nil)
	resp = ts.api.Post("/api/v1/records/4821/reprint", struct{}{})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, 1, ts.printer.count())
}

func TestContinue_SameArticle(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()
	ts.start(t)

	resp := ts.api.Post("/api/v1/workflow/continue", map[string]any{"same_article": true})
	assert.Equal(t, http.StatusConflict, resp.Code, "nothing printed yet")

	require.Equal(t, http.StatusOK, ts.api.Post("/api/v1/workflow/print", validPrintBody()).Code)

	resp = ts.api.Post("/api/v1/workflow/continue", map[string]any{"same_article": true})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	env := decodeEnvelope[service.WorkflowSnapshot](t, resp.Body.Bytes())
	assert.Equal(t, domain.StateReady, env.Data.State)
	assert.Equal(t, "00235", env.Data.Draft.Lot)
	assert.Zero(t, env.Data.Draft.WeightGrams)
}

func TestReconcile_NoLag(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()
	ts.start(t)

	resp := ts.api.Post("/api/v1/workflow/reconcile", struct{}{})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decodeEnvelope[ReconcileResponse](t, resp.Body.Bytes())
	assert.False(t, env.Data.Advanced)
	assert.Equal(t, int64(4821), env.Data.NextID)
	assert.Equal(t, domain.StateReady, env.Data.State)
}

func TestLedgerAudit(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()
	ts.start(t)

	require.Equal(t, http.StatusOK, ts.api.Post("/api/v1/workflow/print", validPrintBody()).Code)

	resp := ts.api.Get("/api/v1/ledger")
	require.Equal(t, http.StatusOK, resp.Code)
	env := decodeEnvelope[LedgerAuditResponse](t, resp.Body.Bytes())
	assert.Equal(t, int64(4822), env.Data.NextID)
	assert.Equal(t, int64(1), env.Data.Records)
	assert.Equal(t, int64(4821), env.Data.MaxCanID)
	assert.False(t, env.Data.Lagging)
	assert.Empty(t, env.Data.Gaps)
}
