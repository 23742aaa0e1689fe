package api

import (
	"errors"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/canlabel/labeler-station/internal/http/response"
)

// EnvelopeVersion is the "v" field of every JSON response.
const EnvelopeVersion = response.Version

// EnvelopeTransformer wraps huma responses in the station envelope:
// {"v":1,"success":true,"data":...} or {"v":1,"success":false,"error":...}.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	if strings.HasPrefix(status, "2") || strings.HasPrefix(status, "3") {
		return response.Success(v), nil
	}

	var apiErr *APIError
	if err, ok := v.(error); ok && errors.As(err, &apiErr) {
		return response.Failure(apiErr.Code, apiErr.Message, apiErr.Details), nil
	}
	if err, ok := v.(error); ok {
		return response.Failure("", err.Error(), nil), nil
	}
	return response.Failure("", "request failed", v), nil
}
