package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/canlabel/labeler-station/internal/errors"
	"github.com/canlabel/labeler-station/internal/service"
)

func (s *Server) registerScaleRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getScale",
		Method:      http.MethodGet,
		Path:        "/api/v1/scale",
		Summary:     "Get scale status",
		Description: "Returns the scale connection and the last weight read",
		Tags:        []string{"Scale"},
	}, s.handleGetScale)

	huma.Register(s.api, huma.Operation{
		OperationID: "connectScale",
		Method:      http.MethodPost,
		Path:        "/api/v1/scale/connect",
		Summary:     "Connect scale",
		Description: "Opens the serial scale and starts streaming weights",
		Tags:        []string{"Scale"},
	}, s.handleConnectScale)

	huma.Register(s.api, huma.Operation{
		OperationID: "disconnectScale",
		Method:      http.MethodPost,
		Path:        "/api/v1/scale/disconnect",
		Summary:     "Disconnect scale",
		Tags:        []string{"Scale"},
	}, s.handleDisconnectScale)
}

// ScaleOutput wraps the scale status for Huma.
type ScaleOutput struct {
	Body service.ScaleStatus
}

func (s *Server) scaleService() (*service.ScaleService, error) {
	if s.services.Scale == nil {
		return nil, toStatusError(domainerrors.DeviceUnavailable("scale support is not enabled"))
	}
	return s.services.Scale, nil
}

func (s *Server) handleGetScale(_ context.Context, _ *struct{}) (*ScaleOutput, error) {
	sc, err := s.scaleService()
	if err != nil {
		return nil, err
	}
	return &ScaleOutput{Body: sc.Status()}, nil
}

// ConnectScaleRequest selects the serial device.
type ConnectScaleRequest struct {
	Port string `json:"port,omitempty" doc:"Serial device path; the configured port when empty" example:"/dev/ttyUSB0"`
}

// ConnectScaleInput contains parameters for connecting the scale.
type ConnectScaleInput struct {
	Body ConnectScaleRequest `required:"false"`
}

func (s *Server) handleConnectScale(ctx context.Context, input *ConnectScaleInput) (*ScaleOutput, error) {
	sc, err := s.scaleService()
	if err != nil {
		return nil, err
	}
	status, err := sc.Connect(ctx, input.Body.Port)
	if err != nil {
		return nil, toStatusError(err)
	}
	return &ScaleOutput{Body: status}, nil
}

func (s *Server) handleDisconnectScale(_ context.Context, _ *struct{}) (*ScaleOutput, error) {
	sc, err := s.scaleService()
	if err != nil {
		return nil, err
	}
	sc.Disconnect()
	return &ScaleOutput{Body: sc.Status()}, nil
}
