// Package api exposes the simulation over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/adaptor"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/harun/lawnmower/internal/observability"
	"github.com/harun/lawnmower/internal/tracing"
	"github.com/harun/lawnmower/pkg/lawn"
	"github.com/harun/lawnmower/pkg/mediator"
	"github.com/harun/lawnmower/pkg/scenario"
	"github.com/harun/lawnmower/pkg/simulation"
	"github.com/rs/zerolog/log"
)

// Simulator runs scenarios. *simulation.Runner implements it.
type Simulator interface {
	Run(ctx context.Context, sc scenario.Scenario) (*simulation.Report, error)
	RunSequential(ctx context.Context, sc scenario.Scenario) (*simulation.Report, error)
}

type Handler struct {
	Simulator Simulator
	// MaxMowers caps the mowers accepted per request; zero means no cap.
	MaxMowers int
	// Metrics mounts GET /metrics when set.
	Metrics bool
}

type simulationRequest struct {
	Mode string `json:"mode,omitempty"`
	scenario.Document
}

type simulationResponse struct {
	Output []string           `json:"output"`
	Report *simulation.Report `json:"report"`
}

func (h Handler) RegisterRoutes(s *server.Hertz) {
	s.GET("/healthz", h.healthz)
	s.POST("/v1/simulations", h.createSimulation)
	if h.Metrics {
		s.GET("/metrics", adaptor.HertzHandler(observability.MetricsHandler()))
	}
}

func (h Handler) healthz(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]string{"status": "ok"})
}

func (h Handler) createSimulation(c context.Context, ctx *app.RequestContext) {
	if h.Simulator == nil {
		writeErrorBody(ctx, consts.StatusInternalServerError, "internal_error", "simulator not configured")
		return
	}

	body := ctx.Request.Body()
	if !json.Valid(body) {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "request body is not valid json")
		return
	}
	if err := validateSchema(body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "schema_violation", err.Error())
		return
	}

	var req simulationRequest
	if err := decodeJSON(body, &req); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if h.MaxMowers > 0 && len(req.Mowers) > h.MaxMowers {
		writeErrorBody(ctx, consts.StatusBadRequest, "too_many_mowers",
			fmt.Sprintf("at most %d mowers per simulation, got %d", h.MaxMowers, len(req.Mowers)))
		return
	}

	sc, err := req.Document.Scenario()
	if err == nil {
		err = sc.Validate()
	}
	if err != nil {
		writeError(ctx, err)
		return
	}

	run := h.Simulator.Run
	if strings.EqualFold(req.Mode, string(simulation.ModeSequential)) {
		run = h.Simulator.RunSequential
	}

	report, err := run(requestContext(c), sc)
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(consts.StatusOK, simulationResponse{Output: report.Lines(), Report: report})
}

func requestContext(c context.Context) context.Context {
	if tracing.GetRequestID(c) != "" {
		return c
	}
	return tracing.NewRequestContext(c)
}

func decodeJSON(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

func writeError(ctx *app.RequestContext, err error) {
	switch {
	case errors.Is(err, lawn.ErrInvalidBounds),
		errors.Is(err, lawn.ErrUnknownOrientation),
		errors.Is(err, lawn.ErrUnknownInstruction),
		errors.Is(err, scenario.ErrInvalid),
		errors.Is(err, scenario.ErrMalformed):
		writeErrorBody(ctx, consts.StatusUnprocessableEntity, "invalid_scenario", err.Error())
	case errors.Is(err, mediator.ErrRegistrationAbandoned):
		writeErrorBody(ctx, consts.StatusConflict, "registration_abandoned", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeErrorBody(ctx, consts.StatusServiceUnavailable, "cancelled", err.Error())
	default:
		log.Error().Err(err).Msg("Simulation request failed")
		writeErrorBody(ctx, consts.StatusInternalServerError, "internal_error", "simulation failed")
	}
}

func writeErrorBody(ctx *app.RequestContext, status int, code, msg string) {
	ctx.JSON(status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": msg,
		},
	})
}
