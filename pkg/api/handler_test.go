package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/harun/lawnmower/pkg/lawn"
	"github.com/harun/lawnmower/pkg/mediator"
	"github.com/harun/lawnmower/pkg/scenario"
	"github.com/harun/lawnmower/pkg/simulation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioA = `{
  "grid": {"x_max": 5, "y_max": 5},
  "mowers": [
    {"x": 1, "y": 2, "orientation": "N", "program": "GAGAGAGAA"},
    {"x": 3, "y": 3, "orientation": "E", "program": "AADAADADDA"}
  ]
}`

type fakeSimulator struct {
	mode  simulation.Mode
	err   error
	calls int
}

func (f *fakeSimulator) Run(ctx context.Context, sc scenario.Scenario) (*simulation.Report, error) {
	return f.report(ctx, sc, simulation.ModeConcurrent)
}

func (f *fakeSimulator) RunSequential(ctx context.Context, sc scenario.Scenario) (*simulation.Report, error) {
	return f.report(ctx, sc, simulation.ModeSequential)
}

func (f *fakeSimulator) report(_ context.Context, sc scenario.Scenario, mode simulation.Mode) (*simulation.Report, error) {
	f.calls++
	f.mode = mode
	if f.err != nil {
		return nil, f.err
	}
	r := &simulation.Report{RunID: "run_test", Mode: mode}
	for _, m := range sc.Mowers {
		r.Mowers = append(r.Mowers, simulation.MowerResult{ID: m.ID, Start: m.Start, Final: m.Start, Registered: true})
	}
	return r, nil
}

func newRunner() *simulation.Runner {
	return simulation.NewRunner(simulation.Config{
		Mediator: mediator.Config{WaitTimeout: 20 * time.Millisecond},
	})
}

func post(h Handler, body string) *app.RequestContext {
	ctx := &app.RequestContext{}
	ctx.Request.SetBody([]byte(body))
	h.createSimulation(context.Background(), ctx)
	return ctx
}

func decodeError(t *testing.T, ctx *app.RequestContext) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	return resp.Error.Code
}

func TestCreateSimulation(t *testing.T) {
	t.Run("runs the scenario", func(t *testing.T) {
		ctx := post(Handler{Simulator: newRunner()}, scenarioA)

		require.Equal(t, consts.StatusOK, ctx.Response.StatusCode(), string(ctx.Response.Body()))

		var resp simulationResponse
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
		assert.Equal(t, []string{"1 3 N", "5 1 E"}, resp.Output)
		require.NotNil(t, resp.Report)
		assert.Equal(t, simulation.ModeConcurrent, resp.Report.Mode)
		assert.True(t, strings.HasPrefix(resp.Report.RunID, "run_"))
		assert.Equal(t, "1", resp.Report.Mowers[0].ID)
		assert.Equal(t, lawn.NewPosition(1, 3, lawn.North), resp.Report.Mowers[0].Final)
	})

	t.Run("sequential mode", func(t *testing.T) {
		sim := &fakeSimulator{}
		body := strings.Replace(scenarioA, `"grid"`, `"mode": "sequential", "grid"`, 1)

		ctx := post(Handler{Simulator: sim}, body)

		assert.Equal(t, consts.StatusOK, ctx.Response.StatusCode())
		assert.Equal(t, simulation.ModeSequential, sim.mode)
	})

	t.Run("explicit ids are kept", func(t *testing.T) {
		sim := &fakeSimulator{}
		body := `{"grid": {"x_max": 3, "y_max": 3}, "mowers": [{"id": "alpha", "x": 0, "y": 0, "orientation": "n", "program": ""}]}`

		ctx := post(Handler{Simulator: sim}, body)

		require.Equal(t, consts.StatusOK, ctx.Response.StatusCode())
		var resp simulationResponse
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
		assert.Equal(t, "alpha", resp.Report.Mowers[0].ID)
	})
}

func TestCreateSimulationErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"invalid json", `{"grid":`, consts.StatusBadRequest, "invalid_json"},
		{"missing mowers", `{"grid": {"x_max": 5, "y_max": 5}}`, consts.StatusBadRequest, "schema_violation"},
		{"unknown field", `{"grid": {"x_max": 5, "y_max": 5}, "mowers": [], "speed": 3}`, consts.StatusBadRequest, "schema_violation"},
		{"bad instruction", `{"grid": {"x_max": 5, "y_max": 5}, "mowers": [{"x": 0, "y": 0, "orientation": "N", "program": "AX"}]}`, consts.StatusBadRequest, "schema_violation"},
		{"bad mode", `{"mode": "parallel", "grid": {"x_max": 5, "y_max": 5}, "mowers": []}`, consts.StatusBadRequest, "schema_violation"},
		{"inverted grid", `{"grid": {"x_max": 0, "y_max": 5}, "mowers": []}`, consts.StatusUnprocessableEntity, "invalid_scenario"},
		{"start outside grid", `{"grid": {"x_max": 5, "y_max": 5}, "mowers": [{"x": 6, "y": 0, "orientation": "N", "program": "A"}]}`, consts.StatusUnprocessableEntity, "invalid_scenario"},
		{"duplicate ids", `{"grid": {"x_max": 5, "y_max": 5}, "mowers": [{"id": "a", "x": 0, "y": 0, "orientation": "N", "program": ""}, {"id": "a", "x": 1, "y": 0, "orientation": "N", "program": ""}]}`, consts.StatusUnprocessableEntity, "invalid_scenario"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := &fakeSimulator{}

			ctx := post(Handler{Simulator: sim}, tt.body)

			assert.Equal(t, tt.status, ctx.Response.StatusCode(), string(ctx.Response.Body()))
			assert.Equal(t, tt.code, decodeError(t, ctx))
			assert.Zero(t, sim.calls)
		})
	}
}

func TestCreateSimulationMowerCap(t *testing.T) {
	sim := &fakeSimulator{}

	ctx := post(Handler{Simulator: sim, MaxMowers: 1}, scenarioA)

	assert.Equal(t, consts.StatusBadRequest, ctx.Response.StatusCode())
	assert.Equal(t, "too_many_mowers", decodeError(t, ctx))
	assert.Zero(t, sim.calls)
}

func TestCreateSimulationRunErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"abandoned registration", mediator.ErrRegistrationAbandoned, consts.StatusConflict, "registration_abandoned"},
		{"cancelled", context.Canceled, consts.StatusServiceUnavailable, "cancelled"},
		{"unexpected", errors.New("boom"), consts.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := post(Handler{Simulator: &fakeSimulator{err: tt.err}}, scenarioA)

			assert.Equal(t, tt.status, ctx.Response.StatusCode())
			assert.Equal(t, tt.code, decodeError(t, ctx))
		})
	}
}

func TestRoutes(t *testing.T) {
	s := server.New()
	s.Use(accessLog())
	Handler{Simulator: newRunner(), Metrics: true}.RegisterRoutes(s)

	t.Run("healthz", func(t *testing.T) {
		w := ut.PerformRequest(s.Engine, consts.MethodGet, "/healthz", nil)
		resp := w.Result()

		assert.Equal(t, consts.StatusOK, resp.StatusCode())
		assert.JSONEq(t, `{"status":"ok"}`, string(resp.Body()))
		assert.NotEmpty(t, string(resp.Header.Peek(RequestIDHeader)))
	})

	t.Run("request id is echoed", func(t *testing.T) {
		w := ut.PerformRequest(s.Engine, consts.MethodGet, "/healthz", nil,
			ut.Header{Key: RequestIDHeader, Value: "req-42"})

		assert.Equal(t, "req-42", string(w.Result().Header.Peek(RequestIDHeader)))
	})

	t.Run("simulation", func(t *testing.T) {
		w := ut.PerformRequest(s.Engine, consts.MethodPost, "/v1/simulations",
			&ut.Body{Body: bytes.NewBufferString(scenarioA), Len: len(scenarioA)},
			ut.Header{Key: "Content-Type", Value: "application/json"})
		resp := w.Result()

		require.Equal(t, consts.StatusOK, resp.StatusCode(), string(resp.Body()))
		assert.Contains(t, string(resp.Body()), `"1 3 N"`)
	})

	t.Run("metrics", func(t *testing.T) {
		w := ut.PerformRequest(s.Engine, consts.MethodGet, "/metrics", nil)
		resp := w.Result()

		assert.Equal(t, consts.StatusOK, resp.StatusCode())
		assert.Contains(t, string(resp.Body()), "simulations_active")
	})
}

func TestValidateSchema(t *testing.T) {
	assert.NoError(t, validateSchema([]byte(scenarioA)))

	err := validateSchema([]byte(`{"grid": {"x_max": "five", "y_max": 5}, "mowers": []}`))
	assert.ErrorIs(t, err, ErrSchema)
	assert.Contains(t, err.Error(), "x_max")
}
