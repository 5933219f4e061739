package server

import (
	"github.com/samber/lo"

	"github.com/agbru/heatsolve/internal/heat"
	"github.com/agbru/heatsolve/internal/orchestration"
)

// Client message types.
const (
	msgStart  = "start_simulation"
	msgCancel = "cancel_simulation"
)

// clientMessage is a request received over the WebSocket. A start request
// either lists full configurations in Simulations, or lists HotFractions
// that share the remaining fields. Absent shared fields take the defaults of
// heat.DefaultConfig; fields that are present, zero included, are kept and
// validated.
type clientMessage struct {
	Type          string                  `json:"type"`
	Simulations   []heat.SimulationConfig `json:"simulations,omitempty"`
	HotFractions  []float64               `json:"hot_fractions,omitempty"`
	GridSize      *int                    `json:"grid_size,omitempty"`
	Tolerance     *float64                `json:"tolerance,omitempty"`
	MaxIterations *int                    `json:"max_iterations,omitempty"`
	SampleEvery   *int                    `json:"sample_every,omitempty"`
}

// configs expands the request into the batch submitted to the orchestrator.
func (m clientMessage) configs() []heat.SimulationConfig {
	if len(m.Simulations) > 0 {
		return m.Simulations
	}
	return lo.Map(m.HotFractions, func(f float64, _ int) heat.SimulationConfig {
		c := heat.DefaultConfig(f)
		c.GridSize = lo.FromPtrOr(m.GridSize, c.GridSize)
		c.Tolerance = lo.FromPtrOr(m.Tolerance, c.Tolerance)
		c.MaxIterations = lo.FromPtrOr(m.MaxIterations, c.MaxIterations)
		c.SampleEvery = lo.FromPtrOr(m.SampleEvery, c.SampleEvery)
		return c
	})
}

// serverMessage is the JSON form of an orchestration.Event.
type serverMessage struct {
	Type    orchestration.EventType `json:"type"`
	Count   int                     `json:"count,omitempty"`
	Percent []float64               `json:"percent,omitempty"`
	Index   *int                    `json:"index,omitempty"`
	Result  *wireResult             `json:"result,omitempty"`
	Reason  string                  `json:"reason,omitempty"`
}

type wireResult struct {
	HotFraction        float64                `json:"hot_fraction"`
	GridSize           int                    `json:"grid_size"`
	FinalIteration     int                    `json:"final_iteration"`
	FinalDelta         float64                `json:"final_delta"`
	Converged          bool                   `json:"converged"`
	ElapsedMS          float64                `json:"elapsed_ms"`
	ConvergenceHistory []heat.IterationRecord `json:"convergence_history"`
	FinalGrid          [][]float64            `json:"final_grid"`
}

func toWireResult(res heat.SolveResult) *wireResult {
	return &wireResult{
		HotFraction:        res.Config.HotFraction,
		GridSize:           res.Config.GridSize,
		FinalIteration:     res.FinalIteration,
		FinalDelta:         res.FinalDelta,
		Converged:          res.Converged,
		ElapsedMS:          float64(res.Elapsed.Microseconds()) / 1000,
		ConvergenceHistory: res.History,
		FinalGrid:          lo.Chunk(res.FinalGrid.Cells, max(res.FinalGrid.N, 1)),
	}
}

// encodeEvent maps an event to its wire form.
func encodeEvent(ev orchestration.Event) serverMessage {
	msg := serverMessage{Type: ev.Type()}
	switch e := ev.(type) {
	case orchestration.RunStarted:
		msg.Count = e.Count
	case orchestration.ProgressBatch:
		msg.Percent = e.Percent
	case orchestration.SimulationFinished:
		msg.Index = lo.ToPtr(e.Index)
		msg.Result = toWireResult(e.Result)
	case orchestration.SimulationFailed:
		msg.Index = lo.ToPtr(e.Index)
		msg.Reason = e.Reason
	case orchestration.RunFailed:
		msg.Reason = e.Reason
	}
	return msg
}
