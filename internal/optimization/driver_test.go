package optimization

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/HORIZON/internal/optimization/solver"
)

// fakeSolver records the problem it was handed and replays a canned result.
type fakeSolver struct {
	problem solver.Problem
	result  solver.Result
	err     error
}

func (f *fakeSolver) Solve(ctx context.Context, p solver.Problem) (solver.Result, error) {
	f.problem = p
	if f.err != nil {
		return solver.Result{}, f.err
	}
	if f.result.X == nil {
		f.result.X = p.X0
	}
	return f.result, nil
}

func TestDriverRejectsWrongStateDimension(t *testing.T) {
	d := NewDriver(&stubModel{dim: 4}, Config{Steps: 3, TimeHorizon: 1}, &fakeSolver{}, nil)

	_, err := d.Optimize(context.Background(), []float64{1, 2})
	require.Error(t, err)

	var formErr *Error
	require.ErrorAs(t, err, &formErr)
	assert.Equal(t, "driver", formErr.Component)
}

func TestDriverBuildsReplicatedGuessAndUnboundedVars(t *testing.T) {
	engine := &fakeSolver{}
	d := NewDriver(&stubModel{dim: 2}, Config{Steps: 4, TimeHorizon: 2}, engine, nil)

	x0 := []float64{3, -1}
	_, err := d.Optimize(context.Background(), x0)
	require.NoError(t, err)

	assert.Equal(t, Replicate(x0, 4), engine.problem.X0)

	require.Len(t, engine.problem.Bounds, 8)
	for _, b := range engine.problem.Bounds {
		assert.True(t, math.IsInf(b.Lower, -1))
		assert.True(t, math.IsInf(b.Upper, 1))
	}

	assert.Equal(t, 1000, engine.problem.MaxIterations, "defaulted iteration cap")
	assert.InDelta(t, 1e-6, engine.problem.Tolerance, 0)
}

func TestDriverNegatesResidualsAtBoundary(t *testing.T) {
	// Core convention: residual <= 0 satisfied. Solver convention:
	// g(v) >= 0 satisfied. The driver flips the sign exactly once.
	m := &stubModel{
		dim: 1,
		constraints: func(x []float64, t float64) []float64 {
			return []float64{x[0] - 1} // satisfied when x <= 1
		},
	}
	engine := &fakeSolver{}
	d := NewDriver(m, Config{Steps: 2, TimeHorizon: 1}, engine, nil)

	_, err := d.Optimize(context.Background(), []float64{0})
	require.NoError(t, err)
	require.Len(t, engine.problem.Inequalities, 1)

	g, err := engine.problem.Inequalities[0].F([]float64{3, 0.5})
	require.NoError(t, err)

	// x=3 violates the core constraint (residual +2) so the solver-facing
	// value must be -2; x=0.5 satisfies it (residual -0.5) giving +0.5.
	assert.InDelta(t, -2.0, g[0], 1e-12)
	assert.InDelta(t, 0.5, g[1], 1e-12)
}

func TestDriverObjectiveMatchesAggregate(t *testing.T) {
	m := &stubModel{
		dim:        1,
		efficiency: func(x []float64, t float64) float64 { return x[0] * x[0] },
	}
	cfg := Config{Steps: 3, TimeHorizon: 3, Weights: Weights{Alpha: 1}}
	engine := &fakeSolver{}
	d := NewDriver(m, cfg, engine, nil)

	_, err := d.Optimize(context.Background(), []float64{2})
	require.NoError(t, err)

	v := []float64{1, 2, 3}
	want, err := Aggregate(v, m, 3, 1, 1.0, Weights{Alpha: 1})
	require.NoError(t, err)
	got, err := engine.problem.Objective(v)
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-12)
}

func TestDriverDecodesSolution(t *testing.T) {
	engine := &fakeSolver{
		result: solver.Result{
			X:          []float64{1, 2, 3, 4, 5, 6},
			F:          42.5,
			Success:    true,
			Iterations: 17,
		},
	}
	d := NewDriver(&stubModel{dim: 2}, Config{Steps: 3, TimeHorizon: 1}, engine, nil)

	result, err := d.Optimize(context.Background(), []float64{0, 0})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, [][]float64{{1, 2}, {3, 4}, {5, 6}}, result.Trajectory)
	assert.Equal(t, 42.5, result.FinalCost)
	assert.Equal(t, 17, result.Iterations)
	assert.Empty(t, result.Message)
}

func TestDriverPassesFailureMessageVerbatim(t *testing.T) {
	engine := &fakeSolver{
		result: solver.Result{
			Success: false,
			Message: "Iteration limit reached (max constraint violation 0.3)",
		},
	}
	d := NewDriver(&stubModel{dim: 1}, Config{Steps: 2, TimeHorizon: 1}, engine, nil)

	result, err := d.Optimize(context.Background(), []float64{0})
	require.NoError(t, err, "non-convergence is a Result, not an error")
	assert.False(t, result.Success)
	assert.Equal(t, "Iteration limit reached (max constraint violation 0.3)", result.Message)
}

func TestDriverSurfacesEngineError(t *testing.T) {
	engine := &fakeSolver{err: errors.New("nil objective function")}
	d := NewDriver(&stubModel{dim: 1}, Config{Steps: 2, TimeHorizon: 1}, engine, nil)

	_, err := d.Optimize(context.Background(), []float64{0})
	require.Error(t, err)
	assert.ErrorContains(t, err, "nil objective function")
}
