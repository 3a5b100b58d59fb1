package solver

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAugmentedUnconstrainedQuadratic(t *testing.T) {
	s := NewAugmented()
	result, err := s.Solve(context.Background(), Problem{
		Objective: func(v []float64) (float64, error) {
			dx := v[0] - 1
			dy := v[1] - 2
			return dx*dx + dy*dy, nil
		},
		X0: []float64{5, -5},
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.InDelta(t, 1.0, result.X[0], 1e-3)
	assert.InDelta(t, 2.0, result.X[1], 1e-3)
	assert.InDelta(t, 0.0, result.F, 1e-5)
	assert.Greater(t, result.Iterations, 0)
}

func TestAugmentedActiveInequality(t *testing.T) {
	// minimize (x-3)^2 subject to x <= 2; the constraint is active at the
	// optimum, so the penalty continuation must tighten until feasible.
	s := NewAugmented()
	result, err := s.Solve(context.Background(), Problem{
		Objective: func(v []float64) (float64, error) {
			d := v[0] - 3
			return d * d, nil
		},
		X0: []float64{0},
		Inequalities: []Inequality{{
			F: func(v []float64) ([]float64, error) {
				return []float64{2 - v[0]}, nil
			},
		}},
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.InDelta(t, 2.0, result.X[0], 1e-2)
	assert.LessOrEqual(t, result.X[0]-2, s.FeasTol)
}

func TestAugmentedBounds(t *testing.T) {
	s := NewAugmented()
	result, err := s.Solve(context.Background(), Problem{
		Objective: func(v []float64) (float64, error) {
			return v[0], nil
		},
		X0:     []float64{5},
		Bounds: []Bound{{Lower: 1, Upper: math.Inf(1)}},
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.InDelta(t, 1.0, result.X[0], 1e-2)
}

func TestAugmentedContractMisuse(t *testing.T) {
	s := NewAugmented()

	_, err := s.Solve(context.Background(), Problem{X0: []float64{1}})
	assert.Error(t, err, "nil objective is contract misuse")

	_, err = s.Solve(context.Background(), Problem{
		Objective: func(v []float64) (float64, error) { return 0, nil },
	})
	assert.Error(t, err, "empty starting point is contract misuse")
}

func TestAugmentedCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewAugmented()
	_, err := s.Solve(ctx, Problem{
		Objective: func(v []float64) (float64, error) { return v[0] * v[0], nil },
		X0:        []float64{1},
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAugmentedObjectiveErrorIsResult(t *testing.T) {
	// A failing objective is a solver failure surfaced through the
	// Result, not a Solve error.
	s := NewAugmented()
	s.OuterRounds = 1

	calls := 0
	result, err := s.Solve(context.Background(), Problem{
		Objective: func(v []float64) (float64, error) {
			calls++
			return math.NaN(), nil
		},
		X0: []float64{1},
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Greater(t, calls, 0)
}
