package energy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func referenceModel(t *testing.T) *Model {
	t.Helper()
	m, err := DefaultScenario().Model()
	require.NoError(t, err)
	return m
}

func TestNewValidation(t *testing.T) {
	coupling := mat.NewSymDense(2, nil)
	costs := []CostTriple{{0.01, 10, 100}, {0.02, 15, 120}}

	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "zero nodes", cfg: Config{Nodes: 0, Coupling: coupling, Costs: costs}},
		{name: "cost count mismatch", cfg: Config{Nodes: 3, Coupling: coupling, Costs: costs}},
		{name: "missing coupling", cfg: Config{Nodes: 2, Costs: costs}},
		{name: "coupling dim mismatch", cfg: Config{Nodes: 3, Coupling: coupling, Costs: append(costs, CostTriple{})}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestStateDim(t *testing.T) {
	m := referenceModel(t)
	assert.Equal(t, 6, m.StateDim(), "generation levels plus voltage angles")
}

func TestEfficiencyTerm(t *testing.T) {
	m := referenceModel(t)
	x := []float64{50, 60, 40, 0, 0, 0}

	// Per node: a*P^2 + b*P + c with the published triples.
	want := (0.01*2500 + 10*50 + 100) +
		(0.02*3600 + 15*60 + 120) +
		(0.03*1600 + 20*40 + 90)
	assert.InDelta(t, want, m.EfficiencyTerm(x, 0), 1e-9)
}

func TestAdaptabilityTermFirstEvaluationIsZero(t *testing.T) {
	m := referenceModel(t)
	x := []float64{50, 60, 40, 1, 2, 3}
	assert.Zero(t, m.AdaptabilityTerm(x, nil, 0))
}

func TestAdaptabilityTermSquaredChange(t *testing.T) {
	m := referenceModel(t)
	x1 := []float64{50, 60, 40, 0, 0, 0}
	x2 := []float64{53, 58, 40, 9, 9, 9}

	// Only the generation subrange is tracked; angle changes don't count.
	want := 3.0*3.0 + 2.0*2.0
	assert.InDelta(t, want, m.AdaptabilityTerm(x2, x1, 1), 1e-12)
}

func TestCollectiveTerm(t *testing.T) {
	m := referenceModel(t)
	x := []float64{50, 60, 40, 0.1, 0.2, 0.4}

	// All three pairs are coupled in the reference network.
	want := 0.01 + 0.09 + 0.04
	assert.InDelta(t, want, m.CollectiveTerm(x, 0), 1e-12)
}

func TestCollectiveTermSkipsUncoupledPairs(t *testing.T) {
	coupling := mat.NewSymDense(3, nil)
	coupling.SetSym(0, 1, 0.5) // only nodes 1-2 connected
	m, err := New(Config{
		Nodes:    3,
		Coupling: coupling,
		Costs:    []CostTriple{{0.01, 10, 100}, {0.02, 15, 120}, {0.03, 20, 90}},
	})
	require.NoError(t, err)

	x := []float64{0, 0, 0, 1, 3, 100}
	assert.InDelta(t, 4.0, m.CollectiveTerm(x, 0), 1e-12)
}

func TestConstraintsSignConvention(t *testing.T) {
	m := referenceModel(t)

	t.Run("feasible state", func(t *testing.T) {
		residuals := m.Constraints([]float64{50, 60, 40, 0, 0, 0}, 0)
		require.Len(t, residuals, 7, "budget plus two per node")
		for i, r := range residuals {
			assert.LessOrEqual(t, r, 0.0, "residual %d", i)
		}
	})

	t.Run("capacity violation is strictly positive", func(t *testing.T) {
		residuals := m.Constraints([]float64{150, 60, 40, 0, 0, 0}, 0)
		assert.InDelta(t, 50.0, residuals[1], 1e-12, "node 1 exceeds cap 100 by 50")
	})

	t.Run("negative generation violates lower bound", func(t *testing.T) {
		residuals := m.Constraints([]float64{-5, 60, 40, 0, 0, 0}, 0)
		assert.InDelta(t, 5.0, residuals[2], 1e-12)
	})

	t.Run("budget residual uses reserve-scaled capacity sum", func(t *testing.T) {
		residuals := m.Constraints([]float64{50, 60, 40, 0, 0, 0}, 0)
		assert.InDelta(t, 150-0.8*310, residuals[0], 1e-9)
	})
}

func TestReserveFactorOverride(t *testing.T) {
	scenario := DefaultScenario()
	scenario.ReserveFactor = 0.5
	m, err := scenario.Model()
	require.NoError(t, err)

	residuals := m.Constraints([]float64{50, 60, 40, 0, 0, 0}, 0)
	assert.InDelta(t, 150-0.5*310, residuals[0], 1e-9)
}
