// Package energy realizes the dispatch model contract for a small power
// network: quadratic generation costs per node, a squared ramp penalty on
// generation changes, and a coupled voltage-angle spread penalty over the
// network's line susceptance matrix.
package energy

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DefaultReserveFactor scales the summed declared capacities into the
// aggregate generation budget. Inherited from the published model, where the
// factor is 0.8; override it per Config when a different margin is wanted.
const DefaultReserveFactor = 0.8

// CostTriple holds one node's generation cost curve a*P^2 + b*P + c and its
// capacity. Cap doubles as the constant cost coefficient c, matching the
// published [quadratic, linear, max_capacity] triples.
type CostTriple struct {
	Quadratic float64
	Linear    float64
	Cap       float64
}

// Config parameterizes a Model. All fields are fixed once the model is
// constructed.
type Config struct {
	// Nodes is the generator count n. The state vector is [P_1..P_n,
	// theta_1..theta_n]: generation levels then voltage angles.
	Nodes int

	// Coupling is the n x n symmetric line coupling matrix; a zero entry
	// means nodes i and j are not connected.
	Coupling *mat.SymDense

	// Costs has one cost triple per node.
	Costs []CostTriple

	// ReserveFactor overrides DefaultReserveFactor when positive.
	ReserveFactor float64
}

// Model implements optimization.Model for the energy network. It holds only
// immutable configuration: the previous-state smoothness term is threaded in
// by the aggregator, so a single instance is safe across sequential runs.
type Model struct {
	nodes    int
	coupling *mat.SymDense
	costs    []CostTriple
	reserve  float64
	capSum   float64
}

// New validates the configuration and builds a model.
func New(cfg Config) (*Model, error) {
	if cfg.Nodes < 1 {
		return nil, fmt.Errorf("energy: node count must be positive, got %d", cfg.Nodes)
	}
	if len(cfg.Costs) != cfg.Nodes {
		return nil, fmt.Errorf("energy: %d cost triples for %d nodes", len(cfg.Costs), cfg.Nodes)
	}
	if cfg.Coupling == nil {
		return nil, fmt.Errorf("energy: coupling matrix is required")
	}
	if n := cfg.Coupling.SymmetricDim(); n != cfg.Nodes {
		return nil, fmt.Errorf("energy: coupling matrix is %dx%d, want %dx%d", n, n, cfg.Nodes, cfg.Nodes)
	}

	reserve := cfg.ReserveFactor
	if reserve <= 0 {
		reserve = DefaultReserveFactor
	}

	capSum := 0.0
	for _, c := range cfg.Costs {
		capSum += c.Cap
	}

	return &Model{
		nodes:    cfg.Nodes,
		coupling: cfg.Coupling,
		costs:    append([]CostTriple(nil), cfg.Costs...),
		reserve:  reserve,
		capSum:   capSum,
	}, nil
}

// StateDim returns 2n: generation levels followed by voltage angles.
func (m *Model) StateDim() int {
	return 2 * m.nodes
}

// EfficiencyTerm is the summed generation cost over all nodes.
func (m *Model) EfficiencyTerm(x []float64, t float64) float64 {
	cost := 0.0
	for i := 0; i < m.nodes; i++ {
		p := x[i]
		c := m.costs[i]
		cost += c.Quadratic*p*p + c.Linear*p + c.Cap
	}
	return cost
}

// AdaptabilityTerm is the squared change of the generation subrange against
// the previous evaluated state. With no previous state the term is zero.
func (m *Model) AdaptabilityTerm(x, prev []float64, t float64) float64 {
	if prev == nil {
		return 0
	}
	change := 0.0
	for i := 0; i < m.nodes; i++ {
		d := x[i] - prev[i]
		change += d * d
	}
	return change
}

// CollectiveTerm is the squared voltage-angle spread over all coupled pairs.
func (m *Model) CollectiveTerm(x []float64, t float64) float64 {
	theta := x[m.nodes:]
	spread := 0.0
	for i := 0; i < m.nodes; i++ {
		for j := i + 1; j < m.nodes; j++ {
			if m.coupling.At(i, j) != 0 {
				d := theta[i] - theta[j]
				spread += d * d
			}
		}
	}
	return spread
}

// Constraints returns 1+2n residuals, satisfied at <= 0: the aggregate
// generation budget against the reserve-scaled capacity sum, then per node
// the upper capacity bound P_i - cap_i and the lower bound -P_i.
func (m *Model) Constraints(x []float64, t float64) []float64 {
	residuals := make([]float64, 0, 1+2*m.nodes)
	residuals = append(residuals, floats.Sum(x[:m.nodes])-m.reserve*m.capSum)
	for i := 0; i < m.nodes; i++ {
		residuals = append(residuals, x[i]-m.costs[i].Cap)
		residuals = append(residuals, -x[i])
	}
	return residuals
}
