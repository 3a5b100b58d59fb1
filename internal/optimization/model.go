// Package optimization formulates finite-horizon dispatch problems as
// finite-dimensional nonlinear programs. A continuous-time trajectory is
// discretized into K states of dimension d, the three weighted cost terms of
// a domain model are integrated with the trapezoidal rule, and per-step
// constraint residuals are stacked into the flat form a generic solver
// consumes.
package optimization

// Model supplies the problem-specific cost and constraint semantics for one
// timestep's state. Implementations must be safe to evaluate repeatedly on
// arbitrary candidate states; all methods are pure functions of their
// arguments and the model's configured parameters.
type Model interface {
	// StateDim returns the dimension d of a single timestep's state vector.
	// It is fixed for the lifetime of the model.
	StateDim() int

	// EfficiencyTerm returns the immediate operating cost at state x, time t.
	EfficiencyTerm(x []float64, t float64) float64

	// AdaptabilityTerm penalizes deviation of x from the previous evaluated
	// state prev. prev is nil on the first evaluation of a run, in which
	// case the term is zero. The caller threads prev in increasing time
	// order, so consecutive calls yield a forward-difference smoothness
	// penalty between adjacent trajectory steps.
	AdaptabilityTerm(x, prev []float64, t float64) float64

	// CollectiveTerm returns the pairwise coupling penalty at state x.
	CollectiveTerm(x []float64, t float64) float64

	// Constraints returns the inequality residuals at state x, time t.
	// A residual value <= 0 denotes a satisfied constraint. The residual
	// count and ordering must be identical at every state.
	Constraints(x []float64, t float64) []float64
}

// DynamicsModel is an optional capability for models with explicit state
// transition dynamics dx/dt = G(x, u, xi). The free-state formulation in this
// package never calls it: timesteps are independent decision variables linked
// only by the smoothness and coupling cost terms, and no dynamics-consistency
// constraint is enforced between consecutive steps.
type DynamicsModel interface {
	SystemDynamics(x, u, disturbance []float64, t float64) []float64
}

// Weights are the fixed non-negative term weights (alpha, beta, gamma),
// conceptually summing to 1. They are configured once and never mutated
// during a run.
type Weights struct {
	Alpha float64
	Beta  float64
	Gamma float64
}

// DefaultWeights returns the standard 0.4/0.3/0.3 split.
func DefaultWeights() Weights {
	return Weights{Alpha: 0.4, Beta: 0.3, Gamma: 0.3}
}

// Config fixes the discretization and solver budget for a run. The step size
// dt = TimeHorizon/Steps is derived once at configuration time.
type Config struct {
	// Weights for the three cost terms.
	Weights Weights

	// TimeHorizon is the total horizon length T.
	TimeHorizon float64

	// Steps is the number of discretization steps K.
	Steps int

	// MaxIterations caps the solver's iteration count.
	MaxIterations int

	// Tolerance is the solver's function-value convergence tolerance.
	Tolerance float64
}

// DefaultConfig mirrors the framework defaults: unit horizon, 100 steps.
func DefaultConfig() Config {
	return Config{
		Weights:       DefaultWeights(),
		TimeHorizon:   1.0,
		Steps:         100,
		MaxIterations: 1000,
		Tolerance:     1e-6,
	}
}

// Dt returns the derived step size.
func (c Config) Dt() float64 {
	return c.TimeHorizon / float64(c.Steps)
}

// withDefaults fills zero-valued fields the way DefaultConfig would.
func (c Config) withDefaults() Config {
	if c.Weights == (Weights{}) {
		c.Weights = DefaultWeights()
	}
	if c.TimeHorizon <= 0 {
		c.TimeHorizon = 1.0
	}
	if c.Steps < 1 {
		c.Steps = 100
	}
	if c.MaxIterations < 1 {
		c.MaxIterations = 1000
	}
	if c.Tolerance <= 0 {
		c.Tolerance = 1e-6
	}
	return c
}

// Result holds the outcome of a single dispatch run. It is created once per
// Optimize call and never mutated after return. Callers must check Success
// before trusting Trajectory: a failed or capped-out run carries the solver's
// final non-converged iterate.
type Result struct {
	// Success reports whether the solver converged to a feasible point.
	Success bool

	// Trajectory is the decoded K x d solution grid, chronological by row.
	Trajectory [][]float64

	// FinalCost is the aggregated objective value at the returned iterate.
	FinalCost float64

	// Iterations is the solver's iteration count.
	Iterations int

	// Message carries the solver's failure message verbatim, if any.
	Message string
}
