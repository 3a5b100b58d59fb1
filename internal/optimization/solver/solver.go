// Package solver defines the black-box contract between the dispatch
// formulation and a generic nonlinear programming engine, together with a
// gonum-backed implementation. The formulation layer only depends on the
// contract: an objective, a starting point, variable bounds, and inequality
// constraint groups satisfied where the residuals are >= 0.
package solver

import "context"

// Bound is a per-variable (lower, upper) pair. Use -Inf/+Inf for an
// unbounded side.
type Bound struct {
	Lower float64
	Upper float64
}

// Inequality is one constraint group. F returns residuals g(v); the group is
// satisfied where every entry of g(v) >= 0. Note this is the opposite sign
// convention from the formulation core, which treats residuals <= 0 as
// satisfied; the driver negates at this boundary.
type Inequality struct {
	F func(v []float64) ([]float64, error)
}

// Problem is the full solver input for one run.
type Problem struct {
	// Objective maps a candidate vector to a scalar cost.
	Objective func(v []float64) (float64, error)

	// X0 is the starting point; its length fixes the problem dimension.
	X0 []float64

	// Bounds has one entry per variable, or is nil for fully unbounded.
	Bounds []Bound

	// Inequalities are the constraint groups.
	Inequalities []Inequality

	// MaxIterations caps the iteration count. Zero means the
	// implementation default.
	MaxIterations int

	// Tolerance is the function-value convergence tolerance. Zero means
	// the implementation default.
	Tolerance float64
}

// Result is the solver output. Non-convergence is reported through Success
// and Message, not through an error: Solve returns a non-nil error only for
// contract misuse (nil objective, empty starting point) or cancellation.
type Result struct {
	// X is the final iterate, converged or not.
	X []float64

	// F is the objective value at X.
	F float64

	// Success reports convergence to a feasible point.
	Success bool

	// Iterations is the number of major iterations performed.
	Iterations int

	// Message carries the engine's termination status when Success is
	// false, verbatim.
	Message string
}

// Solver is the engine contract consumed by the dispatch driver.
type Solver interface {
	Solve(ctx context.Context, p Problem) (Result, error)
}
