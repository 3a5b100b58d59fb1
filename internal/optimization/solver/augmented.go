package solver

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"
)

// Default solver budget when the caller leaves the problem fields unset.
const (
	defaultMaxIterations = 1000
	defaultTolerance     = 1e-6
)

// Augmented solves constrained problems by an exterior quadratic-penalty
// loop around gonum's L-BFGS. Each outer round minimizes
//
//	f(v) + rho * sum_i max(0, -g_i(v))^2
//
// with gradients from central finite differences, then grows rho until the
// iterate is feasible to within FeasTol or the outer budget is spent. It is
// a local search: no global optimality is implied by Success.
type Augmented struct {
	// InitialPenalty is the first outer round's rho.
	InitialPenalty float64

	// PenaltyGrowth multiplies rho between outer rounds.
	PenaltyGrowth float64

	// OuterRounds bounds the number of penalty continuation rounds.
	OuterRounds int

	// FeasTol is the maximum constraint violation accepted as feasible.
	FeasTol float64
}

// NewAugmented returns a solver with the standard continuation schedule.
func NewAugmented() *Augmented {
	return &Augmented{
		InitialPenalty: 10,
		PenaltyGrowth:  10,
		OuterRounds:    6,
		FeasTol:        1e-4,
	}
}

// Solve runs the penalty continuation. Non-convergence and infeasibility are
// reported through the Result; the error return is reserved for contract
// misuse and context cancellation.
func (s *Augmented) Solve(ctx context.Context, p Problem) (Result, error) {
	if p.Objective == nil {
		return Result{}, fmt.Errorf("solver: nil objective function")
	}
	if len(p.X0) == 0 {
		return Result{}, fmt.Errorf("solver: empty starting point")
	}
	if p.MaxIterations < 1 {
		p.MaxIterations = defaultMaxIterations
	}
	if p.Tolerance <= 0 {
		p.Tolerance = defaultTolerance
	}

	x := append([]float64(nil), p.X0...)
	rho := s.InitialPenalty
	iterations := 0
	var lastStatus string

	for round := 0; round < s.OuterRounds; round++ {
		if err := ctx.Err(); err != nil {
			return Result{X: x, Success: false, Message: err.Error()}, err
		}

		fn := s.penalized(p, rho)
		prob := optimize.Problem{
			Func: fn,
			Grad: func(grad, v []float64) {
				fd.Gradient(grad, fn, v, nil)
			},
		}
		settings := &optimize.Settings{
			MajorIterations: p.MaxIterations,
			Converger: &optimize.FunctionConverge{
				Absolute:   p.Tolerance,
				Relative:   p.Tolerance,
				Iterations: 50,
			},
		}

		res, err := optimize.Minimize(prob, x, settings, &optimize.LBFGS{})
		if res != nil {
			copy(x, res.X)
			iterations += res.Stats.MajorIterations
			lastStatus = res.Status.String()
		}
		if err != nil {
			// Keep the last iterate and surface the engine's message;
			// a later round may still recover if res was usable.
			lastStatus = err.Error()
			if res == nil {
				break
			}
		}

		if s.violation(p, x) <= s.FeasTol {
			break
		}
		rho *= s.PenaltyGrowth
	}

	f, err := p.Objective(x)
	if err != nil {
		return Result{X: x, Success: false, Iterations: iterations, Message: err.Error()}, nil
	}

	viol := s.violation(p, x)
	out := Result{
		X:          x,
		F:          f,
		Iterations: iterations,
		Success:    viol <= s.FeasTol && !math.IsInf(f, 0) && !math.IsNaN(f),
	}
	if !out.Success {
		out.Message = fmt.Sprintf("%s (max constraint violation %.3g)", lastStatus, viol)
	}
	return out, nil
}

// penalized builds the unconstrained objective for one outer round. Errors
// and non-finite values from the callbacks map to +Inf, which the line
// search rejects.
func (s *Augmented) penalized(p Problem, rho float64) func(v []float64) float64 {
	return func(v []float64) float64 {
		f, err := p.Objective(v)
		if err != nil || math.IsNaN(f) {
			return math.Inf(1)
		}

		pen := 0.0
		for _, c := range p.Inequalities {
			g, err := c.F(v)
			if err != nil {
				return math.Inf(1)
			}
			for _, gi := range g {
				if gi < 0 {
					pen += gi * gi
				}
			}
		}
		for i, b := range p.Bounds {
			if d := b.Lower - v[i]; d > 0 && !math.IsInf(b.Lower, -1) {
				pen += d * d
			}
			if d := v[i] - b.Upper; d > 0 && !math.IsInf(b.Upper, 1) {
				pen += d * d
			}
		}
		return f + rho*pen
	}
}

// violation returns the largest constraint or bound violation at v.
func (s *Augmented) violation(p Problem, v []float64) float64 {
	worst := 0.0
	for _, c := range p.Inequalities {
		g, err := c.F(v)
		if err != nil {
			return math.Inf(1)
		}
		for _, gi := range g {
			if -gi > worst {
				worst = -gi
			}
		}
	}
	for i, b := range p.Bounds {
		if d := b.Lower - v[i]; d > worst {
			worst = d
		}
		if d := v[i] - b.Upper; d > worst {
			worst = d
		}
	}
	return worst
}
