package optimization

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/copyleftdev/HORIZON/internal/optimization/solver"
)

// Driver wires a domain model, a run configuration, and a solver engine into
// a single optimization run. One Driver serves one model instance; because a
// run threads its own previous-state accumulator, independent runs on the
// same Driver are safe to repeat but must not execute concurrently with a
// model that carries run-scoped state of its own.
type Driver struct {
	model  Model
	cfg    Config
	engine solver.Solver
	logger *zap.Logger
}

// NewDriver builds a driver. A nil logger disables logging.
func NewDriver(m Model, cfg Config, engine solver.Solver, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{
		model:  m,
		cfg:    cfg.withDefaults(),
		engine: engine,
		logger: logger,
	}
}

// Config returns the defaulted run configuration in effect.
func (d *Driver) Config() Config {
	return d.cfg
}

// Optimize solves the finite-horizon dispatch problem starting from the
// initial state x0, which is tiled across all timesteps as the solver's
// starting point. Every decision variable is unbounded: domain models
// express bounds through their constraint residuals instead.
//
// A solver failure is not an error; it comes back as a Result with
// Success=false and the engine's message verbatim. The run is never retried.
func (d *Driver) Optimize(ctx context.Context, x0 []float64) (*Result, error) {
	dim := d.model.StateDim()
	if len(x0) != dim {
		return nil, NewErrorf("initial state has %d entries, model expects %d", len(x0), dim).
			WithComponent("driver").WithOperation("optimize")
	}

	steps := d.cfg.Steps
	dt := d.cfg.Dt()
	weights := d.cfg.Weights

	if _, ok := d.model.(DynamicsModel); ok {
		// The free-state formulation links timesteps only through the
		// smoothness and coupling terms; declared dynamics are not
		// enforced as constraints.
		d.logger.Debug("model declares dynamics; free-state formulation ignores them")
	}

	objective := func(v []float64) (float64, error) {
		return Aggregate(v, d.model, steps, dim, dt, weights)
	}

	// Boundary adapter: the core treats residuals <= 0 as satisfied, the
	// solver contract wants g(v) >= 0, so the stacked residuals are
	// negated here and nowhere else.
	inequality := solver.Inequality{
		F: func(v []float64) ([]float64, error) {
			residuals, err := Assemble(v, d.model, steps, dim, dt)
			if err != nil {
				return nil, err
			}
			for i := range residuals {
				residuals[i] = -residuals[i]
			}
			return residuals, nil
		},
	}

	bounds := make([]solver.Bound, steps*dim)
	for i := range bounds {
		bounds[i] = solver.Bound{Lower: math.Inf(-1), Upper: math.Inf(1)}
	}

	d.logger.Info("starting dispatch solve",
		zap.Int("steps", steps),
		zap.Int("state_dim", dim),
		zap.Float64("dt", dt),
	)

	solved, err := d.engine.Solve(ctx, solver.Problem{
		Objective:     objective,
		X0:            Replicate(x0, steps),
		Bounds:        bounds,
		Inequalities:  []solver.Inequality{inequality},
		MaxIterations: d.cfg.MaxIterations,
		Tolerance:     d.cfg.Tolerance,
	})
	if err != nil {
		return nil, WrapError(err, "solver invocation failed").
			WithComponent("driver").WithOperation("optimize")
	}

	trajectory, err := Decode(solved.X, steps, dim)
	if err != nil {
		return nil, WrapError(err, "solver returned a malformed vector").
			WithComponent("driver").WithOperation("optimize")
	}

	d.logger.Info("dispatch solve finished",
		zap.Bool("success", solved.Success),
		zap.Int("iterations", solved.Iterations),
		zap.Float64("final_cost", solved.F),
	)

	return &Result{
		Success:    solved.Success,
		Trajectory: trajectory,
		FinalCost:  solved.F,
		Iterations: solved.Iterations,
		Message:    solved.Message,
	}, nil
}
