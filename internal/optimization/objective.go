package optimization

// Aggregate evaluates the full-horizon integrated cost of a flat decision
// vector. The trajectory is decoded, the model's three weighted terms are
// evaluated at each t_k = k*dt in strictly increasing k, and the samples are
// combined with trapezoidal quadrature: endpoints weighted 0.5, interior
// points 1.0, each scaled by dt.
//
// The previous state is threaded explicitly into AdaptabilityTerm (nil at
// k=0), so repeated calls on the same vector are deterministic and no hidden
// per-model memo survives between runs.
func Aggregate(flat []float64, m Model, steps, dim int, dt float64, w Weights) (float64, error) {
	x, err := Decode(flat, steps, dim)
	if err != nil {
		return 0, err
	}

	total := 0.0
	var prev []float64
	for k := 0; k < steps; k++ {
		t := float64(k) * dt
		xk := x[k]

		cost := w.Alpha*m.EfficiencyTerm(xk, t) +
			w.Beta*m.AdaptabilityTerm(xk, prev, t) +
			w.Gamma*m.CollectiveTerm(xk, t)

		weight := 1.0
		if k == 0 || k == steps-1 {
			weight = 0.5
		}
		total += weight * cost * dt

		prev = xk
	}
	return total, nil
}
