package optimization

// Assemble stacks the model's per-step inequality residuals into one flat
// vector for the whole trajectory, preserving timestep order and then
// within-timestep residual order. Every residual stays a separate scalar;
// a value <= 0 denotes a satisfied constraint.
func Assemble(flat []float64, m Model, steps, dim int, dt float64) ([]float64, error) {
	x, err := Decode(flat, steps, dim)
	if err != nil {
		return nil, err
	}

	var residuals []float64
	for k := 0; k < steps; k++ {
		t := float64(k) * dt
		residuals = append(residuals, m.Constraints(x[k], t)...)
	}
	return residuals, nil
}
