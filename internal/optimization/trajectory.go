package optimization

import "fmt"

// ShapeError reports a flat decision vector whose length does not match the
// configured steps*dim. Decode never truncates or pads.
type ShapeError struct {
	Len   int
	Steps int
	Dim   int
}

// Error returns the string representation of the error.
func (e *ShapeError) Error() string {
	return fmt.Sprintf("flat vector length %d does not match %d steps x %d state dims (want %d)",
		e.Len, e.Steps, e.Dim, e.Steps*e.Dim)
}

// Decode reshapes a flat decision vector of length steps*dim into a
// steps x dim trajectory. The layout is row-major: flat[k*dim+j] becomes
// row k, column j. Rows alias fresh storage, not the input slice.
func Decode(flat []float64, steps, dim int) ([][]float64, error) {
	if steps < 1 || dim < 1 || len(flat) != steps*dim {
		return nil, &ShapeError{Len: len(flat), Steps: steps, Dim: dim}
	}
	x := make([][]float64, steps)
	for k := 0; k < steps; k++ {
		row := make([]float64, dim)
		copy(row, flat[k*dim:(k+1)*dim])
		x[k] = row
	}
	return x, nil
}

// Encode is the inverse of Decode: a row-major flatten of the trajectory.
// Decode(Encode(x)) == x and Encode(Decode(v)) == v for all valid shapes.
func Encode(x [][]float64) []float64 {
	if len(x) == 0 {
		return nil
	}
	dim := len(x[0])
	flat := make([]float64, 0, len(x)*dim)
	for _, row := range x {
		flat = append(flat, row...)
	}
	return flat
}

// Replicate tiles a single state vector steps times into a flat vector,
// the solver's starting point. This is exact repetition, not interpolation:
// the initial guess embeds a constant-trajectory assumption regardless of
// the true time-varying optimum.
func Replicate(x0 []float64, steps int) []float64 {
	flat := make([]float64, 0, steps*len(x0))
	for k := 0; k < steps; k++ {
		flat = append(flat, x0...)
	}
	return flat
}
