package optimization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEncodeRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		steps int
		dim   int
	}{
		{name: "single step single dim", steps: 1, dim: 1},
		{name: "single step", steps: 1, dim: 4},
		{name: "single dim", steps: 5, dim: 1},
		{name: "reference shape", steps: 24, dim: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flat := make([]float64, tt.steps*tt.dim)
			for i := range flat {
				flat[i] = float64(i) * 0.5
			}

			x, err := Decode(flat, tt.steps, tt.dim)
			require.NoError(t, err)
			require.Len(t, x, tt.steps)

			// Row-major layout: flat[k*dim+j] lands at row k, column j.
			for k := 0; k < tt.steps; k++ {
				require.Len(t, x[k], tt.dim)
				for j := 0; j < tt.dim; j++ {
					assert.Equal(t, flat[k*tt.dim+j], x[k][j])
				}
			}

			assert.Equal(t, flat, Encode(x))
		})
	}
}

func TestDecodeShapeError(t *testing.T) {
	tests := []struct {
		name  string
		len   int
		steps int
		dim   int
	}{
		{name: "too short", len: 5, steps: 2, dim: 3},
		{name: "too long", len: 7, steps: 2, dim: 3},
		{name: "empty", len: 0, steps: 1, dim: 1},
		{name: "zero steps", len: 3, steps: 0, dim: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(make([]float64, tt.len), tt.steps, tt.dim)
			require.Error(t, err)

			var shapeErr *ShapeError
			require.ErrorAs(t, err, &shapeErr)
			assert.Equal(t, tt.len, shapeErr.Len)
		})
	}
}

func TestDecodeCopiesStorage(t *testing.T) {
	flat := []float64{1, 2, 3, 4}
	x, err := Decode(flat, 2, 2)
	require.NoError(t, err)

	flat[0] = 99
	assert.Equal(t, 1.0, x[0][0], "decoded rows must not alias the input slice")
}

func TestReplicate(t *testing.T) {
	x0 := []float64{50, 60, 40, 0, 0, 0}
	const steps = 24

	flat := Replicate(x0, steps)
	require.Len(t, flat, steps*len(x0))

	x, err := Decode(flat, steps, len(x0))
	require.NoError(t, err)
	for k := 0; k < steps; k++ {
		assert.Equal(t, x0, x[k], "step %d must repeat the initial state exactly", k)
	}
}

func TestEncodeEmpty(t *testing.T) {
	assert.Nil(t, Encode(nil))
	assert.Nil(t, Encode([][]float64{}))
}
