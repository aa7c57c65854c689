package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAngleClose(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		x, y      float64
		tolerance float64
		expected  bool
	}{
		{name: "wraparound zero tolerance", x: 0, y: 2 * math.Pi, tolerance: 0, expected: true},
		{name: "wraparound small tolerance", x: 0, y: 2 * math.Pi, tolerance: 1e-9, expected: true},
		{name: "opposite", x: 0, y: math.Pi, tolerance: 0.001, expected: false},
		{name: "opposite wide tolerance", x: 0, y: math.Pi, tolerance: math.Pi, expected: true},
		{name: "across zero", x: -0.05, y: 2*math.Pi + 0.05, tolerance: 0.11, expected: true},
		{name: "just outside", x: 0.0, y: 0.2, tolerance: 0.1, expected: false},
		{name: "negative and positive", x: -math.Pi / 2, y: 3 * math.Pi / 2, tolerance: 1e-6, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, IsAngleClose(tt.x, tt.y, tt.tolerance))
		})
	}
}

func TestIsAngleCloseDeg_MatchesRadians(t *testing.T) {
	t.Parallel()

	pairs := [][2]float64{{0, 360}, {0, 180}, {90, 450}, {10, 12}, {-45, 315}}

	for _, p := range pairs {
		for _, tol := range []float64{0, 0.001, 0.05, 1} {
			assert.Equal(t,
				IsAngleClose(Radians(p[0]), Radians(p[1]), tol),
				IsAngleCloseDeg(p[0], p[1], tol),
				"pair %v tolerance %v", p, tol,
			)
		}
	}

	assert.True(t, IsAngleCloseDeg(0, 360, 0))
}

func TestVector3_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "(x: 1.00, y: -2.50, z: 3.14)", Vector3{X: 1, Y: -2.5, Z: 3.14159}.String())
	assert.Equal(t, "(x: 0.00, y: 0.00, z: 0.00)", Vector3{}.String())
}

func TestVector3_Magnitude(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 5.0, Vector3{X: 3, Y: 4}.Magnitude(), 1e-12)
}

func TestAABB_String(t *testing.T) {
	t.Parallel()

	box := AABB{Min: Vector3{X: -1, Y: -1, Z: 0}, Max: Vector3{X: 1, Y: 1, Z: 2}}
	assert.Equal(t, "[Min: (x: -1.00, y: -1.00, z: 0.00), Max: (x: 1.00, y: 1.00, z: 2.00)]", box.String())
}
