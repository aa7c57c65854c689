// Package geom holds small numeric helpers used by test scripts: wraparound
// safe angle comparison and 2-decimal vector/box formatting.
package geom

import (
	"fmt"
	"math"
)

// IsAngleClose reports whether two angles in radians are within tolerance of
// each other, measured along the unit circle so 0 and 2π compare equal.
func IsAngleClose(xRad, yRad, tolerance float64) bool {
	var (
		dSin = math.Sin(xRad) - math.Sin(yRad)
		dCos = math.Cos(xRad) - math.Cos(yRad)
		r    = dSin*dSin + dCos*dCos
	)

	// Rounding can push the cosine a hair outside acos's domain.
	cos := math.Max(-1, math.Min(1, (2.0-r)/2.0))
	diff := math.Acos(cos)

	return math.Abs(diff) <= tolerance
}

// IsAngleCloseDeg is IsAngleClose for angles in degrees. The tolerance is in
// radians.
func IsAngleCloseDeg(xDeg, yDeg, tolerance float64) bool {
	return IsAngleClose(Radians(xDeg), Radians(yDeg), tolerance)
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// Vector3 is a 3-component vector.
type Vector3 struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
	Z float64 `yaml:"z" json:"z"`
}

func (v Vector3) String() string {
	return fmt.Sprintf("(x: %.2f, y: %.2f, z: %.2f)", v.X, v.Y, v.Z)
}

// Magnitude returns the Euclidean length of v.
func (v Vector3) Magnitude() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min Vector3 `yaml:"min" json:"min"`
	Max Vector3 `yaml:"max" json:"max"`
}

func (b AABB) String() string {
	return fmt.Sprintf("[Min: %s, Max: %s]", b.Min, b.Max)
}
