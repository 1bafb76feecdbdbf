package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Epsilon is the tolerance used for comparing frame axes and poses.
const Epsilon = 1e-9

var (
	Zero    = mgl64.Vec3{}
	UnitX   = mgl64.Vec3{1, 0, 0}
	UnitY   = mgl64.Vec3{0, 1, 0}
	UnitZ   = mgl64.Vec3{0, 0, 1}
	Forward = UnitZ
)

// Abs returns the component-wise absolute value.
func Abs(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{math.Abs(v[0]), math.Abs(v[1]), math.Abs(v[2])}
}

// Scale multiplies two vectors component-wise.
func Scale(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

// Lerp interpolates between a and b, clamping t to [0,1].
func Lerp(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	t = Clamp01(t)
	return a.Add(b.Sub(a).Mul(t))
}

// MoveTowards moves current towards target by at most maxDelta.
func MoveTowards(current, target mgl64.Vec3, maxDelta float64) mgl64.Vec3 {
	delta := target.Sub(current)
	dist := delta.Len()
	if dist <= maxDelta || dist == 0 {
		return target
	}
	return current.Add(delta.Mul(maxDelta / dist))
}

func Distance(a, b mgl64.Vec3) float64 {
	return b.Sub(a).Len()
}

func Clamp01(t float64) float64 {
	switch {
	case t < 0:
		return 0
	case t > 1:
		return 1
	default:
		return t
	}
}

// AxisAngle builds a rotation of deg degrees about axis.
func AxisAngle(axis mgl64.Vec3, deg float64) mgl64.Quat {
	return mgl64.QuatRotate(mgl64.DegToRad(deg), axis.Normalize())
}

// Euler builds a rotation from degrees applied about z, then x, then y.
func Euler(x, y, z float64) mgl64.Quat {
	qx := mgl64.QuatRotate(mgl64.DegToRad(x), UnitX)
	qy := mgl64.QuatRotate(mgl64.DegToRad(y), UnitY)
	qz := mgl64.QuatRotate(mgl64.DegToRad(z), UnitZ)
	return qy.Mul(qx).Mul(qz).Normalize()
}

// EulerVec is Euler with the angles packed in a vector.
func EulerVec(v mgl64.Vec3) mgl64.Quat {
	return Euler(v[0], v[1], v[2])
}

// Nlerp interpolates rotations along the shorter arc and normalizes.
func Nlerp(a, b mgl64.Quat, t float64) mgl64.Quat {
	t = Clamp01(t)
	if a.Dot(b) < 0 {
		b = b.Scale(-1)
	}
	return mgl64.QuatNlerp(a, b, t)
}

// AngleBetween returns the smallest angle in degrees between two orientations.
func AngleBetween(a, b mgl64.Quat) float64 {
	d := a.Normalize().Conjugate().Mul(b.Normalize())
	return mgl64.RadToDeg(2 * math.Atan2(d.V.Len(), math.Abs(d.W)))
}

// ApproxEqual compares vectors with the package tolerance scaled for
// accumulated floating point error.
func ApproxEqual(a, b mgl64.Vec3) bool {
	return a.ApproxEqualThreshold(b, 1e-6)
}
