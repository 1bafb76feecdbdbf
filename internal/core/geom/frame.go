package geom

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var ErrDegenerateFacing = errors.New("geom: facing vector has no dominant axis")

// AxisFrame is the avatar's local orientation on the grid. Forward and Down
// are signed unit axis vectors; Right is derived on demand.
type AxisFrame struct {
	Forward mgl64.Vec3 `json:"forward"`
	Down    mgl64.Vec3 `json:"down"`
}

// Right returns Forward x Down.
func (f AxisFrame) Right() mgl64.Vec3 {
	return f.Forward.Cross(f.Down).Normalize()
}

// Up is the inverse of Down.
func (f AxisFrame) Up() mgl64.Vec3 {
	return f.Down.Mul(-1)
}

// TurnRight makes the old right the new forward.
func (f AxisFrame) TurnRight() AxisFrame {
	return AxisFrame{Forward: f.Right(), Down: f.Down}
}

// TurnLeft makes the old left the new forward.
func (f AxisFrame) TurnLeft() AxisFrame {
	return AxisFrame{Forward: f.Right().Mul(-1), Down: f.Down}
}

// ClimbWall rotates the frame onto a wall ahead: forward becomes up and the
// old forward becomes down.
func (f AxisFrame) ClimbWall() AxisFrame {
	return AxisFrame{Forward: f.Up(), Down: f.Forward}
}

// DropEdge rotates the frame over an edge: forward becomes the old down.
func (f AxisFrame) DropEdge() AxisFrame {
	return AxisFrame{Forward: f.Down, Down: f.Forward.Mul(-1)}
}

// IsOrthonormal reports whether the three axes are unit length and mutually
// perpendicular within tol.
func (f AxisFrame) IsOrthonormal(tol float64) bool {
	r := f.Right()
	for _, v := range []mgl64.Vec3{f.Forward, f.Down, r} {
		if math.Abs(v.Len()-1) > tol {
			return false
		}
	}
	return math.Abs(f.Forward.Dot(f.Down)) <= tol &&
		math.Abs(f.Forward.Dot(r)) <= tol &&
		math.Abs(f.Down.Dot(r)) <= tol
}

// Equal compares two frames axis by axis.
func (f AxisFrame) Equal(o AxisFrame) bool {
	return ApproxEqual(f.Forward, o.Forward) && ApproxEqual(f.Down, o.Down)
}

func (f AxisFrame) String() string {
	return fmt.Sprintf("forward=%v down=%v right=%v", f.Forward, f.Down, f.Right())
}

// FrameFromFacing derives the initial frame from a camera facing vector. The
// component with the largest magnitude becomes forward, the second largest
// becomes down. Ties go to the lower axis index.
func FrameFromFacing(facing mgl64.Vec3) (AxisFrame, error) {
	if facing.Len() < Epsilon {
		return AxisFrame{}, ErrDegenerateFacing
	}

	first, second := rankAxes(facing)
	forward := signedAxis(first, facing[first])

	var down mgl64.Vec3
	if math.Abs(facing[second]) < Epsilon {
		// level facing: fall back to world gravity
		down = UnitY.Mul(-1)
		if first == 1 {
			down = UnitZ.Mul(-1)
		}
	} else {
		down = signedAxis(second, facing[second])
	}

	return AxisFrame{Forward: forward, Down: down}, nil
}

func rankAxes(v mgl64.Vec3) (int, int) {
	first := 0
	for i := 1; i < 3; i++ {
		if math.Abs(v[i]) > math.Abs(v[first]) {
			first = i
		}
	}
	second := -1
	for i := 0; i < 3; i++ {
		if i == first {
			continue
		}
		if second < 0 || math.Abs(v[i]) > math.Abs(v[second]) {
			second = i
		}
	}
	return first, second
}

func signedAxis(i int, sign float64) mgl64.Vec3 {
	var v mgl64.Vec3
	if sign < 0 {
		v[i] = -1
	} else {
		v[i] = 1
	}
	return v
}
