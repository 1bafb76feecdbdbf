package locomotion

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/cubewalk/internal/core/geom"
	"github.com/zeusync/cubewalk/internal/core/terrain"
)

// TerrainProbe answers whether a solid cube lies within maxDist of origin
// along dir.
type TerrainProbe interface {
	ProbeSolid(origin, dir mgl64.Vec3, maxDist float64) (terrain.Hit, bool)
}

// Geometry provides the landing point formulas.
type Geometry struct {
	AvatarSize float64
	CubeSize   float64
}

// restHeight is the distance between a cube centre and the centre of an
// avatar resting on one of its faces.
func (g Geometry) restHeight() float64 {
	return g.AvatarSize/2 + g.CubeSize/2
}

// CenterTarget is the resting point on the face of cube opposite to down.
func (g Geometry) CenterTarget(cube, down mgl64.Vec3) mgl64.Vec3 {
	return cube.Add(down.Mul(-g.restHeight()))
}

// WallTarget is the point just short of a wall ahead.
func (g Geometry) WallTarget(cube, down, forward mgl64.Vec3) mgl64.Vec3 {
	return g.CenterTarget(cube, down).Add(forward.Mul(g.CubeSize/2 - g.AvatarSize/2))
}

// EdgeTarget is the point past the edge of the current face.
func (g Geometry) EdgeTarget(cube, down, forward mgl64.Vec3) mgl64.Vec3 {
	return g.CenterTarget(cube, down).Add(forward.Mul(g.CubeSize/2 + g.AvatarSize/2))
}

// FallTarget keeps the lateral position and takes the resting height along
// the down axis from the cube below.
func (g Geometry) FallTarget(cube, down, pos mgl64.Vec3) mgl64.Vec3 {
	mask := geom.Abs(down)
	rest := geom.Scale(g.CenterTarget(cube, down), mask)
	lateral := pos.Sub(geom.Scale(pos, mask))
	return lateral.Add(rest)
}

// ArcHeight is the vertical offset of a jump at progress p.
func ArcHeight(p, height float64) float64 {
	return math.Sin(math.Pi*p) * height
}

// PlanKind tells the machine what a forward command resolved to.
type PlanKind uint8

const (
	PlanAdvance PlanKind = iota + 1
	PlanWallClimb
	PlanTryingToMove
	PlanEdgeDrop
)

func (k PlanKind) String() string {
	switch k {
	case PlanAdvance:
		return "advance"
	case PlanWallClimb:
		return "wall_climb"
	case PlanTryingToMove:
		return "trying_to_move"
	case PlanEdgeDrop:
		return "edge_drop"
	default:
		return "unknown"
	}
}

// MoveTarget is one translation leg. Corner legs take half the base time.
type MoveTarget struct {
	Point  mgl64.Vec3
	Corner bool
}

// Plan is the outcome of resolving a forward command.
type Plan struct {
	Kind    PlanKind
	Targets []MoveTarget

	// TurnAxis is the camera rotation axis of corner plans.
	TurnAxis mgl64.Vec3

	// Support is the centre of the cube the avatar stood on.
	Support mgl64.Vec3
}

// Resolver turns a forward command into a Plan using terrain probes.
type Resolver struct {
	geo   Geometry
	probe TerrainProbe
	reach float64
}

func NewResolver(geo Geometry, probe TerrainProbe, reach float64) *Resolver {
	return &Resolver{geo: geo, probe: probe, reach: reach}
}

func (r *Resolver) Geometry() Geometry { return r.geo }

// Support probes below pos.
func (r *Resolver) Support(pos mgl64.Vec3, frame geom.AxisFrame) (terrain.Hit, bool) {
	return r.probe.ProbeSolid(pos, frame.Down, r.reach)
}

// Resolve evaluates the forward decision policy for an avatar at pos.
func (r *Resolver) Resolve(pos mgl64.Vec3, frame geom.AxisFrame) (Plan, error) {
	below, ok := r.Support(pos, frame)
	if !ok {
		return Plan{}, fmt.Errorf("%w at %v", ErrNoSupport, pos)
	}
	current := below.Cube
	right := frame.Right()
	center := r.geo.CenterTarget(current, frame.Down)

	// a wall directly ahead of the avatar
	if wall, ok := r.probe.ProbeSolid(pos, frame.Forward, r.reach); ok {
		return Plan{
			Kind: PlanWallClimb,
			Targets: []MoveTarget{
				{Point: r.geo.WallTarget(current, frame.Down, frame.Forward), Corner: true},
				{Point: r.geo.CenterTarget(wall.Cube, frame.Forward), Corner: true},
			},
			TurnAxis: right.Mul(-1),
			Support:  current,
		}, nil
	}

	// floor continues ahead of the current cube
	if next, ok := r.probe.ProbeSolid(current, frame.Forward, r.reach); ok {
		target := r.geo.CenterTarget(next.Cube, frame.Down)
		if ahead(frame.Forward, center, pos) {
			target = center
		}
		return Plan{Kind: PlanAdvance, Targets: []MoveTarget{{Point: target}}, Support: current}, nil
	}

	// floor turns sideways
	_, onRight := r.probe.ProbeSolid(current, right, r.reach)
	_, onLeft := r.probe.ProbeSolid(current, right.Mul(-1), r.reach)
	if onRight || onLeft {
		if ahead(frame.Forward, center, pos) {
			return Plan{Kind: PlanAdvance, Targets: []MoveTarget{{Point: center}}, Support: current}, nil
		}
		return Plan{Kind: PlanTryingToMove, Support: current}, nil
	}

	return Plan{
		Kind: PlanEdgeDrop,
		Targets: []MoveTarget{
			{Point: r.geo.EdgeTarget(current, frame.Down, frame.Forward), Corner: true},
			{Point: r.geo.CenterTarget(current, frame.Forward.Mul(-1)), Corner: true},
		},
		TurnAxis: right.Mul(-1),
		Support:  current,
	}, nil
}

func ahead(forward, target, pos mgl64.Vec3) bool {
	return forward.Dot(target.Sub(pos)) > geom.Epsilon
}
