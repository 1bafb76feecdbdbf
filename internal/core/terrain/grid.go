package terrain

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// Cell addresses one cube of the grid in integer coordinates.
type Cell struct {
	X, Y, Z int
}

func (c Cell) Add(o Cell) Cell {
	return Cell{c.X + o.X, c.Y + o.Y, c.Z + o.Z}
}

func (c Cell) less(o Cell) bool {
	if c.X != o.X {
		return c.X < o.X
	}
	if c.Y != o.Y {
		return c.Y < o.Y
	}
	return c.Z < o.Z
}

// Hit is the result of a successful solid probe.
type Hit struct {
	// Point is where the probe entered the cube.
	Point mgl64.Vec3

	// Cube is the world position of the cube centre.
	Cube mgl64.Vec3

	// Distance along the probe direction.
	Distance float64
}

// Kind classifies a trigger volume touched by the avatar.
type Kind uint8

const (
	KindSolid Kind = iota + 1
	KindHazard
	KindExit
	KindKey
)

func (k Kind) String() string {
	switch k {
	case KindSolid:
		return "solid"
	case KindHazard:
		return "hazard"
	case KindExit:
		return "exit"
	case KindKey:
		return "key"
	default:
		return "unknown"
	}
}

// Overlap is a trigger volume intersecting a sphere.
type Overlap struct {
	Kind Kind
	Cell Cell
}

// Grid is a sparse cube world. It is read-only once built and safe for
// concurrent probes.
type Grid struct {
	size    float64
	solid   map[Cell]struct{}
	hazards map[Cell]struct{}
	keys    map[Cell]struct{}
	exit    *Cell
}

func NewGrid(cubeSize float64) *Grid {
	if cubeSize <= 0 {
		cubeSize = 1
	}
	return &Grid{
		size:    cubeSize,
		solid:   make(map[Cell]struct{}),
		hazards: make(map[Cell]struct{}),
		keys:    make(map[Cell]struct{}),
	}
}

func (g *Grid) CubeSize() float64 { return g.size }

func (g *Grid) AddSolid(cells ...Cell) {
	for _, c := range cells {
		g.solid[c] = struct{}{}
	}
}

func (g *Grid) AddHazard(cells ...Cell) {
	for _, c := range cells {
		g.hazards[c] = struct{}{}
	}
}

// AddKey places collectable keys. Collecting them is up to the caller; the
// grid keeps reporting a key cell.
func (g *Grid) AddKey(cells ...Cell) {
	for _, c := range cells {
		g.keys[c] = struct{}{}
	}
}

func (g *Grid) Keys() int { return len(g.keys) }

func (g *Grid) SetExit(c Cell) {
	g.exit = &c
}

func (g *Grid) IsSolid(c Cell) bool {
	_, ok := g.solid[c]
	return ok
}

func (g *Grid) Len() int { return len(g.solid) }

// Center converts a cell to world coordinates.
func (g *Grid) Center(c Cell) mgl64.Vec3 {
	return mgl64.Vec3{float64(c.X) * g.size, float64(c.Y) * g.size, float64(c.Z) * g.size}
}

// CellAt returns the cell containing p.
func (g *Grid) CellAt(p mgl64.Vec3) Cell {
	return Cell{
		X: int(math.Floor(p[0]/g.size + 0.5)),
		Y: int(math.Floor(p[1]/g.size + 0.5)),
		Z: int(math.Floor(p[2]/g.size + 0.5)),
	}
}

// SolidCells returns the solid cells in a stable order.
func (g *Grid) SolidCells() []Cell {
	out := make([]Cell, 0, len(g.solid))
	for c := range g.solid {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].less(out[j]) })
	return out
}

// ProbeSolid casts a segment of length maxDist from origin along dir and
// returns the nearest solid cube it enters. A cube that contains the origin
// is not reported.
func (g *Grid) ProbeSolid(origin, dir mgl64.Vec3, maxDist float64) (Hit, bool) {
	if dir.Len() == 0 || maxDist <= 0 {
		return Hit{}, false
	}
	dir = dir.Normalize()
	end := origin.Add(dir.Mul(maxDist))
	lo := g.CellAt(componentMin(origin, end))
	hi := g.CellAt(componentMax(origin, end))

	best := Hit{Distance: math.Inf(1)}
	found := false
	for x := lo.X - 1; x <= hi.X+1; x++ {
		for y := lo.Y - 1; y <= hi.Y+1; y++ {
			for z := lo.Z - 1; z <= hi.Z+1; z++ {
				c := Cell{x, y, z}
				if !g.IsSolid(c) {
					continue
				}
				center := g.Center(c)
				if g.containsStrict(center, origin) {
					continue
				}
				t, ok := g.slab(center, origin, dir)
				if !ok || t > maxDist || t >= best.Distance {
					continue
				}
				best = Hit{Point: origin.Add(dir.Mul(t)), Cube: center, Distance: t}
				found = true
			}
		}
	}
	return best, found
}

// Overlaps reports every trigger volume a sphere intersects. Touching exactly
// at the surface does not count.
func (g *Grid) Overlaps(center mgl64.Vec3, radius float64) []Overlap {
	lo := g.CellAt(center.Sub(mgl64.Vec3{radius, radius, radius}))
	hi := g.CellAt(center.Add(mgl64.Vec3{radius, radius, radius}))

	var out []Overlap
	for x := lo.X; x <= hi.X; x++ {
		for y := lo.Y; y <= hi.Y; y++ {
			for z := lo.Z; z <= hi.Z; z++ {
				c := Cell{x, y, z}
				if !g.sphereTouches(c, center, radius) {
					continue
				}
				if g.IsSolid(c) {
					out = append(out, Overlap{Kind: KindSolid, Cell: c})
				}
				if _, ok := g.hazards[c]; ok {
					out = append(out, Overlap{Kind: KindHazard, Cell: c})
				}
				if _, ok := g.keys[c]; ok {
					out = append(out, Overlap{Kind: KindKey, Cell: c})
				}
				if g.exit != nil && *g.exit == c {
					out = append(out, Overlap{Kind: KindExit, Cell: c})
				}
			}
		}
	}
	return out
}

func (g *Grid) sphereTouches(c Cell, center mgl64.Vec3, radius float64) bool {
	box := g.Center(c)
	half := g.size / 2
	var d2 float64
	for i := 0; i < 3; i++ {
		v := center[i]
		lo, hi := box[i]-half, box[i]+half
		switch {
		case v < lo:
			d2 += (lo - v) * (lo - v)
		case v > hi:
			d2 += (v - hi) * (v - hi)
		}
	}
	return d2 < radius*radius
}

func (g *Grid) containsStrict(box, p mgl64.Vec3) bool {
	half := g.size / 2
	for i := 0; i < 3; i++ {
		if p[i] <= box[i]-half || p[i] >= box[i]+half {
			return false
		}
	}
	return true
}

// slab returns the entry distance of the ray into the cube.
func (g *Grid) slab(box, origin, dir mgl64.Vec3) (float64, bool) {
	half := g.size / 2
	tmin, tmax := math.Inf(-1), math.Inf(1)
	for i := 0; i < 3; i++ {
		lo, hi := box[i]-half, box[i]+half
		if math.Abs(dir[i]) < 1e-12 {
			if origin[i] < lo || origin[i] > hi {
				return 0, false
			}
			continue
		}
		t1 := (lo - origin[i]) / dir[i]
		t2 := (hi - origin[i]) / dir[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}
	if tmax <= 0 {
		return 0, false
	}
	if tmin < 0 {
		tmin = 0
	}
	return tmin, true
}

func componentMin(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{math.Min(a[0], b[0]), math.Min(a[1], b[1]), math.Min(a[2], b[2])}
}

func componentMax(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{math.Max(a[0], b[0]), math.Max(a[1], b[1]), math.Max(a[2], b[2])}
}
