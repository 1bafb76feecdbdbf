package terrain

import (
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lineGrid() *Grid {
	g := NewGrid(1)
	g.AddSolid(Cell{0, 0, 0}, Cell{0, 0, 1}, Cell{0, 0, 2})
	return g
}

func TestProbeDownFindsSupport(t *testing.T) {
	g := lineGrid()
	hit, ok := g.ProbeSolid(mgl64.Vec3{0, 0.7, 0}, mgl64.Vec3{0, -1, 0}, 1)
	require.True(t, ok)
	assert.Equal(t, mgl64.Vec3{0, 0, 0}, hit.Cube)
	assert.InDelta(t, 0.2, hit.Distance, 1e-9)
	assert.InDelta(t, 0.5, hit.Point[1], 1e-9)
}

func TestProbeIgnoresContainingCube(t *testing.T) {
	g := lineGrid()
	hit, ok := g.ProbeSolid(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 1}, 1)
	require.True(t, ok)
	assert.Equal(t, mgl64.Vec3{0, 0, 1}, hit.Cube)
	assert.InDelta(t, 0.5, hit.Distance, 1e-9)

	_, ok = g.ProbeSolid(mgl64.Vec3{0, 0, 2}, mgl64.Vec3{0, 0, 1}, 1)
	assert.False(t, ok)
}

func TestProbeRespectsMaxDistance(t *testing.T) {
	g := NewGrid(1)
	g.AddSolid(Cell{0, 0, 0})
	_, ok := g.ProbeSolid(mgl64.Vec3{0, 2, 0}, mgl64.Vec3{0, -1, 0}, 1)
	assert.False(t, ok)

	_, ok = g.ProbeSolid(mgl64.Vec3{0, 1.4, 0}, mgl64.Vec3{0, -1, 0}, 1)
	assert.True(t, ok)
}

func TestProbeMissesAbove(t *testing.T) {
	g := lineGrid()
	_, ok := g.ProbeSolid(mgl64.Vec3{0, 0.7, 0}, mgl64.Vec3{0, 0, 1}, 1)
	assert.False(t, ok)
}

func TestProbePicksNearest(t *testing.T) {
	g := NewGrid(1)
	g.AddSolid(Cell{0, 0, 1}, Cell{0, 0, 2})
	hit, ok := g.ProbeSolid(mgl64.Vec3{0, 0, 0.4}, mgl64.Vec3{0, 0, 1}, 1)
	require.True(t, ok)
	assert.Equal(t, mgl64.Vec3{0, 0, 1}, hit.Cube)
	assert.InDelta(t, 0.1, hit.Distance, 1e-9)
}

func TestOverlaps(t *testing.T) {
	g := lineGrid()
	g.AddHazard(Cell{0, 1, 1})
	g.SetExit(Cell{0, 1, 2})

	// resting on top of a cube touches nothing
	assert.Empty(t, g.Overlaps(mgl64.Vec3{0, 0.7, 0}, 0.2))

	got := g.Overlaps(mgl64.Vec3{0, 1, 0.7}, 0.3)
	require.Len(t, got, 1)
	assert.Equal(t, KindHazard, got[0].Kind)

	got = g.Overlaps(mgl64.Vec3{0, 0.6, 2}, 0.2)
	kinds := map[Kind]bool{}
	for _, o := range got {
		kinds[o.Kind] = true
	}
	assert.True(t, kinds[KindSolid])
	assert.True(t, kinds[KindExit])
}

func TestOverlapsReportsKeys(t *testing.T) {
	g := lineGrid()
	g.AddKey(Cell{0, 1, 1}, Cell{0, 1, 1})
	assert.Equal(t, 1, g.Keys())

	got := g.Overlaps(mgl64.Vec3{0, 0.7, 1}, 0.18)
	require.Len(t, got, 1)
	assert.Equal(t, Overlap{Kind: KindKey, Cell: Cell{0, 1, 1}}, got[0])
	assert.Equal(t, "key", KindKey.String())

	assert.Empty(t, g.Overlaps(mgl64.Vec3{0, 0.7, 0}, 0.18))
}

func TestCellAt(t *testing.T) {
	g := NewGrid(1)
	assert.Equal(t, Cell{0, 1, -1}, g.CellAt(mgl64.Vec3{0.2, 0.7, -0.6}))
	assert.Equal(t, mgl64.Vec3{2, 0, -3}, g.Center(Cell{2, 0, -3}))
}

const sampleLevel = `
name: sample
spawn: [0, 0.7, 0]
camera:
  rotation: [15, 0, 0]
cubes:
  - [5, 5, 5]
boxes:
  - from: [0, 0, 0]
    to: [0, 0, 3]
hazards:
  - [0, 1, 2]
exit: [0, 1, 3]
exit_open: true
`

func TestDecodeLevel(t *testing.T) {
	lvl, err := DecodeLevel(strings.NewReader(sampleLevel))
	require.NoError(t, err)

	assert.Equal(t, "sample", lvl.Name)
	assert.True(t, lvl.ExitOpen)
	assert.Equal(t, mgl64.Vec3{0, 0.7, 0}, lvl.SpawnPoint())
	assert.Equal(t, mgl64.Vec3{15, 0, 0}, lvl.CameraEuler())
	assert.Equal(t, 5, lvl.Grid().Len())
	assert.True(t, lvl.Grid().IsSolid(Cell{0, 0, 3}))
	assert.True(t, lvl.Grid().IsSolid(Cell{5, 5, 5}))
	assert.Equal(t, 1.0, lvl.Grid().CubeSize())
}

func TestDecodeLevelRejectsBadInput(t *testing.T) {
	_, err := DecodeLevel(strings.NewReader("name: empty\n"))
	assert.ErrorIs(t, err, ErrInvalidLevel)

	_, err = DecodeLevel(strings.NewReader("boxes:\n  - from: [1,0,0]\n    to: [0,0,0]\n"))
	assert.ErrorIs(t, err, ErrInvalidLevel)

	_, err = DecodeLevel(strings.NewReader("cubes: [[0,0,0]]\nunknown: 1\n"))
	assert.Error(t, err)

	_, err = DecodeLevel(strings.NewReader("cubes: [[0,0,0]]\nkeys: [[0,1,0]]\n"))
	assert.ErrorIs(t, err, ErrInvalidLevel)

	_, err = DecodeLevel(strings.NewReader("cubes: [[0,0,0]]\nkeys: [[0,1,0]]\nexit: [0,1,0]\nexit_open: true\n"))
	assert.ErrorIs(t, err, ErrInvalidLevel)
}

func TestDecodeLevelKeys(t *testing.T) {
	lvl, err := DecodeLevel(strings.NewReader("cubes: [[0,0,0]]\nkeys: [[0,1,0],[0,2,0]]\nexit: [0,1,1]\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, lvl.Grid().Keys())
	assert.False(t, lvl.ExitOpen)
}

func TestDigestIgnoresDeclarationOrder(t *testing.T) {
	a, err := DecodeLevel(strings.NewReader("cubes: [[0,0,0],[1,0,0],[2,0,0]]\n"))
	require.NoError(t, err)
	b, err := DecodeLevel(strings.NewReader("boxes:\n  - from: [0,0,0]\n    to: [2,0,0]\n"))
	require.NoError(t, err)
	c, err := DecodeLevel(strings.NewReader("cubes: [[0,0,0],[1,0,0]]\n"))
	require.NoError(t, err)

	assert.Equal(t, a.Digest(), b.Digest())
	assert.NotEqual(t, a.Digest(), c.Digest())
}
