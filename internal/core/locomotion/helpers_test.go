package locomotion

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/cubewalk/internal/core/geom"
	"github.com/zeusync/cubewalk/internal/core/observability/log"
	"github.com/zeusync/cubewalk/internal/core/terrain"
)

const dt = 1.0 / 60

type recordingSink struct {
	exits    int
	falls    int
	hazards  int
	exitOpen bool
}

func (s *recordingSink) ReportReachedExit() { s.exits++ }
func (s *recordingSink) ReportFellOff()     { s.falls++ }
func (s *recordingSink) ReportHitHazard()   { s.hazards++ }
func (s *recordingSink) IsExitOpen() bool   { return s.exitOpen }

func gridOf(cells ...terrain.Cell) *terrain.Grid {
	g := terrain.NewGrid(1)
	g.AddSolid(cells...)
	return g
}

// line is a one cube wide row along +Z.
func line(n int) *terrain.Grid {
	g := terrain.NewGrid(1)
	for z := 0; z < n; z++ {
		g.AddSolid(terrain.Cell{X: 0, Y: 0, Z: z})
	}
	return g
}

func newTestController(t *testing.T, g *terrain.Grid, pos mgl64.Vec3, intro bool) (*Controller, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	c, err := NewController(DefaultTuning(), Spawn{
		Position:       pos,
		CameraRotation: geom.Euler(15, 0, 0),
		SkipIntro:      !intro,
	}, g, sink, log.NewNop())
	require.NoError(t, err)
	return c, sink
}

// stepUntil steps the controller until cond holds and returns the number of
// ticks taken.
func stepUntil(t *testing.T, c *Controller, cond func() bool, maxTicks int) int {
	t.Helper()
	for i := 0; i < maxTicks; i++ {
		if cond() {
			return i
		}
		c.Step(dt)
	}
	require.True(t, cond(), "condition not reached within %d ticks", maxTicks)
	return maxTicks
}

func settle(t *testing.T, c *Controller) int {
	t.Helper()
	return stepUntil(t, c, func() bool { return c.ActiveRoutines() == 0 }, 1000)
}

func requireVec(t *testing.T, want, got mgl64.Vec3) {
	t.Helper()
	require.True(t, want.ApproxEqualThreshold(got, 1e-6), "want %v, got %v", want, got)
}

// cameraFrame derives the axis frame implied by the camera's default rotation.
func cameraFrame(t *testing.T, c *Controller) geom.AxisFrame {
	t.Helper()
	f, err := geom.FrameFromFacing(c.Camera().DefaultRotation().Rotate(geom.Forward))
	require.NoError(t, err)
	return f
}
