package locomotion

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/cubewalk/internal/core/camera"
	"github.com/zeusync/cubewalk/internal/core/geom"
	"github.com/zeusync/cubewalk/internal/core/observability/log"
)

// Flags is the raw motion state. Several flags can be set at once, for
// example Moving and Turning during the second leg of a corner.
type Flags uint16

const (
	FlagMoving Flags = 1 << iota
	FlagTryingToMove
	FlagTurning
	FlagJumping
	FlagFalling
	FlagPopping
	FlagBouncing
	FlagIntro
)

func (f Flags) Has(x Flags) bool { return f&x != 0 }

// State is the dominant motion state derived from Flags.
type State uint8

const (
	StateIdle State = iota
	StateMoving
	StateTurning
	StateJumping
	StateFalling
	StatePopping
	StateBouncing
	StateIntro
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateMoving:
		return "moving"
	case StateTurning:
		return "turning"
	case StateJumping:
		return "jumping"
	case StateFalling:
		return "falling"
	case StatePopping:
		return "popping"
	case StateBouncing:
		return "bouncing"
	case StateIntro:
		return "intro"
	default:
		return "unknown"
	}
}

// EventSink receives the terminal outcomes of the avatar.
type EventSink interface {
	ReportReachedExit()
	ReportFellOff()
	ReportHitHazard()
	IsExitOpen() bool
}

// Machine is the avatar's motion state machine. It owns the position, the
// axis frame and the routines that animate them.
type Machine struct {
	tuning   Tuning
	resolver *Resolver
	camera   *camera.Sync
	sched    *Scheduler
	sink     EventSink
	log      log.Log

	pos     mgl64.Vec3
	frame   geom.AxisFrame
	flags   Flags
	alive   bool
	exited  bool
	visible bool
	scale   mgl64.Vec3
	spin    mgl64.Quat

	bounce *Handle
}

func newMachine(t Tuning, resolver *Resolver, cam *camera.Sync, sink EventSink, logger log.Log, pos mgl64.Vec3, frame geom.AxisFrame) *Machine {
	return &Machine{
		tuning:   t,
		resolver: resolver,
		camera:   cam,
		sched:    NewScheduler(),
		sink:     sink,
		log:      logger,
		pos:      pos,
		frame:    frame,
		alive:    true,
		visible:  true,
		scale:    mgl64.Vec3{1, 1, 1},
		spin:     mgl64.QuatIdent(),
	}
}

func (m *Machine) State() State {
	switch {
	case m.flags.Has(FlagIntro):
		return StateIntro
	case m.flags.Has(FlagPopping):
		return StatePopping
	case m.flags.Has(FlagFalling):
		return StateFalling
	case m.flags.Has(FlagJumping):
		return StateJumping
	case m.flags.Has(FlagTurning):
		return StateTurning
	case m.flags.Has(FlagMoving):
		return StateMoving
	case m.flags.Has(FlagBouncing):
		return StateBouncing
	default:
		return StateIdle
	}
}

func (m *Machine) set(f Flags)   { m.flags |= f }
func (m *Machine) clear(f Flags) { m.flags &^= f }

// forward resolves and starts a forward move.
func (m *Machine) forward() {
	plan, err := m.resolver.Resolve(m.pos, m.frame)
	if err != nil {
		m.log.Warn("forward dropped", log.Error(err), log.Vec3("position", m.pos), log.String("frame", m.frame.String()))
		return
	}
	m.log.Debug("forward resolved", log.String("plan", plan.Kind.String()), log.Vec3("position", m.pos))

	switch plan.Kind {
	case PlanAdvance:
		m.sched.Start(newMoveRoutine(m, plan.Targets[0]))
	case PlanTryingToMove:
		m.set(FlagTryingToMove)
	case PlanWallClimb:
		m.sched.Start(newMoveRoutine(m, plan.Targets[0]))
		m.sched.Start(newTurnRoutine(m, plan.TurnAxis, 90, true, geom.AxisFrame.ClimbWall))
		m.sched.Start(newMoveRoutine(m, plan.Targets[1]))
	case PlanEdgeDrop:
		m.sched.Start(newMoveRoutine(m, plan.Targets[0]))
		m.sched.Start(newTurnRoutine(m, plan.TurnAxis, -90, true, geom.AxisFrame.DropEdge))
		m.sched.Start(newMoveRoutine(m, plan.Targets[1]))
	}
}

// turn starts a user turn of 90 degrees about up.
func (m *Machine) turn(right bool) {
	axis := m.frame.Up()
	if right {
		m.sched.Start(newTurnRoutine(m, axis, 90, false, geom.AxisFrame.TurnRight))
		return
	}
	m.sched.Start(newTurnRoutine(m, axis, -90, false, geom.AxisFrame.TurnLeft))
}

// jump cancels whatever is running and starts the arc. The arc carries the
// avatar forward when it was moving or trying to move.
func (m *Machine) jump() {
	carry := m.flags.Has(FlagMoving | FlagTryingToMove)
	m.sched.StopAll()
	m.sched.Start(newJumpRoutine(m, carry))
}

// fall starts falling. When center is set the landing snaps to the face
// centre of the cube found below, otherwise it keeps the lateral position.
func (m *Machine) fall(center bool) {
	m.sched.Start(newFallRoutine(m, center))
}

func (m *Machine) pop() {
	m.sched.StopAll()
	m.sched.Start(newPopRoutine(m))
}

func (m *Machine) reachExit() {
	m.sched.StopAll()
	m.exited = true
	m.log.Info("exit reached", log.Vec3("position", m.pos))
	m.sink.ReportReachedExit()
}

func (m *Machine) intro() {
	m.sched.Start(newIntroRoutine(m))
}

// land restarts the squash. A bounce still running from an earlier landing
// is stopped first so the new one starts from the rest scale.
func (m *Machine) land() {
	m.sched.Stop(m.bounce)
	m.bounce = m.sched.Start(newBounceRoutine(m))
}

// changeAxes replaces the frame and turns the camera's default rotation by
// the same rotation.
func (m *Machine) changeAxes(next geom.AxisFrame, axis mgl64.Vec3, deg float64) {
	m.log.Debug("axes changed", log.String("from", m.frame.String()), log.String("to", next.String()))
	m.frame = next
	m.camera.Reorient(axis, deg)
}

// spinBall rolls the ball mesh about the right axis.
func (m *Machine) spinBall(dt float64) {
	mult := m.tuning.MoveSpinMultiplier
	if m.flags.Has(FlagJumping) {
		mult = m.tuning.JumpSpinMultiplier
	}
	deg := m.tuning.SpinDegPerSec * mult * dt
	if deg == 0 {
		return
	}
	m.spin = geom.AxisAngle(m.frame.Right(), deg).Mul(m.spin).Normalize()
}
