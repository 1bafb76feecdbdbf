package locomotion

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/cubewalk/internal/core/camera"
	"github.com/zeusync/cubewalk/internal/core/geom"
	"github.com/zeusync/cubewalk/internal/core/observability/log"
)

// Command is a discrete avatar intent produced by the input collaborator.
type Command uint8

const (
	CommandForward Command = iota + 1
	CommandJump
	CommandTurnLeft
	CommandTurnRight
	CommandTiltUp
	CommandTiltDown
	CommandTiltNeutral
)

var commandNames = map[Command]string{
	CommandForward:     "forward",
	CommandJump:        "jump",
	CommandTurnLeft:    "turn_left",
	CommandTurnRight:   "turn_right",
	CommandTiltUp:      "tilt_up",
	CommandTiltDown:    "tilt_down",
	CommandTiltNeutral: "tilt_neutral",
}

func (c Command) String() string {
	if n, ok := commandNames[c]; ok {
		return n
	}
	return fmt.Sprintf("command(%d)", uint8(c))
}

// ParseCommand maps the names used in scripts to commands.
func ParseCommand(s string) (Command, error) {
	for c, n := range commandNames {
		if n == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCommand, s)
}

// Trigger is a collision reported by the environment.
type Trigger uint8

const (
	// TriggerCube fires when the avatar enters a solid cube volume.
	TriggerCube Trigger = iota + 1
	TriggerHazard
	TriggerExit
)

func (t Trigger) String() string {
	switch t {
	case TriggerCube:
		return "cube"
	case TriggerHazard:
		return "hazard"
	case TriggerExit:
		return "exit"
	default:
		return "unknown"
	}
}

// Spawn is the initial placement of the avatar.
type Spawn struct {
	Position mgl64.Vec3

	// CameraRotation is the authored camera orientation. The initial axis
	// frame is derived from its facing.
	CameraRotation mgl64.Quat

	// SkipIntro starts the avatar alive with the camera already following.
	SkipIntro bool
}

// Controller is the avatar facade: it gates commands by motion state,
// routes environment triggers and drives the routines once per tick.
//
// A Controller is not safe for concurrent use.
type Controller struct {
	m     *Machine
	tick  uint64
	clock float64

	// tilt is applied on the next Step when tiltRequested is set.
	tilt          camera.Tilt
	tiltRequested bool
}

func NewController(t Tuning, spawn Spawn, probe TerrainProbe, sink EventSink, logger log.Log) (*Controller, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if probe == nil {
		return nil, ErrNilProbe
	}
	if sink == nil {
		return nil, ErrNilSink
	}
	if logger == nil {
		logger = log.NewNop()
	}

	rotation := spawn.CameraRotation
	if rotation.Len() == 0 {
		rotation = mgl64.QuatIdent()
	}
	frame, err := geom.FrameFromFacing(rotation.Rotate(geom.Forward))
	if err != nil {
		return nil, fmt.Errorf("initial frame: %w", err)
	}

	cam := camera.New(t.Camera, rotation, frame)
	resolver := NewResolver(t.Geometry(), probe, t.ProbeDistance)
	m := newMachine(t, resolver, cam, sink, logger.Named("locomotion"), spawn.Position, frame)

	c := &Controller{m: m}
	if !spawn.SkipIntro {
		m.intro()
	}
	m.log.Debug("avatar spawned", log.Vec3("position", spawn.Position), log.String("frame", frame.String()))
	return c, nil
}

// SubmitCommand applies a command if the current motion state allows it.
// Disallowed commands are dropped; nothing is buffered.
func (c *Controller) SubmitCommand(cmd Command) {
	m := c.m
	if m.exited {
		return
	}
	busy := m.flags.Has(FlagMoving | FlagTurning | FlagJumping | FlagFalling)

	switch cmd {
	case CommandForward:
		if !m.alive || busy {
			c.dropped(cmd)
			return
		}
		m.forward()
	case CommandTurnLeft, CommandTurnRight:
		if !m.alive || busy {
			c.dropped(cmd)
			return
		}
		m.turn(cmd == CommandTurnRight)
	case CommandJump:
		if !m.alive || m.flags.Has(FlagJumping|FlagFalling) {
			c.dropped(cmd)
			return
		}
		m.jump()
	case CommandTiltUp, CommandTiltDown, CommandTiltNeutral:
		if !m.alive || m.flags.Has(FlagTurning) {
			c.dropped(cmd)
			return
		}
		c.tilt = tiltOf(cmd)
		c.tiltRequested = true
	default:
		m.log.Warn("unknown command", log.Int("command", int(cmd)))
	}
}

func (c *Controller) dropped(cmd Command) {
	c.m.log.Debug("command dropped", log.String("command", cmd.String()), log.String("state", c.m.State().String()))
}

// Step advances all routines by dt seconds. Tilt requested during the tick is
// applied after the routines, then the trying-to-move latch is released.
func (c *Controller) Step(dt float64) {
	if dt < 0 {
		dt = 0
	}
	c.tick++
	c.clock += dt

	m := c.m
	m.sched.Step(dt)

	if c.tiltRequested {
		if m.alive && !m.flags.Has(FlagTurning) {
			m.camera.StepTilt(c.tilt, dt, m.frame)
		}
		c.tiltRequested = false
	}
	m.clear(FlagTryingToMove)
}

// OnTrigger routes a collision reported by the environment.
func (c *Controller) OnTrigger(t Trigger) {
	m := c.m
	if m.exited {
		return
	}
	switch t {
	case TriggerCube:
		// walls only matter while airborne
		if m.flags.Has(FlagJumping) {
			m.log.Debug("struck cube mid-jump", log.Vec3("position", m.pos))
			m.sched.StopAll()
			m.fall(true)
		}
	case TriggerHazard:
		if m.alive {
			m.pop()
		}
	case TriggerExit:
		if m.alive && m.sink.IsExitOpen() {
			m.reachExit()
		}
	}
}

func (c *Controller) IsAlive() bool   { return c.m.alive }
func (c *Controller) IsJumping() bool { return c.m.flags.Has(FlagJumping) }
func (c *Controller) IsFalling() bool { return c.m.flags.Has(FlagFalling) }
func (c *Controller) IsInIntro() bool { return c.m.flags.Has(FlagIntro) }
func (c *Controller) IsExited() bool  { return c.m.exited }
func (c *Controller) State() State    { return c.m.State() }
func (c *Controller) Flags() Flags    { return c.m.flags }
func (c *Controller) Tick() uint64    { return c.tick }
func (c *Controller) Clock() float64  { return c.clock }

func (c *Controller) Position() mgl64.Vec3  { return c.m.pos }
func (c *Controller) Frame() geom.AxisFrame { return c.m.frame }
func (c *Controller) Camera() *camera.Sync  { return c.m.camera }

// ActiveRoutines reports how many routines are still scheduled.
func (c *Controller) ActiveRoutines() int { return c.m.sched.Active() }

func tiltOf(cmd Command) camera.Tilt {
	switch cmd {
	case CommandTiltUp:
		return camera.TiltUp
	case CommandTiltDown:
		return camera.TiltDown
	default:
		return camera.TiltNeutral
	}
}
