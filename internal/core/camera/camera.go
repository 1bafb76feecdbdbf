// Package camera keeps the follow camera aligned with the avatar's axis frame.
//
// The camera is modelled as a pose relative to the avatar: an offset from the
// avatar position and a world rotation. Rotations pivot on the avatar and
// turn both the offset and the rotation.
package camera

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/cubewalk/internal/core/geom"
)

var ErrInvalidConfig = errors.New("camera: invalid config")

// Tilt is the requested tilt direction.
type Tilt int8

const (
	TiltNeutral Tilt = 0
	TiltUp      Tilt = 1
	TiltDown    Tilt = -1
)

func (t Tilt) String() string {
	switch t {
	case TiltUp:
		return "up"
	case TiltDown:
		return "down"
	default:
		return "neutral"
	}
}

type Config struct {
	// Offset is expressed in frame coordinates: x along right, y along up,
	// z along forward.
	Offset        mgl64.Vec3 `yaml:"offset"`
	IntroOffset   mgl64.Vec3 `yaml:"intro_offset"`
	IntroRotation mgl64.Vec3 `yaml:"intro_rotation"`
	IntroDuration float64    `yaml:"intro_duration"`

	TiltUpDeg      float64 `yaml:"tilt_up_deg"`
	TiltDownDeg    float64 `yaml:"tilt_down_deg"`
	TiltSpeedDeg   float64 `yaml:"tilt_speed_deg"`
	TiltEpsilonDeg float64 `yaml:"tilt_epsilon_deg"`
}

func DefaultConfig() Config {
	return Config{
		Offset:         mgl64.Vec3{0, 0.8, -1},
		IntroOffset:    mgl64.Vec3{0, 4, -15},
		IntroRotation:  mgl64.Vec3{35, 0, 180},
		IntroDuration:  1.0,
		TiltUpDeg:      30,
		TiltDownDeg:    70,
		TiltSpeedDeg:   90,
		TiltEpsilonDeg: 1.5,
	}
}

func (c Config) Validate() error {
	if c.IntroDuration < 0 {
		return fmt.Errorf("%w: intro_duration must not be negative", ErrInvalidConfig)
	}
	if c.TiltSpeedDeg <= 0 {
		return fmt.Errorf("%w: tilt_speed_deg must be positive", ErrInvalidConfig)
	}
	if c.TiltEpsilonDeg < 0 {
		return fmt.Errorf("%w: tilt_epsilon_deg must not be negative", ErrInvalidConfig)
	}
	if c.TiltUpDeg < 0 || c.TiltUpDeg >= 180 || c.TiltDownDeg < 0 || c.TiltDownDeg >= 180 {
		return fmt.Errorf("%w: tilt angles must be in [0,180)", ErrInvalidConfig)
	}
	return nil
}

// Pose is the camera placement relative to the avatar.
type Pose struct {
	Offset   mgl64.Vec3 `json:"offset"`
	Rotation mgl64.Quat `json:"rotation"`
}

// Position resolves the pose against the avatar position.
func (p Pose) Position(avatar mgl64.Vec3) mgl64.Vec3 {
	return avatar.Add(p.Offset)
}

// Facing is the direction the camera looks along.
func (p Pose) Facing() mgl64.Vec3 {
	return p.Rotation.Rotate(geom.Forward)
}

// Sync owns the camera's default rotation, its current pose and the tilt.
type Sync struct {
	cfg        Config
	defaultRot mgl64.Quat
	current    Pose
	tilt       float64
}

// New creates a camera whose default rotation is rotation. The current pose
// is the follow pose of frame.
func New(cfg Config, rotation mgl64.Quat, frame geom.AxisFrame) *Sync {
	s := &Sync{cfg: cfg, defaultRot: rotation.Normalize()}
	s.Resync(frame)
	return s
}

func (s *Sync) Config() Config              { return s.cfg }
func (s *Sync) Pose() Pose                  { return s.current }
func (s *Sync) DefaultRotation() mgl64.Quat { return s.defaultRot }
func (s *Sync) TiltAngle() float64          { return s.tilt }
func (s *Sync) SetPose(p Pose)              { s.current = p }

// ComputeFollowPose is the untilted camera placement for frame.
func (s *Sync) ComputeFollowPose(frame geom.AxisFrame) Pose {
	return Pose{
		Offset:   frameOffset(frame, s.cfg.Offset),
		Rotation: s.defaultRot,
	}
}

// IntroPose is where the intro fly-in starts.
func (s *Sync) IntroPose(frame geom.AxisFrame) Pose {
	return Pose{
		Offset:   frameOffset(frame, s.cfg.IntroOffset),
		Rotation: geom.EulerVec(s.cfg.IntroRotation),
	}
}

// Resync replaces the current pose with the follow pose of frame with the
// current tilt applied on top.
func (s *Sync) Resync(frame geom.AxisFrame) {
	base := s.ComputeFollowPose(frame)
	if s.tilt == 0 {
		s.current = base
		return
	}
	q := geom.AxisAngle(frame.Right().Mul(-1), s.tilt)
	s.current = Pose{
		Offset:   q.Rotate(base.Offset),
		Rotation: q.Mul(base.Rotation).Normalize(),
	}
}

// Reorient turns the default rotation by deg degrees about axis. It is the
// camera half of an axis-frame change.
func (s *Sync) Reorient(axis mgl64.Vec3, deg float64) {
	s.defaultRot = geom.AxisAngle(axis, deg).Mul(s.defaultRot).Normalize()
}

// Rotate turns the current pose by deg degrees about axis through the avatar.
func (s *Sync) Rotate(axis mgl64.Vec3, deg float64) {
	q := geom.AxisAngle(axis, deg)
	s.current = Pose{
		Offset:   q.Rotate(s.current.Offset),
		Rotation: q.Mul(s.current.Rotation).Normalize(),
	}
}

// StepTilt moves the tilt towards the angle requested by dir at the
// configured speed. The tilt snaps once it is within the epsilon and never
// overshoots. It returns true when the tilt changed.
func (s *Sync) StepTilt(dir Tilt, dt float64, frame geom.AxisFrame) bool {
	target := s.tiltTarget(dir)
	diff := target - s.tilt
	if diff == 0 {
		return false
	}

	step := s.cfg.TiltSpeedDeg * dt
	switch {
	case math.Abs(diff) < s.cfg.TiltEpsilonDeg, step >= math.Abs(diff):
		s.tilt = target
	default:
		s.tilt += math.Copysign(step, diff)
	}
	s.Resync(frame)
	return true
}

// Deviation is the angle in degrees between the rendered rotation and the
// default rotation. It is the tilt when settled and grows during a turn.
func (s *Sync) Deviation() float64 {
	return geom.AngleBetween(s.current.Rotation, s.defaultRot)
}

func (s *Sync) tiltTarget(dir Tilt) float64 {
	switch dir {
	case TiltUp:
		return s.cfg.TiltUpDeg
	case TiltDown:
		return -s.cfg.TiltDownDeg
	default:
		return 0
	}
}

func frameOffset(frame geom.AxisFrame, off mgl64.Vec3) mgl64.Vec3 {
	return frame.Forward.Mul(off[2]).
		Sub(frame.Down.Mul(off[1])).
		Add(frame.Right().Mul(off[0]))
}
