package locomotion

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/cubewalk/internal/core/geom"
)

// Snapshot is a read-only view of the avatar for renderers and observers.
type Snapshot struct {
	Tick     uint64         `json:"tick"`
	Time     float64        `json:"time"`
	Position mgl64.Vec3     `json:"position"`
	Frame    geom.AxisFrame `json:"frame"`
	Right    mgl64.Vec3     `json:"right"`
	State    string         `json:"state"`
	Alive    bool           `json:"alive"`
	Exited   bool           `json:"exited"`
	Visible  bool           `json:"visible"`
	Scale    mgl64.Vec3     `json:"scale"`
	Spin     mgl64.Quat     `json:"spin"`
	Routines []string       `json:"routines,omitempty"`

	CameraPosition mgl64.Vec3 `json:"camera_position"`
	CameraRotation mgl64.Quat `json:"camera_rotation"`
	CameraFacing   mgl64.Vec3 `json:"camera_facing"`
	CameraTilt     float64    `json:"camera_tilt"`

	// CameraDeviation is how far the rendered camera is turned away from its
	// default rotation, in degrees.
	CameraDeviation float64 `json:"camera_deviation"`
}

func (c *Controller) Snapshot() Snapshot {
	m := c.m
	pose := m.camera.Pose()
	return Snapshot{
		Tick:            c.tick,
		Time:            c.clock,
		Position:        m.pos,
		Frame:           m.frame,
		Right:           m.frame.Right(),
		State:           m.State().String(),
		Alive:           m.alive,
		Exited:          m.exited,
		Visible:         m.visible,
		Scale:           m.scale,
		Spin:            m.spin,
		Routines:        m.sched.Names(),
		CameraPosition:  pose.Position(m.pos),
		CameraRotation:  pose.Rotation,
		CameraFacing:    pose.Facing(),
		CameraTilt:      m.camera.TiltAngle(),
		CameraDeviation: m.camera.Deviation(),
	}
}
