package locomotion

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/cubewalk/internal/core/camera"
	"github.com/zeusync/cubewalk/internal/core/geom"
	"github.com/zeusync/cubewalk/internal/core/observability/log"
)

// moveRoutine translates the avatar to a target. It waits while another
// translation is in progress.
type moveRoutine struct {
	m        *Machine
	target   MoveTarget
	started  bool
	start    mgl64.Vec3
	elapsed  float64
	duration float64
}

func newMoveRoutine(m *Machine, target MoveTarget) *moveRoutine {
	return &moveRoutine{m: m, target: target}
}

func (r *moveRoutine) Name() string { return "move" }

func (r *moveRoutine) Advance(dt float64) Status {
	if !r.started {
		if r.m.flags.Has(FlagMoving) {
			return StatusRunning
		}
		r.begin()
		return r.step(0)
	}
	r.elapsed += dt
	return r.step(dt)
}

func (r *moveRoutine) begin() {
	t := r.m.tuning
	r.started = true
	r.start = r.m.pos
	r.m.set(FlagMoving)

	r.duration = t.MovementDuration
	distance := geom.Distance(r.start, r.target.Point)
	switch {
	case r.target.Corner:
		r.duration = t.MovementDuration / 2
	case distance < t.CubeSize:
		r.duration = t.MovementDuration * (distance / t.CubeSize)
	}
}

func (r *moveRoutine) step(dt float64) Status {
	if r.duration <= 0 || r.elapsed/r.duration >= 1 {
		r.m.pos = r.target.Point
		r.m.clear(FlagMoving)
		return StatusCompleted
	}
	r.m.pos = geom.Lerp(r.start, r.target.Point, r.elapsed/r.duration)
	r.m.spinBall(dt)
	return StatusRunning
}

func (r *moveRoutine) Cancel() {
	if r.started {
		r.m.clear(FlagMoving)
	}
}

// turnRoutine rotates the camera by 90 degrees about axis and swaps the axis
// frame when it begins. Corner turns wait for the first translation leg.
type turnRoutine struct {
	m       *Machine
	axis    mgl64.Vec3
	deg     float64
	corner  bool
	next    func(geom.AxisFrame) geom.AxisFrame
	started bool

	elapsed  float64
	prev     float64
	duration float64
}

func newTurnRoutine(m *Machine, axis mgl64.Vec3, deg float64, corner bool, next func(geom.AxisFrame) geom.AxisFrame) *turnRoutine {
	return &turnRoutine{m: m, axis: axis, deg: deg, corner: corner, next: next}
}

func (r *turnRoutine) Name() string { return "turn" }

func (r *turnRoutine) Advance(dt float64) Status {
	if !r.started {
		if r.m.flags.Has(FlagMoving) {
			return StatusRunning
		}
		r.started = true
		r.m.set(FlagTurning)
		r.duration = r.m.tuning.TurnDuration
		if r.corner {
			r.duration /= 2
		}
		r.m.changeAxes(r.next(r.m.frame), r.axis, r.deg)
		return StatusRunning
	}

	r.elapsed += dt
	p := r.elapsed / r.duration
	if p >= 1 {
		r.finish()
		return StatusCompleted
	}
	r.m.camera.Rotate(r.axis, (p-r.prev)*r.deg)
	r.prev = p
	return StatusRunning
}

func (r *turnRoutine) finish() {
	r.m.camera.Resync(r.m.frame)
	r.m.clear(FlagTurning)
}

// Cancel snaps the camera onto the frame that was already swapped.
func (r *turnRoutine) Cancel() {
	if r.started {
		r.finish()
	}
}

// jumpRoutine moves the avatar along a sine arc.
type jumpRoutine struct {
	m       *Machine
	carry   bool
	started bool
	up      mgl64.Vec3
	start   mgl64.Vec3
	ground  mgl64.Vec3
	elapsed float64
}

func newJumpRoutine(m *Machine, carry bool) *jumpRoutine {
	return &jumpRoutine{m: m, carry: carry}
}

func (r *jumpRoutine) Name() string { return "jump" }

func (r *jumpRoutine) Advance(dt float64) Status {
	if !r.started {
		r.started = true
		r.up = r.m.frame.Up()
		r.start = r.m.pos
		r.ground = r.start
		r.m.set(FlagJumping)
		if r.carry {
			r.ground = r.start.Add(r.m.frame.Forward.Mul(r.m.tuning.JumpDistance))
			r.m.set(FlagMoving)
		}
		return r.step(0)
	}
	r.elapsed += dt
	return r.step(dt)
}

func (r *jumpRoutine) step(dt float64) Status {
	t := r.m.tuning
	p := r.elapsed / t.JumpDuration
	if p >= 1 {
		r.m.pos = r.ground
		r.m.clear(FlagMoving | FlagJumping)
		if _, ok := r.m.resolver.Support(r.m.pos, r.m.frame); ok {
			r.m.land()
		} else {
			r.m.log.Debug("jump ended over void", log.Vec3("position", r.m.pos))
			r.m.fall(false)
		}
		return StatusCompleted
	}
	r.m.pos = geom.Lerp(r.start, r.ground, p).Add(r.up.Mul(ArcHeight(p, t.JumpHeight)))
	if r.m.flags.Has(FlagMoving) {
		r.m.spinBall(dt)
	}
	return StatusRunning
}

func (r *jumpRoutine) Cancel() {
	r.m.clear(FlagJumping)
	if r.carry {
		r.m.clear(FlagMoving)
	}
}

// fallRoutine drops the avatar at constant speed until a cube is found below,
// then glides onto the landing point.
type fallRoutine struct {
	m       *Machine
	center  bool
	started bool
	landing bool
	down    mgl64.Vec3
	target  mgl64.Vec3
	elapsed float64
}

func newFallRoutine(m *Machine, center bool) *fallRoutine {
	return &fallRoutine{m: m, center: center}
}

func (r *fallRoutine) Name() string { return "fall" }

func (r *fallRoutine) Advance(dt float64) Status {
	if !r.started {
		r.started = true
		r.down = r.m.frame.Down
		r.m.set(FlagFalling)
		r.m.clear(FlagMoving | FlagJumping)
	} else {
		r.elapsed += dt
	}

	t := r.m.tuning
	step := t.FallSpeed * dt

	if !r.landing {
		if hit, ok := r.m.resolver.Support(r.m.pos, r.m.frame); ok {
			geo := r.m.resolver.Geometry()
			if r.center {
				r.target = geo.CenterTarget(hit.Cube, r.down)
			} else {
				r.target = geo.FallTarget(hit.Cube, r.down, r.m.pos)
			}
			r.landing = true
		} else {
			if r.elapsed > t.MaxFallDuration {
				r.m.alive = false
				r.m.clear(FlagFalling)
				r.m.log.Info("fell off", log.Vec3("position", r.m.pos), log.Float64("elapsed", r.elapsed))
				r.m.sink.ReportFellOff()
				r.m.sched.StopAll()
				return StatusCompleted
			}
			r.m.pos = r.m.pos.Add(r.down.Mul(step))
			r.m.spinBall(dt)
			return StatusRunning
		}
	}

	if geom.Distance(r.m.pos, r.target) < t.LandingSnap {
		r.m.pos = r.target
		r.m.clear(FlagFalling)
		r.m.land()
		return StatusCompleted
	}
	r.m.pos = geom.MoveTowards(r.m.pos, r.target, step)
	return StatusRunning
}

func (r *fallRoutine) Cancel() {
	r.m.clear(FlagFalling)
}

// bounceRoutine squashes the avatar along the down axis and back.
type bounceRoutine struct {
	m       *Machine
	started bool
	rising  bool
	from    mgl64.Vec3
	to      mgl64.Vec3
	base    mgl64.Vec3
	elapsed float64
}

func newBounceRoutine(m *Machine) *bounceRoutine {
	return &bounceRoutine{m: m}
}

func (r *bounceRoutine) Name() string { return "bounce" }

func (r *bounceRoutine) Advance(dt float64) Status {
	if !r.started {
		r.started = true
		r.m.set(FlagBouncing)
		r.base = r.m.scale
		r.from = r.base
		r.to = r.base.Sub(geom.Scale(r.base, geom.Abs(r.m.frame.Down)).Mul(r.m.tuning.BounceSquash))
	} else {
		r.elapsed += dt
	}

	half := r.m.tuning.BounceDuration / 2
	if half > 0 && r.elapsed <= half {
		r.m.scale = geom.Lerp(r.from, r.to, r.elapsed/half)
		return StatusRunning
	}
	r.m.scale = r.to
	if !r.rising {
		r.rising = true
		r.elapsed = 0
		r.from, r.to = r.to, r.base
		if half > 0 {
			r.m.scale = r.from
			return StatusRunning
		}
		r.m.scale = r.to
	}
	r.m.clear(FlagBouncing)
	return StatusCompleted
}

func (r *bounceRoutine) Cancel() {
	r.m.scale = mgl64.Vec3{1, 1, 1}
	r.m.clear(FlagBouncing)
}

// popRoutine flashes the avatar and reports the hazard hit.
type popRoutine struct {
	m        *Machine
	started  bool
	elapsed  float64
	nextFlip float64
}

func newPopRoutine(m *Machine) *popRoutine {
	return &popRoutine{m: m}
}

func (r *popRoutine) Name() string { return "pop" }

func (r *popRoutine) Advance(dt float64) Status {
	if !r.started {
		r.started = true
		r.m.alive = false
		r.m.set(FlagPopping)
		r.m.clear(FlagMoving | FlagTurning | FlagJumping | FlagFalling | FlagTryingToMove)
		return r.flash()
	}
	r.elapsed += dt
	if r.elapsed < r.nextFlip {
		return StatusRunning
	}
	return r.flash()
}

func (r *popRoutine) flash() Status {
	t := r.m.tuning
	if r.elapsed <= t.PopDuration {
		r.m.visible = !r.m.visible
		r.nextFlip = r.elapsed + t.PopDuration/float64(t.PopFlashes)
		return StatusRunning
	}
	r.m.visible = true
	r.m.clear(FlagPopping)
	r.m.log.Info("hit hazard", log.Vec3("position", r.m.pos))
	r.m.sink.ReportHitHazard()
	return StatusCompleted
}

func (r *popRoutine) Cancel() {
	r.m.visible = true
	r.m.clear(FlagPopping)
}

// introRoutine flies the camera from the intro pose to the follow pose.
// Input is ignored until it completes.
type introRoutine struct {
	m       *Machine
	started bool
	from    camera.Pose
	to      camera.Pose
	elapsed float64
}

func newIntroRoutine(m *Machine) *introRoutine {
	return &introRoutine{m: m}
}

func (r *introRoutine) Name() string { return "intro" }

func (r *introRoutine) Advance(dt float64) Status {
	if !r.started {
		r.started = true
		r.m.alive = false
		r.m.set(FlagIntro)
		r.from = r.m.camera.IntroPose(r.m.frame)
		r.to = r.m.camera.ComputeFollowPose(r.m.frame)
	} else {
		r.elapsed += dt
	}

	d := r.m.tuning.Camera.IntroDuration
	if d > 0 && r.elapsed <= d {
		p := r.elapsed / d
		r.m.camera.SetPose(camera.Pose{
			Offset:   geom.Lerp(r.from.Offset, r.to.Offset, p),
			Rotation: geom.Nlerp(r.from.Rotation, r.to.Rotation, p),
		})
		return StatusRunning
	}
	r.finish()
	return StatusCompleted
}

func (r *introRoutine) finish() {
	r.m.camera.Resync(r.m.frame)
	r.m.alive = true
	r.m.clear(FlagIntro)
}

func (r *introRoutine) Cancel() {
	if r.started && r.m.flags.Has(FlagIntro) {
		r.m.camera.Resync(r.m.frame)
		r.m.clear(FlagIntro)
	}
}
