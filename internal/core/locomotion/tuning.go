package locomotion

import (
	"fmt"

	"github.com/zeusync/cubewalk/internal/core/camera"
)

// Tuning holds every timing and size constant of the avatar. Durations are
// in seconds, angles in degrees.
type Tuning struct {
	MovementDuration float64 `yaml:"movement_duration"`
	TurnDuration     float64 `yaml:"turn_duration"`

	JumpHeight   float64 `yaml:"jump_height"`
	JumpDistance float64 `yaml:"jump_distance"`
	JumpDuration float64 `yaml:"jump_duration"`

	FallSpeed       float64 `yaml:"fall_speed"`
	MaxFallDuration float64 `yaml:"max_fall_duration"`
	LandingSnap     float64 `yaml:"landing_snap"`

	PopDuration float64 `yaml:"pop_duration"`
	PopFlashes  int     `yaml:"pop_flashes"`

	BounceDuration float64 `yaml:"bounce_duration"`
	BounceSquash   float64 `yaml:"bounce_squash"`

	SpinDegPerSec      float64 `yaml:"spin_deg_per_sec"`
	MoveSpinMultiplier float64 `yaml:"move_spin_multiplier"`
	JumpSpinMultiplier float64 `yaml:"jump_spin_multiplier"`

	AvatarSize    float64 `yaml:"avatar_size"`
	CubeSize      float64 `yaml:"cube_size"`
	ProbeDistance float64 `yaml:"probe_distance"`

	Camera camera.Config `yaml:"camera"`
}

func DefaultTuning() Tuning {
	return Tuning{
		MovementDuration:   0.5,
		TurnDuration:       0.2,
		JumpHeight:         3,
		JumpDistance:       2,
		JumpDuration:       0.5,
		FallSpeed:          3,
		MaxFallDuration:    3,
		LandingSnap:        0.1,
		PopDuration:        0.2,
		PopFlashes:         5,
		BounceDuration:     0.2,
		BounceSquash:       0.25,
		SpinDegPerSec:      360,
		MoveSpinMultiplier: 1.5,
		JumpSpinMultiplier: 2.0,
		AvatarSize:         0.4,
		CubeSize:           1.0,
		ProbeDistance:      1.0,
		Camera:             camera.DefaultConfig(),
	}
}

func (t Tuning) Validate() error {
	positive := map[string]float64{
		"movement_duration": t.MovementDuration,
		"turn_duration":     t.TurnDuration,
		"jump_duration":     t.JumpDuration,
		"fall_speed":        t.FallSpeed,
		"max_fall_duration": t.MaxFallDuration,
		"avatar_size":       t.AvatarSize,
		"cube_size":         t.CubeSize,
		"probe_distance":    t.ProbeDistance,
	}
	for name, v := range positive {
		if v <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidTuning, name, v)
		}
	}
	if t.AvatarSize >= t.CubeSize {
		return fmt.Errorf("%w: avatar_size must be smaller than cube_size", ErrInvalidTuning)
	}
	if t.ProbeDistance > t.CubeSize {
		return fmt.Errorf("%w: probe_distance must not exceed cube_size", ErrInvalidTuning)
	}
	if t.PopFlashes <= 0 {
		return fmt.Errorf("%w: pop_flashes must be positive", ErrInvalidTuning)
	}
	if t.BounceSquash < 0 || t.BounceSquash >= 1 {
		return fmt.Errorf("%w: bounce_squash must be in [0,1)", ErrInvalidTuning)
	}
	if err := t.Camera.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTuning, err)
	}
	return nil
}

// Geometry returns the sizes used by target resolution.
func (t Tuning) Geometry() Geometry {
	return Geometry{AvatarSize: t.AvatarSize, CubeSize: t.CubeSize}
}
