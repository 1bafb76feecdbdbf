package sim

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/cubewalk/internal/core/locomotion"
	"github.com/zeusync/cubewalk/internal/core/terrain"
	"github.com/zeusync/cubewalk/internal/session"
)

var (
	ErrInvalidScript = errors.New("sim: invalid script")
	ErrExpectation   = errors.New("sim: expectation not met")
)

// Input holds a command down from At for Hold seconds. A zero Hold presses
// it for a single tick.
type Input struct {
	At      float64 `yaml:"at"`
	Hold    float64 `yaml:"hold"`
	Command string  `yaml:"command"`

	cmd locomotion.Command
}

// Expect is checked by Verify after a run.
type Expect struct {
	Outcome   string      `yaml:"outcome"`
	Position  *[3]float64 `yaml:"position"`
	Tolerance float64     `yaml:"tolerance"`
}

// Script is a scripted play of one level.
type Script struct {
	Name      string  `yaml:"name"`
	Level     string  `yaml:"level"`
	Duration  float64 `yaml:"duration"`
	SkipIntro bool    `yaml:"skip_intro"`
	Inputs    []Input `yaml:"inputs"`
	Expect    *Expect `yaml:"expect"`

	dir string
}

func LoadScript(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open script: %w", err)
	}
	defer f.Close()

	s, err := DecodeScript(f, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = filepath.Base(path)
	}
	return s, nil
}

// DecodeScript reads a script whose level path is relative to dir.
func DecodeScript(r io.Reader, dir string) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}
	s.dir = dir
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Script) Validate() error {
	if s.Duration < 0 {
		return fmt.Errorf("%w: negative duration", ErrInvalidScript)
	}
	for i := range s.Inputs {
		in := &s.Inputs[i]
		if in.At < 0 || in.Hold < 0 {
			return fmt.Errorf("%w: input %d has negative timing", ErrInvalidScript, i)
		}
		cmd, err := locomotion.ParseCommand(in.Command)
		if err != nil {
			return fmt.Errorf("%w: input %d: %w", ErrInvalidScript, i, err)
		}
		in.cmd = cmd
	}
	if s.Expect != nil && s.Expect.Outcome != "" {
		if _, err := parseOutcome(s.Expect.Outcome); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidScript, err)
		}
	}
	return nil
}

// LevelPath resolves the level file against the script directory.
func (s *Script) LevelPath() string {
	if s.Level == "" || filepath.IsAbs(s.Level) || s.dir == "" {
		return s.Level
	}
	return filepath.Join(s.dir, s.Level)
}

func (s *Script) LoadLevel() (*terrain.Level, error) {
	if s.Level == "" {
		return nil, fmt.Errorf("%w: no level", ErrInvalidScript)
	}
	return terrain.LoadLevel(s.LevelPath())
}

// pollOrder is the order the input collaborator reads keys in.
var pollOrder = []locomotion.Command{
	locomotion.CommandForward,
	locomotion.CommandJump,
	locomotion.CommandTurnLeft,
	locomotion.CommandTurnRight,
	locomotion.CommandTiltUp,
	locomotion.CommandTiltDown,
}

// commandsAt returns the commands held during the tick starting at now. When
// no tilt key is held the camera is asked to return to neutral.
func (s *Script) commandsAt(now, dt float64) []locomotion.Command {
	held := make(map[locomotion.Command]bool)
	for _, in := range s.Inputs {
		if in.pressed(now, dt) {
			held[in.cmd] = true
		}
	}

	out := make([]locomotion.Command, 0, len(held)+1)
	for _, cmd := range pollOrder {
		if held[cmd] {
			out = append(out, cmd)
		}
	}
	if !held[locomotion.CommandTiltUp] && !held[locomotion.CommandTiltDown] {
		out = append(out, locomotion.CommandTiltNeutral)
	}
	return out
}

func (in Input) pressed(now, dt float64) bool {
	const slack = 1e-9
	if now+slack < in.At {
		return false
	}
	if in.Hold == 0 {
		// the first tick at or after At
		return now-dt+slack < in.At
	}
	return now+slack < in.At+in.Hold
}

// Verify checks res against the script's expectations.
func (s *Script) Verify(res Result) error {
	if s.Expect == nil {
		return nil
	}
	if s.Expect.Outcome != "" {
		want, _ := parseOutcome(s.Expect.Outcome)
		if res.Outcome != want {
			return fmt.Errorf("%w: outcome %s, want %s", ErrExpectation, res.Outcome, want)
		}
	}
	if s.Expect.Position != nil {
		tol := s.Expect.Tolerance
		if tol <= 0 {
			tol = 1e-3
		}
		want := mgl64.Vec3(*s.Expect.Position)
		if d := want.Sub(res.Final.Position).Len(); d > tol || math.IsNaN(d) {
			return fmt.Errorf("%w: position %v, want %v", ErrExpectation, res.Final.Position, want)
		}
	}
	return nil
}

func parseOutcome(s string) (session.Outcome, error) {
	for o := session.OutcomeRunning; o <= session.OutcomeCanceled; o++ {
		if o.String() == s {
			return o, nil
		}
	}
	return 0, fmt.Errorf("unknown outcome %q", s)
}
