package sim

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/cubewalk/internal/config"
	"github.com/zeusync/cubewalk/internal/core/locomotion"
)

func TestDecodeScriptRejectsUnknownCommand(t *testing.T) {
	_, err := DecodeScript(strings.NewReader("inputs:\n  - {at: 0, command: moonwalk}\n"), "")
	require.ErrorIs(t, err, ErrInvalidScript)
	require.ErrorIs(t, err, locomotion.ErrUnknownCommand)
}

func TestDecodeScriptRejectsBadTiming(t *testing.T) {
	_, err := DecodeScript(strings.NewReader("inputs:\n  - {at: -1, command: jump}\n"), "")
	require.ErrorIs(t, err, ErrInvalidScript)

	_, err = DecodeScript(strings.NewReader("duration: -2\n"), "")
	require.ErrorIs(t, err, ErrInvalidScript)
}

func TestDecodeScriptRejectsUnknownOutcome(t *testing.T) {
	_, err := DecodeScript(strings.NewReader("expect: {outcome: won}\n"), "")
	require.ErrorIs(t, err, ErrInvalidScript)
}

func TestCommandsAtPollOrder(t *testing.T) {
	s := mustScript(t, `
inputs:
  - {at: 0, hold: 1, command: tilt_up}
  - {at: 0, hold: 1, command: turn_right}
  - {at: 0, hold: 1, command: jump}
  - {at: 0, hold: 1, command: forward}
`)
	got := s.commandsAt(0.5, 1.0/60)
	assert.Equal(t, []locomotion.Command{
		locomotion.CommandForward,
		locomotion.CommandJump,
		locomotion.CommandTurnRight,
		locomotion.CommandTiltUp,
	}, got)

	assert.Equal(t, []locomotion.Command{locomotion.CommandTiltNeutral}, s.commandsAt(1.5, 1.0/60))
}

func TestTapLastsOneTick(t *testing.T) {
	const dt = 1.0 / 60
	s := mustScript(t, "inputs:\n  - {at: 0.1, command: jump}\n")

	var pressed []int
	for i := 0; i < 20; i++ {
		for _, c := range s.commandsAt(float64(i)*dt, dt) {
			if c == locomotion.CommandJump {
				pressed = append(pressed, i)
			}
		}
	}
	assert.Equal(t, []int{6}, pressed)
}

func TestHoldCoversInterval(t *testing.T) {
	in := Input{At: 1, Hold: 0.5}
	assert.False(t, in.pressed(0.9, 0.1))
	assert.True(t, in.pressed(1, 0.1))
	assert.True(t, in.pressed(1.4, 0.1))
	assert.False(t, in.pressed(1.5, 0.1))
}

func TestLoadScriptResolvesLevel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "walk.yaml")
	require.NoError(t, os.WriteFile(path, []byte("level: ../levels/line.yaml\n"), 0o600))

	s, err := LoadScript(path)
	require.NoError(t, err)
	assert.Equal(t, "walk.yaml", s.Name)
	assert.Equal(t, filepath.Join(dir, "..", "levels", "line.yaml"), s.LevelPath())

	_, err = s.LoadLevel()
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunLoadsLevelFromDisk(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "line.yaml"), []byte(lineLevel), 0o600))
	script := filepath.Join(dir, "idle.yaml")
	require.NoError(t, os.WriteFile(script, []byte("level: line.yaml\nskip_intro: true\nduration: 0.1\n"), 0o600))

	s, err := LoadScript(script)
	require.NoError(t, err)
	res, err := NewRunner(config.Default(), nil, nil).Run(t.Context(), s)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), res.Ticks)
}
