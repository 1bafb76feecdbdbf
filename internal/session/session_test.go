package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeusync/cubewalk/internal/core/events/bus"
	"github.com/zeusync/cubewalk/internal/core/observability/log"
)

type fixedClock struct {
	tick uint64
	at   float64
}

func (c fixedClock) Tick() uint64   { return c.tick }
func (c fixedClock) Clock() float64 { return c.at }

func TestFirstReportWins(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	s := New("lvl", nil, log.NewWithCore(core), false)

	assert.Equal(t, OutcomeRunning, s.Outcome())
	s.ReportHitHazard()
	s.ReportFellOff()

	assert.Equal(t, OutcomeHitHazard, s.Outcome())
	assert.Equal(t, 1, s.Reports(OutcomeHitHazard))
	assert.Equal(t, 1, s.Reports(OutcomeFellOff))
	assert.Equal(t, 1, logs.FilterMessage("second terminal report").Len())
}

func TestReportsPublishStampedEvents(t *testing.T) {
	b := bus.New()
	var got []bus.Event
	_, err := b.SubscribeAll(func(e bus.Event) error {
		got = append(got, e)
		return nil
	})
	require.NoError(t, err)

	s := New("lvl", b, nil, true)
	s.Attach(fixedClock{tick: 42, at: 0.7})
	s.ReportReachedExit()

	require.Len(t, got, 1)
	assert.Equal(t, bus.EventReachedExit, got[0].Type)
	assert.Equal(t, "lvl", got[0].Source)
	assert.Equal(t, uint64(42), got[0].Tick)
	assert.InDelta(t, 0.7, got[0].Time, 1e-12)
	assert.Equal(t, OutcomeReachedExit, got[0].Data)
}

func TestExitOpen(t *testing.T) {
	s := New("lvl", nil, nil, false)
	assert.False(t, s.IsExitOpen())
	s.SetExitOpen(true)
	assert.True(t, s.IsExitOpen())
}

func TestLastKeyOpensExit(t *testing.T) {
	b := bus.New()
	var types []string
	_, err := b.SubscribeAll(func(e bus.Event) error {
		types = append(types, e.Type)
		return nil
	})
	require.NoError(t, err)

	s := New("lvl", b, nil, true)
	s.SetKeys(2)
	assert.False(t, s.IsExitOpen())
	assert.Equal(t, 2, s.KeysLeft())

	s.CollectKey()
	assert.False(t, s.IsExitOpen())
	assert.Equal(t, 1, s.KeysLeft())

	s.CollectKey()
	assert.True(t, s.IsExitOpen())
	assert.Zero(t, s.KeysLeft())

	// extra collections change nothing
	s.CollectKey()
	assert.True(t, s.IsExitOpen())
	assert.Equal(t, []string{bus.EventKeyCollected, bus.EventKeyCollected, bus.EventExitOpened}, types)
}

func TestNoKeysKeepsExitFlag(t *testing.T) {
	s := New("lvl", nil, nil, true)
	s.SetKeys(0)
	assert.True(t, s.IsExitOpen())
}

func TestFinishKeepsTerminalOutcome(t *testing.T) {
	s := New("lvl", nil, nil, false)
	assert.Equal(t, OutcomeTimedOut, s.Finish(OutcomeTimedOut))

	s = New("lvl", nil, nil, false)
	s.ReportFellOff()
	assert.Equal(t, OutcomeFellOff, s.Finish(OutcomeTimedOut))
}

func TestOutcomeText(t *testing.T) {
	assert.True(t, OutcomeFellOff.Terminal())
	assert.False(t, OutcomeTimedOut.Terminal())
	b, err := OutcomeReachedExit.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "reached_exit", string(b))
}
