// Package session records the outcome of one play of a level and forwards
// the avatar's terminal events to the bus.
package session

import (
	"sync"

	"github.com/zeusync/cubewalk/internal/core/events/bus"
	"github.com/zeusync/cubewalk/internal/core/locomotion"
	"github.com/zeusync/cubewalk/internal/core/observability/log"
)

// Outcome is how a session ended.
type Outcome uint8

const (
	OutcomeRunning Outcome = iota
	OutcomeReachedExit
	OutcomeFellOff
	OutcomeHitHazard
	OutcomeTimedOut
	OutcomeCanceled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRunning:
		return "running"
	case OutcomeReachedExit:
		return "reached_exit"
	case OutcomeFellOff:
		return "fell_off"
	case OutcomeHitHazard:
		return "hit_hazard"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the avatar can no longer act.
func (o Outcome) Terminal() bool {
	return o == OutcomeReachedExit || o == OutcomeFellOff || o == OutcomeHitHazard
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Clock tells the session which tick an event happened on.
type Clock interface {
	Tick() uint64
	Clock() float64
}

var _ locomotion.EventSink = (*Session)(nil)

// Session implements locomotion.EventSink.
type Session struct {
	name string
	bus  bus.EventBus
	log  log.Log

	mu       sync.Mutex
	clock    Clock
	exitOpen bool
	keysLeft int
	outcome  Outcome
	reports  map[Outcome]int
}

func New(name string, eventBus bus.EventBus, logger log.Log, exitOpen bool) *Session {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Session{
		name:     name,
		bus:      eventBus,
		log:      logger.Named("session").With(log.String("level", name)),
		exitOpen: exitOpen,
		reports:  make(map[Outcome]int),
	}
}

// Attach sets the clock used to stamp events, usually the controller.
func (s *Session) Attach(c Clock) {
	s.mu.Lock()
	s.clock = c
	s.mu.Unlock()
}

func (s *Session) ReportReachedExit() { s.report(OutcomeReachedExit, bus.EventReachedExit) }
func (s *Session) ReportFellOff()     { s.report(OutcomeFellOff, bus.EventFellOff) }
func (s *Session) ReportHitHazard()   { s.report(OutcomeHitHazard, bus.EventHitHazard) }

func (s *Session) IsExitOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitOpen
}

// SetExitOpen opens or closes the exit.
func (s *Session) SetExitOpen(open bool) {
	s.mu.Lock()
	s.exitOpen = open
	s.mu.Unlock()
}

// SetKeys sets how many keys must be collected before the exit opens. A
// positive count closes the exit.
func (s *Session) SetKeys(n int) {
	s.mu.Lock()
	s.keysLeft = max(n, 0)
	s.mu.Unlock()
	if n > 0 {
		s.SetExitOpen(false)
	}
}

func (s *Session) KeysLeft() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keysLeft
}

// CollectKey counts one key down and opens the exit when it was the last.
// Collecting with no keys left is ignored.
func (s *Session) CollectKey() {
	s.mu.Lock()
	if s.keysLeft == 0 {
		s.mu.Unlock()
		return
	}
	s.keysLeft--
	left := s.keysLeft
	tick, at := s.stamp()
	s.mu.Unlock()

	s.log.Debug("key collected", log.Int("left", left), log.Uint64("tick", tick))
	s.publish(bus.EventKeyCollected, tick, at, left)
	if left == 0 {
		s.SetExitOpen(true)
		s.log.Info("exit opened", log.Uint64("tick", tick))
		s.publish(bus.EventExitOpened, tick, at, nil)
	}
}

// Outcome is the first terminal report, or OutcomeRunning.
func (s *Session) Outcome() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// Reports counts how often o was reported.
func (s *Session) Reports(o Outcome) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reports[o]
}

// Finish records a non-terminal ending if nothing terminal was reported.
func (s *Session) Finish(o Outcome) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outcome == OutcomeRunning {
		s.outcome = o
	}
	return s.outcome
}

func (s *Session) report(o Outcome, eventType string) {
	s.mu.Lock()
	s.reports[o]++
	if s.outcome == OutcomeRunning {
		s.outcome = o
	} else if s.outcome.Terminal() {
		s.log.Warn("second terminal report", log.String("first", s.outcome.String()), log.String("second", o.String()))
	}
	tick, at := s.stamp()
	s.mu.Unlock()

	s.log.Info("avatar outcome", log.String("outcome", o.String()), log.Uint64("tick", tick))
	s.publish(eventType, tick, at, o)
}

// stamp must be called with mu held.
func (s *Session) stamp() (uint64, float64) {
	if s.clock == nil {
		return 0, 0
	}
	return s.clock.Tick(), s.clock.Clock()
}

func (s *Session) publish(eventType string, tick uint64, at float64, data any) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(bus.NewEvent(eventType, s.name, tick, at, data)); err != nil {
		s.log.Error("publish event", log.String("type", eventType), log.Error(err))
	}
}
