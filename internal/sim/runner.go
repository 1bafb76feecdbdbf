// Package sim drives a locomotion controller through a scripted play of a
// level at a fixed tick rate.
package sim

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/zeusync/cubewalk/internal/config"
	"github.com/zeusync/cubewalk/internal/core/events/bus"
	"github.com/zeusync/cubewalk/internal/core/geom"
	"github.com/zeusync/cubewalk/internal/core/locomotion"
	"github.com/zeusync/cubewalk/internal/core/observability/log"
	"github.com/zeusync/cubewalk/internal/core/terrain"
	"github.com/zeusync/cubewalk/internal/session"
)

// Result summarizes one run.
type Result struct {
	Script   string              `json:"script"`
	Level    string              `json:"level"`
	Digest   uint64              `json:"digest"`
	Outcome  session.Outcome     `json:"outcome"`
	Ticks    uint64              `json:"ticks"`
	Time     float64             `json:"time"`
	Final    locomotion.Snapshot `json:"final"`
	Triggers int                 `json:"triggers"`
	KeysLeft int                 `json:"keys_left"`
}

// Runner plays scripts. It is safe to call Run from several goroutines; each
// run owns its controller.
type Runner struct {
	cfg config.Config
	bus bus.EventBus
	log log.Log

	// Pace sleeps between ticks to play in real time when set.
	Pace bool
}

func NewRunner(cfg config.Config, eventBus bus.EventBus, logger log.Log) *Runner {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Runner{cfg: cfg, bus: eventBus, log: logger.Named("sim")}
}

// Run loads the script's level and plays it.
func (r *Runner) Run(ctx context.Context, script *Script) (Result, error) {
	lvl, err := script.LoadLevel()
	if err != nil {
		return Result{}, err
	}
	return r.RunLevel(ctx, lvl, script)
}

// RunLevel plays script on an already loaded level.
func (r *Runner) RunLevel(ctx context.Context, lvl *terrain.Level, script *Script) (Result, error) {
	grid := lvl.Grid()
	tuning := r.cfg.Tuning
	tuning.CubeSize = grid.CubeSize()
	tuning.ProbeDistance = math.Min(tuning.ProbeDistance, tuning.CubeSize)

	logger := r.log.With(log.String("script", script.Name), log.String("level", lvl.Name))
	sess := session.New(lvl.Name, r.bus, r.log, lvl.ExitOpen)
	sess.SetKeys(grid.Keys())
	ctrl, err := locomotion.NewController(tuning, locomotion.Spawn{
		Position:       lvl.SpawnPoint(),
		CameraRotation: geom.EulerVec(lvl.CameraEuler()),
		SkipIntro:      script.SkipIntro,
	}, grid, sess, logger)
	if err != nil {
		return Result{}, fmt.Errorf("controller: %w", err)
	}
	sess.Attach(ctrl)

	res := Result{Script: script.Name, Level: lvl.Name, Digest: lvl.Digest()}
	logger.Info("run started", log.Uint64("digest", res.Digest), log.Int("cubes", grid.Len()))

	duration := script.Duration
	if duration <= 0 {
		duration = r.cfg.Simulation.MaxDuration
	}
	dt := r.cfg.TickSeconds()
	ticks := int(math.Ceil(duration/dt - 1e-9))
	tr := &triggers{
		ctrl:      ctrl,
		sess:      sess,
		grid:      grid,
		radius:    r.cfg.Simulation.TriggerRadius,
		touching:  make(map[terrain.Overlap]bool),
		collected: make(map[terrain.Cell]bool),
	}

	var ticker *time.Ticker
	if r.Pace {
		ticker = time.NewTicker(time.Duration(dt * float64(time.Second)))
		defer ticker.Stop()
	}

	finish := func(o session.Outcome) Result {
		res.Outcome = sess.Finish(o)
		res.Ticks = ctrl.Tick()
		res.KeysLeft = sess.KeysLeft()
		res.Time = ctrl.Clock()
		res.Final = ctrl.Snapshot()
		logger.Info("run finished",
			log.String("outcome", res.Outcome.String()),
			log.Uint64("ticks", res.Ticks),
			log.Vec3("position", res.Final.Position))
		return res
	}

	for i := 0; i < ticks; i++ {
		if ticker != nil {
			select {
			case <-ctx.Done():
			case <-ticker.C:
			}
		}
		if err := ctx.Err(); err != nil {
			return finish(session.OutcomeCanceled), err
		}

		now := float64(i) * dt
		for _, cmd := range script.commandsAt(now, dt) {
			ctrl.SubmitCommand(cmd)
		}
		ctrl.Step(dt)
		res.Triggers += tr.fire()
		r.publishTick(script.Name, ctrl, logger)

		if ctrl.IsExited() || sess.Outcome().Terminal() {
			break
		}
	}
	return finish(session.OutcomeTimedOut), nil
}

// triggers tracks which volumes the avatar is inside across ticks.
type triggers struct {
	ctrl   *locomotion.Controller
	sess   *session.Session
	grid   *terrain.Grid
	radius float64

	touching  map[terrain.Overlap]bool
	collected map[terrain.Cell]bool
}

// fire reports the trigger volumes the avatar entered this tick. Keys go to
// the session, once each and only while the avatar is alive.
func (t *triggers) fire() int {
	now := t.grid.Overlaps(t.ctrl.Position(), t.radius)
	current := make(map[terrain.Overlap]bool, len(now))
	fired := 0
	for _, o := range now {
		current[o] = true
		if t.touching[o] {
			continue
		}
		if o.Kind == terrain.KindKey {
			if t.collected[o.Cell] || !t.ctrl.IsAlive() {
				continue
			}
			t.collected[o.Cell] = true
			t.sess.CollectKey()
		} else {
			t.ctrl.OnTrigger(triggerOf(o.Kind))
		}
		fired++
	}
	clear(t.touching)
	for o := range current {
		t.touching[o] = true
	}
	return fired
}

func triggerOf(k terrain.Kind) locomotion.Trigger {
	switch k {
	case terrain.KindHazard:
		return locomotion.TriggerHazard
	case terrain.KindExit:
		return locomotion.TriggerExit
	default:
		return locomotion.TriggerCube
	}
}

func (r *Runner) publishTick(source string, ctrl *locomotion.Controller, logger log.Log) {
	every := uint64(r.cfg.Observer.Every)
	if r.bus == nil || every == 0 || ctrl.Tick()%every != 0 {
		return
	}
	snap := ctrl.Snapshot()
	if err := r.bus.Publish(bus.NewEvent(bus.EventTick, source, snap.Tick, snap.Time, snap)); err != nil {
		logger.Warn("publish tick", log.Error(err))
	}
}
