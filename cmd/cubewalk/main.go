package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"golang.org/x/sync/errgroup"

	"github.com/zeusync/cubewalk/internal/config"
	"github.com/zeusync/cubewalk/internal/core/observability/log"
	"github.com/zeusync/cubewalk/internal/injector"
	"github.com/zeusync/cubewalk/internal/sim"
	"github.com/zeusync/cubewalk/internal/transport/observer"
	"github.com/zeusync/cubewalk/pkg/concurrent"
)

var CLI struct {
	ConfigFile string `name:"config" short:"c" help:"Configuration file." type:"path"`
	Debug      bool   `help:"Whether to enable debug logging."`

	Run struct {
		Scenario string `arg:"" name:"scenario" help:"Scenario script to play." type:"existingfile"`
		Observe  bool   `help:"Stream snapshots to websocket viewers and play in real time."`
		Addr     string `help:"Observer listen address, overrides observer.addr." placeholder:"HOST:PORT"`
	} `cmd:"" help:"Play one scenario and print its result."`

	Replay struct {
		Scenarios []string `arg:"" name:"scenarios" help:"Scenario scripts to replay." type:"existingfile"`
		Parallel  int      `help:"Number of scenarios replayed at once." default:"4"`
	} `cmd:"" help:"Replay scenarios in parallel and check their expectations."`

	Config struct{} `cmd:"" help:"Write the default configuration to standard output."`
}

func writeError(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", err)
	os.Exit(1)
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("cubewalk"),
		kong.Description("a cube-walker locomotion simulator"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))

	cfg, err := config.Load(CLI.ConfigFile)
	if err != nil {
		writeError(err)
	}
	if CLI.Debug {
		cfg.Log.Level = "debug"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch kctx.Command() {
	case "run <scenario>":
		err = runCommand(ctx, cfg)
	case "replay <scenarios>":
		err = replayCommand(ctx, cfg)
	case "config":
		err = cfg.Write(os.Stdout)
	}
	if err != nil {
		stop()
		writeError(err)
	}
}

func runCommand(ctx context.Context, cfg config.Config) error {
	script, err := sim.LoadScript(CLI.Run.Scenario)
	if err != nil {
		return err
	}
	if CLI.Run.Addr != "" {
		cfg.Observer.Addr = CLI.Run.Addr
	}

	app, err := injector.InitializeApp(cfg)
	if err != nil {
		return err
	}
	defer app.Log.Sync()

	if !CLI.Run.Observe {
		res, err := app.Runner.Run(ctx, script)
		if err != nil {
			return err
		}
		return report(res, script.Verify(res))
	}

	sub, err := app.Hub.Attach(app.Bus)
	if err != nil {
		return err
	}
	defer func() { _ = sub.Cancel() }()
	app.Runner.Pace = true

	var res sim.Result
	serveCtx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(serveCtx)
	g.Go(func() error {
		return observer.Serve(gctx, cfg.Observer.Addr, app.Hub)
	})
	g.Go(func() error {
		defer cancel()
		var err error
		res, err = app.Runner.Run(gctx, script)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	return report(res, script.Verify(res))
}

type replayed struct {
	res sim.Result
	err error
}

func replayCommand(ctx context.Context, cfg config.Config) error {
	scripts := make([]*sim.Script, 0, len(CLI.Replay.Scenarios))
	for _, path := range CLI.Replay.Scenarios {
		s, err := sim.LoadScript(path)
		if err != nil {
			return err
		}
		scripts = append(scripts, s)
	}

	// nobody watches a replay
	cfg.Observer.Every = 0
	app, err := injector.InitializeApp(cfg)
	if err != nil {
		return err
	}
	defer app.Log.Sync()

	results, err := concurrent.RunAll(ctx, scripts, CLI.Replay.Parallel, func(ctx context.Context, s *sim.Script) (replayed, error) {
		res, err := app.Runner.Run(ctx, s)
		if err != nil {
			return replayed{}, fmt.Errorf("%s: %w", s.Name, err)
		}
		return replayed{res: res, err: s.Verify(res)}, nil
	})
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			fmt.Printf("FAIL %-24s %v\n", r.res.Script, r.err)
			continue
		}
		fmt.Printf("ok   %-24s %-12s %5d ticks\n", r.res.Script, r.res.Outcome, r.res.Ticks)
	}
	app.Log.Info("replay finished", log.Int("scenarios", len(results)), log.Int("failed", failed))
	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(results))
	}
	return nil
}

func report(res sim.Result, verifyErr error) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}
	return verifyErr
}
