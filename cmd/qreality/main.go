/*
Command qreality runs the reality engine headless against an in-memory scene,
spawning states at random and reporting what the simulation does.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/pflag"
	"github.com/theapemachine/qreality"
	"github.com/theapemachine/qreality/internal/scene"
)

type runOptions struct {
	ticks       int
	dt          float64
	seed        uint64
	entities    int
	extent      float64
	spawnChance float64
	spawnBurst  int
	spawnRate   float64
	reportEvery int
	dump        bool
}

func main() {
	flags := pflag.NewFlagSet("qreality", pflag.ExitOnError)

	configPath := flags.String("config", "", "path to a config file (yaml, toml or json)")
	level := flags.String("log-level", "info", "debug, info, warn or error")

	var opts runOptions
	flags.IntVar(&opts.ticks, "ticks", 3600, "number of ticks to simulate")
	flags.Float64Var(&opts.dt, "dt", 1.0/60, "seconds per tick")
	flags.Uint64Var(&opts.seed, "seed", 1, "random seed")
	flags.IntVar(&opts.entities, "entities", 200, "entities to scatter in the scene")
	flags.Float64Var(&opts.extent, "extent", 50, "half-width of the scene cube")
	flags.Float64Var(&opts.spawnChance, "spawn-chance", 0.2, "chance per tick of trying to spawn a state")
	flags.IntVar(&opts.spawnBurst, "spawn-burst", 5, "spawns allowed back to back")
	flags.Float64Var(&opts.spawnRate, "spawn-rate", 2, "spawns regained per simulated second")
	flags.IntVar(&opts.reportEvery, "report-every", 600, "ticks between progress reports")
	flags.BoolVar(&opts.dump, "dump", false, "dump the final metrics")

	flags.Int("max-states", 20, "maximum concurrent states")
	flags.Float64("stability-baseline", 0.9, "stability scalar baseline")
	flags.Float64("critical-threshold", 0.3, "stability below which the engine resets")
	flags.Bool("time-manipulation", false, "slow states inside distortions")

	_ = flags.Parse(os.Args[1:])

	logLevel, err := log.ParseLevel(*level)
	if err != nil {
		logLevel = log.InfoLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "qreality",
		Level:           logLevel,
		ReportTimestamp: true,
	})

	cfg, err := loadConfig(*configPath, flags)
	if err != nil {
		logger.Fatal("configuration rejected", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	final, err := simulate(ctx, cfg, opts, logger)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("simulation failed", "err", err)
	}

	logger.Info("simulation finished", keyvals(final.ExportMetrics())...)
	if opts.dump {
		fmt.Print(spew.Sdump(final))
	}
}

/*
simulate drives one engine over the scene until the tick budget is spent or
ctx is cancelled. The engine is always closed on the way out, which hands the
scene its default physical parameter back.
*/
func simulate(ctx context.Context, cfg *qreality.Config, opts runOptions, logger *log.Logger) (qreality.Metrics, error) {
	world := scene.NewWorld(cfg.InfluenceRadius)
	rng := qreality.NewRNG(opts.seed ^ 0x5eed)
	populate(world, rng, opts)

	broadcaster := qreality.NewEventBroadcaster()
	defer broadcaster.Close()
	events := broadcaster.Subscribe("console", 256, qreality.OnlyKinds(
		qreality.EventEmergency,
		qreality.EventDistortionCreated,
		qreality.EventTunnelCreated,
	))

	throttle := qreality.NewSpawnThrottle(opts.spawnBurst, opts.spawnRate)
	variants := qreality.Variants()

	var final qreality.Metrics
	err := qreality.Run(cfg, world, func(engine *qreality.Engine) error {
		for tick := 1; tick <= opts.ticks; tick++ {
			if err := ctx.Err(); err != nil {
				final = engine.Stats()
				return err
			}

			stats := engine.Stats()
			throttle.Advance(opts.dt)
			throttle.Observe(&stats)

			if rng.Float64() < opts.spawnChance && !throttle.Limit() {
				variant := variants[int(rng.Float64()*float64(len(variants)))]
				engine.CreateState(randomPoint(rng, opts.extent), variant)
			}

			engine.Tick(opts.dt)
			traverseTunnels(engine, world, rng)
			drain(events, logger)

			if opts.reportEvery > 0 && tick%opts.reportEvery == 0 {
				stats = engine.Stats()
				logger.Info("progress", keyvals(stats.ExportMetrics())...)
			}
		}

		final = engine.Stats()
		return nil
	}, qreality.WithSeed(opts.seed), qreality.WithLogger(logger), qreality.WithPresenter(broadcaster))

	return final, err
}

func populate(world *scene.World, rng *qreality.RNG, opts runOptions) {
	for i := 0; i < opts.entities; i++ {
		world.Spawn(qreality.Transform{
			Position: randomPoint(rng, opts.extent),
			Scale:    qreality.Vec3{X: 1, Y: 1, Z: 1},
		}, i%2 == 0)
	}
}

func randomPoint(rng *qreality.RNG, extent float64) qreality.Vec3 {
	span := qreality.Range{Min: -extent, Max: extent}
	return qreality.Vec3{X: rng.Range(span), Y: rng.Range(span), Z: rng.Range(span)}
}

// tunnelMouth is how close to an entry an entity must be to try a tunnel.
const tunnelMouth = 1.5

func traverseTunnels(engine *qreality.Engine, world *scene.World, rng *qreality.RNG) {
	for _, tunnel := range engine.Tunnels() {
		for _, id := range world.QueryRadius(tunnel.Entry, tunnelMouth) {
			exit, moved := tunnel.Traverse(rng.Float64())
			if !moved {
				continue
			}
			if t, ok := world.Transform(id); ok {
				t.Position = exit
				world.SetTransform(id, t)
			}
		}
	}
}

func drain(events <-chan qreality.Event, logger *log.Logger) {
	for {
		select {
		case ev := <-events:
			switch ev.Kind {
			case qreality.EventEmergency:
				logger.Warn("emergency stabilization", "stability", ev.Stability)
			case qreality.EventDistortionCreated:
				logger.Debug("distortion", "id", ev.Distortion.ID, "radius", ev.Distortion.Radius)
			case qreality.EventTunnelCreated:
				logger.Debug("tunnel", "id", ev.Tunnel.ID, "length", ev.Tunnel.Length())
			}
		default:
			return
		}
	}
}

// keyvals flattens a metrics map into sorted logger key/value pairs.
func keyvals(m map[string]interface{}) []interface{} {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]interface{}, 0, len(m)*2)
	for _, k := range keys {
		out = append(out, k, m[k])
	}
	return out
}
