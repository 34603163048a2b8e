package qreality

import (
	"errors"
	"math/rand/v2"
	"os"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/errnie"
)

// ErrNoHost is returned by New when no host capabilities are supplied.
var ErrNoHost = errors.New("qreality: engine requires a host")

// Option customizes an Engine at construction.
type Option func(*Engine)

// WithSeed makes every random draw of the engine reproducible.
func WithSeed(seed uint64) Option {
	return func(e *Engine) {
		e.rng = NewRNG(seed)
	}
}

// WithRNG shares an existing random source with the engine.
func WithRNG(rng *RNG) Option {
	return func(e *Engine) {
		if rng != nil {
			e.rng = rng
		}
	}
}

// WithPresenter routes presentation hooks to p.
func WithPresenter(p Presenter) Option {
	return func(e *Engine) {
		if p != nil {
			e.presenter = p
		}
	}
}

// WithLogger replaces the default warn-level stderr logger.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

/*
WithPhysicalParameter sets the external scalar driven by stability. Without it
the engine uses the host, if the host implements PhysicalParameter.
*/
func WithPhysicalParameter(p PhysicalParameter) Option {
	return func(e *Engine) {
		e.physical = p
	}
}

/*
Engine owns the whole simulation and drives it one tick at a time.

It is single-threaded: Tick must be called exactly once per
simulation step from the host's update loop, and Stats and the other read
methods must not race with it. Nothing in the engine blocks, spawns goroutines
or returns an error once it has been built.
*/
type Engine struct {
	cfg       Config
	host      Host
	physical  PhysicalParameter
	presenter Presenter
	logger    *log.Logger
	rng       *RNG

	field       *FieldGenerator
	states      *StateStore
	distortions *Registry[*Distortion]
	tunnels     *Registry[*Tunnel]
	influence   *InfluenceTracker
	stability   *StabilityController

	now       float64
	ticks     int64
	collapses int64
	closed    bool
}

/*
New builds an engine from cfg and host. cfg is copied, so later changes by the
caller have no effect. A nil cfg means NewConfig().

Construction either fully succeeds or returns an error: there is no partially
initialized engine to recover.
*/
func New(cfg *Config, host Host, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if host == nil {
		return nil, ErrNoHost
	}

	errnie.Info(
		"NewEngine - max states %d, distortions %v, tunneling %v, time manipulation %v",
		cfg.MaxStates,
		cfg.EnableDistortions,
		cfg.EnableTunneling,
		cfg.EnableTimeManipulation,
	)

	e := &Engine{
		cfg:       *cfg,
		host:      host,
		presenter: NopPresenter{},
		logger: log.NewWithOptions(os.Stderr, log.Options{
			Prefix:          "qreality",
			Level:           log.WarnLevel,
			ReportTimestamp: true,
		}),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.rng == nil {
		e.rng = NewRNG(rand.Uint64())
	}
	if e.physical == nil {
		if p, ok := host.(PhysicalParameter); ok {
			e.physical = p
		}
	}

	e.field = NewFieldGenerator(&e.cfg)
	e.states = NewStateStore(&e.cfg, e.rng)
	e.influence = NewInfluenceTracker(&e.cfg)
	e.stability = NewStabilityController(&e.cfg)

	if e.cfg.EnableDistortions {
		e.distortions = NewRegistry(func(d *Distortion) {
			e.presenter.OnDistortionRemoved(*d)
		})
	}
	if e.cfg.EnableTunneling {
		e.tunnels = NewRegistry(func(t *Tunnel) {
			e.presenter.OnTunnelRemoved(*t)
		})
	}

	e.writePhysical()
	e.logger.Info("engine ready", "max_states", e.cfg.MaxStates, "stability", e.stability.Value())
	return e, nil
}

/*
Run builds an engine, hands it to fn and closes it on every way out of fn,
panics included, so the physical parameter always gets its default back.
*/
func Run(cfg *Config, host Host, fn func(*Engine) error, opts ...Option) error {
	engine, err := New(cfg, host, opts...)
	if err != nil {
		return err
	}
	defer engine.Close()

	return fn(engine)
}

/*
CreateState adds a state at position. It returns the new state's id, or false
when the engine is at capacity or closed. Being full is not an error, callers
can simply try again later.
*/
func (e *Engine) CreateState(position Vec3, variant Variant) (string, bool) {
	if e.closed {
		return "", false
	}

	state, ok := e.states.Create(position, variant, e.now)
	if !ok {
		e.logger.Debug("state rejected", "variant", variant, "live", e.states.Len(), "capacity", e.states.Capacity())
		return "", false
	}

	e.presenter.OnStateCreated(state.Snapshot())
	return state.ID, true
}

/*
Tick runs one simulation step of dt seconds:

 1. recompute the field from the live states
 2. advance every state and collect the ones that collapse
 3. apply collapse side effects and stability penalties
 4. decay influence, sweep dead entities, apply surviving states to entities
 5. expire distortions and tunnels
 6. react to critical stability, or recover, then write the physical parameter

A non-positive dt does nothing.
*/
func (e *Engine) Tick(dt float64) {
	if e.closed || dt <= 0 {
		return
	}

	e.now += dt
	e.ticks++

	e.field.Update(e.states.Live(), dt)

	pending := e.states.Advance(dt, e.now, e.timeScale())
	e.resolveCollapses(pending)

	e.influence.Decay()
	e.influence.Sweep(e.host)
	for _, state := range e.states.Live() {
		e.influence.Apply(state, e.field.Strength(), e.host, e.now, dt)
	}

	e.distortions.Tick(dt)
	e.tunnels.Tick(dt)

	e.regulate(dt)
}

/*
ForceCollapseAll collapses every live state, with the usual side effects and
penalties, and returns how many collapsed. Unlike emergency stabilization it
leaves distortions, tunnels and the stability scalar alone; a resulting
critical stability is handled by the next Tick.
*/
func (e *Engine) ForceCollapseAll() int {
	if e.closed {
		return 0
	}

	collapsed := e.states.ForceCollapseAll()
	e.resolveCollapses(collapsed)
	return len(collapsed)
}

func (e *Engine) regulate(dt float64) {
	metrics := e.Stats()
	e.stability.Observe(&metrics)

	if e.stability.Limit() {
		e.emergencyStabilize()
	} else {
		e.stability.Recover(dt)
	}

	e.writePhysical()
}

/*
emergencyStabilize wipes every active effect and puts stability back at its
baseline. The forced collapses penalize stability like any other; the reset at
the end overrides them.
*/
func (e *Engine) emergencyStabilize() {
	value := e.stability.Value()
	e.logger.Warn(
		"stability critical, emergency stabilization",
		"stability", value,
		"states", e.states.Len(),
		"distortions", e.distortions.Len(),
		"tunnels", e.tunnels.Len(),
	)

	e.resolveCollapses(e.states.ForceCollapseAll())
	e.distortions.Clear()
	e.tunnels.Clear()
	e.stability.Renormalize()

	e.presenter.OnEmergency(value)
}

/*
timeScale returns the per-state dt multiplier used by time manipulation, or
nil when the subsystem is off. States inside a distortion run slower, by at
most MinTimeScale.
*/
func (e *Engine) timeScale() func(*State) float64 {
	if !e.cfg.EnableTimeManipulation || e.distortions.Len() == 0 {
		return nil
	}

	floor := e.cfg.MinTimeScale
	return func(state *State) float64 {
		scale := 1.0
		e.distortions.Each(func(d *Distortion) {
			if d.Contains(state.Position) {
				scale *= 1 - d.CurrentIntensity()*0.5
			}
		})
		return max(floor, min(1, scale))
	}
}

func (e *Engine) writePhysical() {
	if e.physical != nil {
		e.physical.SetPhysicalParameter(e.stability.PhysicalValue())
	}
}

/*
Close restores the physical parameter to its default. It is safe to call more
than once; a closed engine ignores every further mutation.
*/
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.closed = true

	if e.physical != nil {
		e.physical.SetPhysicalParameter(e.stability.PhysicalDefault())
	}
	e.logger.Info("engine closed", "ticks", e.ticks, "collapses", e.collapses)
}

// Stats returns a snapshot of the engine.
func (e *Engine) Stats() Metrics {
	return Metrics{
		StateCount:       e.states.Len(),
		DistortionCount:  e.distortions.Len(),
		TunnelCount:      e.tunnels.Len(),
		FieldStrength:    e.field.Strength(),
		FieldCenter:      e.field.Center(),
		Stability:        e.stability.Value(),
		AffectedEntities: e.influence.Len(),
		MeanProbability:  e.states.MeanProbability(),
		Ticks:            e.ticks,
		Collapses:        e.collapses,
		EmergencyResets:  e.stability.Resets(),
		SimulationTime:   e.now,
	}
}

// States returns snapshots of the live states in creation order.
func (e *Engine) States() []State {
	live := e.states.Live()
	out := make([]State, 0, len(live))
	for _, state := range live {
		out = append(out, state.Snapshot())
	}
	return out
}

// Distortions returns copies of the active distortions.
func (e *Engine) Distortions() []Distortion {
	var out []Distortion
	e.distortions.Each(func(d *Distortion) {
		out = append(out, *d)
	})
	return out
}

// Tunnels returns copies of the active tunnels.
func (e *Engine) Tunnels() []Tunnel {
	var out []Tunnel
	e.tunnels.Each(func(t *Tunnel) {
		out = append(out, *t)
	})
	return out
}

// Influence returns what the engine remembers about an entity.
func (e *Engine) Influence(id EntityID) (InfluenceRecord, bool) {
	return e.influence.Record(id)
}

// Field returns the current field center and strength.
func (e *Engine) Field() (Vec3, float64) {
	return e.field.Center(), e.field.Strength()
}

// StabilityState is always Stable between ticks.
func (e *Engine) StabilityState() StabilityState {
	return e.stability.State()
}

// Now is the simulation clock, in seconds.
func (e *Engine) Now() float64 {
	return e.now
}

// Rand exposes the engine's random source to host code that wants to share it.
func (e *Engine) Rand() *RNG {
	return e.rng
}
