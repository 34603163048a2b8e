package qreality

import "math"

// StabilityState is the two-state machine of the stability controller.
type StabilityState int

const (
	StabilityStable StabilityState = iota
	StabilityCritical
)

func (s StabilityState) String() string {
	switch s {
	case StabilityStable:
		return "stable"
	case StabilityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// criticalTolerance absorbs the float drift of repeated penalty subtraction.
const criticalTolerance = 1e-9

/*
StabilityController owns the single global stability scalar.

Collapses penalize it, it recovers exponentially toward its baseline, and its
value linearly scales one external physical parameter. When a penalty drives
it below the critical threshold the controller reports Limit, the engine runs
its emergency stabilization and calls Renormalize, all inside the same tick:
Critical is an edge, never a mode that survives between ticks.
*/
type StabilityController struct {
	value     float64
	baseline  float64
	threshold float64
	penalty   float64
	recovery  float64

	physicalDefault float64
	state           StabilityState
	resets          int
	last            *Metrics
}

func NewStabilityController(cfg *Config) *StabilityController {
	return &StabilityController{
		value:           cfg.StabilityBaseline,
		baseline:        cfg.StabilityBaseline,
		threshold:       cfg.CriticalThreshold,
		penalty:         cfg.CollapsePenalty,
		recovery:        cfg.RecoveryRate,
		physicalDefault: cfg.PhysicalDefault,
		state:           StabilityStable,
	}
}

/*
Observe implements Regulator. The controller keeps the snapshot for
inspection; its decisions depend on the scalar alone.
*/
func (sc *StabilityController) Observe(metrics *Metrics) {
	sc.last = metrics
}

/*
Limit implements Regulator. It reports true, and enters Critical, when the
scalar has dropped below the critical threshold.
*/
func (sc *StabilityController) Limit() bool {
	if sc.value < sc.threshold-criticalTolerance {
		sc.state = StabilityCritical
		return true
	}
	return false
}

/*
Renormalize implements Regulator by resetting the scalar to its baseline and
returning to Stable.
*/
func (sc *StabilityController) Renormalize() {
	if sc.state == StabilityCritical {
		sc.resets++
	}
	sc.value = sc.baseline
	sc.state = StabilityStable
}

// Penalize applies the configured collapse penalty once.
func (sc *StabilityController) Penalize() {
	sc.value -= sc.penalty
}

/*
Recover eases the scalar toward baseline by a factor proportional to dt. The
distance to baseline only ever shrinks.
*/
func (sc *StabilityController) Recover(dt float64) {
	sc.value = lerp(sc.value, sc.baseline, 1-math.Exp(-sc.recovery*dt))
}

// PhysicalValue is the physical parameter as scaled by the current stability.
func (sc *StabilityController) PhysicalValue() float64 {
	return sc.physicalDefault * sc.value / sc.baseline
}

// PhysicalDefault is the unmodified physical parameter.
func (sc *StabilityController) PhysicalDefault() float64 {
	return sc.physicalDefault
}

func (sc *StabilityController) Value() float64 {
	return sc.value
}

func (sc *StabilityController) Baseline() float64 {
	return sc.baseline
}

func (sc *StabilityController) State() StabilityState {
	return sc.state
}

// Resets counts the emergency resets performed so far.
func (sc *StabilityController) Resets() int {
	return sc.resets
}
