package qreality

/*
Regulator is a feedback component that watches the simulation and restricts or
restores it. Like a thermostat, it observes, decides whether to limit, and can
be asked to bring its system back to normal.

Two regulators ship with the package:
  - StabilityController: limits when the stability scalar goes critical, and
    renormalizes by resetting it to baseline.
  - SpawnThrottle: a host-side token bucket for CreateState calls.
*/
type Regulator interface {
	// Observe hands the regulator the latest metrics snapshot.
	Observe(metrics *Metrics)

	// Limit reports whether the regulated action should be restricted.
	Limit() bool

	// Renormalize returns the regulator to its normal operating state.
	Renormalize()
}
