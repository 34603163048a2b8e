package qreality

/*
Metrics is a read-only snapshot of the engine, taken between ticks.
*/
type Metrics struct {
	StateCount       int
	DistortionCount  int
	TunnelCount      int
	FieldStrength    float64
	FieldCenter      Vec3
	Stability        float64
	AffectedEntities int
	MeanProbability  float64

	Ticks           int64
	Collapses       int64
	EmergencyResets int
	SimulationTime  float64
}

// ExportMetrics flattens the snapshot into a map, keyed for dashboards.
func (m *Metrics) ExportMetrics() map[string]interface{} {
	return map[string]interface{}{
		"state_count":       m.StateCount,
		"distortion_count":  m.DistortionCount,
		"tunnel_count":      m.TunnelCount,
		"field_strength":    m.FieldStrength,
		"stability":         m.Stability,
		"affected_entities": m.AffectedEntities,
		"mean_probability":  m.MeanProbability,
		"ticks":             m.Ticks,
		"collapses":         m.Collapses,
		"emergency_resets":  m.EmergencyResets,
		"simulation_time":   m.SimulationTime,
	}
}
