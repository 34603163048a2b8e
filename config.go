package qreality

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig wraps every validation failure reported by Config.Validate.
var ErrInvalidConfig = errors.New("invalid config")

/*
Config is read once at construction. The engine never reloads it mid-run.
*/
type Config struct {
	EnableDistortions      bool `mapstructure:"enable_distortions"`
	EnableTunneling        bool `mapstructure:"enable_tunneling"`
	EnableTimeManipulation bool `mapstructure:"enable_time_manipulation"`

	MaxStates            int     `mapstructure:"max_states"`
	ProbabilityThreshold float64 `mapstructure:"probability_threshold"`
	ProbabilityRange     Range   `mapstructure:"probability_range"`
	CoherenceRange       Range   `mapstructure:"coherence_range"`
	WaveLength           int     `mapstructure:"wave_length"`

	FieldStrength float64 `mapstructure:"field_strength"`
	FieldGain     float64 `mapstructure:"field_gain"`
	FieldResponse float64 `mapstructure:"field_response"`

	InfluenceRadius float64 `mapstructure:"influence_radius"`
	InfluenceDecay  float64 `mapstructure:"influence_decay"`
	BlendRate       float64 `mapstructure:"blend_rate"`
	RotationRate    float64 `mapstructure:"rotation_rate"`

	EntanglementRadius float64 `mapstructure:"entanglement_radius"`
	TunnelMaxOffset    float64 `mapstructure:"tunnel_max_offset"`
	MinTimeScale       float64 `mapstructure:"min_time_scale"`

	StabilityBaseline float64 `mapstructure:"stability_baseline"`
	CriticalThreshold float64 `mapstructure:"critical_threshold"`
	CollapsePenalty   float64 `mapstructure:"collapse_penalty"`
	RecoveryRate      float64 `mapstructure:"recovery_rate"`
	PhysicalDefault   float64 `mapstructure:"physical_default"`
}

func NewConfig() *Config {
	return &Config{
		EnableDistortions:      true,
		EnableTunneling:        true,
		EnableTimeManipulation: false,

		MaxStates:            20,
		ProbabilityThreshold: 1.0,
		ProbabilityRange:     Range{Min: 0.5, Max: 1.0},
		CoherenceRange:       Range{Min: 5, Max: 15},
		WaveLength:           DefaultWaveLength,

		FieldStrength: 1.0,
		FieldGain:     0.1,
		FieldResponse: 2.0,

		InfluenceRadius: 10,
		InfluenceDecay:  0.98,
		BlendRate:       5,
		RotationRate:    90,

		EntanglementRadius: 15,
		TunnelMaxOffset:    20,
		MinTimeScale:       0.25,

		StabilityBaseline: 0.9,
		CriticalThreshold: 0.3,
		CollapsePenalty:   0.05,
		RecoveryRate:      0.1,
		PhysicalDefault:   -9.81,
	}
}

/*
Validate reports the first setting that would leave the engine in a state it
cannot run from. All errors wrap ErrInvalidConfig.
*/
func (c *Config) Validate() error {
	switch {
	case c.MaxStates <= 0:
		return fmt.Errorf("%w: max_states must be positive, got %d", ErrInvalidConfig, c.MaxStates)
	case c.WaveLength <= 0:
		return fmt.Errorf("%w: wave_length must be positive, got %d", ErrInvalidConfig, c.WaveLength)
	case !c.ProbabilityRange.valid() || c.ProbabilityRange.Min <= 0 || c.ProbabilityRange.Max > 1:
		return fmt.Errorf("%w: probability_range must lie in (0, 1], got %+v", ErrInvalidConfig, c.ProbabilityRange)
	case !c.CoherenceRange.valid() || c.CoherenceRange.Min <= 0:
		return fmt.Errorf("%w: coherence_range must be positive, got %+v", ErrInvalidConfig, c.CoherenceRange)
	case c.ProbabilityThreshold < 0 || c.ProbabilityThreshold > 1:
		return fmt.Errorf("%w: probability_threshold must lie in [0, 1], got %v", ErrInvalidConfig, c.ProbabilityThreshold)
	case c.InfluenceRadius <= 0:
		return fmt.Errorf("%w: influence_radius must be positive, got %v", ErrInvalidConfig, c.InfluenceRadius)
	case c.InfluenceDecay <= 0 || c.InfluenceDecay >= 1:
		return fmt.Errorf("%w: influence_decay must lie in (0, 1), got %v", ErrInvalidConfig, c.InfluenceDecay)
	case c.StabilityBaseline <= 0:
		return fmt.Errorf("%w: stability_baseline must be positive, got %v", ErrInvalidConfig, c.StabilityBaseline)
	case c.CriticalThreshold >= c.StabilityBaseline:
		return fmt.Errorf("%w: critical_threshold %v must be below stability_baseline %v",
			ErrInvalidConfig, c.CriticalThreshold, c.StabilityBaseline)
	case c.CollapsePenalty < 0 || c.RecoveryRate < 0:
		return fmt.Errorf("%w: collapse_penalty and recovery_rate must not be negative", ErrInvalidConfig)
	case c.TunnelMaxOffset <= 0:
		return fmt.Errorf("%w: tunnel_max_offset must be positive, got %v", ErrInvalidConfig, c.TunnelMaxOffset)
	case c.MinTimeScale <= 0 || c.MinTimeScale > 1:
		return fmt.Errorf("%w: min_time_scale must lie in (0, 1], got %v", ErrInvalidConfig, c.MinTimeScale)
	}

	return nil
}
