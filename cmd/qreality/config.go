package main

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/theapemachine/qreality"
)

// flagKeys maps command line flags onto engine config keys.
var flagKeys = map[string]string{
	"max-states":         "max_states",
	"stability-baseline": "stability_baseline",
	"critical-threshold": "critical_threshold",
	"time-manipulation":  "enable_time_manipulation",
}

/*
loadConfig layers engine settings, lowest priority first: built-in defaults,
the optional config file, QREALITY_* environment variables, then flags.
*/
func loadConfig(path string, flags *pflag.FlagSet) (*qreality.Config, error) {
	cfg := qreality.NewConfig()
	v := viper.New()

	var defaults map[string]interface{}
	if err := mapstructure.Decode(*cfg, &defaults); err != nil {
		return nil, fmt.Errorf("encode defaults: %w", err)
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix("QREALITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	for flag, key := range flagKeys {
		if f := flags.Lookup(flag); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", flag, err)
			}
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
