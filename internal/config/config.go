// internal/config/config.go
// Centralised configuration loader for the RiftCore engine and CLI.
// Consumers (cmd/riftctl and embedded SDK users) can either:
//   - Call Load() to read config from environment variables + optional YAML
//     file path, or
//   - Instantiate Config struct manually and copy its fields into
//     core.BootstrapOptions (core.Setup takes a TickConfig and a
//     rejectOutOfOrder flag, not a Config).
//
// Load is backed by github.com/spf13/viper for both the env var binding and
// the optional YAML file: viper merges the file (if filePath is non-empty)
// under the env-var overrides, so an operator can ship a base config file
// and override individual fields per-deployment via RIFT_* env vars.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config tunes CoreState behaviour and ambient wiring.
type Config struct {
	// Recurring-tick driver (spec.md §4.6) -----------------
	Interval         time.Duration `mapstructure:"interval"`
	TickFunctionName string        `mapstructure:"tick_function_name"`

	// Timeline Scheduler (spec.md §4.5) --------------------
	// RejectOutOfOrder controls whether a per-peer (time, player_id) insert
	// observed with a decreasing offset is rejected (the default) or
	// accepted despite the resulting Call Log potentially becoming
	// unsorted by that peer's offsets (spec.md §4.5's implementation
	// choice).
	RejectOutOfOrder bool `mapstructure:"reject_out_of_order"`

	// Ambient -----------------------------------------------
	MetricsAddr string `mapstructure:"metrics_addr"`
	LogJSON     bool   `mapstructure:"log_json"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:         0,
		TickFunctionName: "",
		RejectOutOfOrder: true,
		MetricsAddr:      "localhost:9090",
		LogJSON:          false,
	}
}

// Load reads configuration from env + optional file. envPrefix e.g. "RIFT"
// transforms RIFT_INTERVAL -> Interval. If filePath is empty only env vars
// are used.
func Load(filePath, envPrefix string) Config {
	cfg := DefaultConfig()

	v := viper.New()
	if envPrefix != "" {
		v.SetEnvPrefix(envPrefix)
		v.AutomaticEnv()
		// Unmarshal only sees keys viper already knows about, so each field's
		// env var is bound explicitly.
		for _, key := range []string{"interval", "tick_function_name", "reject_out_of_order", "metrics_addr", "log_json"} {
			_ = v.BindEnv(key)
		}
	}
	if filePath != "" {
		v.SetConfigFile(filePath)
		_ = v.ReadInConfig() // ignore error; treat as optional
	}
	_ = v.Unmarshal(&cfg) // best-effort merge env + file -> struct
	return cfg
}
